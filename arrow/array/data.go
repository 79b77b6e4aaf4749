// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package array

import (
	"sync/atomic"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"github.com/ferrow-io/ferrow/arrow/internal/debug"
	"github.com/ferrow-io/ferrow/arrow/memory"
)

// UnknownNullCount is passed to NewData when the number of nulls has not
// been computed yet. It is computed from the validity bitmap on first use.
const UnknownNullCount = -1

// Data represents the memory and metadata of an array. It is shared by
// an array and all of its slices; element i of the array lives at
// position offset+i of every buffer.
type Data struct {
	refCount   int64
	dtype      arrow.DataType
	nulls      int64
	offset     int
	length     int
	buffers    []*memory.Buffer // buffers[0] is the validity bitmap or nil
	childData  []arrow.ArrayData
	dictionary *Data
}

// NewData creates a new Data. Buffers and children are retained.
func NewData(dtype arrow.DataType, length int, buffers []*memory.Buffer, childData []arrow.ArrayData, nulls, offset int) *Data {
	for _, b := range buffers {
		if b != nil {
			b.Retain()
		}
	}

	for _, child := range childData {
		if child != nil {
			child.Retain()
		}
	}

	if len(buffers) > 0 && buffers[0] == nil && dtype.ID() != arrow.NULL {
		nulls = 0
	}

	return &Data{
		refCount:  1,
		dtype:     dtype,
		nulls:     int64(nulls),
		length:    length,
		offset:    offset,
		buffers:   buffers,
		childData: childData,
	}
}

// NewDataWithDictionary creates a new Data for a dictionary array whose
// buffers hold the indices and dict holds the values.
func NewDataWithDictionary(dtype arrow.DataType, length int, buffers []*memory.Buffer, nulls, offset int, dict *Data) *Data {
	data := NewData(dtype, length, buffers, nil, nulls, offset)
	if dict != nil {
		dict.Retain()
	}
	data.dictionary = dict
	return data
}

// Copy returns a shallow copy of d sharing, and retaining, its buffers.
func (d *Data) Copy() *Data {
	return NewDataWithDictionary(d.dtype, d.length, d.buffers, int(atomic.LoadInt64(&d.nulls)), d.offset, d.dictionary).withChildren(d.childData)
}

func (d *Data) withChildren(children []arrow.ArrayData) *Data {
	for _, c := range children {
		c.Retain()
	}
	d.childData = children
	return d
}

// Reset sets the Data for re-use.
func (d *Data) Reset(dt arrow.DataType, length int, buffers []*memory.Buffer, childData []arrow.ArrayData, nulls, offset int) {
	for _, b := range buffers {
		if b != nil {
			b.Retain()
		}
	}
	for _, c := range childData {
		if c != nil {
			c.Retain()
		}
	}
	d.releaseContents()

	d.dtype = dt
	d.length = length
	d.buffers = buffers
	d.childData = childData
	atomic.StoreInt64(&d.nulls, int64(nulls))
	d.offset = offset
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (d *Data) Retain() {
	atomic.AddInt64(&d.refCount, 1)
}

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
// Release may be called simultaneously from multiple goroutines.
func (d *Data) Release() {
	debug.Assert(atomic.LoadInt64(&d.refCount) > 0, "too many releases")

	if atomic.AddInt64(&d.refCount, -1) == 0 {
		d.releaseContents()
		d.buffers, d.childData, d.dictionary = nil, nil, nil
	}
}

func (d *Data) releaseContents() {
	for _, b := range d.buffers {
		if b != nil {
			b.Release()
		}
	}
	for _, c := range d.childData {
		c.Release()
	}
	if d.dictionary != nil {
		d.dictionary.Release()
	}
}

func (d *Data) DataType() arrow.DataType { return d.dtype }

func (d *Data) SetNullN(n int) { atomic.StoreInt64(&d.nulls, int64(n)) }

// NullN returns the number of nulls, computing it from the validity bitmap
// the first time it is requested.
func (d *Data) NullN() int {
	nulls := atomic.LoadInt64(&d.nulls)
	if nulls < 0 {
		switch {
		case d.dtype.ID() == arrow.NULL:
			nulls = int64(d.length)
		case len(d.buffers) == 0 || d.buffers[0] == nil:
			nulls = 0
		default:
			nulls = int64(d.length - bitutil.CountSetBits(d.buffers[0].Bytes(), d.offset, d.length))
		}
		atomic.StoreInt64(&d.nulls, nulls)
	}
	return int(nulls)
}

func (d *Data) Len() int                    { return d.length }
func (d *Data) Offset() int                 { return d.offset }
func (d *Data) Buffers() []*memory.Buffer   { return d.buffers }
func (d *Data) Children() []arrow.ArrayData { return d.childData }
func (d *Data) DictionaryData() *Data       { return d.dictionary }
func (d *Data) Dictionary() arrow.ArrayData {
	if d.dictionary == nil {
		return nil
	}
	return d.dictionary
}

// SetDictionary replaces the dictionary of d, retaining dict.
func (d *Data) SetDictionary(dict arrow.ArrayData) {
	if d.dictionary != nil {
		d.dictionary.Release()
		d.dictionary = nil
	}
	if dict != nil {
		dict.Retain()
		d.dictionary = dict.(*Data)
	}
}

// SizeInBytes returns the size of the Data and any children and/or
// dictionary in bytes by summing the lengths of the buffers.
func (d *Data) SizeInBytes() uint64 {
	var size uint64
	if d == nil {
		return 0
	}
	for _, b := range d.buffers {
		if b != nil {
			size += uint64(b.Len())
		}
	}
	for _, c := range d.childData {
		size += c.SizeInBytes()
	}
	if d.dictionary != nil {
		size += d.dictionary.SizeInBytes()
	}
	return size
}

// NewSliceData returns a new slice that shares backing data with the input.
// The returned Data slice starts at i and extends j-i elements, such as:
//
//	slice := data[i:j]
//
// The returned value must be Release'd after use.
//
// NewSliceData panics if the slice is outside the valid range of the input Data.
// NewSliceData panics if j < i.
func NewSliceData(data arrow.ArrayData, i, j int64) arrow.ArrayData {
	if j > int64(data.Len()) || i > j || data.Offset()+int(i) > data.Offset()+data.Len() {
		panic("arrow/array: index out of range")
	}

	src := data.(*Data)
	nulls := UnknownNullCount
	switch n := atomic.LoadInt64(&src.nulls); {
	case n == 0:
		nulls = 0
	case n == int64(src.length):
		nulls = int(j - i)
	}

	o := NewDataWithDictionary(src.dtype, int(j-i), src.buffers, nulls, src.offset+int(i), src.dictionary)
	o.withChildren(src.childData)
	return o
}

var (
	_ arrow.ArrayData = (*Data)(nil)
)
