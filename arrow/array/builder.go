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
	"fmt"
	"sync/atomic"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"github.com/ferrow-io/ferrow/arrow/internal/debug"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/goccy/go-json"
)

const (
	minBuilderCapacity = 1 << 5
)

// Builder provides an interface to build arrow arrays.
type Builder interface {
	json.Unmarshaler

	// Type returns the datatype that this is building
	Type() arrow.DataType

	// Retain increases the reference count by 1.
	// Retain may be called simultaneously from multiple goroutines.
	Retain()

	// Release decreases the reference count by 1.
	Release()

	// Len returns the number of elements in the array builder.
	Len() int

	// Cap returns the total number of elements that can be stored
	// without allocating additional memory.
	Cap() int

	// NullN returns the number of null values in the array builder.
	NullN() int

	// AppendNull adds a new null value to the array being built.
	AppendNull()

	// AppendNulls adds new n null values to the array being built.
	AppendNulls(n int)

	// AppendEmptyValue adds a new zero value of the appropriate type
	AppendEmptyValue()

	// Reserve ensures there is enough space for appending n elements
	// by checking the capacity and calling Resize if necessary.
	Reserve(n int)

	// Resize adjusts the space allocated by b to n elements. If n is greater than b.Cap(),
	// additional memory will be allocated. If n is smaller, the allocated memory may reduced.
	Resize(n int)

	// NewArray creates a new array from the memory buffers used
	// by the builder and resets the Builder so it can be used to build
	// a new array.
	NewArray() arrow.Array

	// UnmarshalOne reads one value from the decoder and appends it.
	UnmarshalOne(*json.Decoder) error

	// Unmarshal reads values from the decoder until the end of the
	// current JSON array.
	Unmarshal(*json.Decoder) error
}

// builder provides common functionality for managing the validity bitmap (nulls) when building arrays.
type builder struct {
	refCount   int64
	mem        memory.Allocator
	nullBitmap *memory.Buffer
	nulls      int
	length     int
	capacity   int
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (b *builder) Retain() {
	atomic.AddInt64(&b.refCount, 1)
}

// Len returns the number of elements in the array builder.
func (b *builder) Len() int { return b.length }

// Cap returns the total number of elements that can be stored without allocating additional memory.
func (b *builder) Cap() int { return b.capacity }

// NullN returns the number of null values in the array builder.
func (b *builder) NullN() int { return b.nulls }

func (b *builder) releaseBitmap() {
	if b.nullBitmap != nil {
		b.nullBitmap.Release()
		b.nullBitmap = nil
	}
}

func (b *builder) init(capacity int) {
	toAlloc := bitutil.CeilByte(capacity) / 8
	b.nullBitmap = memory.NewResizableBuffer(b.mem)
	b.nullBitmap.Resize(toAlloc)
	b.capacity = capacity
	memory.Set(b.nullBitmap.Buf(), 0)
}

func (b *builder) resize(newBits int, init func(int)) {
	if b.nullBitmap == nil {
		init(newBits)
		return
	}

	newBytesN := bitutil.CeilByte(newBits) / 8
	oldBytesN := b.nullBitmap.Len()
	b.nullBitmap.Resize(newBytesN)
	b.capacity = newBits
	if oldBytesN < newBytesN {
		memory.Set(b.nullBitmap.Buf()[oldBytesN:], 0)
	}
	if newBits < b.length {
		b.length = newBits
		b.nulls = newBits - bitutil.CountSetBits(b.nullBitmap.Buf(), 0, newBits)
	}
}

func (b *builder) reserve(elements int, resize func(int)) {
	if b.length+elements > b.capacity {
		newCap := bitutil.NextPowerOf2(b.length + elements)
		resize(newCap)
	}
}

func (b *builder) unsafeAppendBoolToBitmap(isValid bool) {
	if isValid {
		bitutil.SetBit(b.nullBitmap.Bytes(), b.length)
	} else {
		b.nulls++
	}
	b.length++
}

func (b *builder) unsafeSetValid(length int) {
	bitutil.SetBitsTo(b.nullBitmap.Bytes(), int64(b.length), int64(length), true)
	b.length += length
}

// unsafeAppendBoolsToBitmap appends the validity of len(valid) elements;
// an empty valid slice marks length elements as valid.
func (b *builder) unsafeAppendBoolsToBitmap(valid []bool, length int) {
	if len(valid) == 0 {
		b.unsafeSetValid(length)
		return
	}

	wr := bitutil.NewBitmapWriter(b.nullBitmap.Bytes(), b.length, length)
	for _, v := range valid[:length] {
		if v {
			wr.Set()
		} else {
			wr.Clear()
			b.nulls++
		}
		wr.Next()
	}
	wr.Finish()
	b.length += length
}

// takeValidity hands the validity bitmap over to a new array. The bitmap is
// dropped when no element is null so the array takes the all-valid path.
func (b *builder) takeValidity() *memory.Buffer {
	bm := b.nullBitmap
	b.nullBitmap = nil
	if bm == nil {
		return nil
	}
	if b.nulls == 0 {
		bm.Release()
		return nil
	}
	bm.Resize(int(bitutil.BytesForBits(int64(b.length))))
	return bm
}

func (b *builder) reset() {
	b.releaseBitmap()
	b.length, b.capacity, b.nulls = 0, 0, 0
}

func (b *builder) checkRelease() bool {
	debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "too many releases")
	return atomic.AddInt64(&b.refCount, -1) == 0
}

// NewBuilder returns a builder for dtype.
func NewBuilder(mem memory.Allocator, dtype arrow.DataType) Builder {
	switch dtype.ID() {
	case arrow.NULL:
		return NewNullBuilder(mem)
	case arrow.BOOL:
		return NewBooleanBuilder(mem)
	case arrow.UINT8:
		return NewNumericBuilder[uint8](mem, dtype)
	case arrow.INT8:
		return NewNumericBuilder[int8](mem, dtype)
	case arrow.UINT16:
		return NewNumericBuilder[uint16](mem, dtype)
	case arrow.INT16:
		return NewNumericBuilder[int16](mem, dtype)
	case arrow.UINT32:
		return NewNumericBuilder[uint32](mem, dtype)
	case arrow.INT32, arrow.DATE32, arrow.TIME32:
		return NewNumericBuilder[int32](mem, dtype)
	case arrow.UINT64:
		return NewNumericBuilder[uint64](mem, dtype)
	case arrow.INT64, arrow.DATE64, arrow.TIME64, arrow.TIMESTAMP, arrow.DURATION:
		return NewNumericBuilder[int64](mem, dtype)
	case arrow.FLOAT32:
		return NewNumericBuilder[float32](mem, dtype)
	case arrow.FLOAT64:
		return NewNumericBuilder[float64](mem, dtype)
	case arrow.STRING, arrow.BINARY:
		return NewBinaryBuilder(mem, dtype.(arrow.BinaryDataType))
	case arrow.STRUCT:
		return NewStructBuilder(mem, dtype.(*arrow.StructType))
	case arrow.DICTIONARY:
		return NewDictionaryBuilder(mem, dtype.(*arrow.DictionaryType))
	}
	panic(fmt.Errorf("arrow/array: unsupported builder for %T", dtype))
}
