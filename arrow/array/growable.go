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
	"math"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"github.com/ferrow-io/ferrow/arrow/memory"
)

// Growable builds a new array out of ranges of a fixed set of source
// arrays of one type. Extend appends elements [start, start+n) of the
// source at index src; ExtendValidity appends n null elements.
//
// The resulting array starts at offset 0 in freshly allocated buffers. It
// carries a validity bitmap only when a copied range contained a null or
// ExtendValidity was called.
type Growable interface {
	Extend(src, start, n int)
	ExtendValidity(n int)
	// Len returns the number of elements appended so far.
	Len() int
	// NewArray returns the array built so far and resets the growable.
	NewArray() arrow.Array
	Release()
}

// NewGrowable returns a Growable over arrays. capacity is a hint for the
// final length. Every source must have the same data type.
func NewGrowable(mem memory.Allocator, arrays []arrow.Array, capacity int) (Growable, error) {
	if len(arrays) == 0 {
		return nil, fmt.Errorf("%w: growable needs at least one source array", arrow.ErrInvalid)
	}

	dt := arrays[0].DataType()
	for _, a := range arrays[1:] {
		if !arrow.TypeEqual(dt, a.DataType()) {
			return nil, fmt.Errorf("%w: growable sources must share one type, got %s and %s",
				arrow.ErrType, dt, a.DataType())
		}
	}

	base := growableBase{mem: mem, dtype: dt, arrays: arrays}
	switch dt.ID() {
	case arrow.NULL:
		return &nullGrowable{growableBase: base}, nil
	case arrow.BOOL:
		g := &booleanGrowable{growableBase: base}
		g.reserve(capacity)
		return g, nil
	case arrow.STRING, arrow.BINARY:
		return newBinaryGrowable(base, capacity), nil
	case arrow.STRUCT:
		return newStructGrowable(base, capacity)
	case arrow.DICTIONARY:
		return newDictionaryGrowable(base, capacity)
	}

	if w := arrow.ByteWidth(dt); w > 0 {
		g := &fixedWidthGrowable{growableBase: base, byteWidth: w}
		g.reserve(capacity)
		return g, nil
	}
	return nil, fmt.Errorf("%w: growable for %s", arrow.ErrNotImplemented, dt)
}

// growableBase tracks the length and the validity bitmap shared by every
// variant.
type growableBase struct {
	mem    memory.Allocator
	dtype  arrow.DataType
	arrays []arrow.Array

	length       int
	nulls        int
	validity     *memory.Buffer
	needValidity bool
}

// reserveBits makes room for n more validity bits.
func (g *growableBase) reserveBits(n int) {
	need := int(bitutil.BytesForBits(int64(g.length + n)))
	if g.validity == nil {
		g.validity = memory.NewResizableBuffer(g.mem)
	}
	if old := g.validity.Len(); need > old {
		if need > g.validity.Cap() {
			g.validity.Reserve(bitutil.NextPowerOf2(need))
		}
		g.validity.Resize(need)
		memory.Set(g.validity.Bytes()[old:], 0)
	}
}

func (g *growableBase) appendValidity(src arrow.Array, start, n int) {
	g.reserveBits(n)
	bits := g.validity.Bytes()
	if src.NullN() == 0 {
		bitutil.SetBitsTo(bits, int64(g.length), int64(n), true)
		g.length += n
		return
	}

	for i := 0; i < n; i++ {
		valid := src.IsValid(start + i)
		bitutil.SetBitTo(bits, g.length+i, valid)
		if !valid {
			g.nulls++
			g.needValidity = true
		}
	}
	g.length += n
}

func (g *growableBase) appendNulls(n int) {
	g.reserveBits(n)
	bitutil.SetBitsTo(g.validity.Bytes(), int64(g.length), int64(n), false)
	g.length += n
	g.nulls += n
	g.needValidity = true
}

func (g *growableBase) Len() int { return g.length }

// takeValidity returns the validity buffer for the finished array, or nil
// if no element is null.
func (g *growableBase) takeValidity() *memory.Buffer {
	bm := g.validity
	g.validity = nil
	if bm != nil && !g.needValidity {
		bm.Release()
		bm = nil
	}
	return bm
}

func (g *growableBase) reset() {
	if g.validity != nil {
		g.validity.Release()
		g.validity = nil
	}
	g.length, g.nulls, g.needValidity = 0, 0, false
}

func releaseBuffers(bufs ...*memory.Buffer) {
	for _, b := range bufs {
		if b != nil {
			b.Release()
		}
	}
}

type nullGrowable struct {
	growableBase
}

func (g *nullGrowable) Extend(_, _, n int)   { g.length += n }
func (g *nullGrowable) ExtendValidity(n int) { g.length += n }
func (g *nullGrowable) Release()             { g.reset() }

func (g *nullGrowable) NewArray() arrow.Array {
	n := g.length
	g.reset()
	return NewNull(n)
}

type fixedWidthGrowable struct {
	growableBase
	byteWidth int
	values    *memory.Buffer
}

func (g *fixedWidthGrowable) reserve(n int) {
	if n <= 0 {
		return
	}
	if g.values == nil {
		g.values = memory.NewResizableBuffer(g.mem)
	}
	g.values.Reserve((g.length + n) * g.byteWidth)
}

func (g *fixedWidthGrowable) grow(n int) []byte {
	if g.values == nil {
		g.values = memory.NewResizableBuffer(g.mem)
	}
	old := g.values.Len()
	need := old + n*g.byteWidth
	if need > g.values.Cap() {
		g.values.Reserve(bitutil.NextPowerOf2(need))
	}
	g.values.Resize(need)
	return g.values.Bytes()[old:need]
}

func (g *fixedWidthGrowable) Extend(src, start, n int) {
	arr := g.arrays[src]
	dst := g.grow(n)
	if vals := arr.Data().Buffers()[1]; vals != nil {
		beg := (arr.Data().Offset() + start) * g.byteWidth
		copy(dst, vals.Bytes()[beg:beg+n*g.byteWidth])
	}
	g.appendValidity(arr, start, n)
}

func (g *fixedWidthGrowable) ExtendValidity(n int) {
	memory.Set(g.grow(n), 0)
	g.appendNulls(n)
}

func (g *fixedWidthGrowable) NewArray() arrow.Array {
	if g.values == nil {
		g.values = memory.NewResizableBuffer(g.mem)
	}
	validity := g.takeValidity()
	data := NewData(g.dtype, g.length, []*memory.Buffer{validity, g.values}, nil, g.nulls, 0)
	releaseBuffers(validity, g.values)
	g.values = nil
	g.reset()
	defer data.Release()
	return MakeFromData(data)
}

func (g *fixedWidthGrowable) Release() {
	releaseBuffers(g.values)
	g.values = nil
	g.reset()
}

type booleanGrowable struct {
	growableBase
	values *memory.Buffer
}

func (g *booleanGrowable) reserve(n int) {
	if g.values == nil {
		g.values = memory.NewResizableBuffer(g.mem)
	}
	g.values.Reserve(int(bitutil.BytesForBits(int64(g.length + n))))
}

func (g *booleanGrowable) grow(n int) []byte {
	need := int(bitutil.BytesForBits(int64(g.length + n)))
	if old := g.values.Len(); need > old {
		if need > g.values.Cap() {
			g.values.Reserve(bitutil.NextPowerOf2(need))
		}
		g.values.Resize(need)
		memory.Set(g.values.Bytes()[old:], 0)
	}
	return g.values.Bytes()
}

func (g *booleanGrowable) Extend(src, start, n int) {
	arr := g.arrays[src].(*Boolean)
	dst := g.grow(n)
	if n > 0 {
		bitutil.CopyBitmap(arr.values, arr.Offset()+start, n, dst, g.length)
	}
	g.appendValidity(arr, start, n)
}

func (g *booleanGrowable) ExtendValidity(n int) {
	dst := g.grow(n)
	bitutil.SetBitsTo(dst, int64(g.length), int64(n), false)
	g.appendNulls(n)
}

func (g *booleanGrowable) NewArray() arrow.Array {
	validity := g.takeValidity()
	data := NewData(g.dtype, g.length, []*memory.Buffer{validity, g.values}, nil, g.nulls, 0)
	releaseBuffers(validity, g.values)
	g.values = nil
	g.reset()
	g.reserve(0)
	defer data.Release()
	return MakeFromData(data)
}

func (g *booleanGrowable) Release() {
	releaseBuffers(g.values)
	g.values = nil
	g.reset()
}

type binaryGrowable struct {
	growableBase
	offsets *typedBufferBuilder[int32]
	values  *byteBufferBuilder
}

func newBinaryGrowable(base growableBase, capacity int) *binaryGrowable {
	g := &binaryGrowable{
		growableBase: base,
		offsets:      newTypedBufferBuilder[int32](base.mem),
		values:       newByteBufferBuilder(base.mem),
	}
	g.offsets.Reserve((capacity + 1) * arrow.Int32SizeBytes)
	g.offsets.AppendValue(0)
	return g
}

func (g *binaryGrowable) lastOffset() int32 {
	offs := g.offsets.Values()
	return offs[len(offs)-1]
}

func (g *binaryGrowable) Extend(src, start, n int) {
	arr := g.arrays[src]
	var bin *Binary
	switch a := arr.(type) {
	case *String:
		bin = &a.Binary
	case *Binary:
		bin = a
	}

	if n > 0 {
		srcOffsets := bin.ValueOffsets()[start : start+n+1]
		first, last := srcOffsets[0], srcOffsets[n]
		if int64(g.lastOffset())+int64(last-first) > math.MaxInt32 {
			panic(fmt.Errorf("arrow/array: binary growable exceeds the int32 offset range"))
		}

		base := g.lastOffset() - first
		for _, o := range srcOffsets[1:] {
			g.offsets.AppendValue(base + o)
		}
		g.values.Append(bin.ValueBytes()[first:last])
	}
	g.appendValidity(arr, start, n)
}

func (g *binaryGrowable) ExtendValidity(n int) {
	last := g.lastOffset()
	for i := 0; i < n; i++ {
		g.offsets.AppendValue(last)
	}
	g.appendNulls(n)
}

func (g *binaryGrowable) NewArray() arrow.Array {
	offsets, values := g.offsets.Finish(), g.values.Finish()
	validity := g.takeValidity()
	data := NewData(g.dtype, g.length, []*memory.Buffer{validity, offsets, values}, nil, g.nulls, 0)
	releaseBuffers(validity, offsets, values)
	g.reset()
	g.offsets.AppendValue(0)
	defer data.Release()
	return MakeFromData(data)
}

func (g *binaryGrowable) Release() {
	g.offsets.Release()
	g.values.Release()
	g.reset()
}

type structGrowable struct {
	growableBase
	children []Growable
}

func newStructGrowable(base growableBase, capacity int) (*structGrowable, error) {
	st := base.dtype.(*arrow.StructType)
	g := &structGrowable{growableBase: base, children: make([]Growable, st.NumFields())}
	for f := range g.children {
		fields := make([]arrow.Array, len(base.arrays))
		for i, a := range base.arrays {
			fields[i] = a.(*Struct).Field(f)
		}
		child, err := NewGrowable(base.mem, fields, capacity)
		if err != nil {
			g.Release()
			return nil, err
		}
		g.children[f] = child
	}
	return g, nil
}

func (g *structGrowable) Extend(src, start, n int) {
	for _, c := range g.children {
		c.Extend(src, start, n)
	}
	g.appendValidity(g.arrays[src], start, n)
}

func (g *structGrowable) ExtendValidity(n int) {
	for _, c := range g.children {
		c.ExtendValidity(n)
	}
	g.appendNulls(n)
}

func (g *structGrowable) NewArray() arrow.Array {
	children := make([]arrow.ArrayData, len(g.children))
	for i, c := range g.children {
		arr := c.NewArray()
		defer arr.Release()
		children[i] = arr.Data()
	}
	validity := g.takeValidity()
	data := NewData(g.dtype, g.length, []*memory.Buffer{validity}, children, g.nulls, 0)
	releaseBuffers(validity)
	g.reset()
	defer data.Release()
	return MakeFromData(data)
}

func (g *structGrowable) Release() {
	for _, c := range g.children {
		if c != nil {
			c.Release()
		}
	}
	g.reset()
}

type dictionaryGrowable struct {
	indices Growable
	dict    *Data
	dtype   arrow.DataType
}

func newDictionaryGrowable(base growableBase, capacity int) (*dictionaryGrowable, error) {
	first := base.arrays[0].(*Dictionary)
	indices := make([]arrow.Array, len(base.arrays))
	for i, a := range base.arrays {
		d := a.(*Dictionary)
		if d.Data().(*Data).dictionary != first.Data().(*Data).dictionary && !Equal(d.Dictionary(), first.Dictionary()) {
			return nil, fmt.Errorf("%w: growable sources must share one dictionary", arrow.ErrInvalid)
		}
		indices[i] = d.Indices()
	}

	idx, err := NewGrowable(base.mem, indices, capacity)
	if err != nil {
		return nil, err
	}
	dict := first.Data().(*Data).dictionary
	dict.Retain()
	return &dictionaryGrowable{indices: idx, dict: dict, dtype: base.dtype}, nil
}

func (g *dictionaryGrowable) Extend(src, start, n int) { g.indices.Extend(src, start, n) }
func (g *dictionaryGrowable) ExtendValidity(n int)     { g.indices.ExtendValidity(n) }
func (g *dictionaryGrowable) Len() int                 { return g.indices.Len() }

func (g *dictionaryGrowable) NewArray() arrow.Array {
	idx := g.indices.NewArray()
	defer idx.Release()
	data := NewDataWithDictionary(g.dtype, idx.Len(), idx.Data().Buffers(), idx.NullN(), 0, g.dict)
	defer data.Release()
	return MakeFromData(data)
}

func (g *dictionaryGrowable) Release() {
	g.indices.Release()
	if g.dict != nil {
		g.dict.Release()
		g.dict = nil
	}
}

// Concatenate creates a new array holding the elements of every array in
// arrs, in order. The arrays must share one data type.
func Concatenate(arrs []arrow.Array, mem memory.Allocator) (arrow.Array, error) {
	if len(arrs) == 0 {
		return nil, fmt.Errorf("%w: must pass at least one array", arrow.ErrInvalid)
	}

	total := 0
	for _, a := range arrs {
		total += a.Len()
	}

	g, err := NewGrowable(mem, arrs, total)
	if err != nil {
		return nil, err
	}
	defer g.Release()

	for i, a := range arrs {
		g.Extend(i, 0, a.Len())
	}
	return g.NewArray(), nil
}
