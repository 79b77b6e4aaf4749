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

package kernels

import (
	"unsafe"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"golang.org/x/exp/constraints"
)

// SizeOf determines the size in number of bytes for an integer
// based on the generic value in a way that the compiler should
// be able to easily evaluate and create as a constant.
func SizeOf[T constraints.Integer]() uint {
	x := uint16(1 << 8)
	y := uint32(2 << 16)
	z := uint64(4 << 32)
	return 1 + uint(T(x))>>8 + uint(T(y))>>16 + uint(T(z))>>32
}

// MinOf returns the minimum value for a given type since there is not
// currently a generic way to do this with Go generics yet.
func MinOf[T constraints.Integer]() T {
	if ones := ^T(0); ones < 0 {
		return ones << (8*SizeOf[T]() - 1)
	}
	return 0
}

// MaxOf determines the max value for a given type since there is not
// currently a generic way to do this for Go generics yet as all of the
// math.Max/Min values are constants.
func MaxOf[T constraints.Integer]() T {
	ones := ^T(0)
	if ones < 0 {
		return ones ^ (ones << (8*SizeOf[T]() - 1))
	}
	return ones
}

// validityBytes returns the validity bitmap of arr, or nil when every
// element is valid.
func validityBytes(arr arrow.Array) []byte {
	if arr.NullN() == 0 {
		return nil
	}
	return arr.NullBitmapBytes()
}

// allocateBitmap returns a zeroed bitmap of n bits.
func allocateBitmap(mem memory.Allocator, n int) *memory.Buffer {
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(int(bitutil.BytesForBits(int64(n))))
	memory.Set(buf.Bytes(), 0)
	return buf
}

// allocateValues returns a buffer for n values of byteWidth bytes.
func allocateValues(mem memory.Allocator, n, byteWidth int) *memory.Buffer {
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(n * byteWidth)
	return buf
}

// copyValidity copies the validity of arr into a new bitmap starting at
// bit 0. It returns nil when arr has no nulls.
func copyValidity(mem memory.Allocator, arr arrow.Array) *memory.Buffer {
	if arr.NullN() == 0 || len(arr.NullBitmapBytes()) == 0 {
		return nil
	}
	buf := allocateBitmap(mem, arr.Len())
	bitutil.CopyBitmap(arr.NullBitmapBytes(), arr.Offset(), arr.Len(), buf.Bytes(), 0)
	return buf
}

// intersectValidity returns a bitmap valid where both left and right are
// valid, or nil when neither has nulls.
func intersectValidity(mem memory.Allocator, left, right arrow.Array) *memory.Buffer {
	switch {
	case left.NullN() == 0:
		return copyValidity(mem, right)
	case right.NullN() == 0:
		return copyValidity(mem, left)
	}

	out := copyValidity(mem, left)
	tmp := make([]byte, out.Len())
	bitutil.CopyBitmap(right.NullBitmapBytes(), right.Offset(), right.Len(), tmp, 0)
	bits := out.Bytes()
	for i := range bits {
		bits[i] &= tmp[i]
	}
	return out
}

// valuesOf returns the values of a fixed width array as T, starting at
// the array offset.
func valuesOf[T arrow.NumericType](arr arrow.Array) []T {
	data := arr.Data()
	buf := data.Buffers()[1]
	if buf == nil {
		return nil
	}
	return arrow.GetData[T](buf.Bytes())[data.Offset() : data.Offset()+data.Len()]
}

func releaseBuffers(bufs ...*memory.Buffer) {
	for _, b := range bufs {
		if b != nil {
			b.Release()
		}
	}
}

// newPrimitiveData assembles the result of a fixed width kernel. It takes
// ownership of validity and values. A validity bitmap without nulls is
// dropped.
func newPrimitiveData(dt arrow.DataType, length int, validity, values *memory.Buffer, nulls int) *array.Data {
	if validity != nil && nulls == 0 {
		validity.Release()
		validity = nil
	}
	defer releaseBuffers(validity, values)
	return array.NewData(dt, length, []*memory.Buffer{validity, values}, nil, nulls, 0)
}

type validityBuilder struct {
	mem    memory.Allocator
	buffer *memory.Buffer

	data       []byte
	bitLength  int
	falseCount int
}

func (v *validityBuilder) Reserve(n int64) {
	if v.buffer == nil {
		v.buffer = memory.NewResizableBuffer(v.mem)
	}

	need := int(bitutil.BytesForBits(int64(v.bitLength) + n))
	if need > v.buffer.Len() {
		v.buffer.ResizeNoShrink(need)
	}
	v.data = v.buffer.Bytes()
}

func (v *validityBuilder) UnsafeAppend(val bool) {
	bitutil.SetBitTo(v.data, v.bitLength, val)
	if !val {
		v.falseCount++
	}
	v.bitLength++
}

func (v *validityBuilder) UnsafeAppendN(n int64, val bool) {
	bitutil.SetBitsTo(v.data, int64(v.bitLength), n, val)
	if !val {
		v.falseCount += int(n)
	}
	v.bitLength += int(n)
}

func (v *validityBuilder) Append(val bool) {
	v.Reserve(1)
	v.UnsafeAppend(val)
}

func (v *validityBuilder) AppendN(n int64, val bool) {
	v.Reserve(n)
	v.UnsafeAppendN(n, val)
}

// Finish returns the bitmap and its number of unset bits. The bitmap is
// nil when every appended bit was set.
func (v *validityBuilder) Finish() (buf *memory.Buffer, nulls int) {
	buf, nulls = v.buffer, v.falseCount
	if buf != nil {
		buf.Resize(int(bitutil.BytesForBits(int64(v.bitLength))))
		if nulls == 0 {
			buf.Release()
			buf = nil
		}
	}

	v.buffer, v.data = nil, nil
	v.bitLength, v.falseCount = 0, 0
	return
}

type execBufBuilder struct {
	mem    memory.Allocator
	buffer *memory.Buffer
	data   []byte
	sz     int
}

func (bldr *execBufBuilder) reserve(additional int) {
	if bldr.buffer == nil {
		bldr.buffer = memory.NewResizableBuffer(bldr.mem)
	}

	mincap := bldr.sz + additional
	if mincap <= len(bldr.data) {
		return
	}
	if grown := 2 * len(bldr.data); grown > mincap {
		mincap = grown
	}
	bldr.buffer.ResizeNoShrink(mincap)
	bldr.data = bldr.buffer.Bytes()
}

func (bldr *execBufBuilder) unsafeAppend(data []byte) {
	copy(bldr.data[bldr.sz:], data)
	bldr.sz += len(data)
}

func (bldr *execBufBuilder) append(data []byte) {
	bldr.reserve(len(data))
	bldr.unsafeAppend(data)
}

func (bldr *execBufBuilder) finish() (buf *memory.Buffer) {
	if bldr.buffer == nil {
		bldr.buffer = memory.NewResizableBuffer(bldr.mem)
	}
	bldr.buffer.Resize(bldr.sz)
	buf = bldr.buffer
	bldr.buffer, bldr.data, bldr.sz = nil, nil, 0
	return
}

type bufferBuilder[T arrow.NumericType] struct {
	execBufBuilder
	zero T
}

func newBufferBuilder[T arrow.NumericType](mem memory.Allocator) *bufferBuilder[T] {
	return &bufferBuilder[T]{
		execBufBuilder: execBufBuilder{
			mem: mem,
		},
	}
}

func (b *bufferBuilder[T]) reserve(additional int) {
	b.execBufBuilder.reserve(additional * int(unsafe.Sizeof(b.zero)))
}

func (b *bufferBuilder[T]) unsafeAppend(value T) {
	arrow.GetData[T](b.data[b.sz:])[0] = value
	b.sz += int(unsafe.Sizeof(value))
}

func (b *bufferBuilder[T]) append(value T) {
	b.reserve(1)
	b.unsafeAppend(value)
}

func (b *bufferBuilder[T]) len() int { return b.sz / int(unsafe.Sizeof(b.zero)) }
