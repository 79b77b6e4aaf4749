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
	"fmt"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/ferrow-io/ferrow/internal/bitutils"
)

type NullSelectionBehavior int8

const (
	// DropNulls skips elements whose filter slot is null.
	DropNulls NullSelectionBehavior = iota
	// EmitNulls emits a null for every null filter slot.
	EmitNulls
)

type FilterOptions struct {
	NullSelection NullSelectionBehavior
}

func (FilterOptions) TypeName() string { return "FilterOptions" }

type TakeOptions struct {
	// BoundsCheck reports a valid index outside the values as
	// arrow.ErrIndex. Without it such an index panics.
	BoundsCheck bool
}

func (TakeOptions) TypeName() string { return "TakeOptions" }

func DefaultTakeOptions() TakeOptions { return TakeOptions{BoundsCheck: true} }

// Take gathers values at indices. The result has len(indices) elements,
// null wherever the index is null or refers to a null value. A null index
// is never looked up, whatever its payload.
func Take(mem memory.Allocator, values, indices arrow.Array, opts TakeOptions) (*array.Data, error) {
	if !arrow.IsInteger(indices.DataType().ID()) {
		return nil, fmt.Errorf("%w: take indices must be integers, got %s", arrow.ErrType, indices.DataType())
	}
	if opts.BoundsCheck {
		if err := checkIndexBounds(indices, values.Len()); err != nil {
			return nil, err
		}
	}

	switch indices.DataType().ID() {
	case arrow.INT8:
		return takeImpl[int8](mem, values, indices)
	case arrow.UINT8:
		return takeImpl[uint8](mem, values, indices)
	case arrow.INT16:
		return takeImpl[int16](mem, values, indices)
	case arrow.UINT16:
		return takeImpl[uint16](mem, values, indices)
	case arrow.INT32:
		return takeImpl[int32](mem, values, indices)
	case arrow.UINT32:
		return takeImpl[uint32](mem, values, indices)
	case arrow.INT64:
		return takeImpl[int64](mem, values, indices)
	default:
		return takeImpl[uint64](mem, values, indices)
	}
}

func checkIndexBounds(indices arrow.Array, upper int) error {
	switch indices.DataType().ID() {
	case arrow.INT8:
		return indicesInRange[int8](indices, upper)
	case arrow.UINT8:
		return indicesInRange[uint8](indices, upper)
	case arrow.INT16:
		return indicesInRange[int16](indices, upper)
	case arrow.UINT16:
		return indicesInRange[uint16](indices, upper)
	case arrow.INT32:
		return indicesInRange[int32](indices, upper)
	case arrow.UINT32:
		return indicesInRange[uint32](indices, upper)
	case arrow.INT64:
		return indicesInRange[int64](indices, upper)
	default:
		return indicesInRange[uint64](indices, upper)
	}
}

func indicesInRange[IdxT IntegerTypes](indices arrow.Array, upper int) error {
	idx := valuesOf[IdxT](indices)
	return bitutils.VisitSetBitRuns(validityBytes(indices), int64(indices.Offset()), int64(len(idx)), func(pos, length int64) error {
		for _, v := range idx[pos : pos+length] {
			if v < 0 || uint64(v) >= uint64(upper) {
				return fmt.Errorf("%w: index %d out of bounds for length %d", arrow.ErrIndex, v, upper)
			}
		}
		return nil
	})
}

func takeImpl[IdxT IntegerTypes](mem memory.Allocator, values, indices arrow.Array) (*array.Data, error) {
	idx := valuesOf[IdxT](indices)
	switch values.DataType().ID() {
	case arrow.NULL:
		data := array.NewData(values.DataType(), len(idx), []*memory.Buffer{nil}, nil, len(idx), 0)
		return data, nil
	case arrow.BOOL:
		return takeBoolean(mem, values, indices, idx), nil
	case arrow.STRING, arrow.BINARY:
		return takeBinary(mem, values, indices, idx), nil
	case arrow.STRUCT:
		return takeStruct(mem, values.(*array.Struct), indices, idx)
	case arrow.DICTIONARY:
		dict := values.(*array.Dictionary)
		taken, err := takeImpl[IdxT](mem, dict.Indices(), indices)
		if err != nil {
			return nil, err
		}
		defer taken.Release()
		return array.NewDataWithDictionary(values.DataType(), taken.Len(), taken.Buffers(),
			taken.NullN(), 0, dict.Dictionary().Data().(*array.Data)), nil
	}

	switch arrow.ByteWidth(values.DataType()) {
	case 1:
		return takeFixed[IdxT, uint8](mem, values, indices, idx), nil
	case 2:
		return takeFixed[IdxT, uint16](mem, values, indices, idx), nil
	case 4:
		return takeFixed[IdxT, uint32](mem, values, indices, idx), nil
	case 8:
		return takeFixed[IdxT, uint64](mem, values, indices, idx), nil
	}
	return nil, fmt.Errorf("%w: take on %s", arrow.ErrNotImplemented, values.DataType())
}

// takeFixed gathers fixed width values reinterpreted as ValT. The four
// branches cover whether values and indices carry nulls.
func takeFixed[IdxT IntegerTypes, ValT UintTypes](mem memory.Allocator, values, indices arrow.Array, idx []IdxT) *array.Data {
	src := rawValues[ValT](values)
	n := len(idx)
	outBuf := allocateValues(mem, n, arrow.SizeOf[ValT]())
	out := arrow.GetData[ValT](outBuf.Bytes())
	validity := validityBuilder{mem: mem}

	switch {
	case values.NullN() == 0 && indices.NullN() == 0:
		for i, j := range idx {
			out[i] = src[int(j)]
		}
	case indices.NullN() == 0:
		validity.Reserve(int64(n))
		for i, j := range idx {
			valid := values.IsValid(int(j))
			if valid {
				out[i] = src[int(j)]
			} else {
				out[i] = 0
			}
			validity.UnsafeAppend(valid)
		}
	case values.NullN() == 0:
		validity.Reserve(int64(n))
		for i, j := range idx {
			valid := indices.IsValid(i)
			if valid {
				out[i] = src[int(j)]
			} else {
				out[i] = 0
			}
			validity.UnsafeAppend(valid)
		}
	default:
		validity.Reserve(int64(n))
		for i, j := range idx {
			valid := indices.IsValid(i) && values.IsValid(int(j))
			if valid {
				out[i] = src[int(j)]
			} else {
				out[i] = 0
			}
			validity.UnsafeAppend(valid)
		}
	}

	vbuf, nulls := validity.Finish()
	return newPrimitiveData(values.DataType(), n, vbuf, outBuf, nulls)
}

func takeBoolean[IdxT IntegerTypes](mem memory.Allocator, values, indices arrow.Array, idx []IdxT) *array.Data {
	var src []byte
	if buf := values.Data().Buffers()[1]; buf != nil {
		src = buf.Bytes()
	}
	srcOff := values.Offset()
	n := len(idx)
	outBuf := allocateBitmap(mem, n)
	out := outBuf.Bytes()
	validity := validityBuilder{mem: mem}

	switch {
	case values.NullN() == 0 && indices.NullN() == 0:
		for i, j := range idx {
			bitutil.SetBitTo(out, i, bitutil.BitIsSet(src, srcOff+int(j)))
		}
	case indices.NullN() == 0:
		validity.Reserve(int64(n))
		for i, j := range idx {
			valid := values.IsValid(int(j))
			if valid {
				bitutil.SetBitTo(out, i, bitutil.BitIsSet(src, srcOff+int(j)))
			}
			validity.UnsafeAppend(valid)
		}
	case values.NullN() == 0:
		validity.Reserve(int64(n))
		for i, j := range idx {
			valid := indices.IsValid(i)
			if valid {
				bitutil.SetBitTo(out, i, bitutil.BitIsSet(src, srcOff+int(j)))
			}
			validity.UnsafeAppend(valid)
		}
	default:
		validity.Reserve(int64(n))
		for i, j := range idx {
			valid := indices.IsValid(i) && values.IsValid(int(j))
			if valid {
				bitutil.SetBitTo(out, i, bitutil.BitIsSet(src, srcOff+int(j)))
			}
			validity.UnsafeAppend(valid)
		}
	}

	vbuf, nulls := validity.Finish()
	return newPrimitiveData(values.DataType(), n, vbuf, outBuf, nulls)
}

// rawValues returns the value buffer of a fixed width array as T,
// starting at the array offset.
func rawValues[T arrow.NumericType](arr arrow.Array) []T {
	buf := arr.Data().Buffers()[1]
	if buf == nil {
		return nil
	}
	return arrow.GetData[T](buf.Bytes())[arr.Offset():]
}

func binaryParts(arr arrow.Array) (offsets []int32, data []byte) {
	var b *array.Binary
	switch a := arr.(type) {
	case *array.String:
		b = &a.Binary
	case *array.Binary:
		b = a
	}
	if b.Len() == 0 {
		return []int32{0}, nil
	}
	return b.ValueOffsets(), b.ValueBytes()
}

// takeBinary gathers variable width values. Output offsets start at 0, are
// non-decreasing and hold len(idx)+1 entries; a null slot has zero width.
func takeBinary[IdxT IntegerTypes](mem memory.Allocator, values, indices arrow.Array, idx []IdxT) *array.Data {
	offsets, data := binaryParts(values)
	n := len(idx)

	outOffsets := newBufferBuilder[int32](mem)
	outOffsets.reserve(n + 1)
	outOffsets.unsafeAppend(0)
	outData := execBufBuilder{mem: mem}
	validity := validityBuilder{mem: mem}

	var length int32
	appendValue := func(j IdxT) {
		start, end := offsets[int(j)], offsets[int(j)+1]
		outData.append(data[start:end])
		length += end - start
	}

	switch {
	case values.NullN() == 0 && indices.NullN() == 0:
		for _, j := range idx {
			appendValue(j)
			outOffsets.unsafeAppend(length)
		}
	case indices.NullN() == 0:
		validity.Reserve(int64(n))
		for _, j := range idx {
			valid := values.IsValid(int(j))
			if valid {
				appendValue(j)
			}
			validity.UnsafeAppend(valid)
			outOffsets.unsafeAppend(length)
		}
	case values.NullN() == 0:
		validity.Reserve(int64(n))
		for i, j := range idx {
			valid := indices.IsValid(i)
			if valid {
				appendValue(j)
			}
			validity.UnsafeAppend(valid)
			outOffsets.unsafeAppend(length)
		}
	default:
		validity.Reserve(int64(n))
		for i, j := range idx {
			valid := indices.IsValid(i) && values.IsValid(int(j))
			if valid {
				appendValue(j)
			}
			validity.UnsafeAppend(valid)
			outOffsets.unsafeAppend(length)
		}
	}

	vbuf, nulls := validity.Finish()
	offBuf, dataBuf := outOffsets.finish(), outData.finish()
	defer releaseBuffers(vbuf, offBuf, dataBuf)
	return array.NewData(values.DataType(), n, []*memory.Buffer{vbuf, offBuf, dataBuf}, nil, nulls, 0)
}

// takeStruct gathers every field with the same indices. An element is null
// when its index or the struct element is null.
func takeStruct[IdxT IntegerTypes](mem memory.Allocator, values *array.Struct, indices arrow.Array, idx []IdxT) (*array.Data, error) {
	children := make([]arrow.ArrayData, values.NumField())
	defer func() {
		for _, c := range children {
			if c != nil {
				c.Release()
			}
		}
	}()
	for f := range children {
		child, err := takeImpl[IdxT](mem, values.Field(f), indices)
		if err != nil {
			return nil, err
		}
		children[f] = child
	}

	validity := validityBuilder{mem: mem}
	if values.NullN() > 0 || indices.NullN() > 0 {
		validity.Reserve(int64(len(idx)))
		for i, j := range idx {
			validity.UnsafeAppend(indices.IsValid(i) && values.IsValid(int(j)))
		}
	}
	vbuf, nulls := validity.Finish()
	defer releaseBuffers(vbuf)
	return array.NewData(values.DataType(), len(idx), []*memory.Buffer{vbuf}, children, nulls, 0), nil
}

// Filter keeps the elements of values whose filter slot is true. Runs of
// selected elements are copied with one Extend each.
func Filter(mem memory.Allocator, values, filter arrow.Array, opts FilterOptions) (arrow.Array, error) {
	if filter.DataType().ID() != arrow.BOOL {
		return nil, fmt.Errorf("%w: filter must be boolean, got %s", arrow.ErrType, filter.DataType())
	}
	if values.Len() != filter.Len() {
		return nil, fmt.Errorf("%w: filter length %d does not match values length %d", arrow.ErrInvalid, filter.Len(), values.Len())
	}

	sel := filter.(*array.Boolean)
	if sel.Len() == 0 {
		return array.MakeFromData(values.Data()), nil
	}
	g, err := array.NewGrowable(mem, []arrow.Array{values}, filterOutputSize(sel, opts.NullSelection))
	if err != nil {
		return nil, err
	}
	defer g.Release()

	if sel.NullN() == 0 {
		bits := sel.Data().Buffers()[1].Bytes()
		bitutils.VisitSetBitRunsNoErr(bits, int64(sel.Offset()), int64(sel.Len()), func(pos, length int64) {
			g.Extend(0, int(pos), int(length))
		})
		return g.NewArray(), nil
	}

	// runs of valid filter slots are scanned for set bits; runs of null
	// slots are dropped or emitted as nulls.
	bits := sel.Data().Buffers()[1].Bytes()
	off := int64(sel.Offset())
	rdr := bitutils.NewBitRunReader(sel.NullBitmapBytes(), off, int64(sel.Len()))
	pos := int64(0)
	for run := rdr.NextRun(); run.Len > 0; run = rdr.NextRun() {
		switch {
		case run.Set:
			start := pos
			bitutils.VisitSetBitRunsNoErr(bits, off+start, run.Len, func(p, n int64) {
				g.Extend(0, int(start+p), int(n))
			})
		case opts.NullSelection == EmitNulls:
			g.ExtendValidity(int(run.Len))
		}
		pos += run.Len
	}
	return g.NewArray(), nil
}

func filterOutputSize(filter *array.Boolean, nullSelection NullSelectionBehavior) int {
	bits := filter.Data().Buffers()[1]
	if bits == nil {
		return 0
	}
	if filter.NullN() == 0 {
		return bitutil.CountSetBits(bits.Bytes(), filter.Offset(), filter.Len())
	}

	size := 0
	off := int64(filter.Offset())
	counter := bitutils.NewBinaryBitBlockCounter(bits.Bytes(), filter.NullBitmapBytes(), off, off, int64(filter.Len()))
	for block := counter.NextAndWord(); block.Len > 0; block = counter.NextAndWord() {
		size += int(block.Popcnt)
	}
	if nullSelection == EmitNulls {
		size += filter.NullN()
	}
	return size
}
