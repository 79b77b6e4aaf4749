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
	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/ferrow-io/ferrow/internal/bitutils"
)

// unaryNumeric applies fn to every valid element of arr. An element for
// which fn reports false becomes null in the output. canFault must be set
// whenever fn may report false.
func unaryNumeric[InT, OutT arrow.NumericType](mem memory.Allocator, arr arrow.Array, to arrow.DataType, canFault bool, fn func(InT) (OutT, bool)) *array.Data {
	n := arr.Len()
	in := valuesOf[InT](arr)
	nulls := arr.NullN()

	validity := copyValidity(mem, arr)
	if canFault && validity == nil {
		validity = allocateBitmap(mem, n)
		memory.Set(validity.Bytes(), 0xFF)
	}
	var bitmap []byte
	if validity != nil {
		bitmap = validity.Bytes()
	}

	values := allocateValues(mem, n, arrow.SizeOf[OutT]())
	out := arrow.GetData[OutT](values.Bytes())[:n]
	if nulls > 0 {
		memory.Set(values.Bytes(), 0)
	}

	emit := func(i int) {
		v, ok := fn(in[i])
		out[i] = v
		if !ok {
			bitutil.ClearBit(bitmap, i)
			nulls++
		}
	}

	counter := bitutils.NewOptionalBitBlockCounter(bitmap, 0, int64(n))
	for pos := 0; pos < n; {
		block := counter.NextBlock()
		switch {
		case block.Popcnt == block.Len:
			for i := pos; i < pos+int(block.Len); i++ {
				emit(i)
			}
		case block.Popcnt > 0:
			for i := pos; i < pos+int(block.Len); i++ {
				if bitutil.BitIsSet(bitmap, i) {
					emit(i)
				}
			}
		}
		pos += int(block.Len)
	}
	return newPrimitiveData(to, n, validity, values, nulls)
}

func castNumericToBoolean(mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
	switch arr.DataType().ID() {
	case arrow.INT8:
		return numToBool[int8](mem, arr, opts.ToType), nil
	case arrow.UINT8:
		return numToBool[uint8](mem, arr, opts.ToType), nil
	case arrow.INT16:
		return numToBool[int16](mem, arr, opts.ToType), nil
	case arrow.UINT16:
		return numToBool[uint16](mem, arr, opts.ToType), nil
	case arrow.INT32:
		return numToBool[int32](mem, arr, opts.ToType), nil
	case arrow.UINT32:
		return numToBool[uint32](mem, arr, opts.ToType), nil
	case arrow.INT64:
		return numToBool[int64](mem, arr, opts.ToType), nil
	case arrow.UINT64:
		return numToBool[uint64](mem, arr, opts.ToType), nil
	case arrow.FLOAT32:
		return numToBool[float32](mem, arr, opts.ToType), nil
	case arrow.FLOAT64:
		return numToBool[float64](mem, arr, opts.ToType), nil
	}
	return nil, unsupportedCast(arr.DataType(), opts.ToType)
}

func numToBool[T NumericTypes](mem memory.Allocator, arr arrow.Array, to arrow.DataType) *array.Data {
	n := arr.Len()
	in := valuesOf[T](arr)
	values := allocateBitmap(mem, n)
	i := 0
	bitutils.GenerateBitsUnrolled(values.Bytes(), 0, int64(n), func() bool {
		v := in[i]
		i++
		return v != 0
	})
	return newPrimitiveData(to, n, copyValidity(mem, arr), values, arr.NullN())
}

func castBooleanToNumeric(mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
	switch opts.ToType.ID() {
	case arrow.INT8:
		return boolToNum[int8](mem, arr, opts.ToType), nil
	case arrow.UINT8:
		return boolToNum[uint8](mem, arr, opts.ToType), nil
	case arrow.INT16:
		return boolToNum[int16](mem, arr, opts.ToType), nil
	case arrow.UINT16:
		return boolToNum[uint16](mem, arr, opts.ToType), nil
	case arrow.INT32:
		return boolToNum[int32](mem, arr, opts.ToType), nil
	case arrow.UINT32:
		return boolToNum[uint32](mem, arr, opts.ToType), nil
	case arrow.INT64:
		return boolToNum[int64](mem, arr, opts.ToType), nil
	case arrow.UINT64:
		return boolToNum[uint64](mem, arr, opts.ToType), nil
	case arrow.FLOAT32:
		return boolToNum[float32](mem, arr, opts.ToType), nil
	case arrow.FLOAT64:
		return boolToNum[float64](mem, arr, opts.ToType), nil
	}
	return nil, unsupportedCast(arr.DataType(), opts.ToType)
}

func boolToNum[T NumericTypes](mem memory.Allocator, arr arrow.Array, to arrow.DataType) *array.Data {
	var (
		zero T
		one  = T(1)
	)

	n := arr.Len()
	values := allocateValues(mem, n, arrow.SizeOf[T]())
	out := arrow.GetData[T](values.Bytes())[:n]
	in := arr.(*array.Boolean)
	for i := range out {
		if in.Value(i) {
			out[i] = one
		} else {
			out[i] = zero
		}
	}
	return newPrimitiveData(to, n, copyValidity(mem, arr), values, arr.NullN())
}
