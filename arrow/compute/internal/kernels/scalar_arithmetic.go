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
	"github.com/ferrow-io/ferrow/arrow/scalar"
	"github.com/ferrow-io/ferrow/internal/bitutils"
)

// operand is one side of a binary kernel: an array or a scalar.
type operand struct {
	arr arrow.Array
	sc  scalar.Scalar
}

func (o operand) dataType() arrow.DataType {
	if o.arr != nil {
		return o.arr.DataType()
	}
	return o.sc.DataType()
}

func operandOf[T NumericTypes](o operand) (vals []T, sc T, err error) {
	if o.arr != nil {
		return valuesOf[T](o.arr), sc, nil
	}
	p, ok := o.sc.(*scalar.Primitive[T])
	if !ok {
		return nil, sc, fmt.Errorf("%w: scalar %T does not hold %s values", arrow.ErrType, o.sc, o.sc.DataType())
	}
	return nil, p.Value, nil
}

func checkArithmeticTypes(left, right arrow.DataType) error {
	if !arrow.TypeEqual(left, right) {
		return fmt.Errorf("%w: arrays must have the same logical type, got %s and %s", arrow.ErrType, left, right)
	}
	if !arrow.IsNumeric(left.ID()) {
		return fmt.Errorf("%w: arithmetic on %s", arrow.ErrNotImplemented, left)
	}
	return nil
}

// ArithmeticArrays applies op to each pair of elements of left and right.
// The result is null where either input is null, or where a checked op
// faults.
func ArithmeticArrays(mem memory.Allocator, op ArithmeticOp, left, right arrow.Array) (*array.Data, error) {
	if err := checkArithmeticTypes(left.DataType(), right.DataType()); err != nil {
		return nil, err
	}
	if left.Len() != right.Len() {
		return nil, fmt.Errorf("%w: arrays must have the same length, got %d and %d", arrow.ErrInvalid, left.Len(), right.Len())
	}
	validity := intersectValidity(mem, left, right)
	return dispatchArithmetic(mem, op, left.Len(), validity, operand{arr: left}, operand{arr: right}, false)
}

// ArithmeticArrayScalar applies op to each element of left and right.
// Unsigned division and remainder by a non-zero scalar use a strength
// reduced divisor.
func ArithmeticArrayScalar(mem memory.Allocator, op ArithmeticOp, left arrow.Array, right scalar.Scalar) (*array.Data, error) {
	return arithmeticArrayScalar(mem, op, left, right, true)
}

func arithmeticArrayScalar(mem memory.Allocator, op ArithmeticOp, left arrow.Array, right scalar.Scalar, reduce bool) (*array.Data, error) {
	if err := checkArithmeticTypes(left.DataType(), right.DataType()); err != nil {
		return nil, err
	}
	if !right.IsValid() {
		return allNullData(mem, left.DataType(), left.Len()), nil
	}
	validity := copyValidity(mem, left)
	return dispatchArithmetic(mem, op, left.Len(), validity, operand{arr: left}, operand{sc: right}, reduce)
}

// ArithmeticScalarArray applies op to left and each element of right.
func ArithmeticScalarArray(mem memory.Allocator, op ArithmeticOp, left scalar.Scalar, right arrow.Array) (*array.Data, error) {
	if err := checkArithmeticTypes(left.DataType(), right.DataType()); err != nil {
		return nil, err
	}
	if !left.IsValid() {
		return allNullData(mem, right.DataType(), right.Len()), nil
	}
	validity := copyValidity(mem, right)
	return dispatchArithmetic(mem, op, right.Len(), validity, operand{sc: left}, operand{arr: right}, false)
}

// allNullData returns length null elements of the fixed width type dt.
func allNullData(mem memory.Allocator, dt arrow.DataType, length int) *array.Data {
	validity := allocateBitmap(mem, length)
	values := allocateValues(mem, length, arrow.ByteWidth(dt))
	memory.Set(values.Bytes(), 0)
	return newPrimitiveData(dt, length, validity, values, length)
}

func dispatchArithmetic(mem memory.Allocator, op ArithmeticOp, length int, validity *memory.Buffer, left, right operand, reduce bool) (*array.Data, error) {
	switch left.dataType().ID() {
	case arrow.INT8:
		return arithmeticImpl(mem, getArithmeticOpSigned[int8](op), op, length, validity, left, right)
	case arrow.INT16:
		return arithmeticImpl(mem, getArithmeticOpSigned[int16](op), op, length, validity, left, right)
	case arrow.INT32:
		return arithmeticImpl(mem, getArithmeticOpSigned[int32](op), op, length, validity, left, right)
	case arrow.INT64:
		return arithmeticImpl(mem, getArithmeticOpSigned[int64](op), op, length, validity, left, right)
	case arrow.UINT8:
		return unsignedArithmetic[uint8](mem, op, length, validity, left, right, reduce)
	case arrow.UINT16:
		return unsignedArithmetic[uint16](mem, op, length, validity, left, right, reduce)
	case arrow.UINT32:
		return unsignedArithmetic[uint32](mem, op, length, validity, left, right, reduce)
	case arrow.UINT64:
		return unsignedArithmetic[uint64](mem, op, length, validity, left, right, reduce)
	case arrow.FLOAT32:
		return arithmeticImpl(mem, getArithmeticOpFloating[float32](op), op, length, validity, left, right)
	case arrow.FLOAT64:
		return arithmeticImpl(mem, getArithmeticOpFloating[float64](op), op, length, validity, left, right)
	}
	releaseBuffers(validity)
	return nil, fmt.Errorf("%w: arithmetic on %s", arrow.ErrNotImplemented, left.dataType())
}

func unsignedArithmetic[T UintTypes](mem memory.Allocator, op ArithmeticOp, length int, validity *memory.Buffer, left, right operand, reduce bool) (*array.Data, error) {
	base := op.Unchecked()
	if reduce && right.sc != nil && (base == OpDiv || base == OpRem) {
		if p, ok := right.sc.(*scalar.Primitive[T]); ok && p.Value != 0 {
			sr := NewStrengthReduced(p.Value)
			if base == OpDiv {
				return arithmeticImpl(mem, func(a, _ T) (T, bool) { return sr.Div(a), true }, op, length, validity, left, right)
			}
			return arithmeticImpl(mem, func(a, _ T) (T, bool) { return sr.Rem(a), true }, op, length, validity, left, right)
		}
	}
	return arithmeticImpl(mem, getArithmeticOpUnsigned[T](op), op, length, validity, left, right)
}

// arithmeticImpl computes op at every valid position. Null positions hold
// zero and are never passed to op.
func arithmeticImpl[T NumericTypes](mem memory.Allocator, op binaryOp[T], aop ArithmeticOp, length int, validity *memory.Buffer, left, right operand) (*array.Data, error) {
	lv, ls, err := operandOf[T](left)
	if err != nil {
		releaseBuffers(validity)
		return nil, err
	}
	rv, rs, err := operandOf[T](right)
	if err != nil {
		releaseBuffers(validity)
		return nil, err
	}

	var compute func(i int64) (T, bool)
	switch {
	case left.arr != nil && right.arr != nil:
		compute = func(i int64) (T, bool) { return op(lv[i], rv[i]) }
	case left.arr != nil:
		compute = func(i int64) (T, bool) { return op(lv[i], rs) }
	default:
		compute = func(i int64) (T, bool) { return op(ls, rv[i]) }
	}

	dt := left.dataType()
	if validity == nil && canFault(aop, dt.ID()) {
		validity = allocateBitmap(mem, length)
		bitutil.SetBitsTo(validity.Bytes(), 0, int64(length), true)
	}

	values := allocateValues(mem, length, arrow.SizeOf[T]())
	out := arrow.GetData[T](values.Bytes())

	var bitmap []byte
	nulls := 0
	if validity != nil {
		bitmap = validity.Bytes()
		nulls = length - bitutil.CountSetBits(bitmap, 0, length)
		memory.Set(values.Bytes(), 0)
	}

	bitutils.VisitSetBitRunsNoErr(bitmap, 0, int64(length), func(pos, n int64) {
		for i := pos; i < pos+n; i++ {
			v, ok := compute(i)
			if !ok {
				bitutil.ClearBit(bitmap, int(i))
				nulls++
				v = 0
			}
			out[i] = v
		}
	})
	return newPrimitiveData(dt, length, validity, values, nulls), nil
}
