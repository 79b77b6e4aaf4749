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
	"math"

	"github.com/JohnCGriffin/overflow"
	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/internal/debug"
)

type ArithmeticOp int8

const (
	OpAdd ArithmeticOp = iota
	OpAddChecked
	OpSub
	OpSubChecked
	OpMul
	OpMulChecked
	OpDiv
	OpDivChecked
	OpRem
	OpRemChecked
)

var opNames = [...]string{"add", "add_checked", "subtract", "subtract_checked",
	"multiply", "multiply_checked", "divide", "divide_checked", "rem", "rem_checked"}

func (op ArithmeticOp) String() string { return opNames[op] }

// Checked reports whether op turns faults into nulls.
func (op ArithmeticOp) Checked() bool { return op&1 == 1 }

// Unchecked returns the unchecked form of op.
func (op ArithmeticOp) Unchecked() ArithmeticOp { return op &^ 1 }

// WithCheck returns the checked form of op when checked is true and the
// unchecked form otherwise.
func (op ArithmeticOp) WithCheck(checked bool) ArithmeticOp {
	if checked {
		return op | 1
	}
	return op &^ 1
}

// binaryOp computes one element. ok is false when the element must be
// null.
type binaryOp[T NumericTypes] func(a, b T) (out T, ok bool)

func getArithmeticOpFloating[T FloatTypes](op ArithmeticOp) binaryOp[T] {
	switch op.Unchecked() {
	case OpAdd:
		return func(a, b T) (T, bool) { return a + b, true }
	case OpSub:
		return func(a, b T) (T, bool) { return a - b, true }
	case OpMul:
		return func(a, b T) (T, bool) { return a * b, true }
	case OpDiv:
		return func(a, b T) (T, bool) { return a / b, true }
	case OpRem:
		return func(a, b T) (T, bool) { return T(math.Mod(float64(a), float64(b))), true }
	}
	debug.Assert(false, "invalid arithmetic op")
	return nil
}

func getArithmeticOpUnchecked[T IntegerTypes](op ArithmeticOp) binaryOp[T] {
	switch op {
	case OpAdd:
		return func(a, b T) (T, bool) { return a + b, true }
	case OpSub:
		return func(a, b T) (T, bool) { return a - b, true }
	case OpMul:
		return func(a, b T) (T, bool) { return a * b, true }
	case OpDiv:
		return func(a, b T) (T, bool) { return a / b, true }
	case OpRem:
		return func(a, b T) (T, bool) { return a % b, true }
	}
	debug.Assert(false, "invalid arithmetic op")
	return nil
}

func getArithmeticOpUnsignedChecked[T UintTypes](op ArithmeticOp) binaryOp[T] {
	switch op {
	case OpAddChecked:
		return func(a, b T) (T, bool) {
			out := a + b
			return out, out >= a
		}
	case OpSubChecked:
		return func(a, b T) (T, bool) { return a - b, a >= b }
	case OpMulChecked:
		return func(a, b T) (T, bool) {
			out := a * b
			return out, a == 0 || out/a == b
		}
	case OpDivChecked:
		return func(a, b T) (T, bool) {
			if b == 0 {
				return 0, false
			}
			return a / b, true
		}
	case OpRemChecked:
		return func(a, b T) (T, bool) {
			if b == 0 {
				return 0, false
			}
			return a % b, true
		}
	}
	debug.Assert(false, "invalid arithmetic op")
	return nil
}

// signedOverflowOps returns the overflow checked add, sub and mul for the
// width of T.
func signedOverflowOps[T IntTypes]() (add, sub, mul binaryOp[T]) {
	var zero T
	switch any(zero).(type) {
	case int8:
		return any(binaryOp[int8](overflow.Add8)).(binaryOp[T]),
			any(binaryOp[int8](overflow.Sub8)).(binaryOp[T]),
			any(binaryOp[int8](overflow.Mul8)).(binaryOp[T])
	case int16:
		return any(binaryOp[int16](overflow.Add16)).(binaryOp[T]),
			any(binaryOp[int16](overflow.Sub16)).(binaryOp[T]),
			any(binaryOp[int16](overflow.Mul16)).(binaryOp[T])
	case int32:
		return any(binaryOp[int32](overflow.Add32)).(binaryOp[T]),
			any(binaryOp[int32](overflow.Sub32)).(binaryOp[T]),
			any(binaryOp[int32](overflow.Mul32)).(binaryOp[T])
	case int64:
		return any(binaryOp[int64](overflow.Add64)).(binaryOp[T]),
			any(binaryOp[int64](overflow.Sub64)).(binaryOp[T]),
			any(binaryOp[int64](overflow.Mul64)).(binaryOp[T])
	}
	panic(fmt.Errorf("kernels: no overflow checks for %T", zero))
}

func getArithmeticOpSignedChecked[T IntTypes](op ArithmeticOp) binaryOp[T] {
	add, sub, mul := signedOverflowOps[T]()
	minVal := MinOf[T]()
	switch op {
	case OpAddChecked:
		return add
	case OpSubChecked:
		return sub
	case OpMulChecked:
		return mul
	case OpDivChecked:
		return func(a, b T) (T, bool) {
			if b == 0 || (a == minVal && b == -1) {
				return 0, false
			}
			return a / b, true
		}
	case OpRemChecked:
		return func(a, b T) (T, bool) {
			switch {
			case b == 0, a == minVal && b == -1:
				return 0, false
			case b == -1:
				return 0, true
			}
			return a % b, true
		}
	}
	debug.Assert(false, "invalid arithmetic op")
	return nil
}

func getArithmeticOpSigned[T IntTypes](op ArithmeticOp) binaryOp[T] {
	if op.Checked() {
		return getArithmeticOpSignedChecked[T](op)
	}
	return getArithmeticOpUnchecked[T](op)
}

func getArithmeticOpUnsigned[T UintTypes](op ArithmeticOp) binaryOp[T] {
	if op.Checked() {
		return getArithmeticOpUnsignedChecked[T](op)
	}
	return getArithmeticOpUnchecked[T](op)
}

// canFault reports whether op may turn a valid element into a null.
func canFault(op ArithmeticOp, id arrow.Type) bool {
	return op.Checked() && arrow.IsInteger(id)
}
