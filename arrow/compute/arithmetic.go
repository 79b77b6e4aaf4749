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

package compute

import (
	"context"
	"fmt"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/compute/internal/kernels"
	"github.com/ferrow-io/ferrow/arrow/scalar"
)

type ArithmeticOptions struct {
	// NoCheckOverflow selects the unchecked kernels: native Go operators
	// where integer overflow wraps and an integer division or remainder
	// by zero panics.
	NoCheckOverflow bool `compute:"check_overflow"`
}

func (ArithmeticOptions) TypeName() string { return "ArithmeticOptions" }

func callArithmetic(ctx context.Context, op kernels.ArithmeticOp, opts ArithmeticOptions, left, right Datum) (Datum, error) {
	op = op.WithCheck(!opts.NoCheckOverflow)
	mem := GetAllocator(ctx)

	switch l := left.(type) {
	case *ArrayDatum:
		la := l.MakeArray()
		defer la.Release()
		switch r := right.(type) {
		case *ArrayDatum:
			ra := r.MakeArray()
			defer ra.Release()
			return datumResult(kernels.ArithmeticArrays(mem, op, la, ra))
		case *ScalarDatum:
			return datumResult(kernels.ArithmeticArrayScalar(mem, op, la, r.Value))
		}
	case *ScalarDatum:
		if r, ok := right.(*ArrayDatum); ok {
			ra := r.MakeArray()
			defer ra.Release()
			return datumResult(kernels.ArithmeticScalarArray(mem, op, l.Value, ra))
		}
	}
	return nil, fmt.Errorf("%w: %s of %s and %s", arrow.ErrNotImplemented, op, left.Kind(), right.Kind())
}

// Add adds left and right. The checked form makes an overflowing element
// null.
func Add(ctx context.Context, opts ArithmeticOptions, left, right Datum) (Datum, error) {
	return callArithmetic(ctx, kernels.OpAdd, opts, left, right)
}

// Subtract subtracts right from left.
func Subtract(ctx context.Context, opts ArithmeticOptions, left, right Datum) (Datum, error) {
	return callArithmetic(ctx, kernels.OpSub, opts, left, right)
}

func Multiply(ctx context.Context, opts ArithmeticOptions, left, right Datum) (Datum, error) {
	return callArithmetic(ctx, kernels.OpMul, opts, left, right)
}

// Divide divides left by right. In the checked form a zero divisor or a
// signed MinInt / -1 yields null.
func Divide(ctx context.Context, opts ArithmeticOptions, left, right Datum) (Datum, error) {
	return callArithmetic(ctx, kernels.OpDiv, opts, left, right)
}

// Remainder computes left % right, with the sign of left for signed
// integers and math.Mod semantics for floats. In the checked form a zero
// divisor or a signed MinInt % -1 yields null.
func Remainder(ctx context.Context, opts ArithmeticOptions, left, right Datum) (Datum, error) {
	return callArithmetic(ctx, kernels.OpRem, opts, left, right)
}

func remArrays(ctx context.Context, op kernels.ArithmeticOp, left, right arrow.Array) (arrow.Array, error) {
	return arrayResult(kernels.ArithmeticArrays(GetAllocator(ctx), op, left, right))
}

func remScalar(ctx context.Context, op kernels.ArithmeticOp, left arrow.Array, right scalar.Scalar) (arrow.Array, error) {
	return arrayResult(kernels.ArithmeticArrayScalar(GetAllocator(ctx), op, left, right))
}

// Rem is the unchecked element-wise remainder of two arrays of the same
// type and length. A valid zero divisor panics.
func Rem(ctx context.Context, left, right arrow.Array) (arrow.Array, error) {
	return remArrays(ctx, kernels.OpRem, left, right)
}

// CheckedRem is the element-wise remainder of two arrays in which a zero
// divisor yields null.
func CheckedRem(ctx context.Context, left, right arrow.Array) (arrow.Array, error) {
	return remArrays(ctx, kernels.OpRemChecked, left, right)
}

// RemScalar reduces every element of left modulo right. For unsigned
// arrays the divisor is strength reduced once.
func RemScalar(ctx context.Context, left arrow.Array, right scalar.Scalar) (arrow.Array, error) {
	return remScalar(ctx, kernels.OpRem, left, right)
}

func CheckedRemScalar(ctx context.Context, left arrow.Array, right scalar.Scalar) (arrow.Array, error) {
	return remScalar(ctx, kernels.OpRemChecked, left, right)
}
