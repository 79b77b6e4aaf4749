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

package compute_test

import (
	"context"
	"math"
	"testing"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/compute"
	"github.com/ferrow-io/ferrow/arrow/internal/testing/gen"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/ferrow-io/ferrow/arrow/scalar"
	"github.com/klauspost/cpuid/v2"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

var (
	CpuCacheSizes = [...]int{ // defaults
		32 * 1024,   // level 1: 32K
		256 * 1024,  // level 2: 256K
		3072 * 1024, // level 3: 3M
	}
)

func init() {
	if cpuid.CPU.Cache.L1D != -1 {
		CpuCacheSizes[0] = cpuid.CPU.Cache.L1D
	}
	if cpuid.CPU.Cache.L2 != -1 {
		CpuCacheSizes[1] = cpuid.CPU.Cache.L2
	}
	if cpuid.CPU.Cache.L3 != -1 {
		CpuCacheSizes[2] = cpuid.CPU.Cache.L3
	}
}

type binaryArithmeticFunc = func(context.Context, compute.ArithmeticOptions, compute.Datum, compute.Datum) (compute.Datum, error)

type BinaryArithmeticSuite struct {
	suite.Suite

	mem *memory.CheckedAllocator
	ctx context.Context
}

func (b *BinaryArithmeticSuite) SetupTest() {
	b.mem = memory.NewCheckedAllocator(memory.DefaultAllocator)
	b.ctx = compute.WithAllocator(context.TODO(), b.mem)
}

func (b *BinaryArithmeticSuite) TearDownTest() {
	b.mem.AssertSize(b.T(), 0)
}

func (b *BinaryArithmeticSuite) getArr(dt arrow.DataType, str string) arrow.Array {
	return arrayFromJSON(b.T(), b.mem, dt, str)
}

func (b *BinaryArithmeticSuite) assertBinop(fn binaryArithmeticFunc, opts compute.ArithmeticOptions, dt arrow.DataType, lhs, rhs, expected string) {
	left, right := b.getArr(dt, lhs), b.getArr(dt, rhs)
	defer left.Release()
	defer right.Release()
	exp := b.getArr(dt, expected)
	defer exp.Release()

	ld, rd := compute.NewDatum(left), compute.NewDatum(right)
	defer ld.Release()
	defer rd.Release()

	actual, err := fn(b.ctx, opts, ld, rd)
	b.Require().NoError(err)
	defer actual.Release()

	expDatum := compute.NewDatum(exp)
	defer expDatum.Release()
	assertDatumsEqual(b.T(), expDatum, actual)
}

func (b *BinaryArithmeticSuite) TestAdd() {
	checked, unchecked := compute.ArithmeticOptions{}, compute.ArithmeticOptions{NoCheckOverflow: true}
	b.assertBinop(compute.Add, checked, arrow.PrimitiveTypes.Int8, `[1, null, 127, -128]`, `[2, 3, 1, -1]`, `[3, null, null, null]`)
	b.assertBinop(compute.Add, unchecked, arrow.PrimitiveTypes.Int8, `[1, null, 127, -128]`, `[2, 3, 1, -1]`, `[3, null, -128, 127]`)
	b.assertBinop(compute.Add, checked, arrow.PrimitiveTypes.Uint64, `[18446744073709551615, 1]`, `[1, 1]`, `[null, 2]`)
	b.assertBinop(compute.Add, checked, arrow.PrimitiveTypes.Float64, `[1.5, 2]`, `[0.25, null]`, `[1.75, null]`)
}

func (b *BinaryArithmeticSuite) TestSubtract() {
	checked, unchecked := compute.ArithmeticOptions{}, compute.ArithmeticOptions{NoCheckOverflow: true}
	b.assertBinop(compute.Subtract, checked, arrow.PrimitiveTypes.Uint8, `[5, 1, null]`, `[3, 2, 1]`, `[2, null, null]`)
	b.assertBinop(compute.Subtract, unchecked, arrow.PrimitiveTypes.Uint8, `[5, 1, null]`, `[3, 2, 1]`, `[2, 255, null]`)
	b.assertBinop(compute.Subtract, checked, arrow.PrimitiveTypes.Int64, `[-9223372036854775808, 4]`, `[1, 6]`, `[null, -2]`)
}

func (b *BinaryArithmeticSuite) TestMultiply() {
	checked, unchecked := compute.ArithmeticOptions{}, compute.ArithmeticOptions{NoCheckOverflow: true}
	b.assertBinop(compute.Multiply, checked, arrow.PrimitiveTypes.Int32, `[65536, -3, 0]`, `[65536, 7, null]`, `[null, -21, null]`)
	b.assertBinop(compute.Multiply, unchecked, arrow.PrimitiveTypes.Int32, `[65536, -3, 0]`, `[65536, 7, null]`, `[0, -21, null]`)
	b.assertBinop(compute.Multiply, checked, arrow.PrimitiveTypes.Uint32, `[65536, 3]`, `[65536, 7]`, `[null, 21]`)
}

func (b *BinaryArithmeticSuite) TestDivide() {
	checked := compute.ArithmeticOptions{}
	b.assertBinop(compute.Divide, checked, arrow.PrimitiveTypes.Int16, `[7, -7, -32768, 5, null]`, `[2, 2, -1, 0, 1]`, `[3, -3, null, null, null]`)
	b.assertBinop(compute.Divide, checked, arrow.PrimitiveTypes.Uint16, `[7, 65535]`, `[2, 0]`, `[3, null]`)
	b.assertBinop(compute.Divide, checked, arrow.PrimitiveTypes.Float32, `[1, 3]`, `[4, 2]`, `[0.25, 1.5]`)
}

func (b *BinaryArithmeticSuite) TestRemainder() {
	checked, unchecked := compute.ArithmeticOptions{}, compute.ArithmeticOptions{NoCheckOverflow: true}
	b.assertBinop(compute.Remainder, checked, arrow.PrimitiveTypes.Int32, `[7, -7, -2147483648, 5, null]`, `[3, 3, -1, 0, 1]`, `[1, -1, null, null, null]`)
	b.assertBinop(compute.Remainder, unchecked, arrow.PrimitiveTypes.Int32, `[7, -7, 9]`, `[3, 3, null]`, `[1, -1, null]`)
	b.assertBinop(compute.Remainder, checked, arrow.PrimitiveTypes.Float64, `[7.5, -1]`, `[2, 1]`, `[1.5, 0]`)
}

func (b *BinaryArithmeticSuite) TestUncheckedZeroDivisorPanics() {
	left, right := b.getArr(arrow.PrimitiveTypes.Uint32, `[1, 2]`), b.getArr(arrow.PrimitiveTypes.Uint32, `[1, 0]`)
	defer left.Release()
	defer right.Release()

	b.Panics(func() { compute.Rem(context.Background(), left, right) })
}

func (b *BinaryArithmeticSuite) TestErrors() {
	i32, i64 := b.getArr(arrow.PrimitiveTypes.Int32, `[1, 2]`), b.getArr(arrow.PrimitiveTypes.Int64, `[1, 2]`)
	defer i32.Release()
	defer i64.Release()
	short := b.getArr(arrow.PrimitiveTypes.Int32, `[1]`)
	defer short.Release()

	_, err := compute.CheckedRem(b.ctx, i32, i64)
	b.ErrorIs(err, arrow.ErrType)
	b.ErrorContains(err, "arrays must have the same logical type")

	_, err = compute.CheckedRem(b.ctx, i32, short)
	b.ErrorIs(err, arrow.ErrInvalid)

	sd := compute.NewDatum(int32(2))
	_, err = compute.Add(b.ctx, compute.ArithmeticOptions{}, sd, sd)
	b.ErrorIs(err, arrow.ErrNotImplemented)
}

func (b *BinaryArithmeticSuite) TestRemConvenience() {
	left := b.getArr(arrow.PrimitiveTypes.Uint64, `[10, null, 18446744073709551615, 0, 7]`)
	defer left.Release()
	right := b.getArr(arrow.PrimitiveTypes.Uint64, `[3, 1, 10, 5, 0]`)
	defer right.Release()

	expected := b.getArr(arrow.PrimitiveTypes.Uint64, `[1, null, 5, 0, null]`)
	defer expected.Release()
	out, err := compute.CheckedRem(b.ctx, left, right)
	b.Require().NoError(err)
	defer out.Release()
	assertArraysEqual(b.T(), expected, out)

	expected = b.getArr(arrow.PrimitiveTypes.Uint64, `[3, null, 1, 0, 0]`)
	defer expected.Release()
	out, err = compute.RemScalar(b.ctx, left, scalar.NewUint64Scalar(7))
	b.Require().NoError(err)
	defer out.Release()
	assertArraysEqual(b.T(), expected, out)

	allNull := b.getArr(arrow.PrimitiveTypes.Uint64, `[null, null, null, null, null]`)
	defer allNull.Release()
	for _, sc := range []scalar.Scalar{scalar.NewUint64Scalar(0), scalar.MakeNullScalar(arrow.PrimitiveTypes.Uint64)} {
		out, err = compute.CheckedRemScalar(b.ctx, left, sc)
		b.Require().NoError(err)
		assertArraysEqual(b.T(), allNull, out)
		out.Release()
	}

	b.Panics(func() { compute.RemScalar(context.Background(), left, scalar.NewUint64Scalar(0)) })
}

func (b *BinaryArithmeticSuite) TestScalarOperands() {
	arr := b.getArr(arrow.PrimitiveTypes.Int16, `[10, null, -10]`)
	defer arr.Release()
	ad := compute.NewDatum(arr)
	defer ad.Release()

	out, err := compute.Subtract(b.ctx, compute.ArithmeticOptions{}, compute.NewDatum(int16(1)), ad)
	b.Require().NoError(err)
	defer out.Release()
	expected := b.getArr(arrow.PrimitiveTypes.Int16, `[-9, null, 11]`)
	defer expected.Release()
	actual := out.(*compute.ArrayDatum).MakeArray()
	defer actual.Release()
	assertArraysEqual(b.T(), expected, actual)
}

func TestBinaryArithmetic(t *testing.T) {
	suite.Run(t, new(BinaryArithmeticSuite))
}

// The checked kernels agree with the unchecked ones wherever neither
// faults, over arrays sized to the L1 cache.
func TestCheckedMatchesUnchecked(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)
	ctx := compute.WithAllocator(context.Background(), mem)

	size := int64(CpuCacheSizes[0] / 8)
	rng := gen.NewRandomArrayGenerator(0x0ff1ce, mem)

	divisors := map[arrow.Type]func(arrow.DataType) arrow.Array{
		arrow.UINT8: func(dt arrow.DataType) arrow.Array {
			return gen.Primitive[uint8](&rng, dt, size, 1, math.MaxUint8, 0.1)
		},
		arrow.INT32: func(dt arrow.DataType) arrow.Array {
			return gen.Primitive[int32](&rng, dt, size, 1, math.MaxInt32, 0.1)
		},
		arrow.UINT64: func(dt arrow.DataType) arrow.Array {
			return gen.Primitive[uint64](&rng, dt, size, 1, math.MaxUint64, 0.1)
		},
	}

	for _, dt := range []arrow.DataType{arrow.PrimitiveTypes.Uint8, arrow.PrimitiveTypes.Int32, arrow.PrimitiveTypes.Uint64} {
		t.Run(dt.String(), func(t *testing.T) {
			left := rng.ArrayOf(dt, size, 0.1)
			defer left.Release()
			right := divisors[dt.ID()](dt)
			defer right.Release()

			checked, err := compute.CheckedRem(ctx, left, right)
			require.NoError(t, err)
			defer checked.Release()
			unchecked, err := compute.Rem(ctx, left, right)
			require.NoError(t, err)
			defer unchecked.Release()
			assertArraysEqual(t, unchecked, checked)

			div, err := scalar.GetScalar(right, 0)
			require.NoError(t, err)
			if !div.IsValid() {
				return
			}
			checked, err = compute.CheckedRemScalar(ctx, left, div)
			require.NoError(t, err)
			defer checked.Release()
			unchecked, err = compute.RemScalar(ctx, left, div)
			require.NoError(t, err)
			defer unchecked.Release()
			assertArraysEqual(t, unchecked, checked)
		})
	}
}
