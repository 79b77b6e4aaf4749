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
	"testing"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/compute"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/ferrow-io/ferrow/arrow/scalar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatumKinds(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)

	arr := arrayFromJSON(t, mem, arrow.PrimitiveTypes.Int32, `[1, null, 3]`)
	ad := compute.NewDatum(arr)
	arr.Release()
	defer ad.Release()

	assert.Equal(t, compute.KindArray, ad.Kind())
	assert.Equal(t, "array", ad.Kind().String())
	assert.EqualValues(t, 3, ad.Len())
	assert.EqualValues(t, 1, ad.(compute.ArrayLikeDatum).NullN())
	assert.Same(t, ad, compute.NewDatum(ad))

	sd := compute.NewDatum(uint8(7))
	assert.Equal(t, compute.KindScalar, sd.Kind())
	assert.True(t, arrow.TypeEqual(arrow.PrimitiveTypes.Uint8, sd.(compute.ArrayLikeDatum).Type()))
	assert.True(t, sd.Equals(compute.NewDatum(scalar.NewUint8Scalar(7))))
	assert.False(t, sd.Equals(ad))

	null := compute.NewDatum(scalar.MakeNullScalar(arrow.PrimitiveTypes.Int32))
	assert.EqualValues(t, 1, null.(compute.ArrayLikeDatum).NullN())

	var empty compute.EmptyDatum
	assert.Equal(t, compute.KindNone, empty.Kind())
	assert.EqualValues(t, compute.UnknownLength, empty.Len())
	assert.True(t, empty.Equals(compute.EmptyDatum{}))
	assert.False(t, empty.Equals(sd))
}

func TestDatumScalarArgumentsRejected(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	defer mem.AssertSize(t, 0)
	ctx := compute.WithAllocator(context.Background(), mem)

	arr := arrayFromJSON(t, mem, arrow.PrimitiveTypes.Int32, `[1, 2]`)
	defer arr.Release()
	ad := compute.NewDatum(arr)
	defer ad.Release()

	_, err := compute.Take(ctx, *compute.DefaultTakeOptions(), ad, compute.NewDatum(int32(0)))
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)

	_, err = compute.Filter(ctx, compute.NewDatum(true), ad, *compute.DefaultFilterOptions())
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)

	_, err = compute.CastDatum(ctx, compute.NewDatum(int32(1)), compute.SafeCastOptions(arrow.PrimitiveTypes.Int64))
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)

	_, err = compute.Add(ctx, compute.ArithmeticOptions{}, compute.NewDatum(int32(1)), compute.NewDatum(int32(2)))
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)

	out, err := compute.CastDatum(ctx, ad, compute.SafeCastOptions(arrow.PrimitiveTypes.Int64))
	require.NoError(t, err)
	defer out.Release()
	expArr := arrayFromJSON(t, mem, arrow.PrimitiveTypes.Int64, `[1, 2]`)
	expected := compute.NewDatum(expArr)
	expArr.Release()
	defer expected.Release()
	assertDatumsEqual(t, expected, out)
}

func TestGetAllocatorDefault(t *testing.T) {
	assert.Equal(t, memory.DefaultAllocator, compute.GetAllocator(context.Background()))
	mem := memory.NewGoAllocator()
	assert.Same(t, mem, compute.GetAllocator(compute.WithAllocator(context.Background(), mem)))
}
