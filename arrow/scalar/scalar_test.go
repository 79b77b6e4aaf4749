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

package scalar_test

import (
	"math/bits"
	"testing"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/ferrow-io/ferrow/arrow/scalar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func assertScalarsEqual(t *testing.T, expected, actual scalar.Scalar) {
	assert.Truef(t, scalar.Equals(expected, actual), "Expected:\n%s\nActual:\n%s", expected, actual)
}

func assertMakeScalar(t *testing.T, expected scalar.Scalar, val interface{}) {
	out, err := scalar.MakeScalar(val)
	require.NoError(t, err)
	assert.NoError(t, out.Validate())
	assertScalarsEqual(t, expected, out)
}

func assertParseScalar(t *testing.T, dt arrow.DataType, str string, expected scalar.Scalar) {
	out, err := scalar.ParseScalar(dt, str)
	require.NoError(t, err)
	assert.NoError(t, out.Validate())
	assertScalarsEqual(t, expected, out)
}

func TestMakeScalarInt(t *testing.T) {
	three, err := scalar.MakeScalar(int(3))
	require.NoError(t, err)
	assert.NoError(t, three.Validate())

	var expected scalar.Scalar
	if bits.UintSize == 32 {
		expected = scalar.NewInt32Scalar(3)
	} else {
		expected = scalar.NewInt64Scalar(3)
	}

	assert.Equal(t, expected, three)
	assertMakeScalar(t, expected, int(3))
	assertParseScalar(t, expected.DataType(), "3", expected)
}

func TestMakeScalarUnsupported(t *testing.T) {
	_, err := scalar.MakeScalar(struct{}{})
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)
}

func TestMakeNullScalar(t *testing.T) {
	types := []arrow.DataType{
		arrow.Null,
		arrow.FixedWidthTypes.Boolean,
		arrow.PrimitiveTypes.Int8,
		arrow.PrimitiveTypes.Uint64,
		arrow.PrimitiveTypes.Float32,
		arrow.FixedWidthTypes.Date32,
		arrow.FixedWidthTypes.Timestamp_ms,
		arrow.BinaryTypes.String,
		arrow.BinaryTypes.Binary,
		arrow.StructOf(arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int32, Nullable: true}),
	}
	for _, dt := range types {
		t.Run(dt.String(), func(t *testing.T) {
			s := scalar.MakeNullScalar(dt)
			assert.False(t, s.IsValid())
			assert.True(t, arrow.TypeEqual(dt, s.DataType()))
			assert.NoError(t, s.Validate())
			assert.Equal(t, "null", s.String())
		})
	}
}

type PrimitiveScalarSuite[T arrow.NumericType] struct {
	suite.Suite

	dt arrow.DataType
}

func (ps *PrimitiveScalarSuite[T]) TestBasics() {
	one := scalar.NewPrimitive(T(1), ps.dt)
	ps.True(one.IsValid())
	ps.Equal(T(1), one.Value)
	ps.NoError(one.Validate())

	two := scalar.NewPrimitive(T(2), ps.dt)
	ps.False(scalar.Equals(one, two))
	ps.True(scalar.Equals(one, scalar.NewPrimitive(T(1), ps.dt)))

	null := scalar.MakeNullScalar(ps.dt)
	ps.False(scalar.Equals(one, null))
	ps.False(scalar.Equals(null, one))
	ps.True(scalar.Equals(null, scalar.MakeNullScalar(ps.dt)))

	parsed, err := scalar.ParseScalar(ps.dt, "2")
	ps.Require().NoError(err)
	ps.True(scalar.Equals(two, parsed))
}

func (ps *PrimitiveScalarSuite[T]) TestInvalidPayloadIgnored() {
	a := scalar.MakeNullScalar(ps.dt).(*scalar.Primitive[T])
	b := scalar.MakeNullScalar(ps.dt).(*scalar.Primitive[T])
	a.Value, b.Value = 1, 2
	ps.True(scalar.Equals(a, b))
}

func TestPrimitiveScalars(t *testing.T) {
	suite.Run(t, &PrimitiveScalarSuite[int8]{dt: arrow.PrimitiveTypes.Int8})
	suite.Run(t, &PrimitiveScalarSuite[uint16]{dt: arrow.PrimitiveTypes.Uint16})
	suite.Run(t, &PrimitiveScalarSuite[int32]{dt: arrow.PrimitiveTypes.Int32})
	suite.Run(t, &PrimitiveScalarSuite[int32]{dt: arrow.FixedWidthTypes.Date32})
	suite.Run(t, &PrimitiveScalarSuite[uint64]{dt: arrow.PrimitiveTypes.Uint64})
	suite.Run(t, &PrimitiveScalarSuite[int64]{dt: arrow.FixedWidthTypes.Timestamp_us})
	suite.Run(t, &PrimitiveScalarSuite[float64]{dt: arrow.PrimitiveTypes.Float64})
}

func TestPrimitiveWidthMismatch(t *testing.T) {
	s := scalar.NewPrimitive(int32(1), arrow.PrimitiveTypes.Int64)
	assert.ErrorIs(t, s.Validate(), arrow.ErrInvalid)
}

func TestEqualsDifferentTypes(t *testing.T) {
	assert.False(t, scalar.Equals(scalar.NewInt32Scalar(1), scalar.NewPrimitive(int32(1), arrow.FixedWidthTypes.Date32)))
	assert.False(t, scalar.Equals(scalar.NewStringScalar("a"), scalar.NewBinaryScalar([]byte("a"))))
}

func TestBinaryScalars(t *testing.T) {
	s := scalar.NewStringScalar("hello")
	assert.Equal(t, "hello", s.String())
	assert.NoError(t, s.Validate())
	assert.True(t, scalar.Equals(s, scalar.NewStringScalar("hello")))
	assert.False(t, scalar.Equals(s, scalar.NewStringScalar("hellO")))

	bad := &scalar.String{Binary: scalar.NewBinaryScalar([]byte{0xff, 0xfe})}
	bad.Type = arrow.BinaryTypes.String
	assert.ErrorIs(t, bad.Validate(), arrow.ErrInvalid)

	assertParseScalar(t, arrow.BinaryTypes.Binary, "xyz", scalar.NewBinaryScalar([]byte("xyz")))
}

func TestBooleanScalar(t *testing.T) {
	assertMakeScalar(t, scalar.NewBooleanScalar(true), true)
	assertParseScalar(t, arrow.FixedWidthTypes.Boolean, "false", scalar.NewBooleanScalar(false))
	assert.Equal(t, "true", scalar.NewBooleanScalar(true).String())
}

func TestParseScalarErrors(t *testing.T) {
	_, err := scalar.ParseScalar(arrow.PrimitiveTypes.Int8, "300")
	assert.ErrorIs(t, err, arrow.ErrInvalid)
	_, err = scalar.ParseScalar(arrow.PrimitiveTypes.Uint8, "-1")
	assert.ErrorIs(t, err, arrow.ErrInvalid)
	_, err = scalar.ParseScalar(arrow.StructOf(), "{}")
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)
}

func TestGetScalar(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	st := arrow.StructOf(
		arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int64, Nullable: true},
		arrow.Field{Name: "b", Type: arrow.BinaryTypes.String, Nullable: true},
	)
	arr, err := array.FromJSONString(mem, st, `[{"a": 1, "b": "x"}, null, {"a": null, "b": "z"}]`)
	require.NoError(t, err)
	defer arr.Release()

	s0, err := scalar.GetScalar(arr, 0)
	require.NoError(t, err)
	assert.NoError(t, s0.Validate())
	expected := scalar.NewStructScalar([]scalar.Scalar{scalar.NewInt64Scalar(1), scalar.NewStringScalar("x")}, st)
	assertScalarsEqual(t, expected, s0)

	b, err := s0.(*scalar.Struct).Field("b")
	require.NoError(t, err)
	assertScalarsEqual(t, scalar.NewStringScalar("x"), b)

	s1, err := scalar.GetScalar(arr, 1)
	require.NoError(t, err)
	assert.False(t, s1.IsValid())

	s2, err := scalar.GetScalar(arr, 2)
	require.NoError(t, err)
	a, err := s2.(*scalar.Struct).Field("a")
	require.NoError(t, err)
	assert.False(t, a.IsValid())

	_, err = scalar.GetScalar(arr, 3)
	assert.ErrorIs(t, err, arrow.ErrIndex)

	sliced := array.NewSlice(arr, 2, 3)
	defer sliced.Release()
	s, err := scalar.GetScalar(sliced, 0)
	require.NoError(t, err)
	assertScalarsEqual(t, s2, s)
}

func TestGetScalarDictionary(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}
	arr, err := array.FromJSONString(mem, dt, `["b", null, "a", "b"]`)
	require.NoError(t, err)
	defer arr.Release()

	s, err := scalar.GetScalar(arr, 3)
	require.NoError(t, err)
	assertScalarsEqual(t, scalar.NewStringScalar("b"), s)

	s, err = scalar.GetScalar(arr, 1)
	require.NoError(t, err)
	assert.False(t, s.IsValid())
}
