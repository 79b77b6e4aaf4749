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

package array_test

import (
	"testing"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fromJSON(t *testing.T, mem memory.Allocator, dt arrow.DataType, s string) arrow.Array {
	t.Helper()
	arr, err := array.FromJSONString(mem, dt, s)
	require.NoError(t, err)
	return arr
}

func TestGrowableVariants(t *testing.T) {
	dictType := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int16, ValueType: arrow.BinaryTypes.String}
	structType := arrow.StructOf(
		arrow.Field{Name: "x", Type: arrow.PrimitiveTypes.Int8, Nullable: true},
		arrow.Field{Name: "y", Type: arrow.FixedWidthTypes.Boolean, Nullable: true},
	)

	tests := []struct {
		name     string
		dt       arrow.DataType
		src      string
		expected string
	}{
		{"null", arrow.Null, `[null, null, null]`, `[null, null, null, null, null]`},
		{"bool", arrow.FixedWidthTypes.Boolean, `[true, false, null, true]`, `[false, null, true, null, true, true]`},
		{"int32", arrow.PrimitiveTypes.Int32, `[1, 2, null, 4]`, `[2, null, 4, null, 1, 1]`},
		{"float64", arrow.PrimitiveTypes.Float64, `[1.5, 2.5, null, 4.5]`, `[2.5, null, 4.5, null, 1.5, 1.5]`},
		{"date32", arrow.PrimitiveTypes.Date32, `[10, 20, null, 40]`, `[20, null, 40, null, 10, 10]`},
		{"string", arrow.BinaryTypes.String, `["a", "bb", null, "dddd"]`, `["bb", null, "dddd", null, "a", "a"]`},
		{"dictionary", dictType, `["a", "b", null, "a"]`, `["b", null, "a", null, "a", "a"]`},
		{"struct", structType, `[{"x": 1, "y": true}, {"x": 2, "y": null}, null, {"x": 4, "y": false}]`,
			`[{"x": 2, "y": null}, null, {"x": 4, "y": false}, null, {"x": 1, "y": true}, {"x": 1, "y": true}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			src := fromJSON(t, mem, tt.dt, tt.src)
			defer src.Release()

			g, err := array.NewGrowable(mem, []arrow.Array{src, src}, 0)
			require.NoError(t, err)
			defer g.Release()

			if tt.dt.ID() == arrow.NULL {
				g.Extend(0, 0, 2)
				g.ExtendValidity(1)
				g.Extend(1, 1, 2)
			} else {
				g.Extend(0, 1, 3)
				g.ExtendValidity(1)
				g.Extend(1, 0, 1)
				g.Extend(0, 0, 1)
				g.Extend(1, 3, 0)
			}

			result := g.NewArray()
			defer result.Release()

			expected := fromJSON(t, mem, tt.dt, tt.expected)
			defer expected.Release()

			assert.Truef(t, array.Equal(expected, result), "expected %s, got %s", expected, result)
			assert.Zero(t, result.Offset())
		})
	}
}

func TestGrowableLengthLaw(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a := fromJSON(t, mem, arrow.BinaryTypes.Binary, `["AA==", "AQI=", null, "AwME"]`)
	defer a.Release()
	b := fromJSON(t, mem, arrow.BinaryTypes.Binary, `[null, "BQ=="]`)
	defer b.Release()

	g, err := array.NewGrowable(mem, []arrow.Array{a, b}, 4)
	require.NoError(t, err)
	defer g.Release()

	want := 0
	steps := []struct{ src, start, n int }{
		{0, 0, 4}, {1, 0, 2}, {0, 2, 0}, {-1, 0, 3}, {0, 1, 2}, {1, 1, 1},
	}
	for _, s := range steps {
		if s.src < 0 {
			g.ExtendValidity(s.n)
		} else {
			g.Extend(s.src, s.start, s.n)
		}
		want += s.n
		assert.Equal(t, want, g.Len())
	}

	arr := g.NewArray().(*array.Binary)
	defer arr.Release()
	assert.Equal(t, want, arr.Len())
	assert.Equal(t, 6, arr.NullN())

	offsets := arr.ValueOffsets()
	require.Len(t, offsets, want+1)
	assert.Zero(t, offsets[0])
	for i := 1; i < len(offsets); i++ {
		assert.GreaterOrEqual(t, offsets[i], offsets[i-1])
	}
	assert.Equal(t, []byte{5}, arr.Value(want-1))
}

func TestGrowableValidityOnlyWhenNeeded(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	src := fromJSON(t, mem, arrow.PrimitiveTypes.Uint64, `[1, 2, null, 4]`)
	defer src.Release()

	g, err := array.NewGrowable(mem, []arrow.Array{src}, 4)
	require.NoError(t, err)
	defer g.Release()

	g.Extend(0, 0, 2)
	g.Extend(0, 3, 1)
	noNulls := g.NewArray()
	defer noNulls.Release()
	assert.Nil(t, noNulls.Validity())
	assert.Equal(t, "[1 2 4]", noNulls.String())

	g.Extend(0, 0, 1)
	g.ExtendValidity(1)
	withNulls := g.NewArray()
	defer withNulls.Release()
	require.NotNil(t, withNulls.Validity())
	assert.Equal(t, 1, withNulls.NullN())
}

func TestGrowableErrors(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	_, err := array.NewGrowable(mem, nil, 0)
	assert.ErrorIs(t, err, arrow.ErrInvalid)

	a := fromJSON(t, mem, arrow.PrimitiveTypes.Int32, `[1]`)
	defer a.Release()
	b := fromJSON(t, mem, arrow.PrimitiveTypes.Int64, `[1]`)
	defer b.Release()
	_, err = array.NewGrowable(mem, []arrow.Array{a, b}, 0)
	assert.ErrorIs(t, err, arrow.ErrType)

	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}
	d1 := fromJSON(t, mem, dt, `["x", "y"]`)
	defer d1.Release()
	d2 := fromJSON(t, mem, dt, `["y", "x"]`)
	defer d2.Release()
	_, err = array.NewGrowable(mem, []arrow.Array{d1, d2}, 0)
	assert.ErrorIs(t, err, arrow.ErrInvalid)
}

func TestConcatenate(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a := fromJSON(t, mem, arrow.BinaryTypes.String, `["a", null]`)
	defer a.Release()
	b := fromJSON(t, mem, arrow.BinaryTypes.String, `["b", "c", "d"]`)
	defer b.Release()
	bs := array.NewSlice(b, 1, 3)
	defer bs.Release()

	out, err := array.Concatenate([]arrow.Array{a, bs}, mem)
	require.NoError(t, err)
	defer out.Release()

	expected := fromJSON(t, mem, arrow.BinaryTypes.String, `["a", null, "c", "d"]`)
	defer expected.Release()
	assert.True(t, array.Equal(expected, out))

	_, err = array.Concatenate(nil, mem)
	assert.ErrorIs(t, err, arrow.ErrInvalid)
}
