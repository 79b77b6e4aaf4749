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

func TestStructArrayFromJSON(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := arrow.StructOf(
		arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		arrow.Field{Name: "b", Type: arrow.BinaryTypes.String, Nullable: true},
	)

	arr, err := array.FromJSONString(mem, dt, `[{"a": 1, "b": "x"}, null, {"a": 3}, {"b": "z", "a": null}]`)
	require.NoError(t, err)
	defer arr.Release()

	st := arr.(*array.Struct)
	assert.Equal(t, 4, st.Len())
	assert.Equal(t, 1, st.NullN())
	assert.Equal(t, 2, st.NumField())

	a := st.Field(0).(*array.Int32)
	b := st.Field(1).(*array.String)
	assert.Equal(t, int32(1), a.Value(0))
	assert.Equal(t, int32(3), a.Value(2))
	assert.True(t, a.IsNull(3))
	assert.Equal(t, "x", b.Value(0))
	assert.True(t, b.IsNull(2))
	assert.Equal(t, "z", b.Value(3))

	assert.Equal(t, `{[1 (null) 3 (null)] [x (null) (null) z]}`, st.String())
	out, err := st.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a": 1, "b": "x"}, null, {"a": 3, "b": null}, {"a": null, "b": "z"}]`, string(out))
}

func TestStructSliceWindowsChildren(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	ints, err := array.FromJSONString(mem, arrow.PrimitiveTypes.Int64, `[1, 2, 3, 4]`)
	require.NoError(t, err)
	defer ints.Release()
	strs, err := array.FromJSONString(mem, arrow.BinaryTypes.String, `["a", "b", "c", "d"]`)
	require.NoError(t, err)
	defer strs.Release()

	st, err := array.NewStructArray([]arrow.Array{ints, strs}, []string{"i", "s"})
	require.NoError(t, err)
	defer st.Release()

	sl := array.NewSlice(st, 1, 3).(*array.Struct)
	defer sl.Release()

	assert.Equal(t, 2, sl.Len())
	assert.Equal(t, []int64{2, 3}, sl.Field(0).(*array.Int64).Values())
	assert.Equal(t, "c", sl.Field(1).(*array.String).Value(1))
}

func TestNewStructArrayErrors(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a, err := array.FromJSONString(mem, arrow.PrimitiveTypes.Int8, `[1, 2]`)
	require.NoError(t, err)
	defer a.Release()
	b, err := array.FromJSONString(mem, arrow.PrimitiveTypes.Int8, `[1]`)
	require.NoError(t, err)
	defer b.Release()

	_, err = array.NewStructArray([]arrow.Array{a, b}, []string{"a", "b"})
	assert.ErrorIs(t, err, arrow.ErrInvalid)

	_, err = array.NewStructArray([]arrow.Array{a}, []string{"a", "b"})
	assert.ErrorIs(t, err, arrow.ErrInvalid)
}
