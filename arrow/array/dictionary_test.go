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

func TestDictionaryBuilderStrings(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}
	arr, err := array.FromJSONString(mem, dt, `["foo", "bar", null, "foo", "baz", "bar"]`)
	require.NoError(t, err)
	defer arr.Release()

	dict := arr.(*array.Dictionary)
	assert.Equal(t, 6, dict.Len())
	assert.Equal(t, 1, dict.NullN())
	assert.Equal(t, `["foo" "bar" "baz"]`, dict.Dictionary().String())
	assert.Equal(t, "[0 1 (null) 0 2 1]", dict.Indices().String())
	assert.Equal(t, "baz", dict.ValueStr(4))
	assert.Equal(t, arrow.NullValueStr, dict.ValueStr(2))

	out, err := dict.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `["foo", "bar", null, "foo", "baz", "bar"]`, string(out))
}

func TestDictionaryBuilderKeyOverflow(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.PrimitiveTypes.Int32}
	bldr := array.NewDictionaryBuilder(mem, dt)
	defer bldr.Release()

	for i := int32(0); i < 128; i++ {
		require.NoError(t, bldr.Append(i))
	}
	assert.Equal(t, 128, bldr.DictionarySize())

	// existing values still resolve once the index type is exhausted
	assert.NoError(t, bldr.Append(int32(5)))
	assert.ErrorIs(t, bldr.Append(int32(128)), arrow.ErrKeyOverflow)
	assert.Equal(t, 128, bldr.DictionarySize())

	arr := bldr.NewArray()
	defer arr.Release()
	assert.Equal(t, 129, arr.Len())
}

func TestDictionaryAppendArray(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	values, err := array.FromJSONString(mem, arrow.PrimitiveTypes.Float64, `[1.5, null, 2.5, 1.5]`)
	require.NoError(t, err)
	defer values.Release()

	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Uint16, ValueType: arrow.PrimitiveTypes.Float64}
	bldr := array.NewDictionaryBuilder(mem, dt)
	defer bldr.Release()

	require.NoError(t, bldr.AppendArray(values))
	ints, err := array.FromJSONString(mem, arrow.PrimitiveTypes.Int8, `[1]`)
	require.NoError(t, err)
	defer ints.Release()
	assert.ErrorIs(t, bldr.AppendArray(ints), arrow.ErrType)

	arr := bldr.NewDictionaryArray()
	defer arr.Release()
	assert.Equal(t, "[0 (null) 1 0]", arr.Indices().String())
	assert.Equal(t, "[1.5 2.5]", arr.Dictionary().String())
}

func TestNewValidatedDictionaryArray(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	dict, err := array.FromJSONString(mem, arrow.BinaryTypes.String, `["a", "b"]`)
	require.NoError(t, err)
	defer dict.Release()

	good, err := array.FromJSONString(mem, arrow.PrimitiveTypes.Int32, `[1, null, 0]`)
	require.NoError(t, err)
	defer good.Release()
	bad, err := array.FromJSONString(mem, arrow.PrimitiveTypes.Int32, `[1, 2]`)
	require.NoError(t, err)
	defer bad.Release()

	dt := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int32, ValueType: arrow.BinaryTypes.String}
	arr, err := array.NewValidatedDictionaryArray(dt, good, dict)
	require.NoError(t, err)
	defer arr.Release()
	assert.Equal(t, "b", arr.ValueStr(0))
	assert.Equal(t, 1, arr.NullN())

	_, err = array.NewValidatedDictionaryArray(dt, bad, dict)
	assert.ErrorIs(t, err, arrow.ErrIndex)

	wrong := &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String}
	_, err = array.NewValidatedDictionaryArray(wrong, good, dict)
	assert.ErrorIs(t, err, arrow.ErrType)
}
