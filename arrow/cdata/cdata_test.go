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

//go:build cgo && test
// +build cgo,test

// the test tag keeps the C producer in cdata_test_framework.go out of
// release builds.

package cdata

import (
	"errors"
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

var (
	testDictType   = &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int8, ValueType: arrow.BinaryTypes.String, Ordered: true}
	testStructType = arrow.StructOf(
		arrow.Field{Name: "a", Type: arrow.PrimitiveTypes.Int32, Nullable: true},
		arrow.Field{Name: "b", Type: arrow.BinaryTypes.String, Nullable: true},
	)
)

var roundTripCases = []struct {
	name string
	dt   arrow.DataType
	json string
}{
	{"null", arrow.Null, `[null, null, null, null, null, null, null, null, null, null, null, null]`},
	{"bool", arrow.FixedWidthTypes.Boolean, `[true, false, null, true, true, false, false, null, true, true, false, true]`},
	{"int8", arrow.PrimitiveTypes.Int8, `[1, -2, null, 4, 5, 6, 7, null, 9, 10, 11, 12]`},
	{"uint64", arrow.PrimitiveTypes.Uint64, `[1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 18446744073709551615]`},
	{"float64", arrow.PrimitiveTypes.Float64, `[1.5, null, 3.5, 4, 5, 6, 7, 8, 9, 10, 11, 12]`},
	{"date32", arrow.FixedWidthTypes.Date32, `[0, 1, 2, null, 4, 5, 6, 7, 8, 9, 10, 11]`},
	{"timestamp", &arrow.TimestampType{Unit: arrow.Microsecond, TimeZone: "UTC"}, `[0, 1, 2, null, 4, 5, 6, 7, 8, 9, 10, 11]`},
	{"string", arrow.BinaryTypes.String, `["a", "bb", null, "", "eeeee", "f", "g", null, "iii", "j", "k", "llll"]`},
	{"binary", arrow.BinaryTypes.Binary, `["YQ==", null, "Yg==", "", "YQ==", "Yg==", "YQ==", null, "Yg==", "YQ==", "Yg==", "YQ=="]`},
	{"dictionary", testDictType, `["a", "b", null, "a", "c", "c", "b", null, "a", "a", "b", "c"]`},
	{"struct", testStructType, `[{"a": 1, "b": "x"}, null, {"a": null, "b": "z"}, {"a": 4, "b": null},
		{"a": 5, "b": "x"}, {"a": 6, "b": "x"}, {"a": 7, "b": "x"}, null,
		{"a": 9, "b": "x"}, {"a": 10, "b": "y"}, {"a": 11, "b": "x"}, {"a": 12, "b": "w"}]`},
}

func TestExportImportRoundTrip(t *testing.T) {
	for _, tt := range roundTripCases {
		for _, importFirst := range []bool{true, false} {
			t.Run(tt.name, func(t *testing.T) {
				mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
				defer mem.AssertSize(t, 0)

				arr := fromJSON(t, mem, tt.dt, tt.json)

				var (
					carr    CArrowArray
					cschema CArrowSchema
				)
				ExportArrowArray(arr, &carr, &cschema)

				field, imported, err := ImportCArray(&carr, &cschema)
				require.NoError(t, err)
				assert.True(t, ArrayIsReleased(&carr))
				assert.True(t, SchemaIsReleased(&cschema))
				assert.True(t, arrow.TypeEqual(tt.dt, field.Type), "%s != %s", tt.dt, field.Type)
				assert.True(t, array.Equal(arr, imported), "%s != %s", arr, imported)

				if importFirst {
					imported.Release()
					arr.Release()
				} else {
					arr.Release()
					imported.Release()
				}
				assert.Zero(t, liveHandles())
			})
		}
	}
}

func TestExportImportSliced(t *testing.T) {
	for _, tt := range roundTripCases {
		t.Run(tt.name, func(t *testing.T) {
			mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
			defer mem.AssertSize(t, 0)

			arr := fromJSON(t, mem, tt.dt, tt.json)
			defer arr.Release()

			for _, bounds := range [][2]int64{{0, 12}, {1, 5}, {3, 12}, {9, 11}, {10, 10}} {
				slice := array.NewSlice(arr, bounds[0], bounds[1])

				var carr CArrowArray
				ExportArrowArray(slice, &carr, nil)
				assert.EqualValues(t, bounds[0], carr.offset)

				imported, err := ImportCArrayWithType(&carr, tt.dt)
				require.NoError(t, err)
				if tt.dt.ID() != arrow.NULL {
					assert.Equal(t, int(bounds[0]%8), imported.Offset())
				}
				assert.True(t, array.Equal(slice, imported), "%s != %s", slice, imported)

				slice.Release()
				imported.Release()
			}
			assert.Zero(t, liveHandles())
		})
	}
}

func TestSchemaFormats(t *testing.T) {
	tests := []struct {
		dt     arrow.DataType
		format string
	}{
		{arrow.Null, "n"},
		{arrow.FixedWidthTypes.Boolean, "b"},
		{arrow.PrimitiveTypes.Int8, "c"},
		{arrow.PrimitiveTypes.Uint8, "C"},
		{arrow.PrimitiveTypes.Int16, "s"},
		{arrow.PrimitiveTypes.Uint16, "S"},
		{arrow.PrimitiveTypes.Int32, "i"},
		{arrow.PrimitiveTypes.Uint32, "I"},
		{arrow.PrimitiveTypes.Int64, "l"},
		{arrow.PrimitiveTypes.Uint64, "L"},
		{arrow.PrimitiveTypes.Float32, "f"},
		{arrow.PrimitiveTypes.Float64, "g"},
		{arrow.BinaryTypes.Binary, "z"},
		{arrow.BinaryTypes.String, "u"},
		{arrow.FixedWidthTypes.Date32, "tdD"},
		{arrow.FixedWidthTypes.Date64, "tdm"},
		{arrow.FixedWidthTypes.Time32s, "tts"},
		{arrow.FixedWidthTypes.Time32ms, "ttm"},
		{arrow.FixedWidthTypes.Time64us, "ttu"},
		{arrow.FixedWidthTypes.Time64ns, "ttn"},
		{arrow.FixedWidthTypes.Duration_s, "tDs"},
		{arrow.FixedWidthTypes.Duration_ns, "tDn"},
		{&arrow.TimestampType{Unit: arrow.Second}, "tss:"},
		{&arrow.TimestampType{Unit: arrow.Millisecond, TimeZone: "+01:00"}, "tsm:+01:00"},
		{&arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "Europe/Paris"}, "tsn:Europe/Paris"},
		{testStructType, "+s"},
		{testDictType, "c"},
	}

	for _, tt := range tests {
		t.Run(tt.dt.String(), func(t *testing.T) {
			var schema CArrowSchema
			ExportArrowField(arrow.Field{Name: "col", Type: tt.dt, Nullable: true}, &schema)
			assert.Equal(t, tt.format, schemaFormat(&schema))
			assert.Equal(t, "col", schemaName(&schema))
			assert.NotZero(t, schema.flags&FlagNullable)

			f, err := ImportCArrowField(&schema)
			require.NoError(t, err)
			assert.True(t, SchemaIsReleased(&schema))
			assert.Equal(t, "col", f.Name)
			assert.True(t, f.Nullable)
			assert.True(t, arrow.TypeEqual(tt.dt, f.Type), "%s != %s", tt.dt, f.Type)
		})
	}
}

func TestSchemaUnknownFormat(t *testing.T) {
	for _, format := range []string{"", "e", "+l", "tsx:", "w:16"} {
		schema := foreignSchema(format)
		_, err := ImportCArrowType(schema)
		assert.ErrorIs(t, err, arrow.ErrFormat, format)
		assert.True(t, SchemaIsReleased(schema))
		freeSchemaDescriptor(schema)
	}

	var released CArrowSchema
	_, err := ImportCArrowField(&released)
	assert.ErrorIs(t, err, arrow.ErrFormat)
}

func TestImportForeignOffsetFoldedToByte(t *testing.T) {
	foreign := newForeignProducer()
	defer foreign.close()

	values := []int32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}
	validity := []byte{0xFF, 0xBF} // element 14 is null

	carr := foreign.array(5, 10, 1, validity, arrow.GetBytes(values))
	defer freeArrayDescriptor(carr)
	arr, err := ImportCArrayWithType(carr, arrow.PrimitiveTypes.Int32)
	require.NoError(t, err)
	assert.True(t, ArrayIsReleased(carr))
	assert.Zero(t, foreign.releases())

	// offset 10 becomes a one byte shift of the buffers plus a residual of 2
	ints := arr.(*array.Int32)
	assert.Equal(t, 2, ints.Offset())
	assert.Equal(t, 1, ints.NullN())
	assert.Equal(t, []int32{10, 11, 12, 13, 14}, ints.Values())
	assert.True(t, ints.IsNull(4))

	// the buffers start at the byte holding element 8
	assert.Equal(t, 2*4+5*4, ints.Data().Buffers()[1].Len())
	assert.Equal(t, 1, ints.Data().Buffers()[0].Len())

	slice := array.NewSlice(arr, 1, 3)
	arr.Release()
	assert.Zero(t, foreign.releases())
	slice.Release()
	assert.Equal(t, 1, foreign.releases())
}

func TestImportForeignStrings(t *testing.T) {
	foreign := newForeignProducer()
	defer foreign.close()

	offsets := []int32{0, 1, 3, 3, 6}
	carr := foreign.array(3, 1, 0, nil, arrow.GetBytes(offsets), []byte("abbccc"))
	defer freeArrayDescriptor(carr)
	arr, err := ImportCArrayWithType(carr, arrow.BinaryTypes.String)
	require.NoError(t, err)

	strs := arr.(*array.String)
	assert.Equal(t, "bb", strs.Value(0))
	assert.Equal(t, "", strs.Value(1))
	assert.Equal(t, "ccc", strs.Value(2))
	assert.Nil(t, strs.Validity())

	arr.Release()
	assert.Equal(t, 1, foreign.releases())
}

func TestImportFormatErrors(t *testing.T) {
	values := arrow.GetBytes([]int64{1, 2, 3})
	offsets := arrow.GetBytes([]int32{0, 1, 2, 3})

	tests := []struct {
		name    string
		dt      arrow.DataType
		buffers [][]byte
		null    int64
		mutate  func(*CArrowArray)
	}{
		{"wrong buffer count", arrow.PrimitiveTypes.Int64, [][]byte{nil}, 0, nil},
		{"missing values", arrow.PrimitiveTypes.Int64, [][]byte{nil, nil}, 0, nil},
		{"missing validity", arrow.PrimitiveTypes.Int64, [][]byte{nil, values}, 1, nil},
		{"unexpected children", arrow.PrimitiveTypes.Int64, [][]byte{nil, values}, 0,
			func(c *CArrowArray) { c.n_children = 1 }},
		{"missing string data", arrow.BinaryTypes.String, [][]byte{nil, offsets, nil}, 0, nil},
		{"missing dictionary", testDictType, [][]byte{nil, values}, 0, nil},
		{"struct children", testStructType, [][]byte{nil}, 0, nil},
		{"negative length", arrow.PrimitiveTypes.Int64, [][]byte{nil, values}, 0,
			func(c *CArrowArray) { c.length = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			foreign := newForeignProducer()
			defer foreign.close()

			carr := foreign.array(3, 0, tt.null, tt.buffers...)
			defer freeArrayDescriptor(carr)
			if tt.mutate != nil {
				tt.mutate(carr)
			}

			arr, err := ImportCArrayWithType(carr, tt.dt)
			assert.Nil(t, arr)
			assert.ErrorIs(t, err, arrow.ErrFormat)
			assert.True(t, ArrayIsReleased(carr))
			assert.Equal(t, 1, foreign.releases())
		})
	}

	t.Run("already released", func(t *testing.T) {
		var carr CArrowArray
		_, err := ImportCArrayWithType(&carr, arrow.PrimitiveTypes.Int64)
		assert.True(t, errors.Is(err, arrow.ErrFormat))
	})
}

func TestExportReleaseIsIdempotent(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	arr := fromJSON(t, mem, testDictType, `["a", null, "b"]`)
	var carr CArrowArray
	ExportArrowArray(arr, &carr, nil)
	arr.Release()

	assert.EqualValues(t, 2, carr.n_buffers)
	require.NotNil(t, carr.dictionary)
	assert.EqualValues(t, 3, carr.dictionary.n_buffers)
	assert.Equal(t, 2, liveHandles())

	ReleaseCArrowArray(&carr)
	assert.True(t, ArrayIsReleased(&carr))
	ReleaseCArrowArray(&carr)
	assert.Zero(t, liveHandles())
}
