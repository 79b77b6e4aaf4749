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

//go:build cgo
// +build cgo

package cdata

// #include <stdint.h>
// #include <stdlib.h>
// #include "arrow/c/abi.h"
// #include "arrow/c/helpers.h"
//
// extern void releaseExportedSchema(struct ArrowSchema* schema);
// extern void releaseExportedArray(struct ArrowArray* array);
//
// // backs empty non-validity buffers for consumers that reject NULL data pointers
// const uint8_t ferrowCdataZeroRegion[8] = {0};
//
// void goReleaseArray(struct ArrowArray* array) {
//	releaseExportedArray(array);
// }
// void goReleaseSchema(struct ArrowSchema* schema) {
//	releaseExportedSchema(schema);
// }
import "C"

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
)

// callocSlice returns n zeroed values of T in C memory, invisible to the Go
// garbage collector. It must be freed with C.free.
func callocSlice[T any](n int) []T {
	var zero T
	return unsafe.Slice((*T)(C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof(zero)))), n)
}

type schemaExporter struct {
	format, name string
	flags        int64

	children []schemaExporter
	dict     *schemaExporter
}

func (exp *schemaExporter) exportFormat(dt arrow.DataType) string {
	switch dt := dt.(type) {
	case *arrow.NullType:
		return "n"
	case *arrow.BooleanType:
		return "b"
	case *arrow.Int8Type:
		return "c"
	case *arrow.Uint8Type:
		return "C"
	case *arrow.Int16Type:
		return "s"
	case *arrow.Uint16Type:
		return "S"
	case *arrow.Int32Type:
		return "i"
	case *arrow.Uint32Type:
		return "I"
	case *arrow.Int64Type:
		return "l"
	case *arrow.Uint64Type:
		return "L"
	case *arrow.Float32Type:
		return "f"
	case *arrow.Float64Type:
		return "g"
	case *arrow.BinaryType:
		return "z"
	case *arrow.StringType:
		return "u"
	case *arrow.Date32Type:
		return "tdD"
	case *arrow.Date64Type:
		return "tdm"
	case *arrow.Time32Type:
		switch dt.Unit {
		case arrow.Second:
			return "tts"
		case arrow.Millisecond:
			return "ttm"
		default:
			panic(fmt.Sprintf("invalid time unit for time32: %s", dt.Unit))
		}
	case *arrow.Time64Type:
		switch dt.Unit {
		case arrow.Microsecond:
			return "ttu"
		case arrow.Nanosecond:
			return "ttn"
		default:
			panic(fmt.Sprintf("invalid time unit for time64: %s", dt.Unit))
		}
	case *arrow.TimestampType:
		var b strings.Builder
		b.WriteString("ts")
		b.WriteByte(unitChar(dt.Unit))
		b.WriteByte(':')
		b.WriteString(dt.TimeZone)
		return b.String()
	case *arrow.DurationType:
		return "tD" + string(unitChar(dt.Unit))
	case *arrow.StructType:
		return "+s"
	case *arrow.DictionaryType:
		if dt.Ordered {
			exp.flags |= FlagDictionaryOrdered
		}
		return exp.exportFormat(dt.IndexType)
	}
	panic("unsupported data type for export: " + dt.String())
}

func unitChar(u arrow.TimeUnit) byte {
	switch u {
	case arrow.Second:
		return 's'
	case arrow.Millisecond:
		return 'm'
	case arrow.Microsecond:
		return 'u'
	case arrow.Nanosecond:
		return 'n'
	}
	panic(fmt.Sprintf("invalid time unit: %d", u))
}

func (exp *schemaExporter) export(field arrow.Field) {
	exp.name = field.Name
	exp.format = exp.exportFormat(field.Type)
	if field.Nullable {
		exp.flags |= FlagNullable
	}

	switch dt := field.Type.(type) {
	case *arrow.DictionaryType:
		exp.dict = new(schemaExporter)
		exp.dict.export(arrow.Field{Type: dt.ValueType, Nullable: true})
	case *arrow.StructType:
		exp.children = make([]schemaExporter, dt.NumFields())
		for i, f := range dt.Fields() {
			exp.children[i].export(f)
		}
	}
}

func (exp *schemaExporter) finish(out *CArrowSchema) {
	out.dictionary = nil
	if exp.dict != nil {
		out.dictionary = &callocSlice[CArrowSchema](1)[0]
		exp.dict.finish(out.dictionary)
	}
	out.name = C.CString(exp.name)
	out.format = C.CString(exp.format)
	out.metadata = nil
	out.flags = C.int64_t(exp.flags)
	out.n_children = C.int64_t(len(exp.children))

	if len(exp.children) > 0 {
		children := callocSlice[CArrowSchema](len(exp.children))
		childPtrs := callocSlice[*CArrowSchema](len(exp.children))

		for i, c := range exp.children {
			c.finish(&children[i])
			childPtrs[i] = &children[i]
		}

		out.children = &childPtrs[0]
	} else {
		out.children = nil
	}

	out.private_data = nil
	out.release = (*[0]byte)(C.goReleaseSchema)
}

func exportField(field arrow.Field, out *CArrowSchema) {
	var exp schemaExporter
	exp.export(field)
	exp.finish(out)
}

// numBuffers is the number of buffer slots the C data interface expects
// for dt.
func numBuffers(dt arrow.DataType) int {
	return len(dt.Layout().Buffers)
}

func exportArray(arr arrow.Array, out *CArrowArray, outSchema *CArrowSchema) {
	if outSchema != nil {
		exportField(arrow.Field{Type: arr.DataType(), Nullable: true}, outSchema)
	}

	data := arr.Data()
	out.dictionary = nil
	out.null_count = C.int64_t(arr.NullN())
	out.length = C.int64_t(arr.Len())
	out.offset = C.int64_t(data.Offset())
	out.n_buffers = C.int64_t(numBuffers(arr.DataType()))
	out.buffers = nil

	if nbuffers := int(out.n_buffers); nbuffers > 0 {
		bufs := data.Buffers()
		buffers := callocSlice[unsafe.Pointer](nbuffers)
		for i := range buffers {
			if i >= len(bufs) || bufs[i] == nil || bufs[i].Len() == 0 {
				if i > 0 {
					buffers[i] = unsafe.Pointer(&C.ferrowCdataZeroRegion)
				}
				continue
			}
			buffers[i] = unsafe.Pointer(&bufs[i].Bytes()[0])
		}
		out.buffers = &buffers[0]
	}

	out.private_data = storeData(data).privateData()
	out.release = (*[0]byte)(C.goReleaseArray)

	out.n_children = 0
	out.children = nil
	switch arr := arr.(type) {
	case *array.Struct:
		// children are exported unwindowed; the parent offset applies to them
		childData := data.Children()
		out.n_children = C.int64_t(len(childData))
		if len(childData) > 0 {
			childPtrs := callocSlice[*CArrowArray](len(childData))
			children := callocSlice[CArrowArray](len(childData))
			for i, cd := range childData {
				child := array.MakeFromData(cd)
				exportArray(child, &children[i], nil)
				child.Release()
				childPtrs[i] = &children[i]
			}
			out.children = &childPtrs[0]
		}
	case *array.Dictionary:
		out.dictionary = &callocSlice[CArrowArray](1)[0]
		exportArray(arr.Dictionary(), out.dictionary, nil)
	}
}
