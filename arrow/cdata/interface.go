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

// Package cdata implements the Arrow C data interface. Arrays are described
// by the ArrowArray / ArrowSchema structs of arrow/c/abi.h, so a producer
// and a consumer in different runtimes can hand columnar buffers to each
// other without copying them.
//
// Imported arrays reference the producer's memory directly. The producer
// must keep that memory valid and unmodified until the descriptor's
// release callback runs; this is not checked.
package cdata

// #include "arrow/c/abi.h"
// #include "arrow/c/helpers.h"
import "C"

import (
	"unsafe"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
)

type (
	// CArrowSchema is the ArrowSchema struct of the C data interface.
	CArrowSchema = C.struct_ArrowSchema
	// CArrowArray is the ArrowArray struct of the C data interface. Buffer
	// slot 0 is always the validity bitmap and is NULL when the array has
	// no nulls.
	CArrowArray = C.struct_ArrowArray
)

// Flags of the ArrowSchema flags field.
const (
	FlagDictionaryOrdered = C.ARROW_FLAG_DICTIONARY_ORDERED
	FlagNullable          = C.ARROW_FLAG_NULLABLE
)

// SchemaFromPtr casts a pointer handed over by a foreign runtime to a
// *CArrowSchema.
func SchemaFromPtr(ptr uintptr) *CArrowSchema { return (*CArrowSchema)(unsafe.Pointer(ptr)) }

// ArrayFromPtr casts a pointer handed over by a foreign runtime to a
// *CArrowArray.
func ArrayFromPtr(ptr uintptr) *CArrowArray { return (*CArrowArray)(unsafe.Pointer(ptr)) }

// ArrayIsReleased reports whether arr has already been released or moved
// from.
func ArrayIsReleased(arr *CArrowArray) bool { return C.ArrowArrayIsReleased(arr) == 1 }

// SchemaIsReleased reports whether schema has already been released or
// moved from.
func SchemaIsReleased(schema *CArrowSchema) bool { return C.ArrowSchemaIsReleased(schema) == 1 }

// ReleaseCArrowArray calls the release callback of arr if it has not been
// released yet.
func ReleaseCArrowArray(arr *CArrowArray) {
	if arr != nil {
		C.ArrowArrayRelease(arr)
	}
}

// ReleaseCArrowSchema calls the release callback of schema if it has not
// been released yet.
func ReleaseCArrowSchema(schema *CArrowSchema) {
	if schema != nil {
		C.ArrowSchemaRelease(schema)
	}
}

// MoveCArrowArray transfers ownership of src to dst, leaving src released.
func MoveCArrowArray(src, dst *CArrowArray) { C.ArrowArrayMove(src, dst) }

// ExportArrowField populates out with the type description of field. The
// strings and children are allocated with malloc and freed by the release
// callback of out, which the consumer must call.
func ExportArrowField(field arrow.Field, out *CArrowSchema) {
	exportField(field, out)
}

// ExportArrowArray populates out with raw pointers to the buffers of arr
// without copying them. The array data is retained until the release
// callback of out runs, so arr itself may be released at any time. If
// outSchema is not nil it receives the description of arr's type.
//
// The buffers stay in Go memory. A consumer that keeps the pointers after
// the call that received them returns should be fed arrays built with an
// allocator whose memory the Go runtime does not manage.
func ExportArrowArray(arr arrow.Array, out *CArrowArray, outSchema *CArrowSchema) {
	exportArray(arr, out, outSchema)
}

// ImportCArrowField parses the schema descriptor into a Field. The schema
// is released whether or not an error is returned.
func ImportCArrowField(schema *CArrowSchema) (arrow.Field, error) {
	return importSchema(schema)
}

// ImportCArrowType is ImportCArrowField for callers only interested in the
// data type.
func ImportCArrowType(schema *CArrowSchema) (arrow.DataType, error) {
	f, err := importSchema(schema)
	if err != nil {
		return nil, err
	}
	return f.Type, nil
}

// ImportCArrayWithType moves arr into a new array of type dt, referencing
// the foreign buffers without copying them. After the call arr is marked
// released; the producer's release callback runs exactly once, when the
// last buffer of the imported array is released, or before returning if
// an error occurs.
//
// A non-zero descriptor offset is folded into the buffers in steps of 8
// elements, one bitmap byte: every buffer starts at element offset-offset%8,
// so the returned array keeps only the remainder offset%8 as its Offset.
// It is 0 whenever the descriptor offset is a multiple of 8.
func ImportCArrayWithType(arr *CArrowArray, dt arrow.DataType) (arrow.Array, error) {
	data, err := importCArrayAsType(arr, dt)
	if err != nil {
		return nil, err
	}
	defer data.Release()
	return array.MakeFromData(data), nil
}

// ImportCArray imports both the schema and the array descriptors. The
// schema is always released; the array follows the ownership rules of
// ImportCArrayWithType, and is released if the schema cannot be parsed.
func ImportCArray(arr *CArrowArray, schema *CArrowSchema) (arrow.Field, arrow.Array, error) {
	field, err := importSchema(schema)
	if err != nil {
		ReleaseCArrowArray(arr)
		return field, nil, err
	}

	ret, err := ImportCArrayWithType(arr, field.Type)
	return field, ret, err
}
