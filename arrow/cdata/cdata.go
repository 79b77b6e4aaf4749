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

// #include <stdlib.h>
// #include "arrow/c/abi.h"
// #include "arrow/c/helpers.h"
import "C"

import (
	"fmt"
	"strings"
	"unsafe"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"golang.org/x/xerrors"
)

// Map from the defined strings to their corresponding arrow.DataType interface
// object instances, for types that don't require params.
var formatToSimpleType = map[string]arrow.DataType{
	"n":   arrow.Null,
	"b":   arrow.FixedWidthTypes.Boolean,
	"c":   arrow.PrimitiveTypes.Int8,
	"C":   arrow.PrimitiveTypes.Uint8,
	"s":   arrow.PrimitiveTypes.Int16,
	"S":   arrow.PrimitiveTypes.Uint16,
	"i":   arrow.PrimitiveTypes.Int32,
	"I":   arrow.PrimitiveTypes.Uint32,
	"l":   arrow.PrimitiveTypes.Int64,
	"L":   arrow.PrimitiveTypes.Uint64,
	"f":   arrow.PrimitiveTypes.Float32,
	"g":   arrow.PrimitiveTypes.Float64,
	"z":   arrow.BinaryTypes.Binary,
	"u":   arrow.BinaryTypes.String,
	"tdD": arrow.FixedWidthTypes.Date32,
	"tdm": arrow.FixedWidthTypes.Date64,
	"tts": arrow.FixedWidthTypes.Time32s,
	"ttm": arrow.FixedWidthTypes.Time32ms,
	"ttu": arrow.FixedWidthTypes.Time64us,
	"ttn": arrow.FixedWidthTypes.Time64ns,
	"tDs": arrow.FixedWidthTypes.Duration_s,
	"tDm": arrow.FixedWidthTypes.Duration_ms,
	"tDu": arrow.FixedWidthTypes.Duration_us,
	"tDn": arrow.FixedWidthTypes.Duration_ns,
}

var charToUnit = map[byte]arrow.TimeUnit{
	's': arrow.Second,
	'm': arrow.Millisecond,
	'u': arrow.Microsecond,
	'n': arrow.Nanosecond,
}

func importSchema(schema *CArrowSchema) (arrow.Field, error) {
	if schema == nil || SchemaIsReleased(schema) {
		return arrow.Field{}, fmt.Errorf("%w: schema descriptor is released", arrow.ErrFormat)
	}
	// always release, even on error
	defer ReleaseCArrowSchema(schema)
	return parseSchema(schema)
}

// parseSchema decodes schema and its children without releasing them.
func parseSchema(schema *CArrowSchema) (ret arrow.Field, err error) {
	var childFields []arrow.Field
	if children := schemaChildren(schema); len(children) > 0 {
		childFields = make([]arrow.Field, len(children))
		for i, c := range children {
			if childFields[i], err = parseSchema(c); err != nil {
				return
			}
		}
	}

	// the strings are copied, nothing keeps a reference to the descriptor
	ret.Name = C.GoString(schema.name)
	ret.Nullable = schema.flags&FlagNullable != 0

	f := C.GoString(schema.format)
	// handle our non-parameterized simple types.
	if dt, ok := formatToSimpleType[f]; ok {
		ret.Type = dt

		if schema.dictionary != nil {
			if !arrow.IsInteger(dt.ID()) {
				return ret, fmt.Errorf("%w: dictionary index format %q is not an integer", arrow.ErrFormat, f)
			}
			valueField, err := parseSchema(schema.dictionary)
			if err != nil {
				return ret, err
			}

			ret.Type = &arrow.DictionaryType{
				IndexType: dt,
				ValueType: valueField.Type,
				Ordered:   schema.flags&FlagDictionaryOrdered != 0,
			}
		}
		return
	}

	switch {
	case len(f) >= 4 && strings.HasPrefix(f, "ts") && f[3] == ':':
		unit, ok := charToUnit[f[2]]
		if !ok {
			return ret, fmt.Errorf("%w: invalid timestamp unit in %q", arrow.ErrFormat, f)
		}
		ret.Type = &arrow.TimestampType{Unit: unit, TimeZone: f[4:]}
	case f == "+s":
		ret.Type = arrow.StructOf(childFields...)
	default:
		return ret, fmt.Errorf("%w: unsupported format string %q", arrow.ErrFormat, f)
	}
	return
}

// importer to keep track when importing C ArrowArray objects.
type cimporter struct {
	dt    arrow.DataType
	arr   *CArrowArray
	alloc *importAllocator

	length, offset, nulls int64
	nbuffers, nchildren   int64

	cbuffers []unsafe.Pointer
	// base is the byte aligned element every imported buffer starts at,
	// residual the offset left on the imported data.
	base, residual int64
}

func importCArrayAsType(arr *CArrowArray, dt arrow.DataType) (*array.Data, error) {
	if arr == nil || ArrayIsReleased(arr) {
		return nil, fmt.Errorf("%w: array descriptor is released", arrow.ErrFormat)
	}

	// the descriptor is moved to C memory so the caller's copy can go away
	owned := (*CArrowArray)(C.calloc(1, C.sizeof_struct_ArrowArray))
	MoveCArrowArray(arr, owned)
	alloc := newImportAllocator(owned)
	defer alloc.done()

	imp := cimporter{dt: dt, arr: owned, alloc: alloc}
	return imp.doImport()
}

// doImport is called recursively for children and dictionaries. All of
// them share the allocator of the top level descriptor.
func (imp *cimporter) doImport() (*array.Data, error) {
	if imp.arr == nil || ArrayIsReleased(imp.arr) {
		return nil, fmt.Errorf("%w: array descriptor for %s is released", arrow.ErrFormat, imp.dt)
	}
	imp.length, imp.offset, imp.nulls = int64(imp.arr.length), int64(imp.arr.offset), int64(imp.arr.null_count)
	imp.nbuffers, imp.nchildren = int64(imp.arr.n_buffers), int64(imp.arr.n_children)
	if imp.length < 0 || imp.offset < 0 {
		return nil, fmt.Errorf("%w: negative length or offset for imported type %s", arrow.ErrFormat, imp.dt)
	}

	imp.cbuffers = arrayBuffers(imp.arr)
	imp.residual = imp.offset % 8
	imp.base = imp.offset - imp.residual

	switch dt := imp.dt.(type) {
	case *arrow.NullType:
		if err := imp.checkNoChildren(); err != nil {
			return nil, err
		}
		if imp.nbuffers > 1 {
			return nil, imp.checkNumBuffers(1)
		}
		return array.NewData(dt, int(imp.length), []*memory.Buffer{nil}, nil, int(imp.length), 0), nil
	case *arrow.BooleanType:
		return imp.importFixedSizePrimitive(0)
	case *arrow.StringType, *arrow.BinaryType:
		return imp.importStringLike()
	case *arrow.StructType:
		return imp.importStruct(dt)
	case *arrow.DictionaryType:
		return imp.importDictionary(dt)
	case arrow.FixedWidthDataType:
		return imp.importFixedSizePrimitive(int64(dt.BitWidth() / 8))
	}
	return nil, fmt.Errorf("%w: importing arrays of type %s", arrow.ErrNotImplemented, imp.dt)
}

func releaseBuffers(bufs ...*memory.Buffer) {
	for _, b := range bufs {
		if b != nil {
			b.Release()
		}
	}
}

func (imp *cimporter) nullCount() int {
	if imp.nulls < 0 {
		return array.UnknownNullCount
	}
	return int(imp.nulls)
}

func (imp *cimporter) importStringLike() (*array.Data, error) {
	if err := imp.checkNoChildren(); err != nil {
		return nil, err
	}
	if err := imp.checkNumBuffers(3); err != nil {
		return nil, err
	}

	nulls, err := imp.importNullBitmap(0)
	if err != nil {
		return nil, err
	}

	nelems := imp.residual + imp.length
	var offsets *memory.Buffer
	if imp.cbuffers[1] == nil && imp.length == 0 {
		offsets = memory.NewBufferBytes(make([]byte, arrow.Int32SizeBytes*(nelems+1)))
	} else if offsets, err = imp.importBuffer(1, imp.base*arrow.Int32SizeBytes, (nelems+1)*arrow.Int32SizeBytes); err != nil {
		releaseBuffers(nulls)
		return nil, err
	}

	typedOffsets := arrow.GetData[int32](offsets.Bytes())
	nvals := int64(typedOffsets[nelems])
	if nvals < 0 || typedOffsets[0] < 0 {
		releaseBuffers(nulls, offsets)
		return nil, fmt.Errorf("%w: negative value offsets for imported type %s", arrow.ErrFormat, imp.dt)
	}

	values, err := imp.importBuffer(2, 0, nvals)
	if err != nil {
		releaseBuffers(nulls, offsets)
		return nil, err
	}

	bufs := []*memory.Buffer{nulls, offsets, values}
	defer releaseBuffers(bufs...)
	return array.NewData(imp.dt, int(imp.length), bufs, nil, imp.nullCount(), int(imp.residual)), nil
}

// importFixedSizePrimitive imports a validity bitmap and a values buffer of
// byteWidth bytes per element, or of packed bits when byteWidth is 0.
func (imp *cimporter) importFixedSizePrimitive(byteWidth int64) (*array.Data, error) {
	bufs, err := imp.importValidityAndValues(byteWidth)
	if err != nil {
		return nil, err
	}
	defer releaseBuffers(bufs...)
	return array.NewData(imp.dt, int(imp.length), bufs, nil, imp.nullCount(), int(imp.residual)), nil
}

func (imp *cimporter) importValidityAndValues(byteWidth int64) ([]*memory.Buffer, error) {
	if err := imp.checkNoChildren(); err != nil {
		return nil, err
	}
	if err := imp.checkNumBuffers(2); err != nil {
		return nil, err
	}

	nulls, err := imp.importNullBitmap(0)
	if err != nil {
		return nil, err
	}

	var values *memory.Buffer
	if byteWidth == 0 {
		values, err = imp.importBitsBuffer(1)
	} else {
		values, err = imp.importBuffer(1, imp.base*byteWidth, (imp.residual+imp.length)*byteWidth)
	}
	if err != nil {
		releaseBuffers(nulls)
		return nil, err
	}
	return []*memory.Buffer{nulls, values}, nil
}

func (imp *cimporter) importDictionary(dt *arrow.DictionaryType) (*array.Data, error) {
	if imp.arr.dictionary == nil {
		return nil, fmt.Errorf("%w: missing dictionary for imported type %s", arrow.ErrFormat, dt)
	}

	bufs, err := imp.importValidityAndValues(int64(arrow.ByteWidth(dt.IndexType)))
	if err != nil {
		return nil, err
	}
	defer releaseBuffers(bufs...)

	dictImp := cimporter{dt: dt.ValueType, arr: imp.arr.dictionary, alloc: imp.alloc}
	dict, err := dictImp.doImport()
	if err != nil {
		return nil, err
	}
	defer dict.Release()

	return array.NewDataWithDictionary(dt, int(imp.length), bufs, imp.nullCount(), int(imp.residual), dict), nil
}

func (imp *cimporter) importStruct(dt *arrow.StructType) (*array.Data, error) {
	if err := imp.checkNumChildren(int64(dt.NumFields())); err != nil {
		return nil, err
	}
	if err := imp.checkNumBuffers(1); err != nil {
		return nil, err
	}

	nulls, err := imp.importNullBitmap(0)
	if err != nil {
		return nil, err
	}
	defer releaseBuffers(nulls)

	// the parent offset applies to every child, so the children are
	// windowed to the rows this struct addresses.
	end := imp.offset + imp.length
	children := make([]arrow.ArrayData, 0, dt.NumFields())
	defer func() {
		for _, c := range children {
			c.Release()
		}
	}()

	for i, c := range arrayChildren(imp.arr) {
		childImp := cimporter{dt: dt.Field(i).Type, arr: c, alloc: imp.alloc}
		cd, err := childImp.doImport()
		if err != nil {
			return nil, xerrors.Errorf("struct field %d: %w", i, err)
		}
		if int64(cd.Len()) < end {
			cd.Release()
			return nil, fmt.Errorf("%w: struct field %d has %d elements, parent needs %d", arrow.ErrFormat, i, cd.Len(), end)
		}
		children = append(children, array.NewSliceData(cd, imp.base, end))
		cd.Release()
	}

	return array.NewData(dt, int(imp.length), []*memory.Buffer{nulls}, children, imp.nullCount(), int(imp.residual)), nil
}

func (imp *cimporter) checkNoChildren() error { return imp.checkNumChildren(0) }

func (imp *cimporter) checkNumChildren(n int64) error {
	if imp.nchildren != n {
		return fmt.Errorf("%w: expected %d children for imported type %s, ArrowArray has %d", arrow.ErrFormat, n, imp.dt, imp.nchildren)
	}
	if n > 0 && imp.arr.children == nil {
		return fmt.Errorf("%w: missing children for imported type %s", arrow.ErrFormat, imp.dt)
	}
	return nil
}

func (imp *cimporter) checkNumBuffers(n int64) error {
	if imp.nbuffers != n || int64(len(imp.cbuffers)) != n {
		return fmt.Errorf("%w: expected %d buffers for imported type %s, ArrowArray has %d", arrow.ErrFormat, n, imp.dt, imp.nbuffers)
	}
	return nil
}

// importBuffer wraps size bytes starting at byte start of buffer slot
// bufferID. This is not a copy: the bytes stay owned by the producer.
func (imp *cimporter) importBuffer(bufferID int, start, size int64) (*memory.Buffer, error) {
	ptr := imp.cbuffers[bufferID]
	if ptr == nil {
		if size != 0 {
			return nil, fmt.Errorf("%w: missing buffer %d for imported type %s", arrow.ErrFormat, bufferID, imp.dt)
		}
		return memory.NewBufferBytes([]byte{}), nil
	}

	data := unsafe.Slice((*byte)(ptr), start+size)[start:]
	imp.alloc.addBuffer()
	return memory.NewBufferWithAllocator(data, imp.alloc), nil
}

func (imp *cimporter) importBitsBuffer(bufferID int) (*memory.Buffer, error) {
	return imp.importBuffer(bufferID, imp.base/8, bitutil.BytesForBits(imp.residual+imp.length))
}

func (imp *cimporter) importNullBitmap(bufferID int) (*memory.Buffer, error) {
	if imp.cbuffers[bufferID] == nil {
		if imp.nulls > 0 {
			return nil, fmt.Errorf("%w: ArrowArray has no validity buffer but a null count of %d", arrow.ErrFormat, imp.nulls)
		}
		return nil, nil
	}

	return imp.importBitsBuffer(bufferID)
}
