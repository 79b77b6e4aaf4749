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

package array

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math"
	"reflect"
	"sync/atomic"
	"unsafe"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/ferrow-io/ferrow/internal/hashing"
	"github.com/goccy/go-json"
	"golang.org/x/xerrors"
)

// Dictionary represents the type for dictionary-encoded data with a data
// dependent dictionary.
//
// A dictionary array contains an array of non-negative integers (the
// "dictionary indices") along with a data type containing a "dictionary"
// corresponding to the distinct values represented in the data.
//
// For example, the array:
//
//	["foo", "bar", "foo", "bar", "foo", "bar"]
//
// with dictionary ["bar", "foo"], would have the representation of:
//
//	indices: [1, 0, 1, 0, 1, 0]
//	dictionary: ["bar", "foo"]
//
// The indices in principle may be any integer type.
type Dictionary struct {
	array

	indices arrow.Array
	dict    arrow.Array
}

// NewDictionaryArray constructs a dictionary array with the provided indices
// and dictionary using the given type. It panics if the types do not
// agree; use NewValidatedDictionaryArray to get an error instead.
func NewDictionaryArray(typ arrow.DataType, indices, dict arrow.Array) *Dictionary {
	a := &Dictionary{}
	a.array.refCount = 1
	dictdata := NewData(typ, indices.Len(), indices.Data().Buffers(), nil, indices.NullN(), indices.Offset())
	dictdata.dictionary = dict.Data().(*Data)
	dict.Data().Retain()

	defer dictdata.Release()
	a.setData(dictdata)
	return a
}

// checkIndexBounds returns an error if any value in the provided integer
// arraydata is >= the passed upperlimit or < 0. otherwise nil
func checkIndexBounds(indices *Data, upperlimit uint64) error {
	if indices.length == 0 {
		return nil
	}

	arr := MakeFromData(indices)
	defer arr.Release()

	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		v, ok := IntegerValue(arr, i)
		if !ok {
			return fmt.Errorf("%w: index type must be an integer, got %s", arrow.ErrType, arr.DataType())
		}
		if v < 0 || uint64(v) >= upperlimit {
			return fmt.Errorf("%w: index %d out of bounds for dictionary of length %d", arrow.ErrIndex, v, upperlimit)
		}
	}
	return nil
}

// NewValidatedDictionaryArray constructs a dictionary array from the provided indices
// and dictionary arrays, while also performing validation checks to ensure correctness
// such as bounds checking at are usually skipped for performance.
func NewValidatedDictionaryArray(typ *arrow.DictionaryType, indices, dict arrow.Array) (*Dictionary, error) {
	if indices.DataType().ID() != typ.IndexType.ID() {
		return nil, fmt.Errorf("%w: dictionary type index (%T) does not match indices array type (%T)", arrow.ErrType, typ.IndexType, indices.DataType())
	}

	if !arrow.TypeEqual(typ.ValueType, dict.DataType()) {
		return nil, fmt.Errorf("%w: dictionary value type (%T) does not match dict array type (%T)", arrow.ErrType, typ.ValueType, dict.DataType())
	}

	if err := checkIndexBounds(indices.Data().(*Data), uint64(dict.Len())); err != nil {
		return nil, err
	}

	return NewDictionaryArray(typ, indices, dict), nil
}

// NewDictionaryData creates a strongly typed Dictionary array from
// an ArrayData object with a datatype of arrow.Dictionary and a dictionary
func NewDictionaryData(data arrow.ArrayData) *Dictionary {
	a := &Dictionary{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func (d *Dictionary) Retain() {
	d.array.Retain()
}

func (d *Dictionary) Release() {
	if atomic.LoadInt64(&d.array.refCount) == 1 {
		d.indices.Release()
		if d.dict != nil {
			d.dict.Release()
			d.dict = nil
		}
	}
	d.array.Release()
}

func (d *Dictionary) setData(data *Data) {
	if data.dictionary == nil {
		panic("arrow/array: no dictionary set in Data for Dictionary array")
	}
	d.array.setData(data)

	dictType := data.dtype.(*arrow.DictionaryType)
	if !arrow.TypeEqual(dictType.ValueType, data.dictionary.DataType()) {
		panic(fmt.Errorf("arrow/array: mismatched dictionary value types, type: %s, dictionary: %s", dictType.ValueType, data.dictionary.DataType()))
	}

	indexData := NewData(dictType.IndexType, data.length, data.buffers, data.childData, int(atomic.LoadInt64(&data.nulls)), data.offset)
	defer indexData.Release()
	d.indices = MakeFromData(indexData)
	d.dict = MakeFromData(data.dictionary)
}

// Dictionary returns the values array that makes up the dictionary for this
// array.
func (d *Dictionary) Dictionary() arrow.Array { return d.dict }

// Indices returns the underlying array of indices as it's own array
func (d *Dictionary) Indices() arrow.Array { return d.indices }

// CanCompareIndices returns true if the dictionary arrays can be compared
// without having to unify the dictionaries themselves first.
// This means that the index types are equal too.
func (d *Dictionary) CanCompareIndices(other *Dictionary) bool {
	if !arrow.TypeEqual(d.indices.DataType(), other.indices.DataType()) {
		return false
	}
	return Equal(d.dict, other.dict)
}

// GetValueIndex returns the dictionary index for the value at index i of the array.
// The actual value can be retrieved by using d.Dictionary().(valuetype).Value(d.GetValueIndex(i))
func (d *Dictionary) GetValueIndex(i int) int {
	v, ok := IntegerValue(d.indices, i)
	if !ok {
		panic("arrow/array: invalid dictionary index type")
	}
	return int(v)
}

func (d *Dictionary) ValueStr(i int) string {
	if d.IsNull(i) {
		return arrow.NullValueStr
	}
	return d.dict.ValueStr(d.GetValueIndex(i))
}

func (d *Dictionary) String() string {
	return fmt.Sprintf("{ dictionary: %v\n  indices: %v }", d.dict, d.Indices())
}

func (d *Dictionary) GetOneForMarshal(i int) interface{} {
	if d.IsNull(i) {
		return nil
	}
	vidx := d.GetValueIndex(i)
	return d.dict.GetOneForMarshal(vidx)
}

func (d *Dictionary) MarshalJSON() ([]byte, error) {
	vals := make([]interface{}, d.Len())
	for i := 0; i < d.Len(); i++ {
		vals[i] = d.GetOneForMarshal(i)
	}
	return json.Marshal(vals)
}

// IntegerValue returns element i of an integer array widened to int64.
// It reports false when arr does not hold integers.
func IntegerValue(arr arrow.Array, i int) (int64, bool) {
	switch a := arr.(type) {
	case *Int8:
		return int64(a.Value(i)), true
	case *Uint8:
		return int64(a.Value(i)), true
	case *Int16:
		return int64(a.Value(i)), true
	case *Uint16:
		return int64(a.Value(i)), true
	case *Int32:
		return int64(a.Value(i)), true
	case *Uint32:
		return int64(a.Value(i)), true
	case *Int64:
		return a.Value(i), true
	case *Uint64:
		return int64(a.Value(i)), true
	}
	return 0, false
}

// MaxIndex returns the largest dictionary index an integer type can hold.
func MaxIndex(dt arrow.DataType) (int64, error) {
	switch dt.ID() {
	case arrow.INT8:
		return math.MaxInt8, nil
	case arrow.UINT8:
		return math.MaxUint8, nil
	case arrow.INT16:
		return math.MaxInt16, nil
	case arrow.UINT16:
		return math.MaxUint16, nil
	case arrow.INT32:
		return math.MaxInt32, nil
	case arrow.UINT32:
		return math.MaxUint32, nil
	case arrow.INT64, arrow.UINT64:
		return math.MaxInt64, nil
	}
	return 0, fmt.Errorf("%w: dictionary index type must be an integer, got %s", arrow.ErrType, dt)
}

// dictMemo deduplicates dictionary values of one value type.
type dictMemo interface {
	// insertFrom adds element i of arr, which must hold the value type.
	insertFrom(arr arrow.Array, i int, limit int64) (int, error)
	insertValue(v interface{}, limit int64) (int, error)
	insertZero(limit int64) (int, error)
	size() int
	newDictionary(mem memory.Allocator, dt arrow.DataType) *Data
}

func keyOverflow(limit int64) error {
	return fmt.Errorf("%w: index type cannot address more than %d entries", arrow.ErrKeyOverflow, limit+1)
}

type scalarDictMemo[T hashing.Hashable] struct {
	tbl *hashing.ScalarMemoTable[T]
}

func (m *scalarDictMemo[T]) insert(v T, limit int64) (int, error) {
	if int64(m.tbl.Size()) > limit {
		if idx, ok := m.tbl.Get(v); ok {
			return idx, nil
		}
		return 0, keyOverflow(limit)
	}
	idx, _ := m.tbl.GetOrInsert(v)
	return idx, nil
}

func (m *scalarDictMemo[T]) insertFrom(arr arrow.Array, i int, limit int64) (int, error) {
	return m.insert(arr.(*Numeric[T]).Value(i), limit)
}

func (m *scalarDictMemo[T]) insertValue(v interface{}, limit int64) (int, error) {
	switch v := v.(type) {
	case T:
		return m.insert(v, limit)
	case json.Number:
		parsed, err := parseNumber[T](v.String())
		if err != nil {
			return 0, err
		}
		return m.insert(parsed, limit)
	}
	return 0, fmt.Errorf("%w: cannot append %T to dictionary of %T", arrow.ErrType, v, T(0))
}

func (m *scalarDictMemo[T]) insertZero(limit int64) (int, error) { return m.insert(0, limit) }

func (m *scalarDictMemo[T]) size() int { return m.tbl.Size() }

func (m *scalarDictMemo[T]) newDictionary(mem memory.Allocator, dt arrow.DataType) *Data {
	values := m.tbl.Values()
	buf := memory.NewResizableBuffer(mem)
	buf.Resize(len(values) * arrow.SizeOf[T]())
	copy(arrow.GetData[T](buf.Bytes()), values)
	defer buf.Release()
	return NewData(dt, len(values), []*memory.Buffer{nil, buf}, nil, 0, 0)
}

type binaryDictMemo struct {
	tbl  *hashing.BinaryMemoTable
	utf8 bool
}

func (m *binaryDictMemo) insert(v []byte, limit int64) (int, error) {
	if int64(m.tbl.Size()) > limit {
		if idx, ok := m.tbl.Get(v); ok {
			return idx, nil
		}
		return 0, keyOverflow(limit)
	}
	idx, _ := m.tbl.GetOrInsert(v)
	return idx, nil
}

func (m *binaryDictMemo) insertFrom(arr arrow.Array, i int, limit int64) (int, error) {
	switch a := arr.(type) {
	case *String:
		return m.insert(a.Binary.Value(i), limit)
	case *Binary:
		return m.insert(a.Value(i), limit)
	}
	return 0, fmt.Errorf("%w: expected binary values, got %s", arrow.ErrType, arr.DataType())
}

func (m *binaryDictMemo) insertValue(v interface{}, limit int64) (int, error) {
	switch v := v.(type) {
	case []byte:
		return m.insert(v, limit)
	case string:
		if m.utf8 {
			return m.insert(unsafe.Slice(unsafe.StringData(v), len(v)), limit)
		}
		data, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return 0, err
		}
		return m.insert(data, limit)
	}
	return 0, fmt.Errorf("%w: cannot append %T to a binary dictionary", arrow.ErrType, v)
}

func (m *binaryDictMemo) insertZero(limit int64) (int, error) { return m.insert([]byte{}, limit) }

func (m *binaryDictMemo) size() int { return m.tbl.Size() }

func (m *binaryDictMemo) newDictionary(mem memory.Allocator, dt arrow.DataType) *Data {
	offsets := memory.NewResizableBuffer(mem)
	offsets.Resize(len(m.tbl.Offsets()) * arrow.Int32SizeBytes)
	copy(arrow.GetData[int32](offsets.Bytes()), m.tbl.Offsets())
	defer offsets.Release()

	values := memory.NewResizableBuffer(mem)
	values.Resize(m.tbl.ValuesSize())
	copy(values.Bytes(), m.tbl.ValuesData())
	defer values.Release()

	return NewData(dt, m.tbl.Size(), []*memory.Buffer{nil, offsets, values}, nil, 0, 0)
}

func newDictMemo(dt arrow.DataType) (dictMemo, error) {
	switch dt.ID() {
	case arrow.INT8:
		return &scalarDictMemo[int8]{hashing.NewScalarMemoTable[int8](0)}, nil
	case arrow.UINT8:
		return &scalarDictMemo[uint8]{hashing.NewScalarMemoTable[uint8](0)}, nil
	case arrow.INT16:
		return &scalarDictMemo[int16]{hashing.NewScalarMemoTable[int16](0)}, nil
	case arrow.UINT16:
		return &scalarDictMemo[uint16]{hashing.NewScalarMemoTable[uint16](0)}, nil
	case arrow.INT32, arrow.DATE32, arrow.TIME32:
		return &scalarDictMemo[int32]{hashing.NewScalarMemoTable[int32](0)}, nil
	case arrow.UINT32:
		return &scalarDictMemo[uint32]{hashing.NewScalarMemoTable[uint32](0)}, nil
	case arrow.INT64, arrow.DATE64, arrow.TIME64, arrow.TIMESTAMP, arrow.DURATION:
		return &scalarDictMemo[int64]{hashing.NewScalarMemoTable[int64](0)}, nil
	case arrow.UINT64:
		return &scalarDictMemo[uint64]{hashing.NewScalarMemoTable[uint64](0)}, nil
	case arrow.FLOAT32:
		return &scalarDictMemo[float32]{hashing.NewScalarMemoTable[float32](0)}, nil
	case arrow.FLOAT64:
		return &scalarDictMemo[float64]{hashing.NewScalarMemoTable[float64](0)}, nil
	case arrow.STRING, arrow.BINARY:
		return &binaryDictMemo{tbl: hashing.NewBinaryMemoTable(0, 0), utf8: dt.ID() == arrow.STRING}, nil
	}
	return nil, fmt.Errorf("%w: dictionary of %s", arrow.ErrNotImplemented, dt)
}

// DictionaryBuilder encodes values into a dictionary as they are appended.
// The first occurrence of a value gets the next free index. Appending a
// new value when the index type cannot address it fails with
// arrow.ErrKeyOverflow.
type DictionaryBuilder struct {
	builder

	dt      *arrow.DictionaryType
	idxBldr Builder
	memo    dictMemo
	limit   int64
}

// NewDictionaryBuilder returns a builder for dt. It panics when the index
// type is not an integer or no memo table exists for the value type; use
// NewDictionaryBuilderWithType to get an error.
func NewDictionaryBuilder(mem memory.Allocator, dt *arrow.DictionaryType) *DictionaryBuilder {
	b, err := NewDictionaryBuilderWithType(mem, dt)
	if err != nil {
		panic(err)
	}
	return b
}

func NewDictionaryBuilderWithType(mem memory.Allocator, dt *arrow.DictionaryType) (*DictionaryBuilder, error) {
	limit, err := MaxIndex(dt.IndexType)
	if err != nil {
		return nil, err
	}
	memo, err := newDictMemo(dt.ValueType)
	if err != nil {
		return nil, err
	}
	return &DictionaryBuilder{
		builder: builder{refCount: 1, mem: mem},
		dt:      dt,
		idxBldr: NewBuilder(mem, dt.IndexType),
		memo:    memo,
		limit:   limit,
	}, nil
}

func (b *DictionaryBuilder) Type() arrow.DataType { return b.dt }

func (b *DictionaryBuilder) Release() {
	if b.checkRelease() {
		b.idxBldr.Release()
		b.idxBldr, b.memo = nil, nil
	}
}

func (b *DictionaryBuilder) Len() int   { return b.idxBldr.Len() }
func (b *DictionaryBuilder) Cap() int   { return b.idxBldr.Cap() }
func (b *DictionaryBuilder) NullN() int { return b.idxBldr.NullN() }

// DictionarySize returns the number of distinct values seen so far.
func (b *DictionaryBuilder) DictionarySize() int { return b.memo.size() }

func (b *DictionaryBuilder) AppendNull() { b.idxBldr.AppendNull() }

func (b *DictionaryBuilder) AppendNulls(n int) { b.idxBldr.AppendNulls(n) }

func (b *DictionaryBuilder) AppendEmptyValue() {
	idx, err := b.memo.insertZero(b.limit)
	if err != nil {
		panic(err)
	}
	appendIndex(b.idxBldr, idx)
}

func (b *DictionaryBuilder) Reserve(n int) { b.idxBldr.Reserve(n) }
func (b *DictionaryBuilder) Resize(n int)  { b.idxBldr.Resize(n) }

// Append adds v, which must be the Go value of the value type: a numeric
// value of the matching width, a string or a []byte.
func (b *DictionaryBuilder) Append(v interface{}) error {
	idx, err := b.memo.insertValue(v, b.limit)
	if err != nil {
		return err
	}
	appendIndex(b.idxBldr, idx)
	return nil
}

// AppendArray encodes every element of arr, which must hold the value
// type. Nulls become null indices.
func (b *DictionaryBuilder) AppendArray(arr arrow.Array) error {
	if !arrow.TypeEqual(arr.DataType(), b.dt.ValueType) {
		return fmt.Errorf("%w: cannot append %s values to %s", arrow.ErrType, arr.DataType(), b.dt)
	}
	b.idxBldr.Reserve(arr.Len())
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			b.idxBldr.AppendNull()
			continue
		}
		idx, err := b.memo.insertFrom(arr, i, b.limit)
		if err != nil {
			return err
		}
		appendIndex(b.idxBldr, idx)
	}
	return nil
}

func appendIndex(bldr Builder, idx int) {
	switch bldr := bldr.(type) {
	case *NumericBuilder[int8]:
		bldr.Append(int8(idx))
	case *NumericBuilder[uint8]:
		bldr.Append(uint8(idx))
	case *NumericBuilder[int16]:
		bldr.Append(int16(idx))
	case *NumericBuilder[uint16]:
		bldr.Append(uint16(idx))
	case *NumericBuilder[int32]:
		bldr.Append(int32(idx))
	case *NumericBuilder[uint32]:
		bldr.Append(uint32(idx))
	case *NumericBuilder[int64]:
		bldr.Append(int64(idx))
	case *NumericBuilder[uint64]:
		bldr.Append(uint64(idx))
	default:
		panic(fmt.Errorf("arrow/array: invalid index builder %T", bldr))
	}
}

// NewArray creates a Dictionary array from the indices appended so far
// and the distinct values seen. The memo is kept so later arrays share
// index assignments.
func (b *DictionaryBuilder) NewArray() arrow.Array {
	return b.NewDictionaryArray()
}

func (b *DictionaryBuilder) NewDictionaryArray() *Dictionary {
	indices := b.idxBldr.NewArray()
	defer indices.Release()

	dictData := b.memo.newDictionary(b.mem, b.dt.ValueType)
	defer dictData.Release()

	data := NewDataWithDictionary(b.dt, indices.Len(), indices.Data().Buffers(), indices.NullN(), 0, dictData)
	defer data.Release()
	return NewDictionaryData(data)
}

func (b *DictionaryBuilder) UnmarshalOne(dec *json.Decoder) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}

	if t == nil {
		b.AppendNull()
		return nil
	}
	if f, ok := t.(float64); ok {
		t = json.Number(fmt.Sprint(f))
	}
	if err := b.Append(t); err != nil {
		return &json.UnmarshalTypeError{
			Value:  fmt.Sprint(t),
			Type:   reflect.TypeOf(t),
			Offset: dec.InputOffset(),
			Struct: b.dt.String(),
		}
	}
	return nil
}

func (b *DictionaryBuilder) Unmarshal(dec *json.Decoder) error {
	for dec.More() {
		if err := b.UnmarshalOne(dec); err != nil {
			return err
		}
	}
	return nil
}

func (b *DictionaryBuilder) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	t, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := t.(json.Delim); !ok || delim != '[' {
		return xerrors.Errorf("dictionary builder must unpack from json array, found %s", delim)
	}
	return b.Unmarshal(dec)
}

var (
	_ arrow.Array = (*Dictionary)(nil)
	_ Builder     = (*DictionaryBuilder)(nil)
)
