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
	"fmt"
	"reflect"
	"strconv"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/goccy/go-json"
)

// Numeric is an immutable sequence of fixed width values. The same Go
// instantiation backs every logical type with that physical width, so an
// int64 array may carry a timestamp, duration, date64 or time64 type.
type Numeric[T arrow.NumericType] struct {
	array
	values []T
}

type (
	Int8    = Numeric[int8]
	Int16   = Numeric[int16]
	Int32   = Numeric[int32]
	Int64   = Numeric[int64]
	Uint8   = Numeric[uint8]
	Uint16  = Numeric[uint16]
	Uint32  = Numeric[uint32]
	Uint64  = Numeric[uint64]
	Float32 = Numeric[float32]
	Float64 = Numeric[float64]
)

// NewNumericData constructs a new Numeric array from data.
func NewNumericData[T arrow.NumericType](data arrow.ArrayData) *Numeric[T] {
	a := &Numeric[T]{}
	a.refCount = 1
	a.setData(data.(*Data))
	return a
}

func NewInt8Data(data arrow.ArrayData) *Int8       { return NewNumericData[int8](data) }
func NewInt16Data(data arrow.ArrayData) *Int16     { return NewNumericData[int16](data) }
func NewInt32Data(data arrow.ArrayData) *Int32     { return NewNumericData[int32](data) }
func NewInt64Data(data arrow.ArrayData) *Int64     { return NewNumericData[int64](data) }
func NewUint8Data(data arrow.ArrayData) *Uint8     { return NewNumericData[uint8](data) }
func NewUint16Data(data arrow.ArrayData) *Uint16   { return NewNumericData[uint16](data) }
func NewUint32Data(data arrow.ArrayData) *Uint32   { return NewNumericData[uint32](data) }
func NewUint64Data(data arrow.ArrayData) *Uint64   { return NewNumericData[uint64](data) }
func NewFloat32Data(data arrow.ArrayData) *Float32 { return NewNumericData[float32](data) }
func NewFloat64Data(data arrow.ArrayData) *Float64 { return NewNumericData[float64](data) }

// Value returns the value at the specified index.
func (a *Numeric[T]) Value(i int) T { return a.values[i] }

// Values returns the values, starting at the array offset.
func (a *Numeric[T]) Values() []T { return a.values }

func (a *Numeric[T]) setData(data *Data) {
	a.array.setData(data)
	a.values = nil
	if vals := data.buffers[1]; vals != nil {
		all := arrow.GetData[T](vals.Bytes())
		a.values = all[data.offset : data.offset+data.length]
	}
}

func (a *Numeric[T]) ValueStr(i int) string {
	if a.IsNull(i) {
		return arrow.NullValueStr
	}
	return formatNumber(a.values[i])
}

func (a *Numeric[T]) String() string { return formatArray(a) }

func (a *Numeric[T]) GetOneForMarshal(i int) interface{} {
	if a.IsNull(i) {
		return nil
	}
	return a.values[i]
}

func (a *Numeric[T]) MarshalJSON() ([]byte, error) { return marshalArray(a) }

func formatNumber[T arrow.NumericType](v T) string {
	switch v := any(v).(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case int8, int16, int32, int64:
		return strconv.FormatInt(reflect.ValueOf(v).Int(), 10)
	default:
		return strconv.FormatUint(reflect.ValueOf(v).Uint(), 10)
	}
}

// NumericBuilder builds a Numeric array of a given fixed width type.
type NumericBuilder[T arrow.NumericType] struct {
	builder

	dtype   arrow.DataType
	data    *memory.Buffer
	rawData []T
}

func NewNumericBuilder[T arrow.NumericType](mem memory.Allocator, dtype arrow.DataType) *NumericBuilder[T] {
	return &NumericBuilder[T]{builder: builder{refCount: 1, mem: mem}, dtype: dtype}
}

func (b *NumericBuilder[T]) Type() arrow.DataType { return b.dtype }

// Release decreases the reference count by 1.
// When the reference count goes to zero, the memory is freed.
func (b *NumericBuilder[T]) Release() {
	if b.checkRelease() {
		b.releaseBitmap()
		if b.data != nil {
			b.data.Release()
			b.data, b.rawData = nil, nil
		}
	}
}

func (b *NumericBuilder[T]) Append(v T) {
	b.Reserve(1)
	b.UnsafeAppend(v)
}

func (b *NumericBuilder[T]) UnsafeAppend(v T) {
	bitutil.SetBit(b.nullBitmap.Bytes(), b.length)
	b.rawData[b.length] = v
	b.length++
}

func (b *NumericBuilder[T]) AppendNull() {
	b.Reserve(1)
	b.UnsafeAppendBoolToBitmap(false)
}

func (b *NumericBuilder[T]) AppendNulls(n int) {
	for i := 0; i < n; i++ {
		b.AppendNull()
	}
}

func (b *NumericBuilder[T]) AppendEmptyValue() { b.Append(0) }

func (b *NumericBuilder[T]) UnsafeAppendBoolToBitmap(isValid bool) {
	if !isValid {
		b.rawData[b.length] = 0
	}
	b.unsafeAppendBoolToBitmap(isValid)
}

// AppendValues will append the values in the v slice. The valid slice
// determines which values in v are valid (not null). The valid slice must
// either be empty or be equal in length to v. If empty,
// all values in v are appended and considered valid.
func (b *NumericBuilder[T]) AppendValues(v []T, valid []bool) {
	if len(v) != len(valid) && len(valid) != 0 {
		panic("len(v) != len(valid) && len(valid) != 0")
	}

	if len(v) == 0 {
		return
	}

	b.Reserve(len(v))
	copy(b.rawData[b.length:], v)
	b.unsafeAppendBoolsToBitmap(valid, len(v))
}

func (b *NumericBuilder[T]) init(capacity int) {
	b.builder.init(capacity)

	b.data = memory.NewResizableBuffer(b.mem)
	b.data.Resize(capacity * arrow.SizeOf[T]())
	b.rawData = arrow.GetData[T](b.data.Bytes())
}

// Reserve ensures there is enough space for appending n elements
// by checking the capacity and calling Resize if necessary.
func (b *NumericBuilder[T]) Reserve(n int) {
	b.builder.reserve(n, b.Resize)
}

// Resize adjusts the space allocated by b to n elements. If n is greater than b.Cap(),
// additional memory will be allocated. If n is smaller, the allocated memory may reduced.
func (b *NumericBuilder[T]) Resize(n int) {
	nBuilder := n
	if n < minBuilderCapacity {
		n = minBuilderCapacity
	}

	if b.capacity == 0 {
		b.init(n)
	} else {
		b.builder.resize(nBuilder, b.init)
		b.data.Resize(n * arrow.SizeOf[T]())
		b.rawData = arrow.GetData[T](b.data.Bytes())
	}
}

// NewArray creates a Numeric array from the memory buffers used by the
// builder and resets the builder so it can be used to build a new array.
func (b *NumericBuilder[T]) NewArray() arrow.Array {
	return b.NewNumericArray()
}

func (b *NumericBuilder[T]) NewNumericArray() (a *Numeric[T]) {
	data := b.newData()
	a = NewNumericData[T](data)
	data.Release()
	return
}

func (b *NumericBuilder[T]) newData() (data *Data) {
	bytesRequired := b.length * arrow.SizeOf[T]()
	if bytesRequired > 0 && bytesRequired < b.data.Len() {
		// trim buffers
		b.data.Resize(bytesRequired)
	}
	validity := b.takeValidity()
	data = NewData(b.dtype, b.length, []*memory.Buffer{validity, b.data}, nil, b.nulls, 0)
	if validity != nil {
		validity.Release()
	}
	b.reset()

	if b.data != nil {
		b.data.Release()
		b.data = nil
		b.rawData = nil
	}

	return
}

func (b *NumericBuilder[T]) UnmarshalOne(dec *json.Decoder) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}

	switch v := t.(type) {
	case nil:
		b.AppendNull()
		return nil
	case json.Number:
		return b.appendParsed(v.String(), dec)
	case string:
		return b.appendParsed(v, dec)
	case float64:
		return b.appendParsed(strconv.FormatFloat(v, 'g', -1, 64), dec)
	}
	return &json.UnmarshalTypeError{
		Value:  fmt.Sprint(t),
		Type:   reflect.TypeOf(T(0)),
		Offset: dec.InputOffset(),
	}
}

func (b *NumericBuilder[T]) appendParsed(s string, dec *json.Decoder) error {
	v, err := parseNumber[T](s)
	if err != nil {
		return &json.UnmarshalTypeError{
			Value:  s,
			Type:   reflect.TypeOf(T(0)),
			Offset: dec.InputOffset(),
		}
	}
	b.Append(v)
	return nil
}

func parseNumber[T arrow.NumericType](s string) (T, error) {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		f, err := strconv.ParseFloat(s, arrow.SizeOf[T]()*8)
		return T(f), err
	case int8, int16, int32, int64:
		v, err := strconv.ParseInt(s, 10, arrow.SizeOf[T]()*8)
		return T(v), err
	default:
		v, err := strconv.ParseUint(s, 10, arrow.SizeOf[T]()*8)
		return T(v), err
	}
}

func (b *NumericBuilder[T]) Unmarshal(dec *json.Decoder) error {
	for dec.More() {
		if err := b.UnmarshalOne(dec); err != nil {
			return err
		}
	}
	return nil
}

func (b *NumericBuilder[T]) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytesReader(data))
	dec.UseNumber()
	t, err := dec.Token()
	if err != nil {
		return err
	}

	if delim, ok := t.(json.Delim); !ok || delim != '[' {
		return fmt.Errorf("numeric builder must unpack from json array, found %s", delim)
	}

	return b.Unmarshal(dec)
}

var (
	_ arrow.Array = (*Int64)(nil)
	_ Builder     = (*NumericBuilder[int64])(nil)
)
