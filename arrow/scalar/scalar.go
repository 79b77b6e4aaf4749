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

// Package scalar holds single typed values, used as the right-hand operand
// of array/scalar kernels and as the element accessor of arrays.
package scalar

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
)

// Scalar is a single value of a data type together with its validity.
type Scalar interface {
	fmt.Stringer
	// DataType returns the logical type of the value.
	DataType() arrow.DataType
	// IsValid reports whether the scalar holds a value.
	IsValid() bool
	// Validate checks the scalar is internally consistent.
	Validate() error

	value() interface{}
	equals(Scalar) bool
}

type scalar struct {
	Type  arrow.DataType
	Valid bool
}

func (s *scalar) DataType() arrow.DataType { return s.Type }
func (s *scalar) IsValid() bool            { return s.Valid }

func (s *scalar) Validate() error {
	if s.Type == nil {
		return fmt.Errorf("%w: scalar lacks a type", arrow.ErrInvalid)
	}
	return nil
}

// Null is the only scalar of the null type; it is never valid.
type Null struct {
	scalar
}

// ScalarNull is the shared null-typed scalar.
var ScalarNull = &Null{scalar{Type: arrow.Null, Valid: false}}

func (*Null) value() interface{} { return nil }
func (*Null) equals(Scalar) bool { return true }
func (*Null) String() string     { return "null" }
func (n *Null) Validate() error {
	if n.Valid {
		return fmt.Errorf("%w: null scalar should have Valid = false", arrow.ErrInvalid)
	}
	return nil
}

type Boolean struct {
	scalar
	Value bool
}

func NewBooleanScalar(val bool) *Boolean {
	return &Boolean{scalar{arrow.FixedWidthTypes.Boolean, true}, val}
}

func (b *Boolean) value() interface{} { return b.Value }
func (b *Boolean) equals(rhs Scalar) bool {
	return b.Value == rhs.(*Boolean).Value
}

func (b *Boolean) String() string {
	if !b.Valid {
		return "null"
	}
	return strconv.FormatBool(b.Value)
}

// Primitive is a fixed width numeric or temporal value. Temporal types
// store their integer representation: Date32 and Time32 use int32, the
// other temporal types int64.
type Primitive[T arrow.NumericType] struct {
	scalar
	Value T
}

type (
	Int8    = Primitive[int8]
	Int16   = Primitive[int16]
	Int32   = Primitive[int32]
	Int64   = Primitive[int64]
	Uint8   = Primitive[uint8]
	Uint16  = Primitive[uint16]
	Uint32  = Primitive[uint32]
	Uint64  = Primitive[uint64]
	Float32 = Primitive[float32]
	Float64 = Primitive[float64]
)

// NewPrimitive returns a valid scalar of dt holding v. The width of T must
// match the width of dt.
func NewPrimitive[T arrow.NumericType](v T, dt arrow.DataType) *Primitive[T] {
	return &Primitive[T]{scalar{dt, true}, v}
}

func NewInt8Scalar(v int8) *Int8          { return NewPrimitive(v, arrow.PrimitiveTypes.Int8) }
func NewInt16Scalar(v int16) *Int16       { return NewPrimitive(v, arrow.PrimitiveTypes.Int16) }
func NewInt32Scalar(v int32) *Int32       { return NewPrimitive(v, arrow.PrimitiveTypes.Int32) }
func NewInt64Scalar(v int64) *Int64       { return NewPrimitive(v, arrow.PrimitiveTypes.Int64) }
func NewUint8Scalar(v uint8) *Uint8       { return NewPrimitive(v, arrow.PrimitiveTypes.Uint8) }
func NewUint16Scalar(v uint16) *Uint16    { return NewPrimitive(v, arrow.PrimitiveTypes.Uint16) }
func NewUint32Scalar(v uint32) *Uint32    { return NewPrimitive(v, arrow.PrimitiveTypes.Uint32) }
func NewUint64Scalar(v uint64) *Uint64    { return NewPrimitive(v, arrow.PrimitiveTypes.Uint64) }
func NewFloat32Scalar(v float32) *Float32 { return NewPrimitive(v, arrow.PrimitiveTypes.Float32) }
func NewFloat64Scalar(v float64) *Float64 { return NewPrimitive(v, arrow.PrimitiveTypes.Float64) }

func (p *Primitive[T]) value() interface{} { return p.Value }
func (p *Primitive[T]) equals(rhs Scalar) bool {
	other, ok := rhs.(*Primitive[T])
	return ok && p.Value == other.Value
}

func (p *Primitive[T]) String() string {
	if !p.Valid {
		return "null"
	}
	switch v := any(p.Value).(type) {
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 32)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fmt.Sprint(p.Value)
}

func (p *Primitive[T]) Validate() error {
	if err := p.scalar.Validate(); err != nil {
		return err
	}
	if !arrow.IsPrimitive(p.Type.ID()) {
		return fmt.Errorf("%w: %s is not a primitive type", arrow.ErrInvalid, p.Type)
	}
	if w := arrow.ByteWidth(p.Type); w != arrow.SizeOf[T]() {
		return fmt.Errorf("%w: %s scalar holds a %d byte value, want %d", arrow.ErrInvalid, p.Type, arrow.SizeOf[T](), w)
	}
	return nil
}

// MakeNullScalar returns an invalid scalar of dt.
func MakeNullScalar(dt arrow.DataType) Scalar {
	s := scalar{Type: dt}
	switch dt.ID() {
	case arrow.NULL:
		return ScalarNull
	case arrow.BOOL:
		return &Boolean{scalar: s}
	case arrow.INT8:
		return &Int8{scalar: s}
	case arrow.UINT8:
		return &Uint8{scalar: s}
	case arrow.INT16:
		return &Int16{scalar: s}
	case arrow.UINT16:
		return &Uint16{scalar: s}
	case arrow.INT32, arrow.DATE32, arrow.TIME32:
		return &Int32{scalar: s}
	case arrow.UINT32:
		return &Uint32{scalar: s}
	case arrow.INT64, arrow.DATE64, arrow.TIME64, arrow.TIMESTAMP, arrow.DURATION:
		return &Int64{scalar: s}
	case arrow.UINT64:
		return &Uint64{scalar: s}
	case arrow.FLOAT32:
		return &Float32{scalar: s}
	case arrow.FLOAT64:
		return &Float64{scalar: s}
	case arrow.BINARY:
		return &Binary{scalar: s}
	case arrow.STRING:
		return &String{&Binary{scalar: s}}
	case arrow.STRUCT:
		return &Struct{scalar: s}
	case arrow.DICTIONARY:
		return MakeNullScalar(dt.(*arrow.DictionaryType).ValueType)
	}
	panic(fmt.Errorf("arrow/scalar: no null scalar for %s", dt))
}

// GetScalar returns element i of arr as a scalar. Binary values are copied
// so the scalar does not keep arr alive. Dictionary elements are decoded.
func GetScalar(arr arrow.Array, i int) (Scalar, error) {
	if i < 0 || i >= arr.Len() {
		return nil, fmt.Errorf("%w: index %d out of range for array of length %d", arrow.ErrIndex, i, arr.Len())
	}
	if arr.DataType().ID() == arrow.DICTIONARY {
		dict := arr.(*array.Dictionary)
		if dict.IsNull(i) {
			return MakeNullScalar(arr.DataType()), nil
		}
		return GetScalar(dict.Dictionary(), dict.GetValueIndex(i))
	}
	if arr.IsNull(i) {
		return MakeNullScalar(arr.DataType()), nil
	}

	dt := arr.DataType()
	switch arr := arr.(type) {
	case *array.Null:
		return ScalarNull, nil
	case *array.Boolean:
		return NewBooleanScalar(arr.Value(i)), nil
	case *array.Int8:
		return NewPrimitive(arr.Value(i), dt), nil
	case *array.Uint8:
		return NewPrimitive(arr.Value(i), dt), nil
	case *array.Int16:
		return NewPrimitive(arr.Value(i), dt), nil
	case *array.Uint16:
		return NewPrimitive(arr.Value(i), dt), nil
	case *array.Int32:
		return NewPrimitive(arr.Value(i), dt), nil
	case *array.Uint32:
		return NewPrimitive(arr.Value(i), dt), nil
	case *array.Int64:
		return NewPrimitive(arr.Value(i), dt), nil
	case *array.Uint64:
		return NewPrimitive(arr.Value(i), dt), nil
	case *array.Float32:
		return NewPrimitive(arr.Value(i), dt), nil
	case *array.Float64:
		return NewPrimitive(arr.Value(i), dt), nil
	case *array.String:
		return NewStringScalar(arr.Value(i)), nil
	case *array.Binary:
		return NewBinaryScalar(bytes.Clone(arr.Value(i))), nil
	case *array.Struct:
		children := make([]Scalar, arr.NumField())
		for f := range children {
			child, err := GetScalar(arr.Field(f), i)
			if err != nil {
				return nil, err
			}
			children[f] = child
		}
		return NewStructScalar(children, dt.(*arrow.StructType)), nil
	}
	return nil, fmt.Errorf("%w: scalar of type %s", arrow.ErrNotImplemented, dt)
}
