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
	"math"

	"github.com/ferrow-io/ferrow/arrow"
)

// Equal reports whether left and right have the same type, the same length,
// the same validity and equal valid values. Floating point NaNs compare
// equal to each other.
func Equal(left, right arrow.Array) bool {
	switch {
	case !arrow.TypeEqual(left.DataType(), right.DataType()):
		return false
	case left.Len() != right.Len():
		return false
	case left.NullN() != right.NullN():
		return false
	}

	// the null type has no values to compare
	if left.DataType().ID() == arrow.NULL {
		return true
	}

	if !validityEqual(left, right) {
		return false
	}

	switch l := left.(type) {
	case *Boolean:
		r := right.(*Boolean)
		return valuesEqual(l, func(i int) bool { return l.Value(i) == r.Value(i) })
	case *Int8:
		return arrayEqualNumeric(l, right.(*Int8))
	case *Uint8:
		return arrayEqualNumeric(l, right.(*Uint8))
	case *Int16:
		return arrayEqualNumeric(l, right.(*Int16))
	case *Uint16:
		return arrayEqualNumeric(l, right.(*Uint16))
	case *Int32:
		return arrayEqualNumeric(l, right.(*Int32))
	case *Uint32:
		return arrayEqualNumeric(l, right.(*Uint32))
	case *Int64:
		return arrayEqualNumeric(l, right.(*Int64))
	case *Uint64:
		return arrayEqualNumeric(l, right.(*Uint64))
	case *Float32:
		return arrayEqualNumeric(l, right.(*Float32))
	case *Float64:
		return arrayEqualNumeric(l, right.(*Float64))
	case *String:
		r := right.(*String)
		return valuesEqual(l, func(i int) bool { return l.Value(i) == r.Value(i) })
	case *Binary:
		r := right.(*Binary)
		return valuesEqual(l, func(i int) bool { return bytes.Equal(l.Value(i), r.Value(i)) })
	case *Struct:
		r := right.(*Struct)
		return arrayEqualStruct(l, r)
	case *Dictionary:
		r := right.(*Dictionary)
		return valuesEqual(l, func(i int) bool {
			return elementEqual(l.Dictionary(), l.GetValueIndex(i), r.Dictionary(), r.GetValueIndex(i))
		})
	}
	return false
}

func validityEqual(left, right arrow.Array) bool {
	if left.NullN() == 0 {
		return true
	}
	for i := 0; i < left.Len(); i++ {
		if left.IsValid(i) != right.IsValid(i) {
			return false
		}
	}
	return true
}

func valuesEqual(arr arrow.Array, eq func(i int) bool) bool {
	for i := 0; i < arr.Len(); i++ {
		if arr.IsNull(i) {
			continue
		}
		if !eq(i) {
			return false
		}
	}
	return true
}

func isNaN[T arrow.NumericType](v T) bool { return v != v }

func arrayEqualNumeric[T arrow.NumericType](left, right *Numeric[T]) bool {
	lv, rv := left.Values(), right.Values()
	return valuesEqual(left, func(i int) bool {
		return lv[i] == rv[i] || (isNaN(lv[i]) && isNaN(rv[i]))
	})
}

func arrayEqualStruct(left, right *Struct) bool {
	for f := 0; f < left.NumField(); f++ {
		lf, rf := left.Field(f), right.Field(f)
		for i := 0; i < left.Len(); i++ {
			if left.IsNull(i) {
				continue
			}
			if lf.IsValid(i) != rf.IsValid(i) {
				return false
			}
			if lf.IsValid(i) && !elementEqual(lf, i, rf, i) {
				return false
			}
		}
	}
	return true
}

// elementEqual compares one valid element of two arrays of the same type.
func elementEqual(left arrow.Array, i int, right arrow.Array, j int) bool {
	switch l := left.(type) {
	case *Boolean:
		return l.Value(i) == right.(*Boolean).Value(j)
	case *String:
		return l.Value(i) == right.(*String).Value(j)
	case *Binary:
		return bytes.Equal(l.Value(i), right.(*Binary).Value(j))
	case *Float32:
		a, b := l.Value(i), right.(*Float32).Value(j)
		return a == b || (isNaN(a) && isNaN(b))
	case *Float64:
		a, b := l.Value(i), right.(*Float64).Value(j)
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	}
	if lv, ok := IntegerValue(left, i); ok {
		rv, _ := IntegerValue(right, j)
		return lv == rv
	}
	lo := NewSlice(left, int64(i), int64(i+1))
	defer lo.Release()
	ro := NewSlice(right, int64(j), int64(j+1))
	defer ro.Release()
	return Equal(lo, ro)
}
