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

package arrow

// TypeEqual checks if two DataType are the same, comparing every
// parameter of parametric and nested types.
func TypeEqual(left, right DataType) bool {
	switch {
	case left == nil || right == nil:
		return left == nil && right == nil
	case left.ID() != right.ID():
		return false
	}

	switch l := left.(type) {
	case *StructType:
		r := right.(*StructType)
		if len(l.fields) != len(r.fields) {
			return false
		}
		for i := range l.fields {
			if !l.fields[i].Equal(r.fields[i]) {
				return false
			}
		}
		return true
	case *DictionaryType:
		r := right.(*DictionaryType)
		return TypeEqual(l.IndexType, r.IndexType) &&
			TypeEqual(l.ValueType, r.ValueType) &&
			l.Ordered == r.Ordered
	case *TimestampType:
		r := right.(*TimestampType)
		return l.Unit == r.Unit && l.TimeZone == r.TimeZone
	case TemporalWithUnit:
		return l.TimeUnit() == right.(TemporalWithUnit).TimeUnit()
	default:
		return true
	}
}

// IsInteger reports whether t is a signed or unsigned integer type.
func IsInteger(t Type) bool {
	switch t {
	case UINT8, INT8, UINT16, INT16, UINT32, INT32, UINT64, INT64:
		return true
	}
	return false
}

// IsUnsignedInteger reports whether t is an unsigned integer type.
func IsUnsignedInteger(t Type) bool {
	switch t {
	case UINT8, UINT16, UINT32, UINT64:
		return true
	}
	return false
}

// IsSignedInteger reports whether t is a signed integer type.
func IsSignedInteger(t Type) bool {
	switch t {
	case INT8, INT16, INT32, INT64:
		return true
	}
	return false
}

// IsFloating reports whether t is a floating point type.
func IsFloating(t Type) bool { return t == FLOAT32 || t == FLOAT64 }

// IsNumeric reports whether t is an integer or floating point type.
func IsNumeric(t Type) bool { return IsInteger(t) || IsFloating(t) }

// IsTemporal reports whether t is one of the date, time, timestamp or
// duration types.
func IsTemporal(t Type) bool {
	switch t {
	case DATE32, DATE64, TIMESTAMP, TIME32, TIME64, DURATION:
		return true
	}
	return false
}

// IsBinaryLike reports whether t uses the offset-encoded layout.
func IsBinaryLike(t Type) bool { return t == BINARY || t == STRING }

// IsPrimitive reports whether values of t are stored in a single fixed
// width values buffer of at least one byte per element.
func IsPrimitive(t Type) bool { return IsNumeric(t) || IsTemporal(t) }
