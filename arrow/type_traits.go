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

import (
	"unsafe"

	"golang.org/x/exp/constraints"
)

// NumericType is the set of Go types that back the fixed width arrays.
type NumericType interface {
	constraints.Integer | constraints.Float
}

// GetData reinterprets the slice b as a slice of T.
//
// NOTE: len(b) must be a multiple of T's size.
func GetData[T NumericType](b []byte) []T {
	if cap(b) == 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	ptr := (*T)(unsafe.Pointer(unsafe.SliceData(b)))
	return unsafe.Slice(ptr, cap(b)/size)[:len(b)/size]
}

// GetBytes reinterprets the slice in as its underlying bytes.
func GetBytes[T NumericType](in []T) []byte {
	if cap(in) == 0 {
		return nil
	}
	var zero T
	size := int(unsafe.Sizeof(zero))
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(in))), cap(in)*size)[:len(in)*size]
}

// SizeOf returns the size in bytes of T.
func SizeOf[T NumericType]() int {
	var zero T
	return int(unsafe.Sizeof(zero))
}

// ByteWidth returns the size in bytes of one element of a fixed width type
// of at least one byte, or 0.
func ByteWidth(dt DataType) int {
	if fw, ok := dt.(FixedWidthDataType); ok && fw.BitWidth() >= 8 {
		return fw.BitWidth() / 8
	}
	return 0
}
