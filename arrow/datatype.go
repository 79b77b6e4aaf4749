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
	"fmt"
	"strconv"

	"github.com/ferrow-io/ferrow/arrow/internal/debug"
)

// Type is a logical type. It is either a primitive physical type (bytes or
// bits of a fixed size), a nested type made of other data types, or a
// type encoded with another physical type (e.g. a timestamp stored as an
// int64).
type Type int

const (
	// NULL type having no physical storage
	NULL Type = iota

	// BOOL is a 1 bit, LSB bit-packed ordering
	BOOL

	// UINT8 is an Unsigned 8-bit little-endian integer
	UINT8

	// INT8 is a Signed 8-bit little-endian integer
	INT8

	// UINT16 is an Unsigned 16-bit little-endian integer
	UINT16

	// INT16 is a Signed 16-bit little-endian integer
	INT16

	// UINT32 is an Unsigned 32-bit little-endian integer
	UINT32

	// INT32 is a Signed 32-bit little-endian integer
	INT32

	// UINT64 is an Unsigned 64-bit little-endian integer
	UINT64

	// INT64 is a Signed 64-bit little-endian integer
	INT64

	// FLOAT32 is a 4-byte floating point value
	FLOAT32

	// FLOAT64 is an 8-byte floating point value
	FLOAT64

	// STRING is a UTF8 variable-length string
	STRING

	// BINARY is a Variable-length byte type (no guarantee of UTF8-ness)
	BINARY

	// DATE32 is int32 days since the UNIX epoch
	DATE32

	// DATE64 is int64 milliseconds since the UNIX epoch
	DATE64

	// TIMESTAMP is an exact timestamp encoded with int64 since UNIX epoch
	TIMESTAMP

	// TIME32 is a signed 32-bit integer, representing either seconds or
	// milliseconds since midnight
	TIME32

	// TIME64 is a signed 64-bit integer, representing either microseconds or
	// nanoseconds since midnight
	TIME64

	// STRUCT of logical types
	STRUCT

	// DICTIONARY aka Category type
	DICTIONARY

	// DURATION is a measure of elapsed time in either seconds,
	// milliseconds, microseconds or nanoseconds.
	DURATION
)

var typeNames = [...]string{
	NULL:       "NULL",
	BOOL:       "BOOL",
	UINT8:      "UINT8",
	INT8:       "INT8",
	UINT16:     "UINT16",
	INT16:      "INT16",
	UINT32:     "UINT32",
	INT32:      "INT32",
	UINT64:     "UINT64",
	INT64:      "INT64",
	FLOAT32:    "FLOAT32",
	FLOAT64:    "FLOAT64",
	STRING:     "STRING",
	BINARY:     "BINARY",
	DATE32:     "DATE32",
	DATE64:     "DATE64",
	TIMESTAMP:  "TIMESTAMP",
	TIME32:     "TIME32",
	TIME64:     "TIME64",
	STRUCT:     "STRUCT",
	DICTIONARY: "DICTIONARY",
	DURATION:   "DURATION",
}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "Type(" + strconv.Itoa(int(t)) + ")"
	}
	return typeNames[t]
}

// DataType is the representation of a logical type.
type DataType interface {
	fmt.Stringer
	ID() Type
	// Name is name of the data type.
	Name() string
	Fingerprint() string
	Layout() DataTypeLayout
}

// FixedWidthDataType is the representation of a type that requires a
// fixed number of bits in memory for each element.
type FixedWidthDataType interface {
	DataType
	// BitWidth returns the number of bits required to store a single element of this data type in memory.
	BitWidth() int
}

// BinaryDataType is implemented by the offset-encoded types.
type BinaryDataType interface {
	DataType
	IsUtf8() bool
	binary()
}

// TemporalWithUnit is implemented by the temporal types that carry a unit.
type TemporalWithUnit interface {
	FixedWidthDataType
	TimeUnit() TimeUnit
}

func typeIDFingerprint(id Type) string {
	c := string(rune(int(id) + int('A')))
	return "@" + c
}

func typeFingerprint(typ DataType) string { return typeIDFingerprint(typ.ID()) }

func timeUnitFingerprint(unit TimeUnit) rune {
	switch unit {
	case Second:
		return 's'
	case Millisecond:
		return 'm'
	case Microsecond:
		return 'u'
	case Nanosecond:
		return 'n'
	default:
		debug.Assert(false, "unexpected time unit")
		return rune(0)
	}
}

// BufferKind describes the role of one buffer in a physical layout.
type BufferKind int8

const (
	KindFixedWidth BufferKind = iota
	KindVarWidth
	KindBitmap
	KindAlwaysNull
)

// BufferSpec describes one buffer of a physical layout.
type BufferSpec struct {
	Kind      BufferKind
	ByteWidth int // for KindFixedWidth
}

func SpecFixedWidth(w int) BufferSpec { return BufferSpec{Kind: KindFixedWidth, ByteWidth: w} }
func SpecVariableWidth() BufferSpec   { return BufferSpec{Kind: KindVarWidth, ByteWidth: -1} }
func SpecBitmap() BufferSpec          { return BufferSpec{Kind: KindBitmap, ByteWidth: -1} }
func SpecAlwaysNull() BufferSpec      { return BufferSpec{Kind: KindAlwaysNull, ByteWidth: -1} }

// DataTypeLayout lists the buffers of a physical layout. Buffer 0 is
// always the validity bitmap slot.
type DataTypeLayout struct {
	Buffers []BufferSpec
	HasDict bool
}
