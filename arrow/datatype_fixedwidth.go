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
	"time"
)

type BooleanType struct{}

func (t *BooleanType) ID() Type            { return BOOL }
func (t *BooleanType) Name() string        { return "bool" }
func (t *BooleanType) String() string      { return "bool" }
func (t *BooleanType) Fingerprint() string { return typeFingerprint(t) }
func (t *BooleanType) Layout() DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecBitmap()}}
}

// BitWidth returns the number of bits required to store a single element of this data type in memory.
func (t *BooleanType) BitWidth() int { return 1 }

type TimeUnit int

const (
	Nanosecond TimeUnit = iota
	Microsecond
	Millisecond
	Second
)

var TimeUnitValues = []TimeUnit{Second, Millisecond, Microsecond, Nanosecond}

// Multiplier returns the length of one tick of the unit.
func (u TimeUnit) Multiplier() time.Duration {
	return [...]time.Duration{time.Nanosecond, time.Microsecond, time.Millisecond, time.Second}[uint(u)&3]
}

func (u TimeUnit) String() string { return [...]string{"ns", "us", "ms", "s"}[uint(u)&3] }

func fixedWidthLayout(byteWidth int) DataTypeLayout {
	return DataTypeLayout{Buffers: []BufferSpec{SpecBitmap(), SpecFixedWidth(byteWidth)}}
}

// Date32Type is encoded as a 32-bit signed integer counting days since the
// UNIX epoch.
type Date32Type struct{}

func (t *Date32Type) ID() Type               { return DATE32 }
func (t *Date32Type) Name() string           { return "date32" }
func (t *Date32Type) String() string         { return "date32" }
func (t *Date32Type) BitWidth() int          { return 32 }
func (t *Date32Type) Fingerprint() string    { return typeFingerprint(t) }
func (t *Date32Type) Layout() DataTypeLayout { return fixedWidthLayout(4) }

// Date64Type is encoded as a 64-bit signed integer counting milliseconds
// since the UNIX epoch.
type Date64Type struct{}

func (t *Date64Type) ID() Type               { return DATE64 }
func (t *Date64Type) Name() string           { return "date64" }
func (t *Date64Type) String() string         { return "date64" }
func (t *Date64Type) BitWidth() int          { return 64 }
func (t *Date64Type) Fingerprint() string    { return typeFingerprint(t) }
func (t *Date64Type) Layout() DataTypeLayout { return fixedWidthLayout(8) }

// TimestampType is encoded as a 64-bit signed integer since the UNIX epoch.
// An empty TimeZone means the values are naive wall clock times.
type TimestampType struct {
	Unit     TimeUnit
	TimeZone string
}

func (*TimestampType) ID() Type     { return TIMESTAMP }
func (*TimestampType) Name() string { return "timestamp" }
func (t *TimestampType) String() string {
	switch len(t.TimeZone) {
	case 0:
		return "timestamp[" + t.Unit.String() + "]"
	default:
		return "timestamp[" + t.Unit.String() + ", tz=" + t.TimeZone + "]"
	}
}

func (t *TimestampType) Fingerprint() string {
	return fmt.Sprintf("%s%d:%s", typeFingerprint(t)+string(timeUnitFingerprint(t.Unit)), len(t.TimeZone), t.TimeZone)
}

// BitWidth returns the number of bits required to store a single element of this data type in memory.
func (*TimestampType) BitWidth() int          { return 64 }
func (t *TimestampType) TimeUnit() TimeUnit   { return t.Unit }
func (*TimestampType) Layout() DataTypeLayout { return fixedWidthLayout(8) }

// Time32Type is encoded as a 32-bit signed integer, representing either seconds or milliseconds since midnight.
type Time32Type struct {
	Unit TimeUnit
}

func (*Time32Type) ID() Type               { return TIME32 }
func (*Time32Type) Name() string           { return "time32" }
func (*Time32Type) BitWidth() int          { return 32 }
func (t *Time32Type) TimeUnit() TimeUnit   { return t.Unit }
func (*Time32Type) Layout() DataTypeLayout { return fixedWidthLayout(4) }
func (t *Time32Type) String() string       { return "time32[" + t.Unit.String() + "]" }
func (t *Time32Type) Fingerprint() string {
	return typeFingerprint(t) + string(timeUnitFingerprint(t.Unit))
}

// Time64Type is encoded as a 64-bit signed integer, representing either microseconds or nanoseconds since midnight.
type Time64Type struct {
	Unit TimeUnit
}

func (*Time64Type) ID() Type               { return TIME64 }
func (*Time64Type) Name() string           { return "time64" }
func (*Time64Type) BitWidth() int          { return 64 }
func (t *Time64Type) TimeUnit() TimeUnit   { return t.Unit }
func (*Time64Type) Layout() DataTypeLayout { return fixedWidthLayout(8) }
func (t *Time64Type) String() string       { return "time64[" + t.Unit.String() + "]" }
func (t *Time64Type) Fingerprint() string {
	return typeFingerprint(t) + string(timeUnitFingerprint(t.Unit))
}

// DurationType is encoded as a 64-bit signed integer, representing an amount
// of elapsed time without any relation to a calendar artifact.
type DurationType struct {
	Unit TimeUnit
}

func (*DurationType) ID() Type               { return DURATION }
func (*DurationType) Name() string           { return "duration" }
func (*DurationType) BitWidth() int          { return 64 }
func (t *DurationType) TimeUnit() TimeUnit   { return t.Unit }
func (*DurationType) Layout() DataTypeLayout { return fixedWidthLayout(8) }
func (t *DurationType) String() string       { return "duration[" + t.Unit.String() + "]" }
func (t *DurationType) Fingerprint() string {
	return typeFingerprint(t) + string(timeUnitFingerprint(t.Unit))
}

var (
	FixedWidthTypes = struct {
		Boolean      FixedWidthDataType
		Date32       FixedWidthDataType
		Date64       FixedWidthDataType
		Duration_s   FixedWidthDataType
		Duration_ms  FixedWidthDataType
		Duration_us  FixedWidthDataType
		Duration_ns  FixedWidthDataType
		Time32s      FixedWidthDataType
		Time32ms     FixedWidthDataType
		Time64us     FixedWidthDataType
		Time64ns     FixedWidthDataType
		Timestamp_s  FixedWidthDataType
		Timestamp_ms FixedWidthDataType
		Timestamp_us FixedWidthDataType
		Timestamp_ns FixedWidthDataType
	}{
		Boolean:      &BooleanType{},
		Date32:       &Date32Type{},
		Date64:       &Date64Type{},
		Duration_s:   &DurationType{Unit: Second},
		Duration_ms:  &DurationType{Unit: Millisecond},
		Duration_us:  &DurationType{Unit: Microsecond},
		Duration_ns:  &DurationType{Unit: Nanosecond},
		Time32s:      &Time32Type{Unit: Second},
		Time32ms:     &Time32Type{Unit: Millisecond},
		Time64us:     &Time64Type{Unit: Microsecond},
		Time64ns:     &Time64Type{Unit: Nanosecond},
		Timestamp_s:  &TimestampType{Unit: Second, TimeZone: "UTC"},
		Timestamp_ms: &TimestampType{Unit: Millisecond, TimeZone: "UTC"},
		Timestamp_us: &TimestampType{Unit: Microsecond, TimeZone: "UTC"},
		Timestamp_ns: &TimestampType{Unit: Nanosecond, TimeZone: "UTC"},
	}

	_ TemporalWithUnit = (*TimestampType)(nil)
	_ TemporalWithUnit = (*Time32Type)(nil)
	_ TemporalWithUnit = (*Time64Type)(nil)
	_ TemporalWithUnit = (*DurationType)(nil)
)
