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

package kernels

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/ferrow-io/ferrow/internal/bitutils"
)

const (
	dateLayout      = "2006-01-02"
	naiveLayout     = "2006-01-02 15:04:05.999999999"
	timestampLayout = "2006-01-02T15:04:05%sZ07:00"
)

func canCastToString(id arrow.Type) bool {
	switch id {
	case arrow.BOOL, arrow.DATE32, arrow.DATE64, arrow.TIMESTAMP:
		return true
	}
	return arrow.IsNumeric(id)
}

// castToString renders every valid element as text. Nulls stay null.
func castToString(mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
	render, err := stringRenderer(arr)
	if err != nil {
		return nil, err
	}

	bldr := array.NewBuilder(mem, opts.ToType).(*array.BinaryBuilder)
	defer bldr.Release()
	bldr.Reserve(arr.Len())
	bitutils.VisitBitBlocks(validityBytes(arr), int64(arr.Offset()), int64(arr.Len()),
		func(pos int64) { bldr.AppendString(render(int(pos))) },
		bldr.AppendNull)

	out := bldr.NewArray()
	defer out.Release()
	data := out.Data().(*array.Data)
	data.Retain()
	return data, nil
}

func stringRenderer(arr arrow.Array) (func(int) string, error) {
	switch dt := arr.DataType().(type) {
	case *arrow.BooleanType:
		a := arr.(*array.Boolean)
		return func(i int) string { return strconv.FormatBool(a.Value(i)) }, nil
	case *arrow.Date32Type:
		v := valuesOf[int32](arr)
		return func(i int) string {
			return time.Unix(int64(v[i])*86400, 0).UTC().Format(dateLayout)
		}, nil
	case *arrow.Date64Type:
		v := valuesOf[int64](arr)
		return func(i int) string { return time.UnixMilli(v[i]).UTC().Format(dateLayout) }, nil
	case *arrow.TimestampType:
		return timestampRenderer(dt, valuesOf[int64](arr))
	}

	switch arr.DataType().ID() {
	case arrow.INT8:
		return intRenderer(valuesOf[int8](arr)), nil
	case arrow.INT16:
		return intRenderer(valuesOf[int16](arr)), nil
	case arrow.INT32:
		return intRenderer(valuesOf[int32](arr)), nil
	case arrow.INT64:
		return intRenderer(valuesOf[int64](arr)), nil
	case arrow.UINT8:
		return uintRenderer(valuesOf[uint8](arr)), nil
	case arrow.UINT16:
		return uintRenderer(valuesOf[uint16](arr)), nil
	case arrow.UINT32:
		return uintRenderer(valuesOf[uint32](arr)), nil
	case arrow.UINT64:
		return uintRenderer(valuesOf[uint64](arr)), nil
	case arrow.FLOAT32:
		v := valuesOf[float32](arr)
		return func(i int) string { return strconv.FormatFloat(float64(v[i]), 'g', -1, 32) }, nil
	case arrow.FLOAT64:
		v := valuesOf[float64](arr)
		return func(i int) string { return strconv.FormatFloat(v[i], 'g', -1, 64) }, nil
	}
	return nil, fmt.Errorf("%w: cannot render %s as text", arrow.ErrNotImplemented, arr.DataType())
}

func intRenderer[T IntTypes](v []T) func(int) string {
	return func(i int) string { return strconv.FormatInt(int64(v[i]), 10) }
}

func uintRenderer[T UintTypes](v []T) func(int) string {
	return func(i int) string { return strconv.FormatUint(uint64(v[i]), 10) }
}

func unitTime(v int64, unit arrow.TimeUnit) time.Time {
	switch unit {
	case arrow.Second:
		return time.Unix(v, 0)
	case arrow.Millisecond:
		return time.UnixMilli(v)
	case arrow.Microsecond:
		return time.UnixMicro(v)
	}
	return time.Unix(0, v)
}

// timestampRenderer renders naive timestamps as wall clock UTC and zoned
// timestamps as RFC 3339 in their zone with the precision of the unit.
func timestampRenderer(dt *arrow.TimestampType, v []int64) (func(int) string, error) {
	if dt.TimeZone == "" {
		return func(i int) string { return unitTime(v[i], dt.Unit).UTC().Format(naiveLayout) }, nil
	}

	loc, err := LoadLocation(dt.TimeZone)
	if err != nil {
		return nil, err
	}
	var frac string
	switch dt.Unit {
	case arrow.Millisecond:
		frac = ".000"
	case arrow.Microsecond:
		frac = ".000000"
	case arrow.Nanosecond:
		frac = ".000000000"
	}
	layout := fmt.Sprintf(timestampLayout, frac)
	return func(i int) string { return unitTime(v[i], dt.Unit).In(loc).Format(layout) }, nil
}

// LoadLocation resolves a time zone given either as a fixed offset
// (+hh:mm, -hh:mm, +hhmm, -hhmm or Z) or as a tz database name.
func LoadLocation(tz string) (*time.Location, error) {
	if tz == "Z" || tz == "z" {
		return time.UTC, nil
	}
	if strings.HasPrefix(tz, "+") || strings.HasPrefix(tz, "-") {
		return fixedOffset(tz)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %s", arrow.ErrInvalidTimezone, tz, err)
	}
	return loc, nil
}

func fixedOffset(tz string) (*time.Location, error) {
	digits := strings.Replace(tz[1:], ":", "", 1)
	if len(digits) != 4 || (len(tz) == 6 && tz[3] != ':') {
		return nil, fmt.Errorf("%w: malformed offset %q", arrow.ErrInvalidTimezone, tz)
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return nil, fmt.Errorf("%w: malformed offset %q", arrow.ErrInvalidTimezone, tz)
		}
	}
	hh, _ := strconv.Atoi(digits[:2])
	mm, _ := strconv.Atoi(digits[2:])
	if hh > 23 || mm > 59 {
		return nil, fmt.Errorf("%w: offset out of range %q", arrow.ErrInvalidTimezone, tz)
	}
	secs := hh*3600 + mm*60
	if tz[0] == '-' {
		secs = -secs
	}
	return time.FixedZone(tz, secs), nil
}
