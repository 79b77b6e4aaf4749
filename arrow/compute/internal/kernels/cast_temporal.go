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
	"math"
	"time"

	"github.com/JohnCGriffin/overflow"
	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/memory"
)

const (
	nanosPerDay  = int64(24 * time.Hour)
	millisPerDay = nanosPerDay / int64(time.Millisecond)
)

// rescale describes an integer conversion between temporal units: values
// are divided by div first, then multiplied by mul. The division truncates
// toward zero, or rounds toward negative infinity with floor set.
type rescale struct {
	div, mul int64
	floor    bool
}

type temporalKind int8

const (
	kindNone temporalKind = iota
	kindDate
	kindTime
	kindTimestamp
	kindDuration
)

// temporalUnit returns the kind of dt and the length of one of its ticks
// in nanoseconds.
func temporalUnit(dt arrow.DataType) (temporalKind, int64) {
	switch dt := dt.(type) {
	case *arrow.Date32Type:
		return kindDate, nanosPerDay
	case *arrow.Date64Type:
		return kindDate, int64(time.Millisecond)
	case *arrow.Time32Type:
		return kindTime, int64(dt.Unit.Multiplier())
	case *arrow.Time64Type:
		return kindTime, int64(dt.Unit.Multiplier())
	case *arrow.TimestampType:
		return kindTimestamp, int64(dt.Unit.Multiplier())
	case *arrow.DurationType:
		return kindDuration, int64(dt.Unit.Multiplier())
	}
	return kindNone, 0
}

func temporalRescale(from, to arrow.DataType) (rescale, bool) {
	fromKind, fromTick := temporalUnit(from)
	toKind, toTick := temporalUnit(to)
	switch {
	case fromKind == kindNone || toKind == kindNone:
		return rescale{}, false
	case fromKind == kindTimestamp && toKind == kindDate:
		return rescale{div: nanosPerDay / fromTick, mul: nanosPerDay / toTick, floor: true}, true
	case fromKind == kindDate && toKind == kindTimestamp:
	case fromKind != toKind:
		return rescale{}, false
	}

	if fromTick >= toTick {
		return rescale{div: 1, mul: fromTick / toTick}, true
	}
	return rescale{div: toTick / fromTick, mul: 1}, true
}

func getTemporalCast(from, to arrow.DataType) castFunc {
	r, ok := temporalRescale(from, to)
	if !ok {
		return nil
	}

	wide := func(dt arrow.DataType) bool { return arrow.ByteWidth(dt) == 8 }
	return func(mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
		switch {
		case wide(from) && wide(to):
			return rescaleTemporal[int64, int64](mem, arr, opts, r), nil
		case wide(from):
			return rescaleTemporal[int64, int32](mem, arr, opts, r), nil
		case wide(to):
			return rescaleTemporal[int32, int64](mem, arr, opts, r), nil
		default:
			return rescaleTemporal[int32, int32](mem, arr, opts, r), nil
		}
	}
}

// rescaleTemporal converts with integer arithmetic only. A product that
// overflows or a result outside OutT becomes null unless AllowTimeOverflow
// is set.
func rescaleTemporal[InT, OutT int32 | int64](mem memory.Allocator, arr arrow.Array, opts *CastOptions, r rescale) *array.Data {
	narrow := arrow.SizeOf[OutT]() == 4
	return unaryNumeric(mem, arr, opts.ToType, true, func(in InT) (OutT, bool) {
		v, ok := int64(in), true
		if r.div > 1 {
			q := v / r.div
			if r.floor && v < 0 && v%r.div != 0 {
				q--
			}
			v = q
		}
		if r.mul > 1 {
			prod, fits := overflow.Mul64(v, r.mul)
			ok = ok && (fits || opts.AllowTimeOverflow)
			v = prod
		}
		if narrow && (v < math.MinInt32 || v > math.MaxInt32) {
			ok = ok && opts.AllowTimeOverflow
		}
		return OutT(v), ok
	})
}
