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
	"math"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/memory"
)

func unsupportedCast(from, to arrow.DataType) error {
	return fmt.Errorf("%w: unsupported cast from %s to %s", arrow.ErrNotImplemented, from, to)
}

func castNumericToNumeric(mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
	switch arr.DataType().ID() {
	case arrow.INT8:
		return castNumericFrom[int8](mem, arr, opts)
	case arrow.UINT8:
		return castNumericFrom[uint8](mem, arr, opts)
	case arrow.INT16:
		return castNumericFrom[int16](mem, arr, opts)
	case arrow.UINT16:
		return castNumericFrom[uint16](mem, arr, opts)
	case arrow.INT32:
		return castNumericFrom[int32](mem, arr, opts)
	case arrow.UINT32:
		return castNumericFrom[uint32](mem, arr, opts)
	case arrow.INT64:
		return castNumericFrom[int64](mem, arr, opts)
	case arrow.UINT64:
		return castNumericFrom[uint64](mem, arr, opts)
	case arrow.FLOAT32:
		return castNumericFrom[float32](mem, arr, opts)
	case arrow.FLOAT64:
		return castNumericFrom[float64](mem, arr, opts)
	}
	return nil, unsupportedCast(arr.DataType(), opts.ToType)
}

func castNumericFrom[InT NumericTypes](mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
	switch opts.ToType.ID() {
	case arrow.INT8:
		return castNumber[InT, int8](mem, arr, opts), nil
	case arrow.UINT8:
		return castNumber[InT, uint8](mem, arr, opts), nil
	case arrow.INT16:
		return castNumber[InT, int16](mem, arr, opts), nil
	case arrow.UINT16:
		return castNumber[InT, uint16](mem, arr, opts), nil
	case arrow.INT32:
		return castNumber[InT, int32](mem, arr, opts), nil
	case arrow.UINT32:
		return castNumber[InT, uint32](mem, arr, opts), nil
	case arrow.INT64:
		return castNumber[InT, int64](mem, arr, opts), nil
	case arrow.UINT64:
		return castNumber[InT, uint64](mem, arr, opts), nil
	case arrow.FLOAT32:
		return castNumber[InT, float32](mem, arr, opts), nil
	case arrow.FLOAT64:
		return castNumber[InT, float64](mem, arr, opts), nil
	}
	return nil, unsupportedCast(arr.DataType(), opts.ToType)
}

// castNumber converts with Go's conversion rule. Unless the options allow
// the loss, elements the output type cannot represent exactly become null.
func castNumber[InT, OutT NumericTypes](mem memory.Allocator, arr arrow.Array, opts *CastOptions) *array.Data {
	check := representable[InT, OutT](opts)
	return unaryNumeric(mem, arr, opts.ToType, check != nil, func(v InT) (OutT, bool) {
		return OutT(v), check == nil || check(v)
	})
}

func isFloat[T NumericTypes]() bool {
	var z T
	switch any(z).(type) {
	case float32, float64:
		return true
	}
	return false
}

func bitWidth[T NumericTypes]() int { return 8 * arrow.SizeOf[T]() }

func hasSign[T NumericTypes]() bool {
	var zero T
	return zero-1 < 0
}

// representable returns a predicate reporting whether a value survives
// the conversion to OutT, or nil when every value is allowed through.
func representable[InT, OutT NumericTypes](opts *CastOptions) func(InT) bool {
	inFloat, outFloat := isFloat[InT](), isFloat[OutT]()
	switch {
	case inFloat && outFloat:
		return nil
	case inFloat:
		return floatToIntCheck[InT, OutT](opts)
	case outFloat:
		return intToFloatCheck[InT, OutT](opts)
	default:
		return intToIntCheck[InT, OutT](opts)
	}
}

func intToIntCheck[InT, OutT NumericTypes](opts *CastOptions) func(InT) bool {
	if opts.AllowIntOverflow {
		return nil
	}
	return func(v InT) bool {
		out := OutT(v)
		return InT(out) == v && (v < 0) == (out < 0)
	}
}

func floatToIntCheck[InT, OutT NumericTypes](opts *CastOptions) func(InT) bool {
	if opts.AllowIntOverflow && opts.AllowFloatTruncate {
		return nil
	}

	bits := bitWidth[OutT]()
	var lo, hi float64
	if hasSign[OutT]() {
		lo, hi = -math.Ldexp(1, bits-1), math.Ldexp(1, bits-1)
	} else {
		lo, hi = 0, math.Ldexp(1, bits)
	}

	return func(v InT) bool {
		f := float64(v)
		if math.IsNaN(f) || f < lo || f >= hi {
			return opts.AllowIntOverflow
		}
		return opts.AllowFloatTruncate || f == math.Trunc(f)
	}
}

// intToFloatCheck rejects integers that do not survive the round trip
// through OutT. Only inputs wider than the mantissa of OutT can fail.
func intToFloatCheck[InT, OutT NumericTypes](opts *CastOptions) func(InT) bool {
	mantissa := 24
	if bitWidth[OutT]() == 64 {
		mantissa = 53
	}
	if opts.AllowFloatTruncate || bitWidth[InT]() <= mantissa {
		return nil
	}

	// rounding can carry v to 2^bits, which InT cannot hold
	bits := bitWidth[InT]()
	lo, hi := 0.0, math.Ldexp(1, bits)
	if hasSign[InT]() {
		lo, hi = -math.Ldexp(1, bits-1), math.Ldexp(1, bits-1)
	}
	return func(v InT) bool {
		f := float64(OutT(v))
		return f >= lo && f < hi && InT(f) == v
	}
}
