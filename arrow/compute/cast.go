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

package compute

import (
	"context"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/compute/internal/kernels"
)

type CastOptions = kernels.CastOptions

// DefaultCastOptions returns options without a target type. Safe options
// null out every element the target cannot represent exactly.
func DefaultCastOptions(safe bool) *CastOptions {
	if safe {
		return &CastOptions{}
	}
	return &CastOptions{
		AllowIntOverflow:   true,
		AllowTimeOverflow:  true,
		AllowFloatTruncate: true,
		AllowInvalidUtf8:   true,
	}
}

func SafeCastOptions(dt arrow.DataType) *CastOptions {
	opts := DefaultCastOptions(true)
	opts.ToType = dt
	return opts
}

// UnsafeCastOptions allows every lossy conversion, so numeric casts follow
// Go's conversion rule.
func UnsafeCastOptions(dt arrow.DataType) *CastOptions {
	opts := DefaultCastOptions(false)
	opts.ToType = dt
	return opts
}

// CastDatum casts an array datum to opts.ToType.
func CastDatum(ctx context.Context, val Datum, opts *CastOptions) (Datum, error) {
	arr, err := arrayArg("value", val)
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	return datumResult(kernels.Cast(GetAllocator(ctx), arr, opts))
}

// CastArray casts val to opts.ToType. Casting to the type val already has
// returns an array sharing the buffers of val.
func CastArray(ctx context.Context, val arrow.Array, opts *CastOptions) (arrow.Array, error) {
	return arrayResult(kernels.Cast(GetAllocator(ctx), val, opts))
}

// CastToType is CastArray with safe options.
func CastToType(ctx context.Context, val arrow.Array, toType arrow.DataType) (arrow.Array, error) {
	return CastArray(ctx, val, SafeCastOptions(toType))
}

// CanCast returns true if there is an implementation for casting an array
// from the specified DataType to the other data type.
func CanCast(from, to arrow.DataType) bool {
	return kernels.CanCast(from, to)
}
