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

type (
	NullSelectionBehavior = kernels.NullSelectionBehavior
	FilterOptions         = kernels.FilterOptions
	TakeOptions           = kernels.TakeOptions
)

const (
	SelectionDropNulls = kernels.DropNulls
	SelectionEmitNulls = kernels.EmitNulls
)

func DefaultFilterOptions() *FilterOptions { return &FilterOptions{} }

func DefaultTakeOptions() *TakeOptions {
	opts := kernels.DefaultTakeOptions()
	return &opts
}

// Take gathers values at the positions named by indices. Both must be
// array datums.
func Take(ctx context.Context, opts TakeOptions, values, indices Datum) (Datum, error) {
	v, err := arrayArg("values", values)
	if err != nil {
		return nil, err
	}
	defer v.Release()
	idx, err := arrayArg("indices", indices)
	if err != nil {
		return nil, err
	}
	defer idx.Release()

	return datumResult(kernels.Take(GetAllocator(ctx), v, idx, opts))
}

// TakeArray is Take over arrays with bounds checking enabled.
func TakeArray(ctx context.Context, values, indices arrow.Array) (arrow.Array, error) {
	return TakeArrayOpts(ctx, values, indices, *DefaultTakeOptions())
}

func TakeArrayOpts(ctx context.Context, values, indices arrow.Array, opts TakeOptions) (arrow.Array, error) {
	return arrayResult(kernels.Take(GetAllocator(ctx), values, indices, opts))
}

// Filter keeps the values whose filter slot is true. Null filter slots are
// dropped or emitted as nulls per opts.
func Filter(ctx context.Context, values, filter Datum, opts FilterOptions) (Datum, error) {
	v, err := arrayArg("values", values)
	if err != nil {
		return nil, err
	}
	defer v.Release()
	f, err := arrayArg("filter", filter)
	if err != nil {
		return nil, err
	}
	defer f.Release()

	out, err := FilterArray(ctx, v, f, opts)
	if err != nil {
		return nil, err
	}
	defer out.Release()
	return NewDatum(out), nil
}

func FilterArray(ctx context.Context, values, filter arrow.Array, options FilterOptions) (arrow.Array, error) {
	return kernels.Filter(GetAllocator(ctx), values, filter, options)
}
