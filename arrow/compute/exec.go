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
	"fmt"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/memory"
)

type ctxAllocKey struct{}

// WithAllocator returns a context whose compute calls allocate their
// results from mem.
func WithAllocator(ctx context.Context, mem memory.Allocator) context.Context {
	return context.WithValue(ctx, ctxAllocKey{}, mem)
}

// GetAllocator returns the allocator set by WithAllocator, or
// memory.DefaultAllocator.
func GetAllocator(ctx context.Context) memory.Allocator {
	mem, ok := ctx.Value(ctxAllocKey{}).(memory.Allocator)
	if !ok {
		return memory.DefaultAllocator
	}
	return mem
}

// arrayResult wraps kernel output, taking ownership of data.
func arrayResult(data *array.Data, err error) (arrow.Array, error) {
	if err != nil {
		return nil, err
	}
	defer data.Release()
	return array.MakeFromData(data), nil
}

// datumResult wraps kernel output as a Datum, taking ownership of data.
func datumResult(data *array.Data, err error) (Datum, error) {
	if err != nil {
		return nil, err
	}
	return &ArrayDatum{Value: data}, nil
}

// arrayArg returns the array held by d. The caller releases it.
func arrayArg(name string, d Datum) (arrow.Array, error) {
	ad, ok := d.(*ArrayDatum)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be an array, got %s", arrow.ErrNotImplemented, name, d.Kind())
	}
	return ad.MakeArray(), nil
}
