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

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/compute"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/ferrow-io/ferrow/arrow/scalar"
	"github.com/ferrow-io/ferrow/internal/utils"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/goccy/go-json"
	"github.com/klauspost/cpuid/v2"
	"golang.org/x/sync/errgroup"
)

type app struct {
	mem    memory.Allocator
	logger log.Logger
	out    io.Writer
}

func (a *app) run(ctx context.Context, cfg *config) error {
	ctx = compute.WithAllocator(ctx, a.mem)
	switch {
	case cfg.Take:
		return a.take(ctx, cfg)
	case cfg.Rem:
		return a.rem(ctx, cfg)
	case cfg.Cast:
		return a.cast(ctx, cfg)
	case cfg.Info:
		return a.info()
	}
	return errors.New("no command given")
}

// readArray parses arg as a JSON array of dt. An arg starting with @ is
// read from the named file.
func (a *app) readArray(dt arrow.DataType, arg string) (arrow.Array, error) {
	src := arg
	if strings.HasPrefix(arg, "@") {
		b, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, err
		}
		src = string(b)
	}
	arr, _, err := array.FromJSON(a.mem, dt, strings.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parsing %s array: %w", dt, err)
	}
	return arr, nil
}

func (a *app) emit(arrs ...arrow.Array) error {
	enc := json.NewEncoder(a.out)
	for _, arr := range arrs {
		if err := enc.Encode(arr); err != nil {
			return err
		}
	}
	return nil
}

// take gathers values once per index array. Index arrays are parsed and
// applied concurrently; results are printed in argument order.
func (a *app) take(ctx context.Context, cfg *config) error {
	dt, err := parseType(cfg.Type)
	if err != nil {
		return err
	}
	idxType, err := parseType(cfg.IndexType)
	if err != nil {
		return err
	}
	if !arrow.IsInteger(idxType.ID()) {
		return fmt.Errorf("%w: index type must be an integer, got %s", arrow.ErrType, idxType)
	}

	values, err := a.readArray(dt, cfg.Values)
	if err != nil {
		return err
	}
	defer values.Release()

	results := make([]arrow.Array, len(cfg.Indices))
	defer func() {
		for _, r := range results {
			if r != nil {
				r.Release()
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for i, arg := range cfg.Indices {
		i, arg := i, arg
		g.Go(func() error {
			indices, err := a.readArray(idxType, arg)
			if err != nil {
				return err
			}
			defer indices.Release()
			if err := gctx.Err(); err != nil {
				return err
			}

			out, err := compute.TakeArray(gctx, values, indices)
			if err != nil {
				return fmt.Errorf("take with indices %d: %w", i, err)
			}
			results[i] = out
			level.Debug(a.logger).Log("msg", "take finished", "indices", i, "len", out.Len(), "nulls", out.NullN())
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return a.emit(results...)
}

// rem runs the checked or unchecked remainder. The unchecked kernel panics
// on a zero divisor; the panic is reported as an error.
func (a *app) rem(ctx context.Context, cfg *config) (err error) {
	dt, err := parseType(cfg.Type)
	if err != nil {
		return err
	}
	lhs, err := a.readArray(dt, cfg.Lhs)
	if err != nil {
		return err
	}
	defer lhs.Release()

	defer func() {
		if r := recover(); r != nil {
			err = utils.FormatRecoveredError("unchecked remainder", r)
		}
	}()

	var out arrow.Array
	if cfg.Scalar != "" {
		divisor, serr := a.parseScalar(dt, cfg.Scalar)
		if serr != nil {
			return serr
		}
		if cfg.Checked {
			out, err = compute.CheckedRemScalar(ctx, lhs, divisor)
		} else {
			out, err = compute.RemScalar(ctx, lhs, divisor)
		}
	} else {
		rhs, rerr := a.readArray(dt, cfg.Rhs)
		if rerr != nil {
			return rerr
		}
		defer rhs.Release()
		if cfg.Checked {
			out, err = compute.CheckedRem(ctx, lhs, rhs)
		} else {
			out, err = compute.Rem(ctx, lhs, rhs)
		}
	}
	if err != nil {
		return err
	}
	defer out.Release()
	return a.emit(out)
}

func (a *app) parseScalar(dt arrow.DataType, v string) (scalar.Scalar, error) {
	arr, err := a.readArray(dt, "["+v+"]")
	if err != nil {
		return nil, err
	}
	defer arr.Release()
	if arr.Len() != 1 {
		return nil, fmt.Errorf("%w: expected one scalar value, got %d", arrow.ErrInvalid, arr.Len())
	}
	return scalar.GetScalar(arr, 0)
}

func (a *app) cast(ctx context.Context, cfg *config) error {
	from, err := parseType(cfg.From)
	if err != nil {
		return err
	}
	to, err := parseType(cfg.To)
	if err != nil {
		return err
	}
	if cfg.Tz != "" {
		ts, ok := from.(*arrow.TimestampType)
		if !ok {
			return fmt.Errorf("%w: --tz needs a timestamp input, got %s", arrow.ErrInvalid, from)
		}
		from = &arrow.TimestampType{Unit: ts.Unit, TimeZone: cfg.Tz}
	}
	if !compute.CanCast(from, to) {
		return fmt.Errorf("%w: no cast from %s to %s", arrow.ErrNotImplemented, from, to)
	}

	values, err := a.readArray(from, cfg.Values)
	if err != nil {
		return err
	}
	defer values.Release()

	opts := compute.SafeCastOptions(to)
	if cfg.Wrap {
		opts = compute.UnsafeCastOptions(to)
	}
	out, err := compute.CastArray(ctx, values, opts)
	if err != nil {
		return err
	}
	defer out.Release()
	level.Debug(a.logger).Log("msg", "cast finished", "from", from, "to", to, "nulls_in", values.NullN(), "nulls_out", out.NullN())
	return a.emit(out)
}

type cpuInfo struct {
	Brand         string   `json:"brand"`
	Vendor        string   `json:"vendor"`
	PhysicalCores int      `json:"physical_cores"`
	LogicalCores  int      `json:"logical_cores"`
	CacheLine     int      `json:"cache_line"`
	L1D           int      `json:"l1d"`
	L2            int      `json:"l2"`
	L3            int      `json:"l3"`
	Features      []string `json:"features"`
}

func (a *app) info() error {
	c := cpuid.CPU
	return json.NewEncoder(a.out).Encode(cpuInfo{
		Brand:         c.BrandName,
		Vendor:        c.VendorString,
		PhysicalCores: c.PhysicalCores,
		LogicalCores:  c.LogicalCores,
		CacheLine:     c.CacheLine,
		L1D:           c.Cache.L1D,
		L2:            c.Cache.L2,
		L3:            c.Cache.L3,
		Features:      c.FeatureSet(),
	})
}
