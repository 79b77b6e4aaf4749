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

// Package gen builds seeded random arrays for tests.
package gen

import (
	"math"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/ferrow-io/ferrow/internal/bitutils"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// RandomArrayGenerator is a struct used for constructing Random Arrow arrays
// for use with testing. Every array draws from its own source derived from
// the seed, so the output depends only on the seed and the call sequence.
type RandomArrayGenerator struct {
	seed  uint64
	extra uint64
	mem   memory.Allocator
}

// NewRandomArrayGenerator constructs a new generator with the requested Seed
func NewRandomArrayGenerator(seed uint64, mem memory.Allocator) RandomArrayGenerator {
	return RandomArrayGenerator{seed: seed, mem: mem}
}

func (r *RandomArrayGenerator) nextSource() rand.Source {
	r.extra++
	return rand.NewSource(r.seed + r.extra)
}

// GenerateBitmap sets each of the first n bits of buffer with probability
// 1-prob and returns how many it left unset.
func (r *RandomArrayGenerator) GenerateBitmap(buffer []byte, n int64, prob float64) int64 {
	count := int64(0)

	// bernoulli distribution uses P to determine the probabitiliy of a 0 or a 1,
	// which we'll use to generate the bitmap.
	dist := distuv.Bernoulli{P: 1 - prob, Src: r.nextSource()}
	bitutils.GenerateBits(buffer, 0, n, func() bool {
		set := dist.Rand() != 0
		if !set {
			count++
		}
		return set
	})
	return count
}

func (r *RandomArrayGenerator) validity(size int64, nullProb float64) (*memory.Buffer, int) {
	buf := memory.NewResizableBuffer(r.mem)
	buf.Resize(int(bitutil.BytesForBits(size)))
	memory.Set(buf.Bytes(), 0)
	return buf, int(r.GenerateBitmap(buf.Bytes(), size, nullProb))
}

func (r *RandomArrayGenerator) Boolean(size int64, prob, nullProb float64) arrow.Array {
	validity, nulls := r.validity(size, nullProb)
	defer validity.Release()
	values, _ := r.validity(size, prob)
	defer values.Release()

	data := array.NewData(arrow.FixedWidthTypes.Boolean, int(size), []*memory.Buffer{validity, values}, nil, nulls, 0)
	defer data.Release()
	return array.MakeFromData(data)
}

// Primitive returns size values of dt uniformly drawn from [min, max],
// each null with probability nullProb. T must be the storage type of dt.
func Primitive[T arrow.NumericType](r *RandomArrayGenerator, dt arrow.DataType, size int64, min, max T, nullProb float64) arrow.Array {
	validity, nulls := r.validity(size, nullProb)
	defer validity.Release()

	values := memory.NewResizableBuffer(r.mem)
	values.Resize(int(size) * arrow.SizeOf[T]())
	defer values.Release()

	dist := rand.New(r.nextSource())
	out := arrow.GetData[T](values.Bytes())
	for i := range out {
		out[i] = uniform(dist, min, max)
	}

	data := array.NewData(dt, int(size), []*memory.Buffer{validity, values}, nil, nulls, 0)
	defer data.Release()
	return array.MakeFromData(data)
}

func uniform[T arrow.NumericType](dist *rand.Rand, min, max T) T {
	var zero T
	switch any(zero).(type) {
	case float32, float64:
		return min + T(dist.Float64()*(float64(max)-float64(min)))
	}

	if zero-1 < 0 {
		lo, hi := int64(min), int64(max)
		if uint64(hi-lo) == math.MaxUint64 {
			return T(dist.Uint64())
		}
		return T(lo + int64(dist.Uint64n(uint64(hi-lo)+1)))
	}
	lo, hi := uint64(min), uint64(max)
	if hi-lo == math.MaxUint64 {
		return T(dist.Uint64())
	}
	return T(lo + dist.Uint64n(hi-lo+1))
}

func (r *RandomArrayGenerator) String(size int64, minLength, maxLength int, nullProb float64) arrow.Array {
	return r.binaryLike(arrow.BinaryTypes.String, size, minLength, maxLength, nullProb)
}

func (r *RandomArrayGenerator) Binary(size int64, minLength, maxLength int, nullProb float64) arrow.Array {
	return r.binaryLike(arrow.BinaryTypes.Binary, size, minLength, maxLength, nullProb)
}

func (r *RandomArrayGenerator) binaryLike(dt arrow.BinaryDataType, size int64, minLength, maxLength int, nullProb float64) arrow.Array {
	lengths := Primitive(r, arrow.PrimitiveTypes.Int32, size, int32(minLength), int32(maxLength), nullProb)
	defer lengths.Release()

	bldr := array.NewBinaryBuilder(r.mem, dt)
	defer bldr.Release()

	dist := rand.New(r.nextSource())
	buf := make([]byte, maxLength)
	for i := 0; i < lengths.Len(); i++ {
		if lengths.IsNull(i) {
			bldr.AppendNull()
			continue
		}
		out := buf[:lengths.(*array.Int32).Value(i)]
		for j := range out {
			out[j] = uint8(dist.Int31n(int32('z')-int32('A')+1) + int32('A'))
		}
		bldr.Append(out)
	}
	return bldr.NewArray()
}

// Indices returns size int32 indices into an array of length upper.
// Null slots carry payloads at or beyond upper.
func (r *RandomArrayGenerator) Indices(size int64, upper int32, nullProb float64) arrow.Array {
	arr := Primitive(r, arrow.PrimitiveTypes.Int32, size, 0, upper-1, nullProb)
	values := arrow.GetData[int32](arr.Data().Buffers()[1].Bytes())
	for i := range values[:size] {
		if arr.IsNull(i) {
			values[i] = upper + int32(i)
		}
	}
	return arr
}

// ArrayOf returns size random values of dt spanning its whole domain.
func (r *RandomArrayGenerator) ArrayOf(dt arrow.DataType, size int64, nullProb float64) arrow.Array {
	switch dt.ID() {
	case arrow.BOOL:
		return r.Boolean(size, 0.50, nullProb)
	case arrow.STRING:
		return r.String(size, 0, 20, nullProb)
	case arrow.BINARY:
		return r.Binary(size, 0, 20, nullProb)
	case arrow.INT8:
		return Primitive[int8](r, dt, size, math.MinInt8, math.MaxInt8, nullProb)
	case arrow.UINT8:
		return Primitive[uint8](r, dt, size, 0, math.MaxUint8, nullProb)
	case arrow.INT16:
		return Primitive[int16](r, dt, size, math.MinInt16, math.MaxInt16, nullProb)
	case arrow.UINT16:
		return Primitive[uint16](r, dt, size, 0, math.MaxUint16, nullProb)
	case arrow.INT32, arrow.DATE32, arrow.TIME32:
		return Primitive[int32](r, dt, size, math.MinInt32, math.MaxInt32, nullProb)
	case arrow.UINT32:
		return Primitive[uint32](r, dt, size, 0, math.MaxUint32, nullProb)
	case arrow.INT64, arrow.DATE64, arrow.TIME64, arrow.TIMESTAMP, arrow.DURATION:
		return Primitive[int64](r, dt, size, math.MinInt64, math.MaxInt64, nullProb)
	case arrow.UINT64:
		return Primitive[uint64](r, dt, size, 0, math.MaxUint64, nullProb)
	case arrow.FLOAT32:
		return Primitive[float32](r, dt, size, -1e6, 1e6, nullProb)
	case arrow.FLOAT64:
		return Primitive[float64](r, dt, size, -1e12, 1e12, nullProb)
	}
	panic("unimplemented ArrayOf type")
}
