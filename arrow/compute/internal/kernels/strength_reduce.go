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
	"math/bits"

	"golang.org/x/exp/constraints"
)

type reduceKind int8

const (
	reducePow2 reduceKind = iota
	reduceHigh
	reduceMagic
)

// StrengthReduced is an unsigned divisor prepared so that division and
// remainder by it need only a multiply, an add and shifts. Values of every
// width are computed in uint64, so one implementation serves all of them.
type StrengthReduced[T constraints.Unsigned] struct {
	divisor    uint64
	multiplier uint64
	shift      uint
	kind       reduceKind
}

// NewStrengthReduced prepares d. It panics when d is zero.
func NewStrengthReduced[T constraints.Unsigned](d T) StrengthReduced[T] {
	if d == 0 {
		panic("kernels: strength reduced divisor must be non-zero")
	}

	div := uint64(d)
	switch {
	case div&(div-1) == 0:
		return StrengthReduced[T]{divisor: div, shift: uint(bits.TrailingZeros64(div)), kind: reducePow2}
	case div > 1<<63:
		// the quotient is 0 or 1
		return StrengthReduced[T]{divisor: div, kind: reduceHigh}
	}

	// l = ceil(log2 d); m = floor(2^64 * (2^l - d) / d) + 1
	l := uint(bits.Len64(div - 1))
	m, _ := bits.Div64((uint64(1)<<l)-div, 0, div)
	return StrengthReduced[T]{divisor: div, multiplier: m + 1, shift: l, kind: reduceMagic}
}

// Divisor returns the prepared divisor.
func (s StrengthReduced[T]) Divisor() T { return T(s.divisor) }

// Div returns n / d.
func (s StrengthReduced[T]) Div(n T) T {
	return T(s.div(uint64(n)))
}

// Rem returns n % d.
func (s StrengthReduced[T]) Rem(n T) T {
	v := uint64(n)
	if s.kind == reducePow2 {
		return T(v & (s.divisor - 1))
	}
	return T(v - s.div(v)*s.divisor)
}

func (s StrengthReduced[T]) div(n uint64) uint64 {
	switch s.kind {
	case reducePow2:
		return n >> s.shift
	case reduceHigh:
		if n >= s.divisor {
			return 1
		}
		return 0
	}
	t, _ := bits.Mul64(s.multiplier, n)
	return (t + (n-t)>>1) >> (s.shift - 1)
}
