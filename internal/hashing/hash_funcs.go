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

package hashing

import (
	"math"
	"math/bits"
	"unsafe"

	"github.com/zeebo/xxh3"
)

// two of xxhash's prime multipliers
var primes = [2]uint64{11400714785074694791, 14029467366897019727}

func hashInt(val uint64, alg uint64) uint64 {
	// the multiplication leaves the low bits with poor entropy, byte
	// swapping moves the well mixed high bits down
	return bits.ReverseBytes64(primes[alg] * val)
}

func hashFloat64(val float64, alg uint64) uint64 {
	if math.IsNaN(val) {
		// all NaN payloads compare and hash alike
		val = math.NaN()
	}
	return hashInt(math.Float64bits(val), alg) ^ 0x9e3779b97f4a7c15
}

func hashString(val string, alg uint64) uint64 {
	buf := unsafe.Slice(unsafe.StringData(val), len(val))
	return Hash(buf, alg)
}

// Hash computes a 64-bit hash of b. Different values of alg produce
// independent hashes of the same input.
func Hash(b []byte, alg uint64) uint64 {
	return xxh3.HashSeed(b, primes[alg&1])
}
