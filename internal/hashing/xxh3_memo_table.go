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

// Package hashing provides hash tables which map values to the dense
// insertion order index they were first seen at. They back dictionary
// encoding.
package hashing

import (
	"bytes"
	"math"

	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"golang.org/x/exp/constraints"
)

const (
	sentinel   uint64 = 0
	loadFactor int64  = 2
)

// KeyNotFound is returned by Get when the value has not been inserted.
const KeyNotFound = -1

func max(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// fixHash keeps the sentinel value free to mark empty entries.
func fixHash(h uint64) uint64 {
	if h == sentinel {
		return 42
	}
	return h
}

type entry[T any] struct {
	h       uint64
	val     T
	memoIdx int32
}

func (e entry[T]) Valid() bool { return e.h != sentinel }

// hashTable is an open addressing table with perturbed probing. It stores
// for each value the index at which it was inserted.
type hashTable[T any] struct {
	cap     uint64
	capMask uint64
	size    uint64

	entries []entry[T]
}

func newHashTable[T any](cap uint64) *hashTable[T] {
	initCap := uint64(bitutil.NextPowerOf2(int(max(cap, 32))))
	ret := &hashTable[T]{cap: initCap, capMask: initCap - 1}
	ret.entries = make([]entry[T], initCap)
	return ret
}

func (h *hashTable[T]) lookup(v uint64, cmp func(T) bool) (*entry[T], bool) {
	idx, ok := h.lookupInternal(v, h.capMask, cmp)
	return &h.entries[idx], ok
}

func (h *hashTable[T]) lookupInternal(v, szMask uint64, cmp func(T) bool) (uint64, bool) {
	const perturbShift uint8 = 5

	var (
		idx     uint64
		perturb uint64
		e       *entry[T]
	)

	v = fixHash(v)
	idx = v & szMask
	perturb = (v >> uint64(perturbShift)) + 1

	for {
		e = &h.entries[idx]
		if e.h == v && cmp(e.val) {
			return idx, true
		}

		if e.h == sentinel {
			return idx, false
		}

		// perturbation logic inspired from CPython's set/dict object
		// the goal is that all 64 bits of unmasked hash value eventually
		// participate in the probing sequence, to minimize clustering
		idx = (idx + perturb) & szMask
		perturb = (perturb >> uint64(perturbShift)) + 1
	}
}

func (h *hashTable[T]) upsize(newcap uint64) {
	newMask := newcap - 1

	oldEntries := h.entries
	h.entries = make([]entry[T], newcap)
	for _, e := range oldEntries {
		if e.Valid() {
			idx, _ := h.lookupInternal(e.h, newMask, func(T) bool { return false })
			h.entries[idx] = e
		}
	}
	h.cap = newcap
	h.capMask = newMask
}

func (h *hashTable[T]) insert(e *entry[T], v uint64, val T, memoIdx int32) {
	e.h = fixHash(v)
	e.val = val
	e.memoIdx = memoIdx
	h.size++

	if int64(h.size)*loadFactor >= int64(h.cap) {
		h.upsize(h.cap * uint64(loadFactor) * 2)
	}
}

// Hashable is the set of fixed width values a ScalarMemoTable can hold.
type Hashable interface {
	constraints.Integer | constraints.Float
}

// ScalarMemoTable assigns each distinct fixed width value the index of its
// first insertion. Floating point NaNs are all treated as one value.
type ScalarMemoTable[T Hashable] struct {
	tbl    *hashTable[T]
	values []T
}

// NewScalarMemoTable returns a table with room for num values before it
// has to grow.
func NewScalarMemoTable[T Hashable](num int64) *ScalarMemoTable[T] {
	return &ScalarMemoTable[T]{tbl: newHashTable[T](uint64(num))}
}

// Size returns the number of distinct values inserted.
func (s *ScalarMemoTable[T]) Size() int { return len(s.values) }

// Reset drops every value.
func (s *ScalarMemoTable[T]) Reset() {
	s.tbl = newHashTable[T](s.tbl.cap)
	s.values = s.values[:0]
}

func hashScalar[T Hashable](v T) uint64 {
	switch v := any(v).(type) {
	case float32:
		return hashFloat64(float64(v), 0)
	case float64:
		return hashFloat64(v, 0)
	case int8:
		return hashInt(uint64(v), 0)
	case int16:
		return hashInt(uint64(v), 0)
	case int32:
		return hashInt(uint64(v), 0)
	case int64:
		return hashInt(uint64(v), 0)
	case int:
		return hashInt(uint64(v), 0)
	case uint8:
		return hashInt(uint64(v), 0)
	case uint16:
		return hashInt(uint64(v), 0)
	case uint32:
		return hashInt(uint64(v), 0)
	case uint64:
		return hashInt(v, 0)
	case uint:
		return hashInt(uint64(v), 0)
	case uintptr:
		return hashInt(uint64(v), 0)
	}
	panic("unreachable")
}

func isNaN[T Hashable](v T) bool { return v != v }

func scalarCmp[T Hashable](val T) func(T) bool {
	if isNaN(val) {
		return func(v T) bool { return isNaN(v) }
	}
	return func(v T) bool { return v == val }
}

// Get returns the index of val, or KeyNotFound.
func (s *ScalarMemoTable[T]) Get(val T) (int, bool) {
	e, ok := s.tbl.lookup(hashScalar(val), scalarCmp(val))
	if ok {
		return int(e.memoIdx), ok
	}
	return KeyNotFound, false
}

// GetOrInsert returns the index of val, inserting it at the next index
// when it has not been seen before.
func (s *ScalarMemoTable[T]) GetOrInsert(val T) (idx int, found bool) {
	h := hashScalar(val)
	e, ok := s.tbl.lookup(h, scalarCmp(val))
	if ok {
		return int(e.memoIdx), true
	}
	idx = len(s.values)
	s.tbl.insert(e, h, val, int32(idx))
	s.values = append(s.values, val)
	return idx, false
}

// Values returns the distinct values in insertion order.
func (s *ScalarMemoTable[T]) Values() []T { return s.values }

// BinaryMemoTable assigns each distinct byte string the index of its first
// insertion. The strings are stored contiguously with int32 offsets.
type BinaryMemoTable struct {
	tbl     *hashTable[int32]
	offsets []int32
	data    []byte
}

// NewBinaryMemoTable returns a table with room for num values and
// dataLen bytes of value data before it has to grow.
func NewBinaryMemoTable(num, dataLen int64) *BinaryMemoTable {
	offsets := make([]int32, 1, num+1)
	return &BinaryMemoTable{
		tbl:     newHashTable[int32](uint64(num)),
		offsets: offsets,
		data:    make([]byte, 0, dataLen),
	}
}

// Size returns the number of distinct values inserted.
func (b *BinaryMemoTable) Size() int { return len(b.offsets) - 1 }

// Reset drops every value.
func (b *BinaryMemoTable) Reset() {
	b.tbl = newHashTable[int32](b.tbl.cap)
	b.offsets = b.offsets[:1]
	b.data = b.data[:0]
}

func (b *BinaryMemoTable) value(i int32) []byte {
	return b.data[b.offsets[i]:b.offsets[i+1]]
}

func (b *BinaryMemoTable) cmp(val []byte) func(int32) bool {
	return func(i int32) bool { return bytes.Equal(b.value(i), val) }
}

// Get returns the index of val, or KeyNotFound.
func (b *BinaryMemoTable) Get(val []byte) (int, bool) {
	e, ok := b.tbl.lookup(Hash(val, 0), b.cmp(val))
	if ok {
		return int(e.memoIdx), true
	}
	return KeyNotFound, false
}

// GetOrInsert returns the index of val, inserting a copy of it at the
// next index when it has not been seen before.
func (b *BinaryMemoTable) GetOrInsert(val []byte) (idx int, found bool) {
	h := Hash(val, 0)
	e, ok := b.tbl.lookup(h, b.cmp(val))
	if ok {
		return int(e.memoIdx), true
	}
	if len(b.data)+len(val) > math.MaxInt32 {
		panic("hashing: binary memo table exceeds int32 offsets")
	}
	idx = b.Size()
	b.data = append(b.data, val...)
	b.offsets = append(b.offsets, int32(len(b.data)))
	b.tbl.insert(e, h, int32(idx), int32(idx))
	return idx, false
}

// Value returns the i-th distinct value. It aliases the table's storage.
func (b *BinaryMemoTable) Value(i int) []byte { return b.value(int32(i)) }

// Offsets returns the Size()+1 offsets of the values into ValuesData.
func (b *BinaryMemoTable) Offsets() []int32 { return b.offsets }

// ValuesData returns the concatenated bytes of every distinct value.
func (b *BinaryMemoTable) ValuesData() []byte { return b.data }

// ValuesSize returns the number of bytes in ValuesData.
func (b *BinaryMemoTable) ValuesSize() int { return len(b.data) }
