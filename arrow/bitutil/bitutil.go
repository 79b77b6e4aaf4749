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

// Package bitutil contains the bit manipulation helpers used for validity
// bitmaps and packed boolean values, and the Bitmap view type.
package bitutil

import (
	"encoding/binary"
	"math/bits"
)

var (
	BitMask          = [8]byte{1, 2, 4, 8, 16, 32, 64, 128}
	FlippedBitMask   = [8]byte{254, 253, 251, 247, 239, 223, 191, 127}
	PrecedingBitmask = [8]byte{0, 1, 3, 7, 15, 31, 63, 127}
)

// IsMultipleOf8 returns whether v is a multiple of 8.
func IsMultipleOf8(v int64) bool { return v&7 == 0 }

// IsMultipleOf64 returns whether v is a multiple of 64.
func IsMultipleOf64(v int64) bool { return v&63 == 0 }

// BytesForBits returns the number of bytes needed to hold bits.
func BytesForBits(bits int64) int64 { return (bits + 7) >> 3 }

// NextPowerOf2 rounds x to the next power of two.
func NextPowerOf2(x int) int { return 1 << uint(bits.Len(uint(x))) }

// CeilByte rounds size to the next multiple of 8.
func CeilByte(size int) int { return (size + 7) &^ 7 }

// BitIsSet returns true if the bit at index i in buf is set (1).
func BitIsSet(buf []byte, i int) bool { return (buf[uint(i)/8] & BitMask[byte(i)%8]) != 0 }

// BitIsNotSet returns true if the bit at index i in buf is not set (0).
func BitIsNotSet(buf []byte, i int) bool { return (buf[uint(i)/8] & BitMask[byte(i)%8]) == 0 }

// SetBit sets the bit at index i in buf to 1.
func SetBit(buf []byte, i int) { buf[uint(i)/8] |= BitMask[byte(i)%8] }

// ClearBit sets the bit at index i in buf to 0.
func ClearBit(buf []byte, i int) { buf[uint(i)/8] &= FlippedBitMask[byte(i)%8] }

// SetBitTo sets the bit at index i in buf to val.
func SetBitTo(buf []byte, i int, val bool) {
	if val {
		SetBit(buf, i)
	} else {
		ClearBit(buf, i)
	}
}

// SetBitsTo sets length bits starting at startOffset to the value of areSet.
func SetBitsTo(bits []byte, startOffset, length int64, areSet bool) {
	if length == 0 {
		return
	}

	beg, end := startOffset, startOffset+length
	var fill uint8
	if areSet {
		fill = 0xFF
	}

	byteBeg, byteEnd := beg/8, end/8
	firstMask := uint8(0xFF) >> (8 - uint(beg%8)) // bits below beg
	lastMask := uint8(0xFF) << uint(end%8)        // bits at or above end

	if byteBeg == byteEnd {
		keep := firstMask | lastMask
		bits[byteBeg] = (bits[byteBeg] & keep) | (fill &^ keep)
		return
	}

	bits[byteBeg] = (bits[byteBeg] & firstMask) | (fill &^ firstMask)
	for i := byteBeg + 1; i < byteEnd; i++ {
		bits[i] = fill
	}
	if end%8 != 0 {
		bits[byteEnd] = (bits[byteEnd] & lastMask) | (fill &^ lastMask)
	}
}

// CountSetBits counts the number of 1's in buf in the n bits starting at
// bit offset.
func CountSetBits(buf []byte, offset, n int) int {
	if n <= 0 {
		return 0
	}

	count := 0
	pos, end := offset, offset+n

	// leading bits up to a byte boundary
	for ; pos < end && pos%8 != 0; pos++ {
		if BitIsSet(buf, pos) {
			count++
		}
	}
	if pos == end {
		return count
	}

	bytes := buf[pos/8 : end/8]
	for len(bytes) >= 8 {
		count += bits.OnesCount64(binary.LittleEndian.Uint64(bytes))
		bytes = bytes[8:]
	}
	for _, v := range bytes {
		count += bits.OnesCount8(v)
	}

	for pos = end &^ 7; pos < end; pos++ {
		if BitIsSet(buf, pos) {
			count++
		}
	}
	return count
}
