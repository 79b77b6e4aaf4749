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

package bitutils

import (
	"encoding/binary"
	"fmt"
	"math/bits"

	"github.com/ferrow-io/ferrow/arrow/bitutil"
)

// BitRun represents a run of bits with the same value of length Len
// with Set representing if the group of bits were 1 or 0.
type BitRun struct {
	Len int64
	Set bool
}

func (b BitRun) String() string {
	return fmt.Sprintf("{Length: %d, set=%t}", b.Len, b.Set)
}

// bitScanner locates bit transitions inside the window [start, end) of a
// bitmap, using whole words wherever the position is 64-bit aligned.
type bitScanner struct {
	bitmap     []byte
	start, end int64
}

func (s bitScanner) word(pos int64) uint64 {
	return binary.LittleEndian.Uint64(s.bitmap[pos/8:])
}

// next returns the first position >= pos whose bit equals want, or end.
func (s bitScanner) next(pos int64, want bool) int64 {
	for pos < s.end {
		if bitutil.IsMultipleOf64(pos) && pos+wordBits <= s.end {
			w := s.word(pos)
			if !want {
				w = ^w
			}
			if w == 0 {
				pos += wordBits
				continue
			}
			return pos + int64(bits.TrailingZeros64(w))
		}
		if bitutil.BitIsSet(s.bitmap, int(pos)) == want {
			return pos
		}
		pos++
	}
	return s.end
}

// BitRunReader is a reader for reading contiguous runs of set or unset bits
// from a bitmap. Runs alternate between set and unset until the end of the
// window, after which a zero-length run is returned.
type BitRunReader struct {
	scan bitScanner
	pos  int64
}

// NewBitRunReader returns a reader for the given bitmap, offset and length that
// grabs runs of the same value bit at a time for easy iteration.
func NewBitRunReader(bitmap []byte, offset int64, length int64) *BitRunReader {
	return &BitRunReader{
		scan: bitScanner{bitmap: bitmap, start: offset, end: offset + length},
		pos:  offset,
	}
}

// NextRun returns a new BitRun containing the number of contiguous bits with the
// same value. Len == 0 indicates the end of the bitmap.
func (b *BitRunReader) NextRun() BitRun {
	if b.pos >= b.scan.end {
		return BitRun{0, false}
	}

	set := bitutil.BitIsSet(b.scan.bitmap, int(b.pos))
	start := b.pos
	b.pos = b.scan.next(b.pos, !set)
	return BitRun{Len: b.pos - start, Set: set}
}
