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

package bitutil_test

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/stretchr/testify/assert"
)

func bitmapFromSlice(vals []int, bitOffset int) []byte {
	out := make([]byte, int(bitutil.BytesForBits(int64(len(vals)+bitOffset))))
	writer := bitutil.NewBitmapWriter(out, bitOffset, len(vals))
	for _, val := range vals {
		if val == 1 {
			writer.Set()
		} else {
			writer.Clear()
		}
		writer.Next()
	}
	writer.Finish()

	return out
}

func assertReaderVals(t *testing.T, reader *bitutil.BitmapReader, vals []bool) {
	for _, v := range vals {
		assert.Equal(t, v, reader.Set())
		assert.Equal(t, !v, reader.NotSet())
		reader.Next()
	}
}

func TestReaderWriterOffsets(t *testing.T) {
	for _, offset := range []int{0, 1, 3, 5, 7, 8, 12, 13, 21, 38, 75, 120} {
		buf := bitmapFromSlice([]int{0, 1, 1, 1, 0, 0, 0, 1, 0, 1, 0, 1, 0, 1}, offset)

		reader := bitutil.NewBitmapReader(buf, offset, 14)
		assertReaderVals(t, reader, []bool{false, true, true, true, false, false, false, true, false, true, false, true, false, true})
	}
}

func TestReaderDoesNotReadOutOfBounds(t *testing.T) {
	var bitmap [16]byte
	const length = 128

	reader := bitutil.NewBitmapReader(bitmap[:], 5, length-5)
	assert.NotPanics(t, func() {
		for i := 0; i < length-5; i++ {
			assert.True(t, reader.NotSet())
			reader.Next()
		}
	})
	assert.Equal(t, length-5, reader.Pos())

	assert.NotPanics(t, func() { bitutil.NewBitmapReader(nil, 0, 0) })
}

func TestBitmapWriterPreservesSurroundingBits(t *testing.T) {
	for _, fillByte := range []byte{0x00, 0xFF} {
		bitmap := []byte{fillByte, fillByte, fillByte, fillByte}
		wr := bitutil.NewBitmapWriter(bitmap, 0, 12)
		wr.AppendBools([]bool{false, true, true, false, true, true, false, false, false, true, false, true})
		wr.Finish()
		// {0b00110110, 0b....1010, ........, ........}
		assert.Equal(t, []byte{0x36, (0x0A | (fillByte & 0xF0)), fillByte, fillByte}, bitmap)
	}
}

func TestSetBitsTo(t *testing.T) {
	tests := []struct {
		start, length int64
		set           bool
		fill          byte
		exp           []byte
	}{
		{0, 8, true, 0x00, []byte{0xFF, 0x00, 0x00}},
		{3, 2, true, 0x00, []byte{0x18, 0x00, 0x00}},
		{6, 4, true, 0x00, []byte{0xC0, 0x03, 0x00}},
		{4, 16, false, 0xFF, []byte{0x0F, 0x00, 0xF0}},
		{0, 24, false, 0xFF, []byte{0x00, 0x00, 0x00}},
		{5, 0, true, 0x00, []byte{0x00, 0x00, 0x00}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("start=%d,len=%d,set=%t", tt.start, tt.length, tt.set), func(t *testing.T) {
			buf := []byte{tt.fill, tt.fill, tt.fill}
			bitutil.SetBitsTo(buf, tt.start, tt.length, tt.set)
			assert.Equal(t, tt.exp, buf)
		})
	}
}

func TestCountSetBits(t *testing.T) {
	buf := make([]byte, 37)
	rand.New(rand.NewSource(1337)).Read(buf)

	naive := func(offset, n int) int {
		count := 0
		for i := offset; i < offset+n; i++ {
			if bitutil.BitIsSet(buf, i) {
				count++
			}
		}
		return count
	}

	for _, offset := range []int{0, 1, 3, 7, 8, 9, 63, 64, 65, 100} {
		for _, n := range []int{0, 1, 2, 7, 8, 9, 60, 64, 100, 190} {
			if offset+n > len(buf)*8 {
				continue
			}
			assert.Equal(t, naive(offset, n), bitutil.CountSetBits(buf, offset, n), "offset=%d n=%d", offset, n)
		}
	}
}

func TestCopyBitmap(t *testing.T) {
	const nbits = 250
	src := make([]byte, bitutil.BytesForBits(nbits))
	rand.New(rand.NewSource(0)).Read(src)

	for _, srcOffset := range []int{0, 1, 4, 8, 13, 64} {
		for _, dstOffset := range []int{0, 3, 8, 17} {
			for _, length := range []int{1, 7, 8, 9, 63, 128, 170} {
				for _, fill := range []byte{0x00, 0xFF} {
					dst := make([]byte, bitutil.BytesForBits(int64(dstOffset+length+11)))
					for i := range dst {
						dst[i] = fill
					}
					bitutil.CopyBitmap(src, srcOffset, length, dst, dstOffset)

					for i := 0; i < dstOffset; i++ {
						assert.Equal(t, fill != 0, bitutil.BitIsSet(dst, i))
					}
					for i := 0; i < length; i++ {
						assert.Equal(t, bitutil.BitIsSet(src, srcOffset+i), bitutil.BitIsSet(dst, dstOffset+i),
							"src=%d dst=%d len=%d bit=%d", srcOffset, dstOffset, length, i)
					}
					for i := dstOffset + length; i < len(dst)*8; i++ {
						assert.Equal(t, fill != 0, bitutil.BitIsSet(dst, i))
					}
				}
			}
		}
	}
}

func TestBitmapView(t *testing.T) {
	// 0b10110101, 0b00001111
	buf := memory.NewBufferBytes([]byte{0xB5, 0x0F})
	bm := bitutil.NewBitmap(buf, 0, 12)

	assert.Equal(t, 12, bm.Len())
	assert.Equal(t, 3, bm.UnsetBits())
	assert.True(t, bm.IsSet(0))
	assert.False(t, bm.IsSet(1))

	sl := bm.Slice(4, 8)
	assert.Equal(t, 4, sl.Offset())
	assert.Equal(t, 1, sl.UnsetBits())
	assert.Equal(t, []bool{true, true, false, true, true, true, true, true}, sl.Bools())

	allSet := bitutil.NewBitmapWithUnset(memory.NewBufferBytes([]byte{0xFF}), 0, 8, 0)
	assert.Zero(t, allSet.Slice(3, 4).UnsetBits())
}
