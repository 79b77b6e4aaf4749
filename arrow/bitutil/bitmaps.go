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

package bitutil

// BitmapReader reads a bitmap one bit at a time.
type BitmapReader struct {
	bitmap []byte
	pos    int
	len    int

	current    byte
	byteOffset int
	bitOffset  int
}

// NewBitmapReader creates a reader over length bits of bitmap starting at
// bit offset.
func NewBitmapReader(bitmap []byte, offset, length int) *BitmapReader {
	curbyte := byte(0)
	if length > 0 && bitmap != nil {
		curbyte = bitmap[offset/8]
	}
	return &BitmapReader{
		bitmap:     bitmap,
		byteOffset: offset / 8,
		bitOffset:  offset % 8,
		current:    curbyte,
		len:        length,
	}
}

// Set returns true if the current bit is set.
func (b *BitmapReader) Set() bool {
	return (b.current & (1 << b.bitOffset)) != 0
}

// NotSet returns true if the current bit is not set.
func (b *BitmapReader) NotSet() bool {
	return (b.current & (1 << b.bitOffset)) == 0
}

// Next advances the reader to the next bit.
func (b *BitmapReader) Next() {
	b.bitOffset++
	b.pos++
	if b.bitOffset == 8 {
		b.bitOffset = 0
		b.byteOffset++
		if b.pos < b.len {
			b.current = b.bitmap[b.byteOffset]
		}
	}
}

func (b *BitmapReader) Pos() int { return b.pos }
func (b *BitmapReader) Len() int { return b.len }

// BitmapWriter writes a bitmap one bit at a time, keeping the bits around
// the written range intact.
type BitmapWriter struct {
	buf    []byte
	pos    int
	length int

	curByte    uint8
	bitMask    uint8
	byteOffset int
}

// NewBitmapWriter returns a writer for length bits of bitmap starting at
// bit offset start.
func NewBitmapWriter(bitmap []byte, start, length int) *BitmapWriter {
	ret := &BitmapWriter{
		buf:        bitmap,
		length:     length,
		byteOffset: start / 8,
		bitMask:    BitMask[start%8],
	}
	if length > 0 {
		ret.curByte = bitmap[ret.byteOffset]
	}
	return ret
}

func (b *BitmapWriter) Pos() int { return b.pos }
func (b *BitmapWriter) Set()     { b.curByte |= b.bitMask }
func (b *BitmapWriter) Clear()   { b.curByte &= ^b.bitMask }

// Next moves the writer to the next bit.
func (b *BitmapWriter) Next() {
	b.bitMask = b.bitMask << 1
	b.pos++
	if b.bitMask == 0 {
		b.bitMask = 0x01
		b.buf[b.byteOffset] = b.curByte
		b.byteOffset++
		if b.pos < b.length {
			b.curByte = b.buf[b.byteOffset]
		}
	}
}

// AppendBools writes the values of in and returns how many were written.
func (b *BitmapWriter) AppendBools(in []bool) int {
	n := min(b.length-b.pos, len(in))
	for _, v := range in[:n] {
		if v {
			b.Set()
		} else {
			b.Clear()
		}
		b.Next()
	}
	return n
}

// Finish flushes the final partial byte.
func (b *BitmapWriter) Finish() {
	if b.length > 0 && (b.bitMask != 0x01 || b.pos < b.length) {
		b.buf[b.byteOffset] = b.curByte
	}
}

// loadByte returns the 8 bits of src starting at bit offset pos. Bits past
// the end of src read as zero.
func loadByte(src []byte, pos int) byte {
	idx, shift := pos/8, uint(pos%8)
	v := src[idx] >> shift
	if shift != 0 && idx+1 < len(src) {
		v |= src[idx+1] << (8 - shift)
	}
	return v
}

// CopyBitmap copies length bits of src starting at srcOffset into dst
// starting at dstOffset. Bits of dst outside the range are preserved.
func CopyBitmap(src []byte, srcOffset, length int, dst []byte, dstOffset int) {
	if length == 0 {
		return
	}

	if srcOffset%8 == 0 && dstOffset%8 == 0 {
		nbytes := int(BytesForBits(int64(length)))
		src = src[srcOffset/8:]
		dst = dst[dstOffset/8:]

		copy(dst, src[:nbytes-1])
		// keep the high bits of the last destination byte
		trailingBits := nbytes*8 - length
		trailMask := byte(uint(1)<<(8-trailingBits)) - 1
		dst[nbytes-1] = (dst[nbytes-1] &^ trailMask) | (src[nbytes-1] & trailMask)
		return
	}

	// unaligned: gather a byte of source bits at a time and scatter it
	// into the destination around its bit offset
	wr := NewBitmapWriter(dst, dstOffset, length)
	for done := 0; done < length; {
		v := loadByte(src, srcOffset+done)
		n := min(8, length-done)
		for i := 0; i < n; i++ {
			if v&(1<<uint(i)) != 0 {
				wr.Set()
			} else {
				wr.Clear()
			}
			wr.Next()
		}
		done += n
	}
	wr.Finish()
}

// ToBools expands length bits of bitmap starting at offset into bools.
func ToBools(bitmap []byte, offset, length int) []bool {
	out := make([]bool, length)
	for i := range out {
		out[i] = BitIsSet(bitmap, offset+i)
	}
	return out
}
