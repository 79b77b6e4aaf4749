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

import (
	"sync/atomic"

	"github.com/ferrow-io/ferrow/arrow/memory"
)

const unknownUnset = -1

// Bitmap is an immutable view over length bits of a buffer starting at a
// bit offset. The number of unset bits is computed on first use and then
// cached. A Bitmap does not hold a reference to its buffer; it is valid
// for as long as the owner of the buffer is.
type Bitmap struct {
	buf    *memory.Buffer
	offset int
	length int
	unset  int64
}

// NewBitmap returns a view of length bits of buf starting at bit offset.
func NewBitmap(buf *memory.Buffer, offset, length int) *Bitmap {
	return &Bitmap{buf: buf, offset: offset, length: length, unset: unknownUnset}
}

// NewBitmapWithUnset is NewBitmap for callers that already know how many
// bits are unset.
func NewBitmapWithUnset(buf *memory.Buffer, offset, length, unset int) *Bitmap {
	return &Bitmap{buf: buf, offset: offset, length: length, unset: int64(unset)}
}

func (b *Bitmap) Buffer() *memory.Buffer { return b.buf }
func (b *Bitmap) Bytes() []byte          { return b.buf.Bytes() }
func (b *Bitmap) Offset() int            { return b.offset }
func (b *Bitmap) Len() int               { return b.length }

// IsSet reports whether bit i of the view is set.
func (b *Bitmap) IsSet(i int) bool { return BitIsSet(b.buf.Bytes(), b.offset+i) }

// UnsetBits returns the number of unset bits in the view.
func (b *Bitmap) UnsetBits() int {
	n := atomic.LoadInt64(&b.unset)
	if n == unknownUnset {
		n = int64(b.length - CountSetBits(b.buf.Bytes(), b.offset, b.length))
		atomic.StoreInt64(&b.unset, n)
	}
	return int(n)
}

// Slice returns a view of length bits starting at bit off of this view.
// The unset count carries over when it is already known to be zero or
// equal to the full length.
func (b *Bitmap) Slice(off, length int) *Bitmap {
	out := NewBitmap(b.buf, b.offset+off, length)
	switch atomic.LoadInt64(&b.unset) {
	case 0:
		out.unset = 0
	case int64(b.length):
		out.unset = int64(length)
	}
	return out
}

// Bools expands the view into a slice of bools.
func (b *Bitmap) Bools() []bool { return ToBools(b.buf.Bytes(), b.offset, b.length) }
