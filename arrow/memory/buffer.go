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

package memory

import (
	"sync/atomic"

	"github.com/ferrow-io/ferrow/arrow/internal/debug"
)

// Buffer is a reference counted region of bytes. A Buffer created by an
// allocator returns its memory when the last reference is released; a
// slice of a Buffer keeps its parent alive instead.
type Buffer struct {
	refCount int64
	buf      []byte
	length   int
	mutable  bool
	mem      Allocator

	parent *Buffer
}

// NewBufferBytes wraps b without copying. The Go runtime owns b.
func NewBufferBytes(b []byte) *Buffer {
	return &Buffer{refCount: 0, buf: b, length: len(b)}
}

// NewBufferWithAllocator wraps memory that will be handed back to mem via
// Free once the last reference is released.
func NewBufferWithAllocator(data []byte, mem Allocator) *Buffer {
	return &Buffer{refCount: 1, buf: data, length: len(data), mem: mem}
}

// NewResizableBuffer creates a mutable, empty buffer that allocates from mem.
func NewResizableBuffer(mem Allocator) *Buffer {
	return &Buffer{refCount: 1, mutable: true, mem: mem}
}

// SliceBuffer returns a view of length bytes starting at offset. The view
// retains buf until the view itself is released.
func SliceBuffer(buf *Buffer, offset, length int) *Buffer {
	buf.Retain()
	return &Buffer{refCount: 1, parent: buf, buf: buf.Bytes()[offset : offset+length], length: length}
}

// Parent returns the buffer this one was sliced from, or nil.
func (b *Buffer) Parent() *Buffer { return b.parent }

func (b *Buffer) Retain() {
	if b.mem != nil || b.parent != nil {
		atomic.AddInt64(&b.refCount, 1)
	}
}

func (b *Buffer) Release() {
	if b.mem != nil || b.parent != nil {
		debug.Assert(atomic.LoadInt64(&b.refCount) > 0, "too many releases")

		if atomic.AddInt64(&b.refCount, -1) == 0 {
			if b.mem != nil {
				b.mem.Free(b.buf)
			} else {
				b.parent.Release()
				b.parent = nil
			}
			b.buf, b.length = nil, 0
		}
	}
}

// Reset replaces the contents of the buffer with buf without copying.
func (b *Buffer) Reset(buf []byte) {
	if b.parent != nil {
		b.parent.Release()
		b.parent = nil
	}
	b.buf = buf
	b.length = len(buf)
}

// Buf returns the full backing slice, including capacity past Len.
func (b *Buffer) Buf() []byte { return b.buf }

// Bytes returns the first Len bytes of the buffer.
func (b *Buffer) Bytes() []byte { return b.buf[:b.length] }

func (b *Buffer) Mutable() bool { return b.mutable }

func (b *Buffer) Len() int { return b.length }

func (b *Buffer) Cap() int { return len(b.buf) }

// Reserve grows the capacity to at least capacity bytes, rounded up to a
// multiple of 64. It panics on an immutable buffer.
func (b *Buffer) Reserve(capacity int) {
	if capacity > len(b.buf) {
		newCap := roundUpToMultipleOf64(capacity)
		if len(b.buf) == 0 {
			b.buf = b.mem.Allocate(newCap)
		} else {
			b.buf = b.mem.Reallocate(newCap, b.buf)
		}
	}
}

// Resize sets the length of the buffer, growing the capacity as needed and
// shrinking it when newSize is much smaller.
func (b *Buffer) Resize(newSize int) {
	b.resize(newSize, true)
}

// ResizeNoShrink sets the length without ever reducing capacity.
func (b *Buffer) ResizeNoShrink(newSize int) {
	b.resize(newSize, false)
}

func (b *Buffer) resize(newSize int, shrink bool) {
	if !shrink || newSize > b.length {
		b.Reserve(newSize)
	} else {
		newCap := roundUpToMultipleOf64(newSize)
		if len(b.buf) != newCap {
			if newSize == 0 {
				b.mem.Free(b.buf)
				b.buf = nil
			} else {
				b.buf = b.mem.Reallocate(newCap, b.buf)
			}
		}
	}
	b.length = newSize
}
