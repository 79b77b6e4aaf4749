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
	"os"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"unsafe"
)

// CheckedAllocator wraps another Allocator and records every live
// allocation together with the caller that made it, so tests can assert
// that all buffers were released.
type CheckedAllocator struct {
	mem Allocator
	sz  int64

	allocs sync.Map
}

func NewCheckedAllocator(mem Allocator) *CheckedAllocator {
	return &CheckedAllocator{mem: mem}
}

func (a *CheckedAllocator) CurrentAlloc() int { return int(atomic.LoadInt64(&a.sz)) }

func (a *CheckedAllocator) Allocate(size int) []byte {
	atomic.AddInt64(&a.sz, int64(size))
	out := a.mem.Allocate(size)
	if size == 0 {
		return out
	}

	if pc, _, l, ok := runtime.Caller(callerFrames); ok {
		a.allocs.Store(pointerOf(out), &dalloc{pc: pc, line: l, sz: size})
	}
	return out
}

func (a *CheckedAllocator) Reallocate(size int, b []byte) []byte {
	atomic.AddInt64(&a.sz, int64(size-len(b)))

	if len(b) > 0 {
		a.allocs.Delete(pointerOf(b))
	}
	out := a.mem.Reallocate(size, b)
	if size == 0 {
		return out
	}

	if pc, _, l, ok := runtime.Caller(callerFrames - 1); ok {
		a.allocs.Store(pointerOf(out), &dalloc{pc: pc, line: l, sz: size})
	}
	return out
}

func (a *CheckedAllocator) Free(b []byte) {
	atomic.AddInt64(&a.sz, int64(len(b)*-1))
	defer a.mem.Free(b)

	if len(b) == 0 {
		return
	}
	a.allocs.Delete(pointerOf(b))
}

func pointerOf(b []byte) uintptr { return uintptr(unsafe.Pointer(&b[0])) }

// allocations normally come from inside Buffer.Resize, skip those frames
// to report the code that asked for the buffer.
const defCallerFrames = 4

// FERROW_CHECKED_ALLOC_FRAMES overrides how many frames are skipped when
// recording the caller of an allocation.
var callerFrames = defCallerFrames

func init() {
	if val, ok := os.LookupEnv("FERROW_CHECKED_ALLOC_FRAMES"); ok {
		if f, err := strconv.Atoi(val); err == nil && f > 0 {
			callerFrames = f
		}
	}
}

type dalloc struct {
	pc   uintptr
	line int
	sz   int
}

// TestingT is the subset of testing.TB used to report leaks.
type TestingT interface {
	Errorf(format string, args ...interface{})
	Helper()
}

// AssertSize reports every outstanding allocation and fails t when the
// number of live bytes differs from sz.
func (a *CheckedAllocator) AssertSize(t TestingT, sz int) {
	t.Helper()
	if sz == 0 {
		a.allocs.Range(func(_, value interface{}) bool {
			info := value.(*dalloc)
			f := runtime.FuncForPC(info.pc)
			t.Errorf("LEAK of %d bytes FROM %s line %d\n", info.sz, f.Name(), info.line)
			return true
		})
	}

	if cur := int(atomic.LoadInt64(&a.sz)); cur != sz {
		t.Errorf("invalid memory size exp=%d, got=%d", sz, cur)
	}
}

// CheckedAllocatorScope snapshots the live size of a CheckedAllocator so a
// block of code can be checked for leaks in isolation.
type CheckedAllocatorScope struct {
	alloc *CheckedAllocator
	sz    int
}

func NewCheckedAllocatorScope(alloc *CheckedAllocator) *CheckedAllocatorScope {
	return &CheckedAllocatorScope{alloc: alloc, sz: alloc.CurrentAlloc()}
}

func (c *CheckedAllocatorScope) CheckSize(t TestingT) {
	if sz := c.alloc.CurrentAlloc(); c.sz != sz {
		t.Helper()
		t.Errorf("invalid memory size exp=%d, got=%d", c.sz, sz)
	}
}

var (
	_ Allocator = (*CheckedAllocator)(nil)
)
