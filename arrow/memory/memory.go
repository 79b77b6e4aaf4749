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

// Package memory provides the allocators and reference counted buffers that
// back every array in ferrow.
package memory

import "golang.org/x/sys/cpu"

var memset func(b []byte, c byte)

func init() {
	// runtime copy is vectorized on these targets, so doubling copies win
	// over a byte loop once the buffer is more than a few words long.
	if cpu.X86.HasAVX2 || cpu.X86.HasSSE42 || cpu.ARM64.HasASIMD {
		memset = memsetDoubling
	} else {
		memset = memsetGo
	}
}

// Set assigns the value c to every element of buf.
func Set(buf []byte, c byte) {
	memset(buf, c)
}

func memsetGo(buf []byte, c byte) {
	for i := range buf {
		buf[i] = c
	}
}

func memsetDoubling(buf []byte, c byte) {
	if len(buf) == 0 {
		return
	}
	buf[0] = c
	for filled := 1; filled < len(buf); filled *= 2 {
		copy(buf[filled:], buf[:filled])
	}
}
