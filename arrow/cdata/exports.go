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

//go:build cgo
// +build cgo

package cdata

// #include <stdlib.h>
// #include "arrow/c/helpers.h"
import "C"

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ferrow-io/ferrow/arrow"
)

var (
	handles   = sync.Map{}
	handleIdx uintptr
)

type dataHandle uintptr

// storeData retains d and returns a handle that keeps it alive until
// releaseData is called.
func storeData(d arrow.ArrayData) dataHandle {
	h := atomic.AddUintptr(&handleIdx, 1)
	if h == 0 {
		panic("cdata: ran out of space")
	}
	d.Retain()
	handles.Store(h, d)
	return dataHandle(h)
}

func (d dataHandle) releaseData() {
	arrd, ok := handles.LoadAndDelete(uintptr(d))
	if !ok {
		panic("cdata: invalid datahandle")
	}
	arrd.(arrow.ArrayData).Release()
}

// privateData boxes the handle in C memory for the private_data pointer.
func (d dataHandle) privateData() unsafe.Pointer {
	p := (*uintptr)(C.malloc(C.size_t(unsafe.Sizeof(uintptr(0)))))
	*p = uintptr(d)
	return unsafe.Pointer(p)
}

func handleFromPrivateData(p unsafe.Pointer) dataHandle { return dataHandle(*(*uintptr)(p)) }

// liveHandles reports how many exported arrays have not been released.
func liveHandles() int {
	n := 0
	handles.Range(func(any, any) bool {
		n++
		return true
	})
	return n
}

func schemaChildren(schema *CArrowSchema) []*CArrowSchema {
	if schema.n_children <= 0 || schema.children == nil {
		return nil
	}
	return unsafe.Slice(schema.children, schema.n_children)
}

func arrayChildren(arr *CArrowArray) []*CArrowArray {
	if arr.n_children <= 0 || arr.children == nil {
		return nil
	}
	return unsafe.Slice(arr.children, arr.n_children)
}

func arrayBuffers(arr *CArrowArray) []unsafe.Pointer {
	if arr.n_buffers <= 0 || arr.buffers == nil {
		return nil
	}
	return unsafe.Slice(arr.buffers, arr.n_buffers)
}

//export releaseExportedSchema
func releaseExportedSchema(schema *CArrowSchema) {
	if C.ArrowSchemaIsReleased(schema) == 1 {
		return
	}
	defer C.ArrowSchemaMarkReleased(schema)

	C.free(unsafe.Pointer(schema.name))
	C.free(unsafe.Pointer(schema.format))
	C.free(unsafe.Pointer(schema.metadata))

	if children := schemaChildren(schema); len(children) > 0 {
		for _, c := range children {
			C.ArrowSchemaRelease(c)
		}
		// the children are one allocation, the first pointer addresses it
		C.free(unsafe.Pointer(children[0]))
		C.free(unsafe.Pointer(schema.children))
	}
	if schema.dictionary != nil {
		C.ArrowSchemaRelease(schema.dictionary)
		C.free(unsafe.Pointer(schema.dictionary))
	}
	schema.children, schema.dictionary = nil, nil
}

//export releaseExportedArray
func releaseExportedArray(arr *CArrowArray) {
	if C.ArrowArrayIsReleased(arr) == 1 {
		return
	}
	defer C.ArrowArrayMarkReleased(arr)

	if arr.buffers != nil {
		C.free(unsafe.Pointer(arr.buffers))
	}

	if children := arrayChildren(arr); len(children) > 0 {
		for _, c := range children {
			C.ArrowArrayRelease(c)
		}
		C.free(unsafe.Pointer(children[0]))
		C.free(unsafe.Pointer(arr.children))
	}
	if arr.dictionary != nil {
		C.ArrowArrayRelease(arr.dictionary)
		C.free(unsafe.Pointer(arr.dictionary))
	}

	handleFromPrivateData(arr.private_data).releaseData()
	C.free(arr.private_data)
	arr.buffers, arr.children, arr.dictionary, arr.private_data = nil, nil, nil, nil
}
