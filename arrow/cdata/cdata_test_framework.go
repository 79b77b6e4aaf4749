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

//go:build cgo && test
// +build cgo,test

package cdata

// #include <stdint.h>
// #include <stdlib.h>
// #include <string.h>
// #include "arrow/c/abi.h"
// #include "arrow/c/helpers.h"
//
// struct foreign_private {
//	int64_t* released;
//	int64_t n_buffers;
// };
//
// static void release_foreign_array(struct ArrowArray* array) {
//	struct foreign_private* priv = (struct foreign_private*)array->private_data;
//	for (int64_t i = 0; i < priv->n_buffers; ++i) {
//		free((void*)array->buffers[i]);
//	}
//	free(array->buffers);
//	++*priv->released;
//	free(priv);
//	array->buffers = NULL;
//	array->private_data = NULL;
//	ArrowArrayMarkReleased(array);
// }
//
// static struct ArrowArray* make_foreign_array(int64_t length, int64_t offset, int64_t null_count,
//		int64_t n_buffers, void** buffers, int64_t* released) {
//	struct ArrowArray* array = (struct ArrowArray*)calloc(1, sizeof(struct ArrowArray));
//	struct foreign_private* priv = (struct foreign_private*)malloc(sizeof(struct foreign_private));
//	priv->released = released;
//	priv->n_buffers = n_buffers;
//	array->length = length;
//	array->null_count = null_count;
//	array->offset = offset;
//	array->n_buffers = n_buffers;
//	array->buffers = (const void**)calloc(n_buffers + 1, sizeof(void*));
//	if (n_buffers > 0) {
//		memcpy(array->buffers, buffers, n_buffers * sizeof(void*));
//	}
//	array->release = &release_foreign_array;
//	array->private_data = priv;
//	return array;
// }
//
// static void release_foreign_schema(struct ArrowSchema* schema) {
//	free((void*)schema->format);
//	ArrowSchemaMarkReleased(schema);
// }
//
// static struct ArrowSchema* make_foreign_schema(const char* format) {
//	struct ArrowSchema* schema = (struct ArrowSchema*)calloc(1, sizeof(struct ArrowSchema));
//	schema->format = format;
//	schema->release = &release_foreign_schema;
//	return schema;
// }
import "C"

import "unsafe"

// foreignProducer hands out descriptors the way another runtime would: the
// buffers are copied to C memory and a C release callback frees them and
// counts its calls.
type foreignProducer struct {
	released *C.int64_t
}

func newForeignProducer() *foreignProducer {
	return &foreignProducer{released: (*C.int64_t)(C.calloc(1, C.sizeof_int64_t))}
}

// array returns a C allocated descriptor; a nil entry in buffers stays a
// null buffer pointer.
func (f *foreignProducer) array(length, offset, nullCount int64, buffers ...[]byte) *CArrowArray {
	cbufs := make([]unsafe.Pointer, len(buffers)+1)
	for i, b := range buffers {
		if b != nil {
			cbufs[i] = C.CBytes(b)
		}
	}
	return C.make_foreign_array(C.int64_t(length), C.int64_t(offset), C.int64_t(nullCount),
		C.int64_t(len(buffers)), &cbufs[0], f.released)
}

func (f *foreignProducer) releases() int { return int(*f.released) }

func (f *foreignProducer) close() { C.free(unsafe.Pointer(f.released)) }

func foreignSchema(format string) *CArrowSchema {
	return C.make_foreign_schema(C.CString(format))
}

func freeArrayDescriptor(arr *CArrowArray) { C.free(unsafe.Pointer(arr)) }

func freeSchemaDescriptor(schema *CArrowSchema) { C.free(unsafe.Pointer(schema)) }

func schemaFormat(schema *CArrowSchema) string { return C.GoString(schema.format) }

func schemaName(schema *CArrowSchema) string { return C.GoString(schema.name) }
