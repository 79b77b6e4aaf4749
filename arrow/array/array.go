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

package array

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/bitutil"
	"github.com/ferrow-io/ferrow/arrow/internal/debug"
	"github.com/goccy/go-json"
)

// A type which satisfies arrow.Array and represents the shared state of
// every concrete array.
type array struct {
	refCount        int64
	data            *Data
	nullBitmapBytes []byte
	validity        *bitutil.Bitmap
}

// Retain increases the reference count by 1.
// Retain may be called simultaneously from multiple goroutines.
func (a *array) Retain() {
	atomic.AddInt64(&a.refCount, 1)
}

// Release decreases the reference count by 1.
// Release may be called simultaneously from multiple goroutines.
// When the reference count goes to zero, the memory is freed.
func (a *array) Release() {
	debug.Assert(atomic.LoadInt64(&a.refCount) > 0, "too many releases")

	if atomic.AddInt64(&a.refCount, -1) == 0 {
		a.data.Release()
		a.data, a.nullBitmapBytes, a.validity = nil, nil, nil
	}
}

// DataType returns the type metadata for this instance.
func (a *array) DataType() arrow.DataType { return a.data.dtype }

// NullN returns the number of null values in the array.
func (a *array) NullN() int { return a.data.NullN() }

// NullBitmapBytes returns a byte slice of the validity bitmap.
func (a *array) NullBitmapBytes() []byte { return a.nullBitmapBytes }

// Validity returns a view of the validity bitmap or nil when the array has
// no validity buffer. The view is only valid while the array is alive.
func (a *array) Validity() *bitutil.Bitmap { return a.validity }

func (a *array) Data() arrow.ArrayData { return a.data }

// Len returns the number of elements in the array.
func (a *array) Len() int { return a.data.length }

// Offset returns the element offset into the underlying buffers.
func (a *array) Offset() int { return a.data.offset }

// IsNull returns true if value at index is null.
// NOTE: IsNull will panic if NullBitmapBytes is not empty and 0 > i ≥ Len.
func (a *array) IsNull(i int) bool {
	return len(a.nullBitmapBytes) != 0 && bitutil.BitIsNotSet(a.nullBitmapBytes, a.data.offset+i)
}

// IsValid returns true if value at index is not null.
// NOTE: IsValid will panic if NullBitmapBytes is not empty and 0 > i ≥ Len.
func (a *array) IsValid(i int) bool {
	return len(a.nullBitmapBytes) == 0 || bitutil.BitIsSet(a.nullBitmapBytes, a.data.offset+i)
}

func (a *array) setData(data *Data) {
	// retain before releasing in case data is the same as a.data
	data.Retain()

	if a.data != nil {
		a.data.Release()
	}

	a.nullBitmapBytes, a.validity = nil, nil
	if len(data.buffers) > 0 && data.buffers[0] != nil {
		a.nullBitmapBytes = data.buffers[0].Bytes()
		if n := atomic.LoadInt64(&data.nulls); n >= 0 {
			a.validity = bitutil.NewBitmapWithUnset(data.buffers[0], data.offset, data.length, int(n))
		} else {
			a.validity = bitutil.NewBitmap(data.buffers[0], data.offset, data.length)
		}
	}
	a.data = data
}

type arraymarshal interface {
	arrow.Array
	GetOneForMarshal(i int) interface{}
}

func marshalArray(a arraymarshal) ([]byte, error) {
	vals := make([]interface{}, a.Len())
	for i := range vals {
		vals[i] = a.GetOneForMarshal(i)
	}
	return json.Marshal(vals)
}

func formatArray(a arrow.Array) string {
	o := new(strings.Builder)
	o.WriteString("[")
	for i := 0; i < a.Len(); i++ {
		if i > 0 {
			o.WriteString(" ")
		}
		o.WriteString(a.ValueStr(i))
	}
	o.WriteString("]")
	return o.String()
}

type arrayConstructorFn func(arrow.ArrayData) arrow.Array

var makeArrayFn [arrow.DURATION + 1]arrayConstructorFn

func invalidDataType(data arrow.ArrayData) arrow.Array {
	panic(fmt.Errorf("arrow/array: invalid data type %s", data.DataType()))
}

// MakeFromData constructs a strongly-typed array instance from generic Data.
func MakeFromData(data arrow.ArrayData) arrow.Array {
	id := data.DataType().ID()
	if id < 0 || int(id) >= len(makeArrayFn) || makeArrayFn[id] == nil {
		return invalidDataType(data)
	}
	return makeArrayFn[id](data)
}

// NewSlice constructs a zero-copy slice of the array with the indicated
// indices i and j, corresponding to array[i:j].
// The returned array must be Release()'d after use.
//
// NewSlice panics if the slice is outside the valid range of the input array.
// NewSlice panics if j < i.
func NewSlice(arr arrow.Array, i, j int64) arrow.Array {
	data := NewSliceData(arr.Data(), i, j)
	slice := MakeFromData(data)
	data.Release()
	return slice
}

func init() {
	makeArrayFn = [...]arrayConstructorFn{
		arrow.NULL:       func(data arrow.ArrayData) arrow.Array { return NewNullData(data) },
		arrow.BOOL:       func(data arrow.ArrayData) arrow.Array { return NewBooleanData(data) },
		arrow.UINT8:      func(data arrow.ArrayData) arrow.Array { return NewUint8Data(data) },
		arrow.INT8:       func(data arrow.ArrayData) arrow.Array { return NewInt8Data(data) },
		arrow.UINT16:     func(data arrow.ArrayData) arrow.Array { return NewUint16Data(data) },
		arrow.INT16:      func(data arrow.ArrayData) arrow.Array { return NewInt16Data(data) },
		arrow.UINT32:     func(data arrow.ArrayData) arrow.Array { return NewUint32Data(data) },
		arrow.INT32:      func(data arrow.ArrayData) arrow.Array { return NewInt32Data(data) },
		arrow.UINT64:     func(data arrow.ArrayData) arrow.Array { return NewUint64Data(data) },
		arrow.INT64:      func(data arrow.ArrayData) arrow.Array { return NewInt64Data(data) },
		arrow.FLOAT32:    func(data arrow.ArrayData) arrow.Array { return NewFloat32Data(data) },
		arrow.FLOAT64:    func(data arrow.ArrayData) arrow.Array { return NewFloat64Data(data) },
		arrow.STRING:     func(data arrow.ArrayData) arrow.Array { return NewStringData(data) },
		arrow.BINARY:     func(data arrow.ArrayData) arrow.Array { return NewBinaryData(data) },
		arrow.DATE32:     func(data arrow.ArrayData) arrow.Array { return NewInt32Data(data) },
		arrow.DATE64:     func(data arrow.ArrayData) arrow.Array { return NewInt64Data(data) },
		arrow.TIMESTAMP:  func(data arrow.ArrayData) arrow.Array { return NewInt64Data(data) },
		arrow.TIME32:     func(data arrow.ArrayData) arrow.Array { return NewInt32Data(data) },
		arrow.TIME64:     func(data arrow.ArrayData) arrow.Array { return NewInt64Data(data) },
		arrow.STRUCT:     func(data arrow.ArrayData) arrow.Array { return NewStructData(data) },
		arrow.DICTIONARY: func(data arrow.ArrayData) arrow.Array { return NewDictionaryData(data) },
		arrow.DURATION:   func(data arrow.ArrayData) arrow.Array { return NewInt64Data(data) },
	}
}
