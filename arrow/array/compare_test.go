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

package array_test

import (
	"math"
	"testing"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/stretchr/testify/assert"
)

func TestEqual(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	a := fromJSON(t, mem, arrow.PrimitiveTypes.Int16, `[1, null, 3]`)
	defer a.Release()
	b := fromJSON(t, mem, arrow.PrimitiveTypes.Int16, `[1, null, 3]`)
	defer b.Release()
	c := fromJSON(t, mem, arrow.PrimitiveTypes.Int16, `[1, 2, 3]`)
	defer c.Release()
	d := fromJSON(t, mem, arrow.PrimitiveTypes.Int32, `[1, null, 3]`)
	defer d.Release()

	assert.True(t, array.Equal(a, b))
	assert.False(t, array.Equal(a, c))
	assert.False(t, array.Equal(a, d))

	// slices compare by logical position
	e := fromJSON(t, mem, arrow.PrimitiveTypes.Int16, `[0, 1, null, 3]`)
	defer e.Release()
	es := array.NewSlice(e, 1, 4)
	defer es.Release()
	f := fromJSON(t, mem, arrow.PrimitiveTypes.Int16, `[1, null, 3]`)
	defer f.Release()
	assert.True(t, array.Equal(es, f))
}

func TestEqualNaN(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	bldr := array.NewNumericBuilder[float64](mem, arrow.PrimitiveTypes.Float64)
	defer bldr.Release()
	bldr.AppendValues([]float64{1, math.NaN()}, nil)
	a := bldr.NewArray()
	defer a.Release()
	bldr.AppendValues([]float64{1, math.NaN()}, nil)
	b := bldr.NewArray()
	defer b.Release()

	assert.True(t, array.Equal(a, b))
}
