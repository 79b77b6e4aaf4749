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

package compute_test

import (
	"testing"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/compute"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertArraysEqual(t *testing.T, expected, actual arrow.Array) bool {
	t.Helper()
	return assert.Truef(t, array.Equal(expected, actual), "expected: %s\ngot: %s", expected, actual)
}

func assertDatumsEqual(t *testing.T, expected, actual compute.Datum) {
	t.Helper()
	assert.Truef(t, expected.Equals(actual), "expected: %s\ngot: %s", expected, actual)
}

func arrayFromJSON(t *testing.T, mem memory.Allocator, dt arrow.DataType, s string) arrow.Array {
	t.Helper()
	arr, err := array.FromJSONString(mem, dt, s)
	require.NoError(t, err)
	return arr
}

func makeArrayOfNull(mem memory.Allocator, dt arrow.DataType, n int) arrow.Array {
	bldr := array.NewBuilder(mem, dt)
	defer bldr.Release()
	bldr.AppendNulls(n)
	return bldr.NewArray()
}
