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

package kernels

type IntTypes interface {
	~int8 | ~int16 | ~int32 | ~int64
}

type UintTypes interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

type FloatTypes interface {
	~float32 | ~float64
}

type IntegerTypes interface {
	IntTypes | UintTypes
}

// NumericTypes is every fixed width type a kernel may compute on directly.
type NumericTypes interface {
	IntegerTypes | FloatTypes
}
