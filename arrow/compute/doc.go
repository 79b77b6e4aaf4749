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

// Package compute provides kernels over arrow arrays: gather (take),
// filter, element-wise arithmetic and casts.
//
// Every function takes a context.Context; results are allocated from the
// allocator attached with WithAllocator, or memory.DefaultAllocator.
// Results are new arrays owned by the caller, who must Release them.
//
// Arithmetic comes in two policies. The checked policy, the default,
// turns overflow and division by zero into null elements. The unchecked
// policy (ArithmeticOptions.NoCheckOverflow) uses Go's native operators:
// integer overflow wraps and an integer division by zero panics.
package compute
