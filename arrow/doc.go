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

/*
Package arrow provides the logical type tags and the array contracts shared
by every ferrow package.

Arrays are columnar, immutable sequences of nullable values. Each array is
a typed view over reference counted buffers (see package memory) with an
element offset, a length and an optional validity bitmap. Concrete arrays
live in package array, the C data interface bridge in package cdata and
the kernels in package compute.

# Reference counting

Arrays and buffers are reference counted. Retain adds a reference and
Release drops one; the backing memory is returned to its allocator when
the count reaches zero. Both are safe for concurrent use.
*/
package arrow
