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

package arrow

import "errors"

var (
	// ErrInvalid is returned for invalid arguments such as mismatched
	// lengths.
	ErrInvalid = errors.New("invalid")
	// ErrType is returned when operand types do not match or a type is not
	// supported by an operation.
	ErrType = errors.New("type error")
	// ErrNotImplemented is returned for type combinations no kernel exists for.
	ErrNotImplemented = errors.New("not implemented")
	// ErrFormat is returned when an imported C data descriptor does not
	// have the physical shape its declared type requires.
	ErrFormat = errors.New("format error")
	// ErrKeyOverflow is returned when a dictionary needs more entries than
	// its index type can address.
	ErrKeyOverflow = errors.New("dictionary key overflow")
	// ErrInvalidTimezone is returned when a time zone name can neither be
	// parsed as a fixed offset nor found in the time zone database.
	ErrInvalidTimezone = errors.New("invalid timezone")
	// ErrIndex is returned for an out of bounds index.
	ErrIndex = errors.New("index error")
)
