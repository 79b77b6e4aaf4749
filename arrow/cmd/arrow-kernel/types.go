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

package main

import (
	"fmt"
	"strings"

	"github.com/ferrow-io/ferrow/arrow"
)

var namedTypes = map[string]arrow.DataType{}

func init() {
	for _, dt := range []arrow.DataType{
		arrow.Null,
		arrow.FixedWidthTypes.Boolean,
		arrow.PrimitiveTypes.Int8, arrow.PrimitiveTypes.Int16,
		arrow.PrimitiveTypes.Int32, arrow.PrimitiveTypes.Int64,
		arrow.PrimitiveTypes.Uint8, arrow.PrimitiveTypes.Uint16,
		arrow.PrimitiveTypes.Uint32, arrow.PrimitiveTypes.Uint64,
		arrow.PrimitiveTypes.Float32, arrow.PrimitiveTypes.Float64,
		arrow.BinaryTypes.String, arrow.BinaryTypes.Binary,
		arrow.FixedWidthTypes.Date32, arrow.FixedWidthTypes.Date64,
		arrow.FixedWidthTypes.Time32s, arrow.FixedWidthTypes.Time32ms,
		arrow.FixedWidthTypes.Time64us, arrow.FixedWidthTypes.Time64ns,
		arrow.FixedWidthTypes.Duration_s, arrow.FixedWidthTypes.Duration_ms,
		arrow.FixedWidthTypes.Duration_us, arrow.FixedWidthTypes.Duration_ns,
	} {
		namedTypes[dt.String()] = dt
	}
	for _, unit := range []arrow.TimeUnit{arrow.Second, arrow.Millisecond, arrow.Microsecond, arrow.Nanosecond} {
		dt := &arrow.TimestampType{Unit: unit}
		namedTypes[dt.String()] = dt
	}
	namedTypes["string"] = arrow.BinaryTypes.String
	namedTypes["boolean"] = arrow.FixedWidthTypes.Boolean
}

// parseType resolves a type name as printed by DataType.String. A name of
// the form dictionary<index,value> yields a dictionary type.
func parseType(name string) (arrow.DataType, error) {
	name = strings.TrimSpace(name)
	if dt, ok := namedTypes[name]; ok {
		return dt, nil
	}
	if inner, ok := strings.CutPrefix(name, "dictionary<"); ok && strings.HasSuffix(inner, ">") {
		index, value, found := strings.Cut(strings.TrimSuffix(inner, ">"), ",")
		if !found {
			return nil, fmt.Errorf("%w: malformed dictionary type %q", arrow.ErrInvalid, name)
		}
		indexType, err := parseType(index)
		if err != nil {
			return nil, err
		}
		valueType, err := parseType(value)
		if err != nil {
			return nil, err
		}
		return &arrow.DictionaryType{IndexType: indexType, ValueType: valueType}, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", arrow.ErrInvalid, name)
}
