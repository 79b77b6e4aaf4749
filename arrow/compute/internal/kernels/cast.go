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

import (
	"fmt"
	"unicode/utf8"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/array"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/ferrow-io/ferrow/internal/bitutils"
)

type CastOptions struct {
	ToType             arrow.DataType `compute:"to_type"`
	AllowIntOverflow   bool           `compute:"allow_int_overflow"`
	AllowTimeOverflow  bool           `compute:"allow_time_overflow"`
	AllowFloatTruncate bool           `compute:"allow_float_truncate"`
	AllowInvalidUtf8   bool           `compute:"allow_invalid_utf8"`
}

func (CastOptions) TypeName() string { return "CastOptions" }

// castFunc converts arr to opts.ToType.
type castFunc func(mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error)

// Cast converts arr to opts.ToType. Elements the target cannot represent
// become null unless the options allow the lossy conversion.
func Cast(mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
	if opts.ToType == nil {
		return nil, fmt.Errorf("%w: cast requires a target type", arrow.ErrInvalid)
	}
	fn := getCastFunction(arr.DataType(), opts.ToType)
	if fn == nil {
		return nil, fmt.Errorf("%w: unsupported cast from %s to %s", arrow.ErrNotImplemented, arr.DataType(), opts.ToType)
	}
	return fn(mem, arr, opts)
}

// CanCast reports whether a cast from one type to the other exists.
func CanCast(from, to arrow.DataType) bool {
	return getCastFunction(from, to) != nil
}

func getCastFunction(from, to arrow.DataType) castFunc {
	fromID, toID := from.ID(), to.ID()
	switch {
	case arrow.TypeEqual(from, to):
		return zeroCopyCast
	case fromID == arrow.NULL:
		return castFromNull
	case fromID == arrow.DICTIONARY:
		if getCastFunction(from.(*arrow.DictionaryType).ValueType, to) == nil {
			return nil
		}
		return castFromDictionary
	case toID == arrow.DICTIONARY:
		dt := to.(*arrow.DictionaryType)
		if !arrow.IsInteger(dt.IndexType.ID()) || !canDictionaryEncode(dt.ValueType.ID()) {
			return nil
		}
		if !arrow.TypeEqual(from, dt.ValueType) && getCastFunction(from, dt.ValueType) == nil {
			return nil
		}
		return castToDictionary
	case isRelabel(from, to):
		return relabelCast
	case fromID == arrow.BINARY && toID == arrow.STRING:
		return castBinaryToString
	case arrow.IsNumeric(fromID) && arrow.IsNumeric(toID):
		return castNumericToNumeric
	case arrow.IsNumeric(fromID) && toID == arrow.BOOL:
		return castNumericToBoolean
	case fromID == arrow.BOOL && arrow.IsNumeric(toID):
		return castBooleanToNumeric
	case arrow.IsBinaryLike(toID) && canCastToString(fromID):
		return castToString
	}
	if fn := getTemporalCast(from, to); fn != nil {
		return fn
	}
	return nil
}

func canDictionaryEncode(id arrow.Type) bool {
	return arrow.IsPrimitive(id) || arrow.IsBinaryLike(id)
}

func zeroCopyCast(_ memory.Allocator, arr arrow.Array, _ *CastOptions) (*array.Data, error) {
	data := arr.Data().(*array.Data)
	data.Retain()
	return data, nil
}

// isRelabel reports whether from and to share one physical layout so a
// cast only replaces the type: a signed integer and a temporal type of the
// same width, timestamps differing only in time zone, or string to binary.
func isRelabel(from, to arrow.DataType) bool {
	fromID, toID := from.ID(), to.ID()
	switch {
	case fromID == arrow.STRING && toID == arrow.BINARY:
		return true
	case fromID == arrow.TIMESTAMP && toID == arrow.TIMESTAMP:
		return from.(*arrow.TimestampType).Unit == to.(*arrow.TimestampType).Unit
	case arrow.IsSignedInteger(fromID) && arrow.IsTemporal(toID),
		arrow.IsTemporal(fromID) && arrow.IsSignedInteger(toID):
		return arrow.ByteWidth(from) == arrow.ByteWidth(to)
	}
	return false
}

func relabelCast(_ memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
	data := arr.Data()
	return array.NewData(opts.ToType, data.Len(), data.Buffers(), data.Children(), data.NullN(), data.Offset()), nil
}

func castBinaryToString(mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
	if !opts.AllowInvalidUtf8 {
		bin := arr.(*array.Binary)
		err := bitutils.VisitBitBlocksShort(validityBytes(arr), int64(arr.Offset()), int64(arr.Len()),
			func(pos int64) error {
				if !utf8.Valid(bin.Value(int(pos))) {
					return fmt.Errorf("%w: invalid utf8 data at index %d", arrow.ErrInvalid, pos)
				}
				return nil
			}, func() error { return nil })
		if err != nil {
			return nil, err
		}
	}
	return relabelCast(mem, arr, opts)
}

func castFromNull(mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
	bldr := array.NewBuilder(mem, opts.ToType)
	defer bldr.Release()
	bldr.AppendNulls(arr.Len())
	out := bldr.NewArray()
	defer out.Release()

	data := out.Data().(*array.Data)
	data.Retain()
	return data, nil
}

// castFromDictionary decodes the dictionary and casts the decoded values
// when the target is not the value type.
func castFromDictionary(mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
	dict := arr.(*array.Dictionary)
	decoded, err := Take(mem, dict.Dictionary(), dict.Indices(), TakeOptions{BoundsCheck: true})
	if err != nil {
		return nil, err
	}
	if arrow.TypeEqual(decoded.DataType(), opts.ToType) {
		return decoded, nil
	}
	defer decoded.Release()

	values := array.MakeFromData(decoded)
	defer values.Release()
	return Cast(mem, values, opts)
}

// castToDictionary dedupes values into a dictionary of the target value
// type. More distinct values than the index type can address fail with
// arrow.ErrKeyOverflow.
func castToDictionary(mem memory.Allocator, arr arrow.Array, opts *CastOptions) (*array.Data, error) {
	dt := opts.ToType.(*arrow.DictionaryType)

	values := arr
	if !arrow.TypeEqual(arr.DataType(), dt.ValueType) {
		valueOpts := *opts
		valueOpts.ToType = dt.ValueType
		casted, err := Cast(mem, arr, &valueOpts)
		if err != nil {
			return nil, err
		}
		values = array.MakeFromData(casted)
		casted.Release()
		defer values.Release()
	}

	bldr, err := array.NewDictionaryBuilderWithType(mem, dt)
	if err != nil {
		return nil, err
	}
	defer bldr.Release()
	if err := bldr.AppendArray(values); err != nil {
		return nil, err
	}

	out := bldr.NewArray()
	defer out.Release()
	data := out.Data().(*array.Data)
	data.Retain()
	return data, nil
}
