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

package scalar

import (
	"fmt"
	"math/bits"
	"strconv"

	"github.com/ferrow-io/ferrow/arrow"
	"golang.org/x/xerrors"
)

// MakeScalar returns a valid scalar for the Go value val. A nil val gives
// the null scalar.
func MakeScalar(val interface{}) (Scalar, error) {
	switch v := val.(type) {
	case nil:
		return ScalarNull, nil
	case Scalar:
		return v, nil
	case bool:
		return NewBooleanScalar(v), nil
	case int8:
		return NewInt8Scalar(v), nil
	case uint8:
		return NewUint8Scalar(v), nil
	case int16:
		return NewInt16Scalar(v), nil
	case uint16:
		return NewUint16Scalar(v), nil
	case int32:
		return NewInt32Scalar(v), nil
	case uint32:
		return NewUint32Scalar(v), nil
	case int64:
		return NewInt64Scalar(v), nil
	case uint64:
		return NewUint64Scalar(v), nil
	case int:
		// determine size of an int on this system
		if bits.UintSize == 32 {
			return NewInt32Scalar(int32(v)), nil
		}
		return NewInt64Scalar(int64(v)), nil
	case uint:
		if bits.UintSize == 32 {
			return NewUint32Scalar(uint32(v)), nil
		}
		return NewUint64Scalar(uint64(v)), nil
	case float32:
		return NewFloat32Scalar(v), nil
	case float64:
		return NewFloat64Scalar(v), nil
	case []byte:
		return NewBinaryScalar(v), nil
	case string:
		return NewStringScalar(v), nil
	}

	return nil, xerrors.Errorf("makescalar not implemented for type value %#v: %w", val, arrow.ErrNotImplemented)
}

func parseInt[T int8 | int16 | int32 | int64](dt arrow.DataType, val string, bitSize int) (Scalar, error) {
	v, err := strconv.ParseInt(val, 0, bitSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", arrow.ErrInvalid, err)
	}
	return NewPrimitive(T(v), dt), nil
}

func parseUint[T uint8 | uint16 | uint32 | uint64](dt arrow.DataType, val string, bitSize int) (Scalar, error) {
	v, err := strconv.ParseUint(val, 0, bitSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", arrow.ErrInvalid, err)
	}
	return NewPrimitive(T(v), dt), nil
}

// ParseScalar parses the textual form of a value of type dt. Temporal
// types take their integer representation.
func ParseScalar(dt arrow.DataType, val string) (Scalar, error) {
	switch dt.ID() {
	case arrow.NULL:
		return ScalarNull, nil
	case arrow.BOOL:
		v, err := strconv.ParseBool(val)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", arrow.ErrInvalid, err)
		}
		return NewBooleanScalar(v), nil
	case arrow.INT8:
		return parseInt[int8](dt, val, 8)
	case arrow.INT16:
		return parseInt[int16](dt, val, 16)
	case arrow.INT32, arrow.DATE32, arrow.TIME32:
		return parseInt[int32](dt, val, 32)
	case arrow.INT64, arrow.DATE64, arrow.TIME64, arrow.TIMESTAMP, arrow.DURATION:
		return parseInt[int64](dt, val, 64)
	case arrow.UINT8:
		return parseUint[uint8](dt, val, 8)
	case arrow.UINT16:
		return parseUint[uint16](dt, val, 16)
	case arrow.UINT32:
		return parseUint[uint32](dt, val, 32)
	case arrow.UINT64:
		return parseUint[uint64](dt, val, 64)
	case arrow.FLOAT32:
		v, err := strconv.ParseFloat(val, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", arrow.ErrInvalid, err)
		}
		return NewFloat32Scalar(float32(v)), nil
	case arrow.FLOAT64:
		v, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", arrow.ErrInvalid, err)
		}
		return NewFloat64Scalar(v), nil
	case arrow.STRING:
		return NewStringScalar(val), nil
	case arrow.BINARY:
		return NewBinaryScalar([]byte(val)), nil
	}
	return nil, fmt.Errorf("%w: parsing scalars of type %s", arrow.ErrNotImplemented, dt)
}
