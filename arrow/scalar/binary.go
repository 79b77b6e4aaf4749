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
	"bytes"
	"fmt"
	"unicode/utf8"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/memory"
)

// BinaryScalar is implemented by Binary and String.
type BinaryScalar interface {
	Scalar

	Data() []byte
}

type Binary struct {
	scalar

	Value *memory.Buffer
}

func (b *Binary) value() interface{} { return b.Value }

// Data returns the bytes of the value, nil for an invalid scalar.
func (b *Binary) Data() []byte {
	if b.Value == nil {
		return nil
	}
	return b.Value.Bytes()
}

func (b *Binary) equals(rhs Scalar) bool {
	return bytes.Equal(b.Data(), rhs.(BinaryScalar).Data())
}

func (b *Binary) String() string {
	if !b.Valid {
		return "null"
	}
	return string(b.Data())
}

func (b *Binary) Validate() error {
	if err := b.scalar.Validate(); err != nil {
		return err
	}
	if b.Valid && b.Value == nil {
		return fmt.Errorf("%w: %s scalar is marked valid but has no value", arrow.ErrInvalid, b.Type)
	}
	return nil
}

// NewBinaryScalar wraps val without copying.
func NewBinaryScalar(val []byte) *Binary {
	return &Binary{scalar{arrow.BinaryTypes.Binary, true}, memory.NewBufferBytes(val)}
}

type String struct {
	*Binary
}

func (s *String) Validate() error {
	if err := s.Binary.Validate(); err != nil {
		return err
	}
	if s.Valid && !utf8.Valid(s.Data()) {
		return fmt.Errorf("%w: %s scalar contains invalid utf8 data", arrow.ErrInvalid, s.Type)
	}
	return nil
}

func NewStringScalar(val string) *String {
	return &String{&Binary{scalar{arrow.BinaryTypes.String, true}, memory.NewBufferBytes([]byte(val))}}
}
