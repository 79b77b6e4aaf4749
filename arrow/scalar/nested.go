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
	"strings"

	"github.com/ferrow-io/ferrow/arrow"
)

// Struct holds one scalar per field of a struct type.
type Struct struct {
	scalar
	Value []Scalar
}

func NewStructScalar(val []Scalar, typ *arrow.StructType) *Struct {
	return &Struct{scalar{typ, true}, val}
}

func (s *Struct) value() interface{} { return s.Value }

func (s *Struct) equals(rhs Scalar) bool {
	other := rhs.(*Struct)
	if len(s.Value) != len(other.Value) {
		return false
	}
	for i := range s.Value {
		if !Equals(s.Value[i], other.Value[i]) {
			return false
		}
	}
	return true
}

// Field returns the child scalar named name.
func (s *Struct) Field(name string) (Scalar, error) {
	idx, ok := s.Type.(*arrow.StructType).FieldIdx(name)
	if !ok {
		return nil, fmt.Errorf("%w: no field named %q in %s", arrow.ErrInvalid, name, s.Type)
	}
	return s.Value[idx], nil
}

func (s *Struct) String() string {
	if !s.Valid {
		return "null"
	}
	st := s.Type.(*arrow.StructType)
	var b strings.Builder
	b.WriteByte('{')
	for i, v := range s.Value {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%s = %s", st.Field(i).Name, st.Field(i).Type, v)
	}
	b.WriteByte('}')
	return b.String()
}

func (s *Struct) Validate() error {
	if err := s.scalar.Validate(); err != nil {
		return err
	}
	st, ok := s.Type.(*arrow.StructType)
	if !ok {
		return fmt.Errorf("%w: struct scalar of type %s", arrow.ErrInvalid, s.Type)
	}
	if !s.Valid {
		return nil
	}
	if len(s.Value) != st.NumFields() {
		return fmt.Errorf("%w: non-null %s scalar has %d children, want %d", arrow.ErrInvalid, s.Type, len(s.Value), st.NumFields())
	}
	for i, v := range s.Value {
		if !arrow.TypeEqual(v.DataType(), st.Field(i).Type) {
			return fmt.Errorf("%w: %s scalar child %d has type %s, want %s", arrow.ErrInvalid, s.Type, i, v.DataType(), st.Field(i).Type)
		}
		if err := v.Validate(); err != nil {
			return fmt.Errorf("%s scalar child %d: %w", s.Type, i, err)
		}
	}
	return nil
}
