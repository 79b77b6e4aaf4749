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

package array

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/goccy/go-json"
)

type fromJSONCfg struct {
	startOffset int64
	useNumber   bool
}

type FromJSONOption func(*fromJSONCfg)

// WithStartOffset attempts to start decoding from the reader at the offset
// passed in. If using this option the reader must fulfill the io.ReadSeeker
// interface, or else an error will be returned.
//
// It will call Seek(off, io.SeekStart) on the reader
func WithStartOffset(off int64) FromJSONOption {
	return func(c *fromJSONCfg) {
		c.startOffset = off
	}
}

// WithUseNumber enables the 'UseNumber' option on the json decoder, using
// the json.Number type instead of assuming float64 for numbers. This is critical
// if you have numbers that are larger than what can fit into the 53 bits of
// an IEEE float64 mantissa and want to preserve its value.
func WithUseNumber() FromJSONOption {
	return func(c *fromJSONCfg) {
		c.useNumber = true
	}
}

// FromJSON creates an arrow.Array from a corresponding JSON stream and
// defined data type. If the types in the json do not match the type provided,
// it will return errors. This is *not* the integration test format and
// should not be used as such. This intended to be used by consumers more
// similarly to the current exiting CSV functionality.
//
// The JSON must be a single JSON array containing the values. Nulls are
// written as null and binary values as base64 strings.
//
// Currently the only supported options are WithStartOffset and
// WithUseNumber.
//
// The returned offset is the number of bytes consumed from the reader,
// plus the start offset.
func FromJSON(mem memory.Allocator, dt arrow.DataType, r io.Reader, opts ...FromJSONOption) (arr arrow.Array, offset int64, err error) {
	var cfg fromJSONCfg
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.startOffset != 0 {
		seeker, ok := r.(io.ReadSeeker)
		if !ok {
			return nil, 0, errors.New("using StartOffset option requires reader to be a ReadSeeker, cannot seek")
		}

		seeker.Seek(cfg.startOffset, io.SeekStart)
	}

	bldr := NewBuilder(mem, dt)
	defer bldr.Release()

	dec := json.NewDecoder(r)
	defer func() {
		if errors.Is(err, io.EOF) {
			err = fmt.Errorf("failed parsing json: %w", io.ErrUnexpectedEOF)
		}
	}()

	if cfg.useNumber {
		dec.UseNumber()
	}

	t, err := dec.Token()
	if err != nil {
		return nil, dec.InputOffset(), err
	}

	if delim, ok := t.(json.Delim); !ok || delim != '[' {
		return nil, dec.InputOffset(), fmt.Errorf("json doc must be an array, found %s", delim)
	}

	if err = bldr.Unmarshal(dec); err != nil {
		return nil, dec.InputOffset(), err
	}

	// consume the last ']'
	if _, err = dec.Token(); err != nil {
		return nil, dec.InputOffset(), err
	}

	return bldr.NewArray(), dec.InputOffset() + cfg.startOffset, nil
}

// FromJSONString is FromJSON on a string, with numbers decoded exactly.
func FromJSONString(mem memory.Allocator, dt arrow.DataType, s string) (arrow.Array, error) {
	arr, _, err := FromJSON(mem, dt, strings.NewReader(s), WithUseNumber())
	return arr, err
}

func bytesReader(b []byte) io.Reader { return bytes.NewReader(b) }
