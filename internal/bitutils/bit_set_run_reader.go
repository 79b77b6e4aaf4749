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

package bitutils

import (
	"fmt"
)

// SetBitRun describes a run of contiguous set bits in a bitmap with Pos being
// the starting position of the run and Length being the number of bits.
type SetBitRun struct {
	Pos    int64
	Length int64
}

// AtEnd returns true if this bit run is the end of the set by checking
// that the length is 0.
func (s SetBitRun) AtEnd() bool {
	return s.Length == 0
}

func (s SetBitRun) String() string {
	return fmt.Sprintf("{Pos: %d, Length: %d}", s.Pos, s.Length)
}

// SetBitRunReader is an interface for reading groups of contiguous set bits
// from a bitmap.
type SetBitRunReader interface {
	// NextRun will return the next run of contiguous set bits in the bitmap
	NextRun() SetBitRun
	// Reset allows re-using the reader by providing a new bitmap, offset and length. The arguments
	// match the New function for the reader being used.
	Reset([]byte, int64, int64)
	// VisitSetBitRuns calls visitFn for each set in a loop starting from the current position
	// it's roughly equivalent to simply looping, calling NextRun and calling visitFn on the run
	// for each run.
	VisitSetBitRuns(visitFn VisitFn) error
}

type setBitRunReader struct {
	scan bitScanner
	pos  int64
}

// NewSetBitRunReader returns a SetBitRunReader for the bitmap starting at startOffset which will read
// numvalues bits.
func NewSetBitRunReader(validBits []byte, startOffset, numValues int64) SetBitRunReader {
	r := &setBitRunReader{}
	r.Reset(validBits, startOffset, numValues)
	return r
}

func (s *setBitRunReader) Reset(bitmap []byte, startOffset, length int64) {
	s.scan = bitScanner{bitmap: bitmap, start: startOffset, end: startOffset + length}
	s.pos = s.scan.start
}

func (s *setBitRunReader) NextRun() SetBitRun {
	begin := s.scan.next(s.pos, true)
	if begin >= s.scan.end {
		s.pos = s.scan.end
		return SetBitRun{Pos: s.scan.end - s.scan.start, Length: 0}
	}
	stop := s.scan.next(begin, false)
	s.pos = stop
	return SetBitRun{Pos: begin - s.scan.start, Length: stop - begin}
}

func (s *setBitRunReader) VisitSetBitRuns(visitFn VisitFn) error {
	for {
		run := s.NextRun()
		if run.Length == 0 {
			break
		}

		if err := visitFn(run.Pos, run.Length); err != nil {
			return err
		}
	}
	return nil
}

// VisitFn is a callback function for visiting runs of contiguous bits
type VisitFn func(pos int64, length int64) error

// VisitSetBitRuns is just a convenience function for calling NewSetBitRunReader and then VisitSetBitRuns
func VisitSetBitRuns(bitmap []byte, bitmapOffset int64, length int64, visitFn VisitFn) error {
	if length == 0 {
		return nil
	}
	if bitmap == nil {
		return visitFn(0, length)
	}
	rdr := NewSetBitRunReader(bitmap, bitmapOffset, length)
	return rdr.VisitSetBitRuns(visitFn)
}

// VisitSetBitRunsNoErr is VisitSetBitRuns for callbacks which cannot fail.
func VisitSetBitRunsNoErr(bitmap []byte, bitmapOffset int64, length int64, visitFn func(pos, length int64)) {
	if length == 0 {
		return
	}
	if bitmap == nil {
		visitFn(0, length)
		return
	}
	rdr := NewSetBitRunReader(bitmap, bitmapOffset, length)
	for {
		run := rdr.NextRun()
		if run.Length == 0 {
			break
		}
		visitFn(run.Pos, run.Length)
	}
}
