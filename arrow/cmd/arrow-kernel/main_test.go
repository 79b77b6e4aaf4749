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
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/docopt/docopt-go"
	"github.com/ferrow-io/ferrow/arrow"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runArgs(t *testing.T, argv ...string) (string, error) {
	t.Helper()
	parser := &docopt.Parser{HelpHandler: docopt.NoHelpHandler}
	opts, err := parser.ParseArgs(usage, argv, "")
	require.NoError(t, err)

	var cfg config
	require.NoError(t, opts.Bind(&cfg))

	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	var out bytes.Buffer
	a := &app{mem: mem, logger: log.NewNopLogger(), out: &out}
	if err = a.run(context.Background(), &cfg); err == nil {
		mem.AssertSize(t, 0)
	}
	return out.String(), err
}

func TestTakeCommand(t *testing.T) {
	out, err := runArgs(t, "take", "--type=utf8", `["a", null, "c"]`, `[2, null, 0]`)
	require.NoError(t, err)
	assert.JSONEq(t, `["c", null, "a"]`, out)
}

func TestTakeConcurrentIndexFiles(t *testing.T) {
	dir := t.TempDir()
	args := []string{"take", "--type=int64", "--index-type=uint8", `[10, 20, 30, null]`}
	expected := []string{`[30, 10]`, `[null, 20, 20]`, `[]`}
	for i, idx := range []string{`[2, 0]`, `[3, 1, 1]`, `[]`} {
		p := filepath.Join(dir, "idx"+string(rune('a'+i))+".json")
		require.NoError(t, os.WriteFile(p, []byte(idx), 0o600))
		args = append(args, "@"+p)
	}

	out, err := runArgs(t, args...)
	require.NoError(t, err)
	lines := bytes.Split(bytes.TrimSpace([]byte(out)), []byte("\n"))
	require.Len(t, lines, len(expected))
	for i, exp := range expected {
		assert.JSONEq(t, exp, string(lines[i]))
	}
}

func TestTakeCommandErrors(t *testing.T) {
	_, err := runArgs(t, "take", "--type=int32", `[1, 2]`, `[5]`)
	assert.ErrorIs(t, err, arrow.ErrIndex)

	_, err = runArgs(t, "take", "--type=int32", "--index-type=float64", `[1, 2]`, `[0]`)
	assert.ErrorIs(t, err, arrow.ErrType)

	_, err = runArgs(t, "take", "--type=int32", `[1, 2]`, "@"+filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestRemCommand(t *testing.T) {
	out, err := runArgs(t, "rem", "--type=int32", `[10, 7]`, `[5, 6]`)
	require.NoError(t, err)
	assert.JSONEq(t, `[0, 1]`, out)

	out, err = runArgs(t, "rem", "--type=int8", "--checked", `[-100, 10]`, `[100, 0]`)
	require.NoError(t, err)
	assert.JSONEq(t, `[0, null]`, out)

	out, err = runArgs(t, "rem", "--type=uint64", "--scalar=2", `[null, 6, null, 5]`)
	require.NoError(t, err)
	assert.JSONEq(t, `[null, 0, null, 1]`, out)
}

func TestRemCommandRecoversPanic(t *testing.T) {
	_, err := runArgs(t, "rem", "--type=int32", `[1, 2]`, `[1, 0]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unchecked remainder")

	_, err = runArgs(t, "rem", "--type=uint32", "--scalar=0", `[1, 2]`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unchecked remainder")

	out, err := runArgs(t, "rem", "--type=uint32", "--checked", "--scalar=0", `[1, 2]`)
	require.NoError(t, err)
	assert.JSONEq(t, `[null, null]`, out)
}

func TestCastCommand(t *testing.T) {
	out, err := runArgs(t, "cast", "--from=int32", "--to=uint8", `[1, 300, -1]`)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, null, null]`, out)

	out, err = runArgs(t, "cast", "--from=int32", "--to=uint8", "--wrap", `[1, 300, -1]`)
	require.NoError(t, err)
	assert.JSONEq(t, `[1, 44, 255]`, out)

	out, err = runArgs(t, "cast", "--from=timestamp[s]", "--to=utf8", "--tz=+05:30", `[0]`)
	require.NoError(t, err)
	assert.JSONEq(t, `["1970-01-01T05:30:00+05:30"]`, out)

	_, err = runArgs(t, "cast", "--from=timestamp[s]", "--to=utf8", "--tz=Nowhere/Special", `[0]`)
	assert.ErrorIs(t, err, arrow.ErrInvalidTimezone)

	_, err = runArgs(t, "cast", "--from=int32", "--to=utf8", "--tz=UTC", `[0]`)
	assert.ErrorIs(t, err, arrow.ErrInvalid)

	_, err = runArgs(t, "cast", "--from=utf8", "--to=int32", `["1"]`)
	assert.ErrorIs(t, err, arrow.ErrNotImplemented)
}

func TestInfoCommand(t *testing.T) {
	out, err := runArgs(t, "info")
	require.NoError(t, err)
	assert.Contains(t, out, `"features"`)
}

func TestParseType(t *testing.T) {
	tests := []struct {
		name     string
		expected arrow.DataType
	}{
		{"int8", arrow.PrimitiveTypes.Int8},
		{"utf8", arrow.BinaryTypes.String},
		{"string", arrow.BinaryTypes.String},
		{"bool", arrow.FixedWidthTypes.Boolean},
		{"date32", arrow.FixedWidthTypes.Date32},
		{"time64[ns]", arrow.FixedWidthTypes.Time64ns},
		{"duration[ms]", arrow.FixedWidthTypes.Duration_ms},
		{"timestamp[us]", &arrow.TimestampType{Unit: arrow.Microsecond}},
		{"dictionary<int16,utf8>", &arrow.DictionaryType{IndexType: arrow.PrimitiveTypes.Int16, ValueType: arrow.BinaryTypes.String}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dt, err := parseType(tt.name)
			require.NoError(t, err)
			assert.Truef(t, arrow.TypeEqual(tt.expected, dt), "got %s", dt)
		})
	}

	for _, bad := range []string{"int128", "dictionary<int8>", "dictionary<int8,nope>"} {
		_, err := parseType(bad)
		assert.ErrorIs(t, err, arrow.ErrInvalid, bad)
	}
}
