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

// Command arrow-kernel runs ferrow compute kernels over arrays written as
// JSON literals and prints the results as JSON, one array per line.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/docopt/docopt-go"
	"github.com/ferrow-io/ferrow/arrow/memory"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

const usage = `Arrow Kernel.
Run compute kernels over arrays given as JSON literals.
An argument starting with @ names a file holding the JSON array.

Usage:
  arrow-kernel take --type=<t> [--index-type=<t>] [-v] <values> <indices>...
  arrow-kernel rem --type=<t> [--checked] [-v] <lhs> (<rhs> | --scalar=<v>)
  arrow-kernel cast --from=<t> --to=<t> [--wrap] [--tz=<zone>] [-v] <values>
  arrow-kernel info
  arrow-kernel -h | --help

Options:
  -h --help           Show this screen.
  -v --verbose        Log debug output to stderr.
  --type=<t>          Element type, e.g. int32, utf8 or timestamp[ms].
  --index-type=<t>    Integer type of the index arrays [default: int32].
  --checked           Turn division faults into nulls.
  --scalar=<v>        Use one JSON value as the divisor.
  --from=<t>          Input type.
  --to=<t>            Output type.
  --wrap              Allow lossy conversions.
  --tz=<zone>         Time zone attached to a timestamp input.`

type config struct {
	Help    bool `docopt:"--help"`
	Take    bool `docopt:"take"`
	Rem     bool `docopt:"rem"`
	Cast    bool `docopt:"cast"`
	Info    bool `docopt:"info"`
	Verbose bool `docopt:"--verbose"`

	Type      string `docopt:"--type"`
	IndexType string `docopt:"--index-type"`
	Checked   bool   `docopt:"--checked"`
	Scalar    string `docopt:"--scalar"`
	From      string `docopt:"--from"`
	To        string `docopt:"--to"`
	Wrap      bool   `docopt:"--wrap"`
	Tz        string `docopt:"--tz"`

	Values  string   `docopt:"<values>"`
	Indices []string `docopt:"<indices>"`
	Lhs     string   `docopt:"<lhs>"`
	Rhs     string   `docopt:"<rhs>"`
}

func main() {
	opts, _ := docopt.ParseDoc(usage)
	var cfg config
	if err := opts.Bind(&cfg); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(2)
	}

	logger := log.NewLogfmtLogger(log.NewSyncWriter(os.Stderr))
	if cfg.Verbose {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	mem := memory.NewCheckedAllocator(memory.DefaultAllocator)
	a := &app{mem: mem, logger: logger, out: os.Stdout}
	if err := a.run(context.Background(), &cfg); err != nil {
		level.Error(logger).Log("msg", "command failed", "err", err)
		os.Exit(1)
	}
	level.Debug(logger).Log("msg", "done", "bytes_outstanding", mem.CurrentAlloc())
}
