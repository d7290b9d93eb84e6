// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package analyze implements the analyze command, which runs the abstract interpretation of PHP scripts and reports
// the warnings it finds.
package analyze

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis"
	"github.com/awslabs/ar-php-tools/cmd/phpargot/tools"
	"github.com/awslabs/ar-php-tools/internal/formatutil"
)

// Usage is the usage of the analyze command
const Usage = `Analyze PHP scripts and report the warnings found.
Usage:
  phpargot analyze [options] <php file(s)>
Each file is analyzed as an entry script. Without files, the entry-points of the config are analyzed.
Examples:
  % phpargot analyze -config config.yaml index.php
  % phpargot analyze -widening-limit 5 a.php b.php
`

// Flags represents the parsed analyze sub-command flags.
type Flags struct {
	tools.CommonFlags
	noColor bool
}

// NewFlags returns the parsed analyze sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("analyze")
	noColor := flags.FlagSet.Bool("no-color", false, "disable colors in the output")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, noColor: *noColor}, nil
}

// Run analyzes the scripts given by the flags and prints the results on w. It returns the number of warnings
// reported.
func Run(ctx context.Context, flags Flags, w io.Writer) (int, error) {
	if flags.noColor {
		formatutil.DisableColors()
	}
	cfg, err := flags.Config()
	if err != nil {
		return 0, err
	}
	entries := flags.FlagSet.Args()
	if len(entries) == 0 {
		for _, e := range cfg.EntryPoints {
			entries = append(entries, cfg.RelPath(e))
		}
	}
	if len(entries) == 0 {
		return 0, fmt.Errorf("no php file to analyze")
	}
	fmt.Fprintln(os.Stderr, formatutil.Faint("Reading sources"))
	program, err := analysis.LoadProgram(ctx, cfg, entries...)
	if err != nil {
		return 0, fmt.Errorf("could not load program: %v", err)
	}
	total := 0
	for _, entry := range entries {
		res, err := analysis.Analyze(ctx, cfg, program, entry)
		if err != nil {
			return total, err
		}
		res.Print(w)
		total += len(res.Warnings)
		if cfg.ReportsDir != "" {
			if err := writeReport(cfg.ReportsDir, res); err != nil {
				return total, err
			}
		}
	}
	return total, nil
}

func writeReport(dir string, res *analysis.Result) error {
	name := strings.TrimSuffix(filepath.Base(res.Entry), filepath.Ext(res.Entry)) + "-report.yaml"
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return fmt.Errorf("could not create report file: %v", err)
	}
	defer f.Close()
	if err := res.WriteYAML(f); err != nil {
		return fmt.Errorf("could not write report %s: %v", name, err)
	}
	fmt.Fprintln(os.Stderr, formatutil.Faint("Report written in "+f.Name()))
	return nil
}
