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

// Package analysistest contains utility functions for testing the analysis on PHP programs stored in test data
// directories. Expected results are written as annotations in the comments of the PHP sources.
package analysistest

import (
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/config"
	"github.com/awslabs/ar-php-tools/internal/funcutil"
	"golang.org/x/exp/maps"
)

// LoadedTestProgram is a test program: the PHP sources of a test directory and its configuration.
type LoadedTestProgram struct {
	// Dir is the directory of the test in the file system
	Dir string
	// Files maps the path of each PHP file, relative to Dir, to its content
	Files map[string]string
	// Config is the configuration of the test, the default configuration if there is no config.yaml
	Config *config.Config
}

// Main returns the path of the entry script of the test: main.php if present, otherwise the first PHP file.
func (lp *LoadedTestProgram) Main() string {
	if _, ok := lp.Files["main.php"]; ok {
		return "main.php"
	}
	names := funcutil.SortedKeys(lp.Files)
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// LoadTest loads the PHP files in the directory dir of fsys, and the config.yaml of that directory if it exists.
func LoadTest(fsys fs.FS, dir string) (*LoadedTestProgram, error) {
	lp := &LoadedTestProgram{Dir: dir, Files: map[string]string{}, Config: config.NewDefault()}
	err := fs.WalkDir(fsys, dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || path.Ext(p) != ".php" {
			return nil
		}
		b, err := fs.ReadFile(fsys, p)
		if err != nil {
			return err
		}
		lp.Files[strings.TrimPrefix(strings.TrimPrefix(p, dir), "/")] = string(b)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load test %s: %w", dir, err)
	}
	if len(lp.Files) == 0 {
		return nil, fmt.Errorf("no php file in %s", dir)
	}
	if b, err := fs.ReadFile(fsys, path.Join(dir, "config.yaml")); err == nil {
		cfg, err := config.Parse(b)
		if err != nil {
			return nil, fmt.Errorf("failed to load config of test %s: %w", dir, err)
		}
		lp.Config = cfg
	}
	return lp, nil
}

// WarningRegex matches annotations of the form "@Warning(KIND1, KIND2)" in line comments
var WarningRegex = regexp.MustCompile(`(?://|#).*@Warning\(((?:\s*\w+\s*,?)+)\)`)

// LPos is a position in a file, without column information
type LPos struct {
	Filename string
	Line     int
}

func (p LPos) String() string {
	return fmt.Sprintf("%s:%d", p.Filename, p.Line)
}

// GetExpectedWarnings looks for comments @Warning(KIND) in the files of the program, and returns the sorted list of
// warning kinds expected at each annotated line.
func GetExpectedWarnings(lp *LoadedTestProgram) map[LPos][]string {
	expected := map[LPos][]string{}
	for name, content := range lp.Files {
		for i, line := range strings.Split(content, "\n") {
			m := WarningRegex.FindStringSubmatch(line)
			if m == nil {
				continue
			}
			pos := LPos{Filename: name, Line: i + 1}
			for _, kind := range strings.Split(m[1], ",") {
				if k := strings.TrimSpace(kind); k != "" {
					expected[pos] = append(expected[pos], k)
				}
			}
			sort.Strings(expected[pos])
		}
	}
	return expected
}

// CompareWarnings returns the list of mismatches between expected and actual warnings, as human-readable messages.
// The kinds at each position are compared as sets.
func CompareWarnings(expected map[LPos][]string, actual map[LPos][]string) []string {
	var diffs []string
	positions := funcutil.Union(funcutil.SetOf(maps.Keys(expected)...), funcutil.SetOf(maps.Keys(actual)...))
	sorted := maps.Keys(positions)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Filename != sorted[j].Filename {
			return sorted[i].Filename < sorted[j].Filename
		}
		return sorted[i].Line < sorted[j].Line
	})
	for _, pos := range sorted {
		exp := funcutil.SetOf(expected[pos]...)
		act := funcutil.SetOf(actual[pos]...)
		for k := range exp {
			if !act[k] {
				diffs = append(diffs, fmt.Sprintf("missing warning %s at %s", k, pos))
			}
		}
		for k := range act {
			if !exp[k] {
				diffs = append(diffs, fmt.Sprintf("unexpected warning %s at %s", k, pos))
			}
		}
	}
	sort.Strings(diffs)
	return diffs
}
