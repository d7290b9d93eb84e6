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

package analysis

import (
	"bytes"
	"context"
	"embed"
	"path/filepath"
	"strings"
	"testing"

	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/values"
	"github.com/awslabs/ar-php-tools/internal/analysistest"
	"github.com/awslabs/ar-php-tools/internal/formatutil"
	"github.com/google/go-cmp/cmp"
)

//go:embed testdata/php
var testfsys embed.FS

// loadTest loads the test directory in a program, without reading the file system
func loadTest(t *testing.T, name string) (*analysistest.LoadedTestProgram, *Program) {
	t.Helper()
	lp, err := analysistest.LoadTest(testfsys, "testdata/php/"+name)
	if err != nil {
		t.Fatalf("%v", err)
	}
	p := NewProgram(lp.Config, nil)
	for path, content := range lp.Files {
		if _, err := p.AddSource(context.Background(), path, []byte(content)); err != nil {
			t.Fatalf("failed to parse %s: %v", path, err)
		}
	}
	return lp, p
}

func runTest(t *testing.T, name string) *Result {
	t.Helper()
	lp, p := loadTest(t, name)
	res, err := Analyze(context.Background(), nil, p, lp.Main())
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	actual := map[analysistest.LPos][]string{}
	for _, w := range res.Warnings {
		pos := analysistest.LPos{Filename: w.Pos.File, Line: w.Pos.Line}
		actual[pos] = append(actual[pos], w.Kind)
	}
	for _, diff := range analysistest.CompareWarnings(analysistest.GetExpectedWarnings(lp), actual) {
		t.Errorf("%s", diff)
	}
	return res
}

func global(name string) memory.Path {
	return memory.VariablePath(name).At(memory.Global)
}

func expectGlobal(t *testing.T, res *Result, name string, want ...values.Value) {
	t.Helper()
	if res.Output == nil {
		t.Fatalf("end of %s not reached", res.Entry)
	}
	got := res.Output.ReadValue(global(name))
	if !got.Equal(memory.NewEntry(want...)) {
		t.Errorf("$%s = %s, want %s", name, got, memory.NewEntry(want...))
	}
}

func TestBasic(t *testing.T) {
	res := runTest(t, "basic")
	expectGlobal(t, res, "d", values.Integer(3))
	expectGlobal(t, res, "f", values.String("n=3"))
}

func TestIncludes(t *testing.T) {
	res := runTest(t, "include")
	expectGlobal(t, res, "r", values.Integer(4))
}

func TestExceptions(t *testing.T) {
	res := runTest(t, "exceptions")
	if res.Output != nil {
		t.Errorf("the uncaught exception should make the end of the script unreachable")
	}
}

func TestClasses(t *testing.T) {
	runTest(t, "classes")
}

func TestLoops(t *testing.T) {
	res := runTest(t, "loops")
	expectGlobal(t, res, "i", values.Integer(3))
	expectGlobal(t, res, "k", values.Undefined{}, values.String("a"), values.String("b"))
	if res.Stats.Widenings == 0 {
		t.Errorf("expected the while loop to be widened")
	}
}

func TestIgnoreDirectives(t *testing.T) {
	res := runTest(t, "ignore")
	if res.Suppressed != 2 {
		t.Errorf("expected 2 suppressed warnings, got %d", res.Suppressed)
	}
}

func TestMaxWarnings(t *testing.T) {
	lp, p := loadTest(t, "basic")
	c := *lp.Config
	c.MaxWarnings = 1
	res, err := Analyze(context.Background(), &c, p, lp.Main())
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	if len(res.Warnings) != 1 || res.Suppressed != 2 {
		t.Errorf("expected 1 warning and 2 suppressed, got %v and %d", res.Warnings, res.Suppressed)
	}
}

func TestLoadProgramFromDisk(t *testing.T) {
	main, err := filepath.Abs("testdata/php/include/main.php")
	if err != nil {
		t.Fatal(err)
	}
	p, err := LoadProgram(context.Background(), nil, main)
	if err != nil {
		t.Fatalf("failed to load program: %v", err)
	}
	res, err := Analyze(context.Background(), nil, p, main)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}
	expectGlobal(t, res, "r", values.Integer(4))
	var paths []string
	for _, f := range p.Files() {
		paths = append(paths, filepath.Base(f.Path))
	}
	// files are sorted by path, and lib/util.php comes before main.php
	if diff := cmp.Diff([]string{"util.php", "main.php"}, paths); diff != "" {
		t.Errorf("unexpected loaded files (-want +got):\n%s", diff)
	}
	if _, ok := p.Fingerprint(main); !ok {
		t.Errorf("no fingerprint for %s", main)
	}
}

func TestLoadProgramErrors(t *testing.T) {
	if _, err := LoadProgram(context.Background(), nil); err == nil {
		t.Errorf("expected an error when no file is given")
	}
	if _, err := LoadProgram(context.Background(), nil, "testdata/php/none/main.php"); err == nil {
		t.Errorf("expected an error for a missing file")
	}
	p := NewProgram(nil, nil)
	if _, err := p.AddSource(context.Background(), "bad.php", []byte("<?php $a = ;")); err == nil {
		t.Errorf("expected a syntax error")
	}
}

func TestParseCodeCache(t *testing.T) {
	p := NewProgram(nil, nil)
	a, err := p.ParseCode("$x = 1;", ir.Pos{File: "main.php", Line: 1})
	if err != nil {
		t.Fatalf("%v", err)
	}
	b, err := p.ParseCode("$x = 1;", ir.Pos{File: "main.php", Line: 1})
	if err != nil {
		t.Fatalf("%v", err)
	}
	if a != b {
		t.Errorf("expected the parsed code to be cached")
	}
	if Fingerprint([]byte("a")) == Fingerprint([]byte("b")) {
		t.Errorf("fingerprints of different contents should differ")
	}
}

func TestDirectives(t *testing.T) {
	d := Directives{}
	d.scan("f.php", []byte("<?php\n$a = 1; // argot:ignore\n  # argot:ignore\n$b = 2;\n$c = 3; // argot:unknown\n"))
	want := []int{2, 3, 4}
	for _, line := range want {
		if _, ok := d[DirectivePos{Filename: "f.php", Line: line}]; !ok {
			t.Errorf("expected a directive at line %d", line)
		}
	}
	if len(d) != len(want) {
		t.Errorf("unexpected directives %v", d)
	}
}

func TestPrint(t *testing.T) {
	formatutil.DisableColors()
	res := runTest(t, "basic")
	var b bytes.Buffer
	res.Print(&b)
	out := b.String()
	for _, s := range []string{"main.php", "4:", "DIVISION_BY_ZERO", "3 warnings", "UNDEFINED_FUNCTION: 1"} {
		if !strings.Contains(out, s) {
			t.Errorf("expected %q in the report:\n%s", s, out)
		}
	}
}
