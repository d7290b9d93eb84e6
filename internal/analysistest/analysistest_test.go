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

package analysistest

import (
	"embed"
	"testing"

	"golang.org/x/exp/slices"
)

//go:embed testdata
var testfsys embed.FS

func TestLoadTestAndAnnotations(t *testing.T) {
	lp, err := LoadTest(testfsys, "testdata/annot")
	if err != nil {
		t.Fatalf("failed to load test: %v", err)
	}
	if lp.Main() != "main.php" {
		t.Errorf("expected main.php to be the entry script, got %q", lp.Main())
	}
	if lp.Config.WideningLimit != 3 {
		t.Errorf("expected the test config to be loaded")
	}
	expected := GetExpectedWarnings(lp)
	if len(expected) != 2 {
		t.Fatalf("expected two annotated lines, got %v", expected)
	}
	if !slices.Equal(expected[LPos{"main.php", 2}], []string{"DIVISION_BY_ZERO"}) {
		t.Errorf("unexpected warnings at line 2: %v", expected[LPos{"main.php", 2}])
	}
	if !slices.Equal(expected[LPos{"main.php", 3}], []string{"ARRAY_KEY", "UNDEFINED_VARIABLE"}) {
		t.Errorf("unexpected warnings at line 3: %v", expected[LPos{"main.php", 3}])
	}
}

func TestCompareWarnings(t *testing.T) {
	expected := map[LPos][]string{{"a.php", 1}: {"X"}, {"a.php", 2}: {"Y"}}
	actual := map[LPos][]string{{"a.php", 1}: {"X"}, {"a.php", 3}: {"Z"}}
	diffs := CompareWarnings(expected, actual)
	want := []string{"missing warning Y at a.php:2", "unexpected warning Z at a.php:3"}
	if !slices.Equal(diffs, want) {
		t.Errorf("expected %v, got %v", want, diffs)
	}
	if len(CompareWarnings(expected, expected)) != 0 {
		t.Errorf("identical warnings should not differ")
	}
}
