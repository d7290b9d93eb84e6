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

package funcutil

import (
	"testing"

	"golang.org/x/exp/slices"
)

func TestUnion(t *testing.T) {
	a := SetOf("x", "y")
	Union(a, SetOf("y", "z"))
	if got := SortedKeys(a); !slices.Equal(got, []string{"x", "y", "z"}) {
		t.Errorf("union should contain x, y and z, got %v", got)
	}
}

func TestSlicePredicates(t *testing.T) {
	a := []int{2, 4, 6}
	if !ForAll(a, func(x int) bool { return x%2 == 0 }) {
		t.Errorf("all elements are even")
	}
	if Exists(a, func(x int) bool { return x > 6 }) {
		t.Errorf("no element is greater than 6")
	}
	if !Contains(a, 4) || Contains(a, 5) {
		t.Errorf("Contains should find 4 and not 5")
	}
	if got := Map(a, func(x int) int { return x / 2 }); !slices.Equal(got, []int{1, 2, 3}) {
		t.Errorf("Map should halve the elements, got %v", got)
	}
}

func TestMerge(t *testing.T) {
	a := map[string]int{"a": 1, "b": 2}
	Merge(a, map[string]int{"b": 3, "c": 4}, func(x, y int) int { return x + y })
	if a["a"] != 1 || a["b"] != 5 || a["c"] != 4 {
		t.Errorf("unexpected merge result %v", a)
	}
}
