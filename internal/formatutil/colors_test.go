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

package formatutil

import "testing"

func TestSanitize(t *testing.T) {
	for in, want := range map[string]string{
		"plain":        "plain",
		"a\x1b[31mred": `a\x1b[31mred`,
		"line\nbreak":  `line\nbreak`,
		`"quoted"`:     `\"quoted\"`,
		"":             "",
	} {
		if got := Sanitize(in); got != want {
			t.Errorf("Sanitize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDisableColors(t *testing.T) {
	DisableColors()
	if got := Bold("x", 1); got != "x1" {
		t.Errorf("colors should be disabled, got %q", got)
	}
}
