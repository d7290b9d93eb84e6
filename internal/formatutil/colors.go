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

// Package formatutil manipulates string colors and other formatting operations used by reports.
package formatutil

import (
	"fmt"
	"os"
	"strconv"

	"golang.org/x/term"
)

var (
	Bold   = Color("\033[1m%s\033[0m")
	Faint  = Color("\033[2m%s\033[0m")
	Yellow = Color("\033[1;33m%s\033[0m")
)

// noColor disables coloring even when the output is a terminal. It is set by the NO_COLOR environment variable.
var noColor = os.Getenv("NO_COLOR") != ""

// DisableColors turns every Color function into plain formatting.
func DisableColors() {
	noColor = true
}

// Color returns a function that formats its arguments with colorString when the standard output is a terminal.
func Color(colorString string) func(...any) string {
	return func(args ...any) string {
		if !noColor && term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Sprintf(colorString, fmt.Sprint(args...))
		}
		return fmt.Sprint(args...)
	}
}

// Sanitize escapes the control characters of s, so that messages quoting script strings cannot emit terminal
// escape sequences.
func Sanitize(s string) string {
	r := strconv.Quote(s)
	return r[1 : len(r)-1]
}
