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

package tools

import "regexp"

// Captures errors happening before any analysis starts (program could not load)
var regexCouldNotLoad = regexp.MustCompile("could not load program")

// Captures the kind of error that happen when you put a flag at the end instead of php files
var flagAfterFiles = regexp.MustCompile(`failed to read -\w`)

// Captures syntax errors reported by the parser
var syntaxError = regexp.MustCompile("syntax error near")

// Captures analyses aborted on an unsupported construct
var aborted = regexp.MustCompile("analysis of .* aborted")

// HintForErrorMessage looks for specific error message and returns some other message that might help the user
// resolve the problem.
func HintForErrorMessage(errMsg string) string {
	if regexCouldNotLoad.MatchString(errMsg) {
		if flagAfterFiles.MatchString(errMsg) {
			return "all command line flags should be before the path to the PHP files to analyze"
		}
		if syntaxError.MatchString(errMsg) {
			return "the file does not parse as PHP; check the reported position"
		}
		return "make sure you have provided the paths of readable PHP files"
	}
	if aborted.MatchString(errMsg) {
		return "the program uses a construct the analysis does not support; rerun with -verbose to locate it"
	}
	return ""
}
