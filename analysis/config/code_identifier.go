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

package config

import "regexp"

// CodeIdentifier identifies a PHP function or method. Every non-empty field is matched as a regex if it compiles,
// otherwise as a plain string. Empty fields match anything.
type CodeIdentifier struct {
	// File is matched against the path of the file declaring the function
	File string `yaml:"file"`
	// Class is matched against the (lower-cased) declaring class of a method
	Class string `yaml:"class"`
	// Function is matched against the (lower-cased) function or method name
	Function string `yaml:"function"`

	// This will not be part of the yaml config
	computedRegexs *codeIdentifierRegex
}

type codeIdentifierRegex struct {
	fileRegex     *regexp.Regexp
	classRegex    *regexp.Regexp
	functionRegex *regexp.Regexp
}

// compileRegexes compiles the strings in the code identifier into regexes. It compiles all identifiers into regexes
// or none.
func compileRegexes(cid CodeIdentifier) CodeIdentifier {
	fileRegex, err := regexp.Compile(cid.File)
	if err != nil {
		return cid
	}
	classRegex, err := regexp.Compile(cid.Class)
	if err != nil {
		return cid
	}
	functionRegex, err := regexp.Compile(cid.Function)
	if err != nil {
		return cid
	}
	cid.computedRegexs = &codeIdentifierRegex{fileRegex, classRegex, functionRegex}
	return cid
}

// matchOnNonEmptyFields returns true if each of the receiver's fields are either matched by the corresponding
// field of the reference, or the reference's field is empty
func (cid CodeIdentifier) matchOnNonEmptyFields(ref CodeIdentifier) bool {
	if ref.computedRegexs != nil {
		return (ref.File == "" || ref.computedRegexs.fileRegex.MatchString(cid.File)) &&
			(ref.Class == "" || ref.computedRegexs.classRegex.MatchString(cid.Class)) &&
			(ref.Function == "" || ref.computedRegexs.functionRegex.MatchString(cid.Function))
	}
	return (ref.File == "" || ref.File == cid.File) &&
		(ref.Class == "" || ref.Class == cid.Class) &&
		(ref.Function == "" || ref.Function == cid.Function)
}

// ExistsCid is true if there is some x in a such that cid matches x on x's non-empty fields.
func ExistsCid(a []CodeIdentifier, cid CodeIdentifier) bool {
	for _, x := range a {
		if cid.matchOnNonEmptyFields(x) {
			return true
		}
	}
	return false
}
