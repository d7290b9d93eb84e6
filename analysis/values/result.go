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

package values

import "fmt"

// IssueKind is the kind of an analysis issue raised by an operation
type IssueKind string

// Issue kinds raised by the operations on values
const (
	DivisionByZero     IssueKind = "DIVISION_BY_ZERO"
	ObjectConversion   IssueKind = "OBJECT_CONVERSION"
	ArrayConversion    IssueKind = "ARRAY_CONVERSION"
	NegativeShift      IssueKind = "NEGATIVE_SHIFT"
	UnsupportedOperand IssueKind = "UNSUPPORTED_OPERAND"
)

// Issue is an analysis warning raised by an operation on values. Issues are recoverable: the operation always
// produces a conservative result.
type Issue struct {
	Kind    IssueKind
	Message string
}

func (i Issue) String() string {
	return string(i.Kind) + ": " + i.Message
}

// Result is the outcome of an operation: the possible values and the issues raised
type Result struct {
	Values []Value
	Issues []Issue
}

// Of returns a result with the values and no issues
func Of(vs ...Value) Result {
	return Result{Values: vs}
}

func withIssue(kind IssueKind, format string, args ...any) Result {
	return Result{Issues: []Issue{{Kind: kind, Message: fmt.Sprintf(format, args...)}}}
}

// Add appends the values to the result and returns it
func (r Result) Add(vs ...Value) Result {
	r.Values = append(r.Values, vs...)
	return r
}

// Merge returns the result containing the values and issues of both results
func (r Result) Merge(o Result) Result {
	return Result{
		Values: append(append([]Value{}, r.Values...), o.Values...),
		Issues: append(append([]Issue{}, r.Issues...), o.Issues...),
	}
}

// FatalError is raised, by panicking, on operations the analysis does not support. It aborts the analysis.
type FatalError struct {
	Message string
}

func (e *FatalError) Error() string {
	return "fatal: " + e.Message
}

func fatalf(format string, args ...any) {
	panic(&FatalError{Message: fmt.Sprintf(format, args...)})
}
