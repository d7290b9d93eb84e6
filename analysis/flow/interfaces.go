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

// Package flow implements the forward analysis of program point graphs: the fixed-point driver, the flow
// controller given to the semantic collaborators and the expression walker evaluating statements with them.
//
// The semantics of the analyzed language are not implemented here. The driver delegates expression evaluation to
// an ExpressionEvaluator, the resolution and binding of calls to a FunctionResolver, and the confirmation of
// conditions, includes, evals and exceptions to a FlowResolver. A Services value bundles the collaborators.
package flow

import (
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/ppg"
)

// ExpressionEvaluator gives the meaning of the expressions and simple statements. Every method works on the output
// set of the controller.
type ExpressionEvaluator interface {
	// ResolveVariable returns the path of the named variable
	ResolveVariable(c *Controller, name string) memory.Path
	// ResolveIndirectVariable returns the path of the variables whose names are the values of names
	ResolveIndirectVariable(c *Controller, names memory.Entry) memory.Path
	// ResolveIndex returns the path of the elements of the arrays at base with the keys. An empty key denotes the
	// next free key of the arrays, as in $a[] = $v.
	ResolveIndex(c *Controller, base memory.Path, key memory.Entry) memory.Path
	// ResolveField returns the path of the fields of the objects at base with the names
	ResolveField(c *Controller, base memory.Path, names memory.Entry) memory.Path
	// ResolveStaticField returns the path of the static property of the class
	ResolveStaticField(c *Controller, class, name string) memory.Path
	// ReadValue returns the values at p
	ReadValue(c *Controller, p memory.Path) memory.Entry
	Assign(c *Controller, target memory.Path, value memory.Entry)
	AssignAlias(c *Controller, target, source memory.Path)
	BinaryEx(c *Controller, op string, left, right memory.Entry) memory.Entry
	UnaryEx(c *Controller, op string, x memory.Entry) memory.Entry
	// IncDec increments or decrements the values at target, and returns the values before and after
	IncDec(c *Controller, target memory.Path, inc bool) (before, after memory.Entry)
	Concat(c *Controller, parts []memory.Entry) memory.Entry
	// Foreach binds the next element of the arrays at subject to the key and value targets of the loop. key is
	// empty when the loop has no key.
	Foreach(c *Controller, loop *ir.Foreach, subject, key, value memory.Path)
	CreateObject(c *Controller, site, class string) memory.Entry
	// IndirectCreateObject creates objects of the classes named by the values of classes
	IndirectCreateObject(c *Controller, site string, classes memory.Entry) memory.Entry
	// Constant returns the value of the constant, or of the class constant when class is not empty
	Constant(c *Controller, class, name string) memory.Entry
	ConstantDeclaration(c *Controller, name string, value memory.Entry)
	Echo(c *Controller, parts []memory.Entry)
	Isset(c *Controller, paths []memory.Path) memory.Entry
	Empty(c *Controller, x memory.Entry) memory.Entry
	Cast(c *Controller, to string, x memory.Entry) memory.Entry
	InstanceOf(c *Controller, x memory.Entry, class string) memory.Entry
	Unset(c *Controller, p memory.Path)
	// Global binds the variables of the current level to the global variables with the same names
	Global(c *Controller, names []string)
	// Static binds the variable to the static variable of the current function, initializing it on first use
	Static(c *Controller, name string, initial memory.Entry)
}

// CallTarget is a function or method a call may invoke
type CallTarget struct {
	// Key identifies the target among the targets of the call site and on the run stack
	Key string
	// Decl is the declaration of a user function, nil for natives
	Decl *ir.FunctionDecl
	// Native is the analyzer of a native function
	Native NativeAnalyzer
	// This holds the object a method is called on
	This memory.Entry
	// Class is the class static calls are late-bound to
	Class string
}

// Argument is an evaluated argument of a call
type Argument struct {
	Value memory.Entry
	// Path is the location the argument was read from, empty when the argument is not a variable, an element or a
	// field. By-reference parameters are bound to it.
	Path memory.Path
	Expr ir.Expr
}

// FunctionResolver resolves and binds calls
type FunctionResolver interface {
	// GetFunctionNames returns the function names denoted by the values of a computed callee
	GetFunctionNames(c *Controller, names memory.Entry) []string
	// Call returns the targets of a call of a function by name. Unknown functions yield no target.
	Call(c *Controller, name string) []CallTarget
	// IndirectCall returns the targets of a call through a computed callee
	IndirectCall(c *Controller, callee memory.Entry) []CallTarget
	MethodCall(c *Controller, objects memory.Entry, name string) []CallTarget
	StaticCall(c *Controller, class, name string) []CallTarget
	DeclareFunction(c *Controller, decl *ir.FunctionDecl)
	DeclareClass(c *Controller, decl *ir.ClassDecl)
	// InitializeCall binds the arguments to the parameters of the target in input. input is at the callee level.
	InitializeCall(c *Controller, input *memory.Snapshot, target CallTarget, args []Argument)
	// InitializeInclude prepares the input of an included file or evaluated code
	InitializeInclude(c *Controller, input *memory.Snapshot, file string)
	// Return records the returned value in the output set
	Return(c *Controller, value memory.Entry)
	// ResolveReturnValue moves the return value of each callee output, made at calleeLevel, to result at the level
	// of the controller
	ResolveReturnValue(c *Controller, outputs []*memory.Snapshot, calleeLevel int, result memory.Path)
}

// ThrowTarget is a catch clause an exception may be caught by
type ThrowTarget struct {
	// Catch is the node identifier of the catch clause
	Catch int
	// Level is the call level of the function declaring the clause
	Level int
}

// FlowResolver resolves the control flow that depends on the analyzed values
type FlowResolver interface {
	// ConfirmAssumption returns false when the condition cannot hold in the output set. When it may hold, it may
	// narrow the output set with the condition.
	ConfirmAssumption(c *Controller, cond *ppg.AssumptionCondition) bool
	// CallDispatchMerge sets the output set to the join of the outputs of the callees, at the caller level
	CallDispatchMerge(c *Controller, callerLevel int, outputs []*memory.Snapshot)
	// IncludeDispatchMerge sets the output set to the join of the outputs of the included files
	IncludeDispatchMerge(c *Controller, outputs []*memory.Snapshot)
	// Include returns the files an include may load. It returns false as second result when the include may fail
	// or load an unknown file.
	Include(c *Controller, inc *ir.Include, paths memory.Entry) ([]string, bool)
	// Eval returns the code strings evaluated by eval. It returns false as second result when the code is not
	// fully known.
	Eval(c *Controller, code memory.Entry) ([]string, bool)
	TryScopeStart(c *Controller, try *ir.Try)
	TryScopeEnd(c *Controller, try *ir.Try)
	// Throw returns the catch clauses the thrown values may be caught by
	Throw(c *Controller, thrown memory.Entry) []ThrowTarget
	// CatchEntry binds the caught exception at the entry of a catch clause
	CatchEntry(c *Controller, catch *ir.Catch)
}

// NativeAnalyzer is the semantics of a native function. Analyze reads the arguments bound by the function
// resolver and records the return value through the controller.
type NativeAnalyzer interface {
	ppg.NativeFunction
	Analyze(c *Controller)
}

// FileLoader returns the parsed files of the program
type FileLoader interface {
	LoadFile(path string) (*ir.File, error)
}

// CodeParser parses code given to eval
type CodeParser interface {
	ParseCode(code string, origin ir.Pos) (*ir.File, error)
}

// Services bundles the collaborators of the analysis
type Services struct {
	Evaluator ExpressionEvaluator
	Functions FunctionResolver
	Flow      FlowResolver
	// Files loads included files. Includes yield unknown results when it is nil.
	Files FileLoader
	// Parser parses evaluated code. Evals yield unknown results when it is nil.
	Parser CodeParser
}
