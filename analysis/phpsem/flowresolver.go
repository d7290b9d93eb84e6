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

package phpsem

import (
	"sort"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/cfg"
	"github.com/awslabs/ar-php-tools/analysis/flow"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/ppg"
	"github.com/awslabs/ar-php-tools/analysis/values"
	"github.com/awslabs/ar-php-tools/internal/funcutil"
)

// IncludeResolver locates the files named by include expressions
type IncludeResolver interface {
	// ResolveInclude returns the path of the file included as path from the file from. ok is false when no such
	// file exists.
	ResolveInclude(path, from string) (resolved string, ok bool)
}

// FlowResolver is the default flow resolver. Includes are resolved by Includes; when it is nil, every include is
// unresolved.
type FlowResolver struct {
	Includes IncludeResolver
}

var _ flow.FlowResolver = (*FlowResolver)(nil)

// ConfirmAssumption evaluates the parts of the condition and narrows the output set with them
func (r *FlowResolver) ConfirmAssumption(c *flow.Controller, cond *ppg.AssumptionCondition) bool {
	switch cond.Form {
	case ppg.Some:
		return anyOf(c, cond.Parts, true)
	case ppg.SomeNot:
		return anyOf(c, cond.Parts, false)
	}
	want := cond.Form == ppg.All
	for _, e := range cond.Parts {
		if !assume(c, e, want) {
			return false
		}
	}
	return true
}

// anyOf assumes each expression in a copy of the output set, and joins the copies where the assumption may hold
func anyOf(c *flow.Controller, es []ir.Expr, want bool) bool {
	orig := c.OutSet
	var holds []*memory.Snapshot
	for _, e := range es {
		c.OutSet = orig.Clone()
		if assume(c, e, want) {
			holds = append(holds, c.OutSet)
		}
	}
	c.OutSet = orig
	if len(holds) == 0 {
		return false
	}
	orig.Extend(holds...)
	return true
}

// assume returns false when e cannot evaluate to want. Otherwise it narrows the locations e reads.
func assume(c *flow.Controller, e ir.Expr, want bool) bool {
	switch x := e.(type) {
	case *ir.Unary:
		if x.Op == "!" {
			return assume(c, x.X, !want)
		}
	case *ir.Binary:
		switch strings.ToLower(x.Op) {
		case "&&", "and":
			if want {
				return assume(c, x.Left, true) && assume(c, x.Right, true)
			}
			return anyOf(c, []ir.Expr{x.Left, x.Right}, false)
		case "||", "or":
			if want {
				return anyOf(c, []ir.Expr{x.Left, x.Right}, true)
			}
			return assume(c, x.Left, false) && assume(c, x.Right, false)
		}
	case *ir.ForeachNext:
		return assumeNext(c, x, want)
	}
	if b, known := truth(c.Eval(e)); known && b != want {
		return false
	}
	switch x := e.(type) {
	case *ir.Variable, *ir.Index, *ir.Field:
		if pure(e) {
			return narrow(c, c.Path(e), func(v values.Value) bool {
				b, known := values.ToBoolean(v)
				return !known || b == want
			}, nil)
		}
	case *ir.Binary:
		return assumeComparison(c, x, want)
	case *ir.Isset:
		if len(x.Vars) == 1 && pure(x.Vars[0]) {
			p := c.Path(x.Vars[0])
			if want {
				return narrow(c, p, func(v values.Value) bool { return v != values.Undefined{} }, nil)
			}
			return narrow(c, p, func(v values.Value) bool { return values.TypesOf(v)&values.TNull != 0 },
				func(memory.Entry) memory.Entry { return memory.UndefinedEntry })
		}
	}
	return true
}

// truth returns the boolean value of the entry when every value converts to the same boolean
func truth(e memory.Entry) (b bool, known bool) {
	for i, v := range e.Values() {
		vb, ok := values.ToBoolean(v)
		if !ok || (i > 0 && vb != b) {
			return false, false
		}
		b = vb
	}
	return b, e.Len() > 0
}

// narrow keeps the values at p satisfying keep, then applies refine to them. It returns false when no value is
// kept. Only must paths are narrowed.
func narrow(c *flow.Controller, p memory.Path, keep func(values.Value) bool,
	refine func(memory.Entry) memory.Entry) bool {
	if !p.IsMust() {
		return true
	}
	cur := c.OutSet.ReadValue(p)
	kept := cur.Filter(keep)
	if kept.IsEmpty() {
		return false
	}
	if funcutil.Exists(kept.Values(), isArray) {
		// arrays are copied on assignment
		return true
	}
	if refine != nil {
		kept = refine(kept)
	}
	if !kept.Equal(cur) {
		c.OutSet.Assign(p, kept)
	}
	return true
}

// pure returns true if evaluating e has no side effect
func pure(e ir.Expr) bool {
	switch x := e.(type) {
	case *ir.Variable, *ir.IntLit, *ir.FloatLit, *ir.StringLit, *ir.BoolLit, *ir.NullLit, *ir.ConstFetch,
		*ir.ClassConst, *ir.StaticField:
		return true
	case *ir.Index:
		return x.Key != nil && pure(x.Base) && pure(x.Key)
	case *ir.Field:
		return x.NameExpr == nil && pure(x.Base)
	}
	return false
}

func assignable(e ir.Expr) bool {
	switch e.(type) {
	case *ir.Variable, *ir.Index, *ir.Field, *ir.StaticField:
		return true
	}
	return false
}

// mirrored maps comparison operators to the operators with swapped operands
var mirrored = map[string]string{
	"==": "==", "===": "===", "!=": "!=", "<>": "<>", "!==": "!==",
	"<": ">", ">": "<", "<=": ">=", ">=": "<=",
}

// assumeComparison narrows a location compared with a pure expression
func assumeComparison(c *flow.Controller, x *ir.Binary, want bool) bool {
	op := x.Op
	if _, ok := mirrored[op]; !ok || !pure(x.Left) || !pure(x.Right) {
		return true
	}
	target, other := x.Left, x.Right
	if !assignable(target) {
		target, other = x.Right, x.Left
		op = mirrored[op]
	}
	if !assignable(target) {
		return true
	}
	bop, ok := values.ParseBinaryOp(op)
	if !ok {
		return true
	}
	rhs := c.Eval(other)
	var refine func(memory.Entry) memory.Entry
	if single, ok := rhs.Single(); ok && values.IsConcrete(single) && ((op == "===" && want) || (op == "!==" && !want)) {
		refine = func(memory.Entry) memory.Entry { return rhs }
	}
	return narrow(c, c.Path(target), func(v values.Value) bool {
		for _, r := range rhs.Values() {
			for _, res := range values.Binary(bop, v, r).Values {
				if b, known := values.ToBoolean(res); !known || b == want {
					return true
				}
			}
		}
		return false
	}, refine)
}

// assumeNext decides whether the iterated arrays may have another element. Known empty arrays have none.
func assumeNext(c *flow.Controller, x *ir.ForeachNext, want bool) bool {
	c.Eval(x)
	if !want {
		return true
	}
	subject := c.Path(cfg.ForeachSubject(x.Loop))
	vals := c.OutSet.ReadValue(subject)
	iterable := false
	for _, v := range vals.Values() {
		if values.TypesOf(v)&(values.TArray|values.TObject) != 0 {
			iterable = true
		}
	}
	if !iterable {
		c.SetWarning(InvalidForeach, "foreach over a value that is not an array")
		return false
	}
	if !vals.Filter(func(v values.Value) bool { return !isArray(v) }).IsEmpty() {
		return true
	}
	keys, unknown := c.OutSet.Keys(subject)
	return unknown || len(keys) > 0
}

// CallDispatchMerge merges the outputs of the callees at the caller level. The catch clauses of the callees are
// no longer active.
func (r *FlowResolver) CallDispatchMerge(c *flow.Controller, callerLevel int, outputs []*memory.Snapshot) {
	caller := c.OutSet.Clone()
	c.OutSet.MergeWithCallLevel(callerLevel, caller, outputs)
	removeCatches(c.OutSet, func(ci CatchInfo) bool { return ci.Level > callerLevel })
}

// IncludeDispatchMerge joins the outputs of the included files
func (r *FlowResolver) IncludeDispatchMerge(c *flow.Controller, outputs []*memory.Snapshot) {
	c.OutSet.Extend(outputs...)
}

// Include resolves the included paths. A file already included on some path is not included again by the _once
// variants. Unknown or missing files make the include incomplete, except for require which stops the script.
func (r *FlowResolver) Include(c *flow.Controller, inc *ir.Include, paths memory.Entry) ([]string, bool) {
	names, complete := concreteStrings(paths)
	if !complete {
		c.SetWarning(DynamicInclude, "%s of a path that is not known: %s", inc.Kind, paths)
	}
	included := c.OutSet.ReadControl(memory.IncludedName)
	var files []string
	for _, n := range names {
		resolved, ok := "", false
		if r.Includes != nil {
			resolved, ok = r.Includes.ResolveInclude(n, c.Position().File)
		}
		if !ok {
			c.SetWarning(IncludeNotFound, "%s of %s: file not found", inc.Kind, n)
			if inc.Kind == ir.IncludePlain || inc.Kind == ir.IncludeOnce {
				complete = false
			}
			continue
		}
		if inc.Kind.Once() && included.Contains(values.String(resolved)) {
			complete = false
			continue
		}
		files = append(files, resolved)
	}
	sort.Strings(files)
	return files, complete
}

// Eval returns the evaluated code when it is known
func (r *FlowResolver) Eval(c *flow.Controller, code memory.Entry) ([]string, bool) {
	codes, ok := concreteStrings(code)
	if !ok {
		c.SetWarning(DynamicEval, "eval of code that is not known")
	}
	return codes, ok
}

// CatchInfo is a catch clause registered while its try block is active
type CatchInfo struct {
	Try   int
	Catch int
	// Class is the lowercase name of the caught class
	Class string
	Level int
	// Depth is the nesting depth of the try block in its function
	Depth int
	// Order is the position of the clause in the try statement
	Order int
}

func readCatches(s *memory.Snapshot) []CatchInfo {
	var res []CatchInfo
	for _, v := range s.ReadControl(memory.CatchName).Values() {
		if info, ok := v.(values.Info); ok {
			if ci, ok := info.Data.(CatchInfo); ok {
				res = append(res, ci)
			}
		}
	}
	return res
}

func removeCatches(s *memory.Snapshot, remove func(CatchInfo) bool) {
	cur := s.ReadControl(memory.CatchName)
	kept := cur.Filter(func(v values.Value) bool {
		info, ok := v.(values.Info)
		if !ok {
			return true
		}
		ci, ok := info.Data.(CatchInfo)
		return !ok || !remove(ci)
	})
	if kept.Len() != cur.Len() {
		s.WriteControl(memory.CatchName, kept)
	}
}

// TryScopeStart registers the catch clauses of the try statement
func (r *FlowResolver) TryScopeStart(c *flow.Controller, try *ir.Try) {
	level := c.Level()
	depth := 1
	for _, ci := range readCatches(c.OutSet) {
		if ci.Level == level && ci.Try != try.ID() && ci.Depth >= depth {
			depth = ci.Depth + 1
		}
	}
	for i, cat := range try.Catches {
		for _, class := range cat.Classes {
			c.OutSet.AddControl(memory.CatchName, values.Info{Data: CatchInfo{
				Try:   try.ID(),
				Catch: cat.ID(),
				Class: strings.ToLower(c.ClassName(strings.TrimPrefix(class, `\`))),
				Level: level,
				Depth: depth,
				Order: i,
			}})
		}
	}
}

// TryScopeEnd unregisters the catch clauses of the try statement
func (r *FlowResolver) TryScopeEnd(c *flow.Controller, try *ir.Try) {
	level := c.Level()
	removeCatches(c.OutSet, func(ci CatchInfo) bool { return ci.Try == try.ID() && ci.Level == level })
}

// innermostFirst orders the catch clauses from the innermost try block
func innermostFirst(cs []CatchInfo) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.Level != b.Level {
			return a.Level > b.Level
		}
		if a.Depth != b.Depth {
			return a.Depth > b.Depth
		}
		if a.Try != b.Try {
			return a.Try < b.Try
		}
		return a.Order < b.Order
	})
}

// Throw records the thrown values and returns the catch clauses that may catch them. An object is caught by the
// first matching clause of the innermost try block; unknown objects may be caught by any clause.
func (r *FlowResolver) Throw(c *flow.Controller, thrown memory.Entry) []flow.ThrowTarget {
	c.OutSet.WriteControl(memory.ThrownName, thrown)
	catches := readCatches(c.OutSet)
	innermostFirst(catches)
	var res []flow.ThrowTarget
	seen := map[flow.ThrowTarget]bool{}
	add := func(ci CatchInfo) {
		t := flow.ThrowTarget{Catch: ci.Catch, Level: ci.Level}
		if !seen[t] {
			seen[t] = true
			res = append(res, t)
		}
	}
	for _, v := range thrown.Values() {
		switch o := v.(type) {
		case values.Object:
			caught := false
			for _, ci := range catches {
				if isSubclass(c, o.Class, ci.Class) {
					add(ci)
					caught = true
					break
				}
			}
			if !caught {
				c.SetWarning(UncaughtException, "uncaught exception of class %s", o.Class)
			}
		case values.AnyObject, values.AnyCompound, values.AnyValue:
			for _, ci := range catches {
				add(ci)
			}
		default:
			c.SetWarning(UncaughtException, "can only throw objects, %s thrown", v)
		}
	}
	return res
}

// CatchEntry closes the try blocks left by the exception and binds the caught objects to the variable of the
// clause
func (r *FlowResolver) CatchEntry(c *flow.Controller, catch *ir.Catch) {
	level := c.Level()
	depth := -1
	for _, ci := range readCatches(c.OutSet) {
		if ci.Catch == catch.ID() && ci.Level == level {
			depth = ci.Depth
		}
	}
	removeCatches(c.OutSet, func(ci CatchInfo) bool {
		return ci.Level > level || (depth >= 0 && ci.Level == level && ci.Depth >= depth)
	})
	thrown := c.OutSet.ReadControl(memory.ThrownName)
	caught := thrown.Filter(func(v values.Value) bool {
		o, ok := v.(values.Object)
		if !ok {
			return values.TypesOf(v)&values.TObject != 0
		}
		for _, class := range catch.Classes {
			if isSubclass(c, o.Class, c.ClassName(strings.TrimPrefix(class, `\`))) {
				return true
			}
		}
		return false
	})
	if caught.IsEmpty() {
		caught = memory.NewEntry(values.AnyObject{})
	}
	if catch.Var != "" {
		c.OutSet.Assign(memory.VariablePath(catch.Var), caught)
	}
	c.OutSet.WriteControl(memory.ThrownName, memory.Entry{})
}
