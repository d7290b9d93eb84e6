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
	"strconv"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/flow"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/values"
)

// includeMarker is the return value of an included file until it returns explicitly
type includeMarker struct{}

// FunctionResolver is the default function resolver. User functions shadow the analyzed natives.
type FunctionResolver struct{}

var _ flow.FunctionResolver = FunctionResolver{}

func functionKey(decl *ir.FunctionDecl) string {
	kind := "function:"
	if decl.Class != nil {
		kind = "method:"
	}
	return kind + strings.ToLower(decl.QualifiedName()) + "#" + strconv.Itoa(decl.ID())
}

func returnPath(level int) memory.Path {
	return memory.ControlPath(memory.ReturnName).At(level)
}

// GetFunctionNames returns the names denoted by the values. Unknown names are dropped.
func (FunctionResolver) GetFunctionNames(c *flow.Controller, names memory.Entry) []string {
	ns, ok := concreteStrings(names)
	if !ok {
		c.Log.Debugf("%s: computed function name not resolved: %s", c.Position(), names)
	}
	return ns
}

// Call returns the declarations of the function visible in the output set, or its native analyzer
func (FunctionResolver) Call(c *flow.Controller, name string) []flow.CallTarget {
	name = strings.TrimPrefix(name, `\`)
	var res []flow.CallTarget
	for _, v := range c.OutSet.ResolveFunction(name).Values() {
		if f, ok := v.(values.Function); ok {
			res = append(res, flow.CallTarget{Key: functionKey(f.Decl), Decl: f.Decl})
		}
	}
	if len(res) > 0 {
		return res
	}
	if c.Config.IsUnanalyzedNative(name) {
		return nil
	}
	if n, ok := LookupNative(name); ok {
		return []flow.CallTarget{{Key: "native:" + n.name, Native: n}}
	}
	c.SetWarning(UndefinedFunction, "function %s is not defined", name)
	return nil
}

// IndirectCall returns the targets of the functions named by the callee values
func (r FunctionResolver) IndirectCall(c *flow.Controller, callee memory.Entry) []flow.CallTarget {
	var res []flow.CallTarget
	seen := map[string]bool{}
	for _, name := range r.GetFunctionNames(c, callee) {
		for _, t := range r.Call(c, name) {
			if !seen[t.Key] {
				seen[t.Key] = true
				res = append(res, t)
			}
		}
	}
	return res
}

// findMethods returns the declarations of the method in the class or its nearest ancestor declaring it
func findMethods(c *flow.Controller, class, name string) []*ir.FunctionDecl {
	var res []*ir.FunctionDecl
	for _, d := range classDecls(c, class) {
		for _, cls := range ancestry(c, d) {
			if m := cls.Method(name); m != nil {
				res = append(res, m)
				break
			}
		}
	}
	return res
}

// MethodCall returns the methods called on the objects. Every target gets the objects it is called on as $this.
func (FunctionResolver) MethodCall(c *flow.Controller, objects memory.Entry, name string) []flow.CallTarget {
	var order []*ir.FunctionDecl
	this := map[*ir.FunctionDecl]memory.Entry{}
	for _, v := range objects.Values() {
		switch o := v.(type) {
		case values.Object:
			methods := findMethods(c, o.Class, name)
			if len(methods) == 0 && !strings.EqualFold(name, "__construct") && !isBuiltinClass(o.Class) {
				c.SetWarning(UndefinedMethod, "method %s::%s is not defined", o.Class, name)
			}
			for _, m := range methods {
				if _, ok := this[m]; !ok {
					order = append(order, m)
				}
				this[m] = this[m].Add(o)
			}
		case values.AnyObject, values.AnyCompound, values.AnyValue:
			c.Log.Debugf("%s: method %s called on an unknown object", c.Position(), name)
		default:
			c.SetWarning(NonObjectCall, "method %s called on %s", name, v)
		}
	}
	res := make([]flow.CallTarget, len(order))
	for i, m := range order {
		res[i] = flow.CallTarget{Key: functionKey(m), Decl: m, This: this[m], Class: m.Class.Name}
	}
	return res
}

// StaticCall returns the static method called by name. Non-static methods called from an instance method of a
// subclass get the current $this.
func (FunctionResolver) StaticCall(c *flow.Controller, class, name string) []flow.CallTarget {
	cls := c.ClassName(class)
	methods := findMethods(c, cls, name)
	if len(methods) == 0 {
		if !strings.EqualFold(name, "__construct") {
			c.SetWarning(UndefinedMethod, "method %s::%s is not defined", cls, name)
		}
		return nil
	}
	cur := enclosingMethod(c)
	var this memory.Entry
	if cur != nil && !cur.Static {
		this = c.OutSet.ReadValue(memory.VariablePath("this")).Filter(func(v values.Value) bool {
			_, ok := v.(values.Object)
			return ok
		})
	}
	res := make([]flow.CallTarget, len(methods))
	for i, m := range methods {
		t := flow.CallTarget{Key: functionKey(m), Decl: m, Class: cls}
		if !m.Static && cur != nil && isSubclass(c, cur.Class.Name, m.Class.Name) {
			t.This = this
		}
		res[i] = t
	}
	return res
}

func enclosingMethod(c *flow.Controller) *ir.FunctionDecl {
	if f := c.Function(); f != nil && f.Class != nil {
		return f
	}
	return nil
}

// DeclareFunction makes the function visible in the output set
func (FunctionResolver) DeclareFunction(c *flow.Controller, decl *ir.FunctionDecl) {
	c.OutSet.DeclareFunction(decl.Name, values.Function{Decl: decl})
}

// DeclareClass makes the class visible in the output set, and declares its constants and static properties
func (FunctionResolver) DeclareClass(c *flow.Controller, decl *ir.ClassDecl) {
	c.OutSet.DeclareClass(decl.Name, values.Type{Class: decl})
	for _, k := range decl.Consts {
		c.OutSet.DeclareConstant(classConstantName(decl.Name, k.Name), c.Eval(k.Value))
	}
	for _, p := range decl.Props {
		if !p.Static {
			continue
		}
		v := memory.UndefinedEntry
		if p.Default != nil {
			v = c.Eval(p.Default)
		}
		c.OutSet.Assign(memory.VariablePath(staticFieldName(decl.Name, p.Name)).At(memory.Global), v)
	}
}

// callerPath returns the path at the caller level
func callerPath(c *flow.Controller, p memory.Path) memory.Path {
	if p.Level == memory.CurrentLevel {
		return p.At(c.Level())
	}
	return p
}

// InitializeCall binds the arguments to the parameters. By-reference parameters are bound to the argument
// locations; missing arguments take the default values.
func (FunctionResolver) InitializeCall(c *flow.Controller, input *memory.Snapshot, target flow.CallTarget,
	args []flow.Argument) {
	level := input.CallLevel()
	input.Assign(returnPath(level), memory.UndefinedEntry)
	if n, ok := target.Native.(*Native); ok {
		for i, a := range args {
			p := argPath(i).At(level)
			if n.isByRef(i) && !a.Path.IsEmpty() {
				input.AssignAlias(p, callerPath(c, a.Path))
			} else {
				input.Assign(p, a.Value)
			}
		}
		input.Assign(memory.VariablePath(argcName).At(level), memory.NewEntry(values.Integer(len(args))))
		return
	}
	decl := target.Decl
	for i, param := range decl.Params {
		p := memory.VariablePath(param.Name).At(level)
		switch {
		case i < len(args) && param.ByRef && !args[i].Path.IsEmpty():
			input.AssignAlias(p, callerPath(c, args[i].Path))
		case i < len(args):
			input.Assign(p, args[i].Value)
		case param.Default != nil:
			input.Assign(p, c.Eval(param.Default))
		default:
			input.SetWarning(memory.Warning{
				Kind:    WrongArgumentCount,
				Message: "missing argument $" + param.Name + " of " + decl.QualifiedName(),
				Pos:     c.Position(),
			})
			input.Assign(p, memory.UndefinedEntry)
		}
	}
	if !target.This.IsEmpty() {
		input.Assign(memory.VariablePath("this").At(level), target.This)
	}
}

// InitializeInclude sets the return value of an included file to the include marker, and records the file as
// included
func (FunctionResolver) InitializeInclude(c *flow.Controller, input *memory.Snapshot, file string) {
	level := input.CallLevel()
	if file == "" {
		input.Assign(returnPath(level), memory.UndefinedEntry)
		return
	}
	input.Assign(returnPath(level), memory.NewEntry(values.Info{Data: includeMarker{}}))
	input.AddControl(memory.IncludedName, values.String(file))
}

// Return records the returned value
func (FunctionResolver) Return(c *flow.Controller, value memory.Entry) {
	if value.IsEmpty() {
		value = memory.UndefinedEntry
	}
	c.OutSet.Assign(returnPath(c.Level()), value)
}

// ResolveReturnValue moves the return values to result. Included files that do not return yield 1.
func (FunctionResolver) ResolveReturnValue(c *flow.Controller, outputs []*memory.Snapshot, calleeLevel int,
	result memory.Path) {
	for _, o := range outputs {
		v := o.ReadValue(returnPath(calleeLevel)).Map(func(v values.Value) values.Value {
			if info, ok := v.(values.Info); ok && info.Data == (includeMarker{}) {
				return values.Integer(1)
			}
			return v
		})
		if v.IsEmpty() {
			v = memory.UndefinedEntry
		}
		o.Assign(result, v)
		if calleeLevel == c.Level() {
			o.Assign(returnPath(calleeLevel), memory.UndefinedEntry)
		}
	}
}
