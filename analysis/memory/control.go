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

package memory

import (
	"sort"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/values"
)

// Names of the reserved control locations
const (
	WarningsName  = ".warnings"
	ReturnName    = ".return"
	ThrownName    = ".thrown"
	CatchName     = ".catch"
	IncludedName  = ".included"
	functionsName = "function:"
	classesName   = "class:"
	constantsName = "const:"
)

// Warning is an analysis warning attached to a source position. Warnings are stored as values of the reserved
// warnings location, so that they are merged by Extend like any other value.
type Warning struct {
	Kind    string
	Message string
	Pos     ir.Pos
}

func (w Warning) String() string {
	return w.Pos.String() + ": " + w.Kind + ": " + w.Message
}

// ReadControl returns the values of the global control location name. Missing control locations are empty.
func (s *Snapshot) ReadControl(name string) Entry {
	return s.values[Control(name)]
}

// WriteControl replaces the values of the global control location name
func (s *Snapshot) WriteControl(name string, e Entry) {
	s.mutate()
	if e.IsEmpty() {
		delete(s.values, Control(name))
		return
	}
	s.values[Control(name)] = e
}

// AddControl adds values to the global control location name
func (s *Snapshot) AddControl(name string, vs ...values.Value) {
	s.mutate()
	c := Control(name)
	s.values[c] = s.values[c].Add(vs...)
}

// SetWarning records the warning in the snapshot
func (s *Snapshot) SetWarning(w Warning) {
	s.AddControl(WarningsName, values.Info{Data: w})
}

// ReadWarnings returns the warnings recorded in the snapshot, ordered by position
func (s *Snapshot) ReadWarnings() []Warning {
	var res []Warning
	for _, v := range s.ReadControl(WarningsName).Values() {
		if info, ok := v.(values.Info); ok {
			if w, ok := info.Data.(Warning); ok {
				res = append(res, w)
			}
		}
	}
	sort.Slice(res, func(i, j int) bool {
		a, b := res[i], res[j]
		if a.Pos.File != b.Pos.File {
			return a.Pos.File < b.Pos.File
		}
		if a.Pos.Line != b.Pos.Line {
			return a.Pos.Line < b.Pos.Line
		}
		if a.Pos.Col != b.Pos.Col {
			return a.Pos.Col < b.Pos.Col
		}
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		return a.Message < b.Message
	})
	return res
}

// DeclareFunction adds a declaration of the function name. Function names are case-insensitive.
func (s *Snapshot) DeclareFunction(name string, v values.Value) {
	s.AddControl(functionsName+strings.ToLower(name), v)
}

// ResolveFunction returns the declarations of the function name
func (s *Snapshot) ResolveFunction(name string) Entry {
	return s.ReadControl(functionsName + strings.ToLower(name))
}

// DeclareClass adds a declaration of the class name. Class names are case-insensitive.
func (s *Snapshot) DeclareClass(name string, t values.Type) {
	s.AddControl(classesName+strings.ToLower(name), t)
}

// ResolveClass returns the declarations of the class name
func (s *Snapshot) ResolveClass(name string) Entry {
	return s.ReadControl(classesName + strings.ToLower(name))
}

// DeclareConstant adds values to the constant name
func (s *Snapshot) DeclareConstant(name string, e Entry) {
	s.AddControl(constantsName+name, e.Values()...)
}

// ReadConstant returns the values of the constant name, and false if the constant was never declared
func (s *Snapshot) ReadConstant(name string) (Entry, bool) {
	e, ok := s.values[Control(constantsName+name)]
	return e, ok
}
