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
	"strings"
)

// CurrentLevel makes a path resolve its root at the call level of the snapshot it is used on
const CurrentLevel = -1

// Selector selects one or several named roots or segments, or every one of them when Any is set
type Selector struct {
	Names []string
	Any   bool
}

// IsMust returns true if the selector denotes exactly one name
func (s Selector) IsMust() bool {
	return !s.Any && len(s.Names) == 1
}

func (s Selector) String() string {
	if s.Any {
		return AnyName
	}
	if len(s.Names) == 1 {
		return s.Names[0]
	}
	return "{" + strings.Join(s.Names, ",") + "}"
}

// Step is one selector of a path, on array indices or object fields
type Step struct {
	Field bool
	Selector
}

// Path is an access path produced by expression evaluation: a root selector followed by a chain of index and field
// selectors. A path may denote several locations: when a selector names several names or any name, or when the
// locations on the way hold several arrays, objects or reference targets.
type Path struct {
	Kind  RootKind
	Level int
	Root  Selector
	Steps []Step
}

// VariablePath returns the path of the variables with the given names at the current level. With more than one
// name, the path is a may path.
func VariablePath(names ...string) Path {
	return Path{Kind: VariableRoot, Level: CurrentLevel, Root: Selector{Names: names}}
}

// AnyVariablePath returns the path denoting every variable of the current level
func AnyVariablePath() Path {
	return Path{Kind: VariableRoot, Level: CurrentLevel, Root: Selector{Any: true}}
}

// TemporaryPath returns the path of the temporary location name at the current level
func TemporaryPath(name string) Path {
	return Path{Kind: TemporaryRoot, Level: CurrentLevel, Root: Selector{Names: []string{name}}}
}

// ControlPath returns the path of the global control location name
func ControlPath(name string) Path {
	return Path{Kind: ControlRoot, Level: Global, Root: Selector{Names: []string{name}}}
}

// PathOf returns the path denoting exactly the location i. i must not be an object root.
func PathOf(i Index) Path {
	p := Path{Kind: i.Root, Level: i.Level, Root: Selector{Names: []string{i.Name}}}
	for _, s := range i.Segments() {
		st := Step{Field: s.Field, Selector: Selector{Any: s.Any}}
		if !s.Any {
			st.Names = []string{s.Name}
		}
		p.Steps = append(p.Steps, st)
	}
	return p
}

// At returns the path rooted at the given call level
func (p Path) At(level int) Path {
	p.Level = level
	return p
}

func (p Path) with(s Step) Path {
	steps := make([]Step, len(p.Steps), len(p.Steps)+1)
	copy(steps, p.Steps)
	p.Steps = append(steps, s)
	return p
}

// Index returns the path of the array elements of p at the given keys
func (p Path) Index(keys ...string) Path {
	return p.with(Step{Selector: Selector{Names: keys}})
}

// AnyIndex returns the path of any array element of p
func (p Path) AnyIndex() Path {
	return p.with(Step{Selector: Selector{Any: true}})
}

// Field returns the path of the fields of the objects in p with the given names
func (p Path) Field(names ...string) Path {
	return p.with(Step{Field: true, Selector: Selector{Names: names}})
}

// AnyField returns the path of any field of the objects in p
func (p Path) AnyField() Path {
	return p.with(Step{Field: true, Selector: Selector{Any: true}})
}

// IsMust returns true when every selector of the path names a single name. Only must paths may denote a single
// location that can be strongly updated.
func (p Path) IsMust() bool {
	if !p.Root.IsMust() {
		return false
	}
	for _, s := range p.Steps {
		if !s.IsMust() {
			return false
		}
	}
	return true
}

// IsEmpty returns true if the path selects no root
func (p Path) IsEmpty() bool {
	return !p.Root.Any && len(p.Root.Names) == 0
}

func (p Path) String() string {
	var b strings.Builder
	switch p.Kind {
	case VariableRoot:
		b.WriteString("$")
	case ControlRoot:
		b.WriteString("ctl:")
	case TemporaryRoot:
		b.WriteString("tmp:")
	}
	b.WriteString(p.Root.String())
	for _, s := range p.Steps {
		if s.Field {
			b.WriteString("->" + s.Selector.String())
		} else {
			b.WriteString("[" + s.Selector.String() + "]")
		}
	}
	return b.String()
}
