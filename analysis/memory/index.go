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

// Package memory implements the abstract heap of the analysis: memory locations addressed by symbolic indices,
// sets of possible values at each location, reference bindings between locations, and the snapshot operations
// (read, write, merge, merge across call boundaries, transactions and widening) used by the fixed-point driver.
//
// A location is identified by an Index: a root (a variable, a control location, a temporary or an object) at a
// call level, followed by a path of array index and object field segments. Arrays have value semantics: an array
// value is owned by the location that holds it, and its elements are the children of that location. Objects have
// handle semantics: an object value can be held by many locations, and its fields are children of the object's own
// root.
package memory

import (
	"strconv"
	"strings"
)

// RootKind is the kind of the root of an Index
type RootKind uint8

const (
	// VariableRoot is the root of program variables, per call level
	VariableRoot RootKind = iota
	// ControlRoot is the root of locations reserved for the analysis (warnings, declarations, catch targets)
	ControlRoot
	// TemporaryRoot is the root of intermediate results of expressions
	TemporaryRoot
	// ObjectRoot is the root of object fields. Object roots have no level.
	ObjectRoot
)

// Global is the call level of the global scope
const Global = 0

// AnyName is the name of the location standing for every statically unknown variable, or of the unknown segment
const AnyName = "?"

// Segment is one step of an index path: an array index or an object field, named or unknown
type Segment struct {
	Field bool
	Any   bool
	Name  string
}

// Key returns the array index segment with the given key
func Key(name string) Segment { return Segment{Name: name} }

// FieldNamed returns the object field segment with the given name
func FieldNamed(name string) Segment { return Segment{Field: true, Name: name} }

// AnyKey is the segment standing for the unknown keys of an array
var AnyKey = Segment{Any: true}

// AnyField is the segment standing for the unknown fields of an object
var AnyField = Segment{Field: true, Any: true}

func (s Segment) String() string {
	name := s.Name
	if s.Any {
		name = AnyName
	} else if name == "" || strings.ContainsAny(name, "[]->?\" ") {
		name = strconv.Quote(name)
	}
	if s.Field {
		return "->" + name
	}
	return "[" + name + "]"
}

func (s Segment) encode(b *strings.Builder) {
	if s.Field {
		b.WriteByte('f')
	} else {
		b.WriteByte('i')
	}
	if s.Any {
		b.WriteByte('?')
		return
	}
	b.WriteString(strconv.Itoa(len(s.Name)))
	b.WriteByte(':')
	b.WriteString(s.Name)
}

// Index is the symbolic address of a memory location. Indices are comparable: two equal indices denote the same
// location.
type Index struct {
	Root  RootKind
	Level int
	Name  string
	// Path is the encoding of the segments from the root, see Segments
	Path string
}

// Variable returns the index of the variable name at the call level
func Variable(level int, name string) Index {
	return Index{Root: VariableRoot, Level: level, Name: name}
}

// Control returns the index of the global control location name
func Control(name string) Index {
	return Index{Root: ControlRoot, Level: Global, Name: name}
}

// ControlAt returns the index of the control location name at the call level
func ControlAt(level int, name string) Index {
	return Index{Root: ControlRoot, Level: level, Name: name}
}

// Temporary returns the index of the temporary location name at the call level
func Temporary(level int, name string) Index {
	return Index{Root: TemporaryRoot, Level: level, Name: name}
}

// ObjectIndex returns the root index of the fields of the object with the given key (see values.Object.Key)
func ObjectIndex(key string) Index {
	return Index{Root: ObjectRoot, Name: key}
}

// Child returns the index of the child of i at segment s
func (i Index) Child(s Segment) Index {
	var b strings.Builder
	b.WriteString(i.Path)
	s.encode(&b)
	i.Path = b.String()
	return i
}

// IsRoot returns true if the index has no path
func (i Index) IsRoot() bool { return i.Path == "" }

// RootIndex returns the index of the root of i
func (i Index) RootIndex() Index {
	i.Path = ""
	return i
}

// Segments decodes the path of the index
func (i Index) Segments() []Segment {
	var segs []Segment
	p := i.Path
	for len(p) > 0 {
		s := Segment{Field: p[0] == 'f'}
		p = p[1:]
		if p[0] == '?' {
			s.Any = true
			p = p[1:]
		} else {
			colon := strings.IndexByte(p, ':')
			n, _ := strconv.Atoi(p[:colon])
			s.Name = p[colon+1 : colon+1+n]
			p = p[colon+1+n:]
		}
		segs = append(segs, s)
	}
	return segs
}

// Parent returns the parent of i and the last segment of its path. ok is false when i is a root.
func (i Index) Parent() (parent Index, last Segment, ok bool) {
	segs := i.Segments()
	if len(segs) == 0 {
		return i, Segment{}, false
	}
	parent = i.RootIndex()
	for _, s := range segs[:len(segs)-1] {
		parent = parent.Child(s)
	}
	return parent, segs[len(segs)-1], true
}

// HasAny returns true if a segment of the path is an unknown segment
func (i Index) HasAny() bool {
	for _, s := range i.Segments() {
		if s.Any {
			return true
		}
	}
	return false
}

// IsPrefixOf returns true if j is i or a descendant of i
func (i Index) IsPrefixOf(j Index) bool {
	return i.Root == j.Root && i.Level == j.Level && i.Name == j.Name && strings.HasPrefix(j.Path, i.Path)
}

// rebase returns j with the prefix i replaced by dst. j must have i as prefix.
func (i Index) rebase(j Index, dst Index) Index {
	dst.Path += j.Path[len(i.Path):]
	return dst
}

func (i Index) String() string {
	var b strings.Builder
	switch i.Root {
	case VariableRoot:
		b.WriteString("$" + i.Name)
	case ControlRoot:
		b.WriteString("ctl:" + i.Name)
	case TemporaryRoot:
		b.WriteString("tmp:" + i.Name)
	case ObjectRoot:
		b.WriteString("obj(" + i.Name + ")")
	}
	if i.Root != ObjectRoot && i.Level != Global {
		b.WriteString("@" + strconv.Itoa(i.Level))
	}
	for _, s := range i.Segments() {
		b.WriteString(s.String())
	}
	return b.String()
}

// indexLess orders indices by root kind, level, name and path
func indexLess(a, b Index) bool {
	if a.Root != b.Root {
		return a.Root < b.Root
	}
	if a.Level != b.Level {
		return a.Level < b.Level
	}
	if a.Name != b.Name {
		return a.Name < b.Name
	}
	return a.Path < b.Path
}
