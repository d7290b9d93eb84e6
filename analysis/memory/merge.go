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
	"github.com/awslabs/ar-php-tools/analysis/values"
)

// Extend replaces the content of s by the join of the inputs: every location of any input holds the union of its
// values in the inputs. A location missing from an input contributes Undefined when it would be read as Undefined
// in that input: a variable, or an element or field of a container of that input. Bindings are joined, a missing
// binding standing for the binding of the location to itself. The call level of s is the deepest level of the
// inputs. Extend is commutative and idempotent.
func (s *Snapshot) Extend(inputs ...*Snapshot) {
	s.mutate()
	switch len(inputs) {
	case 0:
		s.state = newState()
		return
	case 1:
		s.state = inputs[0].state.clone()
		s.level = inputs[0].level
		return
	}
	level := inputs[0].level
	for _, in := range inputs[1:] {
		if in.level > level {
			level = in.level
		}
	}
	st := newState()
	cells := map[Index]bool{}
	for _, in := range inputs {
		for c := range in.values {
			cells[c] = true
		}
		for c := range in.refs {
			cells[c] = true
		}
		for c, kids := range in.children {
			if old, ok := st.children[c]; ok {
				st.children[c] = unionSegments(old, kids)
			} else {
				st.children[c] = kids
			}
		}
	}
	for c := range cells {
		binding := map[Index]bool{}
		bound := false
		for _, in := range inputs {
			if b, ok := in.refs[c]; ok {
				bound = true
				for t := range b {
					binding[t] = true
				}
			} else {
				binding[c] = true
			}
		}
		if bound && !(len(binding) == 1 && binding[c]) {
			st.refs[c] = binding
		}
		if !binding[c] {
			continue
		}
		var e Entry
		for _, in := range inputs {
			if v, ok := in.values[c]; ok {
				e = e.Union(v)
			} else if _, isBound := in.refs[c]; !isBound && in.missingIsUndefined(c) {
				e = e.Add(values.Undefined{})
			}
		}
		if !e.IsEmpty() {
			st.values[c] = e
		}
	}
	s.state = st
	s.level = level
}

func unionSegments(a, b map[Segment]bool) map[Segment]bool {
	if sameSet(a, b) {
		return a
	}
	res := make(map[Segment]bool, len(a)+len(b))
	for k := range a {
		res[k] = true
	}
	for k := range b {
		res[k] = true
	}
	return res
}

// missingIsUndefined returns true if the location c, missing from s, is read as Undefined in s
func (s *Snapshot) missingIsUndefined(c Index) bool {
	if parent, _, ok := c.Parent(); ok {
		return s.isContainer(parent)
	}
	return c.Root == VariableRoot
}

// MergeWithCallLevel replaces the content of s by the join of the outputs of the callees of a call made at
// callerLevel, and removes the locations of the callees' call levels: the effects of a call are only visible
// through global locations, objects and the locations bound by reference. When the callees run at a level that is
// not above the caller (recursive calls sharing the caller's level), the caller's input is joined as well, since
// the callee locations are then also the caller's.
func (s *Snapshot) MergeWithCallLevel(callerLevel int, callerInput *Snapshot, outputs []*Snapshot) {
	s.mutate()
	inputs := outputs
	if callerInput != nil && len(outputs) > 0 && outputs[0].level <= callerLevel {
		inputs = append(append([]*Snapshot{}, outputs...), callerInput)
	}
	s.Extend(inputs...)
	s.dropAbove(callerLevel)
	s.level = callerLevel
}

// dropAbove removes the locations of the call levels above level, and the bindings targeting them
func (s *Snapshot) dropAbove(level int) {
	dropped := func(c Index) bool {
		return c.Root != ObjectRoot && c.Level > level
	}
	for c := range s.values {
		if dropped(c) {
			delete(s.values, c)
		}
	}
	for c := range s.children {
		if dropped(c) {
			delete(s.children, c)
		}
	}
	for c, b := range s.refs {
		if dropped(c) {
			delete(s.refs, c)
			continue
		}
		keep := map[Index]bool{}
		for t := range b {
			if !dropped(t) {
				keep[t] = true
			}
		}
		if len(keep) != len(b) {
			s.setBinding(c, keep)
		}
	}
}

// DropCallLevel removes the locations of the call level and the levels above it
func (s *Snapshot) DropCallLevel(level int) {
	s.mutate()
	s.dropAbove(level - 1)
}

// ClearTemporaries removes the temporary locations of the call level
func (s *Snapshot) ClearTemporaries(level int) {
	s.mutate()
	for _, c := range s.cells() {
		if c.Root == TemporaryRoot && c.Level == level && c.IsRoot() {
			s.unbind(c)
		}
	}
}

// WidenFrom widens the values of the locations whose entry differs from their entry in previous: integers,
// floats and strings are replaced by their abstract counterparts. It returns the number of widened locations.
func (s *Snapshot) WidenFrom(previous *Snapshot) int {
	s.mutate()
	return s.widen(previous.state)
}

// WidenChanged widens the values of the locations changed since the start of the current transaction
func (s *Snapshot) WidenChanged() int {
	s.mutate()
	if s.base == nil {
		panic(&values.FatalError{Message: "widening outside a transaction"})
	}
	return s.widen(*s.base)
}

func (s *Snapshot) widen(prev state) int {
	n := 0
	for c, e := range s.values {
		if old, ok := prev.values[c]; ok && old.Equal(e) {
			continue
		}
		w := e.Map(values.Widen)
		if !w.Equal(e) {
			s.values[c] = w
			n++
		}
	}
	return n
}
