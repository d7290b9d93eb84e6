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
	"fmt"
	"sort"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/values"
)

// state is the content of a snapshot. The inner maps of refs and children are never modified in place: they are
// replaced on every change, so that a shallow copy of the outer maps is an independent copy of the state.
type state struct {
	// values is the set of possible values stored at each location. Locations bound by a reference to other
	// locations have no values of their own, unless they are bound to themselves.
	values map[Index]Entry
	// refs is the reference binding of each bound location. A location without a binding is bound to itself; a
	// location bound to several targets may be any one of them.
	refs map[Index]map[Index]bool
	// children is the set of segments of each container: a location holding an array, or the root of an object
	children map[Index]map[Segment]bool
}

func newState() state {
	return state{
		values:   map[Index]Entry{},
		refs:     map[Index]map[Index]bool{},
		children: map[Index]map[Segment]bool{},
	}
}

func (st state) clone() state {
	c := state{
		values:   make(map[Index]Entry, len(st.values)),
		refs:     make(map[Index]map[Index]bool, len(st.refs)),
		children: make(map[Index]map[Segment]bool, len(st.children)),
	}
	for k, v := range st.values {
		c.values[k] = v
	}
	for k, v := range st.refs {
		c.refs[k] = v
	}
	for k, v := range st.children {
		c.children[k] = v
	}
	return c
}

func (st state) equal(o state) bool {
	if len(st.values) != len(o.values) || len(st.refs) != len(o.refs) || len(st.children) != len(o.children) {
		return false
	}
	for k, v := range st.values {
		if w, ok := o.values[k]; !ok || !v.Equal(w) {
			return false
		}
	}
	for k, v := range st.refs {
		if w, ok := o.refs[k]; !ok || !sameSet(v, w) {
			return false
		}
	}
	for k, v := range st.children {
		if w, ok := o.children[k]; !ok || !sameSet(v, w) {
			return false
		}
	}
	return true
}

func sameSet[T comparable](a, b map[T]bool) bool {
	if len(a) != len(b) {
		return false
	}
	for x := range a {
		if !b[x] {
			return false
		}
	}
	return true
}

// Snapshot is the abstract memory state at one program point.
//
// A snapshot is modified inside transactions: StartTransaction records the current state, CommitTransaction
// reports whether the state changed and makes the snapshot read-only until the next transaction. A snapshot that
// was never committed can be modified freely.
type Snapshot struct {
	state
	level   int
	base    *state
	changed bool
	frozen  bool
}

// New returns an empty snapshot at the global call level
func New() *Snapshot {
	return &Snapshot{state: newState()}
}

// Clone returns a modifiable copy of s, outside any transaction
func (s *Snapshot) Clone() *Snapshot {
	return &Snapshot{state: s.state.clone(), level: s.level}
}

// CallLevel returns the call level of the snapshot: the level at which variable paths are resolved
func (s *Snapshot) CallLevel() int { return s.level }

// EnterCallLevel sets the call level of the snapshot. The function resolver enters the callee level on the input
// of a call before binding the arguments.
func (s *Snapshot) EnterCallLevel(level int) {
	s.mutate()
	s.level = level
}

// StartTransaction opens a transaction on the snapshot, making it modifiable
func (s *Snapshot) StartTransaction() {
	b := s.state.clone()
	s.base = &b
	s.frozen = false
}

// CommitTransaction closes the current transaction and returns true if the content of the snapshot changed since
// the transaction started. The snapshot is read-only until the next transaction.
func (s *Snapshot) CommitTransaction() bool {
	if s.base == nil {
		panic(&values.FatalError{Message: "commit of a snapshot outside a transaction"})
	}
	s.changed = !s.base.equal(s.state)
	s.base = nil
	s.frozen = true
	return s.changed
}

// InTransaction returns true while a transaction is open
func (s *Snapshot) InTransaction() bool { return s.base != nil }

// HasChanges returns the result of the last commit
func (s *Snapshot) HasChanges() bool { return s.changed }

// Equal returns true if s and o have the same content and call level
func (s *Snapshot) Equal(o *Snapshot) bool {
	return s.level == o.level && s.state.equal(o.state)
}

// IsEmpty returns true if the snapshot has no location
func (s *Snapshot) IsEmpty() bool {
	return len(s.values) == 0 && len(s.refs) == 0 && len(s.children) == 0
}

func (s *Snapshot) mutate() {
	if s.frozen {
		panic(&values.FatalError{Message: "modification of a committed snapshot outside a transaction"})
	}
}

// cells returns all the locations of the snapshot, sorted
func (s *Snapshot) cells() []Index {
	seen := map[Index]bool{}
	for c := range s.values {
		seen[c] = true
	}
	for c := range s.refs {
		seen[c] = true
	}
	res := make([]Index, 0, len(seen))
	for c := range seen {
		res = append(res, c)
	}
	sortIndices(res)
	return res
}

func sortIndices(a []Index) {
	sort.Slice(a, func(i, j int) bool { return indexLess(a[i], a[j]) })
}

func sortedSet(set map[Index]bool) []Index {
	res := make([]Index, 0, len(set))
	for c := range set {
		res = append(res, c)
	}
	sortIndices(res)
	return res
}

// Dump returns a deterministic rendering of the content of the snapshot, one location per line
func (s *Snapshot) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "level %d\n", s.level)
	for _, c := range s.cells() {
		if t, ok := s.refs[c]; ok {
			targets := sortedSet(t)
			names := make([]string, len(targets))
			for i, x := range targets {
				names[i] = x.String()
			}
			fmt.Fprintf(&b, "%s -> &{%s}\n", c, strings.Join(names, ", "))
		}
		if e, ok := s.values[c]; ok {
			fmt.Fprintf(&b, "%s = %s\n", c, e)
		}
	}
	return b.String()
}

func (s *Snapshot) String() string { return s.Dump() }
