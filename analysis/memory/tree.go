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

// stageIndex is the temporary location where written entries are staged before being copied to their targets
var stageIndex = Temporary(Global, ".stage")

func (s *Snapshot) exists(c Index) bool {
	if _, ok := s.values[c]; ok {
		return true
	}
	_, ok := s.refs[c]
	return ok
}

func (s *Snapshot) isContainer(c Index) bool {
	return s.children[c] != nil
}

func (s *Snapshot) addChild(parent Index, seg Segment) {
	old := s.children[parent]
	if old[seg] {
		return
	}
	kids := make(map[Segment]bool, len(old)+1)
	for k := range old {
		kids[k] = true
	}
	kids[seg] = true
	s.children[parent] = kids
}

func (s *Snapshot) removeChild(parent Index, seg Segment) {
	old := s.children[parent]
	if !old[seg] {
		return
	}
	kids := make(map[Segment]bool, len(old))
	for k := range old {
		if k != seg {
			kids[k] = true
		}
	}
	s.children[parent] = kids
}

// ensureContainer marks c as a container
func (s *Snapshot) ensureContainer(c Index) {
	if s.children[c] == nil {
		s.children[c] = map[Segment]bool{}
	}
}

// referrers returns, for every target of a reference binding, the other locations bound to it
func (s *Snapshot) referrers() map[Index][]Index {
	res := map[Index][]Index{}
	for r, targets := range s.refs {
		for t := range targets {
			if t != r {
				res[t] = append(res[t], r)
			}
		}
	}
	return res
}

// sharedBinding returns the binding a copy of c must have: the binding of c when c is bound, or c itself when c
// is the target of the binding of another location. It returns nil when c holds an unshared value.
func (s *Snapshot) sharedBinding(c Index, refd map[Index][]Index) map[Index]bool {
	if b, ok := s.refs[c]; ok {
		return b
	}
	if len(refd[c]) > 0 {
		return map[Index]bool{c: true}
	}
	return nil
}

// ownedBy rewrites the arrays owned by src into arrays owned by dst
func ownedBy(e Entry, src, dst Index) Entry {
	changed := false
	for _, v := range e.Values() {
		if a, ok := v.(values.Array); ok && a.Owner == src {
			changed = true
			break
		}
	}
	if !changed {
		return e
	}
	return e.Map(func(v values.Value) values.Value {
		if a, ok := v.(values.Array); ok && a.Owner == src {
			return values.Array{Owner: dst}
		}
		return v
	})
}

// copyTree copies the value at src and the elements of the array it holds to dst. A strong copy replaces the
// content of dst, which must have been cleared. A weak copy joins the copied content with the content of dst.
// Elements holding references are copied as references to the same targets.
func (s *Snapshot) copyTree(src, dst Index, weak bool) {
	s.copyCell(src, dst, weak, true, s.referrers())
}

func (s *Snapshot) copyCell(src, dst Index, weak, root bool, refd map[Index][]Index) {
	if !root {
		if b := s.sharedBinding(src, refd); b != nil {
			s.copyBinding(b, dst, weak)
			return
		}
	}
	e := ownedBy(s.values[src], src, dst)
	if old, ok := s.values[dst]; weak && ok {
		e = old.Union(e)
	}
	if !e.IsEmpty() {
		s.values[dst] = e
	}
	s.copyChildren(src, dst, weak, refd)
}

func (s *Snapshot) copyBinding(b map[Index]bool, dst Index, weak bool) {
	nb := make(map[Index]bool, len(b)+1)
	for t := range b {
		nb[t] = true
	}
	if weak {
		if old, ok := s.refs[dst]; ok {
			for t := range old {
				nb[t] = true
			}
		} else if s.exists(dst) {
			nb[dst] = true
		}
	} else {
		s.deleteTree(dst, false)
	}
	if !(len(nb) == 1 && nb[dst]) {
		s.refs[dst] = nb
	}
}

// copyChildren copies the elements of the array held at src to the array held at dst
func (s *Snapshot) copyChildren(src, dst Index, weak bool, refd map[Index][]Index) {
	srcKids := s.children[src]
	if srcKids == nil {
		return
	}
	dstKids := s.children[dst]
	joined := weak && dstKids != nil
	if joined {
		// elements of the old array missing from the copied one
		for k := range dstKids {
			if !srcKids[k] {
				s.addUndefined(dst.Child(k))
			}
		}
	}
	s.ensureContainer(dst)
	for k := range srcKids {
		existed := dstKids[k]
		s.addChild(dst, k)
		s.copyCell(src.Child(k), dst.Child(k), weak && existed, false, refd)
		if joined && !existed {
			s.addUndefined(dst.Child(k))
		}
	}
}

// addUndefined adds Undefined to the values of c. A bound location becomes possibly bound to its own content.
func (s *Snapshot) addUndefined(c Index) {
	if b, ok := s.refs[c]; ok && !b[c] {
		nb := map[Index]bool{c: true}
		for t := range b {
			nb[t] = true
		}
		s.refs[c] = nb
	}
	s.values[c] = s.values[c].Add(values.Undefined{})
}

// deleteTree removes c and its descendants. When detach is set, c is also removed from the children of its parent.
func (s *Snapshot) deleteTree(c Index, detach bool) {
	for k := range s.children[c] {
		s.deleteTree(c.Child(k), false)
	}
	delete(s.values, c)
	delete(s.refs, c)
	delete(s.children, c)
	if detach {
		if parent, seg, ok := c.Parent(); ok {
			s.removeChild(parent, seg)
		}
	}
}

// subtree returns c and its descendants
func (s *Snapshot) subtree(c Index) []Index {
	res := []Index{c}
	for k := range s.children[c] {
		res = append(res, s.subtree(c.Child(k))...)
	}
	return res
}

// moveTree moves the content of src and its descendants to dst, rewriting the arrays they own and the bindings
// targeting them. A weak move joins the moved content with the content of dst.
func (s *Snapshot) moveTree(src, dst Index, weak bool) {
	cells := s.subtree(src)
	for _, x := range cells {
		y := src.rebase(x, dst)
		if e, ok := s.values[x]; ok {
			e = e.Map(func(v values.Value) values.Value {
				if a, ok := v.(values.Array); ok {
					if idx, ok := a.Owner.(Index); ok && src.IsPrefixOf(idx) {
						return values.Array{Owner: src.rebase(idx, dst)}
					}
				}
				return v
			})
			if old, ok := s.values[y]; weak && ok {
				e = old.Union(e)
			}
			s.values[y] = e
			delete(s.values, x)
		}
		if kids, ok := s.children[x]; ok {
			for k := range kids {
				s.addChild(y, k)
			}
			s.ensureContainer(y)
			delete(s.children, x)
		}
		if b, ok := s.refs[x]; ok {
			nb := map[Index]bool{}
			for t := range b {
				nb[t] = true
			}
			if old, ok := s.refs[y]; weak && ok {
				for t := range old {
					nb[t] = true
				}
			}
			s.refs[y] = nb
			delete(s.refs, x)
		}
	}
	s.retarget(func(t Index) (Index, bool) {
		if src.IsPrefixOf(t) {
			return src.rebase(t, dst), true
		}
		return t, false
	})
}

// retarget rewrites the targets of every binding with f. Bindings reduced to their own location are removed.
func (s *Snapshot) retarget(f func(Index) (Index, bool)) {
	for r, b := range s.refs {
		changed := false
		for t := range b {
			if _, ok := f(t); ok {
				changed = true
				break
			}
		}
		if !changed {
			continue
		}
		nb := map[Index]bool{}
		for t := range b {
			if u, ok := f(t); ok {
				nb[u] = true
			} else {
				nb[t] = true
			}
		}
		s.setBinding(r, nb)
	}
}

// setBinding sets the binding of r. An empty binding, or a binding of r to itself alone, removes the binding.
func (s *Snapshot) setBinding(r Index, b map[Index]bool) {
	if len(b) == 0 || (len(b) == 1 && b[r]) {
		delete(s.refs, r)
		return
	}
	s.refs[r] = b
}

// relocate moves the content of c to one of the locations bound to it, and binds the other locations to that
// one. It is called before the content of c is removed, so that the locations bound to c keep their value. The
// locations in the subtree of excluded are ignored.
func (s *Snapshot) relocate(c Index, excluded Index) bool {
	var rs []Index
	for _, r := range s.referrers()[c] {
		if !excluded.IsPrefixOf(r) {
			rs = append(rs, r)
		}
	}
	if len(rs) == 0 {
		return false
	}
	sortIndices(rs)
	r := rs[0]
	own := s.refs[r][r]
	if !own {
		s.deleteOwn(r)
	}
	s.moveTree(c, r, own)
	if b, ok := s.refs[r]; ok {
		s.setBinding(r, b)
	}
	return true
}

// deleteOwn removes the content of r, keeping its binding
func (s *Snapshot) deleteOwn(r Index) {
	b, bound := s.refs[r]
	s.deleteTree(r, false)
	if bound {
		s.refs[r] = b
	}
}

// clearDescendants removes the descendants of c, relocating those that are bound to from outside of c
func (s *Snapshot) clearDescendants(c Index) {
	for k := range s.children[c] {
		s.detachShared(c.Child(k), c)
	}
	for k := range s.children[c] {
		s.deleteTree(c.Child(k), false)
	}
	if s.children[c] != nil {
		delete(s.children, c)
	}
}

// detachShared relocates d, or its descendants when d is not bound to, when they are bound to from outside of
// excluded
func (s *Snapshot) detachShared(d Index, excluded Index) {
	if _, bound := s.refs[d]; !bound && s.relocate(d, excluded) {
		return
	}
	for k := range s.children[d] {
		s.detachShared(d.Child(k), excluded)
	}
}

// unbind removes the location c: its binding when it is bound, its content otherwise. Content bound to by other
// locations is relocated first.
func (s *Snapshot) unbind(c Index) {
	if b, ok := s.refs[c]; ok {
		delete(s.refs, c)
		if !b[c] {
			return
		}
	}
	s.detachShared(c, c)
	s.deleteTree(c, false)
}
