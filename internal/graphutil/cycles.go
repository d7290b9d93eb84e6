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

package graphutil

import (
	"sort"

	"github.com/yourbasic/graph"
)

// CyclicNodes returns the sorted nodes of g that lie on some cycle: the members of strongly connected components
// with at least two nodes, and the nodes with a self-loop.
func CyclicNodes(g *DGraph) []int {
	var res []int
	for _, component := range graph.StrongComponents(g) {
		if len(component) >= 2 {
			res = append(res, component...)
		} else if len(component) == 1 && g.HasEdgeFromTo(int64(component[0]), int64(component[0])) {
			res = append(res, component[0])
		}
	}
	sort.Ints(res)
	return res
}

// FindAllElementaryCycles finds all elementary cycles in the graph g
// This uses Donald B. Johnson's algorithm presented in
// "Finding All The Elementary Circuits of a Directed Graph", 1975
//
//	g : the graph with cycles
func FindAllElementaryCycles(g *DGraph) [][]int64 {
	s := &state{
		blocked: map[int64]bool{},
		blist:   map[int64]map[int64]bool{},
		stack:   []int64{},
		cycles:  [][]int64{},
	}
	keys := g.Keys()
	nodeid := 0
	for nodeid < len(keys) {
		fg := Subgraph(g, keys[nodeid:])
		components := graph.StrongComponents(fg)
		// the least node that is in a non-trivial component or has a self-loop
		least := -1
		for _, component := range components {
			if len(component) >= 2 || (len(component) == 1 &&
				fg.HasEdgeFromTo(int64(component[0]), int64(component[0]))) {
				sort.Ints(component)
				if least < 0 || component[0] < least {
					least = component[0]
				}
			}
		}
		if least < 0 {
			return s.cycles
		}
		s.stack = []int64{}
		s.blocked = map[int64]bool{}
		s.blist = map[int64]map[int64]bool{}
		s.circuit(int64(least), int64(least), fg)
		nodeid = sort.Search(len(keys), func(i int) bool { return keys[i] > int64(least) })
	}
	return s.cycles
}

type state struct {
	blocked map[int64]bool
	blist   map[int64]map[int64]bool
	stack   []int64
	cycles  [][]int64
}

func (s *state) unblock(u int64) {
	s.blocked[u] = false
	for w := range s.blist[u] {
		delete(s.blist[u], w)
		if s.blocked[w] {
			s.unblock(w)
		}
	}
}

func (s *state) circuit(v int64, i int64, g *DGraph) bool {
	f := false
	s.stack = append(s.stack, v)
	s.blocked[v] = true
	for _, w := range g.Successors(int(v)) {
		w := int64(w)
		if w == i {
			stackCopy := make([]int64, len(s.stack))
			copy(stackCopy, s.stack)
			stackCopy = append(stackCopy, w)
			s.cycles = append(s.cycles, stackCopy)
			f = true
		} else if !s.blocked[w] {
			if s.circuit(w, i, g) {
				f = true
			}
		}
	}

	if f {
		s.unblock(v)
	} else {
		for _, w := range g.Successors(int(v)) {
			w := int64(w)
			m := s.blist[w]
			if m != nil {
				s.blist[w][v] = true
			} else {
				s.blist[w] = map[int64]bool{v: true}
			}
		}
	}
	s.stack = s.stack[:len(s.stack)-1]
	return f
}
