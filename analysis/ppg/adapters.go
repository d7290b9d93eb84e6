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

package ppg

import (
	"sort"

	"github.com/awslabs/ar-php-tools/internal/graphutil"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/traverse"
)

// Directed returns the structure of the graph as a DGraph whose nodes are the indices of the points
func (g *Graph) Directed() *graphutil.DGraph {
	dg := graphutil.NewDGraph(len(g.Points))
	for _, p := range g.Points {
		dg.SetLabel(p.Index, p.Label())
		for _, c := range p.Children {
			dg.AddEdge(p.Index, c.Index)
		}
	}
	return dg
}

// CyclicPoints returns the points lying on a cycle of the graph
func (g *Graph) CyclicPoints() map[*Point]bool {
	res := map[*Point]bool{}
	for _, i := range graphutil.CyclicNodes(g.Directed()) {
		res[g.Points[i]] = true
	}
	return res
}

// Loops returns the elementary cycles of the graph, each one as the sequence of its points starting from its point
// of least index
func (g *Graph) Loops() [][]*Point {
	var res [][]*Point
	for _, cycle := range graphutil.FindAllElementaryCycles(g.Directed()) {
		loop := make([]*Point, 0, len(cycle)-1)
		for _, i := range cycle[:len(cycle)-1] {
			loop = append(loop, g.Points[i])
		}
		res = append(res, loop)
	}
	return res
}

// Reachable returns the points reachable from the point from, including from, ordered by index
func (g *Graph) Reachable(from *Point) []*Point {
	dg := g.Directed()
	var res []*Point
	bf := traverse.BreadthFirst{
		Visit: func(n graph.Node) { res = append(res, g.Points[n.ID()]) },
	}
	bf.Walk(dg, dg.Node(int64(from.Index)), nil)
	sort.Slice(res, func(i, j int) bool { return res[i].Index < res[j].Index })
	return res
}

// DOT renders the graph in the DOT language, labelling the nodes with the points
func (g *Graph) DOT() (string, error) {
	b, err := dot.Marshal(g.Directed(), g.Name, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}
