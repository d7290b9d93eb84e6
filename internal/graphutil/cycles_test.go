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

package graphutil_test

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/awslabs/ar-php-tools/internal/funcutil"
	"github.com/awslabs/ar-php-tools/internal/graphutil"
	"github.com/yourbasic/graph"
	"golang.org/x/exp/slices"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/encoding/dot"
	"gonum.org/v1/gonum/graph/traverse"
)

func mkGraph(n int, edges [][2]int) *graphutil.DGraph {
	g := graphutil.NewDGraph(n)
	for i := 0; i < n; i++ {
		g.SetLabel(i, "n"+strconv.Itoa(i))
	}
	for _, e := range edges {
		g.AddEdge(e[0], e[1])
	}
	return g
}

func TestFindAllElementaryCycles(t *testing.T) {
	g := mkGraph(11, [][2]int{
		{0, 1}, {1, 2}, {2, 4}, {4, 2}, {2, 5}, {5, 10}, {10, 2}, {2, 6}, {6, 4},
		{3, 8}, {8, 3}, {3, 9}, {9, 8}, {7, 7},
	})
	stats := graph.Check(g)
	t.Logf("Stats:\n\tsize: %d\n\tmulti: %d\n\tloops: %d\n\tisolated: %d",
		stats.Size, stats.Multi, stats.Loops, stats.Isolated)
	if stats.Loops != 1 {
		t.Errorf("expected one self-loop, got %d", stats.Loops)
	}

	cycles := graphutil.FindAllElementaryCycles(g)
	expected := []string{"242", "25102", "2642", "383", "3983", "77"}

	results := make([]string, len(cycles))
	for i, cycle := range cycles {
		results[i] = strings.Join(
			funcutil.Map(cycle, func(_x int64) string { return strconv.Itoa(int(_x)) }),
			"")
	}
	sort.Slice(results, func(i, j int) bool { return results[i] < results[j] })
	if !slices.Equal(results, expected) {
		for i, s := range results {
			t.Logf("Cycle %d: %s", i, s)
		}
		t.Fatalf("Cycles not as expected")
	}
}

func TestCyclicNodes(t *testing.T) {
	g := mkGraph(6, [][2]int{{0, 1}, {1, 2}, {2, 1}, {2, 3}, {4, 4}})
	got := graphutil.CyclicNodes(g)
	if !slices.Equal(got, []int{1, 2, 4}) {
		t.Errorf("expected cyclic nodes [1 2 4], got %v", got)
	}
	if c := graphutil.CyclicNodes(mkGraph(3, [][2]int{{0, 1}, {1, 2}})); len(c) != 0 {
		t.Errorf("acyclic graph should have no cyclic nodes, got %v", c)
	}
}

func TestAddEdgeIsIdempotent(t *testing.T) {
	g := mkGraph(2, nil)
	if !g.AddEdge(0, 1) {
		t.Errorf("first edge insertion should return true")
	}
	if g.AddEdge(0, 1) {
		t.Errorf("second edge insertion should return false")
	}
	if len(g.Successors(0)) != 1 {
		t.Errorf("duplicate edges should not be stored")
	}
}

func TestGonumInterface(t *testing.T) {
	g := mkGraph(4, [][2]int{{0, 1}, {1, 2}, {0, 2}})
	var _ gonum.Directed = g

	nodes := g.Nodes()
	if nodes.Len() != 4 {
		t.Fatalf("expected 4 nodes, got %d", nodes.Len())
	}
	var ids []int64
	for nodes.Next() {
		ids = append(ids, nodes.Node().ID())
	}
	if !slices.Equal(ids, []int64{0, 1, 2, 3}) {
		t.Errorf("iteration should start at the first node, got %v", ids)
	}
	nodes.Reset()
	if !nodes.Next() || nodes.Node().ID() != 0 {
		t.Errorf("reset should restart the iteration")
	}
	if g.To(2).Len() != 2 {
		t.Errorf("node 2 should have two predecessors")
	}
	if !g.HasEdgeBetween(2, 1) || g.HasEdgeFromTo(2, 1) {
		t.Errorf("edge 1->2 is undirected-visible but not directed 2->1")
	}
	if g.Edge(1, 2) == nil || g.Edge(2, 3) != nil {
		t.Errorf("Edge should return exactly existing edges")
	}

	var visited []int64
	bf := traverse.BreadthFirst{Visit: func(n gonum.Node) { visited = append(visited, n.ID()) }}
	bf.Walk(g, g.Node(0), nil)
	sort.Slice(visited, func(i, j int) bool { return visited[i] < visited[j] })
	if !slices.Equal(visited, []int64{0, 1, 2}) {
		t.Errorf("3 should not be reachable from 0, visited %v", visited)
	}
}

func TestSubgraph(t *testing.T) {
	g := mkGraph(4, [][2]int{{0, 1}, {1, 2}, {2, 3}})
	sub := graphutil.Subgraph(g, []int64{1, 2})
	if sub.Order() != 4 {
		t.Errorf("subgraph should keep the order of the original graph")
	}
	if sub.Node(0) != nil || sub.Node(1) == nil {
		t.Errorf("subgraph should only contain the included nodes")
	}
	if sub.HasEdgeFromTo(2, 3) || !sub.HasEdgeFromTo(1, 2) {
		t.Errorf("subgraph should only contain the edges between included nodes")
	}
}

func TestMarshalDot(t *testing.T) {
	g := mkGraph(2, [][2]int{{0, 1}})
	b, err := dot.Marshal(g, "test", "", "  ")
	if err != nil {
		t.Fatalf("failed to marshal graph: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, "0 -> 1") || !strings.Contains(s, "n1") {
		t.Errorf("unexpected dot output:\n%s", s)
	}
}
