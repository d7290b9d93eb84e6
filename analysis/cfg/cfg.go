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

// Package cfg builds the basic-block control-flow graph of a statement list. Blocks hold ordered items, which are
// statements, expressions evaluated for their effects, or markers added by the builder (entering and leaving try
// scopes, binding foreach elements and caught exceptions). A block leaves through its conditional edges, whose
// conditions are boolean expressions, or through its default edge, taken when no edge condition holds.
package cfg

import (
	"fmt"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/ir"
)

// Role is the part a node plays in a block
type Role uint8

const (
	// Exec is the execution of a statement or of an expression for its effects
	Exec Role = iota
	// TryEnter makes the catch clauses of the *ir.Try node active
	TryEnter
	// TryExit removes the catch clauses of the *ir.Try node
	TryExit
	// ForeachBind binds the next element of the iterated array to the key and value of the *ir.Foreach node
	ForeachBind
	// CatchBind binds the caught exception to the variable of the *ir.Catch node
	CatchBind
)

func (r Role) String() string {
	switch r {
	case TryEnter:
		return "try-enter"
	case TryExit:
		return "try-exit"
	case ForeachBind:
		return "foreach-bind"
	case CatchBind:
		return "catch-bind"
	default:
		return "exec"
	}
}

// Item is one step of a block
type Item struct {
	Node ir.Node
	Role Role
	// Seq distinguishes the occurrences of the same node with the same role in a graph
	Seq int
}

// Key identifies the item in its graph
func (i Item) Key() ItemKey {
	return ItemKey{Node: i.Node.ID(), Role: i.Role, Seq: i.Seq}
}

func (i Item) String() string {
	if i.Role == Exec {
		return ir.Format(i.Node)
	}
	return i.Role.String() + " " + ir.Format(i.Node)
}

// ItemKey is the identity of an item: node identifier, role and occurrence
type ItemKey struct {
	Node int
	Role Role
	Seq  int
}

// Edge is a conditional edge. It is taken when Cond holds.
type Edge struct {
	Cond ir.Expr
	To   *Block
}

// Block is a basic block
type Block struct {
	ID    int
	Items []Item
	// Edges are the conditional edges leaving the block
	Edges []Edge
	// Default is the successor when none of the conditions of Edges holds. It is nil for blocks ending the
	// execution (throw, exit) or ending in the exit of the graph with no default edge.
	Default *Block
	// Catch is the catch clause of blocks entered only when an exception is thrown
	Catch *ir.Catch
}

func (b *Block) add(role Role, n ir.Node) {
	b.Items = append(b.Items, Item{Node: n, Role: role})
}

// Successors returns the blocks reached by the edges of b, default last
func (b *Block) Successors() []*Block {
	var res []*Block
	for _, e := range b.Edges {
		res = append(res, e.To)
	}
	if b.Default != nil {
		res = append(res, b.Default)
	}
	return res
}

// Graph is the control-flow graph of a function body or a script
type Graph struct {
	// Entry is the first block
	Entry *Block
	// Exit is the block reached when the body completes normally or returns. It is nil when no path reaches it.
	Exit *Block
	// Blocks contains the blocks reachable from Entry or from a catch block, Entry first
	Blocks []*Block
	// Catches are the entry blocks of catch clauses. They have no static predecessor.
	Catches []*Block
}

// String returns a textual representation of the graph, one block per line
func (g *Graph) String() string {
	var b strings.Builder
	for _, blk := range g.Blocks {
		fmt.Fprintf(&b, "b%d", blk.ID)
		if blk == g.Exit {
			b.WriteString(" (exit)")
		}
		if blk.Catch != nil {
			b.WriteString(" (catch)")
		}
		b.WriteString(":")
		for _, it := range blk.Items {
			b.WriteString(" [" + it.String() + "]")
		}
		for _, e := range blk.Edges {
			fmt.Fprintf(&b, " if %s -> b%d", ir.Format(e.Cond), e.To.ID)
		}
		if blk.Default != nil {
			fmt.Fprintf(&b, " -> b%d", blk.Default.ID)
		}
		b.WriteString("\n")
	}
	return b.String()
}
