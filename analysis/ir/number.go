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

package ir

// IDAllocator allocates node identifiers. A single allocator must be used for all the files of a program so that
// identifiers are unique across files.
type IDAllocator struct {
	next int
}

// Next returns a fresh identifier. Identifiers start at 1; 0 is the identifier of nodes that have not been numbered.
func (a *IDAllocator) Next() int {
	a.next++
	return a.next
}

// Count returns the number of identifiers allocated so far
func (a *IDAllocator) Count() int {
	return a.next
}

// Number assigns a fresh identifier to every node of the file in a single pre-order pass, sets the file of every
// position, and links the methods of classes to their declaring class.
// Nodes that already have an identifier keep it, so numbering twice is harmless.
func Number(alloc *IDAllocator, f *File) {
	InspectStmts(f.Body, func(n Node) bool {
		b := n.node()
		if b.NodeID == 0 {
			b.NodeID = alloc.Next()
		}
		if b.Pos.File == "" {
			b.Pos.File = f.Path
		}
		switch x := n.(type) {
		case *FunctionDecl:
			x.File = f.Path
		case *ClassDecl:
			for _, m := range x.Methods {
				m.Class = x
			}
		}
		return true
	})
}

// NumberExpr assigns identifiers to a detached expression tree, such as the synthetic conditions created by the
// control-flow graph builder.
func NumberExpr(alloc *IDAllocator, e Expr, pos Pos) {
	Inspect(e, func(n Node) bool {
		b := n.node()
		if b.NodeID == 0 {
			b.NodeID = alloc.Next()
		}
		if !b.Pos.IsValid() {
			b.Pos = pos
		}
		return true
	})
}

// Synthetic sets the identifier and position of a node created after numbering, such as the conditions created by
// the control-flow graph builder. Synthetic identifiers are negative and only unique within one builder.
func Synthetic(n Node, id int, pos Pos) {
	b := n.node()
	b.NodeID = id
	b.Pos = pos
}
