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

package flow

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/config"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/ppg"
)

// Warning kinds raised by the driver
const (
	CallDepthWarning   = "CALL_DEPTH"
	IncludeWarning     = "INCLUDE"
	EvalWarning        = "EVAL"
	UnsupportedWarning = "UNSUPPORTED"
)

// Controller is the context of the semantic action of a program point. The collaborators read and modify the
// output set of the point through it, and the expression walker dispatches calls, includes and evals through it.
type Controller struct {
	// Point is the program point being processed
	Point *ppg.Point
	// OutSet is the output set of the point, inside a transaction
	OutSet   *memory.Snapshot
	Config   *config.Config
	Log      *config.LogGroup
	Services *Services

	analysis *ForwardAnalysis
	inst     *instance
	// node is the node being evaluated, for warning positions
	node ir.Node
	// blocked is set when the point does not complete
	blocked bool
}

// Level returns the call level of the output set
func (c *Controller) Level() int { return c.OutSet.CallLevel() }

// Extension returns the extension of the point
func (c *Controller) Extension() *ppg.Extension { return c.Point.Extension }

// Function returns the function whose body contains the point, nil in scripts
func (c *Controller) Function() *ir.FunctionDecl { return c.Point.Graph.Owner }

// Position returns the position of the node being evaluated, or of the point. Native points have no node and take
// the position of their call site.
func (c *Controller) Position() ir.Pos {
	if c.node != nil && c.node.Position().IsValid() {
		return c.node.Position()
	}
	if c.Point.Kind == ppg.Native && c.inst != nil && c.inst.site.IsValid() {
		return c.inst.site
	}
	return c.Point.Position()
}

// SetWarning records a warning at the current position
func (c *Controller) SetWarning(kind, format string, args ...any) {
	c.SetWarningAt(c.Position(), kind, fmt.Sprintf(format, args...))
}

// SetWarningAt records a warning at the position
func (c *Controller) SetWarningAt(pos ir.Pos, kind, message string) {
	c.OutSet.SetWarning(memory.Warning{Kind: kind, Message: message, Pos: pos})
}

// Block marks the point as not completing: its output does not flow to its children
func (c *Controller) Block() { c.blocked = true }

// Blocked returns true if the point does not complete
func (c *Controller) Blocked() bool { return c.blocked }

// Depth returns the number of graphs on the run stack
func (c *Controller) Depth() int { return len(c.analysis.stack) }

// ClassName resolves self, static and parent to the classes of the enclosing method
func (c *Controller) ClassName(name string) string {
	fn := c.Function()
	if fn == nil || fn.Class == nil {
		return name
	}
	switch strings.ToLower(name) {
	case "self", "static":
		return fn.Class.Name
	case "parent":
		if fn.Class.Parent != "" {
			return fn.Class.Parent
		}
	}
	return name
}

// Eval evaluates the expression in the output set
func (c *Controller) Eval(e ir.Expr) memory.Entry {
	return c.expr(e)
}

// Path returns the path denoted by an assignable expression. Other expressions are evaluated into a temporary
// location whose path is returned.
func (c *Controller) Path(e ir.Expr) memory.Path {
	return c.path(e)
}

func tempName(prefix string, n ir.Node) string {
	return prefix + "#" + strconv.Itoa(n.ID())
}
