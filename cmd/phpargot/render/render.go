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

// Package render implements the render command, which prints the program point graph of a PHP script or of one of
// its functions in the DOT language.
package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis"
	"github.com/awslabs/ar-php-tools/analysis/cfg"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/ppg"
	"github.com/awslabs/ar-php-tools/cmd/phpargot/tools"
	"github.com/awslabs/ar-php-tools/internal/formatutil"
	"github.com/yourbasic/graph"
)

// Usage is the usage of the render command
const Usage = `Render the program point graph of a PHP script.
Usage:
  phpargot render [options] <php file>
Examples:
Render the graph of the top-level code of a script
  % phpargot render index.php > index.dot
Render the graph of a method and print statistics
  % phpargot render -function 'Cart::total' -stats cart.php > total.dot
`

// Flags represents the parsed render sub-command flags.
type Flags struct {
	tools.CommonFlags
	function string
	stats    bool
	out      string
}

// NewFlags returns the parsed render sub-command flags from args.
func NewFlags(args []string) (Flags, error) {
	flags := tools.NewUnparsedCommonFlags("render")
	function := flags.FlagSet.String("function", "", "function or Class::method to render instead of the script")
	stats := flags.FlagSet.Bool("stats", false, "print statistics about the graph on standard error")
	out := flags.FlagSet.String("o", "", "output file for the graph (standard output if not specified)")
	tools.SetUsage(flags.FlagSet, Usage)
	common, err := flags.Parse(args)
	if err != nil {
		return Flags{}, err
	}
	return Flags{CommonFlags: common, function: *function, stats: *stats, out: *out}, nil
}

// Run renders the graph selected by the flags
func Run(ctx context.Context, flags Flags) error {
	cfgFile, err := flags.Config()
	if err != nil {
		return err
	}
	if flags.FlagSet.NArg() != 1 {
		return fmt.Errorf("expected exactly one php file, got %d", flags.FlagSet.NArg())
	}
	path := flags.FlagSet.Arg(0)
	program, err := analysis.LoadProgram(ctx, cfgFile, path)
	if err != nil {
		return fmt.Errorf("could not load program: %v", err)
	}
	f, err := program.LoadFile(path)
	if err != nil {
		return err
	}
	g, err := Graph(f, flags.function)
	if err != nil {
		return err
	}
	dot, err := g.DOT()
	if err != nil {
		return fmt.Errorf("could not render %s: %v", g.Name, err)
	}
	w := io.Writer(os.Stdout)
	if flags.out != "" {
		out, err := os.Create(flags.out)
		if err != nil {
			return fmt.Errorf("could not create output file: %v", err)
		}
		defer out.Close()
		w = out
	}
	fmt.Fprintln(w, dot)
	if flags.stats {
		PrintStats(os.Stderr, g)
	}
	return nil
}

// Graph returns the program point graph of the function of the file, or of the file when function is empty.
// Methods are named Class::method.
func Graph(f *ir.File, function string) (*ppg.Graph, error) {
	if function == "" {
		g := ppg.Build(cfg.Build(f.Body), f.Path)
		g.File = f.Path
		return g, nil
	}
	decl := findFunction(f.Body, function)
	if decl == nil {
		return nil, fmt.Errorf("function %s not found in %s", function, f.Path)
	}
	g := ppg.Build(cfg.Build(decl.Body), decl.QualifiedName())
	g.Owner = decl
	g.File = f.Path
	return g, nil
}

func findFunction(body []ir.Stmt, name string) *ir.FunctionDecl {
	var found *ir.FunctionDecl
	ir.InspectStmts(body, func(n ir.Node) bool {
		if found != nil {
			return false
		}
		switch d := n.(type) {
		case *ir.FunctionDecl:
			if strings.EqualFold(d.QualifiedName(), name) {
				found = d
				return false
			}
		case *ir.ClassDecl:
			for _, m := range d.Methods {
				if strings.EqualFold(m.QualifiedName(), name) {
					found = m
					return false
				}
			}
		}
		return true
	})
	return found
}

// PrintStats prints the sizes of the graph: its points and edges, the points reachable from the start, the points
// on cycles and the elementary loops
func PrintStats(w io.Writer, g *ppg.Graph) {
	reachable := 0
	if g.Start != nil {
		reachable = len(g.Reachable(g.Start))
	}
	fmt.Fprintln(w, formatutil.Bold(g.Name))
	fmt.Fprintf(w, "  points:    %d\n", len(g.Points))
	fmt.Fprintf(w, "  edges:     %d\n", graph.Check(g.Directed()).Size)
	fmt.Fprintf(w, "  reachable: %d\n", reachable)
	fmt.Fprintf(w, "  on cycles: %d\n", len(g.CyclicPoints()))
	fmt.Fprintf(w, "  loops:     %d\n", len(g.Loops()))
	fmt.Fprintf(w, "  end:       %t\n", g.End != nil)
}
