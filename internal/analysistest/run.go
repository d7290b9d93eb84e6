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

package analysistest

import (
	"context"
	"fmt"
	"testing"

	"github.com/awslabs/ar-php-tools/analysis/cfg"
	"github.com/awslabs/ar-php-tools/analysis/config"
	"github.com/awslabs/ar-php-tools/analysis/flow"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/analysis/phpsem"
	"github.com/awslabs/ar-php-tools/analysis/ppg"
	"github.com/awslabs/ar-php-tools/internal/funcutil"
)

// IRProgram is a program built from intermediate representation trees, for tests that do not parse PHP
type IRProgram struct {
	alloc ir.IDAllocator
	files map[string]*ir.File
	codes map[string]*ir.File
}

// NewIRProgram returns an empty program
func NewIRProgram() *IRProgram {
	return &IRProgram{files: map[string]*ir.File{}, codes: map[string]*ir.File{}}
}

// AddFile numbers the statements and adds them as the file at path
func (p *IRProgram) AddFile(path string, body ...ir.Stmt) *ir.File {
	f := ir.NewFile(&p.alloc, path, body...)
	p.files[path] = f
	return f
}

// AddCode registers the statements as the result of parsing the evaluated code
func (p *IRProgram) AddCode(code string, body ...ir.Stmt) {
	p.codes[code] = ir.NewFile(&p.alloc, "eval", body...)
}

// ParseCode returns the statements registered for the code
func (p *IRProgram) ParseCode(code string, origin ir.Pos) (*ir.File, error) {
	if f, ok := p.codes[code]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("%s: syntax error in evaluated code", origin)
}

// LoadFile returns the file at path
func (p *IRProgram) LoadFile(path string) (*ir.File, error) {
	if f, ok := p.files[path]; ok {
		return f, nil
	}
	return nil, fmt.Errorf("file %s not found", path)
}

// ResolveInclude returns path when the program has a file at path
func (p *IRProgram) ResolveInclude(path, from string) (string, bool) {
	_, ok := p.files[path]
	return path, ok
}

// Paths returns the sorted paths of the files
func (p *IRProgram) Paths() []string {
	return funcutil.SortedKeys(p.files)
}

// RunIR analyzes the file main of the program with the default semantics. The test fails if the analysis returns
// an error.
func RunIR(t testing.TB, c *config.Config, p *IRProgram, main string) *flow.ForwardAnalysis {
	t.Helper()
	if c == nil {
		c = config.NewDefault()
	}
	f, err := p.LoadFile(main)
	if err != nil {
		t.Fatalf("%v", err)
	}
	g := ppg.Build(cfg.Build(f.Body), f.Path)
	g.File = f.Path
	a := flow.NewForwardAnalysis(c, config.NewLogGroup(c), phpsem.NewServices(p, p, p))
	if err := a.Run(context.Background(), g, phpsem.InitialSnapshot()); err != nil {
		t.Fatalf("analysis of %s failed: %v", main, err)
	}
	return a
}

// WarningKinds returns the kinds of the warnings of the analysis, in order
func WarningKinds(a *flow.ForwardAnalysis) []string {
	return funcutil.Map(a.Warnings(), func(w memory.Warning) string { return w.Kind })
}

// HasWarning returns true if the analysis raised a warning of the kind
func HasWarning(a *flow.ForwardAnalysis, kind string) bool {
	return funcutil.Contains(WarningKinds(a), kind)
}
