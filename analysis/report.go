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

package analysis

import (
	"fmt"
	"io"
	"strings"

	"github.com/awslabs/ar-php-tools/analysis/flow"
	"github.com/awslabs/ar-php-tools/analysis/memory"
	"github.com/awslabs/ar-php-tools/internal/formatutil"
	"github.com/awslabs/ar-php-tools/internal/funcutil"
	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
	"gopkg.in/yaml.v3"
)

// reportWidth is the column at which warning messages are wrapped
const reportWidth = 100

// ByFile groups the warnings by the file of their position
func (r *Result) ByFile() map[string][]memory.Warning {
	res := map[string][]memory.Warning{}
	for _, w := range r.Warnings {
		res[w.Pos.File] = append(res[w.Pos.File], w)
	}
	return res
}

// CountByKind returns the number of warnings of each kind
func (r *Result) CountByKind() map[string]int {
	res := map[string]int{}
	for _, w := range r.Warnings {
		res[w.Kind]++
	}
	return res
}

// Print writes the warnings grouped by file, followed by a summary
func (r *Result) Print(w io.Writer) {
	byFile := r.ByFile()
	for _, file := range funcutil.SortedKeys(byFile) {
		fmt.Fprintln(w, formatutil.Bold(file))
		for _, warning := range byFile[file] {
			head := fmt.Sprintf("%d:%d %s", warning.Pos.Line, warning.Pos.Col, formatutil.Yellow(warning.Kind))
			msg := wordwrap.String(formatutil.Sanitize(warning.Message), reportWidth-4)
			fmt.Fprintf(w, "  %s\n%s\n", head, indent.String(msg, 4))
		}
	}
	var kinds []string
	counts := r.CountByKind()
	for _, kind := range funcutil.SortedKeys(counts) {
		kinds = append(kinds, fmt.Sprintf("%s: %d", kind, counts[kind]))
	}
	summary := fmt.Sprintf("%s: %d warnings", r.Entry, len(r.Warnings))
	if len(kinds) > 0 {
		summary += " (" + strings.Join(kinds, ", ") + ")"
	}
	if r.Suppressed > 0 {
		summary += fmt.Sprintf(", %d suppressed", r.Suppressed)
	}
	if r.Output == nil {
		summary += ", end of script not reached"
	}
	fmt.Fprintln(w, wordwrap.String(summary, reportWidth))
	fmt.Fprintf(w, "%s\n", formatutil.Faint(fmt.Sprintf("%d points, %d commits, %d widenings, %d graphs",
		r.Stats.Points, r.Stats.Commits, r.Stats.Widenings, r.Stats.Graphs)))
}

type reportWarning struct {
	File    string `yaml:"file"`
	Line    int    `yaml:"line"`
	Col     int    `yaml:"col"`
	Kind    string `yaml:"kind"`
	Message string `yaml:"message"`
}

type report struct {
	Entry      string          `yaml:"entry"`
	EndReached bool            `yaml:"end-reached"`
	Suppressed int             `yaml:"suppressed"`
	Warnings   []reportWarning `yaml:"warnings"`
	Stats      flow.Stats      `yaml:"stats"`
	Seconds    float64         `yaml:"seconds"`
}

// WriteYAML writes the result as a YAML document
func (r *Result) WriteYAML(w io.Writer) error {
	rep := report{
		Entry:      r.Entry,
		EndReached: r.Output != nil,
		Suppressed: r.Suppressed,
		Stats:      r.Stats,
		Seconds:    r.Duration.Seconds(),
	}
	for _, warning := range r.Warnings {
		rep.Warnings = append(rep.Warnings, reportWarning{
			File:    warning.Pos.File,
			Line:    warning.Pos.Line,
			Col:     warning.Pos.Col,
			Kind:    warning.Kind,
			Message: warning.Message,
		})
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(rep); err != nil {
		return err
	}
	return enc.Close()
}
