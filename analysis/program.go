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
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/awslabs/ar-php-tools/analysis/config"
	"github.com/awslabs/ar-php-tools/analysis/frontend/php"
	"github.com/awslabs/ar-php-tools/analysis/ir"
	"github.com/awslabs/ar-php-tools/internal/funcutil"
	"github.com/minio/highwayhash"
	"github.com/viant/afs"
)

// hashKey is the highwayhash key of source fingerprints
var hashKey = []byte("0123456789ABCDEF0123456789ABCDEF")

// Fingerprint returns the highwayhash of the content
func Fingerprint(content []byte) uint64 {
	h, err := highwayhash.New64(hashKey)
	if err != nil {
		// the key has the required length
		panic(err)
	}
	h.Write(content)
	return h.Sum64()
}

// Program is a set of loaded PHP files. Files are loaded when the program is created and when includes reach them
// during the analysis. It provides the file loading, include resolution and eval parsing services of the analysis.
type Program struct {
	Config *config.Config
	// Directives maps the lines of the loaded files to the directives written in their comments
	Directives Directives

	fs    afs.Service
	mu    sync.Mutex
	alloc ir.IDAllocator
	files map[string]*ir.File
	// sources maps the paths of the loaded files to the fingerprints of their contents
	sources map[string]uint64
	// codes caches the parsed evaluated codes by fingerprint
	codes map[uint64]*ir.File
}

// NewProgram returns an empty program reading files with the file system service fs. If fs is nil, the default
// afs service is used, which can read local files as well as the other schemes afs supports.
func NewProgram(c *config.Config, fs afs.Service) *Program {
	if c == nil {
		c = config.NewDefault()
	}
	if fs == nil {
		fs = afs.New()
	}
	return &Program{
		Config:     c,
		Directives: Directives{},
		fs:         fs,
		files:      map[string]*ir.File{},
		sources:    map[string]uint64{},
		codes:      map[uint64]*ir.File{},
	}
}

// LoadProgram parses the files at paths. It returns an error if one of the files cannot be read or parsed.
func LoadProgram(ctx context.Context, c *config.Config, paths ...string) (*Program, error) {
	if len(paths) == 0 {
		return nil, fmt.Errorf("no files to load")
	}
	p := NewProgram(c, nil)
	for _, path := range paths {
		if _, err := p.load(ctx, path); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// AddSource parses content as the file at path, without reading the file system
func (p *Program) AddSource(ctx context.Context, path string, content []byte) (*ir.File, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.parse(ctx, filepath.Clean(path), content)
}

func (p *Program) load(ctx context.Context, path string) (*ir.File, error) {
	path = filepath.Clean(path)
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.files[path]; ok {
		return f, nil
	}
	content, err := p.fs.DownloadWithURL(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return p.parse(ctx, path, content)
}

func (p *Program) parse(ctx context.Context, path string, content []byte) (*ir.File, error) {
	f, err := php.Parse(ctx, path, content)
	if err != nil {
		return nil, err
	}
	ir.Number(&p.alloc, f)
	p.files[path] = f
	p.sources[path] = Fingerprint(content)
	p.Directives.scan(path, content)
	return f, nil
}

// LoadFile returns the parsed file at path, loading it if needed
func (p *Program) LoadFile(path string) (*ir.File, error) {
	return p.load(context.Background(), path)
}

// Files returns the loaded files, sorted by path
func (p *Program) Files() []*ir.File {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]*ir.File, 0, len(p.files))
	for _, path := range funcutil.SortedKeys(p.files) {
		res = append(res, p.files[path])
	}
	return res
}

// Fingerprint returns the fingerprint of the content of the loaded file at path
func (p *Program) Fingerprint(path string) (uint64, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	h, ok := p.sources[filepath.Clean(path)]
	return h, ok
}

// ResolveInclude returns the file an include of path made by the file from refers to. Relative paths are searched
// in the directory of from, then in the include paths of the config, then in the working directory.
func (p *Program) ResolveInclude(path, from string) (string, bool) {
	var candidates []string
	if filepath.IsAbs(path) {
		candidates = []string{path}
	} else {
		candidates = append(candidates, filepath.Join(filepath.Dir(from), path))
		for _, dir := range p.Config.IncludePaths {
			candidates = append(candidates, filepath.Join(dir, path))
		}
		candidates = append(candidates, path)
	}
	for _, c := range candidates {
		c = filepath.Clean(c)
		if p.exists(c) {
			return c, true
		}
	}
	return "", false
}

func (p *Program) exists(path string) bool {
	p.mu.Lock()
	_, loaded := p.files[path]
	p.mu.Unlock()
	if loaded {
		return true
	}
	ok, err := p.fs.Exists(context.Background(), path)
	return err == nil && ok
}

// ParseCode parses the code evaluated at origin. Codes with the same content are parsed once.
func (p *Program) ParseCode(code string, origin ir.Pos) (*ir.File, error) {
	key := Fingerprint([]byte(code))
	p.mu.Lock()
	defer p.mu.Unlock()
	if f, ok := p.codes[key]; ok {
		return f, nil
	}
	f, err := php.ParseCode(context.Background(), code, origin)
	if err != nil {
		return nil, err
	}
	ir.Number(&p.alloc, f)
	p.codes[key] = f
	return f, nil
}

// ********* Directives *********

// DirectiveKind represents the kind of directive
type DirectiveKind string

const (
	// DirectiveIgnore suppresses the warnings of its line, or of the next line when alone on its line
	DirectiveIgnore DirectiveKind = "ignore"
)

// Directive is an instruction to the analysis written in a comment of the analyzed source: // argot:ignore
type Directive struct {
	Kind DirectiveKind
	// Text is the text of the comment
	Text string
}

// DirectivePos is the line of a directive
type DirectivePos struct {
	Filename string
	Line     int
}

// Directives maps lines to the directive written on them
type Directives map[DirectivePos]Directive

// NewDirective returns the directive of the comment and true if the comment is a valid directive comment
func NewDirective(comment string) (Directive, bool) {
	_, after, found := strings.Cut(comment, "argot:")
	if !found {
		return Directive{}, false
	}
	words := strings.Fields(after)
	if len(words) == 0 {
		return Directive{}, false
	}
	switch k := DirectiveKind(strings.TrimSuffix(words[0], "*/")); k {
	case DirectiveIgnore:
		return Directive{Kind: k, Text: strings.TrimSpace(comment)}, true
	default:
		return Directive{}, false
	}
}

// scan records the directives of the line comments of the file content
func (d Directives) scan(path string, content []byte) {
	for i, line := range bytes.Split(content, []byte("\n")) {
		idx := bytes.Index(line, []byte("argot:"))
		if idx < 0 {
			continue
		}
		start := commentStart(line[:idx])
		dir, ok := NewDirective(string(line[start:]))
		if !ok {
			continue
		}
		d[DirectivePos{Filename: path, Line: i + 1}] = dir
		if len(bytes.TrimSpace(line[:start])) == 0 {
			// a directive alone on its line applies to the next line
			d[DirectivePos{Filename: path, Line: i + 2}] = dir
		}
	}
}

// commentStart returns the start of the last comment marker in the prefix, or the length of the prefix
func commentStart(prefix []byte) int {
	best := -1
	for _, marker := range []string{"//", "#", "/*"} {
		if i := bytes.LastIndex(prefix, []byte(marker)); i > best {
			best = i
		}
	}
	if best < 0 {
		return len(prefix)
	}
	return best
}

// Ignores returns true if a directive suppresses warnings at the position
func (d Directives) Ignores(pos ir.Pos) bool {
	dir, ok := d[DirectivePos{Filename: pos.File, Line: pos.Line}]
	return ok && dir.Kind == DirectiveIgnore
}
