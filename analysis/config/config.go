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

package config

import (
	"fmt"
	"os"
	"path"

	"gopkg.in/yaml.v3"
)

var (
	// The global config file
	configFile string
)

// SetGlobalConfig sets the global config filename
func SetGlobalConfig(filename string) {
	configFile = filename
}

// LoadGlobal loads the config file that has been set by SetGlobalConfig
func LoadGlobal() (*Config, error) {
	return Load(configFile)
}

// Config contains the options of the analysis and the lists of code identifiers the analysis treats specially.
// To add elements to a config file, add fields to this struct.
// If some field is not defined in the config file, it will be empty/zero in the struct.
// private fields are not populated from a yaml file, but computed after initialization
type Config struct {
	Options `yaml:",inline"`

	sourceFile string

	// Natives lists the native functions that are not analyzed by their native analyzer: calls to those return an
	// unknown value.
	Natives []CodeIdentifier `yaml:"natives"`
}

// Options holds the scalar settings of the analysis.
type Options struct {
	// ReportsDir is the directory where the reports will be stored. If empty, no report file is written.
	ReportsDir string `yaml:"reports-dir"`

	// WideningLimit is the number of times a program point can be committed with a changed output before its output
	// is widened. A negative value disables widening.
	WideningLimit int `yaml:"widening-limit"`

	// SharedFunctionGraphs makes every call site of a function share a single program point graph. This trades
	// precision (call contexts are merged at the entry of the function) for performance.
	SharedFunctionGraphs bool `yaml:"shared-function-graphs"`

	// MaxCallDepth sets a limit for the depth of the analyzed call stack. If MaxCallDepth <= 0, then it is ignored.
	MaxCallDepth int `yaml:"max-call-depth"`

	// MaxIncludeDepth sets a limit for the nesting of analyzed includes. If MaxIncludeDepth <= 0, then it is ignored.
	MaxIncludeDepth int `yaml:"max-include-depth"`

	// IncludePaths are the directories searched for relative include paths, in order, after the directory of the
	// including file.
	IncludePaths []string `yaml:"include-paths"`

	// EntryPoints are the scripts analyzed when no file is provided on the command line. Paths are relative to the
	// config file.
	EntryPoints []string `yaml:"entry-points"`

	// MaxWarnings sets a limit for the number of warnings reported. If MaxWarnings <= 0, then it is ignored.
	MaxWarnings int `yaml:"max-warnings"`

	// LogLevel controls the verbosity of the tool
	LogLevel int `yaml:"log-level"`

	// SilenceWarn suppresses warnings in the log (not in the analysis results)
	SilenceWarn bool `yaml:"silence-warn"`
}

// NewDefault returns a default config.
func NewDefault() *Config {
	return &Config{
		sourceFile: "",
		Natives:    nil,
		Options: Options{
			ReportsDir:           "",
			WideningLimit:        DefaultWideningLimit,
			SharedFunctionGraphs: false,
			MaxCallDepth:         DefaultMaxCallDepth,
			MaxIncludeDepth:      DefaultMaxIncludeDepth,
			IncludePaths:         nil,
			EntryPoints:          nil,
			MaxWarnings:          0,
			LogLevel:             int(InfoLevel),
			SilenceWarn:          false,
		},
	}
}

// Load reads a configuration from a file
func Load(filename string) (*Config, error) {
	b, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read config file: %w", err)
	}
	cfg, err := Parse(b)
	if err != nil {
		return nil, err
	}
	cfg.sourceFile = filename

	if cfg.ReportsDir != "" {
		if err := setReportsDir(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Parse reads a configuration from yaml content. Fields absent from the content keep their default value.
func Parse(b []byte) (*Config, error) {
	cfg := NewDefault()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("could not unmarshal config file: %w", err)
	}

	// If logLevel has been explicitly set to 0, set the default to Info
	if cfg.LogLevel == 0 {
		cfg.LogLevel = int(InfoLevel)
	}

	for i, cid := range cfg.Natives {
		cfg.Natives[i] = compileRegexes(cid)
	}
	return cfg, nil
}

func setReportsDir(c *Config) error {
	if !path.IsAbs(c.ReportsDir) {
		c.ReportsDir = c.RelPath(c.ReportsDir)
	}
	err := os.Mkdir(c.ReportsDir, 0750)
	if err != nil && !os.IsExist(err) {
		return fmt.Errorf("could not create directory %s", c.ReportsDir)
	}
	return nil
}

// RelPath returns filename path relative to the config source file
func (c Config) RelPath(filename string) string {
	return path.Join(path.Dir(c.sourceFile), filename)
}

// Verbose returns true is the configuration verbosity setting is larger than Info (i.e. Debug or Trace)
func (c Config) Verbose() bool {
	return c.LogLevel >= int(DebugLevel)
}

// ExceedsMaxCallDepth returns true if the call depth d exceeds the maximum depth parameter of the configuration.
// (if the configuration setting is <= 0, then this returns false)
func (c Config) ExceedsMaxCallDepth(d int) bool {
	return c.MaxCallDepth > 0 && d > c.MaxCallDepth
}

// ExceedsMaxIncludeDepth returns true if the include nesting d exceeds the maximum include depth of the
// configuration.
func (c Config) ExceedsMaxIncludeDepth(d int) bool {
	return c.MaxIncludeDepth > 0 && d > c.MaxIncludeDepth
}

// Widens returns true if a program point committed n times should have its output widened.
func (c Config) Widens(n int) bool {
	return c.WideningLimit >= 0 && n > c.WideningLimit
}

// IsUnanalyzedNative returns true if the native function name must not be analyzed by its native analyzer.
func (c Config) IsUnanalyzedNative(name string) bool {
	return ExistsCid(c.Natives, CodeIdentifier{Function: name})
}
