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

// Package tools contains utility types and functions for the phpargot tool frontends.
package tools

import (
	"flag"
	"fmt"
	"os"

	"github.com/awslabs/ar-php-tools/analysis/config"
)

// unsetWidening is the default of the -widening-limit flag, which keeps the limit of the config
const unsetWidening = -2

// UnparsedCommonFlags represents an unparsed CLI sub-command flags.
type UnparsedCommonFlags struct {
	FlagSet       *flag.FlagSet
	ConfigPath    *string
	Verbose       *bool
	WideningLimit *int
}

// NewUnparsedCommonFlags returns an unparsed flag set with a given name.
// This is useful for creating sub-commands that have the flags -config, -verbose and -widening-limit but need other
// flags in addition.
func NewUnparsedCommonFlags(name string) UnparsedCommonFlags {
	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := cmd.String("config", "", "config file path for analysis")
	verbose := cmd.Bool("verbose", false, "verbose printing on standard output")
	widening := cmd.Int("widening-limit", unsetWidening,
		"number of commits of a program point before its output is widened (-1 disables widening)")
	return UnparsedCommonFlags{
		FlagSet:       cmd,
		ConfigPath:    configPath,
		Verbose:       verbose,
		WideningLimit: widening,
	}
}

// Parse parses args and returns the parsed flags
func (u UnparsedCommonFlags) Parse(args []string) (CommonFlags, error) {
	if err := u.FlagSet.Parse(args); err != nil {
		return CommonFlags{}, fmt.Errorf("failed to parse command %s with args %v: %v", u.FlagSet.Name(), args, err)
	}
	return CommonFlags{
		FlagSet:       u.FlagSet,
		ConfigPath:    *u.ConfigPath,
		Verbose:       *u.Verbose,
		WideningLimit: *u.WideningLimit,
	}, nil
}

// CommonFlags represents a parsed CLI sub-command flags.
// E.g., for the command `phpargot analyze ...`, "analyze" is the sub-command.
type CommonFlags struct {
	FlagSet       *flag.FlagSet
	ConfigPath    string
	Verbose       bool
	WideningLimit int
}

// NewCommonFlags returns a parsed flag set with a given name.
// Returns an error if args are invalid.
// Prints cmdUsage along with flag docs as the --help message.
func NewCommonFlags(name string, args []string, cmdUsage string) (CommonFlags, error) {
	flags := NewUnparsedCommonFlags(name)
	SetUsage(flags.FlagSet, cmdUsage)
	return flags.Parse(args)
}

// SetUsage sets cmd's usage (for --help flag) to output the string cmdUsage
// followed by each flag's documentation.
func SetUsage(cmd *flag.FlagSet, cmdUsage string) {
	cmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s\n", cmdUsage)
		fmt.Fprintf(os.Stderr, "Options:\n")
		cmd.VisitAll(func(f *flag.Flag) {
			fmt.Fprintf(os.Stderr, "  %s: %s (default: %q)\n", f.Name, f.Usage, f.DefValue)
		})
	}
}

// LoadConfig loads the config file from configPath.
func LoadConfig(configPath string) (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("file not specified")
	}
	config.SetGlobalConfig(configPath)
	cfg, err := config.LoadGlobal()
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %v", configPath, err)
	}

	return cfg, nil
}

// Config returns the config of the flags: the config file when one is given, the default config otherwise, with
// the settings of the command line applied.
func (f CommonFlags) Config() (*config.Config, error) {
	cfg := config.NewDefault()
	if f.ConfigPath != "" {
		var err error
		if cfg, err = LoadConfig(f.ConfigPath); err != nil {
			return nil, err
		}
	}
	if f.Verbose {
		cfg.LogLevel = int(config.DebugLevel)
	}
	if f.WideningLimit != unsetWidening {
		cfg.WideningLimit = f.WideningLimit
	}
	return cfg, nil
}
