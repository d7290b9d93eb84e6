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

package tools

import (
	"strings"
	"testing"

	"github.com/awslabs/ar-php-tools/analysis/config"
)

func validateHint(t *testing.T, errorMsg string, containedHint string) {
	hint := HintForErrorMessage(errorMsg)
	if !strings.Contains(hint, containedHint) {
		t.Fatalf("incorrect hint; check and update error message if necessary")
	}
}

func TestHintForFlagAfterFiles(t *testing.T) {
	errorMsg := "error: could not load program: failed to read -v: no such file"
	containedHint := "all command line flags should be before the path"
	validateHint(t, errorMsg, containedHint)
}

func TestHintForSyntaxError(t *testing.T) {
	errorMsg := `error: could not load program: main.php:2:6: syntax error near ";"`
	containedHint := "does not parse as PHP"
	validateHint(t, errorMsg, containedHint)
}

func TestHintForFailedLoadProgram(t *testing.T) {
	errorMsg := "error: could not load program: failed to read main.php: not found"
	containedHint := "paths of readable PHP files"
	validateHint(t, errorMsg, containedHint)
}

func TestHintForAbortedAnalysis(t *testing.T) {
	errorMsg := "error: analysis of main.php aborted: unsupported node"
	containedHint := "construct the analysis does not support"
	validateHint(t, errorMsg, containedHint)
}

func TestCommonFlagsConfig(t *testing.T) {
	flags, err := NewCommonFlags("analyze", []string{"-verbose", "-widening-limit", "7", "main.php"}, "usage")
	if err != nil {
		t.Fatalf("%v", err)
	}
	cfg, err := flags.Config()
	if err != nil {
		t.Fatalf("%v", err)
	}
	if cfg.WideningLimit != 7 || cfg.LogLevel != int(config.DebugLevel) {
		t.Errorf("flags not applied to the config: %+v", cfg.Options)
	}
	if args := flags.FlagSet.Args(); len(args) != 1 || args[0] != "main.php" {
		t.Errorf("unexpected arguments %v", args)
	}

	flags, err = NewCommonFlags("analyze", []string{"main.php"}, "usage")
	if err != nil {
		t.Fatalf("%v", err)
	}
	cfg, err = flags.Config()
	if err != nil {
		t.Fatalf("%v", err)
	}
	if cfg.WideningLimit != config.DefaultWideningLimit {
		t.Errorf("expected the default widening limit, got %d", cfg.WideningLimit)
	}
}
