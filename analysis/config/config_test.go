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
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func checkMatch(t *testing.T, cid CodeIdentifier, ref CodeIdentifier) {
	refc := compileRegexes(ref)
	if !cid.matchOnNonEmptyFields(refc) {
		t.Errorf("%v should match modulo empty fields %v", cid, ref)
	}
}

func checkNoMatch(t *testing.T, cid CodeIdentifier, ref CodeIdentifier) {
	refc := compileRegexes(ref)
	if cid.matchOnNonEmptyFields(refc) {
		t.Errorf("%v should not match modulo empty fields %v", cid, ref)
	}
}

func TestCodeIdentifier_matchOnNonEmptyFields_selfEquals(t *testing.T) {
	cid1 := CodeIdentifier{File: "a.php", Function: "b"}
	checkMatch(t, cid1, cid1)
}

func TestCodeIdentifier_matchOnNonEmptyFields_emptyMatchesAny(t *testing.T) {
	cid1 := CodeIdentifier{File: "a", Class: "b", Function: "i"}
	cid2 := CodeIdentifier{File: "de", Class: "234jbn", Function: "ef"}
	cidEmpty := CodeIdentifier{}
	checkMatch(t, cid1, cidEmpty)
	checkMatch(t, cid2, cidEmpty)
}

func TestCodeIdentifier_matchOnNonEmptyFields_oneDiff(t *testing.T) {
	cid1 := CodeIdentifier{File: "a", Class: "b"}
	cid2 := CodeIdentifier{File: "a"}
	checkMatch(t, cid1, cid2)
	checkNoMatch(t, cid2, cid1)
}

func TestCodeIdentifier_matchOnNonEmptyFields_regexes(t *testing.T) {
	cid1 := CodeIdentifier{Function: "mysql_query"}
	cid1bis := CodeIdentifier{Function: "mysqli_connect"}
	ref := CodeIdentifier{Function: "^(mysql_)|(mysqli_).*$"}
	checkMatch(t, cid1, ref)
	checkMatch(t, cid1bis, ref)
	checkNoMatch(t, CodeIdentifier{Function: "strlen"}, ref)
}

func TestCodeIdentifier_nonCompilingIsString(t *testing.T) {
	ref := CodeIdentifier{Function: "a(b"}
	if compileRegexes(ref).computedRegexs != nil {
		t.Fatalf("a(b should not compile")
	}
	checkMatch(t, CodeIdentifier{Function: "a(b"}, ref)
	checkNoMatch(t, CodeIdentifier{Function: "ab"}, ref)
}

func TestNewDefault(t *testing.T) {
	c := NewDefault()
	if c.WideningLimit != DefaultWideningLimit {
		t.Errorf("default widening limit should be %d, got %d", DefaultWideningLimit, c.WideningLimit)
	}
	if c.SharedFunctionGraphs {
		t.Errorf("default should not share function graphs")
	}
	if c.LogLevel != int(InfoLevel) {
		t.Errorf("default log level should be info")
	}
	if c.Verbose() {
		t.Errorf("default should not be verbose")
	}
	if c.ExceedsMaxCallDepth(DefaultMaxCallDepth) || !c.ExceedsMaxCallDepth(DefaultMaxCallDepth+1) {
		t.Errorf("max call depth should be %d", DefaultMaxCallDepth)
	}
	if c.Widens(DefaultWideningLimit) || !c.Widens(DefaultWideningLimit+1) {
		t.Errorf("widening should happen strictly after %d commits", DefaultWideningLimit)
	}
}

func TestLoadNonExistentFileReturnsError(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "does-not-exist.yaml"))
	if c != nil || err == nil {
		t.Errorf("Expected error and nil value when trying to load non existent file.")
	}
}

func TestLoadBadFormatFileReturnsError(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "bad_format.yaml"))
	if c != nil || err == nil {
		t.Errorf("Expected error and nil value when trying to load a badly formatted file.")
	}
}

func TestLoadNatives(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "config.yaml"))
	if err != nil {
		t.Fatalf("could not load config.yaml: %v", err)
	}
	if len(c.Natives) != 2 {
		t.Fatalf("expected two natives, got %d", len(c.Natives))
	}
	for _, name := range []string{"mysql_query", "strlen"} {
		if !c.IsUnanalyzedNative(name) {
			t.Errorf("%s should not be analyzed", name)
		}
	}
	if c.IsUnanalyzedNative("strtolower") {
		t.Errorf("strtolower should be analyzed")
	}
	// unspecified fields keep their default
	if c.WideningLimit != DefaultWideningLimit || c.MaxIncludeDepth != DefaultMaxIncludeDepth {
		t.Errorf("unspecified options should keep their default")
	}
}

func TestLoadFullConfig(t *testing.T) {
	fileName := filepath.Join("testdata", "full-config.yaml")
	c, err := Load(fileName)
	if err != nil {
		t.Fatalf("could not load %s: %v", fileName, err)
	}
	defer os.Remove(c.ReportsDir)
	if c.LogLevel != int(TraceLevel) || !c.Verbose() {
		t.Error("full config should have set trace")
	}
	if c.WideningLimit != 7 {
		t.Error("full config should set widening-limit to 7")
	}
	if !c.SharedFunctionGraphs {
		t.Error("full config should set shared-function-graphs")
	}
	if c.MaxCallDepth != 12 || !c.ExceedsMaxCallDepth(13) {
		t.Error("full config should set max-call-depth to 12")
	}
	if c.MaxIncludeDepth != 3 || !c.ExceedsMaxIncludeDepth(4) {
		t.Error("full config should set max-include-depth to 3")
	}
	if len(c.IncludePaths) != 2 || c.IncludePaths[1] != "vendor/lib" {
		t.Errorf("full config should have two include paths, got %v", c.IncludePaths)
	}
	if len(c.EntryPoints) != 1 || c.RelPath(c.EntryPoints[0]) != filepath.Join("testdata", "index.php") {
		t.Errorf("entry points should be relative to the config file")
	}
	if c.MaxWarnings != 16 {
		t.Error("full config should set max-warnings to 16")
	}
	if !c.SilenceWarn {
		t.Error("full config should have silence-warn set to true")
	}
	if c.ReportsDir != filepath.Join("testdata", "example-report") {
		t.Errorf("reports dir should be relative to config file, got %q", c.ReportsDir)
	}
	if !ExistsCid(c.Natives, CodeIdentifier{File: "internal/std", Function: "eregi"}) {
		t.Error("natives should match on file and function")
	}
	if ExistsCid(c.Natives, CodeIdentifier{File: "user.php", Function: "eregi"}) {
		t.Error("natives should not match on a different file")
	}
}

func TestLoadNoWidening(t *testing.T) {
	c, err := Load(filepath.Join("testdata", "no-widening.yaml"))
	if err != nil {
		t.Fatalf("could not load no-widening.yaml: %v", err)
	}
	if c.Widens(1 << 20) {
		t.Errorf("negative widening limit should disable widening")
	}
	if c.LogLevel != int(InfoLevel) {
		t.Errorf("log-level 0 should be read as info")
	}
}

func TestGlobalConfig(t *testing.T) {
	SetGlobalConfig(filepath.Join("testdata", "config.yaml"))
	c, err := LoadGlobal()
	if err != nil || len(c.Natives) != 2 {
		t.Errorf("global config should load testdata/config.yaml")
	}
}

func TestLogGroupLevels(t *testing.T) {
	c := NewDefault()
	c.LogLevel = int(WarnLevel)
	l := NewLogGroup(c)
	var buf bytes.Buffer
	l.SetAllOutput(&buf)
	l.SetAllFlags(0)
	l.Debugf("hidden %d", 1)
	l.Infof("hidden %d", 2)
	l.Warnf("shown %d", 3)
	l.Errorf("shown %d", 4)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages above the level should not be logged: %q", out)
	}
	if !strings.Contains(out, "[WARN] shown 3") || !strings.Contains(out, "[ERROR] shown 4") {
		t.Errorf("messages at or below the level should be logged: %q", out)
	}
	if l.Enabled(InfoLevel) || !l.Enabled(WarnLevel) || l.Enabled(0) {
		t.Errorf("Enabled should follow the level of the group")
	}
	if l.GetError().Prefix() != "[ERROR] " {
		t.Errorf("GetError should return the error logger")
	}
}
