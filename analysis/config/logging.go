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
	"io"
	"log"
	"os"
)

// LogLevel is the verbosity of a LogGroup
type LogLevel int

const (
	// ErrLevel=1 - only errors are logged
	ErrLevel LogLevel = iota + 1

	// WarnLevel=2 - errors and warnings of the tool itself (not the warnings found in the analyzed scripts)
	WarnLevel

	// InfoLevel=3 - high-level information: loaded files, analysis summaries
	InfoLevel

	// DebugLevel=4 - graph runs, widenings and unresolved calls. Usable on large scripts.
	DebugLevel

	// TraceLevel=5 - every processed program point. Only useful on small scripts.
	TraceLevel
)

var levelPrefixes = [...]string{
	ErrLevel:   "[ERROR] ",
	WarnLevel:  "[WARN] ",
	InfoLevel:  "[INFO] ",
	DebugLevel: "[DEBUG] ",
	TraceLevel: "[TRACE] ",
}

// LogGroup is a set of loggers, one per LogLevel, filtered by the level of the group
type LogGroup struct {
	level   LogLevel
	loggers [TraceLevel + 1]*log.Logger
}

// NewLogGroup returns a log group that is configured to the logging settings stored inside the config.
// All loggers write to stderr.
func NewLogGroup(config *Config) *LogGroup {
	l := &LogGroup{level: LogLevel(config.LogLevel)}
	for lvl := ErrLevel; lvl <= TraceLevel; lvl++ {
		l.loggers[lvl] = log.New(os.Stderr, levelPrefixes[lvl], log.LstdFlags)
	}
	if config.SilenceWarn {
		l.loggers[WarnLevel].SetOutput(io.Discard)
	}
	return l
}

func (l *LogGroup) each(f func(*log.Logger)) {
	for _, lg := range l.loggers[ErrLevel:] {
		f(lg)
	}
}

// SetAllOutput sets all the output writers to the writer provided
func (l *LogGroup) SetAllOutput(w io.Writer) {
	l.each(func(lg *log.Logger) { lg.SetOutput(w) })
}

// SetAllFlags sets the flag of all loggers in the log group to the argument provided
func (l *LogGroup) SetAllFlags(x int) {
	l.each(func(lg *log.Logger) { lg.SetFlags(x) })
}

// Enabled returns true when messages of the given level are printed
func (l *LogGroup) Enabled(level LogLevel) bool {
	return level >= ErrLevel && l.level >= level
}

func (l *LogGroup) logf(level LogLevel, format string, v []any) {
	if l.Enabled(level) {
		l.loggers[level].Printf(format, v...)
	}
}

// Tracef prints to the trace logger. Arguments are handled in the manner of Printf
func (l *LogGroup) Tracef(format string, v ...any) { l.logf(TraceLevel, format, v) }

// Debugf prints to the debug logger
func (l *LogGroup) Debugf(format string, v ...any) { l.logf(DebugLevel, format, v) }

// Infof prints to the info logger
func (l *LogGroup) Infof(format string, v ...any) { l.logf(InfoLevel, format, v) }

// Warnf prints to the warning logger
func (l *LogGroup) Warnf(format string, v ...any) { l.logf(WarnLevel, format, v) }

// Errorf prints to the error logger
func (l *LogGroup) Errorf(format string, v ...any) { l.logf(ErrLevel, format, v) }

// GetError returns the error logger, for applications that need a logger as input
func (l *LogGroup) GetError() *log.Logger {
	return l.loggers[ErrLevel]
}

// Level returns the level of the log group
func (l *LogGroup) Level() LogLevel {
	return l.level
}
