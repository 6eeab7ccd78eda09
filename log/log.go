// Copyright 2017 The cascade Authors
// This file is part of the cascade library.
//
// The cascade library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The cascade library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the cascade library. If not, see <http://www.gnu.org/licenses/>.

// Package log is cascade's internal leveled logger. It mirrors the shape of
// go-probeum's own internal log package: printf-style call sites, colorized
// when the attached stream is a terminal, with the caller frame attached to
// the two most severe levels.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/go-stack/stack"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Level orders log severities, least to most severe.
type Level int

const (
	LvlTrace Level = iota
	LvlDebug
	LvlInfo
	LvlWarn
	LvlError
	LvlCrit
)

func (l Level) String() string {
	switch l {
	case LvlTrace:
		return "TRCE"
	case LvlDebug:
		return "DBUG"
	case LvlInfo:
		return "INFO"
	case LvlWarn:
		return "WARN"
	case LvlError:
		return "EROR"
	case LvlCrit:
		return "CRIT"
	default:
		return "????"
	}
}

var levelColor = map[Level]*color.Color{
	LvlTrace: color.New(color.FgWhite),
	LvlDebug: color.New(color.FgCyan),
	LvlInfo:  color.New(color.FgGreen),
	LvlWarn:  color.New(color.FgYellow),
	LvlError: color.New(color.FgRed),
	LvlCrit:  color.New(color.FgRed, color.Bold),
}

// Logger is a leveled, optionally-colorized sink. The zero value is not
// usable; construct with New.
type Logger struct {
	mu       sync.Mutex
	out      io.Writer
	colorize bool
	minLvl   Level
}

// Root is the process-wide default logger, writing to stderr.
var Root = New(os.Stderr)

// New builds a Logger writing to w, auto-detecting whether w is a terminal
// capable of ANSI color (the same mattn/go-isatty + mattn/go-colorable
// pairing go-probeum's own log package uses for its colored output).
func New(w io.Writer) *Logger {
	colorize := false
	out := w
	if f, ok := w.(*os.File); ok {
		colorize = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
		out = colorable.NewColorable(f)
	}
	return &Logger{out: out, colorize: colorize, minLvl: LvlTrace}
}

// SetLevel filters out records below lvl.
func (l *Logger) SetLevel(lvl Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.minLvl = lvl
}

func (l *Logger) log(lvl Level, withCaller bool, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if lvl < l.minLvl {
		return
	}
	msg := fmt.Sprintf(format, args...)
	tag := lvl.String()
	if l.colorize {
		tag = levelColor[lvl].Sprint(tag)
	}
	line := fmt.Sprintf("[%s] %s %s", time.Now().Format("01-02|15:04:05.000"), tag, msg)
	if withCaller {
		// stack.Caller(2): skip log() and the exported wrapper.
		line += fmt.Sprintf(" (%v)", stack.Caller(2))
	}
	fmt.Fprintln(l.out, line)
}

func (l *Logger) Trace(format string, args ...interface{}) { l.log(LvlTrace, false, format, args...) }
func (l *Logger) Debug(format string, args ...interface{}) { l.log(LvlDebug, false, format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.log(LvlInfo, false, format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.log(LvlWarn, false, format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.log(LvlError, true, format, args...) }
func (l *Logger) Crit(format string, args ...interface{})  { l.log(LvlCrit, true, format, args...) }

// Package-level convenience wrappers over Root, matching the call-site
// shape used throughout the teacher's codebase (log.Error("...: %v", err)).
func Trace(format string, args ...interface{}) { Root.Trace(format, args...) }
func Debug(format string, args ...interface{}) { Root.Debug(format, args...) }
func Info(format string, args ...interface{})  { Root.Info(format, args...) }
func Warn(format string, args ...interface{})  { Root.Warn(format, args...) }
func Error(format string, args ...interface{}) { Root.Error(format, args...) }
func Crit(format string, args ...interface{})  { Root.Crit(format, args...) }
