// Copyright 2026 The Selva Authors
// This file is part of Selva.
//
// Selva is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Selva is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with Selva. If not, see <http://www.gnu.org/licenses/>.

// Package selvalog is the structured, leveled logging facade every
// subsystem logs through, modeled on erigon-lib's log/v3: a root logger,
// per-component child loggers carrying fixed context, and a message plus
// variadic key-value pairs on every call site.
package selvalog

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/go-stack/stack"
)

// Level is a log severity, ordered least to most severe.
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
		return "TRACE"
	case LvlDebug:
		return "DEBUG"
	case LvlInfo:
		return "INFO"
	case LvlWarn:
		return "WARN"
	case LvlError:
		return "ERROR"
	case LvlCrit:
		return "CRIT"
	default:
		return "UNKNOWN"
	}
}

// Logger writes leveled, structured messages; New returns a child carrying
// additional fixed context ("component", "hierarchy", ...).
type Logger interface {
	Trace(msg string, ctx ...any)
	Debug(msg string, ctx ...any)
	Info(msg string, ctx ...any)
	Warn(msg string, ctx ...any)
	Error(msg string, ctx ...any)
	Crit(msg string, ctx ...any)
	New(ctx ...any) Logger
}

var (
	mu       sync.Mutex
	out      io.Writer = os.Stderr
	minLevel           = LvlInfo
)

// SetOutput redirects every logger's output (os.Stderr by default).
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	out = w
}

// SetLevel sets the process-wide minimum level; records below it are
// dropped before formatting.
func SetLevel(lvl Level) {
	mu.Lock()
	defer mu.Unlock()
	minLevel = lvl
}

type logger struct {
	ctx []any
}

// Root is the process-wide logger with no fixed context.
var Root Logger = &logger{}

// New returns a child of Root carrying ctx as fixed key-value pairs on
// every message, e.g. New("component", "hierarchy").
func New(ctx ...any) Logger {
	return Root.New(ctx...)
}

func (l *logger) New(ctx ...any) Logger {
	merged := make([]any, 0, len(l.ctx)+len(ctx))
	merged = append(merged, l.ctx...)
	merged = append(merged, ctx...)
	return &logger{ctx: merged}
}

func (l *logger) log(lvl Level, msg string, ctx []any) {
	mu.Lock()
	defer mu.Unlock()
	if lvl < minLevel {
		return
	}
	fmt.Fprint(out, time.Now().UTC().Format(time.RFC3339), " ", lvl.String(), " ", msg)
	for i := 0; i+1 < len(l.ctx); i += 2 {
		fmt.Fprintf(out, " %v=%v", l.ctx[i], l.ctx[i+1])
	}
	for i := 0; i+1 < len(ctx); i += 2 {
		fmt.Fprintf(out, " %v=%v", ctx[i], ctx[i+1])
	}
	if lvl == LvlCrit {
		fmt.Fprintf(out, " caller=%v", stack.Caller(2))
	}
	fmt.Fprintln(out)
}

func (l *logger) Trace(msg string, ctx ...any) { l.log(LvlTrace, msg, ctx) }
func (l *logger) Debug(msg string, ctx ...any) { l.log(LvlDebug, msg, ctx) }
func (l *logger) Info(msg string, ctx ...any)  { l.log(LvlInfo, msg, ctx) }
func (l *logger) Warn(msg string, ctx ...any)  { l.log(LvlWarn, msg, ctx) }
func (l *logger) Error(msg string, ctx ...any) { l.log(LvlError, msg, ctx) }
func (l *logger) Crit(msg string, ctx ...any)  { l.log(LvlCrit, msg, ctx) }

// Package-level convenience wrappers logging through Root, matching
// erigon-lib's call-site shape (log.Error("msg", "k", v)).
func Trace(msg string, ctx ...any) { Root.Trace(msg, ctx...) }
func Debug(msg string, ctx ...any) { Root.Debug(msg, ctx...) }
func Info(msg string, ctx ...any)  { Root.Info(msg, ctx...) }
func Warn(msg string, ctx ...any)  { Root.Warn(msg, ctx...) }
func Error(msg string, ctx ...any) { Root.Error(msg, ctx...) }
func Crit(msg string, ctx ...any)  { Root.Crit(msg, ctx...) }
