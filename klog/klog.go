// Package klog is the kernel's logging sink: leveled lines written over
// a byte-oriented console writer, a plain choice over a
// structured-logging library a single-UART-line kernel has no use for.
package klog

import (
	"fmt"
	"io"
)

// Level orders log severity from noisiest to most urgent.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelFatal
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DBG"
	case LevelInfo:
		return "INF"
	case LevelWarn:
		return "WRN"
	case LevelFatal:
		return "FTL"
	default:
		return "???"
	}
}

// Logger writes leveled lines to an underlying console.
type Logger struct {
	out io.Writer
	min Level
}

// New returns a Logger writing to out, suppressing anything below min.
func New(out io.Writer, min Level) *Logger {
	return &Logger{out: out, min: min}
}

func (l *Logger) log(lvl Level, format string, args...any) {
	if lvl < l.min {
		return
	}
	fmt.Fprintf(l.out, "[%s] %s\n", lvl, fmt.Sprintf(format, args...))
}

func (l *Logger) Debugf(format string, args...any) { l.log(LevelDebug, format, args...) }
func (l *Logger) Infof(format string, args...any) { l.log(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args...any) { l.log(LevelWarn, format, args...) }
func (l *Logger) Fatalf(format string, args...any) { l.log(LevelFatal, format, args...) }

// Default is the process-wide kernel logger, set up during boot once
// the console device is available (cmd/kernel). It is a package-level
// singleton exposed through free functions rather than threaded through
// every call site.
var Default *Logger

// Init installs the default logger. Called once from rust_main's Go
// equivalent in cmd/kernel.
func Init(out io.Writer, min Level) {
	Default = New(out, min)
}

func Debugf(format string, args...any) {
	if Default != nil {
		Default.Debugf(format, args...)
	}
}
func Infof(format string, args...any) {
	if Default != nil {
		Default.Infof(format, args...)
	}
}
func Warnf(format string, args...any) {
	if Default != nil {
		Default.Warnf(format, args...)
	}
}
func Fatalf(format string, args...any) {
	if Default != nil {
		Default.Fatalf(format, args...)
	}
}
