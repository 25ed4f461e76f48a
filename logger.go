package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

// Log levels, lowest first.
const (
	levelDebug = iota
	levelInfo
	levelWarn
)

// ConsoleLogger writes timestamped diagnostics to stderr so that stdout only
// ever carries the rendered document.
// Format: "[HH:MM:SS] [LEVEL] <message>"
type ConsoleLogger struct {
	writer      io.Writer
	level       int
	colorOutput bool
	now         func() time.Time
}

// NewConsoleLogger creates a logger writing to w. A nil writer discards
// everything. Color is enabled only when w is a terminal.
func NewConsoleLogger(w io.Writer, verbose bool) *ConsoleLogger {
	level := levelWarn
	if verbose {
		level = levelDebug
	}
	return &ConsoleLogger{
		writer:      w,
		level:       level,
		colorOutput: isTerminal(w),
		now:         time.Now,
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// SetVerbose switches between debug and warn level.
func (l *ConsoleLogger) SetVerbose(verbose bool) {
	if verbose {
		l.level = levelDebug
	} else {
		l.level = levelWarn
	}
}

func (l *ConsoleLogger) Debugf(format string, args ...any) {
	l.logf(levelDebug, "DEBUG", format, args...)
}

func (l *ConsoleLogger) Infof(format string, args ...any) {
	l.logf(levelInfo, "INFO", format, args...)
}

func (l *ConsoleLogger) Warnf(format string, args ...any) {
	l.logf(levelWarn, "WARN", format, args...)
}

func (l *ConsoleLogger) logf(level int, name, format string, args ...any) {
	if l == nil || l.writer == nil || level < l.level {
		return
	}
	ts := l.now().Format("15:04:05")
	msg := strings.TrimRight(fmt.Sprintf(format, args...), "\n")
	if l.colorOutput {
		name = levelColor(level).Sprint(name)
	}
	fmt.Fprintf(l.writer, "[%s] [%s] %s\n", ts, name, msg)
}

func levelColor(level int) *color.Color {
	switch level {
	case levelDebug:
		return color.New(color.FgCyan)
	case levelInfo:
		return color.New(color.FgBlue)
	default:
		return color.New(color.FgYellow)
	}
}
