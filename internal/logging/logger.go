// Package logging is the leveled console logger shared by every command.
// Lines carry a timestamp and level tag, are coloured when writing to a
// terminal, and can be mirrored to a log file.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ANSI colour codes, empty when colours are disabled.
const (
	red    = "\033[1;91m"
	green  = "\033[1;92m"
	yellow = "\033[1;93m"
	blue   = "\033[1;94m"
	cyan   = "\033[1;96m"
	reset  = "\033[0m"
)

// ColorMode controls ANSI colour output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// Options configures a Logger.
type Options struct {
	Color   ColorMode
	File    string
	Verbose bool
	Out     io.Writer // defaults to os.Stdout
	Err     io.Writer // defaults to os.Stderr
}

// Logger writes leveled log lines. All methods are safe on a nil Logger.
type Logger struct {
	mu      sync.Mutex
	color   bool
	verbose bool
	out     io.Writer
	err     io.Writer
	file    *os.File
}

// New creates a Logger from opts and opens the log file when one is set.
// Call Close when done.
func New(opts Options) (*Logger, error) {
	l := &Logger{
		verbose: opts.Verbose,
		out:     opts.Out,
		err:     opts.Err,
	}
	if l.out == nil {
		l.out = os.Stdout
	}
	if l.err == nil {
		l.err = os.Stderr
	}

	switch opts.Color {
	case ColorAlways:
		l.color = true
	case ColorNever:
		l.color = false
	default:
		f, ok := l.out.(*os.File)
		l.color = ok && isTerminal(f) && os.Getenv("NO_COLOR") == "" && strings.ToLower(os.Getenv("TERM")) != "dumb"
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		l.file = f
	}
	return l, nil
}

// Discard returns a Logger that writes nowhere, for tests.
func Discard() *Logger {
	return &Logger{out: io.Discard, err: io.Discard}
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

func (l *Logger) line(level, color, text string) {
	if l == nil {
		return
	}
	ts := time.Now().Format("2006-01-02 15:04:05")
	plain := ts + " [" + level + "] " + text + "\n"

	l.mu.Lock()
	defer l.mu.Unlock()
	out := l.out
	if level == "ERROR" {
		out = l.err
	}
	if l.color {
		_, _ = io.WriteString(out, ts+" "+color+"["+level+"]"+reset+" "+text+"\n")
	} else {
		_, _ = io.WriteString(out, plain)
	}
	if l.file != nil {
		_, _ = io.WriteString(l.file, plain)
	}
}

// Info logs at INFO level.
func (l *Logger) Info(format string, args ...interface{}) {
	l.line("INFO", blue, fmt.Sprintf(format, args...))
}

// Success logs at SUCCESS level.
func (l *Logger) Success(format string, args ...interface{}) {
	l.line("SUCCESS", green, fmt.Sprintf(format, args...))
}

// Warn logs at WARN level.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.line("WARN", yellow, fmt.Sprintf(format, args...))
}

// Error logs at ERROR level, to the error stream.
func (l *Logger) Error(format string, args ...interface{}) {
	l.line("ERROR", red, fmt.Sprintf(format, args...))
}

// Debug logs at DEBUG level when the logger is verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	if l == nil || !l.verbose {
		return
	}
	l.line("DEBUG", cyan, fmt.Sprintf(format, args...))
}

// Timed logs the start of a named block and returns a function that logs
// its completion with the elapsed time.
//
//	defer log.Timed("READING PROBES")()
func (l *Logger) Timed(name string) func() {
	start := time.Now()
	l.Info("Started %s.", name)
	return func() {
		l.Info("Finished %s in %.3f seconds.", name, time.Since(start).Seconds())
	}
}

var printer = message.NewPrinter(language.English)

// Count formats n with thousands separators, e.g. 12,345.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}
