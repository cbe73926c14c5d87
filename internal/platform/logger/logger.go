// Package logger provides leveled logging for the simulation core.
// Every state transition worth auditing (purchases, events, offline
// rewards, saves) goes through Event.
package logger

import (
	"io"
	"log"
	"os"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorCyan   = "\033[36m"
)

// Logger provides structured logging with context.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a logger writing to stdout/stderr. Level prefixes are
// colored when stdout is a terminal.
func NewLogger() *Logger {
	color := isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	return newLogger(os.Stdout, os.Stderr, color)
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return newLogger(io.Discard, io.Discard, false)
}

func newLogger(out, errOut io.Writer, color bool) *Logger {
	prefix := func(level, c string) string {
		if color {
			return c + "[DEPTHS-" + level + "]" + colorReset + " "
		}
		return "[DEPTHS-" + level + "] "
	}
	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		infoLogger:  log.New(out, prefix("INFO", colorCyan), flags),
		warnLogger:  log.New(out, prefix("WARN", colorYellow), flags),
		errorLogger: log.New(errOut, prefix("ERROR", colorRed), flags),
	}
}

// Info logs informational messages.
func (l *Logger) Info(msg string) {
	l.infoLogger.Output(2, msg)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string) {
	l.warnLogger.Output(2, msg)
}

// Error logs error messages.
func (l *Logger) Error(msg string) {
	l.errorLogger.Output(2, msg)
}

// Event logs a game state transition.
func (l *Logger) Event(eventType string, actorID string, details string) {
	l.infoLogger.Printf("[EVENT:%s] Actor:%s | %s", eventType, actorID, details)
}
