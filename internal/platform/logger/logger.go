// Package logger provides structured logging for the drill server.
// Every subsystem decision that changes the rig should be traceable through this.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger provides leveled logging with context.
type Logger struct {
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
}

// NewLogger creates a new logger writing info/warn to stdout and errors to stderr.
func NewLogger() *Logger {
	return &Logger{
		infoLogger:  log.New(os.Stdout, "[DRILL-INFO] ", log.Ldate|log.Ltime|log.Lshortfile),
		warnLogger:  log.New(os.Stdout, "[DRILL-WARN] ", log.Ldate|log.Ltime|log.Lshortfile),
		errorLogger: log.New(os.Stderr, "[DRILL-ERROR] ", log.Ldate|log.Ltime|log.Lshortfile),
	}
}

// NewWithWriter sends every level to w. Tests pass io.Discard.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{
		infoLogger:  log.New(w, "[DRILL-INFO] ", log.Lmsgprefix),
		warnLogger:  log.New(w, "[DRILL-WARN] ", log.Lmsgprefix),
		errorLogger: log.New(w, "[DRILL-ERROR] ", log.Lmsgprefix),
	}
}

// Info logs informational messages. Extra args are applied as Printf arguments.
func (l *Logger) Info(msg string, args ...any) {
	l.output(l.infoLogger, msg, args)
}

// Warn logs warning messages.
func (l *Logger) Warn(msg string, args ...any) {
	l.output(l.warnLogger, msg, args)
}

// Error logs error messages.
func (l *Logger) Error(msg string, args ...any) {
	l.output(l.errorLogger, msg, args)
}

// Event logs a specific simulation event.
func (l *Logger) Event(eventType string, source string, details string) {
	l.infoLogger.Output(2, fmt.Sprintf("[EVENT:%s] Source:%s | %s", eventType, source, details))
}

func (l *Logger) output(target *log.Logger, msg string, args []any) {
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}
	target.Output(3, msg)
}
