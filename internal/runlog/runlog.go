// Package runlog writes the durable event log of a print run: an append-only
// plain-text file with one line per event, mirrored to interactive output.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Event kinds, one per log line.
const (
	KindDiscovered = "DISCOVERED"
	KindSubmitted  = "SUBMITTED"
	KindWouldPrint = "WOULD-PRINT"
	KindFailed     = "FAILED"
	KindBatch      = "BATCH"
	KindSummary    = "SUMMARY"
	KindWarn       = "WARN"
	KindError      = "ERROR"
	KindInfo       = "INFO"
)

// Logger appends timestamped event lines to a log file and mirrors them to a
// console writer. The first failed file write is reported on the console and
// the file sink is dropped; the run continues on console output alone, and
// lines already written are never touched again.
type Logger struct {
	mu      sync.Mutex
	file    *os.File
	console io.Writer
	now     func() time.Time
}

// New opens (or creates) the append-only log file at path and mirrors events
// to console. An empty path disables the file sink.
func New(path string, console io.Writer) (*Logger, error) {
	l := &Logger{console: console, now: time.Now}
	if console == nil {
		l.console = os.Stdout
	}

	if path != "" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("create log directory: %w", err)
			}
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
	}
	return l, nil
}

// Close closes the log file if one was opened.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		err := l.file.Close()
		l.file = nil
		return err
	}
	return nil
}

// Event writes one log line with the given kind. The path argument may be
// empty for events that do not concern a single file.
func (l *Logger) Event(kind, path, format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	line := l.now().Format("2006-01-02 15:04:05") + " " + kind
	if path != "" {
		line += " " + path
	}
	if text != "" {
		line += " - " + text
	}
	line += "\n"

	l.mu.Lock()
	defer l.mu.Unlock()

	_, _ = io.WriteString(l.console, line)

	if l.file == nil {
		return
	}
	if _, err := l.file.Write([]byte(line)); err != nil {
		fmt.Fprintf(l.console, "log write failed, continuing without file log: %v\n", err)
		_ = l.file.Close()
		l.file = nil
	}
}

// Infof logs an informational line not tied to a file.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Event(KindInfo, "", format, args...)
}

// Warnf logs a non-fatal problem.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.Event(KindWarn, "", format, args...)
}

// Errorf logs a fatal run-level error.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Event(KindError, "", format, args...)
}
