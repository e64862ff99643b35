package debug

import (
	"io"
	"log"
	"os"
)

const DefaultPath = "debug.log"

// Logger writes to a debug file when enabled. The terminal belongs to the game UI,
// so nothing is ever written to stdout or stderr. A nil *Logger discards everything.
type Logger struct {
	enabled bool
	out     *log.Logger
	file    *os.File
}

func NewLogger(enabled bool, path string) *Logger {
	if !enabled {
		return &Logger{}
	}
	if path == "" {
		path = DefaultPath
	}

	var w io.Writer = io.Discard
	logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		w = logFile
	}

	d := &Logger{
		enabled: true,
		out:     log.New(w, "", log.LstdFlags|log.Lmicroseconds),
		file:    logFile,
	}
	d.out.Printf("=== DEBUG MODE ENABLED ===")
	return d
}

// NewWriterLogger logs to w. Used by tests and the headless server.
func NewWriterLogger(w io.Writer) *Logger {
	return &Logger{enabled: true, out: log.New(w, "", 0)}
}

func (d *Logger) IsEnabled() bool {
	return d != nil && d.enabled
}

func (d *Logger) Printf(format string, args ...interface{}) {
	if d.IsEnabled() {
		d.out.Printf(format, args...)
	}
}

func (d *Logger) Println(args ...interface{}) {
	if d.IsEnabled() {
		d.out.Println(args...)
	}
}

func (d *Logger) Close() error {
	if d == nil || d.file == nil {
		return nil
	}
	return d.file.Close()
}
