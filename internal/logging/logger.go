package logging

import (
	"io"
	"log"
	"os"

	"github.com/tuitionhub/server/internal/config"
)

// Logger is the application logger. Extra args are printed after the
// message; an error arg is reported with its stack where the backend supports it.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

type StdLogger struct {
	std   *log.Logger
	debug bool
}

var _ Logger = (*StdLogger)(nil)

func NewStdLogger(w io.Writer, debug bool) *StdLogger {
	return &StdLogger{std: log.New(w, "", log.LstdFlags|log.Lmicroseconds), debug: debug}
}

func (l StdLogger) print(level, msg string, args []interface{}) {
	l.std.Println(level + " " + msg)
	for _, arg := range args {
		l.std.Printf("  %+v\n", arg)
	}
}

func (l StdLogger) Debug(msg string, args ...interface{}) {
	if l.debug {
		l.print("DEBUG", msg, args)
	}
}

func (l StdLogger) Info(msg string, args ...interface{})  { l.print("INFO", msg, args) }
func (l StdLogger) Warn(msg string, args ...interface{})  { l.print("WARN", msg, args) }
func (l StdLogger) Error(msg string, args ...interface{}) { l.print("ERROR", msg, args) }

func (l StdLogger) Fatal(msg string, args ...interface{}) {
	l.print("FATAL", msg, args)
	os.Exit(1)
}

// New picks Rollbar when a token is configured, stderr otherwise.
func New(cfg *config.Config) Logger {
	std := NewStdLogger(os.Stderr, cfg.Debug)
	if cfg.RollbarToken == "" {
		return std
	}
	return NewRollbarLogger(std, cfg)
}

// Discard is a logger for tests.
func Discard() Logger { return NewStdLogger(io.Discard, false) }
