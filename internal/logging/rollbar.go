package logging

import (
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/tuitionhub/server/internal/config"
	"github.com/tuitionhub/server/internal/models"
)

type RollbarLogger struct {
	std *StdLogger
}

var _ Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(std *StdLogger, cfg *config.Config) *RollbarLogger {
	rollbar.SetToken(cfg.RollbarToken)
	rollbar.SetEnvironment(cfg.Env)
	rollbar.SetCodeVersion(cfg.Build)
	rollbar.SetServerRoot("github.com/tuitionhub/server")
	rollbar.SetStackTracer(errors.StackTracer)
	return &RollbarLogger{std: std}
}

// expected fmt: msg | error, map[string]interface{}, models.Account
func (l RollbarLogger) prepare(msg string, args []interface{}) []interface{} {
	var personSet bool
	out := make([]interface{}, 0, len(args)+1)
	out = append(out, msg)
	for _, arg := range args {
		if acct, ok := arg.(models.Account); ok {
			if !personSet {
				rollbar.SetPerson(acct.IDString(), acct.Name, acct.Email)
				personSet = true
			}
			continue
		}
		out = append(out, arg)
	}
	if !personSet {
		rollbar.ClearPerson()
	}
	return out
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	rollbar.Debug(l.prepare(msg, args)...)
	l.std.Debug(msg, args...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	rollbar.Info(l.prepare(msg, args)...)
	l.std.Info(msg, args...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	rollbar.Warning(l.prepare(msg, args)...)
	l.std.Warn(msg, args...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	rollbar.Error(l.prepare(msg, args)...)
	l.std.Error(msg, args...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	rollbar.Critical(l.prepare(msg, args)...)
	rollbar.Wait()
	l.std.Fatal(msg, args...)
}

// Flush blocks until queued Rollbar items are sent.
func Flush() { rollbar.Wait() }
