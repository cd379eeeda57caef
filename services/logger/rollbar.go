package logsvc

import (
	"context"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/koda-tec/sistema-escolar/core"
)

// RollbarLogger writes structured entries with zap and reports them to Rollbar.
type RollbarLogger struct {
	zl *zap.Logger
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(zl *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.TestMode)
	return &RollbarLogger{zl: zl.WithOptions(zap.AddCallerSkip(1))}
}

// NewTestLogger returns a logger writing to the test output, with Rollbar disabled.
func NewTestLogger(t zaptest.TestingT) *RollbarLogger {
	rollbar.SetEnabled(false)
	return &RollbarLogger{zl: zaptest.NewLogger(t)}
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Zap returns the underlying zap logger.
func (l RollbarLogger) Zap() *zap.Logger { return l.zl }

// entry is one log call, split into its Rollbar item and zap fields.
type entry struct {
	ctx    context.Context // carries the rollbar person, if any
	err    error
	extras map[string]interface{}
	fields []zap.Field
}

// expected args: error, map[string]interface{}, core.Identity
func (l RollbarLogger) prepare(args []interface{}) entry {
	e := entry{ctx: context.Background(), extras: make(map[string]interface{})}
	var idSet bool
	for _, arg := range args {
		switch v := arg.(type) {
		case core.Identity:
			if !idSet { // only set one identity
				e.ctx = rollbar.NewPersonContext(e.ctx, &rollbar.Person{Id: v.ID, Username: v.Role, Email: v.Email})
				e.fields = append(e.fields, zap.String("identity", v.ID), zap.String("school", v.SchoolID))
				idSet = true
			}
		case error:
			if e.err == nil {
				e.err = v
			}
			e.fields = append(e.fields, zap.Error(v))
		case map[string]interface{}:
			for key, val := range v {
				e.extras[key] = val
				e.fields = append(e.fields, zap.Any(key, val))
			}
		default:
			e.extras["arg"] = v
			e.fields = append(e.fields, zap.Any("arg", v))
		}
	}
	return e
}

// report sends one item to Rollbar. The person travels with the item so the
// shared client is never mutated per call.
func (l RollbarLogger) report(level, msg string, e entry) {
	if e.err != nil {
		e.extras["message"] = msg
		rollbar.ErrorWithExtrasAndContext(e.ctx, level, e.err, e.extras)
		return
	}
	rollbar.MessageWithExtrasAndContext(e.ctx, level, msg, e.extras)
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	e := l.prepare(args)
	l.report(rollbar.DEBUG, msg, e)
	l.zl.Debug(msg, e.fields...)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	e := l.prepare(args)
	l.report(rollbar.INFO, msg, e)
	l.zl.Info(msg, e.fields...)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	e := l.prepare(args)
	l.report(rollbar.WARN, msg, e)
	l.zl.Warn(msg, e.fields...)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	e := l.prepare(args)
	l.report(rollbar.ERR, msg, e)
	l.zl.Error(msg, e.fields...)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	e := l.prepare(args)
	l.report(rollbar.CRIT, msg, e)
	rollbar.Wait()
	l.zl.Fatal(msg, e.fields...)
}

// Sync flushes buffered entries of both sinks.
func (l RollbarLogger) Sync() {
	rollbar.Wait()
	_ = l.zl.Sync()
}
