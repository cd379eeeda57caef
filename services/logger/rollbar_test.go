package logsvc

import (
	"fmt"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/koda-tec/sistema-escolar/core"
)

func newObservedLogger() (*RollbarLogger, *observer.ObservedLogs) {
	rollbar.SetEnabled(false)
	obs, logs := observer.New(zapcore.DebugLevel)
	return &RollbarLogger{zl: zap.New(obs)}, logs
}

func TestRollbarLogger_Fields(t *testing.T) {
	logger, logs := newObservedLogger()

	err := errors.New("boom")
	id := core.Identity{ID: "u-1", Email: "dir@school.test", Role: "director", SchoolID: "s-1"}
	logger.Error("sending email", err, map[string]interface{}{"recipient": "p-1"}, id, id)

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		entry := entries[0]
		assert.Equal(t, zapcore.ErrorLevel, entry.Level)
		assert.Equal(t, "sending email", entry.Message)

		ctx := entry.ContextMap()
		assert.Equal(t, "boom", ctx["error"])
		assert.Equal(t, "p-1", ctx["recipient"])
		assert.Equal(t, "u-1", ctx["identity"])
		assert.Equal(t, "s-1", ctx["school"])
	}
}

func TestRollbarLogger_Levels(t *testing.T) {
	logger, logs := newObservedLogger()

	logger.Debug("d")
	logger.Info("i")
	logger.Warn("w", 42)

	levels := make([]zapcore.Level, 0, 3)
	for _, e := range logs.All() {
		levels = append(levels, e.Level)
	}
	assert.Equal(t, []zapcore.Level{zapcore.DebugLevel, zapcore.InfoLevel, zapcore.WarnLevel}, levels)
	assert.EqualValues(t, 42, logs.FilterMessage("w").All()[0].ContextMap()["arg"])
}

func TestRollbarLogger_ConcurrentIdentities(t *testing.T) {
	logger, logs := newObservedLogger()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := core.Identity{ID: fmt.Sprintf("u-%d", i), Role: "parent", SchoolID: "s-1"}
			if i%2 == 0 {
				logger.Warn("sending push", errors.New("gone"), id)
				return
			}
			logger.Info("sent email", map[string]interface{}{"recipient": id.ID})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 25, logs.FilterMessage("sending push").Len())
	assert.Equal(t, 25, logs.FilterMessage("sent email").Len())
	for _, e := range logs.FilterMessage("sending push").All() {
		assert.Equal(t, "s-1", e.ContextMap()["school"])
	}
}

func TestRollbarLogger_prepare(t *testing.T) {
	logger, _ := newObservedLogger()

	first, second := errors.New("first"), errors.New("second")
	e := logger.prepare([]interface{}{
		first, second,
		core.Identity{ID: "u-1", Role: "director"},
		core.Identity{ID: "u-2"},
		map[string]interface{}{"path": "/v1/notifications"},
	})

	assert.Equal(t, first, e.err)
	assert.Equal(t, map[string]interface{}{"path": "/v1/notifications"}, e.extras)
	p, ok := rollbar.PersonFromContext(e.ctx)
	if assert.True(t, ok) {
		assert.Equal(t, "u-1", p.Id)
		assert.Equal(t, "director", p.Username)
	}

	e = logger.prepare(nil)
	_, ok = rollbar.PersonFromContext(e.ctx)
	assert.False(t, ok)
}
