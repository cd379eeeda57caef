package notification

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestSettle(t *testing.T) {
	var done int32
	boom := errors.New("boom")

	res := settle(context.Background(),
		func(context.Context) (string, error) { return "", boom },
		func(context.Context) (string, error) {
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt32(&done, 1)
			return "slow", nil
		},
		func(context.Context) (string, error) { panic("kaboom") },
	)

	assert.Len(t, res, 3)
	assert.Equal(t, boom, res[0].Err)
	assert.Equal(t, Settled[string]{Value: "slow"}, res[1])
	assert.EqualError(t, res[2].Err, "task panicked: kaboom")
	assert.EqualValues(t, 1, atomic.LoadInt32(&done))
}

func TestSettle_Empty(t *testing.T) {
	assert.Empty(t, settle[Result](context.Background()))
}
