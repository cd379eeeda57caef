package notification

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// Settled is the outcome of one task run by settle.
type Settled[T any] struct {
	Value T
	Err   error
}

// settle runs all tasks concurrently and waits for every one of them.
// A failing or panicking task never cancels the others; out[i] belongs to tasks[i].
func settle[T any](ctx context.Context, tasks ...func(context.Context) (T, error)) []Settled[T] {
	out := make([]Settled[T], len(tasks))

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for i, task := range tasks {
		go func(i int, task func(context.Context) (T, error)) {
			defer wg.Done()
			defer func() {
				if p := recover(); p != nil {
					out[i].Err = errors.Errorf("task panicked: %v", p)
				}
			}()
			out[i].Value, out[i].Err = task(ctx)
		}(i, task)
	}
	wg.Wait()
	return out
}
