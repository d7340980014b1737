package worker

import (
	"context"
	"fmt"
)

type indexedJob[T, R any] struct {
	index int
	item  T
	fn    func(ctx context.Context, item T) (R, error)
}

type indexedResult[R any] struct {
	index int
	value R
	err   error
}

func (r *indexedResult[R]) GetError() error {
	return r.err
}

func (j *indexedJob[T, R]) Execute(ctx context.Context) (res Result) {
	out := &indexedResult[R]{index: j.index}
	defer func() {
		if rec := recover(); rec != nil {
			out.err = fmt.Errorf("panic: %v", rec)
			res = out
		}
	}()
	out.value, out.err = j.fn(ctx, j.item)
	return out
}

// Outcome is the result of one fan-out task, at the same index as its input
type Outcome[R any] struct {
	Value R
	Err   error
}

// FanOut runs fn once per item on a bounded pool and joins all tasks before
// returning. Outcomes are ordered like items regardless of completion order.
// A failing or panicking task only affects its own outcome. The returned
// error is non-nil only when ctx ended before every task was queued.
func FanOut[T, R any](ctx context.Context, workers int, items []T, fn func(ctx context.Context, item T) (R, error)) ([]Outcome[R], error) {
	outcomes := make([]Outcome[R], len(items))
	if len(items) == 0 {
		return outcomes, nil
	}

	pool := NewPoolWithContext(ctx, workers)
	pool.Start()

	for i, item := range items {
		if !pool.Submit(&indexedJob[T, R]{index: i, item: item, fn: fn}) {
			pool.Shutdown()
			return outcomes, fmt.Errorf("fan-out interrupted: %w", ctx.Err())
		}
	}

	for _, r := range pool.Wait() {
		res := r.(*indexedResult[R])
		outcomes[res.index] = Outcome[R]{Value: res.value, Err: res.err}
	}

	if err := ctx.Err(); err != nil {
		return outcomes, fmt.Errorf("fan-out interrupted: %w", err)
	}
	return outcomes, nil
}
