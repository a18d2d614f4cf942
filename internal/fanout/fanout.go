package fanout

import (
	"context"

	"golang.org/x/sync/errgroup"
)

const DefaultLimit = 16

type Result[T any] struct {
	Index int
	Value T
	Err   error
}

// All runs fn for every item with at most limit calls in flight and waits
// for every call to finish. A failing call never cancels its siblings;
// results come back in input order.
func All[In, Out any](ctx context.Context, limit int, items []In, fn func(ctx context.Context, item In) (Out, error)) []Result[Out] {
	if limit <= 0 {
		limit = DefaultLimit
	}

	results := make([]Result[Out], len(items))
	var g errgroup.Group
	g.SetLimit(limit)

	for i, item := range items {
		g.Go(func() error {
			v, err := fn(ctx, item)
			results[i] = Result[Out]{Index: i, Value: v, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// Partition splits results into successes and failures.
func Partition[T any](results []Result[T]) (ok, failed []Result[T]) {
	for _, r := range results {
		if r.Err != nil {
			failed = append(failed, r)
		} else {
			ok = append(ok, r)
		}
	}
	return ok, failed
}
