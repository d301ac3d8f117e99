package common

import (
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// MaxParallelCalls caps the number of concurrent node calls a single fan-out
// makes, so a long dish list doesn't hit the node's rate limit.
const MaxParallelCalls = 8

// ParallelMap calls fn for every item, at most MaxParallelCalls at a time,
// and returns the results and errors in the order of items.
func ParallelMap[T, R any](items []T, fn func(T) (R, error)) ([]R, []error) {
	return ParallelMapLimit(items, MaxParallelCalls, fn)
}

// ParallelMapLimit is ParallelMap with an explicit bound. A limit below 1
// runs the items one by one.
func ParallelMapLimit[T, R any](items []T, limit int, fn func(T) (R, error)) ([]R, []error) {
	results := make([]R, len(items))
	errs := make([]error, len(items))
	if limit < 1 {
		limit = 1
	}

	var g errgroup.Group
	g.SetLimit(limit)
	for i := range items {
		g.Go(func() error {
			results[i], errs[i] = fn(items[i])
			return nil
		})
	}
	_ = g.Wait()
	return results, errs
}

var printer = message.NewPrinter(language.English)

// FormatCount renders n with thousands separators, e.g. 12,500.
func FormatCount(n uint64) string {
	return printer.Sprintf("%d", n)
}
