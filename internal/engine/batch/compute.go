package batch

import (
	"fmt"

	"github.com/rs/zerolog"
)

// ComputeFunc maps one input item to one result.
type ComputeFunc[T, R any] func(item T) (R, error)

// Pure adapts an infallible function to a ComputeFunc.
func Pure[T, R any](fn func(T) R) ComputeFunc[T, R] {
	return func(item T) (R, error) {
		return fn(item), nil
	}
}

// rangeRunner evaluates a compute function over index ranges of a batch,
// applying the fail-soft policy.
type rangeRunner[T, R any] struct {
	compute     ComputeFunc[T, R]
	onItemError func(err *ItemError)
	logger      zerolog.Logger
}

// run computes items[from:to]. When out is non-nil it must have length to-from
// and receives the results; failed items keep the zero value.
func (r *rangeRunner[T, R]) run(items []T, from, to int, out []R) []*ItemError {
	var failures []*ItemError
	for i := from; i < to; i++ {
		res, err := safeCompute(r.compute, items[i])
		if err != nil {
			itemErr := &ItemError{Index: i, Err: err}
			failures = append(failures, itemErr)
			r.logger.Warn().Err(err).Int("index", i).Msg("item compute failed, continuing")
			if r.onItemError != nil {
				r.onItemError(itemErr)
			}
			continue
		}
		if out != nil {
			out[i-from] = res
		}
	}
	return failures
}

// safeCompute converts a panic inside fn into an error.
func safeCompute[T, R any](fn ComputeFunc[T, R], item T) (res R, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero R
			res = zero
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return fn(item)
}
