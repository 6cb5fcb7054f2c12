package pipeline

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// workerCount returns n, or the number of CPUs when n <= 0.
func workerCount(n int) int {
	if n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// forEach runs fn for every index in [0, n) on a fixed number of workers.
//
// Errors returned by fn are stored at their index and do not stop the run,
// unless they are fatal: a fatal error cancels the context, no further
// indices are handed out, and it is returned as the second value.
func forEach(ctx context.Context, workers, n int, fn func(ctx context.Context, i int) error) ([]error, error) {
	errs := make([]error, n)
	if n == 0 {
		return errs, ctx.Err()
	}

	workers = workerCount(workers)
	if workers > n {
		workers = n
	}

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := range jobs {
				err := fn(gctx, i)
				if err == nil {
					continue
				}
				var f fatal
				if errors.As(err, &f) {
					return f.err
				}
				errs[i] = err
			}
			return nil
		})
	}

feed:
	for i := 0; i < n; i++ {
		select {
		case jobs <- i:
		case <-gctx.Done():
			break feed
		}
	}
	close(jobs)

	if err := g.Wait(); err != nil {
		return errs, err
	}
	return errs, ctx.Err()
}
