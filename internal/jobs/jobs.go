// Package jobs runs indexed work items over a fixed pool of goroutines.
//
// Workers claim indices from a shared counter, so every item is processed
// exactly once whatever the completion order. [Run] lets items finish in
// any order; [RunOrdered] still computes out of order but hands results to a
// single emitter strictly by index, which is what a video stream needs.
//
// Each worker builds its own scratch value once, so per-item buffers are
// never shared between goroutines.
package jobs

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Workers resolves a requested pool size: n when positive, otherwise one less
// than the CPU count, and never below one.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	if c := runtime.NumCPU() - 1; c > 1 {
		return c
	}
	return 1
}

// Run calls work for every index in [0, n) from a pool of workers. An item
// error is passed to the OnError hook and the run continues, unless it is
// wrapped with Fatal, in which case every worker stops and the error is
// returned.
func Run[S any](ctx context.Context, n, workers int, newScratch func() S,
	work func(ctx context.Context, i int, s S) error, opts ...Option) error {

	o := collect(opts)
	o.job.start(n)
	defer o.job.finish()

	if n <= 0 {
		return nil
	}

	var next atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < min(Workers(workers), n); w++ {
		g.Go(func() error {
			s := newScratch()
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				i := int(next.Add(1) - 1)
				if i >= n {
					return nil
				}
				if err := work(gctx, i, s); err != nil {
					if IsFatal(err) {
						return err
					}
					o.onError(i, err)
				}
				o.advance(n)
			}
		})
	}
	return g.Wait()
}

// RunOrdered computes items like Run but passes each result to emit in
// strictly increasing index order, one call at a time. Any compute or emit
// error is fatal: a gap would corrupt the ordered output.
func RunOrdered[S, T any](ctx context.Context, n, workers int, newScratch func() S,
	compute func(ctx context.Context, i int, s S) (T, error),
	emit func(i int, v T) error, opts ...Option) error {

	o := collect(opts)
	o.job.start(n)
	defer o.job.finish()

	if n <= 0 {
		return nil
	}

	var next atomic.Int64
	seq := NewSequencer()
	g, gctx := errgroup.WithContext(ctx)
	stop := context.AfterFunc(gctx, seq.Abort)
	defer stop()

	for w := 0; w < min(Workers(workers), n); w++ {
		g.Go(func() error {
			s := newScratch()
			for {
				if err := gctx.Err(); err != nil {
					return err
				}
				i := int(next.Add(1) - 1)
				if i >= n {
					return nil
				}

				v, err := compute(gctx, i, s)
				if err != nil {
					return fmt.Errorf("item %d: %w", i, err)
				}
				if err := seq.Wait(i); err != nil {
					if cerr := gctx.Err(); cerr != nil {
						return cerr
					}
					return err
				}
				if err := emit(i, v); err != nil {
					return fmt.Errorf("emit %d: %w", i, err)
				}
				seq.Advance()
				o.advance(n)
			}
		})
	}
	return g.Wait()
}
