package jobs_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/attractor/internal/jobs"
)

type workspace struct{ id int }

var _ = Describe("Workers", func() {
	It("honours an explicit count", func() {
		Expect(jobs.Workers(3)).To(Equal(3))
	})

	It("never resolves below one", func() {
		Expect(jobs.Workers(0)).To(BeNumerically(">=", 1))
		Expect(jobs.Workers(-5)).To(BeNumerically(">=", 1))
	})
})

var _ = Describe("Run", func() {
	var (
		ctx        context.Context
		newScratch func() *workspace
		made       atomic.Int32
	)

	BeforeEach(func() {
		ctx = context.Background()
		made.Store(0)
		newScratch = func() *workspace {
			return &workspace{id: int(made.Add(1))}
		}
	})

	It("processes every index exactly once", func() {
		const n = 200
		var counts [n]atomic.Int32

		err := jobs.Run(ctx, n, 4, newScratch, func(_ context.Context, i int, _ *workspace) error {
			counts[i].Add(1)
			return nil
		})

		Expect(err).NotTo(HaveOccurred())
		for i := range counts {
			Expect(counts[i].Load()).To(Equal(int32(1)), "index %d", i)
		}
	})

	It("builds one scratch per worker", func() {
		err := jobs.Run(ctx, 50, 3, newScratch, func(context.Context, int, *workspace) error {
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(made.Load()).To(BeNumerically("<=", 3))
	})

	It("does not start more workers than items", func() {
		err := jobs.Run(ctx, 2, 8, newScratch, func(context.Context, int, *workspace) error {
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(made.Load()).To(BeNumerically("<=", 2))
	})

	It("reports item errors and keeps going", func() {
		var (
			mu     sync.Mutex
			failed []int
			done   atomic.Int32
		)
		boom := errors.New("boom")

		err := jobs.Run(ctx, 20, 4, newScratch, func(_ context.Context, i int, _ *workspace) error {
			done.Add(1)
			if i%5 == 0 {
				return boom
			}
			return nil
		}, jobs.OnError(func(i int, err error) {
			mu.Lock()
			defer mu.Unlock()
			if errors.Is(err, boom) {
				failed = append(failed, i)
			}
		}))

		Expect(err).NotTo(HaveOccurred())
		Expect(done.Load()).To(Equal(int32(20)))
		Expect(failed).To(ConsistOf(0, 5, 10, 15))
	})

	It("stops on a fatal error", func() {
		broken := errors.New("stream broken")
		var started atomic.Int32

		err := jobs.Run(ctx, 1000, 2, newScratch, func(_ context.Context, i int, _ *workspace) error {
			started.Add(1)
			if i == 3 {
				return jobs.Fatal(broken)
			}
			time.Sleep(time.Millisecond)
			return nil
		})

		Expect(err).To(MatchError(broken))
		Expect(jobs.IsFatal(err)).To(BeTrue())
		Expect(started.Load()).To(BeNumerically("<", 1000))
	})

	It("tracks state and progress", func() {
		var (
			job        jobs.Job
			notRunning atomic.Int32
			badTotal   atomic.Int32
			calls      atomic.Int32
		)
		Expect(job.State()).To(Equal(jobs.Pending))

		err := jobs.Run(ctx, 10, 2, newScratch, func(context.Context, int, *workspace) error {
			if job.State() != jobs.Running {
				notRunning.Add(1)
			}
			return nil
		}, jobs.Track(&job), jobs.OnProgress(func(done, total int) {
			if total != 10 {
				badTotal.Add(1)
			}
			calls.Add(1)
		}))

		Expect(err).NotTo(HaveOccurred())
		Expect(notRunning.Load()).To(BeZero())
		Expect(badTotal.Load()).To(BeZero())
		Expect(calls.Load()).To(Equal(int32(10)))
		Expect(job.State()).To(Equal(jobs.Done))
		done, total := job.Progress()
		Expect(done).To(Equal(10))
		Expect(total).To(Equal(10))
	})

	It("returns immediately for an empty run", func() {
		var calls atomic.Int32
		err := jobs.Run(ctx, 0, 4, newScratch, func(context.Context, int, *workspace) error {
			calls.Add(1)
			return nil
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls.Load()).To(BeZero())
	})

	It("stops when the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		err := jobs.Run(cctx, 1000, 2, newScratch, func(_ context.Context, i int, _ *workspace) error {
			if i == 5 {
				cancel()
			}
			return nil
		})
		Expect(err).To(MatchError(context.Canceled))
	})
})

var _ = Describe("RunOrdered", func() {
	ctx := context.Background()
	noScratch := func() struct{} { return struct{}{} }

	It("emits strictly in index order despite out of order completion", func() {
		const n = 40
		var order, values []int

		err := jobs.RunOrdered(ctx, n, 6, noScratch,
			func(_ context.Context, i int, _ struct{}) (int, error) {
				// later items finish first
				time.Sleep(time.Duration((n-i)%7) * time.Millisecond)
				return i * i, nil
			},
			func(i int, v int) error {
				order = append(order, i)
				values = append(values, v)
				return nil
			})

		Expect(err).NotTo(HaveOccurred())
		Expect(order).To(HaveLen(n))
		for i := range order {
			Expect(order[i]).To(Equal(i))
			Expect(values[i]).To(Equal(i * i))
		}
	})

	It("never runs two emits at once", func() {
		var inside, overlaps atomic.Int32
		err := jobs.RunOrdered(ctx, 30, 4, noScratch,
			func(context.Context, int, struct{}) (struct{}, error) { return struct{}{}, nil },
			func(int, struct{}) error {
				if inside.Add(1) != 1 {
					overlaps.Add(1)
				}
				time.Sleep(100 * time.Microsecond)
				inside.Add(-1)
				return nil
			})
		Expect(err).NotTo(HaveOccurred())
		Expect(overlaps.Load()).To(BeZero())
	})

	It("treats a compute error as fatal and emits nothing past the gap", func() {
		bad := errors.New("render failed")
		var emitted []int

		err := jobs.RunOrdered(ctx, 20, 3, noScratch,
			func(_ context.Context, i int, _ struct{}) (int, error) {
				if i == 4 {
					return 0, bad
				}
				return i, nil
			},
			func(i int, _ int) error {
				emitted = append(emitted, i)
				return nil
			})

		Expect(err).To(MatchError(bad))
		for _, i := range emitted {
			Expect(i).To(BeNumerically("<", 4))
		}
	})

	It("aborts waiting workers when emit fails", func() {
		pipe := errors.New("broken pipe")

		err := jobs.RunOrdered(ctx, 50, 4, noScratch,
			func(context.Context, int, struct{}) (int, error) { return 0, nil },
			func(i int, _ int) error {
				if i == 2 {
					return pipe
				}
				return nil
			})

		Expect(err).To(MatchError(pipe))
	})
})

var _ = Describe("Sequencer", func() {
	It("releases waiters one index at a time", func() {
		seq := jobs.NewSequencer()
		out := make(chan int, 3)

		var wg sync.WaitGroup
		for _, i := range []int{2, 0, 1} {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()
				Expect(seq.Wait(i)).To(Succeed())
				out <- i
				seq.Advance()
			}()
		}
		wg.Wait()
		close(out)

		var got []int
		for i := range out {
			got = append(got, i)
		}
		Expect(got).To(Equal([]int{0, 1, 2}))
		Expect(seq.Next()).To(Equal(3))
	})

	It("wakes waiters on abort", func() {
		seq := jobs.NewSequencer()
		errc := make(chan error, 1)
		go func() { errc <- seq.Wait(5) }()

		Consistently(errc, 20*time.Millisecond).ShouldNot(Receive())
		seq.Abort()
		Eventually(errc).Should(Receive(MatchError(jobs.ErrAborted)))
	})
})

var _ = Describe("Fatal", func() {
	It("passes nil through", func() {
		Expect(jobs.Fatal(nil)).To(BeNil())
	})

	It("is detected through further wrapping", func() {
		err := errors.Join(errors.New("context"), jobs.Fatal(errors.New("x")))
		Expect(jobs.IsFatal(err)).To(BeTrue())
		Expect(jobs.IsFatal(errors.New("plain"))).To(BeFalse())
	})
})
