package lifecycle

import (
	"context"
	"sync"
	"time"
)

// DefaultRelayoutDelay is the batching window for follow-up layout work.
const DefaultRelayoutDelay = 100 * time.Millisecond

// job is a bit set of follow-up work. Jobs scheduled within one window are merged.
type job uint8

const (
	jobLayout  job = 1 << iota // re-run layout locally
	jobPersist                 // also store the new positions
	jobRefresh                 // reload the whole graph from the store
)

// scheduler runs follow-up work after a short fixed delay. Once scheduled, a
// batch always runs; there is no cancellation.
type scheduler struct {
	mu      sync.Mutex
	delay   time.Duration
	timer   *time.Timer
	pending job
	ctx     context.Context
	run     func(context.Context, job)
	wg      sync.WaitGroup
}

func newScheduler(delay time.Duration, run func(context.Context, job)) *scheduler {
	return &scheduler{delay: delay, run: run}
}

// schedule queues j. With a zero delay j runs before schedule returns.
func (s *scheduler) schedule(ctx context.Context, j job) {
	ctx = context.WithoutCancel(ctx)
	if s.delay <= 0 {
		s.run(ctx, j)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending |= j
	if s.timer != nil {
		return
	}
	s.ctx = ctx
	s.wg.Add(1)
	s.timer = time.AfterFunc(s.delay, s.fire)
}

func (s *scheduler) fire() {
	defer s.wg.Done()
	s.mu.Lock()
	j, ctx := s.pending, s.ctx
	s.pending, s.timer, s.ctx = 0, nil, nil
	s.mu.Unlock()
	s.run(ctx, j)
}

// wait blocks until every scheduled batch has run.
func (s *scheduler) wait() {
	s.wg.Wait()
}
