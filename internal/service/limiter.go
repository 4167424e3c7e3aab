package service

// limiter.go bounds how many cleaning jobs run at once.
//
// Each clean or batch request holds one slot for its whole run. When every
// slot is taken a request waits up to maxWait before failing with
// ErrTooManyJobs. WaitForDrain lets shutdown wait for running jobs.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyJobs is returned when no job slot frees up within the wait limit.
var ErrTooManyJobs = errors.New("too many jobs running, please try again later")

const (
	// DefaultMaxJobs is the default number of concurrent cleaning jobs.
	DefaultMaxJobs = 4

	// DefaultMaxWait is how long a job waits for a slot.
	DefaultMaxWait = 30 * time.Second
)

// JobLimiter is a semaphore over cleaning jobs.
type JobLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewJobLimiter allows maxJobs concurrent jobs, each waiting at most maxWait
// for a slot.
func NewJobLimiter(maxJobs int, maxWait time.Duration) *JobLimiter {
	if maxJobs <= 0 {
		maxJobs = DefaultMaxJobs
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	return &JobLimiter{
		slots:   make(chan struct{}, maxJobs),
		maxWait: maxWait,
	}
}

// Acquire takes a slot. Callers must Release it when the job ends.
func (l *JobLimiter) Acquire(ctx context.Context) error {
	waitCtx, cancel := context.WithTimeout(ctx, l.maxWait)
	defer cancel()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-waitCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrTooManyJobs
	}
}

// Release frees a slot taken by Acquire.
func (l *JobLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// ActiveCount returns the number of running jobs.
func (l *JobLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// WaitForDrain blocks until no job is running or ctx is done.
func (l *JobLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// LimiterStatus is a snapshot of the limiter for health output.
type LimiterStatus struct {
	Active    int `json:"active"`
	Available int `json:"available"`
	MaxJobs   int `json:"maxJobs"`
}

// Status reports current usage.
func (l *JobLimiter) Status() LimiterStatus {
	return LimiterStatus{
		Active:    l.ActiveCount(),
		Available: cap(l.slots) - len(l.slots),
		MaxJobs:   cap(l.slots),
	}
}
