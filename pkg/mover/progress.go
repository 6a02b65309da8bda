package mover

import (
	"sync"
	"time"
)

// JobState is the lifecycle state of a move job.
type JobState string

const (
	StatePending   JobState = "PENDING"
	StateRunning   JobState = "RUNNING"
	StateSucceeded JobState = "SUCCEEDED"
	StateFailed    JobState = "FAILED"
)

// Status is an immutable point-in-time snapshot of a job's progress.
// Callers only ever see copies; the live tracker is never exposed.
type Status struct {
	State       JobState
	TotalSize   int64
	TotalBlocks int64
	MovedSize   int64
	MovedBlocks int64
	StartedAt   time.Time
	FinishedAt  time.Time
	Err         error
}

// Finished reports whether the job has reached a terminal state.
func (s Status) Finished() bool {
	return s.State == StateSucceeded || s.State == StateFailed
}

// Percentage is movedBlocks/totalBlocks. A zero-task job reports 0 while
// pending and exactly 1.0 once succeeded; a succeeded job always reports
// exactly 1.0 since moved equals total.
func (s Status) Percentage() float64 {
	if s.TotalBlocks == 0 {
		if s.State == StateSucceeded {
			return 1.0
		}
		return 0.0
	}
	return float64(s.MovedBlocks) / float64(s.TotalBlocks)
}

// RunningTime is the elapsed time since start while the job runs, frozen at
// end-start once the job is terminal. Zero before start.
func (s Status) RunningTime() time.Duration {
	if s.StartedAt.IsZero() {
		return 0
	}
	if s.Finished() {
		return s.FinishedAt.Sub(s.StartedAt)
	}
	return time.Since(s.StartedAt)
}

// progress is the per-job mutable tracker. One writer (the job's worker,
// possibly via bounded internal concurrency), any number of concurrent
// readers. The lock guards only the counter struct, never I/O.
type progress struct {
	mu     sync.RWMutex
	status Status
}

func newProgress() *progress {
	return &progress{status: Status{State: StatePending}}
}

func (p *progress) markRunning() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.State != StatePending {
		return
	}
	p.status.State = StateRunning
	p.status.StartedAt = time.Now()
}

func (p *progress) setTotals(size, blocks int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.TotalSize = size
	p.status.TotalBlocks = blocks
}

func (p *progress) recordCompleted(taskSize int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status.MovedBlocks++
	p.status.MovedSize += taskSize
}

// markSucceeded freezes the job as SUCCEEDED. Only the first terminal
// transition wins.
func (p *progress) markSucceeded() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.Finished() {
		return
	}
	p.status.State = StateSucceeded
	p.status.FinishedAt = time.Now()
}

// markFailed freezes the job as FAILED with cause. Only the first terminal
// transition wins.
func (p *progress) markFailed(cause error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.Finished() {
		return
	}
	p.status.State = StateFailed
	p.status.Err = cause
	p.status.FinishedAt = time.Now()
}

func (p *progress) snapshot() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}
