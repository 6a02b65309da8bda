package mover

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProgressLifecycle(t *testing.T) {
	p := newProgress()

	status := p.snapshot()
	assert.Equal(t, StatePending, status.State)
	assert.Zero(t, status.TotalBlocks)
	assert.Zero(t, status.RunningTime())
	assert.Equal(t, 0.0, status.Percentage())

	p.markRunning()
	p.setTotals(100, 4)
	status = p.snapshot()
	assert.Equal(t, StateRunning, status.State)
	assert.False(t, status.StartedAt.IsZero())

	p.recordCompleted(25)
	p.recordCompleted(25)
	status = p.snapshot()
	assert.Equal(t, int64(2), status.MovedBlocks)
	assert.Equal(t, int64(50), status.MovedSize)
	assert.Equal(t, 0.5, status.Percentage())

	p.recordCompleted(25)
	p.recordCompleted(25)
	p.markSucceeded()
	status = p.snapshot()
	assert.Equal(t, StateSucceeded, status.State)
	assert.Equal(t, 1.0, status.Percentage(), "success percentage must be exactly 1.0")
	assert.False(t, status.FinishedAt.IsZero())
}

func TestProgressTerminalTransitionIsSticky(t *testing.T) {
	p := newProgress()
	p.markRunning()
	p.setTotals(10, 1)
	p.recordCompleted(10)

	p.markSucceeded()
	first := p.snapshot()

	p.markFailed(assert.AnError)
	p.markSucceeded()
	second := p.snapshot()

	assert.Equal(t, StateSucceeded, second.State)
	assert.Nil(t, second.Err)
	assert.Equal(t, first.FinishedAt, second.FinishedAt)
}

func TestProgressRunningTimeFreezesAtEnd(t *testing.T) {
	p := newProgress()
	p.markRunning()
	time.Sleep(10 * time.Millisecond)
	p.markSucceeded()

	status := p.snapshot()
	frozen := status.RunningTime()
	require.Greater(t, frozen, time.Duration(0))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, frozen, status.RunningTime())
}

func TestProgressConcurrentReadsNeverTear(t *testing.T) {
	p := newProgress()
	p.markRunning()

	const total = 1000
	p.setTotals(total*10, total)

	var wg sync.WaitGroup
	stop := make(chan struct{})

	// Readers check the invariants while the writer increments.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var lastPct float64
			for {
				select {
				case <-stop:
					return
				default:
				}
				s := p.snapshot()
				assert.GreaterOrEqual(t, s.MovedBlocks, int64(0))
				assert.LessOrEqual(t, s.MovedBlocks, s.TotalBlocks)
				assert.Equal(t, s.MovedBlocks*10, s.MovedSize,
					"moved blocks and moved size must change together")
				pct := s.Percentage()
				assert.GreaterOrEqual(t, pct, lastPct, "percentage must be monotonic")
				lastPct = pct
			}
		}()
	}

	for i := 0; i < total; i++ {
		p.recordCompleted(10)
	}
	close(stop)
	wg.Wait()

	assert.Equal(t, 1.0, p.snapshot().Percentage())
}
