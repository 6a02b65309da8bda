package mover

import (
	"context"
	"fmt"
	"time"

	"tiermover/pkg/types"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"
)

// Mover is the replica relocation primitive: it physically moves one
// replica from the task's source tier to its target tier. It may retry
// internally; the engine treats one call as the unit of work per task and
// never retries on top of it.
type Mover interface {
	Relocate(ctx context.Context, task types.RelocationTask) error
}

// MoverFunc adapts a function to the Mover interface.
type MoverFunc func(ctx context.Context, task types.RelocationTask) error

func (f MoverFunc) Relocate(ctx context.Context, task types.RelocationTask) error {
	return f(ctx, task)
}

// TierStore is where a relocation is committed once the replica data has
// been transferred. *namespace.Namespace satisfies it.
type TierStore interface {
	ApplyRelocation(block types.BlockID, source, target types.StorageTier) error
}

// FaultFunc lets tests and simulations inject per-task failures. Returning
// a retry.RetryableError makes the mover retry the task with backoff; any
// other error fails the task immediately.
type FaultFunc func(task types.RelocationTask) error

// LocalMover relocates replicas against a TierStore, with bounded internal
// retry and an optional simulated transfer delay.
type LocalMover struct {
	store       TierStore
	maxRetries  uint64
	baseBackoff time.Duration
	delayPerMB  time.Duration
	fault       FaultFunc
	logger      *zap.Logger
}

type LocalMoverOption func(*LocalMover)

// WithRetry configures the internal retry budget and base backoff.
func WithRetry(maxRetries uint64, baseBackoff time.Duration) LocalMoverOption {
	return func(m *LocalMover) {
		m.maxRetries = maxRetries
		m.baseBackoff = baseBackoff
	}
}

// WithTransferDelay simulates network transfer time per megabyte moved.
func WithTransferDelay(perMB time.Duration) LocalMoverOption {
	return func(m *LocalMover) { m.delayPerMB = perMB }
}

// WithFaultInjection installs a per-task fault hook.
func WithFaultInjection(fault FaultFunc) LocalMoverOption {
	return func(m *LocalMover) { m.fault = fault }
}

func NewLocalMover(store TierStore, logger *zap.Logger, opts ...LocalMoverOption) *LocalMover {
	m := &LocalMover{
		store:       store,
		maxRetries:  3,
		baseBackoff: 10 * time.Millisecond,
		logger:      logger.Named("mover"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Relocate moves one replica, retrying transient failures with fibonacci
// backoff before giving up.
func (m *LocalMover) Relocate(ctx context.Context, task types.RelocationTask) error {
	backoff := retry.WithMaxRetries(m.maxRetries, retry.NewFibonacci(m.baseBackoff))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if m.fault != nil {
			if err := m.fault(task); err != nil {
				return err
			}
		}
		if m.delayPerMB > 0 {
			delay := time.Duration(task.Size) * m.delayPerMB / (1 << 20)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
		return m.store.ApplyRelocation(task.Block, task.Source, task.Target)
	})
	if err != nil {
		m.logger.Warn("relocation failed",
			zap.String("block", string(task.Block)),
			zap.String("source", string(task.Source)),
			zap.String("target", string(task.Target)),
			zap.Error(err))
		return fmt.Errorf("relocate %s %s->%s: %w", task.Block, task.Source, task.Target, err)
	}
	return nil
}
