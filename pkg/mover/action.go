package mover

import (
	"context"
	"fmt"
	"sync"

	"tiermover/pkg/metrics"
	"tiermover/pkg/planner"
	"tiermover/pkg/policy"
	"tiermover/pkg/types"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const DefaultTaskConcurrency = 4

// MoveAction is one tiering job: it relocates the block replicas under a
// path to satisfy a storage policy, in the background, while exposing a
// live status snapshot. Actions are fully independent of one another; any
// number may run concurrently.
type MoveAction struct {
	id      string
	path    string
	policy  types.PolicyID
	planner *planner.Planner
	mover   Mover

	concurrency int
	metrics     *metrics.MoverMetrics
	logger      *zap.Logger

	progress  *progress
	startOnce sync.Once
	done      chan struct{}
}

type ActionOption func(*MoveAction)

// WithConcurrency bounds how many relocation tasks the job keeps in flight.
func WithConcurrency(n int) ActionOption {
	return func(a *MoveAction) {
		if n > 0 {
			a.concurrency = n
		}
	}
}

// WithMetrics attaches engine metrics to the job.
func WithMetrics(m *metrics.MoverMetrics) ActionOption {
	return func(a *MoveAction) { a.metrics = m }
}

// New constructs a job in PENDING state. Nothing runs until Start.
func New(path string, policyID types.PolicyID, pl *planner.Planner, mv Mover, logger *zap.Logger, opts ...ActionOption) *MoveAction {
	a := &MoveAction{
		id:          uuid.New().String(),
		path:        path,
		policy:      policyID,
		planner:     pl,
		mover:       mv,
		concurrency: DefaultTaskConcurrency,
		logger:      logger.Named("move_action"),
		progress:    newProgress(),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(zap.String("job", a.id), zap.String("path", path), zap.String("policy", string(policyID)))
	return a
}

func (a *MoveAction) ID() string   { return a.id }
func (a *MoveAction) Path() string { return a.path }

// Start launches the job's worker in the background and returns
// immediately. Subsequent calls are no-ops. Cancelling ctx stops the job
// from submitting further tasks; recorded progress is kept.
func (a *MoveAction) Start(ctx context.Context) {
	a.startOnce.Do(func() {
		go a.run(ctx)
	})
}

// Status returns the current point-in-time snapshot. Safe to call from any
// goroutine, before Start and after completion.
func (a *MoveAction) Status() Status {
	return a.progress.snapshot()
}

// Done is closed when the job reaches a terminal state.
func (a *MoveAction) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the job finishes or ctx is cancelled, then returns the
// final (or current) snapshot.
func (a *MoveAction) Wait(ctx context.Context) Status {
	select {
	case <-a.done:
	case <-ctx.Done():
	}
	return a.progress.snapshot()
}

func (a *MoveAction) run(ctx context.Context) {
	defer close(a.done)

	a.progress.markRunning()
	a.metrics.JobStarted()
	a.logger.Info("move job started")

	rule, err := policy.Resolve(a.policy)
	if err != nil {
		a.fail(err)
		return
	}

	plan, err := a.planner.Plan(a.path, rule)
	if err != nil {
		a.fail(fmt.Errorf("planning: %w", err))
		return
	}

	a.progress.setTotals(plan.TotalSize, plan.TotalBlocks)
	if len(plan.Tasks) == 0 {
		a.progress.markSucceeded()
		a.metrics.JobFinished(true, a.progress.snapshot().RunningTime())
		a.logger.Info("nothing to relocate, job complete")
		return
	}

	a.logger.Info("executing placement plan",
		zap.Int("tasks", len(plan.Tasks)),
		zap.Int64("totalSize", plan.TotalSize))

	var (
		errMu   sync.Mutex
		taskErr error
	)
	g := &errgroup.Group{}
	g.SetLimit(a.concurrency)

	for _, task := range plan.Tasks {
		if ctx.Err() != nil {
			break
		}
		task := task
		g.Go(func() error {
			if err := a.mover.Relocate(ctx, task); err != nil {
				// Continue with remaining tasks; the job fails at the
				// end with the aggregate cause so partial progress
				// stays visible.
				a.metrics.TaskFailed()
				errMu.Lock()
				taskErr = multierr.Append(taskErr, err)
				errMu.Unlock()
				return nil
			}
			a.progress.recordCompleted(task.Size)
			a.metrics.TaskCompleted(task.Size, string(task.Target))
			return nil
		})
	}
	g.Wait()

	if ctxErr := ctx.Err(); ctxErr != nil {
		taskErr = multierr.Append(taskErr, ctxErr)
	}
	if taskErr != nil {
		a.fail(taskErr)
		return
	}

	a.progress.markSucceeded()
	status := a.progress.snapshot()
	a.metrics.JobFinished(true, status.RunningTime())
	a.logger.Info("move job succeeded",
		zap.Int64("movedBlocks", status.MovedBlocks),
		zap.Int64("movedSize", status.MovedSize),
		zap.Duration("runningTime", status.RunningTime()))
}

func (a *MoveAction) fail(cause error) {
	a.progress.markFailed(cause)
	status := a.progress.snapshot()
	a.metrics.JobFinished(false, status.RunningTime())
	a.logger.Error("move job failed",
		zap.Int64("movedBlocks", status.MovedBlocks),
		zap.Int64("totalBlocks", status.TotalBlocks),
		zap.Error(cause))
}
