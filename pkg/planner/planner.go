package planner

import (
	"fmt"

	"tiermover/pkg/policy"
	"tiermover/pkg/types"

	"go.uber.org/zap"
)

// BlockEnumerator is the filesystem collaborator: it lists every block at
// or below a path together with the current tier of each replica.
type BlockEnumerator interface {
	BlocksUnder(path string) ([]types.BlockInfo, error)
}

// Planner turns a path plus a resolved tier rule into a placement plan:
// one relocation task per replica that sits on the wrong tier. Plan totals
// are accounted per task, so a block needing two replica moves contributes
// its size twice.
type Planner struct {
	enum   BlockEnumerator
	logger *zap.Logger
}

func New(enum BlockEnumerator, logger *zap.Logger) *Planner {
	return &Planner{enum: enum, logger: logger.Named("planner")}
}

// Plan enumerates blocks under path and matches each block's current
// replica tiers against the rule's target multiset. Surplus replicas (on a
// tier holding more replicas than desired) are paired with deficit tiers to
// produce the minimal set of moves. Blocks already compliant contribute
// zero tasks.
func (p *Planner) Plan(path string, rule policy.TierRule) (*types.PlacementPlan, error) {
	blocks, err := p.enum.BlocksUnder(path)
	if err != nil {
		return nil, fmt.Errorf("enumerate blocks under %s: %w", path, err)
	}

	plan := &types.PlacementPlan{}
	for _, b := range blocks {
		for _, task := range blockTasks(b, rule) {
			plan.Tasks = append(plan.Tasks, task)
			plan.TotalBlocks++
			plan.TotalSize += task.Size
		}
	}

	p.logger.Debug("placement plan computed",
		zap.String("path", path),
		zap.Int64("totalBlocks", plan.TotalBlocks),
		zap.Int64("totalSize", plan.TotalSize))
	return plan, nil
}

func blockTasks(b types.BlockInfo, rule policy.TierRule) []types.RelocationTask {
	want := make(map[types.StorageTier]int)
	for _, tier := range rule.Targets(len(b.ReplicaTiers)) {
		want[tier]++
	}

	// Replicas already on a wanted tier stay put; the rest are surplus.
	var surplus []types.StorageTier
	for _, tier := range b.ReplicaTiers {
		if want[tier] > 0 {
			want[tier]--
		} else {
			surplus = append(surplus, tier)
		}
	}
	if len(surplus) == 0 {
		return nil
	}

	var deficit []types.StorageTier
	for _, tier := range rule.Targets(len(b.ReplicaTiers)) {
		if want[tier] > 0 {
			want[tier]--
			deficit = append(deficit, tier)
		}
	}

	tasks := make([]types.RelocationTask, 0, len(surplus))
	for i, source := range surplus {
		tasks = append(tasks, types.RelocationTask{
			Block:  b.ID,
			Size:   b.Size,
			Source: source,
			Target: deficit[i],
		})
	}
	return tasks
}
