package planner

import (
	"errors"
	"testing"

	"tiermover/pkg/namespace"
	"tiermover/pkg/policy"
	"tiermover/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// buildTree creates the directory layout the accounting tests share:
// /data/file1 is one 38-byte block replicated 5-way, /data/child/file2 is
// two blocks (50+30 bytes) replicated 3-way, everything on DISK.
func buildTree(t *testing.T) *namespace.Namespace {
	t.Helper()
	ns := namespace.New(50, zap.NewNop())
	require.NoError(t, ns.Mkdir("/data"))
	require.NoError(t, ns.Mkdir("/data/child"))
	require.NoError(t, ns.CreateFile("/data/file1", 38, 5, types.TierDisk))
	require.NoError(t, ns.CreateFile("/data/child/file2", 80, 3, types.TierDisk))
	return ns
}

func mustRule(t *testing.T, id types.PolicyID) policy.TierRule {
	t.Helper()
	rule, err := policy.Resolve(id)
	require.NoError(t, err)
	return rule
}

func applyPlan(t *testing.T, ns *namespace.Namespace, plan *types.PlacementPlan) {
	t.Helper()
	for _, task := range plan.Tasks {
		require.NoError(t, ns.ApplyRelocation(task.Block, task.Source, task.Target))
	}
}

func TestPlanAccountsPerTask(t *testing.T) {
	ns := buildTree(t)
	pl := New(ns, zap.NewNop())

	// ALL_SSD from all-DISK: every replica moves. file1 contributes
	// 5 tasks of 38 bytes, file2 contributes 3 tasks each for its 50- and
	// 30-byte blocks.
	plan, err := pl.Plan("/data", mustRule(t, policy.AllSSD))
	require.NoError(t, err)
	assert.Equal(t, int64(5+6), plan.TotalBlocks)
	assert.Equal(t, int64(38*5+50*3+30*3), plan.TotalSize)
	assert.Len(t, plan.Tasks, 11)
	for _, task := range plan.Tasks {
		assert.Equal(t, types.TierDisk, task.Source)
		assert.Equal(t, types.TierSSD, task.Target)
	}
}

func TestPlanSingleFile(t *testing.T) {
	ns := buildTree(t)
	pl := New(ns, zap.NewNop())

	plan, err := pl.Plan("/data/file1", mustRule(t, policy.AllSSD))
	require.NoError(t, err)
	assert.Equal(t, int64(5), plan.TotalBlocks)
	assert.Equal(t, int64(38*5), plan.TotalSize)
}

func TestPlanAfterRetiering(t *testing.T) {
	ns := buildTree(t)
	pl := New(ns, zap.NewNop())

	// Move everything to SSD first.
	plan, err := pl.Plan("/data", mustRule(t, policy.AllSSD))
	require.NoError(t, err)
	applyPlan(t, ns, plan)

	// ONE_SSD from all-SSD: one replica per block stays, the rest return
	// to DISK. file1: 4 moves, file2: 2 moves per block.
	plan, err = pl.Plan("/data", mustRule(t, policy.OneSSD))
	require.NoError(t, err)
	assert.Equal(t, int64(1*4+2*2), plan.TotalBlocks)
	assert.Equal(t, int64(38*4+50*2+30*2), plan.TotalSize)
	for _, task := range plan.Tasks {
		assert.Equal(t, types.TierSSD, task.Source)
		assert.Equal(t, types.TierDisk, task.Target)
	}
}

func TestPlanNarrowerPolicyYieldsSmallerPlan(t *testing.T) {
	ns := buildTree(t)
	pl := New(ns, zap.NewNop())

	allSSD, err := pl.Plan("/data", mustRule(t, policy.AllSSD))
	require.NoError(t, err)
	oneSSD, err := pl.Plan("/data", mustRule(t, policy.OneSSD))
	require.NoError(t, err)

	assert.Less(t, oneSSD.TotalBlocks, allSSD.TotalBlocks)
}

func TestPlanCompliantPathIsEmpty(t *testing.T) {
	ns := buildTree(t)
	pl := New(ns, zap.NewNop())

	plan, err := pl.Plan("/data", mustRule(t, policy.Hot))
	require.NoError(t, err)
	assert.Empty(t, plan.Tasks)
	assert.Zero(t, plan.TotalBlocks)
	assert.Zero(t, plan.TotalSize)
}

func TestPlanMixedPlacement(t *testing.T) {
	ns := namespace.New(50, zap.NewNop())
	require.NoError(t, ns.Mkdir("/data"))
	require.NoError(t, ns.CreateFile("/data/file", 40, 3, types.TierDisk))

	blocks, err := ns.BlocksUnder("/data/file")
	require.NoError(t, err)
	require.NoError(t, ns.ApplyRelocation(blocks[0].ID, types.TierDisk, types.TierSSD))

	// One replica already on SSD: ONE_SSD needs no moves, ALL_SSD two.
	pl := New(ns, zap.NewNop())
	plan, err := pl.Plan("/data/file", mustRule(t, policy.OneSSD))
	require.NoError(t, err)
	assert.Empty(t, plan.Tasks)

	plan, err = pl.Plan("/data/file", mustRule(t, policy.AllSSD))
	require.NoError(t, err)
	assert.Equal(t, int64(2), plan.TotalBlocks)
}

func TestPlanPathNotFound(t *testing.T) {
	ns := buildTree(t)
	pl := New(ns, zap.NewNop())

	_, err := pl.Plan("/missing", mustRule(t, policy.AllSSD))
	assert.True(t, errors.Is(err, namespace.ErrPathNotFound))
}
