package policy

import (
	"errors"
	"fmt"
	"sort"

	"tiermover/pkg/types"
)

// ErrUnknownPolicy is returned when a policy identifier is not in the table.
var ErrUnknownPolicy = errors.New("unknown storage policy")

// Built-in storage policies.
const (
	Hot         types.PolicyID = "HOT"
	Warm        types.PolicyID = "WARM"
	Cold        types.PolicyID = "COLD"
	AllSSD      types.PolicyID = "ALL_SSD"
	OneSSD      types.PolicyID = "ONE_SSD"
	LazyPersist types.PolicyID = "LAZY_PERSIST"
)

// TierRule is the resolved form of a storage policy: PrimaryCount replicas
// belong on Primary and the remainder on Fallback. PrimaryCount == 0 means
// every replica belongs on Primary and Fallback is unused.
type TierRule struct {
	Primary      types.StorageTier
	PrimaryCount int
	Fallback     types.StorageTier
}

// Targets returns the desired tier for each of replicaCount replica slots.
// The result is a multiset; slot order carries no meaning.
func (r TierRule) Targets(replicaCount int) []types.StorageTier {
	targets := make([]types.StorageTier, 0, replicaCount)
	primary := replicaCount
	if r.PrimaryCount > 0 && r.PrimaryCount < replicaCount {
		primary = r.PrimaryCount
	}
	for i := 0; i < replicaCount; i++ {
		if i < primary {
			targets = append(targets, r.Primary)
		} else {
			targets = append(targets, r.Fallback)
		}
	}
	return targets
}

var table = map[types.PolicyID]TierRule{
	Hot:         {Primary: types.TierDisk},
	Warm:        {Primary: types.TierDisk, PrimaryCount: 1, Fallback: types.TierArchive},
	Cold:        {Primary: types.TierArchive},
	AllSSD:      {Primary: types.TierSSD},
	OneSSD:      {Primary: types.TierSSD, PrimaryCount: 1, Fallback: types.TierDisk},
	LazyPersist: {Primary: types.TierRAMDisk, PrimaryCount: 1, Fallback: types.TierDisk},
}

// Resolve maps a policy identifier to its tier rule. Pure lookup, no state.
func Resolve(id types.PolicyID) (TierRule, error) {
	rule, ok := table[id]
	if !ok {
		return TierRule{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, id)
	}
	return rule, nil
}

// Known returns the policy identifiers in the table, sorted for display.
func Known() []types.PolicyID {
	ids := make([]types.PolicyID, 0, len(table))
	for id := range table {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
