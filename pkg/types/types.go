package types

type BlockID string
type PolicyID string

// StorageTier is a class of storage medium a replica can live on.
type StorageTier string

const (
	TierDisk    StorageTier = "DISK"
	TierSSD     StorageTier = "SSD"
	TierArchive StorageTier = "ARCHIVE"
	TierRAMDisk StorageTier = "RAM_DISK"
)

// BlockInfo describes one block as seen by the planner: its size and the
// tier each of its replicas currently occupies. ReplicaTiers holds one
// entry per replica; order is not meaningful.
type BlockInfo struct {
	ID           BlockID
	Size         int64
	ReplicaTiers []StorageTier
}

// RelocationTask moves one replica of Block from Source to Target.
// Immutable once emitted by the planner.
type RelocationTask struct {
	Block  BlockID
	Size   int64 // size of the block the replica belongs to
	Source StorageTier
	Target StorageTier
}

// PlacementPlan is the full set of replica moves needed to bring a path
// into compliance with a policy. Totals are accounted per relocation task:
// a block needing two replica moves contributes its size twice.
type PlacementPlan struct {
	TotalSize   int64
	TotalBlocks int64
	Tasks       []RelocationTask
}
