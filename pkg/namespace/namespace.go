package namespace

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"tiermover/pkg/types"

	"go.uber.org/zap"
)

// ErrPathNotFound is returned when a path does not exist in the namespace.
var ErrPathNotFound = errors.New("path not found")

// ErrNoReplicaOnTier is returned by ApplyRelocation when the block has no
// replica left on the requested source tier.
var ErrNoReplicaOnTier = errors.New("no replica on source tier")

const DefaultBlockSize = 128 * 1024 * 1024

// Namespace is an in-memory file/directory tree whose files are split into
// fixed-size blocks with per-replica tier placement. It implements the block
// enumeration the planner consumes and the tier commit the local mover needs.
type Namespace struct {
	mu        sync.RWMutex
	dirs      map[string]*directory
	files     map[string]*file
	blocks    map[types.BlockID]*block
	blockSize int64
	blockSeq  uint64
	logger    *zap.Logger
}

type directory struct {
	path     string
	parent   string
	children []string
}

type file struct {
	path   string
	size   int64
	blocks []types.BlockID
}

type block struct {
	id    types.BlockID
	size  int64
	tiers []types.StorageTier
}

func New(blockSize int64, logger *zap.Logger) *Namespace {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	n := &Namespace{
		dirs:      make(map[string]*directory),
		files:     make(map[string]*file),
		blocks:    make(map[types.BlockID]*block),
		blockSize: blockSize,
		logger:    logger.Named("namespace"),
	}
	n.dirs["/"] = &directory{path: "/"}
	return n
}

// Mkdir creates a directory. The parent must already exist.
func (n *Namespace) Mkdir(path string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.dirs[path]; exists {
		return fmt.Errorf("directory %s already exists", path)
	}
	if _, exists := n.files[path]; exists {
		return fmt.Errorf("%s is a file", path)
	}

	parent := parentPath(path)
	parentDir, exists := n.dirs[parent]
	if !exists {
		return fmt.Errorf("parent of %s: %w", path, ErrPathNotFound)
	}

	n.dirs[path] = &directory{path: path, parent: parent}
	parentDir.children = append(parentDir.children, path)

	n.logger.Debug("directory created", zap.String("path", path))
	return nil
}

// CreateFile creates a file of the given size, split into blockSize-sized
// blocks (the last block may be shorter), with every replica of every block
// initially placed on tier.
func (n *Namespace) CreateFile(path string, size int64, replication int, tier types.StorageTier) error {
	if replication < 1 {
		return fmt.Errorf("replication must be at least 1, got %d", replication)
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if _, exists := n.files[path]; exists {
		return fmt.Errorf("file %s already exists", path)
	}
	if _, exists := n.dirs[path]; exists {
		return fmt.Errorf("%s is a directory", path)
	}

	parent := parentPath(path)
	parentDir, exists := n.dirs[parent]
	if !exists {
		return fmt.Errorf("parent of %s: %w", path, ErrPathNotFound)
	}

	f := &file{path: path, size: size}
	for remaining := size; remaining > 0; remaining -= n.blockSize {
		blockLen := n.blockSize
		if remaining < blockLen {
			blockLen = remaining
		}
		n.blockSeq++
		b := &block{
			id:    types.BlockID(fmt.Sprintf("blk-%d", n.blockSeq)),
			size:  blockLen,
			tiers: make([]types.StorageTier, replication),
		}
		for i := range b.tiers {
			b.tiers[i] = tier
		}
		n.blocks[b.id] = b
		f.blocks = append(f.blocks, b.id)
	}

	n.files[path] = f
	parentDir.children = append(parentDir.children, path)

	n.logger.Debug("file created",
		zap.String("path", path),
		zap.Int64("size", size),
		zap.Int("replication", replication),
		zap.Int("blocks", len(f.blocks)))
	return nil
}

// BlocksUnder enumerates every block of every file at or below path,
// together with the current tier of each replica. Works for both a single
// file and a directory tree.
func (n *Namespace) BlocksUnder(path string) ([]types.BlockInfo, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if f, ok := n.files[path]; ok {
		return n.fileBlocksLocked(f), nil
	}
	dir, ok := n.dirs[path]
	if !ok {
		return nil, fmt.Errorf("%s: %w", path, ErrPathNotFound)
	}

	var infos []types.BlockInfo
	stack := []*directory{dir}
	for len(stack) > 0 {
		d := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range d.children {
			if childDir, ok := n.dirs[child]; ok {
				stack = append(stack, childDir)
			} else if childFile, ok := n.files[child]; ok {
				infos = append(infos, n.fileBlocksLocked(childFile)...)
			}
		}
	}
	return infos, nil
}

func (n *Namespace) fileBlocksLocked(f *file) []types.BlockInfo {
	infos := make([]types.BlockInfo, 0, len(f.blocks))
	for _, id := range f.blocks {
		b := n.blocks[id]
		tiers := make([]types.StorageTier, len(b.tiers))
		copy(tiers, b.tiers)
		infos = append(infos, types.BlockInfo{ID: b.id, Size: b.size, ReplicaTiers: tiers})
	}
	return infos
}

// ApplyRelocation commits one replica move: a replica of blockID currently
// on source is re-homed to target. Fails if the block is unknown or no
// replica remains on source.
func (n *Namespace) ApplyRelocation(blockID types.BlockID, source, target types.StorageTier) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	b, ok := n.blocks[blockID]
	if !ok {
		return fmt.Errorf("block %s: %w", blockID, ErrPathNotFound)
	}
	for i, tier := range b.tiers {
		if tier == source {
			b.tiers[i] = target
			n.logger.Debug("replica relocated",
				zap.String("block", string(blockID)),
				zap.String("source", string(source)),
				zap.String("target", string(target)))
			return nil
		}
	}
	return fmt.Errorf("block %s %s->%s: %w", blockID, source, target, ErrNoReplicaOnTier)
}

func parentPath(path string) string {
	idx := strings.LastIndex(path, "/")
	if idx <= 0 {
		return "/"
	}
	return path[:idx]
}
