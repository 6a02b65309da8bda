package main

import (
	"encoding/json"
	"fmt"
	"os"

	"tiermover/pkg/namespace"
	"tiermover/pkg/types"
)

// Layout describes the namespace a move run is seeded with. Directories
// are created in order, so parents must appear before children.
type Layout struct {
	Directories []string     `json:"directories"`
	Files       []LayoutFile `json:"files"`
}

type LayoutFile struct {
	Path        string            `json:"path"`
	Size        int64             `json:"size"`
	Replication int               `json:"replication"`
	Tier        types.StorageTier `json:"tier"`
}

func seedLayout(ns *namespace.Namespace, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read layout file: %w", err)
	}

	var layout Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		return fmt.Errorf("failed to parse layout: %w", err)
	}

	for _, dir := range layout.Directories {
		if err := ns.Mkdir(dir); err != nil {
			return fmt.Errorf("layout directory %s: %w", dir, err)
		}
	}
	for _, f := range layout.Files {
		replication := f.Replication
		if replication == 0 {
			replication = 3
		}
		tier := f.Tier
		if tier == "" {
			tier = types.TierDisk
		}
		if err := ns.CreateFile(f.Path, f.Size, replication, tier); err != nil {
			return fmt.Errorf("layout file %s: %w", f.Path, err)
		}
	}
	return nil
}
