package storage

import (
	"context"
	"fmt"
	"io"
	"log"

	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/archlens/targetview/internal/types"
)

// LoadSnapshot reads lenses, items and relationships concurrently and
// returns them as one snapshot. Any backend failure is returned before the
// snapshot reaches the view core.
func LoadSnapshot(ctx context.Context, store Storage) (types.Snapshot, error) {
	var snap types.Snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		lenses, err := store.ListLenses(gctx)
		if err != nil {
			return fmt.Errorf("failed to load lenses: %w", err)
		}
		snap.Lenses = lenses
		return nil
	})
	g.Go(func() error {
		items, err := store.ListItems(gctx, types.ItemFilter{})
		if err != nil {
			return fmt.Errorf("failed to load items: %w", err)
		}
		snap.Items = items
		return nil
	})
	g.Go(func() error {
		rels, err := store.ListRelationships(gctx)
		if err != nil {
			return fmt.Errorf("failed to load relationships: %w", err)
		}
		snap.Relationships = rels
		return nil
	})

	if err := g.Wait(); err != nil {
		return types.Snapshot{}, err
	}
	return snap, nil
}

// SnapshotFormatVersion is written to exported snapshot files
const SnapshotFormatVersion = "v1.0.0"

// SnapshotFile is the YAML document produced by export and read by import.
// Version 0 files carry relationship statuses in the item lifecycle
// vocabulary and are migrated on read.
type SnapshotFile struct {
	Version       string               `yaml:"version"`
	Lenses        []types.Lens         `yaml:"lenses"`
	Items         []types.Item         `yaml:"items"`
	Relationships []types.Relationship `yaml:"relationships"`
}

// WriteSnapshotFile encodes snap as a versioned YAML document
func WriteSnapshotFile(w io.Writer, snap types.Snapshot) error {
	doc := SnapshotFile{
		Version:       SnapshotFormatVersion,
		Lenses:        snap.Lenses,
		Items:         snap.Items,
		Relationships: snap.Relationships,
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return enc.Close()
}

// ReadSnapshotFile decodes a YAML snapshot. Files without a version are
// treated as v1. Major version 0 files get their relationship statuses
// migrated; newer majors are rejected.
func ReadSnapshotFile(r io.Reader) (types.Snapshot, error) {
	var doc SnapshotFile
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return types.Snapshot{}, nil
		}
		return types.Snapshot{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}

	version := doc.Version
	if version == "" {
		version = SnapshotFormatVersion
	}
	if !semver.IsValid(version) {
		return types.Snapshot{}, fmt.Errorf("invalid snapshot version %q", doc.Version)
	}

	switch semver.Major(version) {
	case "v0":
		for i := range doc.Relationships {
			doc.Relationships[i].LifecycleStatus = types.MigrateRelationshipStatus(string(doc.Relationships[i].LifecycleStatus))
		}
		log.Printf("[DEBUG] migrated %d relationship statuses from snapshot %s", len(doc.Relationships), version)
	case semver.Major(SnapshotFormatVersion):
	default:
		return types.Snapshot{}, fmt.Errorf("unsupported snapshot version %s (this build reads up to %s)",
			version, semver.Major(SnapshotFormatVersion))
	}

	return types.Snapshot{
		Lenses:        doc.Lenses,
		Items:         doc.Items,
		Relationships: doc.Relationships,
	}, nil
}

// ImportStats counts what ImportSnapshot created and skipped
type ImportStats struct {
	Lenses        int
	Items         int
	Relationships int
	Skipped       int
}

// ImportSnapshot writes snap into store. Lenses and items that already
// exist (same key, or same lens and name) are reused; relationships whose
// endpoints are unknown are skipped with a warning. Item IDs from the file
// are kept so relationships can reference them.
func ImportSnapshot(ctx context.Context, store Storage, snap types.Snapshot) (ImportStats, error) {
	var stats ImportStats

	existing, err := store.ListLenses(ctx)
	if err != nil {
		return stats, err
	}
	known := make(map[types.LensKey]bool, len(existing))
	for _, l := range existing {
		known[l.Key] = true
	}
	for _, l := range snap.Lenses {
		if known[l.Key] {
			continue
		}
		lens := l
		if err := store.CreateLens(ctx, &lens); err != nil {
			return stats, fmt.Errorf("failed to import lens %s: %w", l.Key, err)
		}
		known[l.Key] = true
		stats.Lenses++
	}

	// File ids map to stored ids; they differ when the item already existed
	ids := make(map[string]string, len(snap.Items))
	for _, it := range snap.Items {
		found, err := store.FindItem(ctx, it.Lens, it.Name)
		if err != nil {
			return stats, err
		}
		if found != nil {
			ids[it.ID] = found.ID
			stats.Skipped++
			continue
		}
		item := it
		if err := store.CreateItem(ctx, &item); err != nil {
			return stats, fmt.Errorf("failed to import item %q: %w", it.Name, err)
		}
		if it.ID != "" {
			ids[it.ID] = item.ID
		}
		stats.Items++
	}

	for _, r := range snap.Relationships {
		from, okFrom := ids[r.FromItemID]
		to, okTo := ids[r.ToItemID]
		if !okFrom || !okTo {
			log.Printf("[WARN] skipping relationship %s: unknown endpoint", r.ID)
			stats.Skipped++
			continue
		}
		rel := types.Relationship{
			FromItemID:      from,
			ToItemID:        to,
			LifecycleStatus: r.LifecycleStatus,
		}
		if err := store.CreateRelationship(ctx, &rel); err != nil {
			log.Printf("[WARN] skipping relationship %s: %v", r.ID, err)
			stats.Skipped++
			continue
		}
		stats.Relationships++
	}

	return stats, nil
}
