package database

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"nfl-pool/logging"

	"go.mongodb.org/mongo-driver/bson"
)

const (
	snapshotPrefix    = "snapshot_"
	snapshotLayout    = "2006-01-02_15-04-05"
	restoreBatchSize  = 1000
	snapshotMetaFile  = "metadata.json"
	snapshotExtension = ".jsonl"
)

// SnapshotCollections are the collections the recap engine owns. Picks belong
// to the picking UI and are never restored from here.
var SnapshotCollections = []string{"week_recaps", "pool_settings", "participants"}

// SnapshotInfo describes a snapshot directory
type SnapshotInfo struct {
	Name        string         `json:"name"`
	CreatedAt   time.Time      `json:"created_at"`
	Collections map[string]int `json:"collections"` // document counts
}

// Snapshotter writes and restores collection snapshots as extended JSON lines,
// one directory per snapshot
type Snapshotter struct {
	db     *MongoDB
	dir    string
	logger *logging.Logger
}

// NewSnapshotter creates a snapshotter rooted at dir
func NewSnapshotter(db *MongoDB, dir string) *Snapshotter {
	return &Snapshotter{db: db, dir: dir, logger: logging.WithPrefix("Snapshot")}
}

// Create writes every snapshot collection to a new timestamped directory
func (s *Snapshotter) Create(ctx context.Context, now time.Time) (*SnapshotInfo, error) {
	info := &SnapshotInfo{
		Name:        snapshotPrefix + now.UTC().Format(snapshotLayout),
		CreatedAt:   now.UTC(),
		Collections: make(map[string]int),
	}
	path := filepath.Join(s.dir, info.Name)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	for _, name := range SnapshotCollections {
		n, err := s.dumpCollection(ctx, name, filepath.Join(path, name+snapshotExtension))
		if err != nil {
			return nil, fmt.Errorf("failed to snapshot %s: %w", name, err)
		}
		info.Collections[name] = n
		s.logger.Infof("Wrote %d documents from %s", n, name)
	}

	if err := writeSnapshotInfo(path, info); err != nil {
		return nil, err
	}
	return info, nil
}

func (s *Snapshotter) dumpCollection(ctx context.Context, name, file string) (int, error) {
	ctx, cancel := WithLongTimeout(ctx)
	defer cancel()

	cursor, err := s.db.GetCollection(name).Find(ctx, bson.M{})
	if err != nil {
		return 0, err
	}
	defer cursor.Close(ctx)

	f, err := os.Create(file)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	w := bufio.NewWriter(f)

	count := 0
	for cursor.Next(ctx) {
		line, err := bson.MarshalExtJSON(cursor.Current, true, false)
		if err != nil {
			return count, fmt.Errorf("failed to encode document: %w", err)
		}
		w.Write(line)
		w.WriteByte('\n')
		count++
	}
	if err := cursor.Err(); err != nil {
		return count, err
	}
	return count, w.Flush()
}

// Restore replaces the snapshot collections with the contents of a snapshot
func (s *Snapshotter) Restore(ctx context.Context, name string) error {
	path := filepath.Join(s.dir, name)
	if _, err := readSnapshotInfo(path); err != nil {
		return fmt.Errorf("snapshot %s is unusable: %w", name, err)
	}

	for _, coll := range SnapshotCollections {
		docs, err := readExtJSONLines(filepath.Join(path, coll+snapshotExtension))
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", coll, err)
		}
		if err := s.replaceCollection(ctx, coll, docs); err != nil {
			return fmt.Errorf("failed to restore %s: %w", coll, err)
		}
		s.logger.Infof("Restored %d documents to %s", len(docs), coll)
	}
	return nil
}

func (s *Snapshotter) replaceCollection(ctx context.Context, name string, docs []interface{}) error {
	ctx, cancel := WithLongTimeout(ctx)
	defer cancel()

	coll := s.db.GetCollection(name)
	s.logger.Warnf("Clearing %s before restore", name)
	if _, err := coll.DeleteMany(ctx, bson.M{}); err != nil {
		return err
	}
	for start := 0; start < len(docs); start += restoreBatchSize {
		end := min(start+restoreBatchSize, len(docs))
		if _, err := coll.InsertMany(ctx, docs[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func readExtJSONLines(file string) ([]interface{}, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []interface{}
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if trimmed := strings.TrimSpace(string(line)); trimmed != "" {
			var doc bson.D
			if uerr := bson.UnmarshalExtJSON([]byte(trimmed), true, &doc); uerr != nil {
				return nil, fmt.Errorf("failed to decode document: %w", uerr)
			}
			docs = append(docs, doc)
		}
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

// ListSnapshots reads snapshot metadata under dir, newest first
func ListSnapshots(dir string) ([]SnapshotInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot directory: %w", err)
	}

	var snapshots []SnapshotInfo
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), snapshotPrefix) {
			continue
		}
		info, err := readSnapshotInfo(filepath.Join(dir, entry.Name()))
		if err != nil {
			logging.WithPrefix("Snapshot").Warnf("Skipping %s: %v", entry.Name(), err)
			continue
		}
		snapshots = append(snapshots, *info)
	}
	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].CreatedAt.After(snapshots[j].CreatedAt)
	})
	return snapshots, nil
}

// PruneSnapshots removes snapshots older than retention and returns their names
func PruneSnapshots(dir string, retention time.Duration, now time.Time) ([]string, error) {
	snapshots, err := ListSnapshots(dir)
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, snap := range snapshots {
		if now.Sub(snap.CreatedAt) <= retention {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, snap.Name)); err != nil {
			return removed, fmt.Errorf("failed to remove %s: %w", snap.Name, err)
		}
		removed = append(removed, snap.Name)
	}
	return removed, nil
}

func writeSnapshotInfo(path string, info *SnapshotInfo) error {
	f, err := os.Create(filepath.Join(path, snapshotMetaFile))
	if err != nil {
		return fmt.Errorf("failed to write snapshot metadata: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func readSnapshotInfo(path string) (*SnapshotInfo, error) {
	data, err := os.ReadFile(filepath.Join(path, snapshotMetaFile))
	if err != nil {
		return nil, err
	}
	var info SnapshotInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, fmt.Errorf("bad snapshot metadata: %w", err)
	}
	return &info, nil
}
