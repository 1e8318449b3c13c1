package lode

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/justapithecus/lode/lode"
)

// Filter narrows a history query. Zero fields match everything.
type Filter struct {
	Board   string
	Day     string
	Outcome string
	// Source matches a substring of the source file name.
	Source string
	// Limit caps the result count. Zero means no cap.
	Limit int
}

func (f Filter) match(r SessionRecord) bool {
	if f.Board != "" && !strings.EqualFold(r.Board, f.Board) {
		return false
	}
	if f.Day != "" && DeriveDay(r.StartedAt) != f.Day {
		return false
	}
	if f.Outcome != "" && r.Outcome != f.Outcome {
		return false
	}
	if f.Source != "" && !strings.Contains(strings.ToLower(r.Source), strings.ToLower(f.Source)) {
		return false
	}
	return true
}

// NewReadDataset opens the session dataset for reading.
// Uses the same codec and layout as the write path.
func NewReadDataset(dataset string, factory lode.StoreFactory) (lode.Dataset, error) {
	if dataset == "" {
		dataset = DefaultDataset
	}
	ds, err := newDataset(dataset, factory)
	if err != nil {
		return nil, WrapInitError(err, dataset)
	}
	return ds, nil
}

// NewReadDatasetFS opens a read dataset with filesystem storage.
func NewReadDatasetFS(dataset, root string) (lode.Dataset, error) {
	return NewReadDataset(dataset, lode.NewFSFactory(root))
}

// QuerySessions returns archived sessions matching f, newest first.
func QuerySessions(ctx context.Context, ds lode.Dataset, f Filter) ([]SessionRecord, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return nil, WrapReadError(err, string(ds.ID())+"/snapshots")
	}

	seen := make(map[string]struct{})
	var out []SessionRecord
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]
		if !snapshotMatchesFilter(snap, "board", f.Board) || !snapshotMatchesFilter(snap, "day", f.Day) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return nil, WrapReadError(err, fmt.Sprintf("%s/snapshot/%s", ds.ID(), snap.ID))
		}
		// Manifest paths are a coarse pre-filter; record fields decide.
		for _, item := range data {
			m, ok := item.(map[string]any)
			if !ok {
				continue
			}
			rec, ok := fromRecordMap(m)
			if !ok || !f.match(rec) {
				continue
			}
			if _, dup := seen[rec.SessionID]; dup {
				continue
			}
			seen[rec.SessionID] = struct{}{}
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// snapshotMatchesFilter checks if a snapshot's file paths match
// the given partition key=value filter, ignoring case.
func snapshotMatchesFilter(snap *lode.DatasetSnapshot, key, value string) bool {
	if value == "" {
		return true
	}
	for _, f := range snap.Manifest.Files {
		if matchesPartitionValue(f.Path, key, value) {
			return true
		}
	}
	return false
}

// matchesPartitionValue checks if a Hive-partitioned path contains an exact
// key=value segment. This avoids substring false positives (e.g.,
// session_id=a1 matching session_id=a10).
func matchesPartitionValue(path, key, value string) bool {
	segment := strings.ToLower(key + "=" + value)
	for _, part := range strings.Split(path, "/") {
		if strings.ToLower(part) == segment {
			return true
		}
	}
	return false
}
