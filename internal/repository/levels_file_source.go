package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"SweepSim/internal/domain/models"
	"SweepSim/pkg/util"
)

// FileLevelSource serves options-level snapshots from a JSON file: an array
// of snapshots keyed by timestamp. Snapshots land on 15-minute buckets; a
// lookup between buckets returns the last known snapshot, never an
// interpolation. Before the first snapshot there is nothing to hold, so the
// lookup returns nil.
type FileLevelSource struct {
	snaps []models.LevelSnapshot
}

func NewFileLevelSource(path string) (*FileLevelSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read levels file: %w", err)
	}
	var snaps []models.LevelSnapshot
	if err := json.Unmarshal(raw, &snaps); err != nil {
		return nil, fmt.Errorf("parse levels file: %w", err)
	}
	for i := range snaps {
		snaps[i].Timestamp = util.Bucket15m(snaps[i].Timestamp)
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].Timestamp.Before(snaps[j].Timestamp) })
	return &FileLevelSource{snaps: snaps}, nil
}

// SnapshotAt returns the snapshot in effect at ts: the latest one whose
// bucket does not exceed ts's bucket.
func (s *FileLevelSource) SnapshotAt(ctx context.Context, ts time.Time) (*models.LevelSnapshot, error) {
	if len(s.snaps) == 0 {
		return nil, nil
	}
	bucket := util.Bucket15m(ts)
	i := sort.Search(len(s.snaps), func(i int) bool {
		return s.snaps[i].Timestamp.After(bucket)
	})
	if i == 0 {
		return nil, nil
	}
	snap := s.snaps[i-1]
	return &snap, nil
}
