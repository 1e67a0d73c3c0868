package repository

import (
	"context"
	"sync"
	"time"

	"SweepSim/internal/domain/models"
	xhttp "SweepSim/pkg/http"
	"SweepSim/pkg/util"
)

// HTTPLevelSource pulls options-level snapshots from a REST endpoint that
// serves one record per 15-minute bucket. At most one fetch happens per
// bucket; between buckets, and whenever the endpoint has nothing for the
// current bucket, the last known snapshot holds.
type HTTPLevelSource struct {
	client *xhttp.Client
	url    string

	mu      sync.Mutex
	bucket  time.Time
	fetched bool
	last    *models.LevelSnapshot
}

func NewHTTPLevelSource(url string, timeout time.Duration) *HTTPLevelSource {
	return &HTTPLevelSource{
		client: xhttp.NewClient(xhttp.WithTimeout(timeout)),
		url:    url,
	}
}

// SnapshotAt returns the snapshot in effect at ts. A fetch failure is treated
// as a missing bucket, not an error: the previous snapshot stays in force and
// the bucket is retried on its next rollover.
func (s *HTTPLevelSource) SnapshotAt(ctx context.Context, ts time.Time) (*models.LevelSnapshot, error) {
	bucket := util.Bucket15m(ts)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fetched && !bucket.After(s.bucket) {
		return s.last, nil
	}

	var snap models.LevelSnapshot
	err := s.client.DoJSON(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         s.url,
		QueryParams: map[string][]string{"bucket": {bucket.UTC().Format(time.RFC3339)}},
	}, &snap)
	s.bucket = bucket
	s.fetched = true
	if err != nil {
		return s.last, nil
	}

	if snap.Timestamp.IsZero() {
		snap.Timestamp = bucket
	}
	s.last = &snap
	return s.last, nil
}
