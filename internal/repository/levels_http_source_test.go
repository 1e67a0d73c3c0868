package repository

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPLevelSourceFetchesOncePerBucket(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if r.URL.Query().Get("bucket") == "" {
			t.Error("missing bucket query parameter")
		}
		fmt.Fprint(w, `{"timestamp":"2024-06-11T13:30:00Z","regime":"positive","gamma_flip":4990,"call_wall":5050,"put_wall":4950}`)
	}))
	defer srv.Close()

	src := NewHTTPLevelSource(srv.URL, time.Second)
	ctx := context.Background()

	snap, err := src.SnapshotAt(ctx, time.Date(2024, 6, 11, 13, 31, 0, 0, time.UTC))
	if err != nil || snap == nil {
		t.Fatalf("snapshot: %+v err=%v", snap, err)
	}
	if snap.Regime != "positive" || snap.CallWall != 5050 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}

	// Same bucket: served from the held snapshot, no second request.
	if _, err := src.SnapshotAt(ctx, time.Date(2024, 6, 11, 13, 44, 0, 0, time.UTC)); err != nil {
		t.Fatalf("second lookup: %v", err)
	}
	if requests != 1 {
		t.Fatalf("requests = %d, want 1", requests)
	}

	// Next bucket rolls over and fetches again.
	if _, err := src.SnapshotAt(ctx, time.Date(2024, 6, 11, 13, 45, 0, 0, time.UTC)); err != nil {
		t.Fatalf("third lookup: %v", err)
	}
	if requests != 2 {
		t.Fatalf("requests = %d, want 2", requests)
	}
}

func TestHTTPLevelSourceHoldsLastOnError(t *testing.T) {
	var fail bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail {
			http.Error(w, "unavailable", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"timestamp":"2024-06-11T13:30:00Z","regime":"negative","gamma_flip":4995}`)
	}))
	defer srv.Close()

	src := NewHTTPLevelSource(srv.URL, time.Second)
	ctx := context.Background()

	snap, err := src.SnapshotAt(ctx, time.Date(2024, 6, 11, 13, 31, 0, 0, time.UTC))
	if err != nil || snap == nil || snap.Regime != "negative" {
		t.Fatalf("snapshot: %+v err=%v", snap, err)
	}

	// The endpoint goes away: the next bucket holds the last known values.
	fail = true
	snap, err = src.SnapshotAt(ctx, time.Date(2024, 6, 11, 13, 46, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("lookup during outage: %v", err)
	}
	if snap == nil || snap.Regime != "negative" {
		t.Fatalf("expected held snapshot, got %+v", snap)
	}
}
