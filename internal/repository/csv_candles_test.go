package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCSVCandleSource(t *testing.T) {
	path := writeFile(t, "candles.csv",
		"timestamp,open,high,low,close,volume\n"+
			"2024-06-11T13:30:00Z,5000,5002,4999,5001,1200\n"+
			"1718112660,5001,5003,5000,5002,900\n")

	src, err := NewCSVCandleSource(path, "ES")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	ctx := context.Background()
	c, ok, err := src.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("first candle: ok=%v err=%v", ok, err)
	}
	if c.Symbol != "ES" || c.Open != 5000 || c.Volume != 1200 {
		t.Fatalf("unexpected candle %+v", c)
	}
	want := time.Date(2024, 6, 11, 13, 30, 0, 0, time.UTC)
	if !c.Timestamp.Equal(want) {
		t.Fatalf("timestamp %v, want %v", c.Timestamp, want)
	}

	c, ok, err = src.Next(ctx)
	if err != nil || !ok {
		t.Fatalf("second candle: ok=%v err=%v", ok, err)
	}
	if c.Timestamp.Unix() != 1718112660 {
		t.Fatalf("unix timestamp %v", c.Timestamp.Unix())
	}

	if _, ok, err = src.Next(ctx); ok || err != nil {
		t.Fatalf("expected clean EOF, ok=%v err=%v", ok, err)
	}
}

func TestCSVCandleSourceRejectsBadOHLC(t *testing.T) {
	path := writeFile(t, "bad.csv",
		"timestamp,open,high,low,close,volume\n"+
			"2024-06-11T13:30:00Z,5000,4999,5001,5000,100\n")

	src, err := NewCSVCandleSource(path, "ES")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer src.Close()

	if _, _, err := src.Next(context.Background()); err == nil {
		t.Fatal("expected validation error for high < low")
	}
}

func TestFileLevelSourceHoldsLastKnown(t *testing.T) {
	path := writeFile(t, "levels.json", `[
        {"timestamp":"2024-06-11T13:30:00Z","spot":5000,"regime":"positive","gamma_flip":4990,"call_wall":5050,"put_wall":4950,"resistance":[5030],"support":[4970]},
        {"timestamp":"2024-06-11T14:00:00Z","spot":5010,"regime":"negative","gamma_flip":4995,"call_wall":5060,"put_wall":4960,"resistance":[],"support":[]}
    ]`)

	src, err := NewFileLevelSource(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()

	// Before the first bucket: nothing to hold.
	snap, err := src.SnapshotAt(ctx, time.Date(2024, 6, 11, 13, 0, 0, 0, time.UTC))
	if err != nil || snap != nil {
		t.Fatalf("expected nil snapshot before first bucket, got %+v err=%v", snap, err)
	}

	// Inside a gap the previous snapshot holds.
	snap, err = src.SnapshotAt(ctx, time.Date(2024, 6, 11, 13, 52, 0, 0, time.UTC))
	if err != nil || snap == nil {
		t.Fatalf("snapshot: %+v err=%v", snap, err)
	}
	if snap.Regime != "positive" || snap.CallWall != 5050 {
		t.Fatalf("wrong snapshot held: %+v", snap)
	}

	// On and after the second bucket the newer one wins.
	snap, _ = src.SnapshotAt(ctx, time.Date(2024, 6, 11, 14, 5, 0, 0, time.UTC))
	if snap == nil || snap.Regime != "negative" {
		t.Fatalf("expected second snapshot, got %+v", snap)
	}
}
