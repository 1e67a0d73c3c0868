package market

import (
	"testing"
	"time"

	"SweepSim/internal/domain/models"
)

func utc(y int, mo time.Month, d, h, m int) time.Time {
	return time.Date(y, mo, d, h, m, 0, 0, time.UTC)
}

func TestDSTBoundaries(t *testing.T) {
	// Spring forward: second Sunday of March 2024 at 07:00 UTC.
	if isEasternDST(utc(2024, time.March, 10, 6, 59)) {
		t.Fatal("06:59 UTC on transition day should still be EST")
	}
	if !isEasternDST(utc(2024, time.March, 10, 7, 0)) {
		t.Fatal("07:00 UTC on transition day should be EDT")
	}
	// Fall back: first Sunday of November 2024 at 06:00 UTC.
	if !isEasternDST(utc(2024, time.November, 3, 5, 59)) {
		t.Fatal("05:59 UTC on fall-back day should still be EDT")
	}
	if isEasternDST(utc(2024, time.November, 3, 6, 0)) {
		t.Fatal("06:00 UTC on fall-back day should be EST")
	}
	if isEasternDST(utc(2024, time.January, 15, 12, 0)) {
		t.Fatal("mid-January should be EST")
	}
	if !isEasternDST(utc(2024, time.July, 15, 12, 0)) {
		t.Fatal("mid-July should be EDT")
	}
}

func TestClassifySessions(t *testing.T) {
	cases := []struct {
		name   string
		ts     time.Time
		want   models.Session
		closed bool
	}{
		// Tuesday 2024-06-11, EDT (UTC-4).
		{"summer overnight late", utc(2024, time.June, 11, 22, 30), models.SessionOvernight, false},
		{"summer overnight early", utc(2024, time.June, 11, 7, 0), models.SessionOvernight, false},
		{"summer premarket", utc(2024, time.June, 11, 12, 30), models.SessionPremarket, false},
		{"summer rth open", utc(2024, time.June, 11, 13, 30), models.SessionRTH, false},
		{"summer rth last minute", utc(2024, time.June, 11, 19, 59), models.SessionRTH, false},
		{"summer afterhours", utc(2024, time.June, 11, 20, 30), models.SessionAfterhours, false},
		// Wednesday 2024-01-10, EST (UTC-5).
		{"winter rth open", utc(2024, time.January, 10, 14, 30), models.SessionRTH, false},
		{"winter premarket", utc(2024, time.January, 10, 13, 30), models.SessionPremarket, false},
		// Weekend window: Fri 17:00 ET through Sun 18:00 ET.
		{"friday after close", utc(2024, time.June, 14, 21, 30), models.SessionOvernight, true},
		{"saturday", utc(2024, time.June, 15, 15, 0), models.SessionOvernight, true},
		{"sunday before reopen", utc(2024, time.June, 16, 21, 0), models.SessionOvernight, true},
		{"sunday reopen", utc(2024, time.June, 16, 22, 30), models.SessionOvernight, false},
	}
	for _, tc := range cases {
		got := Classify(tc.ts)
		if got.Session != tc.want {
			t.Errorf("%s: session = %s, want %s", tc.name, got.Session, tc.want)
		}
		if got.MarketClosed != tc.closed {
			t.Errorf("%s: closed = %v, want %v", tc.name, got.MarketClosed, tc.closed)
		}
	}
}

func TestClassifyDSTFlag(t *testing.T) {
	if info := Classify(utc(2024, time.June, 11, 14, 0)); !info.IsDST {
		t.Fatal("June should report DST")
	}
	if info := Classify(utc(2024, time.January, 10, 14, 0)); info.IsDST {
		t.Fatal("January should not report DST")
	}
}

func TestTradingDateRollsAt18ET(t *testing.T) {
	// Monday 2024-06-10 19:00 ET belongs to Tuesday's session.
	got := TradingDate(utc(2024, time.June, 10, 23, 0))
	want := time.Date(2024, time.June, 11, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("trading date = %v, want %v", got, want)
	}
	// Monday 14:00 ET stays on Monday.
	got = TradingDate(utc(2024, time.June, 10, 18, 0))
	want = time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("trading date = %v, want %v", got, want)
	}
}
