package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const baseYAML = `
environment: test
mode: replay
replay:
  csv_path: data/es_1m.csv
  symbol: ES
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	c, err := Load(writeConfig(t, baseYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8080 {
		t.Fatalf("server.port = %d, want 8080", c.Server.Port)
	}
	if c.Detectors.Sweep.VolumeZ != 2.5 {
		t.Fatalf("sweep volume_z = %v, want 2.5", c.Detectors.Sweep.VolumeZ)
	}
	if c.Strategy.TargetRMultiple != 1.5 {
		t.Fatalf("target_r_multiple = %v, want 1.5", c.Strategy.TargetRMultiple)
	}
	if c.Simulator.PendingTTLBars != 3 {
		t.Fatalf("pending_ttl_bars = %d, want 3", c.Simulator.PendingTTLBars)
	}
}

func TestLoadFailsFastOnBadTunables(t *testing.T) {
	cases := []struct {
		name    string
		extra   string
		wantErr string
	}{
		{
			name:    "negative level tolerance",
			extra:   "detectors:\n  sweep:\n    level_tolerance: -1\n",
			wantErr: "detectors.sweep",
		},
		{
			name:    "negative velocity z",
			extra:   "detectors:\n  burst:\n    velocity_z: -2\n",
			wantErr: "detectors.burst",
		},
		{
			name:    "confidence above one",
			extra:   "strategy:\n  min_confidence: 1.5\n",
			wantErr: "strategy",
		},
		{
			name:    "negative slippage",
			extra:   "simulator:\n  slippage_points: -0.25\n",
			wantErr: "simulator",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, baseYAML+tc.extra))
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("error %q does not mention %q", err, tc.wantErr)
			}
		})
	}
}

func TestLoadRejectsConflictingLevelSources(t *testing.T) {
	extra := "levels:\n  path: data/levels.json\n  url: http://localhost:9100/levels\n"
	if _, err := Load(writeConfig(t, baseYAML+extra)); err == nil {
		t.Fatal("expected error for both levels.path and levels.url")
	}
}
