package simconfig

import (
	"os"
	"testing"
)

func TestDefaultGridAndHistoryArePositive(t *testing.T) {
	cfg := Default()
	if cfg.Grid.Width == 0 || cfg.Grid.Height == 0 {
		t.Fatalf("Default() grid dimensions must be nonzero, got %+v", cfg.Grid)
	}
	if cfg.History.Capacity <= 0 {
		t.Fatalf("Default() history capacity must be positive, got %d", cfg.History.Capacity)
	}
}

func TestFromEnvOverridesGridWidth(t *testing.T) {
	t.Setenv("SIMSERVER_GRID_WIDTH", "128")
	t.Setenv("SIMSERVER_GRID_HEIGHT", "96")
	cfg := FromEnv(Default())
	if cfg.Grid.Width != 128 || cfg.Grid.Height != 96 {
		t.Fatalf("FromEnv() grid = %+v, want 128x96", cfg.Grid)
	}
}

func TestFromEnvLeavesUnsetFieldsAtDefault(t *testing.T) {
	base := Default()
	cfg := FromEnv(base)
	if cfg.Network.SnapshotAddr != base.Network.SnapshotAddr {
		t.Fatalf("FromEnv() changed SnapshotAddr without an env var set")
	}
}

func TestLoadPhaseTuningMissingPathReturnsFalse(t *testing.T) {
	os.Unsetenv("SIMSERVER_PHASE_CONFIG_PATH")
	if _, ok := LoadPhaseTuning(); ok {
		t.Fatalf("LoadPhaseTuning() ok=true with no path set")
	}
}

func TestLoadPhaseTuningAppliesPartialOverride(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/phase.json"
	if err := os.WriteFile(path, []byte(`{"logistics_gain": 0.75}`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SIMSERVER_PHASE_CONFIG_PATH", path)

	cfg, ok := LoadPhaseTuning()
	if !ok {
		t.Fatalf("LoadPhaseTuning() ok=false for a valid file")
	}
	want := DefaultPhase()
	if cfg.LogisticsGain.ToFloat32() != 0.75 {
		t.Errorf("LogisticsGain = %v, want 0.75", cfg.LogisticsGain.ToFloat32())
	}
	if cfg.PopulationGrowth != want.PopulationGrowth {
		t.Errorf("PopulationGrowth should stay at default when absent from file")
	}
}

func TestLoadPhaseTuningInvalidJSONKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/bad.json"
	if err := os.WriteFile(path, []byte(`not json`), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SIMSERVER_PHASE_CONFIG_PATH", path)

	if _, ok := LoadPhaseTuning(); ok {
		t.Fatalf("LoadPhaseTuning() ok=true for malformed JSON")
	}
}
