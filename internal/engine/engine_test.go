package engine

import (
	"testing"

	"holdfast/internal/command"
	"holdfast/internal/simconfig"
	"holdfast/internal/wire"
	"holdfast/internal/world"
)

func testConfig() simconfig.Config {
	cfg := simconfig.Default()
	cfg.Grid = simconfig.GridConfig{Width: 3, Height: 3}
	cfg.History.Capacity = 32
	return cfg
}

func TestTwoFreshEnginesProduceIdenticalSnapshotsAfterSameTicks(t *testing.T) {
	a := New(testConfig())
	b := New(testConfig())

	a.RunTick(12)
	b.RunTick(12)

	la, lb := a.Latest(), b.Latest()
	if la.Snapshot.Header.Hash != lb.Snapshot.Header.Hash {
		t.Fatalf("hashes diverged after identical runs: %d vs %d", la.Snapshot.Header.Hash, lb.Snapshot.Header.Hash)
	}
	if la.Snapshot.Header.AxisBias != lb.Snapshot.Header.AxisBias {
		t.Fatalf("axis bias diverged after identical runs: %v vs %v", la.Snapshot.Header.AxisBias, lb.Snapshot.Header.AxisBias)
	}
}

func TestRunTickAdvancesTickAndHistory(t *testing.T) {
	e := New(testConfig())
	if e.Tick() != 0 {
		t.Fatalf("fresh engine tick = %d, want 0", e.Tick())
	}
	e.RunTick(5)
	if e.Tick() != 5 {
		t.Fatalf("tick = %d, want 5", e.Tick())
	}
	if e.Latest().Tick != 5 {
		t.Fatalf("latest history entry tick = %d, want 5", e.Latest().Tick)
	}
}

func TestRollbackRestoresHashAndTick(t *testing.T) {
	e := New(testConfig())
	e.RunTick(5)
	atFive := e.Latest().Snapshot.Header.Hash

	e.RunTick(5)
	if e.Tick() != 10 {
		t.Fatalf("tick = %d, want 10", e.Tick())
	}

	if err := e.Rollback(5); err != nil {
		t.Fatalf("Rollback(5): %v", err)
	}
	if e.Tick() != 5 {
		t.Fatalf("tick after rollback = %d, want 5", e.Tick())
	}
	if e.Latest().Snapshot.Header.Hash != atFive {
		t.Fatalf("hash after rollback = %d, want %d", e.Latest().Snapshot.Header.Hash, atFive)
	}
}

func TestRollbackToUnknownTickIsRejected(t *testing.T) {
	e := New(testConfig())
	e.RunTick(3)
	if err := e.Rollback(999); err == nil {
		t.Fatalf("expected rollback to an unheld tick to fail")
	}
	if e.Tick() != 3 {
		t.Fatalf("tick should be unchanged after a rejected rollback, got %d", e.Tick())
	}
}

func TestApplyCommandTurnAdvancesTicks(t *testing.T) {
	e := New(testConfig())
	ok := e.ApplyCommand(command.Command{Kind: command.KindTurn, Steps: 4})
	if !ok {
		t.Fatalf("turn command rejected")
	}
	if e.Tick() != 4 {
		t.Fatalf("tick = %d, want 4", e.Tick())
	}
}

func TestApplyCommandHeatUnknownTileRejected(t *testing.T) {
	e := New(testConfig())
	ok := e.ApplyCommand(command.Command{Kind: command.KindHeat, Entity: 999999, Delta: 100})
	if ok {
		t.Fatalf("expected heat command against an unknown tile to be rejected")
	}
}

func TestApplyCommandAxisBiasOutOfRangeRejected(t *testing.T) {
	e := New(testConfig())
	ok := e.ApplyCommand(command.Command{Kind: command.KindAxisBias, Axis: wire.AxisCount, Value: 1})
	if ok {
		t.Fatalf("expected out-of-range axis to be rejected")
	}
}

func TestApplyCommandAxisBiasShiftsFutureSnapshots(t *testing.T) {
	e := New(testConfig())
	before := e.Latest().Snapshot.Header.AxisBias[AxisAmbientTemperature]

	ok := e.ApplyCommand(command.Command{Kind: command.KindAxisBias, Axis: uint32(AxisAmbientTemperature), Value: 3.5})
	if !ok {
		t.Fatalf("bias command rejected")
	}
	e.RunTick(1)

	after := e.Latest().Snapshot.Header.AxisBias[AxisAmbientTemperature]
	if after == before {
		t.Fatalf("axis bias did not change after a bias command: before=%d after=%d", before, after)
	}
}

func TestDrainAndApplyStopsAtRollback(t *testing.T) {
	e := New(testConfig())
	e.RunTick(3)

	queue := make(chan command.Command, 4)
	queue <- command.Command{Kind: command.KindTurn, Steps: 1}
	queue <- command.Command{Kind: command.KindRollback, Tick: 3}
	queue <- command.Command{Kind: command.KindTurn, Steps: 10}
	close(queue)

	e.DrainAndApply(queue)

	if e.Tick() != 3 {
		t.Fatalf("tick after rollback-truncated batch = %d, want 3 (trailing turn command must be dropped)", e.Tick())
	}
}

func TestSpawnDefaultWorldBuildsConnectedGrid(t *testing.T) {
	w := world.New()
	grid := simconfig.GridConfig{Width: 2, Height: 2}
	SpawnDefaultWorld(w, grid, simconfig.DefaultPhase())

	if got, want := len(w.TileIDs()), 4; got != want {
		t.Fatalf("tile count = %d, want %d", got, want)
	}
	if got, want := len(w.PopulationIDs()), 4; got != want {
		t.Fatalf("population count = %d, want %d", got, want)
	}
	if got, want := len(w.LinkIDs()), 4; got != want {
		t.Fatalf("link count = %d, want %d (2x2 grid: 2 horizontal + 2 vertical edges)", got, want)
	}
	for _, id := range w.TileIDs() {
		if w.Power(id) == nil {
			t.Fatalf("tile %d missing an attached power node", id)
		}
	}
}
