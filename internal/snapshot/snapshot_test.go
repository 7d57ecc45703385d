package snapshot

import (
	"testing"

	"holdfast/internal/fixedpoint"
	"holdfast/internal/wire"
	"holdfast/internal/world"
)

func buildSampleWorld() *world.World {
	w := world.New()
	a := w.SpawnTile(world.Tile{X: 0, Y: 0, Element: world.Ferrite, Mass: fixedpoint.FromInt(10)})
	b := w.SpawnTile(world.Tile{X: 1, Y: 0, Element: world.Zephyrite, Mass: fixedpoint.FromInt(5)})
	w.SpawnLink(world.LogisticsLink{From: a, To: b, Capacity: fixedpoint.FromInt(100)})
	w.SpawnPopulation(world.PopulationCohort{Home: a, Size: 20, Morale: fixedpoint.One})
	w.AttachPower(a, world.PowerNode{Generation: fixedpoint.FromInt(1)})
	return w
}

func TestBuildProducesSortedAscendingStreams(t *testing.T) {
	w := buildSampleWorld()
	snap := Build(w, 1, [wire.AxisCount]int64{})

	if len(snap.Tiles) != 2 || len(snap.Logistics) != 1 || len(snap.Populations) != 1 || len(snap.Power) != 1 {
		t.Fatalf("unexpected stream sizes: %+v", snap.Header)
	}
	for i := 1; i < len(snap.Tiles); i++ {
		if snap.Tiles[i].Entity <= snap.Tiles[i-1].Entity {
			t.Fatalf("tiles not ascending by entity id: %+v", snap.Tiles)
		}
	}
	if snap.Header.Hash == 0 {
		t.Fatalf("Build did not finalize a hash")
	}
}

func TestDiffReportsOnlyChangedAndRemoved(t *testing.T) {
	w := buildSampleWorld()
	first := Build(w, 1, [wire.AxisCount]int64{})

	// mutate one tile, remove nothing yet
	w.Tile(world.Entity(1)).Mass = fixedpoint.FromInt(999)
	second := Build(w, 2, [wire.AxisCount]int64{})

	delta := Diff(first, second)
	if len(delta.Tiles) != 1 || delta.Tiles[0].Entity != 1 {
		t.Fatalf("expected exactly tile 1 changed, got %+v", delta.Tiles)
	}
	if len(delta.RemovedTiles) != 0 {
		t.Fatalf("expected no removed tiles, got %v", delta.RemovedTiles)
	}
}

func TestDiffAgainstNilPreviousReportsEverythingUpserted(t *testing.T) {
	w := buildSampleWorld()
	snap := Build(w, 1, [wire.AxisCount]int64{})
	delta := Diff(nil, snap)
	if len(delta.Tiles) != len(snap.Tiles) {
		t.Fatalf("expected every tile upserted against nil previous")
	}
}

func TestHistoryUpdateEntryAndPrune(t *testing.T) {
	h := NewHistory(2)
	w := buildSampleWorld()

	h.Update(Build(w, 1, [wire.AxisCount]int64{}))
	h.Update(Build(w, 2, [wire.AxisCount]int64{}))
	h.Update(Build(w, 3, [wire.AxisCount]int64{}))

	if h.Len() != 2 {
		t.Fatalf("history len = %d, want 2 after pruning to capacity", h.Len())
	}
	if _, ok := h.Entry(1); ok {
		t.Fatalf("tick 1 should have been pruned")
	}
	if _, ok := h.Entry(3); !ok {
		t.Fatalf("tick 3 should still be present")
	}
}

func TestHistoryResetToEntryTruncatesForwardTicks(t *testing.T) {
	h := NewHistory(10)
	w := buildSampleWorld()
	h.Update(Build(w, 1, [wire.AxisCount]int64{}))
	h.Update(Build(w, 2, [wire.AxisCount]int64{}))
	h.Update(Build(w, 3, [wire.AxisCount]int64{}))

	entry, err := h.ResetToEntry(2)
	if err != nil {
		t.Fatalf("ResetToEntry: %v", err)
	}
	if entry.Tick != 2 {
		t.Fatalf("ResetToEntry returned tick %d, want 2", entry.Tick)
	}
	if h.Len() != 2 {
		t.Fatalf("history len = %d after reset, want 2", h.Len())
	}
	if _, ok := h.Entry(3); ok {
		t.Fatalf("tick 3 should have been truncated by ResetToEntry(2)")
	}
}

func TestHistoryResetToEntryUnknownTickErrors(t *testing.T) {
	h := NewHistory(10)
	if _, err := h.ResetToEntry(42); err == nil {
		t.Fatalf("expected error resetting to an unknown tick")
	}
}

func TestRestoreFromSnapshotRebuildsWorld(t *testing.T) {
	w := buildSampleWorld()
	snap := Build(w, 5, [wire.AxisCount]int64{})

	fresh := world.New()
	RestoreFromSnapshot(fresh, snap)

	restored := Build(fresh, 5, [wire.AxisCount]int64{})
	if len(restored.Tiles) != len(snap.Tiles) {
		t.Fatalf("restored tile count = %d, want %d", len(restored.Tiles), len(snap.Tiles))
	}
	if len(restored.Logistics) != len(snap.Logistics) {
		t.Fatalf("restored link count = %d, want %d", len(restored.Logistics), len(snap.Logistics))
	}
	if len(restored.Power) != len(snap.Power) {
		t.Fatalf("restored power count = %d, want %d", len(restored.Power), len(snap.Power))
	}
}

func TestRestoreSkipsDanglingLinksAndCohorts(t *testing.T) {
	w := world.New()
	a := w.SpawnTile(world.Tile{X: 0, Y: 0})
	w.SpawnLink(world.LogisticsLink{From: a, To: 9999, Capacity: fixedpoint.FromInt(1)})
	w.SpawnPopulation(world.PopulationCohort{Home: 9999, Size: 1})
	snap := Build(w, 1, [wire.AxisCount]int64{})

	fresh := world.New()
	RestoreFromSnapshot(fresh, snap) // must not panic

	restored := Build(fresh, 1, [wire.AxisCount]int64{})
	if len(restored.Logistics) != 0 {
		t.Fatalf("dangling link should have been skipped, got %d", len(restored.Logistics))
	}
	if len(restored.Populations) != 0 {
		t.Fatalf("dangling cohort should have been skipped, got %d", len(restored.Populations))
	}
}
