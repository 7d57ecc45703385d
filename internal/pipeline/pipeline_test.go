package pipeline

import (
	"testing"

	"holdfast/internal/fixedpoint"
	"holdfast/internal/simconfig"
	"holdfast/internal/world"
)

func TestMaterialsPhaseMovesTowardAmbient(t *testing.T) {
	w := world.New()
	cfg := simconfig.DefaultPhase()
	id := w.SpawnTile(world.Tile{Element: world.Ferrite, Temperature: fixedpoint.FromInt(0)})

	MaterialsPhase{}.Run(w, cfg)

	target := cfg.AmbientTemperature.Add(world.Ferrite.ThermalBias())
	got := w.Tile(id).Temperature
	if got == fixedpoint.FromInt(0) {
		t.Fatalf("temperature did not move at all")
	}
	if got.Cmp(target) > 0 {
		t.Fatalf("temperature %v overshot target %v", got, target)
	}
}

func TestLogisticsPhaseConservesMass(t *testing.T) {
	w := world.New()
	cfg := simconfig.DefaultPhase()
	a := w.SpawnTile(world.Tile{Mass: fixedpoint.FromInt(100)})
	b := w.SpawnTile(world.Tile{Mass: fixedpoint.FromInt(0)})
	w.SpawnLink(world.LogisticsLink{From: a, To: b, Capacity: fixedpoint.FromInt(1000)})

	before := w.Tile(a).Mass.Add(w.Tile(b).Mass)
	LogisticsPhase{}.Run(w, cfg)
	after := w.Tile(a).Mass.Add(w.Tile(b).Mass)

	if before != after {
		t.Fatalf("mass not conserved: before=%v after=%v", before, after)
	}
	// Default gain 0.5 moves half of the 100-unit difference: 50 each.
	if w.Tile(a).Mass != fixedpoint.FromInt(50) || w.Tile(b).Mass != fixedpoint.FromInt(50) {
		t.Fatalf("mass should equalize at 50/50 after one tick with gain 0.5, got a=%v b=%v",
			w.Tile(a).Mass, w.Tile(b).Mass)
	}
}

func TestLogisticsPhaseRespectsCapacity(t *testing.T) {
	w := world.New()
	cfg := simconfig.DefaultPhase()
	a := w.SpawnTile(world.Tile{Mass: fixedpoint.FromInt(1000)})
	b := w.SpawnTile(world.Tile{Mass: fixedpoint.FromInt(0)})
	link := w.SpawnLink(world.LogisticsLink{From: a, To: b, Capacity: fixedpoint.FromInt(1)})

	LogisticsPhase{}.Run(w, cfg)

	if w.Link(link).Flow.Abs().Cmp(fixedpoint.FromInt(1)) > 0 {
		t.Fatalf("flow %v exceeded capacity 1", w.Link(link).Flow)
	}
}

func TestLogisticsPhaseSkipsDanglingLink(t *testing.T) {
	w := world.New()
	cfg := simconfig.DefaultPhase()
	a := w.SpawnTile(world.Tile{Mass: fixedpoint.FromInt(5)})
	w.SpawnLink(world.LogisticsLink{From: a, To: 9999, Capacity: fixedpoint.FromInt(10)})

	// Must not panic on a link whose endpoint tile does not exist.
	LogisticsPhase{}.Run(w, cfg)
}

func TestPopulationPhaseGrowsWithGoodMorale(t *testing.T) {
	w := world.New()
	cfg := simconfig.DefaultPhase()
	tile := w.SpawnTile(world.Tile{Temperature: cfg.AmbientTemperature})
	pop := w.SpawnPopulation(world.PopulationCohort{Home: tile, Size: 100, Morale: fixedpoint.One})

	PopulationPhase{}.Run(w, cfg)

	if w.Population(pop).Size <= 100 {
		t.Fatalf("expected growth with full morale and no temperature deficit, got size=%d",
			w.Population(pop).Size)
	}
}

func TestPopulationPhaseMoralePenalizedByColdTile(t *testing.T) {
	w := world.New()
	cfg := simconfig.DefaultPhase()
	cold := w.SpawnTile(world.Tile{Temperature: fixedpoint.FromInt(-100)})
	pop := w.SpawnPopulation(world.PopulationCohort{Home: cold, Size: 100, Morale: fixedpoint.One})

	PopulationPhase{}.Run(w, cfg)

	if w.Population(pop).Morale >= fixedpoint.One {
		t.Fatalf("morale should drop below 1.0 facing a temperature deficit, got %v",
			w.Population(pop).Morale)
	}
}

func TestPopulationPhaseSkipsMissingHome(t *testing.T) {
	w := world.New()
	cfg := simconfig.DefaultPhase()
	w.SpawnPopulation(world.PopulationCohort{Home: 9999, Size: 10, Morale: fixedpoint.One})

	PopulationPhase{}.Run(w, cfg) // must not panic
}

func TestPowerPhaseDriftsTowardProfile(t *testing.T) {
	w := world.New()
	cfg := simconfig.DefaultPhase()
	tile := w.SpawnTile(world.Tile{Element: world.Lumina})
	w.AttachPower(tile, world.PowerNode{})

	PowerPhase{}.Run(w, cfg)

	node := w.Power(tile)
	if node.Efficiency == fixedpoint.Zero && node.Generation == fixedpoint.Zero && node.Demand == fixedpoint.Zero {
		t.Fatalf("power node did not drift at all toward its profile")
	}
}

func TestSchedulerRunsPhasesInFixedOrder(t *testing.T) {
	s := NewScheduler()
	names := make([]string, 0, len(s.Phases()))
	for _, p := range s.Phases() {
		names = append(names, p.Name())
	}
	want := []string{"materials", "logistics", "population", "power"}
	if len(names) != len(want) {
		t.Fatalf("got %v phases, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("phase order = %v, want %v", names, want)
		}
	}
}
