package pipeline

import (
	"holdfast/internal/fixedpoint"
	"holdfast/internal/observability"
	"holdfast/internal/simconfig"
	"holdfast/internal/world"
)

// PopulationPhase updates every cohort's morale against its home tile's
// temperature deficit, then grows or shrinks its size by a morale-scaled
// rate, truncating toward zero the way a headcount must.
type PopulationPhase struct{}

// Name identifies the phase for logging and metrics.
func (PopulationPhase) Name() string { return "population" }

// Run applies one tick of morale and growth to every population cohort,
// following spec.md §4.F.3 exactly: a temperature deficit past a
// threshold erodes morale (offset by a small constant growth bias), then
// size grows or shrinks by a morale-scaled rate and is floored to an
// integer headcount, never carrying a fractional remainder to the next
// tick.
func (PopulationPhase) Run(w *world.World, cfg simconfig.PhaseConfig) {
	for _, id := range w.PopulationIDs() {
		cohort := w.Population(id)
		home := w.Tile(cohort.Home)
		if home == nil {
			continue
		}

		deficit := home.Temperature.Sub(cfg.AmbientTemperature).Abs().Sub(cfg.MoraleThreshold)
		if deficit < fixedpoint.Zero {
			deficit = fixedpoint.Zero
		}

		morale := cohort.Morale.Sub(deficit.Mul(cfg.TempDeficitPenalty)).Add(cfg.MoraleGrowthBias)
		clampedMorale := morale.Clamp(fixedpoint.Zero, fixedpoint.One)
		if clampedMorale != morale {
			observability.IncMoraleClamp()
		}
		cohort.Morale = clampedMorale

		growthFactor := fixedpoint.One.Add(cfg.PopulationGrowth.Mul(cohort.Morale))
		grown := fixedpoint.FromInt(int64(cohort.Size)).Mul(growthFactor)
		floored := grown.Raw() >> 16 // floor: grown is never negative, so truncation toward zero is floor
		if floored < 0 {
			floored = 0
		}

		newSize := uint32(floored)
		if newSize > cfg.PopulationCap {
			newSize = cfg.PopulationCap
			observability.IncSizeCap()
		}
		cohort.Size = newSize
	}
}
