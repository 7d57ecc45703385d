package pipeline

import (
	"holdfast/internal/fixedpoint"
	"holdfast/internal/simconfig"
	"holdfast/internal/world"
)

// PowerPhase drifts every node's efficiency, generation, and demand a
// fraction of the way toward the targets its tile's material defines.
// There is no cross-node network solve here: each node only ever looks
// at its own tile.
type PowerPhase struct{}

// Name identifies the phase for logging and metrics.
func (PowerPhase) Name() string { return "power" }

// Run applies one tick of drift to every power node, bounding efficiency
// and generation by config.max_power_efficiency / config.max_power_generation
// per spec.md §4.D regardless of how high a material's profile target is
// set.
func (PowerPhase) Run(w *world.World, cfg simconfig.PhaseConfig) {
	for _, id := range w.PowerIDs() {
		node := w.Power(id)
		tile := w.Tile(id)
		if tile == nil {
			continue
		}

		targetEfficiency, targetGeneration, targetDemand := tile.Element.PowerProfile()
		rate := cfg.PowerAdjustRate

		node.Efficiency = fixedpoint.Lerp(node.Efficiency, targetEfficiency, rate).
			Clamp(fixedpoint.Zero, cfg.MaxPowerEfficiency)
		node.Generation = fixedpoint.Lerp(node.Generation, targetGeneration, rate).
			Clamp(fixedpoint.Zero, cfg.MaxPowerGeneration)
		node.Demand = fixedpoint.Lerp(node.Demand, targetDemand, rate).Clamp(fixedpoint.Zero, cfg.MaxPowerGeneration)
	}
}
