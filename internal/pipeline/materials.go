package pipeline

import (
	"holdfast/internal/fixedpoint"
	"holdfast/internal/simconfig"
	"holdfast/internal/world"
)

// MaterialsPhase relaxes every tile's temperature a fraction of the way
// toward its material's ambient target, each tick.
type MaterialsPhase struct{}

// Name identifies the phase for logging and metrics.
func (MaterialsPhase) Name() string { return "materials" }

// Run lerps every tile's temperature toward ambient-plus-thermal-bias at
// a rate set by the tile's material conductivity.
func (MaterialsPhase) Run(w *world.World, cfg simconfig.PhaseConfig) {
	for _, id := range w.TileIDs() {
		t := w.Tile(id)
		target := cfg.AmbientTemperature.Add(t.Element.ThermalBias())
		t.Temperature = fixedpoint.Lerp(t.Temperature, target, t.Element.Conductivity())
	}
}
