package pipeline

import (
	"holdfast/internal/fixedpoint"
	"holdfast/internal/observability"
	"holdfast/internal/simconfig"
	"holdfast/internal/world"
)

// LogisticsPhase moves mass along each link toward equalizing the mass
// of the two tiles it connects, clamped by the link's capacity; the
// flow is not limited by the source tile's mass, whose result is clamped
// to config.mass_bounds instead. Links are visited
// in ascending entity-id order so that a tile touched by more than one
// link in the same tick always resolves its flows in the same sequence,
// keeping the result bit-for-bit reproducible.
type LogisticsPhase struct{}

// Name identifies the phase for logging and metrics.
func (LogisticsPhase) Name() string { return "logistics" }

// Run computes and applies one tick's worth of flow for every link. Flow
// is clamped to the link's capacity; the resulting tile masses are then
// clamped to config.mass_bounds, exactly as spec.md §4.F.2 prescribes —
// a source tile can be driven to its floor and a destination to its
// ceiling, with the excess lost to saturation rather than conserved.
func (LogisticsPhase) Run(w *world.World, cfg simconfig.PhaseConfig) {
	for _, id := range w.LinkIDs() {
		link := w.Link(id)
		from := w.Tile(link.From)
		to := w.Tile(link.To)
		if from == nil || to == nil {
			link.Flow = fixedpoint.Zero
			continue
		}

		requested := from.Mass.Sub(to.Mass).Mul(cfg.LogisticsGain)
		capacity := link.Capacity.Abs()
		flow := requested.Clamp(capacity.Neg(), capacity)

		link.Flow = flow

		newFrom := from.Mass.Sub(flow).Clamp(cfg.MassBounds.Lo, cfg.MassBounds.Hi)
		if newFrom != from.Mass.Sub(flow) {
			observability.IncMassClamp()
		}
		from.Mass = newFrom

		newTo := to.Mass.Add(flow).Clamp(cfg.MassBounds.Lo, cfg.MassBounds.Hi)
		if newTo != to.Mass.Add(flow) {
			observability.IncMassClamp()
		}
		to.Mass = newTo
	}
}
