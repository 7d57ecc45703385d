// Package pipeline runs the simulation core's fixed, ordered list of
// phases against a world each tick. There is no retry and no phase
// failure: every phase clamps its own output into a valid range instead
// of returning an error, matching the core's error-handling regime of
// clamp-to-valid rather than reject-and-abort inside a tick.
package pipeline

import (
	"holdfast/internal/simconfig"
	"holdfast/internal/world"
)

// Phase is one stage of the turn pipeline. Run has exclusive access to
// the world for its entire call; no two phases ever run concurrently
// against the same world.
type Phase interface {
	Name() string
	Run(w *world.World, cfg simconfig.PhaseConfig)
}

// Scheduler runs its phases in registration order, once per tick.
type Scheduler struct {
	phases []Phase
}

// NewScheduler builds the scheduler with the core's fixed phase order:
// Materials, then Logistics, then Population, then Power.
func NewScheduler() *Scheduler {
	return &Scheduler{
		phases: []Phase{
			MaterialsPhase{},
			LogisticsPhase{},
			PopulationPhase{},
			PowerPhase{},
		},
	}
}

// Phases exposes the ordered phase list, e.g. for per-phase metrics.
func (s *Scheduler) Phases() []Phase { return s.phases }

// RunTick runs every phase once, in order, against w.
func (s *Scheduler) RunTick(w *world.World, cfg simconfig.PhaseConfig) {
	for _, p := range s.phases {
		p.Run(w, cfg)
	}
}
