package engine

import (
	"holdfast/internal/fixedpoint"
	"holdfast/internal/simconfig"
	"holdfast/internal/world"
)

// startingMass and startingPopulationSize seed every tile and cohort the
// default world spawns. There is no original-source "map preset" this
// is grounded on (the retrieved original_source tree's closest analogue,
// start_profile.rs, deserializes a campaign inventory, not a tile grid);
// this bootstrap is grounded directly on spec.md §3's data model instead,
// documented in DESIGN.md.
var startingMass = fixedpoint.FromInt(100)

const startingPopulationSize = 100

// SpawnDefaultWorld populates an empty world with a grid.Width ×
// grid.Height tile mesh, one population cohort and one power node per
// tile, and a logistics link from every tile to its east and south
// neighbor (a 2D grid graph needs only two directed edges per interior
// cell to connect every tile once).
//
// Entities are allocated in the same order snapshot.RestoreFromSnapshot
// uses when rebuilding from a stored snapshot — every tile (power
// attached immediately after, since AttachPower consumes no id), then
// every link, then every population cohort — so that a world reset to
// entity id zero and rebuilt from a snapshot captured at tick zero
// reproduces the exact ids this function assigned. That equivalence is
// what lets a rollback reproduce a bit-identical hash.
func SpawnDefaultWorld(w *world.World, grid simconfig.GridConfig, phase simconfig.PhaseConfig) {
	tileAt := make(map[[2]uint32]world.Entity, grid.Width*grid.Height)

	for y := uint32(0); y < grid.Height; y++ {
		for x := uint32(0); x < grid.Width; x++ {
			elem := world.Element((x + y) % 4)
			id := w.SpawnTile(world.Tile{
				X:           x,
				Y:           y,
				Element:     elem,
				Mass:        startingMass,
				Temperature: phase.AmbientTemperature,
			})
			tileAt[[2]uint32{x, y}] = id
			w.AttachPower(id, world.PowerNode{})
		}
	}

	for y := uint32(0); y < grid.Height; y++ {
		for x := uint32(0); x < grid.Width; x++ {
			from := tileAt[[2]uint32{x, y}]
			if x+1 < grid.Width {
				w.SpawnLink(world.LogisticsLink{From: from, To: tileAt[[2]uint32{x + 1, y}], Capacity: phase.BaseLinkCapacity})
			}
			if y+1 < grid.Height {
				w.SpawnLink(world.LogisticsLink{From: from, To: tileAt[[2]uint32{x, y + 1}], Capacity: phase.BaseLinkCapacity})
			}
		}
	}

	for y := uint32(0); y < grid.Height; y++ {
		for x := uint32(0); x < grid.Width; x++ {
			w.SpawnPopulation(world.PopulationCohort{
				Home:   tileAt[[2]uint32{x, y}],
				Size:   startingPopulationSize,
				Morale: fixedpoint.One,
			})
		}
	}
}
