package snapshot

import (
	"log"

	"holdfast/internal/fixedpoint"
	"holdfast/internal/wire"
	"holdfast/internal/world"
)

// RestoreFromSnapshot rebuilds w entirely from snap: every existing
// entity is discarded, then tiles, links, cohorts, and power nodes are
// respawned fresh. Snapshot entity ids are remapped to whatever ids the
// world allocates during the rebuild; any link or cohort whose endpoint
// tile is missing from the snapshot is skipped with a logged warning
// rather than aborting the restore.
func RestoreFromSnapshot(w *world.World, snap *wire.WorldSnapshot) {
	w.Reset()

	powerByOldTile := make(map[uint64]wire.PowerNodeState, len(snap.Power))
	for _, p := range snap.Power {
		powerByOldTile[p.Entity] = p
	}

	oldToNewTile := make(map[uint64]world.Entity, len(snap.Tiles))
	for _, t := range snap.Tiles {
		newID := w.SpawnTile(world.Tile{
			X:           t.X,
			Y:           t.Y,
			Element:     world.ElementFromByte(t.Element),
			Mass:        fixedpoint.FromRaw(t.Mass),
			Temperature: fixedpoint.FromRaw(t.Temperature),
		})
		oldToNewTile[t.Entity] = newID

		if p, ok := powerByOldTile[t.Entity]; ok {
			w.AttachPower(newID, world.PowerNode{
				Generation: fixedpoint.FromRaw(p.Generation),
				Demand:     fixedpoint.FromRaw(p.Demand),
				Efficiency: fixedpoint.FromRaw(p.Efficiency),
			})
		}
	}

	for _, l := range snap.Logistics {
		from, fromOK := oldToNewTile[l.From]
		to, toOK := oldToNewTile[l.To]
		if !fromOK || !toOK {
			log.Printf("⚠️  restore: skipping logistics link %d, endpoint tile missing", l.Entity)
			continue
		}
		w.SpawnLink(world.LogisticsLink{
			From:     from,
			To:       to,
			Capacity: fixedpoint.FromRaw(l.Capacity),
			Flow:     fixedpoint.FromRaw(l.Flow),
		})
	}

	for _, p := range snap.Populations {
		home, ok := oldToNewTile[p.Home]
		if !ok {
			log.Printf("⚠️  restore: skipping population cohort %d, home tile missing", p.Entity)
			continue
		}
		w.SpawnPopulation(world.PopulationCohort{
			Home:   home,
			Size:   p.Size,
			Morale: fixedpoint.FromRaw(p.Morale),
		})
	}
}
