// Package snapshot builds canonical snapshots from a world, computes
// deltas against the previous one, keeps a bounded rollback history, and
// can rebuild a world from any stored snapshot.
package snapshot

import (
	"holdfast/internal/wire"
	"holdfast/internal/world"
)

// Build projects w into a canonical, hash-finalized WorldSnapshot for
// tick, stamping axisBias into the header so it participates in the
// content hash and in snapshot/delta equality checks. Every stream is
// already sorted ascending by entity id because world.World's ID
// accessors guarantee that ordering.
func Build(w *world.World, tick uint64, axisBias [wire.AxisCount]int64) *wire.WorldSnapshot {
	tileIDs := w.TileIDs()
	tiles := make([]wire.TileState, 0, len(tileIDs))
	for _, id := range tileIDs {
		t := w.Tile(id)
		tiles = append(tiles, wire.TileState{
			Entity:      uint64(id),
			X:           t.X,
			Y:           t.Y,
			Element:     uint8(t.Element),
			Mass:        t.Mass.Raw(),
			Temperature: t.Temperature.Raw(),
		})
	}

	linkIDs := w.LinkIDs()
	links := make([]wire.LogisticsLinkState, 0, len(linkIDs))
	for _, id := range linkIDs {
		l := w.Link(id)
		links = append(links, wire.LogisticsLinkState{
			Entity:   uint64(id),
			From:     uint64(l.From),
			To:       uint64(l.To),
			Capacity: l.Capacity.Raw(),
			Flow:     l.Flow.Raw(),
		})
	}

	popIDs := w.PopulationIDs()
	pops := make([]wire.PopulationCohortState, 0, len(popIDs))
	for _, id := range popIDs {
		p := w.Population(id)
		pops = append(pops, wire.PopulationCohortState{
			Entity: uint64(id),
			Home:   uint64(p.Home),
			Size:   p.Size,
			Morale: p.Morale.Raw(),
		})
	}

	powerIDs := w.PowerIDs()
	power := make([]wire.PowerNodeState, 0, len(powerIDs))
	for _, id := range powerIDs {
		p := w.Power(id)
		power = append(power, wire.PowerNodeState{
			Entity:     uint64(id),
			Generation: p.Generation.Raw(),
			Demand:     p.Demand.Raw(),
			Efficiency: p.Efficiency.Raw(),
		})
	}

	snap := &wire.WorldSnapshot{
		Header: wire.SnapshotHeader{
			Tick:            tick,
			TileCount:       uint32(len(tiles)),
			LogisticsCount:  uint32(len(links)),
			PopulationCount: uint32(len(pops)),
			PowerCount:      uint32(len(power)),
			AxisBias:        axisBias,
		},
		Tiles:       tiles,
		Logistics:   links,
		Populations: pops,
		Power:       power,
	}
	wire.FinalizeHash(snap)
	return snap
}
