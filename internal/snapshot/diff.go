package snapshot

import "holdfast/internal/wire"

// Diff computes the WorldDelta of current against previous. previous may
// be nil, in which case every stream in current is reported as an
// upsert and nothing is reported removed.
func Diff(previous, current *wire.WorldSnapshot) *wire.WorldDelta {
	d := &wire.WorldDelta{Header: current.Header}

	var prevTiles []wire.TileState
	var prevLinks []wire.LogisticsLinkState
	var prevPops []wire.PopulationCohortState
	var prevPower []wire.PowerNodeState
	if previous != nil {
		prevTiles = previous.Tiles
		prevLinks = previous.Logistics
		prevPops = previous.Populations
		prevPower = previous.Power
	}

	d.Tiles = diffNewTiles(prevTiles, current.Tiles)
	d.RemovedTiles = diffRemovedTiles(prevTiles, current.Tiles)

	d.Logistics = diffNewLinks(prevLinks, current.Logistics)
	d.RemovedLogistics = diffRemovedLinks(prevLinks, current.Logistics)

	d.Populations = diffNewPopulations(prevPops, current.Populations)
	d.RemovedPopulations = diffRemovedPopulations(prevPops, current.Populations)

	d.Power = diffNewPower(prevPower, current.Power)
	d.RemovedPower = diffRemovedPower(prevPower, current.Power)

	return d
}

func diffNewTiles(previous, current []wire.TileState) []wire.TileState {
	index := make(map[uint64]wire.TileState, len(previous))
	for _, p := range previous {
		index[p.Entity] = p
	}
	out := make([]wire.TileState, 0)
	for _, c := range current {
		if prev, ok := index[c.Entity]; !ok || prev != c {
			out = append(out, c)
		}
	}
	return out
}

func diffRemovedTiles(previous, current []wire.TileState) []uint64 {
	present := make(map[uint64]struct{}, len(current))
	for _, c := range current {
		present[c.Entity] = struct{}{}
	}
	out := make([]uint64, 0)
	for _, p := range previous {
		if _, ok := present[p.Entity]; !ok {
			out = append(out, p.Entity)
		}
	}
	return out
}

func diffNewLinks(previous, current []wire.LogisticsLinkState) []wire.LogisticsLinkState {
	index := make(map[uint64]wire.LogisticsLinkState, len(previous))
	for _, p := range previous {
		index[p.Entity] = p
	}
	out := make([]wire.LogisticsLinkState, 0)
	for _, c := range current {
		if prev, ok := index[c.Entity]; !ok || prev != c {
			out = append(out, c)
		}
	}
	return out
}

func diffRemovedLinks(previous, current []wire.LogisticsLinkState) []uint64 {
	present := make(map[uint64]struct{}, len(current))
	for _, c := range current {
		present[c.Entity] = struct{}{}
	}
	out := make([]uint64, 0)
	for _, p := range previous {
		if _, ok := present[p.Entity]; !ok {
			out = append(out, p.Entity)
		}
	}
	return out
}

func diffNewPopulations(previous, current []wire.PopulationCohortState) []wire.PopulationCohortState {
	index := make(map[uint64]wire.PopulationCohortState, len(previous))
	for _, p := range previous {
		index[p.Entity] = p
	}
	out := make([]wire.PopulationCohortState, 0)
	for _, c := range current {
		if prev, ok := index[c.Entity]; !ok || prev != c {
			out = append(out, c)
		}
	}
	return out
}

func diffRemovedPopulations(previous, current []wire.PopulationCohortState) []uint64 {
	present := make(map[uint64]struct{}, len(current))
	for _, c := range current {
		present[c.Entity] = struct{}{}
	}
	out := make([]uint64, 0)
	for _, p := range previous {
		if _, ok := present[p.Entity]; !ok {
			out = append(out, p.Entity)
		}
	}
	return out
}

func diffNewPower(previous, current []wire.PowerNodeState) []wire.PowerNodeState {
	index := make(map[uint64]wire.PowerNodeState, len(previous))
	for _, p := range previous {
		index[p.Entity] = p
	}
	out := make([]wire.PowerNodeState, 0)
	for _, c := range current {
		if prev, ok := index[c.Entity]; !ok || prev != c {
			out = append(out, c)
		}
	}
	return out
}

func diffRemovedPower(previous, current []wire.PowerNodeState) []uint64 {
	present := make(map[uint64]struct{}, len(current))
	for _, c := range current {
		present[c.Entity] = struct{}{}
	}
	out := make([]uint64, 0)
	for _, p := range previous {
		if _, ok := present[p.Entity]; !ok {
			out = append(out, p.Entity)
		}
	}
	return out
}
