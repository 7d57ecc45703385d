// Package wire defines the exact wire-format types the simulation core
// exchanges with subscribers: fixed-width, fixed-field-order, little-
// endian binary is authoritative for determinism; a JSON sibling exists
// for tooling and human inspection only.
package wire

// AxisCount is the number of tunable axes the "bias" command can adjust.
// Bounded and closed: 0=ambient temperature, 1=logistics gain,
// 2=population growth, 3=power adjust rate.
const AxisCount = 4

// SnapshotHeader precedes every stream in a WorldSnapshot or WorldDelta.
// Hash is always computed over the payload with this field zeroed first.
// AxisBias carries the current runtime offset applied to each tunable
// axis, raw fixed-point values; it participates in the content hash so
// two runs that received different "bias" commands are never mistaken
// for byte-identical.
type SnapshotHeader struct {
	Tick            uint64
	TileCount       uint32
	LogisticsCount  uint32
	PopulationCount uint32
	PowerCount      uint32
	AxisBias        [AxisCount]int64
	Hash            uint64
}

// TileState is the wire projection of world.Tile.
type TileState struct {
	Entity      uint64
	X           uint32
	Y           uint32
	Element     uint8
	Mass        int64
	Temperature int64
}

// LogisticsLinkState is the wire projection of world.LogisticsLink.
type LogisticsLinkState struct {
	Entity   uint64
	From     uint64
	To       uint64
	Capacity int64
	Flow     int64
}

// PopulationCohortState is the wire projection of world.PopulationCohort.
type PopulationCohortState struct {
	Entity uint64
	Home   uint64
	Size   uint32
	Morale int64
}

// PowerNodeState is the wire projection of world.PowerNode.
type PowerNodeState struct {
	Entity     uint64
	Generation int64
	Demand     int64
	Efficiency int64
}

// WorldSnapshot is the canonical, fully-sorted projection of a world at
// one tick.
type WorldSnapshot struct {
	Header      SnapshotHeader
	Tiles       []TileState
	Logistics   []LogisticsLinkState
	Populations []PopulationCohortState
	Power       []PowerNodeState
}

// WorldDelta is the per-stream upsert/removed-id projection of a
// WorldSnapshot against the previous one in history.
type WorldDelta struct {
	Header SnapshotHeader

	Tiles        []TileState
	RemovedTiles []uint64

	Logistics        []LogisticsLinkState
	RemovedLogistics []uint64

	Populations        []PopulationCohortState
	RemovedPopulations []uint64

	Power        []PowerNodeState
	RemovedPower []uint64
}
