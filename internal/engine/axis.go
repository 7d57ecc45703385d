package engine

import (
	"holdfast/internal/fixedpoint"
	"holdfast/internal/simconfig"
	"holdfast/internal/wire"
)

// Axis names the small, closed set of phase tunables the "bias" command
// can nudge at runtime. The set is bounded by wire.AxisCount because the
// offset vector is carried in every snapshot header and must stay a
// fixed size for the wire format and the content hash.
type Axis uint32

const (
	AxisAmbientTemperature Axis = iota
	AxisLogisticsGain
	AxisPopulationGrowth
	AxisPowerAdjustRate
)

// applyAxisBias returns cfg with the current bias vector added to the
// four tunables it covers. The base config itself is never mutated,
// matching spec.md §4.D's "config is immutable for the duration of a
// run" — only the derived, per-tick effective config moves.
func applyAxisBias(cfg simconfig.PhaseConfig, bias [wire.AxisCount]fixedpoint.Scalar) simconfig.PhaseConfig {
	cfg.AmbientTemperature = cfg.AmbientTemperature.Add(bias[AxisAmbientTemperature])
	cfg.LogisticsGain = cfg.LogisticsGain.Add(bias[AxisLogisticsGain])
	cfg.PopulationGrowth = cfg.PopulationGrowth.Add(bias[AxisPopulationGrowth])
	cfg.PowerAdjustRate = cfg.PowerAdjustRate.Add(bias[AxisPowerAdjustRate])
	return cfg
}
