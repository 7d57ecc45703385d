package simconfig

import (
	"encoding/json"
	"log"
	"os"

	"holdfast/internal/fixedpoint"
)

// phaseTuningFile is the on-disk shape of an optional phase-tuning
// override. Fields are plain float32 here; they convert to fixedpoint
// Scalars once loaded, same boundary-only float usage as the rest of the
// config layer.
type phaseTuningFile struct {
	AmbientTemperature *float32 `json:"ambient_temperature"`
	LogisticsGain      *float32 `json:"logistics_gain"`
	BaseLinkCapacity   *float32 `json:"base_link_capacity"`
	MassBoundLo        *float32 `json:"mass_bound_lo"`
	MassBoundHi        *float32 `json:"mass_bound_hi"`
	PopulationGrowth   *float32 `json:"population_growth"`
	PopulationCap      *uint32  `json:"population_cap"`
	MoraleThreshold    *float32 `json:"morale_threshold"`
	MoraleGrowthBias   *float32 `json:"morale_growth_bias"`
	TempDeficitPenalty *float32 `json:"temp_deficit_penalty"`
	PowerAdjustRate    *float32 `json:"power_adjust_rate"`
	MaxPowerEfficiency *float32 `json:"max_power_efficiency"`
	MaxPowerGeneration *float32 `json:"max_power_generation"`
}

// LoadPhaseTuning reads SIMSERVER_PHASE_CONFIG_PATH if set and returns the
// resulting PhaseConfig with any fields present in the file overriding
// the built-in defaults. ok is false whenever the env var is unset, the
// file is missing, or the file fails to parse — in every such case the
// caller keeps its existing defaults rather than aborting startup.
func LoadPhaseTuning() (PhaseConfig, bool) {
	path := os.Getenv("SIMSERVER_PHASE_CONFIG_PATH")
	if path == "" {
		return PhaseConfig{}, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("⚠️  phase config %q unreadable, keeping defaults: %v", path, err)
		return PhaseConfig{}, false
	}
	var file phaseTuningFile
	if err := json.Unmarshal(data, &file); err != nil {
		log.Printf("⚠️  phase config %q invalid, keeping defaults: %v", path, err)
		return PhaseConfig{}, false
	}

	cfg := DefaultPhase()
	if file.AmbientTemperature != nil {
		cfg.AmbientTemperature = fixedpoint.FromFloat32(*file.AmbientTemperature)
	}
	if file.LogisticsGain != nil {
		cfg.LogisticsGain = fixedpoint.FromFloat32(*file.LogisticsGain)
	}
	if file.BaseLinkCapacity != nil {
		cfg.BaseLinkCapacity = fixedpoint.FromFloat32(*file.BaseLinkCapacity)
	}
	if file.PopulationGrowth != nil {
		cfg.PopulationGrowth = fixedpoint.FromFloat32(*file.PopulationGrowth)
	}
	if file.TempDeficitPenalty != nil {
		cfg.TempDeficitPenalty = fixedpoint.FromFloat32(*file.TempDeficitPenalty)
	}
	if file.PowerAdjustRate != nil {
		cfg.PowerAdjustRate = fixedpoint.FromFloat32(*file.PowerAdjustRate)
	}
	if file.MassBoundLo != nil {
		cfg.MassBounds.Lo = fixedpoint.FromFloat32(*file.MassBoundLo)
	}
	if file.MassBoundHi != nil {
		cfg.MassBounds.Hi = fixedpoint.FromFloat32(*file.MassBoundHi)
	}
	if file.PopulationCap != nil {
		cfg.PopulationCap = *file.PopulationCap
	}
	if file.MoraleThreshold != nil {
		cfg.MoraleThreshold = fixedpoint.FromFloat32(*file.MoraleThreshold)
	}
	if file.MoraleGrowthBias != nil {
		cfg.MoraleGrowthBias = fixedpoint.FromFloat32(*file.MoraleGrowthBias)
	}
	if file.MaxPowerEfficiency != nil {
		cfg.MaxPowerEfficiency = fixedpoint.FromFloat32(*file.MaxPowerEfficiency)
	}
	if file.MaxPowerGeneration != nil {
		cfg.MaxPowerGeneration = fixedpoint.FromFloat32(*file.MaxPowerGeneration)
	}
	log.Printf("💾 loaded phase tuning from %s", path)
	return cfg, true
}
