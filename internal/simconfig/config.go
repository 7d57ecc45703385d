// Package simconfig is the single source of truth for every tunable the
// simulation core reads: grid dimensions, phase constants, network
// listener addresses, and snapshot history sizing.
package simconfig

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"holdfast/internal/fixedpoint"
)

// GridConfig sizes the world grid.
type GridConfig struct {
	Width  uint32
	Height uint32
}

// DefaultGrid returns the default grid configuration.
func DefaultGrid() GridConfig {
	return GridConfig{Width: 64, Height: 64}
}

// MassBounds clamps every tile's mass, tick after tick, to keep invariant
// 4 of spec.md §3 holding regardless of how much a logistics link would
// otherwise move.
type MassBounds struct {
	Lo, Hi fixedpoint.Scalar
}

// PhaseConfig holds the tunables the four core phases drift toward. See
// PhaseTuning for the optional file-backed override of these values.
type PhaseConfig struct {
	AmbientTemperature fixedpoint.Scalar
	LogisticsGain      fixedpoint.Scalar
	BaseLinkCapacity   fixedpoint.Scalar
	MassBounds         MassBounds
	PopulationGrowth   fixedpoint.Scalar
	PopulationCap      uint32
	MoraleThreshold    fixedpoint.Scalar
	MoraleGrowthBias   fixedpoint.Scalar
	TempDeficitPenalty fixedpoint.Scalar
	PowerAdjustRate    fixedpoint.Scalar
	MaxPowerEfficiency fixedpoint.Scalar
	MaxPowerGeneration fixedpoint.Scalar
}

// DefaultPhase returns the built-in phase tunables.
func DefaultPhase() PhaseConfig {
	return PhaseConfig{
		AmbientTemperature: fixedpoint.FromFloat32(20.0),
		LogisticsGain:      fixedpoint.FromFloat32(0.5),
		BaseLinkCapacity:   fixedpoint.FromFloat32(2.0),
		MassBounds:         MassBounds{Lo: fixedpoint.Zero, Hi: fixedpoint.FromInt(1_000_000)},
		PopulationGrowth:   fixedpoint.FromFloat32(0.02),
		PopulationCap:      1_000_000,
		MoraleThreshold:    fixedpoint.FromFloat32(5.0),
		MoraleGrowthBias:   fixedpoint.FromFloat32(0.002),
		TempDeficitPenalty: fixedpoint.FromFloat32(0.05),
		PowerAdjustRate:    fixedpoint.FromFloat32(0.1),
		MaxPowerEfficiency: fixedpoint.FromFloat32(1.0),
		MaxPowerGeneration: fixedpoint.FromFloat32(100.0),
	}
}

// NetworkConfig holds listener addresses for the three TCP surfaces.
type NetworkConfig struct {
	SnapshotAddr string
	CommandAddr  string
	ObservAddr   string
}

// DefaultNetwork returns the default listener addresses, matching
// spec.md §6.4's literal defaults for the three TCP surfaces (snapshot,
// command, log/observability).
func DefaultNetwork() NetworkConfig {
	return NetworkConfig{
		SnapshotAddr: "127.0.0.1:41000",
		CommandAddr:  "127.0.0.1:41001",
		ObservAddr:   "127.0.0.1:41003",
	}
}

// HistoryConfig sizes the rollback ring buffer.
type HistoryConfig struct {
	Capacity int
}

// DefaultHistory returns the default history configuration.
func DefaultHistory() HistoryConfig {
	return HistoryConfig{Capacity: 256}
}

// Config is the complete simulation configuration.
type Config struct {
	Grid    GridConfig
	Phase   PhaseConfig
	Network NetworkConfig
	History HistoryConfig
}

// Default returns the built-in configuration, with no environment
// overrides applied.
func Default() Config {
	return Config{
		Grid:    DefaultGrid(),
		Phase:   DefaultPhase(),
		Network: DefaultNetwork(),
		History: DefaultHistory(),
	}
}

// FromEnv layers SIMSERVER_* environment variable overrides on top of cfg.
func FromEnv(cfg Config) Config {
	if w := getEnvInt("SIMSERVER_GRID_WIDTH", 0); w > 0 {
		cfg.Grid.Width = uint32(w)
	}
	if h := getEnvInt("SIMSERVER_GRID_HEIGHT", 0); h > 0 {
		cfg.Grid.Height = uint32(h)
	}
	if addr := os.Getenv("SIMSERVER_SNAPSHOT_ADDR"); addr != "" {
		cfg.Network.SnapshotAddr = addr
	}
	if addr := os.Getenv("SIMSERVER_COMMAND_ADDR"); addr != "" {
		cfg.Network.CommandAddr = addr
	}
	if addr := os.Getenv("SIMSERVER_OBSERV_ADDR"); addr != "" {
		cfg.Network.ObservAddr = addr
	}
	if cap := getEnvInt("SIMSERVER_HISTORY_CAPACITY", 0); cap > 0 {
		cfg.History.Capacity = cap
	}
	if f := getEnvFloat("SIMSERVER_AMBIENT_TEMPERATURE", 0); f != 0 {
		cfg.Phase.AmbientTemperature = fixedpoint.FromFloat32(float32(f))
	}
	if cap := getEnvInt("SIMSERVER_POPULATION_CAP", 0); cap > 0 {
		cfg.Phase.PopulationCap = uint32(cap)
	}
	if f := getEnvFloat("SIMSERVER_MASS_BOUND_HI", 0); f > 0 {
		cfg.Phase.MassBounds.Hi = fixedpoint.FromFloat32(float32(f))
	}
	if f := getEnvFloat("SIMSERVER_MAX_POWER_EFFICIENCY", 0); f > 0 {
		cfg.Phase.MaxPowerEfficiency = fixedpoint.FromFloat32(float32(f))
	}
	return cfg
}

// Load assembles the full configuration: an optional .env file, built-in
// defaults, environment overrides, then an optional phase-tuning file.
// When the phase-tuning file loads, it replaces the whole Phase section
// (its fields over DefaultPhase()), so SIMSERVER_* phase overrides do
// not survive it. A missing .env file is not an error; this mirrors
// cmd/server's own best-effort godotenv.Load() call.
func Load() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("⚠️  .env load: %v", err)
	}
	cfg := FromEnv(Default())
	if tuned, ok := LoadPhaseTuning(); ok {
		cfg.Phase = tuned
	}
	return cfg
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
