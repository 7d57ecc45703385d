// Package observability is the simulation core's operator-facing surface:
// Prometheus metrics, a small chi-routed HTTP admin API, and a read-only
// WebSocket tick/hash feed. None of it is part of the wire protocol —
// spec.md §6.2 fixes that layout — this package only exposes aggregates
// an operator dashboard would want.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics with bounded cardinality: no per-entity labels, same discipline
// the teacher's own observability layer enforces.
var (
	tickDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "simserver_tick_duration_seconds",
		Help:    "Time spent running one full tick (all phases plus snapshot commit).",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1},
	})

	phaseDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "simserver_phase_duration_seconds",
		Help:    "Time spent in a single phase.",
		Buckets: []float64{0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
	}, []string{"phase"}) // bounded: materials, logistics, population, power

	subscriberCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simserver_snapshot_subscribers",
		Help: "Currently connected snapshot fan-out subscribers.",
	})

	droppedFrames = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simserver_dropped_frames_total",
		Help: "Frames dropped by the fan-out server's drop-oldest backpressure policy.",
	})

	commandsAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simserver_commands_accepted_total",
		Help: "Non-rollback commands the engine applied.",
	})

	commandsRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simserver_commands_rejected_total",
		Help: "Non-rollback commands the engine rejected (unknown tile, out-of-range axis, unknown kind).",
	})

	rollbacksAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simserver_rollbacks_accepted_total",
		Help: "Rollback commands applied.",
	})

	rollbacksRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simserver_rollbacks_rejected_total",
		Help: "Rollback commands rejected for targeting a tick outside the history window.",
	})

	historyLength = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simserver_history_length",
		Help: "Number of ticks currently held in the snapshot history ring.",
	})

	massClampTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simserver_mass_clamp_total",
		Help: "Tile mass values clamped back into config.mass_bounds during the logistics phase.",
	})

	moraleClampTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simserver_morale_clamp_total",
		Help: "Population morale values clamped into [0, 1] during the population phase.",
	})

	sizeCapTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "simserver_population_cap_total",
		Help: "Population cohort sizes capped at config.population_cap during the population phase.",
	})

	totalMass = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simserver_total_mass",
		Help: "Sum of every tile's mass as of the last committed tick.",
	})

	avgTemperature = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simserver_avg_temperature",
		Help: "Mean tile temperature as of the last committed tick.",
	})

	powerSurplus = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "simserver_power_surplus_total",
		Help: "Sum of (generation - demand) across every power node as of the last committed tick; negative means aggregate deficit.",
	})
)

// RecordTick observes a full tick's wall-clock duration.
func RecordTick(seconds float64) { tickDuration.Observe(seconds) }

// RecordPhase observes a single phase's wall-clock duration.
func RecordPhase(phase string, seconds float64) { phaseDuration.WithLabelValues(phase).Observe(seconds) }

// SetSubscriberCount updates the connected-subscriber gauge.
func SetSubscriberCount(n int) { subscriberCount.Set(float64(n)) }

// IncDroppedFrames increments the dropped-frame counter.
func IncDroppedFrames() { droppedFrames.Inc() }

// IncCommandAccepted increments the accepted-command counter.
func IncCommandAccepted() { commandsAccepted.Inc() }

// IncCommandRejected increments the rejected-command counter.
func IncCommandRejected() { commandsRejected.Inc() }

// IncRollbackAccepted increments the accepted-rollback counter.
func IncRollbackAccepted() { rollbacksAccepted.Inc() }

// IncRollbackRejected increments the rejected-rollback counter.
func IncRollbackRejected() { rollbacksRejected.Inc() }

// SetHistoryLength updates the history-length gauge.
func SetHistoryLength(n int) { historyLength.Set(float64(n)) }

// IncMassClamp increments the mass-clamp counter.
func IncMassClamp() { massClampTotal.Inc() }

// IncMoraleClamp increments the morale-clamp counter.
func IncMoraleClamp() { moraleClampTotal.Inc() }

// IncSizeCap increments the population-cap counter.
func IncSizeCap() { sizeCapTotal.Inc() }

// SetWorldAggregates updates the total-mass, average-temperature, and
// power-surplus gauges from one committed tick's aggregates.
func SetWorldAggregates(mass, avgTemp, surplus float64) {
	totalMass.Set(mass)
	avgTemperature.Set(avgTemp)
	powerSurplus.Set(surplus)
}
