// Package engine ties the world, the phase pipeline, the snapshot
// history, the fan-out server, and command intake into the single
// running simulation loop: drain commands, run a tick, commit the
// resulting snapshot, broadcast its delta. Grounded on the tick-loop
// shape of the teacher's game engine (mutex-guarded state, a single
// goroutine owns every mutation), adapted from a real-time game clock
// to a command-driven, replayable turn scheduler.
package engine

import (
	"fmt"
	"log"
	"sync"
	"time"

	"holdfast/internal/command"
	"holdfast/internal/fanout"
	"holdfast/internal/fixedpoint"
	"holdfast/internal/observability"
	"holdfast/internal/pipeline"
	"holdfast/internal/simconfig"
	"holdfast/internal/snapshot"
	"holdfast/internal/wire"
	"holdfast/internal/world"
)

// CommandPollInterval is how often the process driving this Engine
// should call DrainAndApply: the simulation is turn-based and advances
// only in response to commands, but commands still need a cadence to be
// gathered into the drain-one-batch-per-call semantics DrainAndApply
// implements (several commands queued within one interval are drained
// together, so a rollback among them still discards the rest of that
// same batch).
const CommandPollInterval = 20 * time.Millisecond

// Engine owns the world, the phase scheduler, and the snapshot history
// for one running simulation. Every exported method takes mu for the
// duration of its work, so calls from different goroutines are
// serialized; the *world.World returned by World is not guarded.
type Engine struct {
	mu sync.Mutex

	cfg       simconfig.Config
	w         *world.World
	scheduler *pipeline.Scheduler
	history   *snapshot.History
	tick      uint64
	axisBias  [wire.AxisCount]fixedpoint.Scalar

	fan        *fanout.Server
	statusFeed *observability.StatusFeed
}

// New builds an Engine with a freshly spawned default world and commits
// an initial tick-zero snapshot, so history is never empty and a
// rollback to tick 0 is valid until the bounded history prunes it.
func New(cfg simconfig.Config) *Engine {
	w := world.New()
	SpawnDefaultWorld(w, cfg.Grid, cfg.Phase)

	e := &Engine{
		cfg:       cfg,
		w:         w,
		scheduler: pipeline.NewScheduler(),
		history:   snapshot.NewHistory(cfg.History.Capacity),
	}
	e.commit()
	return e
}

// AttachFanout wires a fan-out server so every future commit broadcasts
// its delta. Safe to call once before the engine starts ticking.
func (e *Engine) AttachFanout(fan *fanout.Server) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fan = fan
}

// AttachStatusFeed wires a read-only WebSocket status feed so every
// future commit publishes its tick/hash event.
func (e *Engine) AttachStatusFeed(feed *observability.StatusFeed) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.statusFeed = feed
}

// World exposes the live world for read-only inspection. Callers must
// not mutate it outside a phase run.
func (e *Engine) World() *world.World {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.w
}

// Tick reports the last committed tick number.
func (e *Engine) Tick() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tick
}

// Latest returns the most recently committed history entry.
func (e *Engine) Latest() *snapshot.StoredSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.Latest()
}

// LatestHash returns the content hash of the most recently committed
// snapshot, or zero if none has been committed yet. Satisfies
// observability.EngineStatus.
func (e *Engine) LatestHash() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if latest := e.history.Latest(); latest != nil {
		return latest.Snapshot.Header.Hash
	}
	return 0
}

// SubscriberCount reports how many fan-out subscribers are currently
// connected, or zero if no fan-out server is attached. Satisfies
// observability.EngineStatus.
func (e *Engine) SubscriberCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.fan == nil {
		return 0
	}
	return e.fan.Count()
}

// effectiveConfig returns the phase config for this tick: the base
// config plus the current per-axis offsets. Each "bias" command replaces
// its axis's offset; successive commands on one axis do not add up.
func (e *Engine) effectiveConfig() simconfig.PhaseConfig {
	return applyAxisBias(e.cfg.Phase, e.axisBias)
}

// RunTick advances the simulation by steps ticks, each one running the
// full phase pipeline once and committing a snapshot. steps of zero is
// a no-op.
func (e *Engine) RunTick(steps uint32) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := uint32(0); i < steps; i++ {
		e.runOneTickLocked()
	}
}

func (e *Engine) runOneTickLocked() {
	start := time.Now()
	cfg := e.effectiveConfig()

	for _, p := range e.scheduler.Phases() {
		phaseStart := time.Now()
		p.Run(e.w, cfg)
		name := p.Name()
		observability.RecordPhase(name, time.Since(phaseStart).Seconds())
	}

	e.tick++
	e.commit()
	observability.RecordTick(time.Since(start).Seconds())
}

// commit builds a snapshot of the current world state, stores it in
// history, and broadcasts its delta. A freshly connected subscriber
// only ever receives deltas emitted after it connects, never the
// snapshot commit produced.
func (e *Engine) commit() {
	raw := [wire.AxisCount]int64{}
	for i, v := range e.axisBias {
		raw[i] = v.Raw()
	}
	snap := snapshot.Build(e.w, e.tick, raw)
	entry := e.history.Update(snap)
	observability.SetHistoryLength(e.history.Len())

	mass, avgTemp, surplus := worldAggregates(e.w)
	observability.SetWorldAggregates(mass, avgTemp, surplus)

	if e.fan != nil {
		e.fan.Broadcast(entry.EncodedDelta)
		observability.SetSubscriberCount(e.fan.Count())
	}
	if e.statusFeed != nil {
		e.statusFeed.Publish(observability.TickEvent{Tick: snap.Header.Tick, Hash: snap.Header.Hash})
	}
}

// worldAggregates sums tile mass and temperature and power surplus for
// the observability gauges. These are display-only: nothing in a phase
// ever reads them back.
func worldAggregates(w *world.World) (mass, avgTemp, surplus float64) {
	tileIDs := w.TileIDs()
	var massSum, tempSum fixedpoint.Scalar
	for _, id := range tileIDs {
		t := w.Tile(id)
		massSum = massSum.Add(t.Mass)
		tempSum = tempSum.Add(t.Temperature)
	}
	mass = float64(massSum.ToFloat32())
	if len(tileIDs) > 0 {
		avgTemp = float64(tempSum.ToFloat32()) / float64(len(tileIDs))
	}

	var surplusSum fixedpoint.Scalar
	for _, id := range w.PowerIDs() {
		p := w.Power(id)
		surplusSum = surplusSum.Add(p.Generation.Sub(p.Demand))
	}
	surplus = float64(surplusSum.ToFloat32())
	return mass, avgTemp, surplus
}

// DrainAndApply drains every command currently queued and applies them
// in order. A rollback that is applied discards the rest of the batch:
// every command after it in the batch was queued against state that no
// longer exists once the rollback completes. A rejected rollback does
// not stop the batch.
func (e *Engine) DrainAndApply(queue <-chan command.Command) {
	for _, cmd := range command.DrainNow(queue) {
		if !e.ApplyCommand(cmd) {
			continue
		}
		if cmd.Kind == command.KindRollback {
			return
		}
	}
}

// ApplyCommand applies a single parsed command. It returns false if the
// command was rejected (e.g. rollback to an unknown tick, bias for an
// out-of-range axis); the caller is expected to have already logged the
// parse itself and only needs the accept/reject metrics split here.
func (e *Engine) ApplyCommand(cmd command.Command) bool {
	switch cmd.Kind {
	case command.KindTurn:
		steps := cmd.Steps
		if steps == 0 {
			steps = 1
		}
		e.RunTick(steps)
		observability.IncCommandAccepted()
		return true

	case command.KindHeat:
		e.mu.Lock()
		t := e.w.Tile(world.Entity(cmd.Entity))
		if t == nil {
			e.mu.Unlock()
			log.Printf("⚠️  heat command: unknown tile %d", cmd.Entity)
			observability.IncCommandRejected()
			return false
		}
		t.Temperature = t.Temperature.Add(fixedpoint.FromRaw(cmd.Delta))
		e.mu.Unlock()
		observability.IncCommandAccepted()
		return true

	case command.KindOrders:
		// Faction order gating has no effect on the four core phases;
		// accepted and logged for operator visibility only.
		log.Printf("📋 order: faction=%d directive=%s", cmd.Faction, cmd.Directive)
		observability.IncCommandAccepted()
		return true

	case command.KindRollback:
		if err := e.Rollback(cmd.Tick); err != nil {
			log.Printf("⚠️  rollback to tick %d rejected: %v", cmd.Tick, err)
			observability.IncRollbackRejected()
			return false
		}
		observability.IncRollbackAccepted()
		return true

	case command.KindAxisBias:
		if cmd.Axis >= wire.AxisCount {
			log.Printf("⚠️  bias command: axis %d out of range", cmd.Axis)
			observability.IncCommandRejected()
			return false
		}
		e.mu.Lock()
		e.axisBias[cmd.Axis] = fixedpoint.FromFloat32(cmd.Value)
		e.mu.Unlock()
		observability.IncCommandAccepted()
		return true

	default:
		observability.IncCommandRejected()
		return false
	}
}

// Rollback restores the world to the state it held at tick, truncating
// history of every tick after it and restoring the axis bias vector
// that was in effect at that tick.
func (e *Engine) Rollback(tick uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	entry, err := e.history.ResetToEntry(tick)
	if err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	snapshot.RestoreFromSnapshot(e.w, entry.Snapshot)
	e.tick = entry.Tick
	for i, raw := range entry.Snapshot.Header.AxisBias {
		e.axisBias[i] = fixedpoint.FromRaw(raw)
	}
	observability.SetHistoryLength(e.history.Len())

	// A delta against the truncated-away future tick would describe
	// changes no longer reachable from here; subscribers resync against
	// the full restored snapshot instead.
	if e.fan != nil {
		e.fan.Broadcast(entry.EncodedSnapshot)
	}
	if e.statusFeed != nil {
		e.statusFeed.Publish(observability.TickEvent{Tick: entry.Tick, Hash: entry.Snapshot.Header.Hash})
	}

	log.Printf("⏪ rolled back to tick %d", tick)
	return nil
}
