package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"holdfast/internal/command"
	"holdfast/internal/engine"
	"holdfast/internal/fanout"
	"holdfast/internal/observability"
	"holdfast/internal/simconfig"
)

func main() {
	log.Println("🎮 ================================")
	log.Println("🎮  HOLDFAST - SIMULATION CORE")
	log.Println("🎮  Deterministic turn-based world engine")
	log.Println("🎮 ================================")

	cfg := simconfig.Load()
	log.Printf("🗺️  grid %dx%d, history capacity %d", cfg.Grid.Width, cfg.Grid.Height, cfg.History.Capacity)

	sim := engine.New(cfg)
	log.Printf("✅ world spawned, tick 0 committed (hash=%x)", sim.LatestHash())

	fan, err := fanout.Listen(cfg.Network.SnapshotAddr, fanout.DefaultQueueSize)
	if err != nil {
		log.Fatalf("snapshot fan-out listen on %s: %v", cfg.Network.SnapshotAddr, err)
	}
	sim.AttachFanout(fan)
	go fan.Run()
	log.Printf("📡 snapshot fan-out listening on %s", cfg.Network.SnapshotAddr)

	intake, err := command.Listen(cfg.Network.CommandAddr)
	if err != nil {
		log.Fatalf("command intake listen on %s: %v", cfg.Network.CommandAddr, err)
	}
	go intake.Run()
	log.Printf("📋 command intake listening on %s", cfg.Network.CommandAddr)

	statusFeed := observability.NewStatusFeed()
	sim.AttachStatusFeed(statusFeed)
	go observability.StartServer(cfg.Network.ObservAddr, observability.RouterConfig{
		Engine:     sim,
		StatusFeed: statusFeed,
	})
	log.Printf("📊 observability server on %s", cfg.Network.ObservAddr)

	ticker := time.NewTicker(engine.CommandPollInterval)
	defer ticker.Stop()
	go func() {
		for range ticker.C {
			sim.DrainAndApply(intake.Queue())
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	log.Println("✅ Simulation ready! Press Ctrl+C to stop.")
	<-quit

	log.Println("🛑 Shutting down...")
	if err := intake.Close(); err != nil {
		log.Printf("⚠️  command intake close: %v", err)
	}
	if err := fan.Close(); err != nil {
		log.Printf("⚠️  snapshot fan-out close: %v", err)
	}
	log.Println("👋 Goodbye!")
}
