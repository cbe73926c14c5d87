// Package main is the entry point for the Quiet Depths game server.
// It only handles dependency injection and server initialization.
// NO business logic belongs here.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/MRamiBalles/QuietDepths/internal/clock"
	"github.com/MRamiBalles/QuietDepths/internal/config"
	"github.com/MRamiBalles/QuietDepths/internal/domain/catalog"
	"github.com/MRamiBalles/QuietDepths/internal/engine"
	"github.com/MRamiBalles/QuietDepths/internal/events"
	"github.com/MRamiBalles/QuietDepths/internal/infra/storage"
	"github.com/MRamiBalles/QuietDepths/internal/network"
	"github.com/MRamiBalles/QuietDepths/internal/platform/logger"
	"github.com/MRamiBalles/QuietDepths/internal/platform/metrics"
)

func main() {
	log.Println("[DEPTHS-SERVER] Initializing 'Quiet Depths' session server...")

	appLogger := logger.NewLogger()
	cfg := config.FromEnv()
	sessionID := uuid.NewString()
	appLogger.Info("Session " + sessionID)

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		appLogger.Info("Loading catalog override " + cfg.CatalogPath)
		override, err := catalog.LoadFile(cfg.CatalogPath)
		if err != nil {
			appLogger.Error("Failed to load catalog: " + err.Error())
			os.Exit(1)
		}
		cat = override
	}

	appLogger.Info("Initializing SQLite database '" + cfg.DBPath + "'...")
	db, err := storage.InitSQLite(cfg.DBPath)
	if err != nil {
		appLogger.Error("Failed to initialize SQLite: " + err.Error())
		os.Exit(1)
	}
	defer db.Close()
	saveRepo := storage.NewSQLiteSaveRepository(db)
	journalRepo := storage.NewSQLiteJournalRepository(db)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clk := clock.RealClock{}
	journal := events.NewJournal(cfg.JournalCapacity, clk, journalRepo)
	if recent, err := journalRepo.Recent(ctx, cfg.JournalCapacity); err != nil {
		appLogger.Warn("Journal history unavailable: " + err.Error())
	} else {
		journal.Rehydrate(recent)
		appLogger.Info(fmt.Sprintf("Journal restored: %d entries, last seq %d", len(recent), journal.LastSeq()))
	}

	appLogger.Info("Bootstrapping Engine...")
	gameEngine := engine.New(cat, saveRepo, clk, engine.NewRandom(), cfg, appLogger, journal)

	gameEngine.Restore(ctx)
	gameEngine.Start(ctx)

	appLogger.Info("Bootstrapping WebSocket Hub...")
	hub := network.NewHub(gameEngine, cfg, appLogger)
	hub.AttachJournal(journal)
	hubCtx, stopHub := context.WithCancel(ctx)
	defer stopHub()
	go hub.Run(hubCtx)
	hub.StartStatePusher(hubCtx, 250*time.Millisecond)

	// Setup API Routes
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", hub.ServeWS)
	network.NewSaveAPI(gameEngine, hub, appLogger).RegisterRoutes(mux)
	network.NewJournalHandler(journal, appLogger).RegisterRoutes(mux)
	mux.HandleFunc("/metrics", metrics.Handler())
	mux.HandleFunc("/metrics/prometheus", metrics.PrometheusHandler())

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Println("[DEPTHS-SERVER] HTTP API & WS Server listening on " + cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	log.Println("[DEPTHS-SERVER] Server running. Press Ctrl+C to exit.")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[DEPTHS-SERVER] Shutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warn("HTTP shutdown: " + err.Error())
	}
	// Shutdown leaves hijacked websocket conns open; the hub closes them so
	// no player action lands after the final save.
	stopHub()
	select {
	case <-hub.Done():
	case <-shutdownCtx.Done():
		appLogger.Warn("WebSocket hub did not stop in time")
	}
	if err := gameEngine.Stop(shutdownCtx); err != nil {
		appLogger.Error("Final save failed: " + err.Error())
	}
	cancel()
}
