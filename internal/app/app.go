// Package app boots the server: logging router, world config, records store,
// game and HTTP surface, then runs until the context is cancelled.
package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"lost-and-found/server/internal/game"
	"lost-and-found/server/internal/loot"
	servernet "lost-and-found/server/internal/net"
	"lost-and-found/server/internal/records"
	"lost-and-found/server/internal/world"
	"lost-and-found/server/logging"
	"lost-and-found/server/logging/simulation"
	loggingSinks "lost-and-found/server/logging/sinks"
)

type Config struct {
	// ConfigPath locates the world document. Required.
	ConfigPath string
	// Addr is the listen address, ":8080" when empty.
	Addr string
	// TickPeriod drives the automatic simulation loop. Zero disables it
	// and exposes the manual tick endpoint instead.
	TickPeriod time.Duration
	// RandomizeSpawn places joining dogs on a random road point.
	RandomizeSpawn bool
	// DSN selects the MySQL records store. Empty keeps records in memory.
	DSN      string
	PoolSize int
	// LogJSON appends structured events to the given file when set.
	LogJSON string
	// Seed makes spawn selection reproducible when set.
	Seed   string
	Logger *log.Logger
}

func Run(ctx context.Context, cfg Config) error {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}

	logCfg := logging.DefaultConfig()
	if cfg.LogJSON != "" {
		logCfg.EnabledSinks = append(logCfg.EnabledSinks, "json")
		logCfg.JSON.FilePath = cfg.LogJSON
	}
	var namedSinks []logging.NamedSink
	if logCfg.HasSink("console") {
		namedSinks = append(namedSinks, logging.NamedSink{Name: "console", Sink: loggingSinks.NewConsoleSink(os.Stdout, logCfg.Console)})
	}
	if logCfg.HasSink("json") {
		f, err := os.OpenFile(logCfg.JSON.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open json event log: %w", err)
		}
		defer f.Close()
		namedSinks = append(namedSinks, logging.NamedSink{Name: "json", Sink: loggingSinks.NewJSON(f, logCfg.JSON.FlushInterval)})
	}
	router, err := logging.NewRouter(nil, logCfg, namedSinks)
	if err != nil {
		return fmt.Errorf("construct logging router: %w", err)
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if cerr := router.Close(closeCtx); cerr != nil {
			logger.Printf("failed to close logging router: %v", cerr)
		}
	}()

	w, err := world.LoadFile(cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load world config: %w", err)
	}

	var store records.Store
	if cfg.DSN != "" {
		sqlStore, err := records.OpenSQL(ctx, cfg.DSN, cfg.PoolSize)
		if err != nil {
			return fmt.Errorf("open records store: %w", err)
		}
		defer func() {
			if cerr := sqlStore.Close(); cerr != nil {
				logger.Printf("failed to close records store: %v", cerr)
			}
		}()
		store = sqlStore
	} else {
		logger.Printf("no database DSN, keeping retirement records in memory")
		store = records.NewMemoryStore()
	}

	recorder := records.NewRecorder(store, router, records.RecorderConfig{})
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := recorder.Close(closeCtx); cerr != nil {
			logger.Printf("failed to flush retirement records: %v", cerr)
		}
	}()

	deps := game.Deps{
		Publisher: router,
		Loot:      loot.NewGenerator(w.LootConfig()),
	}
	if cfg.Seed != "" {
		deps.RNG = world.NewDeterministicRNG(cfg.Seed, "spawn")
	}
	g := game.New(w, deps, game.Options{RandomizeSpawn: cfg.RandomizeSpawn})
	g.SetRetirementCallback(recorder.Record)

	stream := servernet.NewStream(g, logger)
	defer stream.CloseAll()

	handler := servernet.NewHTTPHandler(g, servernet.HTTPHandlerConfig{
		Records:   store,
		Stream:    stream,
		AllowTick: cfg.TickPeriod <= 0,
		Logger:    logger,
	})

	if cfg.TickPeriod > 0 {
		stop := make(chan struct{})
		go runSimulation(g, stream, router, cfg.TickPeriod, logger, stop)
		defer close(stop)
	} else {
		logger.Printf("automatic ticks disabled, POST /api/v1/game/tick drives the clock")
	}

	srv := &http.Server{Addr: addr, Handler: handler}
	errCh := make(chan error, 1)
	go func() {
		logger.Printf("server listening on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// runSimulation ticks the game at the configured period, measuring the real
// elapsed time between wakeups so a delayed tick does not slow the world.
func runSimulation(g *game.Game, stream *servernet.Stream, pub logging.Publisher, period time.Duration, logger *log.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-stop:
			return
		case now := <-ticker.C:
			dt := now.Sub(last)
			if dt <= 0 {
				continue
			}
			last = now
			started := time.Now()
			if err := g.Tick(dt); err != nil {
				logger.Printf("tick failed: %v", err)
			}
			if elapsed := time.Since(started); elapsed > period {
				simulation.TickBudgetOverrun(context.Background(), pub, g.Diagnostics().Tick, simulation.TickBudgetOverrunPayload{
					DurationMillis: elapsed.Milliseconds(),
					BudgetMillis:   period.Milliseconds(),
					Ratio:          float64(elapsed) / float64(period),
				})
			}
			stream.Broadcast()
		}
	}
}
