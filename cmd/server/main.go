package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lost-and-found/server/internal/app"
)

func main() {
	var (
		configPath = flag.String("config", "config/config.json", "path to the world configuration document")
		addr       = flag.String("addr", ":8080", "listen address")
		tickPeriod = flag.Int("tick-period", 0, "automatic tick period in milliseconds, 0 enables the manual tick endpoint")
		randomize  = flag.Bool("randomize-spawn-points", false, "spawn dogs at random road points instead of the first road's start")
		dsn        = flag.String("db-dsn", os.Getenv("GAME_DB_DSN"), "MySQL DSN for retirement records, empty keeps them in memory")
		poolSize   = flag.Int("pool-size", 0, "records database connection pool size")
		logJSON    = flag.String("log-json", "", "append structured events to this file")
		seed       = flag.String("seed", "", "deterministic seed for spawn selection")
	)
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := app.Config{
		ConfigPath:     *configPath,
		Addr:           *addr,
		TickPeriod:     time.Duration(*tickPeriod) * time.Millisecond,
		RandomizeSpawn: *randomize,
		DSN:            *dsn,
		PoolSize:       *poolSize,
		LogJSON:        *logJSON,
		Seed:           *seed,
	}
	if err := app.Run(ctx, cfg); err != nil {
		log.Fatalf("%v", err)
	}
}
