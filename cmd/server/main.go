package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	httpapi "github.com/jiazengp/peekd/internal/api/http"
	"github.com/jiazengp/peekd/internal/application/engine"
	"github.com/jiazengp/peekd/internal/application/notify"
	appStanding "github.com/jiazengp/peekd/internal/application/standing"
	"github.com/jiazengp/peekd/internal/config"
	domainStanding "github.com/jiazengp/peekd/internal/domain/standing"
	"github.com/jiazengp/peekd/internal/infrastructure/memory"
	"github.com/jiazengp/peekd/internal/infrastructure/postgres"
	"github.com/jiazengp/peekd/internal/infrastructure/sched"
	"github.com/jiazengp/peekd/internal/infrastructure/sse"
	"github.com/jiazengp/peekd/internal/obs"
)

// schedulerAdapter narrows the concrete scheduler to the engine's port.
type schedulerAdapter struct {
	s *sched.Scheduler
}

func (a schedulerAdapter) Schedule(d time.Duration, fn func()) engine.Timer {
	return a.s.Schedule(d, fn)
}

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	obs.Init()

	// Storage: postgres when configured, in-memory otherwise. Standing data
	// is the only durable state; requests and sessions are transient.
	var standingRepo domainStanding.Repository
	var statsSink engine.StatsSink
	if cfg.DatabaseURL != "" {
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db error: %v", err)
		}
		defer pool.Close()
		if err := postgres.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("schema error: %v", err)
		}
		standingRepo = postgres.NewStandingRepository(pool)
		statsSink = postgres.NewStatsRepository(pool, logger)
	} else {
		logger.Warn().Msg("DATABASE_URL not set, standing data will not survive restarts")
		standingRepo = memory.NewStandingRepository()
	}

	standingSvc, err := appStanding.NewService(ctx, standingRepo, logger)
	if err != nil {
		log.Fatalf("standing service error: %v", err)
	}

	sseHub := sse.NewHub()
	defer sseHub.Stop()
	notifySvc := notify.NewService(sseHub, logger)

	scheduler := sched.NewScheduler()
	defer scheduler.Close()

	engineCfg, err := cfg.EngineConfig()
	if err != nil {
		log.Fatalf("engine config error: %v", err)
	}
	eng := engine.NewEngine(schedulerAdapter{s: scheduler}, standingSvc, notifySvc, statsSink, engineCfg, logger)

	// Hot reload of the YAML overlay, when one is configured. The admin
	// endpoint triggers the same path.
	var reload func()
	if cfg.ConfigFile != "" {
		watcher, err := config.NewWatcher(cfg, logger)
		if err != nil {
			log.Fatalf("config watcher error: %v", err)
		}
		watcher.OnChange(func(next *config.Config) {
			ec, err := next.EngineConfig()
			if err != nil {
				logger.Error().Err(err).Msg("reloaded config rejected")
				return
			}
			eng.UpdateConfig(ec)
		})
		if err := watcher.Start(); err != nil {
			log.Fatalf("config watcher error: %v", err)
		}
		defer watcher.Stop()
		reload = watcher.Reload
	}

	apiServer := httpapi.NewServer(eng, standingSvc, sseHub, reload, cfg.OperatorKeyHash, logger)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      apiServer.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", cfg.ServerAddr).Msg("http server started")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(ctxShutdown)
}
