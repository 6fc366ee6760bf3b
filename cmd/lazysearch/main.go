package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/lazysearch/lazysearch/internal/api"
	"github.com/lazysearch/lazysearch/internal/bootstrap"
	"github.com/lazysearch/lazysearch/internal/config"
	"github.com/lazysearch/lazysearch/internal/health"
	"github.com/lazysearch/lazysearch/internal/metrics"
	"github.com/lazysearch/lazysearch/internal/scheduler"
	"github.com/lazysearch/lazysearch/internal/scheduler/tasks"
	"github.com/lazysearch/lazysearch/internal/session"
	"github.com/lazysearch/lazysearch/internal/startup"
)

const rateLimitPruneCron = "*/10 * * * *"

func main() {
	configPath := flag.String("config", "", "Path to config file")
	printConfig := flag.Bool("print-config", false, "Print the effective configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if *printConfig {
		out, err := cfg.Dump()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to render config: %v\n", err)
			os.Exit(1)
		}
		_, _ = os.Stdout.Write(out)
		return
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration:\n%v\n", err)
		os.Exit(1)
	}

	log := bootstrap.NewLogger(cfg, nil)
	defer log.Close()

	log.Info().
		Str("logLevel", cfg.Logging.Level).
		Bool("developerMode", cfg.DeveloperMode).
		Msg("starting lazysearch")

	m := metrics.New()

	provider, err := bootstrap.NewProvider(cfg, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to configure indexes")
	}
	provider.SetObserver(m)

	hub := session.NewHub(provider, session.Config{
		DefaultIndex: cfg.DefaultIndex(),
		Delay:        cfg.Search.Delay,
		HitsPerPage:  cfg.Search.HitsPerPage,
		PingTimeout:  cfg.Search.PingTimeout,
		StaleResults: cfg.Search.StaleResults,
	}, log.Logger)
	hub.SetObserver(m)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	healthSvc := health.NewService(log.Logger)
	healthSvc.SetBroadcaster(hub)
	for _, name := range provider.Names() {
		healthSvc.Register(name, name)
	}

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := tasks.RegisterCacheRefreshTask(sched, hub, provider, cfg.Scheduler.CacheRefreshCron, log.WithComponent("tasks").Logger); err != nil {
		log.Fatal().Err(err).Msg("failed to register cache refresh task")
	}
	if err := tasks.RegisterIndexHealthTask(sched, provider, healthSvc, cfg.Scheduler.IndexHealthCron, log.WithComponent("tasks").Logger); err != nil {
		log.Fatal().Err(err).Msg("failed to register index health task")
	}

	server := api.NewServer(api.Deps{
		Indexes:         provider,
		Sessions:        hub,
		Health:          healthSvc,
		Scheduler:       sched,
		Metrics:         m.Handler(),
		Logs:            log.Recent(),
		LogFile:         bootstrap.LogFile(cfg),
		SearchRateLimit: cfg.Server.SearchRateLimit,
	}, log.Logger)

	if cfg.Server.SearchRateLimit > 0 {
		err := sched.RegisterTask(scheduler.TaskConfig{
			ID:          "rate-limit-prune",
			Name:        "Rate Limit Prune",
			Description: "Drops expired per-client search rate limit windows",
			Cron:        rateLimitPruneCron,
			Func: func(ctx context.Context) error {
				server.PruneRateLimits()
				return nil
			},
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to register rate limit prune task")
		}
	}

	sched.Start()

	if name := cfg.DefaultIndex(); name != "" {
		go waitForIndex(ctx, provider, healthSvc, name, cfg.Search.PingTimeout, log.WithComponent("startup").Logger)
	}

	go func() {
		if err := server.Start(cfg.Server.Address()); err != nil {
			log.Info().Err(err).Msg("server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info().Msg("received shutdown signal")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown error")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown error")
	}
	cancel()

	log.Info().Msg("lazysearch stopped")
}

// waitForIndex pings the default index with backoff so transient failures
// at boot do not leave it marked unhealthy until the next health check.
func waitForIndex(ctx context.Context, pinger health.Pinger, healthSvc *health.Service, name string, timeout time.Duration, logger zerolog.Logger) {
	err := startup.WithRetry(ctx, "index readiness", startup.DefaultRetryConfig(), func(ctx context.Context) error {
		pingCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return pinger.Ping(pingCtx, name)
	}, logger)
	if ctx.Err() != nil {
		return
	}
	healthSvc.Record(name, err)
	if err == nil {
		logger.Info().Str("index", name).Msg("default index is ready")
	}
}
