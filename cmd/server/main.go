package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/danielpatrickdp/mirror-console/internal/chat"
	"github.com/danielpatrickdp/mirror-console/internal/config"
	"github.com/danielpatrickdp/mirror-console/internal/journal"
	"github.com/danielpatrickdp/mirror-console/internal/observability"
	"github.com/danielpatrickdp/mirror-console/internal/transport"
)

// serverConfig is read from MIRROR_* variables; flags override it.
type serverConfig struct {
	Addr          string `env:"MIRROR_HTTP_ADDR" envDefault:":8080"`
	Profile       string `env:"MIRROR_PROFILE"`
	JournalPath   string `env:"MIRROR_JOURNAL" envDefault:":memory:"`
	NarrationAddr string `env:"MIRROR_NARRATION_ADDR"`
	AutoStart     bool   `env:"MIRROR_AUTOSTART"`
	Seed          config.Seed
	Tracing       observability.TracingConfig
}

// #region main
func main() {
	var cfg serverConfig
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("config: %v", err)
	}
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	flag.StringVar(&cfg.Profile, "profile", cfg.Profile, "YAML tuning profile")
	flag.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "SQLite journal path (:memory: keeps it in process)")
	flag.StringVar(&cfg.NarrationAddr, "narration", cfg.NarrationAddr, "narration gRPC address (empty uses the offline narrator)")
	flag.BoolVar(&cfg.AutoStart, "autostart", cfg.AutoStart, "start the clock immediately")
	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// #endregion main

// #region run
func run(cfg serverConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.Default()

	profile, err := config.LoadProfile(cfg.Profile)
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.Setup(ctx, "mirror-server", cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Printf("[OTEL] shutdown: %v", err)
		}
	}()

	seed := cfg.Seed
	if seed == (config.Seed{}) {
		seed = config.RandomSeed()
	}
	driver := profile.NewDriver(seed, logger)

	j, err := journal.Open(cfg.JournalPath, logger)
	if err != nil {
		return err
	}
	defer j.Close()

	narrator, closeNarrator, err := profile.NewNarrator(cfg.NarrationAddr)
	if err != nil {
		return err
	}
	defer closeNarrator()
	session := chat.NewSession(profile.Chat, narrator, driver.Snapshot, chat.WithLogger(logger))

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(reg)

	journalCh, cancelJournal := driver.Subscribe(16)
	defer cancelJournal()
	go func() {
		if err := j.Follow(ctx, journalCh); err != nil && !errors.Is(err, context.Canceled) {
			logger.Printf("[JOURNAL] follow: %v", err)
		}
	}()
	metricsCh, cancelMetrics := driver.Subscribe(16)
	defer cancelMetrics()
	go metrics.Follow(ctx, metricsCh)

	go driver.Run(ctx)
	if cfg.AutoStart {
		driver.ToggleRunning()
	}

	srv := transport.NewServer(transport.Deps{
		Driver:      driver,
		Auditor:     profile.NewAuditor(),
		Chat:        session,
		Journal:     j,
		Gatherer:    reg,
		Logger:      logger,
		BaseContext: ctx,
	})
	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("[HTTP] listening on %s (journal run %s, seed %d/%d)", cfg.Addr, j.RunID(), seed.A, seed.B)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		logger.Println("[HTTP] shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	session.Wait()
	return nil
}

// #endregion run
