package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielpatrickdp/mirror-console/internal/config"
	"github.com/danielpatrickdp/mirror-console/internal/narration"
	"github.com/danielpatrickdp/mirror-console/internal/observability"
)

type narratordConfig struct {
	Addr       string        `env:"MIRROR_NARRATION_LISTEN" envDefault:":50061"`
	Profile    string        `env:"MIRROR_PROFILE"`
	Legacy     bool          `env:"MIRROR_NARRATION_LEGACY"`
	ChunkWords int           `env:"MIRROR_NARRATION_CHUNK_WORDS" envDefault:"4"`
	ChunkDelay time.Duration `env:"MIRROR_NARRATION_CHUNK_DELAY" envDefault:"40ms"`
	Tracing    observability.TracingConfig
}

// #region main
func main() {
	var cfg narratordConfig
	if err := config.ParseEnv(&cfg); err != nil {
		log.Fatalf("config: %v", err)
	}
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "gRPC listen address")
	flag.StringVar(&cfg.Profile, "profile", cfg.Profile, "YAML tuning profile (gate bounds cited in narration)")
	flag.BoolVar(&cfg.Legacy, "legacy", cfg.Legacy, "embed audits as AUDIT_BLOCK text instead of audit frames")
	flag.IntVar(&cfg.ChunkWords, "chunk-words", cfg.ChunkWords, "words per streamed frame")
	flag.DurationVar(&cfg.ChunkDelay, "chunk-delay", cfg.ChunkDelay, "pause between streamed frames")
	flag.Parse()

	if err := run(cfg); err != nil {
		log.Fatalf("narratord: %v", err)
	}
}

// #endregion main

func run(cfg narratordConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	profile, err := config.LoadProfile(cfg.Profile)
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.Setup(ctx, "mirror-narratord", cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	lis, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return err
	}

	backend := narration.NewOffline(narration.OfflineConfig{
		Gate:       profile.Gate,
		ChunkWords: cfg.ChunkWords,
		ChunkDelay: cfg.ChunkDelay,
	})
	srv := narration.NewGRPCServer()
	narration.Register(srv, backend, narration.ServerConfig{LegacyFraming: cfg.Legacy}, log.Default())

	go func() {
		<-ctx.Done()
		log.Println("[NARRATE] shutting down")
		srv.GracefulStop()
	}()

	log.Printf("[NARRATE] listening on %s (legacy=%v)", lis.Addr(), cfg.Legacy)
	return srv.Serve(lis)
}
