package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/danielpatrickdp/mirror-console/internal/chat"
	"github.com/danielpatrickdp/mirror-console/internal/config"
	"github.com/danielpatrickdp/mirror-console/internal/console"
	"github.com/danielpatrickdp/mirror-console/internal/journal"
)

type consoleConfig struct {
	Profile       string `env:"MIRROR_PROFILE"`
	NarrationAddr string `env:"MIRROR_NARRATION_ADDR"`
	JournalPath   string `env:"MIRROR_JOURNAL"`
	LogPath       string `env:"MIRROR_LOG"`
	AutoStart     bool   `env:"MIRROR_AUTOSTART"`
	Seed          config.Seed
}

// #region main
func main() {
	var cfg consoleConfig
	if err := config.ParseEnv(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(2)
	}
	flag.StringVar(&cfg.Profile, "profile", cfg.Profile, "YAML tuning profile")
	flag.StringVar(&cfg.NarrationAddr, "narration", cfg.NarrationAddr, "narration gRPC address (empty uses the offline narrator)")
	flag.StringVar(&cfg.JournalPath, "journal", cfg.JournalPath, "record gate/contradiction journal to this SQLite file")
	flag.StringVar(&cfg.LogPath, "log", cfg.LogPath, "write logs to this file (default: discarded)")
	flag.BoolVar(&cfg.AutoStart, "autostart", cfg.AutoStart, "start the clock immediately")
	flag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run
func run(cfg consoleConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	// The alt screen owns the terminal; logs go to a file or nowhere.
	var logOut io.Writer = io.Discard
	if cfg.LogPath != "" {
		f, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	log.SetOutput(logOut)
	logger := log.New(logOut, "", log.LstdFlags)

	profile, err := config.LoadProfile(cfg.Profile)
	if err != nil {
		return err
	}

	seed := cfg.Seed
	if seed == (config.Seed{}) {
		seed = config.RandomSeed()
	}
	driver := profile.NewDriver(seed, logger)

	narrator, closeNarrator, err := profile.NewNarrator(cfg.NarrationAddr)
	if err != nil {
		return err
	}
	defer closeNarrator()
	session := chat.NewSession(profile.Chat, narrator, driver.Snapshot, chat.WithLogger(logger))

	if cfg.JournalPath != "" {
		j, err := journal.Open(cfg.JournalPath, logger)
		if err != nil {
			return err
		}
		defer j.Close()
		ch, cancel := driver.Subscribe(16)
		defer cancel()
		go func() {
			if err := j.Follow(ctx, ch); err != nil && !errors.Is(err, context.Canceled) {
				logger.Printf("[JOURNAL] follow: %v", err)
			}
		}()
	}

	go driver.Run(ctx)
	if cfg.AutoStart {
		driver.ToggleRunning()
	}

	model := console.New(ctx, profile.Console, driver, session, profile.NewAuditor())
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run console: %w", err)
	}
	stop()
	return nil
}

// #endregion run
