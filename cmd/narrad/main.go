package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/narralabs/narra-core/internal/batch"
	"github.com/narralabs/narra-core/internal/bus"
	"github.com/narralabs/narra-core/internal/config"
	"github.com/narralabs/narra-core/internal/jobstore"
	"github.com/narralabs/narra-core/internal/mixer"
	"github.com/narralabs/narra-core/internal/narrate"
	"github.com/narralabs/narra-core/internal/natsserver"
	"github.com/narralabs/narra-core/internal/runtime"
	"github.com/narralabs/narra-core/internal/synth"
	"github.com/narralabs/narra-core/internal/voices"
)

var version = "0.1.0-dev"

func main() {
	var (
		configPath  string
		showVersion bool
	)

	flag.StringVar(&configPath, "config", "narra.yaml", "Path to configuration file")
	flag.BoolVar(&showVersion, "version", false, "Print version and exit")
	flag.Parse()

	if showVersion {
		fmt.Println(version)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedded, err := natsserver.Start(cfg.Bus, logger)
	if err != nil {
		logger.Error("failed to start embedded NATS", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer embedded.Shutdown()
	if embedded != nil {
		cfg.Bus.Servers = []string{embedded.ClientURL()}
	}

	busClient, err := bus.Connect(cfg.Bus, logger)
	if err != nil {
		logger.Error("failed to connect to NATS", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer busClient.Close()

	store, err := jobstore.Open(ctx, cfg.JobStore, logger)
	if err != nil {
		logger.Error("failed to open job store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer store.Close()

	registry := voices.NewRegistry(cfg.Voices)

	streamer, err := synth.NewStreamer(cfg.Synthesis)
	if err != nil {
		logger.Error("failed to build synthesis backend", slog.String("error", err.Error()))
		os.Exit(1)
	}
	synthesizer := synth.NewSynthesizer(streamer, cfg.Synthesis, logger)

	mx, err := mixer.NewFromConfig(cfg.Mixer, logger)
	if err != nil {
		logger.Error("failed to build mixer", slog.String("error", err.Error()))
		os.Exit(1)
	}

	runner := batch.NewRunner(synthesizer, mx, cfg.Batch, logger)

	service := narrate.NewService(ctx, cfg, busClient, registry, synthesizer, mx, runner, store, logger)
	if err := service.Start(); err != nil {
		logger.Error("failed to start narrate service", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer service.Close()

	rt := runtime.New(cfg, logger, busClient, service)
	if err := rt.Start(ctx); err != nil {
		logger.Error("runtime exited with error", slog.String("error", err.Error()))
		time.Sleep(1 * time.Second)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}
