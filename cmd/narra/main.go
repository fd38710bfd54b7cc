// narra narrates text documents from the command line. It runs the full
// pipeline in-process: no daemon or bus required.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/narralabs/narra-core/internal/batch"
	"github.com/narralabs/narra-core/internal/config"
	"github.com/narralabs/narra-core/internal/mixer"
	"github.com/narralabs/narra-core/internal/narrate"
	"github.com/narralabs/narra-core/internal/synth"
	"github.com/narralabs/narra-core/internal/voices"
)

func main() {
	var (
		configPath string
		voice      string
		style      string
		rate       int
		volume     int
		bgPath     string
		bgGain     float64
		outDir     string
	)

	flag.StringVar(&configPath, "config", "", "Path to configuration file (optional)")
	flag.StringVar(&voice, "voice", "", "Voice display name (default from config)")
	flag.StringVar(&style, "style", "", "Speaking style")
	flag.IntVar(&rate, "rate", 100, "Speaking rate, 50-200 (100 = normal)")
	flag.IntVar(&volume, "volume", 100, "Voice volume, 0-100")
	flag.StringVar(&bgPath, "bg", "", "Background music file (optional)")
	flag.Float64Var(&bgGain, "bg-gain", -20, "Background gain in dB, -40..0")
	flag.StringVar(&outDir, "out", ".", "Output directory for audio files")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: narra [flags] file.txt [file.txt ...]")
		flag.PrintDefaults()
		os.Exit(2)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "narra: %v\n", err)
		os.Exit(1)
	}
	if voice == "" {
		voice = cfg.Synthesis.DefaultVoice
	}
	if style == "" {
		style = cfg.Synthesis.DefaultStyle
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := voices.NewRegistry(cfg.Voices)

	var background []byte
	if bgPath != "" {
		background, err = os.ReadFile(bgPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "narra: read background: %v\n", err)
			os.Exit(1)
		}
	}

	settings, err := narrate.BuildSettings(registry, voice, style, rate, volume, background, bgGain)
	if err != nil {
		fmt.Fprintf(os.Stderr, "narra: %v\n", err)
		os.Exit(1)
	}

	all := make([]batch.Item, 0, flag.NArg())
	for _, path := range flag.Args() {
		text, err := os.ReadFile(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "narra: read %s: %v\n", path, err)
			os.Exit(1)
		}
		all = append(all, batch.Item{Name: filepath.Base(path), Text: string(text)})
	}
	items, positions, results := splitEmptyDocuments(all)

	streamer, err := synth.NewStreamer(cfg.Synthesis)
	if err != nil {
		fmt.Fprintf(os.Stderr, "narra: %v\n", err)
		os.Exit(1)
	}
	synthesizer := synth.NewSynthesizer(streamer, cfg.Synthesis, logger)

	mx, err := mixer.NewFromConfig(cfg.Mixer, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "narra: %v\n", err)
		os.Exit(1)
	}

	runner := batch.NewRunner(synthesizer, mx, cfg.Batch, logger)
	for j, res := range runner.Run(ctx, items, settings) {
		results[positions[j]] = res
	}

	failed := 0
	for _, res := range results {
		if !res.Succeeded() {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: %v\n", res.Name, res.Err)
			continue
		}
		outPath := filepath.Join(outDir, res.Artifact.Name)
		if err := os.WriteFile(outPath, res.Artifact.Data, 0o644); err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "FAIL %s: write output: %v\n", res.Name, err)
			continue
		}
		fmt.Printf("ok   %s -> %s\n", res.Name, outPath)
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d documents failed\n", failed, len(results))
		os.Exit(1)
	}
}

// splitEmptyDocuments fails documents with no usable text up front, so they
// never open a synthesis session. The returned results slice has a slot per
// input; positions maps runner output back to those slots.
func splitEmptyDocuments(all []batch.Item) (items []batch.Item, positions []int, results []batch.Result) {
	results = make([]batch.Result, len(all))
	for i, item := range all {
		if strings.TrimSpace(item.Text) == "" {
			results[i] = batch.Result{
				Name: item.Name,
				Err:  &narrate.ValidationError{Message: "text must not be empty"},
			}
			continue
		}
		items = append(items, item)
		positions = append(positions, i)
	}
	return items, positions, results
}
