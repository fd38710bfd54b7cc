package narrate

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/narralabs/narra-core/internal/config"
	"github.com/narralabs/narra-core/internal/protocol"
	"github.com/narralabs/narra-core/internal/synth"
	"github.com/narralabs/narra-core/internal/voices"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestService(t *testing.T, cfg config.Config) *Service {
	t.Helper()
	reg := voices.NewRegistry(nil)
	synthesizer := synth.NewSynthesizer(synth.NewMockStreamer(), cfg.Synthesis, newLogger())
	return NewService(context.Background(), cfg, nil, reg, synthesizer, nil, nil, nil, newLogger())
}

func TestNarrateOneUsesConfiguredDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Synthesis.DefaultVoice = "Male (UK)"
	svc := newTestService(t, cfg)

	art, err := svc.narrateOne(context.Background(), protocol.NarrateRequest{
		Title: "intro", Text: "hello there", RatePct: 100, VolumePct: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Name != "intro.mp3" {
		t.Fatalf("unexpected artifact name: %s", art.Name)
	}
	// The mock streamer embeds the resolved voice ID in its audio payload.
	if !strings.Contains(string(art.Data), "en-GB-RyanNeural") {
		t.Fatalf("expected default voice applied, got %q", art.Data)
	}
}

func TestNarrateOneRejectsUnknownVoice(t *testing.T) {
	svc := newTestService(t, config.Default())
	_, err := svc.narrateOne(context.Background(), protocol.NarrateRequest{
		Title: "intro", Text: "hello", Voice: "Robot (Mars)", RatePct: 100, VolumePct: 100,
	})
	if FailureKind(err) != "validation" {
		t.Fatalf("expected validation failure, got %v", err)
	}
}
