package runtime

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/narralabs/narra-core/internal/config"
)

func TestStartTelemetryServesMetrics(t *testing.T) {
	cfg := config.Default()
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

	tel, err := startTelemetry(cfg, logger)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(func() { _ = tel.shutdown(context.Background()) })

	if tel.metrics == nil {
		t.Fatal("expected a metrics handler")
	}
	rec := httptest.NewRecorder()
	tel.metrics.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != 200 {
		t.Fatalf("expected 200 from metrics handler, got %d", rec.Code)
	}
}
