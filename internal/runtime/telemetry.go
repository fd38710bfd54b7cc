package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/narralabs/narra-core/internal/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// telemetry owns the process-wide trace and metric providers. Traces go to an
// OTLP collector when one is configured, otherwise to stdout; metrics are
// always exposed for Prometheus scraping on the runtime's /metrics endpoint.
type telemetry struct {
	tracers *sdktrace.TracerProvider
	meters  *sdkmetric.MeterProvider
	metrics http.Handler
}

func startTelemetry(cfg config.Config, logger *slog.Logger) (*telemetry, error) {
	res, err := narraResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("build telemetry resource: %w", err)
	}

	t := &telemetry{}

	if endpoint := strings.TrimSpace(cfg.Telemetry.OTLPEndpoint); endpoint != "" {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(endpoint)}
		if cfg.Telemetry.OTLPInsecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}
		exporter, err := otlptracegrpc.New(context.Background(), opts...)
		if err != nil {
			return nil, fmt.Errorf("otlp trace exporter: %w", err)
		}
		t.tracers = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		logger.Info("tracing to collector", slog.String("endpoint", endpoint))
	} else {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("stdout trace exporter: %w", err)
		}
		t.tracers = sdktrace.NewTracerProvider(
			sdktrace.WithBatcher(exporter),
			sdktrace.WithResource(res),
		)
		logger.Info("tracing to stdout")
	}
	otel.SetTracerProvider(t.tracers)

	promExporter, err := prometheus.New()
	if err != nil {
		return nil, fmt.Errorf("prometheus exporter: %w", err)
	}
	t.meters = sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(promExporter),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(t.meters)
	t.metrics = promhttp.Handler()

	return t, nil
}

// narraResource describes this process to telemetry backends. The synthesis
// mode is attached so dashboards can split mock/http/exec deployments.
func narraResource(cfg config.Config) (*resource.Resource, error) {
	return resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(cfg.RuntimeName),
			attribute.String("deployment.environment", cfg.Environment),
			attribute.String("narra.synthesis.mode", cfg.Synthesis.Mode),
		),
	)
}

func (t *telemetry) shutdown(ctx context.Context) error {
	var errs []error
	if t.meters != nil {
		errs = append(errs, t.meters.Shutdown(ctx))
	}
	if t.tracers != nil {
		errs = append(errs, t.tracers.Shutdown(ctx))
	}
	return errors.Join(errs...)
}
