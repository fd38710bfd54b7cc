// Package narrate is the bus-facing front of the narration pipeline. It
// validates presentation-layer input, drives the synthesizer, mixer, batch
// runner and packager, and records run metadata.
package narrate

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/narralabs/narra-core/internal/artifact"
	"github.com/narralabs/narra-core/internal/batch"
	"github.com/narralabs/narra-core/internal/bus"
	"github.com/narralabs/narra-core/internal/config"
	"github.com/narralabs/narra-core/internal/jobstore"
	"github.com/narralabs/narra-core/internal/mixer"
	"github.com/narralabs/narra-core/internal/protocol"
	"github.com/narralabs/narra-core/internal/synth"
	"github.com/narralabs/narra-core/internal/voices"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

type Service struct {
	cfg      config.Config
	bus      *bus.Client
	registry *voices.Registry
	synth    *synth.Synthesizer
	mixer    *mixer.Mixer
	runner   *batch.Runner
	store    *jobstore.Store

	subNarrate *nats.Subscription
	subBatch   *nats.Subscription
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	logger     *slog.Logger

	itemsCompleted metric.Int64Counter
	itemsFailed    metric.Int64Counter
	batchRuns      metric.Int64Counter
}

func NewService(parent context.Context, cfg config.Config, busClient *bus.Client, registry *voices.Registry, synthesizer *synth.Synthesizer, mx *mixer.Mixer, runner *batch.Runner, store *jobstore.Store, log *slog.Logger) *Service {
	ctx, cancel := context.WithCancel(parent)
	s := &Service{
		cfg:      cfg,
		bus:      busClient,
		registry: registry,
		synth:    synthesizer,
		mixer:    mx,
		runner:   runner,
		store:    store,
		ctx:      ctx,
		cancel:   cancel,
		logger:   log.With(slog.String("component", "narrate-service")),
	}
	s.initMetrics()
	return s
}

func (s *Service) initMetrics() {
	meter := otel.Meter("github.com/narralabs/narra-core/narrate")
	var err error
	s.itemsCompleted, err = meter.Int64Counter("narra.items.completed", metric.WithDescription("Documents narrated successfully"))
	if err != nil {
		s.logger.Warn("failed to initialize metrics", slogError(err))
		return
	}
	s.itemsFailed, err = meter.Int64Counter("narra.items.failed", metric.WithDescription("Documents that failed narration"))
	if err != nil {
		s.logger.Warn("failed to initialize metrics", slogError(err))
		return
	}
	s.batchRuns, err = meter.Int64Counter("narra.batch.runs", metric.WithDescription("Batch runs processed"))
	if err != nil {
		s.logger.Warn("failed to initialize metrics", slogError(err))
	}
}

func (s *Service) Start() error {
	sub, err := s.bus.Subscribe(protocol.SubjectNarrate, s.handleNarrate)
	if err != nil {
		return err
	}
	s.subNarrate = sub

	subBatch, err := s.bus.Subscribe(protocol.SubjectBatch, s.handleBatch)
	if err != nil {
		s.subNarrate.Drain()
		return err
	}
	s.subBatch = subBatch
	return nil
}

func (s *Service) Close() {
	s.cancel()
	if s.subNarrate != nil {
		_ = s.subNarrate.Drain()
	}
	if s.subBatch != nil {
		_ = s.subBatch.Drain()
	}
	s.wg.Wait()
}

func (s *Service) Healthy() bool { return s.subNarrate != nil && s.subBatch != nil }

func (s *Service) handleNarrate(msg *nats.Msg) {
	var req protocol.NarrateRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode narrate request", slogError(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		started := time.Now()
		art, err := s.narrateOne(s.ctx, req)
		runID := uuid.NewString()
		if err != nil {
			s.countFailure()
			s.recordRun(runID, "single", req.Voice, jobstore.ItemRecord{
				RunID: runID, Name: req.Title, Status: jobstore.StatusFailed,
				ErrorKind: FailureKind(err), ErrorMessage: err.Error(),
				DurationMS: time.Since(started).Milliseconds(),
			})
			s.respond(msg, protocol.NarrateReply{Error: failureOf(err)})
			return
		}
		if s.itemsCompleted != nil {
			s.itemsCompleted.Add(s.ctx, 1)
		}
		s.recordRun(runID, "single", req.Voice, jobstore.ItemRecord{
			RunID: runID, Name: req.Title, Status: jobstore.StatusCompleted,
			DurationMS: time.Since(started).Milliseconds(),
		})
		s.respond(msg, protocol.NarrateReply{Name: art.Name, Audio: art.Data})
	}()
}

// withDefaults fills unset voice and style from the configured synthesis
// defaults, matching what the CLI front end does for its flags.
func (s *Service) withDefaults(voice, style string) (string, string) {
	if voice == "" {
		voice = s.cfg.Synthesis.DefaultVoice
	}
	if style == "" {
		style = s.cfg.Synthesis.DefaultStyle
	}
	return voice, style
}

func (s *Service) narrateOne(ctx context.Context, req protocol.NarrateRequest) (artifact.Artifact, error) {
	voice, style := s.withDefaults(req.Voice, req.Style)
	synthReq, err := BuildRequest(s.registry, Params{
		Text:      req.Text,
		Voice:     voice,
		Style:     style,
		RatePct:   req.RatePct,
		VolumePct: req.VolumePct,
	})
	if err != nil {
		return artifact.Artifact{}, err
	}

	buf, err := s.synth.Synthesize(ctx, synthReq)
	if err != nil {
		return artifact.Artifact{}, err
	}

	if len(req.Background) > 0 {
		buf, err = s.mixer.Mix(ctx, buf, mixer.BackgroundTrack{Data: req.Background, GainDB: req.BackgroundGainDB})
		if err != nil {
			return artifact.Artifact{}, err
		}
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "narration"
	}
	return artifact.Package(buf, title)
}

func (s *Service) handleBatch(msg *nats.Msg) {
	var req protocol.BatchRequest
	if err := json.Unmarshal(msg.Data, &req); err != nil {
		s.logger.Warn("failed to decode batch request", slogError(err))
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.batchRuns != nil {
			s.batchRuns.Add(s.ctx, 1)
		}
		runID := uuid.NewString()

		voice, style := s.withDefaults(req.Voice, req.Style)
		settings, err := BuildSettings(s.registry, voice, style, req.RatePct, req.VolumePct, req.Background, req.BackgroundGainDB)
		if err != nil {
			s.respond(msg, protocol.BatchReply{RunID: runID, Error: failureOf(err)})
			return
		}

		results := make([]protocol.BatchItemResult, len(req.Documents))
		var items []batch.Item
		var positions []int
		for i, doc := range req.Documents {
			if strings.TrimSpace(doc.Text) == "" {
				err := &ValidationError{Message: "text must not be empty"}
				results[i] = protocol.BatchItemResult{Name: doc.Name, Error: failureOf(err)}
				continue
			}
			items = append(items, batch.Item{Name: doc.Name, Text: doc.Text})
			positions = append(positions, i)
		}

		batchResults := s.runner.Run(s.ctx, items, settings)
		for j, br := range batchResults {
			i := positions[j]
			if br.Succeeded() {
				results[i] = protocol.BatchItemResult{Name: br.Name, File: br.Artifact.Name, Audio: br.Artifact.Data}
			} else {
				results[i] = protocol.BatchItemResult{Name: br.Name, Error: failureOf(br.Err)}
			}
		}

		if err := s.store.CreateRun(s.ctx, jobstore.Run{RunID: runID, Kind: "batch", Voice: voice, ItemCount: len(req.Documents)}); err != nil {
			s.logger.Warn("failed to record batch run", slogError(err))
		}
		for i, res := range results {
			s.finishItem(runID, i, res)
		}

		s.respond(msg, protocol.BatchReply{RunID: runID, Results: results})
	}()
}

// finishItem records one item outcome, publishes its status event and bumps
// the counters.
func (s *Service) finishItem(runID string, position int, res protocol.BatchItemResult) {
	record := jobstore.ItemRecord{
		RunID:    runID,
		Position: position,
		Name:     res.Name,
		Status:   jobstore.StatusCompleted,
	}
	status := protocol.BatchStatus{
		RunID:     runID,
		Name:      res.Name,
		Completed: res.Error == nil,
		Error:     res.Error,
		Timestamp: time.Now().UTC(),
	}
	if res.Error != nil {
		record.Status = jobstore.StatusFailed
		record.ErrorKind = res.Error.Kind
		record.ErrorMessage = res.Error.Message
		s.countFailure()
	} else if s.itemsCompleted != nil {
		s.itemsCompleted.Add(s.ctx, 1)
	}

	if err := s.store.RecordItem(s.ctx, record); err != nil {
		s.logger.Warn("failed to record batch item", slogError(err))
	}
	if data, err := json.Marshal(status); err == nil {
		if err := s.bus.Publish(protocol.SubjectBatchStatus, data); err != nil {
			s.logger.Warn("failed to publish batch status", slogError(err))
		}
	}
}

func (s *Service) recordRun(runID, kind, voice string, item jobstore.ItemRecord) {
	if err := s.store.CreateRun(s.ctx, jobstore.Run{RunID: runID, Kind: kind, Voice: voice, ItemCount: 1}); err != nil {
		s.logger.Warn("failed to record run", slogError(err))
		return
	}
	if err := s.store.RecordItem(s.ctx, item); err != nil {
		s.logger.Warn("failed to record run item", slogError(err))
	}
}

func (s *Service) countFailure() {
	if s.itemsFailed != nil {
		s.itemsFailed.Add(s.ctx, 1)
	}
}

func (s *Service) respond(msg *nats.Msg, reply any) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		s.logger.Warn("failed to marshal reply", slogError(err))
		return
	}
	if err := msg.Respond(data); err != nil {
		s.logger.Warn("failed to send reply", slogError(err))
	}
}

func failureOf(err error) *protocol.Failure {
	return &protocol.Failure{Kind: FailureKind(err), Message: err.Error()}
}

func slogError(err error) slog.Attr {
	return slog.String("error", err.Error())
}
