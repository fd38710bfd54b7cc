// Package batch executes narration over many documents. Items are processed
// independently under a bounded worker pool; one item's failure never stops
// the rest, and results always come back in input order.
package batch

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/narralabs/narra-core/internal/artifact"
	"github.com/narralabs/narra-core/internal/config"
	"github.com/narralabs/narra-core/internal/media"
	"github.com/narralabs/narra-core/internal/mixer"
	"github.com/narralabs/narra-core/internal/synth"
	"github.com/narralabs/narra-core/internal/voices"
)

// Item is one document in a batch: its identifier (usually the source file
// name) and decoded text. Reading and decoding files is the caller's job.
type Item struct {
	Name string
	Text string
}

// Settings are the shared per-batch synthesis parameters. Rate and Volume
// are provider-form strings; Background, when set, is mixed into every item
// and is read-only for the whole run.
type Settings struct {
	Voice      voices.Profile
	Rate       string
	Volume     string
	Style      string
	Background *mixer.BackgroundTrack
}

// Result is the outcome for one item: an artifact on success, an error
// otherwise. The slice returned by Run matches the input order.
type Result struct {
	Name     string
	Artifact artifact.Artifact
	Err      error
}

// Succeeded reports whether the item produced an artifact.
func (r Result) Succeeded() bool { return r.Err == nil }

// SpeechSynthesizer is the single-document synthesis dependency.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req synth.Request) (media.Buffer, error)
}

// Blender is the optional background-mix dependency.
type Blender interface {
	Mix(ctx context.Context, narration media.Buffer, bg mixer.BackgroundTrack) (media.Buffer, error)
}

// Runner drives batches. It is the sole recovery boundary: synthesis, mix
// and packaging errors are caught per item and recorded, never propagated.
type Runner struct {
	synth       SpeechSynthesizer
	blender     Blender
	concurrency int
	logger      *slog.Logger
}

func NewRunner(s SpeechSynthesizer, b Blender, cfg config.BatchConfig, log *slog.Logger) *Runner {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		synth:       s,
		blender:     b,
		concurrency: concurrency,
		logger:      log.With(slog.String("component", "batch-runner")),
	}
}

// Run processes all items and returns one result per item, in input order
// regardless of completion order. Cancelling ctx stops scheduling new items
// and cancels in-flight synthesis; results for items already completed are
// preserved, the rest carry the cancellation error.
func (r *Runner) Run(ctx context.Context, items []Item, settings Settings) []Result {
	results := make([]Result, len(items))
	sem := make(chan struct{}, r.concurrency)
	var wg sync.WaitGroup

	for i := range items {
		wg.Add(1)
		go func(idx int, item Item) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				results[idx] = Result{Name: item.Name, Err: ctx.Err()}
				return
			}
			defer func() { <-sem }()
			results[idx] = r.processItem(ctx, item, settings)
		}(i, items[i])
	}

	wg.Wait()

	failed := 0
	for _, res := range results {
		if !res.Succeeded() {
			failed++
		}
	}
	r.logger.Info("batch complete",
		slog.Int("items", len(items)),
		slog.Int("failed", failed))

	return results
}

func (r *Runner) processItem(ctx context.Context, item Item, settings Settings) Result {
	req := synth.Request{
		Text:   item.Text,
		Voice:  settings.Voice,
		Rate:   settings.Rate,
		Volume: settings.Volume,
		Style:  settings.Style,
	}

	buf, err := r.synth.Synthesize(ctx, req)
	if err != nil {
		r.logger.Warn("item synthesis failed",
			slog.String("item", item.Name),
			slog.String("error", err.Error()))
		return Result{Name: item.Name, Err: err}
	}

	if settings.Background != nil {
		buf, err = r.blender.Mix(ctx, buf, *settings.Background)
		if err != nil {
			r.logger.Warn("item mix failed",
				slog.String("item", item.Name),
				slog.String("error", err.Error()))
			return Result{Name: item.Name, Err: err}
		}
	}

	art, err := artifact.Package(buf, baseName(item.Name))
	if err != nil {
		return Result{Name: item.Name, Err: err}
	}
	return Result{Name: item.Name, Artifact: art}
}

// baseName strips the source extension so "story.txt" becomes "story".
func baseName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
