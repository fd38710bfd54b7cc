// Package synth drives streaming speech synthesis: one provider session per
// request, chunks folded into a single buffer before anything is returned.
package synth

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/narralabs/narra-core/internal/config"
	"github.com/narralabs/narra-core/internal/media"
)

// Synthesizer consumes a Streamer to completion and produces one contiguous
// audio buffer per request. No partial buffer is ever returned.
type Synthesizer struct {
	streamer Streamer
	timeout  time.Duration
	logger   *slog.Logger
}

func NewSynthesizer(streamer Streamer, cfg config.SynthesisConfig, log *slog.Logger) *Synthesizer {
	return &Synthesizer{
		streamer: streamer,
		timeout:  time.Duration(cfg.TimeoutMS) * time.Millisecond,
		logger:   log.With(slog.String("component", "synthesizer")),
	}
}

// NewStreamer builds the provider backend selected by config.
func NewStreamer(cfg config.SynthesisConfig) (Streamer, error) {
	switch cfg.Mode {
	case "http":
		return NewHTTPStreamer(cfg.Endpoint), nil
	case "exec":
		return NewExecStreamer(cfg.Command)
	case "mock":
		return NewMockStreamer(), nil
	default:
		return nil, errors.New("unknown synthesis mode: " + cfg.Mode)
	}
}

// Synthesize opens one streaming session and concatenates audio-kind chunks
// in arrival order. Metadata chunks contribute nothing. A stream that ends
// without audio payload is an empty-stream failure, never an empty buffer.
func (s *Synthesizer) Synthesize(ctx context.Context, req Request) (media.Buffer, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	started := time.Now()
	chunks, errs := s.streamer.Stream(ctx, req)

	var out bytes.Buffer
	received := 0
	for chunks != nil || errs != nil {
		select {
		case chunk, ok := <-chunks:
			if !ok {
				chunks = nil
				continue
			}
			if chunk.Kind == ChunkAudio {
				out.Write(chunk.Data)
			}
			received++
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			if err != nil {
				return media.Buffer{}, s.classify(err)
			}
		case <-ctx.Done():
			return media.Buffer{}, s.classify(ctx.Err())
		}
	}

	if out.Len() == 0 {
		return media.Buffer{}, &Error{Kind: ErrEmptyStream, Cause: errors.New("stream completed without audio chunks")}
	}

	s.logger.Debug("synthesis complete",
		slog.String("voice", req.Voice.ID),
		slog.Int("chunks", received),
		slog.Int("bytes", out.Len()),
		slog.Duration("elapsed", time.Since(started)))

	return media.Buffer{Data: out.Bytes(), Codec: media.CodecMP3}, nil
}

func (s *Synthesizer) classify(err error) error {
	var serr *Error
	if errors.As(err, &serr) {
		return serr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: ErrTimeout, Cause: err}
	}
	return &Error{Kind: ErrNetwork, Cause: err}
}
