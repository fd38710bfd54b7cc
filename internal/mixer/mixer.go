// Package mixer overlays a background track onto a narration buffer.
//
// Both inputs are decoded to one common PCM format, the background is looped
// (not silence-padded) until it covers the narration and truncated past it,
// attenuated by the configured gain, then summed sample-wise with clipping
// and re-encoded to the output codec.
package mixer

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/narralabs/narra-core/internal/config"
	"github.com/narralabs/narra-core/internal/media"
)

// MuteThresholdDB is the gain at or below which the background is treated as
// fully muted, so the mix degenerates to a codec round trip of the narration.
const MuteThresholdDB = -80.0

// BackgroundTrack is an uploaded music bed plus its target gain. GainDB is
// normally negative so the bed stays under the narration. Read-only once
// loaded; safe to share across concurrent mixes.
type BackgroundTrack struct {
	Data   []byte
	GainDB float64
}

// ErrorKind classifies mix failures.
type ErrorKind string

const (
	ErrDecode ErrorKind = "decode"
	ErrEncode ErrorKind = "encode"
)

// Error is a mix failure carrying the underlying cause.
type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("mix failed (%s): %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Mixer blends narration with a background track. Inputs are read-only; Mix
// always produces a fresh buffer.
type Mixer struct {
	transcoder Transcoder
	logger     *slog.Logger
}

func New(transcoder Transcoder, log *slog.Logger) *Mixer {
	return &Mixer{
		transcoder: transcoder,
		logger:     log.With(slog.String("component", "mixer")),
	}
}

// NewFromConfig builds a mixer over the configured exec transcoder.
func NewFromConfig(cfg config.MixerConfig, log *slog.Logger) (*Mixer, error) {
	tc, err := NewExecTranscoder(cfg)
	if err != nil {
		return nil, err
	}
	return New(tc, log), nil
}

// Mix overlays background onto narration. The output duration always equals
// the narration's duration.
func (m *Mixer) Mix(ctx context.Context, narration media.Buffer, bg BackgroundTrack) (media.Buffer, error) {
	narrPCM, err := m.transcoder.Decode(ctx, narration.Data)
	if err != nil {
		return media.Buffer{}, &Error{Kind: ErrDecode, Cause: fmt.Errorf("narration: %w", err)}
	}
	bgPCM, err := m.transcoder.Decode(ctx, bg.Data)
	if err != nil {
		return media.Buffer{}, &Error{Kind: ErrDecode, Cause: fmt.Errorf("background: %w", err)}
	}

	bed := loopToLength(bgPCM, len(narrPCM))
	applyGain(bed, bg.GainDB)
	mixed := sumClipped(narrPCM, bed)

	encoded, err := m.transcoder.Encode(ctx, mixed)
	if err != nil {
		return media.Buffer{}, &Error{Kind: ErrEncode, Cause: err}
	}

	m.logger.Debug("mix complete",
		slog.Int("narration_samples", len(narrPCM)),
		slog.Float64("gain_db", bg.GainDB))

	return media.Buffer{Data: encoded, Codec: media.CodecMP3}, nil
}

// loopToLength repeats src until it covers n samples, truncating past n. An
// empty src yields silence.
func loopToLength(src []int16, n int) []int16 {
	out := make([]int16, n)
	if len(src) == 0 {
		return out
	}
	for i := 0; i < n; i += len(src) {
		copy(out[i:], src)
	}
	return out
}

// applyGain scales samples in place by the dB gain. At or below the mute
// threshold the samples are zeroed outright.
func applyGain(samples []int16, gainDB float64) {
	if gainDB <= MuteThresholdDB {
		for i := range samples {
			samples[i] = 0
		}
		return
	}
	if gainDB == 0 {
		return
	}
	factor := math.Pow(10, gainDB/20)
	for i, s := range samples {
		samples[i] = clip(float64(s) * factor)
	}
}

func sumClipped(a, b []int16) []int16 {
	out := make([]int16, len(a))
	for i := range a {
		out[i] = clip(float64(a[i]) + float64(b[i]))
	}
	return out
}

func clip(v float64) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}
