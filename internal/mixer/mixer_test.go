package mixer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/narralabs/narra-core/internal/media"
)

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// rawTranscoder treats the encoded bytes as s16le PCM directly, so tests can
// reason about samples without an external codec.
type rawTranscoder struct {
	decodeErr error
	encodeErr error
}

func (r *rawTranscoder) Decode(ctx context.Context, encoded []byte) ([]int16, error) {
	if r.decodeErr != nil {
		return nil, r.decodeErr
	}
	return media.SamplesFromBytes(encoded), nil
}

func (r *rawTranscoder) Encode(ctx context.Context, pcm []int16) ([]byte, error) {
	if r.encodeErr != nil {
		return nil, r.encodeErr
	}
	return media.BytesFromSamples(pcm), nil
}

func buffer(samples []int16) media.Buffer {
	return media.Buffer{Data: media.BytesFromSamples(samples), Codec: media.CodecMP3}
}

func TestMixOutputMatchesNarrationDuration(t *testing.T) {
	m := New(&rawTranscoder{}, newLogger())
	narration := buffer(make([]int16, 10))

	shorter := BackgroundTrack{Data: media.BytesFromSamples([]int16{1, 2, 3})}
	out, err := m.Mix(context.Background(), narration, shorter)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(media.SamplesFromBytes(out.Data)); got != 10 {
		t.Fatalf("expected 10 samples with shorter background, got %d", got)
	}

	longer := BackgroundTrack{Data: media.BytesFromSamples(make([]int16, 50))}
	out, err = m.Mix(context.Background(), narration, longer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := len(media.SamplesFromBytes(out.Data)); got != 10 {
		t.Fatalf("expected 10 samples with longer background, got %d", got)
	}
}

func TestMixLoopsShortBackground(t *testing.T) {
	m := New(&rawTranscoder{}, newLogger())
	narration := buffer(make([]int16, 7))
	bg := BackgroundTrack{Data: media.BytesFromSamples([]int16{10, 20, 30})}

	out, err := m.Mix(context.Background(), narration, bg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := media.SamplesFromBytes(out.Data)
	want := []int16{10, 20, 30, 10, 20, 30, 10}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sample %d: expected %d, got %d (looping broken)", i, want[i], got[i])
		}
	}
}

func TestMixZeroGainOnSilentBackgroundLeavesNarration(t *testing.T) {
	m := New(&rawTranscoder{}, newLogger())
	narr := []int16{100, -200, 300, -400}
	bg := BackgroundTrack{Data: media.BytesFromSamples(make([]int16, 4)), GainDB: 0}

	out, err := m.Mix(context.Background(), buffer(narr), bg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := media.SamplesFromBytes(out.Data)
	for i := range narr {
		if got[i] != narr[i] {
			t.Fatalf("sample %d changed: expected %d, got %d", i, narr[i], got[i])
		}
	}
}

func TestMixMutedBackgroundIsNarrationRoundTrip(t *testing.T) {
	m := New(&rawTranscoder{}, newLogger())
	narr := []int16{5, -7, 9000, -32768}
	bg := BackgroundTrack{Data: media.BytesFromSamples([]int16{3000, 3000, 3000, 3000}), GainDB: -120}

	out, err := m.Mix(context.Background(), buffer(narr), bg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := media.SamplesFromBytes(out.Data)
	for i := range narr {
		if got[i] != narr[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, narr[i], got[i])
		}
	}
}

func TestMixAttenuatesBackground(t *testing.T) {
	m := New(&rawTranscoder{}, newLogger())
	narr := []int16{0, 0, 0, 0}
	bg := BackgroundTrack{Data: media.BytesFromSamples([]int16{10000, 10000, 10000, 10000}), GainDB: -20}

	out, err := m.Mix(context.Background(), buffer(narr), bg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := media.SamplesFromBytes(out.Data)
	// -20 dB is a factor of 0.1
	if got[0] != 1000 {
		t.Fatalf("expected background scaled to 1000, got %d", got[0])
	}
}

func TestMixClipsOverflow(t *testing.T) {
	m := New(&rawTranscoder{}, newLogger())
	narr := []int16{30000, -30000}
	bg := BackgroundTrack{Data: media.BytesFromSamples([]int16{30000, -30000}), GainDB: 0}

	out, err := m.Mix(context.Background(), buffer(narr), bg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := media.SamplesFromBytes(out.Data)
	if got[0] != 32767 || got[1] != -32768 {
		t.Fatalf("expected clipped samples, got %v", got)
	}
}

func TestMixDecodeFailure(t *testing.T) {
	m := New(&rawTranscoder{decodeErr: errors.New("corrupt header")}, newLogger())
	_, err := m.Mix(context.Background(), buffer([]int16{1}), BackgroundTrack{Data: []byte{1, 2}})
	var merr *Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected mix error, got %v", err)
	}
	if merr.Kind != ErrDecode {
		t.Fatalf("expected decode kind, got %s", merr.Kind)
	}
}

func TestMixEncodeFailure(t *testing.T) {
	m := New(&rawTranscoder{encodeErr: errors.New("encoder crashed")}, newLogger())
	_, err := m.Mix(context.Background(), buffer([]int16{1, 2}), BackgroundTrack{Data: media.BytesFromSamples([]int16{1})})
	var merr *Error
	if !errors.As(err, &merr) {
		t.Fatalf("expected mix error, got %v", err)
	}
	if merr.Kind != ErrEncode {
		t.Fatalf("expected encode kind, got %s", merr.Kind)
	}
}
