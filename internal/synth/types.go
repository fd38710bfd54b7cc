package synth

import (
	"context"
	"fmt"

	"github.com/narralabs/narra-core/internal/voices"
)

// Request contains parameters for one synthesis call. Rate and Volume are
// already in provider form (signed-percentage strings, see tune.go).
type Request struct {
	Text   string
	Voice  voices.Profile
	Rate   string
	Volume string
	Style  string
}

// ChunkKind tags a stream chunk as audio payload or provider metadata.
type ChunkKind string

const (
	ChunkAudio    ChunkKind = "audio"
	ChunkMetadata ChunkKind = "metadata"
)

// Chunk is one element of a provider stream. Data is only meaningful for
// audio chunks; metadata chunks (word boundaries, timing marks) are dropped
// by the synthesizer.
type Chunk struct {
	Kind ChunkKind
	Data []byte
}

// Streamer is the provider boundary: a lazy, finite, non-restartable
// sequence of tagged chunks plus a terminal error channel.
type Streamer interface {
	Stream(ctx context.Context, req Request) (<-chan Chunk, <-chan error)
}

// ErrorKind classifies synthesis failures.
type ErrorKind string

const (
	ErrRejected    ErrorKind = "rejected"
	ErrEmptyStream ErrorKind = "empty_stream"
	ErrNetwork     ErrorKind = "network"
	ErrTimeout     ErrorKind = "timeout"
)

// Error is a synthesis failure carrying the underlying cause for display.
type Error struct {
	Kind  ErrorKind
	Cause error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("synthesis failed (%s)", e.Kind)
	}
	return fmt.Sprintf("synthesis failed (%s): %v", e.Kind, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }
