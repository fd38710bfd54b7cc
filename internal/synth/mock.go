package synth

import (
	"context"
	"time"
)

type mockStreamer struct{}

// NewMockStreamer yields a deterministic short stream for development and
// tests: metadata, two audio chunks, metadata.
func NewMockStreamer() Streamer {
	return &mockStreamer{}
}

func (m *mockStreamer) Stream(ctx context.Context, req Request) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk, 4)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)
		select {
		case <-ctx.Done():
			errs <- ctx.Err()
			return
		case <-time.After(20 * time.Millisecond):
		}
		chunks <- Chunk{Kind: ChunkMetadata}
		chunks <- Chunk{Kind: ChunkAudio, Data: []byte("mock-audio:" + req.Voice.ID + ":")}
		chunks <- Chunk{Kind: ChunkAudio, Data: []byte(req.Text)}
		chunks <- Chunk{Kind: ChunkMetadata}
	}()
	return chunks, errs
}
