package synth

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type httpStreamer struct {
	endpoint string
	client   *http.Client
}

type httpStreamRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Volume string `json:"volume"`
	Style  string `json:"style,omitempty"`
}

type httpStreamChunk struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// NewHTTPStreamer speaks to a synthesis sidecar over newline-delimited JSON:
// one POST per session, chunk objects streamed back until EOF.
func NewHTTPStreamer(endpoint string) Streamer {
	return &httpStreamer{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   http.DefaultClient,
	}
}

func (h *httpStreamer) Stream(ctx context.Context, req Request) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)

		payload := httpStreamRequest{
			Text:   req.Text,
			Voice:  req.Voice.ID,
			Rate:   req.Rate,
			Volume: req.Volume,
			Style:  req.Style,
		}
		body, err := json.Marshal(payload)
		if err != nil {
			errs <- err
			return
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, h.endpoint+"/v1/stream", bytes.NewReader(body))
		if err != nil {
			errs <- err
			return
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := h.client.Do(httpReq)
		if err != nil {
			errs <- err
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 500 {
			errs <- fmt.Errorf("provider returned status %s", resp.Status)
			return
		}
		if resp.StatusCode >= 400 {
			detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			errs <- &Error{
				Kind:  ErrRejected,
				Cause: fmt.Errorf("provider rejected request: %s", strings.TrimSpace(string(detail))),
			}
			return
		}

		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var chunk httpStreamChunk
			if err := json.Unmarshal(line, &chunk); err != nil {
				errs <- fmt.Errorf("decode stream chunk: %w", err)
				return
			}
			out := Chunk{Kind: ChunkMetadata}
			if chunk.Type == "audio" {
				data, err := base64.StdEncoding.DecodeString(chunk.Data)
				if err != nil {
					errs <- fmt.Errorf("decode audio chunk: %w", err)
					return
				}
				out = Chunk{Kind: ChunkAudio, Data: data}
			}
			select {
			case chunks <- out:
			case <-ctx.Done():
				errs <- ctx.Err()
				return
			}
		}
		if err := scanner.Err(); err != nil {
			errs <- err
		}
	}()
	return chunks, errs
}
