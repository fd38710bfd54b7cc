package synth

import (
	"bufio"
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os/exec"

	"github.com/mattn/go-shellwords"
)

// execStreamer spawns one subprocess per session, so concurrent batch items
// can synthesize in parallel.
type execStreamer struct {
	cmd []string
}

type execStreamRequest struct {
	Text   string `json:"text"`
	Voice  string `json:"voice"`
	Rate   string `json:"rate"`
	Volume string `json:"volume"`
	Style  string `json:"style,omitempty"`
}

type execStreamChunk struct {
	Type string `json:"type"`
	Data string `json:"data,omitempty"`
}

// NewExecStreamer runs a local synthesis command per session. The request is
// written as JSON to stdin; the command answers with newline-delimited JSON
// chunk objects on stdout.
func NewExecStreamer(command string) (Streamer, error) {
	parser := shellwords.NewParser()
	args, err := parser.Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse synthesis command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("synthesis command empty")
	}
	return &execStreamer{cmd: args}, nil
}

func (e *execStreamer) Stream(ctx context.Context, req Request) (<-chan Chunk, <-chan error) {
	chunks := make(chan Chunk)
	errs := make(chan error, 1)
	go func() {
		defer close(chunks)
		defer close(errs)

		payload := execStreamRequest{
			Text:   req.Text,
			Voice:  req.Voice.ID,
			Rate:   req.Rate,
			Volume: req.Volume,
			Style:  req.Style,
		}
		data, err := json.Marshal(payload)
		if err != nil {
			errs <- err
			return
		}

		base := e.cmd[0]
		args := append([]string{}, e.cmd[1:]...)
		cmd := exec.CommandContext(ctx, base, args...)
		stdin, err := cmd.StdinPipe()
		if err != nil {
			errs <- err
			return
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			errs <- err
			return
		}
		if err := cmd.Start(); err != nil {
			errs <- err
			return
		}

		if _, err := stdin.Write(data); err != nil {
			errs <- err
			cmd.Wait()
			return
		}
		stdin.Close()

		scanner := bufio.NewScanner(stdout)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			var resp execStreamChunk
			if err := json.Unmarshal(line, &resp); err != nil {
				errs <- err
				cmd.Wait()
				return
			}
			out := Chunk{Kind: ChunkMetadata}
			if resp.Type == "audio" {
				raw, err := base64.StdEncoding.DecodeString(resp.Data)
				if err != nil {
					errs <- err
					cmd.Wait()
					return
				}
				out = Chunk{Kind: ChunkAudio, Data: raw}
			}
			select {
			case chunks <- out:
			case <-ctx.Done():
				errs <- ctx.Err()
				cmd.Wait()
				return
			}
		}
		if err := cmd.Wait(); err != nil {
			errs <- &Error{Kind: ErrRejected, Cause: fmt.Errorf("synthesis command failed: %w", err)}
			return
		}
		if scanErr := scanner.Err(); scanErr != nil {
			errs <- scanErr
		}
	}()
	return chunks, errs
}
