package mixer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/mattn/go-shellwords"
	"github.com/narralabs/narra-core/internal/config"
	"github.com/narralabs/narra-core/internal/media"
)

// Transcoder converts between encoded audio and the mixer's common PCM
// format. Decode resamples whatever it is given to the configured sample
// rate and channel layout, so mismatched inputs never reach the mix stage.
type Transcoder interface {
	Decode(ctx context.Context, encoded []byte) ([]int16, error)
	Encode(ctx context.Context, pcm []int16) ([]byte, error)
}

type execTranscoder struct {
	decodeCmd  []string
	encodeCmd  []string
	sampleRate int
	channels   int
}

// NewExecTranscoder wraps the configured decode/encode commands (ffmpeg by
// default). Decode reads encoded bytes on stdin and writes raw s16le PCM to
// stdout; encode reads a WAV on stdin and writes the output codec to stdout.
func NewExecTranscoder(cfg config.MixerConfig) (Transcoder, error) {
	parser := shellwords.NewParser()
	decodeCmd, err := parser.Parse(cfg.DecodeCommand)
	if err != nil {
		return nil, fmt.Errorf("parse decode command: %w", err)
	}
	encodeCmd, err := parser.Parse(cfg.EncodeCommand)
	if err != nil {
		return nil, fmt.Errorf("parse encode command: %w", err)
	}
	if len(decodeCmd) == 0 || len(encodeCmd) == 0 {
		return nil, fmt.Errorf("transcoder commands must not be empty")
	}
	return &execTranscoder{
		decodeCmd:  decodeCmd,
		encodeCmd:  encodeCmd,
		sampleRate: cfg.SampleRate,
		channels:   cfg.Channels,
	}, nil
}

func (t *execTranscoder) Decode(ctx context.Context, encoded []byte) ([]int16, error) {
	cmd := exec.CommandContext(ctx, t.decodeCmd[0], t.decodeCmd[1:]...)
	cmd.Stdin = bytes.NewReader(encoded)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("decode command failed: %w: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("decode produced no samples")
	}
	return media.SamplesFromBytes(stdout.Bytes()), nil
}

func (t *execTranscoder) Encode(ctx context.Context, pcm []int16) ([]byte, error) {
	file, err := os.CreateTemp("", "narra_mix_*.wav")
	if err != nil {
		return nil, fmt.Errorf("temp file: %w", err)
	}
	defer os.Remove(file.Name())
	defer file.Close()

	if err := writePCMToWav(file, pcm, t.sampleRate, t.channels); err != nil {
		return nil, err
	}
	if _, err := file.Seek(0, 0); err != nil {
		return nil, fmt.Errorf("rewind temp wav: %w", err)
	}

	cmd := exec.CommandContext(ctx, t.encodeCmd[0], t.encodeCmd[1:]...)
	cmd.Stdin = file
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("encode command failed: %w: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("encode produced no output")
	}
	return stdout.Bytes(), nil
}

func writePCMToWav(file *os.File, pcm []int16, sampleRate int, channels int) error {
	buffer := &audio.IntBuffer{Format: &audio.Format{NumChannels: channels, SampleRate: sampleRate}}
	samples := make([]int, len(pcm))
	for i, s := range pcm {
		samples[i] = int(s)
	}
	buffer.Data = samples

	enc := wav.NewEncoder(file, sampleRate, 16, channels, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}
