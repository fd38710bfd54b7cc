// Package media carries encoded audio between pipeline stages. A Buffer is
// owned by whichever stage produced it and is never mutated afterwards;
// mixing always yields a fresh Buffer.
package media

import "encoding/binary"

// Codec identifies the container/encoding of a Buffer.
type Codec string

const (
	// CodecMP3 is the single output codec produced by the pipeline.
	CodecMP3 Codec = "mp3"
)

// Extension returns the file extension for the codec, dot included.
func (c Codec) Extension() string {
	return "." + string(c)
}

// Buffer is a complete encoded audio clip.
type Buffer struct {
	Data  []byte
	Codec Codec
}

// Empty reports whether the buffer carries no audio payload.
func (b Buffer) Empty() bool { return len(b.Data) == 0 }

// SamplesFromBytes converts little-endian s16le PCM bytes to int16 samples.
// A trailing odd byte is dropped to keep int16 alignment.
func SamplesFromBytes(raw []byte) []int16 {
	if len(raw)%2 != 0 {
		raw = raw[:len(raw)-1]
	}
	samples := make([]int16, len(raw)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(raw[i*2 : i*2+2]))
	}
	return samples
}

// BytesFromSamples converts int16 samples to little-endian s16le PCM bytes.
func BytesFromSamples(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
