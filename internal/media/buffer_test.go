package media

import "testing"

func TestSamplesRoundTrip(t *testing.T) {
	samples := []int16{0, 1, -1, 32767, -32768, 1234}
	raw := BytesFromSamples(samples)
	back := SamplesFromBytes(raw)
	if len(back) != len(samples) {
		t.Fatalf("expected %d samples, got %d", len(samples), len(back))
	}
	for i := range samples {
		if back[i] != samples[i] {
			t.Fatalf("sample %d: expected %d, got %d", i, samples[i], back[i])
		}
	}
}

func TestSamplesFromBytesDropsTrailingByte(t *testing.T) {
	raw := []byte{0x01, 0x00, 0xff}
	samples := SamplesFromBytes(raw)
	if len(samples) != 1 || samples[0] != 1 {
		t.Fatalf("unexpected samples: %v", samples)
	}
}

func TestCodecExtension(t *testing.T) {
	if CodecMP3.Extension() != ".mp3" {
		t.Fatalf("unexpected extension: %s", CodecMP3.Extension())
	}
}

func TestBufferEmpty(t *testing.T) {
	if !(Buffer{Codec: CodecMP3}).Empty() {
		t.Fatal("expected empty buffer")
	}
	if (Buffer{Data: []byte{1}, Codec: CodecMP3}).Empty() {
		t.Fatal("expected non-empty buffer")
	}
}
