package artifact

import (
	"errors"
	"strings"
	"testing"

	"github.com/narralabs/narra-core/internal/media"
)

func TestPackageAppendsCodecExtension(t *testing.T) {
	buf := media.Buffer{Data: []byte{1, 2, 3}, Codec: media.CodecMP3}
	art, err := Package(buf, "My Story")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if art.Name != "My Story.mp3" {
		t.Fatalf("unexpected artifact name: %s", art.Name)
	}
	if !strings.HasSuffix(art.Name, ".mp3") {
		t.Fatalf("expected mp3 extension, got %s", art.Name)
	}
	if len(art.Data) != 3 {
		t.Fatalf("expected 3 bytes, got %d", len(art.Data))
	}
}

func TestPackageRejectsEmptyBuffer(t *testing.T) {
	_, err := Package(media.Buffer{Codec: media.CodecMP3}, "story")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected packaging error, got %v", err)
	}
}

func TestPackageRejectsEmptyName(t *testing.T) {
	_, err := Package(media.Buffer{Data: []byte{1}, Codec: media.CodecMP3}, "")
	var perr *Error
	if !errors.As(err, &perr) {
		t.Fatalf("expected packaging error, got %v", err)
	}
}
