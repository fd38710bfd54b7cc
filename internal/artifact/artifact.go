// Package artifact wraps finished audio buffers into named, downloadable
// outputs for the presentation layer.
package artifact

import (
	"errors"
	"fmt"

	"github.com/narralabs/narra-core/internal/media"
)

// Artifact is an immutable named audio output.
type Artifact struct {
	Name string
	Data []byte
}

// Error is a packaging failure.
type Error struct {
	Cause error
}

func (e *Error) Error() string {
	return fmt.Sprintf("packaging failed: %v", e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Package attaches the buffer codec's extension to baseName. An empty buffer
// is a contract violation upstream and is rejected here; no other validation
// or decoding happens.
func Package(buf media.Buffer, baseName string) (Artifact, error) {
	if buf.Empty() {
		return Artifact{}, &Error{Cause: errors.New("empty audio buffer")}
	}
	if baseName == "" {
		return Artifact{}, &Error{Cause: errors.New("empty base name")}
	}
	return Artifact{Name: baseName + buf.Codec.Extension(), Data: buf.Data}, nil
}
