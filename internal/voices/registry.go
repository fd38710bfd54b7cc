// Package voices holds the immutable voice and style registry. The registry
// is built once at startup and injected into callers; it is never mutated
// afterwards, so concurrent lookups need no locking.
package voices

import (
	"fmt"
	"sort"

	"github.com/narralabs/narra-core/internal/config"
)

// Profile identifies a provider voice.
type Profile struct {
	ID          string
	DisplayName string
	Locale      string
	Gender      string
}

// Styles lists the speaking styles accepted by the provider.
var Styles = []string{"normal", "cheerful", "excited", "friendly", "hopeful", "sad"}

var builtin = []Profile{
	{ID: "en-US-JennyNeural", DisplayName: "Female (US)", Locale: "en-US", Gender: "Female"},
	{ID: "en-US-GuyNeural", DisplayName: "Male (US)", Locale: "en-US", Gender: "Male"},
	{ID: "en-GB-SoniaNeural", DisplayName: "Female (UK)", Locale: "en-GB", Gender: "Female"},
	{ID: "en-GB-RyanNeural", DisplayName: "Male (UK)", Locale: "en-GB", Gender: "Male"},
}

// Registry maps display names to voice profiles.
type Registry struct {
	byName map[string]Profile
	names  []string
}

// NewRegistry builds the registry from the built-in voices plus any extras
// from configuration. Config entries with a known display name replace the
// built-in profile.
func NewRegistry(extra []config.VoiceEntry) *Registry {
	byName := make(map[string]Profile, len(builtin)+len(extra))
	for _, p := range builtin {
		byName[p.DisplayName] = p
	}
	for _, e := range extra {
		byName[e.Name] = Profile{ID: e.ID, DisplayName: e.Name, Locale: e.Locale, Gender: e.Gender}
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return &Registry{byName: byName, names: names}
}

// Lookup resolves a display name to its profile.
func (r *Registry) Lookup(displayName string) (Profile, error) {
	p, ok := r.byName[displayName]
	if !ok {
		return Profile{}, fmt.Errorf("unknown voice %q", displayName)
	}
	return p, nil
}

// Names returns all display names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// ValidStyle reports whether the style tag is known.
func ValidStyle(style string) bool {
	for _, s := range Styles {
		if s == style {
			return true
		}
	}
	return false
}
