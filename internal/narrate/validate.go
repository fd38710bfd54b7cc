package narrate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/narralabs/narra-core/internal/artifact"
	"github.com/narralabs/narra-core/internal/batch"
	"github.com/narralabs/narra-core/internal/mixer"
	"github.com/narralabs/narra-core/internal/synth"
	"github.com/narralabs/narra-core/internal/voices"
)

// ValidationError reports UI-domain input rejected at the caller boundary,
// before any synthesis session is opened.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Message
}

// Params are raw UI-domain inputs for one document. RatePct uses the 50-200
// scale (100 = normal); VolumePct is 0-100.
type Params struct {
	Text      string
	Voice     string
	Style     string
	RatePct   int
	VolumePct int
}

// BuildRequest validates params and converts them to a provider-form
// synthesis request.
func BuildRequest(reg *voices.Registry, p Params) (synth.Request, error) {
	if strings.TrimSpace(p.Text) == "" {
		return synth.Request{}, &ValidationError{Message: "text must not be empty"}
	}
	profile, style, rate, volume, err := sharedSettings(reg, p.Voice, p.Style, p.RatePct, p.VolumePct)
	if err != nil {
		return synth.Request{}, err
	}
	return synth.Request{
		Text:   p.Text,
		Voice:  profile,
		Rate:   rate,
		Volume: volume,
		Style:  style,
	}, nil
}

// BuildSettings validates the shared parameters of a batch and derives the
// runner settings. Per-item text checks happen separately.
func BuildSettings(reg *voices.Registry, voice, style string, ratePct, volumePct int, background []byte, gainDB float64) (batch.Settings, error) {
	profile, style, rate, volume, err := sharedSettings(reg, voice, style, ratePct, volumePct)
	if err != nil {
		return batch.Settings{}, err
	}
	settings := batch.Settings{
		Voice:  profile,
		Rate:   rate,
		Volume: volume,
		Style:  style,
	}
	if len(background) > 0 {
		if gainDB > 0 {
			return batch.Settings{}, &ValidationError{Message: "background gain must not be positive"}
		}
		settings.Background = &mixer.BackgroundTrack{Data: background, GainDB: gainDB}
	}
	return settings, nil
}

func sharedSettings(reg *voices.Registry, voice, style string, ratePct, volumePct int) (voices.Profile, string, string, string, error) {
	if ratePct < 50 || ratePct > 200 {
		return voices.Profile{}, "", "", "", &ValidationError{Message: fmt.Sprintf("speaking rate %d%% outside 50-200", ratePct)}
	}
	if volumePct < 0 || volumePct > 100 {
		return voices.Profile{}, "", "", "", &ValidationError{Message: fmt.Sprintf("volume %d%% outside 0-100", volumePct)}
	}
	if style == "" {
		style = "normal"
	}
	if !voices.ValidStyle(style) {
		return voices.Profile{}, "", "", "", &ValidationError{Message: fmt.Sprintf("unknown style %q", style)}
	}
	profile, err := reg.Lookup(voice)
	if err != nil {
		return voices.Profile{}, "", "", "", &ValidationError{Message: err.Error()}
	}
	return profile, style, synth.RateAdjustment(ratePct), synth.VolumeAdjustment(volumePct), nil
}

// FailureKind maps a pipeline error onto its wire-level error kind.
func FailureKind(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return "validation"
	}
	var serr *synth.Error
	if errors.As(err, &serr) {
		return "synthesis:" + string(serr.Kind)
	}
	var merr *mixer.Error
	if errors.As(err, &merr) {
		return "mix:" + string(merr.Kind)
	}
	var perr *artifact.Error
	if errors.As(err, &perr) {
		return "packaging"
	}
	return "internal"
}
