// Package pose reduces pose-classifier frames to per-frame freeze samples.
package pose

import (
	"fmt"
	"math"

	"github.com/chrissnell/freezecompare/internal/types"
)

// Options controls how pose frames become freeze samples
type Options struct {
	// FPS converts frame indices to seconds when a frame carries no timestamp
	FPS float64

	// FreezeSyllables are the syllable labels counted as freezing when the
	// record has no freeze indicator of its own
	FreezeSyllables []string
}

// FreezeIndicator reports whether label is one of the freezing syllables
func FreezeIndicator(label string, freezeSyllables map[string]bool) bool {
	return freezeSyllables[label]
}

// TimestampFromFrame converts a frame index to seconds at fps
func TimestampFromFrame(frame int, fps float64) float64 {
	return float64(frame) / fps
}

// ToFrameSamples converts pose frames into samples labelled by syllable. A
// frame keeps its own timestamp when it has one, otherwise its frame index is
// converted with opts.FPS; frames with neither stay untimed (NaN).
func ToFrameSamples(poses []types.PoseSample, opts Options) ([]types.FrameSample, error) {
	if opts.FPS < 0 || math.IsNaN(opts.FPS) || math.IsInf(opts.FPS, 0) {
		return nil, fmt.Errorf("frame rate must not be negative, got %v", opts.FPS)
	}

	syllables := make(map[string]bool, len(opts.FreezeSyllables))
	for _, s := range opts.FreezeSyllables {
		syllables[s] = true
	}

	samples := make([]types.FrameSample, 0, len(poses))
	for _, p := range poses {
		freeze := p.Freeze
		if !p.HasFreeze {
			if len(syllables) == 0 {
				return nil, &types.SchemaError{Table: "pose", Column: "freeze", Reason: "no freeze indicator and no freeze syllables configured"}
			}
			freeze = FreezeIndicator(p.Syllable, syllables)
		}

		ts := p.Time
		if math.IsNaN(ts) && p.Frame >= 0 && opts.FPS > 0 {
			ts = TimestampFromFrame(p.Frame, opts.FPS)
		}

		samples = append(samples, types.FrameSample{
			Session:  p.Session,
			Time:     ts,
			Freeze:   freeze,
			Label:    p.Syllable,
			Metadata: p.Metadata,
		})
	}

	return samples, nil
}
