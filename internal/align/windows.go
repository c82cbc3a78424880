package align

import (
	"fmt"
	"math"

	"github.com/chrissnell/freezecompare/internal/types"
	"go.uber.org/zap"
)

// Aligner extracts windows of one modality around transitions of the other
type Aligner struct {
	windowSeconds float64
	logger        *zap.SugaredLogger
}

// NewAligner creates an aligner with a half-window of windowSeconds
func NewAligner(windowSeconds float64, logger *zap.SugaredLogger) (*Aligner, error) {
	if math.IsNaN(windowSeconds) || math.IsInf(windowSeconds, 0) || windowSeconds < 0 {
		return nil, fmt.Errorf("window size must be a non-negative number of seconds, got %v", windowSeconds)
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Aligner{
		windowSeconds: windowSeconds,
		logger:        logger,
	}, nil
}

// WindowSeconds returns the configured half-window
func (a *Aligner) WindowSeconds() float64 {
	return a.windowSeconds
}

// Windows finds, for each transition, the other-modality sample of the same
// session nearest in time and returns every sample within the half-window of it.
// Each extracted sample carries the transition kind and its offset from the
// nearest sample's time. Transitions whose session is absent from other are
// skipped and reported as AlignmentGap diagnostics, one per session.
func (a *Aligner) Windows(transitions []types.Transition, other []types.FrameSample) ([]types.AlignedSample, []types.Diagnostic) {
	return a.WindowsIndexed(transitions, NewIndex(other))
}

// WindowsIndexed is Windows over a prebuilt index
func (a *Aligner) WindowsIndexed(transitions []types.Transition, ix *Index) ([]types.AlignedSample, []types.Diagnostic) {
	aligned := []types.AlignedSample{}
	var diags []types.Diagnostic
	gaps := make(map[types.SessionKey]int)

	for _, tr := range transitions {
		closest, ok := ix.Nearest(tr.Session, tr.Time)
		if !ok {
			if gaps[tr.Session] == 0 {
				diags = append(diags, types.Diagnostic{Kind: types.AlignmentGap, Session: tr.Session})
			}
			gaps[tr.Session]++
			continue
		}

		for _, s := range ix.Window(tr.Session, closest, a.windowSeconds) {
			aligned = append(aligned, types.AlignedSample{
				Session:      tr.Session,
				Label:        s.Label,
				Time:         s.Time,
				RelativeTime: s.Time - closest,
				Kind:         tr.Kind,
				AnchorTime:   closest,
			})
		}
	}

	for i := range diags {
		n := gaps[diags[i].Session]
		diags[i].Detail = fmt.Sprintf("%d transitions without matching session", n)
		a.logger.Warnf("No matching session %s in other modality, skipped %d transitions", diags[i].Session, n)
	}

	return aligned, diags
}
