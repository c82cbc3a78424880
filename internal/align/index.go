// Package align matches two independently sampled per-frame signals by time.
package align

import (
	"math"
	"sort"

	"github.com/chrissnell/freezecompare/internal/types"
)

// sessionSeries is one session's timed samples in ascending time order
type sessionSeries struct {
	times   []float64
	samples []types.FrameSample
}

// Index answers nearest-time and window queries per session using binary search
type Index struct {
	sessions map[types.SessionKey]*sessionSeries
}

// NewIndex builds an index over samples. Samples without a timestamp are left out.
func NewIndex(samples []types.FrameSample) *Index {
	ix := &Index{sessions: make(map[types.SessionKey]*sessionSeries)}

	for _, session := range types.Partition(samples) {
		timed := make([]types.FrameSample, 0, len(session.Samples))
		for _, s := range session.Samples {
			if s.HasTime() {
				timed = append(timed, s)
			}
		}
		if len(timed) == 0 {
			continue
		}

		timed = types.SortByTime(timed)
		series := &sessionSeries{
			times:   make([]float64, len(timed)),
			samples: timed,
		}
		for i, s := range timed {
			series.times[i] = s.Time
		}
		ix.sessions[session.Key] = series
	}

	return ix
}

// Has reports whether the index holds timed samples for the session
func (ix *Index) Has(key types.SessionKey) bool {
	_, ok := ix.sessions[key]
	return ok
}

// Nearest returns the timestamp of the sample closest to t in the session.
// On a tie the earlier sample wins.
func (ix *Index) Nearest(key types.SessionKey, t float64) (float64, bool) {
	series, ok := ix.sessions[key]
	if !ok {
		return 0, false
	}

	times := series.times
	i := sort.SearchFloat64s(times, t)
	switch {
	case i == 0:
		return times[0], true
	case i == len(times):
		return times[len(times)-1], true
	}

	before, after := times[i-1], times[i]
	if math.Abs(t-before) <= math.Abs(after-t) {
		return before, true
	}
	return after, true
}

// Window returns the session's samples whose time lies in [center-half, center+half]
func (ix *Index) Window(key types.SessionKey, center, half float64) []types.FrameSample {
	series, ok := ix.sessions[key]
	if !ok {
		return nil
	}

	lo := sort.SearchFloat64s(series.times, center-half)
	hi := sort.Search(len(series.times), func(i int) bool {
		return series.times[i] > center+half
	})
	return series.samples[lo:hi]
}
