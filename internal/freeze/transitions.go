// Package freeze segments per-frame freeze signals into transitions and bouts
// and summarizes bouts over the course of an experiment.
package freeze

import (
	"sort"

	"github.com/chrissnell/freezecompare/internal/types"
)

// DetectTransitions compares every sample with the one before it in the same
// session and emits an onset for 0 -> 1 and an offset for 1 -> 0. The first sample
// of a session is compared against an implicit 0. Samples are expected in time
// order within each session.
//
// The result is ordered by session key, then timestamp.
func DetectTransitions(samples []types.FrameSample) []types.Transition {
	transitions := []types.Transition{}

	for _, session := range types.Partition(samples) {
		transitions = append(transitions, sessionTransitions(session)...)
	}

	sort.SliceStable(transitions, func(i, j int) bool {
		a, b := transitions[i], transitions[j]
		if a.Session != b.Session {
			return a.Session.Less(b.Session)
		}
		return a.Time < b.Time
	})

	return transitions
}

func sessionTransitions(session types.Session) []types.Transition {
	var out []types.Transition
	previous := false

	for _, s := range session.Samples {
		switch {
		case !previous && s.Freeze:
			out = append(out, types.Transition{Session: session.Key, Time: s.Time, Kind: types.Onset})
		case previous && !s.Freeze:
			out = append(out, types.Transition{Session: session.Key, Time: s.Time, Kind: types.Offset})
		}
		previous = s.Freeze
	}

	return out
}

// CountKinds returns the number of onsets and offsets in transitions
func CountKinds(transitions []types.Transition) (onsets, offsets int) {
	for _, t := range transitions {
		switch t.Kind {
		case types.Onset:
			onsets++
		case types.Offset:
			offsets++
		}
	}
	return onsets, offsets
}
