// Package types holds the value objects passed between the analysis stages.
package types

import (
	"math"
	"sort"
)

// SessionKey identifies one recording: a cohort on a given experiment day.
// Both components are opaque labels. Cohort takes priority over Day when ordering.
type SessionKey struct {
	Cohort string `json:"cohort_id"`
	Day    string `json:"day"`
}

// String renders the key as cohort/day
func (k SessionKey) String() string {
	return k.Cohort + "/" + k.Day
}

// Less orders keys by cohort, then day
func (k SessionKey) Less(o SessionKey) bool {
	if k.Cohort != o.Cohort {
		return k.Cohort < o.Cohort
	}
	return k.Day < o.Day
}

// FrameSample is one per-frame observation from either modality.
// Time is in seconds and is NaN when the source row carried no timestamp.
type FrameSample struct {
	Session  SessionKey        `json:"session"`
	Time     float64           `json:"t"`
	Freeze   bool              `json:"freeze"`
	Label    string            `json:"label,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// HasTime reports whether the sample carries a usable timestamp
func (s FrameSample) HasTime() bool {
	return !math.IsNaN(s.Time)
}

// Session is the group of samples sharing one SessionKey, in input order.
type Session struct {
	Key     SessionKey
	Samples []FrameSample
}

// Metadata returns the metadata of the session's first sample
func (s Session) Metadata() map[string]string {
	if len(s.Samples) == 0 {
		return nil
	}
	return s.Samples[0].Metadata
}

// Untimed reports whether any sample in the session lacks a timestamp
func (s Session) Untimed() bool {
	for _, sample := range s.Samples {
		if !sample.HasTime() {
			return true
		}
	}
	return false
}

// Partition groups samples by session key. Groups are returned sorted by key and
// each group keeps the relative order its samples had in the input.
func Partition(samples []FrameSample) []Session {
	index := make(map[SessionKey]int)
	var sessions []Session

	for _, s := range samples {
		i, ok := index[s.Session]
		if !ok {
			i = len(sessions)
			index[s.Session] = i
			sessions = append(sessions, Session{Key: s.Session})
		}
		sessions[i].Samples = append(sessions[i].Samples, s)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].Key.Less(sessions[j].Key)
	})
	return sessions
}

// SortByTime returns a copy of samples stably ordered by timestamp
func SortByTime(samples []FrameSample) []FrameSample {
	sorted := make([]FrameSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time < sorted[j].Time
	})
	return sorted
}

// PoseSample is one frame of the pose-based classifier output before it is
// reduced to a FrameSample. Frame is -1 and Time is NaN when absent.
type PoseSample struct {
	Session   SessionKey
	Frame     int
	Time      float64
	Syllable  string
	Freeze    bool
	HasFreeze bool
	Metadata  map[string]string
}
