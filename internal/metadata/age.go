// Package metadata derives per-session subject attributes such as age at the
// first fear-learning session.
package metadata

import (
	"math"
	"strconv"
	"time"

	"github.com/chrissnell/freezecompare/internal/table"
	"github.com/chrissnell/freezecompare/internal/types"
)

const (
	// SEFLADay is the day label of the first fear-learning session
	SEFLADay = "sefla"

	// DateLayout is the layout of date-of-birth and session date cells
	DateLayout = "2006-01-02"

	// DefaultYoungCutoffWeeks separates young from adult subjects
	DefaultYoungCutoffWeeks = 12.0

	AgeField   = "age_at_sefla"
	YoungField = "young"
)

// Subject is one subject-session row of the experiment log
type Subject struct {
	Session types.SessionKey
	DOB     time.Time
	Date    time.Time
}

// AgedSubject is a subject with its cohort's age in weeks at SEFL-A. AgeWeeks is
// nil when the cohort has no SEFL-A session.
type AgedSubject struct {
	Subject
	AgeWeeks *float64
	Young    bool
}

// SubjectSchema names the experiment log columns
type SubjectSchema struct {
	Cohort string
	Day    string
	DOB    string
	Date   string
}

// DefaultSubjectSchema matches the experiment log sheet
func DefaultSubjectSchema() SubjectSchema {
	return SubjectSchema{Cohort: "cohort_id", Day: "day", DOB: "dob", Date: "date"}
}

// DecodeSubjects reads subject rows from an experiment log table
func DecodeSubjects(t *table.Table, s SubjectSchema) ([]Subject, error) {
	if err := t.Require(s.Cohort, s.Day, s.DOB, s.Date); err != nil {
		return nil, err
	}

	subjects := make([]Subject, 0, t.Len())
	for row := 0; row < t.Len(); row++ {
		dob, err := time.Parse(DateLayout, t.Value(row, s.DOB))
		if err != nil {
			return nil, &types.SchemaError{Table: t.Name, Column: s.DOB, Reason: "row " + strconv.Itoa(row+1) + ": " + err.Error()}
		}
		date, err := time.Parse(DateLayout, t.Value(row, s.Date))
		if err != nil {
			return nil, &types.SchemaError{Table: t.Name, Column: s.Date, Reason: "row " + strconv.Itoa(row+1) + ": " + err.Error()}
		}
		subjects = append(subjects, Subject{
			Session: types.SessionKey{Cohort: t.Value(row, s.Cohort), Day: t.Value(row, s.Day)},
			DOB:     dob,
			Date:    date,
		})
	}
	return subjects, nil
}

// AgeAtSEFLA computes each cohort's age in weeks on its SEFL-A day, whole days
// divided by seven, and copies it to every row of that cohort. A subject is
// young when its age is below cutoffWeeks.
func AgeAtSEFLA(subjects []Subject, cutoffWeeks float64) []AgedSubject {
	ages := make(map[string]float64)
	for _, s := range subjects {
		if s.Session.Day != SEFLADay {
			continue
		}
		if _, ok := ages[s.Session.Cohort]; ok {
			continue
		}
		days := math.Floor(s.Date.Sub(s.DOB).Hours() / 24)
		ages[s.Session.Cohort] = days / 7
	}

	aged := make([]AgedSubject, len(subjects))
	for i, s := range subjects {
		aged[i] = AgedSubject{Subject: s}
		if age, ok := ages[s.Session.Cohort]; ok {
			aged[i].AgeWeeks = &age
			aged[i].Young = age < cutoffWeeks
		}
	}
	return aged
}

// ExcludeDays drops rows whose day is one of days
func ExcludeDays[T any](rows []T, dayOf func(T) string, days ...string) []T {
	skip := make(map[string]bool, len(days))
	for _, d := range days {
		skip[d] = true
	}
	kept := make([]T, 0, len(rows))
	for _, r := range rows {
		if !skip[dayOf(r)] {
			kept = append(kept, r)
		}
	}
	return kept
}

// Enrich adds age_at_sefla and young to the metadata of samples whose session
// appears in aged. Each touched sample gets its own metadata map.
func Enrich(samples []types.FrameSample, aged []AgedSubject) []types.FrameSample {
	fields := make(map[types.SessionKey]map[string]string, len(aged))
	for _, a := range aged {
		md := map[string]string{YoungField: strconv.FormatBool(a.Young)}
		if a.AgeWeeks != nil {
			md[AgeField] = strconv.FormatFloat(*a.AgeWeeks, 'f', -1, 64)
		}
		fields[a.Session] = md
	}

	out := make([]types.FrameSample, len(samples))
	for i, s := range samples {
		out[i] = s
		extra, ok := fields[s.Session]
		if !ok {
			continue
		}
		md := make(map[string]string, len(s.Metadata)+len(extra))
		for k, v := range s.Metadata {
			md[k] = v
		}
		for k, v := range extra {
			md[k] = v
		}
		out[i].Metadata = md
	}
	return out
}
