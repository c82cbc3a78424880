package table

import (
	"math"
	"strconv"
	"strings"

	"github.com/chrissnell/freezecompare/internal/types"
)

// FrameSchema names the columns of a thresholded freeze record
type FrameSchema struct {
	Time     string
	Freeze   string
	Cohort   string
	Day      string
	Metadata []string
}

// DefaultFrameSchema matches the FreezeFrame export layout
func DefaultFrameSchema() FrameSchema {
	return FrameSchema{
		Time:     "t(sec)",
		Freeze:   "freeze",
		Cohort:   "cohort_id",
		Day:      "day",
		Metadata: []string{"condition", "sex", "age"},
	}
}

// PoseSchema names the columns of a pose-derived record. Time, Frame and Freeze
// are optional; a record needs either Time or Frame to be aligned.
type PoseSchema struct {
	Time     string
	Frame    string
	Syllable string
	Freeze   string
	Cohort   string
	Day      string
	Metadata []string
}

// DefaultPoseSchema matches the MoSeq export layout
func DefaultPoseSchema() PoseSchema {
	return PoseSchema{
		Time:     "t(sec)",
		Frame:    "frame",
		Syllable: "syllable",
		Freeze:   "freeze",
		Cohort:   "cohort_id",
		Day:      "day",
	}
}

// DecodeFrames converts a freeze record into samples. Every required column must
// be present and every cell of the timestamp and indicator columns must parse.
func DecodeFrames(t *Table, s FrameSchema) ([]types.FrameSample, error) {
	if err := t.Require(s.Cohort, s.Day, s.Time, s.Freeze); err != nil {
		return nil, err
	}

	samples := make([]types.FrameSample, 0, t.Len())
	for row := 0; row < t.Len(); row++ {
		ts, err := parseTime(t, row, s.Time)
		if err != nil {
			return nil, err
		}
		if math.IsNaN(ts) {
			return nil, &types.SchemaError{Table: t.Name, Column: s.Time, Reason: "row " + strconv.Itoa(row+1) + ": empty timestamp"}
		}
		freeze, err := parseIndicator(t, row, s.Freeze)
		if err != nil {
			return nil, err
		}

		samples = append(samples, types.FrameSample{
			Session:  types.SessionKey{Cohort: t.Value(row, s.Cohort), Day: t.Value(row, s.Day)},
			Time:     ts,
			Freeze:   freeze,
			Label:    t.Value(row, s.Freeze),
			Metadata: metadata(t, row, s.Metadata),
		})
	}

	return samples, nil
}

// DecodePose converts a pose-derived record into pose samples. Blank timestamp
// cells are kept as NaN so the affected session can be reported downstream.
func DecodePose(t *Table, s PoseSchema) ([]types.PoseSample, error) {
	if err := t.Require(s.Cohort, s.Day, s.Syllable); err != nil {
		return nil, err
	}
	hasTime := s.Time != "" && t.Has(s.Time)
	hasFrame := s.Frame != "" && t.Has(s.Frame)
	hasFreeze := s.Freeze != "" && t.Has(s.Freeze)

	samples := make([]types.PoseSample, 0, t.Len())
	for row := 0; row < t.Len(); row++ {
		p := types.PoseSample{
			Session:   types.SessionKey{Cohort: t.Value(row, s.Cohort), Day: t.Value(row, s.Day)},
			Frame:     -1,
			Time:      math.NaN(),
			Syllable:  t.Value(row, s.Syllable),
			HasFreeze: hasFreeze,
			Metadata:  metadata(t, row, s.Metadata),
		}

		if hasTime {
			ts, err := parseTime(t, row, s.Time)
			if err != nil {
				return nil, err
			}
			p.Time = ts
		}
		if hasFrame {
			if cell := t.Value(row, s.Frame); cell != "" {
				frame, err := strconv.Atoi(cell)
				if err != nil || frame < 0 {
					return nil, &types.SchemaError{Table: t.Name, Column: s.Frame, Reason: "row " + strconv.Itoa(row+1) + ": invalid frame index " + strconv.Quote(cell)}
				}
				p.Frame = frame
			}
		}
		if hasFreeze {
			freeze, err := parseIndicator(t, row, s.Freeze)
			if err != nil {
				return nil, err
			}
			p.Freeze = freeze
		}

		samples = append(samples, p)
	}

	return samples, nil
}

// parseTime returns NaN for a blank cell
func parseTime(t *Table, row int, column string) (float64, error) {
	cell := t.Value(row, column)
	if cell == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil || math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, &types.SchemaError{Table: t.Name, Column: column, Reason: "row " + strconv.Itoa(row+1) + ": non-numeric timestamp " + strconv.Quote(cell)}
	}
	return v, nil
}

func parseIndicator(t *Table, row int, column string) (bool, error) {
	cell := t.Value(row, column)
	switch strings.ToLower(cell) {
	case "1", "1.0", "true":
		return true, nil
	case "0", "0.0", "false":
		return false, nil
	}
	return false, &types.SchemaError{Table: t.Name, Column: column, Reason: "row " + strconv.Itoa(row+1) + ": non-binary indicator " + strconv.Quote(cell)}
}

// metadata copies the named columns that are present in the table
func metadata(t *Table, row int, fields []string) map[string]string {
	if len(fields) == 0 {
		return nil
	}
	md := make(map[string]string, len(fields))
	for _, f := range fields {
		if t.Has(f) {
			md[f] = t.Value(row, f)
		}
	}
	return md
}
