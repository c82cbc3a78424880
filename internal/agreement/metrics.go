// Package agreement scores how well the pose-based freeze signal agrees with
// the thresholded video signal.
package agreement

import (
	"fmt"

	"github.com/chrissnell/freezecompare/internal/types"
)

// Scores are binary classification metrics with freezing as the positive class
type Scores struct {
	F1          float64 `json:"f1"`
	Sensitivity float64 `json:"sensitivity"`
}

// confusion holds the counts of a binary comparison
type confusion struct {
	tp, fp, fn, tn int
}

func count(reference, candidate []bool) confusion {
	var c confusion
	for i := range reference {
		switch r, p := reference[i], candidate[i]; {
		case r && p:
			c.tp++
		case !r && p:
			c.fp++
		case r && !p:
			c.fn++
		default:
			c.tn++
		}
	}
	return c
}

// Score compares candidate against reference. It fails with an error wrapping
// types.ErrScoringFailure when the sequences differ in length, are empty, or
// hold a single class between them. A metric whose denominator is zero is 0.
func Score(reference, candidate []bool) (Scores, error) {
	if len(reference) != len(candidate) {
		return Scores{}, fmt.Errorf("%w: length mismatch %d != %d", types.ErrScoringFailure, len(reference), len(candidate))
	}
	if len(reference) == 0 {
		return Scores{}, fmt.Errorf("%w: empty sequences", types.ErrScoringFailure)
	}

	c := count(reference, candidate)
	if c.tp+c.fp+c.fn == 0 || c.fp+c.fn+c.tn == 0 {
		return Scores{}, fmt.Errorf("%w: only one class present", types.ErrScoringFailure)
	}

	var s Scores
	if d := 2*c.tp + c.fp + c.fn; d > 0 {
		s.F1 = float64(2*c.tp) / float64(d)
	}
	if d := c.tp + c.fn; d > 0 {
		s.Sensitivity = float64(c.tp) / float64(d)
	}
	return s, nil
}
