package align

import (
	"math"

	"github.com/chrissnell/freezecompare/internal/types"
)

// TruncateSessions pairs every reference session with the candidate session of
// the same key for whole-session comparison. Both are restricted to the time
// range they share, then cut to the shorter length by position.
//
// The positional cut ignores timestamps after the overlap step, so series
// sampled at different rates drift apart along the session. Downstream scores
// depend on this exact behaviour; keep it unless every consumer is changed.
func TruncateSessions(reference, candidate []types.FrameSample) ([]types.EthogramPair, []types.Diagnostic) {
	candidates := make(map[types.SessionKey]types.Session)
	for _, s := range types.Partition(candidate) {
		candidates[s.Key] = s
	}

	pairs := []types.EthogramPair{}
	var diags []types.Diagnostic

	for _, ref := range types.Partition(reference) {
		cand, ok := candidates[ref.Key]
		if !ok {
			diags = append(diags, types.Diagnostic{Kind: types.EmptyAfterAlignment, Session: ref.Key, Detail: "no candidate session"})
			continue
		}
		if ref.Untimed() || cand.Untimed() {
			diags = append(diags, types.Diagnostic{Kind: types.MissingTimeColumn, Session: ref.Key})
			continue
		}

		pair, ok := truncate(ref, cand)
		if !ok {
			diags = append(diags, types.Diagnostic{Kind: types.EmptyAfterAlignment, Session: ref.Key, Detail: "no overlapping time range"})
			continue
		}
		pairs = append(pairs, pair)
	}

	return pairs, diags
}

func truncate(ref, cand types.Session) (types.EthogramPair, bool) {
	refSorted := types.SortByTime(ref.Samples)
	candSorted := types.SortByTime(cand.Samples)
	if len(refSorted) == 0 || len(candSorted) == 0 {
		return types.EthogramPair{}, false
	}

	lo := math.Max(refSorted[0].Time, candSorted[0].Time)
	hi := math.Min(refSorted[len(refSorted)-1].Time, candSorted[len(candSorted)-1].Time)

	r := indicators(refSorted, lo, hi)
	c := indicators(candSorted, lo, hi)
	n := min(len(r), len(c))
	if n == 0 {
		return types.EthogramPair{}, false
	}

	return types.EthogramPair{
		Session:   ref.Key,
		Metadata:  ref.Metadata(),
		Reference: r[:n],
		Candidate: c[:n],
	}, true
}

func indicators(samples []types.FrameSample, lo, hi float64) []bool {
	var out []bool
	for _, s := range samples {
		if s.Time >= lo && s.Time <= hi {
			out = append(out, s.Freeze)
		}
	}
	return out
}
