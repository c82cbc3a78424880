package freeze

import (
	"fmt"
	"math"
	"sort"

	"github.com/chrissnell/freezecompare/internal/types"
	"gonum.org/v1/gonum/stat"
)

// BinnedBout is a bout tagged with the 1-based minute its start falls in
type BinnedBout struct {
	types.Bout
	Minute int `json:"minute"`
}

// MinuteSummary is the result of binning bouts by start minute
type MinuteSummary struct {
	Bouts []BinnedBout      `json:"bouts"`
	Bins  []types.MinuteBin `json:"bins"`
}

// MinuteOf returns the 1-based minute for a time in seconds
func MinuteOf(seconds float64) int {
	return int(math.Floor(seconds/60)) + 1
}

// BinByMinute assigns each bout to the minute containing its start and reports
// count, median and mean duration for minutes 1 through floor(totalSeconds/60).
// Bouts outside that range are dropped from both the bout list and the bins.
// Empty minutes report a count of zero and nil statistics.
func BinByMinute(bouts []types.Bout, totalSeconds float64) (MinuteSummary, error) {
	if math.IsNaN(totalSeconds) || math.IsInf(totalSeconds, 0) || totalSeconds < 0 {
		return MinuteSummary{}, fmt.Errorf("total experiment time must be a non-negative number of seconds, got %v", totalSeconds)
	}

	lastMinute := int(math.Floor(totalSeconds / 60))
	durations := make(map[int][]float64, lastMinute)
	summary := MinuteSummary{
		Bouts: []BinnedBout{},
		Bins:  make([]types.MinuteBin, 0, lastMinute),
	}

	for _, b := range bouts {
		minute := MinuteOf(b.Start)
		if minute < 1 || minute > lastMinute {
			continue
		}
		summary.Bouts = append(summary.Bouts, BinnedBout{Bout: b, Minute: minute})
		durations[minute] = append(durations[minute], b.Duration)
	}

	for minute := 1; minute <= lastMinute; minute++ {
		bin := types.MinuteBin{Minute: minute, Count: len(durations[minute])}
		if bin.Count > 0 {
			median := Median(durations[minute])
			mean := stat.Mean(durations[minute], nil)
			bin.MedianDuration = &median
			bin.MeanDuration = &mean
		}
		summary.Bins = append(summary.Bins, bin)
	}

	return summary, nil
}

// Median returns the middle value of xs, averaging the two central values when
// len(xs) is even. xs is not modified. Median of an empty slice is NaN.
func Median(xs []float64) float64 {
	n := len(xs)
	if n == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), xs...)
	sort.Float64s(sorted)

	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// MedianFreezeDuration returns the median duration of all bouts across every
// session, or 0 when there are none
func MedianFreezeDuration(bouts []types.Bout) float64 {
	if len(bouts) == 0 {
		return 0
	}
	durations := make([]float64, len(bouts))
	for i, b := range bouts {
		durations[i] = b.Duration
	}
	return Median(durations)
}
