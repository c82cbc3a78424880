package freeze

import (
	"math"
	"testing"

	"github.com/chrissnell/freezecompare/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionA = types.SessionKey{Cohort: "m1", Day: "recall1"}

func signal(key types.SessionKey, indicator []int, md map[string]string) []types.FrameSample {
	samples := make([]types.FrameSample, len(indicator))
	for i, v := range indicator {
		samples[i] = types.FrameSample{Session: key, Time: float64(i), Freeze: v == 1, Metadata: md}
	}
	return samples
}

func TestDetectTransitions(t *testing.T) {
	samples := signal(sessionA, []int{0, 0, 1, 1, 0, 1, 0}, nil)

	got := DetectTransitions(samples)

	expected := []types.Transition{
		{Session: sessionA, Time: 2, Kind: types.Onset},
		{Session: sessionA, Time: 4, Kind: types.Offset},
		{Session: sessionA, Time: 5, Kind: types.Onset},
		{Session: sessionA, Time: 6, Kind: types.Offset},
	}
	assert.Equal(t, expected, got)
}

func TestDetectTransitionsSessionBoundary(t *testing.T) {
	sessionB := types.SessionKey{Cohort: "m2", Day: "recall1"}
	// m2 starts freezing; its first sample must not be compared with m1's last
	samples := append(signal(sessionB, []int{1, 1, 0}, nil), signal(sessionA, []int{0, 1}, nil)...)

	got := DetectTransitions(samples)

	require.Len(t, got, 3)
	assert.Equal(t, types.Transition{Session: sessionA, Time: 1, Kind: types.Onset}, got[0])
	assert.Equal(t, types.Transition{Session: sessionB, Time: 0, Kind: types.Onset}, got[1])
	assert.Equal(t, types.Transition{Session: sessionB, Time: 2, Kind: types.Offset}, got[2])
}

func TestDetectTransitionsBalance(t *testing.T) {
	tests := []struct {
		name      string
		indicator []int
	}{
		{"starts and ends still", []int{0, 1, 1, 0, 0, 1, 0}},
		{"ends mid-freeze", []int{0, 1, 0, 1, 1}},
		{"starts mid-freeze", []int{1, 1, 0, 0}},
		{"never freezes", []int{0, 0, 0}},
		{"always freezes", []int{1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			onsets, offsets := CountKinds(DetectTransitions(signal(sessionA, tt.indicator, nil)))
			diff := onsets - offsets
			assert.True(t, diff == 0 || diff == 1, "onsets=%d offsets=%d", onsets, offsets)
		})
	}
}

func TestDetectTransitionsEmpty(t *testing.T) {
	got := DetectTransitions(nil)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtractBouts(t *testing.T) {
	md := map[string]string{"condition": "fear", "sex": "F", "cage": "7"}
	samples := signal(sessionA, []int{0, 0, 1, 1, 0, 1, 0}, md)

	bouts, diags := NewBoutExtractor(nil, "condition", "sex").Extract(samples)

	assert.Empty(t, diags)
	require.Len(t, bouts, 2)
	assert.Equal(t, 2.0, bouts[0].Start)
	assert.Equal(t, 4.0, bouts[0].End)
	assert.Equal(t, 2.0, bouts[0].Duration)
	assert.Equal(t, 5.0, bouts[1].Start)
	assert.Equal(t, 6.0, bouts[1].End)
	assert.Equal(t, 1.0, bouts[1].Duration)
	assert.Equal(t, map[string]string{"condition": "fear", "sex": "F"}, bouts[0].Metadata)
}

func TestExtractSessionEdgeCases(t *testing.T) {
	tests := []struct {
		name      string
		indicator []int
		expected  [][2]float64
	}{
		{"constant zero", []int{0, 0, 0, 0}, nil},
		{"constant one spans session", []int{1, 1, 1, 1}, [][2]float64{{0, 3}}},
		{"trailing bout closed at last sample", []int{0, 1, 0, 1, 1}, [][2]float64{{1, 2}, {3, 4}}},
		{"single freezing sample", []int{1}, [][2]float64{{0, 0}}},
	}

	e := NewBoutExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bouts, diag := e.ExtractSession(types.Session{Key: sessionA, Samples: signal(sessionA, tt.indicator, nil)})
			assert.Nil(t, diag)
			require.Len(t, bouts, len(tt.expected))

			total := 0.0
			for i, b := range bouts {
				assert.Equal(t, tt.expected[i][0], b.Start)
				assert.Equal(t, tt.expected[i][1], b.End)
				assert.GreaterOrEqual(t, b.End, b.Start)
				total += b.Duration
			}
			assert.LessOrEqual(t, total, float64(len(tt.indicator)-1))
		})
	}
}

func TestExtractSessionSortsByTime(t *testing.T) {
	samples := []types.FrameSample{
		{Session: sessionA, Time: 3, Freeze: false},
		{Session: sessionA, Time: 1, Freeze: true},
		{Session: sessionA, Time: 0, Freeze: false},
		{Session: sessionA, Time: 2, Freeze: true},
	}

	bouts, _ := NewBoutExtractor(nil).ExtractSession(types.Session{Key: sessionA, Samples: samples})

	require.Len(t, bouts, 1)
	assert.Equal(t, 1.0, bouts[0].Start)
	assert.Equal(t, 3.0, bouts[0].End)
}

func TestExtractReportsEmptySessions(t *testing.T) {
	// m1 has recall1 only, m2 has recall2 only: m1/recall2 and m2/recall1 are empty
	samples := append(
		signal(types.SessionKey{Cohort: "m1", Day: "recall1"}, []int{0, 1, 0}, nil),
		signal(types.SessionKey{Cohort: "m2", Day: "recall2"}, []int{1, 0}, nil)...,
	)

	bouts, diags := NewBoutExtractor(nil).Extract(samples)

	assert.Len(t, bouts, 2)
	require.Len(t, diags, 2)
	assert.Equal(t, types.EmptyInput, diags[0].Kind)
	assert.Equal(t, types.SessionKey{Cohort: "m1", Day: "recall2"}, diags[0].Session)
	assert.Equal(t, types.SessionKey{Cohort: "m2", Day: "recall1"}, diags[1].Session)
}

func TestBinByMinute(t *testing.T) {
	bouts := []types.Bout{
		{Session: sessionA, Start: 10, End: 14, Duration: 4},
		{Session: sessionA, Start: 75, End: 76, Duration: 1},
	}

	summary, err := BinByMinute(bouts, 120)
	require.NoError(t, err)

	require.Len(t, summary.Bins, 2)
	assert.Equal(t, 1, summary.Bins[0].Minute)
	assert.Equal(t, 1, summary.Bins[0].Count)
	assert.Equal(t, 2, summary.Bins[1].Minute)
	assert.Equal(t, 1, summary.Bins[1].Count)
	require.Len(t, summary.Bouts, 2)
	assert.Equal(t, 1, summary.Bouts[0].Minute)
	assert.Equal(t, 2, summary.Bouts[1].Minute)
}

func TestBinByMinuteStatistics(t *testing.T) {
	bouts := []types.Bout{
		{Start: 1, Duration: 1},
		{Start: 5, Duration: 2},
		{Start: 30, Duration: 6},
		{Start: 59, Duration: 3},
		{Start: 125, Duration: 0},
		{Start: 200, Duration: 9}, // beyond the experiment
	}

	summary, err := BinByMinute(bouts, 180)
	require.NoError(t, err)
	require.Len(t, summary.Bins, 3)

	first := summary.Bins[0]
	assert.Equal(t, 4, first.Count)
	require.NotNil(t, first.MedianDuration)
	assert.InDelta(t, 2.5, *first.MedianDuration, 1e-9)
	assert.InDelta(t, 3.0, *first.MeanDuration, 1e-9)

	// an empty minute has no statistics at all
	empty := summary.Bins[1]
	assert.Equal(t, 0, empty.Count)
	assert.False(t, empty.HasData())
	assert.Nil(t, empty.MedianDuration)
	assert.Nil(t, empty.MeanDuration)

	// a zero-length bout is data, not absence of data
	zero := summary.Bins[2]
	assert.Equal(t, 1, zero.Count)
	require.NotNil(t, zero.MedianDuration)
	assert.Equal(t, 0.0, *zero.MedianDuration)

	counted := 0
	for _, b := range summary.Bins {
		counted += b.Count
	}
	assert.Equal(t, 5, counted)
	assert.Len(t, summary.Bouts, 5)
}

func TestBinByMinuteInvalidTotal(t *testing.T) {
	for _, total := range []float64{-1, math.NaN(), math.Inf(1)} {
		_, err := BinByMinute(nil, total)
		assert.Error(t, err, "total=%v", total)
	}
}

func TestBinByMinuteShortExperiment(t *testing.T) {
	summary, err := BinByMinute([]types.Bout{{Start: 10, Duration: 1}}, 59)
	require.NoError(t, err)
	assert.Empty(t, summary.Bins)
	assert.Empty(t, summary.Bouts)
}

func TestMedian(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"odd", []float64{3, 1, 2}, 2},
		{"even", []float64{4, 1, 3, 2}, 2.5},
		{"single", []float64{7}, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Median(tt.values); math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("Median(%v) = %v, expected %v", tt.values, got, tt.expected)
			}
		})
	}

	assert.True(t, math.IsNaN(Median(nil)))
}

func TestMedianFreezeDuration(t *testing.T) {
	assert.Equal(t, 0.0, MedianFreezeDuration(nil))

	bouts := []types.Bout{{Duration: 2}, {Duration: 1}, {Duration: 10}}
	assert.Equal(t, 2.0, MedianFreezeDuration(bouts))
}
