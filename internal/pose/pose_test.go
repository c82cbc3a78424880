package pose

import (
	"math"
	"testing"

	"github.com/chrissnell/freezecompare/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var session = types.SessionKey{Cohort: "m1", Day: "recall1"}

func TestToFrameSamples(t *testing.T) {
	poses := []types.PoseSample{
		{Session: session, Frame: 0, Time: math.NaN(), Syllable: "12"},
		{Session: session, Frame: 15, Time: math.NaN(), Syllable: "3"},
		{Session: session, Frame: 30, Time: 5, Syllable: "12"},
		{Session: session, Frame: -1, Time: math.NaN(), Syllable: "7"},
	}

	samples, err := ToFrameSamples(poses, Options{FPS: 30, FreezeSyllables: []string{"12"}})
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Equal(t, 0.0, samples[0].Time)
	assert.Equal(t, 0.5, samples[1].Time)
	assert.Equal(t, 5.0, samples[2].Time, "own timestamp wins over frame index")
	assert.False(t, samples[3].HasTime())

	assert.True(t, samples[0].Freeze)
	assert.False(t, samples[1].Freeze)
	assert.Equal(t, "3", samples[1].Label)
}

func TestToFrameSamplesKeepsIndicator(t *testing.T) {
	poses := []types.PoseSample{
		{Session: session, Frame: 0, Time: 0, Syllable: "12", Freeze: false, HasFreeze: true},
		{Session: session, Frame: 1, Time: 1, Syllable: "3", Freeze: true, HasFreeze: true},
	}

	samples, err := ToFrameSamples(poses, Options{FreezeSyllables: []string{"12"}})
	require.NoError(t, err)
	assert.False(t, samples[0].Freeze)
	assert.True(t, samples[1].Freeze)
}

func TestToFrameSamplesErrors(t *testing.T) {
	poses := []types.PoseSample{{Session: session, Frame: 0, Time: 0, Syllable: "12"}}

	_, err := ToFrameSamples(poses, Options{FPS: 30})
	assert.True(t, types.IsSchemaError(err), "missing indicator without syllable set")

	_, err = ToFrameSamples(poses, Options{FPS: -1, FreezeSyllables: []string{"12"}})
	assert.Error(t, err)
}
