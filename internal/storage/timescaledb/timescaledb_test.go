package timescaledb

import (
	"testing"
	"time"

	"github.com/chrissnell/freezecompare/internal/agreement"
	"github.com/chrissnell/freezecompare/internal/storage"
	"github.com/chrissnell/freezecompare/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRecords(t *testing.T) {
	key := types.SessionKey{Cohort: "m1", Day: "recall1"}
	median := 2.0
	run := storage.NewRun(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	run.Median = 2
	run.Transitions = []types.Transition{{Session: key, Time: 2, Kind: types.Onset}}
	run.Bouts = []types.Bout{{Session: key, Start: 2, End: 4, Duration: 2, Metadata: map[string]string{"condition": "fear"}}}
	run.Bins = []types.MinuteBin{{Minute: 1, Count: 1, MedianDuration: &median, MeanDuration: &median}, {Minute: 2}}
	run.Agreement = &agreement.Report{
		Sessions:       []agreement.SessionResult{{Session: key, Group: "fear", Frames: 7, Scores: agreement.Scores{F1: 1, Sensitivity: 1}}},
		Overall:        agreement.Scores{F1: 1, Sensitivity: 1},
		SessionsScored: 1,
	}

	r, err := toRecords(run)
	require.NoError(t, err)

	assert.Equal(t, run.ID.String(), r.run.RunID)
	assert.Equal(t, 1, r.run.SessionsScored)
	assert.Equal(t, 1.0, r.run.OverallF1)

	require.Len(t, r.transitions, 1)
	assert.Equal(t, "onset", r.transitions[0].Kind)
	assert.Equal(t, run.ID.String(), r.transitions[0].RunID)

	require.Len(t, r.bouts, 1)
	assert.JSONEq(t, `{"condition":"fear"}`, r.bouts[0].Metadata)

	require.Len(t, r.bins, 2)
	assert.Nil(t, r.bins[1].MedianDuration)

	require.Len(t, r.scores, 1)
	assert.Equal(t, "fear", r.scores[0].GroupLabel)
}

func TestToRecordsWithoutAgreement(t *testing.T) {
	r, err := toRecords(storage.NewRun(time.Now()))
	require.NoError(t, err)
	assert.Empty(t, r.scores)
	assert.Equal(t, 0, r.run.SessionsScored)
}
