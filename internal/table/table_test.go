package table

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chrissnell/freezecompare/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const freezeFrameCSV = `t(sec),freeze,cohort_id,day,condition
0,0,m1,recall1,fear
1,1,m1,recall1,fear
2,1,m1,recall1,fear
0,0,m2,recall1,control
`

func TestLoad(t *testing.T) {
	tbl, err := Load("ff.csv", strings.NewReader(freezeFrameCSV))
	require.NoError(t, err)

	assert.Equal(t, 4, tbl.Len())
	assert.Equal(t, []string{"t(sec)", "freeze", "cohort_id", "day", "condition"}, tbl.Columns())
	assert.Equal(t, "m2", tbl.Value(3, "cohort_id"))
	assert.Equal(t, "", tbl.Value(0, "missing"))
}

func TestLoadEmpty(t *testing.T) {
	_, err := Load("empty.csv", strings.NewReader(""))
	require.Error(t, err)
	assert.True(t, types.IsSchemaError(err))
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ff.csv")
	require.NoError(t, os.WriteFile(path, []byte(freezeFrameCSV), 0o644))

	tbl, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "ff.csv", tbl.Name)
	assert.Equal(t, 4, tbl.Len())
}

func TestDecodeFrames(t *testing.T) {
	tbl, err := Load("ff.csv", strings.NewReader(freezeFrameCSV))
	require.NoError(t, err)

	samples, err := DecodeFrames(tbl, DefaultFrameSchema())
	require.NoError(t, err)
	require.Len(t, samples, 4)

	assert.Equal(t, types.SessionKey{Cohort: "m1", Day: "recall1"}, samples[1].Session)
	assert.True(t, samples[1].Freeze)
	assert.False(t, samples[0].Freeze)
	assert.Equal(t, 2.0, samples[2].Time)
	assert.Equal(t, map[string]string{"condition": "fear"}, samples[0].Metadata)
}

func TestDecodeFramesSchemaErrors(t *testing.T) {
	tests := []struct {
		name   string
		csv    string
		column string
	}{
		{
			name:   "missing freeze column",
			csv:    "t(sec),cohort_id,day\n0,m1,d1\n",
			column: "freeze",
		},
		{
			name:   "missing session field",
			csv:    "t(sec),freeze,cohort_id\n0,1,m1\n",
			column: "day",
		},
		{
			name:   "non-binary indicator",
			csv:    "t(sec),freeze,cohort_id,day\n0,2,m1,d1\n",
			column: "freeze",
		},
		{
			name:   "non-numeric timestamp",
			csv:    "t(sec),freeze,cohort_id,day\nabc,1,m1,d1\n",
			column: "t(sec)",
		},
		{
			name:   "blank timestamp",
			csv:    "t(sec),freeze,cohort_id,day\n,1,m1,d1\n",
			column: "t(sec)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Load("ff.csv", strings.NewReader(tt.csv))
			require.NoError(t, err)

			samples, err := DecodeFrames(tbl, DefaultFrameSchema())
			require.Error(t, err)
			assert.Nil(t, samples)

			var se *types.SchemaError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, tt.column, se.Column)
		})
	}
}

func TestDecodePose(t *testing.T) {
	csv := "frame,syllable,cohort_id,day,t(sec)\n0,3,m1,d1,0\n1,4,m1,d1,\n"
	tbl, err := Load("moseq.csv", strings.NewReader(csv))
	require.NoError(t, err)

	poses, err := DecodePose(tbl, DefaultPoseSchema())
	require.NoError(t, err)
	require.Len(t, poses, 2)

	assert.Equal(t, 0, poses[0].Frame)
	assert.Equal(t, "3", poses[0].Syllable)
	assert.Equal(t, 0.0, poses[0].Time)
	assert.True(t, math.IsNaN(poses[1].Time))
	assert.False(t, poses[0].HasFreeze)
}

func TestDecodePoseMissingSyllable(t *testing.T) {
	tbl, err := Load("moseq.csv", strings.NewReader("frame,cohort_id,day\n0,m1,d1\n"))
	require.NoError(t, err)

	_, err = DecodePose(tbl, DefaultPoseSchema())
	assert.True(t, types.IsSchemaError(err))
}
