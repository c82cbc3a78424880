package metadata

import (
	"strings"
	"testing"

	"github.com/chrissnell/freezecompare/internal/table"
	"github.com/chrissnell/freezecompare/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const experimentLog = `cohort_id,day,dob,date
m1,sefla,2024-01-01,2024-03-11
m1,recall1,2024-01-01,2024-03-12
m2,sefla,2024-01-01,2024-04-15
m2,recall5,2024-01-01,2024-04-20
m3,recall1,2024-01-01,2024-04-20
`

func loadSubjects(t *testing.T) []Subject {
	t.Helper()
	tbl, err := table.Load("log", strings.NewReader(experimentLog))
	require.NoError(t, err)
	subjects, err := DecodeSubjects(tbl, DefaultSubjectSchema())
	require.NoError(t, err)
	return subjects
}

func TestAgeAtSEFLA(t *testing.T) {
	aged := AgeAtSEFLA(loadSubjects(t), DefaultYoungCutoffWeeks)
	require.Len(t, aged, 5)

	// 70 days
	require.NotNil(t, aged[0].AgeWeeks)
	assert.Equal(t, 10.0, *aged[0].AgeWeeks)
	assert.True(t, aged[0].Young)

	// the recall day inherits the cohort's SEFL-A age
	require.NotNil(t, aged[1].AgeWeeks)
	assert.Equal(t, 10.0, *aged[1].AgeWeeks)

	// 105 days
	require.NotNil(t, aged[2].AgeWeeks)
	assert.Equal(t, 15.0, *aged[2].AgeWeeks)
	assert.False(t, aged[2].Young)

	assert.Nil(t, aged[4].AgeWeeks, "cohort without a SEFL-A session")
	assert.False(t, aged[4].Young)
}

func TestDecodeSubjectsBadDate(t *testing.T) {
	tbl, err := table.Load("log", strings.NewReader("cohort_id,day,dob,date\nm1,sefla,01/01/2024,2024-03-11\n"))
	require.NoError(t, err)

	_, err = DecodeSubjects(tbl, DefaultSubjectSchema())
	require.Error(t, err)
	assert.True(t, types.IsSchemaError(err))
}

func TestExcludeDays(t *testing.T) {
	subjects := loadSubjects(t)
	kept := ExcludeDays(subjects, func(s Subject) string { return s.Session.Day }, SEFLADay, "recall5")

	require.Len(t, kept, 2)
	for _, s := range kept {
		assert.Equal(t, "recall1", s.Session.Day)
	}
}

func TestEnrich(t *testing.T) {
	aged := AgeAtSEFLA(loadSubjects(t), DefaultYoungCutoffWeeks)
	key := types.SessionKey{Cohort: "m1", Day: "recall1"}
	shared := map[string]string{"condition": "fear"}
	samples := []types.FrameSample{
		{Session: key, Time: 0, Metadata: shared},
		{Session: types.SessionKey{Cohort: "m9", Day: "recall1"}, Time: 0, Metadata: shared},
	}

	out := Enrich(samples, aged)

	assert.Equal(t, "10", out[0].Metadata[AgeField])
	assert.Equal(t, "true", out[0].Metadata[YoungField])
	assert.Equal(t, "fear", out[0].Metadata["condition"])
	assert.NotContains(t, out[1].Metadata, AgeField)
	assert.NotContains(t, shared, AgeField, "input metadata is not mutated")
}
