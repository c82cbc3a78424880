package responseformat

import (
	"bytes"
	"encoding/json"
	"io"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

type row struct {
	Cohort string  `json:"cohort_id"`
	Start  float64 `json:"start"`
}

type textRow struct{ row }

func (r textRow) WriteText(w io.Writer, p *Palette) error {
	_, err := p.Header.Fprintf(w, "%s %.1f\n", r.Cohort, r.Start)
	return err
}

func TestWriteJSON(t *testing.T) {
	f, err := NewFormatter("")
	require.NoError(t, err)
	assert.Equal(t, JSON, f.Format())

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, row{Cohort: "m1", Start: 2}))
	assert.JSONEq(t, `{"cohort_id":"m1","start":2}`, buf.String())
}

func TestWriteMsgpackUsesJSONTags(t *testing.T) {
	f, err := NewFormatter(Msgpack)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, row{Cohort: "m1", Start: 2}))

	var decoded map[string]any
	require.NoError(t, msgpack.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "m1", decoded["cohort_id"])
}

func TestWriteText(t *testing.T) {
	color.NoColor = true
	f, err := NewFormatter(Text)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf, textRow{row{Cohort: "m1", Start: 2}}))
	assert.Equal(t, "m1 2.0\n", buf.String())

	// values without a text form fall back to JSON
	buf.Reset()
	require.NoError(t, f.Write(&buf, row{Cohort: "m2"}))
	var decoded row
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "m2", decoded.Cohort)
}

func TestUnknownFormat(t *testing.T) {
	_, err := NewFormatter("xml")
	assert.Error(t, err)
}
