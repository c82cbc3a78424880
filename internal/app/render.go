package app

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/chrissnell/freezecompare/internal/agreement"
	"github.com/chrissnell/freezecompare/internal/freeze"
	"github.com/chrissnell/freezecompare/internal/storage"
	"github.com/chrissnell/freezecompare/internal/types"
	"github.com/chrissnell/freezecompare/pkg/responseformat"
)

// TransitionTable is the output of the transitions stage
type TransitionTable []types.Transition

// BoutTable is the output of the bouts stage
type BoutTable []types.Bout

// BinTable is the output of the bins stage
type BinTable struct {
	Bins   []types.MinuteBin   `json:"bins"`
	Bouts  []freeze.BinnedBout `json:"bouts"`
	Median float64             `json:"median_freeze_duration"`
}

// AlignedTable is the output of the align stage
type AlignedTable struct {
	Samples     []types.AlignedSample `json:"samples"`
	Diagnostics []types.Diagnostic    `json:"diagnostics,omitempty"`
}

// AgreementTable is the output of the agree stage
type AgreementTable struct {
	agreement.Report
}

// RunResult is the output of a full run
type RunResult struct {
	*storage.Run
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func optional(v *float64) string {
	if v == nil {
		return "-"
	}
	return num(*v)
}

func joinMetadata(md map[string]string) string {
	keys := make([]string, 0, len(md))
	for k := range md {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + md[k]
	}
	return strings.Join(parts, " ")
}

func writeDiagnostics(w io.Writer, p *responseformat.Palette, diags []types.Diagnostic) error {
	for _, d := range diags {
		if _, err := p.Warn.Fprintln(w, d.String()); err != nil {
			return err
		}
	}
	return nil
}

func (t TransitionTable) WriteText(w io.Writer, p *responseformat.Palette) error {
	p.Header.Fprintln(w, "Transitions")
	tw := newTable(w)
	fmt.Fprintln(tw, "COHORT\tDAY\tT\tTYPE")
	for _, tr := range t {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", tr.Session.Cohort, tr.Session.Day, num(tr.Time), tr.Kind)
	}
	return tw.Flush()
}

func (t BoutTable) WriteText(w io.Writer, p *responseformat.Palette) error {
	p.Header.Fprintln(w, "Freeze bouts")
	tw := newTable(w)
	fmt.Fprintln(tw, "COHORT\tDAY\tSTART\tEND\tDURATION\tMETADATA")
	for _, b := range t {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", b.Session.Cohort, b.Session.Day, num(b.Start), num(b.End), num(b.Duration), joinMetadata(b.Metadata))
	}
	return tw.Flush()
}

func (t BinTable) WriteText(w io.Writer, p *responseformat.Palette) error {
	p.Header.Fprintln(w, "Minute bins")
	tw := newTable(w)
	fmt.Fprintln(tw, "MINUTE\tCOUNT\tMEDIAN\tMEAN")
	for _, b := range t.Bins {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", b.Minute, b.Count, optional(b.MedianDuration), optional(b.MeanDuration))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := p.Good.Fprintf(w, "Median freeze duration: %s s\n", num(t.Median))
	return err
}

func (t AlignedTable) WriteText(w io.Writer, p *responseformat.Palette) error {
	p.Header.Fprintln(w, "Aligned samples")
	tw := newTable(w)
	fmt.Fprintln(tw, "COHORT\tDAY\tTYPE\tANCHOR\tT\tRELATIVE\tLABEL")
	for _, s := range t.Samples {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", s.Session.Cohort, s.Session.Day, s.Kind, num(s.AnchorTime), num(s.Time), num(s.RelativeTime), s.Label)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	return writeDiagnostics(w, p, t.Diagnostics)
}

func (t AgreementTable) WriteText(w io.Writer, p *responseformat.Palette) error {
	p.Header.Fprintln(w, "Session agreement")
	tw := newTable(w)
	fmt.Fprintln(tw, "COHORT\tDAY\tGROUP\tFRAMES\tF1\tSENSITIVITY")
	for _, s := range t.Sessions {
		f1 := num(s.F1)
		if s.Failed {
			f1 += " (failed)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", s.Session.Cohort, s.Session.Day, s.Group, s.Frames, f1, num(s.Sensitivity))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	p.Header.Fprintln(w, "Group means")
	tw = newTable(w)
	fmt.Fprintln(tw, "GROUP\tSESSIONS\tF1\tSENSITIVITY")
	for _, g := range t.Groups {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\n", g.Group, g.Sessions, num(g.Mean.F1), num(g.Mean.Sensitivity))
	}
	fmt.Fprintf(tw, "overall\t%d\t%s\t%s\n", len(t.Sessions), num(t.Overall.F1), num(t.Overall.Sensitivity))
	if err := tw.Flush(); err != nil {
		return err
	}

	p.Good.Fprintf(w, "Sessions scored: %d, skipped: %d\n", t.SessionsScored, t.SessionsSkipped)
	if err := writeDiagnostics(w, p, t.Skipped); err != nil {
		return err
	}
	for _, n := range t.Notes {
		p.Muted.Fprintln(w, n.String())
	}
	return nil
}

func (r RunResult) WriteText(w io.Writer, p *responseformat.Palette) error {
	p.Header.Fprintf(w, "Run %s (%s)\n", r.ID, r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	onsets, offsets := freeze.CountKinds(r.Transitions)
	fmt.Fprintf(w, "Transitions: %d onsets, %d offsets\n", onsets, offsets)
	fmt.Fprintf(w, "Bouts: %d\n", len(r.Bouts))
	fmt.Fprintf(w, "Aligned samples: %d\n\n", len(r.Aligned))

	if err := (BinTable{Bins: r.Bins, Median: r.Median}).WriteText(w, p); err != nil {
		return err
	}
	if r.Agreement != nil {
		fmt.Fprintln(w)
		if err := (AgreementTable{Report: *r.Agreement}).WriteText(w, p); err != nil {
			return err
		}
	}
	return writeDiagnostics(w, p, r.Diagnostics)
}
