// Package app wires the analysis stages into the batch pipeline run by the CLI.
package app

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/chrissnell/freezecompare/internal/agreement"
	"github.com/chrissnell/freezecompare/internal/align"
	"github.com/chrissnell/freezecompare/internal/freeze"
	"github.com/chrissnell/freezecompare/internal/metadata"
	"github.com/chrissnell/freezecompare/internal/pose"
	"github.com/chrissnell/freezecompare/internal/storage"
	"github.com/chrissnell/freezecompare/internal/storage/sqlite"
	"github.com/chrissnell/freezecompare/internal/storage/timescaledb"
	"github.com/chrissnell/freezecompare/internal/table"
	"github.com/chrissnell/freezecompare/internal/types"
	"github.com/chrissnell/freezecompare/pkg/config"
	"go.uber.org/zap"
)

// App represents the analysis application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
	now    func() time.Time
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
	}
}

// Config returns the configuration the app runs with
func (a *App) Config() *config.ConfigData {
	return a.cfg
}

func (a *App) frameSchema() table.FrameSchema {
	s := table.FrameSchema{
		Time:     a.cfg.Inputs.Columns.Time,
		Freeze:   a.cfg.Inputs.Columns.Freeze,
		Cohort:   a.cfg.Session.CohortField,
		Day:      a.cfg.Session.DayField,
		Metadata: append([]string(nil), a.cfg.Session.Metadata...),
	}
	if f := a.cfg.Agreement.GroupField; f != "" && !slices.Contains(s.Metadata, f) {
		s.Metadata = append(s.Metadata, f)
	}
	return s
}

func (a *App) poseSchema() table.PoseSchema {
	return table.PoseSchema{
		Time:     a.cfg.Inputs.Columns.Time,
		Frame:    a.cfg.Inputs.Columns.Frame,
		Syllable: a.cfg.Inputs.Columns.Syllable,
		Freeze:   a.cfg.Inputs.Columns.Freeze,
		Cohort:   a.cfg.Session.CohortField,
		Day:      a.cfg.Session.DayField,
	}
}

// LoadFreezeFrame reads and decodes the FreezeFrame table. When a subjects log
// is configured its age columns are merged into the sample metadata; excluded
// days are dropped last.
func (a *App) LoadFreezeFrame() ([]types.FrameSample, error) {
	if a.cfg.Inputs.FreezeFrame == "" {
		return nil, fmt.Errorf("no FreezeFrame input configured")
	}
	t, err := table.LoadFile(a.cfg.Inputs.FreezeFrame)
	if err != nil {
		return nil, err
	}
	samples, err := table.DecodeFrames(t, a.frameSchema())
	if err != nil {
		return nil, err
	}
	a.logger.Debugf("loaded %d FreezeFrame samples from %s", len(samples), a.cfg.Inputs.FreezeFrame)

	if a.cfg.Inputs.Subjects != "" {
		aged, err := a.loadSubjects()
		if err != nil {
			return nil, err
		}
		samples = metadata.Enrich(samples, aged)
	}

	if len(a.cfg.Experiment.ExcludeDays) > 0 {
		samples = metadata.ExcludeDays(samples, func(s types.FrameSample) string { return s.Session.Day }, a.cfg.Experiment.ExcludeDays...)
	}
	return samples, nil
}

func (a *App) loadSubjects() ([]metadata.AgedSubject, error) {
	t, err := table.LoadFile(a.cfg.Inputs.Subjects)
	if err != nil {
		return nil, err
	}
	subjects, err := metadata.DecodeSubjects(t, metadata.SubjectSchema{
		Cohort: a.cfg.Session.CohortField,
		Day:    a.cfg.Session.DayField,
		DOB:    a.cfg.Inputs.Columns.DOB,
		Date:   a.cfg.Inputs.Columns.Date,
	})
	if err != nil {
		return nil, err
	}
	return metadata.AgeAtSEFLA(subjects, a.cfg.Experiment.YoungCutoffWeeks), nil
}

// LoadMoSeq reads the pose table and reduces it to freeze samples
func (a *App) LoadMoSeq() ([]types.FrameSample, error) {
	if a.cfg.Inputs.MoSeq == "" {
		return nil, fmt.Errorf("no MoSeq input configured")
	}
	t, err := table.LoadFile(a.cfg.Inputs.MoSeq)
	if err != nil {
		return nil, err
	}
	poses, err := table.DecodePose(t, a.poseSchema())
	if err != nil {
		return nil, err
	}
	samples, err := pose.ToFrameSamples(poses, pose.Options{
		FPS:             a.cfg.Alignment.FPS,
		FreezeSyllables: a.cfg.Pose.FreezeSyllables,
	})
	if err != nil {
		return nil, err
	}
	a.logger.Debugf("loaded %d MoSeq samples from %s", len(samples), a.cfg.Inputs.MoSeq)
	return samples, nil
}

// Transitions detects freeze onsets and offsets
func (a *App) Transitions(samples []types.FrameSample) []types.Transition {
	transitions := freeze.DetectTransitions(samples)
	onsets, offsets := freeze.CountKinds(transitions)
	a.logger.Infof("detected %d onsets and %d offsets", onsets, offsets)
	return transitions
}

func (a *App) boutFields() []string {
	fields := append([]string(nil), a.cfg.Session.Metadata...)
	if a.cfg.Inputs.Subjects != "" {
		fields = append(fields, metadata.AgeField, metadata.YoungField)
	}
	return fields
}

// Bouts extracts freeze bouts
func (a *App) Bouts(samples []types.FrameSample) ([]types.Bout, []types.Diagnostic) {
	bouts, diags := freeze.NewBoutExtractor(a.logger.Named("bouts"), a.boutFields()...).Extract(samples)
	a.logger.Infof("extracted %d bouts", len(bouts))
	return bouts, diags
}

// Bins groups bouts into minute bins over the configured experiment length
func (a *App) Bins(bouts []types.Bout) (BinTable, error) {
	summary, err := freeze.BinByMinute(bouts, a.cfg.Experiment.TotalTimeSeconds)
	if err != nil {
		return BinTable{}, err
	}
	return BinTable{
		Bins:   summary.Bins,
		Bouts:  summary.Bouts,
		Median: freeze.MedianFreezeDuration(bouts),
	}, nil
}

// Align collects the MoSeq samples around every FreezeFrame transition
func (a *App) Align(transitions []types.Transition, moseq []types.FrameSample) ([]types.AlignedSample, []types.Diagnostic, error) {
	aligner, err := align.NewAligner(a.cfg.Alignment.WindowSeconds, a.logger.Named("align"))
	if err != nil {
		return nil, nil, err
	}
	aligned, diags := aligner.Windows(transitions, moseq)
	return aligned, diags, nil
}

// Agree scores MoSeq against FreezeFrame over whole sessions
func (a *App) Agree(freezeFrame, moseq []types.FrameSample) agreement.Report {
	report := agreement.NewScorer(a.cfg.Agreement.GroupField, a.cfg.Agreement.Groups, a.logger.Named("agreement")).
		Compare(freezeFrame, moseq)
	a.logger.Infof("scored %d sessions, skipped %d", report.SessionsScored, report.SessionsSkipped)
	return report
}

// Run executes both analysis paths and stores the result in every configured
// sink. Schema errors abort the run before anything is stored.
func (a *App) Run(ctx context.Context) (*storage.Run, error) {
	ff, err := a.LoadFreezeFrame()
	if err != nil {
		return nil, err
	}
	moseq, err := a.LoadMoSeq()
	if err != nil {
		return nil, err
	}

	run := storage.NewRun(a.now())

	run.Transitions = a.Transitions(ff)
	bouts, diags := a.Bouts(ff)
	run.Bouts = bouts
	run.Diagnostics = append(run.Diagnostics, diags...)

	bins, err := a.Bins(bouts)
	if err != nil {
		return nil, err
	}
	run.Bins = bins.Bins
	run.Median = bins.Median

	aligned, diags, err := a.Align(run.Transitions, moseq)
	if err != nil {
		return nil, err
	}
	run.Aligned = aligned
	run.Diagnostics = append(run.Diagnostics, diags...)

	report := a.Agree(ff, moseq)
	run.Agreement = &report

	sinks, err := a.OpenSinks(ctx)
	if err != nil {
		return nil, err
	}
	defer sinks.Close()

	if len(sinks) > 0 {
		if err := sinks.StoreRun(ctx, run); err != nil {
			return run, fmt.Errorf("storing run %s: %w", run.ID, err)
		}
	}

	a.logger.Infof("run %s complete", run.ID)
	return run, nil
}

// OpenSinks connects every configured storage backend
func (a *App) OpenSinks(ctx context.Context) (storage.Sinks, error) {
	var sinks storage.Sinks

	if c := a.cfg.Storage.SQLite; c != nil {
		s, err := sqlite.New(ctx, c.Path)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, s)
	}

	if c := a.cfg.Storage.TimescaleDB; c != nil {
		s, err := timescaledb.New(ctx, c.ConnectionString)
		if err != nil {
			sinks.Close()
			return nil, err
		}
		sinks = append(sinks, s)
	}

	return sinks, nil
}
