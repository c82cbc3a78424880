package cli

import (
	"fmt"
	"io"
	"runtime"

	"github.com/chrissnell/freezecompare/internal/app"
	"github.com/chrissnell/freezecompare/internal/storage/sqlite"
	"github.com/chrissnell/freezecompare/pkg/responseformat"
	"github.com/spf13/cobra"
)

func newRunCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run every analysis stage and store the results",
		Long: `Run loads both inputs, detects transitions, extracts and bins bouts,
aligns MoSeq samples around FreezeFrame transitions and scores agreement.
The run is stored in every configured storage backend under a new run id.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			run, err := a.Run(cmd.Context())
			if err != nil {
				return err
			}
			return writeResult(cmd, a.Config(), app.RunResult{Run: run})
		},
	}
}

func newTransitionsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "transitions",
		Short: "List freeze onsets and offsets in the FreezeFrame input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			samples, err := a.LoadFreezeFrame()
			if err != nil {
				return err
			}
			return writeResult(cmd, a.Config(), app.TransitionTable(a.Transitions(samples)))
		},
	}
}

func newBoutsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bouts",
		Short: "List freeze bouts in the FreezeFrame input",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			samples, err := a.LoadFreezeFrame()
			if err != nil {
				return err
			}
			bouts, _ := a.Bouts(samples)
			return writeResult(cmd, a.Config(), app.BoutTable(bouts))
		},
	}
}

func newBinsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "bins",
		Short: "Summarize freeze bouts per experiment minute",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			samples, err := a.LoadFreezeFrame()
			if err != nil {
				return err
			}
			bouts, _ := a.Bouts(samples)
			bins, err := a.Bins(bouts)
			if err != nil {
				return err
			}
			return writeResult(cmd, a.Config(), bins)
		},
	}
}

func newAlignCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "align",
		Short: "Collect MoSeq samples around each FreezeFrame transition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			ff, err := a.LoadFreezeFrame()
			if err != nil {
				return err
			}
			moseq, err := a.LoadMoSeq()
			if err != nil {
				return err
			}
			aligned, diags, err := a.Align(a.Transitions(ff), moseq)
			if err != nil {
				return err
			}
			return writeResult(cmd, a.Config(), app.AlignedTable{Samples: aligned, Diagnostics: diags})
		},
	}
}

func newAgreeCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "agree",
		Short: "Score whole-session agreement of MoSeq against FreezeFrame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts)
			if err != nil {
				return err
			}
			ff, err := a.LoadFreezeFrame()
			if err != nil {
				return err
			}
			moseq, err := a.LoadMoSeq()
			if err != nil {
				return err
			}
			return writeResult(cmd, a.Config(), app.AgreementTable{Report: a.Agree(ff, moseq)})
		},
	}
}

// runTable lists stored runs
type runTable []sqlite.RunSummary

func (t runTable) WriteText(w io.Writer, p *responseformat.Palette) error {
	p.Header.Fprintln(w, "Stored runs")
	for _, r := range t {
		if _, err := fmt.Fprintf(w, "%s  %s  median=%.3f  scored=%d  skipped=%d\n",
			r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.MedianFreezeDuration, r.SessionsScored, r.SessionsSkipped); err != nil {
			return err
		}
	}
	return nil
}

func newRunsCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List runs stored in the SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cfg.Storage.SQLite == nil {
				return fmt.Errorf("no storage.sqlite.path configured")
			}
			store, err := sqlite.New(cmd.Context(), cfg.Storage.SQLite.Path)
			if err != nil {
				return err
			}
			defer store.Close()

			runs, err := store.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			return writeResult(cmd, cfg, runTable(runs))
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "freezecompare %s-%s/%s\n", Version, runtime.GOOS, runtime.GOARCH)
			return err
		},
	}
}
