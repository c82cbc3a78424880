// Package cli implements the freezecompare command line.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/chrissnell/freezecompare/internal/app"
	"github.com/chrissnell/freezecompare/internal/log"
	"github.com/chrissnell/freezecompare/pkg/config"
	"github.com/chrissnell/freezecompare/pkg/responseformat"
	"github.com/spf13/cobra"
)

// Version is injected at build time via -ldflags
var Version = "dev"

// options are the flags shared by every subcommand
type options struct {
	configFile  string
	debug       bool
	format      string
	output      string
	window      float64
	totalTime   float64
	freezeFrame string
	moseq       string
	subjects    string
}

// NewRootCommand creates and returns the root cobra command for freezecompare
func NewRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "freezecompare",
		Short: "Compare FreezeFrame and MoSeq freezing measurements",
		Long: `freezecompare analyses rodent fear-conditioning sessions recorded by two
modalities: FreezeFrame motion thresholding and MoSeq pose syllables.

It detects freeze transitions and bouts, bins bouts by experiment minute,
aligns MoSeq samples around FreezeFrame transitions and scores whole-session
agreement between the two modalities.`,
		Version:      Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return log.Init(opts.debug)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", config.DefaultFilename, "Path to the YAML configuration file")
	flags.BoolVar(&opts.debug, "debug", false, "Turn on debugging output")
	flags.StringVar(&opts.format, "format", "", "Output format: json, msgpack or text")
	flags.StringVarP(&opts.output, "output", "o", "", "Write results to this file instead of stdout")
	flags.Float64Var(&opts.window, "window", 0, "Half-width in seconds of the alignment window")
	flags.Float64Var(&opts.totalTime, "total-time", 0, "Experiment length in seconds for minute binning")
	flags.StringVar(&opts.freezeFrame, "freezeframe", "", "FreezeFrame CSV export")
	flags.StringVar(&opts.moseq, "moseq", "", "MoSeq CSV export")
	flags.StringVar(&opts.subjects, "subjects", "", "Experiment log CSV with date of birth and session date")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newTransitionsCommand(opts))
	cmd.AddCommand(newBoutsCommand(opts))
	cmd.AddCommand(newBinsCommand(opts))
	cmd.AddCommand(newAlignCommand(opts))
	cmd.AddCommand(newAgreeCommand(opts))
	cmd.AddCommand(newRunsCommand(opts))
	cmd.AddCommand(newVersionCommand())

	return cmd
}

// loadConfig reads the configuration file and applies flags that were set
// explicitly on the command line
func loadConfig(cmd *cobra.Command, opts *options) (*config.ConfigData, error) {
	filename, _ := filepath.Abs(opts.configFile)

	provider := config.NewYAMLProvider(filename)
	defer provider.Close()

	cfg, err := provider.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error reading config file. Did you pass the --config flag? Run with -h for help: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = opts.format
	}
	if flags.Changed("output") {
		cfg.Output.Path = opts.output
	}
	if flags.Changed("window") {
		cfg.Alignment.WindowSeconds = opts.window
	}
	if flags.Changed("total-time") {
		cfg.Experiment.TotalTimeSeconds = opts.totalTime
	}
	if flags.Changed("freezeframe") {
		cfg.Inputs.FreezeFrame = opts.freezeFrame
	}
	if flags.Changed("moseq") {
		cfg.Inputs.MoSeq = opts.moseq
	}
	if flags.Changed("subjects") {
		cfg.Inputs.Subjects = opts.subjects
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newApp(cmd *cobra.Command, opts *options) (*app.App, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}
	return app.New(cfg, log.GetSugaredLogger()), nil
}

// writeResult encodes data in the configured format to the output file or
// the command's stdout
func writeResult(cmd *cobra.Command, cfg *config.ConfigData, data any) error {
	f, err := responseformat.NewFormatter(cfg.Output.Format)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if cfg.Output.Path != "" {
		file, err := os.Create(cfg.Output.Path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer file.Close()
		w = file
	}

	if err := f.Write(w, data); err != nil {
		return fmt.Errorf("failed to write %s output: %w", f.Format(), err)
	}
	return nil
}
