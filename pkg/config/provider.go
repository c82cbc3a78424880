package config

import (
	"fmt"
	"math"
)

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// Output formats
const (
	FormatJSON    = "json"
	FormatMsgpack = "msgpack"
	FormatText    = "text"
)

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Inputs     InputsData     `yaml:"inputs" json:"inputs"`
	Session    SessionData    `yaml:"session" json:"session"`
	Experiment ExperimentData `yaml:"experiment" json:"experiment"`
	Alignment  AlignmentData  `yaml:"alignment" json:"alignment"`
	Agreement  AgreementData  `yaml:"agreement" json:"agreement"`
	Pose       PoseData       `yaml:"pose" json:"pose"`
	Storage    StorageData    `yaml:"storage" json:"storage,omitempty"`
	Output     OutputData     `yaml:"output" json:"output"`
}

// InputsData locates the input tables and names their columns
type InputsData struct {
	FreezeFrame string      `yaml:"freezeframe" json:"freezeframe"`
	MoSeq       string      `yaml:"moseq" json:"moseq"`
	Subjects    string      `yaml:"subjects,omitempty" json:"subjects,omitempty"`
	Columns     ColumnsData `yaml:"columns" json:"columns"`
}

type ColumnsData struct {
	Time     string `yaml:"time" json:"time"`
	Freeze   string `yaml:"freeze" json:"freeze"`
	Frame    string `yaml:"frame" json:"frame"`
	Syllable string `yaml:"syllable" json:"syllable"`
	DOB      string `yaml:"dob" json:"dob"`
	Date     string `yaml:"date" json:"date"`
}

// SessionData names the session key columns, cohort first, and the metadata
// columns carried into bouts
type SessionData struct {
	CohortField string   `yaml:"cohort_field" json:"cohort_field"`
	DayField    string   `yaml:"day_field" json:"day_field"`
	Metadata    []string `yaml:"metadata" json:"metadata"`
}

type ExperimentData struct {
	TotalTimeSeconds float64  `yaml:"total_time_seconds" json:"total_time_seconds"`
	ExcludeDays      []string `yaml:"exclude_days,omitempty" json:"exclude_days,omitempty"`
	YoungCutoffWeeks float64  `yaml:"young_cutoff_weeks" json:"young_cutoff_weeks"`
}

type AlignmentData struct {
	WindowSeconds float64 `yaml:"window_seconds" json:"window_seconds"`
	FPS           float64 `yaml:"fps" json:"fps"`
}

type AgreementData struct {
	GroupField string   `yaml:"group_field" json:"group_field"`
	Groups     []string `yaml:"groups" json:"groups"`
}

type PoseData struct {
	FreezeSyllables []string `yaml:"freeze_syllables" json:"freeze_syllables"`
}

// StorageData holds the configuration for the result sinks
type StorageData struct {
	SQLite      *SQLiteData      `yaml:"sqlite,omitempty" json:"sqlite,omitempty"`
	TimescaleDB *TimescaleDBData `yaml:"timescaledb,omitempty" json:"timescaledb,omitempty"`
}

type SQLiteData struct {
	Path string `yaml:"path" json:"path"`
}

type TimescaleDBData struct {
	ConnectionString string `yaml:"connection_string" json:"connection_string"`
}

type OutputData struct {
	Format string `yaml:"format" json:"format"`
	Path   string `yaml:"path,omitempty" json:"path,omitempty"`
}

// DefaultConfig returns the configuration used when no file is present
func DefaultConfig() *ConfigData {
	return &ConfigData{
		Inputs: InputsData{
			Columns: ColumnsData{
				Time:     "t(sec)",
				Freeze:   "freeze",
				Frame:    "frame",
				Syllable: "syllable",
				DOB:      "dob",
				Date:     "date",
			},
		},
		Session: SessionData{
			CohortField: "cohort_id",
			DayField:    "day",
			Metadata:    []string{"condition", "sex", "age"},
		},
		Experiment: ExperimentData{
			TotalTimeSeconds: 180,
			YoungCutoffWeeks: 12,
		},
		Alignment: AlignmentData{
			WindowSeconds: 5,
			FPS:           30,
		},
		Agreement: AgreementData{
			GroupField: "condition",
		},
		Output: OutputData{
			Format: FormatJSON,
		},
	}
}

// Validate checks the configuration for values no stage can run with
func (c *ConfigData) Validate() error {
	if !positive(c.Experiment.TotalTimeSeconds) {
		return fmt.Errorf("experiment.total_time_seconds must be > 0, got %v", c.Experiment.TotalTimeSeconds)
	}
	if !positive(c.Alignment.WindowSeconds) {
		return fmt.Errorf("alignment.window_seconds must be > 0, got %v", c.Alignment.WindowSeconds)
	}
	if c.Alignment.FPS < 0 || math.IsNaN(c.Alignment.FPS) || math.IsInf(c.Alignment.FPS, 0) {
		return fmt.Errorf("alignment.fps must be >= 0, got %v", c.Alignment.FPS)
	}
	if c.Session.CohortField == "" || c.Session.DayField == "" {
		return fmt.Errorf("session.cohort_field and session.day_field are required")
	}
	if c.Inputs.Columns.Time == "" || c.Inputs.Columns.Freeze == "" {
		return fmt.Errorf("inputs.columns.time and inputs.columns.freeze are required")
	}

	switch c.Output.Format {
	case FormatJSON, FormatMsgpack, FormatText:
	default:
		return fmt.Errorf("invalid output.format %q, must be one of: json, msgpack, text", c.Output.Format)
	}

	if c.Storage.SQLite != nil && c.Storage.SQLite.Path == "" {
		return fmt.Errorf("storage.sqlite.path is required when sqlite storage is configured")
	}
	if c.Storage.TimescaleDB != nil && c.Storage.TimescaleDB.ConnectionString == "" {
		return fmt.Errorf("storage.timescaledb.connection_string is required when timescaledb storage is configured")
	}
	return nil
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
