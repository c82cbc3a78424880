package database

import (
	"time"
)

// RunRecord is one analysis run
type RunRecord struct {
	RunID                string    `gorm:"primaryKey;column:run_id"`
	CreatedAt            time.Time `gorm:"column:created_at;not null"`
	MedianFreezeDuration float64   `gorm:"column:median_freeze_duration"`
	SessionsScored       int       `gorm:"column:sessions_scored"`
	SessionsSkipped      int       `gorm:"column:sessions_skipped"`
	OverallF1            float64   `gorm:"column:overall_f1"`
	OverallSensitivity   float64   `gorm:"column:overall_sensitivity"`
}

// TableName specifies the table name for RunRecord
func (RunRecord) TableName() string {
	return "runs"
}

// TransitionRecord is one freeze onset or offset
type TransitionRecord struct {
	ID       uint    `gorm:"primaryKey;autoIncrement"`
	RunID    string  `gorm:"column:run_id;index;not null"`
	CohortID string  `gorm:"column:cohort_id"`
	Day      string  `gorm:"column:day"`
	T        float64 `gorm:"column:t"`
	Kind     string  `gorm:"column:transition_type"`
}

func (TransitionRecord) TableName() string {
	return "transitions"
}

// BoutRecord is one freeze bout. Metadata is the JSON encoded metadata map.
type BoutRecord struct {
	ID       uint    `gorm:"primaryKey;autoIncrement"`
	RunID    string  `gorm:"column:run_id;index;not null"`
	CohortID string  `gorm:"column:cohort_id"`
	Day      string  `gorm:"column:day"`
	Start    float64 `gorm:"column:start_t"`
	End      float64 `gorm:"column:end_t"`
	Duration float64 `gorm:"column:duration"`
	Metadata string  `gorm:"column:metadata"`
}

func (BoutRecord) TableName() string {
	return "bouts"
}

// MinuteBinRecord is one minute bin. Nil durations are empty bins.
type MinuteBinRecord struct {
	ID             uint     `gorm:"primaryKey;autoIncrement"`
	RunID          string   `gorm:"column:run_id;index;not null"`
	Minute         int      `gorm:"column:minute"`
	Count          int      `gorm:"column:bout_count"`
	MedianDuration *float64 `gorm:"column:median_duration"`
	MeanDuration   *float64 `gorm:"column:mean_duration"`
}

func (MinuteBinRecord) TableName() string {
	return "minute_bins"
}

// SessionScoreRecord is the agreement of one session
type SessionScoreRecord struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"`
	RunID       string  `gorm:"column:run_id;index;not null"`
	CohortID    string  `gorm:"column:cohort_id"`
	Day         string  `gorm:"column:day"`
	GroupLabel  string  `gorm:"column:group_label"`
	Frames      int     `gorm:"column:frames"`
	F1          float64 `gorm:"column:f1"`
	Sensitivity float64 `gorm:"column:sensitivity"`
	Failed      bool    `gorm:"column:failed"`
}

func (SessionScoreRecord) TableName() string {
	return "session_scores"
}

// Models lists every table for AutoMigrate
func Models() []any {
	return []any{&RunRecord{}, &TransitionRecord{}, &BoutRecord{}, &MinuteBinRecord{}, &SessionScoreRecord{}}
}
