// Package storage defines the result sinks that persist one analysis run.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/chrissnell/freezecompare/internal/agreement"
	"github.com/chrissnell/freezecompare/internal/types"
	"github.com/google/uuid"
)

// Run is everything one batch analysis produced
type Run struct {
	ID          uuid.UUID             `json:"run_id"`
	CreatedAt   time.Time             `json:"created_at"`
	Transitions []types.Transition    `json:"transitions"`
	Bouts       []types.Bout          `json:"bouts"`
	Bins        []types.MinuteBin     `json:"bins"`
	Median      float64               `json:"median_freeze_duration"`
	Aligned     []types.AlignedSample `json:"aligned,omitempty"`
	Agreement   *agreement.Report     `json:"agreement,omitempty"`
	Diagnostics []types.Diagnostic    `json:"diagnostics,omitempty"`
}

// NewRun returns an empty run with a fresh id
func NewRun(now time.Time) *Run {
	return &Run{ID: uuid.New(), CreatedAt: now.UTC()}
}

// ResultSink is implemented by every storage backend
type ResultSink interface {
	StoreRun(ctx context.Context, run *Run) error
	Close() error
}

// Sinks fans a run out to several backends
type Sinks []ResultSink

// StoreRun stores the run in every sink and joins their errors
func (s Sinks) StoreRun(ctx context.Context, run *Run) error {
	var errs []error
	for _, sink := range s {
		if err := sink.StoreRun(ctx, run); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink
func (s Sinks) Close() error {
	var errs []error
	for _, sink := range s {
		if err := sink.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
