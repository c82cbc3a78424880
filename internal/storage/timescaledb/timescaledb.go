package timescaledb

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chrissnell/freezecompare/internal/database"
	"github.com/chrissnell/freezecompare/internal/log"
	"github.com/chrissnell/freezecompare/internal/storage"
	"gorm.io/gorm"
)

// batchSize bounds the rows per INSERT
const batchSize = 500

// Storage persists analysis runs to TimescaleDB
type Storage struct {
	TimescaleDBConn *gorm.DB
}

// New connects to TimescaleDB and migrates the result tables
func New(ctx context.Context, connectionString string) (*Storage, error) {
	db, err := database.CreateConnection(connectionString)
	if err != nil {
		return nil, err
	}

	log.Info("migrating result tables...")
	if err := db.WithContext(ctx).AutoMigrate(database.Models()...); err != nil {
		return nil, fmt.Errorf("could not migrate result tables: %w", err)
	}

	return &Storage{TimescaleDBConn: db}, nil
}

// records holds the rows of one run, grouped by table
type records struct {
	run         database.RunRecord
	transitions []database.TransitionRecord
	bouts       []database.BoutRecord
	bins        []database.MinuteBinRecord
	scores      []database.SessionScoreRecord
}

func toRecords(run *storage.Run) (records, error) {
	id := run.ID.String()
	r := records{
		run: database.RunRecord{
			RunID:                id,
			CreatedAt:            run.CreatedAt,
			MedianFreezeDuration: run.Median,
		},
	}

	for _, t := range run.Transitions {
		r.transitions = append(r.transitions, database.TransitionRecord{
			RunID: id, CohortID: t.Session.Cohort, Day: t.Session.Day, T: t.Time, Kind: string(t.Kind),
		})
	}

	for _, b := range run.Bouts {
		md, err := json.Marshal(b.Metadata)
		if err != nil {
			return records{}, fmt.Errorf("could not encode bout metadata: %w", err)
		}
		r.bouts = append(r.bouts, database.BoutRecord{
			RunID: id, CohortID: b.Session.Cohort, Day: b.Session.Day,
			Start: b.Start, End: b.End, Duration: b.Duration, Metadata: string(md),
		})
	}

	for _, b := range run.Bins {
		r.bins = append(r.bins, database.MinuteBinRecord{
			RunID: id, Minute: b.Minute, Count: b.Count, MedianDuration: b.MedianDuration, MeanDuration: b.MeanDuration,
		})
	}

	if run.Agreement != nil {
		r.run.SessionsScored = run.Agreement.SessionsScored
		r.run.SessionsSkipped = run.Agreement.SessionsSkipped
		r.run.OverallF1 = run.Agreement.Overall.F1
		r.run.OverallSensitivity = run.Agreement.Overall.Sensitivity
		for _, s := range run.Agreement.Sessions {
			r.scores = append(r.scores, database.SessionScoreRecord{
				RunID: id, CohortID: s.Session.Cohort, Day: s.Session.Day, GroupLabel: s.Group,
				Frames: s.Frames, F1: s.F1, Sensitivity: s.Sensitivity, Failed: s.Failed,
			})
		}
	}

	return r, nil
}

// StoreRun writes the run and its rows in one transaction
func (t *Storage) StoreRun(ctx context.Context, run *storage.Run) error {
	r, err := toRecords(run)
	if err != nil {
		return err
	}

	err = t.TimescaleDBConn.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&r.run).Error; err != nil {
			return err
		}
		if len(r.transitions) > 0 {
			if err := tx.CreateInBatches(&r.transitions, batchSize).Error; err != nil {
				return err
			}
		}
		if len(r.bouts) > 0 {
			if err := tx.CreateInBatches(&r.bouts, batchSize).Error; err != nil {
				return err
			}
		}
		if len(r.bins) > 0 {
			if err := tx.CreateInBatches(&r.bins, batchSize).Error; err != nil {
				return err
			}
		}
		if len(r.scores) > 0 {
			if err := tx.CreateInBatches(&r.scores, batchSize).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		log.Errorf("could not store run %s: %v", run.ID, err)
		return fmt.Errorf("timescaledb: store run %s: %w", run.ID, err)
	}

	log.Infof("stored run %s in TimescaleDB", run.ID)
	return nil
}

// Close releases the underlying connection pool
func (t *Storage) Close() error {
	sqlDB, err := t.TimescaleDBConn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
