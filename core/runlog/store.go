// Package runlog keeps a history of forecasting runs.
package runlog

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/bikecast/config"
	"github.com/kilianp07/bikecast/core/evaluation"
	"github.com/kilianp07/bikecast/core/model"
)

// Record describes one training and forecasting run.
type Record struct {
	ID            string               `json:"id"`
	Timestamp     time.Time            `json:"timestamp"`
	Source        string               `json:"source"`
	TrainPoints   int                  `json:"train_points"`
	HoldoutPoints int                  `json:"holdout_points"`
	Rank          int                  `json:"rank"`
	Restored      bool                 `json:"restored,omitempty"`
	Metrics       *evaluation.Metrics  `json:"metrics,omitempty"`
	Forecast      model.ForecastResult `json:"forecast"`
	Error         string               `json:"error,omitempty"`
}

// NewRecord returns a record stamped with a fresh id and the current time.
func NewRecord(source string) Record {
	return Record{ID: uuid.NewString(), Timestamp: time.Now().UTC(), Source: source}
}

// RunQuery filters records. Zero fields match everything.
type RunQuery struct {
	Start  time.Time
	End    time.Time
	Source string
	// Limit keeps only the most recent records when positive.
	Limit int
}

func (q RunQuery) matches(r Record) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Source != "" && r.Source != q.Source {
		return false
	}
	return true
}

func (q RunQuery) limit(res []Record) []Record {
	sort.SliceStable(res, func(i, j int) bool { return res[i].Timestamp.Before(res[j].Timestamp) })
	if q.Limit > 0 && len(res) > q.Limit {
		res = res[len(res)-q.Limit:]
	}
	return res
}

// Store persists run records.
type Store interface {
	Append(ctx context.Context, rec Record) error
	Query(ctx context.Context, q RunQuery) ([]Record, error)
	Close() error
}

// NopStore discards records.
type NopStore struct{}

func (NopStore) Append(context.Context, Record) error                { return nil }
func (NopStore) Query(context.Context, RunQuery) ([]Record, error) { return nil, nil }
func (NopStore) Close() error                                      { return nil }

// NewStore builds the store selected by cfg.Backend.
func NewStore(cfg config.LoggingConfig) (Store, error) {
	switch cfg.Backend {
	case "none":
		return NopStore{}, nil
	case "jsonl":
		return NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	case "sqlite":
		return NewSQLiteStore(cfg.Path)
	default:
		return nil, fmt.Errorf("runlog: unknown backend %q", cfg.Backend)
	}
}
