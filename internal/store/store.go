package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lox/weightlog/internal/metrics"
	"github.com/lox/weightlog/internal/models"
)

// ObservationStore persists observations in date order.
type ObservationStore interface {
	// Load returns every stored observation ascending by date. A store with
	// nothing in it yet returns an empty slice and no error.
	Load(ctx context.Context) ([]models.Observation, error)
	Append(ctx context.Context, obs models.Observation) error
	Overwrite(ctx context.Context, obs []models.Observation) error
	Close() error
}

const (
	BackendCSV    = "csv"
	BackendSQLite = "sqlite"
)

type Config struct {
	Backend  string
	CSVPath  string
	SQLiteDB string
}

// Open returns the store selected by cfg.Backend.
func Open(ctx context.Context, cfg Config) (ObservationStore, error) {
	switch cfg.Backend {
	case "", BackendCSV:
		return NewCSV(cfg.CSVPath), nil
	case BackendSQLite:
		s, err := OpenSQLite(ctx, cfg.SQLiteDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}

// ErrCorruptRow marks a stored row that could not be parsed. Loading stops at
// the first such row.
var ErrCorruptRow = errors.New("corrupt row")

type RowError struct {
	Source string
	Line   int
	Err    error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: line %d: %v: %v", e.Source, e.Line, ErrCorruptRow, e.Err)
}

func (e *RowError) Unwrap() []error {
	return []error{ErrCorruptRow, e.Err}
}

// observe records the outcome and latency of a store operation.
func observe(backend, op string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.StoreOperations.WithLabelValues(backend, op, status).Inc()
	metrics.StoreLatency.WithLabelValues(backend, op).Observe(time.Since(start).Seconds())
}
