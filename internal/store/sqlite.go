package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cenkalti/backoff/v4"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/lox/weightlog/internal/models"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

// OpenSQLite opens (creating if needed) the database at path and applies
// pending migrations.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if path == ":memory:" {
		// Each connection would otherwise get its own empty database.
		db.SetMaxOpenConns(1)
	}

	db.ExecContext(ctx, "PRAGMA journal_mode=WAL")
	db.ExecContext(ctx, "PRAGMA busy_timeout=5000")

	s := NewSQLite(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) Load(ctx context.Context) (obs []models.Observation, err error) {
	start := time.Now()
	defer func() { observe(BackendSQLite, "load", start, err) }()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, observed_on, value
		FROM observations
		ORDER BY observed_on ASC, id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query observations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id         int64
			observedOn string
			value      float64
		)
		if err := rows.Scan(&id, &observedOn, &value); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		date, err := models.ParseDate(observedOn)
		if err != nil {
			return nil, &RowError{Source: "observations", Line: int(id), Err: fmt.Errorf("parse date: %w", err)}
		}
		obs = append(obs, models.Observation{Date: date, Value: value})
	}
	return obs, rows.Err()
}

func (s *SQLite) Append(ctx context.Context, o models.Observation) (err error) {
	start := time.Now()
	defer func() { observe(BackendSQLite, "append", start, err) }()

	return s.retry(ctx, func() error {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO observations (observed_on, value, created_at)
			VALUES (?, ?, ?)
		`, o.Date.Format(models.DateLayout), o.Value, time.Now().UTC())
		return err
	})
}

// Overwrite replaces every stored observation with obs in one transaction.
func (s *SQLite) Overwrite(ctx context.Context, obs []models.Observation) (err error) {
	start := time.Now()
	defer func() { observe(BackendSQLite, "overwrite", start, err) }()

	return s.retry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx: %w", err)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM observations"); err != nil {
			tx.Rollback()
			return err
		}

		stmt, err := tx.PrepareContext(ctx, "INSERT INTO observations (observed_on, value, created_at) VALUES (?, ?, ?)")
		if err != nil {
			tx.Rollback()
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		now := time.Now().UTC()
		for _, o := range obs {
			if _, err := stmt.ExecContext(ctx, o.Date.Format(models.DateLayout), o.Value, now); err != nil {
				tx.Rollback()
				return err
			}
		}

		return tx.Commit()
	})
}

// retry runs fn with exponential backoff while the database reports it is
// busy or locked. Any other error is returned immediately.
func (s *SQLite) retry(ctx context.Context, fn func() error) error {
	operation := func() error {
		err := fn()
		if err != nil && !isBusy(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 50 * time.Millisecond
	bo.MaxElapsedTime = 10 * time.Second
	return backoff.Retry(operation, backoff.WithContext(bo, ctx))
}

func isBusy(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() & 0xff {
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
		return true
	}
	return false
}
