package store

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/lox/weightlog/internal/models"
)

var csvHeader = []string{"date", "value"}

// CSV stores observations as date,value rows in a flat text file.
type CSV struct {
	path string
}

func NewCSV(path string) *CSV {
	return &CSV{path: path}
}

func (c *CSV) Path() string { return c.path }

func (c *CSV) Close() error { return nil }

func (c *CSV) Load(ctx context.Context) (obs []models.Observation, err error) {
	start := time.Now()
	defer func() { observe(BackendCSV, "load", start, err) }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", c.path, err)
	}
	obs, sorted, err := c.read(f)
	f.Close()
	if err != nil {
		return nil, err
	}

	if !sorted {
		log.Printf("store: %s is out of date order, rewriting sorted", c.path)
		slices.SortStableFunc(obs, func(a, b models.Observation) int {
			return a.Date.Compare(b.Date)
		})
		if err := c.Overwrite(ctx, obs); err != nil {
			return nil, fmt.Errorf("rewrite sorted: %w", err)
		}
	}

	return obs, nil
}

// read parses the file and reports whether rows were already in date order.
func (c *CSV) read(r io.Reader) ([]models.Observation, bool, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, true, nil
	}
	if err != nil {
		return nil, false, &RowError{Source: c.path, Line: 1, Err: err}
	}
	if !validHeader(header) {
		return nil, false, &RowError{Source: c.path, Line: 1, Err: fmt.Errorf("unexpected header %q", strings.Join(header, ","))}
	}

	var obs []models.Observation
	sorted := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			line := 0
			if errors.As(err, &parseErr) {
				line = parseErr.Line
			}
			return nil, false, &RowError{Source: c.path, Line: line, Err: err}
		}
		line, _ := reader.FieldPos(0)

		o, err := parseRow(record)
		if err != nil {
			return nil, false, &RowError{Source: c.path, Line: line, Err: err}
		}
		if n := len(obs); n > 0 && o.Date.Before(obs[n-1].Date) {
			sorted = false
		}
		obs = append(obs, o)
	}

	return obs, sorted, nil
}

func validHeader(header []string) bool {
	if len(header) < 2 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(header[0]))
	second := strings.ToLower(strings.TrimSpace(header[1]))
	return (first == "date" || first == "timestamp") && second == "value"
}

func parseRow(record []string) (models.Observation, error) {
	if len(record) < 2 {
		return models.Observation{}, fmt.Errorf("want 2 fields, got %d", len(record))
	}
	date, err := models.ParseDate(strings.TrimSpace(record[0]))
	if err != nil {
		return models.Observation{}, fmt.Errorf("parse date: %w", err)
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
	if err != nil {
		return models.Observation{}, fmt.Errorf("parse value: %w", err)
	}
	return models.Observation{Date: date, Value: value}, nil
}

func formatRow(o models.Observation) []string {
	return []string{
		o.Date.Format(models.DateLayout),
		strconv.FormatFloat(o.Value, 'f', -1, 64),
	}
}

// Append adds one row, creating the file and its header on first use.
func (c *CSV) Append(ctx context.Context, o models.Observation) (err error) {
	start := time.Now()
	defer func() { observe(BackendCSV, "append", start, err) }()
	if err := ctx.Err(); err != nil {
		return err
	}

	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create data directory: %w", err)
		}
	}

	f, err := os.OpenFile(c.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", c.path, err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	} else if needsNewline(f, info.Size()) {
		if _, err := f.WriteString("\n"); err != nil {
			return fmt.Errorf("terminate last row: %w", err)
		}
	}

	if err := w.Write(formatRow(o)); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", c.path, err)
	}
	return f.Close()
}

// needsNewline reports whether a hand-edited file is missing its final line
// terminator.
func needsNewline(f *os.File, size int64) bool {
	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, size-1); err != nil {
		return false
	}
	return buf[0] != '\n'
}

// Overwrite replaces the file contents with obs. The new contents are written
// to a temporary file in the same directory and renamed into place.
func (c *CSV) Overwrite(ctx context.Context, obs []models.Observation) (err error) {
	start := time.Now()
	defer func() { observe(BackendCSV, "overwrite", start, err) }()
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(c.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(csvHeader); err != nil {
		tmp.Close()
		return fmt.Errorf("write header: %w", err)
	}
	for _, o := range obs {
		if err := w.Write(formatRow(o)); err != nil {
			tmp.Close()
			return fmt.Errorf("write row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("flush temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		return fmt.Errorf("replace %s: %w", c.path, err)
	}
	return nil
}
