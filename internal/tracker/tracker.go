package tracker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"time"

	"github.com/lox/weightlog/internal/chart"
	"github.com/lox/weightlog/internal/metrics"
	"github.com/lox/weightlog/internal/models"
	"github.com/lox/weightlog/internal/report"
	"github.com/lox/weightlog/internal/store"
	"github.com/lox/weightlog/internal/trend"
)

// ErrInvalidValue is returned for values that cannot be stored, such as NaN.
var ErrInvalidValue = errors.New("value must be a finite number")

type Config struct {
	Backend   string // metrics label only
	ChartPath string
	Chart     chart.Options
	Now       func() time.Time
}

// Tracker ties the store, the trend engine and the renderers together. Every
// read reloads the store and recomputes trends from scratch.
type Tracker struct {
	store     store.ObservationStore
	backend   string
	chartPath string
	chartOpts chart.Options
	now       func() time.Time
}

func New(s store.ObservationStore, cfg Config) *Tracker {
	t := &Tracker{
		store:     s,
		backend:   cfg.Backend,
		chartPath: cfg.ChartPath,
		chartOpts: cfg.Chart,
		now:       cfg.Now,
	}
	if t.backend == "" {
		t.backend = store.BackendCSV
	}
	if t.chartPath == "" {
		t.chartPath = chart.DefaultPath
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t
}

// Record stores value against today's local date.
func (t *Tracker) Record(ctx context.Context, value float64) (models.Observation, error) {
	return t.RecordOn(ctx, t.now(), value)
}

func (t *Tracker) RecordOn(ctx context.Context, date time.Time, value float64) (models.Observation, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return models.Observation{}, ErrInvalidValue
	}

	obs := models.Observation{Date: models.Day(date), Value: value}
	if err := t.store.Append(ctx, obs); err != nil {
		return models.Observation{}, fmt.Errorf("append observation: %w", err)
	}
	metrics.ObservationsRecorded.WithLabelValues(t.backend).Inc()
	log.Printf("tracker: recorded %.2f on %s", obs.Value, obs.Date.Format(models.DateLayout))
	return obs, nil
}

// Records loads every observation and reconstructs its trend.
func (t *Tracker) Records(ctx context.Context) ([]models.TrendRecord, error) {
	obs, err := t.store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load observations: %w", err)
	}
	metrics.ObservationsLoaded.Set(float64(len(obs)))

	records := trend.Reconstruct(obs)
	metrics.Reconstructions.Inc()

	if n := len(records); n > 0 {
		last := records[n-1]
		metrics.LastValue.WithLabelValues("value").Set(last.Value)
		metrics.LastValue.WithLabelValues("ema_7").Set(last.EMA7)
		metrics.LastValue.WithLabelValues("ema_30").Set(last.EMA30)
	}
	return records, nil
}

// Show writes the trend table and summary to w.
func (t *Tracker) Show(ctx context.Context, w io.Writer) error {
	records, err := t.Records(ctx)
	if err != nil {
		return err
	}
	if err := report.WriteTable(w, records); err != nil {
		return fmt.Errorf("write table: %w", err)
	}
	if err := report.WriteSummary(w, trend.Summarize(records)); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// Plot renders the chart to the configured path. An empty history is
// reported to w and is not an error.
func (t *Tracker) Plot(ctx context.Context, w io.Writer) error {
	records, err := t.Records(ctx)
	if err != nil {
		return err
	}

	data, err := chart.Render(records, t.chartOpts)
	if errors.Is(err, chart.ErrNoData) {
		metrics.ChartsRendered.WithLabelValues("empty").Inc()
		_, err := fmt.Fprintln(w, "No records to plot.")
		return err
	}
	if err != nil {
		metrics.ChartsRendered.WithLabelValues("error").Inc()
		return fmt.Errorf("render chart: %w", err)
	}

	if err := chart.Save(t.chartPath, data); err != nil {
		metrics.ChartsRendered.WithLabelValues("error").Inc()
		return err
	}
	metrics.ChartsRendered.WithLabelValues("ok").Inc()

	_, err = fmt.Fprintf(w, "Chart saved to %s\n", t.chartPath)
	return err
}
