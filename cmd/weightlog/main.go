package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/lox/weightlog/internal/api"
	"github.com/lox/weightlog/internal/chart"
	"github.com/lox/weightlog/internal/config"
	"github.com/lox/weightlog/internal/menu"
	"github.com/lox/weightlog/internal/metrics"
	"github.com/lox/weightlog/internal/models"
	"github.com/lox/weightlog/internal/store"
	"github.com/lox/weightlog/internal/tracker"
)

type Globals struct {
	Data        string `help:"Path to the CSV data file." default:"data.csv" env:"WEIGHTLOG_DATA"`
	Backend     string `help:"Storage backend (csv or sqlite)." enum:"csv,sqlite" default:"csv" env:"WEIGHTLOG_BACKEND"`
	DB          string `name:"db" help:"Path to the SQLite database for the sqlite backend." default:"data/weightlog.db" env:"WEIGHTLOG_DB"`
	ChartPath   string `help:"Where plot writes the chart." default:"graph.png" env:"WEIGHTLOG_CHART_PATH"`
	ChartWidth  int    `help:"Chart width in pixels." default:"1200"`
	ChartHeight int    `help:"Chart height in pixels." default:"900"`
	RecentDays  int    `help:"Days shown in the chart's recent panel." default:"60" env:"WEIGHTLOG_RECENT_DAYS"`
	MetricsFile string `help:"Write Prometheus metrics to this file on exit." env:"WEIGHTLOG_METRICS_FILE"`
	Verbose     bool   `short:"v" help:"Log store and tracker activity to stderr."`
}

type CLI struct {
	Globals

	Menu  MenuCmd  `cmd:"" default:"1" help:"Interactive menu (the default)."`
	Add   AddCmd   `cmd:"" help:"Record a value."`
	Show  ShowCmd  `cmd:"" help:"Print every record with its trend."`
	Plot  PlotCmd  `cmd:"" help:"Render the trend chart."`
	Serve ServeCmd `cmd:"" help:"Serve a read-only web view of the trend."`
}

type app struct {
	ctx     context.Context
	tracker *tracker.Tracker
	chart   chart.Options
	out     io.Writer
}

type MenuCmd struct{}

func (c *MenuCmd) Run(a *app) error {
	return menu.New(a.tracker, os.Stdin, a.out).Run(a.ctx)
}

type AddCmd struct {
	Value float64 `arg:"" help:"Measured value."`
	Date  string  `help:"Date to record against as YYYY-MM-DD (default today)."`
}

func (c *AddCmd) Run(a *app) error {
	date := time.Now()
	if c.Date != "" {
		d, err := models.ParseDate(c.Date)
		if err != nil {
			return fmt.Errorf("parse --date: %w", err)
		}
		date = d
	}

	obs, err := a.tracker.RecordOn(a.ctx, date, c.Value)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Recorded %.2f on %s\n", obs.Value, obs.Date.Format(models.DateLayout))
	return nil
}

type ShowCmd struct{}

func (c *ShowCmd) Run(a *app) error {
	return a.tracker.Show(a.ctx, a.out)
}

type PlotCmd struct{}

func (c *PlotCmd) Run(a *app) error {
	return a.tracker.Plot(a.ctx, a.out)
}

type ServeCmd struct {
	Addr string `help:"Listen address." default:":8080" env:"WEIGHTLOG_ADDR"`
}

func (c *ServeCmd) Run(a *app) error {
	ctx, cancel := signal.NotifyContext(a.ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	return api.NewServer(a.tracker, c.Addr, a.chart).Run(ctx, a.out)
}

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Fatalf("env: %v", err)
	}

	var cli CLI
	kctx := kong.Parse(&cli,
		kong.Name("weightlog"),
		kong.Description("Record body weight and follow its smoothed trend."),
		kong.UsageOnError(),
		kong.Configuration(config.TOML, config.Paths...),
	)

	if !cli.Verbose {
		log.SetOutput(io.Discard)
	}

	kctx.FatalIfErrorf(run(kctx, &cli.Globals))
}

func run(kctx *kong.Context, g *Globals) (err error) {
	ctx := context.Background()

	st, err := store.Open(ctx, store.Config{
		Backend:  g.Backend,
		CSVPath:  g.Data,
		SQLiteDB: g.DB,
	})
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	if g.MetricsFile != "" {
		defer func() {
			if werr := metrics.WriteTextfile(g.MetricsFile); werr != nil {
				log.Printf("metrics: write %s: %v", g.MetricsFile, werr)
				if err == nil {
					err = fmt.Errorf("write metrics: %w", werr)
				}
			}
		}()
	}

	opts := chart.Options{
		Width:      g.ChartWidth,
		Height:     g.ChartHeight,
		RecentDays: g.RecentDays,
	}
	tr := tracker.New(st, tracker.Config{
		Backend:   g.Backend,
		ChartPath: g.ChartPath,
		Chart:     opts,
	})

	return kctx.Run(&app{ctx: ctx, tracker: tr, chart: opts, out: os.Stdout})
}
