package api

import (
	"context"
	"html/template"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lox/weightlog/internal/chart"
	"github.com/lox/weightlog/internal/metrics"
	"github.com/lox/weightlog/internal/models"
)

// Source supplies the reconstructed series the server renders.
type Source interface {
	Records(ctx context.Context) ([]models.TrendRecord, error)
}

// Server is a read-only web view over the trend records.
type Server struct {
	source Source
	addr   string
	chart  chart.Options
	tmpl   *template.Template
}

func NewServer(source Source, addr string, opts chart.Options) *Server {
	return &Server{
		source: source,
		addr:   addr,
		chart:  opts,
		tmpl:   newTemplates(),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /chart.png", s.handleChart)
	mux.HandleFunc("GET /api/records", s.handleAPIRecords)
	mux.HandleFunc("GET /api/summary", s.handleAPISummary)
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, out io.Writer) error {
	server := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("api: shutdown: %v", err)
		}
	}()

	log.Printf("api: listening on %s", s.addr)
	io.WriteString(out, "Serving on "+s.addr+"\n")
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
