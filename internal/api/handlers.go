package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/lox/weightlog/internal/chart"
	"github.com/lox/weightlog/internal/metrics"
	"github.com/lox/weightlog/internal/models"
	"github.com/lox/weightlog/internal/trend"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	records, err := s.source.Records(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data := IndexData{
		Records: records,
		Summary: trend.Summarize(records),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		log.Printf("api: template error: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	records, err := s.source.Records(r.Context())
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
		return
	}

	health := HealthStatus{Status: "ok", Records: len(records)}
	if len(records) > 0 {
		health.LastDate = records[len(records)-1].Date.Format(models.DateLayout)
	}
	json.NewEncoder(w).Encode(health)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	records, err := s.source.Records(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	data, err := chart.Render(records, s.chart)
	switch {
	case errors.Is(err, chart.ErrNoData):
		metrics.ChartsRendered.WithLabelValues("empty").Inc()
		http.Error(w, "No records to plot.", http.StatusNotFound)
		return
	case err != nil:
		metrics.ChartsRendered.WithLabelValues("error").Inc()
		log.Printf("api: render chart: %v", err)
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	metrics.ChartsRendered.WithLabelValues("ok").Inc()

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

func (s *Server) handleAPIRecords(w http.ResponseWriter, r *http.Request) {
	records, err := s.source.Records(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	out := make([]RecordView, len(records))
	for i, rec := range records {
		out[i] = newRecordView(rec)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

func (s *Server) handleAPISummary(w http.ResponseWriter, r *http.Request) {
	records, err := s.source.Records(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(newSummaryView(trend.Summarize(records)))
}
