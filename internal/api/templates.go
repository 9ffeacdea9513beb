package api

import (
	"embed"
	"html/template"

	"github.com/lox/weightlog/internal/models"
	"github.com/lox/weightlog/internal/report"
)

//go:embed templates/*
var templateFS embed.FS

func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"date": func(r models.TrendRecord) string {
			return r.Date.Format(models.DateLayout)
		},
		"rate": report.FormatRate,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}
