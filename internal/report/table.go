package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/lox/weightlog/internal/models"
	"github.com/lox/weightlog/internal/trend"
)

// NotApplicable is printed in place of a weekly rate that has no value.
const NotApplicable = "n/a"

const ruler = "--------------------------------------------------------------"

// WriteTable prints one row per record with values rounded to two decimals.
func WriteTable(w io.Writer, records []models.TrendRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records found.")
		return err
	}

	if _, err := fmt.Fprintf(w, "Records:\n%s\n", ruler); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "date\tday\tvalue\tchange\trate_7\tema_7\tema_30\t")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%s\t%.2f\t%.2f\t\n",
			r.Date.Format(models.DateLayout),
			r.DayOffset,
			r.Value,
			r.Change,
			FormatRate(r.WeeklyRate),
			r.EMA7,
			r.EMA30,
		)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, ruler)
	return err
}

// FormatRate renders a weekly rate to two decimals, or NotApplicable.
func FormatRate(r models.Rate) string {
	if !r.Valid {
		return NotApplicable
	}
	return fmt.Sprintf("%.2f", r.Value)
}

// WriteSummary prints a short overview of the whole history.
func WriteSummary(w io.Writer, s trend.Summary) error {
	if s.Count == 0 {
		return nil
	}
	_, err := fmt.Fprintf(w,
		"%d records over %d days (%s to %s)\nlatest %.2f, ema_7 %.2f, ema_30 %.2f\nrange %.2f to %.2f, total change %+.2f, average %s per week\n",
		s.Count, s.SpanDays,
		s.First.Date.Format(models.DateLayout), s.Last.Date.Format(models.DateLayout),
		s.Last.Value, s.Last.EMA7, s.Last.EMA30,
		s.Min, s.Max, s.TotalChange, FormatRate(s.AvgWeeklyRate),
	)
	return err
}
