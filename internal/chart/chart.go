package chart

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"github.com/lox/weightlog/internal/models"
	"github.com/lox/weightlog/internal/trend"
)

// ErrNoData is returned by Render when there is nothing to plot.
var ErrNoData = errors.New("no data to plot")

const (
	DefaultWidth      = 1200
	DefaultHeight     = 900
	DefaultRecentDays = 60
	DefaultPath       = "graph.png"
)

type Options struct {
	Width      int
	Height     int
	RecentDays int // length of the recent window; history no longer than this gets a single panel
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.RecentDays <= 0 {
		o.RecentDays = DefaultRecentDays
	}
	return o
}

var (
	background = color.RGBA{250, 250, 250, 255}
	plotFill   = color.RGBA{255, 255, 255, 255}
	gridColor  = color.RGBA{225, 225, 225, 255}
	axisColor  = color.RGBA{90, 90, 90, 255}
	textColor  = color.RGBA{40, 40, 40, 255}
)

type series struct {
	name    string
	color   color.RGBA
	width   float32
	markers bool
	value   func(models.TrendRecord) float64
}

var allSeries = []series{
	{name: "value", color: color.RGBA{130, 130, 130, 255}, width: 1.5, markers: true, value: func(r models.TrendRecord) float64 { return r.Value }},
	{name: "ema_7", color: color.RGBA{31, 119, 180, 255}, width: 2.5, value: func(r models.TrendRecord) float64 { return r.EMA7 }},
	{name: "ema_30", color: color.RGBA{230, 120, 20, 255}, width: 2.5, value: func(r models.TrendRecord) float64 { return r.EMA30 }},
}

type panel struct {
	title   string
	records []models.TrendRecord
}

// panels splits records into a recent window and the full history. The
// recent panel is only added when the history is longer than the window.
func panels(records []models.TrendRecord, recentDays int) []panel {
	full := panel{title: "Full history", records: records}
	span := records[len(records)-1].DayOffset - records[0].DayOffset
	if span < recentDays {
		return []panel{full}
	}
	recent := panel{
		title:   fmt.Sprintf("Last %d days", recentDays),
		records: trend.Recent(records, recentDays),
	}
	return []panel{recent, full}
}

// Render draws value, ema_7 and ema_30 against date and returns a PNG.
func Render(records []models.TrendRecord, opts Options) ([]byte, error) {
	if len(records) == 0 {
		return nil, ErrNoData
	}

	ff, err := newFaces()
	if err != nil {
		return nil, fmt.Errorf("load fonts: %w", err)
	}
	defer ff.Close()

	opts = opts.withDefaults()
	img := image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height))
	draw.Draw(img, img.Bounds(), image.NewUniform(background), image.Point{}, draw.Src)

	ps := panels(records, opts.RecentDays)
	h := opts.Height / len(ps)
	for i, p := range ps {
		drawPanel(img, ff, image.Rect(0, i*h, opts.Width, (i+1)*h), p)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes a rendered chart to path, creating parent directories.
func Save(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create chart directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

type scale struct {
	plot   image.Rectangle
	x0, x1 float64
	y0, y1 float64
}

func newScale(plot image.Rectangle, records []models.TrendRecord) scale {
	s := scale{
		plot: plot,
		x0:   float64(records[0].DayOffset),
		x1:   float64(records[len(records)-1].DayOffset),
		y0:   math.Inf(1),
		y1:   math.Inf(-1),
	}
	for _, r := range records {
		for _, sr := range allSeries {
			v := sr.value(r)
			s.y0 = math.Min(s.y0, v)
			s.y1 = math.Max(s.y1, v)
		}
	}

	if s.x1 == s.x0 {
		s.x0--
		s.x1++
	}
	if s.y1 == s.y0 {
		s.y0--
		s.y1++
	}
	pad := (s.y1 - s.y0) * 0.05
	s.y0 -= pad
	s.y1 += pad
	return s
}

func (s scale) x(offset float64) float32 {
	return float32(float64(s.plot.Min.X) + (offset-s.x0)/(s.x1-s.x0)*float64(s.plot.Dx()))
}

func (s scale) y(v float64) float32 {
	return float32(float64(s.plot.Max.Y) - (v-s.y0)/(s.y1-s.y0)*float64(s.plot.Dy()))
}

func drawPanel(img *image.RGBA, ff *faces, area image.Rectangle, p panel) {
	plot := image.Rect(area.Min.X+80, area.Min.Y+50, area.Max.X-30, area.Max.Y-45)
	draw.Draw(img, plot, image.NewUniform(plotFill), image.Point{}, draw.Src)

	drawText(img, p.title, plot.Min.X, area.Min.Y+30, textColor, ff.title)
	drawLegend(img, ff.label, plot.Max.X, area.Min.Y+30)

	s := newScale(plot, p.records)
	drawGrid(img, ff.label, s, p.records)

	for _, sr := range allSeries {
		pts := make([]point, len(p.records))
		for i, r := range p.records {
			pts[i] = point{s.x(float64(r.DayOffset)), s.y(sr.value(r))}
		}
		stroke(img, pts, sr.width, sr.color)
		if sr.markers {
			for _, pt := range pts {
				mark(img, pt, sr.color)
			}
		}
	}

	fillRect(img, image.Rect(plot.Min.X, plot.Min.Y, plot.Min.X+1, plot.Max.Y), axisColor)
	fillRect(img, image.Rect(plot.Min.X, plot.Max.Y-1, plot.Max.X, plot.Max.Y), axisColor)
}

const ticks = 5

func drawGrid(img *image.RGBA, face font.Face, s scale, records []models.TrendRecord) {
	for i := 0; i <= ticks; i++ {
		v := s.y0 + (s.y1-s.y0)*float64(i)/ticks
		y := int(s.y(v))
		fillRect(img, image.Rect(s.plot.Min.X, y, s.plot.Max.X, y+1), gridColor)

		label := fmt.Sprintf("%.1f", v)
		w := font.MeasureString(face, label).Ceil()
		drawText(img, label, s.plot.Min.X-8-w, y+5, textColor, face)
	}

	first := records[0]
	lastOffset := records[len(records)-1].DayOffset
	seen := map[int]bool{}
	for i := 0; i <= ticks; i++ {
		off := int(math.Round(s.x0 + (s.x1-s.x0)*float64(i)/ticks))
		if off < first.DayOffset || off > lastOffset || seen[off] {
			continue
		}
		seen[off] = true

		x := int(s.x(float64(off)))
		fillRect(img, image.Rect(x, s.plot.Min.Y, x+1, s.plot.Max.Y), gridColor)

		label := first.Date.AddDate(0, 0, off-first.DayOffset).Format(models.DateLayout)
		w := font.MeasureString(face, label).Ceil()
		drawText(img, label, x-w/2, s.plot.Max.Y+20, textColor, face)
	}
}

func drawLegend(img *image.RGBA, face font.Face, right, baseline int) {
	x := right
	for i := len(allSeries) - 1; i >= 0; i-- {
		sr := allSeries[i]
		w := font.MeasureString(face, sr.name).Ceil()
		x -= w
		drawText(img, sr.name, x, baseline, textColor, face)
		x -= 26
		fillRect(img, image.Rect(x, baseline-6, x+20, baseline-3), sr.color)
		x -= 16
	}
}

type point struct{ x, y float32 }

// stroke draws a polyline of the given width. Each segment is filled as a
// quad and every vertex gets a square cap so joints have no gaps; all shapes
// share one winding so overlaps do not cancel.
func stroke(img *image.RGBA, pts []point, width float32, col color.RGBA) {
	b := img.Bounds()
	z := vector.NewRasterizer(b.Dx(), b.Dy())
	half := width / 2

	for i, p := range pts {
		z.MoveTo(p.x-half, p.y+half)
		z.LineTo(p.x+half, p.y+half)
		z.LineTo(p.x+half, p.y-half)
		z.LineTo(p.x-half, p.y-half)
		z.ClosePath()

		if i == 0 {
			continue
		}
		a := pts[i-1]
		dx, dy := p.x-a.x, p.y-a.y
		l := float32(math.Hypot(float64(dx), float64(dy)))
		if l == 0 {
			continue
		}
		nx, ny := -dy/l*half, dx/l*half
		z.MoveTo(a.x+nx, a.y+ny)
		z.LineTo(p.x+nx, p.y+ny)
		z.LineTo(p.x-nx, p.y-ny)
		z.LineTo(a.x-nx, a.y-ny)
		z.ClosePath()
	}

	z.Draw(img, b, image.NewUniform(col), image.Point{})
}

func mark(img *image.RGBA, p point, col color.RGBA) {
	x, y := int(p.x), int(p.y)
	fillRect(img, image.Rect(x-2, y-2, x+3, y+3), col)
}

func fillRect(img *image.RGBA, r image.Rectangle, col color.RGBA) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(col), image.Point{}, draw.Src)
}

func drawText(img *image.RGBA, text string, x, y int, col color.Color, face font.Face) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(text)
}
