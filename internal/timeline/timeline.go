// Package timeline рисует ленту статусов: цветная полоса в каждый момент времени,
// подписи оси X в формате ЧЧ:ММ.
package timeline

import (
	"errors"
	"fmt"
	"io"
	"time"

	"GuardianWatchService/internal/models"

	"github.com/phpdave11/gofpdf"
)

// Label текстовая метка статуса
type Label string

// Метки статуса
const (
	LabelNormal    Label = "normal"
	LabelCaution   Label = "caution"
	LabelEmergency Label = "emergency"
)

// Color цвет в RGB
type Color struct {
	R, G, B int
}

// Цвета меток
var (
	Green  = Color{R: 0, G: 128, B: 0}
	Yellow = Color{R: 255, G: 215, B: 0}
	Red    = Color{R: 220, G: 20, B: 20}
)

var labelColors = map[Label]Color{
	LabelNormal:    Green,
	LabelCaution:   Yellow,
	LabelEmergency: Red,
}

// TickFormat формат подписей оси времени
const TickFormat = "15:04"

var (
	// ErrEmptySeries возвращается для пустой последовательности
	ErrEmptySeries = errors.New("timeline: empty series")
	// ErrNotIncreasing возвращается, если время точек не возрастает
	ErrNotIncreasing = errors.New("timeline: timestamps must be strictly increasing")
	// ErrUnknownLabel возвращается для метки вне набора normal, caution, emergency
	ErrUnknownLabel = errors.New("timeline: unknown label")
)

// Point одна точка ленты
type Point struct {
	Time  time.Time
	Label Label
}

// Options параметры страницы, размеры в миллиметрах
type Options struct {
	Title      string
	PageWidth  float64
	PageHeight float64
	Margin     float64
}

// DefaultOptions альбомный лист 10x6 дюймов
func DefaultOptions() Options {
	return Options{
		Title:      "Status timeline",
		PageWidth:  254,
		PageHeight: 152.4,
		Margin:     20,
	}
}

// Rect прямоугольник области построения
type Rect struct {
	X, Y, W, H float64
}

// Marker полоса статуса
type Marker struct {
	X     float64
	Time  time.Time
	Label Label
	Color Color
}

// Tick подпись оси времени
type Tick struct {
	X    float64
	Text string
}

// Chart готовая к отрисовке разметка
type Chart struct {
	Title     string
	Plot      Rect
	BarWidth  float64
	Markers   []Marker
	Ticks     []Tick
	Gridlines []float64
}

// Layout рассчитывает положение полос, подписей и линий сетки
func Layout(points []Point, opts Options) (*Chart, error) {
	if len(points) == 0 {
		return nil, ErrEmptySeries
	}
	for i, p := range points {
		if _, ok := labelColors[p.Label]; !ok {
			return nil, fmt.Errorf("%w: %q at index %d", ErrUnknownLabel, p.Label, i)
		}
		if i > 0 && !p.Time.After(points[i-1].Time) {
			return nil, fmt.Errorf("%w: index %d", ErrNotIncreasing, i)
		}
	}

	defaults := DefaultOptions()
	if opts.PageWidth <= 0 || opts.PageHeight <= 0 {
		opts.PageWidth, opts.PageHeight = defaults.PageWidth, defaults.PageHeight
	}
	if opts.Margin <= 0 {
		opts.Margin = defaults.Margin
	}

	// Снизу оставляем место под повернутые подписи
	plot := Rect{
		X: opts.Margin,
		Y: opts.Margin,
		W: opts.PageWidth - 2*opts.Margin,
		H: opts.PageHeight - 2*opts.Margin - 12,
	}

	first := points[0].Time
	last := points[len(points)-1].Time
	span := last.Sub(first)

	// Половина шага с каждой стороны, чтобы крайние полосы не лежали на рамке
	var step time.Duration
	if len(points) > 1 {
		step = span / time.Duration(len(points)-1)
	}
	start := first.Add(-step / 2)
	total := span + step

	xOf := func(t time.Time) float64 {
		if total <= 0 {
			return plot.X + plot.W/2
		}
		return plot.X + plot.W*float64(t.Sub(start))/float64(total)
	}

	barWidth := plot.W / float64(len(points)) * 0.2
	if barWidth < 1 {
		barWidth = 1
	}

	chart := &Chart{
		Title:    opts.Title,
		Plot:     plot,
		BarWidth: barWidth,
	}
	for _, p := range points {
		x := xOf(p.Time)
		chart.Markers = append(chart.Markers, Marker{X: x, Time: p.Time, Label: p.Label, Color: labelColors[p.Label]})
		chart.Ticks = append(chart.Ticks, Tick{X: x, Text: p.Time.Format(TickFormat)})
		chart.Gridlines = append(chart.Gridlines, x)
	}

	return chart, nil
}

// Render рисует ленту в PDF и пишет документ в w
func Render(w io.Writer, points []Point, opts Options) error {
	chart, err := Layout(points, opts)
	if err != nil {
		return err
	}
	if opts.PageWidth <= 0 || opts.PageHeight <= 0 {
		defaults := DefaultOptions()
		opts.PageWidth, opts.PageHeight = defaults.PageWidth, defaults.PageHeight
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: opts.PageWidth, Ht: opts.PageHeight},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	plot := chart.Plot

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(20, 20, 20)
	pdf.SetXY(plot.X, plot.Y-12)
	pdf.CellFormat(plot.W, 8, chart.Title, "", 0, "C", false, 0, "")

	// Сетка только по оси X, без делений по Y
	pdf.SetDrawColor(210, 210, 210)
	pdf.SetLineWidth(0.2)
	for _, x := range chart.Gridlines {
		pdf.Line(x, plot.Y, x, plot.Y+plot.H)
	}

	for _, m := range chart.Markers {
		pdf.SetFillColor(m.Color.R, m.Color.G, m.Color.B)
		pdf.Rect(m.X-chart.BarWidth/2, plot.Y, chart.BarWidth, plot.H, "F")
	}

	pdf.SetDrawColor(60, 60, 60)
	pdf.SetLineWidth(0.3)
	pdf.Rect(plot.X, plot.Y, plot.W, plot.H, "D")

	pdf.SetFont("Helvetica", "", 9)
	baseline := plot.Y + plot.H + 4
	for _, t := range chart.Ticks {
		pdf.TransformBegin()
		pdf.TransformRotate(45, t.X, baseline)
		pdf.Text(t.X-pdf.GetStringWidth(t.Text), baseline, t.Text)
		pdf.TransformEnd()
	}

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(plot.X, plot.Y+plot.H+10)
	pdf.CellFormat(plot.W, 6, "Time", "", 0, "C", false, 0, "")

	pdf.TransformBegin()
	pdf.TransformRotate(90, plot.X-6, plot.Y+plot.H/2)
	pdf.Text(plot.X-6-pdf.GetStringWidth("Status")/2, plot.Y+plot.H/2, "Status")
	pdf.TransformEnd()

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("timeline: render: %w", err)
	}
	return pdf.Output(w)
}

// SampleSeries фиксированный пример: час с шагом 10 минут
func SampleSeries() []Point {
	start := time.Date(2025, 2, 6, 0, 0, 0, 0, time.UTC)
	labels := []Label{LabelNormal, LabelNormal, LabelCaution, LabelEmergency, LabelCaution, LabelNormal}

	points := make([]Point, len(labels))
	for i, label := range labels {
		points[i] = Point{Time: start.Add(time.Duration(i) * 10 * time.Minute), Label: label}
	}
	return points
}

// FromStatusRecords строит ленту из записей журнала в порядке выдачи get_status (от новых к старым)
func FromStatusRecords(records []models.StatusRecord) ([]Point, error) {
	points := make([]Point, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		label, err := FromStatusCode(records[i].Status)
		if err != nil {
			return nil, err
		}
		points = append(points, Point{Time: records[i].CreatedAt, Label: label})
	}
	return points, nil
}

// FromStatusCode переводит код статуса в метку
func FromStatusCode(code models.StatusCode) (Label, error) {
	switch code {
	case models.StatusNormal:
		return LabelNormal, nil
	case models.StatusCaution:
		return LabelCaution, nil
	case models.StatusEmergency:
		return LabelEmergency, nil
	default:
		return "", fmt.Errorf("%w: status code %d", ErrUnknownLabel, code)
	}
}
