package charts

import (
	"errors"
	"fmt"
	"io"

	chart "github.com/wcharczuk/go-chart/v2"

	"github.com/ademuri/track-dashboard/internal/pipeline"
)

const (
	Width  = 900
	Height = 480
)

var ErrNoData = errors.New("nothing to chart")

// TopArtists renders the top-artists bar chart as PNG.
func TopArtists(w io.Writer, artists []pipeline.ArtistCount) error {
	if len(artists) == 0 {
		return ErrNoData
	}

	bars := make([]chart.Value, len(artists))
	peak := 0
	for i, a := range artists {
		bars[i] = chart.Value{Value: float64(a.Count), Label: a.Artist}
		if a.Count > peak {
			peak = a.Count
		}
	}

	barWidth := (Width - 120) / len(bars)
	if barWidth > 60 {
		barWidth = 60
	}

	ch := chart.BarChart{
		Title:      "Top artists by track count",
		Width:      Width,
		Height:     Height,
		BarWidth:   barWidth,
		Background: chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 12, Bottom: 90}},
		XAxis:      chart.Style{TextRotationDegrees: 45},
		YAxis: chart.YAxis{
			Name: "Tracks",
			// An explicit range keeps equal counts from collapsing the axis.
			Range: &chart.ContinuousRange{Min: 0, Max: float64(peak)},
		},
		Bars: bars,
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering top artists: %w", err)
	}
	return nil
}

// Decades renders the decade distribution as a donut chart, one slice per
// decade in the given order.
func Decades(w io.Writer, decades []pipeline.DecadeCount) error {
	var values []chart.Value
	for _, d := range decades {
		if d.Count <= 0 {
			continue
		}
		values = append(values, chart.Value{
			Value: float64(d.Count),
			Label: fmt.Sprintf("%s (%d)", d.Decade, d.Count),
		})
	}
	if len(values) == 0 {
		return ErrNoData
	}

	ch := chart.DonutChart{
		Title:  "Tracks by decade",
		Width:  Height,
		Height: Height,
		Values: values,
	}
	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("rendering decades: %w", err)
	}
	return nil
}
