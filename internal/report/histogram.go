// Package report generates per-session artifacts summarizing a scan: a
// distance-distribution chart and a top-down preview of the reconstructed
// cloud. Reports are static files; live rendering stays with the external
// viewer.
package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/gonum/stat"

	"github.com/skein-labs/rotoscan/internal/fsutil"
	"github.com/skein-labs/rotoscan/internal/monitoring"
	"github.com/skein-labs/rotoscan/internal/pointcloud"
	"github.com/skein-labs/rotoscan/internal/samplelog"
)

// DefaultHistogramBins is the bin count used when callers pass zero.
const DefaultHistogramBins = 40

// DistanceHistogram counts valid (non-sentinel) distances into equal-width
// bins across the scan's range.
type DistanceHistogram struct {
	Min      float64
	Max      float64
	Mean     float64
	StdDev   float64
	BinWidth float64
	Counts   []int
}

// NewDistanceHistogram bins the valid distances in records. It returns nil
// when no valid distances exist.
func NewDistanceHistogram(records []samplelog.Record, sentinel float64, bins int) *DistanceHistogram {
	if bins <= 0 {
		bins = DefaultHistogramBins
	}
	min, max, ok := pointcloud.DistanceRange(records, sentinel)
	if !ok {
		return nil
	}

	h := &DistanceHistogram{Min: min, Max: max, Counts: make([]int, bins)}
	if max > min {
		h.BinWidth = (max - min) / float64(bins)
	}
	var valid []float64
	for _, rec := range records {
		if rec.Distance < 0 || rec.Distance == sentinel {
			continue
		}
		valid = append(valid, rec.Distance)
		idx := 0
		if h.BinWidth > 0 {
			idx = int((rec.Distance - min) / h.BinWidth)
			if idx >= bins {
				idx = bins - 1 // max lands in the last bin
			}
		}
		h.Counts[idx]++
	}
	h.Mean, h.StdDev = stat.MeanStdDev(valid, nil)
	if len(valid) < 2 {
		h.StdDev = 0
	}
	return h
}

// Total returns the number of binned readings.
func (h *DistanceHistogram) Total() int {
	total := 0
	for _, c := range h.Counts {
		total += c
	}
	return total
}

// RenderChart writes the histogram as a standalone HTML bar chart.
func (h *DistanceHistogram) RenderChart(w io.Writer, sessionID string) error {
	x := make([]string, len(h.Counts))
	y := make([]opts.BarData, len(h.Counts))
	for i, count := range h.Counts {
		lo := h.Min + float64(i)*h.BinWidth
		x[i] = fmt.Sprintf("%.0f", lo)
		y[i] = opts.BarData{Value: count}
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Scan Distance Distribution", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Distance distribution",
			Subtitle: fmt.Sprintf("session=%s samples=%d range=%.0f-%.0f mm mean=%.0f stddev=%.0f",
				sessionID, h.Total(), h.Min, h.Max, h.Mean, h.StdDev),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "distance (mm)"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "readings"}),
	)
	bar.SetXAxis(x).AddSeries("readings", y)

	if err := bar.Render(w); err != nil {
		return fmt.Errorf("render distance histogram: %w", err)
	}
	return nil
}

// WriteDistanceChart bins records and writes the chart to path. Returns
// pointcloud.ErrEmptyInput when no valid distances exist.
func WriteDistanceChart(fs fsutil.FileSystem, path, sessionID string, records []samplelog.Record, sentinel float64) error {
	h := NewDistanceHistogram(records, sentinel, 0)
	if h == nil {
		return pointcloud.ErrEmptyInput
	}

	f, err := fs.Create(path)
	if err != nil {
		return fmt.Errorf("create chart %s: %w", path, err)
	}
	if err := h.RenderChart(f, sessionID); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close chart %s: %w", path, err)
	}
	monitoring.Logf("report: wrote distance chart to %s", path)
	return nil
}
