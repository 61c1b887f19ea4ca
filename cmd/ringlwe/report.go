package main

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/montanaflynn/stats"
)

// sampleReport summarizes the signed output of the Gaussian sampler.
type sampleReport struct {
	Count       int
	Mean        float64
	StdDev      float64
	ExpectedStd float64
	Median      float64
	Min         float64
	Max         float64

	// Histogram[i] counts the samples equal to Min+i.
	Histogram []int
}

func newSampleReport(samples []int64, sigma float64) (r *sampleReport, err error) {

	if len(samples) == 0 {
		return nil, fmt.Errorf("report: no samples")
	}

	data := make(stats.Float64Data, len(samples))
	for i, x := range samples {
		data[i] = float64(x)
	}

	r = &sampleReport{
		Count:       len(samples),
		ExpectedStd: sigma / math.Sqrt(2*math.Pi),
	}

	if r.Mean, err = data.Mean(); err != nil {
		return
	}
	if r.StdDev, err = data.StandardDeviation(); err != nil {
		return
	}
	if r.Median, err = data.Median(); err != nil {
		return
	}
	if r.Min, err = data.Min(); err != nil {
		return
	}
	if r.Max, err = data.Max(); err != nil {
		return
	}

	r.Histogram = make([]int, int(r.Max-r.Min)+1)
	for _, x := range samples {
		r.Histogram[x-int64(r.Min)]++
	}

	return
}

func (r *sampleReport) WriteText(w io.Writer) (err error) {
	_, err = fmt.Fprintf(w, "samples:  %d\nmean:     %.4f\nstd:      %.4f (expected %.4f)\nmedian:   %.1f\nrange:    [%.0f, %.0f]\n",
		r.Count, r.Mean, r.StdDev, r.ExpectedStd, r.Median, r.Min, r.Max)
	return
}

func (r *sampleReport) newHistogramChart(title string) *charts.Bar {

	xLabels := make([]string, len(r.Histogram))
	items := make([]opts.BarData, len(r.Histogram))
	for i, c := range r.Histogram {
		xLabels[i] = strconv.Itoa(int(r.Min) + i)
		items[i] = opts.BarData{Value: c}
	}

	bar := charts.NewBar()
	subtitle := fmt.Sprintf("n=%d, mean=%.3f, std=%.3f, expected std=%.3f", r.Count, r.Mean, r.StdDev, r.ExpectedStd)
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: "1200px", Height: "600px"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(xLabels).
		AddSeries("count", items).
		SetSeriesOptions(charts.WithLabelOpts(opts.Label{Show: opts.Bool(false)}))
	return bar
}

// WriteHTML renders the histogram of the samples on an HTML page.
func (r *sampleReport) WriteHTML(path, title string) (err error) {

	page := components.NewPage()
	page.AddCharts(r.newHistogramChart(title))

	f, err := os.Create(path)
	if err != nil {
		return err
	}

	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return page.Render(f)
}
