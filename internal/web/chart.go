package web

import (
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"equity_bot/internal/models"
)

// chartBars caps how much history the chart renders.
const chartBars = 120

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	if len(snap.Bars) == 0 {
		http.Error(w, "no price data yet", http.StatusServiceUnavailable)
		return
	}

	start := 0
	if len(snap.Bars) > chartBars {
		start = len(snap.Bars) - chartBars
	}
	bars := snap.Bars[start:]

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: s.cfg.Ticker,
			Width:     "1200px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: fmt.Sprintf("%s close with SMA(%d)/SMA(%d)", s.cfg.Ticker, s.cfg.ShortWindow, s.cfg.LongWindow),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithYAxisOpts(opts.YAxis{Scale: opts.Bool(true)}),
	)

	xAxis := make([]string, len(bars))
	for i, b := range bars {
		xAxis[i] = b.Time.Format("01-02 15:04")
	}

	line.SetSeriesOptions(
		charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
	)

	line.SetXAxis(xAxis)
	line.AddSeries("Close", closeLineData(bars))
	line.AddSeries(fmt.Sprintf("SMA %d", s.cfg.ShortWindow),
		smaLineData(snap.Averages.Short, start, s.cfg.ShortWindow))
	line.AddSeries(fmt.Sprintf("SMA %d", s.cfg.LongWindow),
		smaLineData(snap.Averages.Long, start, s.cfg.LongWindow))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(w); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func closeLineData(bars []models.Bar) []opts.LineData {
	data := make([]opts.LineData, len(bars))
	for i, b := range bars {
		data[i] = opts.LineData{Value: b.Close}
	}
	return data
}

// smaLineData slices an SMA series aligned with the full bar series down to
// the charted window. Points before the average warms up render as gaps. The
// series may be empty when the averages were never computed.
func smaLineData(series []float64, start, window int) []opts.LineData {
	if start >= len(series) {
		return nil
	}
	data := make([]opts.LineData, 0, len(series)-start)
	for i := start; i < len(series); i++ {
		if i < window-1 {
			data = append(data, opts.LineData{Value: nil})
			continue
		}
		data = append(data, opts.LineData{Value: series[i]})
	}
	return data
}
