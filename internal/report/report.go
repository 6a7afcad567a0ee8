// Package report renders session analytics as self-contained HTML chart
// pages using go-echarts.
package report

import (
	"fmt"
	"io"
	"math"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ggustin93/emg-c3d-analyzer-sub017/internal/db"
)

// RenderSession writes the full HTML report for one persisted session:
// a per-channel quality breakdown, the contraction timeline and the median
// frequency trend that feeds the fatigue index.
func RenderSession(w io.Writer, detail *db.SessionDetail) error {
	page := components.NewPage()
	page.PageTitle = "EMG Session " + detail.SessionID
	page.AddCharts(
		qualityBar(detail),
		contractionTimeline(detail),
		frequencyTrend(detail),
	)
	return page.Render(w)
}

// qualityBar shows the per-channel contraction counts broken down by quality
// tag.
func qualityBar(detail *db.SessionDetail) components.Charter {
	var names []string
	var excellent, force, duration, insufficient []opts.BarData
	for _, cs := range detail.Channels {
		if cs.Error != "" {
			continue
		}
		names = append(names, cs.ChannelName)
		excellent = append(excellent, opts.BarData{Value: cs.ExcellentCount})
		force = append(force, opts.BarData{Value: cs.AdequateForce})
		duration = append(duration, opts.BarData{Value: cs.AdequateDuration})
		insufficient = append(insufficient, opts.BarData{Value: cs.InsufficientCount})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Contraction Quality",
			Subtitle: fmt.Sprintf("session=%s source=%s", detail.SessionID, detail.SourceFile),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(names).
		AddSeries("excellent", excellent).
		AddSeries("adequate force", force).
		AddSeries("adequate duration", duration).
		AddSeries("insufficient", insufficient)
	return bar
}

// contractionTimeline plots every contraction's peak amplitude at its onset
// time, one series per channel.
func contractionTimeline(detail *db.SessionDetail) components.Charter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Contraction Timeline"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Onset (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Peak amplitude"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	for _, name := range channelNames(detail) {
		var data []opts.ScatterData
		for _, c := range detail.Contractions {
			if c.ChannelName != name {
				continue
			}
			data = append(data, opts.ScatterData{
				Value:      []interface{}{c.StartTimeSecs, c.PeakAmplitude},
				SymbolSize: 8,
			})
		}
		scatter.AddSeries(name, data)
	}
	return scatter
}

// frequencyTrend plots per-contraction median frequency over onset time. A
// falling trend is the fatigue signature the fatigue index quantifies.
func frequencyTrend(detail *db.SessionDetail) components.Charter {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: "Median Frequency Trend"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "Onset (s)"}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "Median frequency (Hz)"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	for _, name := range channelNames(detail) {
		var data []opts.LineData
		for _, c := range detail.Contractions {
			if c.ChannelName != name || math.IsNaN(c.MedianFreqHz) {
				continue
			}
			data = append(data, opts.LineData{Value: []interface{}{c.StartTimeSecs, c.MedianFreqHz}})
		}
		line.AddSeries(name, data)
	}
	return line
}

func channelNames(detail *db.SessionDetail) []string {
	seen := make(map[string]bool)
	var names []string
	for _, c := range detail.Contractions {
		if !seen[c.ChannelName] {
			seen[c.ChannelName] = true
			names = append(names, c.ChannelName)
		}
	}
	sort.Strings(names)
	return names
}
