package tui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/lipgloss"
	"github.com/sadopc/tasklog/internal/session"
	"github.com/sadopc/tasklog/internal/store"
)

const maxBars = 6

// descriptionTotal is the time tracked under one description.
type descriptionTotal struct {
	Description string
	Total       time.Duration
	Count       int
}

// summarize adds up task durations per description, largest first. The
// open task counts up to now. Audit entries are left out.
func summarize(snapshot []store.Task, open *store.Task, now time.Time) []descriptionTotal {
	byDesc := make(map[string]*descriptionTotal)
	var order []string

	add := func(desc string, d time.Duration) {
		if desc == session.StartupDescription || desc == session.ShutdownDescription {
			return
		}
		dt, ok := byDesc[desc]
		if !ok {
			dt = &descriptionTotal{Description: desc}
			byDesc[desc] = dt
			order = append(order, desc)
		}
		dt.Total += d
		dt.Count++
	}

	for _, t := range snapshot {
		if open != nil && t.ID == open.ID {
			if now.After(t.Start) {
				add(t.Description, now.Sub(t.Start))
			} else {
				add(t.Description, 0)
			}
			continue
		}
		add(t.Description, t.Duration())
	}

	totals := make([]descriptionTotal, 0, len(order))
	for _, desc := range order {
		totals = append(totals, *byDesc[desc])
	}
	sort.SliceStable(totals, func(i, j int) bool {
		return totals[i].Total > totals[j].Total
	})
	return totals
}

type chartModel struct {
	width  int
	height int

	totals []descriptionTotal
	chart  barchart.Model
}

func newChartModel() chartModel {
	return chartModel{
		chart: barchart.New(30, 10),
	}
}

func (c *chartModel) setSize(w, h int) {
	c.width = w
	c.height = h
	c.build()
}

func (c *chartModel) refresh(snapshot []store.Task, open *store.Task, now time.Time) {
	c.totals = summarize(snapshot, open, now)
	c.build()
}

func (c *chartModel) build() {
	chartWidth := c.width - 4
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := c.height / 2
	if chartHeight < 6 {
		chartHeight = 6
	}

	c.chart = barchart.New(chartWidth, chartHeight)

	n := min(len(c.totals), maxBars)
	if n == 0 {
		c.chart.Draw()
		return
	}
	labelWidth := max(3, chartWidth/n-1)

	var bars []barchart.BarData
	for i, t := range c.totals[:n] {
		style := lipgloss.NewStyle().Foreground(chartColors[i%len(chartColors)])
		bars = append(bars, barchart.BarData{
			Label: truncate(t.Description, labelWidth),
			Values: []barchart.BarValue{{
				Name:  t.Description,
				Value: t.Total.Minutes(),
				Style: style,
			}},
		})
	}

	c.chart.PushAll(bars)
	c.chart.Draw()
}

func (c chartModel) view() string {
	title := titleStyle.Render("Minutes per description")
	if len(c.totals) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No tracked time yet"),
		)
	}

	nameWidth := max(8, c.width-16)
	var rows []string
	for i, t := range c.totals {
		if i == maxBars {
			rows = append(rows, mutedStyle.Render(fmt.Sprintf("  +%d more", len(c.totals)-maxBars)))
			break
		}
		dot := lipgloss.NewStyle().Foreground(chartColors[i%len(chartColors)]).Render("●")
		rows = append(rows, fmt.Sprintf("%s %-*s %s", dot, nameWidth, truncate(t.Description, nameWidth), formatMinutes(t.Total)))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title, "", c.chart.View(), "", strings.Join(rows, "\n"),
	)
}
