package ui

import (
	"fmt"
	"math"

	"biodelta/domain/comparison"
)

// Chart geometry in SVG user units
const (
	chartMinWidth     = 640
	chartHeight       = 420
	chartMarginLeft   = 64
	chartMarginTop    = 40
	chartMarginRight  = 24
	chartMarginBottom = 140
	groupWidth        = 48
	barGap            = 4
	tickCount         = 5
)

// BarChart is a grouped bar chart of before/after proportions per species,
// laid out for an inline SVG.
type BarChart struct {
	Width      int
	Height     int
	PlotLeft   float64
	PlotTop    float64
	PlotWidth  float64
	PlotHeight float64
	Baseline   float64
	Groups     []BarGroup
	Ticks      []AxisTick
}

// BarGroup is one species: a label and its before/after bars
type BarGroup struct {
	Label  string
	LabelX float64
	LabelY float64
	Before Bar
	After  Bar
}

// Bar is one rectangle. Present is false for a missing value.
type Bar struct {
	X       float64
	Y       float64
	Width   float64
	Height  float64
	Value   string
	Present bool
}

// AxisTick is a y-axis gridline
type AxisTick struct {
	Y     float64
	Label string
}

// NewBarChart lays out the species rows of an analysis in before-sample row
// order. Negative proportions are drawn as empty bars at the baseline.
func NewBarChart(analysis *comparison.Analysis) *BarChart {
	rows := analysis.SpeciesRows()

	width := chartMarginLeft + chartMarginRight + len(rows)*groupWidth
	if width < chartMinWidth {
		width = chartMinWidth
	}
	chart := &BarChart{
		Width:      width,
		Height:     chartHeight,
		PlotLeft:   chartMarginLeft,
		PlotTop:    chartMarginTop,
		PlotWidth:  float64(width - chartMarginLeft - chartMarginRight),
		PlotHeight: float64(chartHeight - chartMarginTop - chartMarginBottom),
	}
	chart.Baseline = chart.PlotTop + chart.PlotHeight

	scale := niceMax(maxValue(rows))
	for i := 0; i <= tickCount; i++ {
		v := scale * float64(i) / tickCount
		chart.Ticks = append(chart.Ticks, AxisTick{
			Y:     chart.Baseline - chart.PlotHeight*v/scale,
			Label: formatTick(v),
		})
	}

	barWidth := float64(groupWidth-3*barGap) / 2
	for i, row := range rows {
		left := chart.PlotLeft + float64(i*groupWidth) + barGap
		group := BarGroup{
			Label:  row.Species,
			LabelX: chart.PlotLeft + float64(i*groupWidth) + groupWidth/2,
			LabelY: chart.Baseline + 12,
			Before: chart.bar(left, barWidth, row.Before, row.HasBefore, scale),
			After:  chart.bar(left+barWidth+barGap, barWidth, row.After, row.HasAfter, scale),
		}
		chart.Groups = append(chart.Groups, group)
	}
	return chart
}

// PlotRight is the x coordinate of the right edge of the plot area
func (c *BarChart) PlotRight() float64 {
	return c.PlotLeft + c.PlotWidth
}

// AxisMid is the y coordinate halfway up the value axis
func (c *BarChart) AxisMid() float64 {
	return c.PlotTop + c.PlotHeight/2
}

func (c *BarChart) bar(x, width, value float64, present bool, scale float64) Bar {
	b := Bar{X: x, Y: c.Baseline, Width: width, Present: present}
	if !present {
		return b
	}
	b.Value = fmt.Sprintf("%.4f", value)
	if value > 0 && !math.IsInf(value, 0) {
		b.Height = c.PlotHeight * value / scale
		b.Y = c.Baseline - b.Height
	}
	return b
}

func maxValue(rows []comparison.SpeciesRow) float64 {
	top := 0.0
	for _, row := range rows {
		if row.HasBefore && row.Before > top && !math.IsInf(row.Before, 0) {
			top = row.Before
		}
		if row.HasAfter && row.After > top && !math.IsInf(row.After, 0) {
			top = row.After
		}
	}
	return top
}

// niceMax rounds v up to 1, 2, 2.5 or 5 times a power of ten so tick labels
// stay short. Proportions of at most 1 give an axis of at most 1.
func niceMax(v float64) float64 {
	if v <= 0 {
		return 1
	}
	exp := math.Pow(10, math.Floor(math.Log10(v)))
	for _, m := range []float64{1, 2, 2.5, 5, 10} {
		if v <= m*exp {
			return m * exp
		}
	}
	return 10 * exp
}

func formatTick(v float64) string {
	return fmt.Sprintf("%g", math.Round(v*1e6)/1e6)
}
