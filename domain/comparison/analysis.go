// Package comparison holds the record produced by one before/after analysis
// and the views built from it for display and export.
package comparison

import (
	"fmt"
	"math"
	"strings"
	"time"

	"biodelta/domain/diversity"
)

// Summary parameter names, in display and export order.
const (
	ParamEntropyBefore = "Entropy Before"
	ParamEntropyAfter  = "Entropy After"
	ParamDelta         = "ΔH"
	ParamKillMessage   = "Kill Message"
)

// Analysis is one finished comparison: the entropy result plus the
// proportion columns it was computed from. Species labels always come from
// the before sample.
type Analysis struct {
	Result       diversity.EntropyResult
	Species      []string
	Before       []float64
	After        []float64
	BeforeSource string
	AfterSource  string
	AnalyzedAt   time.Time
}

// SpeciesRow pairs a before-sample label with the proportion at the same
// position in each sample. Has* is false past the end of a shorter sample.
type SpeciesRow struct {
	Species   string
	Before    float64
	After     float64
	HasBefore bool
	HasAfter  bool
}

// SpeciesRows zips the before labels with both proportion columns by
// position. The result is as long as the longer sample; species identity is
// not checked.
func (a *Analysis) SpeciesRows() []SpeciesRow {
	n := len(a.Before)
	if len(a.After) > n {
		n = len(a.After)
	}
	if len(a.Species) > n {
		n = len(a.Species)
	}

	rows := make([]SpeciesRow, n)
	for i := range rows {
		if i < len(a.Species) {
			rows[i].Species = a.Species[i]
		}
		if i < len(a.Before) && !math.IsNaN(a.Before[i]) {
			rows[i].Before = a.Before[i]
			rows[i].HasBefore = true
		}
		if i < len(a.After) && !math.IsNaN(a.After[i]) {
			rows[i].After = a.After[i]
			rows[i].HasAfter = true
		}
	}
	return rows
}

// LengthMismatch reports whether the two samples differ in row count.
func (a *Analysis) LengthMismatch() bool {
	return len(a.Before) != len(a.After)
}

// SummaryRow is one Parameter/Value pair of the analysis summary
type SummaryRow struct {
	Parameter string
	Value     interface{}
}

// SummaryRows returns the four scalar fields of the result.
func (a *Analysis) SummaryRows() []SummaryRow {
	return []SummaryRow{
		{ParamEntropyBefore, a.Result.Before},
		{ParamEntropyAfter, a.Result.After},
		{ParamDelta, a.Result.Delta},
		{ParamKillMessage, a.Result.Message()},
	}
}

// SummaryLines is the four-line text summary.
func (a *Analysis) SummaryLines() []string {
	return []string{
		fmt.Sprintf("%s: %.4f", ParamEntropyBefore, a.Result.Before),
		fmt.Sprintf("%s: %.4f", ParamEntropyAfter, a.Result.After),
		fmt.Sprintf("%s: %.4f", ParamDelta, a.Result.Delta),
		a.Result.Message(),
	}
}

// Summary joins SummaryLines with newlines.
func (a *Analysis) Summary() string {
	return strings.Join(a.SummaryLines(), "\n") + "\n"
}
