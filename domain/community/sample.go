// Package community models species composition samples loaded from tabular
// files.
package community

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"biodelta/internal/errors"
)

// Required column names, matched case-sensitively.
const (
	ColumnSpecies    = "Species"
	ColumnProportion = "Proportion"
)

// RequiredColumns lists the columns every sample table must carry.
var RequiredColumns = []string{ColumnSpecies, ColumnProportion}

// Side identifies which half of a comparison a sample belongs to
type Side int

const (
	Before Side = iota
	After
)

func (s Side) String() string {
	switch s {
	case Before:
		return "Before"
	case After:
		return "After"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// ParseSide accepts "before"/"after" in any case.
func ParseSide(s string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "before":
		return Before, nil
	case "after":
		return After, nil
	}
	return 0, errors.InvalidInput(fmt.Sprintf("unknown sample side %q (want before or after)", s))
}

// Sample is an ordered sequence of species with their relative abundance.
// Proportions are kept exactly as read; they are not normalized.
type Sample struct {
	Side        Side
	Source      string
	Species     []string
	Proportions []float64
}

// Len returns the number of rows.
func (s *Sample) Len() int {
	return len(s.Species)
}

// Validate checks that species and proportion columns line up.
func (s *Sample) Validate() error {
	if len(s.Species) != len(s.Proportions) {
		return errors.SchemaError(s.Side.String(), fmt.Sprintf(
			"species column has %d rows but proportion column has %d", len(s.Species), len(s.Proportions)))
	}
	return nil
}

// FromTable builds a sample from a parsed table. Extra columns are ignored.
// A blank proportion cell is read as NaN and later contributes nothing to
// entropy; any other non-numeric cell, including "NaN" and "Inf", is a schema
// error.
func FromTable(side Side, source string, table *Table) (*Sample, error) {
	if table == nil {
		return nil, errors.SchemaError(side.String(), "no table")
	}
	if missing := table.MissingColumns(RequiredColumns...); len(missing) > 0 {
		return nil, errors.SchemaError(side.String(), fmt.Sprintf(
			"columns '%s' and '%s' required; missing %s",
			ColumnSpecies, ColumnProportion, quoteAll(missing)))
	}

	sample := &Sample{
		Side:        side,
		Source:      source,
		Species:     make([]string, 0, len(table.Rows)),
		Proportions: make([]float64, 0, len(table.Rows)),
	}
	for i, row := range table.Rows {
		raw := strings.TrimSpace(row[ColumnProportion])
		value := math.NaN()
		if raw != "" {
			parsed, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
				// data row i sits on line i+2 of the file, after the header
				return nil, errors.SchemaError(side.String(), fmt.Sprintf(
					"row %d: proportion %q is not a finite number", i+2, raw))
			}
			value = parsed
		}
		sample.Species = append(sample.Species, row[ColumnSpecies])
		sample.Proportions = append(sample.Proportions, value)
	}
	return sample, nil
}

func quoteAll(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = "'" + n + "'"
	}
	return strings.Join(quoted, ", ")
}
