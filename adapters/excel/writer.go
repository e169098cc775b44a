package excel

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"biodelta/domain/comparison"
	"biodelta/internal/errors"

	"github.com/xuri/excelize/v2"
)

const (
	chartAnchor     = "E2"
	chartHeight     = 320
	minChartWidth   = 480
	maxChartWidth   = 2400
	widthPerSpecies = 40
)

// WorkbookExporter writes analysis results as a two-sheet xlsx workbook
type WorkbookExporter struct {
	config ExportConfig
}

// NewWorkbookExporter creates an exporter with the given configuration
func NewWorkbookExporter(config ExportConfig) *WorkbookExporter {
	return &WorkbookExporter{config: config}
}

// Export writes the workbook to path. The workbook is written to a temporary
// file in the destination directory and renamed into place, so a failed
// export leaves no file behind and never truncates an existing one.
func (e *WorkbookExporter) Export(path string, analysis *comparison.Analysis) error {
	f, err := e.Build(analysis)
	if err != nil {
		return err
	}
	defer f.Close()

	tmp, err := os.CreateTemp(filepath.Dir(path), ".biodelta-*.xlsx")
	if err != nil {
		return errors.IOError(path, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if err := f.Write(tmp); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.IOError(path, err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		cleanup()
		return errors.IOError(path, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return errors.IOError(path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return errors.IOError(path, err)
	}

	log.Printf("[Exporter] Results saved to %s (%d species rows)", path, len(analysis.SpeciesRows()))
	return nil
}

// WriteTo streams the workbook to w
func (e *WorkbookExporter) WriteTo(w io.Writer, analysis *comparison.Analysis) error {
	f, err := e.Build(analysis)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return errors.Wrap(err, "failed to stream workbook")
	}
	return nil
}

// Build assembles the workbook in memory. The caller must Close it.
func (e *WorkbookExporter) Build(analysis *comparison.Analysis) (*excelize.File, error) {
	if analysis == nil {
		return nil, errors.StateError("no analysis results to save")
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSpecies); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to name species sheet")
	}
	if err := e.writeSpeciesSheet(f, analysis); err != nil {
		f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		f.Close()
		return nil, errors.Wrap(err, "failed to create summary sheet")
	}
	if err := writeSummarySheet(f, analysis); err != nil {
		f.Close()
		return nil, err
	}
	f.SetActiveSheet(0)
	return f, nil
}

func (e *WorkbookExporter) writeSpeciesSheet(f *excelize.File, analysis *comparison.Analysis) error {
	if err := writeHeader(f, SheetSpecies, SpeciesHeaders); err != nil {
		return err
	}

	rows := analysis.SpeciesRows()
	for r, row := range rows {
		rowIdx := r + 2
		cells := []struct {
			set   bool
			value interface{}
		}{
			{row.Species != "", row.Species},
			{row.HasBefore, row.Before},
			{row.HasAfter, row.After},
		}
		// missing values stay empty cells, like a blank in the source table
		for c, cell := range cells {
			if !cell.set {
				continue
			}
			name, _ := excelize.CoordinatesToCellName(c+1, rowIdx)
			if err := f.SetCellValue(SheetSpecies, name, cell.value); err != nil {
				return errors.Wrapf(err, "failed to write %s", name)
			}
		}
	}

	if e.config.IncludeChart && len(rows) > 0 {
		if err := e.addChart(f, len(rows)); err != nil {
			return err
		}
	}
	return nil
}

// addChart places a clustered column chart of before/after proportions per
// species, in before-sample row order, next to the data.
func (e *WorkbookExporter) addChart(f *excelize.File, n int) error {
	last := n + 1
	categories := fmt.Sprintf("'%s'!$A$2:$A$%d", SheetSpecies, last)

	width := n * widthPerSpecies
	if width < minChartWidth {
		width = minChartWidth
	}
	if width > maxChartWidth {
		width = maxChartWidth
	}

	chart := &excelize.Chart{
		Type: excelize.Col,
		Series: []excelize.ChartSeries{
			{
				Name:       e.config.BeforeLabel,
				Categories: categories,
				Values:     fmt.Sprintf("'%s'!$B$2:$B$%d", SheetSpecies, last),
			},
			{
				Name:       e.config.AfterLabel,
				Categories: categories,
				Values:     fmt.Sprintf("'%s'!$C$2:$C$%d", SheetSpecies, last),
			},
		},
		Title:     []excelize.RichTextRun{{Text: e.config.ChartTitle}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: uint(width), Height: chartHeight},
		YAxis:     excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Proportion"}}},
	}
	if err := f.AddChart(SheetSpecies, chartAnchor, chart); err != nil {
		return errors.Wrap(err, "failed to add proportion chart")
	}
	return nil
}

func writeSummarySheet(f *excelize.File, analysis *comparison.Analysis) error {
	if err := writeHeader(f, SheetSummary, SummaryHeaders); err != nil {
		return err
	}
	for r, row := range analysis.SummaryRows() {
		rowIdx := r + 2
		if err := f.SetCellValue(SheetSummary, fmt.Sprintf("A%d", rowIdx), row.Parameter); err != nil {
			return errors.Wrap(err, "failed to write summary")
		}
		if err := f.SetCellValue(SheetSummary, fmt.Sprintf("B%d", rowIdx), row.Value); err != nil {
			return errors.Wrap(err, "failed to write summary")
		}
	}
	return nil
}

func writeHeader(f *excelize.File, sheet string, headers []string) error {
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return errors.Wrapf(err, "failed to write %s header", sheet)
		}
	}
	return nil
}
