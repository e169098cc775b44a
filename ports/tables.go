package ports

import (
	"io"

	"biodelta/domain/community"
	"biodelta/domain/comparison"
)

// TableReader loads a header-plus-rows table from a file path. CSV, TSV and
// XLSX sources are all presented the same way.
type TableReader interface {
	ReadTable(path string) (*community.Table, error)
}

// ResultExporter writes a finished analysis as a spreadsheet.
type ResultExporter interface {
	// Export writes the workbook to path. On failure no file is left behind.
	Export(path string, analysis *comparison.Analysis) error

	// WriteTo streams the workbook to w.
	WriteTo(w io.Writer, analysis *comparison.Analysis) error
}
