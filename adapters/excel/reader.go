package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"biodelta/domain/community"
	"biodelta/internal/errors"

	"github.com/xuri/excelize/v2"
)

// File types understood by DataReader
const (
	FileTypeCSV  = "csv"
	FileTypeTSV  = "tsv"
	FileTypeXLSX = "xlsx"
)

// DataReader reads Excel and delimited text files into a community.Table
type DataReader struct{}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader() *DataReader {
	return &DataReader{}
}

// DetectFileType maps a path to one of the FileType constants by extension.
// Anything that is not a workbook is read as delimited text.
func DetectFileType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		return FileTypeXLSX
	case ".tsv", ".tab":
		return FileTypeTSV
	default:
		return FileTypeCSV
	}
}

// ReadTable reads the file at path. Open and read failures are IO errors;
// a file with no header row yields an empty table, which the caller's column
// check rejects.
func (r *DataReader) ReadTable(path string) (*community.Table, error) {
	fileType := DetectFileType(path)
	log.Printf("[DataReader] Starting to read %s file: %s", fileType, path)

	if _, err := os.Stat(path); err != nil {
		return nil, errors.IOError(path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return nil, errors.InvalidInput(fmt.Sprintf("%s: legacy .xls workbooks are not supported, save as .xlsx or .csv", path))
	}

	switch fileType {
	case FileTypeXLSX:
		return r.readExcel(path)
	default:
		return r.readDelimited(path, fileType)
	}
}

// readExcel reads the first worksheet, which is what spreadsheet users
// expect when a workbook has a single data sheet.
func (r *DataReader) readExcel(path string) (*community.Table, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errors.IOError(path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return &community.Table{}, nil
	}
	// raw values keep full numeric precision instead of the display format
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.IOError(path, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err))
	}
	log.Printf("[DataReader] Sheet %q read in %.2fms (%d rows)",
		sheets[0], float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	return processRows(rows), nil
}

func (r *DataReader) readDelimited(path, fileType string) (*community.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.IOError(path, err)
	}
	defer file.Close()

	readStart := time.Now()
	rows, err := ReadDelimited(file, delimiterFor(fileType))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}
	log.Printf("[DataReader] %s file read in %.2fms (%d rows)",
		strings.ToUpper(fileType), float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	return processRows(rows), nil
}

// ReadDelimited parses delimited text, tolerating ragged rows and a UTF-8
// byte order mark on the first header.
func ReadDelimited(in io.Reader, delimiter rune) ([][]string, error) {
	reader := csv.NewReader(in)
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.InvalidInput(fmt.Sprintf("malformed delimited text: %v", err))
	}
	if len(rows) > 0 && len(rows[0]) > 0 {
		rows[0][0] = strings.TrimPrefix(rows[0][0], "\ufeff")
	}
	return rows, nil
}

// TableFromRows converts raw string rows, header first, into a table.
func TableFromRows(rows [][]string) *community.Table {
	return processRows(rows)
}

// processRows converts raw string rows into a table. Fully blank rows are
// skipped; short rows leave trailing columns unset.
func processRows(rows [][]string) *community.Table {
	if len(rows) == 0 {
		return &community.Table{}
	}

	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]community.Row, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		rowData := make(community.Row, len(headers))
		for j, cell := range row {
			// first occurrence wins for duplicated headers
			if j < len(headers) {
				if _, seen := rowData[headers[j]]; !seen {
					rowData[headers[j]] = strings.TrimSpace(cell)
				}
			}
		}
		dataRows = append(dataRows, rowData)
	}

	log.Printf("[DataReader] processed %d columns, %d rows", len(headers), len(dataRows))
	return &community.Table{Headers: headers, Rows: dataRows}
}

func isBlank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func delimiterFor(fileType string) rune {
	if fileType == FileTypeTSV {
		return '\t'
	}
	return ','
}
