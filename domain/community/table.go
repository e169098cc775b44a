package community

// Row is one data row keyed by header name
type Row map[string]string

// Table is a header row plus data rows, as read from a CSV or workbook
type Table struct {
	Headers []string
	Rows    []Row
}

// HasColumn reports whether the header row contains name exactly.
func (t *Table) HasColumn(name string) bool {
	for _, h := range t.Headers {
		if h == name {
			return true
		}
	}
	return false
}

// MissingColumns returns the names not present in the header row, in the
// order given.
func (t *Table) MissingColumns(names ...string) []string {
	var missing []string
	for _, name := range names {
		if !t.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}
