package excel

// ExportConfig holds configuration for the results workbook
type ExportConfig struct {
	IncludeChart bool   `json:"include_chart"`
	ChartTitle   string `json:"chart_title"`
	BeforeLabel  string `json:"before_label"`
	AfterLabel   string `json:"after_label"`
}

// DefaultExportConfig returns sensible defaults for workbook export
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		IncludeChart: true,
		ChartTitle:   "Species Proportion Change After Antibiotic",
		BeforeLabel:  "Before Antibiotic",
		AfterLabel:   "After Antibiotic",
	}
}
