package excel

// Sheet names of the exported results workbook
const (
	SheetSpecies = "Species Proportions"
	SheetSummary = "Analysis Summary"
)

// Column headers of the exported sheets
var (
	SpeciesHeaders = []string{"Species", "Proportion_Before", "Proportion_After"}
	SummaryHeaders = []string{"Parameter", "Value"}
)
