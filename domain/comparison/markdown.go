package comparison

import (
	"fmt"
	"strings"
)

// Markdown renders the analysis as a Markdown document: the summary table,
// the classification, and the species table in before-sample order.
func (a *Analysis) Markdown() string {
	var b strings.Builder
	b.WriteString("## Analysis Summary\n\n")
	if a.BeforeSource != "" || a.AfterSource != "" {
		b.WriteString(fmt.Sprintf("Before: %s  \nAfter: %s\n\n", safeCell(a.BeforeSource), safeCell(a.AfterSource)))
	}

	b.WriteString("| Parameter | Value |\n|---|---|\n")
	b.WriteString(fmt.Sprintf("| %s | %.4f |\n", ParamEntropyBefore, a.Result.Before))
	b.WriteString(fmt.Sprintf("| %s | %.4f |\n", ParamEntropyAfter, a.Result.After))
	b.WriteString(fmt.Sprintf("| %s | %.4f |\n", ParamDelta, a.Result.Delta))
	b.WriteString(fmt.Sprintf("| Threshold | %.4f |\n", a.Result.Threshold))
	b.WriteString(fmt.Sprintf("| Classification | %s |\n\n", a.Result.Classification))
	b.WriteString(fmt.Sprintf("**%s**\n\n", a.Result.Message()))

	if a.LengthMismatch() {
		b.WriteString(fmt.Sprintf("> Samples differ in length (%d before, %d after); rows are paired by position.\n\n",
			len(a.Before), len(a.After)))
	}

	b.WriteString("## Species Proportions\n\n")
	b.WriteString("| Species | Proportion_Before | Proportion_After |\n|---|---:|---:|\n")
	for _, row := range a.SpeciesRows() {
		b.WriteString(fmt.Sprintf("| %s | %s | %s |\n",
			safeCell(row.Species), formatCell(row.Before, row.HasBefore), formatCell(row.After, row.HasAfter)))
	}
	return b.String()
}

func formatCell(v float64, ok bool) string {
	if !ok {
		return ""
	}
	return fmt.Sprintf("%.4f", v)
}

// cellEscaper backslash-escapes Markdown punctuation so labels read from
// uploaded files render as plain text. A pipe would end the table cell and
// is replaced instead.
var cellEscaper = strings.NewReplacer(
	"\n", " ",
	"\r", " ",
	"|", "/",
	`\`, `\\`,
	"[", `\[`,
	"]", `\]`,
	"(", `\(`,
	")", `\)`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"<", `\<`,
	">", `\>`,
	"!", `\!`,
)

func safeCell(s string) string {
	return cellEscaper.Replace(s)
}
