// Package render turns aggregated reports into markdown for the target
// document and into console tables for previews.
package render

import (
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/naka-gawa/readme-stats/internal/domain"
)

// updatedLayout formats the "last updated" line, e.g. "October 16, 2026".
const updatedLayout = "January 2, 2006"

// Markdown renders reports as markdown pipe tables.
type Markdown struct {
	// Lines adds the added, removed and net growth columns.
	Lines bool
}

// Block renders the full replacement text: a timestamp line followed by one
// headed table per period.
func (m Markdown) Block(report *domain.Report) string {
	var sb strings.Builder
	sb.WriteString("\n> Last updated on ")
	sb.WriteString(report.GeneratedAt.Format(updatedLayout))
	sb.WriteString("\n")
	for _, p := range report.Periods {
		sb.WriteString("\n### ")
		sb.WriteString(p.Label)
		sb.WriteString("\n")
		sb.WriteString(m.Table(p))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Table renders one period: header, category rows, then the emphasised total.
// Unreachable repositories, if any, are listed in a note under the table.
func (m Markdown) Table(p domain.PeriodTable) string {
	header := []string{"Area", "Commits"}
	if m.Lines {
		header = append(header, "Lines added", "Lines removed", "Net growth")
	}

	lines := []string{
		row(header),
		"|" + strings.Repeat("---|", len(header)),
	}
	for _, r := range p.Rows {
		lines = append(lines, row(m.cells(r)))
	}
	total := m.cells(p.Total)
	total[0] = "Total"
	for i := range total {
		total[i] = "**" + total[i] + "**"
	}
	lines = append(lines, row(total))

	if len(p.Unreachable) > 0 {
		lines = append(lines, "", "> ⚠️ Not reachable, counted as 0: "+strings.Join(p.Unreachable, ", "))
	}
	return strings.Join(lines, "\n")
}

func (m Markdown) cells(r domain.CategoryRow) []string {
	cells := []string{r.Category, Number(r.Commits)}
	if m.Lines {
		cells = append(cells, Number(r.Added), Number(r.Removed), Signed(r.Net()))
	}
	return cells
}

// Number formats n with comma thousands separators.
func Number(n int) string {
	return humanize.Comma(int64(n))
}

// Signed formats n with thousands separators and an explicit sign; zero is "+0".
func Signed(n int) string {
	if n >= 0 {
		return "+" + Number(n)
	}
	return Number(n)
}

func row(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}
