package render

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/naka-gawa/readme-stats/internal/domain"
)

// Preview writes every period of report to w as a console table.
func Preview(w io.Writer, report *domain.Report, lines bool) {
	for _, p := range report.Periods {
		tbl := table.NewWriter()
		tbl.SetOutputMirror(w)
		tbl.SetStyle(table.StyleLight)
		tbl.SetTitle(p.Label)

		header := table.Row{"Area", "Commits"}
		if lines {
			header = append(header, "Lines added", "Lines removed", "Net growth")
		}
		tbl.AppendHeader(header)

		for _, r := range p.Rows {
			tbl.AppendRow(previewRow(r, lines))
		}
		total := previewRow(p.Total, lines)
		total[0] = "Total"
		tbl.AppendFooter(total)

		configs := []table.ColumnConfig{{Number: 2, Align: text.AlignRight, AlignFooter: text.AlignRight}}
		if lines {
			for n := 3; n <= 5; n++ {
				configs = append(configs, table.ColumnConfig{Number: n, Align: text.AlignRight, AlignFooter: text.AlignRight})
			}
		}
		tbl.SetColumnConfigs(configs)
		tbl.Render()

		for _, name := range p.Unreachable {
			fmt.Fprintf(w, "  not reachable: %s\n", name)
		}
	}
}

func previewRow(r domain.CategoryRow, lines bool) table.Row {
	out := table.Row{r.Category, Number(r.Commits)}
	if lines {
		out = append(out, Number(r.Added), Number(r.Removed), Signed(r.Net()))
	}
	return out
}
