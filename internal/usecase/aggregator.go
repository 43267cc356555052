package usecase

import (
	"sort"

	"github.com/naka-gawa/readme-stats/internal/domain"
)

// Aggregator reduces per-repository results into category rows.
type Aggregator struct {
	categories        []domain.Category
	lines             bool
	reportUnreachable bool
}

// NewAggregator creates an Aggregator over categories in configured order.
// With lines set, a category is shown when any of its counts is non-zero;
// otherwise only commits count. With reportUnreachable set, tables list the
// member repositories whose fetch failed.
func NewAggregator(categories []domain.Category, lines, reportUnreachable bool) *Aggregator {
	return &Aggregator{
		categories:        categories,
		lines:             lines,
		reportUnreachable: reportUnreachable,
	}
}

// Aggregate builds the table of one period. Rows with a zero primary metric
// are dropped and the rest are sorted by descending commits, keeping the
// configured order on ties. The total sums every category before dropping.
func (a *Aggregator) Aggregate(label string, results map[string]domain.RepoResult) domain.PeriodTable {
	table := domain.PeriodTable{
		Label: label,
		Rows:  []domain.CategoryRow{},
		Total: domain.CategoryRow{Category: "Total"},
	}

	for _, cat := range a.categories {
		row := domain.CategoryRow{Category: cat.Name}
		for _, name := range cat.Repos {
			res := results[name]
			if res.Unreachable() && a.reportUnreachable {
				table.Unreachable = append(table.Unreachable, name)
			}
			row.PeriodMetric = row.PeriodMetric.Add(res.Metric)
		}
		table.Total.PeriodMetric = table.Total.PeriodMetric.Add(row.PeriodMetric)
		if a.visible(row.PeriodMetric) {
			table.Rows = append(table.Rows, row)
		}
	}

	sort.SliceStable(table.Rows, func(i, j int) bool {
		return table.Rows[i].Commits > table.Rows[j].Commits
	})
	sort.Strings(table.Unreachable)
	return table
}

func (a *Aggregator) visible(m domain.PeriodMetric) bool {
	if a.lines {
		return !m.IsZero()
	}
	return m.Commits > 0
}
