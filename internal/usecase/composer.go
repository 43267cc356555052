package usecase

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/naka-gawa/readme-stats/internal/domain"
	"go.uber.org/zap"
)

// Period is one reporting window with its display label.
type Period struct {
	Key    string
	Label  string
	Window domain.Window
}

// Periods returns the all-time, year-to-date and previous calendar month
// periods relative to now, in display order.
func Periods(now time.Time) []Period {
	loc := now.Location()
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
	lastMonthStart := monthStart.AddDate(0, -1, 0)

	return []Period{
		{Key: "all_time", Label: "📊 All time", Window: domain.Window{}},
		{Key: "year", Label: "🗓 " + strconv.Itoa(now.Year()), Window: domain.Window{Start: yearStart}},
		{Key: "last_month", Label: "📆 " + lastMonthStart.Format("January 2006"), Window: domain.Window{Start: lastMonthStart, End: monthStart}},
	}
}

// Composer runs collection and aggregation for every period.
type Composer struct {
	collector  *Collector
	aggregator *Aggregator
	repos      []domain.RepoRef
	logger     *zap.Logger
}

// NewComposer creates a Composer over repos.
func NewComposer(collector *Collector, aggregator *Aggregator, repos []domain.RepoRef, logger *zap.Logger) *Composer {
	return &Composer{
		collector:  collector,
		aggregator: aggregator,
		repos:      repos,
		logger:     logger,
	}
}

// Compose builds the report for the periods derived from now.
func (c *Composer) Compose(ctx context.Context, now time.Time) (*domain.Report, error) {
	periods := Periods(now)
	c.logger.Info("collecting metrics", zap.Int("repos", len(c.repos)), zap.Int("periods", len(periods)))

	results, err := c.collector.Collect(ctx, c.repos, periods)
	if err != nil {
		return nil, fmt.Errorf("failed to collect metrics: %w", err)
	}
	c.logSummary(periods, results)

	report := &domain.Report{GeneratedAt: now}
	for i, p := range periods {
		report.Periods = append(report.Periods, c.aggregator.Aggregate(p.Label, results[i]))
	}
	return report, nil
}

func (c *Composer) logSummary(periods []Period, results []map[string]domain.RepoResult) {
	for _, repo := range c.repos {
		fields := []zap.Field{zap.String("repo", repo.Name)}
		for i, p := range periods {
			fields = append(fields, zap.Int(p.Key, results[i][repo.Name].Metric.Commits))
		}
		c.logger.Info("commits", fields...)
	}
}
