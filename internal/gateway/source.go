// Package gateway provides the data source adapters that count an author's
// contributions per repository: local git clones, the GitHub GraphQL
// contributions API, and the GitHub REST contributor statistics.
package gateway

import (
	"context"
	"errors"

	"github.com/naka-gawa/readme-stats/internal/domain"
)

// ErrStatsNotReady is returned when GitHub is still computing repository statistics.
var ErrStatsNotReady = errors.New("repository statistics are still being computed")

// ErrNotCloned is returned when a metric is requested for a repository that has no local clone.
var ErrNotCloned = errors.New("repository is not cloned")

// MetricSource counts the configured author's contributions to repo within w.
// Implementations must be safe for concurrent use.
type MetricSource interface {
	Metric(ctx context.Context, repo domain.RepoRef, w domain.Window) (domain.PeriodMetric, error)
}

// Preparer is implemented by sources that need per-repository setup, such as
// cloning, before Metric is called.
type Preparer interface {
	Prepare(ctx context.Context, repo domain.RepoRef) error
}
