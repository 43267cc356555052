// Package usecase contains the business logic of the application.
package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/naka-gawa/readme-stats/internal/domain"
	"github.com/naka-gawa/readme-stats/internal/gateway"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Collector fetches every repository's metric for every period from a
// MetricSource. Fetch failures never abort the run; they are recorded as
// unreachable results and logged as warnings.
type Collector struct {
	source      gateway.MetricSource
	logger      *zap.Logger
	concurrency int
	timeout     time.Duration
}

// NewCollector creates a Collector. A concurrency below 1 means sequential;
// a zero timeout disables the per-call deadline.
func NewCollector(source gateway.MetricSource, logger *zap.Logger, concurrency int, timeout time.Duration) *Collector {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Collector{
		source:      source,
		logger:      logger,
		concurrency: concurrency,
		timeout:     timeout,
	}
}

// Collect returns one map per period, in the order of periods, keyed by
// repository name. Repositories are fetched concurrently; periods of one
// repository are fetched in order after it has been prepared.
func (c *Collector) Collect(ctx context.Context, repos []domain.RepoRef, periods []Period) ([]map[string]domain.RepoResult, error) {
	results := make([]map[string]domain.RepoResult, len(periods))
	for i := range results {
		results[i] = make(map[string]domain.RepoResult, len(repos))
	}
	var mu sync.Mutex

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(c.concurrency)

	for _, repo := range repos {
		repo := repo
		eg.Go(func() error {
			var prepErr error
			if p, ok := c.source.(gateway.Preparer); ok {
				prepErr = c.call(egCtx, func(ctx context.Context) error {
					return p.Prepare(ctx, repo)
				})
				if prepErr != nil {
					c.logger.Warn("repository not accessible",
						zap.String("repo", repo.FullName()), zap.Error(prepErr))
				}
			}

			for i, period := range periods {
				res := domain.RepoResult{Repo: repo.Name, Err: prepErr}
				if prepErr == nil {
					res.Err = c.call(egCtx, func(ctx context.Context) error {
						m, err := c.source.Metric(ctx, repo, period.Window)
						res.Metric = m
						return err
					})
					if res.Err != nil {
						res.Metric = domain.PeriodMetric{}
						c.logger.Warn("failed to fetch metric",
							zap.String("repo", repo.FullName()),
							zap.String("period", period.Key),
							zap.Error(res.Err))
					}
				}
				mu.Lock()
				results[i][repo.Name] = res
				mu.Unlock()
			}
			return egCtx.Err()
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func (c *Collector) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	return fn(ctx)
}
