package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/go-github/v62/github"
	"github.com/naka-gawa/readme-stats/internal/domain"
	"go.uber.org/zap"
)

// RESTSource counts commits and line deltas from the weekly contributor
// statistics endpoint. A week is counted when its start lies in the window.
type RESTSource struct {
	client *github.Client
	login  string
	logger *zap.Logger

	byRepo memo[[]*github.WeeklyStats]
}

// NewRESTSource creates a RESTSource that counts contributions of login.
func NewRESTSource(httpClient *http.Client, login string, logger *zap.Logger) *RESTSource {
	return &RESTSource{
		client: github.NewClient(httpClient),
		login:  login,
		logger: logger,
	}
}

// Metric returns commits, additions and deletions of repo within w.
func (s *RESTSource) Metric(ctx context.Context, repo domain.RepoRef, w domain.Window) (domain.PeriodMetric, error) {
	weeks, err := s.byRepo.get(ctx, repo.FullName(), func(ctx context.Context) ([]*github.WeeklyStats, error) {
		return s.fetchWeeks(ctx, repo)
	})
	if err != nil {
		return domain.PeriodMetric{}, err
	}

	var m domain.PeriodMetric
	for _, wk := range weeks {
		if !w.Contains(wk.GetWeek().Time) {
			continue
		}
		m.Commits += wk.GetCommits()
		m.Added += wk.GetAdditions()
		m.Removed += wk.GetDeletions()
	}
	return m, nil
}

func (s *RESTSource) fetchWeeks(ctx context.Context, repo domain.RepoRef) ([]*github.WeeklyStats, error) {
	s.logger.Debug("fetching contributor stats", zap.String("repo", repo.FullName()))
	stats, _, err := s.client.Repositories.ListContributorsStats(ctx, repo.Owner, repo.Name)
	if err != nil {
		var accepted *github.AcceptedError
		if errors.As(err, &accepted) {
			return nil, fmt.Errorf("%s: %w", repo.FullName(), ErrStatsNotReady)
		}
		return nil, fmt.Errorf("failed to list contributor stats for %s: %w", repo.FullName(), err)
	}
	for _, cs := range stats {
		if strings.EqualFold(cs.GetAuthor().GetLogin(), s.login) {
			return cs.Weeks, nil
		}
	}
	return nil, nil
}
