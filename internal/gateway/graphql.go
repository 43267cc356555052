package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/naka-gawa/readme-stats/internal/domain"
	"github.com/shurcooL/githubv4"
	"go.uber.org/zap"
)

// contributionsQuery fetches per-repository commit counts for one user and one
// range of at most a year.
type contributionsQuery struct {
	User struct {
		ContributionsCollection struct {
			CommitContributionsByRepository []struct {
				Repository struct {
					NameWithOwner string
				}
				Contributions struct {
					TotalCount int
				}
			} `graphql:"commitContributionsByRepository(maxRepositories: 100)"`
		} `graphql:"contributionsCollection(from: $from, to: $to)"`
	} `graphql:"user(login: $login)"`
}

// contributionYearsQuery finds the years in which the user contributed, used
// to bound the all-time window.
type contributionYearsQuery struct {
	User struct {
		ContributionsCollection struct {
			ContributionYears []int
		}
	} `graphql:"user(login: $login)"`
}

// GraphQLSource counts commits using the contributionsCollection API.
// It does not report line deltas.
type GraphQLSource struct {
	client *githubv4.Client
	login  string
	logger *zap.Logger
	now    func() time.Time

	byWindow memo[map[string]int]
}

// NewGraphQLSource creates a GraphQLSource that counts contributions of login.
func NewGraphQLSource(httpClient *http.Client, login string, logger *zap.Logger) *GraphQLSource {
	return &GraphQLSource{
		client: githubv4.NewClient(httpClient),
		login:  login,
		logger: logger,
		now:    time.Now,
	}
}

// Metric returns the commit count of repo within w.
func (s *GraphQLSource) Metric(ctx context.Context, repo domain.RepoRef, w domain.Window) (domain.PeriodMetric, error) {
	key := fmt.Sprintf("%d-%d", w.Start.Unix(), w.End.Unix())
	counts, err := s.byWindow.get(ctx, key, func(ctx context.Context) (map[string]int, error) {
		return s.fetchWindow(ctx, w)
	})
	if err != nil {
		return domain.PeriodMetric{}, err
	}
	return domain.PeriodMetric{Commits: counts[strings.ToLower(repo.FullName())]}, nil
}

// fetchWindow sums contributions over w, split into chunks of at most one year
// because the API rejects longer ranges. Keys are lower-cased full names.
func (s *GraphQLSource) fetchWindow(ctx context.Context, w domain.Window) (map[string]int, error) {
	start, end := w.Start, w.End
	if end.IsZero() {
		end = s.now()
	}
	if start.IsZero() {
		first, err := s.firstContributionYear(ctx)
		if err != nil {
			return nil, err
		}
		start = time.Date(first, time.January, 1, 0, 0, 0, 0, time.UTC)
	}

	counts := make(map[string]int)
	for from := start; from.Before(end); {
		to := from.AddDate(1, 0, 0)
		if to.After(end) {
			to = end
		}
		s.logger.Debug("querying contributions",
			zap.Time("from", from), zap.Time("to", to))

		var q contributionsQuery
		variables := map[string]interface{}{
			"login": githubv4.String(s.login),
			"from":  githubv4.DateTime{Time: from},
			"to":    githubv4.DateTime{Time: to.Add(-time.Second)},
		}
		if err := s.client.Query(ctx, &q, variables); err != nil {
			return nil, fmt.Errorf("failed to execute GraphQL query for contributions: %w", err)
		}
		for _, c := range q.User.ContributionsCollection.CommitContributionsByRepository {
			counts[strings.ToLower(c.Repository.NameWithOwner)] += c.Contributions.TotalCount
		}
		from = to
	}
	return counts, nil
}

func (s *GraphQLSource) firstContributionYear(ctx context.Context) (int, error) {
	var q contributionYearsQuery
	if err := s.client.Query(ctx, &q, map[string]interface{}{"login": githubv4.String(s.login)}); err != nil {
		return 0, fmt.Errorf("failed to execute GraphQL query for contribution years: %w", err)
	}
	years := q.User.ContributionsCollection.ContributionYears
	if len(years) == 0 {
		return s.now().Year(), nil
	}
	first := years[0]
	for _, y := range years[1:] {
		if y < first {
			first = y
		}
	}
	return first, nil
}
