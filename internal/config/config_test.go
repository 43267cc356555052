package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/naka-gawa/readme-stats/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Version:     CurrentVersion,
		Author:      Author{Email: "dev@example.com", Login: "dev"},
		Source:      SourceGit,
		Unreachable: UnreachableZero,
		Concurrency: 2,
		Cache:       Cache{Policy: CacheNever},
		Output:      Output{Path: "README.md", StartMarker: "<!-- S -->", EndMarker: "<!-- E -->"},
		Repos: []domain.RepoRef{
			{Owner: "acme", Name: "api"},
			{Owner: "acme", Name: "web"},
		},
		Categories: []domain.Category{
			{Name: "Backend", Repos: []string{"api"}},
			{Name: "Frontend", Repos: []string{"web"}},
		},
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, CurrentVersion, cfg.Version)
	assert.Equal(t, SourceGit, cfg.Source)
	assert.Equal(t, "<!-- COMMIT_STATS_START -->", cfg.Output.StartMarker)
	assert.Equal(t, "<!-- COMMIT_STATS_END -->", cfg.Output.EndMarker)
	assert.Equal(t, 2*time.Minute, cfg.Timeout)
	assert.Len(t, cfg.Categories, 6)
	assert.Equal(t, "🔧 Backend API", cfg.Categories[0].Name)
	assert.Contains(t, cfg.Categories[4].Repos, "ML_bug_review", "repo names keep their case")
	assert.NotEmpty(t, cfg.Cache.Dir)
}

func TestLoadConfig_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.yaml")
	content := `
source: rest
author:
  login: octocat
metrics:
  lines: true
unreachable: footnote
repos:
  - { owner: acme, name: old-api }
  - { owner: acme, name: web }
categories:
  - name: Backend
    repos: [api]
  - name: Frontend
    repos: [web]
renames:
  - { from: old-api, to: api }
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, SourceREST, cfg.Source)
	assert.True(t, cfg.Metrics.Lines)
	assert.Equal(t, UnreachableFootnote, cfg.Unreachable)
	assert.Equal(t, []domain.RepoRef{{Owner: "acme", Name: "api"}, {Owner: "acme", Name: "web"}}, cfg.Repos)
	assert.Equal(t, []Rename{{From: "old-api", To: "api"}}, cfg.Applied)
	assert.Equal(t, "<!-- COMMIT_STATS_START -->", cfg.Output.StartMarker, "unset keys keep their defaults")
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestConfig_Migrate(t *testing.T) {
	cfg := validConfig()
	cfg.Categories[0].Repos = []string{"legacy-api"}
	cfg.Renames = []Rename{{From: "legacy-api", To: "api"}, {From: "unused", To: "whatever"}}

	applied := cfg.Migrate()

	assert.Equal(t, []Rename{{From: "legacy-api", To: "api"}}, applied)
	assert.Equal(t, []string{"api"}, cfg.Categories[0].Repos)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_Validate(t *testing.T) {
	testCases := []struct {
		name        string
		mutate      func(c *Config)
		expectedErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "future version", mutate: func(c *Config) { c.Version = CurrentVersion + 1 }, expectedErr: "unsupported config version"},
		{name: "unknown source", mutate: func(c *Config) { c.Source = "svn" }, expectedErr: "unknown source"},
		{name: "git needs email", mutate: func(c *Config) { c.Author.Email = "" }, expectedErr: "author.email"},
		{name: "graphql needs login", mutate: func(c *Config) { c.Source = SourceGraphQL; c.Author.Login = "" }, expectedErr: "author.login"},
		{name: "graphql has no lines", mutate: func(c *Config) { c.Source = SourceGraphQL; c.Metrics.Lines = true }, expectedErr: "metrics.lines"},
		{name: "bad unreachable policy", mutate: func(c *Config) { c.Unreachable = "hide" }, expectedErr: "unreachable policy"},
		{name: "max-age without duration", mutate: func(c *Config) { c.Cache.Policy = CacheMaxAge }, expectedErr: "cache.max_age"},
		{name: "zero concurrency", mutate: func(c *Config) { c.Concurrency = 0 }, expectedErr: "concurrency"},
		{name: "unknown member", mutate: func(c *Config) { c.Categories[0].Repos = append(c.Categories[0].Repos, "ghost") }, expectedErr: "unknown repo"},
		{name: "member in two categories", mutate: func(c *Config) { c.Categories[1].Repos = append(c.Categories[1].Repos, "api") }, expectedErr: "is in both"},
		{name: "duplicate repo", mutate: func(c *Config) { c.Repos = append(c.Repos, domain.RepoRef{Owner: "other", Name: "api"}) }, expectedErr: "duplicate"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := validConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			if tc.expectedErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.expectedErr)
		})
	}
}

func TestToken(t *testing.T) {
	t.Setenv("GH_PAT", "")
	t.Setenv("GITHUB_TOKEN", "")
	_, err := Token()
	assert.ErrorIs(t, err, ErrMissingToken)

	t.Setenv("GITHUB_TOKEN", "fallback")
	token, err := Token()
	require.NoError(t, err)
	assert.Equal(t, "fallback", token)

	t.Setenv("GH_PAT", "primary")
	token, err = Token()
	require.NoError(t, err)
	assert.Equal(t, "primary", token)
}
