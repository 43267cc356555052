// Package config loads the versioned report configuration: repositories,
// categories, author identity, data source and output settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/naka-gawa/readme-stats/internal/domain"
)

// CurrentVersion is the newest configuration schema understood by this build.
const CurrentVersion = 2

// Data sources.
const (
	SourceGit     = "git"
	SourceGraphQL = "graphql"
	SourceREST    = "rest"
)

// Unreachable repository policies.
const (
	UnreachableZero     = "zero"
	UnreachableFootnote = "footnote"
)

// Cache freshness policies for local clones.
const (
	CacheNever  = "never"
	CacheAlways = "always"
	CacheMaxAge = "max-age"
)

// ErrMissingToken is returned when no GitHub token is found in the environment.
var ErrMissingToken = errors.New("GH_PAT (or GITHUB_TOKEN) environment variable is not set")

// tokenEnvVars are checked in order.
var tokenEnvVars = []string{"GH_PAT", "GITHUB_TOKEN"}

// Config is the full configuration for one run.
type Config struct {
	Version     int               `mapstructure:"version"`
	Author      Author            `mapstructure:"author"`
	Source      string            `mapstructure:"source"`
	Unreachable string            `mapstructure:"unreachable"`
	Concurrency int               `mapstructure:"concurrency"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	Metrics     Metrics           `mapstructure:"metrics"`
	Cache       Cache             `mapstructure:"cache"`
	Output      Output            `mapstructure:"output"`
	Repos       []domain.RepoRef  `mapstructure:"repos"`
	Categories  []domain.Category `mapstructure:"categories"`
	Renames     []Rename          `mapstructure:"renames"`

	// Applied holds the renames that matched during loading.
	Applied []Rename `mapstructure:"-"`
}

// Author is the identity whose contributions are counted.
// Email matches git history, Login matches GitHub API data.
type Author struct {
	Email string `mapstructure:"email"`
	Login string `mapstructure:"login"`
}

// Metrics selects which columns are reported.
type Metrics struct {
	Lines bool `mapstructure:"lines"`
}

// Cache configures the local clone directory and when clones are refreshed.
type Cache struct {
	Dir    string        `mapstructure:"dir"`
	Policy string        `mapstructure:"policy"`
	MaxAge time.Duration `mapstructure:"max_age"`
}

// Output describes the target document.
type Output struct {
	Path        string `mapstructure:"path"`
	StartMarker string `mapstructure:"start_marker"`
	EndMarker   string `mapstructure:"end_marker"`
}

// Rename records that a repository formerly known as From is now To.
type Rename struct {
	From string `mapstructure:"from"`
	To   string `mapstructure:"to"`
}

// Token returns the GitHub token from the process environment.
func Token() (string, error) {
	for _, name := range tokenEnvVars {
		if v := os.Getenv(name); v != "" {
			return v, nil
		}
	}
	return "", ErrMissingToken
}

// Migrate applies the configured renames to repository and category member
// names. It returns the renames that changed at least one reference.
func (c *Config) Migrate() []Rename {
	var applied []Rename
	for _, rn := range c.Renames {
		changed := false
		for i := range c.Repos {
			if c.Repos[i].Name == rn.From {
				c.Repos[i].Name = rn.To
				changed = true
			}
		}
		for ci := range c.Categories {
			for ri, name := range c.Categories[ci].Repos {
				if name == rn.From {
					c.Categories[ci].Repos[ri] = rn.To
					changed = true
				}
			}
		}
		if changed {
			applied = append(applied, rn)
		}
	}
	return applied
}

// RepoIndex maps repository names to their references.
func (c *Config) RepoIndex() map[string]domain.RepoRef {
	idx := make(map[string]domain.RepoRef, len(c.Repos))
	for _, r := range c.Repos {
		idx[r.Name] = r
	}
	return idx
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Version < 1 || c.Version > CurrentVersion {
		return fmt.Errorf("unsupported config version %d (max %d)", c.Version, CurrentVersion)
	}

	switch c.Source {
	case SourceGit:
		if c.Author.Email == "" {
			return errors.New("author.email is required for the git source")
		}
	case SourceGraphQL:
		if c.Author.Login == "" {
			return errors.New("author.login is required for the graphql source")
		}
		if c.Metrics.Lines {
			return errors.New("metrics.lines is not supported by the graphql source")
		}
	case SourceREST:
		if c.Author.Login == "" {
			return errors.New("author.login is required for the rest source")
		}
	default:
		return fmt.Errorf("unknown source %q", c.Source)
	}

	switch c.Unreachable {
	case UnreachableZero, UnreachableFootnote:
	default:
		return fmt.Errorf("unknown unreachable policy %q", c.Unreachable)
	}

	switch c.Cache.Policy {
	case CacheNever, CacheAlways:
	case CacheMaxAge:
		if c.Cache.MaxAge <= 0 {
			return errors.New("cache.max_age must be positive with the max-age policy")
		}
	default:
		return fmt.Errorf("unknown cache policy %q", c.Cache.Policy)
	}

	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, got %d", c.Concurrency)
	}
	if c.Output.StartMarker == "" || c.Output.EndMarker == "" {
		return errors.New("output markers must not be empty")
	}

	known := c.RepoIndex()
	if len(known) != len(c.Repos) {
		return errors.New("repos contains duplicate names")
	}
	owner := make(map[string]string)
	for _, cat := range c.Categories {
		for _, name := range cat.Repos {
			if _, ok := known[name]; !ok {
				return fmt.Errorf("category %q references unknown repo %q", cat.Name, name)
			}
			if prev, ok := owner[name]; ok {
				return fmt.Errorf("repo %q is in both %q and %q", name, prev, cat.Name)
			}
			owner[name] = cat.Name
		}
	}
	return nil
}
