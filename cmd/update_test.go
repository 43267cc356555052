package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/naka-gawa/readme-stats/internal/config"
	"github.com/naka-gawa/readme-stats/internal/gateway"
	"github.com/naka-gawa/readme-stats/internal/patch"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewMetricSource(t *testing.T) {
	testCases := []struct {
		source   string
		expected interface{}
	}{
		{source: config.SourceGit, expected: &gateway.GitSource{}},
		{source: config.SourceGraphQL, expected: &gateway.GraphQLSource{}},
		{source: config.SourceREST, expected: &gateway.RESTSource{}},
	}
	for _, tc := range testCases {
		t.Run(tc.source, func(t *testing.T) {
			cfg, err := config.LoadConfig("")
			require.NoError(t, err)
			cfg.Source = tc.source

			source, err := newMetricSource(cfg, "token", zap.NewNop())

			require.NoError(t, err)
			assert.IsType(t, tc.expected, source)
		})
	}
}

func TestNewMetricSource_UnknownCachePolicy(t *testing.T) {
	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	cfg.Cache.Policy = "sometimes"

	_, err = newMetricSource(cfg, "token", zap.NewNop())

	assert.Error(t, err)
}

const (
	testStart = "<!-- COMMIT_STATS_START -->"
	testEnd   = "<!-- COMMIT_STATS_END -->"
)

// resetFlags restores every flag to its default so tests do not leak values
// into each other through the shared command tree.
func resetFlags(t *testing.T) {
	t.Helper()
	reset := func(f *pflag.Flag) {
		require.NoError(t, f.Value.Set(f.DefValue))
		f.Changed = false
	}
	rootCmd.PersistentFlags().VisitAll(reset)
	updateCmd.Flags().VisitAll(reset)
}

// runUpdate executes "update" with args and returns its standard output.
func runUpdate(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(t)
	t.Cleanup(func() { resetFlags(t) })

	var stdout, stderr bytes.Buffer
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})
	rootCmd.SetArgs(append([]string{"update"}, args...))

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), err
}

// writeFixtures creates a README with markers and a config without
// repositories, so runs never touch the network.
func writeFixtures(t *testing.T, readme string) (readmePath, configPath string) {
	t.Helper()
	dir := t.TempDir()
	readmePath = filepath.Join(dir, "README.md")
	require.NoError(t, os.WriteFile(readmePath, []byte(readme), 0o644))
	configPath = filepath.Join(dir, "stats.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("repos: []\ncategories: []\ncache:\n  dir: "+filepath.Join(dir, "cache")+"\n"), 0o644))
	return readmePath, configPath
}

func TestUpdate(t *testing.T) {
	original := "intro\n" + testStart + "\nold\n" + testEnd + "\noutro\n"

	testCases := []struct {
		name        string
		token       string
		args        func(readme, config string) []string
		readme      string
		expectErrIs error
		expectedErr string
		check       func(t *testing.T, stdout, content string)
	}{
		{
			name:        "missing token is fatal",
			args:        func(readme, config string) []string { return []string{"--config", config, "--output", readme} },
			readme:      original,
			expectErrIs: config.ErrMissingToken,
		},
		{
			name:        "source override is validated",
			token:       "token",
			args:        func(readme, config string) []string { return []string{"--config", config, "--output", readme, "--source", "svn"} },
			readme:      original,
			expectedErr: `unknown source "svn"`,
		},
		{
			name:        "graphql source override needs a login",
			token:       "token",
			args:        func(readme, config string) []string { return []string{"--config", config, "--output", readme, "--source", "graphql"} },
			readme:      original,
			expectedErr: "author.login",
		},
		{
			name:   "dry run prints the section and leaves the file alone",
			token:  "token",
			args:   func(readme, config string) []string { return []string{"--config", config, "--output", readme, "--dry-run"} },
			readme: original,
			check: func(t *testing.T, stdout, content string) {
				assert.Contains(t, stdout, "> Last updated on ")
				assert.Contains(t, stdout, "| **Total** | **0** |")
				assert.Equal(t, original, content)
			},
		},
		{
			name:   "writes the section between the markers",
			token:  "token",
			args:   func(readme, config string) []string { return []string{"--config", config, "--output", readme} },
			readme: original,
			check: func(t *testing.T, stdout, content string) {
				assert.True(t, strings.HasPrefix(content, "intro\n"+testStart+"\n> Last updated on "))
				assert.True(t, strings.HasSuffix(content, "| **Total** | **0** |\n"+testEnd+"\noutro\n"))
				assert.NotContains(t, content, "old")
				assert.Equal(t, 3, strings.Count(content, "| **Total** | **0** |"))
			},
		},
		{
			name:        "missing markers are fatal",
			token:       "token",
			args:        func(readme, config string) []string { return []string{"--config", config, "--output", readme} },
			readme:      "no markers\n",
			expectErrIs: patch.ErrMarkerNotFound,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("GH_PAT", tc.token)
			t.Setenv("GITHUB_TOKEN", "")
			readme, cfgPath := writeFixtures(t, tc.readme)

			stdout, err := runUpdate(t, tc.args(readme, cfgPath)...)

			content, readErr := os.ReadFile(readme)
			require.NoError(t, readErr)
			switch {
			case tc.expectErrIs != nil:
				assert.ErrorIs(t, err, tc.expectErrIs)
				assert.Equal(t, tc.readme, string(content))
			case tc.expectedErr != "":
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.expectedErr)
				assert.Equal(t, tc.readme, string(content))
			default:
				require.NoError(t, err)
				tc.check(t, stdout, string(content))
			}
		})
	}
}
