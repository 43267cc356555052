package gateway

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/naka-gawa/readme-stats/internal/domain"
	"go.uber.org/zap"
)

// commitMarker prefixes each commit line in the log output so that commit
// headers can be told apart from --numstat rows.
const commitMarker = "\x1e"

// gitDateLayout is understood by git's --since and --until.
const gitDateLayout = "2006-01-02 15:04:05 -0700"

// Runner runs a git command in dir and returns its standard output.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// ExecRunner runs the git executable found in PATH.
type ExecRunner struct{}

// Run executes git with args in dir. Standard error is included in the
// returned error.
func (ExecRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

// GitOptions configures a GitSource.
type GitOptions struct {
	Token    string
	Email    string
	CacheDir string
	Policy   CachePolicy
	Lines    bool
}

// GitSource counts commits in bare clones kept under a cache directory.
// Clones are blobless unless line deltas are requested, since --numstat
// would otherwise fetch every missing blob from the remote one at a time.
type GitSource struct {
	runner Runner
	opts   GitOptions
	logger *zap.Logger
	now    func() time.Time
}

// NewGitSource creates a GitSource. A nil runner uses ExecRunner.
func NewGitSource(runner Runner, opts GitOptions, logger *zap.Logger) *GitSource {
	if runner == nil {
		runner = ExecRunner{}
	}
	if opts.Policy == nil {
		opts.Policy = NeverRefresh{}
	}
	return &GitSource{
		runner: runner,
		opts:   opts,
		logger: logger,
		now:    time.Now,
	}
}

func (s *GitSource) clonePath(repo domain.RepoRef) string {
	return filepath.Join(s.opts.CacheDir, repo.Owner, repo.Name+".git")
}

func (s *GitSource) remoteURL(repo domain.RepoRef) string {
	return fmt.Sprintf("https://x-access-token:%s@github.com/%s.git", s.opts.Token, repo.FullName())
}

// redact removes the token from err's message.
func (s *GitSource) redact(err error) error {
	if err == nil || s.opts.Token == "" {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), s.opts.Token, "***"))
}

// Prepare clones repo if absent, or fetches it when the cache policy says the
// clone is stale.
func (s *GitSource) Prepare(ctx context.Context, repo domain.RepoRef) error {
	dest := s.clonePath(repo)

	if _, err := os.Stat(dest); err == nil {
		if !s.opts.Policy.NeedsRefresh(readFetchStamp(dest), s.now()) {
			s.logger.Debug("reusing clone", zap.String("repo", repo.FullName()))
			return nil
		}
		if _, err := s.runner.Run(ctx, dest, "remote", "set-url", "origin", s.remoteURL(repo)); err != nil {
			return fmt.Errorf("failed to update remote of %s: %w", repo.FullName(), s.redact(err))
		}
		if _, err := s.runner.Run(ctx, dest, "fetch", "--quiet", "--prune", "origin", "+refs/heads/*:refs/heads/*"); err != nil {
			return fmt.Errorf("failed to fetch %s: %w", repo.FullName(), s.redact(err))
		}
		s.logger.Info("refreshed clone", zap.String("repo", repo.FullName()))
		return writeFetchStamp(dest, s.now())
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if _, err := s.runner.Run(ctx, "", s.cloneArgs(repo, dest)...); err != nil {
		return fmt.Errorf("failed to clone %s: %w", repo.FullName(), s.redact(err))
	}
	s.logger.Info("cloned", zap.String("repo", repo.FullName()))
	return writeFetchStamp(dest, s.now())
}

func (s *GitSource) cloneArgs(repo domain.RepoRef, dest string) []string {
	args := []string{"clone", "--bare"}
	if !s.opts.Lines {
		args = append(args, "--filter=blob:none")
	}
	return append(args, "--quiet", s.remoteURL(repo), dest)
}

// Metric counts the author's commits across all refs of the local clone, and
// line deltas when enabled.
func (s *GitSource) Metric(ctx context.Context, repo domain.RepoRef, w domain.Window) (domain.PeriodMetric, error) {
	dest := s.clonePath(repo)
	if _, err := os.Stat(dest); err != nil {
		return domain.PeriodMetric{}, fmt.Errorf("%s: %w", repo.FullName(), ErrNotCloned)
	}

	args := []string{"log", "--all", "--author=" + s.opts.Email, "--format=" + commitMarker + "%H"}
	if s.opts.Lines {
		args = append(args, "--numstat")
	}
	args = append(args, windowArgs(w)...)

	out, err := s.runner.Run(ctx, dest, args...)
	if err != nil {
		return domain.PeriodMetric{}, fmt.Errorf("failed to read log of %s: %w", repo.FullName(), s.redact(err))
	}
	return parseLog(out), nil
}

// windowArgs converts the half-open window into git's inclusive bounds.
func windowArgs(w domain.Window) []string {
	var args []string
	if !w.Start.IsZero() {
		args = append(args, "--since="+w.Start.Format(gitDateLayout))
	}
	if !w.End.IsZero() {
		args = append(args, "--until="+w.End.Add(-time.Second).Format(gitDateLayout))
	}
	return args
}

// parseLog counts commit marker lines and sums numeric --numstat rows.
// Binary files report "-" and are skipped.
func parseLog(out []byte) domain.PeriodMetric {
	var m domain.PeriodMetric
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, commitMarker) {
			m.Commits++
			continue
		}
		fields := strings.SplitN(line, "\t", 3)
		if len(fields) != 3 {
			continue
		}
		added, errA := strconv.Atoi(fields[0])
		removed, errR := strconv.Atoi(fields[1])
		if errA != nil || errR != nil {
			continue
		}
		m.Added += added
		m.Removed += removed
	}
	return m
}
