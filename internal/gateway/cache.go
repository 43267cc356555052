package gateway

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// fetchStampFile is written inside a clone after every successful clone or fetch.
const fetchStampFile = "readme-stats-fetched"

// CachePolicy decides whether an existing local clone is refreshed.
type CachePolicy interface {
	NeedsRefresh(lastFetched, now time.Time) bool
}

// NeverRefresh trusts any existing clone.
type NeverRefresh struct{}

func (NeverRefresh) NeedsRefresh(time.Time, time.Time) bool { return false }

// AlwaysRefresh fetches on every run.
type AlwaysRefresh struct{}

func (AlwaysRefresh) NeedsRefresh(time.Time, time.Time) bool { return true }

// MaxAge refreshes clones fetched longer ago than the duration. A clone with
// no fetch stamp is always stale.
type MaxAge time.Duration

func (m MaxAge) NeedsRefresh(lastFetched, now time.Time) bool {
	return lastFetched.IsZero() || now.Sub(lastFetched) > time.Duration(m)
}

// NewCachePolicy resolves a policy by its configured name.
func NewCachePolicy(name string, maxAge time.Duration) (CachePolicy, error) {
	switch name {
	case "never":
		return NeverRefresh{}, nil
	case "always":
		return AlwaysRefresh{}, nil
	case "max-age":
		return MaxAge(maxAge), nil
	default:
		return nil, fmt.Errorf("unknown cache policy %q", name)
	}
}

func readFetchStamp(clonePath string) time.Time {
	b, err := os.ReadFile(filepath.Join(clonePath, fetchStampFile))
	if err != nil {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(b)))
	if err != nil {
		return time.Time{}
	}
	return t
}

func writeFetchStamp(clonePath string, at time.Time) error {
	return os.WriteFile(filepath.Join(clonePath, fetchStampFile), []byte(at.UTC().Format(time.RFC3339)+"\n"), 0o644)
}
