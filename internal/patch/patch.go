// Package patch replaces the marker-delimited region of a text document.
package patch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrMarkerNotFound is returned when the start or end marker is absent.
	ErrMarkerNotFound = errors.New("marker not found")
	// ErrMarkersOutOfOrder is returned when the end marker precedes the start marker.
	ErrMarkersOutOfOrder = errors.New("end marker precedes start marker")
)

// Patch replaces everything between the first occurrence of start and the
// first occurrence of end with replacement. Both markers are kept.
func Patch(doc, start, end, replacement string) (string, error) {
	startIdx := strings.Index(doc, start)
	if startIdx < 0 {
		return "", fmt.Errorf("%w: %q", ErrMarkerNotFound, start)
	}
	endIdx := strings.Index(doc, end)
	if endIdx < 0 {
		return "", fmt.Errorf("%w: %q", ErrMarkerNotFound, end)
	}
	contentStart := startIdx + len(start)
	if endIdx < contentStart {
		return "", ErrMarkersOutOfOrder
	}
	return doc[:contentStart] + replacement + doc[endIdx:], nil
}

// File patches the document at path in place. The new content is written to
// a temporary file in the same directory and renamed over the original, so a
// failure leaves the original untouched.
func File(path, start, end, replacement string) error {
	original, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	updated, err := Patch(string(original), start, end, replacement)
	if err != nil {
		return fmt.Errorf("failed to patch %s: %w", path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(updated); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), info.Mode().Perm()); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
