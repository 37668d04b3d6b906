package encoding

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"delivery/internal/logging"
)

// CleanupResult lists the progress files removed and any failures.
type CleanupResult struct {
	Removed []string
	Errors  []CleanupError
}

// CleanupError pairs a path with its removal error.
type CleanupError struct {
	Path  string
	Error error
}

// CleanStaleProgress removes progress side-channel files in dir older than
// maxAge. The supervisor removes its own file on every exit path, so anything
// left behind belongs to a process that was killed. An empty dir means the
// system temp directory.
func CleanStaleProgress(dir string, maxAge time.Duration, logger *slog.Logger) CleanupResult {
	result := CleanupResult{}
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = os.TempDir()
	}

	matches, err := filepath.Glob(filepath.Join(dir, progressFilePattern))
	if err != nil {
		result.Errors = append(result.Errors, CleanupError{Path: dir, Error: err})
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil {
			if !os.IsNotExist(err) {
				result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			}
			continue
		}
		if info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			result.Errors = append(result.Errors, CleanupError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale progress file",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "progress_cleanup_failed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Info("removed stale progress file",
				logging.String("path", path),
				logging.Duration("age", time.Since(info.ModTime()).Round(time.Second)),
				logging.String(logging.FieldEventType, "progress_cleanup"),
			)
		}
	}
	return result
}
