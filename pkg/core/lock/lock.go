package lock

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// lockNamespace scopes the name-based UUIDs used as lock file names.
var lockNamespace = uuid.MustParse("6f1c7c1e-4f0b-4b5e-9a55-0d3b8f0a2c11")

const (
	pollInterval      = 50 * time.Millisecond
	defaultStaleAfter = 5 * time.Minute
)

// FileLock is a keyed lock backed by exclusive lock files, so it also
// serializes separate processes that share the lock directory.
type FileLock struct {
	dir    string
	logger *log.Logger

	// StaleAfter is the age at which a held lock is assumed abandoned.
	StaleAfter time.Duration
}

// NewFileLock creates a lock rooted at dir. An empty dir uses a directory
// under os.TempDir.
func NewFileLock(dir string, logger *log.Logger) *FileLock {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "media-organizer-locks")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &FileLock{dir: dir, logger: logger, StaleAfter: defaultStaleAfter}
}

// TryLock waits up to timeout for the lock on key. It returns false without
// an error when the timeout expires, and ctx.Err() when ctx ends first.
func (fl *FileLock) TryLock(ctx context.Context, key string, timeout time.Duration) (bool, error) {
	lockFile := fl.lockFilePath(key)

	if err := os.MkdirAll(fl.dir, 0750); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}

	deadline := time.Now().Add(timeout)
	for {
		// #nosec G304 - lockFile is derived from a UUID in lockFilePath
		file, err := os.OpenFile(lockFile, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
		if err == nil {
			_, werr := fmt.Fprintf(file, "%d\n%d\n%s\n", time.Now().Unix(), os.Getpid(), key)
			cerr := file.Close()
			if werr != nil || cerr != nil {
				_ = os.Remove(lockFile)
				return false, fmt.Errorf("failed to write lock file: %v %v", werr, cerr)
			}
			fl.logger.WithFields(log.Fields{"key": key, "file": lockFile}).Debug("Acquired lock")
			return true, nil
		}
		if !os.IsExist(err) {
			return false, fmt.Errorf("failed to create lock file: %w", err)
		}

		info, err := os.Stat(lockFile)
		if os.IsNotExist(err) {
			continue
		}
		if err == nil && time.Since(info.ModTime()) > fl.StaleAfter && fl.breakStaleLock(lockFile, info.ModTime()) {
			continue
		}

		if !time.Now().Before(deadline) {
			return false, nil
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// Unlock releases the lock for key. Releasing a lock that is not held is a no-op.
func (fl *FileLock) Unlock(ctx context.Context, key string) error {
	lockFile := fl.lockFilePath(key)
	if err := os.Remove(lockFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove lock file: %w", err)
	}
	fl.logger.WithFields(log.Fields{"key": key, "file": lockFile}).Debug("Released lock")
	return nil
}

// lockFilePath maps any key, including ones with path separators, to a
// fixed-shape file name inside the lock directory.
func (fl *FileLock) lockFilePath(key string) string {
	name := uuid.NewSHA1(lockNamespace, []byte(key)).String()
	return filepath.Join(fl.dir, name+".lock")
}

// breakStaleLock removes lockFile if it is still the file last seen with
// modTime. Waiters break a stale lock one at a time under a separate breaker
// file, so a lock taken right after the break is never removed as stale.
func (fl *FileLock) breakStaleLock(lockFile string, modTime time.Time) bool {
	breaker := lockFile + ".break"
	// #nosec G304 - breaker is derived from lockFilePath
	file, err := os.OpenFile(breaker, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		if info, serr := os.Stat(breaker); serr == nil && time.Since(info.ModTime()) > fl.StaleAfter {
			_ = os.Remove(breaker)
		}
		return false
	}
	_ = file.Close()
	defer os.Remove(breaker)

	info, err := os.Stat(lockFile)
	if err != nil {
		return os.IsNotExist(err)
	}
	if !info.ModTime().Equal(modTime) {
		return false
	}
	if err := os.Remove(lockFile); err != nil && !os.IsNotExist(err) {
		fl.logger.WithError(err).WithField("file", lockFile).Error("Failed to remove stale lock file")
		return false
	}
	fl.logger.WithField("file", lockFile).Warn("Removed stale lock file")
	return true
}
