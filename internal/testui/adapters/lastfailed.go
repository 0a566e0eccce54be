package adapters

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/DylanSharp/gotui/internal/testui/domain"
)

const (
	lockTimeout    = 2 * time.Second
	lockRetryDelay = 10 * time.Millisecond
)

// LastFailedCache remembers which tests failed in the previous runs of a
// project, so a run can be limited to them.
type LastFailedCache struct {
	path string
}

// NewLastFailedCache returns the cache for the project at workDir. An empty
// dir means the user cache directory.
func NewLastFailedCache(dir, workDir string) (*LastFailedCache, error) {
	if dir == "" {
		base, err := os.UserCacheDir()
		if err != nil {
			return nil, domain.ErrCachePersisting("locate", err)
		}
		dir = filepath.Join(base, "gotui")
	}
	abs, err := filepath.Abs(workDir)
	if err != nil {
		return nil, domain.ErrCachePersisting("locate", err)
	}

	sum := sha256.Sum256([]byte(abs))
	name := "lastfailed-" + hex.EncodeToString(sum[:6]) + ".json"
	return &LastFailedCache{path: filepath.Join(dir, name)}, nil
}

// Path returns the cache file path
func (c *LastFailedCache) Path() string {
	return c.path
}

// Load returns the ids that failed last time they ran
func (c *LastFailedCache) Load() (map[string]bool, error) {
	var failed map[string]bool
	err := c.withLock(func() error {
		var err error
		failed, err = c.read()
		return err
	})
	return failed, err
}

// Update records results: true marks a failure, false a test that no longer
// fails. Ids not in results keep their previous state.
func (c *LastFailedCache) Update(results map[string]bool) error {
	if len(results) == 0 {
		return nil
	}
	return c.withLock(func() error {
		failed, err := c.read()
		if err != nil {
			return err
		}
		for id, isFailed := range results {
			if isFailed {
				failed[id] = true
			} else {
				delete(failed, id)
			}
		}
		return c.write(failed)
	})
}

func (c *LastFailedCache) read() (map[string]bool, error) {
	failed := map[string]bool{}
	data, err := os.ReadFile(c.path)
	if err != nil {
		if os.IsNotExist(err) {
			return failed, nil
		}
		return nil, domain.ErrCachePersisting("read", err)
	}
	if err := json.Unmarshal(data, &failed); err != nil {
		// A corrupt cache only costs a full rerun
		return map[string]bool{}, nil
	}
	return failed, nil
}

func (c *LastFailedCache) write(failed map[string]bool) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return domain.ErrCachePersisting("write", err)
	}
	data, err := json.MarshalIndent(failed, "", "  ")
	if err != nil {
		return domain.ErrCachePersisting("write", err)
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return domain.ErrCachePersisting("write", err)
	}
	if err := os.Rename(tmp, c.path); err != nil {
		return domain.ErrCachePersisting("write", err)
	}
	return nil
}

// withLock runs fn holding an exclusive lock on <path>.lock
func (c *LastFailedCache) withLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return domain.ErrCachePersisting("lock", err)
	}

	lock := flock.New(c.path + ".lock")
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	defer cancel()

	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return domain.ErrCachePersisting("lock", err)
	}
	if !locked {
		return domain.ErrCachePersisting("lock", os.ErrDeadlineExceeded)
	}
	defer func() { _ = lock.Unlock() }()

	return fn()
}
