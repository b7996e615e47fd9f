package checkpoint

import (
	"fmt"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"awstail/internal/services"
)

// Lock is an exclusive per-group watcher lock.
type Lock struct {
	lock *flock.Flock
}

// AcquireLock takes the watcher lock for group under dir without blocking.
// A group already watched by another process is a configuration error.
func AcquireLock(dir, group string) (*Lock, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure lock dir: %w", err)
	}
	path := filepath.Join(dir, lockName(group))
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, services.Wrap(services.ErrConfiguration, "checkpoint", "acquire lock",
			fmt.Sprintf("another watcher holds %s", path), nil)
	}
	return &Lock{lock: fl}, nil
}

// Path returns the lock file location.
func (l *Lock) Path() string {
	return l.lock.Path()
}

// Release unlocks the group. The lock file stays behind for reuse.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	if err := l.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// lockName keeps the readable part of the group and a hash so distinct
// groups that sanitize alike still get distinct files.
func lockName(group string) string {
	var b strings.Builder
	for _, r := range strings.Trim(group, "/") {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	name := b.String()
	if len(name) > 64 {
		name = name[:64]
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(group))
	return fmt.Sprintf("watch-%s-%08x.lock", name, h.Sum32())
}
