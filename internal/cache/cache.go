// Package cache persists the last loaded catalog between command runs so
// that read commands do not have to re-parse the source every time.
//
// The cache is a single msgpack file. Writers replace it atomically while
// holding an exclusive flock on a sidecar "<path>.lock" file; readers take a
// shared lock. A file that cannot be decoded, or that was written by an
// incompatible version, is reported as ErrCorrupt.
package cache

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
	"github.com/google/renameio/v2"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/ctxlog"
)

// FormatVersion is bumped whenever the envelope layout changes.
const FormatVersion = 1

const (
	defaultDirPerms  = 0o755
	defaultFilePerms = 0o644
)

// ErrCorrupt is returned by Load when the cache file exists but is unusable.
var ErrCorrupt = errors.New("catalog cache is corrupt")

// Snapshot is a decoded cache file.
type Snapshot struct {
	// Origin describes where the courses were loaded from, e.g. "csv:data/courses.csv".
	Origin  string
	SavedAt time.Time
	Courses []course.Course
}

type envelope struct {
	Version int             `msgpack:"version"`
	Origin  string          `msgpack:"origin"`
	SavedAt time.Time       `msgpack:"saved_at"`
	Courses []course.Record `msgpack:"courses"`
}

// Cache reads and writes one cache file.
type Cache struct {
	path string
	lock *fileLock
	now  func() time.Time
}

// DefaultPath returns $XDG_CACHE_HOME/courseplanner/catalog.msgpack.
func DefaultPath() string {
	return filepath.Join(xdg.CacheHome, "courseplanner", "catalog.msgpack")
}

// New returns a Cache stored at path.
func New(path string) *Cache {
	if path == "" {
		panic("cache: path must not be empty")
	}
	return &Cache{path: path, lock: newFileLock(path), now: time.Now}
}

// Path returns the cache file location.
func (c *Cache) Path() string { return c.path }

// Save replaces the cache file with courses.
func (c *Cache) Save(ctx context.Context, courses []course.Course, origin string) error {
	env := envelope{
		Version: FormatVersion,
		Origin:  origin,
		SavedAt: c.now().UTC(),
		Courses: make([]course.Record, 0, len(courses)),
	}
	for _, crs := range courses {
		env.Courses = append(env.Courses, crs.Record())
	}

	data, err := msgpack.Marshal(&env)
	if err != nil {
		return errors.Wrap(err, "failed to encode catalog cache")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), defaultDirPerms); err != nil {
		return errors.Wrap(err, "failed to create cache directory")
	}

	err = c.lock.withLock(func() error {
		return renameio.WriteFile(c.path, data, defaultFilePerms)
	})
	if err != nil {
		return errors.Wrapf(err, "failed to write catalog cache %s", c.path)
	}

	ctxlog.FromContext(ctx).Debug("Saved catalog cache.", "path", c.path, "courses", len(courses), "bytes", len(data))
	return nil
}

// Load reads the cache file. A missing file reports false with a nil error.
func (c *Cache) Load(ctx context.Context) (Snapshot, bool, error) {
	if _, err := os.Stat(c.path); errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, false, nil
	}

	var data []byte
	err := c.lock.withRLock(func() error {
		var err error
		data, err = os.ReadFile(c.path)
		return err
	})
	if errors.Is(err, fs.ErrNotExist) {
		return Snapshot{}, false, nil
	}
	if err != nil {
		return Snapshot{}, false, errors.Wrapf(err, "failed to read catalog cache %s", c.path)
	}

	snap, err := decode(data)
	if err != nil {
		return Snapshot{}, false, errors.Wrapf(err, "%s", c.path)
	}

	ctxlog.FromContext(ctx).Debug("Loaded catalog cache.", "path", c.path, "origin", snap.Origin, "courses", len(snap.Courses))
	return snap, true, nil
}

func decode(data []byte) (Snapshot, error) {
	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return Snapshot{}, errors.Mark(errors.Wrap(err, "decode"), ErrCorrupt)
	}
	if env.Version != FormatVersion {
		return Snapshot{}, errors.Mark(errors.Newf("unsupported cache version %d", env.Version), ErrCorrupt)
	}

	courses := make([]course.Course, 0, len(env.Courses))
	for i, rec := range env.Courses {
		crs, err := rec.Course()
		if err != nil {
			return Snapshot{}, errors.Mark(errors.Wrapf(err, "record %d", i), ErrCorrupt)
		}
		courses = append(courses, crs)
	}
	return Snapshot{Origin: env.Origin, SavedAt: env.SavedAt, Courses: courses}, nil
}

// Clear deletes the cache file and reports whether one existed.
func (c *Cache) Clear(ctx context.Context) (bool, error) {
	if _, err := os.Stat(c.path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}

	removed := false
	err := c.lock.withLock(func() error {
		err := os.Remove(c.path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		removed = err == nil
		return err
	})
	if err != nil {
		return false, errors.Wrapf(err, "failed to clear catalog cache %s", c.path)
	}

	ctxlog.FromContext(ctx).Debug("Cleared catalog cache.", "path", c.path, "removed", removed)
	return removed, nil
}
