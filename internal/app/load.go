package app

import (
	"context"
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"

	"github.com/vk/courseplanner/internal/cache"
	"github.com/vk/courseplanner/internal/catalog"
	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/csvsource"
	"github.com/vk/courseplanner/internal/ctxlog"
	"github.com/vk/courseplanner/internal/hclcatalog"
	"github.com/vk/courseplanner/internal/htmlcatalog"
	"github.com/vk/courseplanner/internal/pgstore"
	"github.com/vk/courseplanner/internal/render"
	"github.com/vk/courseplanner/internal/source"
	"github.com/vk/courseplanner/internal/sqlitestore"
	"github.com/vk/courseplanner/internal/store"
)

// ErrEmptyMirror is returned when a relational source holds no courses.
var ErrEmptyMirror = errors.New("the database holds no courses")

// configuredSource picks the reader named by the configuration.
func (a *App) configuredSource() (source.Source, string) {
	switch a.cfg.Source {
	case SourceHCL:
		return hclcatalog.New(a.cfg.CatalogPath), "hcl:" + a.cfg.CatalogPath
	case SourceHTML:
		return htmlcatalog.New(a.cfg.CatalogPath, htmlcatalog.WithSelector(a.cfg.HTMLSelector)), "html:" + a.cfg.CatalogPath
	case SourceSQLite:
		return a.mirrorSource(SourceSQLite), "sqlite:" + a.cfg.DatabasePath
	case SourcePostgres:
		return a.mirrorSource(SourcePostgres), "postgres:" + pgstore.Describe(a.cfg.PostgresDSN)
	default:
		return csvsource.New(a.cfg.CatalogPath), "csv:" + a.cfg.CatalogPath
	}
}

// mirrorSource reads the whole mirror of kind as a catalog.
func (a *App) mirrorSource(kind string) source.Source {
	return source.Func(func(ctx context.Context) ([]course.Course, error) {
		if kind == SourceSQLite {
			if _, err := os.Stat(a.cfg.DatabasePath); errors.Is(err, fs.ErrNotExist) {
				return nil, errors.WithHint(
					errors.Wrapf(err, "sqlite database %s", a.cfg.DatabasePath),
					"Run migrate to create the database from a catalog file.")
			}
		}

		m, desc, err := a.openMirror(ctx, kind)
		if err != nil {
			return nil, err
		}
		defer m.Close()

		courses, err := m.Load(ctx)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", desc)
		}
		if len(courses) == 0 {
			return nil, errors.WithHint(errors.Wrapf(ErrEmptyMirror, "%s", desc),
				"Run migrate to populate the database first.")
		}
		return courses, nil
	})
}

// defaultMirror opens the SQLite file or Postgres database from the config.
func (a *App) defaultMirror(ctx context.Context, kind string) (store.Mirror, string, error) {
	switch kind {
	case SourcePostgres:
		if a.cfg.PostgresDSN == "" {
			return nil, "", errors.Mark(errors.WithHint(
				errors.New("no postgres connection string configured"),
				"Pass --postgres-dsn or set COURSEPLANNER_POSTGRES_DSN."), ErrInvalidConfig)
		}
		s, err := pgstore.Open(ctx, a.cfg.PostgresDSN)
		if err != nil {
			return nil, "", err
		}
		return s, pgstore.Describe(a.cfg.PostgresDSN), nil
	case SourceSQLite:
		if a.cfg.DatabasePath == "" {
			return nil, "", errors.Mark(errors.WithHint(
				errors.New("no sqlite database path configured"), "Pass --db-path."), ErrInvalidConfig)
		}
		s, err := sqlitestore.Open(ctx, a.cfg.DatabasePath)
		if err != nil {
			return nil, "", err
		}
		return s, a.cfg.DatabasePath, nil
	default:
		return nil, "", errors.AssertionFailedf("unknown mirror kind %q", kind)
	}
}

// Load reads the configured source, publishes the index and refreshes the
// cache.
func (a *App) Load(ctx context.Context) error {
	ctx = a.withLogger(ctx)
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading catalog from source.", "source", a.origin)

	idx, err := a.loadSource(ctx)
	if err != nil {
		return err
	}
	cached := a.saveCache(ctx, idx)
	logger.Info("Catalog loaded.", "courses", idx.Count(), "source", a.origin)

	return a.out.Loaded(render.LoadReport{
		Courses: idx.Count(),
		Origin:  a.origin,
		Cached:  cached,
	})
}

func (a *App) loadSource(ctx context.Context) (*catalog.Index, error) {
	courses, err := a.src.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load catalog")
	}
	return a.publish(courses)
}

func (a *App) publish(courses []course.Course) (*catalog.Index, error) {
	idx, err := a.current.Replace(courses)
	if err != nil {
		if errors.Is(err, catalog.ErrDuplicateCourse) {
			err = errors.WithHint(err, "Remove the duplicate row or drop --strict-ids to keep the last one.")
		}
		return nil, errors.Wrap(err, "failed to index catalog")
	}
	a.loaded = true
	return idx, nil
}

// saveCache writes idx to the cache. Failures are logged, not returned: a
// missing cache only costs a re-read next time.
func (a *App) saveCache(ctx context.Context, idx *catalog.Index) bool {
	if a.cfg.NoCache {
		return false
	}
	if err := a.cache.Save(ctx, idx.Courses(), a.origin); err != nil {
		ctxlog.FromContext(ctx).Warn("Could not save catalog cache.", "path", a.cache.Path(), "error", err)
		return false
	}
	return true
}

// ensureLoaded returns the index read commands work on: the one already
// published, the cached catalog when it came from the configured source, or
// a fresh read of the source.
func (a *App) ensureLoaded(ctx context.Context) (*catalog.Index, error) {
	if a.loaded {
		return a.current.Load(), nil
	}
	logger := ctxlog.FromContext(ctx)

	if !a.cfg.NoCache {
		courses, ok := a.fromCache(ctx)
		if ok {
			idx, err := a.publish(courses)
			if err != nil {
				return nil, err
			}
			logger.Debug("Auto-loaded catalog from cache.", "courses", idx.Count())
			return idx, nil
		}
	}

	idx, err := a.loadSource(ctx)
	if err != nil {
		return nil, err
	}
	a.saveCache(ctx, idx)
	logger.Debug("Auto-loaded catalog from source.", "courses", idx.Count(), "source", a.origin)
	return idx, nil
}

func (a *App) fromCache(ctx context.Context) ([]course.Course, bool) {
	logger := ctxlog.FromContext(ctx)

	snap, ok, err := a.cache.Load(ctx)
	switch {
	case errors.Is(err, cache.ErrCorrupt):
		logger.Warn("Catalog cache is corrupt; clearing it and reloading from source.", "path", a.cache.Path(), "error", err)
		if _, clearErr := a.cache.Clear(ctx); clearErr != nil {
			logger.Warn("Could not clear catalog cache.", "path", a.cache.Path(), "error", clearErr)
		}
		return nil, false
	case err != nil:
		logger.Warn("Could not read catalog cache.", "path", a.cache.Path(), "error", err)
		return nil, false
	case !ok:
		return nil, false
	case snap.Origin != a.origin:
		logger.Debug("Ignoring cache written for another source.", "cached", snap.Origin, "source", a.origin)
		return nil, false
	}
	return snap.Courses, true
}

// invalidateCache drops a cache that mirrors kind after the mirror changed.
func (a *App) invalidateCache(ctx context.Context, kind string) {
	if a.cfg.Source != kind {
		return
	}
	if _, err := a.cache.Clear(ctx); err != nil {
		ctxlog.FromContext(ctx).Warn("Could not clear stale catalog cache.", "path", a.cache.Path(), "error", err)
	}
}
