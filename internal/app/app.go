package app

import (
	"context"
	"io"
	"log/slog"

	"github.com/vk/courseplanner/internal/cache"
	"github.com/vk/courseplanner/internal/catalog"
	"github.com/vk/courseplanner/internal/ctxlog"
	"github.com/vk/courseplanner/internal/render"
	"github.com/vk/courseplanner/internal/source"
	"github.com/vk/courseplanner/internal/store"
)

// MirrorOpener opens the relational mirror of the given kind (SourceSQLite or
// SourcePostgres) and returns a description of it for reports.
type MirrorOpener func(ctx context.Context, kind string) (store.Mirror, string, error)

// App runs commands against one configuration. It is not safe for
// concurrent use; build one per command invocation.
type App struct {
	cfg     *Config
	logger  *slog.Logger
	out     *render.Renderer
	current *catalog.Current
	loaded  bool
	cache   *cache.Cache

	src        source.Source
	origin     string
	openMirror MirrorOpener
}

// Option customises an App.
type Option func(*App)

// WithSource replaces the configured catalog reader. origin is recorded in
// the cache and shown in reports.
func WithSource(src source.Source, origin string) Option {
	return func(a *App) {
		a.src = src
		a.origin = origin
	}
}

// WithMirrorOpener replaces the default SQLite and Postgres backends.
func WithMirrorOpener(open MirrorOpener) Option {
	return func(a *App) {
		a.openMirror = open
	}
}

// New builds an App. Command output goes to outW; logs go to logW.
func New(outW, logW io.Writer, cfg *Config, opts ...Option) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.", "level", cfg.LogLevel, "format", cfg.LogFormat)

	a := &App{
		cfg:     cfg,
		logger:  logger,
		out:     render.New(outW, render.Format(cfg.Output)),
		current: catalog.NewCurrent(cfg.StrictIDs),
		cache:   cache.New(cfg.CachePath),
	}
	a.openMirror = a.defaultMirror
	for _, opt := range opts {
		opt(a)
	}
	if a.src == nil {
		a.src, a.origin = a.configuredSource()
	}
	logger.Debug("App configured.", "source", a.origin, "cache", cfg.CachePath, "no_cache", cfg.NoCache)
	return a
}

// Config returns the configuration the App was built with.
func (a *App) Config() *Config { return a.cfg }

// Logger returns the App's logger.
func (a *App) Logger() *slog.Logger { return a.logger }

// Catalog returns the currently published index. It is empty until a
// command has loaded the catalog.
func (a *App) Catalog() *catalog.Index { return a.current.Load() }

func (a *App) withLogger(ctx context.Context) context.Context {
	return ctxlog.WithLogger(ctx, a.logger)
}
