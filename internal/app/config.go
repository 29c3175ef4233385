package app

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/vk/courseplanner/internal/cache"
	"github.com/vk/courseplanner/internal/render"
)

// Source kinds.
const (
	SourceCSV      = "csv"
	SourceHCL      = "hcl"
	SourceHTML     = "html"
	SourceSQLite   = "sqlite"
	SourcePostgres = "postgres"
)

var (
	// Sources lists every source kind in help order.
	Sources = []string{SourceCSV, SourceHCL, SourceHTML, SourceSQLite, SourcePostgres}

	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json", "logfmt"}
)

// ErrInvalidConfig marks every error returned by NewConfig.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings a single command runs with.
type Config struct {
	// Source selects the catalog reader. Empty picks one from the
	// CatalogPath extension.
	Source       string
	CatalogPath  string
	HTMLSelector string

	DatabasePath string
	PostgresDSN  string

	CachePath string
	NoCache   bool
	StrictIDs bool

	LogLevel  string
	LogFormat string
	Output    string
	MaxDepth  int
}

// NewConfig normalises and validates cfg.
func NewConfig(cfg Config) (*Config, error) {
	cfg.Source = strings.ToLower(strings.TrimSpace(cfg.Source))
	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.CachePath == "" {
		cfg.CachePath = cache.DefaultPath()
	}
	if cfg.Source == "" {
		cfg.Source = detectSource(cfg.CatalogPath)
	}

	if !slices.Contains(Sources, cfg.Source) {
		return nil, invalid(errors.Newf("unknown source %q", cfg.Source),
			"Supported sources: %s.", strings.Join(Sources, ", "))
	}
	switch cfg.Source {
	case SourceCSV, SourceHCL, SourceHTML:
		if cfg.CatalogPath == "" {
			return nil, invalid(errors.Newf("a catalog path is required for the %s source", cfg.Source),
				"Pass --catalog or set catalog in courseplanner.yaml.")
		}
	case SourceSQLite:
		if cfg.DatabasePath == "" {
			return nil, invalid(errors.New("a database path is required for the sqlite source"),
				"Pass --db-path.")
		}
	case SourcePostgres:
		if cfg.PostgresDSN == "" {
			return nil, invalid(errors.New("a connection string is required for the postgres source"),
				"Pass --postgres-dsn or set COURSEPLANNER_POSTGRES_DSN.")
		}
	}

	if !slices.Contains(logLevels, cfg.LogLevel) {
		return nil, invalid(errors.Newf("invalid log level %q", cfg.LogLevel),
			"Use one of: %s.", strings.Join(logLevels, ", "))
	}
	if !slices.Contains(logFormats, cfg.LogFormat) {
		return nil, invalid(errors.Newf("invalid log format %q", cfg.LogFormat),
			"Use one of: %s.", strings.Join(logFormats, ", "))
	}
	format, err := render.ParseFormat(cfg.Output)
	if err != nil {
		return nil, errors.Mark(err, ErrInvalidConfig)
	}
	cfg.Output = string(format)
	if cfg.MaxDepth < 0 {
		return nil, invalid(errors.Newf("max depth must not be negative, got %d", cfg.MaxDepth),
			"Use 0 to follow chains as deep as the catalog allows.")
	}

	return &cfg, nil
}

func invalid(err error, hint string, args ...any) error {
	return errors.Mark(errors.WithHintf(err, hint, args...), ErrInvalidConfig)
}

func detectSource(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".hcl":
		return SourceHCL
	case ".html", ".htm":
		return SourceHTML
	default:
		return SourceCSV
	}
}
