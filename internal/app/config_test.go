package app

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Parallel()

	cfg, err := NewConfig(Config{CatalogPath: "data/courses.csv"})

	require.NoError(t, err)
	assert.Equal(t, SourceCSV, cfg.Source)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "text", cfg.Output)
	assert.NotEmpty(t, cfg.CachePath)
}

func TestNewConfig_DetectsSource(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path string
		want string
	}{
		{"catalog.hcl", SourceHCL},
		{"catalog.HTML", SourceHTML},
		{"saved/catalog.htm", SourceHTML},
		{"courses.csv", SourceCSV},
		{"courses", SourceCSV},
	}
	for _, tc := range testCases {
		cfg, err := NewConfig(Config{CatalogPath: tc.path})
		require.NoError(t, err, tc.path)
		assert.Equal(t, tc.want, cfg.Source, tc.path)
	}

	cfg, err := NewConfig(Config{Source: "HCL", CatalogPath: "catalogs/"})
	require.NoError(t, err)
	assert.Equal(t, SourceHCL, cfg.Source, "explicit source wins over detection")
}

func TestNewConfig_Invalid(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "unknown source", cfg: Config{Source: "excel", CatalogPath: "x"}, wantErr: `unknown source "excel"`},
		{name: "missing catalog", cfg: Config{Source: SourceHCL}, wantErr: "catalog path is required"},
		{name: "missing database", cfg: Config{Source: SourceSQLite}, wantErr: "database path is required"},
		{name: "missing dsn", cfg: Config{Source: SourcePostgres}, wantErr: "connection string is required"},
		{name: "log level", cfg: Config{CatalogPath: "x", LogLevel: "trace"}, wantErr: `invalid log level "trace"`},
		{name: "log format", cfg: Config{CatalogPath: "x", LogFormat: "xml"}, wantErr: `invalid log format "xml"`},
		{name: "output", cfg: Config{CatalogPath: "x", Output: "csv"}, wantErr: "unknown output format"},
		{name: "negative depth", cfg: Config{CatalogPath: "x", MaxDepth: -1}, wantErr: "must not be negative"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg, err := NewConfig(tc.cfg)

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorContains(t, err, tc.wantErr)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.NotEmpty(t, errors.GetAllHints(err))
		})
	}
}
