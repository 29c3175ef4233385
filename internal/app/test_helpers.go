package app

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/courseplanner/internal/testutil"
)

// SetupAppTest builds an App for tests. Unless cfg says otherwise the cache
// lives in a fresh temporary directory and logging is at debug level. It
// returns the App, its command output and its captured logs.
func SetupAppTest(t *testing.T, cfg Config, opts ...Option) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	if cfg.CachePath == "" {
		cfg.CachePath = filepath.Join(t.TempDir(), "cache", "catalog.msgpack")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	validated, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	testApp := New(out, logs, validated, opts...)

	t.Cleanup(func() {
		if os.Getenv("COURSEPLANNER_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return testApp, out, logs
}
