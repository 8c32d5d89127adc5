package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetab/internal/config"
	"expensetab/internal/log"
)

func TestSetupLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := SetupLogger(&config.Config{LogLevel: "warn", LogFormat: "json"}, &buf)

	logger.Info("hidden")
	logger.Warn("shown", "k", "v")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"msg":"shown"`)
	assert.Contains(t, out, `"k":"v"`)
}

func TestLoadEnvFile(t *testing.T) {
	assert.NoError(t, LoadEnvFile(filepath.Join(t.TempDir(), "missing.env")))

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("EXPENSETAB_TEST_KEY=hello\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("EXPENSETAB_TEST_KEY")
	})

	require.NoError(t, LoadEnvFile(path))
	assert.Equal(t, "hello", os.Getenv("EXPENSETAB_TEST_KEY"))
}

func TestLoadAndValidateConfig(t *testing.T) {
	t.Setenv("DATA_BACKEND", "memory")
	t.Setenv("PORT", "9090")
	cfg, err := LoadAndValidateConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)

	t.Setenv("PORT", "http")
	_, err = LoadAndValidateConfig()
	assert.Error(t, err)
}

func TestOpenService(t *testing.T) {
	cfg := &config.Config{DataBackend: "sqlite", SQLiteDBPath: filepath.Join(t.TempDir(), "x.db")}
	svc, err := OpenService(context.Background(), cfg, log.Nop())
	require.NoError(t, err)
	assert.Len(t, svc.Categories(), 8)
	assert.NoError(t, svc.Close())

	_, err = OpenService(context.Background(), &config.Config{DataBackend: "mongo"}, log.Nop())
	assert.Error(t, err)
}

func TestGracefulShutdown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var hadDeadline bool
	err := GracefulShutdown(ctx, log.Nop(), time.Second, func(ctx context.Context) error {
		_, hadDeadline = ctx.Deadline()
		return nil
	})
	require.NoError(t, err)
	assert.True(t, hadDeadline)

	err = GracefulShutdown(ctx, log.Nop(), time.Second, func(context.Context) error {
		return errors.New("listener stuck")
	})
	assert.ErrorContains(t, err, "listener stuck")
}
