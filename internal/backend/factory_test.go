package backend

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetab/internal/config"
	"expensetab/internal/core"
)

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	_, err = FromAppConfig(&config.Config{DataBackend: "postgres"})
	assert.Error(t, err)

	cfg, err := FromAppConfig(&config.Config{
		DataBackend:    "sqlite",
		SQLiteDBPath:   "x.db",
		AMQPExchange:   "ex",
		AMQPRoutingKey: "rk",
	})
	require.NoError(t, err)
	assert.Equal(t, SQLiteBackend, cfg.Type)
	assert.Equal(t, "x.db", cfg.SQLiteDBPath)
	assert.Equal(t, "rk", cfg.AMQPRoutingKey)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"file without path", Config{Type: FileBackend}, true},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"unknown", Config{Type: "sheets"}, true},
		{"sheet without name", Config{Type: MemoryBackend, GoogleSpreadsheetID: "id"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
	assert.Equal(t, []string{"memory", "file", "sqlite"}, GetBackendTypeStrings())
}

func TestCreateBackendPersists(t *testing.T) {
	dir := t.TempDir()
	configs := map[string]Config{
		"file":   {Type: FileBackend, StateFilePath: filepath.Join(dir, "state.json")},
		"sqlite": {Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "state.db")},
	}
	for name, cfg := range configs {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			f := NewFactory(nil)

			res, err := f.CreateBackend(ctx, cfg)
			require.NoError(t, err)
			assert.Nil(t, res.Publisher)
			assert.Nil(t, res.Sheet)

			err = res.Store.SetBudget(ctx, core.Budget{Month: "2024-05", Amount: decimal.RequireFromString("300")})
			require.NoError(t, err)
			require.NoError(t, res.Cleanup())

			again, err := f.CreateBackend(ctx, cfg)
			require.NoError(t, err)
			defer again.Cleanup()
			budgets := again.Store.Budgets()
			require.Len(t, budgets, 1)
			assert.Equal(t, "2024-05", budgets[0].Month)
		})
	}
}

func TestCreateBackendSeed(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(seed, []byte("categories:\n  - name: Rent\n  - name: Fun\n"), 0o644))

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:               MemoryBackend,
		SeedCategoriesFile: seed,
	})
	require.NoError(t, err)
	defer res.Cleanup()
	cats := res.Store.Categories()
	require.Len(t, cats, 2)
	assert.Equal(t, "Rent", cats[0].Name)

	_, err = NewFactory(nil).CreateBackend(context.Background(), Config{
		Type:               MemoryBackend,
		SeedCategoriesFile: filepath.Join(t.TempDir(), "missing.yaml"),
	})
	assert.Error(t, err)
}

func TestCreateBackendMemoryDefaults(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	assert.Len(t, res.Store.Categories(), 8)
	assert.NoError(t, res.Cleanup())
}
