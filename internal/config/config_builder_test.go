package config

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

func writeTempJSONConfig(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.Write(data)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

// validBase returns the minimal configuration that passes validation.
func validBase() *StructuredConfig {
	return &StructuredConfig{
		Storage: Storage{DB: DB{DSN: "workout.db"}},
		Remote:  Remote{BaseURL: "https://records.example.com"},
	}
}

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_EmptyBuilder verifies that building with no configs fails
// validation: the local DSN and remote base URL are mandatory.
func TestBuild_EmptyBuilder(t *testing.T) {
	cfg, err := newConfigBuilder().build()
	assert.NotNil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidStorageConfigs)
}

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_MergesMultipleConfigs verifies that fields from multiple configs
// are merged into a single result.
func TestBuild_MergesMultipleConfigs(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{Storage: Storage{DB: DB{DSN: "workout.db"}}},
		&StructuredConfig{Remote: Remote{BaseURL: "https://records.example.com"}},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "workout.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "https://records.example.com", cfg.Remote.BaseURL)
}

// TestBuild_EarlierSourceWins verifies merge priority: a non-zero field from
// an earlier config is not overwritten by a later one.
func TestBuild_EarlierSourceWins(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{
			Storage: Storage{DB: DB{DSN: "env.db"}},
			Remote:  Remote{BaseURL: "https://env.example.com"},
		},
		&StructuredConfig{
			Storage: Storage{DB: DB{DSN: "json.db"}},
			Remote:  Remote{BaseURL: "https://json.example.com", Token: "json-token"},
		},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "env.db", cfg.Storage.DB.DSN)
	assert.Equal(t, "https://env.example.com", cfg.Remote.BaseURL)
	// later source still fills the gaps
	assert.Equal(t, "json-token", cfg.Remote.Token)
}

// TestBuild_AppliesDefaults verifies that engine defaults are applied for
// fields no source provided.
func TestBuild_AppliesDefaults(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, validBase())

	cfg, err := b.build()
	require.NoError(t, err)

	assert.Equal(t, 400, cfg.Sync.BatchSize)
	assert.Equal(t, 720*time.Hour, cfg.Sync.ConflictRetention)
	assert.Equal(t, 5*time.Minute, cfg.Workers.SyncInterval)
	assert.Equal(t, 24*time.Hour, cfg.Workers.PruneInterval)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)
	assert.Equal(t, 15*time.Second, cfg.Remote.RequestTimeout)
	// MaxAttempts has no default: zero means retry forever.
	assert.Zero(t, cfg.Sync.MaxAttempts)
}

// TestBuild_BatchSizeCeiling verifies that a batch size over the record
// store's hard limit is clamped back to 400.
func TestBuild_BatchSizeCeiling(t *testing.T) {
	base := validBase()
	base.Sync.BatchSize = 1000

	b := newConfigBuilder()
	b.configs = append(b.configs, base)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, 400, cfg.Sync.BatchSize)
}

// ── validation ────────────────────────────────────────────────────────────────

func TestBuild_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *StructuredConfig)
		wantErr error
	}{
		{
			name:    "valid config",
			mutate:  func(cfg *StructuredConfig) {},
			wantErr: nil,
		},
		{
			name:    "empty DSN",
			mutate:  func(cfg *StructuredConfig) { cfg.Storage.DB.DSN = "" },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "in-memory DSN rejected",
			mutate:  func(cfg *StructuredConfig) { cfg.Storage.DB.DSN = "file::memory:?cache=shared" },
			wantErr: ErrInvalidStorageConfigs,
		},
		{
			name:    "empty remote base URL",
			mutate:  func(cfg *StructuredConfig) { cfg.Remote.BaseURL = "" },
			wantErr: ErrInvalidRemoteConfigs,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base := validBase()
			tt.mutate(base)

			b := newConfigBuilder()
			b.configs = append(b.configs, base)

			_, err := b.build()
			if tt.wantErr == nil {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

// ── withEnv ───────────────────────────────────────────────────────────────────

// TestWithEnv_ReturnsBuilder verifies the fluent interface.
func TestWithEnv_ReturnsBuilder(t *testing.T) {
	b := newConfigBuilder()
	assert.Same(t, b, b.withEnv())
}

// TestWithEnv_AppendsOneConfig verifies that withEnv appends exactly one entry.
func TestWithEnv_AppendsOneConfig(t *testing.T) {
	b := newConfigBuilder()
	b.withEnv()
	assert.Len(t, b.configs, 1)
}

// TestWithEnv_ReadsEnvVars verifies that environment variables are picked up.
func TestWithEnv_ReadsEnvVars(t *testing.T) {
	t.Setenv("REMOTE_BASE_URL", "https://env.example.com")
	t.Setenv("STORAGE_DB_DATABASE_URI", "env.db")

	b := newConfigBuilder()
	b.withEnv()

	require.Len(t, b.configs, 1)
	assert.Equal(t, "https://env.example.com", b.configs[0].Remote.BaseURL)
	assert.Equal(t, "env.db", b.configs[0].Storage.DB.DSN)
}

// ── withJSON ──────────────────────────────────────────────────────────────────

// TestWithJSON_NoPath verifies that withJSON is a no-op when no earlier source
// specified a file path.
func TestWithJSON_NoPath(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{})

	b.withJSON()
	assert.NoError(t, b.err)
	assert.Len(t, b.configs, 1)
}

// TestWithJSON_LoadsFile verifies that withJSON parses the file named by an
// earlier source and appends its contents.
func TestWithJSON_LoadsFile(t *testing.T) {
	path := writeTempJSONConfig(t, map[string]any{
		"remote": map[string]any{"base_url": "https://json.example.com"},
	})

	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})

	b.withJSON()
	require.NoError(t, b.err)
	require.Len(t, b.configs, 2)
	assert.Equal(t, "https://json.example.com", b.configs[1].Remote.BaseURL)
}

// TestWithJSON_MissingFile verifies that an unreadable file surfaces through
// b.err and fails the build.
func TestWithJSON_MissingFile(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: "does-not-exist.json"})

	b.withJSON()
	require.Error(t, b.err)

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
}
