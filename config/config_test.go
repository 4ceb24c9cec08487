package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(vals map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vals[k]
		return v, ok
	}
}

func TestApplyEnv_OverridesDefaults(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(env(map[string]string{
		"PORT":             "3000",
		"LIVENESS_DELAY":   "250ms",
		"UPLOAD_MAX_BYTES": "1024",
		"UPSTREAM_RPS":     "2.5",
		"ACTIVE_SESSIONS":  "8",
	}))
	require.NoError(t, err)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.LivenessDelay)
	assert.Equal(t, int64(1024), cfg.UploadMaxBytes)
	assert.Equal(t, 2.5, cfg.UpstreamRPS)
	assert.Equal(t, 8, cfg.ActiveSessions)
	assert.Equal(t, "sessions", cfg.SessionTable)
}

func TestApplyEnv_ReportsBadValues(t *testing.T) {
	cfg := Default()
	err := cfg.applyEnv(env(map[string]string{"PERSIST_WORKERS": "many", "LIVENESS_DELAY": "soon"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PERSIST_WORKERS")
	assert.Contains(t, err.Error(), "LIVENESS_DELAY")
	assert.Equal(t, 2, cfg.PersistWorkers)
}

func TestLoadFile_YAMLBelowEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: \"7000\"\nshare_dir: /tmp/shares\ntranslate_batch_size: 50\n"), 0o600))

	cfg := Default()
	require.NoError(t, cfg.loadFile(path))
	require.NoError(t, cfg.applyEnv(env(map[string]string{"PORT": "7001"})))
	assert.Equal(t, "7001", cfg.Port)
	assert.Equal(t, "/tmp/shares", cfg.ShareDir)
	assert.Equal(t, 50, cfg.TranslateBatchSize)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("MODEL_NAME", "test-model")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "test-model", cfg.ModelName)
}

func TestNewSupabaseClient_RequiresCredentials(t *testing.T) {
	_, err := NewSupabaseClient(Default())
	assert.Error(t, err)
}

func TestInitLogger_Level(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, InitLogger("DEBUG").GetLevel())
	assert.Equal(t, logrus.InfoLevel, InitLogger("loud").GetLevel())
}
