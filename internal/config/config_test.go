package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultValues(t *testing.T) {
	os.Clearenv()

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8000", cfg.HTTP.Addr)
	assert.True(t, cfg.DBEnabled)
	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "icu", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.False(t, cfg.MQTT.Enabled)
	assert.Equal(t, "icu/monitors/+/vitals", cfg.MQTT.Topic)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenTTL)
	assert.False(t, cfg.Auth.Bypass)
	assert.Equal(t, 2*time.Second, cfg.Feed.Interval)
	assert.False(t, cfg.Feed.UseRealMonitor)
	assert.Equal(t, 70.0, cfg.Feed.RiskThreshold)
	assert.Equal(t, 25, cfg.Feed.MonitorCapacity)
	assert.Equal(t, "icu:monitor:raw", cfg.Ingest.Stream)
	assert.Equal(t, "models/disease_prediction_model.yaml", cfg.Predict.DiseaseModel)
	assert.Equal(t, "models/seg_model.yaml", cfg.Predict.WoundModel)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoad_EnvironmentVariables(t *testing.T) {
	os.Clearenv()
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("DB_ENABLED", "false")
	t.Setenv("USE_REAL_MONITOR_DATA", "true")
	t.Setenv("AUTH_BYPASS", "true")
	t.Setenv("FEED_INTERVAL", "500ms")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("DB_SCHEMA_FILE", "db/schema.sql")
	t.Setenv("PREDICT_WOUND_MODEL", "/models/wound.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 6543, cfg.Database.Port)
	assert.False(t, cfg.DBEnabled)
	assert.True(t, cfg.Feed.UseRealMonitor)
	assert.True(t, cfg.Auth.Bypass)
	assert.Equal(t, 500*time.Millisecond, cfg.Feed.Interval)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "db/schema.sql", cfg.Database.SchemaFile)
	assert.Equal(t, "/models/wound.yaml", cfg.Predict.WoundModel)
}

func TestLoad_PortFallback(t *testing.T) {
	os.Clearenv()
	t.Setenv("PORT", "9090")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.HTTP.Addr)
}

func TestLoad_InvalidValuesKeepDefaults(t *testing.T) {
	os.Clearenv()
	t.Setenv("DB_PORT", "not-a-number")
	t.Setenv("AUTH_BYPASS", "maybe")
	t.Setenv("FEED_INTERVAL", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.False(t, cfg.Auth.Bypass)
	assert.Equal(t, 2*time.Second, cfg.Feed.Interval)
}

func TestLoad_ConfigFileThenEnv(t *testing.T) {
	os.Clearenv()
	path := filepath.Join(t.TempDir(), "icu.yaml")
	content := `
http:
  addr: ":7000"
database:
  host: yaml-host
feed:
  playback_csv: /data/vitals.csv
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DB_HOST", "env-host")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.HTTP.Addr)
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, "/data/vitals.csv", cfg.Feed.PlaybackCSV)
	// 未在文件中出现的字段保持默认
	assert.Equal(t, 5432, cfg.Database.Port)
}

func TestLoad_MissingConfigFile(t *testing.T) {
	os.Clearenv()
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))

	_, err := Load()
	assert.Error(t, err)
}

func TestDatabaseConfig_GetDSN(t *testing.T) {
	c := DatabaseConfig{Host: "h", Port: 1, User: "u", Password: "p", Database: "d", SSLMode: "disable"}
	assert.Equal(t, "host=h port=1 user=u password=p dbname=d sslmode=disable", c.GetDSN())
}
