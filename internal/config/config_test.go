package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "splitscan.db", cfg.Store.Path)
	assert.Equal(t, "https://landregistry.data.gov.uk/data/ppi", cfg.LandRegistry.PPDBaseURL)
	assert.Equal(t, "https://landregistry.data.gov.uk/data/ukhpi", cfg.LandRegistry.HPIBaseURL)
	assert.Equal(t, "england", cfg.LandRegistry.Region)
	assert.InDelta(t, 2.0, cfg.LandRegistry.RateLimit, 0.001)
	assert.Equal(t, 24, cfg.LandRegistry.LookbackMonths)
	assert.Equal(t, "https://api.propertydata.co.uk", cfg.PropertyData.BaseURL)
	assert.Equal(t, int64(2000), cfg.Engine.MinBenefitPerUnit)
	assert.InDelta(t, 0.03, cfg.Engine.MaxCostRatio, 0.0001)
	assert.Equal(t, 50, cfg.Engine.BaseScore)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, int64(450), cfg.Cost.SolicitorPerUnit.Typical)
	assert.Equal(t, int64(1000), cfg.Cost.LenderConsentFee.Typical)
	assert.Equal(t, 10, cfg.Cost.ContingencyPercent)
	assert.Equal(t, int64(150), cfg.Regional.PerSqft["liverpool"])
	assert.Equal(t, int64(200), cfg.Regional.PerSqft["manchester"])
	assert.Equal(t, int64(150), cfg.Regional.Default)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/splitscan
log:
  level: debug
  format: console
engine:
  min_benefit_per_unit: 5000
cost:
  solicitor_per_unit:
    typical: 500
regional:
  per_sqft:
    liverpool: 175
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/splitscan", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, int64(5000), cfg.Engine.MinBenefitPerUnit)
	assert.Equal(t, int64(500), cfg.Cost.SolicitorPerUnit.Typical)
	assert.Equal(t, int64(175), cfg.Regional.PerSqft["liverpool"])
	// Defaults still apply for unset values
	assert.InDelta(t, 0.03, cfg.Engine.MaxCostRatio, 0.0001)
	assert.Equal(t, int64(200), cfg.Cost.TitlePlanPerUnit.Typical)
	assert.Equal(t, int64(180), cfg.Regional.PerSqft["leeds"])
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
store:
  driver: postgres
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("SPLITSCAN_STORE_DRIVER", "sqlite")
	t.Setenv("SPLITSCAN_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("SPLITSCAN_SERVER_PORT", "3000")
	t.Setenv("SPLITSCAN_PROPERTYDATA_KEY", "pd-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "pd-key", cfg.PropertyData.Key)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Store:        StoreConfig{Driver: "sqlite", Path: "test.db"},
			Engine:       EngineConfig{MinBenefitPerUnit: 2000, MaxCostRatio: 0.03, BaseScore: 50},
			LandRegistry: LandRegistryConfig{LookbackMonths: 24},
			Server:       ServerConfig{Port: 8080},
		}
	}

	assert.NoError(t, base().Validate("assess"))

	cfg := base()
	cfg.Store.Path = ""
	err := cfg.Validate("assess")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.path")

	cfg = base()
	cfg.Store.Driver = "postgres"
	err = cfg.Validate("assess")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url")
	cfg.Store.DatabaseURL = "postgres://localhost/splitscan"
	assert.NoError(t, cfg.Validate("assess"))

	cfg = base()
	cfg.Store.Driver = "oracle"
	assert.Error(t, cfg.Validate("assess"))

	cfg = base()
	cfg.Engine.MaxCostRatio = 0
	assert.Error(t, cfg.Validate("assess"))

	cfg = base()
	cfg.Engine.BaseScore = 101
	assert.Error(t, cfg.Validate("assess"))

	cfg = base()
	cfg.LandRegistry.LookbackMonths = 0
	assert.Error(t, cfg.Validate("assess"))

	cfg = base()
	cfg.Server.Port = 0
	// Port is only checked for serve
	assert.NoError(t, cfg.Validate("assess"))
	assert.Error(t, cfg.Validate("serve"))
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "nope", Format: "json"})
	assert.Error(t, err)
}
