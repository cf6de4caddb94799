package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ashdown-property/splitscan/internal/cost"
	"github.com/ashdown-property/splitscan/internal/engine/valuation"
)

// Config holds the full application configuration.
type Config struct {
	Store        StoreConfig             `yaml:"store" mapstructure:"store"`
	LandRegistry LandRegistryConfig      `yaml:"land_registry" mapstructure:"land_registry"`
	PropertyData PropertyDataConfig      `yaml:"propertydata" mapstructure:"propertydata"`
	Engine       EngineConfig            `yaml:"engine" mapstructure:"engine"`
	Regional     valuation.RegionalTable `yaml:"regional" mapstructure:"regional"`
	Cost         cost.Rates              `yaml:"cost" mapstructure:"cost"`
	Server       ServerConfig            `yaml:"server" mapstructure:"server"`
	Log          LogConfig               `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	Path        string `yaml:"path" mapstructure:"path"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LandRegistryConfig holds HM Land Registry open data settings.
type LandRegistryConfig struct {
	PPDBaseURL     string  `yaml:"ppd_base_url" mapstructure:"ppd_base_url"`
	HPIBaseURL     string  `yaml:"hpi_base_url" mapstructure:"hpi_base_url"`
	Region         string  `yaml:"region" mapstructure:"region"`
	RateLimit      float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	LookbackMonths int     `yaml:"lookback_months" mapstructure:"lookback_months"`
}

// PropertyDataConfig holds PropertyData API settings.
type PropertyDataConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// EngineConfig configures assessment thresholds.
type EngineConfig struct {
	MinBenefitPerUnit int64   `yaml:"min_benefit_per_unit" mapstructure:"min_benefit_per_unit"`
	MaxCostRatio      float64 `yaml:"max_cost_ratio" mapstructure:"max_cost_ratio"`
	BaseScore         int     `yaml:"base_score" mapstructure:"base_score"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SPLITSCAN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.path", "splitscan.db")
	v.SetDefault("land_registry.ppd_base_url", "https://landregistry.data.gov.uk/data/ppi")
	v.SetDefault("land_registry.hpi_base_url", "https://landregistry.data.gov.uk/data/ukhpi")
	v.SetDefault("land_registry.region", "england")
	v.SetDefault("land_registry.rate_limit", 2.0)
	v.SetDefault("land_registry.lookback_months", 24)
	v.SetDefault("propertydata.key", "")
	v.SetDefault("propertydata.base_url", "https://api.propertydata.co.uk")
	v.SetDefault("propertydata.rate_limit", 1.0)
	v.SetDefault("engine.min_benefit_per_unit", 2000)
	v.SetDefault("engine.max_cost_ratio", 0.03)
	v.SetDefault("engine.base_score", 50)
	defaultRegional(v)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	defaultRates(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

func defaultRates(v *viper.Viper) {
	r := cost.DefaultRates()
	bands := map[string]cost.Band{
		"solicitor_per_unit":  r.SolicitorPerUnit,
		"title_plan_per_unit": r.TitlePlanPerUnit,
		"valuation_per_unit":  r.ValuationPerUnit,
		"insurance_per_unit":  r.InsurancePerUnit,
		"lender_consent_fee":  r.LenderConsentFee,
		"lender_legal_costs":  r.LenderLegalCosts,
	}
	for key, b := range bands {
		v.SetDefault("cost."+key+".min", b.Min)
		v.SetDefault("cost."+key+".typical", b.Typical)
		v.SetDefault("cost."+key+".max", b.Max)
	}
	v.SetDefault("cost.contingency_percent", r.ContingencyPercent)
}

func defaultRegional(v *viper.Viper) {
	t := valuation.DefaultRegionalTable()
	for city, rate := range t.PerSqft {
		v.SetDefault("regional.per_sqft."+city, rate)
	}
	v.SetDefault("regional.default", t.Default)
}

// Validate checks configuration invariants for the given command.
func (c *Config) Validate(command string) error {
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return eris.New("config: store.path required for sqlite driver")
		}
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return eris.New("config: store.database_url required for postgres driver")
		}
	default:
		return eris.Errorf("config: unknown store driver %q", c.Store.Driver)
	}

	if c.Engine.MinBenefitPerUnit < 0 {
		return eris.New("config: engine.min_benefit_per_unit must be >= 0")
	}
	if c.Engine.MaxCostRatio <= 0 || c.Engine.MaxCostRatio > 1 {
		return eris.New("config: engine.max_cost_ratio must be in (0, 1]")
	}
	if c.Engine.BaseScore < 0 || c.Engine.BaseScore > 100 {
		return eris.New("config: engine.base_score must be in [0, 100]")
	}
	if c.LandRegistry.LookbackMonths <= 0 {
		return eris.New("config: land_registry.lookback_months must be > 0")
	}

	if command == "serve" && (c.Server.Port <= 0 || c.Server.Port > 65535) {
		return eris.Errorf("config: invalid server port %d", c.Server.Port)
	}

	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
