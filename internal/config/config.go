package config

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is read once at startup
// and treated as immutable for the duration of every analysis.
type Config struct {
	Panels       map[string]PanelSpec `yaml:"panels" mapstructure:"panels"`
	Installation InstallationConfig   `yaml:"installation" mapstructure:"installation"`
	Financial    FinancialConfig      `yaml:"financial" mapstructure:"financial"`
	Location     LocationConfig       `yaml:"location" mapstructure:"location"`
	Analysis     AnalysisConfig       `yaml:"analysis" mapstructure:"analysis"`
	Vision       VisionConfig         `yaml:"vision" mapstructure:"vision"`
	Store        StoreConfig          `yaml:"store" mapstructure:"store"`
	Batch        BatchConfig          `yaml:"batch" mapstructure:"batch"`
	Server       ServerConfig         `yaml:"server" mapstructure:"server"`
	Log          LogConfig            `yaml:"log" mapstructure:"log"`
}

// PanelSpec describes one panel variant in the catalog.
type PanelSpec struct {
	PowerRatingW float64 `yaml:"power_rating" mapstructure:"power_rating"`
	Efficiency   float64 `yaml:"efficiency" mapstructure:"efficiency"`
	AreaSqm      float64 `yaml:"area" mapstructure:"area"`
	CostPerWatt  float64 `yaml:"cost_per_watt" mapstructure:"cost_per_watt"`
}

// InstallationConfig holds installation cost constants (USD).
type InstallationConfig struct {
	BaseCostPerWatt     float64 `yaml:"base_cost_per_watt" mapstructure:"base_cost_per_watt"`
	InverterCostPerWatt float64 `yaml:"inverter_cost_per_watt" mapstructure:"inverter_cost_per_watt"`
	ElectricalCost      float64 `yaml:"electrical_cost" mapstructure:"electrical_cost"`
	PermitCost          float64 `yaml:"permit_cost" mapstructure:"permit_cost"`
	InspectionCost      float64 `yaml:"inspection_cost" mapstructure:"inspection_cost"`
	LaborCostPerHour    float64 `yaml:"labor_cost_per_hour" mapstructure:"labor_cost_per_hour"`
	InstallHoursPerKW   float64 `yaml:"install_hours_per_kw" mapstructure:"install_hours_per_kw"`
}

// FinancialConfig holds the financial modeling parameters. All fields except
// ElectricityRate are fractions in [0,1]; ElectricityRate is USD/kWh.
type FinancialConfig struct {
	FederalTaxCredit   float64 `yaml:"federal_tax_credit" mapstructure:"federal_tax_credit"`
	ElectricityRate    float64 `yaml:"average_electricity_rate" mapstructure:"average_electricity_rate"`
	AnnualRateIncrease float64 `yaml:"annual_rate_increase" mapstructure:"annual_rate_increase"`
	SystemDegradation  float64 `yaml:"system_degradation" mapstructure:"system_degradation"`
	DiscountRate       float64 `yaml:"discount_rate" mapstructure:"discount_rate"`
}

// LocationConfig holds the default site coordinates.
type LocationConfig struct {
	Latitude  float64 `yaml:"latitude" mapstructure:"latitude"`
	Longitude float64 `yaml:"longitude" mapstructure:"longitude"`
}

// AnalysisConfig holds the layout planning constants.
type AnalysisConfig struct {
	SpacingFactor            float64 `yaml:"spacing_factor" mapstructure:"spacing_factor"`
	PanelsPerObstruction     float64 `yaml:"panels_per_obstruction" mapstructure:"panels_per_obstruction"`
	DefaultShadingMultiplier float64 `yaml:"default_shading_multiplier" mapstructure:"default_shading_multiplier"`
}

// VisionConfig holds the rooftop vision collaborator settings.
type VisionConfig struct {
	Key       string  `yaml:"key" mapstructure:"key"`
	Model     string  `yaml:"model" mapstructure:"model"`
	MaxTokens int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RPS       float64 `yaml:"rps" mapstructure:"rps"`
}

// StoreConfig configures the run persistence backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// BatchConfig configures batch processing.
type BatchConfig struct {
	MaxConcurrentSites int `yaml:"max_concurrent_sites" mapstructure:"max_concurrent_sites"`
}

// ServerConfig configures the analysis HTTP server.
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
	v.SetEnvPrefix("ROOFTOP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "rooftop.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("batch.max_concurrent_sites", 5)

	v.SetDefault("panels", defaultPanelCatalog())

	v.SetDefault("installation.base_cost_per_watt", 1.50)
	v.SetDefault("installation.inverter_cost_per_watt", 0.30)
	v.SetDefault("installation.electrical_cost", 2000.0)
	v.SetDefault("installation.permit_cost", 500.0)
	v.SetDefault("installation.inspection_cost", 300.0)
	v.SetDefault("installation.labor_cost_per_hour", 75.0)
	v.SetDefault("installation.install_hours_per_kw", 8.0)

	v.SetDefault("financial.federal_tax_credit", 0.30)
	v.SetDefault("financial.average_electricity_rate", 0.13)
	v.SetDefault("financial.annual_rate_increase", 0.03)
	v.SetDefault("financial.system_degradation", 0.005)
	v.SetDefault("financial.discount_rate", 0.06)

	v.SetDefault("location.latitude", 37.7749)
	v.SetDefault("location.longitude", -122.4194)

	v.SetDefault("analysis.spacing_factor", 0.85)
	v.SetDefault("analysis.panels_per_obstruction", 2.5)
	v.SetDefault("analysis.default_shading_multiplier", 0.85)

	v.SetDefault("vision.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("vision.max_tokens", 2000)
	v.SetDefault("vision.rps", 1.0)

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

// defaultPanelCatalog returns the built-in panel variants.
func defaultPanelCatalog() map[string]map[string]float64 {
	return map[string]map[string]float64{
		"standard_residential": {
			"power_rating": 400, "efficiency": 0.20, "area": 1.65, "cost_per_watt": 3.50,
		},
		"high_efficiency": {
			"power_rating": 450, "efficiency": 0.22, "area": 1.65, "cost_per_watt": 4.00,
		},
		"premium": {
			"power_rating": 500, "efficiency": 0.24, "area": 1.65, "cost_per_watt": 4.50,
		},
	}
}

// Validate checks that the configuration can support an analysis. Missing or
// out-of-range parameters are programmer errors and fail fast here rather
// than mid-calculation.
func (c *Config) Validate() error {
	if len(c.Panels) == 0 {
		return eris.New("config: panel catalog is empty")
	}
	for name, p := range c.Panels {
		if p.PowerRatingW <= 0 {
			return eris.Errorf("config: panel %q has non-positive power rating", name)
		}
		if p.AreaSqm <= 0 {
			return eris.Errorf("config: panel %q has non-positive area", name)
		}
		if p.Efficiency <= 0 || p.Efficiency > 1 {
			return eris.Errorf("config: panel %q efficiency %v outside (0,1]", name, p.Efficiency)
		}
		if p.CostPerWatt <= 0 {
			return eris.Errorf("config: panel %q has non-positive cost per watt", name)
		}
	}

	if c.Financial.ElectricityRate <= 0 {
		return eris.New("config: average_electricity_rate must be positive")
	}
	fractions := []struct {
		name  string
		value float64
	}{
		{"federal_tax_credit", c.Financial.FederalTaxCredit},
		{"annual_rate_increase", c.Financial.AnnualRateIncrease},
		{"system_degradation", c.Financial.SystemDegradation},
		{"discount_rate", c.Financial.DiscountRate},
	}
	for _, f := range fractions {
		if f.value < 0 || f.value > 1 {
			return eris.Errorf("config: financial.%s %v outside [0,1]", f.name, f.value)
		}
	}

	if c.Analysis.SpacingFactor <= 0 || c.Analysis.SpacingFactor > 1 {
		return eris.Errorf("config: analysis.spacing_factor %v outside (0,1]", c.Analysis.SpacingFactor)
	}
	if c.Analysis.PanelsPerObstruction < 0 {
		return eris.New("config: analysis.panels_per_obstruction must be non-negative")
	}

	return nil
}

// Panel returns the named panel spec. Empty name selects the default variant.
func (c *Config) Panel(name string) (PanelSpec, error) {
	if name == "" {
		name = "standard_residential"
	}
	spec, ok := c.Panels[name]
	if !ok {
		return PanelSpec{}, eris.Errorf("config: unknown panel type %q (have %s)", name, strings.Join(c.PanelTypes(), ", "))
	}
	return spec, nil
}

// PanelTypes returns the catalog names in sorted order.
func (c *Config) PanelTypes() []string {
	names := make([]string, 0, len(c.Panels))
	for name := range c.Panels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
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
