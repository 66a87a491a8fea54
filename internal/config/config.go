package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/joelkehle/nac-tco/internal/tco"
)

const EnvPrefix = "NACTCO"

type Config struct {
	Server   ServerConfig      `mapstructure:"server"`
	Catalog  CatalogConfig     `mapstructure:"catalog"`
	Store    StoreConfig       `mapstructure:"store"`
	Logging  LoggingConfig     `mapstructure:"logging"`
	Metrics  MetricsConfig     `mapstructure:"metrics"`
	Tracing  TracingConfig     `mapstructure:"tracing"`
	Report   ReportConfig      `mapstructure:"report"`
	Engine   EngineConfig      `mapstructure:"engine"`
	Benefits tco.BenefitPolicy `mapstructure:"benefits"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxBodyBytes    int64         `mapstructure:"max_body_bytes"`
}

// CatalogConfig points at an optional YAML catalog. Empty uses the built-in
// tables.
type CatalogConfig struct {
	Path string `mapstructure:"path"`
}

// StoreConfig enables the profile cache when Path is set.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	ServiceName string  `mapstructure:"service_name"`
	Endpoint    string  `mapstructure:"endpoint"`
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
}

type ReportConfig struct {
	ChromePath     string        `mapstructure:"chrome_path"`
	PDFTimeout     time.Duration `mapstructure:"pdf_timeout"`
	Narrative      bool          `mapstructure:"narrative"`
	NarrativeModel string        `mapstructure:"narrative_model"`
}

type EngineConfig struct {
	Parallelism int `mapstructure:"parallelism"`
}

// Load reads config.yaml from configPath (or the working directory) and
// overlays NACTCO_* environment variables. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// EngineOptions carries the configured benefit policy and parallelism into
// tco.NewEngine.
func (c *Config) EngineOptions() []tco.Option {
	return []tco.Option{
		tco.WithBenefitPolicy(c.Benefits),
		tco.WithParallelism(c.Engine.Parallelism),
	}
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.max_body_bytes", 1<<20)

	v.SetDefault("catalog.path", "")
	v.SetDefault("store.path", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("metrics.namespace", "nactco")

	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.service_name", "nac-tco")
	v.SetDefault("tracing.endpoint", "")
	v.SetDefault("tracing.insecure", true)
	v.SetDefault("tracing.sample_rate", 1.0)

	v.SetDefault("report.chrome_path", "")
	v.SetDefault("report.pdf_timeout", "30s")
	v.SetDefault("report.narrative", false)
	v.SetDefault("report.narrative_model", "")

	v.SetDefault("engine.parallelism", 0)

	d := tco.DefaultBenefitPolicy()
	v.SetDefault("benefits.productivity_per_device", d.ProductivityPerDevice)
	v.SetDefault("benefits.compliance_per_framework", d.CompliancePerFramework)
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Server.Addr) == "" {
		return errors.New("server.addr is required")
	}
	if c.Server.MaxBodyBytes <= 0 {
		return errors.New("server.max_body_bytes must be positive")
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q not one of debug, info, warn, error", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format %q not one of json, console", c.Logging.Format)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate %g outside [0, 1]", c.Tracing.SampleRate)
	}
	if c.Benefits.ProductivityPerDevice < 0 || c.Benefits.CompliancePerFramework < 0 {
		return errors.New("benefit constants must not be negative")
	}
	for name, f := range map[string]*float64{
		"benefits.risk_reduction_fraction":      c.Benefits.RiskReductionFraction,
		"benefits.insurance_reduction_fraction": c.Benefits.InsuranceReductionFraction,
	} {
		if f != nil && (*f < 0 || *f > 1) {
			return fmt.Errorf("%s %g outside [0, 1]", name, *f)
		}
	}
	return nil
}
