package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/efebarandurmaz/fraytypes/internal/settings"
	"github.com/efebarandurmaz/fraytypes/internal/typedefs"
)

// EnvPrefix prefixes every environment override, e.g. FRAYTYPES_SERVER_ADDR.
const EnvPrefix = "FRAYTYPES"

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Tracing  TracingConfig  `mapstructure:"tracing"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Audit    AuditConfig    `mapstructure:"audit"`
	Defaults DefaultsConfig `mapstructure:"defaults"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	HealthAddr      string        `mapstructure:"health_addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type TracingConfig struct {
	ServiceName  string  `mapstructure:"service_name"`
	Environment  string  `mapstructure:"environment"`
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	SampleRate   float64 `mapstructure:"sample_rate"`
}

type CacheConfig struct {
	// Size is the number of cached selections; 0 disables the cache.
	Size int `mapstructure:"size"`
}

type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Output  string `mapstructure:"output"`
}

// DefaultsConfig overrides the settings declared to the host on first
// activation.
type DefaultsConfig struct {
	FrameScripts bool     `mapstructure:"frame_scripts"`
	ScriptAssets bool     `mapstructure:"script_assets"`
	Extensions   []string `mapstructure:"extensions"`
	Languages    []string `mapstructure:"languages"`
}

// FilterConfig converts the defaults section to a selector config.
func (d DefaultsConfig) FilterConfig() typedefs.FilterConfig {
	return typedefs.FilterConfig{
		FrameScriptEnabled: d.FrameScripts,
		ScriptAssetEnabled: d.ScriptAssets,
		Extensions:         append([]string{}, d.Extensions...),
		Languages:          append([]string{}, d.Languages...),
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	d := settings.Defaults()
	return &Config{
		Server: ServerConfig{
			Addr:            "127.0.0.1:7420",
			HealthAddr:      "127.0.0.1:7421",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log:     LogConfig{Level: "info", Format: "text"},
		Tracing: TracingConfig{ServiceName: "fraytypes", Environment: "development", SampleRate: 1.0},
		Cache:   CacheConfig{Size: 256},
		Audit:   AuditConfig{Enabled: false, Output: "stderr"},
		Defaults: DefaultsConfig{
			FrameScripts: d.FrameScriptEnabled,
			ScriptAssets: d.ScriptAssetEnabled,
			Extensions:   d.Extensions,
			Languages:    d.Languages,
		},
	}
}

// Validate checks configuration for issues and returns warnings.
func (c *Config) Validate() []string {
	var warnings []string

	if c.Server.Addr == "" {
		warnings = append(warnings, "server.addr is empty; the bridge will listen on :http")
	}
	if c.Server.Addr != "" && c.Server.Addr == c.Server.HealthAddr {
		warnings = append(warnings, fmt.Sprintf("server.addr and server.health_addr are both %s", c.Server.Addr))
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		warnings = append(warnings, fmt.Sprintf("tracing sample_rate %.2f is outside [0.0, 1.0]", c.Tracing.SampleRate))
	}
	if c.Cache.Size < 0 {
		warnings = append(warnings, fmt.Sprintf("cache size %d is negative; caching disabled", c.Cache.Size))
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		warnings = append(warnings, fmt.Sprintf("log format '%s' is unknown; using text", c.Log.Format))
	}
	for _, ext := range c.Defaults.Extensions {
		if strings.HasPrefix(ext, ".") {
			warnings = append(warnings, fmt.Sprintf("default extension '%s' should not start with a dot", ext))
		}
	}
	if !c.Defaults.FrameScripts && !c.Defaults.ScriptAssets {
		warnings = append(warnings, "defaults disable both frame scripts and script assets; no type hints will be served")
	}

	return warnings
}

// Load reads configuration from an optional file, a .env file in the
// working directory and the environment. An empty path skips the file; a
// named file that cannot be read is an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v, Default())
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if warnings := cfg.Validate(); len(warnings) > 0 {
		for _, warning := range warnings {
			fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
		}
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override values that
// do not appear in the file.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.health_addr", d.Server.HealthAddr)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("tracing.service_name", d.Tracing.ServiceName)
	v.SetDefault("tracing.environment", d.Tracing.Environment)
	v.SetDefault("tracing.otlp_endpoint", d.Tracing.OTLPEndpoint)
	v.SetDefault("tracing.sample_rate", d.Tracing.SampleRate)
	v.SetDefault("cache.size", d.Cache.Size)
	v.SetDefault("audit.enabled", d.Audit.Enabled)
	v.SetDefault("audit.output", d.Audit.Output)
	v.SetDefault("defaults.frame_scripts", d.Defaults.FrameScripts)
	v.SetDefault("defaults.script_assets", d.Defaults.ScriptAssets)
	v.SetDefault("defaults.extensions", d.Defaults.Extensions)
	v.SetDefault("defaults.languages", d.Defaults.Languages)
}
