package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lazysearch/lazysearch/internal/index"
)

// Environment variables read from the process or a .env file when no
// application is configured.
const (
	EnvAppID     = "ALGOLIA_APP_ID"
	EnvAPIKey    = "ALGOLIA_API_KEY"
	EnvIndexName = "ALGOLIA_INDEX_NAME"
)

// Config holds all application configuration.
type Config struct {
	Server        ServerConfig    `mapstructure:"server" yaml:"server"`
	Logging       LoggingConfig   `mapstructure:"logging" yaml:"logging"`
	Search        SearchConfig    `mapstructure:"search" yaml:"search"`
	Cache         CacheConfig     `mapstructure:"cache" yaml:"cache"`
	Algolia       AlgoliaConfig   `mapstructure:"algolia" yaml:"algolia"`
	Scheduler     SchedulerConfig `mapstructure:"scheduler" yaml:"scheduler"`
	DeveloperMode bool            `mapstructure:"developer_mode" yaml:"developer_mode"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `mapstructure:"host" yaml:"host"`
	Port int    `mapstructure:"port" yaml:"port"`
	// SearchRateLimit caps one-shot REST searches per client IP and minute.
	// Zero disables the limit.
	SearchRateLimit int `mapstructure:"search_rate_limit" yaml:"search_rate_limit"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	Format     string `mapstructure:"format" yaml:"format"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// SearchConfig holds controller defaults.
type SearchConfig struct {
	DefaultIndex string        `mapstructure:"default_index" yaml:"default_index"`
	Delay        time.Duration `mapstructure:"delay" yaml:"delay"`
	HitsPerPage  int           `mapstructure:"hits_per_page" yaml:"hits_per_page"`
	StaleResults bool          `mapstructure:"stale_results" yaml:"stale_results"`
	PingTimeout  time.Duration `mapstructure:"ping_timeout" yaml:"ping_timeout"`
	// MockLatency delays every mock response in developer mode.
	MockLatency time.Duration `mapstructure:"mock_latency" yaml:"mock_latency"`
}

// CacheConfig holds per-index result cache configuration.
type CacheConfig struct {
	Size int           `mapstructure:"size" yaml:"size"`
	TTL  time.Duration `mapstructure:"ttl" yaml:"ttl"`
}

// AlgoliaConfig holds remote index configuration.
type AlgoliaConfig struct {
	Applications []ApplicationConfig `mapstructure:"applications" yaml:"applications"`
	Timeout      time.Duration       `mapstructure:"timeout" yaml:"timeout"`
}

// ApplicationConfig holds the credentials and indexes of one application.
type ApplicationConfig struct {
	AppID   string   `mapstructure:"app_id" yaml:"app_id"`
	APIKey  string   `mapstructure:"api_key" yaml:"api_key"`
	Indexes []string `mapstructure:"indexes" yaml:"indexes"`
	Hosts   []string `mapstructure:"hosts" yaml:"hosts,omitempty"`
}

// SchedulerConfig holds cron expressions for background tasks. An empty
// expression disables the task schedule.
type SchedulerConfig struct {
	CacheRefreshCron string `mapstructure:"cache_refresh_cron" yaml:"cache_refresh_cron"`
	IndexHealthCron  string `mapstructure:"index_health_cron" yaml:"index_health_cron"`
}

// DevIndexes are the indexes served by the mock backend when no application
// is configured in developer mode.
var DevIndexes = []string{"movies", "series"}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			SearchRateLimit: 120,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Search: SearchConfig{
			Delay:       800 * time.Millisecond,
			HitsPerPage: 10,
			PingTimeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Size: 1000,
		},
		Algolia: AlgoliaConfig{
			Timeout: 5 * time.Second,
		},
		Scheduler: SchedulerConfig{
			CacheRefreshCron: "0 * * * *",
			IndexHealthCron:  "*/5 * * * *",
		},
	}
}

// Load reads configuration from .env, file and environment variables.
// Priority: environment variables > config file > defaults
func Load(configPath string) (*Config, error) {
	return LoadWithEnvFile(configPath, ".env")
}

// LoadWithEnvFile is Load with an explicit dotenv path. Variables already
// present in the environment are not overwritten.
func LoadWithEnvFile(configPath, envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read env file: %w", err)
		}
	}

	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.lazysearch")
	}

	v.SetEnvPrefix("LAZYSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if len(cfg.Algolia.Applications) == 0 {
		if app, ok := applicationFromEnv(); ok {
			cfg.Algolia.Applications = []ApplicationConfig{app}
		}
	}

	return cfg, nil
}

func applicationFromEnv() (ApplicationConfig, bool) {
	appID := os.Getenv(EnvAppID)
	if appID == "" {
		return ApplicationConfig{}, false
	}
	app := ApplicationConfig{
		AppID:  appID,
		APIKey: os.Getenv(EnvAPIKey),
	}
	for _, name := range strings.Split(os.Getenv(EnvIndexName), ",") {
		if name = strings.TrimSpace(name); name != "" {
			app.Indexes = append(app.Indexes, name)
		}
	}
	return app, true
}

// setDefaults sets default values in viper
func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.search_rate_limit", d.Server.SearchRateLimit)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.path", "")
	v.SetDefault("logging.max_size_mb", 10)
	v.SetDefault("logging.max_backups", 5)
	v.SetDefault("logging.max_age_days", 30)
	v.SetDefault("logging.compress", true)

	v.SetDefault("search.default_index", "")
	v.SetDefault("search.delay", d.Search.Delay)
	v.SetDefault("search.hits_per_page", d.Search.HitsPerPage)
	v.SetDefault("search.stale_results", false)
	v.SetDefault("search.ping_timeout", d.Search.PingTimeout)
	v.SetDefault("search.mock_latency", 0)

	v.SetDefault("cache.size", d.Cache.Size)
	v.SetDefault("cache.ttl", 0)

	v.SetDefault("algolia.timeout", d.Algolia.Timeout)

	v.SetDefault("scheduler.cache_refresh_cron", d.Scheduler.CacheRefreshCron)
	v.SetDefault("scheduler.index_health_cron", d.Scheduler.IndexHealthCron)

	v.SetDefault("developer_mode", false)
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d is out of range", c.Server.Port))
	}
	if c.Server.SearchRateLimit < 0 {
		errs = append(errs, fmt.Errorf("server.search_rate_limit must not be negative"))
	}
	if c.Search.Delay < 0 {
		errs = append(errs, fmt.Errorf("search.delay must not be negative"))
	}
	if c.Search.HitsPerPage < 0 {
		errs = append(errs, fmt.Errorf("search.hits_per_page must not be negative"))
	}
	if c.Cache.Size < 0 {
		errs = append(errs, fmt.Errorf("cache.size must not be negative"))
	}
	if c.Cache.TTL < 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must not be negative"))
	}

	if len(c.Algolia.Applications) == 0 && !c.DeveloperMode {
		errs = append(errs, fmt.Errorf("no algolia application configured (set %s or enable developer_mode)", EnvAppID))
	}

	seen := make(map[string]bool)
	for i, app := range c.Algolia.Applications {
		if app.AppID == "" {
			errs = append(errs, fmt.Errorf("algolia.applications[%d]: app_id is required", i))
		}
		if app.APIKey == "" && !c.DeveloperMode {
			errs = append(errs, fmt.Errorf("algolia.applications[%d]: api_key is required", i))
		}
		if len(app.Indexes) == 0 {
			errs = append(errs, fmt.Errorf("algolia.applications[%d]: at least one index is required", i))
		}
		for _, name := range app.Indexes {
			if seen[name] {
				errs = append(errs, fmt.Errorf("index %q is defined more than once", name))
			}
			seen[name] = true
		}
	}

	if c.Search.DefaultIndex != "" && len(seen) > 0 && !seen[c.Search.DefaultIndex] {
		errs = append(errs, fmt.Errorf("search.default_index %q is not defined by any application", c.Search.DefaultIndex))
	}

	return errors.Join(errs...)
}

// Applications converts the configured applications. In developer mode
// without any configured application a single application serving
// DevIndexes is returned.
func (c *Config) Applications() []index.Application {
	if len(c.Algolia.Applications) == 0 && c.DeveloperMode {
		return []index.Application{index.DefineApp("dev", "", DevIndexes...)}
	}

	apps := make([]index.Application, 0, len(c.Algolia.Applications))
	for _, a := range c.Algolia.Applications {
		app := index.DefineApp(a.AppID, a.APIKey, a.Indexes...)
		app.Hosts = a.Hosts
		apps = append(apps, app)
	}
	return apps
}

// DefaultIndex returns the configured default index, or the first index of
// the first application.
func (c *Config) DefaultIndex() string {
	if c.Search.DefaultIndex != "" {
		return c.Search.DefaultIndex
	}
	for _, app := range c.Applications() {
		if len(app.Indexes) > 0 {
			return app.Indexes[0]
		}
	}
	return ""
}

// CacheSettings returns the per-index cache configuration.
func (c *Config) CacheSettings() index.CacheConfig {
	return index.CacheConfig{TTL: c.Cache.TTL, MaxItems: c.Cache.Size}
}

// Dump renders the effective configuration as YAML with API keys redacted.
func (c *Config) Dump() ([]byte, error) {
	out := *c
	out.Algolia.Applications = make([]ApplicationConfig, len(c.Algolia.Applications))
	for i, app := range c.Algolia.Applications {
		if app.APIKey != "" {
			app.APIKey = "********"
		}
		out.Algolia.Applications[i] = app
	}
	return yaml.Marshal(&out)
}

// Address returns the server address string.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
