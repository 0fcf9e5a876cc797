package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the application configuration loaded from files and environment variables.
type Config struct {
	AppName    string `mapstructure:"app_name"`
	Env        string `mapstructure:"app_env"`
	LogLevel   string `mapstructure:"log_level"`
	ListenAddr string `mapstructure:"listen_addr"`

	SerpAPIKey      string `mapstructure:"serpapi_api_key"`
	SerpAPIBaseURL  string `mapstructure:"serpapi_base_url"`
	SerpAPIEngine   string `mapstructure:"serpapi_engine"`
	SerpAPICountry  string `mapstructure:"serpapi_country"`
	SerpAPILanguage string `mapstructure:"serpapi_language"`

	DefaultResultLimit    int            `mapstructure:"default_result_limit"`
	RequestTimeoutSeconds int64          `mapstructure:"request_timeout_seconds"`
	RequestTimeout        time.Duration  `mapstructure:"-"`
	DateLocationName      string         `mapstructure:"date_location"`
	DateLocation          *time.Location `mapstructure:"-"`

	PublishersFile string `mapstructure:"publishers_file"`
	MetricsEnabled bool   `mapstructure:"metrics_enabled"`
}

// String hides the API key when the config is logged.
func (c Config) String() string {
	return fmt.Sprintf("{app=%s env=%s listen=%s engine=%s country=%s limit=%d timeout=%s location=%s publishers=%q}",
		c.AppName, c.Env, c.ListenAddr, c.SerpAPIEngine, c.SerpAPICountry, c.DefaultResultLimit,
		c.RequestTimeout, c.DateLocationName, c.PublishersFile)
}

// Load reads configuration from environment variables and config files.
func Load() (*Config, error) {
	_ = godotenv.Load("configs/.env")

	v := viper.New()

	v.SetDefault("app_name", "khobor-search")
	v.SetDefault("app_env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("serpapi_api_key", "")
	v.SetDefault("serpapi_base_url", "https://serpapi.com/search.json")
	v.SetDefault("serpapi_engine", "google_news")
	v.SetDefault("serpapi_country", "in")
	v.SetDefault("serpapi_language", "")
	v.SetDefault("default_result_limit", 10)
	v.SetDefault("request_timeout_seconds", 15)
	v.SetDefault("date_location", "UTC")
	v.SetDefault("publishers_file", "")
	v.SetDefault("metrics_enabled", true)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(filepath.Join(xdg.ConfigHome, "khobor"))
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := finalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func finalize(cfg *Config) error {
	cfg.SerpAPIKey = strings.TrimSpace(cfg.SerpAPIKey)
	if cfg.SerpAPIKey == "" {
		return fmt.Errorf("serpapi_api_key is required")
	}
	if strings.TrimSpace(cfg.SerpAPIBaseURL) == "" {
		return fmt.Errorf("serpapi_base_url must not be empty")
	}
	if cfg.DefaultResultLimit <= 0 {
		return fmt.Errorf("invalid default_result_limit (must be positive)")
	}
	if cfg.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("invalid request_timeout_seconds (must be positive seconds)")
	}
	cfg.RequestTimeout = time.Duration(cfg.RequestTimeoutSeconds) * time.Second

	loc, err := time.LoadLocation(strings.TrimSpace(cfg.DateLocationName))
	if err != nil {
		return fmt.Errorf("invalid date_location %q: %w", cfg.DateLocationName, err)
	}
	cfg.DateLocation = loc
	return nil
}
