package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Reddit  RedditConfig  `mapstructure:"reddit"`
	Scorer  ScorerConfig  `mapstructure:"scorer"`
	Search  SearchConfig  `mapstructure:"search"`
	Catalog CatalogConfig `mapstructure:"catalog"`
	Storage StorageConfig `mapstructure:"storage"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port int        `mapstructure:"port"`
	Mode string     `mapstructure:"mode"`
	CORS CORSConfig `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	AllowAllOrigins bool     `mapstructure:"allow_all_origins"`
}

// RedditConfig holds the script-app credentials used for the password grant.
type RedditConfig struct {
	ClientID     string        `mapstructure:"client_id"`
	ClientSecret string        `mapstructure:"client_secret"`
	Username     string        `mapstructure:"username"`
	Password     string        `mapstructure:"password"`
	UserAgent    string        `mapstructure:"user_agent"`
	AuthURL      string        `mapstructure:"auth_url"`
	APIURL       string        `mapstructure:"api_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// ScorerConfig configures the OpenAI-compatible relevance scorer.
type ScorerConfig struct {
	Model       string        `mapstructure:"model"`
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Temperature float32       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type SearchConfig struct {
	PageSize       int     `mapstructure:"page_size"`
	FetchLimit     int     `mapstructure:"fetch_limit"`
	ScoreThreshold float64 `mapstructure:"score_threshold"`
	MinSubscribers int     `mapstructure:"min_subscribers"`
	MaxConcurrency int     `mapstructure:"max_concurrency"`
}

// CatalogConfig is the ordered list of subreddits searched when a request
// names none.
type CatalogConfig struct {
	Subreddits []string `mapstructure:"subreddits"`
}

// StorageConfig configures the optional archive of downloaded images.
type StorageConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Type      string `mapstructure:"type"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Bucket    string `mapstructure:"bucket"`
	Region    string `mapstructure:"region"`
	PublicURL string `mapstructure:"public_url"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

func Load(configPath string) (*Config, error) {
	// Load .env file if exists
	_ = godotenv.Load()

	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Credentials keep the variable names the deployment already uses
	v.BindEnv("reddit.client_id", "REDDIT_CLIENT_ID")
	v.BindEnv("reddit.client_secret", "REDDIT_CLIENT_SECRET")
	v.BindEnv("reddit.username", "REDDIT_USERNAME")
	v.BindEnv("reddit.password", "REDDIT_PASSWORD")
	v.BindEnv("reddit.user_agent", "REDDIT_USER_AGENT")
	v.BindEnv("scorer.api_key", "OPENAI_API_KEY")
	v.BindEnv("scorer.base_url", "OPENAI_BASE_URL")
	v.BindEnv("scorer.model", "SCORER_MODEL")
	v.BindEnv("storage.enabled", "STORAGE_ENABLED")
	v.BindEnv("storage.endpoint", "STORAGE_ENDPOINT")
	v.BindEnv("storage.access_key", "STORAGE_ACCESS_KEY")
	v.BindEnv("storage.secret_key", "STORAGE_SECRET_KEY")
	v.BindEnv("storage.bucket", "STORAGE_BUCKET")
	v.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// An explicitly empty list in a config file still means "use the defaults"
	if len(cfg.Catalog.Subreddits) == 0 {
		cfg.Catalog.Subreddits = DefaultCatalog()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.cors.allow_all_origins", true)
	v.SetDefault("server.cors.allowed_origins", []string{})
	v.SetDefault("reddit.user_agent", "MemeFinderApp/1.0.0")
	v.SetDefault("reddit.auth_url", "https://www.reddit.com")
	v.SetDefault("reddit.api_url", "https://oauth.reddit.com")
	v.SetDefault("reddit.timeout", 30*time.Second)
	v.SetDefault("scorer.model", "gpt-3.5-turbo")
	v.SetDefault("scorer.base_url", "https://api.openai.com/v1")
	v.SetDefault("scorer.max_tokens", 10)
	v.SetDefault("scorer.temperature", 0.5)
	v.SetDefault("scorer.timeout", 30*time.Second)
	v.SetDefault("search.page_size", 25)
	v.SetDefault("search.fetch_limit", 100)
	v.SetDefault("search.score_threshold", 0.5)
	v.SetDefault("search.min_subscribers", 10000)
	v.SetDefault("search.max_concurrency", 0)
	v.SetDefault("catalog.subreddits", DefaultCatalog())
	v.SetDefault("storage.enabled", false)
	v.SetDefault("storage.use_ssl", true)
	v.SetDefault("storage.bucket", "memes")
	v.SetDefault("metrics.enabled", true)
}
