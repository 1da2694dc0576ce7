package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix is the prefix for environment overrides, e.g. STACKDIGEST_LISTEN_ADDR
	EnvPrefix = "STACKDIGEST"

	// EnvAccessToken is the environment variable name for the Stack Exchange access token
	EnvAccessToken = "STACKDIGEST_ACCESS_TOKEN"

	// EnvAPIKey is the environment variable name for the Stack Exchange app key
	EnvAPIKey = "STACKDIGEST_API_KEY"

	// DefaultDatabasePath is used when the config does not name a database
	DefaultDatabasePath = "stack_digest.db"
)

// Config represents the application configuration
type Config struct {
	// Stack Exchange API root
	APIBaseURL string `json:"api_base_url" mapstructure:"api_base_url"`

	// Site to query, e.g. "stackoverflow"
	Site string `json:"site" mapstructure:"site"`

	// Response filter; "withbody" includes question bodies
	Filter string `json:"filter" mapstructure:"filter"`

	// Optional tag restriction for the question listing
	Tagged string `json:"tagged,omitempty" mapstructure:"tagged"`

	// App key for a larger request quota (optional, can be set via STACKDIGEST_API_KEY)
	APIKey string `json:"api_key,omitempty" mapstructure:"api_key"`

	// Access token (optional, can be set via STACKDIGEST_ACCESS_TOKEN)
	AccessToken string `json:"access_token,omitempty" mapstructure:"access_token"`

	// Unix time the access token expires at; 0 means it does not expire
	AccessTokenExpiresAt int64 `json:"access_token_expires_at,omitempty" mapstructure:"access_token_expires_at"`

	// Registered Stack Apps credentials used by the auth command
	OAuthClientID     string `json:"oauth_client_id,omitempty" mapstructure:"oauth_client_id"`
	OAuthClientSecret string `json:"oauth_client_secret,omitempty" mapstructure:"oauth_client_secret"`
	OAuthRedirectURL  string `json:"oauth_redirect_url,omitempty" mapstructure:"oauth_redirect_url"`

	// Path to the SQLite database file
	DatabasePath string `json:"database_path" mapstructure:"database_path"`

	// Number of questions to ingest per run
	TotalQuestions int `json:"total_questions" mapstructure:"total_questions"`

	// Courtesy delay between page requests
	PageDelay time.Duration `json:"page_delay" mapstructure:"page_delay"`

	// Answer retrieval retry policy
	MaxRetries     int           `json:"max_retries" mapstructure:"max_retries"`
	InitialBackoff time.Duration `json:"initial_backoff" mapstructure:"initial_backoff"`

	// Per-request timeout against the upstream API
	RequestTimeout time.Duration `json:"request_timeout" mapstructure:"request_timeout"`

	// HTTP listen address for the serve command
	ListenAddr string `json:"listen_addr" mapstructure:"listen_addr"`

	LogLevel  string `json:"log_level" mapstructure:"log_level"`
	LogPretty bool   `json:"log_pretty" mapstructure:"log_pretty"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		APIBaseURL:     "https://api.stackexchange.com/2.3",
		Site:           "stackoverflow",
		Filter:         "withbody",
		DatabasePath:   DefaultDatabasePath,
		TotalQuestions: 1000,
		PageDelay:      time.Second,
		MaxRetries:     5,
		InitialBackoff: 2 * time.Second,
		RequestTimeout: 30 * time.Second,
		ListenAddr:     ":8080",
		LogLevel:       "info",
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("api_base_url", d.APIBaseURL)
	v.SetDefault("site", d.Site)
	v.SetDefault("filter", d.Filter)
	v.SetDefault("tagged", d.Tagged)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("access_token", d.AccessToken)
	v.SetDefault("access_token_expires_at", d.AccessTokenExpiresAt)
	v.SetDefault("oauth_client_id", d.OAuthClientID)
	v.SetDefault("oauth_client_secret", d.OAuthClientSecret)
	v.SetDefault("oauth_redirect_url", d.OAuthRedirectURL)
	v.SetDefault("database_path", d.DatabasePath)
	v.SetDefault("total_questions", d.TotalQuestions)
	v.SetDefault("page_delay", d.PageDelay)
	v.SetDefault("max_retries", d.MaxRetries)
	v.SetDefault("initial_backoff", d.InitialBackoff)
	v.SetDefault("request_timeout", d.RequestTimeout)
	v.SetDefault("listen_addr", d.ListenAddr)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_pretty", d.LogPretty)
}

// LoadConfig loads the configuration from a JSON file. A missing file yields
// the defaults; environment variables override both.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigFile(path)
	v.SetConfigType("json")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// Secrets from the environment always win
	if envToken := os.Getenv(EnvAccessToken); envToken != "" {
		config.AccessToken = envToken
	}
	if envKey := os.Getenv(EnvAPIKey); envKey != "" {
		config.APIKey = envKey
	}

	if config.DatabasePath == "" {
		config.DatabasePath = DefaultDatabasePath
	}

	// Make database path absolute if it's relative
	if !filepath.IsAbs(config.DatabasePath) {
		configDir := filepath.Dir(path)
		config.DatabasePath = filepath.Join(configDir, config.DatabasePath)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks values that would make ingestion misbehave
func (c *Config) Validate() error {
	if c.APIBaseURL == "" {
		return errors.New("api_base_url must not be empty")
	}
	if c.Site == "" {
		return errors.New("site must not be empty")
	}
	if c.TotalQuestions < 0 {
		return fmt.Errorf("total_questions must not be negative, got %d", c.TotalQuestions)
	}
	if c.MaxRetries < 1 {
		return fmt.Errorf("max_retries must be at least 1, got %d", c.MaxRetries)
	}
	if c.PageDelay < 0 || c.InitialBackoff < 0 {
		return errors.New("page_delay and initial_backoff must not be negative")
	}
	return nil
}

// SaveConfig saves the configuration to a JSON file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AccessTokenExpiry returns the token expiry, the zero time when it never expires
func (c *Config) AccessTokenExpiry() time.Time {
	if c.AccessTokenExpiresAt <= 0 {
		return time.Time{}
	}
	return time.Unix(c.AccessTokenExpiresAt, 0)
}

// StoreAccessToken writes token and its expiry into the config file at path,
// leaving every other field as the file has it. A missing file starts from
// the defaults.
func StoreAccessToken(path, token string, expiry time.Time) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		data, err = json.Marshal(Default())
	}
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	fields := map[string]interface{}{}
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	fields["access_token"] = token
	if expiry.IsZero() {
		delete(fields, "access_token_expires_at")
	} else {
		fields["access_token_expires_at"] = expiry.Unix()
	}

	out, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, out, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// CreateDefaultConfig creates a default configuration file if it doesn't exist
func CreateDefaultConfig(path string) error {
	// Check if the file already exists
	if _, err := os.Stat(path); err == nil {
		return nil // File exists, don't overwrite
	}

	config := Default()
	config.Tagged = "java"

	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return SaveConfig(config, path)
}
