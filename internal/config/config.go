package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Storage providers
const (
	ProviderGoogleDrive = "gdrive"
	ProviderLocal       = "local"
)

// Quota sources for the public stats endpoint
const (
	QuotaSourceFixed   = "fixed"
	QuotaSourceAccount = "account"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Admin    AdminConfig    `mapstructure:"admin"`
	Google   GoogleConfig   `mapstructure:"google"`
	Accounts AccountsConfig `mapstructure:"accounts"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Logger   LoggerConfig   `mapstructure:"logger"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	IndexPath     string        `mapstructure:"index_path"`
	JSONBodyLimit int64         `mapstructure:"json_body_limit"`
	UploadLimit   int64         `mapstructure:"upload_limit"`
}

// AdminConfig holds the shared admin secret
type AdminConfig struct {
	Password string `mapstructure:"password"`
}

// GoogleConfig holds OAuth client settings and per-account credentials
type GoogleConfig struct {
	ClientID      string `mapstructure:"client_id"`
	ClientSecret  string `mapstructure:"client_secret"`
	RedirectURL   string `mapstructure:"redirect_url"`
	RefreshToken  string `mapstructure:"refresh_token"`
	RefreshToken1 string `mapstructure:"refresh_token_1"`
	RefreshToken2 string `mapstructure:"refresh_token_2"`
	FolderID1     string `mapstructure:"folder_id_1"`
	FolderID2     string `mapstructure:"folder_id_2"`
}

// AccountsConfig holds the display names of the two logical servers
type AccountsConfig struct {
	Name1 string `mapstructure:"name_1"`
	Name2 string `mapstructure:"name_2"`
}

// StorageConfig selects and tunes the object-storage provider
type StorageConfig struct {
	Provider          string `mapstructure:"provider"`
	QuotaSource       string `mapstructure:"quota_source"`
	DeleteConcurrency int    `mapstructure:"delete_concurrency"`
	LocalPath         string `mapstructure:"local_path"`
	LocalLimit        int64  `mapstructure:"local_limit"`
	PublicBaseURL     string `mapstructure:"public_base_url"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// PrimaryRefreshToken returns account 0's token, falling back to the shared one.
func (g GoogleConfig) PrimaryRefreshToken() string {
	if g.RefreshToken1 != "" {
		return g.RefreshToken1
	}
	return g.RefreshToken
}

// Load reads an optional .env file, an optional YAML config file and the
// environment, in increasing order of precedence.
func Load(configPath, envPath string) (*Config, error) {
	if envPath != "" {
		if err := gotenv.Load(envPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(configPath); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.index_path", "web/index.html")
	v.SetDefault("server.json_body_limit", 100*1024)
	v.SetDefault("server.upload_limit", 50*1024*1024)

	v.SetDefault("admin.password", "admin123")

	v.SetDefault("google.redirect_url", "https://developers.google.com/oauthplayground")

	v.SetDefault("accounts.name_1", "Server VIP 1")
	v.SetDefault("accounts.name_2", "Server VIP 2")

	v.SetDefault("storage.provider", ProviderGoogleDrive)
	v.SetDefault("storage.quota_source", QuotaSourceFixed)
	v.SetDefault("storage.delete_concurrency", 8)
	v.SetDefault("storage.local_path", "data/drivehub.db")
	v.SetDefault("storage.local_limit", int64(15)*1024*1024*1024)
	v.SetDefault("storage.public_base_url", "http://localhost:3000")

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stdout")
	v.SetDefault("logger.format", "json")
}

// bindEnvVars binds environment variables to configuration keys.
// Names match .env.example.
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("server.host", "HOST")
	v.BindEnv("server.port", "PORT")
	v.BindEnv("admin.password", "ADMIN_PASSWORD")
	v.BindEnv("google.client_id", "GOOGLE_CLIENT_ID")
	v.BindEnv("google.client_secret", "GOOGLE_CLIENT_SECRET")
	v.BindEnv("google.redirect_url", "GOOGLE_REDIRECT_URL")
	v.BindEnv("google.refresh_token", "GOOGLE_REFRESH_TOKEN")
	v.BindEnv("google.refresh_token_1", "GOOGLE_REFRESH_TOKEN_1")
	v.BindEnv("google.refresh_token_2", "GOOGLE_REFRESH_TOKEN_2")
	v.BindEnv("google.folder_id_1", "FOLDER_ID_1")
	v.BindEnv("google.folder_id_2", "FOLDER_ID_2")
	v.BindEnv("storage.provider", "STORAGE_PROVIDER")
	v.BindEnv("storage.public_base_url", "PUBLIC_BASE_URL")
	v.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration.
// Missing Google credentials are not an error: provider calls fail instead.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Admin.Password == "" {
		return fmt.Errorf("admin.password is required")
	}
	if c.Server.UploadLimit <= 0 {
		return fmt.Errorf("server.upload_limit must be positive")
	}

	switch c.Storage.Provider {
	case ProviderGoogleDrive, ProviderLocal:
	default:
		return fmt.Errorf("unknown storage.provider: %q", c.Storage.Provider)
	}

	switch c.Storage.QuotaSource {
	case QuotaSourceFixed, QuotaSourceAccount:
	default:
		return fmt.Errorf("unknown storage.quota_source: %q", c.Storage.QuotaSource)
	}

	if c.Storage.DeleteConcurrency < 0 {
		return fmt.Errorf("storage.delete_concurrency must not be negative: %d", c.Storage.DeleteConcurrency)
	}

	if c.Storage.Provider == ProviderLocal && c.Storage.LocalPath == "" {
		return fmt.Errorf("storage.local_path is required for the local provider")
	}

	return nil
}
