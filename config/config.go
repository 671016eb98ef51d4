package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"nfl-pool/logging"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig `json:"server"`

	// Database configuration
	Database DatabaseConfig `json:"database"`

	// Logging configuration
	Logging LoggingConfig `json:"logging"`

	// Authentication configuration
	Auth AuthConfig `json:"auth"`

	// Application configuration
	App AppConfig `json:"app"`

	// Game results provider configuration
	Gateway GatewayConfig `json:"gateway"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port        string `json:"port"`
	Host        string `json:"host"`
	UseTLS      bool   `json:"use_tls"`
	BehindProxy bool   `json:"behind_proxy"`
	CertFile    string `json:"cert_file"`
	KeyFile     string `json:"key_file"`
	Environment string `json:"environment"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string        `json:"host"`
	Port     string        `json:"port"`
	Username string        `json:"username"`
	Password string        `json:"password"`
	Database string        `json:"database"`
	Timeout  time.Duration `json:"timeout"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `json:"level"`
	Prefix      string `json:"prefix"`
	EnableColor bool   `json:"enable_color"`
}

// AuthConfig holds authentication configuration for the admin endpoints
type AuthConfig struct {
	JWTSecret   string `json:"jwt_secret"`
	CronKeyHash string `json:"cron_key_hash"` // bcrypt hash of the scheduler's shared key
}

// AppConfig holds application-specific configuration
type AppConfig struct {
	CurrentSeason    int           `json:"current_season"`
	IsDevelopment    bool          `json:"is_development"`
	InterWeekDelay   time.Duration `json:"inter_week_delay"`
	SchedulerEnabled bool          `json:"scheduler_enabled"`
	ScheduleSpec     string        `json:"schedule_spec"`
	FavoritesEnabled bool          `json:"favorites_enabled"`
	PoolSettingsFile string        `json:"pool_settings_file"`
	SnapshotDir      string        `json:"snapshot_dir"`
	SnapshotKeep     time.Duration `json:"snapshot_keep"`
}

// GatewayConfig holds the game results provider configuration
type GatewayConfig struct {
	BaseURL     string        `json:"base_url"`
	OddsBaseURL string        `json:"odds_base_url"`
	Timeout     time.Duration `json:"timeout"`
	MaxRetries  int           `json:"max_retries"` // retries after the first attempt
	RetryBase   time.Duration `json:"retry_base"`
	RetryCap    time.Duration `json:"retry_cap"`
}

const defaultJWTSecret = "your-secret-key-change-in-production"

// Load loads configuration from environment variables and .env file
func Load() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		// Don't treat missing .env as an error
		logging.Warnf("Could not load .env file: %v", err)
	}

	environment := getEnv("ENVIRONMENT", "development")
	isDevelopment := strings.ToLower(environment) == "development"

	config := &Config{
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			Host:        getEnv("SERVER_HOST", "0.0.0.0"),
			UseTLS:      getBoolEnv("USE_TLS", false),
			BehindProxy: getBoolEnv("BEHIND_PROXY", false),
			CertFile:    getEnv("TLS_CERT_FILE", "server.crt"),
			KeyFile:     getEnv("TLS_KEY_FILE", "server.key"),
			Environment: environment,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "27017"),
			Username: getEnv("DB_USERNAME", ""),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "nfl_pool"),
			Timeout:  getDurationEnv("DB_TIMEOUT", 10*time.Second),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Prefix:      getEnv("LOG_PREFIX", "nfl-pool"),
			EnableColor: getBoolEnv("LOG_COLOR", true),
		},
		Auth: AuthConfig{
			JWTSecret:   getEnv("JWT_SECRET", defaultJWTSecret),
			CronKeyHash: getEnv("CRON_KEY_HASH", ""),
		},
		App: AppConfig{
			CurrentSeason:    getIntEnv("CURRENT_SEASON", 2025),
			IsDevelopment:    isDevelopment,
			InterWeekDelay:   getDurationEnv("INTER_WEEK_DELAY", 2*time.Second),
			SchedulerEnabled: getBoolEnv("SCHEDULER_ENABLED", true),
			ScheduleSpec:     getEnv("RECAP_SCHEDULE", "0 */6 * * *"),
			FavoritesEnabled: getBoolEnv("FAVORITES_ENABLED", true),
			PoolSettingsFile: getEnv("POOL_SETTINGS_FILE", ""),
			SnapshotDir:      getEnv("SNAPSHOT_DIR", "snapshots"),
			SnapshotKeep:     getDurationEnv("SNAPSHOT_KEEP", 30*24*time.Hour),
		},
		Gateway: GatewayConfig{
			BaseURL:     getEnv("RESULTS_BASE_URL", "https://site.api.espn.com/apis/site/v2/sports/football/nfl/scoreboard"),
			Timeout:     getDurationEnv("RESULTS_TIMEOUT", 10*time.Second),
			OddsBaseURL: getEnv("RESULTS_ODDS_URL", "https://sports.core.api.espn.com/v2/sports/football/leagues/nfl"),
			MaxRetries:  getIntEnv("RESULTS_MAX_RETRIES", 3),
			RetryBase:   getDurationEnv("RESULTS_RETRY_BASE", time.Second),
			RetryCap:    getDurationEnv("RESULTS_RETRY_CAP", 5*time.Second),
		},
	}

	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration for required fields and sensible values
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Server.UseTLS && !c.Server.BehindProxy {
		if c.Server.CertFile == "" || c.Server.KeyFile == "" {
			return fmt.Errorf("TLS certificate and key files are required when USE_TLS=true")
		}
		if _, err := os.Stat(c.Server.CertFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS certificate file not found: %s", c.Server.CertFile)
		}
		if _, err := os.Stat(c.Server.KeyFile); os.IsNotExist(err) {
			return fmt.Errorf("TLS key file not found: %s", c.Server.KeyFile)
		}
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Port == "" {
		return fmt.Errorf("database port is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	if c.Auth.JWTSecret == defaultJWTSecret && !c.App.IsDevelopment {
		return fmt.Errorf("JWT secret must be changed in production")
	}

	if c.App.CurrentSeason < 2020 || c.App.CurrentSeason > 2035 {
		return fmt.Errorf("current season must be between 2020 and 2035, got: %d", c.App.CurrentSeason)
	}
	if c.App.InterWeekDelay < 0 {
		return fmt.Errorf("inter-week delay must not be negative")
	}
	if c.App.SchedulerEnabled && c.App.ScheduleSpec == "" {
		return fmt.Errorf("RECAP_SCHEDULE is required when the scheduler is enabled")
	}

	if c.Gateway.BaseURL == "" {
		return fmt.Errorf("results provider base URL is required")
	}
	if c.Gateway.MaxRetries < 0 {
		return fmt.Errorf("max retries must not be negative, got: %d", c.Gateway.MaxRetries)
	}
	if c.Gateway.RetryCap < c.Gateway.RetryBase {
		return fmt.Errorf("retry cap (%s) must be at least the retry base (%s)", c.Gateway.RetryCap, c.Gateway.RetryBase)
	}

	return nil
}

// GetServerAddress returns the full server address
func (c *Config) GetServerAddress() string {
	return c.Server.Host + ":" + c.Server.Port
}

// GetMongoURI returns the MongoDB connection URI
func (c *Config) GetMongoURI() string {
	if c.Database.Username != "" && c.Database.Password != "" {
		return fmt.Sprintf("mongodb://%s:%s@%s:%s/%s?authSource=%s",
			c.Database.Username, c.Database.Password,
			c.Database.Host, c.Database.Port,
			c.Database.Database, c.Database.Database)
	}
	return fmt.Sprintf("mongodb://%s:%s/%s",
		c.Database.Host, c.Database.Port, c.Database.Database)
}

// IsSchedulerEnabled reports whether the recap scheduler should run
func (c *Config) IsSchedulerEnabled() bool {
	return c.App.SchedulerEnabled
}

// IsCronKeyConfigured reports whether scheduler key authentication is available
func (c *Config) IsCronKeyConfigured() bool {
	return c.Auth.CronKeyHash != ""
}

// LogConfiguration logs the current configuration (without sensitive data)
func (c *Config) LogConfiguration() {
	logging.Info("=== Application Configuration ===")
	logging.Infof("Server: %s (TLS: %t, Behind Proxy: %t, Environment: %s)",
		c.GetServerAddress(), c.Server.UseTLS, c.Server.BehindProxy, c.Server.Environment)
	logging.Infof("Database: %s:%s/%s (Username: %s, Auth: %t)",
		c.Database.Host, c.Database.Port, c.Database.Database,
		c.Database.Username, c.Database.Password != "")
	logging.Infof("Logging: Level=%s, Prefix=%s, Color=%t",
		c.Logging.Level, c.Logging.Prefix, c.Logging.EnableColor)
	logging.Infof("Auth: CronKey=%t", c.IsCronKeyConfigured())
	logging.Infof("App: Season=%d, Development=%t, Scheduler=%t (%s), Favorites=%t, InterWeekDelay=%s",
		c.App.CurrentSeason, c.App.IsDevelopment, c.App.SchedulerEnabled, c.App.ScheduleSpec,
		c.App.FavoritesEnabled, c.App.InterWeekDelay)
	logging.Infof("Gateway: %s (Timeout=%s, Retries=%d, Backoff=%s..%s)",
		c.Gateway.BaseURL, c.Gateway.Timeout, c.Gateway.MaxRetries, c.Gateway.RetryBase, c.Gateway.RetryCap)
	logging.Info("================================")
}

// Helper functions for environment variable parsing

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
