package config

import (
	"os"

	"nfl-pool/database"
	"nfl-pool/logging"
	"nfl-pool/services"
)

// ToDatabaseConfig converts Config to database.Config
func (c *Config) ToDatabaseConfig() database.Config {
	return database.Config{
		Host:     c.Database.Host,
		Port:     c.Database.Port,
		Username: c.Database.Username,
		Password: c.Database.Password,
		Database: c.Database.Database,
		Timeout:  c.Database.Timeout,
	}
}

// ToLoggingConfig converts Config to logging.Config
func (c *Config) ToLoggingConfig() logging.Config {
	return logging.Config{
		Level:       c.Logging.Level,
		Output:      os.Stdout,
		Prefix:      c.Logging.Prefix,
		EnableColor: c.Logging.EnableColor,
	}
}

// ToGatewayConfig converts Config to services.GatewayConfig
func (c *Config) ToGatewayConfig() services.GatewayConfig {
	return services.GatewayConfig{
		BaseURL:     c.Gateway.BaseURL,
		OddsBaseURL: c.Gateway.OddsBaseURL,
		Timeout:     c.Gateway.Timeout,
		Retry: services.RetryPolicy{
			MaxRetries: c.Gateway.MaxRetries,
			BaseDelay:  c.Gateway.RetryBase,
			MaxDelay:   c.Gateway.RetryCap,
		},
	}
}
