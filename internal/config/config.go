package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Config holds the full service configuration.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port       int    `mapstructure:"port"`
	CORSOrigin string `mapstructure:"corsorigin"`
}

// DatabaseConfig holds Postgres settings.
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"`
	MigrationsPath string `mapstructure:"migrationspath"`
}

// AuthConfig holds settings for validating actor tokens issued by the
// upstream auth service.
type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtsecret"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load loads configuration from a .env file and environment variables
// with the given prefix (e.g. "TRACKLITE_"). TRACKLITE_DATABASE_HOST
// maps to database.host.
func Load(prefix string, target interface{}) error {
	v := viper.New()

	// .env file is optional.
	v.SetConfigFile(".env")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// A malformed .env surfaces during Unmarshal if it matters.
		}
	}

	// Viper's AutomaticEnv does not play well with Unmarshal when the
	// keys are not already known, so populate them explicitly.
	prefixUpper := strings.ToUpper(prefix)
	for _, envStr := range os.Environ() {
		pair := strings.SplitN(envStr, "=", 2)
		key, value := pair[0], pair[1]

		if strings.HasPrefix(key, prefixUpper) {
			propKey := strings.TrimPrefix(key, prefixUpper)
			propKey = strings.ToLower(strings.ReplaceAll(propKey, "_", "."))
			propKey = strings.TrimPrefix(propKey, ".")
			v.Set(propKey, value)
		}
	}

	if err := v.Unmarshal(target); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return nil
}

// Default returns a Config with development defaults applied.
func Default() Config {
	return Config{
		Server:   ServerConfig{Port: 3001, CORSOrigin: "http://localhost:5173"},
		Database: DatabaseConfig{Host: "localhost", Port: 5432, User: "tracklite", Name: "tracklite", MigrationsPath: "migrations"},
		Log:      LogConfig{Level: "INFO", Format: "json"},
	}
}
