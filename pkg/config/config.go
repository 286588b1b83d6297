package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	defaultJWTSecret  = "dev_secret"
	defaultConfigFile = "config.ini"
)

// ErrMissingDatabaseConfig is returned when no connection parameters were supplied.
var ErrMissingDatabaseConfig = errors.New("database connection parameters are not configured")

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
}

// DatabaseConfig carries the connection parameters for the calendar store.
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
	// Source names where the parameters came from, for startup diagnostics.
	Source string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured.
func (c RedisConfig) Enabled() bool {
	return strings.TrimSpace(c.Host) != ""
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// Load builds the configuration from .env, the process environment and the
// key=value connection file named by CONFIG_FILE.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       strings.ToLower(v.GetString("DB_DRIVER")),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
		Source:       "environment",
	}

	connFile := v.GetString("CONFIG_FILE")
	fileCfg, err := LoadConnectionFile(connFile)
	switch {
	case err == nil:
		cfg.Database = mergeConnection(cfg.Database, fileCfg)
		cfg.Database.Source = connFile
	case errors.Is(err, os.ErrNotExist):
		// environment-only configuration; validated below
	default:
		return nil, err
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 8*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would silently fall back to unsafe defaults.
func (c *Config) Validate() error {
	if err := c.Database.Validate(); err != nil {
		return err
	}
	if c.Env == EnvProduction && (c.JWT.Secret == "" || c.JWT.Secret == defaultJWTSecret) {
		return fmt.Errorf("JWT_SECRET must be set to a non-default value in production")
	}
	return nil
}

// Validate ensures the connection parameters required by the selected driver are present.
func (c DatabaseConfig) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if strings.TrimSpace(c.Name) == "" {
			return fmt.Errorf("%w: sqlite requires DB_NAME (database file path)", ErrMissingDatabaseConfig)
		}
		return nil
	case DriverPostgres:
		var missing []string
		if strings.TrimSpace(c.Host) == "" {
			missing = append(missing, "Server")
		}
		if strings.TrimSpace(c.Name) == "" {
			missing = append(missing, "Database")
		}
		if strings.TrimSpace(c.User) == "" {
			missing = append(missing, "Username")
		}
		if c.Password == "" {
			missing = append(missing, "Password")
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: missing %s", ErrMissingDatabaseConfig, strings.Join(missing, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Driver)
	}
}

// LoadConnectionFile parses the key=value connection file carrying the Server,
// Port, Database, Username and Password keys.
func LoadConnectionFile(path string) (DatabaseConfig, error) {
	if strings.TrimSpace(path) == "" {
		return DatabaseConfig{}, os.ErrNotExist
	}
	if _, err := os.Stat(path); err != nil {
		return DatabaseConfig{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return DatabaseConfig{}, fmt.Errorf("read connection file %s: %w", path, err)
	}

	return DatabaseConfig{
		Host:     strings.TrimSpace(v.GetString("server")),
		Port:     v.GetInt("port"),
		Name:     strings.TrimSpace(v.GetString("database")),
		User:     strings.TrimSpace(v.GetString("username")),
		Password: v.GetString("password"),
	}, nil
}

func mergeConnection(base, file DatabaseConfig) DatabaseConfig {
	if file.Host != "" {
		base.Host = file.Host
	}
	if file.Port > 0 {
		base.Port = file.Port
	}
	if file.Name != "" {
		base.Name = file.Name
	}
	if file.User != "" {
		base.User = file.User
	}
	if file.Password != "" {
		base.Password = file.Password
	}
	return base
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("CONFIG_FILE", defaultConfigFile)

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "")
	v.SetDefault("DB_PASSWORD", "")
	v.SetDefault("DB_NAME", "")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("JWT_EXPIRATION", "8h")
	v.SetDefault("JWT_ISSUER", "team-calendar")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
