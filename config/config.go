package config

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	JWT   JWTConfig
	Auth  AuthConfig
	IDs   IDConfig
	Log   LogConfig
}

type AppConfig struct {
	Port            string
	Env             string
	PhoneRegion     string
	DefaultPageSize int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

type DBConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	TimeZone    string
	AutoMigrate bool
	MaxIdle     int
	MaxOpen     int
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret       string
	AccessExpiry time.Duration
}

// AuthConfig controls how the caller context is produced. When Enabled is false
// the caller is taken from request headers, matching the clinic front-end's
// current behaviour.
type AuthConfig struct {
	Enabled     bool
	DefaultRole string
}

// IDConfig selects the counter backend and the display prefixes of allocated
// identifiers.
type IDConfig struct {
	Backend       string
	PatientPrefix string
	StaffPrefix   string
}

type LogConfig struct {
	Level string
}

const (
	IDBackendPostgres = "postgres"
	IDBackendRedis    = "redis"
)

func setDefaults() {
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("PHONE_REGION", "KE")
	viper.SetDefault("PATIENT_PAGE_SIZE", 5)
	viper.SetDefault("HTTP_READ_TIMEOUT", "15s")
	viper.SetDefault("HTTP_WRITE_TIMEOUT", "15s")

	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "UTC")
	viper.SetDefault("DB_AUTO_MIGRATE", true)
	viper.SetDefault("DB_MAX_IDLE_CONNS", 10)
	viper.SetDefault("DB_MAX_OPEN_CONNS", 100)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)

	viper.SetDefault("AUTH_ENABLED", false)
	viper.SetDefault("AUTH_DEFAULT_ROLE", "admin")

	viper.SetDefault("ID_BACKEND", IDBackendPostgres)
	viper.SetDefault("ID_PATIENT_PREFIX", "PAT")
	viper.SetDefault("ID_STAFF_PREFIX", "STF")

	viper.SetDefault("LOG_LEVEL", "info")
}

func LoadConfig() (*Config, error) {
	setDefaults()
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// The .env file is optional; environment variables alone are enough in containers.
	if err := viper.ReadInConfig(); err != nil {
		var pathErr *fs.PathError
		if !errors.As(err, &pathErr) {
			return nil, err
		}
	}

	accessExpiry, err := time.ParseDuration(viper.GetString("JWT_ACCESS_EXPIRY"))
	if err != nil {
		accessExpiry = 15 * time.Minute
	}

	config := &Config{
		App: AppConfig{
			Port:            viper.GetString("APP_PORT"),
			Env:             viper.GetString("APP_ENV"),
			PhoneRegion:     viper.GetString("PHONE_REGION"),
			DefaultPageSize: viper.GetInt("PATIENT_PAGE_SIZE"),
			ReadTimeout:     viper.GetDuration("HTTP_READ_TIMEOUT"),
			WriteTimeout:    viper.GetDuration("HTTP_WRITE_TIMEOUT"),
		},
		DB: DBConfig{
			Host:        viper.GetString("DB_HOST"),
			Port:        viper.GetString("DB_PORT"),
			User:        viper.GetString("DB_USER"),
			Password:    viper.GetString("DB_PASSWORD"),
			Name:        viper.GetString("DB_NAME"),
			SSLMode:     viper.GetString("DB_SSLMODE"),
			TimeZone:    viper.GetString("DB_TIMEZONE"),
			AutoMigrate: viper.GetBool("DB_AUTO_MIGRATE"),
			MaxIdle:     viper.GetInt("DB_MAX_IDLE_CONNS"),
			MaxOpen:     viper.GetInt("DB_MAX_OPEN_CONNS"),
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:       viper.GetString("JWT_SECRET"),
			AccessExpiry: accessExpiry,
		},
		Auth: AuthConfig{
			Enabled:     viper.GetBool("AUTH_ENABLED"),
			DefaultRole: viper.GetString("AUTH_DEFAULT_ROLE"),
		},
		IDs: IDConfig{
			Backend:       viper.GetString("ID_BACKEND"),
			PatientPrefix: viper.GetString("ID_PATIENT_PREFIX"),
			StaffPrefix:   viper.GetString("ID_STAFF_PREFIX"),
		},
		Log: LogConfig{
			Level: viper.GetString("LOG_LEVEL"),
		},
	}

	if config.Auth.Enabled && config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required when AUTH_ENABLED is true")
	}
	if config.IDs.Backend != IDBackendPostgres && config.IDs.Backend != IDBackendRedis {
		return nil, errors.New("ID_BACKEND must be one of: postgres, redis")
	}

	return config, nil
}

// NeedsRedis reports whether any configured component talks to Redis.
func (c *Config) NeedsRedis() bool {
	return c.Auth.Enabled || c.IDs.Backend == IDBackendRedis
}
