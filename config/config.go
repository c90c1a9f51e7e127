// Package config loads the process configuration for the inkwell blog from
// the environment (optionally seeded from a .env file) and exposes it as an
// immutable Config value.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

//go:embed version
var version string

//go:embed name
var name string

type LogLevel string

const (
	Debug  LogLevel = "debug"
	Info   LogLevel = "info"
	Notice LogLevel = "notice"
	Warn   LogLevel = "warn"
	Error  LogLevel = "error"
)

// Environment selects deployment-dependent behavior such as the Secure cookie flag.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// ErrMissingSecret is returned when SESSION_SECRET is absent or empty.
var ErrMissingSecret = errors.New("SESSION_SECRET must be set")

const (
	defaultPort     = 3000
	defaultHashCost = 10
)

// Config is built once at startup and passed by pointer; nothing mutates it afterwards.
type Config struct {
	Env       Environment
	Debug     bool
	LogLevel  LogLevel
	LogFolder string

	Database *DatabaseConfig

	Listen   string
	Port     int
	CertFile string
	KeyFile  string

	SessionSecret        string
	SessionEncryptionKey string // optional, enables AES on top of the HMAC signature
	HashCost             int

	Redis RedisConfig
	Login LoginThrottleConfig

	// WriteRateLimit caps POST/DELETE requests per client IP per minute; 0 disables it.
	WriteRateLimit int
}

// RedisConfig points at the optional post list cache. An empty Addr disables it.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoginThrottleConfig bounds failed login attempts per client IP.
type LoginThrottleConfig struct {
	MaxAttempts int
	Window      time.Duration
	Lockout     time.Duration
}

func GetVersion() string {
	return strings.TrimSpace(version)
}

func GetName() string {
	return strings.TrimSpace(name)
}

func GetLogLevel() LogLevel {
	if IsDebug() {
		return Debug
	}
	logLevel := os.Getenv("INKWELL_LOG_LEVEL")
	if logLevel == "" {
		return Info
	}
	return LogLevel(logLevel)
}

func IsDebug() bool {
	return os.Getenv("INKWELL_DEBUG") == "true"
}

func GetEnvironment() Environment {
	switch strings.ToLower(os.Getenv("INKWELL_ENV")) {
	case "production", "prod":
		return Production
	default:
		return Development
	}
}

func GetDBFolderPath() string {
	dbFolderPath := os.Getenv("INKWELL_DB_FOLDER")
	if dbFolderPath == "" {
		if IsDebug() {
			return "db"
		}
		dbFolderPath = "/var/lib/inkwell"
	}
	return dbFolderPath
}

func GetDBPath() string {
	return fmt.Sprintf("%s/%s.db", GetDBFolderPath(), GetName())
}

func GetLogFolder() string {
	logFolderPath := os.Getenv("INKWELL_LOG_FOLDER")
	if logFolderPath == "" {
		logFolderPath = "/var/log/inkwell"
	}
	return logFolderPath
}

// Load reads .env (if present) and the process environment, then validates
// the result. A missing session secret is a startup error.
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env:       GetEnvironment(),
		Debug:     IsDebug(),
		LogLevel:  GetLogLevel(),
		LogFolder: GetLogFolder(),

		Database: GetDefaultDatabaseConfig(),

		Listen:   getEnv("INKWELL_LISTEN", ""),
		Port:     getEnvAsInt("INKWELL_PORT", defaultPort),
		CertFile: getEnv("INKWELL_CERT_FILE", ""),
		KeyFile:  getEnv("INKWELL_KEY_FILE", ""),

		SessionSecret:        os.Getenv("SESSION_SECRET"),
		SessionEncryptionKey: os.Getenv("SESSION_ENCRYPTION_KEY"),
		HashCost:             getEnvAsInt("INKWELL_HASH_COST", defaultHashCost),

		Redis: RedisConfig{
			Addr:     getEnv("INKWELL_REDIS_ADDR", ""),
			Password: getEnv("INKWELL_REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("INKWELL_REDIS_DB", 0),
		},
		Login: LoginThrottleConfig{
			MaxAttempts: getEnvAsInt("INKWELL_LOGIN_MAX_ATTEMPTS", 5),
			Window:      getEnvAsDuration("INKWELL_LOGIN_WINDOW", 15*time.Minute),
			Lockout:     getEnvAsDuration("INKWELL_LOGIN_LOCKOUT", 10*time.Minute),
		},
		WriteRateLimit: getEnvAsInt("INKWELL_WRITE_RATE_LIMIT", 60),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings the server cannot start without.
func (c *Config) Validate() error {
	if c.SessionSecret == "" {
		return ErrMissingSecret
	}
	switch len(c.SessionEncryptionKey) {
	case 0, 16, 24, 32:
	default:
		return fmt.Errorf("SESSION_ENCRYPTION_KEY must be 16, 24 or 32 bytes, got %d", len(c.SessionEncryptionKey))
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("INKWELL_PORT must be between 1 and 65535")
	}
	switch c.LogLevel {
	case Debug, Info, Notice, Warn, Error:
	default:
		return fmt.Errorf("unknown log level: %s", c.LogLevel)
	}
	if (c.CertFile == "") != (c.KeyFile == "") {
		return fmt.Errorf("INKWELL_CERT_FILE and INKWELL_KEY_FILE must be set together")
	}
	if c.Database != nil {
		if err := c.Database.ValidateConfig(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == Production
}

// Addr is the host:port the web server listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Listen, strconv.Itoa(c.Port))
}

func (c *Config) TLSEnabled() bool {
	return c.CertFile != "" && c.KeyFile != ""
}

func loadEnvFile() {
	if err := godotenv.Load(".env"); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}
	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}
	_ = godotenv.Load(filepath.Join(parent, ".env"))
}

func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}
