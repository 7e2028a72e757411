package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/creasty/defaults"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `default:"8080"`
	AppURL      string `default:"http://localhost:8080"`
	BodyLimitMB int    `default:"10"`

	Database DatabaseConfig
	Auth     AuthConfig
	Storage  StorageConfig
	Redis    RedisConfig
	Email    EmailConfig
	Limits   RateLimitConfig
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string `default:"5432"`
	User     string
	Password string
	Name     string
	Debug    bool
}

type AuthConfig struct {
	JWTSecret     string
	TokenTTLHours int `default:"168"`
	AppKey        string
	AdminSetupKey string
}

type StorageConfig struct {
	Driver     string `default:"none"`
	Cloudinary CloudinaryConfig
	Minio      MinioConfig
}

type CloudinaryConfig struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string `default:"marketplace"`
}

type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string `default:"marketplace"`
	UseSSL    bool
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig applies per client IP to register and login.
type RateLimitConfig struct {
	AuthPerMinute int `default:"20"`
	AuthBurst     int `default:"5"`
}

type EmailConfig struct {
	ResendAPIKey string
	From         string `default:"onboarding@resend.dev"`
}

// Load reads .env (when present) and the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, using environment variables")
	}
	return FromEnv()
}

// FromEnv builds a Config from the current environment without touching .env.
func FromEnv() (Config, error) {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		return Config{}, fmt.Errorf("apply config defaults: %w", err)
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.AppURL = strings.TrimRight(getEnv("APP_URL", cfg.AppURL), "/")
	cfg.BodyLimitMB = getEnvInt("BODY_LIMIT_MB", cfg.BodyLimitMB)

	cfg.Database.URL = getEnv("DATABASE_URL", "")
	cfg.Database.Host = getEnv("DB_HOST", "")
	cfg.Database.Port = getEnv("DB_PORT", cfg.Database.Port)
	cfg.Database.User = getEnv("DB_USER", "")
	cfg.Database.Password = getEnv("DB_PASSWORD", "")
	cfg.Database.Name = getEnv("DB_NAME", "")
	cfg.Database.Debug = getEnvBool("DB_DEBUG", false)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", "")
	cfg.Auth.TokenTTLHours = getEnvInt("JWT_TTL_HOURS", cfg.Auth.TokenTTLHours)
	cfg.Auth.AppKey = getEnv("APP_KEY", cfg.Auth.JWTSecret)
	cfg.Auth.AdminSetupKey = getEnv("ADMIN_SETUP_KEY", "")

	cfg.Storage.Driver = strings.ToLower(getEnv("STORAGE_DRIVER", cfg.Storage.Driver))
	cfg.Storage.Cloudinary.CloudName = getEnv("CLOUDINARY_CLOUD_NAME", "")
	cfg.Storage.Cloudinary.APIKey = getEnv("CLOUDINARY_API_KEY", "")
	cfg.Storage.Cloudinary.APISecret = getEnv("CLOUDINARY_API_SECRET", "")
	cfg.Storage.Cloudinary.Folder = getEnv("CLOUDINARY_FOLDER", cfg.Storage.Cloudinary.Folder)
	cfg.Storage.Minio.Endpoint = getEnv("MINIO_ENDPOINT", "")
	cfg.Storage.Minio.AccessKey = getEnv("MINIO_ACCESS_KEY", "")
	cfg.Storage.Minio.SecretKey = getEnv("MINIO_SECRET_KEY", "")
	cfg.Storage.Minio.Bucket = getEnv("MINIO_BUCKET", cfg.Storage.Minio.Bucket)
	cfg.Storage.Minio.UseSSL = getEnvBool("MINIO_USE_SSL", false)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Email.ResendAPIKey = getEnv("RESEND_API_KEY", "")
	cfg.Email.From = getEnv("FROM_EMAIL", cfg.Email.From)

	cfg.Limits.AuthPerMinute = getEnvInt("AUTH_RATE_PER_MINUTE", cfg.Limits.AuthPerMinute)
	cfg.Limits.AuthBurst = getEnvInt("AUTH_RATE_BURST", cfg.Limits.AuthBurst)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		return errors.New("JWT_SECRET environment variable not set")
	}
	if c.Auth.TokenTTLHours <= 0 {
		return errors.New("JWT_TTL_HOURS must be positive")
	}
	switch c.Storage.Driver {
	case "none", "cloudinary", "minio":
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}
	return nil
}

// DSN returns the Postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.User == "" || d.Password == "" || d.Name == "" || d.Port == "" {
		return "", errors.New("database configuration not provided: either set DATABASE_URL or all of DB_HOST, DB_USER, DB_PASSWORD, DB_NAME, and DB_PORT")
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port,
	), nil
}

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists && strings.TrimSpace(valueStr) != "" {
		value, err := strconv.Atoi(strings.TrimSpace(valueStr))
		if err != nil {
			log.Printf("⚠️  Ignoring invalid %s=%q", key, valueStr)
			return defaultValue
		}
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists && strings.TrimSpace(valueStr) != "" {
		value, err := strconv.ParseBool(strings.TrimSpace(valueStr))
		if err != nil {
			return defaultValue
		}
		return value
	}
	return defaultValue
}

// MaskSecret hides all but the edges of a secret for startup logs.
func MaskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + "****" + s[len(s)-2:]
}
