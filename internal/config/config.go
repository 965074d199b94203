package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds every runtime setting of the service. It is loaded once at
// startup and passed by pointer; nothing mutates it afterwards.
type Config struct {
	AppPort    string
	AppBaseURL string

	Database  Database
	JWT       JWT
	RateLimit RateLimit
	Avatar    AvatarStore
	Redis     Redis
	Log       Log

	BcryptCost  int
	RabbitMQURL string
}

type Database struct {
	Driver string // "postgres" or "sqlite"
	DSN    string
	LogSQL bool
}

type JWT struct {
	Secret string
	TTL    time.Duration
}

type RateLimit struct {
	Max    int
	Window time.Duration
}

// AvatarStore describes the S3-compatible bucket avatars are uploaded to.
type AvatarStore struct {
	Bucket    string
	AccessKey string
	SecretKey string
	Region    string
	Endpoint  string
	PublicURL string
}

type Redis struct {
	Addr     string
	Password string
	DB       int
}

type Log struct {
	Mode string
	File string
}

// Load reads configuration from the process environment (and a .env file,
// if one exists in the working directory).
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	SetDefaults(v)
	v.AutomaticEnv()

	return FromViper(v)
}

// SetDefaults registers the default value of every known key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("APP_BASE_URL", "http://localhost:8080")
	v.SetDefault("DATABASE_DRIVER", "postgres")
	v.SetDefault("DATABASE_DSN", "host=127.0.0.1 user=postgres password=postgres dbname=contacts port=5432 sslmode=disable")
	v.SetDefault("DATABASE_LOG_SQL", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 30*time.Minute)
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_MAX", 5)
	v.SetDefault("RATE_LIMIT_WINDOW", 60*time.Second)
	v.SetDefault("AVATAR_STORE_BUCKET", "avatars")
	v.SetDefault("AVATAR_STORE_ACCESS_KEY", "")
	v.SetDefault("AVATAR_STORE_SECRET_KEY", "")
	v.SetDefault("AVATAR_STORE_REGION", "us-east-1")
	v.SetDefault("AVATAR_STORE_ENDPOINT", "")
	v.SetDefault("AVATAR_STORE_PUBLIC_URL", "")
	v.SetDefault("LOG_MODE", "development")
	v.SetDefault("LOG_FILE", "")
}

// FromViper builds a Config from an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		AppPort:    v.GetString("APP_PORT"),
		AppBaseURL: v.GetString("APP_BASE_URL"),
		Database: Database{
			Driver: v.GetString("DATABASE_DRIVER"),
			DSN:    v.GetString("DATABASE_DSN"),
			LogSQL: v.GetBool("DATABASE_LOG_SQL"),
		},
		JWT: JWT{
			Secret: v.GetString("JWT_SECRET"),
			TTL:    v.GetDuration("JWT_TTL"),
		},
		RateLimit: RateLimit{
			Max:    v.GetInt("RATE_LIMIT_MAX"),
			Window: v.GetDuration("RATE_LIMIT_WINDOW"),
		},
		Avatar: AvatarStore{
			Bucket:    v.GetString("AVATAR_STORE_BUCKET"),
			AccessKey: v.GetString("AVATAR_STORE_ACCESS_KEY"),
			SecretKey: v.GetString("AVATAR_STORE_SECRET_KEY"),
			Region:    v.GetString("AVATAR_STORE_REGION"),
			Endpoint:  v.GetString("AVATAR_STORE_ENDPOINT"),
			PublicURL: v.GetString("AVATAR_STORE_PUBLIC_URL"),
		},
		Redis: Redis{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
		},
		Log: Log{
			Mode: v.GetString("LOG_MODE"),
			File: v.GetString("LOG_FILE"),
		},
		BcryptCost:  v.GetInt("BCRYPT_COST"),
		RabbitMQURL: v.GetString("RABBITMQ_URL"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWT.TTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWT.TTL)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.Database.Driver)
	}
	if c.RateLimit.Max <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit must be positive, got %d per %s", c.RateLimit.Max, c.RateLimit.Window)
	}
	return nil
}
