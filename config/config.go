package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env  string `env:"APP_ENV" env-default:"local"`
	Port string `env:"PORT" env-default:"8000"`

	// Document store
	StoreDriver   string `env:"STORE_DRIVER" env-default:"mongo"`
	MongoURI      string `env:"MONGO_URI" env-default:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" env-default:"hackconnect"`

	// Blob store
	BlobDriver    string `env:"BLOB_DRIVER" env-default:"fs"`
	BlobDir       string `env:"BLOB_DIR" env-default:"./static/blobs"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" env-default:"http://localhost:8000"`

	// Notifications; empty address disables publishing
	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	// Chat assistant
	GeminiAPIKey  string `env:"GEMINI_API_KEY"`
	GeminiModel   string `env:"GEMINI_MODEL" env-default:"gemini-2.5-flash-lite"`
	GeminiBaseURL string `env:"GEMINI_BASE_URL" env-default:"https://generativelanguage.googleapis.com"`

	// Tickets and staff access
	TicketSigningKey  string `env:"TICKET_SIGNING_KEY"`
	StaffUsername     string `env:"STAFF_USERNAME" env-default:"staff"`
	StaffPasswordHash string `env:"STAFF_PASSWORD_HASH"`
	StaffJWTSecret    string `env:"STAFF_JWT_SECRET"`

	// HTTP
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" env-default:"15s"`
	RateLimitRPS       float64       `env:"RATE_LIMIT_RPS" env-default:"5"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" env-default:"10"`
	ScanRateLimitRPS   float64       `env:"SCAN_RATE_LIMIT_RPS" env-default:"50"`
	ScanRateLimitBurst int           `env:"SCAN_RATE_LIMIT_BURST" env-default:"100"`
}

// Load reads envFile (if present) into the process environment and then the
// environment into a Config.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return fmt.Errorf("APP_ENV must be one of local, dev, prod; got %q", c.Env)
	}
	switch c.StoreDriver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("STORE_DRIVER must be mongo or memory; got %q", c.StoreDriver)
	}
	switch c.BlobDriver {
	case "fs", "gridfs", "memory":
	default:
		return fmt.Errorf("BLOB_DRIVER must be fs, gridfs or memory; got %q", c.BlobDriver)
	}
	if c.BlobDriver == "gridfs" && c.StoreDriver != "mongo" {
		return errors.New("BLOB_DRIVER=gridfs needs STORE_DRIVER=mongo")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("REQUEST_TIMEOUT must be positive")
	}
	return nil
}

// Addr is the listen address derived from Port.
func (c *Config) Addr() string {
	if c.Port != "" && c.Port[0] == ':' {
		return c.Port
	}
	return ":" + c.Port
}
