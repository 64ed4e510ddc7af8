package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config holds all the configuration for the application.
type Config struct {
	Env        string `yaml:"env" env:"ENV" env-default:"production"`
	HTTPServer `yaml:"http_server"`
	Database   `yaml:"database"`
	Auth       `yaml:"auth"`
	Links      `yaml:"links"`
	Redis      `yaml:"redis"`
	Stripe     `yaml:"stripe"`
	PayPal     `yaml:"paypal"`
	Coinbase   `yaml:"coinbase"`
	SMTP       `yaml:"smtp"`
}

// HTTPServer holds HTTP listener configuration.
type HTTPServer struct {
	Address      string        `yaml:"address" env:"HTTP_ADDRESS" env-default:":8080"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"HTTP_READ_TIMEOUT" env-default:"30s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"HTTP_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`

	// AllowedOrigins lists CORS origins for the dashboard frontend.
	AllowedOrigins []string `yaml:"allowed_origins" env:"HTTP_ALLOWED_ORIGINS" env-separator:"," env-default:"http://localhost:3000,http://127.0.0.1:3000"`
}

// Database holds PostgreSQL connection settings.
type Database struct {
	Host            string `yaml:"host" env:"DB_HOST" env-default:"localhost"`
	Port            int    `yaml:"port" env:"DB_PORT" env-default:"5432"`
	User            string `yaml:"user" env:"DB_USER" env-default:"postgres"`
	Password        string `yaml:"password" env:"DB_PASSWORD"`
	DBName          string `yaml:"dbname" env:"DB_NAME" env-default:"refstack"`
	SSLMode         string `yaml:"sslmode" env:"DB_SSLMODE" env-default:"disable"`
	Timezone        string `yaml:"timezone" env:"DB_TIMEZONE" env-default:"UTC"`
	MaxIdleConns    int    `yaml:"max_idle_conns" env:"DB_MAX_IDLE_CONNS" env-default:"10"`
	MaxOpenConns    int    `yaml:"max_open_conns" env:"DB_MAX_OPEN_CONNS" env-default:"100"`
	ConnMaxLifetime string `yaml:"conn_max_lifetime" env:"DB_CONN_MAX_LIFETIME" env-default:"1h"`
	AutoMigrate     bool   `yaml:"auto_migrate" env:"DB_AUTO_MIGRATE" env-default:"true"`
	SeedData        bool   `yaml:"seed_data" env:"DB_SEED_DATA" env-default:"true"`
}

// Auth holds JWT settings.
type Auth struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"JWT_ACCESS_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"JWT_REFRESH_TTL" env-default:"168h"`
	Issuer          string        `yaml:"issuer" env:"JWT_ISSUER" env-default:"refstack"`
}

// Links holds referral link settings.
type Links struct {
	ShortCodeLength int    `yaml:"short_code_length" env:"SHORT_CODE_LENGTH" env-default:"8"`
	DefaultMaxLinks int    `yaml:"default_max_links" env:"DEFAULT_MAX_LINKS" env-default:"5"`
	BaseURL         string `yaml:"base_url" env:"BASE_URL" env-default:"http://localhost:8080"`
}

// Redis holds the rate limiter backend. An empty address disables rate limiting.
type Redis struct {
	Addr       string        `yaml:"addr" env:"REDIS_ADDR"`
	Password   string        `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	RateLimit  int64         `yaml:"rate_limit" env:"RATE_LIMIT" env-default:"120"`
	RateWindow time.Duration `yaml:"rate_window" env:"RATE_WINDOW" env-default:"1m"`
}

// Stripe holds Stripe webhook settings.
type Stripe struct {
	WebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
}

// PayPal holds PayPal webhook and REST API settings.
type PayPal struct {
	WebhookSecret string `yaml:"webhook_secret" env:"PAYPAL_WEBHOOK_SECRET"`
	WebhookID     string `yaml:"webhook_id" env:"PAYPAL_WEBHOOK_ID"`
	ClientID      string `yaml:"client_id" env:"PAYPAL_CLIENT_ID"`
	ClientSecret  string `yaml:"client_secret" env:"PAYPAL_CLIENT_SECRET"`
	APIURL        string `yaml:"api_url" env:"PAYPAL_API_URL" env-default:"https://api-m.sandbox.paypal.com"`
}

// Coinbase holds Coinbase Commerce webhook settings.
type Coinbase struct {
	WebhookSecret string `yaml:"webhook_secret" env:"COINBASE_COMMERCE_WEBHOOK_SECRET"`
}

// SMTP holds outgoing mail settings. An empty host disables e-mail copies.
type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
	From     string `yaml:"from" env:"SMTP_FROM" env-default:"no-reply@refstack.local"`
}

// MustLoad loads the application configuration.
func MustLoad() *Config {
	// Try to load .env file (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment variables")
	}

	var cfg Config

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/local.yml"
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
			log.Fatalf("cannot read config: %s", err)
		}
	} else {
		log.Println("Config file not found, using environment variables only")
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("cannot read config from environment: %s", err)
		}
	}

	return &cfg
}
