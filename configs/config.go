package configs

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	AppName    string `env:"APP_NAME" envDefault:"Task Manager API"`
	AppVersion string `env:"APP_VERSION" envDefault:"1.0.0"`
	Host       string `env:"HOST" envDefault:"0.0.0.0"`
	Port       int    `env:"PORT" envDefault:"8000"`

	// DBDriver salah satu dari sqlite, postgres (lib/pq), atau pgx.
	DBDriver    string `env:"DB_DRIVER" envDefault:"sqlite"`
	DatabaseURL string `env:"DATABASE_URL" envDefault:"task_manager.db"`
	DBHost      string `env:"DB_HOST" envDefault:"localhost"`
	DBPort      int    `env:"DB_PORT" envDefault:"5432"`
	DBUser      string `env:"DB_USER"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME"`

	RedisHost     string        `env:"REDIS_HOST"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string        `env:"REDIS_PASSWORD"`
	RedisDB       int           `env:"REDIS_DB" envDefault:"0"`
	CacheTTL      time.Duration `env:"CACHE_TTL" envDefault:"1h"`

	SecretKey                string `env:"SECRET_KEY" envDefault:"your-secret-key-change-in-production"`
	Algorithm                string `env:"ALGORITHM" envDefault:"HS256"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" envDefault:"30"`
	BcryptCost               int    `env:"BCRYPT_COST" envDefault:"10"`

	PasswordMinLength    int `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
	UsernameMinLength    int `env:"USERNAME_MIN_LENGTH" envDefault:"3"`
	UsernameMaxLength    int `env:"USERNAME_MAX_LENGTH" envDefault:"50"`
	TitleMaxLength       int `env:"TITLE_MAX_LENGTH" envDefault:"255"`
	DescriptionMaxLength int `env:"DESCRIPTION_MAX_LENGTH" envDefault:"2000"`

	DefaultLimit int `env:"DEFAULT_LIMIT" envDefault:"100"`
	MaxLimit     int `env:"MAX_LIMIT" envDefault:"100"`

	AllowedOrigins  []string      `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://localhost:8000,http://127.0.0.1:3000,http://127.0.0.1:8000"`
	RateLimitMax    int           `env:"RATE_LIMIT_MAX" envDefault:"100"`
	RateLimitWindow time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
	LogDir   string `env:"LOG_DIR" envDefault:"logs"`
}

// LoadConfig membaca .env (jika ada) lalu environment variable ke dalam Config.
func LoadConfig() (Config, error) {
	if err := godotenv.Load(); err != nil {
		// Hanya log jika tidak dalam mode test
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using environment and default values")
		}
	}
	return Parse()
}

// Parse membaca environment proses tanpa menyentuh file .env.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("SECRET_KEY is required")
	}
	switch c.Algorithm {
	case "HS256", "HS384", "HS512":
	default:
		return fmt.Errorf("unsupported ALGORITHM %q", c.Algorithm)
	}
	switch c.DBDriver {
	case "sqlite", "postgres", "pgx":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.AccessTokenExpireMinutes <= 0 {
		return errors.New("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.UsernameMinLength <= 0 || c.UsernameMaxLength < c.UsernameMinLength {
		return errors.New("username length bounds are invalid")
	}
	if c.PasswordMinLength <= 0 || c.TitleMaxLength <= 0 || c.DescriptionMaxLength <= 0 {
		return errors.New("password, title and description bounds must be positive")
	}
	if c.MaxLimit <= 0 || c.DefaultLimit <= 0 || c.DefaultLimit > c.MaxLimit {
		return errors.New("DEFAULT_LIMIT must be between 1 and MAX_LIMIT")
	}
	return nil
}

func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.AccessTokenExpireMinutes) * time.Minute
}

func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresDSN membuat connection string gaya lib/pq. DATABASE_URL dipakai
// langsung jika sudah berupa URL postgres.
func (c Config) PostgresDSN() string {
	if strings.HasPrefix(c.DatabaseURL, "postgres://") || strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}
