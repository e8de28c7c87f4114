package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	envPath  = "../../.env"
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultRunAddress = ":8080"
	defaultMigrations = "migrations"
	defaultRateRPS    = 20
	defaultRateBurst  = 40
	defaultTTLHours   = 24 * 30
)

type Config struct {
	Env       string
	LogFile   string
	DB        DB
	Server    Server
	RateLimit RateLimit
}

type DB struct {
	DatabaseURI string `env:"DATABASE_URI"`
	Migrations  string `env:"MIGRATIONS_PATH"`
}

type Server struct {
	RunAddress    string        `env:"RUN_ADDRESS"`
	ServiceAPIKey string        `env:"SERVICE_API_KEY"`
	SessionTTL    time.Duration `env:"SESSION_TTL_HOURS"`
}

type RateLimit struct {
	RPS   float64 `env:"RATE_LIMIT_RPS"`
	Burst int     `env:"RATE_LIMIT_BURST"`
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

func Load() (*Config, error) {
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			log.Println("No .env file found, relying on environment variables")
		}
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("app_env", EnvLocal)
	v.SetDefault("run_address", defaultRunAddress)
	v.SetDefault("migrations_path", defaultMigrations)
	v.SetDefault("rate_limit_rps", defaultRateRPS)
	v.SetDefault("rate_limit_burst", defaultRateBurst)
	v.SetDefault("session_ttl_hours", defaultTTLHours)

	cfg := &Config{
		Env:     v.GetString("app_env"),
		LogFile: v.GetString("log_file"),
		DB: DB{
			DatabaseURI: v.GetString("database_uri"),
			Migrations:  v.GetString("migrations_path"),
		},
		Server: Server{
			RunAddress:    v.GetString("run_address"),
			ServiceAPIKey: v.GetString("service_api_key"),
			SessionTTL:    time.Duration(v.GetInt("session_ttl_hours")) * time.Hour,
		},
		RateLimit: RateLimit{
			RPS:   v.GetFloat64("rate_limit_rps"),
			Burst: v.GetInt("rate_limit_burst"),
		},
	}

	if cfg.DB.DatabaseURI == "" {
		return nil, fmt.Errorf("DATABASE_URI is required")
	}
	return cfg, nil
}
