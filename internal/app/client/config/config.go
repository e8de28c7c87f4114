package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	defaultServerAddress = "localhost:8080"
	defaultEnv           = "local"
	defaultConfigDir     = ".hydrosync"
	defaultSyncSchedule  = "@every 30s"
	defaultDebounceMs    = 2000
	defaultHealthSeconds = 15
	defaultNamePrefix    = "h2o"
	defaultCapacityMl    = 591
	defaultPauseMs       = 50
)

type Config struct {
	Env            string        `mapstructure:"app_env"`
	ServerAddress  string        `mapstructure:"server_address"`
	EnableTLS      bool          `mapstructure:"enable_tls"`
	ConfigDir      string        `mapstructure:"config_dir"`
	TokenPath      string        `mapstructure:"token_path"`
	DataPath       string        `mapstructure:"data_path"`
	LogFile        string        `mapstructure:"log_file"`
	SyncSchedule   string        `mapstructure:"sync_schedule"`
	SyncDebounce   time.Duration `mapstructure:"-"`
	HealthInterval time.Duration `mapstructure:"-"`
	NamePrefix     string        `mapstructure:"device_name_prefix"`
	CapacityMl     int           `mapstructure:"bottle_capacity_ml"`
	HandshakePause time.Duration `mapstructure:"-"`
}

// MustLoad загружает конфигурацию клиента. configFile - необязательный YAML файл.
func MustLoad(configFile string) *Config {
	cfg, err := Load(configFile)
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

func Load(configFile string) (*Config, error) {
	// Определяем путь к .env файлу (относительно места запуска)
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("APP_ENV", defaultEnv)
	v.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	v.SetDefault("ENABLE_TLS", false)
	v.SetDefault("CONFIG_DIR", defaultConfigDir)
	v.SetDefault("SYNC_SCHEDULE", defaultSyncSchedule)
	v.SetDefault("SYNC_DEBOUNCE_MS", defaultDebounceMs)
	v.SetDefault("HEALTH_INTERVAL_SECONDS", defaultHealthSeconds)
	v.SetDefault("DEVICE_NAME_PREFIX", defaultNamePrefix)
	v.SetDefault("BOTTLE_CAPACITY_ML", defaultCapacityMl)
	v.SetDefault("HANDSHAKE_PAUSE_MS", defaultPauseMs)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("чтение файла конфигурации: %w", err)
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := v.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		fmt.Printf("Ошибка создания директории конфигурации: %v\n", err)
	}

	dataPath := v.GetString("DATA_PATH")
	if dataPath == "" {
		dataPath = filepath.Join(configDir, "hydration.db")
	}

	cfg := &Config{
		Env:            v.GetString("APP_ENV"),
		ServerAddress:  v.GetString("SERVER_ADDRESS"),
		EnableTLS:      v.GetBool("ENABLE_TLS"),
		ConfigDir:      configDir,
		TokenPath:      filepath.Join(configDir, "token"),
		DataPath:       dataPath,
		LogFile:        v.GetString("LOG_FILE"),
		SyncSchedule:   v.GetString("SYNC_SCHEDULE"),
		SyncDebounce:   time.Duration(v.GetInt("SYNC_DEBOUNCE_MS")) * time.Millisecond,
		HealthInterval: time.Duration(v.GetInt("HEALTH_INTERVAL_SECONDS")) * time.Second,
		NamePrefix:     v.GetString("DEVICE_NAME_PREFIX"),
		CapacityMl:     v.GetInt("BOTTLE_CAPACITY_ML"),
		HandshakePause: time.Duration(v.GetInt("HANDSHAKE_PAUSE_MS")) * time.Millisecond,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.CapacityMl <= 0 {
		return fmt.Errorf("bottle_capacity_ml должен быть положительным")
	}
	if c.SyncDebounce < 0 {
		return fmt.Errorf("sync_debounce_ms не может быть отрицательным")
	}
	return nil
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == "prod"
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == "local" || c.Env == ""
}
