package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	LogLevel       string   `yaml:"log_level"`
	LogFormat      string   `yaml:"log_format"` // "json" or "text"
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // "sqlite3" or "mysql"
	Path     string `yaml:"path"`   // sqlite file
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// DataConfig points at the static artifacts produced by the training job.
type DataConfig struct {
	CategoryMapping     string `yaml:"category_mapping"`
	EncodedTrainingData string `yaml:"encoded_training_data"`
	EncodedTrainingURL  string `yaml:"encoded_training_url"` // optional, downloaded before seeding
	Pipeline            string `yaml:"pipeline"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Data     DataConfig     `yaml:"data"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:           "5000",
			AllowedOrigins: []string{"*"},
			LogLevel:       "info",
			LogFormat:      "json",
		},
		Database: DatabaseConfig{
			Driver: "sqlite3",
			Path:   "database/dropdown_data.db",
			Port:   "3306",
		},
		Data: DataConfig{
			CategoryMapping:     "models/category_mapping.json",
			EncodedTrainingData: "models/encoded_training_data.csv",
			Pipeline:            "models/pipeline.json",
		},
	}
}

// LoadConfig reads configuration from an optional YAML file, then applies
// variables from .env and the process environment.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(file, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	}

	// .env is optional; a missing file is not an error.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	applyEnv(&cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if cfg.Database.Driver == "sqlite3" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for database file: %w", err)
		}
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	set := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	set("FLIGHT_PORT", &cfg.Server.Port)
	set("FLIGHT_LOG_LEVEL", &cfg.Server.LogLevel)
	set("FLIGHT_LOG_FORMAT", &cfg.Server.LogFormat)
	set("FLIGHT_DB_DRIVER", &cfg.Database.Driver)
	set("FLIGHT_DB_PATH", &cfg.Database.Path)
	set("FLIGHT_DB_HOST", &cfg.Database.Host)
	set("FLIGHT_DB_PORT", &cfg.Database.Port)
	set("FLIGHT_DB_USER", &cfg.Database.User)
	set("FLIGHT_DB_PASSWORD", &cfg.Database.Password)
	set("FLIGHT_DB_NAME", &cfg.Database.DBName)
	set("FLIGHT_CATEGORY_MAPPING", &cfg.Data.CategoryMapping)
	set("FLIGHT_ENCODED_TRAINING_DATA", &cfg.Data.EncodedTrainingData)
	set("FLIGHT_ENCODED_TRAINING_URL", &cfg.Data.EncodedTrainingURL)
	set("FLIGHT_PIPELINE", &cfg.Data.Pipeline)

	if v := os.Getenv("FLIGHT_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "sqlite3":
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for the sqlite3 driver")
		}
	case "mysql":
		if c.Database.Host == "" || c.Database.DBName == "" {
			return fmt.Errorf("database.host and database.dbname are required for the mysql driver")
		}
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	return nil
}
