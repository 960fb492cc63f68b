// Package config loads service configuration from defaults, a YAML file,
// .env files and the process environment, in that order.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Service names accepted by Validate.
const (
	ServiceQuest     = "quest"
	ServiceMission   = "mission"
	ServiceCascade   = "cascade"
	ServiceReconcile = "reconcile"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// ErrInvalidConfig indicates a configuration that cannot run the requested service.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Addr           string `yaml:"addr" env:"MUSES_ADDR"`
	Debug          bool   `yaml:"debug" env:"DEBUG_MODE"`
	LogFile        string `yaml:"log_file" env:"LOG_FILE"`
	DeadLetterPath string `yaml:"dead_letter_path" env:"MUSES_DEAD_LETTER_PATH"`

	Store     StoreConfig    `yaml:"store"`
	Upstreams UpstreamConfig `yaml:"upstreams"`
	Client    ClientConfig   `yaml:"client"`
	Auth      AuthConfig     `yaml:"auth"`
}

type StoreConfig struct {
	Driver   string `yaml:"driver" env:"MUSES_STORE_DRIVER"`
	Path     string `yaml:"path" env:"MUSES_STORE_PATH"`
	MongoURI string `yaml:"mongo_uri" env:"MONGO_URI"`
	Database string `yaml:"database" env:"MONGO_DB"`
}

// UpstreamConfig holds the base URLs of the services this one calls.
type UpstreamConfig struct {
	Quest   string `yaml:"quest" env:"QUEST_SVC_URL"`
	Mission string `yaml:"mission" env:"MISSION_SVC_URL"`
	Reward  string `yaml:"reward" env:"REWARD_SVC_URL"`
	Builder string `yaml:"builder" env:"QUEST_BUILDER_SVC_URL"`
}

type ClientConfig struct {
	Timeout       time.Duration `yaml:"timeout" env:"MUSES_CLIENT_TIMEOUT"`
	RetryAttempts int           `yaml:"retry_attempts" env:"MUSES_CLIENT_RETRY_ATTEMPTS"`
	RetryDelay    time.Duration `yaml:"retry_delay" env:"MUSES_CLIENT_RETRY_DELAY"`
}

type AuthConfig struct {
	Secret string `yaml:"secret" env:"MUSES_JWT_SECRET"`
	Issuer string `yaml:"issuer" env:"MUSES_JWT_ISSUER"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Addr:           ":8000",
		Debug:          true,
		DeadLetterPath: "reward_deadletters.jsonl",
		Store: StoreConfig{
			Driver:   DriverSQLite,
			Path:     "muses.db",
			MongoURI: "mongodb://localhost:27017",
			Database: "muses",
		},
		Client: ClientConfig{
			Timeout:       5 * time.Second,
			RetryAttempts: 3,
			RetryDelay:    100 * time.Millisecond,
		},
		Auth: AuthConfig{Issuer: "it.unisannio.muses"},
	}
}

// Load builds the configuration. file may be empty; .env files are read
// from the working directory.
func Load(file string) (*Config, error) {
	return load(file, ".")
}

func load(file, envDir string) (*Config, error) {
	cfg := Default()

	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", file, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, file, err)
		}
	}

	if err := loadDotEnv(envDir); err != nil {
		return nil, err
	}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("%w: parse env: %v", ErrInvalidConfig, err)
	}

	cfg.Store.Driver = strings.ToLower(strings.TrimSpace(cfg.Store.Driver))
	return cfg, nil
}

// loadDotEnv loads .env.<APP_ENV> then .env. Neither overrides variables
// already set, so the environment-specific file wins over the generic one.
func loadDotEnv(dir string) error {
	files := []string{".env"}
	if appEnv := os.Getenv("APP_ENV"); appEnv != "" {
		files = append([]string{".env." + appEnv}, files...)
	}
	for _, name := range files {
		if err := godotenv.Load(filepath.Join(dir, name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: load %s: %v", ErrInvalidConfig, name, err)
		}
	}
	return nil
}

// Validate checks that cfg can run service.
func (c *Config) Validate(service string) error {
	var problems []string

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			problems = append(problems, "store.path is required for the sqlite driver")
		}
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.Database == "" {
			problems = append(problems, "store.mongo_uri and store.database are required for the mongo driver")
		}
	case DriverMemory:
	default:
		problems = append(problems, fmt.Sprintf("unknown store driver %q", c.Store.Driver))
	}

	switch service {
	case ServiceQuest:
	case ServiceMission, ServiceReconcile:
		if c.Upstreams.Quest == "" {
			problems = append(problems, "upstreams.quest (QUEST_SVC_URL) is required")
		}
	case ServiceCascade:
		if c.Upstreams.Quest == "" {
			problems = append(problems, "upstreams.quest (QUEST_SVC_URL) is required")
		}
		if c.Upstreams.Mission == "" {
			problems = append(problems, "upstreams.mission (MISSION_SVC_URL) is required")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown service %q", service))
	}

	if c.Client.Timeout <= 0 {
		problems = append(problems, "client.timeout must be positive")
	}
	if c.Client.RetryAttempts < 1 {
		problems = append(problems, "client.retry_attempts must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}
