package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"sql-playground/internal/model"
)

// Load reads an optional .env file, the TOML file at path (skipped when path
// is empty), then applies environment overrides, defaults and validation.
func Load(path string) (*Config, error) {
	if err := LoadEnvFile(".env"); err != nil {
		return nil, err
	}

	var cfg Config
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadEnvFile loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadEnvFile(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Address = ":" + strings.TrimPrefix(v, ":")
	}
	if v := os.Getenv("WAREHOUSE_DRIVER"); v != "" {
		cfg.Warehouse.Driver = v
	}
	if v := os.Getenv("WAREHOUSE_DSN"); v != "" {
		cfg.Warehouse.DSN = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" && cfg.Warehouse.DSN == "" {
		cfg.Warehouse.DSN = v
	}
	if v := os.Getenv("GCP_PROJECT_ID"); v != "" {
		cfg.Warehouse.ProjectID = v
	}
	if v := os.Getenv("WAREHOUSE_DATASET"); v != "" {
		cfg.Warehouse.DefaultDataset = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("POSTGRES_PASSWORD"); v != "" {
		cfg.Warehouse.Postgres.Password = v
	}
	if v := os.Getenv("MAX_BODY_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Server.MaxBodyBytes = n
		}
	}
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.Server.Address) == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.MaxBodyBytes <= 0 {
		cfg.Server.MaxBodyBytes = 10 << 20
	}
	if len(cfg.Server.AllowedOrigins) == 0 {
		cfg.Server.AllowedOrigins = []string{"http://localhost:3000"}
	}
	if cfg.Server.RateLimitRequests == 0 {
		cfg.Server.RateLimitRequests = 100
	}

	if strings.TrimSpace(cfg.Warehouse.Driver) == "" {
		cfg.Warehouse.Driver = "sqlite"
	}
	cfg.Warehouse.Driver = strings.ToLower(strings.TrimSpace(cfg.Warehouse.Driver))
	if strings.TrimSpace(cfg.Warehouse.ProjectID) == "" {
		cfg.Warehouse.ProjectID = "local"
	}
	if strings.TrimSpace(cfg.Warehouse.Dir) == "" {
		cfg.Warehouse.Dir = "data/warehouse"
	}
	if strings.TrimSpace(cfg.Warehouse.DefaultDataset) == "" {
		cfg.Warehouse.DefaultDataset = "customer_data"
	}
	if strings.TrimSpace(cfg.Warehouse.Location) == "" {
		cfg.Warehouse.Location = "US"
	}
	if cfg.Warehouse.BatchSize <= 0 {
		cfg.Warehouse.BatchSize = 500
	}
	if cfg.Warehouse.QueryMaxRows <= 0 {
		cfg.Warehouse.QueryMaxRows = 1000
	}
	if cfg.Warehouse.ConnectAttempts <= 0 {
		cfg.Warehouse.ConnectAttempts = 3
	}

	pg := &cfg.Warehouse.Postgres
	if strings.TrimSpace(pg.Host) == "" {
		pg.Host = "localhost"
	}
	if pg.Port == 0 {
		pg.Port = 5432
	}
	if strings.TrimSpace(pg.User) == "" {
		pg.User = "postgres"
	}
	if strings.TrimSpace(pg.DBName) == "" {
		pg.DBName = "playground"
	}
	if strings.TrimSpace(pg.SSLMode) == "" {
		pg.SSLMode = "disable"
	}

	if strings.TrimSpace(cfg.Store.Path) == "" {
		cfg.Store.Path = "data/playground.db"
	}
	if strings.TrimSpace(cfg.Outputs.Dir) == "" {
		cfg.Outputs.Dir = "data/outputs"
	}

	if strings.TrimSpace(cfg.Log.Level) == "" {
		cfg.Log.Level = "info"
	}
	if strings.TrimSpace(cfg.Log.Format) == "" {
		cfg.Log.Format = "text"
	}

	if cfg.Parser.MaxQuestionBytes <= 0 {
		cfg.Parser.MaxQuestionBytes = 64 << 10
	}
	if cfg.Parser.BatchWorkers <= 0 {
		cfg.Parser.BatchWorkers = 4
	}
	if cfg.Parser.MaxBatchSize <= 0 {
		cfg.Parser.MaxBatchSize = 100
	}
}

func validate(cfg *Config) error {
	switch cfg.Warehouse.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("warehouse.driver must be sqlite or postgres, got %q", cfg.Warehouse.Driver)
	}
	if !model.ValidIdentifier(cfg.Warehouse.DefaultDataset) {
		return fmt.Errorf("warehouse.default_dataset %q is not a valid identifier", cfg.Warehouse.DefaultDataset)
	}
	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", cfg.Log.Level)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", cfg.Log.Format)
	}
	return nil
}
