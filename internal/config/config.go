package config

import (
	"fmt"
	"time"

	"sql-playground/pkg/utils"
)

type Config struct {
	Server    Server    `toml:"server"`
	Warehouse Warehouse `toml:"warehouse"`
	Store     Store     `toml:"store"`
	Outputs   Outputs   `toml:"outputs"`
	Log       Log       `toml:"log"`
	Parser    Parser    `toml:"parser"`
}

type Server struct {
	Address           string   `toml:"address"`
	MaxBodyBytes      int64    `toml:"max_body_bytes"`
	AllowedOrigins    []string `toml:"allowed_origins"`
	RateLimitRequests int      `toml:"rate_limit_requests"` // per client per window; negative disables
	RateLimitWindow   string   `toml:"rate_limit_window"`
	ShutdownTimeout   string   `toml:"shutdown_timeout"`
}

type Warehouse struct {
	Driver          string   `toml:"driver"` // sqlite or postgres
	ProjectID       string   `toml:"project_id"`
	DSN             string   `toml:"dsn"`
	Dir             string   `toml:"dir"` // sqlite: one file per dataset
	DefaultDataset  string   `toml:"default_dataset"`
	Location        string   `toml:"location"`
	BatchSize       int      `toml:"batch_size"`
	QueryMaxRows    int      `toml:"query_max_rows"`
	QueryTimeout    string   `toml:"query_timeout"`
	ConnectAttempts int      `toml:"connect_attempts"`
	Postgres        Postgres `toml:"postgres"`
}

type Postgres struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	DBName   string `toml:"dbname"`
	SSLMode  string `toml:"sslmode"`
}

type Store struct {
	Path string `toml:"path"`
}

type Outputs struct {
	Dir      string `toml:"dir"`
	Disabled bool   `toml:"disabled"`
}

type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // text or json
}

type Parser struct {
	MaxQuestionBytes int `toml:"max_question_bytes"`
	BatchWorkers     int `toml:"batch_workers"`
	MaxBatchSize     int `toml:"max_batch_size"`
}

// Default returns a config with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func (s Server) RateWindow() time.Duration {
	return utils.ParseDuration(s.RateLimitWindow, 15*time.Minute)
}

func (s Server) Shutdown() time.Duration {
	return utils.ParseDuration(s.ShutdownTimeout, 10*time.Second)
}

func (w Warehouse) QueryDeadline() time.Duration {
	return utils.ParseDuration(w.QueryTimeout, 30*time.Second)
}

// ConnString builds the lib/pq keyword/value connection string.
func (p Postgres) ConnString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}
