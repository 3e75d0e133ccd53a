package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	NATS     NATSConfig     `yaml:"nats"`
	MinIO    MinIOConfig    `yaml:"minio"`
	Model    ModelConfig    `yaml:"model"`
	Replay   ReplayConfig   `yaml:"replay"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	APIKey        string `yaml:"api_key"`
	RateLimit     int    `yaml:"rate_limit"`      // requests per window, 0 disables
	RateWindowSec int    `yaml:"rate_window_sec"` // window size in seconds
	MaxUploadMB   int64  `yaml:"max_upload_mb"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	MaxConns int    `yaml:"max_conns"`
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

type NATSConfig struct {
	URL string `yaml:"url"`
}

type MinIOConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// ModelConfig describes how the worker invokes the external analysis model.
// Command tokens may contain {matchId}, {video}, {outputDir}, {weights} and
// {confidence} placeholders. When Command is empty the worker expects the
// result JSON to already exist in the output directory.
type ModelConfig struct {
	Command             []string      `yaml:"command"`
	WorkingDirectory    string        `yaml:"working_directory"`
	OutputDirectory     string        `yaml:"output_directory"`
	WeightsPath         string        `yaml:"weights_path"`
	ResultFileName      string        `yaml:"result_file_name"`
	ConfidenceThreshold float64       `yaml:"confidence_threshold"`
	CommandTimeout      time.Duration `yaml:"command_timeout"`
	FallbackFPS         float64       `yaml:"fallback_fps"`
	WorkerCount         int           `yaml:"worker_count"`
}

// ReplayConfig holds the client-side tuning knobs. The tolerance windows and
// the poll interval are configuration on purpose: call sites never carry the
// literals.
type ReplayConfig struct {
	ShotWindowMs   int64         `yaml:"shot_window_ms"`
	EventWindowMs  int64         `yaml:"event_window_ms"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads config from YAML file and applies environment variable overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	applyEnvOverrides(cfg)
	setDefaults(cfg)

	return cfg, nil
}

func setDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateWindowSec == 0 {
		cfg.Server.RateWindowSec = 60
	}
	if cfg.Server.MaxUploadMB == 0 {
		cfg.Server.MaxUploadMB = 512
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.MaxConns == 0 {
		cfg.Database.MaxConns = 20
	}
	if cfg.Model.ResultFileName == "" {
		cfg.Model.ResultFileName = "{matchId}.json"
	}
	if cfg.Model.ConfidenceThreshold == 0 {
		cfg.Model.ConfidenceThreshold = 0.25
	}
	if cfg.Model.CommandTimeout == 0 {
		cfg.Model.CommandTimeout = 15 * time.Minute
	}
	if cfg.Model.FallbackFPS == 0 {
		cfg.Model.FallbackFPS = 30
	}
	if cfg.Model.WorkerCount == 0 {
		cfg.Model.WorkerCount = 2
	}
	if cfg.Model.OutputDirectory == "" {
		cfg.Model.OutputDirectory = "model-output"
	}
	if cfg.Replay.ShotWindowMs == 0 {
		cfg.Replay.ShotWindowMs = 50
	}
	if cfg.Replay.EventWindowMs == 0 {
		cfg.Replay.EventWindowMs = 100
	}
	if cfg.Replay.PollInterval == 0 {
		cfg.Replay.PollInterval = 15 * time.Second
	}
	if cfg.Replay.RequestTimeout == 0 {
		cfg.Replay.RequestTimeout = 10 * time.Second
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("RS_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("RS_API_KEY"); v != "" {
		cfg.Server.APIKey = v
	}
	if v := os.Getenv("RS_DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("RS_DB_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Database.Port = port
		}
	}
	if v := os.Getenv("RS_DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := os.Getenv("RS_DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("RS_DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("RS_NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("RS_MINIO_ENDPOINT"); v != "" {
		cfg.MinIO.Endpoint = v
	}
	if v := os.Getenv("RS_MINIO_ACCESS_KEY"); v != "" {
		cfg.MinIO.AccessKey = v
	}
	if v := os.Getenv("RS_MINIO_SECRET_KEY"); v != "" {
		cfg.MinIO.SecretKey = v
	}
	if v := os.Getenv("RS_MINIO_BUCKET"); v != "" {
		cfg.MinIO.Bucket = v
	}
	if v := os.Getenv("RS_MODEL_WEIGHTS"); v != "" {
		cfg.Model.WeightsPath = v
	}
	if v := os.Getenv("RS_MODEL_WORKER_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Model.WorkerCount = n
		}
	}
	if v := os.Getenv("RS_REPLAY_POLL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Replay.PollInterval = d
		}
	}
}
