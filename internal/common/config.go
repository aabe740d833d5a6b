package common

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Gateway  GatewayConfig
	Pipeline PipelineConfig
	PDF      PDFConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // "postgres" or "sqlite"
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
	ConnectAttempts  uint
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr  string
	GRPCAddr  string
	BodyLimit int
}

// GatewayConfig points at the vision model service.
type GatewayConfig struct {
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// PipelineConfig controls the extraction orchestrator.
type PipelineConfig struct {
	ScratchDir string
	Attempts   int
	PageDelay  time.Duration
	PhotoDir   string // empty keeps the cropped photo in memory only
}

// PDFConfig controls PDF rasterization and HEIC conversion.
type PDFConfig struct {
	Pdftoppm      string
	DPI           int
	MaxPages      int
	HeicConverter string
}

type LogConfig struct {
	Level string
}

// SlogLevel parses Level, falling back to info.
func (l LogConfig) SlogLevel() slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// envBindings keeps the flat env names used in deployments.
var envBindings = map[string]string{
	"database.driver":            "DB_DRIVER",
	"database.dsn":               "DB_URL",
	"database.max_conns":         "DB_MAX_CONNS",
	"database.min_conns":         "DB_MIN_CONNS",
	"database.max_conn_lifetime": "DB_MAX_CONN_LIFETIME",
	"database.max_conn_idle":     "DB_MAX_CONN_IDLE_TIME",
	"database.dial_timeout":      "DB_DIAL_TIMEOUT",
	"database.statement_timeout": "DB_STATEMENT_TIMEOUT",
	"database.connect_attempts":  "DB_CONNECT_ATTEMPTS",
	"server.http_addr":           "HTTP_ADDR",
	"server.grpc_addr":           "GRPC_ADDR",
	"server.body_limit":          "HTTP_BODY_LIMIT",
	"gateway.endpoint":           "GATEWAY_ENDPOINT",
	"gateway.model":              "GATEWAY_MODEL",
	"gateway.timeout":            "GATEWAY_TIMEOUT",
	"pipeline.scratch_dir":       "SCRATCH_DIR",
	"pipeline.attempts":          "EXTRACT_ATTEMPTS",
	"pipeline.page_delay":        "PAGE_DELAY",
	"pipeline.photo_dir":         "PHOTO_DIR",
	"pdf.pdftoppm":               "PDFTOPPM",
	"pdf.dpi":                    "PDF_DPI",
	"pdf.max_pages":              "PDF_MAX_PAGES",
	"pdf.heic_converter":         "HEIC_CONVERTER",
	"log.level":                  "LOG_LEVEL",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.max_conns", 20)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", 30*time.Minute)
	v.SetDefault("database.max_conn_idle", 5*time.Minute)
	v.SetDefault("database.dial_timeout", 3*time.Second)
	v.SetDefault("database.statement_timeout", time.Duration(0))
	v.SetDefault("database.connect_attempts", 5)
	v.SetDefault("server.http_addr", ":5002")
	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.body_limit", 32<<20)
	v.SetDefault("gateway.endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("gateway.model", "llama3.2-vision")
	v.SetDefault("gateway.timeout", time.Duration(0))
	v.SetDefault("pipeline.scratch_dir", "uploads")
	v.SetDefault("pipeline.attempts", 3)
	v.SetDefault("pipeline.page_delay", time.Second)
	v.SetDefault("pipeline.photo_dir", "")
	v.SetDefault("pdf.pdftoppm", "pdftoppm")
	v.SetDefault("pdf.dpi", 200)
	v.SetDefault("pdf.max_pages", 0)
	v.SetDefault("pdf.heic_converter", "magick")
	v.SetDefault("log.level", "info")
}

// LoadConfig reads .env (if any), an optional kyc.yaml and the environment.
// cfgFile overrides the config file lookup when non-empty.
func LoadConfig(cfgFile string) (*Config, error) {
	// .env is optional; real env vars win over it.
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("kyc")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(v.GetString("database.driver")),
			DSN:              v.GetString("database.dsn"),
			MaxConns:         v.GetInt32("database.max_conns"),
			MinConns:         v.GetInt32("database.min_conns"),
			MaxConnLifetime:  v.GetDuration("database.max_conn_lifetime"),
			MaxConnIdleTime:  v.GetDuration("database.max_conn_idle"),
			DialTimeout:      v.GetDuration("database.dial_timeout"),
			StatementTimeout: v.GetDuration("database.statement_timeout"),
			ConnectAttempts:  v.GetUint("database.connect_attempts"),
		},
		Server: ServerConfig{
			HTTPAddr:  v.GetString("server.http_addr"),
			GRPCAddr:  v.GetString("server.grpc_addr"),
			BodyLimit: v.GetInt("server.body_limit"),
		},
		Gateway: GatewayConfig{
			Endpoint: v.GetString("gateway.endpoint"),
			Model:    v.GetString("gateway.model"),
			Timeout:  v.GetDuration("gateway.timeout"),
		},
		Pipeline: PipelineConfig{
			ScratchDir: v.GetString("pipeline.scratch_dir"),
			Attempts:   v.GetInt("pipeline.attempts"),
			PageDelay:  v.GetDuration("pipeline.page_delay"),
			PhotoDir:   v.GetString("pipeline.photo_dir"),
		},
		PDF: PDFConfig{
			Pdftoppm:      v.GetString("pdf.pdftoppm"),
			DPI:           v.GetInt("pdf.dpi"),
			MaxPages:      v.GetInt("pdf.max_pages"),
			HeicConverter: v.GetString("pdf.heic_converter"),
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
		},
	}, nil
}

// Validate checks the settings every entrypoint needs.
func (c *Config) Validate() error {
	if c.Gateway.Endpoint == "" {
		return NewAppError(CodeConfig, "GATEWAY_ENDPOINT is required", ErrInvalidInput)
	}
	if c.Gateway.Model == "" {
		return NewAppError(CodeConfig, "GATEWAY_MODEL is required", ErrInvalidInput)
	}
	if c.Pipeline.ScratchDir == "" {
		return NewAppError(CodeConfig, "SCRATCH_DIR is required", ErrInvalidInput)
	}
	if c.Pipeline.Attempts <= 0 {
		return NewAppError(CodeConfig, "EXTRACT_ATTEMPTS must be positive", ErrInvalidInput)
	}
	switch c.Database.Driver {
	case "postgres":
		if c.Database.DSN == "" {
			return NewAppError(CodeConfig, "DB_URL is required for the postgres driver", ErrInvalidInput)
		}
	case "sqlite":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("unsupported DB_DRIVER %q", c.Database.Driver), ErrInvalidInput)
	}
	return nil
}
