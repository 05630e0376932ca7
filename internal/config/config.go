package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog"
)

// Config is the full application configuration, loaded from VERIFIXIA_*
// environment variables over the built-in defaults. Nested keys use a
// double underscore: VERIFIXIA_SERVER__PORT maps to server.port.
type Config struct {
	Primary       Primary              `koanf:"primary" validate:"required"`
	Server        ServerConfig         `koanf:"server" validate:"required"`
	Database      DatabaseConfig       `koanf:"database"`
	Model         ModelConfig          `koanf:"model"`
	Forensic      ForensicConfig       `koanf:"forensic" validate:"required"`
	Archive       *ArchiveConfig       `koanf:"archive"`
	Auth          AuthConfig           `koanf:"auth"`
	Observability *ObservabilityConfig `koanf:"observability"`
}

type Primary struct {
	Env string `koanf:"env" validate:"required"`
}

type ServerConfig struct {
	Port               string   `koanf:"port" validate:"required"`
	ReadTimeout        int      `koanf:"read_timeout" validate:"required"`
	WriteTimeout       int      `koanf:"write_timeout" validate:"required"`
	IdleTimeout        int      `koanf:"idle_timeout" validate:"required"`
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins" validate:"required"`
	UploadDir          string   `koanf:"upload_dir" validate:"required"`
	MaxUploadBytes     int64    `koanf:"max_upload_bytes" validate:"required"`
}

// DatabaseConfig points at the remote indexed store. An empty URL runs the
// forensic log in local-only mode.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// ModelConfig locates the ONNX classifier. A missing model file is not an
// error; the pipeline degrades to the heuristic tier.
type ModelConfig struct {
	Path       string `koanf:"path"`
	RuntimeLib string `koanf:"runtime_lib"`
	InputSize  int    `koanf:"input_size" validate:"required"`
}

type ForensicConfig struct {
	LogPath string `koanf:"log_path" validate:"required"`
}

// ArchiveConfig points at an S3-compatible bucket for forensic log batch
// exports. Nil disables the archive.
type ArchiveConfig struct {
	Endpoint  string `koanf:"endpoint"`
	Region    string `koanf:"region"`
	Bucket    string `koanf:"bucket"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
}

// AuthConfig carries static dev tokens as "token:uid:email" triples
// separated by semicolons. Empty disables identity resolution.
type AuthConfig struct {
	StaticTokens string `koanf:"static_tokens"`
}

func defaults() Config {
	return Config{
		Primary: Primary{Env: "development"},
		Server: ServerConfig{
			Port:               "3001",
			ReadTimeout:        15,
			WriteTimeout:       30,
			IdleTimeout:        60,
			CORSAllowedOrigins: []string{"http://localhost:5173", "http://localhost:8080"},
			UploadDir:          "uploads",
			MaxUploadBytes:     16 << 20,
		},
		Model: ModelConfig{
			Path:      "models/xception_deepfake.onnx",
			InputSize: 299,
		},
		Forensic: ForensicConfig{LogPath: "detection_logs.jsonl"},
	}
}

// Load reads the configuration from environment variables using koanf.
func Load() (*Config, error) {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	k := koanf.New(".")
	err := k.Load(env.Provider("VERIFIXIA_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "VERIFIXIA_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil)
	if err != nil {
		logger.Fatal().Err(err).Msg("could not load env variables")
	}

	cfg := defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		logger.Fatal().Err(err).Msg("could not unmarshal config")
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		logger.Fatal().Err(err).Msg("could not validate config")
	}

	if cfg.Observability == nil {
		cfg.Observability = DefaultObservabilityConfig()
	}
	cfg.Observability.ServiceName = "verifixia"
	cfg.Observability.Environment = cfg.Primary.Env
	if err := cfg.Observability.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid observability config")
	}

	// An archive section with no bucket is the same as no archive section.
	if cfg.Archive != nil && (cfg.Archive.Endpoint == "" || cfg.Archive.Bucket == "") {
		cfg.Archive = nil
	}

	return &cfg, nil
}
