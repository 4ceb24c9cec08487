package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the service. Values come from the
// defaults below, then an optional YAML file (CONFIG_FILE), then the
// environment.
type Config struct {
	Port     string `yaml:"port"`
	GRPCPort string `yaml:"grpc_port"`
	LogLevel string `yaml:"log_level"`

	APIURL    string `yaml:"api_url"`
	APIKey    string `yaml:"api_key"`
	ModelName string `yaml:"model_name"`

	UploadAPIURL   string `yaml:"upload_api_url"`
	UploadMaxBytes int64  `yaml:"upload_max_bytes"`
	ShareDir       string `yaml:"share_dir"`

	SupabaseURL        string `yaml:"supabase_url"`
	SupabaseServiceKey string `yaml:"supabase_service_key"`
	SessionTable       string `yaml:"session_table"`

	TranslateBatchSize   int           `yaml:"translate_batch_size"`
	TranslateConcurrency int           `yaml:"translate_concurrency"`
	LivenessRetries      int           `yaml:"liveness_retries"`
	LivenessDelay        time.Duration `yaml:"liveness_delay"`
	UpstreamRPS          float64       `yaml:"upstream_rps"`
	TranscriptCacheTTL   time.Duration `yaml:"transcript_cache_ttl"`
	ActiveSessions       int           `yaml:"active_sessions"`
	PersistWorkers       int           `yaml:"persist_workers"`
	AllowedOrigins       string        `yaml:"allowed_origins"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:                 "8080",
		GRPCPort:             "9090",
		LogLevel:             "info",
		ModelName:            "gpt-4o-mini",
		UploadMaxBytes:       5 << 20,
		ShareDir:             "shared",
		SessionTable:         "sessions",
		TranslateBatchSize:   100,
		TranslateConcurrency: 10,
		LivenessRetries:      3,
		LivenessDelay:        time.Second,
		UpstreamRPS:          20,
		TranscriptCacheTTL:   10 * time.Minute,
		ActiveSessions:       256,
		PersistWorkers:       2,
		AllowedOrigins:       "*",
	}
}

// Load reads .env (outside production), the YAML file named by CONFIG_FILE
// and the environment, in that order of increasing precedence.
func Load() (Config, error) {
	if os.Getenv("APP_ENV") != "production" {
		if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("PORT", &c.Port)
	str("GRPC_PORT", &c.GRPCPort)
	str("LOG_LEVEL", &c.LogLevel)
	str("API_URL", &c.APIURL)
	str("API_KEY", &c.APIKey)
	str("MODEL_NAME", &c.ModelName)
	str("UPLOAD_API_URL", &c.UploadAPIURL)
	str("SHARE_DIR", &c.ShareDir)
	str("SUPABASE_URL", &c.SupabaseURL)
	str("SUPABASE_SERVICE_KEY", &c.SupabaseServiceKey)
	str("SESSION_TABLE", &c.SessionTable)
	str("ALLOWED_ORIGINS", &c.AllowedOrigins)
	num("TRANSLATE_BATCH_SIZE", &c.TranslateBatchSize)
	num("TRANSLATE_CONCURRENCY", &c.TranslateConcurrency)
	num("LIVENESS_RETRIES", &c.LivenessRetries)
	num("ACTIVE_SESSIONS", &c.ActiveSessions)
	num("PERSIST_WORKERS", &c.PersistWorkers)
	dur("LIVENESS_DELAY", &c.LivenessDelay)
	dur("TRANSCRIPT_CACHE_TTL", &c.TranscriptCacheTTL)

	if v, ok := lookup("UPLOAD_MAX_BYTES"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("UPLOAD_MAX_BYTES: %w", err))
		} else {
			c.UploadMaxBytes = n
		}
	}
	if v, ok := lookup("UPSTREAM_RPS"); ok && v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("UPSTREAM_RPS: %w", err))
		} else {
			c.UpstreamRPS = f
		}
	}
	return errors.Join(errs...)
}

// UsesSupabase reports whether sessions are stored in Supabase rather than
// in memory.
func (c Config) UsesSupabase() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}
