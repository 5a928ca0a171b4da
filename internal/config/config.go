// Package config loads service settings from defaults, an optional YAML file,
// a .env file and DOCPARSE_* environment variables, in increasing priority.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/ironsheep/docparse-mcp/internal/entity"
	"github.com/ironsheep/docparse-mcp/internal/imaging"
	"github.com/ironsheep/docparse-mcp/internal/labeling"
	"github.com/ironsheep/docparse-mcp/internal/ocr"
)

// EnvPrefix prefixes every environment variable, e.g. DOCPARSE_SERVER_ADDR.
const EnvPrefix = "DOCPARSE"

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig              `mapstructure:"server"`
	OCR        ocr.Config                `mapstructure:"ocr"`
	Preprocess imaging.PreprocessOptions `mapstructure:"preprocess"`
	Labeler    labeling.Config           `mapstructure:"labeler"`
	Grouping   GroupingConfig            `mapstructure:"grouping"`
	Cache      CacheConfig               `mapstructure:"cache"`
	Log        LogConfig                 `mapstructure:"log"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Addr             string        `mapstructure:"addr"`
	ReadTimeout      time.Duration `mapstructure:"read_timeout"`
	WriteTimeout     time.Duration `mapstructure:"write_timeout"`
	MaxUploadMB      int64         `mapstructure:"max_upload_mb"`
	AllowedOrigins   []string      `mapstructure:"allowed_origins"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
	Environment      string        `mapstructure:"environment"`
}

// MaxUploadBytes is MaxUploadMB in bytes.
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}

// GroupingConfig holds entity grouping settings.
type GroupingConfig struct {
	Convention       string   `mapstructure:"convention"`
	OutsideLabels    []string `mapstructure:"outside_labels"`
	FlatSplitOnBegin bool     `mapstructure:"flat_split_on_begin"`
	MalformedPolicy  string   `mapstructure:"malformed_policy"`
}

// Options converts the settings into grouping options and a fixed convention.
func (g GroupingConfig) Options() ([]entity.Option, entity.Convention, error) {
	conv, err := entity.ParseConvention(g.Convention)
	if err != nil {
		return nil, entity.Auto, err
	}

	var policy entity.MalformedPolicy
	switch strings.ToLower(strings.TrimSpace(g.MalformedPolicy)) {
	case "", "normalize":
		policy = entity.NormalizeMalformed
	case "reject":
		policy = entity.RejectMalformed
	default:
		return nil, entity.Auto, fmt.Errorf("unknown malformed policy %q", g.MalformedPolicy)
	}

	opts := []entity.Option{
		entity.WithMalformedPolicy(policy),
		entity.WithFlatSplitOnBegin(g.FlatSplitOnBegin),
	}
	if len(g.OutsideLabels) > 0 {
		opts = append(opts, entity.WithOutsideLabels(g.OutsideLabels...))
	}
	return opts, conv, nil
}

// CacheConfig holds result cache settings.
type CacheConfig struct {
	// Backend is "none", "memory" or "redis".
	Backend  string        `mapstructure:"backend"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration. configFile may be empty; envFile is loaded only
// if it exists and never overrides variables already set in the environment.
func Load(configFile, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("loading %s: %w", envFile, err)
			}
		}
	}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "120s")
	v.SetDefault("server.max_upload_mb", 20)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.batch_concurrency", 4)
	v.SetDefault("server.environment", "development")

	// OCR defaults
	ocrDefaults := ocr.DefaultConfig()
	v.SetDefault("ocr.language", ocrDefaults.Language)
	v.SetDefault("ocr.page_seg_mode", ocrDefaults.PageSegMode)
	v.SetDefault("ocr.min_confidence", ocrDefaults.MinConfidence)
	v.SetDefault("ocr.tessdata_prefix", "")

	// Preprocess defaults
	pre := imaging.DefaultPreprocessOptions()
	v.SetDefault("preprocess.grayscale", pre.Grayscale)
	v.SetDefault("preprocess.contrast", pre.Contrast)
	v.SetDefault("preprocess.threshold", pre.Threshold)
	v.SetDefault("preprocess.min_height", pre.MinHeight)

	// Labeler defaults
	v.SetDefault("labeler.endpoint", "")
	v.SetDefault("labeler.api_key", "")
	v.SetDefault("labeler.timeout", "60s")
	v.SetDefault("labeler.send_image", false)
	v.SetDefault("labeler.model", "")

	// Grouping defaults
	v.SetDefault("grouping.convention", "auto")
	v.SetDefault("grouping.outside_labels", entity.DefaultOutsideLabels)
	v.SetDefault("grouping.flat_split_on_begin", false)
	v.SetDefault("grouping.malformed_policy", "normalize")

	// Cache defaults
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.redis_url", "redis://localhost:6379/0")
	v.SetDefault("cache.ttl", "24h")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// Validate checks values that cannot be caught by decoding alone.
func (c *Config) Validate() error {
	var errs []error
	if _, _, err := c.Grouping.Options(); err != nil {
		errs = append(errs, fmt.Errorf("grouping: %w", err))
	}
	switch c.Cache.Backend {
	case "none", "memory", "redis":
	default:
		errs = append(errs, fmt.Errorf("cache: unknown backend %q", c.Cache.Backend))
	}
	if c.Server.MaxUploadMB <= 0 {
		errs = append(errs, errors.New("server: max_upload_mb must be positive"))
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 100 {
		errs = append(errs, fmt.Errorf("ocr: min_confidence %v outside 0..100", c.OCR.MinConfidence))
	}
	return errors.Join(errs...)
}
