// Package config loads service settings from environment variables.
// Run-scoped choices (mode, forced ids) come from CLI flags instead and
// override nothing here.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pgcseis/wellassoc/internal/assoc"
	"github.com/pgcseis/wellassoc/internal/catalog"
	"github.com/pgcseis/wellassoc/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	DBPath          string
	QuakeTable      string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	BatchSize int
	InMemory  bool

	Mode      assoc.Mode
	AssocMode domain.AssocMode
	Types     []domain.ActivityType

	// HFTmaxDays overrides the default HF decay window when > 0.
	HFTmaxDays int

	// Kafka publishing is optional; empty brokers disable it.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	batchSize, err := parseInt("BATCH_SIZE", 10_000)
	if err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		return nil, errors.New("BATCH_SIZE must be positive")
	}

	hfTmax, err := parseInt("HF_TMAX_DAYS", 0)
	if err != nil {
		return nil, err
	}
	if hfTmax < 0 {
		return nil, errors.New("HF_TMAX_DAYS must not be negative")
	}

	types, err := ParseTypes(envOrDefault("ACTIVITY_TYPES", "HF,WD,PROD"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DBPath:          envOrDefault("DB_PATH", "wellassoc.db"),
		QuakeTable:      envOrDefault("QUAKE_TABLE", catalog.TableOrigin3D),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		BatchSize:       batchSize,
		InMemory:        os.Getenv("IN_MEMORY") == "true",
		Mode:            assoc.Mode(envOrDefault("MODE", string(assoc.ModeIncremental))),
		AssocMode:       domain.AssocMode(envOrDefault("ASSOC_MODE", string(domain.ModeDetailed))),
		Types:           types,
		HFTmaxDays:      hfTmax,
		KafkaBrokers:    parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:      envOrDefault("KAFKA_TOPIC", "eq-classifications"),
	}

	switch cfg.Mode {
	case assoc.ModeFull, assoc.ModeIncremental:
	default:
		return nil, fmt.Errorf("invalid MODE %q", cfg.Mode)
	}
	switch cfg.AssocMode {
	case domain.ModeSimple, domain.ModeDetailed:
	default:
		return nil, fmt.Errorf("invalid ASSOC_MODE %q", cfg.AssocMode)
	}
	switch cfg.QuakeTable {
	case catalog.TableOrigin3D, catalog.TableOrigin:
	default:
		return nil, fmt.Errorf("invalid QUAKE_TABLE %q", cfg.QuakeTable)
	}
	if cfg.DBPath == "" {
		return nil, errors.New("DB_PATH is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_BROKERS is set but KAFKA_TOPIC is empty")
	}

	return cfg, nil
}

// Params builds the association parameters with any configured overrides
// applied.
func (c *Config) Params() domain.Params {
	p := domain.DefaultParams()
	if c.HFTmaxDays > 0 {
		p.HFTmaxDays = c.HFTmaxDays
	}
	return p
}

// ParseTypes parses a comma-separated activity type list.
func ParseTypes(s string) ([]domain.ActivityType, error) {
	var out []domain.ActivityType
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t := domain.ActivityType(strings.ToUpper(part))
		switch t {
		case domain.HF, domain.WD, domain.PROD:
			out = append(out, t)
		default:
			return nil, fmt.Errorf("unknown activity type %q", part)
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no activity types selected")
	}
	return out, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}

func parseInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return n, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, s)
	}
	return d, nil
}
