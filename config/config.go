package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DefaultBookingURL     = "http://localhost:8080/api/rooms"
	DefaultListenAddr     = ":3002"
	DefaultLogLevel       = "info"
	DefaultHighlightTTL   = 3000 * time.Millisecond
	DefaultRequestTimeout = 10 * time.Second
)

type Config struct {
	BookingURL     string        `yaml:"booking_url"`
	ListenAddr     string        `yaml:"listen_addr"`
	LogLevel       string        `yaml:"log_level"`
	HighlightTTL   time.Duration `yaml:"-"`
	RequestTimeout time.Duration `yaml:"-"`
	StaleGuard     bool          `yaml:"stale_refresh_guard"`
	CORSOrigins    []string      `yaml:"cors_origins"`
	Journal        JournalConfig `yaml:"journal"`
}

// fileConfig is the YAML layout. Durations go through ParseDuration so the
// file and the environment accept the same values.
type fileConfig struct {
	Config         `yaml:",inline"`
	HighlightTTL   *duration `yaml:"highlight_ttl"`
	RequestTimeout *duration `yaml:"request_timeout"`
}

type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = duration(parsed)
	return nil
}

type JournalConfig struct {
	Type           string `yaml:"type"`
	DataSourceName string `yaml:"data_source_name"`
}

func Defaults() *Config {
	return &Config{
		BookingURL:     DefaultBookingURL,
		ListenAddr:     DefaultListenAddr,
		LogLevel:       DefaultLogLevel,
		HighlightTTL:   DefaultHighlightTTL,
		RequestTimeout: DefaultRequestTimeout,
		Journal:        JournalConfig{Type: "memory"},
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		file := fileConfig{Config: *cfg}
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		*cfg = file.Config
		if file.HighlightTTL != nil {
			cfg.HighlightTTL = time.Duration(*file.HighlightTTL)
		}
		if file.RequestTimeout != nil {
			cfg.RequestTimeout = time.Duration(*file.RequestTimeout)
		}
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("BOOKING_URL", &c.BookingURL)
	str("LISTEN_ADDR", &c.ListenAddr)
	str("LOG_LEVEL", &c.LogLevel)
	str("JOURNAL_TYPE", &c.Journal.Type)
	str("DATA_SOURCE_NAME", &c.Journal.DataSourceName)

	for key, dst := range map[string]*time.Duration{
		"HIGHLIGHT_TTL":   &c.HighlightTTL,
		"REQUEST_TIMEOUT": &c.RequestTimeout,
	} {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}

	if v, ok := lookup("STALE_REFRESH_GUARD"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("STALE_REFRESH_GUARD: %w", err)
		}
		c.StaleGuard = b
	}
	if v, ok := lookup("CORS_ORIGINS"); ok && v != "" {
		c.CORSOrigins = SplitList(v)
	}
	return nil
}

func (c *Config) Validate() error {
	u, err := url.Parse(c.BookingURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid booking url %q", c.BookingURL)
	}
	if c.HighlightTTL <= 0 {
		return errors.New("highlight ttl must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("request timeout must be positive")
	}
	switch c.Journal.Type {
	case "", "memory":
	case "sqlite":
		if c.Journal.DataSourceName == "" {
			return errors.New("sqlite journal needs a data source name")
		}
	default:
		return fmt.Errorf("unknown journal type %q", c.Journal.Type)
	}
	return nil
}

// ParseDuration accepts Go duration strings ("3s", "1500ms") and bare
// integers, which are read as milliseconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// SplitList splits a comma separated list, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
