package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/aretw0/flowcanvas/internal/logging"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendHTTP   = "http"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FLOWCANVAS_"

// Candidates are the file names looked up in the working directory when no
// path is given.
var Candidates = []string{"flowcanvas.yaml", "flowcanvas.yml", "flowcanvas.toml", "flowcanvas.json"}

// Config holds the flowcanvas configuration.
type Config struct {
	Tenant string       `mapstructure:"tenant"`
	Store  StoreConfig  `mapstructure:"store"`
	Server ServerConfig `mapstructure:"server"`
	Editor EditorConfig `mapstructure:"editor"`
	Log    LogConfig    `mapstructure:"log"`
}

// StoreConfig selects and configures the record store.
type StoreConfig struct {
	Backend string      `mapstructure:"backend"` // memory, file, redis, http
	Path    string      `mapstructure:"path"`
	Redis   RedisConfig `mapstructure:"redis"`
	HTTP    HTTPConfig  `mapstructure:"http"`

	// MaskAnswers are regular expressions; matching conversation answers
	// are masked before they leave the process.
	MaskAnswers []string `mapstructure:"mask_answers"`
}

// RedisConfig configures the redis store and node locks.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
	Locks    bool   `mapstructure:"locks"`
}

// HTTPConfig configures the remote question API client.
type HTTPConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// ServerConfig configures `flowcanvas serve`.
type ServerConfig struct {
	Addr    string `mapstructure:"addr"`
	Metrics bool   `mapstructure:"metrics"`

	// AllowedOrigins limits cross-origin API access. Empty allows any origin.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// EditorConfig tunes the editing engine.
type EditorConfig struct {
	RelayoutDelay time.Duration `mapstructure:"relayout_delay"`
	LockTTL       time.Duration `mapstructure:"lock_ttl"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendMemory,
			Path:    filepath.Join(".flowcanvas", "flows"),
			Redis:   RedisConfig{Addr: "localhost:6379", Prefix: "flowcanvas:"},
			HTTP:    HTTPConfig{Timeout: 10 * time.Second},
		},
		Server: ServerConfig{Addr: ":8080", Metrics: true},
		Editor: EditorConfig{RelayoutDelay: 100 * time.Millisecond, LockTTL: 30 * time.Second},
		Log:    LogConfig{Level: "info"},
	}
}

// envKeys maps environment variables (without prefix) to config keys.
var envKeys = map[string]string{
	"TENANT":                "tenant",
	"STORE_BACKEND":         "store.backend",
	"STORE_PATH":            "store.path",
	"REDIS_ADDR":            "store.redis.addr",
	"REDIS_PASSWORD":        "store.redis.password",
	"REDIS_DB":              "store.redis.db",
	"REDIS_PREFIX":          "store.redis.prefix",
	"REDIS_LOCKS":           "store.redis.locks",
	"HTTP_BASE_URL":         "store.http.base_url",
	"HTTP_TIMEOUT":          "store.http.timeout",
	"SERVER_ADDR":           "server.addr",
	"SERVER_METRICS":        "server.metrics",
	"EDITOR_RELAYOUT_DELAY": "editor.relayout_delay",
	"EDITOR_LOCK_TTL":       "editor.lock_ttl",
	"LOG_LEVEL":             "log.level",
}

// Load reads path (or the first candidate found in the working directory),
// overlays FLOWCANVAS_* environment variables and validates the result.
// A missing candidate file is not an error; a missing explicit path is.
func Load(path string) (*Config, error) {
	return load(path, os.LookupEnv)
}

func load(path string, lookup func(string) (string, bool)) (*Config, error) {
	raw := map[string]any{}

	if path == "" {
		for _, c := range Candidates {
			if _, err := os.Stat(c); err == nil {
				path = c
				break
			}
		}
	}
	if path != "" {
		m, err := readFile(path)
		if err != nil {
			return nil, err
		}
		raw = m
	}

	for env, key := range envKeys {
		if v, ok := lookup(EnvPrefix + env); ok {
			set(raw, key, v)
		}
	}

	cfg := Default()
	if err := Decode(raw, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Decode decodes a generic map onto cfg, keeping fields raw does not name.
// Strings are weakly converted, so "true", "3" and "250ms" are accepted.
func Decode(raw map[string]any, cfg *Config) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           cfg,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func readFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	m := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}
	return m, nil
}

// set assigns v at a dotted key, creating intermediate maps.
func set(m map[string]any, key string, v any) {
	parts := strings.Split(key, ".")
	for _, p := range parts[:len(parts)-1] {
		next, ok := m[p].(map[string]any)
		if !ok {
			next = map[string]any{}
			m[p] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = v
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Backend {
	case BackendMemory, BackendFile:
	case BackendRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis backend"))
		}
	case BackendHTTP:
		if c.Store.HTTP.BaseURL == "" {
			errs = append(errs, errors.New("store.http.base_url is required for the http backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend %q", c.Store.Backend))
	}
	if c.Editor.RelayoutDelay < 0 {
		errs = append(errs, errors.New("editor.relayout_delay must not be negative"))
	}
	if c.Editor.LockTTL <= 0 {
		errs = append(errs, errors.New("editor.lock_ttl must be positive"))
	}
	for _, p := range c.Store.MaskAnswers {
		if _, err := regexp.Compile(p); err != nil {
			errs = append(errs, fmt.Errorf("store.mask_answers: %w", err))
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
