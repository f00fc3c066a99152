/*
Package config manages the TOML config for cvsuggest.

Config is resolved in priority order: an explicit path, then
[UserConfigDir]/cvsuggest/config.toml (created with defaults on first run),
then built-in defaults. A file with mistyped values is recovered section by
section. Environment variables, optionally seeded from a .env file, override
the file for deployment-specific values.
*/
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bastiangx/cvsuggest/internal/utils"
	"github.com/bastiangx/cvsuggest/pkg/autocomplete"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

const (
	EnvGeocoderURL = "CVSUGGEST_GEOCODER_URL"
	EnvSessionKey  = "CVSUGGEST_SESSION_KEY"
)

// Config holds the entire config structure
type Config struct {
	Widget   WidgetConfig   `toml:"widget"`
	Catalog  CatalogConfig  `toml:"catalog"`
	Cache    CacheConfig    `toml:"cache"`
	Server   ServerConfig   `toml:"server"`
	Geocoder GeocoderConfig `toml:"geocoder"`
}

// WidgetConfig mirrors autocomplete.Config.
type WidgetConfig struct {
	SessionKey   string `toml:"session_key"`
	MinChars     int    `toml:"min_chars"`
	DebounceMS   int    `toml:"debounce_ms"`
	MaxResults   int    `toml:"max_results"`
	FillOnSelect bool   `toml:"fill_on_select"`
	RowHeight    int    `toml:"row_height"`
	MaxHeight    int    `toml:"max_height"`
	Overscan     int    `toml:"overscan"`
}

// CatalogConfig holds interest catalog options.
type CatalogConfig struct {
	// SeedDir replaces the embedded seeds when set.
	SeedDir        string `toml:"seed_dir"`
	SearchLimit    int    `toml:"search_limit"`
	RecommendLimit int    `toml:"recommend_limit"`
	CompleteLimit  int    `toml:"complete_limit"`
}

// CacheConfig holds result cache options.
type CacheConfig struct {
	MaxEntries int `toml:"max_entries"`
}

// ServerConfig has IPC server options.
type ServerConfig struct {
	MaxLimit int `toml:"max_limit"`
}

// GeocoderConfig configures location lookups. An empty URL selects the
// offline list of FallbackLocations.
type GeocoderConfig struct {
	URL               string   `toml:"url"`
	UserAgent         string   `toml:"user_agent"`
	Limit             int      `toml:"limit"`
	TimeoutMS         int      `toml:"timeout_ms"`
	FallbackLocations []string `toml:"fallback_locations"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Widget: WidgetConfig{
			SessionKey: "cvsuggest",
			MinChars:   autocomplete.DefaultMinChars,
			DebounceMS: int(autocomplete.DefaultDebounce / time.Millisecond),
			MaxResults: autocomplete.DefaultMaxResults,
			RowHeight:  autocomplete.DefaultRowHeight,
			MaxHeight:  autocomplete.DefaultMaxHeight,
			Overscan:   autocomplete.DefaultOverscan,
		},
		Catalog: CatalogConfig{
			SearchLimit:    50,
			RecommendLimit: 10,
			CompleteLimit:  20,
		},
		Cache: CacheConfig{
			MaxEntries: 512,
		},
		Server: ServerConfig{
			MaxLimit: 100,
		},
		Geocoder: GeocoderConfig{
			UserAgent: "cvsuggest/0.1",
			Limit:     8,
			TimeoutMS: 5000,
			FallbackLocations: []string{
				"Amsterdam, Netherlands", "Bangalore, India", "Berlin, Germany",
				"Lagos, Nigeria", "Lisbon, Portugal", "London, United Kingdom",
				"Los Angeles, United States", "Madrid, Spain", "Nairobi, Kenya",
				"New York, United States", "Paris, France", "San Francisco, United States",
				"São Paulo, Brazil", "Singapore", "Sydney, Australia", "Tokyo, Japan",
				"Toronto, Canada", "Warsaw, Poland",
			},
		},
	}
}

// AutocompleteConfig converts the widget section for autocomplete.New.
func (c *Config) AutocompleteConfig() autocomplete.Config {
	w := c.Widget
	return autocomplete.Config{
		SessionKey:   w.SessionKey,
		MinChars:     w.MinChars,
		Debounce:     time.Duration(w.DebounceMS) * time.Millisecond,
		MaxResults:   w.MaxResults,
		FillOnSelect: w.FillOnSelect,
		RowHeight:    w.RowHeight,
		MaxHeight:    w.MaxHeight,
		Overscan:     w.Overscan,
	}
}

// GeocoderTimeout returns the geocoder request timeout.
func (c *Config) GeocoderTimeout() time.Duration {
	return time.Duration(c.Geocoder.TimeoutMS) * time.Millisecond
}

// GetConfigDir returns the config directory with fallback priority:
// 1. os.UserConfigDir()/cvsuggest
// 2. ~/.config/cvsuggest
// 3. Current executable dir
func GetConfigDir() (string, error) {
	if dir, err := os.UserConfigDir(); err == nil {
		path := filepath.Join(dir, "cvsuggest")
		if utils.CheckDir(path).Writable {
			return path, nil
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "cvsuggest")
		if utils.CheckDir(path).Writable {
			return path, nil
		}
	}
	dir, err := utils.ExecutableDir()
	if err != nil {
		log.Errorf("Failed to get executable directory: %v", err)
		return "", err
	}
	return dir, nil
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from -config flag
// 2. Default path
// 3. Builtin defaults
//
// It never fails; the returned path is empty when defaults are used.
func LoadConfigWithPriority(customPath string) (*Config, string) {
	if customPath != "" {
		if _, err := os.Stat(customPath); err == nil {
			if cfg, err := LoadConfig(customPath); err == nil {
				log.Debugf("Loaded config from custom path: %s", customPath)
				return cfg, customPath
			} else {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customPath, err)
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customPath, err)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), ""
	}
	cfg, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using built-in defaults...", defaultPath, err)
		return DefaultConfig(), ""
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return cfg, defaultPath
}

// InitConfig loads config from path, writing the defaults there first if missing.
func InitConfig(path string) (*Config, error) {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, err
	}
	if !utils.FileExists(path) {
		cfg := DefaultConfig()
		if err := SaveConfig(cfg, path); err != nil {
			return nil, err
		}
		log.Debugf("Created default config file at: %s", path)
		return cfg, nil
	}
	return LoadConfig(path)
}

// LoadConfig loads from a TOML file. A file that fails strict decoding is
// recovered field by field; only an unreadable or unparsable file is an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if err := utils.LoadTOMLFile(path, cfg); err != nil {
		return tryPartialParse(path)
	}
	return cfg, nil
}

func tryPartialParse(path string) (*Config, error) {
	raw, err := utils.ParseTOMLLoose(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()

	if s, ok := utils.ExtractSection(raw, "widget"); ok {
		extractWidgetConfig(s, &cfg.Widget)
	}
	if s, ok := utils.ExtractSection(raw, "catalog"); ok {
		extractCatalogConfig(s, &cfg.Catalog)
	}
	if s, ok := utils.ExtractSection(raw, "cache"); ok {
		if v, ok := utils.ExtractInt(s, "max_entries"); ok {
			cfg.Cache.MaxEntries = v
		}
	}
	if s, ok := utils.ExtractSection(raw, "server"); ok {
		if v, ok := utils.ExtractInt(s, "max_limit"); ok {
			cfg.Server.MaxLimit = v
		}
	}
	if s, ok := utils.ExtractSection(raw, "geocoder"); ok {
		extractGeocoderConfig(s, &cfg.Geocoder)
	}
	return cfg, nil
}

func extractWidgetConfig(data map[string]any, w *WidgetConfig) {
	if v, ok := utils.ExtractString(data, "session_key"); ok {
		w.SessionKey = v
	}
	if v, ok := utils.ExtractInt(data, "min_chars"); ok {
		w.MinChars = v
	}
	if v, ok := utils.ExtractInt(data, "debounce_ms"); ok {
		w.DebounceMS = v
	}
	if v, ok := utils.ExtractInt(data, "max_results"); ok {
		w.MaxResults = v
	}
	if v, ok := utils.ExtractBool(data, "fill_on_select"); ok {
		w.FillOnSelect = v
	}
	if v, ok := utils.ExtractInt(data, "row_height"); ok {
		w.RowHeight = v
	}
	if v, ok := utils.ExtractInt(data, "max_height"); ok {
		w.MaxHeight = v
	}
	if v, ok := utils.ExtractInt(data, "overscan"); ok {
		w.Overscan = v
	}
}

func extractCatalogConfig(data map[string]any, c *CatalogConfig) {
	if v, ok := utils.ExtractString(data, "seed_dir"); ok {
		c.SeedDir = v
	}
	if v, ok := utils.ExtractInt(data, "search_limit"); ok {
		c.SearchLimit = v
	}
	if v, ok := utils.ExtractInt(data, "recommend_limit"); ok {
		c.RecommendLimit = v
	}
	if v, ok := utils.ExtractInt(data, "complete_limit"); ok {
		c.CompleteLimit = v
	}
}

func extractGeocoderConfig(data map[string]any, g *GeocoderConfig) {
	if v, ok := utils.ExtractString(data, "url"); ok {
		g.URL = v
	}
	if v, ok := utils.ExtractString(data, "user_agent"); ok {
		g.UserAgent = v
	}
	if v, ok := utils.ExtractInt(data, "limit"); ok {
		g.Limit = v
	}
	if v, ok := utils.ExtractInt(data, "timeout_ms"); ok {
		g.TimeoutMS = v
	}
	if v, ok := utils.ExtractStrings(data, "fallback_locations"); ok {
		g.FallbackLocations = v
	}
}

// LoadEnv loads KEY=value pairs from the given .env files (".env" when none are
// named) into the process environment. Missing files are skipped and existing
// variables are never overwritten.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return err
		}
		log.Debugf("Loaded environment from %s", f)
	}
	return nil
}

// ApplyEnv overrides config values from the environment.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvGeocoderURL); ok {
		c.Geocoder.URL = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvSessionKey); ok && strings.TrimSpace(v) != "" {
		c.Widget.SessionKey = strings.TrimSpace(v)
	}
}

// RebuildConfigFile force creates a new config.toml at the default path.
func RebuildConfigFile() (string, error) {
	path, err := GetDefaultConfigPath()
	if err != nil {
		return "", err
	}
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return "", err
	}
	return path, SaveConfig(DefaultConfig(), path)
}

// GetActiveConfigPath returns the absolute path of the loaded config file.
func GetActiveConfigPath(path string) string {
	return utils.AbsPath(path)
}

// SaveConfig saves into a TOML file
func SaveConfig(cfg *Config, path string) error {
	return utils.SaveTOMLFile(cfg, path)
}
