package shared

import (
	_ "embed"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// It is built once at start-up and handed to every component that needs it.
type Config struct {
	Source      SourceConfig      `toml:"source"`
	Destination DestinationConfig `toml:"destination"`
	Assets      AssetsConfig      `toml:"assets"`
	Content     ContentConfig     `toml:"content"`
	Migration   MigrationConfig   `toml:"migration"`
	Ledger      LedgerConfig      `toml:"ledger"`
}

// SourceConfig describes the WordPress database.
type SourceConfig struct {
	Driver             string `toml:"driver"`
	DSN                string `toml:"dsn"`
	TablePrefix        string `toml:"table_prefix"`
	TagTaxonomy        string `toml:"tag_taxonomy"`
	AuthorImageMetaKey string `toml:"author_image_meta_key"`
	MaxOpenConns       int    `toml:"max_open_conns"`
	MaxIdleConns       int    `toml:"max_idle_conns"`
}

// DestinationConfig contains the content API endpoint and its bearer credential.
type DestinationConfig struct {
	APIURL             string `toml:"api_url"`
	APIToken           string `toml:"api_token"`
	TimeoutSeconds     int    `toml:"timeout_seconds"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// Timeout returns the per-request timeout, defaulting to 30 seconds.
func (d DestinationConfig) Timeout() time.Duration {
	if d.TimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(d.TimeoutSeconds) * time.Second
}

// Substitution is one ordered (pattern, replacement) pair used to normalise mirror domains.
type Substitution struct {
	Pattern     string `toml:"pattern"`
	Replacement string `toml:"replacement"`
}

// AssetsConfig locates legacy uploads on disk and describes how their URLs are rehomed.
type AssetsConfig struct {
	ContentRoot   string         `toml:"content_root"`
	BaseURL       string         `toml:"base_url"`
	Marker        string         `toml:"marker"`
	ImageRoot     string         `toml:"image_root"`
	UploadInline  bool           `toml:"upload_inline"`
	Substitutions []Substitution `toml:"substitutions"`
}

// ContentConfig controls body transformation.
type ContentConfig struct {
	PromoThreshold int      `toml:"promo_threshold"`
	Promos         []string `toml:"promos"`
}

// MigrationConfig controls the orchestrator.
type MigrationConfig struct {
	Workers int `toml:"workers"`
}

// LedgerConfig contains the local run history database settings.
type LedgerConfig struct {
	Enabled      bool   `toml:"enabled"`
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// envOverrides maps environment variable names to the fields they replace.
// Later names win, so the WPX_ prefixed variants take precedence.
var envOverrides = []struct {
	name  string
	apply func(*Config, string)
}{
	{"DB_URL", func(c *Config, v string) { c.Source.DSN = v }},
	{"API_URL", func(c *Config, v string) { c.Destination.APIURL = v }},
	{"API_TOKEN", func(c *Config, v string) { c.Destination.APIToken = v }},
	{"WPX_DB_URL", func(c *Config, v string) { c.Source.DSN = v }},
	{"WPX_API_URL", func(c *Config, v string) { c.Destination.APIURL = v }},
	{"WPX_API_TOKEN", func(c *Config, v string) { c.Destination.APIToken = v }},
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s: %w", path, err)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ApplyEnv overrides credentials and endpoints from the environment.
//
// lookup is usually [os.LookupEnv]; empty values are ignored.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	for _, o := range envOverrides {
		if v, ok := lookup(o.name); ok && v != "" {
			o.apply(c, v)
		}
	}
}

// Validate checks the settings a migration run cannot do without.
func (c *Config) Validate() error {
	if c.Source.DSN == "" {
		return fmt.Errorf("%w: source.dsn is empty", ErrMissingConfig)
	}
	if c.Destination.APIURL == "" {
		return fmt.Errorf("%w: destination.api_url is empty", ErrMissingConfig)
	}
	if u, err := url.Parse(c.Destination.APIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%w: destination.api_url %q is not an absolute URL", ErrInvalidConfig, c.Destination.APIURL)
	}
	if c.Destination.APIToken == "" {
		return fmt.Errorf("%w: destination.api_token is empty", ErrMissingCredentials)
	}
	if c.Assets.BaseURL != "" {
		if u, err := url.Parse(c.Assets.BaseURL); err != nil || u.Host == "" {
			return fmt.Errorf("%w: assets.base_url %q has no host", ErrInvalidConfig, c.Assets.BaseURL)
		}
	}
	for i, s := range c.Assets.Substitutions {
		if s.Pattern == "" {
			return fmt.Errorf("%w: assets.substitutions[%d] has an empty pattern", ErrInvalidConfig, i)
		}
	}
	if c.Migration.Workers < 0 {
		return fmt.Errorf("%w: migration.workers must not be negative", ErrInvalidConfig)
	}
	return nil
}
