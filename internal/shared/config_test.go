package shared

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Source.TablePrefix != "wp_" {
			t.Errorf("expected table prefix wp_, got %s", config.Source.TablePrefix)
		}

		if config.Assets.ImageRoot != "/content/images" {
			t.Errorf("expected image root /content/images, got %s", config.Assets.ImageRoot)
		}

		if config.Assets.Marker != "/wp-content/uploads/" {
			t.Errorf("expected marker /wp-content/uploads/, got %s", config.Assets.Marker)
		}

		if config.Content.PromoThreshold != 3 {
			t.Errorf("expected promo threshold 3, got %d", config.Content.PromoThreshold)
		}

		if len(config.Content.Promos) != 3 {
			t.Errorf("expected 3 promo variants, got %d", len(config.Content.Promos))
		}

		if config.Migration.Workers != 8 {
			t.Errorf("expected 8 workers, got %d", config.Migration.Workers)
		}

		if len(config.Assets.Substitutions) != 2 {
			t.Fatalf("expected 2 substitutions, got %d", len(config.Assets.Substitutions))
		}

		if config.Assets.Substitutions[0].Pattern != "https://www.pstu.org.br" {
			t.Errorf("unexpected first substitution pattern %s", config.Assets.Substitutions[0].Pattern)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Ledger.Path != defaultConfig.Ledger.Path {
			t.Errorf("created config ledger path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[source]
dsn = "user:pass@tcp(db:3306)/blog"

[destination]
api_url = "https://content.example.com/api"
api_token = "secret"

[assets]
content_root = "/srv/wordpress"
base_url = "https://blog.example.com"

[[assets.substitutions]]
pattern = "https://mirror.example.com"
replacement = "https://blog.example.com"

[migration]
workers = 2
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Source.DSN != "user:pass@tcp(db:3306)/blog" {
			t.Errorf("expected custom dsn, got %s", config.Source.DSN)
		}

		if config.Source.TablePrefix != "wp_" {
			t.Errorf("expected default table prefix to survive, got %s", config.Source.TablePrefix)
		}

		if config.Migration.Workers != 2 {
			t.Errorf("expected 2 workers, got %d", config.Migration.Workers)
		}

		if len(config.Assets.Substitutions) != 1 {
			t.Fatalf("expected substitutions to be replaced, got %d", len(config.Assets.Substitutions))
		}

		if config.Assets.Substitutions[0].Pattern != "https://mirror.example.com" {
			t.Errorf("unexpected substitution %+v", config.Assets.Substitutions[0])
		}

		if err := config.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("LoadConfig Missing File", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})

	t.Run("LoadConfig Invalid TOML", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("[source\ndsn ="), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}
		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		env := map[string]string{
			"API_URL":       "https://legacy.example.com",
			"WPX_API_URL":   "https://preferred.example.com",
			"API_TOKEN":     "token-from-env",
			"DB_URL":        "",
			"UNRELATED_VAR": "ignored",
		}
		lookup := func(k string) (string, bool) {
			v, ok := env[k]
			return v, ok
		}

		config := DefaultConfig()
		dsn := config.Source.DSN
		config.ApplyEnv(lookup)

		if config.Destination.APIURL != "https://preferred.example.com" {
			t.Errorf("expected WPX_API_URL to win, got %s", config.Destination.APIURL)
		}
		if config.Destination.APIToken != "token-from-env" {
			t.Errorf("expected token from env, got %s", config.Destination.APIToken)
		}
		if config.Source.DSN != dsn {
			t.Errorf("empty DB_URL should not override dsn, got %s", config.Source.DSN)
		}
	})

	t.Run("Validate", func(t *testing.T) {
		valid := func() *Config {
			c := DefaultConfig()
			c.Destination.APIToken = "secret"
			return c
		}

		tc := []struct {
			name    string
			mutate  func(*Config)
			wantErr error
		}{
			{name: "valid", mutate: func(c *Config) {}},
			{name: "missing dsn", mutate: func(c *Config) { c.Source.DSN = "" }, wantErr: ErrMissingConfig},
			{name: "missing api url", mutate: func(c *Config) { c.Destination.APIURL = "" }, wantErr: ErrMissingConfig},
			{name: "relative api url", mutate: func(c *Config) { c.Destination.APIURL = "/api" }, wantErr: ErrInvalidConfig},
			{name: "missing token", mutate: func(c *Config) { c.Destination.APIToken = "" }, wantErr: ErrMissingCredentials},
			{name: "base url without host", mutate: func(c *Config) { c.Assets.BaseURL = "pstu" }, wantErr: ErrInvalidConfig},
			{
				name:    "empty substitution pattern",
				mutate:  func(c *Config) { c.Assets.Substitutions = []Substitution{{Pattern: "", Replacement: "x"}} },
				wantErr: ErrInvalidConfig,
			},
			{name: "negative workers", mutate: func(c *Config) { c.Migration.Workers = -1 }, wantErr: ErrInvalidConfig},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				c := valid()
				tt.mutate(c)
				err := c.Validate()
				if tt.wantErr == nil {
					if err != nil {
						t.Errorf("expected no error, got %v", err)
					}
					return
				}
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			})
		}
	})

	t.Run("Timeout", func(t *testing.T) {
		d := DestinationConfig{}
		if d.Timeout().Seconds() != 30 {
			t.Errorf("expected default 30s timeout, got %v", d.Timeout())
		}
		d.TimeoutSeconds = 5
		if d.Timeout().Seconds() != 5 {
			t.Errorf("expected 5s timeout, got %v", d.Timeout())
		}
	})
}
