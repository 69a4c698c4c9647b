package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/vaultpress/internal/convert"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Log formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config represents the application configuration. Every field can be
// overridden from the environment, e.g. VAULTPRESS_SITE_ROOT.
type Config struct {
	App    ApplicationConfig `yaml:"app" envPrefix:"VAULTPRESS_APP_"`
	Site   SiteConfig        `yaml:"site" envPrefix:"VAULTPRESS_SITE_"`
	Vault  VaultConfig       `yaml:"vault" envPrefix:"VAULTPRESS_VAULT_"`
	Ledger LedgerConfig      `yaml:"ledger" envPrefix:"VAULTPRESS_LEDGER_"`
	Auth   AuthConfig        `yaml:"auth" envPrefix:"VAULTPRESS_AUTH_"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if err := c.Site.Validate(); err != nil {
		return fmt.Errorf("site: %w", err)
	}
	if err := c.Vault.Validate(); err != nil {
		return fmt.Errorf("vault: %w", err)
	}
	if err := c.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel  slog.Level `yaml:"log_level" env:"LOG_LEVEL"`
	LogFormat string     `yaml:"log_format" env:"LOG_FORMAT"`
	HTTP      HTTPConfig `yaml:"http" envPrefix:"HTTP_"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if c.LogFormat == "" {
		c.LogFormat = LogFormatJSON
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogFormat, validation.In(LogFormatJSON, LogFormatText)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" env:"PORT"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

var sectionRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// SiteConfig describes the Hugo site posts are published into. ContentDir
// and AssetsDir are relative to Root.
type SiteConfig struct {
	Root       string `yaml:"root" env:"ROOT"`
	ContentDir string `yaml:"content_dir" env:"CONTENT_DIR"`
	Section    string `yaml:"section" env:"SECTION"`
	AssetsDir  string `yaml:"assets_dir" env:"ASSETS_DIR"`
	BaseURL    string `yaml:"base_url" env:"BASE_URL"`
	Author     string `yaml:"author" env:"AUTHOR"`
	Policy     string `yaml:"policy" env:"POLICY"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	policies := make([]any, 0)
	for _, name := range convert.PolicyNames() {
		policies = append(policies, name)
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.ContentDir, validation.Required, validation.By(insideRoot)),
		validation.Field(&c.AssetsDir, validation.Required, validation.By(insideRoot)),
		validation.Field(&c.Section, validation.Required, validation.Match(sectionRe)),
		validation.Field(&c.Policy, validation.Required, validation.In(policies...)),
	)
}

// insideRoot rejects absolute paths and paths that climb out of the site.
func insideRoot(value any) error {
	p, _ := value.(string)
	if p == "" {
		return nil
	}
	if filepath.IsAbs(p) {
		return errors.New("must be relative to the site root")
	}
	clean := filepath.ToSlash(filepath.Clean(p))
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return errors.New("must stay inside the site root")
	}
	return nil
}

// VaultConfig holds the source vault locations. Path may be empty, in which
// case images cannot be copied and are reported as missing.
type VaultConfig struct {
	Path      string `yaml:"path" env:"PATH"`
	DraftsDir string `yaml:"drafts_dir" env:"DRAFTS_DIR"`
	// CachePath is the bbolt file caching image locations. Empty disables
	// the cache.
	CachePath string `yaml:"cache_path" env:"CACHE_PATH"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DraftsDir, validation.When(c.Path == "", validation.Empty.Error("requires vault path"))),
	)
}

// Drafts returns the directory watched for drafts. Relative drafts
// directories are resolved against the vault.
func (c *VaultConfig) Drafts() string {
	if c.DraftsDir == "" || filepath.IsAbs(c.DraftsDir) {
		return c.DraftsDir
	}
	return filepath.Join(c.Path, c.DraftsDir)
}

// LedgerConfig holds SQLite ledger configuration.
type LedgerConfig struct {
	Path string `yaml:"path" env:"PATH"`
}

// Validate validates the ledger configuration.
func (c *LedgerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" env:"MODE"`
	Token string `yaml:"token" env:"TOKEN"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel:  slog.LevelInfo,
			LogFormat: LogFormatJSON,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			Root:       ".",
			ContentDir: "content",
			Section:    "blog",
			AssetsDir:  "assets",
			Policy:     convert.PolicyCover,
		},
		Ledger: LedgerConfig{
			Path: "./vaultpress.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
