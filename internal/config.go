package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/vaultlens/vaultlens/internal/autolink"
	"github.com/vaultlens/vaultlens/internal/storage"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Vault      VaultConfig       `yaml:"vault"`
	Analysis   AnalysisConfig    `yaml:"analysis"`
	Safety     SafetyConfig      `yaml:"safety"`
	Classifier ClassifierConfig  `yaml:"classifier"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Analysis.Validate(); err != nil {
		return err
	}
	if err := c.Safety.Validate(); err != nil {
		return err
	}
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
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

// VaultConfig describes the Markdown vault to analyze.
type VaultConfig struct {
	Path        string   `yaml:"path"`
	Extension   string   `yaml:"extension"`
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AnalysisConfig tunes the suggestion engine.
type AnalysisConfig struct {
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// Validate validates the analysis configuration.
func (c *AnalysisConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.ConfidenceThreshold, validation.Min(0.0), validation.Max(1.0)),
	)
}

// SafetyConfig controls the mutation safety policy.
type SafetyConfig struct {
	Tier      string `yaml:"tier"`
	BackupDir string `yaml:"backup_dir"`
}

// Validate validates the safety configuration.
func (c *SafetyConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Tier, validation.Required, validation.In(
			string(autolink.TierParanoid),
			string(autolink.TierConservative),
			string(autolink.TierBalanced),
			string(autolink.TierAggressive),
		)),
		validation.Field(&c.BackupDir, validation.Required),
	)
}

// ClassifierConfig configures the optional LLM link classifier.
type ClassifierConfig struct {
	Enabled bool   `yaml:"enabled"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
}

// Validate validates the classifier configuration.
func (c *ClassifierConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required),
		validation.Field(&c.Model, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
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
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:        "./vault",
			Extension:   ".md",
			ExcludeDirs: storage.DefaultExcludeDirs,
		},
		Analysis: AnalysisConfig{
			ConfidenceThreshold: autolink.DefaultThreshold,
		},
		Safety: SafetyConfig{
			Tier:      string(autolink.TierBalanced),
			BackupDir: "./backups",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
