// Package config handles loading, saving, and defining the application's configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	"github.com/bral/git-tend/internal/logging"
	"github.com/bral/git-tend/internal/types"
)

// ErrConfigNotFound is returned by LoadConfig when no config file is found.
var ErrConfigNotFound = errors.New("configuration file not found")

// GoneResponse selects what happens when newly gone branches are detected.
type GoneResponse string

const (
	// GoneAuto silently deletes newly gone branches (after logging them for recovery).
	GoneAuto GoneResponse = "auto"
	// GoneNotify shows a summary and takes no action.
	GoneNotify GoneResponse = "notify"
	// GonePrompt offers an interactive preview. This is the default.
	GonePrompt GoneResponse = "prompt"
)

const (
	defaultConfigDir  = "git-tend"
	defaultConfigFile = "config.toml"
	defaultStaleDays  = 30
	defaultBaseBranch = "main"
)

// Config holds the application configuration settings.
// Tags correspond to the keys in the TOML configuration file.
// Values are validated and normalized once at load time; nothing reads the
// file ad hoc afterwards.
type Config struct {
	StaleDays         int                 `toml:"stale_days"`
	BaseBranch        string              `toml:"base_branch"`
	ProtectedBranches []string            `toml:"protected_branches"`
	ExcludePatterns   []string            `toml:"exclude_patterns"`
	TeamSafe          bool                `toml:"team_safe"`
	GoneResponse      GoneResponse        `toml:"gone_response"`
	Rules             []types.CleanupRule `toml:"rules"`

	LastVersionCheck   int64  `toml:"last_version_check"`   // Unix timestamp of last check
	LatestKnownVersion string `toml:"latest_known_version"` // Latest version found during checks

	// Internal map for faster lookups, not loaded from TOML directly
	ProtectedBranchMap map[string]bool `toml:"-"`
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	return Config{
		StaleDays:          defaultStaleDays,
		BaseBranch:         defaultBaseBranch,
		ProtectedBranches:  []string{},
		ExcludePatterns:    []string{},
		GoneResponse:       GonePrompt,
		Rules:              []types.CleanupRule{},
		ProtectedBranchMap: make(map[string]bool),
	}
}

// EnabledRules returns only the rules that are switched on.
func (c Config) EnabledRules() []types.CleanupRule {
	var out []types.CleanupRule
	for _, r := range c.Rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	userConfigDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(userConfigDir, defaultConfigDir, defaultConfigFile), nil
}

// LoadConfig loads configuration from the specified path or the default location.
// If a custom path is provided and exists, it's used. Otherwise, it checks the default path.
// If neither exists, it returns default settings and ErrConfigNotFound.
func LoadConfig(customPath string) (Config, error) {
	cfg := DefaultConfig()

	configPath := customPath
	if configPath == "" {
		var err error
		configPath, err = DefaultPath()
		if err != nil {
			// Cannot determine user config dir; the default path cannot be checked.
			return cfg, ErrConfigNotFound
		}
	}

	if _, err := os.Stat(configPath); err != nil {
		if os.IsNotExist(err) {
			return cfg, ErrConfigNotFound
		}
		return cfg, fmt.Errorf("error checking config path %q: %w", configPath, err)
	}

	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		return cfg, fmt.Errorf("error decoding config file %q: %w", configPath, err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize applies defaults for missing or invalid values and validates the
// rule set, so the rest of the program can consume the config as-is.
func (c *Config) normalize() {
	if c.StaleDays <= 0 {
		c.StaleDays = defaultStaleDays
	}
	if c.BaseBranch == "" {
		c.BaseBranch = defaultBaseBranch
	}
	if c.ProtectedBranches == nil {
		c.ProtectedBranches = []string{}
	}
	if c.ExcludePatterns == nil {
		c.ExcludePatterns = []string{}
	}
	switch c.GoneResponse {
	case GoneAuto, GoneNotify, GonePrompt:
	default:
		if c.GoneResponse != "" {
			logging.Logger.Warn("unknown gone_response, using prompt", "value", c.GoneResponse)
		}
		c.GoneResponse = GonePrompt
	}

	for i := range c.Rules {
		rule := &c.Rules[i]
		if rule.ID == "" {
			rule.ID = uuid.NewString()
		}
		if !rule.Action.Valid() {
			logging.Logger.Warn("rule has unknown action, defaulting to delete",
				"rule", rule.Name, "action", rule.Action)
			rule.Action = types.ActionDelete
		}
		if rule.Conditions.Pattern != "" {
			if _, err := regexp.Compile(rule.Conditions.Pattern); err != nil {
				logging.Logger.Warn("rule pattern does not compile and will be skipped at evaluation",
					"rule", rule.Name, "pattern", rule.Conditions.Pattern, "error", err)
			}
		}
		if rule.Conditions.Empty() {
			logging.Logger.Warn("rule has no conditions and will match every non-current branch",
				"rule", rule.Name)
		}
	}

	c.ProtectedBranchMap = make(map[string]bool)
	for _, branch := range c.ProtectedBranches {
		c.ProtectedBranchMap[branch] = true
	}
}

// SaveConfig saves the provided configuration to the specified path or the default location.
// It creates the necessary directories if they don't exist.
// It returns the path where the file was saved and any error encountered.
func SaveConfig(cfg Config, customPath string) (savePath string, err error) {
	savePath = customPath
	if savePath == "" {
		savePath, err = DefaultPath()
		if err != nil {
			return "", err
		}
	}

	dir := filepath.Dir(savePath)
	if err = os.MkdirAll(dir, 0o750); err != nil {
		return savePath, fmt.Errorf("could not create config directory %q: %w", dir, err)
	}

	file, err := os.Create(savePath)
	if err != nil {
		return savePath, fmt.Errorf("could not create config file %q: %w", savePath, err)
	}
	// The named return lets a Close failure surface when everything else
	// succeeded; an unflushed config file is a save failure.
	defer func() {
		if closeErr := file.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("failed to close config file %q: %w", savePath, closeErr)
		}
	}()

	encoder := toml.NewEncoder(file)
	// The lookup map is internal state; everything tagged toml:"-" is skipped
	// by the encoder, so the struct can be written directly.
	if err = encoder.Encode(cfg); err != nil {
		return savePath, fmt.Errorf("could not encode config to TOML file %q: %w", savePath, err)
	}

	return savePath, nil
}
