// Package config loads lexshell configuration from flags, the environment and .env files.
//
// Priority (highest to lowest): flags > environment > local .env > user config .env > defaults.
// godotenv never overrides variables that are already set, so loading the local
// file before the user config file preserves that order.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"lexshell/internal/logger"
)

// DefaultAPIURL is used when no base URL is configured.
const DefaultAPIURL = "http://localhost:3000/api/v1"

// Configuration keys.
const (
	KeyAPIURL      = "api_url"
	KeyTimeout     = "timeout"
	KeyLogLevel    = "log_level"
	KeyLogFile     = "log_file"
	KeyTestMode    = "test_mode"
	KeyRenderWidth = "render.width"
	KeyRenderStyle = "render.style"
	KeyHistoryFile = "history_file"
)

// EnvPrefix is prepended to every configuration key when read from the environment.
const EnvPrefix = "LEXSHELL"

// Config is the resolved client configuration.
type Config struct {
	APIURL      string
	Timeout     time.Duration
	LogLevel    string
	LogFile     string
	TestMode    bool
	RenderWidth int
	RenderStyle string
	HistoryFile string
}

// New returns a viper instance with defaults and environment bindings in place.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault(KeyAPIURL, DefaultAPIURL)
	v.SetDefault(KeyTimeout, 30*time.Second)
	v.SetDefault(KeyLogLevel, "")
	v.SetDefault(KeyLogFile, "")
	v.SetDefault(KeyTestMode, false)
	v.SetDefault(KeyRenderWidth, 80)
	v.SetDefault(KeyRenderStyle, "auto")
	v.SetDefault(KeyHistoryFile, "")

	// The web client read its base URL from NEXT_PUBLIC_API_URL; accept it and
	// a plain API_URL so one .env can serve both.
	_ = v.BindEnv(KeyAPIURL, EnvPrefix+"_API_URL", "NEXT_PUBLIC_API_URL", "API_URL")

	return v
}

// UserConfigDir returns the lexshell directory under the user's config dir.
func UserConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config directory: %w", err)
	}
	return filepath.Join(base, "lexshell"), nil
}

// LoadDotEnv loads .env files from the working directory and then the user
// config directory. Missing files are skipped. It returns the files loaded.
func LoadDotEnv(workDir, configDir string) ([]string, error) {
	var loaded []string
	for _, dir := range []string{workDir, configDir} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, ".env")
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return loaded, fmt.Errorf("failed to load %s: %w", path, err)
		}
		logger.Debug("Loaded .env file", "path", path)
		loaded = append(loaded, path)
	}
	return loaded, nil
}

// Load resolves a Config from the viper instance and validates it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		APIURL:      strings.TrimRight(strings.TrimSpace(v.GetString(KeyAPIURL)), "/"),
		Timeout:     v.GetDuration(KeyTimeout),
		LogLevel:    v.GetString(KeyLogLevel),
		LogFile:     v.GetString(KeyLogFile),
		TestMode:    v.GetBool(KeyTestMode),
		RenderWidth: v.GetInt(KeyRenderWidth),
		RenderStyle: v.GetString(KeyRenderStyle),
		HistoryFile: v.GetString(KeyHistoryFile),
	}

	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	u, err := url.Parse(cfg.APIURL)
	if err != nil {
		return nil, fmt.Errorf("invalid api url %q: %w", cfg.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid api url %q: scheme must be http or https", cfg.APIURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("invalid api url %q: missing host", cfg.APIURL)
	}

	if cfg.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive, got %s", cfg.Timeout)
	}
	if cfg.RenderWidth <= 0 {
		cfg.RenderWidth = 80
	}
	if cfg.RenderStyle == "" {
		cfg.RenderStyle = "auto"
	}

	return cfg, nil
}
