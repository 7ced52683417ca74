package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Keys read by LoadClient.
const (
	KeyServerURL     = "server_url"
	KeyToken         = "token"
	KeyCacheDir      = "cache_dir"
	KeyAutosave      = "autosave"
	KeyAutosaveDelay = "autosave_delay"
	KeyTimeout       = "timeout"
)

// ClientConfig configures the lifeos CLI.
type ClientConfig struct {
	ServerURL     string
	Token         string
	CacheDir      string
	Autosave      bool
	AutosaveDelay time.Duration
	Timeout       time.Duration
}

// SetClientDefaults registers defaults, the LIFEOS_ env prefix and the config
// search path on v.
func SetClientDefaults(v *viper.Viper) {
	v.SetDefault(KeyServerURL, "http://localhost:8080")
	v.SetDefault(KeyCacheDir, "~/.life-os")
	v.SetDefault(KeyAutosave, false)
	v.SetDefault(KeyAutosaveDelay, 2*time.Second)
	v.SetDefault(KeyTimeout, 30*time.Second)

	v.SetEnvPrefix("LIFEOS")
	v.AutomaticEnv()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "life-os"))
	}
}

// LoadClient reads the CLI configuration. An explicit file must exist; the
// default location is optional.
func LoadClient(v *viper.Viper, file string) (*ClientConfig, error) {
	SetClientDefaults(v)
	if file != "" {
		v.SetConfigFile(file)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cacheDir, err := homedir.Expand(v.GetString(KeyCacheDir))
	if err != nil {
		return nil, fmt.Errorf("failed to expand cache_dir: %w", err)
	}

	cfg := &ClientConfig{
		ServerURL:     v.GetString(KeyServerURL),
		Token:         v.GetString(KeyToken),
		CacheDir:      cacheDir,
		Autosave:      v.GetBool(KeyAutosave),
		AutosaveDelay: v.GetDuration(KeyAutosaveDelay),
		Timeout:       v.GetDuration(KeyTimeout),
	}
	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("%s is required", KeyServerURL)
	}
	if cfg.AutosaveDelay < 0 || cfg.Timeout <= 0 {
		return nil, fmt.Errorf("autosave_delay must be non-negative and timeout positive")
	}
	return cfg, nil
}
