package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	envPrefix     = "photocat"
	keyConfigPath = "config_path"
	keyHome       = "home"
)

// GetDefaults returns application default paths, checking environment variables first.
// Environment variables:
//   - PHOTOCAT_CONFIG_PATH: config file location (default: ~/.config/photocat.toml)
//   - PHOTOCAT_HOME: base directory for catalog data (default: ~/.local/share/photocat)
//
// Empty variables count as unset.
func GetDefaults() (map[string]string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("cannot determine home directory: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetDefault(keyConfigPath, filepath.Join(homeDir, ".config", "photocat.toml"))
	v.SetDefault(keyHome, filepath.Join(homeDir, ".local", "share", "photocat"))
	for _, key := range []string{keyConfigPath, keyHome} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("binding %s: %w", key, err)
		}
	}

	baseDir := v.GetString(keyHome)
	return map[string]string{
		"config_path": v.GetString(keyConfigPath),
		"base_dir":    baseDir,
		"log_dir":     filepath.Join(baseDir, "log"),
	}, nil
}
