package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// envPrefix is the environment variable prefix for scalar overrides.
const envPrefix = "READMESTATS"

// defaultCacheDirName is created under the system temp directory.
const defaultCacheDirName = "readme-stats-repos"

// LoadConfig loads the embedded defaults, merges configPath over them when it
// is non-empty, applies READMESTATS_* environment overrides and validates.
// Renames are not applied; call Migrate.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	v.SetDefault("cache.dir", filepath.Join(os.TempDir(), defaultCacheDirName))

	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadConfig(bytes.NewReader(defaultsYAML)); err != nil {
		return nil, fmt.Errorf("read default config: %w", err)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.Applied = cfg.Migrate()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}
