package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ResolvedConfig contains the final config along with the files it came from.
type ResolvedConfig struct {
	Config *Config
	// Files lists the config files merged, lowest priority first.
	Files []string
	// EnvOverrides lists the keys set from MASTHEAD_* variables.
	EnvOverrides []string
}

// Primary returns the highest-priority config file, or "" when only defaults
// and the environment were used.
func (r *ResolvedConfig) Primary() string {
	if len(r.Files) == 0 {
		return ""
	}
	return r.Files[len(r.Files)-1]
}

// Load resolves configuration for projectDir. See LoadResolved.
func Load(projectDir, configFile string) (*Config, error) {
	resolved, err := LoadResolved(projectDir, configFile)
	if err != nil {
		return nil, err
	}
	return resolved.Config, nil
}

// LoadResolved performs the full config resolution chain.
// Resolution order (highest to lowest priority):
// 1. Environment variables (MASTHEAD_*, dots become underscores)
// 2. configFile, when given
// 3. Project root masthead.yaml or masthead.yml
// 4. Project .config/masthead.yaml (XDG-style)
// 5. Built-in defaults
func LoadResolved(projectDir, configFile string) (*ResolvedConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, DefaultConfig())

	result := &ResolvedConfig{}

	candidates := []string{
		filepath.Join(projectDir, ".config", DefaultConfigFile),
		filepath.Join(projectDir, DefaultConfigFile),
		filepath.Join(projectDir, "masthead.yml"),
	}
	for _, path := range candidates {
		if !fileExists(path) {
			continue
		}
		if err := merge(v, path); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, path)
	}

	if configFile != "" {
		if !fileExists(configFile) {
			return nil, fmt.Errorf("config file %s: %w", configFile, os.ErrNotExist)
		}
		if err := merge(v, configFile); err != nil {
			return nil, err
		}
		result.Files = append(result.Files, configFile)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range v.AllKeys() {
		if _, ok := os.LookupEnv(envName(key)); ok {
			result.EnvOverrides = append(result.EnvOverrides, key)
		}
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}
	result.Config = cfg

	return result, nil
}

// merge layers one YAML file over what v already holds.
func merge(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("error reading config %s: %w", path, err)
	}
	return nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("cms.project_id", cfg.CMS.ProjectID)
	v.SetDefault("cms.dataset", cfg.CMS.Dataset)
	v.SetDefault("cms.api_version", cfg.CMS.APIVersion)
	v.SetDefault("cms.use_cdn", cfg.CMS.UseCDN)
	v.SetDefault("cms.base_url", cfg.CMS.BaseURL)
	v.SetDefault("cms.timeout", cfg.CMS.Timeout)
	v.SetDefault("server.host", cfg.Server.Host)
	v.SetDefault("server.port", cfg.Server.Port)
	v.SetDefault("search.debounce", cfg.Search.Debounce)
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.file", cfg.Log.File)
	v.SetDefault("log.pretty", cfg.Log.Pretty)
}

func envName(key string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// fileExists checks if a file exists and is a regular file
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
