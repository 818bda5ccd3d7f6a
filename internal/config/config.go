// Package config loads masthead settings from files and the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/masthead/internal/cms"
)

const (
	// DefaultConfigFile is the config filename looked up in the project dir.
	DefaultConfigFile = "masthead.yaml"
	// EnvPrefix prefixes every environment override.
	EnvPrefix = "MASTHEAD"
)

var (
	ErrNoProject   = errors.New("cms.project_id or cms.base_url is required")
	ErrNoDataset   = errors.New("cms.dataset is required")
	ErrInvalidPort = errors.New("server.port must be between 1 and 65535")
)

// Config holds the application configuration
type Config struct {
	CMS    CMSConfig    `mapstructure:"cms"`
	Server ServerConfig `mapstructure:"server"`
	Search SearchConfig `mapstructure:"search"`
	Log    LogConfig    `mapstructure:"log"`
}

// CMSConfig holds content source settings
type CMSConfig struct {
	// ProjectID selects the hosted project; BaseURL overrides the host.
	ProjectID  string        `mapstructure:"project_id"`
	Dataset    string        `mapstructure:"dataset"`
	APIVersion string        `mapstructure:"api_version"`
	UseCDN     bool          `mapstructure:"use_cdn"`
	BaseURL    string        `mapstructure:"base_url"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ServerConfig holds server settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// SearchConfig holds live search settings
type SearchConfig struct {
	// Debounce delays a search until typing pauses. Zero fetches on every
	// keystroke.
	Debounce time.Duration `mapstructure:"debounce"`
}

// LogConfig holds logger settings
type LogConfig struct {
	Level  string `mapstructure:"level"`
	File   string `mapstructure:"file"`
	Pretty bool   `mapstructure:"pretty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	cmsDefaults := cms.DefaultConfig()
	return &Config{
		CMS: CMSConfig{
			Dataset:    cmsDefaults.Dataset,
			APIVersion: cmsDefaults.APIVersion,
			UseCDN:     cmsDefaults.UseCDN,
			Timeout:    cmsDefaults.Timeout,
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Search: SearchConfig{
			Debounce: 250 * time.Millisecond,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting that makes the config unusable.
func (c *Config) Validate() error {
	if c.CMS.ProjectID == "" && c.CMS.BaseURL == "" {
		return ErrNoProject
	}
	if c.CMS.Dataset == "" {
		return ErrNoDataset
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: got %d", ErrInvalidPort, c.Server.Port)
	}
	return nil
}

// CMSClientConfig converts the cms section for cms.NewClient.
func (c *Config) CMSClientConfig() cms.Config {
	return cms.Config{
		ProjectID:  c.CMS.ProjectID,
		Dataset:    c.CMS.Dataset,
		APIVersion: c.CMS.APIVersion,
		UseCDN:     c.CMS.UseCDN,
		BaseURL:    c.CMS.BaseURL,
		Timeout:    c.CMS.Timeout,
	}
}

// yamlConfig mirrors Config with durations as strings.
type yamlConfig struct {
	CMS struct {
		ProjectID  string `yaml:"project_id"`
		Dataset    string `yaml:"dataset"`
		APIVersion string `yaml:"api_version"`
		UseCDN     bool   `yaml:"use_cdn"`
		BaseURL    string `yaml:"base_url,omitempty"`
		Timeout    string `yaml:"timeout"`
	} `yaml:"cms"`
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Search struct {
		Debounce string `yaml:"debounce"`
	} `yaml:"search"`
	Log struct {
		Level  string `yaml:"level"`
		File   string `yaml:"file,omitempty"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"log"`
}

// YAML renders the config in the same shape the loader reads.
func (c *Config) YAML() (string, error) {
	var out yamlConfig
	out.CMS.ProjectID = c.CMS.ProjectID
	out.CMS.Dataset = c.CMS.Dataset
	out.CMS.APIVersion = c.CMS.APIVersion
	out.CMS.UseCDN = c.CMS.UseCDN
	out.CMS.BaseURL = c.CMS.BaseURL
	out.CMS.Timeout = c.CMS.Timeout.String()
	out.Server.Host = c.Server.Host
	out.Server.Port = c.Server.Port
	out.Search.Debounce = c.Search.Debounce.String()
	out.Log.Level = c.Log.Level
	out.Log.File = c.Log.File
	out.Log.Pretty = c.Log.Pretty

	b, err := yaml.Marshal(&out)
	if err != nil {
		return "", fmt.Errorf("encode config: %w", err)
	}
	return string(b), nil
}
