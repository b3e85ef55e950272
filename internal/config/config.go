package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// DataDirEnv overrides the configured data directory when set.
const DataDirEnv = "QUESTIONBANK_DATA_DIR"

// ErrNoConfig is returned by ResolveConfigPath when no config file exists
// and none was requested explicitly.
var ErrNoConfig = errors.New("no config file found")

type Config struct {
	Dataset Dataset `yaml:"dataset"`
	Output  Output  `yaml:"output"`
	Server  Server  `yaml:"server"`
	Logging Logging `yaml:"logging"`
}

type Dataset struct {
	Path             string `yaml:"path"`
	RepairEncoding   bool   `yaml:"repair_encoding"`
	StrictCategories bool   `yaml:"strict_categories"`
}

type Output struct {
	DataDir string `yaml:"data_dir"`
}

type Server struct {
	Port     int `yaml:"port"`
	CacheTTL int `yaml:"cache_ttl"`
}

type Logging struct {
	Level string `yaml:"level"`
}

// Debug reports whether log lines should carry file and line.
func (l Logging) Debug() bool {
	return l.Level == "DEBUG"
}

// Quiet reports whether progress logging should be silenced.
func (l Logging) Quiet() bool {
	return l.Level == "WARNING" || l.Level == "ERROR"
}

// ConfigDir returns the XDG config directory for questionbank.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "questionbank")
}

// DataDir returns the XDG data directory for questionbank.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "questionbank")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/questionbank/config.yaml > ./config.yaml.
// It returns ErrNoConfig when nothing is found and explicit is empty.
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", ErrNoConfig
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, _ := parse(nil)
	return cfg
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Dataset: Dataset{
			Path:           "questions.csv",
			RepairEncoding: true,
		},
		Server:  Server{Port: 8000, CacheTTL: 60},
		Logging: Logging{Level: "INFO"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Logging.Level = strings.ToUpper(strings.TrimSpace(cfg.Logging.Level))
	switch cfg.Logging.Level {
	case "":
		cfg.Logging.Level = "INFO"
	case "DEBUG", "INFO", "WARNING", "ERROR":
	default:
		return nil, fmt.Errorf("logging.level must be DEBUG, INFO, WARNING or ERROR, got %q", cfg.Logging.Level)
	}

	if cfg.Server.CacheTTL < 0 {
		return nil, fmt.Errorf("server.cache_ttl must not be negative, got %d", cfg.Server.CacheTTL)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory: environment override,
// then config, then the XDG default.
func (c *Config) GetDataDir() string {
	if dir := os.Getenv(DataDirEnv); dir != "" {
		return dir
	}
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DBPath returns the path of the SQLite database inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "questionbank.db")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
