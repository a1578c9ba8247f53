package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed config.toml.sample
var configTemplate string

// Config is the root configuration for regsearch: where the document cache
// lives, how long upstream requests may take, and which source instances
// a rebuild runs.
type Config struct {
	// DatabasePath is the SQLite file holding the document cache.
	DatabasePath string `toml:"database_path"`

	// Timeout bounds every upstream HTTP call during a rebuild. Interactive
	// rebuilds keep the default; the background worker may raise it.
	Timeout Duration `toml:"timeout"`

	// ResolveTitles runs the related-legislation title back-fill as the
	// final pass of every rebuild.
	ResolveTitles bool `toml:"resolve_titles"`

	// Sources maps instance names to their type and per-source settings.
	Sources map[string]SourceInfo `toml:"sources"`
}

// SourceInfo describes one configured source instance.
type SourceInfo struct {
	Type   string      `toml:"type"`
	Config interface{} `toml:"config"`
}

// Duration wraps time.Duration for TOML round-tripping ("120s", "2h").
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// DefaultTimeout is the interactive rebuild budget.
const DefaultTimeout = 120 * time.Second

// GetDefaultConfig returns a configuration with defaults applied and no
// sources configured.
func GetDefaultConfig() (*Config, error) {
	dbPath, err := GetDefaultDatabasePath()
	if err != nil {
		return nil, fmt.Errorf("getting default database path: %w", err)
	}
	return &Config{
		DatabasePath:  dbPath,
		Timeout:       Duration{DefaultTimeout},
		ResolveTitles: true,
		Sources:       make(map[string]SourceInfo),
	}, nil
}

// LoadConfig reads a TOML configuration file, falling back to defaults when
// the file does not exist and filling defaults for any omitted field.
func LoadConfig(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefaultConfig()
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if config.DatabasePath == "" {
		dbPath, err := GetDefaultDatabasePath()
		if err != nil {
			return nil, fmt.Errorf("getting default database path: %w", err)
		}
		config.DatabasePath = dbPath
	}
	if config.Timeout.Duration == 0 {
		config.Timeout = Duration{DefaultTimeout}
	}
	if config.Sources == nil {
		config.Sources = make(map[string]SourceInfo)
	}

	return &config, nil
}

// SaveTemplateConfig writes the embedded sample configuration, with the
// database path substituted, to configPath.
func (c *Config) SaveTemplateConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	dbPath := c.DatabasePath
	if dbPath == "" {
		var err error
		dbPath, err = GetDefaultDatabasePath()
		if err != nil {
			return fmt.Errorf("getting default database path: %w", err)
		}
	}

	template := fmt.Sprintf(configTemplate, dbPath)
	return os.WriteFile(configPath, []byte(template), 0644)
}

// GetSourceConfig returns the type and raw config table for a named source.
func (c *Config) GetSourceConfig(name string) (string, interface{}, error) {
	info, exists := c.Sources[name]
	if !exists {
		return "", nil, fmt.Errorf("source %s not found", name)
	}
	return info.Type, info.Config, nil
}

// ListSources returns the configured source instance names.
func (c *Config) ListSources() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	return names
}

// GetDefaultDataDir returns (and creates) the data directory, honoring
// XDG_DATA_HOME.
func GetDefaultDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	dir := filepath.Join(dataDir, "regsearch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating data directory %s: %w", dir, err)
	}
	return dir, nil
}

// GetDefaultDatabasePath returns the default document cache location.
func GetDefaultDatabasePath() (string, error) {
	dir, err := GetDefaultDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "documents.db"), nil
}

// GetDefaultConfigPath returns the default configuration file path,
// honoring XDG_CONFIG_HOME.
func GetDefaultConfigPath() (string, error) {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	dir := filepath.Join(configDir, "regsearch")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory %s: %w", dir, err)
	}
	return filepath.Join(dir, "config.toml"), nil
}
