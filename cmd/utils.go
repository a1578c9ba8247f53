package cmd

import (
	"fmt"

	"github.com/pelletier/go-toml/v2"

	"github.com/openregulatory/regsearch/pkg/config"
	"github.com/openregulatory/regsearch/pkg/sources"
	"github.com/openregulatory/regsearch/pkg/storage"
)

// loadConfigAndStore is the common entry point for commands that need both.
func loadConfigAndStore(configPath string) (*config.Config, *storage.Store, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	store, err := storage.NewStore(cfg.DatabasePath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening store: %w", err)
	}
	return cfg, store, nil
}

// createSourcesFromConfig instantiates every configured source through the
// adapter registry.
func createSourcesFromConfig(registry *sources.Registry, cfg *config.Config) error {
	for _, name := range cfg.ListSources() {
		srcType, rawConfig, err := cfg.GetSourceConfig(name)
		if err != nil {
			return fmt.Errorf("getting config for source %s: %w", name, err)
		}

		srcConfig, err := convertRawConfig(registry, srcType, rawConfig)
		if err != nil {
			return fmt.Errorf("converting config for source %s: %w", name, err)
		}

		if err := registry.CreateSource(name, srcType, srcConfig); err != nil {
			return err
		}
	}
	return nil
}

// convertRawConfig turns the loosely-typed TOML section into the adapter's
// own config struct by marshaling through TOML.
func convertRawConfig(registry *sources.Registry, srcType string, rawConfig interface{}) (interface{}, error) {
	srcConfig, err := registry.PrototypeConfigType(srcType)
	if err != nil {
		return nil, err
	}
	if rawConfig == nil {
		return srcConfig, nil
	}

	data, err := toml.Marshal(rawConfig)
	if err != nil {
		return nil, fmt.Errorf("marshaling config data: %w", err)
	}
	if err := toml.Unmarshal(data, srcConfig); err != nil {
		return nil, fmt.Errorf("unmarshaling config data: %w", err)
	}
	return srcConfig, nil
}
