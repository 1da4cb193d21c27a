package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config groups the settings of every component a screen or session owns.
type Config struct {
	Container ContainerConfig `json:"container"`
	Events    EventsConfig    `json:"events"`
	Debounce  DebounceConfig  `json:"debounce"`
}

// DefaultConfig returns defaults for every component.
func DefaultConfig() Config {
	return Config{
		Container: DefaultContainerConfig(),
		Events:    DefaultEventsConfig(),
		Debounce:  DefaultDebounceConfig(),
	}
}

// Merge applies non-zero values from source, section by section.
func (c *Config) Merge(source *Config) {
	c.Container.Merge(&source.Container)
	c.Events.Merge(&source.Events)
	c.Debounce.Merge(&source.Debounce)
}

// Load reads a JSON config file and merges it onto DefaultConfig.
func Load(filename string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var loaded Config
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Merge(&loaded)
	return &cfg, nil
}
