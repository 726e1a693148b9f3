package commons

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/Podzilla/order/internal/config"
)

// LoadConfig resolves configuration from a YAML file when path is non-empty,
// falling back to environment variables otherwise.
func LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg config.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}
