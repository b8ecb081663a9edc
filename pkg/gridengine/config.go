package gridengine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EngineConfig is the engine's own optional config section, hydrated via
// confkit.Section[EngineConfig] from internal/config — the same
// split-into-its-own-file pattern the teacher uses for its trader configs.
type EngineConfig struct {
	// PriceHistorySize bounds the UI price-history ring (spec.md default: 100).
	PriceHistorySize int `yaml:"price_history_size"`
	// StateFile is the JSON snapshot path consumed by internal/persistence/engine.
	StateFile string `yaml:"state_file"`
}

const defaultPriceHistorySize = 100

func (c *EngineConfig) applyDefaults() {
	if c.PriceHistorySize <= 0 {
		c.PriceHistorySize = defaultPriceHistorySize
	}
	if c.StateFile == "" {
		c.StateFile = "gridstate.json"
	}
}

// LoadConfig reads an EngineConfig from a YAML file, applying defaults for
// any zero-valued field.
func LoadConfig(path string) (*EngineConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read engine config: %w", err)
	}
	var cfg EngineConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal engine config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}
