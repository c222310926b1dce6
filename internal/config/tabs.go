package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vanpelt/trainer/internal/models"
	"gopkg.in/yaml.v2"
)

// TabsFileName is looked up inside the scenario directory
const TabsFileName = "tabs.yaml"

// TabsFileConfig represents the tabs.yaml configuration
type TabsFileConfig struct {
	Terminal struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"terminal"`
	CustomTabs []models.TabConfig `yaml:"customTabs"`
}

// DefaultTabsConfig is used when tabs.yaml is missing or broken: terminal only
func DefaultTabsConfig() TabsFileConfig {
	var cfg TabsFileConfig
	cfg.Terminal.Enabled = true
	return cfg
}

// LoadTabsConfig reads tabs.yaml from the scenario directory
func LoadTabsConfig(scenarioPath string) (TabsFileConfig, error) {
	path := filepath.Join(scenarioPath, TabsFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return DefaultTabsConfig(), err
	}

	var cfg TabsFileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return DefaultTabsConfig(), fmt.Errorf("failed to parse %s: %w", path, err)
	}

	seen := make(map[string]bool, len(cfg.CustomTabs))
	for _, tab := range cfg.CustomTabs {
		if tab.ID == "" {
			return DefaultTabsConfig(), fmt.Errorf("%s: custom tab %q has no id", path, tab.Name)
		}
		if seen[tab.ID] {
			return DefaultTabsConfig(), fmt.Errorf("%s: duplicate custom tab id %q", path, tab.ID)
		}
		seen[tab.ID] = true
	}

	return cfg, nil
}
