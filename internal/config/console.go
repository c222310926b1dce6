package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vanpelt/trainer/internal/console"
	"gopkg.in/yaml.v2"
)

// DefaultServerURL is where `trainer console` looks for the server
const DefaultServerURL = "http://localhost:8080"

// ConsoleConfig holds the runtime configuration of `trainer console`
type ConsoleConfig struct {
	ServerURL      string
	KeymapFile     string
	ReconnectDelay time.Duration
	LogFile        string
}

// LoadConsoleConfig reads console defaults from the environment; flags override them
func LoadConsoleConfig() *ConsoleConfig {
	return &ConsoleConfig{
		ServerURL:      getEnv("TRAINER_SERVER", DefaultServerURL),
		KeymapFile:     os.Getenv("TRAINER_KEYMAP"),
		ReconnectDelay: getDuration("TRAINER_RECONNECT_DELAY", console.DefaultReconnectDelay),
		LogFile:        getEnv("TRAINER_LOG_FILE", filepath.Join(os.TempDir(), "trainer-console.log")),
	}
}

// Keymap returns the default bindings with any overrides from KeymapFile applied
func (c *ConsoleConfig) Keymap() (console.Keymap, error) {
	if c.KeymapFile == "" {
		return console.DefaultKeymap(), nil
	}
	return LoadKeymap(c.KeymapFile)
}

// LoadKeymap reads a yaml file of key overrides, for example:
//
//	new-terminal: [ctrl+n]
//	cycle-next: [ctrl+right]
//
// Actions missing from the file keep their default keys.
func LoadKeymap(path string) (console.Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return console.DefaultKeymap(), fmt.Errorf("failed to read keymap: %w", err)
	}

	var overrides console.Keymap
	if err := yaml.UnmarshalStrict(data, &overrides); err != nil {
		return console.DefaultKeymap(), fmt.Errorf("failed to parse keymap %s: %w", path, err)
	}
	return console.DefaultKeymap().Merge(overrides), nil
}
