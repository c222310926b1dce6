package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ShellBackend selects how the interactive shell behind a terminal connection is started
type ShellBackend string

const (
	// KubectlBackend execs into the scenario's shell pod
	KubectlBackend ShellBackend = "kubectl"
	// LocalBackend starts a shell on the host running the server (development)
	LocalBackend ShellBackend = "local"
)

// ServerConfig holds the runtime configuration of `trainer serve`
type ServerConfig struct {
	Port          string
	ScenarioPath  string
	ShellPodName  string
	ShellService  string
	Namespace     string
	ShellBackend  ShellBackend
	LocalShell    string
	EditorEnabled bool
	CheckTimeout  time.Duration
	StaticDir     string
	Dev           bool
}

// LoadServerConfig reads the server configuration from the environment.
// Names and defaults match the deployment manifests of the training environment.
func LoadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:          getEnv("PORT", "8080"),
		ScenarioPath:  getEnv("SCENARIO_PATH", "/scenarios"),
		ShellPodName:  getEnv("SHELL_POD_NAME", "learning-ui-shell-0"),
		ShellService:  getEnv("SHELL_SERVICE", "learning-ui-shell"),
		Namespace:     getEnv("NAMESPACE", "default"),
		ShellBackend:  ShellBackend(strings.ToLower(getEnv("SHELL_BACKEND", string(KubectlBackend)))),
		LocalShell:    getEnv("SHELL", "/bin/bash"),
		EditorEnabled: getEnv("EDITOR_ENABLED", "false") == "true",
		CheckTimeout:  getDuration("CHECK_TIMEOUT", 60*time.Second),
		StaticDir:     os.Getenv("STATIC_DIR"),
	}
}

// IsLocal returns true if shells run on the server host
func (c *ServerConfig) IsLocal() bool {
	return c.ShellBackend == LocalBackend
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getDuration accepts either a Go duration ("90s") or a bare number of seconds
func getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
