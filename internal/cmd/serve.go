package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/vanpelt/trainer/internal/config"
	"github.com/vanpelt/trainer/internal/handlers"
	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/scenario"
	"github.com/vanpelt/trainer/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "🌐 Serve a scenario and its terminals",
	Long: `# 🌐 Serve a Scenario

**Starts the training API and the terminal websocket endpoint.**

## 📁 Scenario Directory

- **NN-name-content.md** - step instructions, ordered by the numeric prefix
- **NN-name-check.sh** - optional check script for the step
- **scenario.yaml** - name, description, difficulty and estimated time
- **tabs.yaml** - optional terminal toggle and custom view tabs

Changes to these files are picked up without a restart.

## 🖥️ Shells

By default every terminal connection execs into the shell pod with **kubectl**.
Use **--shell-backend local** to run shells on this machine while writing a scenario.

## ⚙️ Environment

**PORT**, **SCENARIO_PATH**, **SHELL_POD_NAME**, **SHELL_SERVICE**, **NAMESPACE**,
**EDITOR_ENABLED**, **SHELL_BACKEND**, **CHECK_TIMEOUT** and **STATIC_DIR** set the defaults for the flags below.`,
	RunE: runServe,
}

var serveCfg = config.LoadServerConfig()

func init() {
	rootCmd.AddCommand(serveCmd)

	flags := serveCmd.Flags()
	flags.StringVarP(&serveCfg.Port, "port", "p", serveCfg.Port, "Port to listen on")
	flags.StringVarP(&serveCfg.ScenarioPath, "scenario", "s", serveCfg.ScenarioPath, "Scenario directory")
	flags.StringVar(&serveCfg.ShellPodName, "shell-pod", serveCfg.ShellPodName, "Pod that hosts the training shell")
	flags.StringVar(&serveCfg.Namespace, "namespace", serveCfg.Namespace, "Namespace of the shell pod")
	flags.BoolVar(&serveCfg.EditorEnabled, "editor", serveCfg.EditorEnabled, "Offer the editor tab")
	flags.DurationVar(&serveCfg.CheckTimeout, "check-timeout", serveCfg.CheckTimeout, "Maximum run time of a check script")
	flags.StringVar(&serveCfg.StaticDir, "static", serveCfg.StaticDir, "Directory of a browser frontend to serve")
	flags.BoolVar(&serveCfg.Dev, "dev", false, "Development mode: console log output and debug logging")
	flags.Var(newShellBackendValue(&serveCfg.ShellBackend), "shell-backend", "Where shells run: kubectl or local")
}

func runServe(cmd *cobra.Command, args []string) error {
	logger.Configure(logger.GetLogLevelFromEnv(serveCfg.Dev), serveCfg.Dev)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := scenario.NewStore(serveCfg.ScenarioPath)
	if err := store.Load(); err != nil {
		logger.Warnf("⚠️ Failed to load steps: %v", err)
	} else {
		logger.Infof("📚 Loaded %d steps from %s", store.Count(), serveCfg.ScenarioPath)
	}

	tabs := handlers.NewTabsHandler(serveCfg)
	store.OnReload(tabs.Reload)
	if err := store.Watch(ctx, scenario.DefaultReloadDebounce); err != nil {
		logger.Warnf("⚠️ Hot reload disabled: %v", err)
	}

	shell := services.NewShellService(serveCfg)
	app := handlers.NewApp(serveCfg, store, shell, tabs)

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("🚀 Trainer listening on :%s (shell backend %s)", serveCfg.Port, serveCfg.ShellBackend)
		errCh <- app.Listen(":" + serveCfg.Port)
	}()

	select {
	case err := <-errCh:
		shell.CloseAll()
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	logger.Infof("🛑 Shutting down...")
	shell.CloseAll()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	logger.Infof("✅ Shutdown complete")
	return nil
}

// shellBackendValue validates --shell-backend
type shellBackendValue struct {
	target *config.ShellBackend
}

func newShellBackendValue(target *config.ShellBackend) *shellBackendValue {
	return &shellBackendValue{target: target}
}

func (v *shellBackendValue) String() string {
	if v.target == nil {
		return ""
	}
	return string(*v.target)
}

func (v *shellBackendValue) Set(value string) error {
	switch backend := config.ShellBackend(value); backend {
	case config.KubectlBackend, config.LocalBackend:
		*v.target = backend
		return nil
	}
	return fmt.Errorf("unknown shell backend %q (want kubectl or local)", value)
}

func (v *shellBackendValue) Type() string {
	return "backend"
}
