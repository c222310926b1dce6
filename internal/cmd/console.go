package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/vanpelt/trainer/internal/client"
	"github.com/vanpelt/trainer/internal/config"
	"github.com/vanpelt/trainer/internal/console"
	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/tui"
	"golang.org/x/term"
)

var consoleCmd = &cobra.Command{
	Use:     "console",
	Aliases: []string{"c"},
	Short:   "🖥️ Open the training console",
	Long: `# 🖥️ Training Console

**Instructions on the left, your terminals and views on the right.**

## ⌨️ Default Keys

- **ctrl+t** - open another terminal
- **ctrl+w** - close the active terminal
- **alt+]** / **alt+[** - next / previous tab
- **f2** - rename the active tab
- **ctrl+b** - open a view tab in your browser
- **ctrl+o** - move focus between the terminal and the instructions
- **ctrl+q** - quit

With the instructions focused:

- **left** / **right** - previous / next step
- **ctrl+k** - run the step's check
- **ctrl+x** - paste the step's first shell snippet into the terminal

Double-click a tab to rename it. Keys can be remapped with a yaml file passed to **--keymap**.

## 📝 Logs

The console draws on the whole terminal, so log lines go to **--log-file** instead.`,
	RunE: runConsole,
}

var (
	consoleKeymap         string
	consoleReconnectDelay time.Duration
	consoleLogFile        string
	consoleDev            bool
)

func init() {
	rootCmd.AddCommand(consoleCmd)

	defaults := config.LoadConsoleConfig()
	consoleCmd.Flags().StringVar(&consoleKeymap, "keymap", defaults.KeymapFile, "YAML file with key binding overrides (env TRAINER_KEYMAP)")
	consoleCmd.Flags().DurationVar(&consoleReconnectDelay, "reconnect-delay", defaults.ReconnectDelay, "Delay before a dropped terminal reconnects")
	consoleCmd.Flags().StringVar(&consoleLogFile, "log-file", defaults.LogFile, "Where console logs are written")
	consoleCmd.Flags().BoolVar(&consoleDev, "dev", false, "Debug logging")
}

func runConsole(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !isatty.IsTerminal(os.Stdout.Fd()) {
		return fmt.Errorf("the training console needs an interactive terminal")
	}

	logFile, err := os.OpenFile(consoleLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	logger.ConfigureOutput(logger.GetLogLevelFromEnv(consoleDev), consoleDev, logFile)

	cfg := &config.ConsoleConfig{
		ServerURL:      serverURL,
		KeymapFile:     consoleKeymap,
		ReconnectDelay: consoleReconnectDelay,
		LogFile:        consoleLogFile,
	}

	keymap, err := cfg.Keymap()
	if err != nil {
		return err
	}

	api, err := client.New(cfg.ServerURL)
	if err != nil {
		return err
	}
	endpoint, err := console.TerminalEndpoint(cfg.ServerURL)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer stop()

	// Fail before taking over the screen when nothing is listening
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	health, err := api.Health(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("cannot reach trainer server at %s: %w", cfg.ServerURL, err)
	}
	logger.Infof("✅ Server healthy with %d steps", health.Steps)

	logger.Infof("🖥️ Console connecting to %s", cfg.ServerURL)
	app := tui.NewApp(api, console.Options{
		Endpoint:       endpoint,
		Dialer:         console.NewWebSocketDialer(),
		Keymap:         keymap,
		ReconnectDelay: cfg.ReconnectDelay,
	})
	return app.Run(ctx)
}
