package tui

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/vanpelt/trainer/internal/console"
	"github.com/vanpelt/trainer/internal/logger"
)

// glamourStyle is the markdown theme for step content, picked once at startup
var glamourStyle = "dark"

// App runs the training console in the terminal
type App struct {
	api     API
	opts    console.Options
	program *tea.Program
}

// NewApp creates the console app. opts carries the endpoint, dialer, keymap and
// delays; the presentation layer supplies the scheduler and presenter itself.
func NewApp(api API, opts console.Options) *App {
	return &App{api: api, opts: opts}
}

// Run blocks until the user quits or ctx is cancelled
func (a *App) Run(ctx context.Context) error {
	if !lipgloss.HasDarkBackground() {
		glamourStyle = "light"
	}

	sched := newLoopScheduler()
	m := NewModel(ctx, a.api, sched, a.opts)

	a.program = tea.NewProgram(m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	sched.start(a.program.Send)
	defer sched.stop()

	logger.Infof("🚀 Training console started (terminal endpoint %s)", a.opts.Endpoint)
	_, err := a.program.Run()
	m.console.Shutdown()
	if err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("console exited: %w", err)
	}
	logger.Infof("👋 Training console stopped")
	return nil
}
