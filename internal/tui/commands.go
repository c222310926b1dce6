package tui

import (
	"context"
	"errors"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"
	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/models"
)

const (
	statusTTL      = 4 * time.Second
	requestTimeout = 15 * time.Second
)

// checkTimeout bounds a check call; the server enforces its own script timeout
var checkTimeout = 90 * time.Second

// openURL hands a view's address to the system browser
var openURL = browser.OpenURL

// API is the part of the server boundary the console needs
type API interface {
	Tabs(ctx context.Context) (models.TabsResponse, error)
	Scenario(ctx context.Context) (models.Scenario, error)
	Steps(ctx context.Context) ([]models.Step, error)
	Step(ctx context.Context, number int) (models.Step, error)
	Check(ctx context.Context, number int) (models.CheckResult, error)
}

// fetchTabs loads the tab configuration. A failure falls back to a lone terminal.
func (m *Model) fetchTabs() tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		tabs, err := api.Tabs(ctx)
		return tabsMsg{tabs: tabs, err: err}
	}
}

// fetchScenario loads scenario metadata and the step list together
func (m *Model) fetchScenario() tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		scenario, err := api.Scenario(ctx)
		if err != nil {
			return scenarioMsg{err: err}
		}
		steps, err := api.Steps(ctx)
		if err != nil {
			return scenarioMsg{err: err}
		}
		return scenarioMsg{scenario: scenario, steps: steps}
	}
}

func (m *Model) fetchStep(number int) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()
		step, err := api.Step(ctx, number)
		return stepMsg{number: number, step: step, err: err}
	}
}

func (m *Model) runCheck(number int) tea.Cmd {
	ctx, api := m.ctx, m.api
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, checkTimeout)
		defer cancel()
		result, err := api.Check(ctx, number)
		return checkResultMsg{number: number, result: result, err: err}
	}
}

func openInBrowser(url string) tea.Cmd {
	return func() tea.Msg {
		logger.Debugf("🌐 Opening %s in browser", url)
		return browserOpenedMsg{url: url, err: openURL(url)}
	}
}

func expireStatus(seq int) tea.Cmd {
	return tea.Tick(statusTTL, func(time.Time) tea.Msg {
		return statusExpiredMsg{seq: seq}
	})
}

// remoteError renders an API failure as a short user-facing reason
func remoteError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return err.Error()
}
