package tui

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/vanpelt/trainer/internal/console"
	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/models"
	"github.com/vanpelt/trainer/internal/tui/components"
)

// Update routes messages to their handlers
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dispatchMsg:
		// Console callbacks: dial results, stream data, timers
		msg.fn()
		return m, nil
	case tea.WindowSizeMsg:
		return m.handleWindowResize(msg)
	case tea.KeyMsg:
		return m.handleKeyMessage(msg)
	case tea.MouseMsg:
		return m.handleMouse(msg)
	case spinner.TickMsg:
		if !m.checking {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tabsMsg:
		return m.handleTabs(msg)
	case scenarioMsg:
		return m.handleScenario(msg)
	case stepMsg:
		return m.handleStep(msg)
	case checkResultMsg:
		return m.handleCheckResult(msg)
	case browserOpenedMsg:
		if msg.err != nil {
			return m, m.setStatus(fmt.Sprintf("Could not open browser: %v", msg.err))
		}
		return m, m.setStatus("Opened " + msg.url)
	case statusExpiredMsg:
		if msg.seq == m.statusSeq {
			m.status = ""
		}
		return m, nil
	}
	return m, nil
}

func (m *Model) handleWindowResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	l := m.layout()
	m.presenter.setPane(l.rightWidth, l.contentRows)
	m.instructions.Width, m.instructions.Height = l.instructionsViewport()
	m.renderInstructions()

	m.console.Resize()
	return m, nil
}

func (m *Model) handleTabs(msg tabsMsg) (tea.Model, tea.Cmd) {
	resp := msg.tabs
	var cmd tea.Cmd
	if msg.err != nil {
		logger.Warnf("⚠️ Failed to load tabs, starting with a single terminal: %v", msg.err)
		resp = models.TabsResponse{TerminalEnabled: true}
		cmd = m.setStatus("Failed to load tabs: " + remoteError(msg.err))
	}

	views := make([]console.TabConfig, 0, len(resp.Tabs))
	for _, tab := range resp.Tabs {
		views = append(views, console.TabConfig{
			ID:    tab.ID,
			Title: tab.Name,
			URL:   tab.URL,
			Icon:  tab.Icon,
		})
	}
	if err := m.console.Init(views, resp.TerminalEnabled); err != nil {
		logger.Errorf("❌ Some tabs could not be set up: %v", err)
		cmd = m.setStatus(firstLine(err.Error()))
	}
	return m, cmd
}

func (m *Model) handleScenario(msg scenarioMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		logger.Warnf("⚠️ Failed to load scenario: %v", msg.err)
		m.loadErr = "Failed to load scenario\n\n" + remoteError(msg.err)
		m.renderInstructions()
		return m, nil
	}

	m.scenario = msg.scenario
	m.steps = msg.steps
	if len(m.steps) == 0 {
		m.loadErr = "This scenario has no steps yet"
		m.renderInstructions()
		return m, nil
	}
	m.pendingStep = 1
	return m, m.fetchStep(1)
}

func (m *Model) handleStep(msg stepMsg) (tea.Model, tea.Cmd) {
	// A slower response for a step the user already navigated away from
	if msg.number != m.pendingStep {
		return m, nil
	}
	if msg.err != nil {
		logger.Warnf("⚠️ Failed to load step %d: %v", msg.number, msg.err)
		m.loadErr = "Failed to load step\n\n" + remoteError(msg.err)
		m.renderInstructions()
		return m, nil
	}

	step := msg.step
	m.current = msg.number
	m.step = &step
	m.loadErr = ""
	m.checkResult = nil
	m.renderInstructions()
	m.instructions.GotoTop()
	return m, nil
}

func (m *Model) handleCheckResult(msg checkResultMsg) (tea.Model, tea.Cmd) {
	m.checking = false
	if msg.number != m.current {
		return m, nil
	}

	result := msg.result
	if msg.err != nil {
		result = models.CheckResult{Success: false, Message: "Check failed: " + remoteError(msg.err)}
	}
	if result.Success {
		logger.Infof("✅ Step %d check passed", msg.number)
	} else {
		logger.Infof("❌ Step %d check failed: %s", msg.number, result.Message)
	}
	m.checkResult = &result
	return m, nil
}

func (m *Model) handleKeyMessage(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if id, _ := m.console.Renaming(); id != "" {
		return m.handleRenameKey(msg)
	}

	action := m.console.HandleKey(msg.String())
	switch action {
	case console.ActionQuit:
		m.quitting = true
		m.console.Shutdown()
		return m, tea.Quit
	case console.ActionRename:
		return m, m.syncRenameInput()
	case console.ActionOpenView:
		return m, m.openActiveView()
	case console.ActionStepBack:
		return m, m.navigate(-1)
	case console.ActionStepForward:
		return m, m.navigate(1)
	case console.ActionSubmitCheck:
		return m, m.submitCheck()
	case console.ActionRunSnippet:
		return m, m.runSnippet()
	case console.ActionNone:
		return m, m.forwardKey(msg)
	}
	return m, nil
}

func (m *Model) handleRenameKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case components.KeyEnter:
		m.console.CommitRename()
		m.renameInput.Blur()
		return m, nil
	case components.KeyEscape:
		m.console.CancelRename()
		m.renameInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.renameInput, cmd = m.renameInput.Update(msg)
	m.console.SetRenameDraft(m.renameInput.Value())
	return m, cmd
}

// syncRenameInput loads the console's rename draft into the text field
func (m *Model) syncRenameInput() tea.Cmd {
	id, draft := m.console.Renaming()
	if id == "" {
		return nil
	}
	m.renameInput.SetValue(draft)
	m.renameInput.CursorEnd()
	return m.renameInput.Focus()
}

// commitPendingRename ends a rename the way losing focus would
func (m *Model) commitPendingRename(except console.TabID) {
	if id, _ := m.console.Renaming(); id != "" && id != except {
		m.console.CommitRename()
		m.renameInput.Blur()
	}
}

// forwardKey sends unbound keys to the focused terminal, or scrolls the instructions
func (m *Model) forwardKey(msg tea.KeyMsg) tea.Cmd {
	if m.console.TerminalFocused() {
		if data := keyToBytes(msg); len(data) > 0 {
			m.console.Input(data)
		}
		return nil
	}
	if components.IsScrollKey(msg.String()) {
		var cmd tea.Cmd
		m.instructions, cmd = m.instructions.Update(msg)
		return cmd
	}
	return nil
}

func (m *Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	l := m.layout()

	if tea.MouseEvent(msg).IsWheel() {
		if l.inInstructions(msg.X, msg.Y) {
			var cmd tea.Cmd
			m.instructions, cmd = m.instructions.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}

	switch {
	case msg.Y == 0 && msg.X >= l.rightX:
		return m, m.clickTabBar(msg.X - l.rightX)
	case l.inContent(msg.X, msg.Y):
		m.commitPendingRename("")
		if !m.console.TerminalFocused() {
			m.console.ToggleFocus()
		}
	case l.inInstructions(msg.X, msg.Y):
		m.commitPendingRename("")
		m.console.Blur()
	}
	return m, nil
}

func (m *Model) clickTabBar(x int) tea.Cmd {
	id, onClose, ok := m.tabBar().hitTest(x)
	if !ok {
		m.commitPendingRename("")
		return nil
	}
	if onClose {
		m.commitPendingRename(id)
		m.console.CloseTab(id)
		return nil
	}

	now := m.now()
	if m.lastClick.id == id && now.Sub(m.lastClick.at) <= doubleClickWindow {
		m.lastClick = click{}
		m.console.BeginRename(id)
		return m.syncRenameInput()
	}
	m.lastClick = click{id: id, at: now}
	m.commitPendingRename(id)
	m.console.SwitchTo(id)
	return nil
}

func (m *Model) navigate(delta int) tea.Cmd {
	next := m.current + delta
	if next < 1 || next > m.totalSteps() {
		return nil
	}
	m.pendingStep = next
	return m.fetchStep(next)
}

func (m *Model) submitCheck() tea.Cmd {
	if !m.canCheck() {
		return nil
	}
	m.checking = true
	m.checkResult = nil
	return tea.Batch(m.spinner.Tick, m.runCheck(m.current))
}

func (m *Model) runSnippet() tea.Cmd {
	if m.step == nil {
		return nil
	}
	snippet, ok := firstShellSnippet(m.step.Content)
	if !ok {
		return m.setStatus("No runnable snippet in this step")
	}

	err := m.console.RunCommand(snippet)
	switch {
	case errors.Is(err, console.ErrNotConnected):
		return m.setStatus("Terminal is not connected")
	case errors.Is(err, console.ErrUnknownTab):
		return m.setStatus("Switch to a terminal tab to run snippets")
	case err != nil:
		return m.setStatus(err.Error())
	}
	return nil
}

func (m *Model) openActiveView() tea.Cmd {
	active, ok := m.console.Active()
	if !ok || active.Kind != console.KindView || active.URL == "" {
		return nil
	}
	return openInBrowser(active.URL)
}

// renderInstructions refreshes the instructions viewport from the current step
func (m *Model) renderInstructions() {
	width := m.instructions.Width
	if width <= 0 {
		return
	}

	if m.loadErr != "" {
		m.instructions.SetContent(components.ErrorStyle.Render(m.loadErr))
		return
	}
	if m.step == nil {
		m.instructions.SetContent(components.MutedStyle.Render("Loading..."))
		return
	}

	if m.renderer == nil || m.rendererWrap != width {
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(glamourStyle),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			logger.Warnf("⚠️ Failed to create markdown renderer: %v", err)
			m.instructions.SetContent(m.step.Content)
			return
		}
		m.renderer = renderer
		m.rendererWrap = width
	}

	rendered, err := m.renderer.Render(m.step.Content)
	if err != nil {
		m.instructions.SetContent(m.step.Content)
		return
	}
	m.instructions.SetContent(rendered)
}
