package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/vanpelt/trainer/internal/console"
	"github.com/vanpelt/trainer/internal/models"
	"github.com/vanpelt/trainer/internal/tui/components"
)

const doubleClickWindow = 400 * time.Millisecond

// click remembers the previous tab click for double-click detection
type click struct {
	id console.TabID
	at time.Time
}

// Model is the bubbletea model of the training console. Every field is owned by
// the bubbletea event loop, which is also the loop the console runs on.
type Model struct {
	ctx       context.Context
	api       API
	console   *console.Console
	presenter *presenter
	keymap    console.Keymap
	now       func() time.Time

	// Window
	width  int
	height int
	ready  bool

	// Instructions pane
	scenario     models.Scenario
	steps        []models.Step
	current      int
	pendingStep  int
	step         *models.Step
	loadErr      string
	instructions viewport.Model
	renderer     *glamour.TermRenderer
	rendererWrap int

	// Check submission
	checking    bool
	spinner     spinner.Model
	checkResult *models.CheckResult

	// Tab rename
	renameInput textinput.Model
	lastClick   click

	// Footer key hints
	help help.Model

	// Transient status line
	status    string
	statusSeq int
	quitting  bool
}

// NewModel wires a console to the presentation layer. opts.Presenter and
// opts.Scheduler are filled in here; everything else is passed through.
func NewModel(ctx context.Context, api API, sched console.Scheduler, opts console.Options) *Model {
	p := newPresenter()
	opts.Presenter = p
	opts.Scheduler = sched

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(components.ColorAccent))

	input := textinput.New()
	input.Prompt = ""
	input.CharLimit = 40
	input.Width = 20
	input.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(components.ColorText))
	input.Cursor.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(components.ColorAccent)).Bold(true)

	return &Model{
		ctx:          ctx,
		api:          api,
		console:      console.New(opts),
		presenter:    p,
		keymap:       opts.Keymap,
		now:          time.Now,
		instructions: viewport.New(0, 0),
		spinner:      s,
		renameInput:  input,
		help:         keyHelp(),
	}
}

func keyHelp() help.Model {
	h := help.New()
	h.ShortSeparator = " · "
	h.Styles.ShortKey = lipgloss.NewStyle().Foreground(lipgloss.Color(components.ColorAccent))
	h.Styles.ShortDesc = lipgloss.NewStyle().Foreground(lipgloss.Color(components.ColorMuted))
	return h
}

// Init starts the initial remote fetches; the console is populated when the tabs arrive
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		m.fetchTabs(),
		m.fetchScenario(),
	)
}

// Console exposes the orchestrator, mainly for tests
func (m *Model) Console() *console.Console {
	return m.console
}

func (m *Model) layout() layout {
	return computeLayout(m.width, m.height)
}

func (m *Model) totalSteps() int {
	return len(m.steps)
}

func (m *Model) canStepBack() bool {
	return m.current > 1
}

func (m *Model) canStepForward() bool {
	return m.current < m.totalSteps()
}

func (m *Model) canCheck() bool {
	return m.step != nil && m.step.HasCheck && !m.checking
}

// setStatus shows a transient message and schedules its expiry
func (m *Model) setStatus(text string) tea.Cmd {
	m.statusSeq++
	m.status = text
	return expireStatus(m.statusSeq)
}
