package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/vanpelt/trainer/internal/console"
	"github.com/vanpelt/trainer/internal/tui/components"
)

// View renders the split pane: instructions on the left, tabs and the
// foreground session on the right, key hints along the bottom
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Starting training console..."
	}

	l := m.layout()
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderInstructionsPane(l),
		m.renderSessionPane(l),
	)
	return lipgloss.JoinVertical(lipgloss.Left, body, m.renderFooter(l.width))
}

// tabBar lays out the current tabs; rendering and mouse hit testing share it
func (m *Model) tabBar() tabBar {
	editor := ""
	if id, _ := m.console.Renaming(); id != "" {
		editor = m.renameInput.View()
	}
	return layoutTabBar(m.console.Tabs(), editor)
}

func (m *Model) renderInstructionsPane(l layout) string {
	width := max(l.leftWidth-1, 0)
	height := max(l.height-footerHeight, 0)
	line := lipgloss.NewStyle().MaxWidth(width)

	title := m.scenario.Name
	if title == "" {
		title = "Training"
	}

	progress := "Step - / -"
	if m.current > 0 {
		progress = fmt.Sprintf("Step %d / %d", m.current, m.totalSteps())
		if m.step != nil && m.step.Title != "" {
			progress += " · " + m.step.Title
		}
	}

	sections := []string{
		line.Render(components.HeaderStyle.Render(title)),
		line.Render(components.MutedStyle.Render(firstLine(m.scenario.Description))),
		line.Render(components.SubHeaderStyle.Render(progress)),
		"",
		m.instructions.View(),
		line.Render(m.renderNavigation()),
		line.Render(m.renderCheckLine()),
	}

	return components.InstructionsPaneStyle.
		Width(width).
		Height(height).
		MaxHeight(height).
		Render(strings.Join(sections, "\n"))
}

func (m *Model) renderNavigation() string {
	back := "◀ " + m.keyHint(console.ActionStepBack)
	if m.canStepBack() {
		back = components.KeyHighlightStyle.Render(back)
	} else {
		back = components.MutedStyle.Render(back)
	}

	forward := m.keyHint(console.ActionStepForward) + " ▶"
	if m.canStepForward() {
		forward = components.KeyHighlightStyle.Render(forward)
	} else {
		forward = components.MutedStyle.Render(forward)
	}

	parts := []string{back, forward}
	if m.step != nil && m.step.HasCheck {
		check := m.keyHint(console.ActionSubmitCheck) + " check"
		if m.canCheck() {
			check = components.KeyHighlightStyle.Render(check)
		} else {
			check = components.MutedStyle.Render(check)
		}
		parts = append(parts, check)
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderCheckLine() string {
	switch {
	case m.checking:
		return m.spinner.View() + " Checking..."
	case m.checkResult == nil:
		return ""
	case m.checkResult.Success:
		return components.SuccessStyle.Render("✓ " + firstLine(m.checkResult.Message))
	default:
		return components.ErrorStyle.Render("✗ " + firstLine(m.checkResult.Message))
	}
}

func (m *Model) renderSessionPane(l layout) string {
	bar := m.tabBar().render(l.rightWidth)

	content := components.MutedStyle.Render("Connecting...")
	if active, ok := m.console.Active(); ok {
		switch active.Kind {
		case console.KindTerminal:
			if surface, ok := m.presenter.terminal(active.ID); ok {
				content = surface.emu.Render(m.console.TerminalFocused())
			}
		case console.KindView:
			content = m.renderViewCard(active)
		}
	}

	box := lipgloss.NewStyle().
		Width(l.rightWidth).
		MaxWidth(l.rightWidth).
		Height(l.contentRows).
		MaxHeight(l.contentRows)
	return lipgloss.JoinVertical(lipgloss.Left, bar, box.Render(content))
}

func (m *Model) renderViewCard(tab console.TabInfo) string {
	lines := []string{
		components.SectionHeaderStyle.Render(tab.Title),
		"",
		components.LinkStyle.Render(tab.URL),
		"",
		components.MutedStyle.Render(fmt.Sprintf("Press %s to open this view in your browser", m.keyHint(console.ActionOpenView))),
	}
	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

func (m *Model) renderFooter(width int) string {
	if m.status != "" {
		return components.FooterStyle.MaxWidth(width).Render(m.status)
	}

	focus := "instructions"
	if m.console.TerminalFocused() {
		focus = "terminal"
	}

	var bindings []key.Binding
	if m.console.TerminalsEnabled() {
		bindings = append(bindings,
			m.binding(console.ActionNewTerminal, "new"),
			m.binding(console.ActionCloseTerminal, "close"),
		)
	}
	bindings = append(bindings,
		m.binding(console.ActionNextTab, "next tab"),
		m.binding(console.ActionRename, "rename"),
		m.binding(console.ActionToggleFocus, "focus"),
		m.binding(console.ActionRunSnippet, "run"),
		m.binding(console.ActionQuit, "quit"),
	)

	m.help.Width = width - lipgloss.Width(focus) - 3
	return components.FooterStyle.MaxWidth(width).Render("[" + focus + "] " + m.help.ShortHelpView(bindings))
}

// binding adapts a keymap entry for the help footer
func (m *Model) binding(action console.Action, desc string) key.Binding {
	return key.NewBinding(
		key.WithKeys(m.keymap.Keys(action)...),
		key.WithHelp(m.keyHint(action), desc),
	)
}

func (m *Model) keyHint(action console.Action) string {
	keys := m.keymap.Keys(action)
	if len(keys) == 0 {
		return "-"
	}
	return keys[0]
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
