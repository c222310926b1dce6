package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/vanpelt/trainer/internal/console"
	"github.com/vanpelt/trainer/internal/tui/components"
)

const (
	minInstructionsWidth = 30
	tabBarHeight         = 2 // labels plus the bottom border
	footerHeight         = 1
	instructionsHeader   = 4 // scenario, description, step line, blank
	instructionsFooter   = 2 // navigation line plus check result line
	tabGap               = 1
	closeGlyph           = "×"
)

// layout splits the window into the instructions pane and the session pane
type layout struct {
	width  int
	height int

	leftWidth   int // includes the divider column
	rightX      int
	rightWidth  int
	contentY    int
	contentRows int
}

func computeLayout(width, height int) layout {
	l := layout{width: width, height: height}

	l.leftWidth = width * 2 / 5
	if l.leftWidth < minInstructionsWidth {
		l.leftWidth = min(minInstructionsWidth, width/2)
	}
	l.rightX = l.leftWidth
	l.rightWidth = max(width-l.leftWidth, 0)
	l.contentY = tabBarHeight
	l.contentRows = max(height-tabBarHeight-footerHeight, 0)
	return l
}

// instructionsViewport returns the size of the scrollable step content
func (l layout) instructionsViewport() (width, height int) {
	return max(l.leftWidth-2, 0), max(l.height-footerHeight-instructionsHeader-instructionsFooter, 0)
}

// inInstructions reports whether a screen cell belongs to the instructions pane
func (l layout) inInstructions(x, y int) bool {
	return x < l.leftWidth-1 && y < l.height-footerHeight
}

// inContent reports whether a screen cell belongs to the foreground session
func (l layout) inContent(x, y int) bool {
	return x >= l.rightX && y >= l.contentY && y < l.contentY+l.contentRows
}

// tabHit is the horizontal extent of one rendered tab, relative to the pane
type tabHit struct {
	id         console.TabID
	start      int
	end        int
	closeStart int
	closeEnd   int
}

func (h tabHit) contains(x int) bool      { return x >= h.start && x < h.end }
func (h tabHit) closeContains(x int) bool { return h.closeEnd > h.closeStart && x >= h.closeStart && x < h.closeEnd }

// tabBar is the rendered tab strip together with its click targets. Rendering
// and hit testing both come from layoutTabBar so they can never disagree.
type tabBar struct {
	labels []string
	hits   []tabHit
}

// layoutTabBar lays out tabs left to right. editor, when non-empty, replaces the
// title of the tab being renamed. Close buttons appear on terminals only when
// more than one terminal exists.
func layoutTabBar(tabs []console.TabInfo, editor string) tabBar {
	terminals := 0
	for _, tab := range tabs {
		if tab.Kind == console.KindTerminal {
			terminals++
		}
	}

	var bar tabBar
	x := 0
	for _, tab := range tabs {
		title := tab.Title
		if tab.Editing && editor != "" {
			title = editor
		}

		prefix := tabBadge(tab) + " "
		content := prefix + title
		closable := tab.Kind == console.KindTerminal && terminals > 1
		if closable {
			content += " " + components.TabCloseStyle.Render(closeGlyph)
		}

		style := components.TabStyle
		if tab.Active {
			style = components.ActiveTabStyle
		}
		label := style.Render(content)
		width := lipgloss.Width(label)

		hit := tabHit{id: tab.ID, start: x, end: x + width}
		if closable {
			// left padding, badge, title, space
			hit.closeStart = x + 1 + lipgloss.Width(prefix) + lipgloss.Width(title) + 1
			hit.closeEnd = hit.closeStart + lipgloss.Width(closeGlyph)
		}

		bar.labels = append(bar.labels, label)
		bar.hits = append(bar.hits, hit)
		x += width + tabGap
	}
	return bar
}

// render joins the labels into one line of at most width cells
func (b tabBar) render(width int) string {
	line := strings.Join(b.labels, strings.Repeat(" ", tabGap))
	return components.TabBarStyle.Width(width).MaxWidth(width).Render(line)
}

// hitTest maps a pane-relative column to a tab and whether its close button was hit
func (b tabBar) hitTest(x int) (console.TabID, bool, bool) {
	for _, hit := range b.hits {
		if hit.contains(x) {
			return hit.id, hit.closeContains(x), true
		}
	}
	return "", false, false
}

var tabIcons = map[string]string{
	"code":     "</>",
	"terminal": ">_",
	"book":     "≡",
	"chart":    "~",
	"database": "db",
	"settings": "*",
	"desktop":  "[]",
	"globe":    "@",
}

// tabBadge is the status dot of a terminal or the icon of a view
func tabBadge(tab console.TabInfo) string {
	if tab.Kind == console.KindView {
		if icon, ok := tabIcons[tab.Icon]; ok {
			return icon
		}
		return tabIcons["globe"]
	}
	return statusDot(tab.State)
}

// statusBadge is the glyph and style of each connection state
type statusBadge struct {
	glyph string
	style lipgloss.Style
}

var statusBadges = map[console.ConnectionState]statusBadge{
	console.StateConnecting:   {"◐", components.StatusConnectingStyle},
	console.StateConnected:    {"●", components.StatusConnectedStyle},
	console.StateDisconnected: {"○", components.StatusDisconnectedStyle},
	console.StateErrored:      {"✗", components.StatusErrorStyle},
}

func statusDot(state console.ConnectionState) string {
	badge, ok := statusBadges[state]
	if !ok {
		badge = statusBadges[console.StateErrored]
	}
	return badge.style.Render(badge.glyph)
}
