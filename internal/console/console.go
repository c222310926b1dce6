package console

import (
	"errors"
	"fmt"
	"time"

	"github.com/vanpelt/trainer/internal/logger"
)

// Options configures a Console
type Options struct {
	// Endpoint is the terminal websocket URL every terminal tab dials
	Endpoint       string
	Dialer         Dialer
	Scheduler      Scheduler
	Presenter      Presenter
	Keymap         Keymap
	ReconnectDelay time.Duration
	SettleDelay    time.Duration
}

// Console orchestrates terminal and view tabs: creation, switching, rename,
// keyboard dispatch and teardown. It must only be used from the scheduler's loop.
type Console struct {
	opts     Options
	reg      *Registry
	sessions *sessions
	switcher *Switcher

	terminalsEnabled bool
	focused          TabID
}

// New creates a console with an empty registry
func New(opts Options) *Console {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}

	c := &Console{
		opts: opts,
		reg:  NewRegistry(),
		sessions: &sessions{
			terminals: make(map[TabID]*TerminalSession),
			views:     make(map[TabID]*ViewSession),
		},
	}
	c.switcher = &Switcher{
		reg:      c.reg,
		sessions: c.sessions,
		sched:    opts.Scheduler,
		settle:   opts.SettleDelay,
		focus:    c.focusTerminal,
	}
	return c
}

// Init creates the configured view tabs, then one terminal when terminals are
// enabled. Without terminals the first view becomes foreground. A view that
// cannot be created is skipped and reported in the returned error; the
// remaining tabs are still set up.
func (c *Console) Init(views []TabConfig, terminalEnabled bool) error {
	c.terminalsEnabled = terminalEnabled

	var skipped []error
	for _, cfg := range views {
		if _, err := c.addView(cfg); err != nil {
			logger.Warnf("⚠️ Skipping view tab %q: %v", cfg.ID, err)
			skipped = append(skipped, fmt.Errorf("failed to create view tab %q: %w", cfg.ID, err))
		}
	}

	if terminalEnabled {
		if _, err := c.NewTerminal(); err != nil {
			return errors.Join(append(skipped, err)...)
		}
	} else if first := c.reg.ListKind(KindView); len(first) > 0 {
		c.switcher.SwitchTo(first[0].ID)
	}
	return errors.Join(skipped...)
}

func (c *Console) addView(cfg TabConfig) (TabID, error) {
	id, err := c.reg.Create(KindView, cfg)
	if err != nil {
		return "", err
	}
	view := &ViewSession{
		id:      id,
		cfg:     cfg,
		surface: c.opts.Presenter.NewViewSurface(id, cfg),
	}
	view.Hide()
	c.sessions.views[id] = view
	logger.Debugf("🪟 Created view tab %s (%s)", id, cfg.URL)
	return id, nil
}

// TerminalsEnabled reports whether terminal tabs may be created
func (c *Console) TerminalsEnabled() bool {
	return c.terminalsEnabled
}

// NewTerminal creates a terminal tab, starts connecting it and brings it to the foreground
func (c *Console) NewTerminal() (TabID, error) {
	if !c.terminalsEnabled {
		return "", ErrTerminalsDisabled
	}

	id, err := c.reg.Create(KindTerminal, TabConfig{})
	if err != nil {
		return "", err
	}

	surface, container := c.opts.Presenter.NewTerminalSurface(id)
	term := &TerminalSession{
		id:          id,
		surface:     surface,
		container:   container,
		presenter:   c.opts.Presenter,
		onConnected: c.terminalConnected,
	}
	term.conn = NewConnection(ConnectionOptions{
		Endpoint:       c.opts.Endpoint,
		Dialer:         c.opts.Dialer,
		Scheduler:      c.opts.Scheduler,
		ReconnectDelay: c.opts.ReconnectDelay,
		Alive:          func() bool { return c.reg.Has(id) },
		Handler:        term,
		Name:           string(id),
	})
	surface.Hide()
	c.sessions.terminals[id] = term

	logger.Debugf("🖥️ Created terminal tab %s", id)
	term.conn.Connect()
	c.switcher.SwitchTo(id)
	return id, nil
}

// CloseTab closes a terminal tab. Views and the last terminal are refused.
// Teardown order: connection, surface, presentation footprint, registry entry.
func (c *Console) CloseTab(id TabID) bool {
	if !c.reg.CanRemove(id) {
		return false
	}
	term, ok := c.sessions.terminals[id]
	if !ok {
		return false
	}

	index := -1
	for i, tab := range c.reg.ListKind(KindTerminal) {
		if tab.ID == id {
			index = i
		}
	}
	wasActive := c.reg.IsActive(id)

	term.Close()
	term.Dispose()
	c.opts.Presenter.Release(id)
	c.reg.Remove(id)
	delete(c.sessions.terminals, id)
	if c.focused == id {
		c.focused = ""
	}
	logger.Debugf("🗑️ Closed terminal tab %s", id)

	if wasActive {
		remaining := c.reg.ListKind(KindTerminal)
		if index >= len(remaining) {
			index = len(remaining) - 1
		}
		c.switcher.SwitchTo(remaining[index].ID)
	}
	return true
}

// CloseActive closes the foreground tab if it is a closable terminal
func (c *Console) CloseActive() bool {
	return c.CloseTab(c.reg.Active())
}

// SwitchTo brings a tab to the foreground; unknown ids are ignored
func (c *Console) SwitchTo(id TabID) bool {
	return c.switcher.SwitchTo(id)
}

// Cycle moves the foreground delta tabs along insertion order, wrapping around
func (c *Console) Cycle(delta int) bool {
	tabs := c.reg.List()
	n := len(tabs)
	if n == 0 {
		return false
	}
	current := c.reg.IndexOf(c.reg.Active())
	if current < 0 && delta < 0 {
		current = 0
	}
	next := ((current+delta)%n + n) % n
	return c.switcher.SwitchTo(tabs[next].ID)
}

// Input forwards keystrokes to the foreground terminal
func (c *Console) Input(p []byte) bool {
	term, ok := c.activeTerminal()
	if !ok {
		return false
	}
	return term.FeedInput(p)
}

// RunCommand types text plus a newline into the foreground terminal and focuses it
func (c *Console) RunCommand(text string) error {
	term, ok := c.activeTerminal()
	if !ok {
		return ErrUnknownTab
	}
	if term.State() != StateConnected {
		return ErrNotConnected
	}
	if !term.FeedInput([]byte(text + "\n")) {
		return ErrNotConnected
	}
	c.focusTerminal(term.id)
	return nil
}

// Resize refits the foreground terminal after its container changed size
func (c *Console) Resize() bool {
	term, ok := c.activeTerminal()
	if !ok {
		return false
	}
	return term.Fit()
}

// HandleKey resolves key against the keymap and performs tab actions. The action
// is returned so the caller can handle the ones outside the console's scope
// (step navigation, checks, snippets, opening views, quitting).
func (c *Console) HandleKey(key string) Action {
	action := c.opts.Keymap.Resolve(key, c.TerminalFocused())
	switch action {
	case ActionNewTerminal:
		if _, err := c.NewTerminal(); err != nil {
			logger.Debugf("🚫 New terminal refused: %v", err)
		}
	case ActionCloseTerminal:
		c.CloseActive()
	case ActionNextTab:
		c.Cycle(1)
	case ActionPrevTab:
		c.Cycle(-1)
	case ActionRename:
		c.BeginRename(c.reg.Active())
	case ActionToggleFocus:
		c.ToggleFocus()
	}
	return action
}

// BeginRename starts editing a tab's title; a rename in progress elsewhere is committed first
func (c *Console) BeginRename(id TabID) bool {
	return c.reg.BeginRename(id)
}

// SetRenameDraft updates the title being edited
func (c *Console) SetRenameDraft(value string) {
	c.reg.SetDraft(value)
}

// CommitRename applies the edited title if it is non-empty
func (c *Console) CommitRename() {
	c.reg.CommitRename()
	c.refocus()
}

// CancelRename discards the edit
func (c *Console) CancelRename() {
	c.reg.CancelRename()
	c.refocus()
}

// Renaming returns the tab being renamed and its draft
func (c *Console) Renaming() (TabID, string) {
	return c.reg.Editing(), c.reg.Draft()
}

// Rename sets a tab's title in one step. Empty or blank titles leave it unchanged.
func (c *Console) Rename(id TabID, title string) bool {
	if !c.reg.BeginRename(id) {
		return false
	}
	c.reg.SetDraft(title)
	_, changed := c.reg.CommitRename()
	return changed
}

// TerminalFocused reports whether keyboard focus is inside the foreground terminal
func (c *Console) TerminalFocused() bool {
	return c.focused != "" && c.reg.IsActive(c.focused)
}

// ToggleFocus moves focus between the foreground terminal and the instructions
func (c *Console) ToggleFocus() {
	if c.TerminalFocused() {
		c.Blur()
		return
	}
	if term, ok := c.activeTerminal(); ok {
		c.focusTerminal(term.id)
	}
}

// Blur takes keyboard focus away from terminals
func (c *Console) Blur() {
	c.focused = ""
}

// Tabs returns presentation snapshots of every tab in order
func (c *Console) Tabs() []TabInfo {
	tabs := c.reg.List()
	out := make([]TabInfo, 0, len(tabs))
	for _, tab := range tabs {
		out = append(out, c.info(tab))
	}
	return out
}

// Active returns the foreground tab
func (c *Console) Active() (TabInfo, bool) {
	tab, ok := c.reg.Get(c.reg.Active())
	if !ok {
		return TabInfo{}, false
	}
	return c.info(tab), true
}

// Shutdown closes every connection; the console is unusable afterwards
func (c *Console) Shutdown() {
	for id, term := range c.sessions.terminals {
		term.Close()
		term.Dispose()
		delete(c.sessions.terminals, id)
	}
}

func (c *Console) info(tab Tab) TabInfo {
	info := TabInfo{
		Tab:     tab,
		Active:  c.reg.IsActive(tab.ID),
		Editing: c.reg.Editing() == tab.ID,
	}
	if term, ok := c.sessions.terminals[tab.ID]; ok {
		info.State = term.State()
	}
	return info
}

func (c *Console) activeTerminal() (*TerminalSession, bool) {
	term, ok := c.sessions.terminals[c.reg.Active()]
	return term, ok
}

func (c *Console) focusTerminal(id TabID) {
	term, ok := c.sessions.terminals[id]
	if !ok {
		return
	}
	c.focused = id
	term.Focus()
}

func (c *Console) terminalConnected(id TabID) {
	if c.reg.IsActive(id) && c.reg.Editing() == "" {
		c.focusTerminal(id)
	}
}

// refocus returns focus to the foreground terminal once a rename ends
func (c *Console) refocus() {
	if term, ok := c.activeTerminal(); ok && c.focused == term.id {
		term.Focus()
	}
}
