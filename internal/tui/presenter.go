package tui

import (
	"github.com/vanpelt/trainer/internal/console"
)

// The shell starts every session at this size until the first fit
const (
	defaultTerminalCols = 80
	defaultTerminalRows = 24
)

// paneSize is the space the right-hand pane leaves for the foreground session
type paneSize struct {
	cols int
	rows int
}

// terminalSurface is a vt10x screen that doubles as its own layout container
type terminalSurface struct {
	id       console.TabID
	emu      *TerminalEmulator
	pane     *paneSize
	visible  bool
	focused  bool
	disposed bool
}

func (s *terminalSurface) Write(p []byte) {
	if s.disposed {
		return
	}
	s.emu.Write(p)
}

func (s *terminalSurface) Resize(cols, rows int) {
	if s.disposed || cols <= 0 || rows <= 0 {
		return
	}
	s.emu.Resize(cols, rows)
}

func (s *terminalSurface) Show() { s.visible = true }

func (s *terminalSurface) Hide() {
	s.visible = false
	s.focused = false
}

func (s *terminalSurface) Focus() { s.focused = true }

func (s *terminalSurface) Dispose() {
	s.disposed = true
	s.visible = false
}

// Size implements console.Container; hidden surfaces have no room
func (s *terminalSurface) Size() (cols, rows int) {
	if !s.visible || s.disposed {
		return 0, 0
	}
	return s.pane.cols, s.pane.rows
}

// viewSurface stands in for an embedded view: the terminal cannot host a web
// page, so it shows the address and can hand it to the system browser
type viewSurface struct {
	id      console.TabID
	cfg     console.TabConfig
	visible bool
}

func (s *viewSurface) Show() { s.visible = true }
func (s *viewSurface) Hide() { s.visible = false }

// presenter implements console.Presenter for the bubbletea model
type presenter struct {
	pane   paneSize
	terms  map[console.TabID]*terminalSurface
	views  map[console.TabID]*viewSurface
	status map[console.TabID]console.ConnectionState
}

func newPresenter() *presenter {
	return &presenter{
		terms:  make(map[console.TabID]*terminalSurface),
		views:  make(map[console.TabID]*viewSurface),
		status: make(map[console.TabID]console.ConnectionState),
	}
}

func (p *presenter) NewTerminalSurface(id console.TabID) (console.Surface, console.Container) {
	s := &terminalSurface{
		id:   id,
		emu:  NewTerminalEmulator(defaultTerminalCols, defaultTerminalRows),
		pane: &p.pane,
	}
	p.terms[id] = s
	return s, s
}

func (p *presenter) NewViewSurface(id console.TabID, cfg console.TabConfig) console.ViewSurface {
	s := &viewSurface{id: id, cfg: cfg}
	p.views[id] = s
	return s
}

func (p *presenter) SetStatus(id console.TabID, state console.ConnectionState) {
	if _, ok := p.terms[id]; ok {
		p.status[id] = state
	}
}

func (p *presenter) Release(id console.TabID) {
	delete(p.terms, id)
	delete(p.views, id)
	delete(p.status, id)
}

// setPane records the space available to the foreground session
func (p *presenter) setPane(cols, rows int) {
	p.pane = paneSize{cols: cols, rows: rows}
}

func (p *presenter) terminal(id console.TabID) (*terminalSurface, bool) {
	s, ok := p.terms[id]
	return s, ok
}

func (p *presenter) view(id console.TabID) (*viewSurface, bool) {
	s, ok := p.views[id]
	return s, ok
}
