package console

// Surface is the text display owned by one terminal tab. It interprets escape
// sequences itself; the session writes bytes through untouched.
type Surface interface {
	Write(p []byte)
	Resize(cols, rows int)
	Show()
	Hide()
	Focus()
	Dispose()
}

// Container reports the space available to a surface; a hidden container is 0x0
type Container interface {
	Size() (cols, rows int)
}

// ViewSurface hosts an embedded external view. Hiding must never discard it.
type ViewSurface interface {
	Show()
	Hide()
}

// Presenter is the thin presentation layer the console drives
type Presenter interface {
	NewTerminalSurface(id TabID) (Surface, Container)
	NewViewSurface(id TabID, cfg TabConfig) ViewSurface
	SetStatus(id TabID, state ConnectionState)
	// Release removes every presentation footprint of a closed tab
	Release(id TabID)
}

// TerminalSession pairs a connection with a display surface
type TerminalSession struct {
	id        TabID
	conn      *Connection
	surface   Surface
	container Container
	presenter Presenter
	disposed  bool

	onConnected func(TabID)
}

// FeedInput forwards keystrokes verbatim; they are dropped unless connected
func (t *TerminalSession) FeedInput(p []byte) bool {
	return t.conn.Send(p)
}

// OnReceive writes received bytes to the surface in arrival order
func (t *TerminalSession) OnReceive(p []byte) {
	if t.disposed {
		return
	}
	t.surface.Write(p)
}

// Fit matches the surface geometry to its container and tells the remote side.
// It does nothing while the container is hidden, since a 0x0 layout would be wrong.
func (t *TerminalSession) Fit() bool {
	if t.disposed {
		return false
	}
	cols, rows := t.container.Size()
	if cols <= 0 || rows <= 0 {
		return false
	}
	t.surface.Resize(cols, rows)
	t.conn.Resize(cols, rows)
	return true
}

// Focus gives the surface keyboard focus
func (t *TerminalSession) Focus() {
	if !t.disposed {
		t.surface.Focus()
	}
}

// State returns the connection state
func (t *TerminalSession) State() ConnectionState {
	return t.conn.State()
}

// Close tears down the connection; the surface stays until Dispose
func (t *TerminalSession) Close() {
	t.conn.Close()
}

// Dispose releases the surface. Late inbound data is ignored afterwards.
func (t *TerminalSession) Dispose() {
	if t.disposed {
		return
	}
	t.disposed = true
	t.surface.Dispose()
}

// OnState implements ConnectionHandler
func (t *TerminalSession) OnState(state ConnectionState) {
	if t.disposed {
		return
	}
	t.presenter.SetStatus(t.id, state)
	if state == StateConnected {
		// The server starts every shell at 80x24
		t.Fit()
		if t.onConnected != nil {
			t.onConnected(t.id)
		}
	}
}

// OnData implements ConnectionHandler
func (t *TerminalSession) OnData(p []byte) {
	t.OnReceive(p)
}

func (t *TerminalSession) show() { t.surface.Show() }
func (t *TerminalSession) hide() { t.surface.Hide() }

// ViewSession shows an embedded view. There is no teardown: views live as long as the console.
type ViewSession struct {
	id      TabID
	cfg     TabConfig
	surface ViewSurface
	visible bool
}

// Show makes the view visible
func (v *ViewSession) Show() {
	v.visible = true
	v.surface.Show()
}

// Hide hides the view without destroying it
func (v *ViewSession) Hide() {
	v.visible = false
	v.surface.Hide()
}

// Visible reports whether the view is shown
func (v *ViewSession) Visible() bool {
	return v.visible
}

// URL returns the embedded view's address
func (v *ViewSession) URL() string {
	return v.cfg.URL
}

func (v *ViewSession) show() { v.Show() }
func (v *ViewSession) hide() { v.Hide() }
