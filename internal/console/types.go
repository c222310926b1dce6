package console

import "errors"

var (
	// ErrDuplicateTab is returned when a view tab id is already registered
	ErrDuplicateTab = errors.New("tab already exists")
	// ErrInvalidTab is returned when a view tab is configured without an id
	ErrInvalidTab = errors.New("view tab requires an id")
	// ErrTerminalsDisabled is returned by NewTerminal when terminals are turned off
	ErrTerminalsDisabled = errors.New("terminal sessions are disabled")
	// ErrUnknownTab is returned when no suitable tab exists for an operation
	ErrUnknownTab = errors.New("no such tab")
	// ErrNotConnected is returned when a command targets a terminal that is not connected
	ErrNotConnected = errors.New("terminal is not connected")
)

// TabID identifies a tab for the lifetime of the console
type TabID string

// TabKind tells terminal tabs from embedded view tabs
type TabKind int

const (
	KindTerminal TabKind = iota
	KindView
)

func (k TabKind) String() string {
	switch k {
	case KindTerminal:
		return "terminal"
	case KindView:
		return "view"
	default:
		return "unknown"
	}
}

// ConnectionState is the lifecycle state of a terminal's byte-stream connection
type ConnectionState int

const (
	StateConnecting ConnectionState = iota
	StateConnected
	StateDisconnected
	StateErrored
)

func (s ConnectionState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateErrored:
		return "error"
	default:
		return "unknown"
	}
}

// TabConfig describes a tab to create. Terminals may leave every field empty.
type TabConfig struct {
	ID    string
	Title string
	URL   string
	Icon  string
}

// Tab is a registry entry. Whether it is foreground is derived from the registry.
type Tab struct {
	ID    TabID
	Kind  TabKind
	Title string
	URL   string
	Icon  string
}

// TabInfo is a read-only snapshot of a tab for presentation
type TabInfo struct {
	Tab
	Active  bool
	Editing bool
	State   ConnectionState
}
