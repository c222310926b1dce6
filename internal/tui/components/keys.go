package components

// Key groups:
// 1. Console actions - resolved through the configurable keymap
// 2. Rename field - only while a tab title is being edited
// 3. Terminal pass-through - every other key while a terminal has focus

// Rename field keys
const (
	KeyEscape = "esc"
	KeyEnter  = "enter"
)

// Instruction pane scrolling
const (
	KeyUp       = "up"
	KeyDown     = "down"
	KeyPageUp   = "pgup"
	KeyPageDown = "pgdown"
	KeyHome     = "home"
	KeyEnd      = "end"
	KeyVimUp    = "k"
	KeyVimDown  = "j"
)

// Control keys forwarded to the shell
const (
	KeyCtrlC = "ctrl+c"
	KeyCtrlD = "ctrl+d"
	KeyCtrlL = "ctrl+l"
	KeyCtrlR = "ctrl+r"
	KeyCtrlU = "ctrl+u"
	KeyCtrlZ = "ctrl+z"
)

// IsScrollKey reports whether key scrolls the instructions pane
func IsScrollKey(key string) bool {
	switch key {
	case KeyUp, KeyDown, KeyPageUp, KeyPageDown, KeyHome, KeyEnd, KeyVimUp, KeyVimDown:
		return true
	}
	return false
}
