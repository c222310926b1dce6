package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanpelt/trainer/internal/tui/components"
)

// keyToBytes translates a key press into what a terminal would send to the shell
func keyToBytes(msg tea.KeyMsg) []byte {
	if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
		data := []byte(string(msg.Runes))
		if msg.Type == tea.KeySpace && len(data) == 0 {
			data = []byte(" ")
		}
		if msg.Alt {
			return append([]byte{27}, data...)
		}
		return data
	}

	switch msg.Type {
	case tea.KeyEnter:
		return []byte("\r")
	case tea.KeyBackspace:
		return []byte{127}
	case tea.KeyTab:
		return []byte("\t")
	case tea.KeyShiftTab:
		return []byte("\x1b[Z")
	case tea.KeyEsc:
		return []byte{27}
	case tea.KeyUp:
		return []byte("\x1b[A")
	case tea.KeyDown:
		return []byte("\x1b[B")
	case tea.KeyRight:
		return []byte("\x1b[C")
	case tea.KeyLeft:
		return []byte("\x1b[D")
	case tea.KeyHome:
		return []byte("\x1b[H")
	case tea.KeyEnd:
		return []byte("\x1b[F")
	case tea.KeyDelete:
		return []byte("\x1b[3~")
	case tea.KeyPgUp:
		return []byte("\x1b[5~")
	case tea.KeyPgDown:
		return []byte("\x1b[6~")
	}

	switch msg.String() {
	case components.KeyCtrlC:
		return []byte{3}
	case components.KeyCtrlD:
		return []byte{4}
	case components.KeyCtrlL:
		return []byte{12}
	case components.KeyCtrlR:
		return []byte{18}
	case components.KeyCtrlU:
		return []byte{21}
	case components.KeyCtrlZ:
		return []byte{26}
	}

	// Remaining control keys map straight onto their control codes
	if msg.Type >= tea.KeyCtrlA && msg.Type <= tea.KeyCtrlZ {
		return []byte{byte(msg.Type)}
	}
	return nil
}
