package tui

import (
	"bytes"
	"strings"

	"github.com/hinshun/vt10x"
)

// TerminalEmulator wraps vt10x so a terminal tab can be drawn as plain text
type TerminalEmulator struct {
	terminal vt10x.Terminal
	cols     int
	rows     int
}

// NewTerminalEmulator creates a new terminal emulator
func NewTerminalEmulator(cols, rows int) *TerminalEmulator {
	return &TerminalEmulator{
		terminal: vt10x.New(vt10x.WithSize(cols, rows)),
		cols:     cols,
		rows:     rows,
	}
}

// Write feeds raw shell output through the emulator
func (te *TerminalEmulator) Write(data []byte) {
	_, _ = te.terminal.Write(data)
}

// Resize updates the terminal dimensions
func (te *TerminalEmulator) Resize(cols, rows int) {
	if cols == te.cols && rows == te.rows {
		return
	}
	te.cols = cols
	te.rows = rows
	te.terminal.Resize(cols, rows)
}

// Size returns the emulated geometry
func (te *TerminalEmulator) Size() (cols, rows int) {
	return te.cols, te.rows
}

// Render returns the screen as text. The cursor is drawn as a block only when
// showCursor is set, so unfocused terminals do not look like they take input.
func (te *TerminalEmulator) Render(showCursor bool) string {
	te.terminal.Lock()
	defer te.terminal.Unlock()

	var buf bytes.Buffer
	cursor := te.terminal.Cursor()
	cursorVisible := showCursor && te.terminal.CursorVisible()

	for row := 0; row < te.rows; row++ {
		if row > 0 {
			buf.WriteString("\n")
		}
		for col := 0; col < te.cols; col++ {
			cell := te.terminal.Cell(col, row)
			switch {
			case cursorVisible && row == cursor.Y && col == cursor.X && (cell.Char == 0 || cell.Char == ' '):
				buf.WriteRune('█')
			case cell.Char == 0:
				buf.WriteRune(' ')
			default:
				buf.WriteRune(cell.Char)
			}
		}
	}

	// Trim trailing empty lines
	lines := strings.Split(buf.String(), "\n")
	last := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) != "" {
			last = i
			break
		}
	}
	return strings.Join(lines[:last+1], "\n")
}

// CursorPosition returns the current cursor position
func (te *TerminalEmulator) CursorPosition() (row, col int) {
	cursor := te.terminal.Cursor()
	return cursor.Y, cursor.X
}

// Clear clears the screen and homes the cursor
func (te *TerminalEmulator) Clear() {
	te.Write([]byte("\033[2J\033[H"))
}
