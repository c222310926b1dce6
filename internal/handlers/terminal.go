package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/recovery"
	"github.com/vanpelt/trainer/internal/services"
)

// ControlMsg is a JSON control message sent as a text frame
type ControlMsg struct {
	Type string `json:"type"`
	Cols uint16 `json:"cols,omitempty"`
	Rows uint16 `json:"rows,omitempty"`
}

// TerminalHandler bridges terminal WebSocket connections to PTY shells
type TerminalHandler struct {
	shell *services.ShellService
}

// NewTerminalHandler creates a new terminal handler
func NewTerminalHandler(shell *services.ShellService) *TerminalHandler {
	return &TerminalHandler{shell: shell}
}

// RegisterRoutes registers the terminal WebSocket route
func (h *TerminalHandler) RegisterRoutes(app fiber.Router) {
	app.Get("/ws/terminal", h.HandleWebSocket)
}

// HandleWebSocket upgrades the request and starts a fresh shell for it.
// Every connection gets its own shell; nothing is shared between tabs.
// @Summary Terminal WebSocket
// @Tags terminal
// @Success 101 {string} string "Switching Protocols"
// @Router /ws/terminal [get]
func (h *TerminalHandler) HandleWebSocket(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return websocket.New(h.handleConnection)(c)
	}
	return fiber.ErrUpgradeRequired
}

func (h *TerminalHandler) handleConnection(conn *websocket.Conn) {
	connID := uuid.NewString()
	logger.Infof("🔌 Terminal WebSocket connected [%s] from %s", connID, conn.RemoteAddr())

	session, err := h.shell.Start(connID)
	if err != nil {
		logger.Errorf("❌ Failed to start shell [%s]: %v", connID, err)
		_ = conn.WriteMessage(websocket.TextMessage, []byte("Failed to start terminal: "+err.Error()))
		return
	}
	defer func() {
		session.Close()
		logger.Infof("🔌 Terminal WebSocket disconnected [%s]", connID)
	}()

	done := make(chan struct{})

	// PTY -> WebSocket
	recovery.SafeGo("terminal-pty-reader-"+connID, func() {
		defer close(done)
		buf := make([]byte, 4096)
		for {
			n, err := session.PTY.Read(buf)
			if n > 0 {
				if werr := conn.WriteMessage(websocket.BinaryMessage, buf[:n]); werr != nil {
					logger.Debugf("🔌 WebSocket write error [%s]: %v", connID, werr)
					return
				}
			}
			if err != nil {
				if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
					logger.Debugf("🔌 PTY read error [%s]: %v", connID, err)
				}
				// Shell exited: close the socket so the console notices and reconnects
				_ = conn.Close()
				return
			}
		}
	})

	// WebSocket -> PTY
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			logger.Debugf("🔌 WebSocket read error [%s]: %v", connID, err)
			break
		}

		if messageType == websocket.TextMessage {
			var msg ControlMsg
			if err := json.Unmarshal(data, &msg); err == nil && msg.Type != "" {
				h.handleControl(session, msg)
				continue
			}
		}

		if _, err := session.PTY.Write(data); err != nil {
			logger.Debugf("🔌 PTY write error [%s]: %v", connID, err)
			break
		}
	}

	session.Close()
	<-done
}

func (h *TerminalHandler) handleControl(session *services.ShellSession, msg ControlMsg) {
	switch msg.Type {
	case "resize":
		if msg.Cols == 0 || msg.Rows == 0 {
			return
		}
		if err := session.Resize(msg.Cols, msg.Rows); err != nil {
			logger.Warnf("⚠️ Failed to resize PTY %s: %v", session.ID, err)
			return
		}
		logger.Debugf("📐 Resized PTY %s to %dx%d", session.ID, msg.Cols, msg.Rows)
	default:
		logger.Debugf("🤷 Ignoring unknown control message %q", msg.Type)
	}
}
