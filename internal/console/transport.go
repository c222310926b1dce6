package console

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/recovery"
)

// TerminalPath is where the server exposes the terminal byte stream
const TerminalPath = "/ws/terminal"

const (
	writeQueueSize = 256
	closeWait      = 250 * time.Millisecond
)

// DefaultWriteTimeout bounds a single frame write; a peer slower than this is dropped
const DefaultWriteTimeout = 10 * time.Second

var (
	// ErrWriteQueueFull is returned when outbound frames pile up behind a stalled peer
	ErrWriteQueueFull = errors.New("terminal write queue is full")
	// ErrStreamClosed is returned by writes after Close
	ErrStreamClosed = errors.New("terminal stream is closed")
)

// Stream is one established duplex byte-stream
type Stream interface {
	// Read blocks for the next message; text and binary frames are both returned as bytes
	Read() ([]byte, error)
	Write(p []byte) error
	Resize(cols, rows int) error
	Close() error
}

// Dialer opens streams to an endpoint
type Dialer interface {
	Dial(ctx context.Context, endpoint string) (Stream, error)
}

// ResizeMessage is the control frame telling the server about a new geometry
type ResizeMessage struct {
	Type string `json:"type"`
	Cols int    `json:"cols"`
	Rows int    `json:"rows"`
}

// TerminalEndpoint turns a server base URL into its terminal websocket URL
func TerminalEndpoint(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server url: %w", err)
	}

	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("server url %q has no host", serverURL)
	}

	u.Path = strings.TrimSuffix(u.Path, "/") + TerminalPath
	u.RawQuery = ""
	return u.String(), nil
}

// WebSocketDialer dials terminal streams with gorilla/websocket
type WebSocketDialer struct {
	Dialer       *websocket.Dialer
	Header       http.Header
	WriteTimeout time.Duration
}

// NewWebSocketDialer returns a dialer with a bounded handshake
func NewWebSocketDialer() *WebSocketDialer {
	return &WebSocketDialer{
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 10 * time.Second,
		},
		WriteTimeout: DefaultWriteTimeout,
	}
}

func (d *WebSocketDialer) Dial(ctx context.Context, endpoint string) (Stream, error) {
	dialer := d.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}

	conn, resp, err := dialer.DialContext(ctx, endpoint, d.Header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to connect to terminal: %w", err)
	}
	timeout := d.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return newWSStream(conn, timeout), nil
}

type outbound struct {
	kind int
	data []byte
}

// wsStream hands every write to one writer goroutine so a peer that stops
// reading can never stall the caller's event loop
type wsStream struct {
	conn      *websocket.Conn
	timeout   time.Duration
	out       chan outbound
	done      chan struct{}
	closeOnce sync.Once
}

func newWSStream(conn *websocket.Conn, timeout time.Duration) *wsStream {
	s := &wsStream{
		conn:    conn,
		timeout: timeout,
		out:     make(chan outbound, writeQueueSize),
		done:    make(chan struct{}),
	}
	recovery.SafeGo("console-ws-writer", s.writeLoop)
	return s
}

func (s *wsStream) Read() ([]byte, error) {
	for {
		messageType, message, err := s.conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		if messageType == websocket.BinaryMessage || messageType == websocket.TextMessage {
			return message, nil
		}
	}
}

// Write queues keystrokes as a binary frame so the server never mistakes them for control JSON
func (s *wsStream) Write(p []byte) error {
	data := make([]byte, len(p))
	copy(data, p)
	return s.enqueue(outbound{kind: websocket.BinaryMessage, data: data})
}

func (s *wsStream) Resize(cols, rows int) error {
	data, err := json.Marshal(ResizeMessage{Type: "resize", Cols: cols, Rows: rows})
	if err != nil {
		return err
	}
	return s.enqueue(outbound{kind: websocket.TextMessage, data: data})
}

func (s *wsStream) enqueue(msg outbound) error {
	select {
	case <-s.done:
		return ErrStreamClosed
	default:
	}
	select {
	case s.out <- msg:
		return nil
	case <-s.done:
		return ErrStreamClosed
	default:
		return ErrWriteQueueFull
	}
}

func (s *wsStream) writeLoop() {
	for {
		select {
		case <-s.done:
			return
		case msg := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
			if err := s.conn.WriteMessage(msg.kind, msg.data); err != nil {
				logger.Debugf("🔌 Terminal stream write failed: %v", err)
				// Closing unblocks Read, which reports the stream as dropped
				_ = s.conn.Close()
				return
			}
		}
	}
}

// Close never waits longer than closeWait for a peer that stopped reading
func (s *wsStream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(closeWait))
		err = s.conn.Close()
	})
	return err
}
