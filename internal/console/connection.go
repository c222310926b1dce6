package console

import (
	"context"
	"fmt"
	"time"

	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/recovery"
)

// DefaultReconnectDelay is the pause between a dropped stream and the next attempt
const DefaultReconnectDelay = 2 * time.Second

const (
	reconnectNotice = "\r\n\x1b[31mConnection closed. Reconnecting...\x1b[0m\r\n"
	errorNotice     = "\r\n\x1b[31mFailed to connect: %s\x1b[0m\r\n"
)

// ConnectionHandler receives everything a connection observes, always on the event loop
type ConnectionHandler interface {
	OnState(state ConnectionState)
	OnData(p []byte)
}

// ConnectionOptions configures a Connection
type ConnectionOptions struct {
	Endpoint       string
	Dialer         Dialer
	Scheduler      Scheduler
	ReconnectDelay time.Duration
	// Alive reports whether the owning tab is still registered
	Alive   func() bool
	Handler ConnectionHandler
	Name    string
}

// Connection owns the byte-stream for one terminal tab. Every attempt gets a new
// epoch; events from a stale epoch (a stream that was replaced or closed) are dropped.
type Connection struct {
	opts ConnectionOptions

	state  ConnectionState
	stream Stream
	epoch  uint64
	closed bool

	timer      Timer
	cancelDial context.CancelFunc
}

// NewConnection creates an idle connection; call Connect to start the first attempt
func NewConnection(opts ConnectionOptions) *Connection {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = DefaultReconnectDelay
	}
	if opts.Alive == nil {
		opts.Alive = func() bool { return true }
	}
	return &Connection{opts: opts, state: StateConnecting}
}

// State returns the current connection state
func (c *Connection) State() ConnectionState {
	return c.state
}

// Closed reports whether the connection was torn down for good
func (c *Connection) Closed() bool {
	return c.closed
}

// Connect starts a new attempt. The dial happens off the loop and reports back through the scheduler.
func (c *Connection) Connect() {
	if c.closed {
		return
	}
	c.epoch++
	epoch := c.epoch
	c.setState(StateConnecting)

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelDial = cancel

	recovery.SafeGo("console-dial-"+c.opts.Name, func() {
		stream, err := c.opts.Dialer.Dial(ctx, c.opts.Endpoint)
		c.opts.Scheduler.Post(func() {
			c.handleDialed(epoch, stream, err)
		})
	})
}

func (c *Connection) handleDialed(epoch uint64, stream Stream, err error) {
	if c.closed || epoch != c.epoch {
		if stream != nil {
			_ = stream.Close()
		}
		return
	}
	c.cancelDial = nil

	if err != nil {
		logger.Warnf("⚠️ Terminal %s failed to connect: %v", c.opts.Name, err)
		c.setState(StateErrored)
		c.opts.Handler.OnData([]byte(fmt.Sprintf(errorNotice, err)))
		return
	}

	c.stream = stream
	c.setState(StateConnected)
	logger.Debugf("🔌 Terminal %s connected (epoch %d)", c.opts.Name, epoch)

	recovery.SafeGo("console-read-"+c.opts.Name, func() {
		for {
			data, err := stream.Read()
			if err != nil {
				c.opts.Scheduler.Post(func() { c.handleClosed(epoch, err) })
				return
			}
			c.opts.Scheduler.Post(func() { c.handleData(epoch, data) })
		}
	})
}

func (c *Connection) handleData(epoch uint64, data []byte) {
	if c.closed || epoch != c.epoch {
		return
	}
	c.opts.Handler.OnData(data)
}

func (c *Connection) handleClosed(epoch uint64, err error) {
	if c.closed || epoch != c.epoch {
		return
	}
	logger.Debugf("🔌 Terminal %s stream closed: %v", c.opts.Name, err)

	if c.stream != nil {
		_ = c.stream.Close()
		c.stream = nil
	}
	c.setState(StateDisconnected)

	if !c.opts.Alive() {
		return
	}
	c.opts.Handler.OnData([]byte(reconnectNotice))

	c.timer = c.opts.Scheduler.After(c.opts.ReconnectDelay, func() {
		c.timer = nil
		if c.closed || epoch != c.epoch || !c.opts.Alive() {
			return
		}
		c.Connect()
	})
}

// Send forwards bytes while connected. Anything typed in any other state is dropped.
func (c *Connection) Send(p []byte) bool {
	if c.state != StateConnected || c.stream == nil {
		return false
	}
	if err := c.stream.Write(p); err != nil {
		logger.Debugf("🔌 Terminal %s write failed: %v", c.opts.Name, err)
		return false
	}
	return true
}

// Resize tells the remote side about a new geometry while connected
func (c *Connection) Resize(cols, rows int) bool {
	if c.state != StateConnected || c.stream == nil {
		return false
	}
	if err := c.stream.Resize(cols, rows); err != nil {
		logger.Debugf("🔌 Terminal %s resize failed: %v", c.opts.Name, err)
		return false
	}
	return true
}

// Close tears the connection down permanently: pending dials and reconnects are abandoned
func (c *Connection) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.epoch++

	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancelDial != nil {
		c.cancelDial()
		c.cancelDial = nil
	}
	if c.stream != nil {
		_ = c.stream.Close()
		c.stream = nil
	}
}

func (c *Connection) setState(state ConnectionState) {
	c.state = state
	c.opts.Handler.OnState(state)
}
