package tui

import (
	"sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/vanpelt/trainer/internal/console"
	"github.com/vanpelt/trainer/internal/recovery"
)

// dispatchMsg carries a console callback into the bubbletea event loop
type dispatchMsg struct {
	fn func()
}

// loopScheduler implements console.Scheduler on top of a tea.Program. Posted
// callbacks are queued and delivered in order by a single pump goroutine, so
// Post never blocks even when called while the program is busy in Update.
type loopScheduler struct {
	mu     sync.Mutex
	queue  []func()
	wake   chan struct{}
	done   chan struct{}
	send   func(tea.Msg)
	closed bool
}

func newLoopScheduler() *loopScheduler {
	return &loopScheduler{
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
}

// start begins delivering callbacks through send, normally (*tea.Program).Send
func (s *loopScheduler) start(send func(tea.Msg)) {
	s.send = send
	recovery.SafeGo("tui-scheduler", s.pump)
}

// stop discards pending callbacks and ends the pump
func (s *loopScheduler) stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.queue = nil
	close(s.done)
}

// Post implements console.Scheduler
func (s *loopScheduler) Post(fn func()) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, fn)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// After implements console.Scheduler. A stopped timer never runs its callback,
// even if it already fired and the callback is waiting in the queue.
func (s *loopScheduler) After(d time.Duration, fn func()) console.Timer {
	t := &loopTimer{}
	t.timer = time.AfterFunc(d, func() {
		s.Post(func() {
			if t.stopped.Load() {
				return
			}
			fn()
		})
	})
	return t
}

func (s *loopScheduler) pump() {
	for {
		select {
		case <-s.done:
			return
		case <-s.wake:
		}

		for {
			s.mu.Lock()
			if s.closed || len(s.queue) == 0 {
				s.mu.Unlock()
				break
			}
			fn := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()

			s.send(dispatchMsg{fn: fn})
		}
	}
}

type loopTimer struct {
	timer   *time.Timer
	stopped atomic.Bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped.Swap(true) {
		return false
	}
	return t.timer.Stop()
}
