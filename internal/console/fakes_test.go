package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// manualScheduler runs posted callbacks only when the test pumps them and fires
// timers only when the test advances its virtual clock.
type manualScheduler struct {
	posted chan func()
	now    time.Duration
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	due     time.Duration
	seq     int
	fn      func()
	fired   bool
	stopped bool
}

func (t *manualTimer) Stop() bool {
	if t.fired || t.stopped {
		return false
	}
	t.stopped = true
	return true
}

func newManualScheduler() *manualScheduler {
	return &manualScheduler{posted: make(chan func(), 4096)}
}

func (s *manualScheduler) Post(fn func()) {
	s.posted <- fn
}

func (s *manualScheduler) After(d time.Duration, fn func()) Timer {
	s.seq++
	timer := &manualTimer{due: s.now + d, seq: s.seq, fn: fn}
	s.timers = append(s.timers, timer)
	return timer
}

// Advance moves the clock forward, firing due timers in order
func (s *manualScheduler) Advance(d time.Duration) {
	target := s.now + d
	for {
		var pending []*manualTimer
		for _, timer := range s.timers {
			if !timer.fired && !timer.stopped && timer.due <= target {
				pending = append(pending, timer)
			}
		}
		if len(pending) == 0 {
			break
		}
		sort.Slice(pending, func(i, j int) bool {
			if pending[i].due != pending[j].due {
				return pending[i].due < pending[j].due
			}
			return pending[i].seq < pending[j].seq
		})
		next := pending[0]
		s.now = next.due
		next.fired = true
		next.fn()
	}
	s.now = target
}

// Pending counts timers that have neither fired nor been stopped
func (s *manualScheduler) Pending() int {
	n := 0
	for _, timer := range s.timers {
		if !timer.fired && !timer.stopped {
			n++
		}
	}
	return n
}

// Drain runs every callback posted so far without waiting
func (s *manualScheduler) Drain() {
	for {
		select {
		case fn := <-s.posted:
			fn()
		default:
			return
		}
	}
}

// WaitUntil pumps posted callbacks until cond holds
func (s *manualScheduler) WaitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for !cond() {
		select {
		case fn := <-s.posted:
			fn()
		case <-deadline:
			t.Fatal("condition not reached")
		}
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []string
}

func (l *eventLog) add(event string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, event)
}

func (l *eventLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.events...)
}

// memDialer hands out in-memory streams
type memDialer struct {
	mu      sync.Mutex
	log     *eventLog
	fail    error
	dials   int
	streams []*memStream
}

func (d *memDialer) Dial(ctx context.Context, endpoint string) (Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dials++
	if d.fail != nil {
		return nil, d.fail
	}
	s := &memStream{
		incoming: make(chan []byte, 64),
		done:     make(chan struct{}),
		log:      d.log,
	}
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *memDialer) setFail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = err
}

func (d *memDialer) dialCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func (d *memDialer) last() *memStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.streams) == 0 {
		return nil
	}
	return d.streams[len(d.streams)-1]
}

type memStream struct {
	incoming  chan []byte
	done      chan struct{}
	closeOnce sync.Once
	log       *eventLog

	mu      sync.Mutex
	written [][]byte
	resizes [][2]int
}

func (s *memStream) Read() ([]byte, error) {
	select {
	case p := <-s.incoming:
		return p, nil
	case <-s.done:
		return nil, io.EOF
	}
}

func (s *memStream) Write(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	select {
	case <-s.done:
		return errors.New("closed")
	default:
	}
	s.written = append(s.written, append([]byte(nil), p...))
	return nil
}

func (s *memStream) Resize(cols, rows int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizes = append(s.resizes, [2]int{cols, rows})
	return nil
}

func (s *memStream) Close() error {
	s.closeOnce.Do(func() {
		close(s.done)
		if s.log != nil {
			s.log.add("close-stream")
		}
	})
	return nil
}

// push simulates the server sending a chunk
func (s *memStream) push(p string) {
	s.incoming <- []byte(p)
}

func (s *memStream) writes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.written))
	for i, p := range s.written {
		out[i] = string(p)
	}
	return out
}

func (s *memStream) lastResize() [2]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.resizes) == 0 {
		return [2]int{}
	}
	return s.resizes[len(s.resizes)-1]
}

type fakeSurface struct {
	id       TabID
	p        *fakePresenter
	output   bytes.Buffer
	cols     int
	rows     int
	visible  bool
	focused  int
	disposed bool
}

func (s *fakeSurface) Write(p []byte)        { s.output.Write(p) }
func (s *fakeSurface) Resize(cols, rows int) { s.cols, s.rows = cols, rows }
func (s *fakeSurface) Show()                 { s.visible = true }
func (s *fakeSurface) Hide()                 { s.visible = false }
func (s *fakeSurface) Focus()                { s.focused++ }
func (s *fakeSurface) Dispose() {
	s.disposed = true
	s.p.log.add("dispose-surface")
}

func (s *fakeSurface) Size() (int, int) {
	if !s.visible {
		return 0, 0
	}
	return s.p.cols, s.p.rows
}

type fakeView struct {
	visible bool
	hides   int
}

func (v *fakeView) Show() { v.visible = true }
func (v *fakeView) Hide() { v.visible = false; v.hides++ }

type fakePresenter struct {
	log      *eventLog
	cols     int
	rows     int
	terms    map[TabID]*fakeSurface
	views    map[TabID]*fakeView
	status   map[TabID][]ConnectionState
	released []TabID
}

func (p *fakePresenter) NewTerminalSurface(id TabID) (Surface, Container) {
	s := &fakeSurface{id: id, p: p}
	p.terms[id] = s
	return s, s
}

func (p *fakePresenter) NewViewSurface(id TabID, cfg TabConfig) ViewSurface {
	v := &fakeView{}
	p.views[id] = v
	return v
}

func (p *fakePresenter) SetStatus(id TabID, state ConnectionState) {
	p.status[id] = append(p.status[id], state)
}

func (p *fakePresenter) Release(id TabID) {
	p.released = append(p.released, id)
	p.log.add("release")
}

type harness struct {
	sched  *manualScheduler
	dialer *memDialer
	pres   *fakePresenter
	log    *eventLog
	c      *Console
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := &eventLog{}
	h := &harness{
		sched:  newManualScheduler(),
		dialer: &memDialer{log: log},
		log:    log,
		pres: &fakePresenter{
			log:    log,
			cols:   120,
			rows:   40,
			terms:  make(map[TabID]*fakeSurface),
			views:  make(map[TabID]*fakeView),
			status: make(map[TabID][]ConnectionState),
		},
	}
	h.c = New(Options{
		Endpoint:  "ws://trainer.test/ws/terminal",
		Dialer:    h.dialer,
		Scheduler: h.sched,
		Presenter: h.pres,
		Keymap:    DefaultKeymap(),
	})
	t.Cleanup(h.c.Shutdown)
	return h
}

func (h *harness) state(id TabID) ConnectionState {
	return h.c.sessions.terminals[id].State()
}

func (h *harness) waitState(t *testing.T, id TabID, state ConnectionState) {
	t.Helper()
	h.sched.WaitUntil(t, func() bool { return h.state(id) == state })
}

func (h *harness) newConnectedTerminal(t *testing.T) TabID {
	t.Helper()
	id, err := h.c.NewTerminal()
	require.NoError(t, err)
	h.waitState(t, id, StateConnected)
	return id
}

func (h *harness) foregroundCount() int {
	n := 0
	for _, tab := range h.c.Tabs() {
		if tab.Active {
			n++
		}
	}
	return n
}

func (h *harness) visibleCount() int {
	n := 0
	for id, s := range h.pres.terms {
		if s.visible && h.c.reg.Has(id) {
			n++
		}
	}
	for _, v := range h.pres.views {
		if v.visible {
			n++
		}
	}
	return n
}
