package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
	"github.com/vanpelt/trainer/internal/console"
	"github.com/vanpelt/trainer/internal/models"
)

// testScheduler runs posted callbacks only when the test drains it
type testScheduler struct {
	posted chan func()

	mu     sync.Mutex
	timers []*testTimer
}

type testTimer struct {
	fn      func()
	stopped bool
	fired   bool
}

func (t *testTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

func newTestScheduler() *testScheduler {
	return &testScheduler{posted: make(chan func(), 1024)}
}

func (s *testScheduler) Post(fn func()) {
	s.posted <- fn
}

func (s *testScheduler) After(_ time.Duration, fn func()) console.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := &testTimer{fn: fn}
	s.timers = append(s.timers, t)
	return t
}

// fireTimers runs every pending timer regardless of its delay
func (s *testScheduler) fireTimers() {
	s.mu.Lock()
	timers := s.timers
	s.timers = nil
	s.mu.Unlock()
	for _, t := range timers {
		if !t.stopped && !t.fired {
			t.fired = true
			t.fn()
		}
	}
}

// waitUntil runs posted callbacks until cond holds
func (s *testScheduler) waitUntil(t *testing.T, cond func() bool) {
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

// pipeStream is an in-memory terminal stream
type pipeStream struct {
	incoming  chan []byte
	done      chan struct{}
	closeOnce sync.Once

	mu      sync.Mutex
	written []byte
	resizes [][2]int
}

func newPipeStream() *pipeStream {
	return &pipeStream{incoming: make(chan []byte, 64), done: make(chan struct{})}
}

func (p *pipeStream) Read() ([]byte, error) {
	select {
	case data := <-p.incoming:
		return data, nil
	case <-p.done:
		return nil, io.EOF
	}
}

func (p *pipeStream) Write(data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.written = append(p.written, data...)
	return nil
}

func (p *pipeStream) Resize(cols, rows int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resizes = append(p.resizes, [2]int{cols, rows})
	return nil
}

func (p *pipeStream) Close() error {
	p.closeOnce.Do(func() { close(p.done) })
	return nil
}

func (p *pipeStream) output() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return string(p.written)
}

func (p *pipeStream) lastResize() [2]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.resizes) == 0 {
		return [2]int{}
	}
	return p.resizes[len(p.resizes)-1]
}

type pipeDialer struct {
	mu      sync.Mutex
	streams []*pipeStream
	fail    error
}

func (d *pipeDialer) Dial(_ context.Context, _ string) (console.Stream, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail != nil {
		return nil, d.fail
	}
	s := newPipeStream()
	d.streams = append(d.streams, s)
	return s, nil
}

func (d *pipeDialer) stream(i int) *pipeStream {
	d.mu.Lock()
	defer d.mu.Unlock()
	if i >= len(d.streams) {
		return nil
	}
	return d.streams[i]
}

// fakeAPI serves a fixed scenario
type fakeAPI struct {
	mu       sync.Mutex
	tabs     models.TabsResponse
	tabsErr  error
	scenario models.Scenario
	steps    []models.Step
	stepErr  error
	result   models.CheckResult
	checkErr error
	checked  []int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		tabs: models.TabsResponse{
			Tabs: []models.TabConfig{
				{ID: "editor", Name: "Editor", Icon: "code", URL: "http://localhost:8080/editor/"},
			},
			TerminalEnabled: true,
		},
		scenario: models.Scenario{Name: "Kubernetes Basics", Description: "Learn pods", TotalSteps: 2},
		steps: []models.Step{
			{Number: 1, Title: "Create A Pod", HasCheck: true, Content: "# Create a pod\n\n```bash\nkubectl run nginx --image=nginx\n```\n"},
			{Number: 2, Title: "Expose It", Content: "# Expose\n\n```yaml\nkind: Service\n```\n"},
		},
		result: models.CheckResult{Success: true, Message: "pod is running"},
	}
}

func (f *fakeAPI) Tabs(context.Context) (models.TabsResponse, error) {
	return f.tabs, f.tabsErr
}

func (f *fakeAPI) Scenario(context.Context) (models.Scenario, error) {
	return f.scenario, nil
}

func (f *fakeAPI) Steps(context.Context) ([]models.Step, error) {
	out := make([]models.Step, len(f.steps))
	for i, s := range f.steps {
		s.Content = ""
		out[i] = s
	}
	return out, nil
}

func (f *fakeAPI) Step(_ context.Context, number int) (models.Step, error) {
	if f.stepErr != nil {
		return models.Step{}, f.stepErr
	}
	if number < 1 || number > len(f.steps) {
		return models.Step{}, errors.New("step not found")
	}
	return f.steps[number-1], nil
}

func (f *fakeAPI) Check(_ context.Context, number int) (models.CheckResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, number)
	return f.result, f.checkErr
}

type harness struct {
	t      *testing.T
	m      *Model
	api    *fakeAPI
	sched  *testScheduler
	dialer *pipeDialer
	clock  time.Time
}

func newHarness(t *testing.T, api *fakeAPI) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		api:    api,
		sched:  newTestScheduler(),
		dialer: &pipeDialer{},
		clock:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	h.m = NewModel(context.Background(), api, h.sched, console.Options{
		Endpoint: "ws://trainer.test/ws/terminal",
		Dialer:   h.dialer,
		Keymap:   console.DefaultKeymap(),
	})
	h.m.now = func() time.Time { return h.clock }
	t.Cleanup(h.m.console.Shutdown)

	h.send(tea.WindowSizeMsg{Width: 120, Height: 40})
	return h
}

// send delivers msg and returns the command Update produced
func (h *harness) send(msg tea.Msg) tea.Cmd {
	_, cmd := h.m.Update(msg)
	return cmd
}

// run executes a command and feeds its message back, like the program would
func (h *harness) run(cmd tea.Cmd) {
	h.t.Helper()
	require.NotNil(h.t, cmd)
	h.send(cmd())
}

// start loads tabs and the first step, then waits for the first terminal to connect
func (h *harness) start() {
	h.t.Helper()
	h.run(h.m.fetchTabs())
	h.run(h.send(mustMsg(h.t, h.m.fetchScenario())))
	h.sched.waitUntil(h.t, func() bool {
		active, ok := h.m.console.Active()
		return ok && active.State == console.StateConnected
	})
	h.sched.fireTimers()
}

func (h *harness) key(k tea.KeyMsg) tea.Cmd {
	return h.send(k)
}

func (h *harness) typeRunes(s string) {
	for _, r := range s {
		h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) clickTab(id console.TabID, onClose bool) tea.Cmd {
	h.t.Helper()
	l := h.m.layout()
	for _, hit := range h.m.tabBar().hits {
		if hit.id != id {
			continue
		}
		x := hit.start + 1
		if onClose {
			require.True(h.t, hit.closeEnd > hit.closeStart, "tab %s has no close button", id)
			x = hit.closeStart
		}
		return h.send(tea.MouseMsg{X: l.rightX + x, Y: 0, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	}
	h.t.Fatalf("tab %s not in tab bar", id)
	return nil
}

func mustMsg(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	return cmd()
}

func titles(tabs []console.TabInfo) []string {
	out := make([]string, len(tabs))
	for i, tab := range tabs {
		out[i] = fmt.Sprintf("%s:%s", tab.ID, tab.Title)
	}
	return out
}
