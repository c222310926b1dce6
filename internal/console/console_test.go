package console

import (
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_TerminalDisabledWithEditorView(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.c.Init([]TabConfig{{ID: "editor", Title: "Editor", URL: "http://x/editor/", Icon: "code"}}, false))

	tabs := h.c.Tabs()
	require.Len(t, tabs, 1)
	assert.Equal(t, KindView, tabs[0].Kind)
	assert.Equal(t, "Editor", tabs[0].Title)
	assert.True(t, tabs[0].Active)
	assert.True(t, h.pres.views[tabs[0].ID].visible)

	_, err := h.c.NewTerminal()
	assert.ErrorIs(t, err, ErrTerminalsDisabled)
	assert.Equal(t, 1, h.c.reg.Len())
	assert.Equal(t, ActionNewTerminal, h.c.HandleKey("ctrl+t"))
	assert.Equal(t, 1, h.c.reg.Len())
}

func TestInit_ViewsFirstThenTerminal(t *testing.T) {
	h := newHarness(t)

	require.NoError(t, h.c.Init([]TabConfig{
		{ID: "editor", Title: "Editor"},
		{ID: "grafana", Title: "Grafana"},
	}, true))

	tabs := h.c.Tabs()
	require.Len(t, tabs, 3)
	assert.Equal(t, TabID("view-editor"), tabs[0].ID)
	assert.Equal(t, TabID("view-grafana"), tabs[1].ID)
	assert.Equal(t, TabID("term-1"), tabs[2].ID)
	assert.Equal(t, "Terminal 1", tabs[2].Title)
	assert.True(t, tabs[2].Active)
	assert.False(t, h.pres.views["view-editor"].visible)
	assert.Equal(t, StateConnecting, tabs[2].State)

	h.waitState(t, "term-1", StateConnected)
}

func TestInit_DuplicateViewSkipped(t *testing.T) {
	h := newHarness(t)
	err := h.c.Init([]TabConfig{{ID: "editor"}, {ID: "editor"}}, true)
	assert.ErrorIs(t, err, ErrDuplicateTab)

	assert.Equal(t, 2, h.c.reg.Len())
	assert.Len(t, h.c.reg.ListKind(KindView), 1)
	assert.Len(t, h.c.reg.ListKind(KindTerminal), 1)
	assert.Equal(t, 1, h.foregroundCount())
	assert.Equal(t, TabID("term-1"), h.c.reg.Active())
}

func TestInit_InvalidViewSkippedWithoutTerminals(t *testing.T) {
	h := newHarness(t)
	err := h.c.Init([]TabConfig{{ID: "docs", URL: "/docs"}, {ID: ""}}, false)
	assert.ErrorIs(t, err, ErrInvalidTab)

	assert.Equal(t, 1, h.c.reg.Len())
	assert.Equal(t, 1, h.foregroundCount())
	assert.Equal(t, TabID("view-docs"), h.c.reg.Active())
}

func TestInit_NothingConfigured(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, false))
	assert.Equal(t, 0, h.c.reg.Len())
	assert.Equal(t, 0, h.foregroundCount())
	_, ok := h.c.Active()
	assert.False(t, ok)
}

func TestCloseTab_LastTerminalIsRefused(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init([]TabConfig{{ID: "editor"}}, true))
	id := TabID("term-1")

	before := h.c.reg.Len()
	assert.False(t, h.c.CloseTab(id))
	assert.Equal(t, before, h.c.reg.Len())
	assert.False(t, h.pres.terms[id].disposed)
	assert.False(t, h.c.CloseTab("view-editor"), "views are never closed")
	assert.False(t, h.c.CloseTab("term-404"))
}

func TestCloseTab_FirstStaysForeground(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	second := h.newConnectedTerminal(t)
	first := TabID("term-1")

	require.True(t, h.c.SwitchTo(first))
	require.True(t, h.c.CloseTab(second))

	assert.Equal(t, 1, h.c.reg.Len())
	active, ok := h.c.Active()
	require.True(t, ok)
	assert.Equal(t, first, active.ID)
	assert.True(t, h.pres.terms[first].visible)
}

func TestCloseTab_TeardownOrder(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	h.waitState(t, "term-1", StateConnected)
	second := h.newConnectedTerminal(t)

	require.True(t, h.c.CloseTab(second))

	assert.Equal(t, []string{"close-stream", "dispose-surface", "release"}, h.log.list())
	assert.False(t, h.c.reg.Has(second))
	assert.Equal(t, []TabID{second}, h.pres.released)
}

func TestCloseTab_ActiveMovesToSameIndex(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	_, _ = h.c.NewTerminal()
	_, _ = h.c.NewTerminal()

	require.True(t, h.c.SwitchTo("term-2"))
	require.True(t, h.c.CloseActive())
	active, _ := h.c.Active()
	assert.Equal(t, TabID("term-3"), active.ID)

	require.True(t, h.c.CloseActive())
	active, _ = h.c.Active()
	assert.Equal(t, TabID("term-1"), active.ID)
}

func TestCloseTab_InactiveKeepsForeground(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	_, _ = h.c.NewTerminal()

	require.True(t, h.c.CloseTab("term-1"))
	active, _ := h.c.Active()
	assert.Equal(t, TabID("term-2"), active.ID)
}

func TestTerminalIDs_NeverReused(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	_, _ = h.c.NewTerminal()
	_, _ = h.c.NewTerminal()

	seen := map[TabID]bool{"term-1": true, "term-2": true, "term-3": true}
	require.True(t, h.c.CloseTab("term-2"))
	require.True(t, h.c.CloseTab("term-3"))

	for i := 0; i < 5; i++ {
		id, err := h.c.NewTerminal()
		require.NoError(t, err)
		assert.False(t, seen[id], "id %s reused", id)
		seen[id] = true
	}
	assert.Equal(t, "Terminal 8", h.c.Tabs()[len(h.c.Tabs())-1].Title)
}

func TestRename_RoundTrip(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init([]TabConfig{{ID: "editor", Title: "Editor"}}, true))

	assert.True(t, h.c.Rename("term-1", "Foo"))
	tab, _ := h.c.reg.Get("term-1")
	assert.Equal(t, "Foo", tab.Title)

	assert.True(t, h.c.Rename("term-1", "  Bar  "))
	tab, _ = h.c.reg.Get("term-1")
	assert.Equal(t, "Bar", tab.Title)

	for _, blank := range []string{"", "   ", "\t\n"} {
		assert.False(t, h.c.Rename("term-1", blank))
		tab, _ = h.c.reg.Get("term-1")
		assert.Equal(t, "Bar", tab.Title)
	}

	assert.True(t, h.c.Rename("view-editor", "Code"))
	assert.False(t, h.c.Rename("term-9", "Nope"))
	id, _ := h.c.Renaming()
	assert.Empty(t, id)
}

func TestRename_EditFlow(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	_, _ = h.c.NewTerminal()

	require.True(t, h.c.BeginRename("term-1"))
	id, draft := h.c.Renaming()
	assert.Equal(t, TabID("term-1"), id)
	assert.Equal(t, "Terminal 1", draft)

	h.c.SetRenameDraft("kubectl")
	h.c.CancelRename()
	tab, _ := h.c.reg.Get("term-1")
	assert.Equal(t, "Terminal 1", tab.Title)

	// Starting a second edit commits the first, so only one field is ever live
	require.True(t, h.c.BeginRename("term-1"))
	h.c.SetRenameDraft("logs")
	require.True(t, h.c.BeginRename("term-2"))

	tab, _ = h.c.reg.Get("term-1")
	assert.Equal(t, "logs", tab.Title)
	id, draft = h.c.Renaming()
	assert.Equal(t, TabID("term-2"), id)
	assert.Equal(t, "Terminal 2", draft)

	editing := 0
	for _, tab := range h.c.Tabs() {
		if tab.Editing {
			editing++
		}
	}
	assert.Equal(t, 1, editing)

	h.c.CommitRename()
	tab, _ = h.c.reg.Get("term-2")
	assert.Equal(t, "Terminal 2", tab.Title)
}

func TestRename_ClosingEditedTabEndsEdit(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	second, _ := h.c.NewTerminal()

	require.True(t, h.c.BeginRename(second))
	require.True(t, h.c.CloseTab(second))
	id, _ := h.c.Renaming()
	assert.Empty(t, id)
}

func TestConnection_ReconnectCycle(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	id := TabID("term-1")

	assert.Equal(t, StateConnecting, h.state(id))
	h.waitState(t, id, StateConnected)
	assert.Equal(t, 1, h.dialer.dialCount())

	stream := h.dialer.last()
	require.NoError(t, stream.Close())
	h.waitState(t, id, StateDisconnected)

	assert.Contains(t, h.pres.terms[id].output.String(), "Connection closed. Reconnecting...")
	assert.Equal(t,
		[]ConnectionState{StateConnecting, StateConnected, StateDisconnected},
		h.pres.status[id])

	h.sched.Advance(DefaultReconnectDelay - time.Millisecond)
	assert.Equal(t, StateDisconnected, h.state(id))

	h.sched.Advance(time.Millisecond)
	assert.Equal(t, StateConnecting, h.state(id))
	h.waitState(t, id, StateConnected)
	assert.Equal(t, 2, h.dialer.dialCount())

	// The old stream's epoch is stale; only the new one carries data
	h.dialer.last().push("$ ")
	h.sched.WaitUntil(t, func() bool {
		return strings.HasSuffix(h.pres.terms[id].output.String(), "$ ")
	})
}

func TestConnection_NoReconnectAfterClose(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	h.waitState(t, "term-1", StateConnected)
	second := h.newConnectedTerminal(t)

	stream := h.dialer.last()
	require.NoError(t, stream.Close())
	h.waitState(t, second, StateDisconnected)

	require.True(t, h.c.CloseTab(second))
	dials := h.dialer.dialCount()
	h.sched.Advance(10 * DefaultReconnectDelay)
	h.sched.Drain()

	assert.Equal(t, dials, h.dialer.dialCount())
	assert.False(t, h.c.reg.Has(second))
}

func TestConnection_MembershipCheckWithoutTimerStop(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	h.waitState(t, "term-1", StateConnected)
	second := h.newConnectedTerminal(t)
	conn := h.c.sessions.terminals[second].conn

	require.NoError(t, h.dialer.last().Close())
	h.waitState(t, second, StateDisconnected)

	// Remove from the registry behind the connection's back: the delayed attempt must still bail
	h.c.reg.Remove(second)
	dials := h.dialer.dialCount()
	h.sched.Advance(DefaultReconnectDelay)

	assert.Equal(t, dials, h.dialer.dialCount())
	assert.Equal(t, StateDisconnected, conn.State())
}

func TestConnection_DialFailureIsTerminal(t *testing.T) {
	h := newHarness(t)
	h.dialer.setFail(errors.New("connection refused"))
	require.NoError(t, h.c.Init(nil, true))
	id := TabID("term-1")

	h.waitState(t, id, StateErrored)
	assert.Contains(t, h.pres.terms[id].output.String(), "connection refused")
	h.sched.Advance(DefaultSettleDelay)
	assert.Zero(t, h.sched.Pending(), "no reconnect is scheduled")

	h.dialer.setFail(nil)
	h.sched.Advance(time.Minute)
	h.sched.Drain()
	assert.Equal(t, StateErrored, h.state(id))
	assert.Equal(t, 1, h.dialer.dialCount())
}

func TestConnection_InputDroppedWhileDisconnected(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	id := TabID("term-1")

	assert.False(t, h.c.Input([]byte("early")), "dropped while connecting")
	h.waitState(t, id, StateConnected)
	first := h.dialer.last()

	assert.True(t, h.c.Input([]byte("ls\r")))
	require.NoError(t, first.Close())
	h.waitState(t, id, StateDisconnected)
	assert.False(t, h.c.Input([]byte("lost")))

	h.sched.Advance(DefaultReconnectDelay)
	h.waitState(t, id, StateConnected)
	assert.True(t, h.c.Input([]byte("pwd\r")))

	assert.Equal(t, []string{"ls\r"}, first.writes())
	assert.Equal(t, []string{"pwd\r"}, h.dialer.last().writes())
}

func TestConnection_OutputInOrderAndIgnoredAfterDispose(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	h.waitState(t, "term-1", StateConnected)
	second := h.newConnectedTerminal(t)
	stream := h.dialer.last()

	for _, chunk := range []string{"a", "b", "\x1b[1mc\x1b[0m"} {
		stream.push(chunk)
	}
	surface := h.pres.terms[second]
	h.sched.WaitUntil(t, func() bool { return surface.output.String() == "ab\x1b[1mc\x1b[0m" })

	term := h.c.sessions.terminals[second]
	epoch := term.conn.epoch
	require.True(t, h.c.CloseTab(second))

	term.OnReceive([]byte("late"))
	term.conn.handleData(epoch, []byte("stale"))
	h.sched.Drain()
	assert.Equal(t, "ab\x1b[1mc\x1b[0m", surface.output.String())
	assert.True(t, surface.disposed)
}

func TestConnection_FitsOnConnect(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	h.waitState(t, "term-1", StateConnected)

	assert.Equal(t, [2]int{120, 40}, h.dialer.last().lastResize())
	assert.Equal(t, 120, h.pres.terms["term-1"].cols)
}

func TestSwitchTo_UnknownIsNoop(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init([]TabConfig{{ID: "editor"}}, true))

	assert.False(t, h.c.SwitchTo("nope"))
	active, _ := h.c.Active()
	assert.Equal(t, TabID("term-1"), active.ID)
}

func TestSwitchTo_FitAndFocusAfterSettle(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init([]TabConfig{{ID: "editor"}}, true))
	h.waitState(t, "term-1", StateConnected)
	h.sched.Advance(DefaultSettleDelay)
	surface := h.pres.terms["term-1"]

	require.True(t, h.c.SwitchTo("view-editor"))
	assert.False(t, surface.visible)
	assert.True(t, h.pres.views["view-editor"].visible)
	assert.False(t, h.c.TerminalFocused())
	cols, rows := surface.Size()
	assert.Zero(t, cols+rows)

	h.pres.cols, h.pres.rows = 90, 20
	focused := surface.focused
	require.True(t, h.c.SwitchTo("term-1"))
	assert.Equal(t, focused, surface.focused, "focus waits for layout")

	h.sched.Advance(DefaultSettleDelay)
	assert.Equal(t, 90, surface.cols)
	assert.Equal(t, focused+1, surface.focused)
	assert.True(t, h.c.TerminalFocused())
	assert.Equal(t, [2]int{90, 20}, h.dialer.last().lastResize())
	assert.False(t, h.pres.views["view-editor"].visible)
}

func TestSwitchTo_NoFocusWhileRenaming(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init([]TabConfig{{ID: "editor"}}, true))
	h.sched.Advance(DefaultSettleDelay)
	surface := h.pres.terms["term-1"]
	h.c.SwitchTo("view-editor")
	h.c.Blur()

	require.True(t, h.c.BeginRename("view-editor"))
	focused := surface.focused
	h.c.SwitchTo("term-1")
	h.sched.Advance(DefaultSettleDelay)
	assert.Equal(t, focused, surface.focused)
	assert.False(t, h.c.TerminalFocused())
}

func TestSwitchTo_StaleSettleIgnored(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init([]TabConfig{{ID: "editor"}}, true))
	surface := h.pres.terms["term-1"]
	focused := surface.focused

	// Switch away before the settle delay fires
	h.c.SwitchTo("view-editor")
	h.sched.Advance(DefaultSettleDelay)
	assert.Equal(t, focused, surface.focused)
}

func TestCycle_Wraps(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	_, _ = h.c.NewTerminal()
	_, _ = h.c.NewTerminal()
	require.True(t, h.c.SwitchTo("term-2"))

	assert.Equal(t, ActionNextTab, h.c.HandleKey("alt+]"))
	active, _ := h.c.Active()
	assert.Equal(t, TabID("term-3"), active.ID)

	assert.Equal(t, ActionNextTab, h.c.HandleKey("ctrl+pgdown"))
	active, _ = h.c.Active()
	assert.Equal(t, TabID("term-1"), active.ID)

	h.c.Cycle(-1)
	active, _ = h.c.Active()
	assert.Equal(t, TabID("term-3"), active.ID)
}

func TestCycle_IncludesViews(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init([]TabConfig{{ID: "editor"}}, true))

	h.c.Cycle(1)
	active, _ := h.c.Active()
	assert.Equal(t, TabID("view-editor"), active.ID)
}

func TestHandleKey_SuppressedInTerminal(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init(nil, true))
	h.waitState(t, "term-1", StateConnected)
	require.True(t, h.c.TerminalFocused())

	for _, key := range []string{"left", "right", "h", "l", "ctrl+k", "ctrl+x"} {
		assert.Equal(t, ActionNone, h.c.HandleKey(key), key)
	}
	assert.Equal(t, ActionToggleFocus, h.c.HandleKey("ctrl+o"))
	assert.False(t, h.c.TerminalFocused())

	assert.Equal(t, ActionStepBack, h.c.HandleKey("left"))
	assert.Equal(t, ActionStepForward, h.c.HandleKey("l"))
	assert.Equal(t, ActionSubmitCheck, h.c.HandleKey("ctrl+k"))

	assert.Equal(t, ActionNewTerminal, h.c.HandleKey("ctrl+t"))
	assert.Equal(t, 2, h.c.reg.Len())
	assert.Equal(t, ActionCloseTerminal, h.c.HandleKey("ctrl+w"))
	assert.Equal(t, 1, h.c.reg.Len())

	assert.Equal(t, ActionRename, h.c.HandleKey("f2"))
	id, _ := h.c.Renaming()
	assert.Equal(t, TabID("term-1"), id)
}

func TestRunCommand(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init([]TabConfig{{ID: "editor"}}, true))

	assert.ErrorIs(t, h.c.RunCommand("kubectl get pods"), ErrNotConnected)
	h.waitState(t, "term-1", StateConnected)
	h.c.Blur()

	require.NoError(t, h.c.RunCommand("kubectl get pods"))
	assert.Equal(t, []string{"kubectl get pods\n"}, h.dialer.last().writes())
	assert.True(t, h.c.TerminalFocused())

	h.c.SwitchTo("view-editor")
	assert.ErrorIs(t, h.c.RunCommand("ls"), ErrUnknownTab)
}

func TestForegroundInvariant_RandomOperations(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.c.Init([]TabConfig{{ID: "editor"}, {ID: "docs"}}, true))
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 500; i++ {
		tabs := h.c.Tabs()
		pick := tabs[rng.Intn(len(tabs))].ID
		switch rng.Intn(7) {
		case 0:
			_, _ = h.c.NewTerminal()
		case 1:
			h.c.CloseTab(pick)
		case 2:
			h.c.SwitchTo(pick)
		case 3:
			h.c.Cycle(rng.Intn(3) - 1)
		case 4:
			h.c.SwitchTo("missing")
		case 5:
			h.sched.Advance(time.Duration(rng.Intn(3000)) * time.Millisecond)
		case 6:
			if stream := h.dialer.last(); stream != nil {
				_ = stream.Close()
			}
		}
		h.sched.Drain()

		require.Equal(t, 1, h.foregroundCount(), "step %d", i)
		require.Equal(t, 1, h.visibleCount(), "step %d", i)
		require.NotEmpty(t, h.c.reg.ListKind(KindTerminal), "step %d", i)
	}
}
