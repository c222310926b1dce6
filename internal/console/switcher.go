package console

import "time"

// DefaultSettleDelay lets the presentation lay a newly shown terminal out before it is fitted
const DefaultSettleDelay = 10 * time.Millisecond

type showHider interface {
	show()
	hide()
}

// sessions holds the per-tab session objects; the registry holds the tabs themselves
type sessions struct {
	terminals map[TabID]*TerminalSession
	views     map[TabID]*ViewSession
}

func (s *sessions) lookup(id TabID) (showHider, bool) {
	if t, ok := s.terminals[id]; ok {
		return t, true
	}
	if v, ok := s.views[id]; ok {
		return v, true
	}
	return nil, false
}

// Switcher is the only component that changes which tab is foreground
type Switcher struct {
	reg      *Registry
	sessions *sessions
	sched    Scheduler
	settle   time.Duration
	focus    func(TabID)
}

// SwitchTo hides every other tab, shows id and, for terminals, fits and focuses it
// once layout has settled. Unknown ids are ignored.
func (s *Switcher) SwitchTo(id TabID) bool {
	target, ok := s.sessions.lookup(id)
	if !ok || !s.reg.Has(id) {
		return false
	}

	for _, tab := range s.reg.List() {
		if tab.ID == id {
			continue
		}
		if other, ok := s.sessions.lookup(tab.ID); ok {
			other.hide()
		}
	}
	s.reg.activate(id)
	target.show()

	if term, ok := target.(*TerminalSession); ok {
		s.sched.After(s.settle, func() {
			if s.sessions.terminals[id] != term || !s.reg.IsActive(id) {
				return
			}
			term.Fit()
			if s.reg.Editing() == "" {
				s.focus(id)
			}
		})
	}
	return true
}
