package console

import (
	"fmt"
	"strings"
)

// Registry is the ordered set of tabs. It owns insertion order, the foreground
// pointer and rename-in-progress state; it knows nothing about connections or surfaces.
type Registry struct {
	tabs   []*Tab
	active TabID

	editing TabID
	draft   string

	terminalSeq int
	issued      map[TabID]struct{}
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		issued: make(map[TabID]struct{}),
	}
}

// Create appends a tab and returns its id. Terminal ids come from a counter that
// never goes backwards; view ids derive from the configured id and must be unique.
func (r *Registry) Create(kind TabKind, cfg TabConfig) (TabID, error) {
	tab := &Tab{Kind: kind, URL: cfg.URL, Icon: cfg.Icon}

	switch kind {
	case KindTerminal:
		r.terminalSeq++
		tab.ID = TabID(fmt.Sprintf("term-%d", r.terminalSeq))
		tab.Title = fmt.Sprintf("Terminal %d", r.terminalSeq)
		if title := strings.TrimSpace(cfg.Title); title != "" {
			tab.Title = title
		}
	case KindView:
		if cfg.ID == "" {
			return "", ErrInvalidTab
		}
		tab.ID = TabID("view-" + cfg.ID)
		if _, taken := r.issued[tab.ID]; taken {
			return "", fmt.Errorf("%w: %s", ErrDuplicateTab, tab.ID)
		}
		tab.Title = cfg.Title
		if tab.Title == "" {
			tab.Title = cfg.ID
		}
	default:
		return "", fmt.Errorf("unknown tab kind %d", kind)
	}

	r.issued[tab.ID] = struct{}{}
	r.tabs = append(r.tabs, tab)
	return tab.ID, nil
}

// CanRemove reports whether Remove would succeed. Views are never closed and
// the last terminal is kept.
func (r *Registry) CanRemove(id TabID) bool {
	i := r.index(id)
	if i < 0 || r.tabs[i].Kind != KindTerminal {
		return false
	}
	return r.count(KindTerminal) > 1
}

// Remove deletes a tab, returning false if the removal is refused. Removing the
// foreground tab leaves no tab active until the caller switches to a successor.
func (r *Registry) Remove(id TabID) bool {
	if !r.CanRemove(id) {
		return false
	}

	i := r.index(id)
	r.tabs = append(r.tabs[:i], r.tabs[i+1:]...)
	if r.active == id {
		r.active = ""
	}
	if r.editing == id {
		r.editing = ""
		r.draft = ""
	}
	return true
}

// activate makes id the only foreground tab. Only the Switcher calls this.
func (r *Registry) activate(id TabID) {
	if r.index(id) < 0 {
		return
	}
	r.active = id
}

// Get returns a copy of the tab with the given id
func (r *Registry) Get(id TabID) (Tab, bool) {
	if i := r.index(id); i >= 0 {
		return *r.tabs[i], true
	}
	return Tab{}, false
}

// Has reports whether id is currently registered
func (r *Registry) Has(id TabID) bool {
	return r.index(id) >= 0
}

// List returns copies of all tabs in insertion order
func (r *Registry) List() []Tab {
	out := make([]Tab, len(r.tabs))
	for i, tab := range r.tabs {
		out[i] = *tab
	}
	return out
}

// ListKind returns copies of the tabs of one kind in insertion order
func (r *Registry) ListKind(kind TabKind) []Tab {
	var out []Tab
	for _, tab := range r.tabs {
		if tab.Kind == kind {
			out = append(out, *tab)
		}
	}
	return out
}

// Len returns the number of tabs
func (r *Registry) Len() int {
	return len(r.tabs)
}

// Active returns the foreground tab id, or "" when the registry is empty
func (r *Registry) Active() TabID {
	return r.active
}

// IsActive reports whether id is the foreground tab
func (r *Registry) IsActive(id TabID) bool {
	return id != "" && r.active == id
}

// IndexOf returns the position of id in insertion order, or -1
func (r *Registry) IndexOf(id TabID) int {
	return r.index(id)
}

// BeginRename starts editing a tab's title, seeding the draft with the current
// title. A rename already in progress on another tab is committed first.
func (r *Registry) BeginRename(id TabID) bool {
	i := r.index(id)
	if i < 0 {
		return false
	}
	if r.editing == id {
		return true
	}
	if r.editing != "" {
		r.CommitRename()
	}
	r.editing = id
	r.draft = r.tabs[i].Title
	return true
}

// Editing returns the tab being renamed, or ""
func (r *Registry) Editing() TabID {
	return r.editing
}

// Draft returns the in-progress title
func (r *Registry) Draft() string {
	return r.draft
}

// SetDraft replaces the in-progress title
func (r *Registry) SetDraft(value string) {
	if r.editing != "" {
		r.draft = value
	}
}

// CommitRename applies the trimmed draft if it is non-empty and ends editing.
// It returns the tab's resulting title and whether it changed.
func (r *Registry) CommitRename() (string, bool) {
	if r.editing == "" {
		return "", false
	}
	id, value := r.editing, strings.TrimSpace(r.draft)
	r.editing, r.draft = "", ""

	i := r.index(id)
	if i < 0 {
		return "", false
	}
	if value == "" || value == r.tabs[i].Title {
		return r.tabs[i].Title, false
	}
	r.tabs[i].Title = value
	return value, true
}

// CancelRename ends editing without touching the title
func (r *Registry) CancelRename() {
	r.editing, r.draft = "", ""
}

func (r *Registry) index(id TabID) int {
	for i, tab := range r.tabs {
		if tab.ID == id {
			return i
		}
	}
	return -1
}

func (r *Registry) count(kind TabKind) int {
	n := 0
	for _, tab := range r.tabs {
		if tab.Kind == kind {
			n++
		}
	}
	return n
}
