package console

// Action is what a key press resolves to
type Action int

const (
	ActionNone Action = iota
	ActionNewTerminal
	ActionCloseTerminal
	ActionNextTab
	ActionPrevTab
	ActionRename
	ActionOpenView
	ActionToggleFocus
	ActionQuit
	ActionStepBack
	ActionStepForward
	ActionSubmitCheck
	ActionRunSnippet
)

var actionNames = map[Action]string{
	ActionNone:          "none",
	ActionNewTerminal:   "new-terminal",
	ActionCloseTerminal: "close-terminal",
	ActionNextTab:       "cycle-next",
	ActionPrevTab:       "cycle-previous",
	ActionRename:        "rename",
	ActionOpenView:      "open-view",
	ActionToggleFocus:   "toggle-focus",
	ActionQuit:          "quit",
	ActionStepBack:      "step-back",
	ActionStepForward:   "step-forward",
	ActionSubmitCheck:   "submit-check",
	ActionRunSnippet:    "run-snippet",
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return "unknown"
}

// Keymap binds key names (as bubbletea renders them, e.g. "ctrl+t") to actions
type Keymap struct {
	NewTerminal   []string `yaml:"new-terminal"`
	CloseTerminal []string `yaml:"close-terminal"`
	CycleNext     []string `yaml:"cycle-next"`
	CyclePrevious []string `yaml:"cycle-previous"`
	Rename        []string `yaml:"rename"`
	OpenView      []string `yaml:"open-view"`
	ToggleFocus   []string `yaml:"toggle-focus"`
	Quit          []string `yaml:"quit"`
	StepBack      []string `yaml:"step-back"`
	StepForward   []string `yaml:"step-forward"`
	SubmitCheck   []string `yaml:"submit-check"`
	RunSnippet    []string `yaml:"run-snippet"`
}

// DefaultKeymap returns the stock bindings
func DefaultKeymap() Keymap {
	return Keymap{
		NewTerminal:   []string{"ctrl+t"},
		CloseTerminal: []string{"ctrl+w"},
		CycleNext:     []string{"alt+]", "ctrl+pgdown"},
		CyclePrevious: []string{"alt+[", "ctrl+pgup"},
		Rename:        []string{"f2"},
		OpenView:      []string{"ctrl+b"},
		ToggleFocus:   []string{"ctrl+o"},
		Quit:          []string{"ctrl+q"},
		StepBack:      []string{"left", "h"},
		StepForward:   []string{"right", "l"},
		SubmitCheck:   []string{"ctrl+k"},
		RunSnippet:    []string{"ctrl+x"},
	}
}

// Merge returns k with every binding that o sets replaced
func (k Keymap) Merge(o Keymap) Keymap {
	pick := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	pick(&k.NewTerminal, o.NewTerminal)
	pick(&k.CloseTerminal, o.CloseTerminal)
	pick(&k.CycleNext, o.CycleNext)
	pick(&k.CyclePrevious, o.CyclePrevious)
	pick(&k.Rename, o.Rename)
	pick(&k.OpenView, o.OpenView)
	pick(&k.ToggleFocus, o.ToggleFocus)
	pick(&k.Quit, o.Quit)
	pick(&k.StepBack, o.StepBack)
	pick(&k.StepForward, o.StepForward)
	pick(&k.SubmitCheck, o.SubmitCheck)
	pick(&k.RunSnippet, o.RunSnippet)
	return k
}

type binding struct {
	action Action
	keys   []string
	// document-level keys never fire while a terminal has focus
	document bool
}

// bindings lists actions in precedence order
func (k Keymap) bindings() []binding {
	return []binding{
		{ActionNewTerminal, k.NewTerminal, false},
		{ActionCloseTerminal, k.CloseTerminal, false},
		{ActionNextTab, k.CycleNext, false},
		{ActionPrevTab, k.CyclePrevious, false},
		{ActionQuit, k.Quit, false},
		{ActionToggleFocus, k.ToggleFocus, false},
		{ActionRename, k.Rename, false},
		{ActionOpenView, k.OpenView, false},
		{ActionStepBack, k.StepBack, true},
		{ActionStepForward, k.StepForward, true},
		{ActionSubmitCheck, k.SubmitCheck, true},
		{ActionRunSnippet, k.RunSnippet, true},
	}
}

// Resolve maps a key to an action. When a terminal has focus, step navigation,
// check and snippet keys resolve to ActionNone so the keystroke reaches the shell.
func (k Keymap) Resolve(key string, terminalFocused bool) Action {
	for _, b := range k.bindings() {
		for _, candidate := range b.keys {
			if candidate != key {
				continue
			}
			if b.document && terminalFocused {
				return ActionNone
			}
			return b.action
		}
	}
	return ActionNone
}

// Keys returns the bindings of one action
func (k Keymap) Keys(action Action) []string {
	for _, b := range k.bindings() {
		if b.action == action {
			return b.keys
		}
	}
	return nil
}
