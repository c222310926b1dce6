package tui

import "github.com/vanpelt/trainer/internal/models"

// Remote call results
type tabsMsg struct {
	tabs models.TabsResponse
	err  error
}

type scenarioMsg struct {
	scenario models.Scenario
	steps    []models.Step
	err      error
}

type stepMsg struct {
	number int
	step   models.Step
	err    error
}

type checkResultMsg struct {
	number int
	result models.CheckResult
	err    error
}

// Browser hand-off result
type browserOpenedMsg struct {
	url string
	err error
}

// statusExpiredMsg clears the status line unless a newer message replaced it
type statusExpiredMsg struct {
	seq int
}
