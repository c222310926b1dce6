package models

// Scenario represents the scenario metadata
// @Description Scenario metadata read from scenario.yaml
type Scenario struct {
	// Display name of the scenario
	Name string `yaml:"name" json:"name" example:"Kubernetes Basics"`
	// Short description shown above the steps
	Description string `yaml:"description" json:"description"`
	// Free-form difficulty label
	Difficulty string `yaml:"difficulty" json:"difficulty" example:"beginner"`
	// Human readable time estimate
	EstimatedTime string `yaml:"estimatedTime" json:"estimatedTime" example:"20m"`
	// Number of steps discovered in the scenario directory
	TotalSteps int `yaml:"-" json:"totalSteps"`
}

// Step represents a single step in the scenario
// @Description A numbered step; Content is empty in list responses
type Step struct {
	Number   int    `json:"number" example:"1"`
	Title    string `json:"title" example:"Create A Pod"`
	Content  string `json:"content,omitempty"`
	HTML     string `json:"html,omitempty"`
	HasCheck bool   `json:"hasCheck"`
}

// CheckResult represents the result of a check execution
// @Description Outcome of a step check script
type CheckResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// TabConfig represents an optional embedded view tab (editor, dashboard, ...)
type TabConfig struct {
	ID      string `yaml:"id" json:"id"`
	Name    string `yaml:"name" json:"name"`
	Icon    string `yaml:"icon" json:"icon"`
	URL     string `yaml:"url" json:"url"`
	Enabled bool   `yaml:"-" json:"enabled"`
}

// TabsResponse is the API response for /api/tabs
type TabsResponse struct {
	Tabs            []TabConfig `json:"tabs"`
	TerminalEnabled bool        `json:"terminalEnabled"`
}

// HealthResponse is the API response for /api/health
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Steps  int    `json:"steps"`
}

// ErrorResponse is the body of every non-2xx API response
type ErrorResponse struct {
	Error string `json:"error"`
}
