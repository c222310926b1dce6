package scenario

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/models"
	"gopkg.in/yaml.v2"
)

// ScenarioFileName holds the scenario metadata inside the scenario directory
const ScenarioFileName = "scenario.yaml"

var (
	// ErrScenarioNotFound is returned when scenario.yaml does not exist
	ErrScenarioNotFound = errors.New("scenario.yaml not found")

	contentRe = regexp.MustCompile(`^(\d+)-(.+)-content\.md$`)
	checkRe   = regexp.MustCompile(`^(\d+)-(.+)-check\.sh$`)
)

// StepInfo holds everything known about one step file pair
type StepInfo struct {
	Name    string
	Title   string
	Order   int
	Content string
	Check   string
}

// HasCheck reports whether the step ships a check script
func (s StepInfo) HasCheck() bool {
	return s.Check != ""
}

// Store keeps the parsed steps of a scenario directory in memory
type Store struct {
	dir      string
	mu       sync.RWMutex
	steps    []StepInfo
	renderer *Renderer

	listenersMu sync.Mutex
	listeners   []func()
}

// NewStore creates a store for the given scenario directory. Call Load to populate it.
func NewStore(dir string) *Store {
	return &Store{
		dir:      dir,
		renderer: NewRenderer(),
	}
}

// Dir returns the scenario directory
func (s *Store) Dir() string {
	return s.dir
}

// Load (re)reads all step files from the scenario directory
func (s *Store) Load() error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return fmt.Errorf("failed to read scenario directory: %w", err)
	}

	stepMap := make(map[string]*StepInfo)
	get := func(order int, name, slug string) *StepInfo {
		if step, ok := stepMap[name]; ok {
			return step
		}
		step := &StepInfo{Name: name, Title: FormatTitle(slug), Order: order}
		stepMap[name] = step
		return step
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()

		if matches := contentRe.FindStringSubmatch(name); matches != nil {
			data, err := os.ReadFile(filepath.Join(s.dir, name))
			if err != nil {
				logger.Warnf("⚠️ Skipping unreadable step file %s: %v", name, err)
				continue
			}
			order, _ := strconv.Atoi(matches[1])
			get(order, matches[1]+"-"+matches[2], matches[2]).Content = string(data)
		} else if matches := checkRe.FindStringSubmatch(name); matches != nil {
			data, err := os.ReadFile(filepath.Join(s.dir, name))
			if err != nil {
				logger.Warnf("⚠️ Skipping unreadable check file %s: %v", name, err)
				continue
			}
			order, _ := strconv.Atoi(matches[1])
			get(order, matches[1]+"-"+matches[2], matches[2]).Check = string(data)
		}
	}

	// A check script without content is not a step
	steps := make([]StepInfo, 0, len(stepMap))
	for _, step := range stepMap {
		if step.Content != "" {
			steps = append(steps, *step)
		}
	}
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].Order != steps[j].Order {
			return steps[i].Order < steps[j].Order
		}
		return steps[i].Name < steps[j].Name
	})

	s.mu.Lock()
	s.steps = steps
	s.mu.Unlock()

	s.renderer.Reset()
	s.notify()
	return nil
}

// Count returns the number of loaded steps
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.steps)
}

// Steps returns a copy of all steps in order
func (s *Store) Steps() []StepInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]StepInfo, len(s.steps))
	copy(out, s.steps)
	return out
}

// Step returns the step with the given 1-based number
func (s *Store) Step(number int) (StepInfo, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if number < 1 || number > len(s.steps) {
		return StepInfo{}, false
	}
	return s.steps[number-1], true
}

// RenderHTML returns the sanitized HTML of a step's markdown content
func (s *Store) RenderHTML(step StepInfo) (string, error) {
	return s.renderer.Render(step.Content)
}

// Scenario reads scenario.yaml and fills in the step count
func (s *Store) Scenario() (models.Scenario, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, ScenarioFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.Scenario{}, ErrScenarioNotFound
		}
		return models.Scenario{}, fmt.Errorf("failed to read %s: %w", ScenarioFileName, err)
	}

	var sc models.Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return models.Scenario{}, fmt.Errorf("failed to parse %s: %w", ScenarioFileName, err)
	}
	sc.TotalSteps = s.Count()
	return sc, nil
}

// OnReload registers a callback invoked after every successful Load
func (s *Store) OnReload(fn func()) {
	s.listenersMu.Lock()
	defer s.listenersMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Store) notify() {
	s.listenersMu.Lock()
	listeners := append([]func(){}, s.listeners...)
	s.listenersMu.Unlock()
	for _, fn := range listeners {
		fn()
	}
}

// FormatTitle turns a file slug like "create-a-pod" into "Create A Pod"
func FormatTitle(name string) string {
	words := strings.Split(name, "-")
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + word[1:]
		}
	}
	return strings.Join(words, " ")
}
