package scenario

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"
	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/recovery"
)

// DefaultReloadDebounce coalesces bursts of editor writes into one reload
const DefaultReloadDebounce = 300 * time.Millisecond

// Watch reloads the store whenever a relevant file in the scenario directory changes.
// It returns once the watcher is installed; watching stops when ctx is cancelled.
func (s *Store) Watch(ctx context.Context, interval time.Duration) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(s.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", s.dir, err)
	}

	if interval <= 0 {
		interval = DefaultReloadDebounce
	}
	debounced := debounce.New(interval)
	reload := func() {
		if err := s.Load(); err != nil {
			logger.Warnf("⚠️ Scenario reload failed: %v", err)
			return
		}
		logger.Infof("🔄 Scenario reloaded: %d steps", s.Count())
	}

	recovery.SafeGo("scenario-watcher", func() {
		defer watcher.Close()
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if isRelevantEvent(event) {
					logger.Debugf("🔍 Scenario change detected: %s", event.Name)
					debounced(reload)
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("⚠️ Scenario watcher error: %v", err)
			case <-ctx.Done():
				return
			}
		}
	})

	return nil
}

// isRelevantEvent filters out editor swap files and chmod noise
func isRelevantEvent(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~") || strings.HasSuffix(name, ".swp") {
		return false
	}
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
		return false
	}
	return contentRe.MatchString(name) || checkRe.MatchString(name) || name == ScenarioFileName || name == "tabs.yaml"
}
