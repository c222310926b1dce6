package handlers

import (
	"errors"
	"os"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/vanpelt/trainer/internal/config"
	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/models"
)

// TabsHandler serves the tab configuration consumed by consoles
type TabsHandler struct {
	scenarioPath  string
	editorEnabled bool

	mu  sync.RWMutex
	cfg config.TabsFileConfig
}

// NewTabsHandler creates a tabs handler and loads tabs.yaml
func NewTabsHandler(cfg *config.ServerConfig) *TabsHandler {
	h := &TabsHandler{
		scenarioPath:  cfg.ScenarioPath,
		editorEnabled: cfg.EditorEnabled,
	}
	h.Reload()
	return h
}

// Reload re-reads tabs.yaml, falling back to a terminal-only layout
func (h *TabsHandler) Reload() {
	cfg, err := config.LoadTabsConfig(h.scenarioPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("⚠️ Failed to load tabs config: %v", err)
	}

	if h.editorEnabled {
		cfg.CustomTabs = withoutReservedTabs(cfg.CustomTabs)
	}

	h.mu.Lock()
	h.cfg = cfg
	h.mu.Unlock()

	logger.Infof("🗂️ Loaded tabs config: terminal.enabled=%v, customTabs=%d", cfg.Terminal.Enabled, len(cfg.CustomTabs))
}

// editorTabID is the built-in editor view; custom tabs may not reuse it
const editorTabID = "editor"

func withoutReservedTabs(tabs []models.TabConfig) []models.TabConfig {
	kept := tabs[:0:0]
	for _, tab := range tabs {
		if tab.ID == editorTabID {
			logger.Warnf("⚠️ Ignoring custom tab %q: the id is reserved for the editor", tab.ID)
			continue
		}
		kept = append(kept, tab)
	}
	return kept
}

// RegisterRoutes registers the tabs route on the api group
func (h *TabsHandler) RegisterRoutes(api fiber.Router) {
	api.Get("/tabs", h.GetTabs)
}

// GetTabs returns the enabled view tabs and whether terminals are enabled
// @Summary Get tabs
// @Description Relative tab URLs are made absolute using the request host
// @Tags tabs
// @Produce json
// @Success 200 {object} models.TabsResponse
// @Router /api/tabs [get]
func (h *TabsHandler) GetTabs(c *fiber.Ctx) error {
	host := c.Get(fiber.HeaderHost)
	scheme := "http"
	if c.Get(fiber.HeaderXForwardedProto) == "https" || c.Protocol() == "https" {
		scheme = "https"
	}
	absolute := func(url string) string {
		if host != "" && strings.HasPrefix(url, "/") {
			return scheme + "://" + host + url
		}
		return url
	}

	tabs := []models.TabConfig{}
	if h.editorEnabled {
		tabs = append(tabs, models.TabConfig{
			ID:      editorTabID,
			Name:    "Editor",
			Icon:    "code",
			URL:     absolute("/editor/"),
			Enabled: true,
		})
	}

	h.mu.RLock()
	cfg := h.cfg
	h.mu.RUnlock()

	for _, tab := range cfg.CustomTabs {
		tab.URL = absolute(tab.URL)
		tab.Enabled = true
		tabs = append(tabs, tab)
	}

	return c.JSON(models.TabsResponse{
		Tabs:            tabs,
		TerminalEnabled: cfg.Terminal.Enabled,
	})
}
