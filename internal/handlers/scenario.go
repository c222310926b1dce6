package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/vanpelt/trainer/internal/logger"
	"github.com/vanpelt/trainer/internal/models"
	"github.com/vanpelt/trainer/internal/scenario"
	"github.com/vanpelt/trainer/internal/services"
)

// ScenarioHandler serves scenario metadata, steps and step checks
type ScenarioHandler struct {
	store *scenario.Store
	shell *services.ShellService
}

// NewScenarioHandler creates a new scenario handler
func NewScenarioHandler(store *scenario.Store, shell *services.ShellService) *ScenarioHandler {
	return &ScenarioHandler{
		store: store,
		shell: shell,
	}
}

// RegisterRoutes registers all scenario routes on the api group
func (h *ScenarioHandler) RegisterRoutes(api fiber.Router) {
	api.Get("/scenario", h.GetScenario)
	api.Get("/steps", h.GetSteps)
	api.Get("/steps/:number", h.GetStep)
	api.Post("/steps/:number/check", h.CheckStep)
	api.Get("/health", h.Health)
}

// GetScenario returns the scenario metadata
// @Summary Get scenario
// @Description Returns scenario.yaml contents plus the discovered step count
// @Tags scenario
// @Produce json
// @Success 200 {object} models.Scenario
// @Failure 404 {object} models.ErrorResponse
// @Router /api/scenario [get]
func (h *ScenarioHandler) GetScenario(c *fiber.Ctx) error {
	sc, err := h.store.Scenario()
	if err != nil {
		if errors.Is(err, scenario.ErrScenarioNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "scenario.yaml not found")
		}
		logger.Warnf("⚠️ %v", err)
		return fiber.NewError(fiber.StatusInternalServerError, "failed to parse scenario.yaml")
	}
	return c.JSON(sc)
}

// GetSteps lists all steps without their content
// @Summary List steps
// @Tags scenario
// @Produce json
// @Success 200 {array} models.Step
// @Router /api/steps [get]
func (h *ScenarioHandler) GetSteps(c *fiber.Ctx) error {
	infos := h.store.Steps()
	steps := make([]models.Step, 0, len(infos))
	for i, info := range infos {
		steps = append(steps, models.Step{
			Number:   i + 1,
			Title:    info.Title,
			HasCheck: info.HasCheck(),
		})
	}
	return c.JSON(steps)
}

// GetStep returns one step with its markdown content
// @Summary Get step
// @Tags scenario
// @Produce json
// @Param number path int true "1-based step number"
// @Param format query string false "set to html to include sanitized HTML"
// @Success 200 {object} models.Step
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/steps/{number} [get]
func (h *ScenarioHandler) GetStep(c *fiber.Ctx) error {
	number, info, err := h.lookupStep(c)
	if err != nil {
		return err
	}

	step := models.Step{
		Number:   number,
		Title:    info.Title,
		Content:  info.Content,
		HasCheck: info.HasCheck(),
	}

	if c.Query("format") == "html" {
		html, err := h.store.RenderHTML(info)
		if err != nil {
			logger.Errorf("❌ Failed to render step %d: %v", number, err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to render step")
		}
		step.HTML = html
	}

	return c.JSON(step)
}

// CheckStep runs the step's check script and reports the outcome
// @Summary Check step
// @Tags scenario
// @Produce json
// @Param number path int true "1-based step number"
// @Success 200 {object} models.CheckResult
// @Failure 404 {object} models.ErrorResponse
// @Router /api/steps/{number}/check [post]
func (h *ScenarioHandler) CheckStep(c *fiber.Ctx) error {
	number, info, err := h.lookupStep(c)
	if err != nil {
		return err
	}
	if !info.HasCheck() {
		return fiber.NewError(fiber.StatusNotFound, "no check script for this step")
	}

	logger.Infof("✅ Running check for step %d (%s)", number, info.Title)
	result := h.shell.RunCheck(c.UserContext(), info.Check)
	return c.JSON(result)
}

// Health reports liveness and the loaded step count
// @Summary Health check
// @Tags system
// @Produce json
// @Success 200 {object} models.HealthResponse
// @Router /api/health [get]
func (h *ScenarioHandler) Health(c *fiber.Ctx) error {
	return c.JSON(models.HealthResponse{
		Status: "ok",
		Steps:  h.store.Count(),
	})
}

func (h *ScenarioHandler) lookupStep(c *fiber.Ctx) (int, scenario.StepInfo, error) {
	number, err := strconv.Atoi(c.Params("number"))
	if err != nil || number < 1 {
		return 0, scenario.StepInfo{}, fiber.NewError(fiber.StatusBadRequest, "invalid step number")
	}
	info, ok := h.store.Step(number)
	if !ok {
		return 0, scenario.StepInfo{}, fiber.NewError(fiber.StatusNotFound, "step not found")
	}
	return number, info, nil
}
