package api

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/p-blackswan/todo-suggest/internal/categorize"
	"github.com/p-blackswan/todo-suggest/internal/metrics"
	"github.com/p-blackswan/todo-suggest/internal/requestid"
	"github.com/p-blackswan/todo-suggest/internal/suggest"
	"github.com/p-blackswan/todo-suggest/internal/todo"
)

// fallbackProject is offered in place of a categorization on failure.
const fallbackProject = suggest.ProjectOther

// Handlers implements the HTTP endpoints.
type Handlers struct {
	store       *todo.Store
	categorizer *categorize.Categorizer
	suggester   suggest.Provider
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewHandlers creates the endpoint handlers.
func NewHandlers(store *todo.Store, categorizer *categorize.Categorizer, suggester suggest.Provider, m *metrics.Metrics, logger zerolog.Logger) *Handlers {
	return &Handlers{
		store:       store,
		categorizer: categorizer,
		suggester:   suggester,
		metrics:     m,
		logger:      logger.With().Str("component", "api_handlers").Logger(),
	}
}

// --- Categorization ---

// Categorize handles POST /api/tasks/categorize.
func (h *Handlers) Categorize(c *fiber.Ctx) error {
	status, body := h.categorize(c)
	h.metrics.RecordCategorize(strconv.Itoa(status))
	return c.Status(status).JSON(body)
}

func (h *Handlers) categorize(c *fiber.Ctx) (int, any) {
	var req suggest.CategorizationRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		h.logger.Warn().Err(err).Str("request_id", requestid.FromFiber(c)).Msg("categorize: malformed body")
		return fiber.StatusInternalServerError, failure()
	}

	out, err := h.categorizer.Categorize(c.UserContext(), req)
	switch {
	case err == nil:
		return fiber.StatusOK, out.Response()
	case errors.Is(err, categorize.ErrTitleRequired):
		return fiber.StatusBadRequest, suggest.FailureResponse{Error: "Task title is required"}
	case errors.Is(err, categorize.ErrUnavailable):
		return fiber.StatusServiceUnavailable, failure()
	default:
		h.logger.Error().Err(err).
			Str("request_id", requestid.FromFiber(c)).
			Str("title", req.TaskTitle).
			Msg("task categorization error")
		return fiber.StatusInternalServerError, failure()
	}
}

func failure() suggest.FailureResponse {
	return suggest.FailureResponse{Error: "Failed to categorize task", Fallback: fallbackProject}
}

// SuggestRequest is the body for POST /api/tasks/suggest.
type SuggestRequest struct {
	Title string `json:"title"`
}

// Suggest handles POST /api/tasks/suggest. Provider failures are reported in
// the Result body with a 200.
func (h *Handlers) Suggest(c *fiber.Ctx) error {
	var req SuggestRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return badBody(c, err)
	}
	if strings.TrimSpace(req.Title) == "" {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_request", "Bad Request", "title is required")
	}

	res := h.suggester.GetSuggestion(c.UserContext(), req.Title, h.store.SuggestProjects())
	return c.JSON(res)
}

// --- Projects ---

// ListProjects handles GET /api/projects.
func (h *Handlers) ListProjects(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"projects": h.store.Projects(),
		"maxTasks": h.store.MaxTasks(),
		"user":     SessionFrom(c),
	})
}

// GetProject handles GET /api/projects/:id.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	p, err := h.store.Project(c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(p)
}

// ToggleProject handles POST /api/projects/:id/toggle.
func (h *Handlers) ToggleProject(c *fiber.Ctx) error {
	p, err := h.store.ToggleOpen(c.Params("id"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(p)
}

// --- Tasks ---

// AddTask handles POST /api/projects/:id/tasks.
func (h *Handlers) AddTask(c *fiber.Ctx) error {
	var in todo.NewTaskInput
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return badBody(c, err)
	}
	t, err := h.store.AddTask(c.Params("id"), in)
	if err != nil {
		return storeError(c, err)
	}
	h.logger.Info().
		Str("project_id", c.Params("id")).
		Str("task_id", t.ID).
		Str("request_id", requestid.FromFiber(c)).
		Msg("task added")
	return c.Status(fiber.StatusCreated).JSON(t)
}

// UpdateTask handles PATCH /api/projects/:id/tasks/:taskID.
func (h *Handlers) UpdateTask(c *fiber.Ctx) error {
	var in todo.UpdateTaskInput
	if err := json.Unmarshal(c.Body(), &in); err != nil {
		return badBody(c, err)
	}
	t, err := h.store.UpdateTask(c.Params("id"), c.Params("taskID"), in)
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(t)
}

// ToggleTask handles POST /api/projects/:id/tasks/:taskID/toggle.
func (h *Handlers) ToggleTask(c *fiber.Ctx) error {
	t, err := h.store.ToggleTask(c.Params("id"), c.Params("taskID"))
	if err != nil {
		return storeError(c, err)
	}
	return c.JSON(t)
}

// DeleteTask handles DELETE /api/projects/:id/tasks/:taskID.
func (h *Handlers) DeleteTask(c *fiber.Ctx) error {
	if err := h.store.DeleteTask(c.Params("id"), c.Params("taskID")); err != nil {
		return storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// --- Session ---

// CurrentSession handles GET /api/session.
func (h *Handlers) CurrentSession(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"user": SessionFrom(c)})
}

func badBody(c *fiber.Ctx, err error) error {
	return problemResponse(c, fiber.StatusBadRequest,
		"invalid_request", "Bad Request", "invalid JSON body: "+err.Error())
}

func storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, todo.ErrProjectNotFound), errors.Is(err, todo.ErrTaskNotFound):
		return problemResponse(c, fiber.StatusNotFound, "not_found", "Not Found", err.Error())
	case errors.Is(err, todo.ErrProjectFull):
		return problemResponse(c, fiber.StatusConflict, "project_full", "Conflict", err.Error())
	case errors.Is(err, todo.ErrEmptyTitle), errors.Is(err, todo.ErrInvalidPriority):
		return problemResponse(c, fiber.StatusBadRequest, "invalid_request", "Bad Request", err.Error())
	}
	return err
}
