package session

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/socraticbse/backend/database"
	"github.com/socraticbse/backend/services"
	"github.com/socraticbse/backend/services/groq"
	"github.com/socraticbse/backend/utils/response"
	"github.com/socraticbse/backend/utils/validation"
)

// SessionHandler handles tutoring-session requests
type SessionHandler struct {
	validator      *validation.Validator
	sessionService *services.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{
		validator:      validation.NewValidator(),
		sessionService: sessionService,
	}
}

// StartSessionRequest represents the request body for starting a session
type StartSessionRequest struct {
	UserID       string `json:"user_id" validate:"required,min=1,max=255"`
	Grade        int    `json:"class_grade" validate:"required,min=1,max=12"`
	Subject      string `json:"subject" validate:"required,min=1,max=255"`
	ConceptTitle string `json:"concept_title" validate:"required,min=1,max=255"`
}

// SubmitTurnRequest represents the request body for submitting an answer.
// Blank answers are allowed; they are recorded without counting as answered.
type SubmitTurnRequest struct {
	UserAnswer string `json:"user_answer"`
}

// StartSession handles POST /api/v1/sessions
func (h *SessionHandler) StartSession(c *fiber.Ctx) error {
	var req StartSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, validation.FormatValidationErrors(err))
	}

	userID := validation.SanitizeString(req.UserID)
	subject := validation.SanitizeString(req.Subject)
	title := validation.SanitizeString(req.ConceptTitle)

	result, err := h.sessionService.Start(c.Context(), userID, req.Grade, subject, title)
	if err != nil {
		return h.mapError(c, err)
	}

	return response.Created(c, result)
}

// SubmitTurn handles POST /api/v1/sessions/:id/turns
func (h *SessionHandler) SubmitTurn(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	var req SubmitTurnRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	result, err := h.sessionService.SubmitTurn(c.Context(), sessionID, req.UserAnswer)
	if err != nil {
		return h.mapError(c, err)
	}

	return response.Success(c, result)
}

// GetHint handles GET /api/v1/sessions/:id/hint. Generator config and
// transient failures surface as 503 on this endpoint only.
func (h *SessionHandler) GetHint(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	result, err := h.sessionService.Hint(c.Context(), sessionID)
	if err != nil {
		return h.mapError(c, err)
	}

	return response.Success(c, result)
}

// Retry handles POST /api/v1/sessions/:id/retry
func (h *SessionHandler) Retry(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	result, err := h.sessionService.Retry(c.Context(), sessionID)
	if err != nil {
		return h.mapError(c, err)
	}

	return response.Success(c, result)
}

// Skip handles POST /api/v1/sessions/:id/skip
func (h *SessionHandler) Skip(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	result, err := h.sessionService.Skip(c.Context(), sessionID)
	if err != nil {
		return h.mapError(c, err)
	}

	return response.Success(c, result)
}

// GetReflection handles GET /api/v1/sessions/:id/reflection
func (h *SessionHandler) GetReflection(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	result, err := h.sessionService.Reflect(c.Context(), sessionID)
	if err != nil {
		return h.mapError(c, err)
	}

	return response.Success(c, result)
}

// GetProgress handles GET /api/v1/sessions/:id/progress
func (h *SessionHandler) GetProgress(c *fiber.Ctx) error {
	sessionID := c.Params("id")

	result, err := h.sessionService.Progress(c.Context(), sessionID)
	if err != nil {
		return h.mapError(c, err)
	}

	return response.Success(c, result)
}

// mapError translates service errors into API responses: unknown entities
// are 404, structural preconditions 422, generator outages 503, everything
// else 500.
func (h *SessionHandler) mapError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, database.ErrSessionNotFound):
		return response.NotFound(c, "Session not found")
	case errors.Is(err, services.ErrConceptNotFound):
		return response.NotFound(c, "Concept not found")
	case errors.Is(err, services.ErrEmptyConcept):
		return response.UnprocessableEntity(c, "Concept has no questions", "EMPTY_CONCEPT")
	case errors.Is(err, services.ErrNoCurrentQuestion):
		return response.UnprocessableEntity(c, "No current question to retry", "NO_CURRENT_QUESTION")
	case errors.Is(err, services.ErrNoActiveQuestion):
		return response.UnprocessableEntity(c, "No active question for a hint", "NO_ACTIVE_QUESTION")
	case groq.IsConfigError(err) || groq.IsTransientError(err):
		return response.ServiceUnavailable(c, "Hint generation is temporarily unavailable")
	default:
		return response.InternalServerError(c, "Failed to process session request")
	}
}
