package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/socraticbse/backend/database"
	"github.com/socraticbse/backend/services"
	"github.com/socraticbse/backend/utils/response"
)

// HealthHandler reports service liveness and the active session count.
type HealthHandler struct {
	store          *database.GORMStore
	sessionService *services.SessionService
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *database.GORMStore, sessionService *services.SessionService) *HealthHandler {
	return &HealthHandler{
		store:          store,
		sessionService: sessionService,
	}
}

// CheckHealth handles GET /api/v1/health
func (h *HealthHandler) CheckHealth(c *fiber.Ctx) error {
	if err := h.store.HealthCheck(); err != nil {
		return response.Error(c, fiber.StatusServiceUnavailable, "Database unreachable", "DB_UNAVAILABLE")
	}

	count, err := h.sessionService.ActiveSessionCount(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to count sessions")
	}

	return response.Success(c, fiber.Map{
		"status":               "ok",
		"active_session_count": count,
	})
}
