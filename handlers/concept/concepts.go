package concept

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/socraticbse/backend/services"
	"github.com/socraticbse/backend/utils/response"
)

// ConceptHandler handles catalog lookups
type ConceptHandler struct {
	catalog *services.Catalog
}

// NewConceptHandler creates a new concept handler
func NewConceptHandler(catalog *services.Catalog) *ConceptHandler {
	return &ConceptHandler{catalog: catalog}
}

// ListConcepts handles GET /api/v1/concepts with optional grade and
// subject filters.
func (h *ConceptHandler) ListConcepts(c *fiber.Ctx) error {
	grade := 0
	if raw := c.Query("grade"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return response.BadRequest(c, "Invalid grade filter")
		}
		grade = parsed
	}
	subject := c.Query("subject")

	return response.Success(c, h.catalog.List(grade, subject))
}
