package services

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/socraticbse/backend/model"
)

// Catalog is the read-only concept lookup table loaded from the seed file
// at startup. It is shared across all sessions and never mutated after
// load, so no locking is needed.
type Catalog struct {
	concepts []model.Concept
}

// LoadCatalog reads and validates the seed concept file. Malformed records
// fail the load instead of surfacing as missing-field errors later.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	var concepts []model.Concept
	if err := json.Unmarshal(data, &concepts); err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	for i := range concepts {
		if err := concepts[i].Validate(); err != nil {
			return nil, fmt.Errorf("seed file %s: %w", path, err)
		}
		concepts[i].Normalize()
	}

	return &Catalog{concepts: concepts}, nil
}

// NewCatalog wraps an in-memory concept list. Used by tests.
func NewCatalog(concepts []model.Concept) (*Catalog, error) {
	for i := range concepts {
		if err := concepts[i].Validate(); err != nil {
			return nil, err
		}
		concepts[i].Normalize()
	}
	return &Catalog{concepts: concepts}, nil
}

// Find returns the concept identified by (grade, subject, title). Subject
// and title match case-insensitively, grade exactly.
func (c *Catalog) Find(grade int, subject, title string) (*model.Concept, error) {
	for i := range c.concepts {
		if c.concepts[i].Matches(grade, subject, title) {
			return &c.concepts[i], nil
		}
	}
	return nil, ErrConceptNotFound
}

// List returns summaries of all concepts, optionally narrowed by grade
// (0 means any) and subject (empty means any).
func (c *Catalog) List(grade int, subject string) []model.ConceptSummary {
	out := []model.ConceptSummary{}
	for i := range c.concepts {
		concept := &c.concepts[i]
		if grade != 0 && concept.Grade != grade {
			continue
		}
		if subject != "" && !strings.EqualFold(concept.Subject, subject) {
			continue
		}
		prereqs := concept.Prerequisites
		if prereqs == nil {
			prereqs = []string{}
		}
		out = append(out, model.ConceptSummary{
			ID:            conceptID(concept),
			Title:         concept.Title,
			Grade:         concept.Grade,
			Subject:       concept.Subject,
			Prerequisites: prereqs,
		})
	}
	return out
}

// Len reports how many concepts the catalog holds.
func (c *Catalog) Len() int {
	return len(c.concepts)
}

// conceptID builds a stable slug-style identifier from the concept key.
func conceptID(c *model.Concept) string {
	slug := func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), " ", "-")
	}
	return fmt.Sprintf("%d-%s-%s", c.Grade, slug(c.Subject), slug(c.Title))
}
