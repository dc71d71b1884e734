package model

import (
	"fmt"
	"strings"
)

// Question is a single authored Socratic question within a concept.
// Questions are immutable after the seed graph is loaded.
type Question struct {
	Text  string   `json:"question"`
	Type  string   `json:"type"`
	Hints []string `json:"hints,omitempty"`
}

// Concept is a curriculum topic keyed by (grade, subject, title).
// Identity comparison is case-insensitive on subject and title.
type Concept struct {
	Grade         int        `json:"class"`
	Subject       string     `json:"subject"`
	Title         string     `json:"title"`
	Keywords      []string   `json:"keywords,omitempty"`
	Prerequisites []string   `json:"prerequisites,omitempty"`
	Questions     []Question `json:"questions"`
}

// DefaultQuestionType is applied to seed questions that omit a type tag.
const DefaultQuestionType = "elicitation"

// Validate rejects malformed seed records at load time instead of
// propagating missing-field failures at call sites.
func (c *Concept) Validate() error {
	if c.Grade <= 0 {
		return fmt.Errorf("concept %q: grade must be positive, got %d", c.Title, c.Grade)
	}
	if strings.TrimSpace(c.Subject) == "" {
		return fmt.Errorf("concept %q: subject is required", c.Title)
	}
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("concept (grade %d, subject %q): title is required", c.Grade, c.Subject)
	}
	for i, q := range c.Questions {
		if strings.TrimSpace(q.Text) == "" {
			return fmt.Errorf("concept %q: question %d has empty text", c.Title, i)
		}
	}
	return nil
}

// Normalize fills defaults the seed format allows to omit.
func (c *Concept) Normalize() {
	for i := range c.Questions {
		if c.Questions[i].Type == "" {
			c.Questions[i].Type = DefaultQuestionType
		}
	}
}

// Matches reports whether the concept is identified by the given key.
func (c *Concept) Matches(grade int, subject, title string) bool {
	return c.Grade == grade &&
		strings.EqualFold(c.Subject, subject) &&
		strings.EqualFold(c.Title, title)
}

// QuestionAt returns the question at the given index, or false when the
// index is out of range.
func (c *Concept) QuestionAt(idx int) (Question, bool) {
	if idx < 0 || idx >= len(c.Questions) {
		return Question{}, false
	}
	return c.Questions[idx], true
}

// ConceptSummary is the list_concepts response item.
type ConceptSummary struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Grade         int      `json:"grade"`
	Subject       string   `json:"subject"`
	Prerequisites []string `json:"prerequisites"`
}
