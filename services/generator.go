package services

import (
	"context"

	"github.com/socraticbse/backend/services/groq"
)

// Generator is the external text-generation collaborator: prompt in, text
// out, or a typed failure. All generator-backed behaviors degrade to local
// fallbacks; only the hint path propagates config/transient failures.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	Enabled() bool
}

var _ Generator = (*groq.Client)(nil)
