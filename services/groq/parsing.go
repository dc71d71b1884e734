package groq

import (
	"strings"

	"github.com/socraticbse/backend/utils"
)

// QuestionPayload is the narrowly-typed shape expected from question
// generation, retry rephrasing, and skip transitions.
type QuestionPayload struct {
	Question string `json:"question"`
	Type     string `json:"type"`
	Hint     string `json:"hint"`
	FollowUp string `json:"follow_up"`
}

// EvaluationPayload is the shape expected from answer evaluation.
type EvaluationPayload struct {
	IsCorrect bool   `json:"is_correct"`
	Feedback  string `json:"feedback"`
}

// HintPayload is the shape expected from hint generation.
type HintPayload struct {
	Hint string `json:"hint"`
}

// ReflectionPayload is the shape expected from reflection enrichment.
type ReflectionPayload struct {
	Reflection            string   `json:"reflection"`
	FocusAreas            []string `json:"focus_areas"`
	SuggestedNextConcepts []string `json:"suggested_next_concepts"`
}

// rawEvaluation keeps pointer fields so a missing required field is
// distinguishable from a false/empty value.
type rawEvaluation struct {
	IsCorrect *bool   `json:"is_correct"`
	Feedback  *string `json:"feedback"`
}

// ParseQuestion parses a generated question payload. A missing "question"
// field is a ParseError, distinct from transport failures.
func ParseQuestion(responseText string) (*QuestionPayload, error) {
	var payload QuestionPayload
	if err := utils.ExtractJSONTo(responseText, &payload); err != nil {
		return nil, &ParseError{Err: err}
	}
	if strings.TrimSpace(payload.Question) == "" {
		return nil, &ParseError{Field: "question"}
	}
	if payload.Type == "" {
		payload.Type = "elicitation"
	}
	return &payload, nil
}

// ParseEvaluation parses an answer-evaluation payload. Both is_correct and
// feedback are required.
func ParseEvaluation(responseText string) (*EvaluationPayload, error) {
	var raw rawEvaluation
	if err := utils.ExtractJSONTo(responseText, &raw); err != nil {
		return nil, &ParseError{Err: err}
	}
	if raw.IsCorrect == nil {
		return nil, &ParseError{Field: "is_correct"}
	}
	if raw.Feedback == nil {
		return nil, &ParseError{Field: "feedback"}
	}
	return &EvaluationPayload{IsCorrect: *raw.IsCorrect, Feedback: *raw.Feedback}, nil
}

// ParseHint parses a hint payload; the "hint" field is required.
func ParseHint(responseText string) (*HintPayload, error) {
	var payload HintPayload
	if err := utils.ExtractJSONTo(responseText, &payload); err != nil {
		return nil, &ParseError{Err: err}
	}
	if strings.TrimSpace(payload.Hint) == "" {
		return nil, &ParseError{Field: "hint"}
	}
	return &payload, nil
}

// ParseReflection parses a reflection payload; the "reflection" field is
// required, the lists are optional.
func ParseReflection(responseText string) (*ReflectionPayload, error) {
	var payload ReflectionPayload
	if err := utils.ExtractJSONTo(responseText, &payload); err != nil {
		return nil, &ParseError{Err: err}
	}
	if strings.TrimSpace(payload.Reflection) == "" {
		return nil, &ParseError{Field: "reflection"}
	}
	return &payload, nil
}
