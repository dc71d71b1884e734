package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/socraticbse/backend/model"
	"github.com/socraticbse/backend/services/groq"
)

// HintStrategy selects the next hint for a session's current question.
// Predefined hints are served first, in index order and exactly once each;
// once exhausted, the external generator is tried; its parse failures fall
// back to a keyword/pattern heuristic. Config and transient generator
// failures are returned to the caller so the hint endpoint can surface
// them.
type HintStrategy struct {
	generator Generator
}

// NewHintStrategy creates a hint strategy. generator may be nil, in which
// case only predefined hints and the heuristic apply.
func NewHintStrategy(generator Generator) *HintStrategy {
	return &HintStrategy{generator: generator}
}

// NextHint returns the hint for the session's current question. It does
// not mutate the session; the caller increments hint_level on success.
func (h *HintStrategy) NextHint(ctx context.Context, view *model.SessionView) (string, error) {
	idx := view.NextQIdx - 1
	if idx < 0 {
		idx = 0
	}
	question, ok := view.Concept.QuestionAt(idx)
	if !ok {
		return "", ErrNoActiveQuestion
	}

	if view.HintLevel < len(question.Hints) {
		return question.Hints[view.HintLevel], nil
	}

	lastAnswer := lastUserAnswer(view.Dialogue)

	if h.generator != nil {
		prompt := groq.BuildHintPrompt(question.Text, lastAnswer, view.Concept.Keywords)
		text, err := h.generator.Generate(ctx, prompt)
		if err == nil {
			payload, perr := groq.ParseHint(text)
			if perr == nil {
				return payload.Hint, nil
			}
			log.Printf("Warning: hint generation returned malformed payload, using heuristic: %v", perr)
		} else if groq.IsConfigError(err) || groq.IsTransientError(err) {
			return "", err
		} else {
			log.Printf("Warning: hint generation failed, using heuristic: %v", err)
		}
	}

	return heuristicHint(question, lastAnswer, view.Concept.Keywords), nil
}

// heuristicHint is the deterministic local fallback once predefined hints
// are exhausted and the generator is unavailable.
func heuristicHint(question model.Question, lastAnswer string, keywords []string) string {
	last := strings.TrimSpace(lastAnswer)
	if last == "" {
		return "Try writing a short sentence explaining what you think, even if you're unsure — start with 'Plants do...' or 'They use...'."
	}

	lower := strings.ToLower(last)
	for _, kw := range keywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return fmt.Sprintf("You mentioned %s; can you explain how %s connects to the process asked in the question?", kw, kw)
		}
	}

	questionLower := strings.ToLower(question.Text)
	switch {
	case strings.Contains(questionLower, "why"):
		return "Think about cause and effect: what causes this to happen and why?"
	case strings.Contains(questionLower, "what"), strings.Contains(questionLower, "define"):
		return "Try to define the key term in your own words — what does it mean, step by step?"
	default:
		return "Try breaking the problem into smaller parts and describe one part at a time."
	}
}

// lastUserAnswer returns the most recent non-blank user turn text, or "".
func lastUserAnswer(turns []model.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Speaker == model.SpeakerUser && strings.TrimSpace(turns[i].Text) != "" {
			return turns[i].Text
		}
	}
	return ""
}
