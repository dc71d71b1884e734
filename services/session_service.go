package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/socraticbse/backend/database"
	"github.com/socraticbse/backend/model"
	"github.com/socraticbse/backend/services/groq"
	"github.com/socraticbse/backend/services/progress"
	"github.com/socraticbse/backend/utils/cache"
)

const (
	// completedQuestionType tags terminal turn/skip responses.
	completedQuestionType = "completed"

	// generatedQuestionTTL bounds how long generated question lists are
	// served from the cache for a concept.
	generatedQuestionTTL = 24 * time.Hour

	// activeCountTTL bounds the staleness of the cached health gauge.
	activeCountTTL = 10 * time.Second
)

// SessionService is the session state machine. It ties the catalog, the
// dual-store synchronizer, the hint strategy, and the optional generator
// together and exposes the turn-level operations.
type SessionService struct {
	store     *database.SessionStore
	catalog   *Catalog
	generator Generator
	hints     *HintStrategy
	cache     *cache.RedisCache
}

// NewSessionService wires the session state machine. generator and
// redisCache may be nil; every dependent behavior degrades locally.
func NewSessionService(store *database.SessionStore, catalog *Catalog, generator Generator, redisCache *cache.RedisCache) *SessionService {
	return &SessionService{
		store:     store,
		catalog:   catalog,
		generator: generator,
		hints:     NewHintStrategy(generator),
		cache:     redisCache,
	}
}

// StartResult is the start_session response payload.
type StartResult struct {
	SessionID    string `json:"session_id"`
	QuestionType string `json:"question_type"`
	Question     string `json:"question"`
	HintLevel    int    `json:"hint_level"`
}

// QuestionInfo carries an upcoming question inside a turn response.
type QuestionInfo struct {
	Question string `json:"question"`
	Type     string `json:"type"`
}

// TurnResult is the submit_turn response payload.
type TurnResult struct {
	SessionID    string                 `json:"session_id"`
	QuestionType string                 `json:"question_type"`
	Question     string                 `json:"question"`
	HintLevel    int                    `json:"hint_level"`
	IsCorrect    bool                   `json:"is_correct"`
	Feedback     string                 `json:"feedback"`
	Progress     model.ProgressSnapshot `json:"progress"`
	NextQuestion *QuestionInfo          `json:"next_question,omitempty"`
}

// RetryResult is the retry response payload.
type RetryResult struct {
	SessionID    string                 `json:"session_id"`
	QuestionType string                 `json:"question_type"`
	Question     string                 `json:"question"`
	HintLevel    int                    `json:"hint_level"`
	Progress     model.ProgressSnapshot `json:"progress"`
}

// SkipResult is the skip response payload.
type SkipResult struct {
	SessionID    string `json:"session_id"`
	QuestionType string `json:"question_type"`
	Question     string `json:"question"`
	HintLevel    int    `json:"hint_level"`
}

// HintResult is the get_hint response payload.
type HintResult struct {
	Hint string `json:"hint"`
}

// ReflectionResult is the get_reflection response payload.
type ReflectionResult struct {
	SessionID             string   `json:"session_id"`
	SummaryText           string   `json:"summary_text"`
	SuggestedNextConcepts []string `json:"suggested_next_concepts"`
	Reflection            string   `json:"reflection"`
	FocusAreas            []string `json:"focus_areas"`
}

// Start creates a session bound to a frozen copy of the matched concept,
// records the first question as an AI turn, and sets the cursor to 1.
// Creation is all-or-nothing.
func (s *SessionService) Start(ctx context.Context, userID string, grade int, subject, title string) (*StartResult, error) {
	concept, err := s.catalog.Find(grade, subject, title)
	if err != nil {
		return nil, err
	}
	if len(concept.Questions) == 0 {
		return nil, ErrEmptyConcept
	}

	bound := *concept
	if generated := s.generatedQuestions(ctx, concept); len(generated) > 0 {
		bound.Questions = generated
	}

	sessionID := uuid.New().String()
	first := bound.Questions[0]

	if err := s.store.CreateSession(ctx, sessionID, userID, &bound, first.Text); err != nil {
		return nil, err
	}

	return &StartResult{
		SessionID:    sessionID,
		QuestionType: first.Type,
		Question:     first.Text,
		HintLevel:    0,
	}, nil
}

// SubmitTurn records the learner's answer, evaluates it, advances the
// cursor, and emits the next question or the completion message. Once the
// session is fully answered the terminal response is returned without any
// further mutation.
func (s *SessionService) SubmitTurn(ctx context.Context, sessionID, answerText string) (*TurnResult, error) {
	view, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if view.Progress.IsComplete {
		return &TurnResult{
			SessionID:    sessionID,
			QuestionType: completedQuestionType,
			Question:     progress.CompletionMessage,
			HintLevel:    view.HintLevel,
			Progress:     view.Progress,
		}, nil
	}

	currentIdx := view.NextQIdx - 1
	if currentIdx < 0 {
		currentIdx = 0
	}
	current, _ := view.Concept.QuestionAt(currentIdx)

	isCorrect, feedback := s.evaluate(ctx, current.Text, answerText, view.Concept.Title)

	total := len(view.Concept.Questions)
	newCursor := view.NextQIdx
	aiText := progress.CompletionMessage
	questionType := completedQuestionType
	var next *QuestionInfo

	if view.NextQIdx < total {
		nq := view.Concept.Questions[view.NextQIdx]
		aiText = nq.Text
		questionType = nq.Type
		next = &QuestionInfo{Question: nq.Text, Type: nq.Type}
		newCursor = view.NextQIdx + 1
	}

	if err := s.store.RecordAnswer(ctx, sessionID, answerText, newCursor, aiText); err != nil {
		return nil, err
	}

	updated, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &TurnResult{
		SessionID:    sessionID,
		QuestionType: questionType,
		Question:     aiText,
		HintLevel:    0,
		IsCorrect:    isCorrect,
		Feedback:     feedback,
		Progress:     updated.Progress,
		NextQuestion: next,
	}, nil
}

// Hint returns the next hint for the current question and increments the
// session's hint level. Generator config and transient failures propagate
// to the caller on this path only.
func (s *SessionService) Hint(ctx context.Context, sessionID string) (*HintResult, error) {
	view, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	hint, err := s.hints.NextHint(ctx, view)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpdateHintLevel(ctx, sessionID, view.HintLevel+1); err != nil {
		return nil, err
	}

	return &HintResult{Hint: hint}, nil
}

// Retry re-emits the current question as a fresh AI turn, optionally
// rephrased, and resets the hint level. The cursor does not move.
func (s *SessionService) Retry(ctx context.Context, sessionID string) (*RetryResult, error) {
	view, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	idx := view.NextQIdx - 1
	current, ok := view.Concept.QuestionAt(idx)
	if !ok {
		return nil, ErrNoCurrentQuestion
	}

	text := s.rephrase(ctx, current.Text, view.Concept.Title)

	if err := s.store.AppendQuestion(ctx, sessionID, text, nil); err != nil {
		return nil, err
	}

	updated, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	return &RetryResult{
		SessionID:    sessionID,
		QuestionType: current.Type,
		Question:     text,
		HintLevel:    0,
		Progress:     updated.Progress,
	}, nil
}

// Skip advances to the next question without recording a user turn and
// without touching questions_answered. At the end of the sequence it
// returns the terminal response without mutation.
func (s *SessionService) Skip(ctx context.Context, sessionID string) (*SkipResult, error) {
	view, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	total := len(view.Concept.Questions)
	if view.NextQIdx >= total {
		return &SkipResult{
			SessionID:    sessionID,
			QuestionType: completedQuestionType,
			Question:     progress.CompletionMessage,
			HintLevel:    view.HintLevel,
		}, nil
	}

	nq := view.Concept.Questions[view.NextQIdx]
	text := s.transition(ctx, nq.Text, view.Concept.Title)
	newCursor := view.NextQIdx + 1

	if err := s.store.AppendQuestion(ctx, sessionID, text, &newCursor); err != nil {
		return nil, err
	}

	return &SkipResult{
		SessionID:    sessionID,
		QuestionType: nq.Type,
		Question:     text,
		HintLevel:    0,
	}, nil
}

// Reflect summarizes the session from its non-blank user answers and the
// concept's prerequisites, optionally enriched by the generator.
func (s *SessionService) Reflect(ctx context.Context, sessionID string) (*ReflectionResult, error) {
	view, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	answers := progress.UserAnswers(view.Dialogue)
	keyIdeas := "none"
	if len(answers) > 0 {
		keyIdeas = strings.Join(answers, ", ")
	}
	summary := fmt.Sprintf("During '%s', you answered %d questions. Key ideas: %s.",
		view.Concept.Title, len(answers), keyIdeas)

	suggested := view.Concept.Prerequisites
	if suggested == nil {
		suggested = []string{}
	}

	result := &ReflectionResult{
		SessionID:             sessionID,
		SummaryText:           summary,
		SuggestedNextConcepts: suggested,
		Reflection:            summary,
		FocusAreas:            []string{},
	}

	if s.generator != nil && s.generator.Enabled() {
		prompt := groq.BuildReflectionPrompt(view.Concept.Title, answers, view.Concept.Prerequisites)
		text, genErr := s.generator.Generate(ctx, prompt)
		if genErr != nil {
			log.Printf("Warning: reflection enrichment failed, using computed summary: %v", genErr)
			return result, nil
		}
		payload, perr := groq.ParseReflection(text)
		if perr != nil {
			log.Printf("Warning: reflection payload malformed, using computed summary: %v", perr)
			return result, nil
		}
		result.Reflection = payload.Reflection
		if len(payload.FocusAreas) > 0 {
			result.FocusAreas = payload.FocusAreas
		}
		if len(payload.SuggestedNextConcepts) > 0 {
			result.SuggestedNextConcepts = payload.SuggestedNextConcepts
		}
	}

	return result, nil
}

// Progress returns the current derived progress snapshot. Pure read.
func (s *SessionService) Progress(ctx context.Context, sessionID string) (*model.ProgressSnapshot, error) {
	view, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	snapshot := view.Progress
	return &snapshot, nil
}

// ActiveSessionCount reports how many sessions exist, serving a short-TTL
// cached value when Redis is available.
func (s *SessionService) ActiveSessionCount(ctx context.Context) (int64, error) {
	const key = "sessions:active_count"

	if s.cache != nil {
		var cached int64
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil {
			return cached, nil
		}
	}

	count, err := s.store.CountSessions(ctx)
	if err != nil {
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, count, activeCountTTL); err != nil {
			log.Printf("Warning: failed to cache active session count: %v", err)
		}
	}

	return count, nil
}

// evaluate judges the learner's answer via the generator when available,
// degrading to length-based feedback with an optimistic correct default.
func (s *SessionService) evaluate(ctx context.Context, questionText, answerText, conceptTitle string) (bool, string) {
	if s.generator != nil && s.generator.Enabled() {
		prompt := groq.BuildEvaluationPrompt(questionText, answerText, conceptTitle)
		text, err := s.generator.Generate(ctx, prompt)
		if err == nil {
			payload, perr := groq.ParseEvaluation(text)
			if perr == nil {
				return payload.IsCorrect, payload.Feedback
			}
			log.Printf("Warning: evaluation payload malformed, using fallback feedback: %v", perr)
		} else {
			log.Printf("Warning: answer evaluation failed, using fallback feedback: %v", err)
		}
	}
	return fallbackEvaluation(answerText)
}

// fallbackEvaluation is the deterministic local judgment: non-blank
// answers count as correct, feedback scales with answer length.
func fallbackEvaluation(answerText string) (bool, string) {
	trimmed := strings.TrimSpace(answerText)
	if trimmed == "" {
		return false, "Take your best guess in a sentence or two. There is no wrong way to start."
	}
	if len(trimmed) < 20 {
		return true, "Good start. Can you add a little more detail to your reasoning?"
	}
	return true, "Nice detailed thinking. Let's keep going."
}

// rephrase re-asks a question for a retry, via the generator when
// available, else by prefix substitution.
func (s *SessionService) rephrase(ctx context.Context, questionText, conceptTitle string) string {
	if s.generator != nil && s.generator.Enabled() {
		text, err := s.generator.Generate(ctx, groq.BuildRephrasePrompt(questionText, conceptTitle))
		if err == nil {
			if payload, perr := groq.ParseQuestion(text); perr == nil {
				return payload.Question
			}
		} else {
			log.Printf("Warning: retry rephrasing failed, using template: %v", err)
		}
	}
	return rephraseLocally(questionText)
}

// rephraseLocally rewrites the question opening so a retry does not read
// as a verbatim repeat.
func rephraseLocally(questionText string) string {
	switch {
	case strings.HasPrefix(questionText, "What"):
		return "Can you tell me" + strings.TrimPrefix(questionText, "What")
	case strings.HasPrefix(questionText, "How"):
		return "In what way" + strings.TrimPrefix(questionText, "How")
	case strings.HasPrefix(questionText, "Why"):
		return "What reason explains" + strings.TrimPrefix(questionText, "Why")
	default:
		return "Let's look at this again: " + questionText
	}
}

// transition frames the next question after a skip.
func (s *SessionService) transition(ctx context.Context, nextQuestionText, conceptTitle string) string {
	if s.generator != nil && s.generator.Enabled() {
		text, err := s.generator.Generate(ctx, groq.BuildTransitionPrompt(nextQuestionText, conceptTitle))
		if err == nil {
			if payload, perr := groq.ParseQuestion(text); perr == nil {
				return payload.Question
			}
		} else {
			log.Printf("Warning: skip transition generation failed, using static phrase: %v", err)
		}
	}
	return "Let's move on to the next question. " + nextQuestionText
}

// generatedQuestions builds a generated question list for the concept when
// the generator is enabled, consulting the Redis cache first. Any failure
// returns nil so the authored list stays in effect.
func (s *SessionService) generatedQuestions(ctx context.Context, concept *model.Concept) []model.Question {
	if s.generator == nil || !s.generator.Enabled() {
		return nil
	}

	key := fmt.Sprintf("concepts:questions:%d:%s:%s",
		concept.Grade,
		strings.ToLower(concept.Subject),
		strings.ToLower(concept.Title))

	if s.cache != nil {
		var cached []model.Question
		if err := s.cache.GetJSON(ctx, key, &cached); err == nil && len(cached) > 0 {
			return cached
		}
	}

	text, err := s.generator.Generate(ctx, groq.BuildQuestionPrompt(concept.Title, concept.Grade, concept.Subject))
	if err != nil {
		log.Printf("Warning: question generation failed, using authored questions: %v", err)
		return nil
	}
	payload, perr := groq.ParseQuestion(text)
	if perr != nil {
		log.Printf("Warning: generated question malformed, using authored questions: %v", perr)
		return nil
	}

	questions := []model.Question{{
		Text: payload.Question,
		Type: payload.Type,
	}}
	if strings.TrimSpace(payload.Hint) != "" {
		questions[0].Hints = []string{payload.Hint}
	}
	if strings.TrimSpace(payload.FollowUp) != "" {
		questions = append(questions, model.Question{
			Text: payload.FollowUp,
			Type: model.DefaultQuestionType,
		})
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, key, questions, generatedQuestionTTL); err != nil {
			log.Printf("Warning: failed to cache generated questions: %v", err)
		}
	}

	return questions
}
