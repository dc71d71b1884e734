package services

import "errors"

// Structural precondition errors. Handlers map these to client errors;
// they are never wrapped in retryable categories.
var (
	// ErrConceptNotFound means no catalog concept matched (grade, subject,
	// title).
	ErrConceptNotFound = errors.New("concept not found")

	// ErrEmptyConcept means the matched concept has no questions, so a
	// session cannot start.
	ErrEmptyConcept = errors.New("concept has no questions")

	// ErrNoCurrentQuestion means the session cursor points at nothing that
	// can be retried.
	ErrNoCurrentQuestion = errors.New("no current question to retry")

	// ErrNoActiveQuestion means a hint was requested but the session has no
	// question awaiting an answer.
	ErrNoActiveQuestion = errors.New("no active question for hint")
)
