package groq

import (
	"fmt"
	"strings"
)

// socraticTemplate is the subject-adaptive template for generating the
// question sequence at session start.
const socraticTemplate = `You are an intelligent Socratic tutor for CBSE students.

Concept: %s
Subject: %s
Class: %d

Rules:
1. Always ask the student a Socratic-style question that encourages reasoning.
2. Include one follow-up question if the student might need further guidance.
3. Provide hints only if requested.
4. Adapt your question style to the subject:
   - Biology: focus on processes, cause-effect, and real-life examples.
   - Physics: relate concepts to formulas, experiments, and real-world phenomena.
   - Mathematics: ask stepwise problem-solving questions; focus on logical reasoning.
   - Chemistry: emphasize reactions, structures, and mechanisms.

Generate output as JSON:
{
  "question": "<Your Socratic question here>",
  "type": "elicitation",
  "hint": "<Optional hint or leave blank>",
  "follow_up": "<Optional follow-up question or leave blank>"
}`

// BuildQuestionPrompt builds the prompt used to generate a Socratic
// question for a concept at session start.
func BuildQuestionPrompt(conceptTitle string, grade int, subject string) string {
	return fmt.Sprintf(socraticTemplate, conceptTitle, subject, grade)
}

// BuildEvaluationPrompt asks the model to judge the answer the learner just
// gave to a specific question.
func BuildEvaluationPrompt(question, answer, conceptTitle string) string {
	return fmt.Sprintf(`You are a Socratic tutor evaluating a student's answer.

Concept: %s
Question: %s
Student's answer: %s

Judge whether the answer shows correct understanding. Be encouraging: point
at what is right before what is missing.

Generate output as JSON:
{
  "is_correct": true or false,
  "feedback": "<One or two sentences of feedback>"
}`, conceptTitle, question, answer)
}

// BuildHintPrompt asks for a hint given the current question, the learner's
// latest attempt, and the concept's keyword list.
func BuildHintPrompt(question, lastAnswer string, keywords []string) string {
	kw := "none"
	if len(keywords) > 0 {
		kw = strings.Join(keywords, ", ")
	}
	last := lastAnswer
	if strings.TrimSpace(last) == "" {
		last = "(no answer yet)"
	}
	return fmt.Sprintf(`You are a Socratic tutor. The student is stuck on this question:

Question: %s
Student's latest attempt: %s
Concept keywords: %s

Give one short hint that nudges the student forward without revealing the
answer.

Generate output as JSON:
{
  "hint": "<Your hint here>"
}`, question, last, kw)
}

// BuildRephrasePrompt asks the model to re-ask the current question in a
// fresh way for a retry.
func BuildRephrasePrompt(question, conceptTitle string) string {
	return fmt.Sprintf(`You are a Socratic tutor. The student asked to retry this question:

Concept: %s
Question: %s

Rephrase the question so it approaches the same idea from a different angle.

Generate output as JSON:
{
  "question": "<The rephrased question>",
  "type": "elicitation"
}`, conceptTitle, question)
}

// BuildTransitionPrompt asks the model for a short framing of the next
// question when the student skips ahead.
func BuildTransitionPrompt(nextQuestion, conceptTitle string) string {
	return fmt.Sprintf(`You are a Socratic tutor. The student chose to skip to the next question:

Concept: %s
Next question: %s

Write a single short transition sentence followed by the question itself.

Generate output as JSON:
{
  "question": "<Transition sentence + the question>",
  "type": "elicitation"
}`, conceptTitle, nextQuestion)
}

// BuildReflectionPrompt asks for an end-of-session reflection from the
// dialogue transcript.
func BuildReflectionPrompt(conceptTitle string, userAnswers []string, prerequisites []string) string {
	answers := "none"
	if len(userAnswers) > 0 {
		answers = strings.Join(userAnswers, " | ")
	}
	prereqs := "none"
	if len(prerequisites) > 0 {
		prereqs = strings.Join(prerequisites, ", ")
	}
	return fmt.Sprintf(`You are a Socratic tutor writing a session reflection.

Concept: %s
Student's answers: %s
Related topics: %s

Summarize what the student demonstrated, name areas to focus on, and suggest
what to study next.

Generate output as JSON:
{
  "reflection": "<Two or three sentences of reflection>",
  "focus_areas": ["<area>", ...],
  "suggested_next_concepts": ["<topic>", ...]
}`, conceptTitle, answers, prereqs)
}
