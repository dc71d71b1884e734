package groq

import (
	"testing"
)

func TestParseQuestion(t *testing.T) {
	t.Run("plain payload", func(t *testing.T) {
		payload, err := ParseQuestion(`{"question": "Why is the sky blue?", "type": "elicitation"}`)
		if err != nil {
			t.Fatalf("ParseQuestion() error = %v", err)
		}
		if payload.Question != "Why is the sky blue?" || payload.Type != "elicitation" {
			t.Errorf("payload = %+v", payload)
		}
	})

	t.Run("markdown fenced payload", func(t *testing.T) {
		raw := "```json\n{\"question\": \"What is light?\", \"hint\": \"Think waves.\", \"follow_up\": \"And particles?\"}\n```"
		payload, err := ParseQuestion(raw)
		if err != nil {
			t.Fatalf("ParseQuestion() error = %v", err)
		}
		if payload.Question != "What is light?" {
			t.Errorf("Question = %q", payload.Question)
		}
		if payload.Hint != "Think waves." || payload.FollowUp != "And particles?" {
			t.Errorf("payload = %+v", payload)
		}
	})

	t.Run("missing type defaults to elicitation", func(t *testing.T) {
		payload, err := ParseQuestion(`{"question": "How does it work?"}`)
		if err != nil {
			t.Fatalf("ParseQuestion() error = %v", err)
		}
		if payload.Type != "elicitation" {
			t.Errorf("Type = %q, want elicitation", payload.Type)
		}
	})

	t.Run("missing question is a parse error", func(t *testing.T) {
		_, err := ParseQuestion(`{"type": "elicitation"}`)
		if !IsParseError(err) {
			t.Fatalf("error = %v, want ParseError", err)
		}
	})

	t.Run("no JSON at all", func(t *testing.T) {
		_, err := ParseQuestion("I'm sorry, I cannot help with that.")
		if !IsParseError(err) {
			t.Fatalf("error = %v, want ParseError", err)
		}
	})
}

func TestParseEvaluation(t *testing.T) {
	t.Run("explicit false is valid", func(t *testing.T) {
		payload, err := ParseEvaluation(`{"is_correct": false, "feedback": "Not quite."}`)
		if err != nil {
			t.Fatalf("ParseEvaluation() error = %v", err)
		}
		if payload.IsCorrect || payload.Feedback != "Not quite." {
			t.Errorf("payload = %+v", payload)
		}
	})

	t.Run("missing is_correct", func(t *testing.T) {
		_, err := ParseEvaluation(`{"feedback": "Good."}`)
		if !IsParseError(err) {
			t.Fatalf("error = %v, want ParseError", err)
		}
	})

	t.Run("missing feedback", func(t *testing.T) {
		_, err := ParseEvaluation(`{"is_correct": true}`)
		if !IsParseError(err) {
			t.Fatalf("error = %v, want ParseError", err)
		}
	})
}

func TestParseHint(t *testing.T) {
	payload, err := ParseHint(`Here you go: {"hint": "Think about the sun."}`)
	if err != nil {
		t.Fatalf("ParseHint() error = %v", err)
	}
	if payload.Hint != "Think about the sun." {
		t.Errorf("Hint = %q", payload.Hint)
	}

	if _, err := ParseHint(`{"hint": ""}`); !IsParseError(err) {
		t.Errorf("empty hint: error = %v, want ParseError", err)
	}
}

func TestParseReflection(t *testing.T) {
	payload, err := ParseReflection(`{"reflection": "You reasoned well.", "focus_areas": ["light reactions"], "suggested_next_concepts": ["Respiration"]}`)
	if err != nil {
		t.Fatalf("ParseReflection() error = %v", err)
	}
	if payload.Reflection != "You reasoned well." {
		t.Errorf("Reflection = %q", payload.Reflection)
	}
	if len(payload.FocusAreas) != 1 || len(payload.SuggestedNextConcepts) != 1 {
		t.Errorf("payload = %+v", payload)
	}

	if _, err := ParseReflection(`{"focus_areas": []}`); !IsParseError(err) {
		t.Errorf("missing reflection: error = %v, want ParseError", err)
	}
}
