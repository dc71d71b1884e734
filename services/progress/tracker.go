// Package progress derives progress metrics from a session's turn ledger.
// Everything here is a pure computation: the ledger plus the cursor is the
// only input, so a snapshot can be rebuilt at any time.
package progress

import (
	"github.com/socraticbse/backend/model"
)

// MaxAnswerGapSeconds is the cutoff above which a question-to-answer gap is
// treated as an abandoned/resumed session rather than a real answer latency.
const MaxAnswerGapSeconds = 3600.0

// CompletionMessage is the terminal AI turn text. It is excluded from
// question timing because it asks nothing.
const CompletionMessage = "All questions completed. Fetch reflection."

// ComputeTimes scans turns in timestamp order and returns the elapsed
// seconds between each AI question and the user answer that follows it.
// Gaps of MaxAnswerGapSeconds or more are dropped.
func ComputeTimes(turns []model.Turn) []float64 {
	times := []float64{}
	var lastQuestionAt *model.Turn

	for i := range turns {
		t := &turns[i]
		switch t.Speaker {
		case model.SpeakerAI:
			if t.Text != CompletionMessage {
				lastQuestionAt = t
			}
		case model.SpeakerUser:
			if lastQuestionAt != nil {
				diff := t.Timestamp.Sub(lastQuestionAt.Timestamp).Seconds()
				if diff < MaxAnswerGapSeconds {
					times = append(times, roundTenth(diff))
				}
				lastQuestionAt = nil
			}
		}
	}

	return times
}

// CountAnswered counts user turns that carry non-blank text after trimming.
func CountAnswered(turns []model.Turn) int {
	n := 0
	for i := range turns {
		if turns[i].Speaker == model.SpeakerUser && !turns[i].IsBlankAnswer() {
			n++
		}
	}
	return n
}

// UserAnswers returns the non-blank user turn texts in ledger order.
func UserAnswers(turns []model.Turn) []string {
	answers := []string{}
	for i := range turns {
		if turns[i].Speaker == model.SpeakerUser && !turns[i].IsBlankAnswer() {
			answers = append(answers, turns[i].Text)
		}
	}
	return answers
}

// Derive builds the full progress snapshot for a session from its ledger
// and bound concept.
func Derive(turns []model.Turn, concept *model.Concept) model.ProgressSnapshot {
	answered := CountAnswered(turns)
	total := len(concept.Questions)
	times := ComputeTimes(turns)

	var sum float64
	for _, v := range times {
		sum += v
	}

	avg := 0.0
	if len(times) > 0 {
		avg = sum / float64(len(times))
	}

	percent := 0.0
	if total > 0 {
		percent = float64(answered) / float64(total) * 100
	}

	return model.ProgressSnapshot{
		QuestionsAnswered:  answered,
		TotalQuestions:     total,
		ConceptsCovered:    []string{concept.Title},
		TimesPerQuestion:   times,
		AvgTimePerQuestion: avg,
		TotalTime:          sum,
		PercentComplete:    percent,
		IsComplete:         answered >= total,
	}
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
