package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/socraticbse/backend/model"
	"github.com/socraticbse/backend/services/progress"
	"gorm.io/gorm"
)

// ErrSessionNotFound is returned for reads and mutations against an
// unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore presents one logical session surface backed by two physical
// stores. Every mutation commits to the relational store first, as a single
// transaction; the flat snapshot mirror is then refreshed best-effort.
// Mirror failures are logged and never surface to callers, and the mirror
// is never read back into the authoritative view.
type SessionStore struct {
	db       *gorm.DB
	snapshot *SnapshotStore
}

// NewSessionStore creates the synchronizer. snapshot may be nil to disable
// the mirror entirely.
func NewSessionStore(db *gorm.DB, snapshot *SnapshotStore) *SessionStore {
	return &SessionStore{db: db, snapshot: snapshot}
}

// CreateSession atomically records the session, its progress row, and the
// first AI question turn. Either everything commits or nothing does.
func (s *SessionStore) CreateSession(ctx context.Context, sessionID, userID string, concept *model.Concept, firstQuestionText string) error {
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user := model.User{ID: userID}
		if err := tx.FirstOrCreate(&user, model.User{ID: userID}).Error; err != nil {
			return fmt.Errorf("failed to upsert user: %w", err)
		}

		session := model.Session{
			ID:             sessionID,
			UserID:         userID,
			StartedAt:      now,
			LastActivityAt: now,
			NextQIdx:       1,
			HintLevel:      0,
		}
		if err := session.EncodeConcept(concept); err != nil {
			return err
		}
		if err := tx.Create(&session).Error; err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}

		prog := model.Progress{
			SessionID:        sessionID,
			TotalQuestions:   len(concept.Questions),
			ConceptsCovered:  model.StringArray{concept.Title},
			TimesPerQuestion: model.FloatArray{},
		}
		if err := tx.Create(&prog).Error; err != nil {
			return fmt.Errorf("failed to create progress: %w", err)
		}

		turn := model.Turn{
			SessionID: sessionID,
			Timestamp: now,
			Speaker:   model.SpeakerAI,
			Text:      firstQuestionText,
		}
		if err := tx.Create(&turn).Error; err != nil {
			return fmt.Errorf("failed to record first question: %w", err)
		}

		return nil
	})
	if err != nil {
		return err
	}

	s.mirror(ctx, sessionID)
	return nil
}

// GetSession reconstructs the logical session view from the durable store:
// cursor state, the ordered dialogue, and a freshly derived progress
// snapshot. times_per_question is recomputed on every read and written
// back opportunistically.
func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*model.SessionView, error) {
	view, err := s.loadView(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// Opportunistic write-back of the recomputed timing list. A failure
	// here never fails the read.
	if len(view.Progress.TimesPerQuestion) > 0 {
		err := s.db.WithContext(ctx).Model(&model.Progress{}).
			Where("session_id = ?", sessionID).
			Update("times_per_question", model.FloatArray(view.Progress.TimesPerQuestion)).Error
		if err != nil {
			log.Printf("Warning: failed to write back recomputed times for session %s: %v", sessionID, err)
		}
	}

	return view, nil
}

// loadView does the durable-store read without side effects.
func (s *SessionStore) loadView(ctx context.Context, sessionID string) (*model.SessionView, error) {
	var session model.Session
	if err := s.db.WithContext(ctx).First(&session, "id = ?", sessionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	concept, err := session.BoundConcept()
	if err != nil {
		return nil, err
	}

	var turns []model.Turn
	if err := s.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("timestamp ASC, id ASC").
		Find(&turns).Error; err != nil {
		return nil, fmt.Errorf("failed to load turns: %w", err)
	}

	lastTurnAt := session.StartedAt
	if len(turns) > 0 {
		lastTurnAt = turns[len(turns)-1].Timestamp
	}

	return &model.SessionView{
		SessionID:  session.ID,
		UserID:     session.UserID,
		Concept:    concept,
		Dialogue:   turns,
		NextQIdx:   session.NextQIdx,
		HintLevel:  session.HintLevel,
		StartedAt:  session.StartedAt,
		LastTurnAt: lastTurnAt,
		Progress:   progress.Derive(turns, concept),
	}, nil
}

// RecordAnswer applies the submit-turn transition in one transaction: the
// user's answer is appended (blank or not), the cursor advances, the hint
// counter resets, and the follow-up AI turn (next question or completion
// message) is appended. Nothing is written if any step fails.
func (s *SessionStore) RecordAnswer(ctx context.Context, sessionID, answerText string, nextCursor int, aiText string) error {
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSession(tx, sessionID); err != nil {
			return err
		}

		userTurn := model.Turn{
			SessionID: sessionID,
			Timestamp: now,
			Speaker:   model.SpeakerUser,
			Text:      answerText,
		}
		if spent, ok := answerLatency(tx, sessionID, now); ok {
			userTurn.TimeSpent = &spent
		}
		if err := tx.Create(&userTurn).Error; err != nil {
			return fmt.Errorf("failed to record answer: %w", err)
		}

		if strings.TrimSpace(answerText) != "" {
			if err := bumpAnswered(tx, sessionID, userTurn.TimeSpent); err != nil {
				return err
			}
		}

		aiTurn := model.Turn{
			SessionID: sessionID,
			Timestamp: now,
			Speaker:   model.SpeakerAI,
			Text:      aiText,
		}
		if err := tx.Create(&aiTurn).Error; err != nil {
			return fmt.Errorf("failed to record follow-up question: %w", err)
		}

		return tx.Model(&model.Session{}).Where("id = ?", sessionID).
			Updates(map[string]interface{}{
				"next_q_idx":       nextCursor,
				"hint_level":       0,
				"last_activity_at": now,
			}).Error
	})
	if err != nil {
		return err
	}

	s.mirror(ctx, sessionID)
	return nil
}

// AppendQuestion applies the retry/skip transitions: one AI turn is
// appended, the hint counter resets, and the cursor optionally advances.
func (s *SessionStore) AppendQuestion(ctx context.Context, sessionID, questionText string, advanceCursorTo *int) error {
	now := time.Now().UTC()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureSession(tx, sessionID); err != nil {
			return err
		}

		turn := model.Turn{
			SessionID: sessionID,
			Timestamp: now,
			Speaker:   model.SpeakerAI,
			Text:      questionText,
		}
		if err := tx.Create(&turn).Error; err != nil {
			return fmt.Errorf("failed to record question: %w", err)
		}

		fields := map[string]interface{}{
			"hint_level":       0,
			"last_activity_at": now,
		}
		if advanceCursorTo != nil {
			fields["next_q_idx"] = *advanceCursorTo
		}
		return tx.Model(&model.Session{}).Where("id = ?", sessionID).
			Updates(fields).Error
	})
	if err != nil {
		return err
	}

	s.mirror(ctx, sessionID)
	return nil
}

// UpdateHintLevel sets the hint counter for the current question. Used by
// the hint path only; it never resets anything else.
func (s *SessionStore) UpdateHintLevel(ctx context.Context, sessionID string, hintLevel int) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ctx).Model(&model.Session{}).
		Where("id = ?", sessionID).
		Updates(map[string]interface{}{
			"hint_level":       hintLevel,
			"last_activity_at": now,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update hint level: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrSessionNotFound
	}

	s.mirror(ctx, sessionID)
	return nil
}

// CountSessions reports how many sessions the durable store holds.
func (s *SessionStore) CountSessions(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Session{}).Count(&count).Error
	return count, err
}

// DeleteIdleBefore removes sessions whose last activity predates cutoff,
// cascading turns and progress, and drops their mirror entries. Returns the
// ids removed.
func (s *SessionStore) DeleteIdleBefore(ctx context.Context, cutoff time.Time) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&model.Session{}).
		Where("last_activity_at < ?", cutoff).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list idle sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id IN ?", ids).Delete(&model.Turn{}).Error; err != nil {
			return err
		}
		if err := tx.Where("session_id IN ?", ids).Delete(&model.Progress{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&model.Session{}).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete idle sessions: %w", err)
	}

	if s.snapshot != nil {
		s.snapshot.Remove(ids...)
	}
	return ids, nil
}

// ensureSession verifies the session row exists inside a transaction.
func ensureSession(tx *gorm.DB, sessionID string) error {
	var count int64
	if err := tx.Model(&model.Session{}).Where("id = ?", sessionID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check session: %w", err)
	}
	if count == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// bumpAnswered increments the cached answered counter and appends the
// answer latency sample inside the surrounding transaction.
func bumpAnswered(tx *gorm.DB, sessionID string, timeSpent *float64) error {
	var prog model.Progress
	if err := tx.Where("session_id = ?", sessionID).First(&prog).Error; err != nil {
		return fmt.Errorf("failed to load progress: %w", err)
	}

	prog.QuestionsAnswered++
	if timeSpent != nil {
		prog.TimesPerQuestion = append(prog.TimesPerQuestion, *timeSpent)
	}

	if err := tx.Save(&prog).Error; err != nil {
		return fmt.Errorf("failed to update progress: %w", err)
	}
	return nil
}

// answerLatency derives the seconds between the latest AI question and now.
// Gaps at or beyond the abandoned-session cutoff are not stored.
func answerLatency(tx *gorm.DB, sessionID string, now time.Time) (float64, bool) {
	var lastAI model.Turn
	err := tx.Where("session_id = ? AND speaker = ? AND text <> ?",
		sessionID, model.SpeakerAI, progress.CompletionMessage).
		Order("timestamp DESC, id DESC").
		First(&lastAI).Error
	if err != nil {
		return 0, false
	}
	diff := now.Sub(lastAI.Timestamp).Seconds()
	if diff < 0 || diff >= progress.MaxAnswerGapSeconds {
		return 0, false
	}
	return diff, true
}

// mirror refreshes the snapshot entry for one session from the durable
// store. Runs after the durable commit; any failure is logged and dropped.
func (s *SessionStore) mirror(ctx context.Context, sessionID string) {
	if s.snapshot == nil {
		return
	}

	view, err := s.loadView(ctx, sessionID)
	if err != nil {
		log.Printf("Warning: snapshot mirror skipped for session %s: %v", sessionID, err)
		return
	}

	dialogue := make([]SnapshotTurn, 0, len(view.Dialogue))
	for _, t := range view.Dialogue {
		dialogue = append(dialogue, SnapshotTurn{
			Speaker:   string(t.Speaker),
			Text:      t.Text,
			Timestamp: float64(t.Timestamp.UnixMilli()) / 1000,
		})
	}

	s.snapshot.Write(sessionID, SnapshotEntry{
		UserID:         view.UserID,
		CurrentConcept: view.Concept,
		Dialogue:       dialogue,
		NextQIdx:       view.NextQIdx,
		StartedAt:      float64(view.StartedAt.UnixMilli()) / 1000,
		LastTurnAt:     float64(view.LastTurnAt.UnixMilli()) / 1000,
		Progress:       view.Progress,
		HintLevel:      view.HintLevel,
	})
}
