package model

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Session is the durable record for one tutoring dialogue. The concept is
// frozen into ConceptData at session start, so later catalog edits never
// affect in-flight sessions.
type Session struct {
	ID             string         `gorm:"type:varchar(36);primaryKey" json:"id"`
	UserID         string         `gorm:"type:varchar(255);not null;index" json:"user_id"`
	StartedAt      time.Time      `json:"started_at"`
	LastActivityAt time.Time      `gorm:"index" json:"last_activity_at"`
	ConceptData    datatypes.JSON `gorm:"not null" json:"concept_data"`
	NextQIdx       int            `gorm:"default:0" json:"next_q_idx"`
	HintLevel      int            `gorm:"default:0" json:"hint_level"`

	// Relationships
	User     User     `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Turns    []Turn   `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
	Progress Progress `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Session) TableName() string {
	return "sessions"
}

// BoundConcept decodes the frozen concept payload captured at session start.
func (s *Session) BoundConcept() (*Concept, error) {
	var c Concept
	if err := json.Unmarshal(s.ConceptData, &c); err != nil {
		return nil, fmt.Errorf("session %s has malformed concept payload: %w", s.ID, err)
	}
	return &c, nil
}

// EncodeConcept freezes a concept into the session's JSON payload.
func (s *Session) EncodeConcept(c *Concept) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode concept %q: %w", c.Title, err)
	}
	s.ConceptData = datatypes.JSON(data)
	return nil
}

// IsComplete reports whether the cursor has moved past the last question.
func (s *Session) IsComplete(totalQuestions int) bool {
	return s.NextQIdx >= totalQuestions
}

// SessionView is the single logical session surface reconstructed from the
// durable store on every read: cursor state plus the full dialogue and a
// freshly derived progress snapshot.
type SessionView struct {
	SessionID  string
	UserID     string
	Concept    *Concept
	Dialogue   []Turn
	NextQIdx   int
	HintLevel  int
	StartedAt  time.Time
	LastTurnAt time.Time
	Progress   ProgressSnapshot
}
