package model

import (
	"strings"
	"time"
)

// Speaker identifies who produced a dialogue turn.
type Speaker string

const (
	SpeakerAI   Speaker = "AI"
	SpeakerUser Speaker = "User"
)

// Turn is one utterance in a session's dialogue ledger. Turns are
// append-only and ordered by timestamp; they are never mutated or deleted.
type Turn struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SessionID string    `gorm:"type:varchar(36);not null;index" json:"session_id"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
	Speaker   Speaker   `gorm:"type:varchar(10);not null" json:"speaker"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	TimeSpent *float64  `json:"time_spent,omitempty"`

	// Relationships
	Session Session `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Turn) TableName() string {
	return "turns"
}

// IsBlankAnswer reports whether a user turn carries no substantive text.
// Blank answers are still recorded in the ledger but never counted as
// answered questions.
func (t *Turn) IsBlankAnswer() bool {
	return t.Speaker == SpeakerUser && strings.TrimSpace(t.Text) == ""
}
