package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray is a custom type for storing string lists as JSON columns.
type StringArray []string

func (s *StringArray) Scan(value interface{}) error {
	if value == nil {
		*s = StringArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal StringArray value")
	}

	if len(bytes) == 0 {
		*s = StringArray{}
		return nil
	}

	return json.Unmarshal(bytes, s)
}

func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s)
}

// FloatArray is a custom type for storing float lists as JSON columns.
type FloatArray []float64

func (f *FloatArray) Scan(value interface{}) error {
	if value == nil {
		*f = FloatArray{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal FloatArray value")
	}

	if len(bytes) == 0 {
		*f = FloatArray{}
		return nil
	}

	return json.Unmarshal(bytes, f)
}

func (f FloatArray) Value() (driver.Value, error) {
	if len(f) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(f)
}

// Progress is the durable progress row, one-to-one with Session. It caches
// values that are always recomputable from the turn ledger plus the cursor;
// the ledger stays authoritative.
type Progress struct {
	ID                uint        `gorm:"primaryKey" json:"id"`
	SessionID         string      `gorm:"type:varchar(36);not null;uniqueIndex" json:"session_id"`
	QuestionsAnswered int         `gorm:"default:0" json:"questions_answered"`
	TotalQuestions    int         `gorm:"default:0" json:"total_questions"`
	ConceptsCovered   StringArray `gorm:"type:jsonb" json:"concepts_covered"`
	TimesPerQuestion  FloatArray  `gorm:"type:jsonb" json:"times_per_question"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

func (Progress) TableName() string {
	return "progress"
}

// ProgressSnapshot is the derived progress view returned to callers. It is
// recomputed from the ledger on every read, never trusted from the cached
// row.
type ProgressSnapshot struct {
	QuestionsAnswered  int      `json:"questions_answered"`
	TotalQuestions     int      `json:"total_questions"`
	ConceptsCovered    []string `json:"concepts_covered"`
	TimesPerQuestion   []float64 `json:"times_per_question"`
	AvgTimePerQuestion float64  `json:"avg_time_per_question"`
	TotalTime          float64  `json:"total_time"`
	PercentComplete    float64  `json:"percent_complete"`
	IsComplete         bool     `json:"is_complete"`
}
