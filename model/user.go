package model

import "time"

// User is a learner identity. Sessions reference it; no authentication is
// attached to it.
type User struct {
	ID        string    `gorm:"type:varchar(255);primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	// Relationships
	Sessions []Session `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (User) TableName() string {
	return "users"
}
