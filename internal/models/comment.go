package models

import "time"

// Comment is append-only. UserID is kept after the author is deleted.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProjectID uint      `gorm:"not null;index" json:"projectId"`
	UserID    uint      `gorm:"not null;index" json:"userId"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatedAt time.Time `json:"createdAt"`

	User *User `json:"user,omitempty"`
}
