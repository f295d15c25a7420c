package models

import "time"

type Client struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name      string    `gorm:"size:191;not null" json:"name"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"-"`

	Projects []Project `json:"projects,omitempty"`
}
