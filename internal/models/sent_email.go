package models

import "time"

type EmailTrigger string

const (
	TriggerManual    EmailTrigger = "manual"
	TriggerScheduled EmailTrigger = "scheduled"
)

// SentEmail is the append-only log of reminders actually delivered.
type SentEmail struct {
	ID              uint         `gorm:"primaryKey" json:"id"`
	ProjectID       uint         `gorm:"not null;index" json:"projectId"`
	ClientEmail     string       `gorm:"size:191;not null" json:"clientEmail"`
	SharedLinkToken string       `gorm:"size:191;not null" json:"sharedLinkToken"`
	Trigger         EmailTrigger `gorm:"size:16;not null;default:manual" json:"trigger"`
	CreatedAt       time.Time    `json:"createdAt"`
}
