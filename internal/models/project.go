package models

import "time"

type ProjectStatus string

const (
	StatusOpen       ProjectStatus = "Open"
	StatusInProgress ProjectStatus = "In Progress"
	StatusCompleted  ProjectStatus = "Completed"
	StatusClosed     ProjectStatus = "Closed"
	StatusRejected   ProjectStatus = "Rejected"
)

// AllStatuses lists every status value in display order.
var AllStatuses = []ProjectStatus{
	StatusOpen,
	StatusInProgress,
	StatusCompleted,
	StatusClosed,
	StatusRejected,
}

func (s ProjectStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusCompleted, StatusClosed, StatusRejected:
		return true
	}
	return false
}

type Project struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	Name            string        `gorm:"size:191;not null" json:"name"`
	Description     string        `gorm:"size:191;not null" json:"description"`
	StartDate       Date          `gorm:"not null" json:"startDate"`
	DueDate         Date          `gorm:"not null;index" json:"dueDate"`
	NoteToClient    *string       `gorm:"size:191" json:"noteToClient"`
	Status          ProjectStatus `gorm:"size:32;not null;default:Open;index" json:"status"`
	SharedLinkToken string        `gorm:"size:191;uniqueIndex;not null" json:"sharedLinkToken"`
	ClientID        *uint         `json:"clientId"`
	CreatedAt       time.Time     `json:"createdAt"`
	UpdatedAt       time.Time     `json:"updatedAt"`

	Client              *Client   `json:"client,omitempty"`
	AssignedTechnicians []User    `gorm:"many2many:project_assignments" json:"assignedTechnicians"`
	Comments            []Comment `json:"comments"`
}

// ProjectAssignment is the join row between a project and a technician.
type ProjectAssignment struct {
	ProjectID uint      `gorm:"primaryKey;autoIncrement:false"`
	UserID    uint      `gorm:"primaryKey;autoIncrement:false;index"`
	CreatedAt time.Time
}

// SharedView is the only projection of a project exposed through its
// shared link token.
type SharedView struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	StartDate    Date          `json:"startDate"`
	Status       ProjectStatus `json:"status"`
	NoteToClient *string       `json:"noteToClient"`
}

func (p Project) SharedView() SharedView {
	return SharedView{
		Name:         p.Name,
		Description:  p.Description,
		StartDate:    p.StartDate,
		Status:       p.Status,
		NoteToClient: p.NoteToClient,
	}
}
