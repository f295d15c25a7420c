package models

import "time"

// Role is the closed set of actor roles. It is persisted as User.IsAdmin.
type Role uint8

const (
	RoleTechnician Role = iota
	RoleAdmin
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleTechnician:
		return "technician"
	}
	return "unknown"
}

func RoleOf(isAdmin bool) Role {
	if isAdmin {
		return RoleAdmin
	}
	return RoleTechnician
}

type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Email        string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Name         string    `gorm:"size:191;not null" json:"name"`
	PasswordHash string    `gorm:"not null" json:"-"`
	IsAdmin      bool      `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	Projects []Project `gorm:"many2many:project_assignments" json:"projects,omitempty"`
}

func (u User) Role() Role { return RoleOf(u.IsAdmin) }

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID uint
	Email  string
	Role   Role
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

func (u User) Actor() Actor {
	return Actor{UserID: u.ID, Email: u.Email, Role: u.Role()}
}
