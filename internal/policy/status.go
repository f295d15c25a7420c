package policy

import (
	"fmt"
	"strings"

	"project-tracker/internal/apperr"
	"project-tracker/internal/models"
)

var technicianStatuses = []models.ProjectStatus{
	models.StatusOpen,
	models.StatusInProgress,
	models.StatusCompleted,
}

// AllowedStatuses returns the status values a role may set. There is no
// ordering between values: any allowed value can follow any other.
func AllowedStatuses(role models.Role) []models.ProjectStatus {
	switch role {
	case models.RoleAdmin:
		return models.AllStatuses
	case models.RoleTechnician:
		return technicianStatuses
	}
	return nil
}

// CanSetStatus decides whether actor may set next on a project. assigned
// reports whether actor currently holds an assignment on that project.
func CanSetStatus(actor models.Actor, assigned bool, next models.ProjectStatus) error {
	if !actor.IsAdmin() && !assigned {
		return apperr.ErrNotAssigned.WithMessage("You are not assigned to this project")
	}
	allowed := AllowedStatuses(actor.Role)
	for _, s := range allowed {
		if s == next {
			return nil
		}
	}
	return apperr.ErrInvalidStatus.WithMessage(fmt.Sprintf(
		"Invalid status value for the user role. (Accepted values: %s)", joinStatuses(allowed)))
}

// ValidStatus checks a value against the full admin set, used by updates
// that carry a status alongside other fields.
func ValidStatus(s models.ProjectStatus) error {
	if s.Valid() {
		return nil
	}
	return apperr.ErrInvalidStatus.WithMessage(fmt.Sprintf(
		"Invalid status value. (Accepted values: %s)", joinStatuses(models.AllStatuses)))
}

func joinStatuses(ss []models.ProjectStatus) string {
	parts := make([]string, len(ss))
	for i, s := range ss {
		parts[i] = string(s)
	}
	return strings.Join(parts, ", ")
}
