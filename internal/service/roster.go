package service

import (
	"project-tracker/internal/database"
	"project-tracker/internal/models"
	"project-tracker/internal/policy"

	"gorm.io/gorm"
)

// replaceRoster makes the project's assignment set exactly requested.
// The caller holds the project row lock; candidate users are locked here
// so two admins cannot place the same technician on two Open projects.
func replaceRoster(tx *gorm.DB, projectID uint, requested []uint) error {
	ids := policy.UniqueIDs(requested)

	var found []models.User
	if len(ids) > 0 {
		if err := database.ForUpdate(tx).Where("id IN ?", ids).Order("id").Find(&found).Error; err != nil {
			return err
		}
	}
	busy, err := openProjectsOf(tx, ids, projectID)
	if err != nil {
		return err
	}
	if err := policy.CheckAssignment(ids, found, busy); err != nil {
		return err
	}

	var current []uint
	if err := tx.Model(&models.ProjectAssignment{}).
		Where("project_id = ?", projectID).
		Pluck("user_id", &current).Error; err != nil {
		return err
	}

	remove, add := policy.RosterDiff(current, ids)
	if len(remove) > 0 {
		if err := tx.Where("project_id = ? AND user_id IN ?", projectID, remove).
			Delete(&models.ProjectAssignment{}).Error; err != nil {
			return err
		}
	}
	if len(add) > 0 {
		rows := make([]models.ProjectAssignment, 0, len(add))
		for _, uid := range add {
			rows = append(rows, models.ProjectAssignment{ProjectID: projectID, UserID: uid})
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
	}
	return nil
}

// openProjectsOf maps each technician in ids to the other projects they
// hold whose status is Open.
func openProjectsOf(tx *gorm.DB, ids []uint, exclude uint) (map[uint][]uint, error) {
	busy := make(map[uint][]uint)
	if len(ids) == 0 {
		return busy, nil
	}

	var rows []struct {
		UserID    uint
		ProjectID uint
	}
	err := tx.Table("project_assignments").
		Select("project_assignments.user_id, project_assignments.project_id").
		Joins("JOIN projects ON projects.id = project_assignments.project_id").
		Where("project_assignments.user_id IN ?", ids).
		Where("projects.status = ? AND projects.id <> ?", models.StatusOpen, exclude).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		busy[r.UserID] = append(busy[r.UserID], r.ProjectID)
	}
	return busy, nil
}
