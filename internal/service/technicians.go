package service

import (
	"context"
	"log/slog"
	"strings"

	"project-tracker/internal/apperr"
	"project-tracker/internal/database"
	"project-tracker/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TechnicianService manages non-admin users. Route guards restrict every
// call to admins.
type TechnicianService struct {
	base
}

func NewTechnicianService(db *gorm.DB, opts ...Option) *TechnicianService {
	return &TechnicianService{base: newBase(db, opts)}
}

type TechnicianInput struct {
	Email    string
	Name     string
	Password string
}

type TechnicianUpdate struct {
	Email    *string
	Name     *string
	Password *string
}

func technicians(q *gorm.DB) *gorm.DB {
	return q.Where("is_admin = ?", false)
}

func (s *TechnicianService) Create(ctx context.Context, in TechnicianInput) (*models.User, error) {
	email := strings.TrimSpace(in.Email)
	if !s.validEmail(email) || strings.TrimSpace(in.Name) == "" || in.Password == "" {
		return nil, apperr.ErrValidation
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.hashCost)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	u := models.User{Email: email, Name: in.Name, PasswordHash: string(hash)}
	if err := s.db.WithContext(ctx).Omit("Projects").Create(&u).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, apperr.ErrEmailInUse
		}
		return nil, internal(err)
	}
	s.log.Info("technician created", slog.Uint64("user_id", uint64(u.ID)))
	return &u, nil
}

func (s *TechnicianService) List(ctx context.Context, page Page) ([]models.User, error) {
	var out []models.User
	q := technicians(s.db.WithContext(ctx)).Order("id")
	if err := page.apply(q).Find(&out).Error; err != nil {
		return nil, internal(err)
	}
	return out, nil
}

// Get returns a technician with their assigned projects.
func (s *TechnicianService) Get(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	err := technicians(s.db.WithContext(ctx)).
		Preload("Projects", func(db *gorm.DB) *gorm.DB { return db.Order("projects.id") }).
		First(&u, id).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.ErrTechnicianNotFound
		}
		return nil, internal(err)
	}
	return &u, nil
}

func (s *TechnicianService) Update(ctx context.Context, id uint, in TechnicianUpdate) (*models.User, error) {
	changes := map[string]any{}
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if !s.validEmail(email) {
			return nil, apperr.ErrValidation
		}
		changes["email"] = email
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, apperr.ErrValidation
		}
		changes["name"] = *in.Name
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, apperr.ErrValidation
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), s.hashCost)
		if err != nil {
			return nil, apperr.Internal(err)
		}
		changes["password_hash"] = string(hash)
	}

	var u models.User
	db := s.db.WithContext(ctx)
	if err := technicians(db).First(&u, id).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.ErrTechnicianNotFound
		}
		return nil, internal(err)
	}
	if len(changes) > 0 {
		if err := db.Model(&u).Updates(changes).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return nil, apperr.ErrEmailInUse
			}
			return nil, internal(err)
		}
	}
	return s.Get(ctx, id)
}

// Delete removes the technician and their assignment rows. Their comments
// keep the dangling user id.
func (s *TechnicianService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var u models.User
		if err := technicians(database.ForUpdate(tx)).First(&u, id).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.ErrTechnicianNotFound
			}
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.ProjectAssignment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&u).Error
	})
	if err != nil {
		return internal(err)
	}
	s.log.Info("technician deleted", slog.Uint64("user_id", uint64(id)))
	return nil
}

// ListOverdue returns technicians holding at least one project that is
// past due and not Closed, each with only those projects attached.
func (s *TechnicianService) ListOverdue(ctx context.Context, page Page) ([]models.User, error) {
	today := s.today()
	db := s.db.WithContext(ctx)

	overdue := db.Session(&gorm.Session{NewDB: true}).
		Table("project_assignments").
		Select("project_assignments.user_id").
		Joins("JOIN projects ON projects.id = project_assignments.project_id").
		Where("projects.due_date < ? AND projects.status <> ?", today, models.StatusClosed)

	var out []models.User
	q := technicians(db).
		Where("users.id IN (?)", overdue).
		Preload("Projects", func(db *gorm.DB) *gorm.DB {
			return db.Where("projects.due_date < ? AND projects.status <> ?", today, models.StatusClosed).
				Order("projects.due_date")
		}).
		Order("users.id")
	if err := page.apply(q).Find(&out).Error; err != nil {
		return nil, internal(err)
	}
	return out, nil
}
