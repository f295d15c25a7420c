package service

import (
	"context"
	"log/slog"
	"strings"

	"project-tracker/internal/apperr"
	"project-tracker/internal/database"
	"project-tracker/internal/models"

	"gorm.io/gorm"
)

var errClientEmailInUse = apperr.ErrEmailInUse.WithMessage(
	"Email address is already in use. Please choose a different email.")

type ClientService struct {
	base
}

func NewClientService(db *gorm.DB, opts ...Option) *ClientService {
	return &ClientService{base: newBase(db, opts)}
}

type ClientInput struct {
	Email string
	Name  string
}

type ClientUpdate struct {
	Email *string
	Name  *string
}

func (s *ClientService) Create(ctx context.Context, in ClientInput) (*models.Client, error) {
	email := strings.TrimSpace(in.Email)
	if !s.validEmail(email) {
		return nil, apperr.ErrValidation
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = localPart(email)
	}

	c := models.Client{Email: email, Name: name}
	if err := s.db.WithContext(ctx).Omit("Projects").Create(&c).Error; err != nil {
		if database.IsUniqueViolation(err) {
			return nil, errClientEmailInUse
		}
		return nil, internal(err)
	}
	s.log.Info("client created", slog.Uint64("client_id", uint64(c.ID)))
	return &c, nil
}

func (s *ClientService) List(ctx context.Context, page Page) ([]models.Client, error) {
	var out []models.Client
	if err := page.apply(s.db.WithContext(ctx).Order("id")).Find(&out).Error; err != nil {
		return nil, internal(err)
	}
	return out, nil
}

func (s *ClientService) GetByEmail(ctx context.Context, email string) (*models.Client, error) {
	var c models.Client
	err := s.db.WithContext(ctx).
		Preload("Projects", func(db *gorm.DB) *gorm.DB { return db.Order("projects.id") }).
		Where("email = ?", email).
		First(&c).Error
	if err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.ErrClientNotFound
		}
		return nil, internal(err)
	}
	return &c, nil
}

// Update changes the email and/or name of the client currently known by
// currentEmail.
func (s *ClientService) Update(ctx context.Context, currentEmail string, in ClientUpdate) (*models.Client, error) {
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

	var c models.Client
	db := s.db.WithContext(ctx)
	if err := db.Where("email = ?", currentEmail).First(&c).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.ErrClientNotFound
		}
		return nil, internal(err)
	}
	if len(changes) > 0 {
		if err := db.Model(&c).Updates(changes).Error; err != nil {
			if database.IsUniqueViolation(err) {
				return nil, errClientEmailInUse
			}
			return nil, internal(err)
		}
		if err := db.First(&c, c.ID).Error; err != nil {
			return nil, internal(err)
		}
	}
	return &c, nil
}

// Delete removes the client. Its projects stay, detached from any client.
func (s *ClientService) Delete(ctx context.Context, email string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c models.Client
		if err := database.ForUpdate(tx).Where("email = ?", email).First(&c).Error; err != nil {
			if database.IsNotFound(err) {
				return apperr.ErrClientNotFound
			}
			return err
		}
		if err := tx.Model(&models.Project{}).
			Where("client_id = ?", c.ID).
			Update("client_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
	if err != nil {
		return internal(err)
	}
	s.log.Info("client deleted", slog.String("email", email))
	return nil
}
