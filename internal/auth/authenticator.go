package auth

import (
	"context"
	"strings"

	"project-tracker/internal/apperr"
	"project-tracker/internal/database"
	"project-tracker/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Authenticator checks an email and password against stored bcrypt hashes.
type Authenticator struct {
	db *gorm.DB
}

func NewAuthenticator(db *gorm.DB) *Authenticator {
	return &Authenticator{db: db}
}

// Authenticate returns the user on success. Unknown email and wrong
// password are indistinguishable to the caller.
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.ErrInvalidCredentials
	}

	var user models.User
	if err := a.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if database.IsNotFound(err) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, apperr.Internal(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperr.ErrInvalidCredentials
	}
	return &user, nil
}
