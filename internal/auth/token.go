// Package auth verifies credentials and issues the bearer tokens that carry
// an Actor between requests.
package auth

import (
	"fmt"
	"strings"
	"time"

	"project-tracker/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "project-tracker"

type Claims struct {
	ID      uint   `json:"id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

func (c *Claims) Actor() models.Actor {
	return models.Actor{UserID: c.ID, Email: c.Email, Role: models.RoleOf(c.IsAdmin)}
}

type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (tm *TokenManager) Issue(actor models.Actor) (string, error) {
	if actor.UserID == 0 {
		return "", fmt.Errorf("issue token: user id required")
	}
	now := tm.now()
	claims := Claims{
		ID:      actor.UserID,
		Email:   actor.Email,
		IsAdmin: actor.IsAdmin(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprint(actor.UserID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.ttl)),
			Issuer:    issuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

func (tm *TokenManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return tm.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(tm.now))
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.ID == 0 {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

// ExtractToken pulls the token out of an "Authorization: Bearer" header.
func ExtractToken(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", fmt.Errorf("invalid authorization header")
	}
	return parts[1], nil
}
