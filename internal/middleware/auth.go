package middleware

import (
	"log/slog"

	"project-tracker/internal/apperr"
	"project-tracker/internal/auth"
	"project-tracker/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequireAuth resolves the caller from a bearer token, falling back to the
// cookie session set at login.
func RequireAuth(tokens *auth.TokenManager, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if header := c.GetHeader("Authorization"); header != "" {
			raw, err := auth.ExtractToken(header)
			if err == nil {
				var claims *auth.Claims
				if claims, err = tokens.Validate(raw); err == nil {
					SetActor(c, claims.Actor())
					c.Next()
					return
				}
			}
			log.Debug("bearer token rejected", slog.String("error", err.Error()))
			abortWithError(c, apperr.ErrUnauthorized)
			return
		}

		if actor, ok := sessionActor(sessions.Default(c)); ok {
			SetActor(c, actor)
			c.Next()
			return
		}
		abortWithError(c, apperr.ErrUnauthorized)
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			abortWithError(c, apperr.ErrUnauthorized)
			return
		}
		if !actor.IsAdmin() {
			abortWithError(c, apperr.ErrAdminRequired)
			return
		}
		c.Next()
	}
}

func sessionActor(sess sessions.Session) (models.Actor, bool) {
	id, ok := sess.Get("user_id").(uint)
	if !ok || id == 0 {
		return models.Actor{}, false
	}
	email, _ := sess.Get("email").(string)
	isAdmin, _ := sess.Get("is_admin").(bool)
	return models.Actor{UserID: id, Email: email, Role: models.RoleOf(isAdmin)}, true
}

// SaveSession stores the actor in the cookie session.
func SaveSession(c *gin.Context, actor models.Actor) error {
	sess := sessions.Default(c)
	sess.Set("user_id", actor.UserID)
	sess.Set("email", actor.Email)
	sess.Set("is_admin", actor.IsAdmin())
	return sess.Save()
}

func ClearSession(c *gin.Context) error {
	sess := sessions.Default(c)
	sess.Clear()
	sess.Options(sessions.Options{Path: "/", MaxAge: -1})
	return sess.Save()
}

func abortWithError(c *gin.Context, err *apperr.Error) {
	c.AbortWithStatusJSON(StatusOf(err.Kind), gin.H{"message": err.Message, "code": err.Code})
}
