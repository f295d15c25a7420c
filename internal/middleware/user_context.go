package middleware

import (
	"net/http"

	"project-tracker/internal/apperr"
	"project-tracker/internal/models"

	"github.com/gin-gonic/gin"
)

const actorKey = "actor"

func SetActor(c *gin.Context, actor models.Actor) {
	c.Set(actorKey, actor)
}

// ActorFrom returns the caller resolved by RequireAuth.
func ActorFrom(c *gin.Context) (models.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return models.Actor{}, false
	}
	actor, ok := v.(models.Actor)
	return actor, ok
}

// StatusOf maps an error kind to its HTTP status.
func StatusOf(kind apperr.Kind) int {
	switch kind {
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
