package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"project-tracker/internal/apperr"
	"project-tracker/internal/middleware"
	"project-tracker/internal/models"
	"project-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

var errInvalidID = apperr.ErrValidation.WithMessage("Invalid id")

// fail writes err as {"message","code"}. Internal details only reach the
// client in development.
func (h *Handler) fail(c *gin.Context, err error) {
	e := apperr.As(err)
	body := gin.H{"message": e.Message, "code": e.Code}
	if e.Kind == apperr.KindInternal {
		h.log.Error("request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()))
		if h.dev {
			body["error"] = err.Error()
		}
	}
	c.AbortWithStatusJSON(middleware.StatusOf(e.Kind), body)
}

// actor returns the authenticated caller. Routes using it sit behind
// RequireAuth, so a miss is a wiring bug.
func actor(c *gin.Context) models.Actor {
	a, _ := middleware.ActorFrom(c)
	return a
}

func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errInvalidID
	}
	return uint(id), nil
}

// pageQuery reads ?page (0-based) and ?per_page.
func pageQuery(c *gin.Context) (service.Page, error) {
	var p service.Page
	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return p, apperr.ErrValidation.WithMessage("Invalid page")
		}
		p.Number = n
	}
	if raw := c.Query("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			return p, apperr.ErrValidation.WithMessage("Invalid per_page")
		}
		p.PerPage = n
	}
	return p, nil
}

// bindJSON binds the body, turning binding errors into a validation error.
func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.ErrValidation.Wrap(err)
	}
	return nil
}

func ok(c *gin.Context, body gin.H) {
	c.JSON(http.StatusOK, body)
}
