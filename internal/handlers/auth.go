package handlers

import (
	"project-tracker/internal/apperr"
	"project-tracker/internal/middleware"

	"github.com/gin-gonic/gin"
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.fail(c, apperr.ErrInvalidCredentials)
		return
	}

	user, err := h.authn.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	a := user.Actor()
	token, err := h.tokens.Issue(a)
	if err != nil {
		h.fail(c, apperr.Internal(err))
		return
	}
	if err := middleware.SaveSession(c, a); err != nil {
		h.fail(c, apperr.Internal(err))
		return
	}

	ok(c, gin.H{
		"message": "Login successful",
		"user": gin.H{
			"id":      user.ID,
			"email":   user.Email,
			"name":    user.Name,
			"isAdmin": user.IsAdmin,
		},
		"token": token,
	})
}

func (h *Handler) Logout(c *gin.Context) {
	if err := middleware.ClearSession(c); err != nil {
		h.fail(c, apperr.Internal(err))
		return
	}
	ok(c, gin.H{"message": "Logout successful"})
}
