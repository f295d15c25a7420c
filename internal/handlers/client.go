package handlers

import (
	"net/http"

	"project-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

type clientRequest struct {
	Email string `json:"email" binding:"required"`
	Name  string `json:"name"`
}

func (h *Handler) CreateClient(c *gin.Context) {
	var req clientRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	client, err := h.clients.Create(c.Request.Context(), service.ClientInput{Email: req.Email, Name: req.Name})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Client created successfully", "client": client})
}

func (h *Handler) ListClients(c *gin.Context) {
	page, err := pageQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	list, err := h.clients.List(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Clients retrieved successfully", "clients": list})
}

func (h *Handler) GetClientByEmail(c *gin.Context) {
	client, err := h.clients.GetByEmail(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"client": client})
}

type clientUpdateRequest struct {
	Email *string `json:"email"`
	Name  *string `json:"name"`
}

func (h *Handler) UpdateClient(c *gin.Context) {
	var req clientUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	client, err := h.clients.Update(c.Request.Context(), c.Param("currentEmail"), service.ClientUpdate{
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Client updated successfully", "client": client})
}

func (h *Handler) DeleteClient(c *gin.Context) {
	if err := h.clients.Delete(c.Request.Context(), c.Param("email")); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Client deleted successfully"})
}
