package handlers

import (
	"net/http"

	"project-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

type technicianRequest struct {
	Email    string `json:"email" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handler) CreateTechnician(c *gin.Context) {
	var req technicianRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	u, err := h.technicians.Create(c.Request.Context(), service.TechnicianInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Technician created successfully", "user": u})
}

func (h *Handler) ListTechnicians(c *gin.Context) {
	page, err := pageQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	list, err := h.technicians.List(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Technicians retrieved successfully", "technicians": list})
}

func (h *Handler) ListOverdueTechnicians(c *gin.Context) {
	page, err := pageQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	list, err := h.technicians.ListOverdue(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Technicians with overdue projects retrieved successfully", "technicians": list})
}

func (h *Handler) GetTechnician(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	u, err := h.technicians.Get(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Technician retrieved successfully", "technician": u})
}

type technicianUpdateRequest struct {
	Email    *string `json:"email"`
	Name     *string `json:"name"`
	Password *string `json:"password"`
}

func (h *Handler) UpdateTechnician(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req technicianUpdateRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	u, err := h.technicians.Update(c.Request.Context(), id, service.TechnicianUpdate{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Technician updated successfully", "technician": u})
}

func (h *Handler) DeleteTechnician(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.technicians.Delete(c.Request.Context(), id); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Technician deleted successfully"})
}
