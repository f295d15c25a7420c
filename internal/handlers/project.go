package handlers

import (
	"net/http"
	"strconv"

	"project-tracker/internal/apperr"
	"project-tracker/internal/models"
	"project-tracker/internal/service"

	"github.com/gin-gonic/gin"
)

type createProjectRequest struct {
	Name         string  `json:"name" binding:"required"`
	Description  string  `json:"description" binding:"required"`
	StartDate    string  `json:"startDate" binding:"required"`
	DueDate      string  `json:"dueDate" binding:"required"`
	NoteToClient *string `json:"noteToClient"`
	ClientEmail  string  `json:"clientEmail" binding:"required"`
	ClientName   string  `json:"clientName"`
}

func (h *Handler) CreateProject(c *gin.Context) {
	var req createProjectRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	p, err := h.projects.Create(c.Request.Context(), actor(c), service.CreateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		StartDate:    req.StartDate,
		DueDate:      req.DueDate,
		NoteToClient: req.NoteToClient,
		ClientEmail:  req.ClientEmail,
		ClientName:   req.ClientName,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Project created successfully", "project": p})
}

type assignRequest struct {
	UserIDs []uint `json:"userIds" binding:"required"`
}

func (h *Handler) AssignTechnicians(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req assignRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	p, err := h.projects.Assign(c.Request.Context(), actor(c), id, req.UserIDs)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Technicians assigned successfully", "project": p})
}

func (h *Handler) ListProjects(c *gin.Context) {
	page, err := pageQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	projects, err := h.projects.List(c.Request.Context(), actor(c), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"projects": projects})
}

func (h *Handler) SearchProjects(c *gin.Context) {
	page, err := pageQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	overdue := false
	if raw := c.Query("findAllOverdue"); raw != "" {
		if overdue, err = strconv.ParseBool(raw); err != nil {
			h.fail(c, apperr.ErrValidation.WithMessage("Invalid findAllOverdue"))
			return
		}
	}

	projects, err := h.projects.Search(c.Request.Context(), actor(c), service.SearchFilter{
		Name:           c.Query("name"),
		CreationDate:   c.Query("creationDate"),
		DueDate:        c.Query("dueDate"),
		RangeStart:     c.Query("dateRangeStart"),
		RangeEnd:       c.Query("dateRangeEnd"),
		Status:         c.Query("status"),
		FindAllOverdue: overdue,
		Page:           page,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"projects": projects})
}

func (h *Handler) ExportOverdueLastMonth(c *gin.Context) {
	projects, err := h.projects.ExportOverdueLastMonth(c.Request.Context(), actor(c))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"projects": projects})
}

func (h *Handler) GetProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	p, err := h.projects.Get(c.Request.Context(), actor(c), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"project": p})
}

type updateProjectRequest struct {
	Name         *string               `json:"name"`
	Description  *string               `json:"description"`
	StartDate    *string               `json:"startDate"`
	DueDate      *string               `json:"dueDate"`
	NoteToClient *string               `json:"noteToClient"`
	Status       *models.ProjectStatus `json:"status"`
	UserIDs      *[]uint               `json:"userIds"`
}

func (h *Handler) UpdateProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req updateProjectRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	p, err := h.projects.Update(c.Request.Context(), actor(c), id, service.UpdateProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		StartDate:    req.StartDate,
		DueDate:      req.DueDate,
		NoteToClient: req.NoteToClient,
		Status:       req.Status,
		UserIDs:      req.UserIDs,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Project updated successfully", "project": p})
}

type statusRequest struct {
	Status models.ProjectStatus `json:"status" binding:"required"`
}

func (h *Handler) UpdateProjectStatus(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	var req statusRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}

	p, err := h.projects.SetStatus(c.Request.Context(), actor(c), id, req.Status)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Project status updated successfully", "project": p})
}

func (h *Handler) DeleteProject(c *gin.Context) {
	id, err := idParam(c, "id")
	if err != nil {
		h.fail(c, err)
		return
	}
	if err := h.projects.Delete(c.Request.Context(), actor(c), id); err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Project deleted successfully"})
}

type commentRequest struct {
	ProjectID uint   `json:"projectId" binding:"required"`
	Text      string `json:"text" binding:"required"`
}

func (h *Handler) PostComment(c *gin.Context) {
	var req commentRequest
	if err := bindJSON(c, &req); err != nil {
		h.fail(c, err)
		return
	}
	comment, err := h.projects.PostComment(c.Request.Context(), actor(c), req.ProjectID, req.Text)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Comment posted successfully", "comment": comment})
}

// SharedProject is the public view behind a client's shared link.
func (h *Handler) SharedProject(c *gin.Context) {
	view, err := h.projects.SharedView(c.Request.Context(), c.Param("sharedLinkToken"))
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Project details retrieved successfully", "project": view})
}
