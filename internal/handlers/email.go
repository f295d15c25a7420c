package handlers

import (
	"github.com/gin-gonic/gin"
)

func (h *Handler) SendProjectEmail(c *gin.Context) {
	id, err := idParam(c, "projectId")
	if err != nil {
		h.fail(c, err)
		return
	}
	sent, err := h.reminders.SendForProject(c.Request.Context(), id)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Email sent successfully", "sentEmail": sent})
}

func (h *Handler) ListProjectSentEmails(c *gin.Context) {
	id, err := idParam(c, "projectId")
	if err != nil {
		h.fail(c, err)
		return
	}
	page, err := pageQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.reminders.ListSent(c.Request.Context(), id, page)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "Sent emails retrieved successfully", "sentEmails": rows})
}

func (h *Handler) ListSentEmails(c *gin.Context) {
	page, err := pageQuery(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	rows, err := h.reminders.ListAll(c.Request.Context(), page)
	if err != nil {
		h.fail(c, err)
		return
	}
	ok(c, gin.H{"message": "All sent emails retrieved successfully", "sentEmails": rows})
}
