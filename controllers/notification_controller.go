package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/matching-server/services"
)

type NotificationController struct {
	svc *services.NotificationService
	log logrus.FieldLogger
}

func NewNotificationController(svc *services.NotificationService, log logrus.FieldLogger) *NotificationController {
	return &NotificationController{svc: svc, log: log}
}

// GET /api/notifications?unread=true
func (h *NotificationController) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	rows, err := h.svc.ListForUser(c.Request.Context(), userID, c.Query("unread") == "true")
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": rows})
}

// PATCH /api/notifications/:id/read
func (h *NotificationController) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.MarkRead(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
