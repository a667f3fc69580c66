package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/services"
)

type ApplyController struct {
	svc *services.ApplyService
	log logrus.FieldLogger
}

func NewApplyController(svc *services.ApplyService, log logrus.FieldLogger) *ApplyController {
	return &ApplyController{svc: svc, log: log}
}

// POST /api/matchings/:id/applies
func (h *ApplyController) Apply(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchingID, ok := paramID(c, "id")
	if !ok {
		return
	}
	a, err := h.svc.Apply(c.Request.Context(), userID, matchingID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// POST /api/applies/:id/accept
func (h *ApplyController) Accept(c *gin.Context) {
	h.decide(c, h.svc.Accept)
}

// POST /api/applies/:id/reject
func (h *ApplyController) Reject(c *gin.Context) {
	h.decide(c, h.svc.Reject)
}

func (h *ApplyController) decide(c *gin.Context, fn func(ctx context.Context, organizerID, applyID uint) (*models.Apply, error)) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	applyID, ok := paramID(c, "id")
	if !ok {
		return
	}
	a, err := fn(c.Request.Context(), userID, applyID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// GET /api/applies/me
func (h *ApplyController) ListMine(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	res, err := h.svc.ListMine(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": res})
}
