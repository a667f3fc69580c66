package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/services"
)

type MatchingController struct {
	svc *services.MatchingService
	log logrus.FieldLogger
}

func NewMatchingController(svc *services.MatchingService, log logrus.FieldLogger) *MatchingController {
	return &MatchingController{svc: svc, log: log}
}

// GET /api/matchings?page=&size=
func (h *MatchingController) List(c *gin.Context) {
	page, size := pageQuery(c)
	res, err := h.svc.GetList(c.Request.Context(), page, size)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/matchings/search?page=&size=
func (h *MatchingController) Search(c *gin.Context) {
	var q services.MatchingSearch
	if err := c.ShouldBindJSON(&q); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, "invalid search body")
		return
	}
	page, size := pageQuery(c)
	res, err := h.svc.Search(c.Request.Context(), q, page, size)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/matchings/:id
func (h *MatchingController) Detail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// POST /api/matchings
func (h *MatchingController) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	var req services.MatchingDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid matching body")
		return
	}

	m, err := h.svc.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondDetail(c, http.StatusCreated, m.ID)
}

// PUT /api/matchings/:id
func (h *MatchingController) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req services.MatchingDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid matching body")
		return
	}

	if _, err := h.svc.Update(c.Request.Context(), userID, id, req); err != nil {
		respondError(c, h.log, err)
		return
	}
	h.respondDetail(c, http.StatusOK, id)
}

// DELETE /api/matchings/:id
func (h *MatchingController) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), userID, id); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type statusRequest struct {
	RecruitStatus models.RecruitStatus `json:"recruit_status" binding:"required"`
}

// PATCH /api/matchings/:id/status
func (h *MatchingController) ChangeStatus(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "recruit_status is required")
		return
	}

	m, err := h.svc.ChangeRecruitStatus(c.Request.Context(), userID, id, req.RecruitStatus)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": m.ID, "recruit_status": m.RecruitStatus})
}

// GET /api/matchings/:id/apply-contents
func (h *MatchingController) ApplyContents(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.GetApplyContents(c.Request.Context(), userID, id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *MatchingController) respondDetail(c *gin.Context, status int, id uint) {
	detail, err := h.svc.GetDetail(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(status, detail)
}
