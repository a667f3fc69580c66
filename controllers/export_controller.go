package controllers

import (
	"net/http"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/services"
)

type ExportController struct {
	svc *services.ExportService
	log logrus.FieldLogger
}

func NewExportController(svc *services.ExportService, log logrus.FieldLogger) *ExportController {
	return &ExportController{svc: svc, log: log}
}

// POST /api/matchings/:id/export
func (h *ExportController) Start(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	matchingID, ok := paramID(c, "id")
	if !ok {
		return
	}
	job, err := h.svc.Start(c.Request.Context(), userID, matchingID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"job_id": job.JobID, "status": job.Status})
}

// GET /api/exports/:job_id streams the file once done.
func (h *ExportController) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	job, err := h.svc.Get(c.Request.Context(), userID, c.Param("job_id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	if job.Status == models.ExportDone && job.FilePath != nil {
		c.FileAttachment(*job.FilePath, filepath.Base(*job.FilePath))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"job_id": job.JobID,
		"status": job.Status,
		"error":  job.ErrorMsg,
	})
}
