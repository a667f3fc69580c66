package controllers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const maxImageSize = 5 << 20

// ImageUploader stores an object and returns its public URL.
type ImageUploader interface {
	Upload(ctx context.Context, objectPath string, r io.Reader, contentType string) (string, error)
}

type UploadController struct {
	uploader ImageUploader
	log      logrus.FieldLogger
}

func NewUploadController(uploader ImageUploader, log logrus.FieldLogger) *UploadController {
	return &UploadController{uploader: uploader, log: log}
}

// POST /api/uploads stores a location image; the URL goes into location_img.
func (h *UploadController) Upload(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	if h.uploader == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"message": "Upload storage is not configured", "code": "UPLOAD_DISABLED"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if fileHeader.Size > maxImageSize {
		badRequest(c, "file exceeds 5MB")
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		badRequest(c, "only images are accepted")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	defer f.Close()

	objectPath := fmt.Sprintf("matchings/%d/%s%s", userID, uuid.NewString(), strings.ToLower(filepath.Ext(fileHeader.Filename)))
	url, err := h.uploader.Upload(c.Request.Context(), objectPath, f, contentType)
	if err != nil {
		respondError(c, h.log, fmt.Errorf("upload image: %w", err))
		return
	}

	h.log.WithFields(logrus.Fields{"user_id": userID, "path": objectPath}).Info("image uploaded")
	c.JSON(http.StatusOK, gin.H{"url": url})
}
