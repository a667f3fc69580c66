package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/matching-server/middleware"
	"github.com/vnkhanh/matching-server/services"
	"github.com/vnkhanh/matching-server/utils"
)

type apiError struct {
	status int
	code   string
}

func classify(err error) apiError {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return apiError{http.StatusNotFound, "USER_NOT_FOUND"}
	case errors.Is(err, services.ErrMatchingNotFound):
		return apiError{http.StatusNotFound, "MATCHING_NOT_FOUND"}
	case errors.Is(err, services.ErrApplyNotFound):
		return apiError{http.StatusNotFound, "APPLY_NOT_FOUND"}
	case errors.Is(err, services.ErrNotificationNotFound):
		return apiError{http.StatusNotFound, "NOTIFICATION_NOT_FOUND"}
	case errors.Is(err, services.ErrExportNotFound):
		return apiError{http.StatusNotFound, "EXPORT_NOT_FOUND"}

	case errors.Is(err, services.ErrNoPermission):
		return apiError{http.StatusForbidden, "NO_PERMISSION"}

	case errors.Is(err, services.ErrClosedMatching):
		return apiError{http.StatusBadRequest, "CLOSED_MATCHING"}
	case errors.Is(err, services.ErrMatchingFull):
		return apiError{http.StatusBadRequest, "MATCHING_FULL"}
	case errors.Is(err, services.ErrApplyNotPending):
		return apiError{http.StatusBadRequest, "APPLY_NOT_PENDING"}
	case errors.Is(err, services.ErrOrganizerApplyImmutable):
		return apiError{http.StatusBadRequest, "ORGANIZER_APPLY_IMMUTABLE"}
	case errors.Is(err, services.ErrInvalidStatusTransition):
		return apiError{http.StatusBadRequest, "INVALID_STATUS_TRANSITION"}
	case errors.Is(err, services.ErrRecruitNumBelowConfirmed):
		return apiError{http.StatusBadRequest, "RECRUIT_NUM_BELOW_CONFIRMED"}
	case errors.Is(err, services.ErrInvalidDateFormat):
		return apiError{http.StatusBadRequest, "INVALID_DATE_FORMAT"}
	case errors.Is(err, services.ErrInvalidTimeRange):
		return apiError{http.StatusBadRequest, "INVALID_TIME_RANGE"}
	case errors.Is(err, services.ErrInvalidInput):
		return apiError{http.StatusBadRequest, "INVALID_INPUT"}

	case errors.Is(err, services.ErrAlreadyApplied):
		return apiError{http.StatusConflict, "ALREADY_APPLIED"}
	case errors.Is(err, services.ErrEmailAlreadyExists):
		return apiError{http.StatusConflict, "EMAIL_ALREADY_EXISTS"}

	case errors.Is(err, services.ErrInvalidCredentials):
		return apiError{http.StatusUnauthorized, "INVALID_CREDENTIALS"}
	case errors.Is(err, services.ErrInvalidGoogleToken), errors.Is(err, utils.ErrInvalidToken):
		return apiError{http.StatusUnauthorized, "INVALID_TOKEN"}
	}
	return apiError{http.StatusInternalServerError, "INTERNAL_ERROR"}
}

// respondError writes the mapped status. Unmapped errors are logged and
// reported without detail.
func respondError(c *gin.Context, log logrus.FieldLogger, err error) {
	e := classify(err)
	if e.status == http.StatusInternalServerError {
		middleware.Logger(c, log).WithError(err).Error("unhandled error")
		c.AbortWithStatusJSON(e.status, gin.H{"message": "Internal server error", "code": e.code})
		return
	}
	c.AbortWithStatusJSON(e.status, gin.H{"message": err.Error(), "code": e.code})
}

func badRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": message, "code": "INVALID_INPUT"})
}
