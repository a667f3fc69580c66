package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthController struct {
	store Pinger
}

func NewHealthController(store Pinger) *HealthController {
	return &HealthController{store: store}
}

func (h *HealthController) Check(c *gin.Context) {
	response := gin.H{
		"status":  "ok",
		"message": "Service is healthy",
		"db":      "ok",
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.store.Ping(ctx); err != nil {
		response["status"] = "error"
		response["db"] = "error: cannot connect to DB"
		c.JSON(http.StatusInternalServerError, response)
		return
	}

	c.JSON(http.StatusOK, response)
}
