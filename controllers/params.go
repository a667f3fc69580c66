package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/matching-server/middleware"
)

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		badRequest(c, "invalid "+name)
		return 0, false
	}
	return uint(id), true
}

// pageQuery reads zero-based page and size; bad values fall back to defaults.
func pageQuery(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "0"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "0"))
	return page, size
}

func currentUserID(c *gin.Context) (uint, bool) {
	id, ok := middleware.UserID(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized", "code": "UNAUTHORIZED"})
	}
	return id, ok
}
