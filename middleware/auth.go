package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/matching-server/models"
)

const (
	CtxUser   = "user"
	CtxUserID = "user_id"
)

// Authenticator resolves the user behind a bearer token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.SiteUser, error)
}

// AuthJWT checks Authorization: Bearer <token> and puts the user in the context.
func AuthJWT(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing or invalid Authorization header", "code": "UNAUTHORIZED"})
			return
		}
		rawToken := strings.TrimSpace(authHeader[7:])

		user, err := auth.Authenticate(c.Request.Context(), rawToken)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token", "code": "UNAUTHORIZED"})
			return
		}

		c.Set(CtxUser, *user)
		c.Set(CtxUserID, user.ID)
		c.Next()
	}
}

// UserID returns the id AuthJWT stored.
func UserID(c *gin.Context) (uint, bool) {
	v, ok := c.Get(CtxUserID)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint)
	return id, ok
}
