package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/matching-server/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubAuth map[string]models.SiteUser

func (s stubAuth) Authenticate(_ context.Context, token string) (*models.SiteUser, error) {
	u, ok := s[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &u, nil
}

func TestAuthJWT(t *testing.T) {
	r := gin.New()
	r.GET("/me", AuthJWT(stubAuth{"good": {ID: 7, Nickname: "ace"}}), func(c *gin.Context) {
		id, ok := UserID(c)
		require.True(t, ok)
		u := c.MustGet(CtxUser).(models.SiteUser)
		c.JSON(http.StatusOK, gin.H{"id": id, "nickname": u.Nickname})
	})

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized},
		{"unknown token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.JSONEq(t, `{"id":7,"nickname":"ace"}`, w.Body.String())
			}
		})
	}
}

func TestRateLimitByIP(t *testing.T) {
	rl := NewIPRateLimiter(1, 2, time.Minute)
	r := gin.New()
	r.POST("/x", RateLimitByIP(rl), func(c *gin.Context) { c.Status(http.StatusCreated) })

	send := func(ip string) int {
		req := httptest.NewRequest(http.MethodPost, "/x", nil)
		req.RemoteAddr = ip + ":1234"
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, send("10.0.0.1"))
	assert.Equal(t, http.StatusCreated, send("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.1"))
	assert.Equal(t, http.StatusCreated, send("10.0.0.2"), "limits are per IP")
}

func TestRateLimiterForgetsIdleVisitors(t *testing.T) {
	rl := NewIPRateLimiter(60, 1, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	rl.lastSweep = now

	rl.getLimiter("10.0.0.1")
	rl.getLimiter("10.0.0.2")
	assert.Equal(t, 2, rl.size())

	now = now.Add(2 * time.Minute)
	rl.getLimiter("10.0.0.3")
	assert.Equal(t, 1, rl.size())
}

func TestRequestLogger(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	r := gin.New()
	r.Use(RequestLogger(logger))
	r.GET("/ok", func(c *gin.Context) {
		Logger(c, logger).Info("inside handler")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-1", w.Header().Get(HeaderRequestID))
	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "req-1", entries[0].Data["request_id"])
	assert.Equal(t, "request completed", entries[1].Message)
	assert.Equal(t, http.StatusNoContent, entries[1].Data["status"])
	assert.Equal(t, logrus.InfoLevel, entries[1].Level)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	assert.Len(t, w.Header().Get(HeaderRequestID), 36)
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	r := gin.New()
	r.Use(Metrics())
	r.GET("/api/matchings/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/matchings/42", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
