package controllers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/matching-server/middleware"
	"github.com/vnkhanh/matching-server/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrMatchingNotFound, http.StatusNotFound, "MATCHING_NOT_FOUND"},
		{fmt.Errorf("%w: pending applicants: %w", services.ErrApplyNotFound, errors.New("db")), http.StatusNotFound, "APPLY_NOT_FOUND"},
		{services.ErrNoPermission, http.StatusForbidden, "NO_PERMISSION"},
		{services.ErrClosedMatching, http.StatusBadRequest, "CLOSED_MATCHING"},
		{fmt.Errorf("%w: title is required", services.ErrInvalidInput), http.StatusBadRequest, "INVALID_INPUT"},
		{services.ErrAlreadyApplied, http.StatusConflict, "ALREADY_APPLIED"},
		{services.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{errors.New("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}
	for _, tc := range cases {
		got := classify(tc.err)
		assert.Equal(t, tc.status, got.status, tc.err.Error())
		assert.Equal(t, tc.code, got.code, tc.err.Error())
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	r := gin.New()
	r.GET("/boom", func(c *gin.Context) {
		respondError(c, logger, errors.New("pq: password authentication failed"))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"message":"Internal server error","code":"INTERNAL_ERROR"}`, w.Body.String())
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "unhandled error", hook.LastEntry().Message)
}

type fakeUploader struct {
	path        string
	contentType string
	body        []byte
	err         error
}

func (f *fakeUploader) Upload(_ context.Context, objectPath string, r io.Reader, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.path, f.contentType = objectPath, contentType
	f.body, _ = io.ReadAll(r)
	return "https://cdn.example/" + objectPath, nil
}

func multipartImage(t *testing.T, filename, contentType string, body []byte) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(body)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func uploadRouter(u ImageUploader) *gin.Engine {
	logger, _ := logtest.NewNullLogger()
	h := NewUploadController(u, logger)
	r := gin.New()
	r.POST("/uploads", func(c *gin.Context) {
		c.Set(middleware.CtxUserID, uint(3))
		c.Next()
	}, h.Upload)
	return r
}

func TestUploadImage(t *testing.T) {
	up := &fakeUploader{}
	r := uploadRouter(up)

	body, ct := multipartImage(t, "Court.PNG", "image/png", []byte("png-bytes"))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Regexp(t, `^matchings/3/[0-9a-f-]{36}\.png$`, up.path)
	assert.Equal(t, "image/png", up.contentType)
	assert.Equal(t, []byte("png-bytes"), up.body)
	assert.Contains(t, w.Body.String(), "https://cdn.example/matchings/3/")
}

func TestUploadRejectsNonImages(t *testing.T) {
	r := uploadRouter(&fakeUploader{})

	body, ct := multipartImage(t, "notes.txt", "text/plain", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/uploads", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUploadStorageFailure(t *testing.T) {
	r := uploadRouter(&fakeUploader{err: errors.New("bucket missing")})

	body, ct := multipartImage(t, "court.jpg", "image/jpeg", []byte("jpg"))
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		status int
	}{
		{"healthy", nil, http.StatusOK},
		{"db down", errors.New("dial tcp: refused"), http.StatusInternalServerError},
	} {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthController(pingFunc(func(context.Context) error { return tc.err }))
			r := gin.New()
			r.GET("/health", h.Check)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tc.status, w.Code)
		})
	}
}
