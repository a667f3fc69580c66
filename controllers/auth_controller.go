package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/vnkhanh/matching-server/middleware"
	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/services"
)

type AuthController struct {
	svc *services.AuthService
	log logrus.FieldLogger
}

func NewAuthController(svc *services.AuthService, log logrus.FieldLogger) *AuthController {
	return &AuthController{svc: svc, log: log}
}

// POST /api/auth/register
func (h *AuthController) Register(c *gin.Context) {
	var req services.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"message": err.Error(), "code": "INVALID_INPUT"})
		return
	}
	u, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": u})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// POST /api/auth/login
func (h *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type googleLoginRequest struct {
	IDToken string `json:"id_token" binding:"required"`
}

// POST /api/auth/google/login
func (h *AuthController) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "id_token is required")
		return
	}
	res, err := h.svc.GoogleLogin(c.Request.Context(), req.IDToken)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GET /api/me
func (h *AuthController) Me(c *gin.Context) {
	u, ok := c.Get(middleware.CtxUser)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Unauthorized", "code": "UNAUTHORIZED"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": u.(models.SiteUser)})
}
