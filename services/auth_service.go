package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/idtoken"

	"github.com/vnkhanh/matching-server/models"
	"github.com/vnkhanh/matching-server/repositories"
	"github.com/vnkhanh/matching-server/utils"
)

// GoogleTokenVerifier checks a Google ID token for the given audience.
type GoogleTokenVerifier func(ctx context.Context, idToken, audience string) (*idtoken.Payload, error)

type AuthServiceConfig struct {
	Store          repositories.Store
	JWTSecret      []byte
	TokenTTL       time.Duration
	GoogleClientID string
	VerifyGoogle   GoogleTokenVerifier
	Logger         logrus.FieldLogger
}

type AuthService struct {
	store          repositories.Store
	secret         []byte
	ttl            time.Duration
	googleClientID string
	verifyGoogle   GoogleTokenVerifier
	log            logrus.FieldLogger
}

func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.VerifyGoogle == nil {
		cfg.VerifyGoogle = idtoken.Validate
	}
	return &AuthService{
		store:          cfg.Store,
		secret:         cfg.JWTSecret,
		ttl:            cfg.TokenTTL,
		googleClientID: cfg.GoogleClientID,
		verifyGoogle:   cfg.VerifyGoogle,
		log:            cfg.Logger,
	}
}

type RegisterInput struct {
	Nickname string `json:"nickname" binding:"required,max=50"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type AuthResult struct {
	Token string          `json:"token"`
	User  models.SiteUser `json:"user"`
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.SiteUser, error) {
	nickname := strings.TrimSpace(in.Nickname)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if nickname == "" || utf8.RuneCountInString(nickname) > 50 {
		return nil, fmt.Errorf("%w: nickname must be 1-50 characters", ErrInvalidInput)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", ErrInvalidInput)
	}
	if len(in.Password) < utils.MinPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, utils.MinPasswordLength)
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.SiteUser{Nickname: nickname, Email: email, Password: hash}
	if err := s.store.Users().Create(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrEmailAlreadyExists
		}
		return nil, err
	}
	s.log.WithField("user_id", u.ID).Info("user registered")
	return u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	u, err := s.store.Users().FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !utils.CheckPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(u)
}

// GoogleLogin signs in with a Google ID token, creating the account on first
// use or attaching to an existing account with the same verified email.
func (s *AuthService) GoogleLogin(ctx context.Context, rawToken string) (*AuthResult, error) {
	payload, err := s.verifyGoogle(ctx, rawToken, s.googleClientID)
	if err != nil {
		s.log.WithError(err).Debug("google token rejected")
		return nil, ErrInvalidGoogleToken
	}

	u, err := s.store.Users().FindByGoogleSub(ctx, payload.Subject)
	if err == nil {
		return s.issue(u)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	email, _ := payload.Claims["email"].(string)
	verified, _ := payload.Claims["email_verified"].(bool)
	if email == "" || !verified {
		return nil, ErrInvalidGoogleToken
	}
	email = strings.ToLower(email)

	u, err = s.store.Users().FindByEmail(ctx, email)
	if err == nil {
		return s.issue(u)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}

	name, _ := payload.Claims["name"].(string)
	sub := payload.Subject
	u = &models.SiteUser{Nickname: googleNickname(name, email), Email: email, GoogleSub: &sub}
	if err := s.store.Users().Create(ctx, u); err != nil {
		return nil, err
	}
	s.log.WithField("user_id", u.ID).Info("user registered via google")
	return s.issue(u)
}

// Authenticate resolves the user behind a bearer token.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.SiteUser, error) {
	claims, err := utils.VerifyToken(s.secret, token)
	if err != nil {
		return nil, utils.ErrInvalidToken
	}
	id, err := claims.SiteUserID()
	if err != nil {
		return nil, err
	}
	return findUser(ctx, s.store, id)
}

func (s *AuthService) issue(u *models.SiteUser) (*AuthResult, error) {
	token, err := utils.GenerateToken(s.secret, u.ID, s.ttl)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, User: *u}, nil
}

func googleNickname(name, email string) string {
	nickname := strings.TrimSpace(name)
	if nickname == "" {
		nickname, _, _ = strings.Cut(email, "@")
	}
	if utf8.RuneCountInString(nickname) > 50 {
		nickname = string([]rune(nickname)[:50])
	}
	return nickname
}
