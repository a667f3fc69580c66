package utils

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

type JWTClaims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// SiteUserID parses the subject back into a primary key.
func (c *JWTClaims) SiteUserID() (uint, error) {
	id, err := strconv.ParseUint(c.UserID, 10, 64)
	if err != nil {
		return 0, ErrInvalidToken
	}
	return uint(id), nil
}

// GenerateToken signs an HS256 token for the given user.
func GenerateToken(secret []byte, userID uint, ttl time.Duration) (string, error) {
	if len(secret) == 0 {
		return "", errors.New("jwt secret is not configured")
	}

	now := time.Now()
	claims := JWTClaims{
		UserID: strconv.FormatUint(uint64(userID), 10),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

func VerifyToken(secret []byte, tokenStr string) (*JWTClaims, error) {
	if len(secret) == 0 {
		return nil, errors.New("jwt secret is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenStr, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
