package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/templui/linkstash/internal/apperr"
	"github.com/templui/linkstash/internal/repository"
)

// AuthService issues and verifies the bearer tokens API clients present.
// Sign-in itself happens elsewhere; a token only carries the owner id.
type AuthService struct {
	jwtSecret string
	jwtExpiry time.Duration
	now       func() time.Time
}

func NewAuthService(jwtSecret string, jwtExpiry time.Duration) *AuthService {
	return &AuthService{
		jwtSecret: jwtSecret,
		jwtExpiry: jwtExpiry,
		now:       time.Now,
	}
}

// GenerateJWT signs a token for ownerID.
func (s *AuthService) GenerateJWT(ownerID string) (string, error) {
	if _, err := repository.NewScope(ownerID); err != nil {
		return "", err
	}

	now := s.now()
	claims := jwt.MapClaims{
		"user_id": ownerID,
		"iat":     now.Unix(),
		"exp":     now.Add(s.jwtExpiry).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// VerifyJWT checks a token and returns the Scope it grants.
func (s *AuthService) VerifyJWT(tokenString string) (repository.Scope, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return repository.Scope{}, apperr.Validation("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return repository.Scope{}, apperr.Validation("invalid token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok {
		return repository.Scope{}, apperr.Validation("invalid token")
	}

	return repository.NewScope(userID)
}
