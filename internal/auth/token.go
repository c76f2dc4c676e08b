// Package auth verifies the bearer tokens presented on admin routes.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

// RoleAdmin is the role claim required on admin routes.
const RoleAdmin = "admin"

// Token errors. All of them wrap domain.ErrUnauthorized.
var (
	ErrMissingToken  = fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized)
	ErrInvalidToken  = fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	ErrExpiredToken  = fmt.Errorf("%w: token expired", domain.ErrUnauthorized)
	ErrNotAdmin      = fmt.Errorf("%w: admin role required", domain.ErrUnauthorized)
	ErrNotConfigured = fmt.Errorf("%w: admin authentication is not configured", domain.ErrUnauthorized)
)

// Admin is the authenticated caller of an admin route.
type Admin struct {
	Subject string
	Email   string
}

// AdminVerifier checks HS256 tokens carrying an admin role. The role is
// read from the top-level "role" claim or from "app_metadata.role".
type AdminVerifier struct {
	secret []byte
}

// NewAdminVerifier creates a verifier. An empty secret rejects every token.
func NewAdminVerifier(secret string) *AdminVerifier {
	return &AdminVerifier{secret: []byte(secret)}
}

// Verify validates tokenString and returns the admin it identifies.
func (v *AdminVerifier) Verify(tokenString string) (*Admin, error) {
	if len(v.secret) == 0 {
		return nil, ErrNotConfigured
	}
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidToken
	}
	if roleClaim(claims) != RoleAdmin {
		return nil, ErrNotAdmin
	}

	sub, _ := claims["sub"].(string)
	email, _ := claims["email"].(string)
	return &Admin{Subject: sub, Email: email}, nil
}

// Generate signs an admin token for subject.
func (v *AdminVerifier) Generate(subject string, expiresIn time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", ErrNotConfigured
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  subject,
		"role": RoleAdmin,
		"iat":  now.Unix(),
		"exp":  now.Add(expiresIn).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

func roleClaim(claims jwt.MapClaims) string {
	if role, ok := claims["role"].(string); ok && role != "" {
		return role
	}
	if meta, ok := claims["app_metadata"].(map[string]interface{}); ok {
		role, _ := meta["role"].(string)
		return role
	}
	return ""
}

// BearerToken extracts the token of an Authorization header value.
func BearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}
