package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yfuks/avahost-tech-test/internal/domain"
)

const testSecret = "test-secret-key-for-jwt-signing"

func signClaims(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestAdminVerifierValidToken(t *testing.T) {
	v := NewAdminVerifier(testSecret)
	token, err := v.Generate("admin-1", time.Hour)
	require.NoError(t, err)

	admin, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", admin.Subject)
}

func TestAdminVerifierAppMetadataRole(t *testing.T) {
	v := NewAdminVerifier(testSecret)
	token := signClaims(t, testSecret, jwt.MapClaims{
		"sub":          "admin-2",
		"email":        "ops@example.com",
		"app_metadata": map[string]any{"role": "admin"},
		"exp":          time.Now().Add(time.Hour).Unix(),
	})

	admin, err := v.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ops@example.com", admin.Email)
}

func TestAdminVerifierRejects(t *testing.T) {
	v := NewAdminVerifier(testSecret)
	other, err := NewAdminVerifier("different-secret").Generate("admin-1", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty token", token: "", want: ErrMissingToken},
		{name: "garbage token", token: "not-a-jwt", want: ErrInvalidToken},
		{name: "wrong secret", token: other, want: ErrInvalidToken},
		{
			name:  "guest role",
			token: signClaims(t, testSecret, jwt.MapClaims{"sub": "guest", "role": "guest", "exp": time.Now().Add(time.Hour).Unix()}),
			want:  ErrNotAdmin,
		},
		{
			name:  "expired",
			token: signClaims(t, testSecret, jwt.MapClaims{"sub": "admin", "role": "admin", "exp": time.Now().Add(-time.Hour).Unix()}),
			want:  ErrExpiredToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(tt.token)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}

func TestAdminVerifierWithoutSecret(t *testing.T) {
	v := NewAdminVerifier("")
	_, err := v.Verify("anything")
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = v.Generate("admin", time.Hour)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "", BearerToken("Basic abc"))
	assert.Equal(t, "", BearerToken(""))
	assert.Equal(t, "", BearerToken("Bearer   "))
}
