package auth

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"platformo/internal/domain"
	"platformo/internal/domain/models"
)

func newTestVerifier(t *testing.T) (*SupabaseJWTVerifier, *ecdsa.PrivateKey) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	v := NewJWTVerifierWithKeyfunc(func(*jwt.Token) (interface{}, error) {
		return &key.PublicKey, nil
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return v, key
}

func sign(t *testing.T, key *ecdsa.PrivateKey, claims *models.SupabaseClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodES256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims() *models.SupabaseClaims {
	return &models.SupabaseClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "2d1f7c6e-8a43-4f4e-9a53-5b8c1e0d7a11",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Role:  "authenticated",
		Email: "demo@example.com",
	}
}

func TestVerifyToken_Valid(t *testing.T) {
	v, key := newTestVerifier(t)

	claims, err := v.VerifyToken(sign(t, key, validClaims()))
	require.NoError(t, err)
	assert.Equal(t, "2d1f7c6e-8a43-4f4e-9a53-5b8c1e0d7a11", claims.GetUserID())
	assert.Equal(t, "demo@example.com", claims.Email)
	assert.NoError(t, v.Close())
}

func TestVerifyToken_Rejects(t *testing.T) {
	v, key := newTestVerifier(t)
	otherKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	expired := validClaims()
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	noExpiry := validClaims()
	noExpiry.ExpiresAt = nil

	anon := validClaims()
	anon.Role = "anon"

	noSubject := validClaims()
	noSubject.Subject = ""

	hmacToken, err := jwt.NewWithClaims(jwt.SigningMethodHS256, validClaims()).SignedString([]byte("secret"))
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-jwt"},
		{"expired", sign(t, key, expired)},
		{"no expiry", sign(t, key, noExpiry)},
		{"anonymous role", sign(t, key, anon)},
		{"no subject", sign(t, key, noSubject)},
		{"wrong key", sign(t, otherKey, validClaims())},
		{"symmetric algorithm", hmacToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.VerifyToken(tt.token)
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}
}
