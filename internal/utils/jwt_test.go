package utils

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"micro_marketplace/internal/model"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestJWTUtil_GenerateToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)

	tokenString, err := jwtUtil.GenerateToken(1, model.RoleUser, "Alice")
	require.NoError(t, err)
	assert.NotEmpty(t, tokenString)

	claims, err := jwtUtil.ValidateToken(tokenString)
	require.NoError(t, err)
	assert.Equal(t, int64(1), claims.UserID)
	assert.Equal(t, model.RoleUser, claims.Role)
	assert.Equal(t, "Alice", claims.Name)
	assert.Equal(t, "1", claims.Subject)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestJWTUtil_ValidateToken_ExpiryBoundary(t *testing.T) {
	issued := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	ttl := time.Hour
	expiry := issued.Add(ttl)

	signer := NewJWTUtil("secret", ttl).WithClock(fixedClock(issued))
	tokenString, err := signer.GenerateToken(7, model.RoleAdmin, "Root")
	require.NoError(t, err)

	tests := []struct {
		name    string
		now     time.Time
		wantErr error
	}{
		{"at issue", issued, nil},
		{"one second before expiry", expiry.Add(-time.Second), nil},
		{"at expiry", expiry, ErrExpiredToken},
		{"after expiry", expiry.Add(time.Second), ErrExpiredToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := signer.WithClock(fixedClock(tt.now)).ValidateToken(tokenString)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, claims)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, int64(7), claims.UserID)
			assert.Equal(t, model.RoleAdmin, claims.Role)
		})
	}
}

func TestJWTUtil_ValidateToken_SignatureBitFlip(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)
	tokenString, err := jwtUtil.GenerateToken(1, model.RoleUser, "Alice")
	require.NoError(t, err)

	parts := strings.Split(tokenString, ".")
	require.Len(t, parts, 3)
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	for i := 0; i < len(sig); i++ {
		for bit := 0; bit < 8; bit++ {
			corrupted := make([]byte, len(sig))
			copy(corrupted, sig)
			corrupted[i] ^= 1 << bit

			forged := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(corrupted)
			_, err := jwtUtil.ValidateToken(forged)
			require.ErrorIs(t, err, ErrMalformedToken, "byte %d bit %d", i, bit)
		}
	}
}

func TestJWTUtil_ValidateToken_InvalidToken(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)

	for _, raw := range []string{"", "invalid.token.string", "a.b", "not-a-token"} {
		_, err := jwtUtil.ValidateToken(raw)
		assert.ErrorIs(t, err, ErrMalformedToken, raw)
	}
}

func TestJWTUtil_ValidateToken_WrongSecret(t *testing.T) {
	jwtUtil1 := NewJWTUtil("secret1", time.Hour)
	jwtUtil2 := NewJWTUtil("secret2", time.Hour)

	tokenString, _ := jwtUtil1.GenerateToken(1, model.RoleUser, "Alice")

	_, err := jwtUtil2.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestJWTUtil_ValidateToken_InvalidSigningMethod(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)
	claims := &JWTClaims{
		UserID: 1,
		Role:   model.RoleUser,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, claims)
	// Same secret; HS384 must still be refused
	tokenString, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = jwtUtil.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrMalformedToken)
}

func TestJWTUtil_ValidateToken_MissingExpiry(t *testing.T) {
	jwtUtil := NewJWTUtil("secret", time.Hour)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, &JWTClaims{UserID: 1, Role: model.RoleUser})
	tokenString, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = jwtUtil.ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrMalformedToken)
}
