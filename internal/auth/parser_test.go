package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, secret string, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	raw, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return raw
}

func TestParse(t *testing.T) {
	userID := uuid.New()
	tenantID := uuid.New()
	parser := NewParser("secret")

	t.Run("valid token", func(t *testing.T) {
		raw := sign(t, "secret", Claims{
			TenantID: tenantID.String(),
			Roles:    []string{"procurement_manager"},
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			},
		})

		principal, err := parser.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, userID, principal.UserID)
		assert.Equal(t, tenantID, principal.TenantID)
		assert.True(t, principal.HasAnyRole("admin", "procurement_manager"))
	})

	t.Run("wrong secret", func(t *testing.T) {
		raw := sign(t, "other", Claims{
			TenantID:         tenantID.String(),
			RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()},
		})
		_, err := parser.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		raw := sign(t, "secret", Claims{
			TenantID: tenantID.String(),
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID.String(),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
			},
		})
		_, err := parser.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("missing tenant", func(t *testing.T) {
		raw := sign(t, "secret", Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: userID.String()}})
		_, err := parser.Parse(raw)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}
