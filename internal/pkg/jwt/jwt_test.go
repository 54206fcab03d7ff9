//go:build unit

package jwt_test

import (
	"testing"
	"time"

	"toolrental/internal/domain/user"
	"toolrental/internal/pkg/jwt"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService(t *testing.T) {
	svc := jwt.NewService("test-secret", time.Hour)
	userID := uuid.New()

	t.Run("round trip", func(t *testing.T) {
		token, err := svc.GenerateToken(userID, user.RoleProvider)
		require.NoError(t, err)

		claims, err := svc.ValidateToken(token)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, "provider", claims.Role)
		assert.Equal(t, userID.String(), claims.Subject)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := svc.GenerateTokenAt(userID, user.RoleRenter, time.Now().Add(-2*time.Hour))
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrExpiredToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := jwt.NewService("other-secret", time.Hour).GenerateToken(userID, user.RoleRenter)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("unsigned token", func(t *testing.T) {
		token, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, jwt.Claims{UserID: userID, Role: "renter"}).
			SignedString(jwtlib.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("missing user id", func(t *testing.T) {
		token, err := svc.GenerateToken(uuid.Nil, user.RoleRenter)
		require.NoError(t, err)

		_, err = svc.ValidateToken(token)
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.ValidateToken("not.a.jwt")
		assert.ErrorIs(t, err, jwt.ErrInvalidToken)
	})
}
