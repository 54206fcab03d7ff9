//go:build unit || e2e

package authtest

import (
	"testing"
	"time"

	"toolrental/internal/domain/user"
	"toolrental/internal/pkg/config"
	"toolrental/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type JWTHelper struct {
	cfg config.JWTConfig
}

func NewJWTHelper(cfg config.JWTConfig) *JWTHelper {
	return &JWTHelper{cfg: cfg}
}

func (h *JWTHelper) GenerateToken(t *testing.T, userID uuid.UUID, role user.Role) string {
	t.Helper()
	token, err := jwt.NewService(h.cfg.Secret, h.cfg.Duration).GenerateToken(userID, role)
	require.NoError(t, err)
	return token
}

func (h *JWTHelper) CreateExpiredToken(t *testing.T, userID uuid.UUID, role user.Role) string {
	t.Helper()
	issuedAt := time.Now().Add(-2 * h.cfg.Duration)
	token, err := jwt.NewService(h.cfg.Secret, h.cfg.Duration).GenerateTokenAt(userID, role, issuedAt)
	require.NoError(t, err)
	return token
}
