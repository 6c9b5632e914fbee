//go:build unit

package jwt_test

import (
	"testing"
	"time"

	"villa-booking/internal/domain/user"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_RoundTrip(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	svc := jwt.NewService("secret", time.Hour, clk)
	userID := uuid.New()

	token, err := svc.GenerateToken(userID, user.RoleHost)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, "host", claims.Role)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestService_Expired(t *testing.T) {
	clk := clock.NewMockClock(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	svc := jwt.NewService("secret", time.Hour, clk)

	token, err := svc.GenerateToken(uuid.New(), user.RoleGuest)
	require.NoError(t, err)

	clk.Add(2 * time.Hour)
	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrExpiredToken)
}

func TestService_WrongSecret(t *testing.T) {
	clk := clock.NewMockClock(time.Now())
	issuerSvc := jwt.NewService("secret-a", time.Hour, clk)
	verifierSvc := jwt.NewService("secret-b", time.Hour, clk)

	token, err := issuerSvc.GenerateToken(uuid.New(), user.RoleAdmin)
	require.NoError(t, err)

	_, err = verifierSvc.ValidateToken(token)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)

	_, err = verifierSvc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}
