//go:build unit

package commands_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"villa-booking/internal/domain/user"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/jwt"
	"villa-booking/internal/pkg/password"
	"villa-booking/internal/pkg/testutil/memstore"
	"villa-booking/internal/usecase/commands"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestLogin(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	clk := clock.NewMockClock(now)
	store := memstore.New()

	hash, err := password.HashPasswordWithCost("correct-horse", bcrypt.MinCost)
	require.NoError(t, err)

	newUser := func(email string, active bool) *user.User {
		e, err := user.NewEmail(email)
		require.NoError(t, err)
		u := user.ReconstructUser(uuid.New(), e, "Hana Host", hash, user.RoleHost, nil, active, now, now)
		store.AddUser(u)
		return u
	}
	host := newUser("host@example.com", true)
	newUser("retired@example.com", false)

	jwtService := jwt.NewService("test-secret", time.Hour, clk)
	auth := commands.NewAuthCommands(store, jwtService, clk, slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("正常系: トークンが発行される", func(t *testing.T) {
		result, err := auth.Login(ctx, "  HOST@example.com ", "correct-horse")
		require.NoError(t, err)
		assert.NotEmpty(t, result.AccessToken)
		assert.Equal(t, time.Hour, result.ExpiresIn)
		assert.Equal(t, host.ID(), result.User.ID)

		claims, err := jwtService.ValidateToken(result.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, host.ID(), claims.UserID)
	})

	t.Run("異常系", func(t *testing.T) {
		testCases := []struct {
			name     string
			email    string
			password string
			want     error
		}{
			{"wrong password", "host@example.com", "wrong-password", commands.ErrInvalidCredentials},
			{"unknown email", "nobody@example.com", "correct-horse", commands.ErrInvalidCredentials},
			{"malformed email", "not-an-email", "correct-horse", commands.ErrInvalidCredentials},
			{"short password", "host@example.com", "short", commands.ErrInvalidCredentials},
			{"inactive user", "retired@example.com", "correct-horse", commands.ErrUserInactive},
			{"inactive user with wrong password", "retired@example.com", "wrong-password", commands.ErrInvalidCredentials},
		}
		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := auth.Login(ctx, tc.email, tc.password)
				require.Error(t, err)
				assert.True(t, errs.Is(err, tc.want), "got %v", err)
			})
		}
	})
}
