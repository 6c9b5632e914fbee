package commands

import (
	"context"
	"log/slog"
	"time"

	"villa-booking/internal/domain/user"
	"villa-booking/internal/pkg/clock"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/jwt"
	"villa-booking/internal/pkg/password"
	"villa-booking/internal/usecase/queries"
	"villa-booking/internal/usecase/shared"
)

var (
	ErrInvalidCredentials = errs.New("invalid email or password")
	ErrUserInactive       = errs.New("user account is inactive")
	ErrTokenGeneration    = errs.New("token generation failed")
)

type LoginResult struct {
	AccessToken string
	ExpiresIn   time.Duration
	User        queries.AuthorizedUserView
}

type AuthCommands interface {
	Login(ctx context.Context, email, pass string) (*LoginResult, error)
}

type authCommandsImpl struct {
	uow        shared.UnitOfWork
	jwtService *jwt.Service
	clock      clock.Clock
	logger     *slog.Logger
}

func NewAuthCommands(uow shared.UnitOfWork, jwtService *jwt.Service, clk clock.Clock, logger *slog.Logger) AuthCommands {
	return &authCommandsImpl{
		uow:        uow,
		jwtService: jwtService,
		clock:      clk,
		logger:     logger,
	}
}

func (a *authCommandsImpl) Login(ctx context.Context, email, pass string) (*LoginResult, error) {
	credentials, err := user.NewCredentials(email, pass)
	if err != nil {
		// Same error as a password mismatch so callers cannot enumerate accounts.
		return nil, errs.Mark(err, ErrInvalidCredentials)
	}

	u, err := a.validateUser(ctx, credentials)
	if err != nil {
		return nil, err
	}

	accessToken, err := a.jwtService.GenerateToken(u.ID(), u.Role())
	if err != nil {
		return nil, errs.Mark(err, ErrTokenGeneration)
	}

	err = a.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Users().UpdateLastLogin(ctx, u.ID(), a.clock.Now())
	})
	if err != nil {
		// Login already succeeded; only the last_login bookkeeping failed.
		a.logger.Warn("failed to update last login", "user_id", u.ID(), "error", err.Error())
	}

	return &LoginResult{
		AccessToken: accessToken,
		ExpiresIn:   a.jwtService.TokenDuration(),
		User:        queries.NewAuthorizedUserView(u),
	}, nil
}

func (a *authCommandsImpl) validateUser(ctx context.Context, credentials user.Credentials) (*user.User, error) {
	var found *user.User
	err := a.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		u, err := tx.Users().FindByEmail(ctx, credentials.Email())
		if err != nil {
			return err
		}
		found = u
		return nil
	})
	if err != nil || found == nil {
		return nil, ErrInvalidCredentials
	}

	if err := password.ComparePassword(found.PasswordHash(), credentials.Password().Value()); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Account state is only revealed to someone who knows the password.
	if !found.IsActive() {
		return nil, ErrUserInactive
	}

	return found, nil
}
