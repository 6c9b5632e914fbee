package usecase

import (
	"villa-booking/internal/domain/booking"
	"villa-booking/internal/domain/user"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/pkg/jwt"

	"github.com/google/uuid"
)

var ErrInvalidCredentialsToken = errs.New("bearer token rejected")

// TokenValidator provides token validation for middleware
type TokenValidator interface {
	ValidateToken(tokenString string) (uuid.UUID, user.Role, error)
}

type tokenValidatorImpl struct {
	jwtService *jwt.Service
}

func NewTokenValidator(jwtService *jwt.Service) TokenValidator {
	return &tokenValidatorImpl{
		jwtService: jwtService,
	}
}

func (t *tokenValidatorImpl) ValidateToken(tokenString string) (uuid.UUID, user.Role, error) {
	claims, err := t.jwtService.ValidateToken(tokenString)
	if err != nil {
		return uuid.Nil, "", errs.Mark(err, ErrInvalidCredentialsToken)
	}

	role, err := user.NewRole(claims.Role)
	if err != nil {
		return uuid.Nil, "", errs.Mark(err, ErrInvalidCredentialsToken)
	}

	return claims.UserID, role, nil
}

// ActorOf builds the booking actor for an authenticated principal.
func ActorOf(userID uuid.UUID, role user.Role) booking.Actor {
	return booking.Actor{ID: userID, Role: role}
}
