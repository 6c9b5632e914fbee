package queries

import (
	"context"

	"villa-booking/internal/infra"
	"villa-booking/internal/pkg/errs"
	"villa-booking/internal/usecase/shared"

	"github.com/google/uuid"
)

var (
	ErrUserNotFound = errs.New("user does not exist")
	ErrUserInactive = errs.New("user is deactivated")
)

type UserQueries interface {
	GetCurrentUser(ctx context.Context, userID uuid.UUID) (*AuthorizedUserView, error)
}

type userQueriesImpl struct {
	uow shared.UnitOfWork
}

func NewUserQueries(uow shared.UnitOfWork) UserQueries {
	return &userQueriesImpl{
		uow: uow,
	}
}

func (q *userQueriesImpl) GetCurrentUser(ctx context.Context, userID uuid.UUID) (*AuthorizedUserView, error) {
	var view AuthorizedUserView
	err := q.uow.WithinReadOnly(ctx, func(ctx context.Context, tx shared.Tx) error {
		u, err := tx.Users().FindByID(ctx, userID)
		if err != nil {
			if infra.IsKind(err, infra.KindNotFound) {
				return ErrUserNotFound
			}
			return errs.Mark(err, errs.ErrInternal)
		}
		if !u.IsActive() {
			return ErrUserInactive
		}
		view = NewAuthorizedUserView(u)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &view, nil
}
