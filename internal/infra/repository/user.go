package repository

import (
	"context"
	"log/slog"
	"time"

	"villa-booking/internal/domain/user"
	"villa-booking/internal/infra"
	"villa-booking/internal/infra/db"
	"villa-booking/internal/pkg/pgconv"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const usersTable = "users"

var userColumns = []string{
	"id", "email", "display_name", "password_hash", "role",
	"last_login", "is_active", "created_at", "updated_at",
}

type UserRepository struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewUserRepository(dbtx db.DBTX, logger *slog.Logger) *UserRepository {
	return &UserRepository{
		db:     dbtx,
		logger: logger,
	}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	query, args, err := psql.Insert(usersTable).
		Columns("id", "email", "display_name", "password_hash", "role", "is_active").
		Values(u.ID(), u.Email().Value(), u.DisplayName(), u.PasswordHash(), u.Role().String(), u.IsActive()).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build user insert", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return infra.WrapPgErr(r.logger, "failed to create user", err)
	}
	return nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email user.Email) (*user.User, error) {
	return r.findOne(ctx, psql.Select(userColumns...).From(usersTable).Where(sq.Eq{"email": email.Value()}))
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return r.findOne(ctx, psql.Select(userColumns...).From(usersTable).Where(sq.Eq{"id": id}))
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	query, args, err := psql.Update(usersTable).
		Set("last_login", at).
		Set("updated_at", at).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build last login update", err)
	}

	if _, err := r.db.Exec(ctx, query, args...); err != nil {
		return infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to update user last login", err)
	}
	return nil
}

func (r *UserRepository) findOne(ctx context.Context, builder sq.SelectBuilder) (*user.User, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "failed to build user query", err)
	}

	u, err := scanUser(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, infra.WrapRepoErr(r.logger, infra.KindNotFound, "user not found", err)
		}
		return nil, infra.WrapPgErr(r.logger, "failed to find user", err)
	}
	return u, nil
}

func scanUser(row pgx.Row) (*user.User, error) {
	var (
		id                       uuid.UUID
		email, displayName, hash string
		role                     string
		lastLogin                pgtype.Timestamptz
		isActive                 bool
		createdAt, updatedAt     pgtype.Timestamptz
	)
	if err := row.Scan(&id, &email, &displayName, &hash, &role, &lastLogin, &isActive, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	e, err := user.NewEmail(email)
	if err != nil {
		return nil, err
	}
	rl, err := user.NewRole(role)
	if err != nil {
		return nil, err
	}
	return user.ReconstructUser(
		id, e, displayName, hash, rl,
		pgconv.TimePtrFromPgtype(lastLogin), isActive,
		createdAt.Time, updatedAt.Time,
	), nil
}
