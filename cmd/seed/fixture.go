package main

import (
	"context"
	"fmt"
	"log/slog"

	"villa-booking/internal/domain/resource"
	"villa-booking/internal/domain/user"
	"villa-booking/internal/infra"
	"villa-booking/internal/usecase/shared"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// seedNamespace derives stable resource ids from names so re-running the
// seed does not duplicate villas.
var seedNamespace = uuid.MustParse("0f7c5a9e-6a51-4d43-9d2b-6c1f1e1b6b3a")

type Fixture struct {
	Users     []UserFixture     `toml:"users"`
	Resources []ResourceFixture `toml:"resources"`
}

type UserFixture struct {
	Email       string `toml:"email"`
	DisplayName string `toml:"display_name"`
	Password    string `toml:"password"`
	Role        string `toml:"role"`
}

type ResourceFixture struct {
	Name        string `toml:"name"`
	Kind        string `toml:"kind"`
	Owner       string `toml:"owner"`
	WeekdayRate int64  `toml:"weekday_rate"`
	WeekendRate int64  `toml:"weekend_rate"`
	FlatRate    int64  `toml:"flat_rate"`
}

func LoadFixture(path string) (Fixture, error) {
	var f Fixture
	md, err := toml.DecodeFile(path, &f)
	if err != nil {
		return Fixture{}, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Fixture{}, fmt.Errorf("unknown keys in %s: %v", path, undecoded)
	}
	return f, nil
}

type Seeder struct {
	uow    shared.UnitOfWork
	hash   func(string) (string, error)
	logger *slog.Logger
}

func NewSeeder(uow shared.UnitOfWork, hash func(string) (string, error), logger *slog.Logger) *Seeder {
	return &Seeder{uow: uow, hash: hash, logger: logger}
}

// Run inserts every user and resource that does not exist yet, in one
// transaction.
func (s *Seeder) Run(ctx context.Context, f Fixture) error {
	return s.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		owners := make(map[string]uuid.UUID, len(f.Users))
		for _, uf := range f.Users {
			id, err := s.seedUser(ctx, tx, uf)
			if err != nil {
				return fmt.Errorf("user %s: %w", uf.Email, err)
			}
			owners[uf.Email] = id
		}
		for _, rf := range f.Resources {
			if err := s.seedResource(ctx, tx, rf, owners); err != nil {
				return fmt.Errorf("resource %s: %w", rf.Name, err)
			}
		}
		return nil
	})
}

func (s *Seeder) seedUser(ctx context.Context, tx shared.Tx, uf UserFixture) (uuid.UUID, error) {
	email, err := user.NewEmail(uf.Email)
	if err != nil {
		return uuid.Nil, err
	}
	if existing, err := tx.Users().FindByEmail(ctx, email); err == nil {
		s.logger.Info("User already present", "email", email.Value())
		return existing.ID(), nil
	} else if !infra.IsKind(err, infra.KindNotFound) {
		return uuid.Nil, err
	}

	if _, err := user.NewPassword(uf.Password); err != nil {
		return uuid.Nil, err
	}
	role, err := user.NewRole(uf.Role)
	if err != nil {
		return uuid.Nil, err
	}
	hash, err := s.hash(uf.Password)
	if err != nil {
		return uuid.Nil, err
	}
	u, err := user.NewUser(email, uf.DisplayName, hash, role)
	if err != nil {
		return uuid.Nil, err
	}
	if err := tx.Users().Create(ctx, u); err != nil {
		return uuid.Nil, err
	}
	s.logger.Info("User created", "email", email.Value(), "role", role)
	return u.ID(), nil
}

func (s *Seeder) seedResource(ctx context.Context, tx shared.Tx, rf ResourceFixture, owners map[string]uuid.UUID) error {
	ownerID, ok := owners[rf.Owner]
	if !ok {
		return fmt.Errorf("owner %q is not defined in [[users]]", rf.Owner)
	}
	kind, err := resource.NewKind(rf.Kind)
	if err != nil {
		return err
	}
	rates, err := resource.NewRateSchedule(rf.WeekdayRate, rf.WeekendRate, rf.FlatRate)
	if err != nil {
		return err
	}
	id := uuid.NewSHA1(seedNamespace, []byte(rf.Name))
	if _, err := tx.Resources().FindByID(ctx, id); err == nil {
		s.logger.Info("Resource already present", "name", rf.Name, "id", id)
		return nil
	} else if !infra.IsKind(err, infra.KindNotFound) {
		return err
	}

	res, err := resource.NewResource(id, rf.Name, kind, rates, ownerID)
	if err != nil {
		return err
	}
	if err := tx.Resources().Create(ctx, res); err != nil {
		return err
	}
	s.logger.Info("Resource created", "name", rf.Name, "id", id, "kind", kind)
	return nil
}
