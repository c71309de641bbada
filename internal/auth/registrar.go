package auth

import (
	"context"
	"database/sql"

	"github.com/fairops/fairadmin/internal/repository"
)

// Registrar provisions a complete pending account: user row, profile row
// and the default sales role, committed atomically. The gate's profile
// retry still covers deployments where profiles are provisioned out of
// band, but within this service registration is a single transaction.
type Registrar struct {
	DB         *sql.DB
	Users      *repository.UserRepo
	Profiles   *repository.ProfileRepo
	Roles      *repository.RoleRepo
	BcryptCost int
}

// CreateAccount implements AccountCreator.
func (r *Registrar) CreateAccount(ctx context.Context, email, password, name string) (uint64, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	uid, err := r.Users.Create(ctx, tx, email, password, r.BcryptCost)
	if err != nil {
		return 0, err
	}
	if err := r.Profiles.Create(ctx, tx, uid, name, email); err != nil {
		return 0, err
	}
	if err := r.Roles.Create(ctx, tx, uid, repository.RoleSales); err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return uid, nil
}
