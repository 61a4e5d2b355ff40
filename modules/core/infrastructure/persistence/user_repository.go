package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/pubdesk/pubdesk/modules/core/domain/aggregates/user"
	"github.com/pubdesk/pubdesk/pkg/composables"
	"github.com/pubdesk/pubdesk/pkg/repo"
)

var (
	ErrUserNotFound = errors.New("user not found")
)

const (
	userFindQuery = `
        SELECT
            u.id,
            u.name,
            u.email,
            u.institution_id,
            u.password_hash,
            u.active,
            u.locked,
            u.deleted_at,
            u.created_at,
            u.updated_at
        FROM users u`

	userInsertQuery = `
        INSERT INTO users (name, email, institution_id, password_hash, active, locked)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`

	userUpdateQuery = `
        UPDATE users
           SET name = $2, email = $3, institution_id = $4, updated_at = now()
         WHERE id = $1 AND deleted_at IS NULL`

	userSetLockedQuery = `UPDATE users SET locked = $2, updated_at = now() WHERE id = $1`

	userSetActiveQuery = `UPDATE users SET active = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`

	userSetPasswordQuery = `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`

	userSoftDeleteQuery = `
        UPDATE users
           SET deleted_at = now(), active = false, updated_at = now()
         WHERE id = $1 AND deleted_at IS NULL`

	userExistsQuery = `SELECT 1 FROM users u WHERE u.id = $1 AND u.deleted_at IS NULL`

	userActiveByEmailQuery = `SELECT 1 FROM users u WHERE lower(u.email) = lower($1) AND u.active AND u.deleted_at IS NULL`
)

type PgUserRepository struct{}

func NewUserRepository() user.Repository {
	return &PgUserRepository{}
}

func (m userRow) toDomain() *user.User {
	var institutionID *uint
	if m.InstitutionID != nil {
		v := uint(*m.InstitutionID)
		institutionID = &v
	}
	return user.New(
		m.Name,
		m.Email,
		user.WithID(uint(m.ID)),
		user.WithInstitutionID(institutionID),
		user.WithPasswordHash(m.PasswordHash),
		user.WithActive(m.Active),
		user.WithLocked(m.Locked),
		user.WithDeletedAt(m.DeletedAt),
		user.WithCreatedAt(m.CreatedAt),
		user.WithUpdatedAt(m.UpdatedAt),
	)
}

func scanUser(row pgx.Row) (*user.User, error) {
	var m userRow
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Email,
		&m.InstitutionID,
		&m.PasswordHash,
		&m.Active,
		&m.Locked,
		&m.DeletedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return m.toDomain(), nil
}

func (g *PgUserRepository) Create(ctx context.Context, u *user.User) (uint, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var institutionID *int64
	if u.InstitutionID() != nil {
		v := int64(*u.InstitutionID())
		institutionID = &v
	}

	var id int64
	if err := tx.QueryRow(
		ctx,
		userInsertQuery,
		u.Name(),
		u.Email(),
		institutionID,
		u.PasswordHash(),
		u.Active(),
		u.Locked(),
	).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "failed to create user")
	}
	return uint(id), nil
}

func (g *PgUserRepository) GetByID(ctx context.Context, id uint) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(userFindQuery, repo.JoinWhere("u.id = $1", "u.deleted_at IS NULL"))
	u, err := scanUser(tx.QueryRow(ctx, q, int64(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "failed to get user")
	}
	return u, nil
}

func (g *PgUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(userFindQuery, repo.JoinWhere("lower(u.email) = lower($1)", "u.deleted_at IS NULL"))
	u, err := scanUser(tx.QueryRow(ctx, q, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "failed to get user by email")
	}
	return u, nil
}

func (g *PgUserRepository) ExistsActiveByEmail(ctx context.Context, email string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, repo.Exists(userActiveByEmailQuery), email).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check user email")
	}
	return exists, nil
}

func (g *PgUserRepository) Exists(ctx context.Context, id uint) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, repo.Exists(userExistsQuery), int64(id)).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check user existence")
	}
	return exists, nil
}

func (g *PgUserRepository) Update(ctx context.Context, id uint, fields user.UpdateFields) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	var institutionID *int64
	if fields.InstitutionID != nil {
		v := int64(*fields.InstitutionID)
		institutionID = &v
	}

	if _, err := tx.Exec(ctx, userUpdateQuery, int64(id), fields.Name, fields.Email, institutionID); err != nil {
		return errors.Wrap(err, "failed to update user")
	}
	return nil
}

func (g *PgUserRepository) SetLocked(ctx context.Context, id uint, locked bool) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, userSetLockedQuery, int64(id), locked); err != nil {
		return errors.Wrap(err, "failed to set user lock")
	}
	return nil
}

func (g *PgUserRepository) SetActive(ctx context.Context, id uint, active bool) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, userSetActiveQuery, int64(id), active); err != nil {
		return errors.Wrap(err, "failed to set user active flag")
	}
	return nil
}

func (g *PgUserRepository) SetPasswordHash(ctx context.Context, id uint, hash string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, userSetPasswordQuery, int64(id), hash); err != nil {
		return errors.Wrap(err, "failed to set user password")
	}
	return nil
}

func (g *PgUserRepository) SoftDelete(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, userSoftDeleteQuery, int64(id)); err != nil {
		return errors.Wrap(err, "failed to delete user")
	}
	return nil
}
