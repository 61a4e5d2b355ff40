package persistence

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/pubdesk/pubdesk/modules/core/domain/entities/role"
	"github.com/pubdesk/pubdesk/pkg/composables"
	"github.com/pubdesk/pubdesk/pkg/repo"
)

var (
	ErrRoleNotFound = errors.New("role not found")
)

const (
	roleGetByNameQuery = `SELECT r.id, r.name FROM roles r WHERE r.name = $1`

	roleEnsureQuery = `
        INSERT INTO roles (name) VALUES ($1)
        ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
        RETURNING id, name`

	roleAssignQuery = `
        INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
        ON CONFLICT DO NOTHING`

	roleHasRoleQuery = `
        SELECT 1
          FROM user_roles ur
          JOIN roles r ON r.id = ur.role_id
         WHERE ur.user_id = $1 AND r.name = $2`

	roleUserRolesQuery = `
        SELECT r.id, r.name
          FROM user_roles ur
          JOIN roles r ON r.id = ur.role_id
         WHERE ur.user_id = $1
         ORDER BY r.name`
)

type PgRoleRepository struct{}

func NewRoleRepository() role.Repository {
	return &PgRoleRepository{}
}

func (m roleRow) toDomain() *role.Role {
	return &role.Role{ID: uint(m.ID), Name: m.Name}
}

func (g *PgRoleRepository) GetByName(ctx context.Context, name string) (*role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var m roleRow
	if err := tx.QueryRow(ctx, roleGetByNameQuery, name).Scan(&m.ID, &m.Name); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRoleNotFound
		}
		return nil, errors.Wrap(err, "failed to get role")
	}
	return m.toDomain(), nil
}

func (g *PgRoleRepository) EnsureExists(ctx context.Context, name string) (*role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var m roleRow
	if err := tx.QueryRow(ctx, roleEnsureQuery, name).Scan(&m.ID, &m.Name); err != nil {
		return nil, errors.Wrap(err, "failed to ensure role")
	}
	return m.toDomain(), nil
}

func (g *PgRoleRepository) AssignToUser(ctx context.Context, userID, roleID uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, roleAssignQuery, int64(userID), int64(roleID)); err != nil {
		return errors.Wrap(err, "failed to assign role")
	}
	return nil
}

func (g *PgRoleRepository) HasRole(ctx context.Context, userID uint, roleName string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, repo.Exists(roleHasRoleQuery), int64(userID), roleName).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check role")
	}
	return exists, nil
}

func (g *PgRoleRepository) UserRoles(ctx context.Context, userID uint) ([]*role.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, roleUserRolesQuery, int64(userID))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list user roles")
	}
	defer rows.Close()

	var out []*role.Role
	for rows.Next() {
		var m roleRow
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, errors.Wrap(err, "failed to scan role")
		}
		out = append(out, m.toDomain())
	}
	return out, rows.Err()
}
