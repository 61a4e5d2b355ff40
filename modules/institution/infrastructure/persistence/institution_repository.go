package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/pubdesk/pubdesk/modules/institution/domain/aggregates/institution"
	"github.com/pubdesk/pubdesk/pkg/composables"
	"github.com/pubdesk/pubdesk/pkg/repo"
)

var (
	ErrInstitutionNotFound = errors.New("institution not found")
)

const (
	institutionFindQuery = `
        SELECT
            i.id,
            i.name,
            i.sector,
            i.rc_number,
            i.registered_address,
            i.link,
            i.logo_path,
            i.active,
            i.locked,
            i.deleted_at,
            i.created_at,
            i.updated_at
        FROM institutions i`

	institutionInsertQuery = `
        INSERT INTO institutions (
            name, sector, rc_number, registered_address, link, logo_path, active, locked
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id`

	institutionUpdateQuery = `
        UPDATE institutions
           SET name = $2,
               sector = $3,
               rc_number = $4,
               registered_address = $5,
               link = $6,
               logo_path = $7,
               updated_at = now()
         WHERE id = $1 AND deleted_at IS NULL`

	institutionSetLockedQuery = `UPDATE institutions SET locked = $2, updated_at = now() WHERE id = $1`

	institutionSetActiveQuery = `UPDATE institutions SET active = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`

	institutionSoftDeleteQuery = `
        UPDATE institutions
           SET deleted_at = now(), active = false, updated_at = now()
         WHERE id = $1 AND deleted_at IS NULL`

	institutionExistsQuery = `SELECT 1 FROM institutions i WHERE i.id = $1 AND i.deleted_at IS NULL`

	institutionActiveByRCQuery = `SELECT 1 FROM institutions i WHERE lower(i.rc_number) = lower($1) AND i.active AND i.deleted_at IS NULL`
)

type institutionRow struct {
	ID                int64
	Name              string
	Sector            string
	RCNumber          string
	RegisteredAddress *string
	Link              *string
	LogoPath          *string
	Active            bool
	Locked            bool
	DeletedAt         *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (m institutionRow) toDomain() *institution.Institution {
	opts := []institution.Option{
		institution.WithID(uint(m.ID)),
		institution.WithActive(m.Active),
		institution.WithLocked(m.Locked),
		institution.WithDeletedAt(m.DeletedAt),
		institution.WithCreatedAt(m.CreatedAt),
		institution.WithUpdatedAt(m.UpdatedAt),
	}
	if m.RegisteredAddress != nil {
		opts = append(opts, institution.WithRegisteredAddress(*m.RegisteredAddress))
	}
	if m.Link != nil {
		opts = append(opts, institution.WithLink(*m.Link))
	}
	if m.LogoPath != nil {
		opts = append(opts, institution.WithLogoPath(*m.LogoPath))
	}
	return institution.New(m.Name, m.Sector, m.RCNumber, opts...)
}

func scanInstitution(row pgx.Row) (*institution.Institution, error) {
	var m institutionRow
	if err := row.Scan(
		&m.ID,
		&m.Name,
		&m.Sector,
		&m.RCNumber,
		&m.RegisteredAddress,
		&m.Link,
		&m.LogoPath,
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

type PgInstitutionRepository struct{}

func NewInstitutionRepository() institution.Repository {
	return &PgInstitutionRepository{}
}

func (g *PgInstitutionRepository) Create(ctx context.Context, i *institution.Institution) (uint, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow(
		ctx,
		institutionInsertQuery,
		i.Name(),
		i.Sector(),
		i.RCNumber(),
		i.RegisteredAddress(),
		i.Link(),
		i.LogoPath(),
		i.Active(),
		i.Locked(),
	).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "failed to create institution")
	}
	return uint(id), nil
}

func (g *PgInstitutionRepository) GetByID(ctx context.Context, id uint) (*institution.Institution, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(institutionFindQuery, repo.JoinWhere("i.id = $1", "i.deleted_at IS NULL"))
	i, err := scanInstitution(tx.QueryRow(ctx, q, int64(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInstitutionNotFound
		}
		return nil, errors.Wrap(err, "failed to get institution")
	}
	return i, nil
}

func (g *PgInstitutionRepository) Exists(ctx context.Context, id uint) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, repo.Exists(institutionExistsQuery), int64(id)).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check institution existence")
	}
	return exists, nil
}

func (g *PgInstitutionRepository) ExistsActiveByRCNumber(ctx context.Context, rcNumber string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, repo.Exists(institutionActiveByRCQuery), rcNumber).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check rc number")
	}
	return exists, nil
}

func (g *PgInstitutionRepository) Update(ctx context.Context, id uint, fields institution.UpdateFields) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		ctx,
		institutionUpdateQuery,
		int64(id),
		fields.Name,
		fields.Sector,
		fields.RCNumber,
		fields.RegisteredAddress,
		fields.Link,
		fields.LogoPath,
	); err != nil {
		return errors.Wrap(err, "failed to update institution")
	}
	return nil
}

func (g *PgInstitutionRepository) SetLocked(ctx context.Context, id uint, locked bool) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, institutionSetLockedQuery, int64(id), locked); err != nil {
		return errors.Wrap(err, "failed to set institution lock")
	}
	return nil
}

func (g *PgInstitutionRepository) SetActive(ctx context.Context, id uint, active bool) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, institutionSetActiveQuery, int64(id), active); err != nil {
		return errors.Wrap(err, "failed to set institution active flag")
	}
	return nil
}

func (g *PgInstitutionRepository) SoftDelete(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, institutionSoftDeleteQuery, int64(id)); err != nil {
		return errors.Wrap(err, "failed to delete institution")
	}
	return nil
}
