package persistence

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"

	"github.com/pubdesk/pubdesk/modules/publication/domain/aggregates/publication"
	"github.com/pubdesk/pubdesk/pkg/composables"
	"github.com/pubdesk/pubdesk/pkg/repo"
)

var (
	ErrPublicationNotFound = errors.New("publication not found")
)

const (
	publicationFindQuery = `
        SELECT
            p.id,
            p.title,
            p.institution_id,
            p.submitted_by,
            p.document_path,
            p.active,
            p.locked,
            p.deleted_at,
            p.created_at,
            p.updated_at
        FROM publications p`

	publicationInsertQuery = `
        INSERT INTO publications (title, institution_id, submitted_by, document_path, active, locked)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id`

	publicationUpdateQuery = `
        UPDATE publications
           SET title = $2, institution_id = $3, document_path = $4, updated_at = now()
         WHERE id = $1 AND deleted_at IS NULL`

	publicationSetLockedQuery = `UPDATE publications SET locked = $2, updated_at = now() WHERE id = $1`

	publicationSetActiveQuery = `UPDATE publications SET active = $2, updated_at = now() WHERE id = $1 AND deleted_at IS NULL`

	publicationSoftDeleteQuery = `
        UPDATE publications
           SET deleted_at = now(), active = false, updated_at = now()
         WHERE id = $1 AND deleted_at IS NULL`

	publicationExistsQuery = `SELECT 1 FROM publications p WHERE p.id = $1 AND p.deleted_at IS NULL`

	publicationActiveByTitleQuery = `
        SELECT 1 FROM publications p
         WHERE p.institution_id = $1 AND lower(p.title) = lower($2) AND p.active AND p.deleted_at IS NULL`
)

type publicationRow struct {
	ID            int64
	Title         string
	InstitutionID int64
	SubmittedBy   int64
	DocumentPath  *string
	Active        bool
	Locked        bool
	DeletedAt     *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (m publicationRow) toDomain() *publication.Publication {
	opts := []publication.Option{
		publication.WithID(uint(m.ID)),
		publication.WithActive(m.Active),
		publication.WithLocked(m.Locked),
		publication.WithDeletedAt(m.DeletedAt),
		publication.WithCreatedAt(m.CreatedAt),
		publication.WithUpdatedAt(m.UpdatedAt),
	}
	if m.DocumentPath != nil {
		opts = append(opts, publication.WithDocumentPath(*m.DocumentPath))
	}
	return publication.New(m.Title, uint(m.InstitutionID), uint(m.SubmittedBy), opts...)
}

func scanPublication(row pgx.Row) (*publication.Publication, error) {
	var m publicationRow
	if err := row.Scan(
		&m.ID,
		&m.Title,
		&m.InstitutionID,
		&m.SubmittedBy,
		&m.DocumentPath,
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

type PgPublicationRepository struct{}

func NewPublicationRepository() publication.Repository {
	return &PgPublicationRepository{}
}

func (g *PgPublicationRepository) Create(ctx context.Context, p *publication.Publication) (uint, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}

	var id int64
	if err := tx.QueryRow(
		ctx,
		publicationInsertQuery,
		p.Title(),
		int64(p.InstitutionID()),
		int64(p.SubmittedBy()),
		p.DocumentPath(),
		p.Active(),
		p.Locked(),
	).Scan(&id); err != nil {
		return 0, errors.Wrap(err, "failed to create publication")
	}
	return uint(id), nil
}

func (g *PgPublicationRepository) GetByID(ctx context.Context, id uint) (*publication.Publication, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	q := repo.Join(publicationFindQuery, repo.JoinWhere("p.id = $1", "p.deleted_at IS NULL"))
	p, err := scanPublication(tx.QueryRow(ctx, q, int64(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPublicationNotFound
		}
		return nil, errors.Wrap(err, "failed to get publication")
	}
	return p, nil
}

func (g *PgPublicationRepository) Exists(ctx context.Context, id uint) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, repo.Exists(publicationExistsQuery), int64(id)).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check publication existence")
	}
	return exists, nil
}

func (g *PgPublicationRepository) ExistsActiveByTitle(ctx context.Context, institutionID uint, title string) (bool, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return false, err
	}

	var exists bool
	if err := tx.QueryRow(ctx, repo.Exists(publicationActiveByTitleQuery), int64(institutionID), title).Scan(&exists); err != nil {
		return false, errors.Wrap(err, "failed to check publication title")
	}
	return exists, nil
}

func (g *PgPublicationRepository) Update(ctx context.Context, id uint, fields publication.UpdateFields) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(
		ctx,
		publicationUpdateQuery,
		int64(id),
		fields.Title,
		int64(fields.InstitutionID),
		fields.DocumentPath,
	); err != nil {
		return errors.Wrap(err, "failed to update publication")
	}
	return nil
}

func (g *PgPublicationRepository) SetLocked(ctx context.Context, id uint, locked bool) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, publicationSetLockedQuery, int64(id), locked); err != nil {
		return errors.Wrap(err, "failed to set publication lock")
	}
	return nil
}

func (g *PgPublicationRepository) SetActive(ctx context.Context, id uint, active bool) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, publicationSetActiveQuery, int64(id), active); err != nil {
		return errors.Wrap(err, "failed to set publication active flag")
	}
	return nil
}

func (g *PgPublicationRepository) SoftDelete(ctx context.Context, id uint) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, publicationSoftDeleteQuery, int64(id)); err != nil {
		return errors.Wrap(err, "failed to delete publication")
	}
	return nil
}
