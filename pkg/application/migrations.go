package application

import (
	"context"
	"embed"
	"fmt"
	"io/fs"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
)

// MigrationManager collects per-module schema filesystems and applies them
// with goose. Each module tracks its versions in its own table so modules
// can evolve independently.
type MigrationManager interface {
	RegisterSchema(module string, fsys *embed.FS, dir string)
	Run(ctx context.Context) error
}

type schemaSet struct {
	module string
	fsys   fs.FS
}

type migrationManager struct {
	pool    *pgxpool.Pool
	schemas []schemaSet
}

func NewMigrationManager(pool *pgxpool.Pool) MigrationManager {
	return &migrationManager{pool: pool}
}

func (m *migrationManager) RegisterSchema(module string, fsys *embed.FS, dir string) {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(fmt.Sprintf("invalid schema dir %q for module %q: %v", dir, module, err))
	}
	m.schemas = append(m.schemas, schemaSet{module: module, fsys: sub})
}

func (m *migrationManager) Run(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(m.pool)
	defer func() { _ = db.Close() }()

	for _, s := range m.schemas {
		store, err := database.NewStore(goose.DialectPostgres, fmt.Sprintf("goose_%s_version", s.module))
		if err != nil {
			return fmt.Errorf("migrations for %q: %w", s.module, err)
		}
		provider, err := goose.NewProvider("", db, s.fsys, goose.WithStore(store))
		if err != nil {
			return fmt.Errorf("migrations for %q: %w", s.module, err)
		}
		if _, err := provider.Up(ctx); err != nil {
			return fmt.Errorf("migrations for %q: %w", s.module, err)
		}
	}
	return nil
}
