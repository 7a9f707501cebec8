package database

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
	"yeshivashop_server/config"

	"github.com/MonkyMars/gecho"
	"github.com/uptrace/bun"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Migration is one embedded SQL file, identified by its file name without extension
type Migration struct {
	Version string
	SQL     string
}

type schemaMigration struct {
	bun.BaseModel `bun:"table:schema_migrations"`

	Version   string    `bun:"version,pk"`
	AppliedAt time.Time `bun:"applied_at,notnull,default:current_timestamp"`
}

// Migrations returns the embedded migrations in version order
func Migrations() ([]Migration, error) {
	entries, err := fs.Glob(migrationFiles, "migrations/*.sql")
	if err != nil {
		return nil, err
	}
	sort.Strings(entries)

	migrations := make([]Migration, 0, len(entries))
	for _, name := range entries {
		body, err := migrationFiles.ReadFile(name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}
		version := strings.TrimSuffix(strings.TrimPrefix(name, "migrations/"), ".sql")
		migrations = append(migrations, Migration{Version: version, SQL: string(body)})
	}

	return migrations, nil
}

// Migrate applies every pending migration, each in its own transaction.
// It returns the versions that were applied.
func Migrate(ctx context.Context, db *bun.DB) ([]string, error) {
	logger := config.GetLogger()

	if _, err := db.NewCreateTable().Model((*schemaMigration)(nil)).IfNotExists().Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var applied []string
	if err := db.NewSelect().Model((*schemaMigration)(nil)).Column("version").Scan(ctx, &applied); err != nil {
		return nil, fmt.Errorf("failed to read applied migrations: %w", err)
	}
	done := make(map[string]bool, len(applied))
	for _, v := range applied {
		done[v] = true
	}

	migrations, err := Migrations()
	if err != nil {
		return nil, err
	}

	var newlyApplied []string
	for _, m := range migrations {
		if done[m.Version] {
			continue
		}

		err := Transaction(ctx, db, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
				return err
			}
			_, err := tx.NewInsert().Model(&schemaMigration{Version: m.Version}).Exec(ctx)
			return err
		})
		if err != nil {
			return newlyApplied, fmt.Errorf("migration %s failed: %w", m.Version, err)
		}

		logger.Info("Applied migration", gecho.Field("version", m.Version))
		newlyApplied = append(newlyApplied, m.Version)
	}

	return newlyApplied, nil
}
