package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Migration is one versioned schema change. Up and Down are plain SQL that
// must run unchanged on SQLite and PostgreSQL.
type Migration struct {
	Version     int
	Description string
	Up          string
	Down        string
}

// Manager applies registered migrations in version order and records each
// one in the schema_version table
type Manager struct {
	migrations []Migration
}

// NewManager creates an empty manager
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a migration. Order of registration does not matter.
func (m *Manager) Register(migration Migration) {
	m.migrations = append(m.migrations, migration)
}

// ordered returns the migrations sorted by version, rejecting duplicate or
// non-positive versions
func (m *Manager) ordered() ([]Migration, error) {
	out := append([]Migration(nil), m.migrations...)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	for i, mig := range out {
		if mig.Version <= 0 {
			return nil, fmt.Errorf("migration %q has invalid version %d", mig.Description, mig.Version)
		}
		if i > 0 && out[i-1].Version == mig.Version {
			return nil, fmt.Errorf("duplicate migration version %d", mig.Version)
		}
	}
	return out, nil
}

// backend hides the differences between database/sql and pgx for the
// handful of statements the manager runs
type backend interface {
	exec(ctx context.Context, query string) error
	version(ctx context.Context) (int, error)
	// inTx runs stmt and then records (record=true) or forgets the version
	inTx(ctx context.Context, stmt string, mig Migration, record bool) error
}

const versionTable = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY,
		description TEXT NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`

const currentVersion = `SELECT COALESCE(MAX(version), 0) FROM schema_version`

func (m *Manager) apply(ctx context.Context, b backend) error {
	migs, err := m.ordered()
	if err != nil {
		return err
	}
	if err := b.exec(ctx, versionTable); err != nil {
		return fmt.Errorf("failed to create version table: %w", err)
	}
	current, err := b.version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	for _, mig := range migs {
		if mig.Version <= current {
			continue
		}
		if err := b.inTx(ctx, mig.Up, mig, true); err != nil {
			return fmt.Errorf("failed to apply migration %d (%s): %w", mig.Version, mig.Description, err)
		}
	}
	return nil
}

func (m *Manager) rollback(ctx context.Context, b backend) error {
	current, err := b.version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}
	if current == 0 {
		return fmt.Errorf("no migrations to rollback")
	}

	migs, err := m.ordered()
	if err != nil {
		return err
	}
	for _, mig := range migs {
		if mig.Version != current {
			continue
		}
		if err := b.inTx(ctx, mig.Down, mig, false); err != nil {
			return fmt.Errorf("failed to rollback migration %d: %w", mig.Version, err)
		}
		return nil
	}
	return fmt.Errorf("migration %d not found", current)
}

// ApplySQLite applies every pending migration to a SQLite database
func (m *Manager) ApplySQLite(ctx context.Context, db *sql.DB) error {
	return m.apply(ctx, sqlBackend{db})
}

// RollbackSQLite reverts the most recently applied migration
func (m *Manager) RollbackSQLite(ctx context.Context, db *sql.DB) error {
	return m.rollback(ctx, sqlBackend{db})
}

// ApplyPostgreSQL applies every pending migration to a PostgreSQL database
func (m *Manager) ApplyPostgreSQL(ctx context.Context, pool *pgxpool.Pool) error {
	return m.apply(ctx, pgBackend{pool})
}

// Version returns the highest applied migration version of a SQLite
// database, 0 when none has been applied
func Version(ctx context.Context, db *sql.DB) (int, error) {
	b := sqlBackend{db}
	if err := b.exec(ctx, versionTable); err != nil {
		return 0, fmt.Errorf("failed to create version table: %w", err)
	}
	return b.version(ctx)
}

type sqlBackend struct{ db *sql.DB }

func (b sqlBackend) exec(ctx context.Context, query string) error {
	_, err := b.db.ExecContext(ctx, query)
	return err
}

func (b sqlBackend) version(ctx context.Context) (int, error) {
	var v int
	err := b.db.QueryRowContext(ctx, currentVersion).Scan(&v)
	return v, err
}

func (b sqlBackend) inTx(ctx context.Context, stmt string, mig Migration, record bool) error {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, stmt); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	if record {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO schema_version (version, description, applied_at) VALUES (?, ?, ?)",
			mig.Version, mig.Description, time.Now())
	} else {
		_, err = tx.ExecContext(ctx, "DELETE FROM schema_version WHERE version = ?", mig.Version)
	}
	if err != nil {
		return fmt.Errorf("failed to update schema_version: %w", err)
	}
	return tx.Commit()
}

type pgBackend struct{ pool *pgxpool.Pool }

func (b pgBackend) exec(ctx context.Context, query string) error {
	_, err := b.pool.Exec(ctx, query)
	return err
}

func (b pgBackend) version(ctx context.Context) (int, error) {
	var v int
	err := b.pool.QueryRow(ctx, currentVersion).Scan(&v)
	return v, err
}

func (b pgBackend) inTx(ctx context.Context, stmt string, mig Migration, record bool) error {
	return pgx.BeginFunc(ctx, b.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute migration SQL: %w", err)
		}
		var err error
		if record {
			_, err = tx.Exec(ctx,
				"INSERT INTO schema_version (version, description, applied_at) VALUES ($1, $2, $3)",
				mig.Version, mig.Description, time.Now())
		} else {
			_, err = tx.Exec(ctx, "DELETE FROM schema_version WHERE version = $1", mig.Version)
		}
		if err != nil {
			return fmt.Errorf("failed to update schema_version: %w", err)
		}
		return nil
	})
}
