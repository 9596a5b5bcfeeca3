package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/archlens/targetview/internal/storage/migrations"
	"github.com/archlens/targetview/internal/types"
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// New creates a new SQLite storage backend
func New(path string) (*SQLiteStorage, error) {
	// Ensure directory exists
	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Initialize schema
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := migrations.NewDomainManager().ApplySQLite(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// isUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY constraint failure
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey
}

// CreateLens registers a new lens
func (s *SQLiteStorage) CreateLens(ctx context.Context, lens *types.Lens) error {
	if err := lens.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO lenses (key, label, ord) VALUES (?, ?, ?)
	`, lens.Key, lens.Label, lens.Order)
	if isUniqueViolation(err) {
		return fmt.Errorf("lens %s %w", lens.Key, types.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert lens: %w", err)
	}
	return nil
}

// ListLenses returns every lens in display order
func (s *SQLiteStorage) ListLenses(ctx context.Context) ([]types.Lens, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, label, ord FROM lenses ORDER BY ord, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lenses: %w", err)
	}
	defer rows.Close()

	var lenses []types.Lens
	for rows.Next() {
		var l types.Lens
		if err := rows.Scan(&l.Key, &l.Label, &l.Order); err != nil {
			return nil, fmt.Errorf("failed to scan lens: %w", err)
		}
		lenses = append(lenses, l)
	}
	return lenses, rows.Err()
}

// DeleteLens removes a lens together with its items and their relationships
func (s *SQLiteStorage) DeleteLens(ctx context.Context, key types.LensKey) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lenses WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("failed to delete lens: %w", err)
	}
	return requireAffected(res, "lens", string(key))
}

// CreateItem inserts a new item, generating its ID when empty
func (s *SQLiteStorage) CreateItem(ctx context.Context, item *types.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}

	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO items (id, lens, name, lifecycle_status, parent, description,
		                   business_contact, technical_contact, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, item.ID, item.Lens, item.Name, item.LifecycleStatus, item.Parent, item.Description,
		item.BusinessContact, item.TechnicalContact, item.CreatedAt, item.UpdatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("item %q in lens %s %w", item.Name, item.Lens, types.ErrDuplicate)
	}
	if isForeignKeyViolation(err) {
		return fmt.Errorf("unknown lens %s: %w", item.Lens, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

const itemColumns = `id, lens, name, lifecycle_status, parent, description,
	business_contact, technical_contact, created_at, updated_at`

// scanner is satisfied by *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (types.Item, error) {
	var it types.Item
	err := row.Scan(&it.ID, &it.Lens, &it.Name, &it.LifecycleStatus, &it.Parent, &it.Description,
		&it.BusinessContact, &it.TechnicalContact, &it.CreatedAt, &it.UpdatedAt)
	return it, err
}

// GetItem retrieves an item by ID. Returns nil, nil when it does not exist.
func (s *SQLiteStorage) GetItem(ctx context.Context, id string) (*types.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &it, nil
}

// FindItem retrieves an item by lens and exact name. Returns nil, nil when
// it does not exist.
func (s *SQLiteStorage) FindItem(ctx context.Context, lens types.LensKey, name string) (*types.Item, error) {
	it, err := scanItem(s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE lens = ? AND name = ?`, lens, name))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &it, nil
}

// UpdateItem applies field updates to an item
func (s *SQLiteStorage) UpdateItem(ctx context.Context, id string, updates map[string]interface{}) error {
	if err := types.ValidateItemUpdate(updates); err != nil {
		return err
	}

	setClauses := []string{"updated_at = ?"}
	args := []interface{}{time.Now()}
	for key, value := range updates {
		setClauses = append(setClauses, fmt.Sprintf("%s = ?", key))
		args = append(args, fmt.Sprint(value))
	}
	args = append(args, id)

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("UPDATE items SET %s WHERE id = ?", strings.Join(setClauses, ", ")), args...)
	if isUniqueViolation(err) {
		return fmt.Errorf("item name %w in this lens", types.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return requireAffected(res, "item", id)
}

// DeleteItem removes an item and every relationship touching it
func (s *SQLiteStorage) DeleteItem(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return requireAffected(res, "item", id)
}

// ListItems returns items matching filter, ordered by lens then name
func (s *SQLiteStorage) ListItems(ctx context.Context, filter types.ItemFilter) ([]types.Item, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.Lens != nil {
		whereClauses = append(whereClauses, "lens = ?")
		args = append(args, *filter.Lens)
	}
	if filter.Status != nil {
		whereClauses = append(whereClauses, "lifecycle_status = ?")
		args = append(args, *filter.Status)
	}
	if filter.Parent != nil {
		whereClauses = append(whereClauses, "parent = ?")
		args = append(args, *filter.Parent)
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	limitSQL := ""
	if filter.Limit > 0 {
		limitSQL = fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT %s
		FROM items
		%s
		ORDER BY lens, name COLLATE NOCASE, name, id
		%s
	`, itemColumns, whereSQL, limitSQL), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var items []types.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// CreateRelationship links two existing items. Endpoint lenses are taken
// from the items when left empty and must match them otherwise.
func (s *SQLiteStorage) CreateRelationship(ctx context.Context, rel *types.Relationship) error {
	from, err := s.GetItem(ctx, rel.FromItemID)
	if err != nil {
		return err
	}
	to, err := s.GetItem(ctx, rel.ToItemID)
	if err != nil {
		return err
	}
	if err := rel.ResolveEndpoints(from, to); err != nil {
		return err
	}
	if err := rel.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Relationships are undirected: B -> A duplicates an existing A -> B
	var reverse int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM relationships WHERE from_item_id = ? AND to_item_id = ?`,
		rel.ToItemID, rel.FromItemID).Scan(&reverse); err != nil {
		return fmt.Errorf("failed to check reverse relationship: %w", err)
	}
	if reverse > 0 {
		return fmt.Errorf("relationship %s -> %s (reverse of an existing link) %w", rel.FromItemID, rel.ToItemID, types.ErrDuplicate)
	}

	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	rel.CreatedAt = time.Now()

	var status sql.NullString
	if rel.LifecycleStatus != types.RelNone {
		status = sql.NullString{String: string(rel.LifecycleStatus), Valid: true}
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO relationships (id, from_lens, from_item_id, to_lens, to_item_id, lifecycle_status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, rel.ID, rel.FromLens, rel.FromItemID, rel.ToLens, rel.ToItemID, status, rel.CreatedAt)
	if isUniqueViolation(err) {
		return fmt.Errorf("relationship %s -> %s %w", rel.FromItemID, rel.ToItemID, types.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert relationship: %w", err)
	}
	return nil
}

// UpdateRelationshipStatus sets the transition status of a relationship
func (s *SQLiteStorage) UpdateRelationshipStatus(ctx context.Context, id string, status types.RelationshipStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid relationship status: %s", status)
	}
	var value sql.NullString
	if status != types.RelNone {
		value = sql.NullString{String: string(status), Valid: true}
	}
	res, err := s.db.ExecContext(ctx, `UPDATE relationships SET lifecycle_status = ? WHERE id = ?`, value, id)
	if err != nil {
		return fmt.Errorf("failed to update relationship: %w", err)
	}
	return requireAffected(res, "relationship", id)
}

// DeleteRelationship removes a relationship
func (s *SQLiteStorage) DeleteRelationship(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM relationships WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	return requireAffected(res, "relationship", id)
}

// ListRelationships returns every relationship in creation order
func (s *SQLiteStorage) ListRelationships(ctx context.Context) ([]types.Relationship, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_lens, from_item_id, to_lens, to_item_id, lifecycle_status, created_at
		FROM relationships
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list relationships: %w", err)
	}
	defer rows.Close()

	var rels []types.Relationship
	for rows.Next() {
		var r types.Relationship
		var status sql.NullString
		if err := rows.Scan(&r.ID, &r.FromLens, &r.FromItemID, &r.ToLens, &r.ToItemID, &status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		if status.Valid {
			r.LifecycleStatus = types.RelationshipStatus(status.String)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// GetConfig gets a configuration value from the config table
func (s *SQLiteStorage) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetConfig sets a configuration value in the config table
func (s *SQLiteStorage) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func requireAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, types.ErrNotFound)
	}
	return nil
}
