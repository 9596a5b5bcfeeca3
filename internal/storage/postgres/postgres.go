package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/archlens/targetview/internal/storage/migrations"
	"github.com/archlens/targetview/internal/types"
)

// PostgresStorage implements the Storage interface using PostgreSQL
type PostgresStorage struct {
	pool *pgxpool.Pool
}

// Config holds PostgreSQL connection configuration
type Config struct {
	// URL is a postgres:// connection string
	URL             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	HealthCheck     time.Duration
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		URL:             "postgres://targetview@localhost:5432/targetview?sslmode=prefer",
		MaxConns:        10,
		MinConns:        1,
		MaxConnLifetime: 1 * time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
		HealthCheck:     1 * time.Minute,
	}
}

// New creates a new PostgreSQL storage backend with connection pooling
func New(ctx context.Context, cfg *Config) (*PostgresStorage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	poolConfig, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolConfig.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime
	}
	if cfg.HealthCheck > 0 {
		poolConfig.HealthCheckPeriod = cfg.HealthCheck
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection with ping
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	if err := migrations.NewDomainManager().ApplyPostgreSQL(ctx, pool); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &PostgresStorage{pool: pool}, nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// CreateLens registers a new lens
func (s *PostgresStorage) CreateLens(ctx context.Context, lens *types.Lens) error {
	if err := lens.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO lenses (key, label, ord) VALUES ($1, $2, $3)`,
		string(lens.Key), lens.Label, lens.Order)
	if pgCode(err) == uniqueViolation {
		return fmt.Errorf("lens %s %w", lens.Key, types.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert lens: %w", err)
	}
	return nil
}

// ListLenses returns every lens in display order
func (s *PostgresStorage) ListLenses(ctx context.Context) ([]types.Lens, error) {
	rows, err := s.pool.Query(ctx, `SELECT key, label, ord FROM lenses ORDER BY ord, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list lenses: %w", err)
	}
	defer rows.Close()

	var lenses []types.Lens
	for rows.Next() {
		var key string
		var l types.Lens
		if err := rows.Scan(&key, &l.Label, &l.Order); err != nil {
			return nil, fmt.Errorf("failed to scan lens: %w", err)
		}
		l.Key = types.LensKey(key)
		lenses = append(lenses, l)
	}
	return lenses, rows.Err()
}

// DeleteLens removes a lens together with its items and their relationships
func (s *PostgresStorage) DeleteLens(ctx context.Context, key types.LensKey) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM lenses WHERE key = $1`, string(key))
	if err != nil {
		return fmt.Errorf("failed to delete lens: %w", err)
	}
	return requireAffected(tag, "lens", string(key))
}

// CreateItem inserts a new item, generating its ID when empty
func (s *PostgresStorage) CreateItem(ctx context.Context, item *types.Item) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := s.pool.Exec(ctx, `
		INSERT INTO items (id, lens, name, lifecycle_status, parent, description,
		                   business_contact, technical_contact, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, item.ID, string(item.Lens), item.Name, string(item.LifecycleStatus), item.Parent, item.Description,
		item.BusinessContact, item.TechnicalContact, item.CreatedAt, item.UpdatedAt)
	switch pgCode(err) {
	case uniqueViolation:
		return fmt.Errorf("item %q in lens %s %w", item.Name, item.Lens, types.ErrDuplicate)
	case foreignKeyViolation:
		return fmt.Errorf("unknown lens %s: %w", item.Lens, types.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to insert item: %w", err)
	}
	return nil
}

const itemColumns = `id, lens, name, lifecycle_status, parent, description,
	business_contact, technical_contact, created_at, updated_at`

func scanItem(row pgx.Row) (types.Item, error) {
	var it types.Item
	var lens, status string
	err := row.Scan(&it.ID, &lens, &it.Name, &status, &it.Parent, &it.Description,
		&it.BusinessContact, &it.TechnicalContact, &it.CreatedAt, &it.UpdatedAt)
	it.Lens = types.LensKey(lens)
	it.LifecycleStatus = types.LifecycleStatus(status)
	return it, err
}

// GetItem retrieves an item by ID. Returns nil, nil when it does not exist.
func (s *PostgresStorage) GetItem(ctx context.Context, id string) (*types.Item, error) {
	it, err := scanItem(s.pool.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id = $1`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return &it, nil
}

// FindItem retrieves an item by lens and exact name. Returns nil, nil when
// it does not exist.
func (s *PostgresStorage) FindItem(ctx context.Context, lens types.LensKey, name string) (*types.Item, error) {
	it, err := scanItem(s.pool.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE lens = $1 AND name = $2`, string(lens), name))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item: %w", err)
	}
	return &it, nil
}

// UpdateItem applies field updates to an item
func (s *PostgresStorage) UpdateItem(ctx context.Context, id string, updates map[string]interface{}) error {
	if err := types.ValidateItemUpdate(updates); err != nil {
		return err
	}

	setClauses := []string{"updated_at = $1"}
	args := []interface{}{time.Now()}
	for key, value := range updates {
		args = append(args, fmt.Sprint(value))
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", key, len(args)))
	}
	args = append(args, id)

	query := fmt.Sprintf("UPDATE items SET %s WHERE id = $%d", strings.Join(setClauses, ", "), len(args))
	tag, err := s.pool.Exec(ctx, query, args...)
	if pgCode(err) == uniqueViolation {
		return fmt.Errorf("item name %w in this lens", types.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to update item: %w", err)
	}
	return requireAffected(tag, "item", id)
}

// DeleteItem removes an item and every relationship touching it
func (s *PostgresStorage) DeleteItem(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	return requireAffected(tag, "item", id)
}

// ListItems returns items matching filter, ordered by lens then name
func (s *PostgresStorage) ListItems(ctx context.Context, filter types.ItemFilter) ([]types.Item, error) {
	whereClauses := []string{}
	args := []interface{}{}

	if filter.Lens != nil {
		args = append(args, string(*filter.Lens))
		whereClauses = append(whereClauses, fmt.Sprintf("lens = $%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		whereClauses = append(whereClauses, fmt.Sprintf("lifecycle_status = $%d", len(args)))
	}
	if filter.Parent != nil {
		args = append(args, *filter.Parent)
		whereClauses = append(whereClauses, fmt.Sprintf("parent = $%d", len(args)))
	}

	whereSQL := ""
	if len(whereClauses) > 0 {
		whereSQL = "WHERE " + strings.Join(whereClauses, " AND ")
	}

	limitSQL := ""
	if filter.Limit > 0 {
		limitSQL = fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.pool.Query(ctx, fmt.Sprintf(`
		SELECT %s
		FROM items
		%s
		ORDER BY lens, lower(name), name, id
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
func (s *PostgresStorage) CreateRelationship(ctx context.Context, rel *types.Relationship) error {
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
	var reverse bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM relationships WHERE from_item_id = $1 AND to_item_id = $2)`,
		rel.ToItemID, rel.FromItemID).Scan(&reverse); err != nil {
		return fmt.Errorf("failed to check reverse relationship: %w", err)
	}
	if reverse {
		return fmt.Errorf("relationship %s -> %s (reverse of an existing link) %w", rel.FromItemID, rel.ToItemID, types.ErrDuplicate)
	}

	if rel.ID == "" {
		rel.ID = uuid.New().String()
	}
	rel.CreatedAt = time.Now()

	_, err = s.pool.Exec(ctx, `
		INSERT INTO relationships (id, from_lens, from_item_id, to_lens, to_item_id, lifecycle_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rel.ID, string(rel.FromLens), rel.FromItemID, string(rel.ToLens), rel.ToItemID,
		nullableStatus(rel.LifecycleStatus), rel.CreatedAt)
	if pgCode(err) == uniqueViolation {
		return fmt.Errorf("relationship %s -> %s %w", rel.FromItemID, rel.ToItemID, types.ErrDuplicate)
	}
	if err != nil {
		return fmt.Errorf("failed to insert relationship: %w", err)
	}
	return nil
}

func nullableStatus(status types.RelationshipStatus) *string {
	if status == types.RelNone {
		return nil
	}
	s := string(status)
	return &s
}

// UpdateRelationshipStatus sets the transition status of a relationship
func (s *PostgresStorage) UpdateRelationshipStatus(ctx context.Context, id string, status types.RelationshipStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid relationship status: %s", status)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE relationships SET lifecycle_status = $1 WHERE id = $2`,
		nullableStatus(status), id)
	if err != nil {
		return fmt.Errorf("failed to update relationship: %w", err)
	}
	return requireAffected(tag, "relationship", id)
}

// DeleteRelationship removes a relationship
func (s *PostgresStorage) DeleteRelationship(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM relationships WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete relationship: %w", err)
	}
	return requireAffected(tag, "relationship", id)
}

// ListRelationships returns every relationship in creation order
func (s *PostgresStorage) ListRelationships(ctx context.Context) ([]types.Relationship, error) {
	rows, err := s.pool.Query(ctx, `
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
		var fromLens, toLens string
		var status *string
		if err := rows.Scan(&r.ID, &fromLens, &r.FromItemID, &toLens, &r.ToItemID, &status, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan relationship: %w", err)
		}
		r.FromLens = types.LensKey(fromLens)
		r.ToLens = types.LensKey(toLens)
		if status != nil {
			r.LifecycleStatus = types.RelationshipStatus(*status)
		}
		rels = append(rels, r)
	}
	return rels, rows.Err()
}

// GetConfig gets a configuration value from the config table
func (s *PostgresStorage) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM config WHERE key = $1`, key).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", nil
	}
	return value, err
}

// SetConfig sets a configuration value in the config table
func (s *PostgresStorage) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO config (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value
	`, key, value)
	return err
}

// Close closes the connection pool
func (s *PostgresStorage) Close() error {
	s.pool.Close()
	return nil
}

func requireAffected(tag pgconn.CommandTag, kind, id string) error {
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, types.ErrNotFound)
	}
	return nil
}
