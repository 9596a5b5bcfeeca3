package storage

import (
	"context"
	"fmt"

	"github.com/archlens/targetview/internal/storage/postgres"
	"github.com/archlens/targetview/internal/storage/sqlite"
	"github.com/archlens/targetview/internal/types"
)

// Storage defines the interface for domain store backends
type Storage interface {
	// Lenses
	CreateLens(ctx context.Context, lens *types.Lens) error
	ListLenses(ctx context.Context) ([]types.Lens, error)
	DeleteLens(ctx context.Context, key types.LensKey) error

	// Items
	CreateItem(ctx context.Context, item *types.Item) error
	GetItem(ctx context.Context, id string) (*types.Item, error)
	FindItem(ctx context.Context, lens types.LensKey, name string) (*types.Item, error)
	UpdateItem(ctx context.Context, id string, updates map[string]interface{}) error
	DeleteItem(ctx context.Context, id string) error
	ListItems(ctx context.Context, filter types.ItemFilter) ([]types.Item, error)

	// Relationships
	CreateRelationship(ctx context.Context, rel *types.Relationship) error
	UpdateRelationshipStatus(ctx context.Context, id string, status types.RelationshipStatus) error
	DeleteRelationship(ctx context.Context, id string) error
	ListRelationships(ctx context.Context) ([]types.Relationship, error)

	// Config
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}

// Backend names a storage implementation
type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Config holds database configuration
type Config struct {
	// Backend selects the implementation
	// Default: "sqlite"
	Backend Backend

	// Path is the SQLite database file path
	// Default: ".targetview/targetview.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string

	// PostgresURL is the connection string used by the postgres backend
	PostgresURL string
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Backend: BackendSQLite,
		Path:    DefaultDBPath,
	}
}

// NewStorage creates the configured storage backend
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	switch cfg.Backend {
	case BackendSQLite, "":
		path := cfg.Path
		if path == "" {
			path = DefaultDBPath
		}
		return sqlite.New(path)
	case BackendPostgres:
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres backend requires a connection URL")
		}
		pgCfg := postgres.DefaultConfig()
		pgCfg.URL = cfg.PostgresURL
		return postgres.New(ctx, pgCfg)
	}
	return nil, fmt.Errorf("unknown storage backend: %s", cfg.Backend)
}
