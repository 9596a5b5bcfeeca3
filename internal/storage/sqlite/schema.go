package sqlite

const schema = `
-- Lenses table
CREATE TABLE IF NOT EXISTS lenses (
    key TEXT PRIMARY KEY,
    label TEXT NOT NULL,
    ord INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

-- Items table
CREATE TABLE IF NOT EXISTS items (
    id TEXT PRIMARY KEY,
    lens TEXT NOT NULL,
    name TEXT NOT NULL CHECK(length(name) <= 200),
    lifecycle_status TEXT NOT NULL DEFAULT '',
    parent TEXT NOT NULL DEFAULT '',
    description TEXT NOT NULL DEFAULT '',
    business_contact TEXT NOT NULL DEFAULT '',
    technical_contact TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (lens, name),
    FOREIGN KEY (lens) REFERENCES lenses(key) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_items_lens ON items(lens);
CREATE INDEX IF NOT EXISTS idx_items_status ON items(lifecycle_status);

-- Relationships table (stored directed, read as undirected)
CREATE TABLE IF NOT EXISTS relationships (
    id TEXT PRIMARY KEY,
    from_lens TEXT NOT NULL,
    from_item_id TEXT NOT NULL,
    to_lens TEXT NOT NULL,
    to_item_id TEXT NOT NULL,
    lifecycle_status TEXT,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (from_item_id, to_item_id),
    FOREIGN KEY (from_item_id) REFERENCES items(id) ON DELETE CASCADE,
    FOREIGN KEY (to_item_id) REFERENCES items(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_relationships_from ON relationships(from_item_id);
CREATE INDEX IF NOT EXISTS idx_relationships_to ON relationships(to_item_id);

-- Config table (caller-managed key/value state)
CREATE TABLE IF NOT EXISTS config (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`
