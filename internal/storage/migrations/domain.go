package migrations

// relationshipVocabulary rewrites relationship statuses recorded with the
// item lifecycle vocabulary (Plan, Emerging, Invest, Divest, Stable) into the
// transition vocabulary. "Plan" becomes "Planned to add"; every other value
// outside the current vocabulary, including an absent one, becomes
// "Existing". The mapping is lossy and has no inverse.
const relationshipVocabulary = `
	UPDATE relationships
	SET lifecycle_status = CASE
		WHEN lifecycle_status IN ('Planned to add', 'Planned to remove', 'Existing') THEN lifecycle_status
		WHEN lifecycle_status = 'Plan' THEN 'Planned to add'
		ELSE 'Existing'
	END
	WHERE lifecycle_status IS NULL
	   OR lifecycle_status NOT IN ('Planned to add', 'Planned to remove', 'Existing')
`

// Domain returns the schema migrations of the targetview database, in
// version order. Both backends share them; the statements are portable
// between SQLite and PostgreSQL.
func Domain() []Migration {
	return []Migration{
		{
			Version:     1,
			Description: "Migrate relationship lifecycle vocabulary",
			Up:          relationshipVocabulary,
			// Lossy; nothing to restore
			Down: `SELECT 1`,
		},
		{
			Version:     2,
			Description: "Index items by parent for attribute rollups",
			Up:          `CREATE INDEX IF NOT EXISTS idx_items_parent ON items(parent)`,
			Down:        `DROP INDEX IF EXISTS idx_items_parent`,
		},
		{
			Version:     3,
			Description: "Index relationships by lens pair",
			Up:          `CREATE INDEX IF NOT EXISTS idx_relationships_lenses ON relationships(from_lens, to_lens)`,
			Down:        `DROP INDEX IF EXISTS idx_relationships_lenses`,
		},
	}
}

// NewDomainManager returns a manager with every domain migration registered
func NewDomainManager() *Manager {
	m := NewManager()
	for _, mig := range Domain() {
		m.Register(mig)
	}
	return m
}
