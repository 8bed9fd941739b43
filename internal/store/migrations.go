package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Settings table - application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Dispatch events table - every action the dispatcher attempted
		`CREATE TABLE IF NOT EXISTS dispatch_events (
			id TEXT PRIMARY KEY,
			gesture TEXT NOT NULL,
			role TEXT NOT NULL,
			action TEXT NOT NULL CHECK(action IN ('mute', 'unmute')),
			succeeded INTEGER NOT NULL DEFAULT 1,
			error TEXT NOT NULL DEFAULT '',
			created_at DATETIME NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_dispatch_events_created_at ON dispatch_events(created_at)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
