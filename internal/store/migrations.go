package store

import "github.com/ayusman/mudra/internal/gesture"

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// Gesture tags: show/hide class and classifier registration order
		`CREATE TABLE IF NOT EXISTS gesture_tags (
			kind TEXT PRIMARY KEY,
			class TEXT NOT NULL DEFAULT 'none' CHECK(class IN ('none', 'show', 'hide')),
			position INTEGER NOT NULL DEFAULT 0,
			enabled INTEGER NOT NULL DEFAULT 1,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Actions: plugin calls bound to reveal/conceal notifications
		`CREATE TABLE IF NOT EXISTS actions (
			id TEXT PRIMARY KEY,
			action TEXT NOT NULL CHECK(action IN ('reveal', 'conceal')),
			plugin_name TEXT NOT NULL,
			plugin_action TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Settings override environment configuration at load time
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_actions_action ON actions(action)`,
		`CREATE INDEX IF NOT EXISTS idx_gesture_tags_position ON gesture_tags(position)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}

// seedTags inserts the default tag rows when the table is empty.
func (s *Store) seedTags() error {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM gesture_tags`).Scan(&n); err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	tags := gesture.DefaultTags()
	for i, k := range gesture.DefaultOrder() {
		if _, err := s.db.Exec(
			`INSERT INTO gesture_tags (kind, class, position, enabled) VALUES (?, ?, ?, 1)`,
			k.String(), tags.Class(k).String(), i,
		); err != nil {
			return err
		}
	}
	return nil
}
