package store

import (
	"database/sql"
	"errors"
	"time"
)

// GestureTag is a row of the gesture tag table: the show/hide class of a
// gesture and its classifier registration position.
type GestureTag struct {
	Kind      string
	Class     string
	Position  int
	Enabled   bool
	UpdatedAt time.Time
}

// TagRepository provides access to gesture tags.
type TagRepository struct {
	db *sql.DB
}

// Tags returns the tag repository for this store.
func (s *Store) Tags() *TagRepository {
	return &TagRepository{db: s.db}
}

// List returns every tag ordered by position, then kind.
func (r *TagRepository) List() ([]*GestureTag, error) {
	rows, err := r.db.Query(
		`SELECT kind, class, position, enabled, updated_at
		 FROM gesture_tags ORDER BY position, kind`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []*GestureTag
	for rows.Next() {
		t := &GestureTag{}
		var enabled int

		if err := rows.Scan(&t.Kind, &t.Class, &t.Position, &enabled, &t.UpdatedAt); err != nil {
			return nil, err
		}

		t.Enabled = enabled != 0
		tags = append(tags, t)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return tags, nil
}

// Get retrieves the tag for a gesture kind.
func (r *TagRepository) Get(kind string) (*GestureTag, error) {
	t := &GestureTag{}
	var enabled int

	err := r.db.QueryRow(
		`SELECT kind, class, position, enabled, updated_at
		 FROM gesture_tags WHERE kind = ?`,
		kind,
	).Scan(&t.Kind, &t.Class, &t.Position, &enabled, &t.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	t.Enabled = enabled != 0
	return t, nil
}

// Upsert inserts or replaces the tag for t.Kind.
func (r *TagRepository) Upsert(t *GestureTag) error {
	t.UpdatedAt = time.Now()

	enabled := 0
	if t.Enabled {
		enabled = 1
	}

	_, err := r.db.Exec(
		`INSERT INTO gesture_tags (kind, class, position, enabled, updated_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(kind) DO UPDATE SET
			class = excluded.class,
			position = excluded.position,
			enabled = excluded.enabled,
			updated_at = excluded.updated_at`,
		t.Kind, t.Class, t.Position, enabled, t.UpdatedAt,
	)
	return err
}

// Delete removes the tag for kind.
func (r *TagRepository) Delete(kind string) error {
	result, err := r.db.Exec(`DELETE FROM gesture_tags WHERE kind = ?`, kind)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}
