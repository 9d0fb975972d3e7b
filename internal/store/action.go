package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// Action binds a dispatcher action (reveal or conceal) to a plugin call.
type Action struct {
	ID           string
	Action       string
	PluginName   string
	PluginAction string
	Config       json.RawMessage
	Enabled      bool
	CreatedAt    time.Time
}

// ActionRepository provides CRUD operations for action bindings.
type ActionRepository struct {
	db *sql.DB
}

// Actions returns the action repository for this store.
func (s *Store) Actions() *ActionRepository {
	return &ActionRepository{db: s.db}
}

const actionColumns = `id, action, plugin_name, plugin_action, config, enabled, created_at`

// Create inserts a new action binding.
func (r *ActionRepository) Create(a *Action) error {
	a.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO actions (`+actionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Action, a.PluginName, a.PluginAction, string(configOrEmpty(a.Config)), boolInt(a.Enabled), a.CreatedAt,
	)
	return err
}

// GetByID retrieves an action by its ID.
func (r *ActionRepository) GetByID(id string) (*Action, error) {
	a, err := scanAction(r.db.QueryRow(
		`SELECT `+actionColumns+` FROM actions WHERE id = ?`, id,
	))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

// List retrieves all actions, newest first.
func (r *ActionRepository) List() ([]*Action, error) {
	return r.query(`SELECT ` + actionColumns + ` FROM actions ORDER BY created_at DESC, id`)
}

// ListEnabled retrieves the enabled bindings for a dispatcher action in
// creation order.
func (r *ActionRepository) ListEnabled(action string) ([]*Action, error) {
	return r.query(
		`SELECT `+actionColumns+` FROM actions WHERE action = ? AND enabled = 1 ORDER BY created_at, id`,
		action,
	)
}

// Update updates an existing action binding.
func (r *ActionRepository) Update(a *Action) error {
	result, err := r.db.Exec(
		`UPDATE actions SET action = ?, plugin_name = ?, plugin_action = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		a.Action, a.PluginName, a.PluginAction, string(configOrEmpty(a.Config)), boolInt(a.Enabled), a.ID,
	)
	if err != nil {
		return err
	}
	return expectRow(result)
}

// Delete removes an action binding by its ID.
func (r *ActionRepository) Delete(id string) error {
	result, err := r.db.Exec(`DELETE FROM actions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectRow(result)
}

func (r *ActionRepository) query(q string, args ...any) ([]*Action, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		actions = append(actions, a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return actions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAction(row scanner) (*Action, error) {
	a := &Action{}
	var config string
	var enabled int

	if err := row.Scan(&a.ID, &a.Action, &a.PluginName, &a.PluginAction, &config, &enabled, &a.CreatedAt); err != nil {
		return nil, err
	}

	a.Config = json.RawMessage(config)
	a.Enabled = enabled != 0
	return a, nil
}

func configOrEmpty(c json.RawMessage) json.RawMessage {
	if len(c) == 0 {
		return json.RawMessage("{}")
	}
	return c
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func expectRow(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
