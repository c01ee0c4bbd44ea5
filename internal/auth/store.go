package auth

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store persists the current user in a local sqlite database. A single row
// keyed to 1 holds whoever is logged in.
type Store struct {
	db *sql.DB
}

const authSchema = `
CREATE TABLE IF NOT EXISTS current_user (
	row_id        INTEGER PRIMARY KEY CHECK (row_id = 1),
	user_id       INTEGER NOT NULL,
	employee_code TEXT NOT NULL,
	employee_name TEXT NOT NULL,
	logged_in_at  TEXT NOT NULL
);
`

// OpenStore opens (creating if needed) the auth database at path.
func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open auth db: %w", err)
	}
	if _, err := db.Exec(authSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init auth schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores the user, replacing any previous login.
func (s *Store) Save(u *User) error {
	_, err := s.db.Exec(`
		INSERT INTO current_user (row_id, user_id, employee_code, employee_name, logged_in_at)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT (row_id) DO UPDATE SET
			user_id = excluded.user_id,
			employee_code = excluded.employee_code,
			employee_name = excluded.employee_name,
			logged_in_at = excluded.logged_in_at`,
		u.ID, u.EmployeeCode, u.EmployeeName, time.Now().UTC().Format(time.RFC3339))
	return err
}

// Current returns the stored user or ErrNotLoggedIn.
func (s *Store) Current() (*User, error) {
	var u User
	err := s.db.QueryRow(`
		SELECT user_id, employee_code, employee_name FROM current_user WHERE row_id = 1`).
		Scan(&u.ID, &u.EmployeeCode, &u.EmployeeName)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotLoggedIn
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Clear removes the stored user. Idempotent.
func (s *Store) Clear() error {
	_, err := s.db.Exec(`DELETE FROM current_user WHERE row_id = 1`)
	return err
}
