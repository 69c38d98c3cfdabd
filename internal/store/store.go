// Package store implements the local record store: the durable, authoritative
// local view of all tasks known to this client.
//
// The store never talks to the network. User-facing writes go through Upsert
// and Remove; reconciliation passes, which work from a LoadAll snapshot that
// may go stale while network calls are in flight, apply their results with
// the guarded SaveIfUnchanged/RemoveIfUnchanged variants so a user write
// landing mid-pass is never overwritten with stale pass state.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/existflow/taskrelay/internal/model"
)

const lastPullKey = "last_pull_at"

// StorageError wraps a local persistence failure. Storage failures are fatal
// to the operation that hit them; they are never swallowed.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Store wraps the SQLite database holding the local task set.
type Store struct {
	db *sql.DB
}

// DefaultPath returns the default database path (~/.taskrelay/tasks.db).
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".taskrelay", "tasks.db"), nil
}

// Open opens or creates the SQLite database and runs migrations.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	s := &Store{db: sqlDB}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// OpenDefault opens the database at the default path.
func OpenDefault() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return Open(path)
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// LoadAll returns every task in the store in insertion order, including
// soft-deleted ones awaiting deletion sync.
func (s *Store) LoadAll() ([]model.Task, error) {
	rows, err := s.db.Query(`
		SELECT id, server_id, title, description, completed, created_at,
		       updated_at, is_deleted, last_synced_at, sync_status, sync_error
		FROM tasks ORDER BY seq ASC`)
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, &StorageError{Op: "load", Err: err}
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	return tasks, nil
}

// Upsert inserts or replaces a single task, preserving its position in
// insertion order when it already exists.
func (s *Store) Upsert(t model.Task) error {
	res, err := s.db.Exec(`
		UPDATE tasks SET server_id = ?, title = ?, description = ?,
		       completed = ?, created_at = ?, updated_at = ?, is_deleted = ?,
		       last_synced_at = ?, sync_status = ?, sync_error = ?
		WHERE id = ?`,
		nullString(t.ServerID), t.Title, t.Description,
		t.Completed, t.CreatedAt.Format(time.RFC3339Nano),
		t.UpdatedAt.Format(time.RFC3339Nano), t.IsDeleted,
		nullTime(t.LastSyncedAt), string(t.SyncStatus), nullString(t.SyncError),
		t.ID)
	if err != nil {
		return &StorageError{Op: "upsert", Err: err}
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	if err := s.insertTask(t); err != nil {
		return &StorageError{Op: "upsert", Err: err}
	}
	return nil
}

// SaveIfUnchanged writes t only when the stored row still carries seen as its
// updated_at, reporting whether the write applied. A false return means a
// concurrent write landed after the caller's snapshot; the caller's copy is
// stale and must not win.
func (s *Store) SaveIfUnchanged(t model.Task, seen time.Time) (bool, error) {
	res, err := s.db.Exec(`
		UPDATE tasks SET server_id = ?, title = ?, description = ?,
		       completed = ?, created_at = ?, updated_at = ?, is_deleted = ?,
		       last_synced_at = ?, sync_status = ?, sync_error = ?
		WHERE id = ? AND updated_at = ?`,
		nullString(t.ServerID), t.Title, t.Description,
		t.Completed, t.CreatedAt.Format(time.RFC3339Nano),
		t.UpdatedAt.Format(time.RFC3339Nano), t.IsDeleted,
		nullTime(t.LastSyncedAt), string(t.SyncStatus), nullString(t.SyncError),
		t.ID, seen.Format(time.RFC3339Nano))
	if err != nil {
		return false, &StorageError{Op: "save", Err: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// Remove deletes a task row by client ID. Removing a missing ID is a no-op.
func (s *Store) Remove(id string) error {
	if _, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id); err != nil {
		return &StorageError{Op: "remove", Err: err}
	}
	return nil
}

// RemoveIfUnchanged deletes the row only when its updated_at still equals
// seen, reporting whether the delete applied.
func (s *Store) RemoveIfUnchanged(id string, seen time.Time) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM tasks WHERE id = ? AND updated_at = ?`,
		id, seen.Format(time.RFC3339Nano))
	if err != nil {
		return false, &StorageError{Op: "remove", Err: err}
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// SetServerID records the server-assigned identifier without touching any
// other field. Used when an insert completes after the row was edited again:
// the edit stays pending but the identifier must stick so the next push
// updates instead of inserting a duplicate.
func (s *Store) SetServerID(id, serverID string) error {
	if _, err := s.db.Exec(`UPDATE tasks SET server_id = ? WHERE id = ?`,
		nullString(serverID), id); err != nil {
		return &StorageError{Op: "set server id", Err: err}
	}
	return nil
}

// PendingCount returns the number of tasks with unconfirmed local mutations.
func (s *Store) PendingCount() (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM tasks WHERE sync_status IN ('pending', 'error')`).Scan(&n)
	if err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return n, nil
}

// LastPullAt returns the time of the last successful pull, or the zero time
// if no pull has ever succeeded.
func (s *Store) LastPullAt() (time.Time, error) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM sync_state WHERE key = ?`, lastPullKey).Scan(&v)
	if err == sql.ErrNoRows {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, &StorageError{Op: "read state", Err: err}
	}
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, &StorageError{Op: "read state", Err: err}
	}
	return ts, nil
}

// SetLastPullAt records the time of a successful pull.
func (s *Store) SetLastPullAt(at time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		lastPullKey, at.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return &StorageError{Op: "write state", Err: err}
	}
	return nil
}

func (s *Store) insertTask(t model.Task) error {
	_, err := s.db.Exec(`
		INSERT INTO tasks (id, server_id, title, description, completed,
		                   created_at, updated_at, is_deleted, last_synced_at,
		                   sync_status, sync_error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, nullString(t.ServerID), t.Title, t.Description, t.Completed,
		t.CreatedAt.Format(time.RFC3339Nano), t.UpdatedAt.Format(time.RFC3339Nano),
		t.IsDeleted, nullTime(t.LastSyncedAt), string(t.SyncStatus),
		nullString(t.SyncError))
	return err
}

func scanTask(rows *sql.Rows) (model.Task, error) {
	var t model.Task
	var serverID, syncErr, lastSyncedAt sql.NullString
	var createdAt, updatedAt, status string
	err := rows.Scan(&t.ID, &serverID, &t.Title, &t.Description, &t.Completed,
		&createdAt, &updatedAt, &t.IsDeleted, &lastSyncedAt, &status, &syncErr)
	if err != nil {
		return model.Task{}, err
	}

	t.ServerID = serverID.String
	t.SyncError = syncErr.String
	t.SyncStatus = model.SyncStatus(status)

	if t.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return model.Task{}, fmt.Errorf("bad created_at for %s: %w", t.ID, err)
	}
	if t.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return model.Task{}, fmt.Errorf("bad updated_at for %s: %w", t.ID, err)
	}
	if lastSyncedAt.Valid {
		ts, err := time.Parse(time.RFC3339Nano, lastSyncedAt.String)
		if err != nil {
			return model.Task{}, fmt.Errorf("bad last_synced_at for %s: %w", t.ID, err)
		}
		t.LastSyncedAt = &ts
	}
	return t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.UTC().Format(time.RFC3339Nano), Valid: true}
}
