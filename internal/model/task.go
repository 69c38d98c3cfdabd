package model

import (
	"time"

	"github.com/google/uuid"
)

// SyncStatus describes where a task stands relative to the remote store.
type SyncStatus string

const (
	// SyncPending means the local copy has mutations not yet confirmed remotely.
	SyncPending SyncStatus = "pending"
	// SyncSynced means the local copy matches the last confirmed remote state.
	SyncSynced SyncStatus = "synced"
	// SyncError means the last push attempt for this task failed.
	SyncError SyncStatus = "error"
)

// Task represents a single todo item together with its sync bookkeeping.
//
// ID is assigned by this client at creation and never changes. ServerID is
// assigned by the remote store on the first successful push and, once set,
// never changes either.
type Task struct {
	ID           string     `json:"id"`
	ServerID     string     `json:"server_id,omitempty"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Completed    bool       `json:"completed"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	IsDeleted    bool       `json:"is_deleted"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
	SyncStatus   SyncStatus `json:"sync_status"`
	SyncError    string     `json:"sync_error,omitempty"`
}

// NewTask creates a new task with a fresh client-side ID, marked pending.
func NewTask(title, description string) Task {
	now := time.Now().UTC()
	return Task{
		ID:          uuid.New().String(),
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		SyncStatus:  SyncPending,
	}
}

// Touch bumps UpdatedAt and flags the task as needing a push.
// UpdatedAt never goes backwards, even if the wall clock does.
func (t *Task) Touch() {
	now := time.Now().UTC()
	if now.After(t.UpdatedAt) {
		t.UpdatedAt = now
	} else {
		t.UpdatedAt = t.UpdatedAt.Add(time.Millisecond)
	}
	t.SyncStatus = SyncPending
	t.SyncError = ""
}

// MarkSynced records a successful reconciliation for this task.
func (t *Task) MarkSynced(at time.Time) {
	t.SyncStatus = SyncSynced
	t.SyncError = ""
	at = at.UTC()
	t.LastSyncedAt = &at
}

// MarkError records a failed push attempt with the error message kept for
// display and retry.
func (t *Task) MarkError(msg string) {
	t.SyncStatus = SyncError
	t.SyncError = msg
}

// NeedsPush reports whether the task has local mutations awaiting the remote.
func (t *Task) NeedsPush() bool {
	return t.SyncStatus == SyncPending || t.SyncStatus == SyncError
}
