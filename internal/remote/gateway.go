// Package remote abstracts the remote task store behind a small gateway
// interface plus the error taxonomy the reconciliation engine keys off.
package remote

import (
	"context"

	"github.com/existflow/taskrelay/internal/model"
)

// UpdateFields carries the user-editable fields of a task for a push.
type UpdateFields struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// Subscription is a handle on a change-notification stream. Close stops
// delivery; pending callbacks may still fire after Close returns.
type Subscription interface {
	Close() error
}

// Gateway is the client-side view of the remote task store.
//
// All calls may fail with *TransportError when the remote is unreachable.
// Insert may additionally fail with *ValidationError; Update and SoftDelete
// with *NotFoundError when the remote record no longer exists.
type Gateway interface {
	// FetchAll returns every non-deleted task owned by userID. Returned
	// tasks carry ServerID only; the local client ID is assigned by the
	// caller.
	FetchAll(ctx context.Context, userID string) ([]model.Task, error)

	// Insert creates a task remotely and returns it with the
	// server-assigned identifier in ServerID.
	Insert(ctx context.Context, userID, title, description string) (model.Task, error)

	// Update replaces the user-editable fields of a remote task.
	Update(ctx context.Context, serverID string, fields UpdateFields) error

	// SoftDelete marks a remote task deleted.
	SoftDelete(ctx context.Context, serverID string) error

	// SubscribeChanges invokes notify whenever anything changes server-side
	// for userID. Delivery is at-least-once with no payload and no ordering
	// guarantee; the hint only says "something changed, pull".
	SubscribeChanges(ctx context.Context, userID string, notify func()) (Subscription, error)
}
