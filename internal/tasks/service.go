// Package tasks is the operation surface the presentation layer calls.
//
// Every mutation completes synchronously against the local record store, so
// the app remains fully usable offline; the network side is handled
// opportunistically by the reconciliation engine.
package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/existflow/taskrelay/internal/engine"
	"github.com/existflow/taskrelay/internal/logger"
	"github.com/existflow/taskrelay/internal/model"
	"github.com/existflow/taskrelay/internal/store"
)

// ErrNotFound is returned when no task matches the given ID.
var ErrNotFound = fmt.Errorf("task not found")

// Fields carries an update to a task's user-editable fields. Nil members are
// left unchanged.
type Fields struct {
	Title       *string
	Description *string
	Completed   *bool
}

// Service exposes task operations backed by the local store and, when sync
// is configured, the reconciliation engine.
type Service struct {
	store  *store.Store
	engine *engine.Engine // nil when not logged in
	conn   engine.Connectivity
}

// New creates a task service. eng and conn may be nil for purely local use.
func New(st *store.Store, eng *engine.Engine, conn engine.Connectivity) *Service {
	return &Service{store: st, engine: eng, conn: conn}
}

// Create adds a task locally and returns it. The write is optimistic: the
// task is visible immediately and pushed on the next reconciliation pass.
func (s *Service) Create(title, description string) (model.Task, error) {
	if title == "" {
		return model.Task{}, fmt.Errorf("title required")
	}

	t := model.NewTask(title, description)
	if err := s.store.Upsert(t); err != nil {
		return model.Task{}, err
	}

	logger.Debug("Task created", logger.F("id", t.ID), logger.F("title", title))
	return t, nil
}

// Update applies fields to a task and marks it pending.
func (s *Service) Update(id string, fields Fields) (model.Task, error) {
	t, err := s.get(id)
	if err != nil {
		return model.Task{}, err
	}

	if fields.Title != nil {
		t.Title = *fields.Title
	}
	if fields.Description != nil {
		t.Description = *fields.Description
	}
	if fields.Completed != nil {
		t.Completed = *fields.Completed
	}
	t.Touch()

	if err := s.store.Upsert(t); err != nil {
		return model.Task{}, err
	}
	return t, nil
}

// Toggle flips a task's completed flag.
func (s *Service) Toggle(id string) (model.Task, error) {
	t, err := s.get(id)
	if err != nil {
		return model.Task{}, err
	}
	completed := !t.Completed
	return s.Update(id, Fields{Completed: &completed})
}

// Delete soft-deletes a task. A task that never reached the server is
// purged outright; no remote call will ever be made for it.
func (s *Service) Delete(id string) error {
	t, err := s.get(id)
	if err != nil {
		return err
	}

	if t.ServerID == "" {
		logger.Debug("Purging never-synced task", logger.F("id", t.ID))
		return s.store.Remove(t.ID)
	}

	t.IsDeleted = true
	t.Touch()
	return s.store.Upsert(t)
}

// List returns the visible tasks split into active and completed. Soft
// deleted tasks awaiting deletion sync are hidden.
func (s *Service) List() (active, completed []model.Task, err error) {
	all, err := s.store.LoadAll()
	if err != nil {
		return nil, nil, err
	}

	for _, t := range all {
		if t.IsDeleted {
			continue
		}
		if t.Completed {
			completed = append(completed, t)
		} else {
			active = append(active, t)
		}
	}
	return active, completed, nil
}

// Get returns a single visible task by ID.
func (s *Service) Get(id string) (model.Task, error) {
	return s.get(id)
}

// SyncNow runs a full push-then-pull reconciliation pass.
func (s *Service) SyncNow(ctx context.Context) (engine.Report, error) {
	if s.engine == nil {
		return engine.Report{}, fmt.Errorf("sync not configured, run 'taskrelay auth login' first")
	}
	return s.engine.SyncNow(ctx)
}

// IsOnline reports the connectivity monitor's current best-effort signal.
func (s *Service) IsOnline() bool {
	return s.conn != nil && s.conn.Online()
}

// PendingCount returns the number of local mutations awaiting the remote.
func (s *Service) PendingCount() int {
	n, err := s.store.PendingCount()
	if err != nil {
		logger.Error("Pending count failed", logger.F("error", err))
		return 0
	}
	return n
}

// LastSyncTime returns the time of the last successful pull, or the zero
// time if the client has never synced.
func (s *Service) LastSyncTime() time.Time {
	at, err := s.store.LastPullAt()
	if err != nil {
		return time.Time{}
	}
	return at
}

func (s *Service) get(id string) (model.Task, error) {
	all, err := s.store.LoadAll()
	if err != nil {
		return model.Task{}, err
	}
	for _, t := range all {
		if t.IsDeleted {
			continue
		}
		if t.ID == id || (len(id) >= 6 && len(id) < len(t.ID) && t.ID[:len(id)] == id) {
			return t, nil
		}
	}
	return model.Task{}, fmt.Errorf("%w: %s", ErrNotFound, id)
}
