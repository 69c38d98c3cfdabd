// Package engine implements the offline reconciliation engine: it decides
// what to push to the remote store, what to pull from it, and how conflicts
// between local pending edits and concurrent server-side changes resolve.
//
// Conflict policy is whole-record last-write-wins, arbitrated by dominance:
// a local record with unconfirmed mutations is never overwritten by a pull
// until its own push has succeeded. There is no field-level merge.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/existflow/taskrelay/internal/logger"
	"github.com/existflow/taskrelay/internal/model"
	"github.com/existflow/taskrelay/internal/netmon"
	"github.com/existflow/taskrelay/internal/remote"
	"github.com/existflow/taskrelay/internal/store"
)

// Report holds the aggregate outcome of one push batch.
type Report struct {
	Succeeded int
	Failed    int
}

// Connectivity is the slice of the connectivity monitor the engine consumes.
type Connectivity interface {
	Online() bool
	Events() <-chan netmon.Status
}

// Engine reconciles the local record store against the remote gateway.
//
// Passes run under one mutex, so two triggers never interleave against the
// same snapshot. User writes are not blocked by a pass: each pass works from
// a LoadAll snapshot that can go stale while network calls are in flight, so
// results are applied per record with updated-at guards — a record the user
// touched mid-pass keeps the user's state, and a record the pass never
// processed is never written at all.
type Engine struct {
	store   *store.Store
	gateway remote.Gateway
	conn    Connectivity
	userID  string

	mu sync.Mutex // serializes reconciliation passes

	hintMu     sync.Mutex
	hintQueued bool

	hints chan struct{}
}

// New creates an engine. conn may be nil when no connectivity monitoring is
// wired (CLI one-shot sync); the engine then relies on per-operation errors.
func New(st *store.Store, gw remote.Gateway, conn Connectivity, userID string) *Engine {
	return &Engine{
		store:   st,
		gateway: gw,
		conn:    conn,
		userID:  userID,
		hints:   make(chan struct{}, 1),
	}
}

// Run drives the engine's triggers until ctx is cancelled: an initial pull,
// remote change hints, and connectivity-restored transitions. User-facing
// operations never go through Run; they hit the store directly.
func (e *Engine) Run(ctx context.Context) error {
	if err := e.Pull(ctx); err != nil {
		// Offline start is normal; local state serves the UI.
		logger.Debug("Initial pull failed", logger.F("error", err))
	}

	sub, err := e.gateway.SubscribeChanges(ctx, e.userID, e.queueHint)
	if err != nil {
		return err
	}
	defer sub.Close()

	var events <-chan netmon.Status
	if e.conn != nil {
		events = e.conn.Events()
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case status := <-events:
			if status != netmon.Online {
				continue
			}
			logger.Info("Connectivity restored, reconciling")
			pending, err := e.store.PendingCount()
			if err != nil {
				logger.Error("Pending count failed", logger.F("error", err))
				continue
			}
			if pending > 0 {
				if _, err := e.Push(ctx); err != nil {
					logger.Warn("Push after reconnect failed", logger.F("error", err))
				}
			} else if err := e.Pull(ctx); err != nil {
				logger.Warn("Pull after reconnect failed", logger.F("error", err))
			}

		case <-e.hints:
			e.hintMu.Lock()
			e.hintQueued = false
			e.hintMu.Unlock()
			if err := e.Pull(ctx); err != nil {
				logger.Debug("Hinted pull failed", logger.F("error", err))
			}
		}
	}
}

// queueHint coalesces change notifications: at most one pull is queued no
// matter how many hints arrive while a pass is in flight.
func (e *Engine) queueHint() {
	e.hintMu.Lock()
	defer e.hintMu.Unlock()
	if e.hintQueued {
		return
	}
	e.hintQueued = true
	select {
	case e.hints <- struct{}{}:
	default:
	}
}

// SyncNow performs a user-triggered reconciliation: drain the pending queue,
// then pull once to pick up server-assigned identifiers and concurrent
// remote changes.
func (e *Engine) SyncNow(ctx context.Context) (Report, error) {
	report, err := e.Push(ctx)
	if err != nil {
		return report, err
	}
	if err := e.Pull(ctx); err != nil {
		return report, err
	}
	return report, nil
}

// Pull fetches the remote task set and merges it into the local store.
//
// Local records still awaiting a push are never overwritten: a pending edit
// dominates a stale server read until it has itself been pushed. If the
// fetch fails, the local store is left untouched and the error is returned;
// callers fall back to serving local state.
func (e *Engine) Pull(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pullLocked(ctx)
}

func (e *Engine) pullLocked(ctx context.Context) error {
	remoteTasks, err := e.gateway.FetchAll(ctx, e.userID)
	if err != nil {
		logger.Debug("Fetch failed, serving local state", logger.F("error", err))
		return err
	}

	local, err := e.store.LoadAll()
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	byServerID := make(map[string]model.Task, len(remoteTasks))
	for _, rt := range remoteTasks {
		byServerID[rt.ServerID] = rt
	}

	seen := make(map[string]bool, len(local))

	for _, lt := range local {
		if lt.ServerID != "" {
			seen[lt.ServerID] = true
		}

		// Unpushed local work always wins over a server read.
		if lt.NeedsPush() {
			continue
		}

		rt, ok := byServerID[lt.ServerID]
		if !ok {
			// Previously synced but gone from the server: deletion was
			// confirmed remotely, drop the local copy. The guard skips the
			// drop if the user edited it while the fetch was in flight.
			logger.Debug("Removing task absent from server",
				logger.F("id", lt.ID),
				logger.F("serverID", lt.ServerID))
			if _, err := e.store.RemoveIfUnchanged(lt.ID, lt.UpdatedAt); err != nil {
				return err
			}
			continue
		}

		guard := lt.UpdatedAt
		lt.Title = rt.Title
		lt.Description = rt.Description
		lt.Completed = rt.Completed
		if rt.UpdatedAt.After(lt.UpdatedAt) {
			lt.UpdatedAt = rt.UpdatedAt
		}
		lt.MarkSynced(now)
		if _, err := e.store.SaveIfUnchanged(lt, guard); err != nil {
			return err
		}
	}

	// Records the server knows that this client has never seen.
	for _, rt := range remoteTasks {
		if seen[rt.ServerID] {
			continue
		}
		rt.ID = uuid.New().String()
		rt.MarkSynced(now)
		if err := e.store.Upsert(rt); err != nil {
			return err
		}
	}

	if err := e.store.SetLastPullAt(now); err != nil {
		return err
	}

	logger.Info("Pull completed", logger.F("remote", len(remoteTasks)))
	return nil
}

// Push drains the pending queue in insertion order. A failing record is
// marked error and retained; the batch continues. When the batch issued at
// least one remote call, one pull pass follows to reconcile server-assigned
// identifiers. With nothing pending, Push returns without any network
// traffic.
func (e *Engine) Push(ctx context.Context) (Report, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	report, pushed, err := e.pushLocked(ctx)
	if err != nil {
		return report, err
	}
	if pushed {
		if err := e.pullLocked(ctx); err != nil {
			logger.Debug("Post-push pull failed", logger.F("error", err))
		}
	}
	return report, nil
}

func (e *Engine) pushLocked(ctx context.Context) (Report, bool, error) {
	var report Report

	tasks, err := e.store.LoadAll()
	if err != nil {
		return report, false, err
	}

	now := time.Now().UTC()
	pushed := false

	for _, t := range tasks {
		if !t.NeedsPush() {
			continue
		}
		seen := t.UpdatedAt

		switch {
		case t.IsDeleted && t.ServerID != "":
			pushed = true
			err := e.gateway.SoftDelete(ctx, t.ServerID)
			if err != nil && !remote.IsNotFound(err) {
				logger.Warn("Delete push failed",
					logger.F("id", t.ID),
					logger.F("error", err))
				t.MarkError(err.Error())
				if _, err := e.store.SaveIfUnchanged(t, seen); err != nil {
					return report, pushed, err
				}
				report.Failed++
				continue
			}
			// Confirmed (or already gone) remotely; purge the tombstone.
			if _, err := e.store.RemoveIfUnchanged(t.ID, seen); err != nil {
				return report, pushed, err
			}
			report.Succeeded++

		case t.IsDeleted:
			// Never reached the server, nothing to tell it. Purge.
			if _, err := e.store.RemoveIfUnchanged(t.ID, seen); err != nil {
				return report, pushed, err
			}

		case t.ServerID != "":
			pushed = true
			err := e.gateway.Update(ctx, t.ServerID, remote.UpdateFields{
				Title:       t.Title,
				Description: t.Description,
				Completed:   t.Completed,
			})
			if remote.IsNotFound(err) {
				// Vanished remotely; treat as already deleted.
				logger.Warn("Task gone from server, purging",
					logger.F("id", t.ID),
					logger.F("serverID", t.ServerID))
				if _, err := e.store.RemoveIfUnchanged(t.ID, seen); err != nil {
					return report, pushed, err
				}
				report.Succeeded++
				continue
			}
			if err != nil {
				logger.Warn("Update push failed",
					logger.F("id", t.ID),
					logger.F("error", err))
				t.MarkError(err.Error())
				if _, err := e.store.SaveIfUnchanged(t, seen); err != nil {
					return report, pushed, err
				}
				report.Failed++
				continue
			}
			t.MarkSynced(now)
			// A guard miss means the user edited again mid-call; the new
			// edit stays pending and the next pass pushes it.
			if _, err := e.store.SaveIfUnchanged(t, seen); err != nil {
				return report, pushed, err
			}
			report.Succeeded++

		default:
			pushed = true
			created, err := e.gateway.Insert(ctx, e.userID, t.Title, t.Description)
			if err != nil {
				logger.Warn("Insert push failed",
					logger.F("id", t.ID),
					logger.F("error", err))
				t.MarkError(err.Error())
				if _, err := e.store.SaveIfUnchanged(t, seen); err != nil {
					return report, pushed, err
				}
				report.Failed++
				continue
			}
			t.ServerID = created.ServerID
			if t.Completed {
				// Creation does not carry completion; follow up so the
				// server record matches the local one.
				if err := e.gateway.Update(ctx, t.ServerID, remote.UpdateFields{
					Title:       t.Title,
					Description: t.Description,
					Completed:   t.Completed,
				}); err != nil {
					t.MarkError(err.Error())
					if err := e.recordInsert(t, seen); err != nil {
						return report, pushed, err
					}
					report.Failed++
					continue
				}
			}
			t.MarkSynced(now)
			if err := e.recordInsert(t, seen); err != nil {
				return report, pushed, err
			}
			report.Succeeded++
		}
	}

	if pushed {
		logger.Info("Push completed",
			logger.F("succeeded", report.Succeeded),
			logger.F("failed", report.Failed))
	}
	return report, pushed, nil
}

// recordInsert persists the outcome of a first push. When the row was edited
// again while the insert was in flight, the full write is skipped so the new
// pending edit survives, but the server-assigned identifier must still be
// recorded or the next push would insert a duplicate.
func (e *Engine) recordInsert(t model.Task, seen time.Time) error {
	applied, err := e.store.SaveIfUnchanged(t, seen)
	if err != nil {
		return err
	}
	if !applied {
		logger.Debug("Task edited during insert, keeping edit pending",
			logger.F("id", t.ID),
			logger.F("serverID", t.ServerID))
		return e.store.SetServerID(t.ID, t.ServerID)
	}
	return nil
}
