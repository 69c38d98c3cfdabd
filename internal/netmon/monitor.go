// Package netmon tracks connectivity to the remote store.
//
// The signal is best effort: the monitor probing the server's health
// endpoint can report online while individual requests still fail, so
// consumers must handle per-operation failures regardless.
package netmon

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/existflow/taskrelay/internal/logger"
)

// Status is a connectivity transition.
type Status int

const (
	Offline Status = iota
	Online
)

// String returns a human-readable representation of the status.
func (s Status) String() string {
	if s == Online {
		return "online"
	}
	return "offline"
}

// Prober reports whether the remote is currently reachable.
type Prober func(ctx context.Context) bool

// HTTPProber probes a health endpoint with a short timeout.
func HTTPProber(healthURL string) Prober {
	client := &http.Client{Timeout: 5 * time.Second}
	return func(ctx context.Context) bool {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			return false
		}
		resp, err := client.Do(req)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}
}

// Monitor polls a Prober and publishes online/offline transitions.
type Monitor struct {
	probe    Prober
	interval time.Duration

	mu     sync.Mutex
	online bool
	events chan Status

	cancel context.CancelFunc
	done   chan struct{}
}

// New creates a monitor. It does not probe until Start is called; until the
// first probe completes the monitor reports offline.
func New(probe Prober, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &Monitor{
		probe:    probe,
		interval: interval,
		events:   make(chan Status, 8),
	}
}

// Start launches the probe loop. The first probe runs immediately.
func (m *Monitor) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)

		m.check(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.check(ctx)
			}
		}
	}()
}

// Stop terminates the probe loop and waits for it to exit.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// Online returns the last observed connectivity state.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Events returns the transition stream. Only state changes are published;
// if the consumer lags, transitions are dropped rather than blocking the
// probe loop.
func (m *Monitor) Events() <-chan Status {
	return m.events
}

func (m *Monitor) check(ctx context.Context) {
	now := m.probe(ctx)

	m.mu.Lock()
	changed := now != m.online
	m.online = now
	m.mu.Unlock()

	if !changed {
		return
	}

	status := Offline
	if now {
		status = Online
	}
	logger.Info("Connectivity changed", logger.F("status", status.String()))

	select {
	case m.events <- status:
	default:
	}
}
