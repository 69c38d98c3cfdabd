package netmon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func waitForEvent(t *testing.T, events <-chan Status) Status {
	t.Helper()
	select {
	case s := <-events:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for connectivity event")
		return Offline
	}
}

func TestMonitorPublishesTransitions(t *testing.T) {
	var reachable atomic.Bool
	probe := func(ctx context.Context) bool { return reachable.Load() }

	m := New(probe, 10*time.Millisecond)
	if m.Online() {
		t.Error("monitor should start offline")
	}

	m.Start(context.Background())
	defer m.Stop()

	// First probe fails: no transition, still offline.
	time.Sleep(30 * time.Millisecond)
	if m.Online() {
		t.Error("expected offline while probe fails")
	}
	select {
	case s := <-m.Events():
		t.Errorf("unexpected event %s before any transition", s)
	default:
	}

	reachable.Store(true)
	if s := waitForEvent(t, m.Events()); s != Online {
		t.Errorf("expected Online event, got %s", s)
	}
	if !m.Online() {
		t.Error("expected online after successful probe")
	}

	reachable.Store(false)
	if s := waitForEvent(t, m.Events()); s != Offline {
		t.Errorf("expected Offline event, got %s", s)
	}
	if m.Online() {
		t.Error("expected offline after failed probe")
	}
}

func TestStopTerminatesLoop(t *testing.T) {
	var probes atomic.Int32
	probe := func(ctx context.Context) bool {
		probes.Add(1)
		return true
	}

	m := New(probe, 5*time.Millisecond)
	m.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	m.Stop()

	after := probes.Load()
	time.Sleep(20 * time.Millisecond)
	if got := probes.Load(); got != after {
		t.Errorf("probe loop kept running after Stop: %d -> %d", after, got)
	}
}

func TestStatusString(t *testing.T) {
	if Online.String() != "online" || Offline.String() != "offline" {
		t.Errorf("unexpected strings: %s / %s", Online, Offline)
	}
}

func TestHTTPProber(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	if !HTTPProber(healthy.URL + "/health")(context.Background()) {
		t.Error("expected healthy server to probe online")
	}

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer broken.Close()

	if HTTPProber(broken.URL)(context.Background()) {
		t.Error("expected 500 to probe offline")
	}

	unreachable := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	unreachable.Close()

	if HTTPProber(unreachable.URL)(context.Background()) {
		t.Error("expected closed server to probe offline")
	}
}
