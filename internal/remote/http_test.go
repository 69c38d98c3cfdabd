package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestGateway(url string, poll time.Duration) *HTTPGateway {
	return &HTTPGateway{
		baseURL:      url,
		token:        "test-token",
		httpClient:   &http.Client{Timeout: 5 * time.Second},
		pollInterval: poll,
	}
}

func TestFetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/tasks" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("missing auth header: %q", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"tasks": []map[string]any{
				{"id": "srv-1", "title": "one", "completed": false, "created_at": "2026-01-02T03:04:05Z", "updated_at": "2026-01-02T03:04:05Z"},
				{"id": "srv-2", "title": "two", "completed": true, "created_at": "2026-01-02T03:04:05Z", "updated_at": "2026-01-02T03:04:06Z"},
			},
		})
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL, 0)
	tasks, err := g.FetchAll(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ServerID != "srv-1" || tasks[0].Title != "one" {
		t.Errorf("first task mangled: %+v", tasks[0])
	}
	if tasks[0].ID != "" {
		t.Errorf("fetched task should not carry a client ID, got %q", tasks[0].ID)
	}
	if !tasks[1].Completed {
		t.Error("completed flag lost")
	}
	if tasks[1].UpdatedAt.IsZero() {
		t.Error("timestamps not parsed")
	}
}

func TestInsert(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "srv-42",
			"title":       body["title"],
			"description": body["description"],
			"created_at":  "2026-01-02T03:04:05Z",
			"updated_at":  "2026-01-02T03:04:05Z",
		})
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL, 0)
	task, err := g.Insert(context.Background(), "user-1", "new task", "details")
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if task.ServerID != "srv-42" {
		t.Errorf("server ID not captured: %q", task.ServerID)
	}
	if task.Title != "new task" || task.Description != "details" {
		t.Errorf("fields not echoed: %+v", task)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, IsNotFound},
		{"bad request", http.StatusBadRequest, IsValidation},
		{"unprocessable", http.StatusUnprocessableEntity, IsValidation},
		{"server error", http.StatusInternalServerError, IsTransport},
		{"bad gateway", http.StatusBadGateway, IsTransport},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			g := newTestGateway(srv.URL, 0)
			err := g.Update(context.Background(), "srv-1", UpdateFields{Title: "x"})
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tt.check(err) {
				t.Errorf("status %d mapped to wrong error: %v", tt.status, err)
			}
		})
	}
}

func TestNotFoundCarriesServerID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL, 0)
	err := g.SoftDelete(context.Background(), "srv-1")

	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.ServerID != "srv-1" {
		t.Errorf("expected bare server ID, got %q", nf.ServerID)
	}
}

func TestConnectionFailureIsTransport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	g := newTestGateway(srv.URL, 0)
	_, err := g.FetchAll(context.Background(), "user-1")
	if !IsTransport(err) {
		t.Errorf("expected transport error for refused connection, got %v", err)
	}
}

func TestSubscribeChangesFiresOnAdvance(t *testing.T) {
	var seq atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]int64{"seq": seq.Load()})
	}))
	defer srv.Close()

	var notified atomic.Int32
	g := newTestGateway(srv.URL, 10*time.Millisecond)
	sub, err := g.SubscribeChanges(context.Background(), "user-1", func() {
		notified.Add(1)
	})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer sub.Close()

	// First observation seeds the watermark without firing.
	time.Sleep(50 * time.Millisecond)
	if n := notified.Load(); n != 0 {
		t.Errorf("notified %d times before any change", n)
	}

	seq.Store(5)
	deadline := time.Now().Add(2 * time.Second)
	for notified.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if notified.Load() == 0 {
		t.Error("sequence advance never notified")
	}
}

func TestSubscriptionCloseStopsPolling(t *testing.T) {
	var polls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		polls.Add(1)
		json.NewEncoder(w).Encode(map[string]int64{"seq": 1})
	}))
	defer srv.Close()

	g := newTestGateway(srv.URL, 5*time.Millisecond)
	sub, err := g.SubscribeChanges(context.Background(), "user-1", func() {})
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	time.Sleep(30 * time.Millisecond)
	sub.Close()

	after := polls.Load()
	time.Sleep(30 * time.Millisecond)
	if got := polls.Load(); got != after {
		t.Errorf("poll loop kept running after Close: %d -> %d", after, got)
	}
}
