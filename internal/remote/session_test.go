package remote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func newTestSession(t *testing.T) *Session {
	t.Helper()
	t.Setenv("HOME", t.TempDir())

	s, err := NewSession()
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	return s
}

func TestSessionDefaults(t *testing.T) {
	s := newTestSession(t)

	if s.IsLoggedIn() {
		t.Error("fresh session should not be logged in")
	}
	if s.ServerURL() != "http://localhost:8080" {
		t.Errorf("unexpected default server: %q", s.ServerURL())
	}
}

func TestCorruptSessionFileFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	dir := filepath.Join(home, ".taskrelay")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "session.json"), []byte("{not json"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}

	s, err := NewSession()
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if s.IsLoggedIn() {
		t.Error("corrupt session file should not look logged in")
	}
	if s.ServerURL() != "http://localhost:8080" {
		t.Errorf("expected default server URL, got %q", s.ServerURL())
	}
}

func TestLoginPersistsAcrossSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/login" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{
			"token":   "tok-abc",
			"user_id": "user-7",
		})
	}))
	defer srv.Close()

	s := newTestSession(t)
	if err := s.SetServer(srv.URL); err != nil {
		t.Fatalf("set server: %v", err)
	}
	if err := s.Login("alice", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !s.IsLoggedIn() {
		t.Error("expected logged in")
	}
	if s.UserID() != "user-7" {
		t.Errorf("user ID not stored: %q", s.UserID())
	}

	// A fresh session picks up the persisted state.
	reloaded, err := NewSession()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if !reloaded.IsLoggedIn() || reloaded.UserID() != "user-7" {
		t.Error("session not persisted to disk")
	}
	if reloaded.ServerURL() != srv.URL {
		t.Errorf("server URL not persisted: %q", reloaded.ServerURL())
	}
}

func TestLoginFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "invalid credentials"})
	}))
	defer srv.Close()

	s := newTestSession(t)
	s.SetServer(srv.URL)

	if err := s.Login("alice", "wrong"); err == nil {
		t.Fatal("expected login failure")
	}
	if s.IsLoggedIn() {
		t.Error("failed login should not store a token")
	}
}

func TestLogoutClearsstate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"token": "tok", "user_id": "u"})
	}))
	defer srv.Close()

	s := newTestSession(t)
	s.SetServer(srv.URL)
	if err := s.Login("alice", "hunter22"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := s.Logout(); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if s.IsLoggedIn() {
		t.Error("expected logged out")
	}
}
