package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/existflow/taskrelay/internal/logger"
)

const defaultServerURL = "http://localhost:8080"

// SessionConfig holds the persisted connection state for the remote store.
type SessionConfig struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
}

// Session manages authentication against the remote store and persists the
// resulting token at ~/.taskrelay/session.json.
type Session struct {
	config     *SessionConfig
	configPath string
	httpClient *http.Client
}

// NewSession loads any persisted session from disk.
func NewSession() (*Session, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	s := &Session{
		configPath: filepath.Join(home, ".taskrelay", "session.json"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	s.loadConfig()
	return s, nil
}

func (s *Session) loadConfig() {
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		s.config = &SessionConfig{ServerURL: defaultServerURL}
		return
	}

	s.config = &SessionConfig{}
	if err := json.Unmarshal(data, s.config); err != nil {
		// Unreadable session file counts as logged out, not as a broken
		// zero-value config pointing at an empty server URL.
		logger.Warn("Session file unreadable, starting logged out",
			logger.F("path", s.configPath),
			logger.F("error", err))
		s.config = &SessionConfig{ServerURL: defaultServerURL}
	}
}

func (s *Session) saveConfig() error {
	dir := filepath.Dir(s.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s.config, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.configPath, data, 0600)
}

// SetServer sets the remote store URL.
func (s *Session) SetServer(url string) error {
	s.config.ServerURL = url
	return s.saveConfig()
}

// IsLoggedIn returns true if a session token is present.
func (s *Session) IsLoggedIn() bool {
	return s.config.Token != ""
}

// ServerURL returns the configured remote store URL.
func (s *Session) ServerURL() string {
	return s.config.ServerURL
}

// UserID returns the stable user identifier for the current session.
func (s *Session) UserID() string {
	return s.config.UserID
}

// Register creates a new account and stores the returned session.
func (s *Session) Register(username, email, password string) error {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})

	resp, err := s.httpClient.Post(
		s.config.ServerURL+"/api/v1/register",
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("register failed: %s", string(respBody))
	}

	return s.storeAuth(resp.Body)
}

// Login authenticates with username and password.
func (s *Session) Login(username, password string) error {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})

	resp, err := s.httpClient.Post(
		s.config.ServerURL+"/api/v1/login",
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("login failed: %s", string(respBody))
	}

	return s.storeAuth(resp.Body)
}

func (s *Session) storeAuth(body io.Reader) error {
	var result struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(body).Decode(&result); err != nil {
		return err
	}

	s.config.Token = result.Token
	s.config.UserID = result.UserID
	return s.saveConfig()
}

// Logout clears the session.
func (s *Session) Logout() error {
	s.config.Token = ""
	s.config.UserID = ""
	return s.saveConfig()
}
