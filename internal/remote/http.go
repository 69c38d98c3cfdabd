package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/existflow/taskrelay/internal/logger"
	"github.com/existflow/taskrelay/internal/model"
)

// DefaultPollInterval is how often the change subscription polls the server
// when no interval is configured.
const DefaultPollInterval = 30 * time.Second

// HTTPGateway talks JSON over HTTP to the taskrelay server.
type HTTPGateway struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	pollInterval time.Duration
}

// NewHTTPGateway creates a gateway bound to an authenticated session.
func NewHTTPGateway(session *Session, pollInterval time.Duration) *HTTPGateway {
	if pollInterval <= 0 {
		pollInterval = DefaultPollInterval
	}
	return &HTTPGateway{
		baseURL:      session.config.ServerURL,
		token:        session.config.Token,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		pollInterval: pollInterval,
	}
}

// wireTask is the task representation on the wire.
type wireTask struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	IsDeleted   bool   `json:"is_deleted"`
	UserID      string `json:"user_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

func (w wireTask) toModel() model.Task {
	t := model.Task{
		ServerID:    w.ID,
		Title:       w.Title,
		Description: w.Description,
		Completed:   w.Completed,
		IsDeleted:   w.IsDeleted,
	}
	t.CreatedAt, _ = time.Parse(time.RFC3339Nano, w.CreatedAt)
	t.UpdatedAt, _ = time.Parse(time.RFC3339Nano, w.UpdatedAt)
	return t
}

// FetchAll returns the user's non-deleted tasks from the server.
func (g *HTTPGateway) FetchAll(ctx context.Context, userID string) ([]model.Task, error) {
	var result struct {
		Tasks []wireTask `json:"tasks"`
	}
	if err := g.do(ctx, http.MethodGet, "/api/v1/tasks", "", nil, &result); err != nil {
		return nil, err
	}

	tasks := make([]model.Task, 0, len(result.Tasks))
	for _, w := range result.Tasks {
		tasks = append(tasks, w.toModel())
	}
	return tasks, nil
}

// Insert creates a task on the server.
func (g *HTTPGateway) Insert(ctx context.Context, userID, title, description string) (model.Task, error) {
	body := map[string]string{
		"title":       title,
		"description": description,
	}

	var result wireTask
	if err := g.do(ctx, http.MethodPost, "/api/v1/tasks", "", body, &result); err != nil {
		return model.Task{}, err
	}
	return result.toModel(), nil
}

// Update replaces the user-editable fields of a server task.
func (g *HTTPGateway) Update(ctx context.Context, serverID string, fields UpdateFields) error {
	return g.do(ctx, http.MethodPatch, "/api/v1/tasks/"+serverID, serverID, fields, nil)
}

// SoftDelete marks a server task deleted.
func (g *HTTPGateway) SoftDelete(ctx context.Context, serverID string) error {
	return g.do(ctx, http.MethodDelete, "/api/v1/tasks/"+serverID, serverID, nil, nil)
}

// do issues one request and maps the response onto the error taxonomy.
// serverID identifies the task the request addresses, when there is one; a
// 404 is reported against it.
func (g *HTTPGateway) do(ctx context.Context, method, path, serverID string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+g.token)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		logger.Debug("HTTP request failed", logger.F("method", method), logger.F("path", path), logger.F("error", err))
		return &TransportError{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	logger.Debug("HTTP response",
		logger.F("method", method),
		logger.F("path", path),
		logger.F("status", resp.StatusCode))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &NotFoundError{ServerID: serverID}
	case resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity:
		respBody, _ := io.ReadAll(resp.Body)
		return &ValidationError{Msg: string(respBody)}
	case resp.StatusCode >= 500:
		respBody, _ := io.ReadAll(resp.Body)
		return &TransportError{Err: fmt.Errorf("server error: %s", string(respBody))}
	case resp.StatusCode != http.StatusOK:
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// pollSubscription polls the change-sequence endpoint and fires the callback
// whenever the sequence advances. This keeps the server free of any push
// plumbing at the cost of notification latency up to one poll interval.
type pollSubscription struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *pollSubscription) Close() error {
	p.cancel()
	<-p.done
	return nil
}

// SubscribeChanges polls GET /api/v1/changes and invokes notify on every
// observed advance of the user's change sequence.
func (g *HTTPGateway) SubscribeChanges(ctx context.Context, userID string, notify func()) (Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)
	sub := &pollSubscription{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(sub.done)

		var lastSeq int64 = -1
		ticker := time.NewTicker(g.pollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			var result struct {
				Seq int64 `json:"seq"`
			}
			if err := g.do(ctx, http.MethodGet, "/api/v1/changes", "", nil, &result); err != nil {
				// Offline or flaky server; next tick retries.
				continue
			}

			if lastSeq >= 0 && result.Seq > lastSeq {
				logger.Debug("Remote change hint",
					logger.F("seq", result.Seq),
					logger.F("lastSeq", lastSeq))
				notify()
			}
			lastSeq = result.Seq
		}
	}()

	return sub, nil
}
