package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// taskResponse is a task row as seen by the client.
type taskResponse struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	IsDeleted   bool   `json:"is_deleted"`
	UserID      string `json:"user_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type updateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// nextChangeSeq allocates the next change sequence number for a user.
// Every mutation bumps it; clients poll it as a "something changed" hint.
const nextChangeSeq = `(SELECT COALESCE(MAX(change_seq), 0) + 1 FROM tasks WHERE user_id = $1)`

// handleListTasks returns the user's non-deleted tasks
func (s *Server) handleListTasks(c echo.Context) error {
	userID := c.Get("user_id").(string)

	rows, err := s.db.Query(`
		SELECT id, title, description, completed, is_deleted, user_id, created_at, updated_at
		FROM tasks
		WHERE user_id = $1 AND is_deleted = FALSE
		ORDER BY created_at ASC`,
		userID,
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
	defer rows.Close()

	tasks := []taskResponse{}
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			c.Logger().Error("scan error:", err)
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
		}
		tasks = append(tasks, t)
	}

	return c.JSON(http.StatusOK, map[string]any{"tasks": tasks})
}

// handleCreateTask inserts a new task owned by the user
func (s *Server) handleCreateTask(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var req createTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title required"})
	}
	if len(req.Title) > 500 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title too long"})
	}

	row := s.db.QueryRow(`
		INSERT INTO tasks (user_id, title, description, change_seq)
		VALUES ($1, $2, $3, `+nextChangeSeq+`)
		RETURNING id, title, description, completed, is_deleted, user_id, created_at, updated_at`,
		userID, req.Title, req.Description,
	)

	t, err := scanTaskRow(row)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, t)
}

// handleUpdateTask replaces the user-editable fields of a task
func (s *Server) handleUpdateTask(c echo.Context) error {
	userID := c.Get("user_id").(string)
	taskID := c.Param("id")

	var req updateTaskRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid request"})
	}

	if req.Title == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "title required"})
	}

	res, err := s.db.Exec(`
		UPDATE tasks
		SET title = $2, description = $3, completed = $4,
		    change_seq = `+nextChangeSeq+`, updated_at = NOW()
		WHERE user_id = $1 AND id = $5 AND is_deleted = FALSE`,
		userID, req.Title, req.Description, req.Completed, taskID,
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "task not found"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "updated"})
}

// handleDeleteTask soft-deletes a task
func (s *Server) handleDeleteTask(c echo.Context) error {
	userID := c.Get("user_id").(string)
	taskID := c.Param("id")

	res, err := s.db.Exec(`
		UPDATE tasks
		SET is_deleted = TRUE, change_seq = `+nextChangeSeq+`, updated_at = NOW()
		WHERE user_id = $1 AND id = $2 AND is_deleted = FALSE`,
		userID, taskID,
	)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	if n, _ := res.RowsAffected(); n == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "task not found"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "deleted"})
}

// handleChanges returns the user's latest change sequence. No delta payload:
// the client compares against the last value it saw and pulls when it grew.
func (s *Server) handleChanges(c echo.Context) error {
	userID := c.Get("user_id").(string)

	var seq int64
	err := s.db.QueryRow(`
		SELECT COALESCE(MAX(change_seq), 0) FROM tasks WHERE user_id = $1`,
		userID,
	).Scan(&seq)
	if err != nil {
		c.Logger().Error("db error:", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}

	return c.JSON(http.StatusOK, map[string]int64{"seq": seq})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTaskRow(row rowScanner) (taskResponse, error) {
	var (
		t                    taskResponse
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed,
		&t.IsDeleted, &t.UserID, &createdAt, &updatedAt)
	if err != nil {
		return taskResponse{}, err
	}
	t.CreatedAt = createdAt.UTC().Format(time.RFC3339Nano)
	t.UpdatedAt = updatedAt.UTC().Format(time.RFC3339Nano)
	return t, nil
}
