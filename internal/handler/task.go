package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelune/homehub/internal/repository"
)

// TaskStore is what the task handlers need from the repository layer.
// *repository.TaskRepo is the production implementation.
type TaskStore interface {
	Create(ctx context.Context, t *repository.Task) error
	Update(ctx context.Context, t *repository.Task) error
	ListForPlanner(ctx context.Context, accountID uint64, today string) ([]repository.Task, error)
	SetCompleted(ctx context.Context, accountID, id uint64, completed bool) error
	Delete(ctx context.Context, accountID, id uint64) error
	DeleteStaleCompleted(ctx context.Context, accountID uint64, today string) error
}

// TaskHandler serves the planner page and the task CRUD endpoints.
// Browser forms post to the /tasks/* twins; JSON clients use /api/tasks.
type TaskHandler struct {
	Tasks TaskStore
}

func NewTaskHandler(t TaskStore) *TaskHandler {
	return &TaskHandler{Tasks: t}
}

type taskReq struct {
	Title     string `json:"title" form:"title"`
	StartTime string `json:"start_time" form:"start_time"`
	Duration  string `json:"duration" form:"duration"`
	Color     string `json:"color" form:"color"`
	Priority  bool   `json:"is_priority" form:"is_priority"`
	TaskDate  string `json:"task_date" form:"task_date"`
	Completed bool   `json:"completed" form:"completed"`
}

// parseTask validates the request into a Task. Start and duration are
// optional; supplying only one of them, or a non-numeric value, leaves
// the task unscheduled rather than failing the request.
func parseTask(req taskReq, accountID uint64, now time.Time) (repository.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return repository.Task{}, errors.New("title is required")
	}
	date := strings.TrimSpace(req.TaskDate)
	if date == "" {
		date = now.Format("2006-01-02")
	} else if _, err := time.Parse("2006-01-02", date); err != nil {
		return repository.Task{}, errors.New("task_date must be YYYY-MM-DD")
	}

	t := repository.Task{
		AccountID: accountID,
		Title:     title,
		Color:     strings.TrimSpace(req.Color),
		Priority:  req.Priority,
		TaskDate:  date,
		Completed: req.Completed,
	}
	if t.Color == "" {
		t.Color = "blue"
	}
	start, sok := parseHour(req.StartTime)
	dur, dok := parseHour(req.Duration)
	if sok && dok {
		if start < 0 || start >= 24 {
			return repository.Task{}, errors.New("start_time must be within 0-24")
		}
		if dur <= 0 || start+dur > 24 {
			return repository.Task{}, errors.New("duration must be positive and end within the day")
		}
		t.StartTime = &start
		t.Duration = &dur
	}
	return t, nil
}

func parseHour(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Page renders the planner with the account's visible tasks.
func (h *TaskHandler) Page(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	today := time.Now().Format("2006-01-02")
	if err := h.Tasks.DeleteStaleCompleted(ctx, accountID, today); err != nil {
		return c.Render(http.StatusInternalServerError, "tasks.html", echo.Map{"Error": "could not load tasks"})
	}
	tasks, err := h.Tasks.ListForPlanner(ctx, accountID, today)
	if err != nil {
		return c.Render(http.StatusInternalServerError, "tasks.html", echo.Map{"Error": "could not load tasks"})
	}
	return c.Render(http.StatusOK, "tasks.html", echo.Map{
		"Tasks": tasks,
		"Today": today,
		"Name":  accountName(c),
	})
}

// List returns the planner task list as JSON.
func (h *TaskHandler) List(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	today := time.Now().Format("2006-01-02")
	if err := h.Tasks.DeleteStaleCompleted(ctx, accountID, today); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tasks failed"})
	}
	tasks, err := h.Tasks.ListForPlanner(ctx, accountID, today)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list tasks failed"})
	}
	return c.JSON(http.StatusOK, tasks)
}

// Create inserts a task. A schedule collision on the same date answers
// 409 so the client can re-prompt for a free slot.
func (h *TaskHandler) Create(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	t, err := parseTask(req, accountID, time.Now())
	if err != nil {
		return h.createFail(c, http.StatusBadRequest, err.Error())
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Tasks.Create(ctx, &t); err != nil {
		if errors.Is(err, repository.ErrOverlap) {
			return h.createFail(c, http.StatusConflict, "task overlaps an existing task")
		}
		return h.createFail(c, http.StatusInternalServerError, "create task failed")
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusCreated, t)
	}
	return c.Redirect(http.StatusFound, "/tasks")
}

func (h *TaskHandler) createFail(c echo.Context, code int, msg string) error {
	if wantsJSON(c) {
		return c.JSON(code, echo.Map{"error": msg})
	}
	return c.Render(code, "tasks.html", echo.Map{"Error": msg})
}

// Update rewrites a task in place, re-running the overlap check with
// the task itself excluded.
func (h *TaskHandler) Update(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}
	var req taskReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	t, err := parseTask(req, accountID, time.Now())
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	t.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Tasks.Update(ctx, &t); err != nil {
		switch {
		case errors.Is(err, repository.ErrOverlap):
			return c.JSON(http.StatusConflict, echo.Map{"error": "task overlaps an existing task"})
		case errors.Is(err, repository.ErrNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
		}
	}
	return c.JSON(http.StatusOK, t)
}

// Complete flips the completion flag. The form twin always sets it to
// done; JSON clients may pass completed=false to undo.
func (h *TaskHandler) Complete(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}
	completed := true
	if v := c.FormValue("completed"); v != "" {
		completed = v == "true" || v == "1" || v == "on"
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Tasks.SetCompleted(ctx, accountID, id, completed); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update task failed"})
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"id": id, "completed": completed})
	}
	return c.Redirect(http.StatusFound, "/tasks")
}

// Delete removes a task owned by the session account.
func (h *TaskHandler) Delete(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Tasks.Delete(ctx, accountID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "task not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete task failed"})
	}
	if wantsJSON(c) {
		return c.NoContent(http.StatusNoContent)
	}
	return c.Redirect(http.StatusFound, "/tasks")
}
