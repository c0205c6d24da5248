package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/avelune/homehub/internal/queue"
	"github.com/avelune/homehub/internal/repository"
	"github.com/avelune/homehub/internal/service"
)

// ReminderHandler serves the singleton sticky note and the dated
// reminder items. Creating or rescheduling a dated item publishes a
// reminder.scheduled event; publish failures are swallowed because the
// database row is the source of truth and the queue is advisory.
type ReminderHandler struct {
	Reminders *repository.ReminderRepo
}

func NewReminderHandler(r *repository.ReminderRepo) *ReminderHandler {
	return &ReminderHandler{Reminders: r}
}

type noteReq struct {
	Message string `json:"message" form:"message"`
}

type reminderItemReq struct {
	Title          string `json:"title" form:"title"`
	Message        string `json:"message" form:"message"`
	RemindAt       string `json:"remind_at" form:"remind_at"`
	IsRecurring    bool   `json:"is_recurring" form:"is_recurring"`
	RecurrenceRule string `json:"recurrence_rule" form:"recurrence_rule"`
}

// GetNote returns the account's sticky note; an account that never
// saved one gets an empty message rather than 404.
func (h *ReminderHandler) GetNote(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	note, err := h.Reminders.GetNote(ctx, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reminder failed"})
	}
	return c.JSON(http.StatusOK, note)
}

// PutNote replaces the sticky note text.
func (h *ReminderHandler) PutNote(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req noteReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Reminders.UpsertNote(ctx, accountID, req.Message); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save reminder failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": req.Message})
}

// ListItems returns all reminder items for the account.
func (h *ReminderHandler) ListItems(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	items, err := h.Reminders.ListItems(ctx, accountID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list reminders failed"})
	}
	return c.JSON(http.StatusOK, items)
}

// parseItem validates a reminder item request. remind_at may be empty
// for undated notes; when set it must parse under one of the accepted
// timestamp layouts.
func parseItem(req reminderItemReq, accountID uint64) (repository.ReminderItem, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return repository.ReminderItem{}, errors.New("title is required")
	}
	it := repository.ReminderItem{
		AccountID:      accountID,
		Title:          title,
		Message:        strings.TrimSpace(req.Message),
		IsRecurring:    req.IsRecurring,
		RecurrenceRule: strings.TrimSpace(req.RecurrenceRule),
	}
	if at := strings.TrimSpace(req.RemindAt); at != "" {
		if _, ok := service.ParseRemindAt(at, time.Local); !ok {
			return repository.ReminderItem{}, errors.New("remind_at is not a recognized timestamp")
		}
		it.RemindAt = &at
	}
	return it, nil
}

// CreateItem inserts a reminder item and announces it on the queue.
func (h *ReminderHandler) CreateItem(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req reminderItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	it, err := parseItem(req, accountID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Reminders.CreateItem(ctx, &it); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create reminder failed"})
	}
	h.announce(ctx, it)
	return c.JSON(http.StatusCreated, it)
}

// UpdateItem rewrites a reminder item. A changed due time re-announces
// the reminder on the queue.
func (h *ReminderHandler) UpdateItem(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reminder not found"})
	}
	var req reminderItemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	it, err := parseItem(req, accountID)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
	}
	it.ID = id

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Reminders.UpdateItem(ctx, &it); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reminder not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update reminder failed"})
	}
	if it.RemindAt != nil {
		h.announce(ctx, it)
	}
	return c.JSON(http.StatusOK, it)
}

// DeleteItem removes a reminder item owned by the session account.
func (h *ReminderHandler) DeleteItem(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "reminder not found"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	if err := h.Reminders.DeleteItem(ctx, accountID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reminder not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete reminder failed"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ReminderHandler) announce(ctx context.Context, it repository.ReminderItem) {
	at := ""
	if it.RemindAt != nil {
		at = *it.RemindAt
	}
	_ = queue.PublishReminderScheduled(ctx, queue.ReminderScheduledEvent{
		ReminderID:  it.ID,
		AccountID:   it.AccountID,
		Title:       it.Title,
		Message:     it.Message,
		RemindAt:    at,
		IsRecurring: it.IsRecurring,
		ScheduledAt: time.Now().UTC().Format(time.RFC3339),
	})
}
