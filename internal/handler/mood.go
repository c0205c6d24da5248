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
	"github.com/avelune/homehub/internal/service"
)

// MoodHandler serves the wellness page, the daily mood upsert and the
// per-metric wellness updates.
type MoodHandler struct {
	Moods *repository.WellnessRepo
}

func NewMoodHandler(m *repository.WellnessRepo) *MoodHandler {
	return &MoodHandler{Moods: m}
}

// moodScores maps the mood labels the client offers onto the 0-3 scale
// used by the weekly summary. Unknown labels land on the neutral 2.
var moodScores = map[string]int{
	"Great":    3,
	"Happy":    3,
	"Good":     2,
	"Neutral":  2,
	"Okay":     2,
	"Tired":    1,
	"Sad":      1,
	"Stressed": 0,
	"Awful":    0,
}

type moodReq struct {
	Mood  string `json:"mood" form:"mood"`
	Score string `json:"mood_score" form:"mood_score"`
}

type wellnessReq struct {
	Metric string `json:"metric" form:"metric"`
	Value  string `json:"value" form:"value"`
}

// Page renders the mood and wellness tracker for today.
func (h *MoodHandler) Page(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.Redirect(http.StatusFound, "/login")
	}
	now := time.Now()
	today := now.Format("2006-01-02")

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	mood := repository.DailyMood{Date: today, Mood: "Neutral", Score: 2}
	if m, err := h.Moods.GetMood(ctx, accountID, today); err == nil {
		mood = m
	} else if !errors.Is(err, repository.ErrNotFound) {
		return c.Render(http.StatusInternalServerError, "mood.html", echo.Map{"Error": "could not load mood"})
	}

	wellness := repository.DailyWellness{Date: today, Sleep: "7.5", Water: "0", Activity: "Light Stretching", Stress: 5}
	if w, err := h.Moods.GetWellness(ctx, accountID, today); err == nil {
		wellness = w
	} else if !errors.Is(err, repository.ErrNotFound) {
		return c.Render(http.StatusInternalServerError, "mood.html", echo.Map{"Error": "could not load wellness"})
	}

	return c.Render(http.StatusOK, "mood.html", echo.Map{
		"Mood":     mood,
		"Wellness": wellness,
		"Tips":     service.TipsFor(mood.Score),
		"Name":     accountName(c),
	})
}

// UpdateMood upserts today's mood. An explicit mood_score wins over
// the label mapping; both are clamped to the 0-3 scale.
func (h *MoodHandler) UpdateMood(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req moodReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	mood := strings.TrimSpace(req.Mood)
	if mood == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "mood is required"})
	}
	score, ok := moodScores[mood]
	if !ok {
		score = 2
	}
	if v := strings.TrimSpace(req.Score); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 || n > 3 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "mood_score must be 0-3"})
		}
		score = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	m := repository.DailyMood{
		AccountID: accountID,
		Date:      time.Now().Format("2006-01-02"),
		Mood:      mood,
		Score:     score,
	}
	if err := h.Moods.UpsertMood(ctx, &m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save mood failed"})
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, m)
	}
	return c.Redirect(http.StatusFound, "/mood")
}

// UpdateWellness updates one wellness metric for today. The metric
// name is parsed into the enum so request input never reaches SQL as
// a column name.
func (h *MoodHandler) UpdateWellness(c echo.Context) error {
	accountID, err := getAccountID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var req wellnessReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	metric, err := repository.ParseWellnessMetric(strings.TrimSpace(req.Metric))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "metric must be one of sleep, water, activity, stress"})
	}
	value := strings.TrimSpace(req.Value)
	if value == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "value is required"})
	}
	stress := 0
	if metric == repository.MetricStress {
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 || n > 10 {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "stress must be 0-10"})
		}
		stress = n
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), dbTimeoutSec*time.Second)
	defer cancel()

	today := time.Now().Format("2006-01-02")
	if err := h.Moods.UpdateMetric(ctx, accountID, today, metric, value, stress); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "save wellness failed"})
	}
	if wantsJSON(c) {
		return c.JSON(http.StatusOK, echo.Map{"metric": req.Metric, "value": value})
	}
	return c.Redirect(http.StatusFound, "/mood")
}
