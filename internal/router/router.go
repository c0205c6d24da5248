// Package router wires the handlers onto the Echo instance. Pages and
// form twins live at the root and redirect to /login when the session
// is missing; JSON endpoints live under /api and answer 401 instead.
package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/avelune/homehub/internal/config"
	"github.com/avelune/homehub/internal/handler"
	"github.com/avelune/homehub/internal/middleware"
)

// Handlers collects every handler the router needs.
type Handlers struct {
	Auth      *handler.AuthHandler
	Profile   *handler.ProfileHandler
	Dashboard *handler.DashboardHandler
	Tasks     *handler.TaskHandler
	Budget    *handler.BudgetHandler
	Expenses  *handler.ExpenseHandler
	Grocery   *handler.GroceryHandler
	Reminders *handler.ReminderHandler
	Mood      *handler.MoodHandler
}

// Register mounts all routes. rdb may be nil, in which case the cache
// and rate-limit middleware are skipped (useful in tests and local
// setups without Redis).
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/", func(c echo.Context) error { return c.Redirect(http.StatusFound, "/dashboard") })
	e.Static("/uploads", cfg.UploadDir)

	// account lifecycle, no session required
	e.GET("/signup", h.Auth.SignupPage)
	e.POST("/signup", h.Auth.Signup)
	e.GET("/login", h.Auth.LoginPage)
	e.POST("/login", h.Auth.Login)
	e.GET("/logout", h.Auth.Logout)
	e.GET("/forgot", h.Auth.ForgotPage)
	e.POST("/forgot", h.Auth.Forgot)
	e.POST("/reset-password", h.Auth.ResetPassword)
	e.POST("/api/session/refresh", h.Auth.Refresh)

	// server-rendered pages and their form twins
	pages := e.Group("", middleware.PageAuth(cfg.JWTSecret))
	pages.GET("/dashboard", h.Dashboard.Page)
	pages.GET("/tasks", h.Tasks.Page)
	pages.POST("/tasks", h.Tasks.Create)
	pages.POST("/tasks/add", h.Tasks.Create)
	pages.POST("/tasks/:id/complete", h.Tasks.Complete)
	pages.POST("/tasks/:id/delete", h.Tasks.Delete)
	pages.GET("/budget", h.Budget.Page)
	pages.GET("/mood", h.Mood.Page)
	pages.POST("/update_mood", h.Mood.UpdateMood)
	pages.POST("/update_wellness", h.Mood.UpdateWellness)
	pages.GET("/profile/:id", h.Profile.Show)
	pages.GET("/profile/edit/:id", h.Profile.EditForm)
	pages.POST("/profile/edit/:id", h.Profile.Edit)
	pages.POST("/profile/:id/upload_photo", h.Profile.UploadPhoto)

	// JSON API
	api := e.Group("/api", middleware.SessionAuth(cfg.JWTSecret))
	if rdb != nil {
		api.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
		api.Use(middleware.NewRedisCache(config.LoadCacheConfig(), rdb))
	}
	api.GET("/me", h.Auth.Me)
	api.GET("/dashboard", h.Dashboard.Get)

	api.GET("/tasks", h.Tasks.List)
	api.POST("/tasks", h.Tasks.Create)
	api.PUT("/tasks/:id", h.Tasks.Update)
	api.DELETE("/tasks/:id", h.Tasks.Delete)

	api.GET("/budget", h.Budget.Get)
	api.PUT("/budget", h.Budget.Put)
	api.DELETE("/budget", h.Budget.Delete)
	api.POST("/budget-settings", h.Budget.Settings)

	api.GET("/expenses", h.Expenses.List)
	api.POST("/expenses", h.Expenses.Create)
	api.DELETE("/expenses/:id", h.Expenses.Delete)

	api.GET("/groceries", h.Grocery.List)
	api.POST("/groceries", h.Grocery.Create)
	api.PUT("/groceries/:id/check", h.Grocery.Check)
	api.DELETE("/groceries/:id", h.Grocery.Delete)

	api.GET("/reminder", h.Reminders.GetNote)
	api.PUT("/reminder", h.Reminders.PutNote)
	api.GET("/reminders", h.Reminders.ListItems)
	api.POST("/reminders", h.Reminders.CreateItem)
	api.PUT("/reminders/:id", h.Reminders.UpdateItem)
	api.DELETE("/reminders/:id", h.Reminders.DeleteItem)
}
