package main // Entry point package

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/avelune/homehub/internal/config"
	"github.com/avelune/homehub/internal/database"
	"github.com/avelune/homehub/internal/handler"
	"github.com/avelune/homehub/internal/queue"
	"github.com/avelune/homehub/internal/repository"
	"github.com/avelune/homehub/internal/router"
	"github.com/avelune/homehub/internal/service"
	"github.com/avelune/homehub/internal/view"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	rdb := config.NewRedisClient()

	accounts := repository.NewAccountRepo(db)
	sessions := repository.NewSessionRepo(db)
	tasks := repository.NewTaskRepo(db)
	budgets := repository.NewBudgetRepo(db)
	expenses := repository.NewExpenseRepo(db)
	groceries := repository.NewGroceryRepo(db)
	reminders := repository.NewReminderRepo(db)
	wellness := repository.NewWellnessRepo(db)

	engine := service.NewEngine(tasks, budgets, expenses, groceries, reminders, wellness)

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())

	renderer, err := view.New()
	if err != nil {
		log.Fatalf("load templates: %v", err)
	}
	e.Renderer = renderer

	h := router.Handlers{
		Auth:      handler.NewAuthHandler(cfg, accounts, sessions),
		Profile:   handler.NewProfileHandler(cfg, accounts),
		Dashboard: handler.NewDashboardHandler(engine),
		Tasks:     handler.NewTaskHandler(tasks),
		Budget:    handler.NewBudgetHandler(budgets, expenses, groceries),
		Expenses:  handler.NewExpenseHandler(expenses),
		Grocery:   handler.NewGroceryHandler(groceries),
		Reminders: handler.NewReminderHandler(reminders),
		Mood:      handler.NewMoodHandler(wellness),
	}
	router.Register(e, h, cfg, rdb)

	// background audit trail for scheduled reminders
	go func() {
		if err := queue.StartReminderConsumer(); err != nil {
			log.Printf("reminder consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
