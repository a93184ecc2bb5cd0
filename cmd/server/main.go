package main // Entry point package

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/lmittmann/tint"

	"github.com/iliyamo/bug-tracker/internal/config"
	"github.com/iliyamo/bug-tracker/internal/database"
	"github.com/iliyamo/bug-tracker/internal/handler"
	"github.com/iliyamo/bug-tracker/internal/middleware"
	"github.com/iliyamo/bug-tracker/internal/queue"
	"github.com/iliyamo/bug-tracker/internal/repository"
	"github.com/iliyamo/bug-tracker/internal/router"
	"github.com/iliyamo/bug-tracker/internal/service"
)

func main() {
	// .env is optional; real deployments set variables directly.
	_ = godotenv.Load()
	cfg := config.Load()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:		slog.LevelDebug,
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(logger)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Error("database open failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		logger.Error("schema setup failed", "err", err)
		os.Exit(1)
	}
	cancel()

	// Redis is optional: a nil client disables rate limiting, the
	// search response cache and the unread-counter cache.
	rdb := config.NewRedisClient()
	if rdb == nil {
		logger.Warn("redis unavailable, limiter and caches disabled")
	}

	users := repository.NewUserRepo(db)
	projects := repository.NewProjectRepo(db)
	tickets := repository.NewTicketRepo(db)
	support := repository.NewSupportTicketRepo(db)

	notifier := service.NewNotifier(users, rdb, logger)
	membership := service.NewMembership(projects, users, notifier, queue.PublishMail)
	ticketSvc := service.NewTickets(tickets, projects, support)
	projectSvc := service.NewProjects(projects, tickets, users, logger)

	// The mail worker runs for the lifetime of the process and
	// reconnects on its own; its error return is effectively unreachable.
	go func() {
		if err := queue.StartMailConsumer(); err != nil {
			logger.Error("mail consumer stopped", "err", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	searchCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e, cfg, router.Handlers{
		Auth:			handler.NewAuthHandler(cfg, users),
		Users:			handler.NewUserHandler(users, projects, tickets, notifier, membership),
		Projects:		handler.NewProjectHandler(projectSvc, projects, tickets),
		ProjectUsers:	handler.NewProjectUserHandler(membership),
		Tickets:		handler.NewTicketHandler(ticketSvc, tickets),
		ArchivedTicket: handler.NewArchivedTicketHandler(ticketSvc, tickets),
		Support:		handler.NewSupportTicketHandler(ticketSvc, support),
	}, searchCache)

	addr := ":" + cfg.Port
	logger.Info("listening", "addr", addr, "env", cfg.Env)
	if err := e.Start(addr); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
