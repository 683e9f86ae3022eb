package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/paces/backend/internal/api/handlers"
	"github.com/paces/backend/internal/dashboard"
	"github.com/paces/backend/internal/metrics"
	"github.com/paces/backend/internal/middleware/ratelimit"
	"github.com/paces/backend/internal/middleware/security"
	"github.com/paces/backend/internal/middleware/validation"
	"github.com/paces/backend/internal/storage/sqlite"
	"github.com/paces/backend/pkg/config"
	appLogger "github.com/paces/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting PACES dashboard", zap.String("source", cfg.Dashboard.Source))

	metrics.Init()

	src, err := loadSources(cfg)
	if err != nil {
		appLogger.Fatal("Failed to load dashboard data", zap.Error(err))
	}

	palette := dashboard.DefaultPalette()
	palette.Neutral = cfg.Dashboard.NeutralColor
	palette.Positive = cfg.Dashboard.PositiveColor
	palette.Negative = cfg.Dashboard.NegativeColor
	palette.SelectedEdge = cfg.Dashboard.SelectedEdgeColor

	data := dashboard.NewDataset(src, cfg.Dashboard.ScoreCutoff)
	sessions := dashboard.NewSessionStore(data, palette, time.Duration(cfg.Dashboard.SessionIdleMin)*time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sessions.Run(ctx, time.Minute)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{Logger: appLogger.GetLogger()})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, " + handlers.SessionHeader,
		AllowMethods:  "GET, POST, OPTIONS",
		ExposeHeaders: handlers.SessionHeader,
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		ScriptSources: []string{"https://unpkg.com"},
		IsDevelopment: cfg.Logging.Level == "debug",
	}))

	callbacks := handlers.NewCallbacks(cfg.Dashboard.PageSize)
	pageHandler := handlers.NewPageHandler(palette, cfg.Dashboard.PageSize)
	graphHandler := handlers.NewGraphHandler(sessions, callbacks)
	tableHandler := handlers.NewTableHandler(sessions, callbacks)
	wsHandler := handlers.NewWebSocketHandler(sessions, callbacks)

	app.Get("/", pageHandler.Render(handlers.TabNetwork))
	app.Get("/cytoscape", pageHandler.Render(handlers.TabNetwork))
	app.Get("/interaction_table", pageHandler.Render(handlers.TabInteractions))
	app.Get("/acetylation_table", pageHandler.Render(handlers.TabAcetylation))

	app.Get("/metrics", metrics.MetricsHandler())

	app.Use("/ws", wsHandler.Upgrade)
	app.Get("/ws", websocket.New(wsHandler.HandleConnection))

	api := app.Group("/api/v1")
	api.Use(limiter.Middleware(handlers.SessionHeader))
	api.Use(validation.Middleware(validation.Config{Logger: appLogger.GetLogger()}))

	api.Get("/session", graphHandler.Session)

	api.Post("/graph/layout", graphHandler.SetLayout)
	api.Get("/graph/elements", graphHandler.Elements)
	api.Get("/graph/count", graphHandler.Count)
	api.Post("/graph/toggle-annotated", graphHandler.ToggleAnnotated)
	api.Get("/graph/node/:id", graphHandler.Node)
	api.Post("/graph/stylesheet", graphHandler.Stylesheet)
	api.Post("/graph/export", graphHandler.Export)

	api.Post("/tables/reset", tableHandler.Reset)
	api.Get("/tables/:table", tableHandler.Get)
	api.Post("/tables/:table", tableHandler.Filter)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":   "healthy",
			"time":     time.Now().Unix(),
			"sessions": sessions.Len(),
		})
	})

	api.Get("/ready", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ready",
			"edges":  len(data.Edges()),
		})
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	cancel()
	app.Shutdown()
	appLogger.Info("Server stopped")
}

// loadSources reads the dashboard tables from the flat files or, with
// dashboard.source=sqlite, from the pipeline's sqlite mirror.
func loadSources(cfg *config.Config) (dashboard.Sources, error) {
	if cfg.Dashboard.Source != "sqlite" {
		return dashboard.LoadTSV(cfg.Paths)
	}

	db, err := sqlite.NewClient(cfg.SQLite.Path)
	if err != nil {
		return dashboard.Sources{}, fmt.Errorf("failed to create SQLite client: %w", err)
	}
	defer db.Close()

	return dashboard.LoadStore(context.Background(), db, cfg.Dashboard.ScoreCutoff)
}
