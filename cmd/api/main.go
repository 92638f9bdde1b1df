package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/matheusperin161/abexIVcorreto/internal/adapter/handler"
	"github.com/matheusperin161/abexIVcorreto/internal/adapter/middleware"
	"github.com/matheusperin161/abexIVcorreto/internal/adapter/storage"
	"github.com/matheusperin161/abexIVcorreto/internal/core/config"
	"github.com/matheusperin161/abexIVcorreto/internal/core/domain"
	"github.com/matheusperin161/abexIVcorreto/internal/core/events"
	"github.com/matheusperin161/abexIVcorreto/internal/core/fare"
	"github.com/matheusperin161/abexIVcorreto/internal/core/notify"
	"github.com/matheusperin161/abexIVcorreto/internal/core/tracking"
)

func main() {
	// 1. Load Config
	cfg := config.LoadConfig()

	// 2. Setup Logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 3. Connect to Database
	dbPool, err := storage.ConnectDB(context.Background(), cfg.DatabaseURL)
	if err != nil {
		slog.Error("❌ Database connection failed", "error", err)
		os.Exit(1)
	}

	// 4. Setup Repos
	userRepo := storage.NewUserRepository(dbPool)
	ledgerRepo := storage.NewLedgerRepository(dbPool)
	notificationRepo := storage.NewNotificationRepository(dbPool)
	trackingRepo := storage.NewTrackingRepository(dbPool)
	routeRepo := storage.NewRouteRepository(dbPool)
	driverRepo := storage.NewDriverRepository(dbPool)
	vehicleRepo := storage.NewVehicleRepository(dbPool)
	ratingRepo := storage.NewRatingRepository(dbPool)

	// 5. Core services
	var publisher domain.EventPublisher
	var kafkaPublisher *events.Publisher
	if cfg.KafkaBrokers != "" {
		kafkaPublisher = events.NewPublisher(strings.Split(cfg.KafkaBrokers, ","))
		publisher = kafkaPublisher
		slog.Info("Kafka publisher enabled", "brokers", cfg.KafkaBrokers)
	}

	sink := notify.NewSink(notificationRepo)
	engine := fare.NewEngine(ledgerRepo, sink, publisher)
	broadcaster := tracking.NewBroadcaster(trackingRepo)
	directions := tracking.NewDirectionsClient(trackingRepo, cfg.GoogleAPIKey,
		cfg.RouteOriginLat, cfg.RouteOriginLon, cfg.RouteDestLat, cfg.RouteDestLon)

	// 6. Handlers
	authHandler := &handler.AuthHandler{Users: userRepo}
	cardHandler := &handler.CardHandler{
		Engine:        engine,
		Ledger:        ledgerRepo,
		Routes:        routeRepo,
		Notifications: notificationRepo,
	}
	trackingHandler := &handler.TrackingHandler{
		Broadcaster: broadcaster,
		Directions:  directions,
		Store:       trackingRepo,
	}
	adminHandler := &handler.AdminHandler{
		Drivers:  driverRepo,
		Vehicles: vehicleRepo,
		Routes:   routeRepo,
		Ratings:  ratingRepo,
	}
	ratingHandler := &handler.RatingHandler{Ratings: ratingRepo}

	// 7. Setup Fiber
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	app.Use(cors.New())

	// 8. Routes
	api := app.Group("/api")

	// Public
	api.Post("/register", authHandler.Register)
	api.Post("/login", authHandler.Login)
	api.Post("/forgot-password", authHandler.ForgotPassword)
	api.Post("/reset-password", authHandler.ResetPassword)
	api.Get("/routes", cardHandler.GetRoutes)

	// Bus tracking (devices push, anyone reads)
	api.Post("/update_location", trackingHandler.UpdateLocation)
	api.Get("/locations", trackingHandler.GetLocations)
	api.Get("/route/:bus_id", trackingHandler.GetRoutePolyline)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/tracking", websocket.New(trackingHandler.Live))

	// Protected
	private := api.Use(middleware.Protected(userRepo))
	private.Post("/logout", authHandler.Logout)
	private.Get("/profile", authHandler.GetProfile)
	private.Put("/profile", authHandler.UpdateProfile)

	private.Get("/balance", cardHandler.GetBalance)
	private.Post("/recharge", middleware.Idempotency(dbPool), cardHandler.Recharge)
	private.Post("/use-transport", middleware.Idempotency(dbPool), cardHandler.UseTransport)
	private.Get("/transactions", cardHandler.GetTransactions)
	private.Get("/notifications", cardHandler.GetNotifications)
	private.Put("/notifications/:id/read", cardHandler.MarkNotificationRead)

	private.Post("/submit-rating", ratingHandler.Submit)
	private.Get("/my-ratings", ratingHandler.ListMine)

	// Admin
	admin := private.Use(middleware.AdminRequired(userRepo))
	admin.Post("/admin/drivers", adminHandler.AddDriver)
	admin.Get("/admin/drivers", adminHandler.ListDrivers)
	admin.Get("/admin/drivers/:id", adminHandler.GetDriver)
	admin.Put("/admin/drivers/:id", adminHandler.EditDriver)
	admin.Delete("/admin/drivers/:id", adminHandler.DeleteDriver)

	admin.Post("/admin/vehicles", adminHandler.AddVehicle)
	admin.Get("/admin/vehicles", adminHandler.ListVehicles)
	admin.Get("/admin/vehicles/:id", adminHandler.GetVehicle)
	admin.Put("/admin/vehicles/:id", adminHandler.EditVehicle)
	admin.Delete("/admin/vehicles/:id", adminHandler.DeleteVehicle)

	admin.Post("/admin/populate-routes", adminHandler.PopulateRoutes)
	admin.Get("/admin/ratings/stats", adminHandler.RatingStats)

	// 9. Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("🚀 Server starting", "env", cfg.Env, "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("Server forced to shutdown", "error", err)
		}
	}()

	<-stop
	slog.Info("🛑 Shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}

	if kafkaPublisher != nil {
		if err := kafkaPublisher.Close(); err != nil {
			slog.Error("Kafka publisher close failed", "error", err)
		}
	}

	dbPool.Close()
	slog.Info("✅ Database connection closed")

	slog.Info("👋 Server exited successfully")
}
