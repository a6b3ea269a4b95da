package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"fleet-backend/internal/admin"
	"fleet-backend/internal/audit"
	"fleet-backend/internal/auth"
	"fleet-backend/internal/config"
	"fleet-backend/internal/engine"
	"fleet-backend/internal/messaging"
	"fleet-backend/internal/navigation"
	"fleet-backend/internal/policy"
	"fleet-backend/internal/store"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Config loaded (port: %d, db: %s)", cfg.Server.Port, cfg.Database.Driver)

	// 2. Connect to database
	db, err := store.New(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	// 3. Bootstrap system tables
	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap system tables: %v", err)
	}
	log.Println("System tables ready")

	// 4. Build the policy table and engine
	authz := engine.NewEngine(policy.Default())
	log.Printf("Policy loaded (%d nodes, %d roles)", authz.Table().AllNodes().Len(), len(authz.Table().Roles()))

	// 5. Denial audit
	var recorder engine.DenialRecorder
	if cfg.Audit.Enabled {
		buf := audit.NewBuffer(db, cfg.Audit.BufferSize, cfg.Audit.FlushIntervalMs)
		defer buf.Stop()
		recorder = buf
		audit.StartCleanup(ctx, db, cfg.Audit.RetentionDays)
	}
	guard := engine.NewGuard(authz, recorder)

	// 6. Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: engine.ErrorHandler,
	})
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${status} ${method} ${path} ${latency}\n",
	}))

	// 7. Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// 8. Auth and account routes
	authMW := auth.AuthMiddleware(cfg.JWTSecret)
	authHandler := auth.NewAuthHandler(db, cfg.JWTSecret)
	auth.RegisterAuthRoutes(app, authHandler, guard, authMW)

	// 9. Session and navigation
	engine.RegisterSessionRoutes(app, engine.NewSessionHandler(authz), authMW)
	navigation.RegisterRoutes(app, navigation.NewHandler(guard), authMW)

	// 10. Messaging
	messaging.RegisterRoutes(app, messaging.NewHandler(db), guard, authMW)

	// 11. Administration
	adminGroup := admin.RegisterAdminRoutes(app, admin.NewHandler(db, authz), guard, authMW)
	audit.RegisterRoutes(adminGroup, audit.NewHandler(db), guard)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down")
		cancel()
		if err := app.Shutdown(); err != nil {
			log.Printf("ERROR: shutdown: %v", err)
		}
	}()

	// 12. Start server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("Starting server on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Printf("ERROR: %v", err)
	}
}
