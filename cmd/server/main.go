package main

import (
	"log"
	"sistema_pip_go/config"
	"sistema_pip_go/db"
	"sistema_pip_go/handlers"
	"sistema_pip_go/middleware"
	"sistema_pip_go/models"
	"sistema_pip_go/services"
	"sistema_pip_go/services/jobs"
	"time"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Investigation{},
		&models.HistoryEntry{},
		&models.Attachment{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed default accounts on an empty database
	if err := services.SeedDefaultUsers(db.DB); err != nil {
		log.Fatalf("Failed to seed default users: %v", err)
	}

	// Initialize attachment storage
	services.InitializeStorage(cfg)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	// Public routes (no authentication required)
	e.POST("/login", handlers.LoginPostHandler)

	// Protected routes
	protected := e.Group("")
	protected.Use(middleware.RequireAuth())
	{
		protected.POST("/logout", handlers.LogoutHandler)
		protected.GET("/api/me", handlers.GetCurrentUserHandler)
		protected.GET("/api/dashboard", handlers.DashboardHandler)

		// Read routes (all roles)
		protected.GET("/api/investigations", handlers.GetInvestigationsHandler)
		protected.GET("/api/investigations/export", handlers.ExportInvestigationsHandler)
		protected.GET("/api/investigations/:id", handlers.GetInvestigationDetailHandler)
		protected.GET("/api/investigations/:id/report", handlers.InvestigationReportHandler)
		protected.GET("/api/investigations/:id/attachments/:attachmentId", handlers.DownloadAttachmentHandler)

		// Write routes (admin and investigator)
		writeRoutes := protected.Group("")
		writeRoutes.Use(middleware.RequireWriteAccess())
		{
			writeRoutes.POST("/api/investigations", handlers.CreateInvestigationHandler)
			writeRoutes.PUT("/api/investigations/:id", handlers.UpdateInvestigationHandler)
			writeRoutes.POST("/api/investigations/:id/diligences", handlers.AddDiligenceHandler)
			writeRoutes.POST("/api/investigations/:id/attachments", handlers.UploadAttachmentHandler)
			writeRoutes.DELETE("/api/investigations/:id/attachments/:attachmentId", handlers.DeleteAttachmentHandler)
		}

		// Admin-only routes
		adminRoutes := protected.Group("")
		adminRoutes.Use(middleware.RequireRole(models.RoleAdmin))
		{
			adminRoutes.DELETE("/api/investigations/:id", handlers.DeleteInvestigationHandler)
		}
	}

	// Start the deadline alert scheduler
	jobs.StartScheduler(db.DB, cfg)

	// Start background cleanup job (runs every hour)
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			if err := services.CleanupExpiredSessions(db.DB); err != nil {
				log.Printf("Error cleaning up expired sessions: %v", err)
			}
		}
	}()

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
