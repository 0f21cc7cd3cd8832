package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/visitorlog/visitorlog-backend/internal/config"
	"github.com/visitorlog/visitorlog-backend/internal/database"
	"github.com/visitorlog/visitorlog-backend/internal/handlers"
	"github.com/visitorlog/visitorlog-backend/internal/middleware"
	"github.com/visitorlog/visitorlog-backend/internal/services"
	"github.com/visitorlog/visitorlog-backend/pkg/session"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Visitor Log Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if err := database.EnsureSchema(db); err != nil {
		logger.Fatalf("Failed to ensure schema: %v", err)
	}
	if cfg.Seed.Enabled {
		if err := database.SeedAdminUser(db, *cfg, logger); err != nil {
			logger.Fatalf("Failed to seed admin user: %v", err)
		}
	}

	// Initialize repositories
	userRepository := database.NewUserRepository(db)
	visitorRepository := database.NewVisitorRepository(db)
	roomVisitRepository := database.NewRoomVisitRepository(db)
	preRegRepository := database.NewPreRegistrationRepository(db)
	sessionRepository := database.NewSessionRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	tokenService := session.NewService(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.RememberTTL)
	authService := services.NewAuthService(userRepository)
	visitorService := services.NewVisitorService(visitorRepository)
	roomVisitService := services.NewRoomVisitService(roomVisitRepository, visitorRepository)
	preRegService := services.NewPreRegistrationService(db, preRegRepository, visitorRepository, roomVisitRepository)
	userService := services.NewUserService(userRepository, sessionRepository, cfg.Security.BcryptCost)
	dashboardService := services.NewDashboardService(visitorRepository, roomVisitRepository)
	rateLimitService := services.NewRateLimitService(db)
	auditService := services.NewAuditService(db)
	maintenanceService := services.NewMaintenanceService(sessionRepository, rateLimitService, auditService, logger)

	// Initialize handlers
	cookieOpts := middleware.CookieOptions{
		Name:   cfg.Session.CookieName,
		Secure: cfg.Session.CookieSecure,
	}
	authHandler := handlers.NewAuthHandler(authService, sessionRepository, tokenService, cookieOpts, rateLimitService, auditService, logger)
	visitorHandler := handlers.NewVisitorHandler(visitorService, logger)
	roomVisitHandler := handlers.NewRoomVisitHandler(roomVisitService, logger)
	preRegHandler := handlers.NewPreRegistrationHandler(preRegService, logger)
	kioskHandler := handlers.NewKioskHandler(preRegService, visitorService, roomVisitService, auditService, logger)
	userHandler := handlers.NewUserHandler(userService, auditService, logger)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	authenticated := middleware.AuthMiddleware(tokenService, sessionRepository, cookieOpts, logger)
	adminOnly := middleware.RequireRole("Admin")

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authenticated, authHandler.Logout)
			auth.GET("/me", authenticated, authHandler.Me)
		}

		// Self-service kiosk (public, no session)
		kiosk := v1.Group("/kiosk")
		{
			kiosk.POST("/lookup", kioskHandler.Lookup)
			kiosk.POST("/check-in", kioskHandler.CheckIn)
			kiosk.POST("/walk-in", kioskHandler.WalkIn)
		}

		// Dashboard aggregates
		dashboard := v1.Group("/dashboard", authenticated)
		{
			dashboard.GET("/summary", dashboardHandler.Summary)
			dashboard.GET("/charts/visitors-per-day", dashboardHandler.VisitorsPerDay)
			dashboard.GET("/charts/visitor-status", dashboardHandler.VisitorStatus)
			dashboard.GET("/charts/top-rooms", dashboardHandler.TopRooms)
		}

		// Visitor log
		visitors := v1.Group("/visitors", authenticated)
		{
			visitors.POST("", visitorHandler.Create)
			visitors.GET("", visitorHandler.List)
			visitors.GET("/:id", visitorHandler.Get)
			visitors.PUT("/:id", visitorHandler.Update)
			visitors.DELETE("/:id", adminOnly, visitorHandler.Delete)
			visitors.POST("/:id/checkout", visitorHandler.CheckOut)
		}

		// Room movement
		roomVisits := v1.Group("/room-visits", authenticated)
		{
			roomVisits.POST("", roomVisitHandler.Create)
			roomVisits.GET("", roomVisitHandler.List)
			roomVisits.GET("/:id", roomVisitHandler.Get)
			roomVisits.GET("/visitor/:visitorId", roomVisitHandler.ByVisitor)
			roomVisits.GET("/visitor/:visitorId/current", roomVisitHandler.CurrentLocation)
			roomVisits.GET("/room/:roomName", roomVisitHandler.ByRoom)
		}

		// Pre-registrations
		preRegs := v1.Group("/pre-registrations", authenticated)
		{
			preRegs.POST("", preRegHandler.Create)
			preRegs.GET("", preRegHandler.List)
			preRegs.GET("/:id", preRegHandler.Get)
			preRegs.PUT("/:id", preRegHandler.Update)
			preRegs.DELETE("/:id", preRegHandler.Delete)
			preRegs.POST("/:id/check-in", preRegHandler.CheckIn)
		}

		// Account administration
		admin := v1.Group("/admin", authenticated, adminOnly)
		{
			admin.POST("/users", userHandler.Create)
			admin.GET("/users", userHandler.List)
			admin.GET("/users/stats", userHandler.Stats)
			admin.GET("/users/:id", userHandler.Get)
			admin.GET("/users/:id/audit", userHandler.AuditTrail)
			admin.PUT("/users/:id", userHandler.Update)
			admin.DELETE("/users/:id", userHandler.Delete)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Scheduled housekeeping: session, rate limit and audit log cleanup
	if err := maintenanceService.Start(); err != nil {
		logger.Fatalf("Failed to start maintenance jobs: %v", err)
	}
	defer maintenanceService.Stop()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
		}

		if len(c.Errors) > 0 {
			logger.WithFields(fields).Error(c.Errors.String())
			return
		}

		switch {
		case c.Writer.Status() >= http.StatusInternalServerError:
			logger.WithFields(fields).Error("Request completed")
		case c.Writer.Status() >= http.StatusBadRequest:
			logger.WithFields(fields).Warn("Request completed")
		default:
			logger.WithFields(fields).Info("Request completed")
		}
	}
}

func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
