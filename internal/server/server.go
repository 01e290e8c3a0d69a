package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gatepass/internal/config"
	"gatepass/internal/handler"
	"gatepass/internal/middleware"
	"gatepass/internal/services"
	"gatepass/internal/transport/httpdto"
	"gatepass/pkg/logger"

	"github.com/gin-gonic/gin"
)

type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     *config.Config
	logger     *logger.Logger
	db         *sql.DB
}

var (
	ReleaseMode = "release"
	DebugMode   = "debug"
	TestMode    = "test"
)

type Handlers struct {
	Notify   *handler.NotifyHandler
	Provider *handler.ProviderHandler
	Guest    *handler.GuestHandler
	Event    *handler.EventHandler
	Print    *handler.PrintHandler
}

func New(cfg *config.Config, l *logger.Logger, db *sql.DB) *Server {
	if cfg.Server.Environment == ReleaseMode {
		gin.SetMode(gin.ReleaseMode)
	} else if cfg.Server.Environment == TestMode {
		gin.SetMode(gin.TestMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	return &Server{
		httpServer: &http.Server{
			Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
			Handler: engine,
		},
		engine: engine,
		config: cfg,
		logger: l,
		db:     db,
	}
}

func (s *Server) SetupRoutes(handlers *Handlers, authService *services.AuthService) {
	s.engine.Use(middleware.RequestIDMiddleware())
	s.engine.Use(middleware.LoggingMiddleware(s.logger))
	s.engine.Use(middleware.ErrorHandler(s.logger))

	s.engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "pong"}))
	})

	s.engine.GET("/health", func(c *gin.Context) {
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, httpdto.NewErrorResponse(err.Error(), "UNHEALTHY"))
			return
		}
		c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"status": "healthy"}))
	})

	authed := middleware.AuthMiddleware(authService)

	notify := s.engine.Group("/v1/notify", authed)
	{
		notify.POST("/email", handlers.Notify.SendEmail)
		notify.POST("/sms", handlers.Notify.SendSMS)
		notify.POST("/whatsapp", handlers.Notify.SendWhatsApp)
		notify.POST("/records/:id/resend", handlers.Notify.Resend)
		notify.GET("/audit", handlers.Notify.ListAudit)
	}

	providers := s.engine.Group("/v1/providers", authed)
	{
		providers.GET("/:channel", handlers.Provider.Get)
		providers.POST("", handlers.Provider.Save)
	}

	events := s.engine.Group("/v1/events", authed)
	{
		events.POST("", handlers.Event.Create)
		events.GET("/:id", handlers.Event.GetByID)
		events.GET("/:id/stats", handlers.Event.Stats)
		events.GET("/:id/guests", handlers.Guest.ListByEvent)
		events.POST("/:id/invites", handlers.Notify.SendInvites)
		events.POST("/:id/print-jobs", handlers.Print.Enqueue)
		events.GET("/:id/print-jobs/:jobId", handlers.Print.GetJob)
		events.POST("/:id/print-lock", handlers.Print.AcquireLock)
	}

	guests := s.engine.Group("/v1/guests", authed)
	{
		guests.POST("", handlers.Guest.Create)
		guests.GET("/:id", handlers.Guest.GetByID)
		guests.PATCH("/:id", handlers.Guest.Update)
		guests.DELETE("/:id", handlers.Guest.Delete)
		guests.POST("/:id/checkin", handlers.Guest.CheckIn)
	}
}

func (s *Server) Start() error {
	go func() {
		if s.logger != nil {
			s.logger.Infof("Starting the server on port %s...", s.config.Server.Port)
		}
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.logger != nil {
				s.logger.Errorf("Error in starting the server: %s", err)
			}
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	if s.logger != nil {
		s.logger.Infof("Server is running on :%s", s.config.Server.Port)
	}

	<-quit

	if s.logger != nil {
		s.logger.Infof("Quitting signal received.. Shutting down after 5 seconds")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		if s.logger != nil {
			s.logger.Infof("Error in the graceful shutdown of the server: %s", err)
		}
		return err
	}

	if s.logger != nil {
		s.logger.Infof("Server stopped gracefully")
	}

	return nil
}
