package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/git-seb/rental-sync-engine/internal/api/handlers"
	"github.com/git-seb/rental-sync-engine/internal/api/middleware"
	"github.com/git-seb/rental-sync-engine/internal/config"
	"github.com/git-seb/rental-sync-engine/internal/logger"
	"github.com/git-seb/rental-sync-engine/internal/pms"
	"github.com/git-seb/rental-sync-engine/internal/store"
	syncer "github.com/git-seb/rental-sync-engine/internal/sync"
)

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, log *logger.Logger, registry *pms.Registry, orchestrator *syncer.Orchestrator, mappings *store.MappingStore, syncLog *store.SyncLog) *Server {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(cors.Default())

	webhookHandler := handlers.NewWebhookHandler(registry, orchestrator, syncLog, log)
	syncHandler := handlers.NewSyncHandler(orchestrator, log)
	mappingHandler := handlers.NewMappingHandler(mappings, log)
	logHandler := handlers.NewLogHandler(syncLog, log)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"providers": registry.Names(),
		})
	})

	router.POST("/webhook/:provider", webhookHandler.Receive)

	v1 := router.Group("/api/v1")
	{
		v1.POST("/sync", syncHandler.Trigger)
		v1.POST("/orders/:id/push", syncHandler.PushOrder)
		v1.POST("/orders/:id/cancel", syncHandler.CancelOrder)

		mappings := v1.Group("/mappings")
		{
			mappings.GET("/listings", mappingHandler.ListListings)
			mappings.GET("/bookings", mappingHandler.ListBookings)
			mappings.PATCH("/listings/:id", mappingHandler.ToggleListing)
		}

		v1.GET("/logs", logHandler.List)
	}

	return &Server{
		config: cfg,
		logger: log,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	return s.server.Shutdown(ctx)
}

// Router exposes the Gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
