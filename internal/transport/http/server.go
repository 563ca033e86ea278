package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/abbb1399/coding-together-server/internal/auth"
	"github.com/abbb1399/coding-together-server/internal/config"
	"github.com/abbb1399/coding-together-server/internal/core"
	"github.com/abbb1399/coding-together-server/internal/store"
)

// NewServer builds the HTTP server: REST API, health check and the
// chat websocket endpoint.
func NewServer(hub *core.Hub, authService *auth.Service, st store.Store, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	wsHandler := NewWSHandler(hub, logger)
	router.GET("/ws", func(c *gin.Context) {
		wsHandler.ServeHTTP(c.Writer, c.Request)
	})

	apiHandlers := NewAPIHandlers(authService, logger)
	coachHandlers := NewCoachHandlers(st, logger)
	uploadHandlers := NewUploadHandlers(st, cfg.UploadDir, cfg.MaxUploadBytes, logger)

	api := router.Group("/api")

	// Auth endpoints are the only unauthenticated writes; keep them
	// behind a fixed-window limiter.
	limiter := newRateLimiter(cfg.AuthRateLimit)
	authGroup := api.Group("", RateLimitMiddleware(limiter))
	authGroup.POST("/register", apiHandlers.Register)
	authGroup.POST("/login", apiHandlers.Login)
	authGroup.POST("/guest", apiHandlers.GuestLogin)

	// Public directory listings.
	api.GET("/coach-list", coachHandlers.ListAll)
	api.GET("/coach-list/:page", coachHandlers.ListPage)
	api.GET("/coaches/:id/avatar", uploadHandlers.GetAvatar)

	protected := api.Group("", AuthMiddleware(authService, logger))
	protected.POST("/coaches", coachHandlers.Create)
	protected.GET("/coaches", coachHandlers.ListOwned)
	protected.GET("/coaches/:id", coachHandlers.Get)
	protected.PATCH("/coaches/:id", coachHandlers.Update)
	protected.DELETE("/coaches/:id", coachHandlers.Delete)
	protected.POST("/coaches/:id/avatar", uploadHandlers.UploadAvatar)
	protected.DELETE("/coaches/:id/avatar", uploadHandlers.DeleteAvatar)

	server := &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
	server.RegisterOnShutdown(limiter.stop)
	return server
}
