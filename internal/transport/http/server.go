package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-rooms/internal/auth"
	"github.com/vovakirdan/wirechat-rooms/internal/config"
	"github.com/vovakirdan/wirechat-rooms/internal/core"
	"github.com/vovakirdan/wirechat-rooms/internal/store"
)

// NewServer builds the HTTP server: health, WebSocket and REST routes.
func NewServer(
	hub *core.Hub,
	fanout *core.Fanout,
	authService *auth.Service,
	st store.Store,
	cfg *config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	apiHandlers := NewAPIHandlers(authService, logger)
	roomHandlers := NewRoomHandlers(st, hub, logger)

	api := router.Group("/api")
	{
		api.POST("/register", apiHandlers.Register)
		api.POST("/login", apiHandlers.Login)

		rooms := api.Group("/rooms")
		rooms.Use(AuthMiddleware(authService, logger))
		{
			rooms.POST("", roomHandlers.CreateRoom)
			rooms.GET("", roomHandlers.ListRooms)
			rooms.GET("/:id", roomHandlers.GetRoom)
			rooms.PATCH("/:id", roomHandlers.UpdateRoom)
			rooms.DELETE("/:id", roomHandlers.DeleteRoom)
			rooms.GET("/:id/active", roomHandlers.ActiveUsers)
		}
	}

	// /ws stays outside gin: the upgrade hijacks the connection.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", NewWSHandler(hub, fanout, cfg, logger))
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
