package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatscope-server/internal/config"
	"github.com/vovakirdan/chatscope-server/internal/rt"
	"github.com/vovakirdan/chatscope-server/internal/source"
)

// NewServer builds the HTTP server: REST surface plus the realtime
// websocket endpoint.
func NewServer(connector source.Connector, broker *rt.Broker, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", func(c *gin.Context) {
		c.String(stdhttp.StatusOK, "ok")
	})

	api := NewAPIHandlers(connector, logger)
	apiGroup := router.Group("/api")
	apiGroup.GET("/rooms", api.ListRooms)
	apiGroup.GET("/rooms/room", api.GetRoom)
	apiGroup.GET("/users", api.ListUsers)
	apiGroup.GET("/emojis", api.ListEmojis)

	rtHandler := NewRTHandler(broker, logger)
	router.GET("/rtcompute/:role", rtHandler.Handle)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// LoggerMiddleware creates a middleware that logs HTTP requests.
func LoggerMiddleware(logger *zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Msg("http request")
	}
}
