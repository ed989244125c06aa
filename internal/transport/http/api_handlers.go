package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatscope-server/internal/model"
	"github.com/vovakirdan/chatscope-server/internal/source"
)

// APIHandlers provides HTTP handlers for the REST API endpoints.
type APIHandlers struct {
	connector source.Connector
	log       *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(connector source.Connector, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		connector: connector,
		log:       logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListRooms returns the room directory keyed by display name.
// GET /api/rooms
func (h *APIHandlers) ListRooms(c *gin.Context) {
	rooms, err := h.connector.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	byName := make(map[string]model.Room, len(rooms))
	for _, room := range rooms {
		byName[room.Name] = room
	}
	c.JSON(http.StatusOK, byName)
}

// GetRoom returns a single room by display name.
// GET /api/rooms/room?room=<name>
func (h *APIHandlers) GetRoom(c *gin.Context) {
	name := c.Query("room")
	if name == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing room parameter"})
		return
	}

	rooms, err := h.connector.ListRooms(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list rooms")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	for _, room := range rooms {
		if room.Name == name {
			c.JSON(http.StatusOK, room)
			return
		}
	}
	c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
}

// ListUsers returns the user directory keyed by user id.
// GET /api/users
func (h *APIHandlers) ListUsers(c *gin.Context) {
	users, err := h.connector.ListUsers(c.Request.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("failed to list users")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, users)
}

// ListEmojis returns the emoji short-code table when the source supports it.
// GET /api/emojis
func (h *APIHandlers) ListEmojis(c *gin.Context) {
	emojis, err := h.connector.ListEmojis(c.Request.Context())
	if err != nil {
		if errors.Is(err, source.ErrUnsupported) {
			c.JSON(http.StatusNotImplemented, ErrorResponse{Error: "emoji listing is not supported by this source"})
			return
		}
		h.log.Error().Err(err).Msg("failed to list emojis")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, emojis)
}
