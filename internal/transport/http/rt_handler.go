package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/coder/websocket"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/chatscope-server/internal/model"
	"github.com/vovakirdan/chatscope-server/internal/rt"
)

// RTHandler upgrades realtime connections on /rtcompute/:role and bridges
// them to the broker. Publishers push one encoded AnalyticsEvent per frame;
// subscribers receive the fan-out and are only read to detect close.
type RTHandler struct {
	broker *rt.Broker
	log    *zerolog.Logger
}

// NewRTHandler builds a new realtime endpoint handler.
func NewRTHandler(broker *rt.Broker, logger *zerolog.Logger) *RTHandler {
	return &RTHandler{broker: broker, log: logger}
}

// Handle serves one realtime connection for its whole lifetime.
func (h *RTHandler) Handle(c *gin.Context) {
	role, err := rt.ParseRole(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	conn, err := websocket.Accept(c.Writer, c.Request, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	tr := newWSTransport(conn)
	h.broker.OpenConnection(tr, role)

	ctx := c.Request.Context()
	if role == rt.RolePublisher {
		err = h.publisherLoop(ctx, conn)
	} else {
		err = h.subscriberLoop(ctx, conn)
	}
	h.finish(tr, err)
}

// publisherLoop decodes inbound frames and republishes them. A malformed
// frame is dropped, not fatal to the connection.
func (h *RTHandler) publisherLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			return err
		}

		event, err := model.DecodeAnalyticsEvent(frame)
		if err != nil {
			h.log.Warn().Err(err).Msg("dropping malformed event frame")
			continue
		}
		h.broker.Publish(event)
	}
}

// subscriberLoop discards inbound frames; the read only surfaces close and
// transport errors.
func (h *RTHandler) subscriberLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return err
		}
	}
}

// finish runs the close side of the connection state machine: a normal
// peer close goes straight to CloseConnection, anything else is reported
// as a transport error first. Either way the connection leaves the set.
func (h *RTHandler) finish(tr *wsTransport, err error) {
	tr.markClosed()

	status := websocket.CloseStatus(err)
	switch {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		h.broker.CloseConnection(tr, "peer closed")
	case err != nil && !errors.Is(err, context.Canceled):
		h.broker.OnTransportError(err)
		h.broker.CloseConnection(tr, "transport error")
	default:
		h.broker.CloseConnection(tr, "closing")
	}
}
