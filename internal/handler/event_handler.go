package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/EkyaSchools001/pdi-updated-sub000/pkg/realtime"
)

// EventHandler streams realtime events over WebSocket.
type EventHandler struct {
	hub    *realtime.Hub
	opts   realtime.StreamOptions
	logger *zap.Logger
}

// NewEventHandler constructs the handler.
func NewEventHandler(hub *realtime.Hub, allowedOrigins []string, logger *zap.Logger) *EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandler{
		hub:    hub,
		opts:   realtime.StreamOptions{OriginPatterns: allowedOrigins, WriteTimeout: 5 * time.Second, Buffer: 16},
		logger: logger,
	}
}

// Stream godoc
// @Summary Realtime event stream
// @Description Upgrades to a WebSocket; accepts the bearer token or ?token=
// @Tags Realtime
// @Success 101
// @Router /events [get]
func (h *EventHandler) Stream(c *gin.Context) {
	if err := h.hub.Stream(c.Writer, c.Request, h.opts); err != nil {
		h.logger.Debug("event stream rejected", zap.Error(err))
		if !c.Writer.Written() {
			c.Status(http.StatusBadRequest)
		}
	}
}
