package handlers

import (
	"jukebox/logger"
	"jukebox/websocket"

	"github.com/gin-gonic/gin"
)

// PlayFeedHandler upgrades clients onto the live play feed
type PlayFeedHandler struct {
	hub websocket.Hub
}

// NewPlayFeedHandler creates a new play feed handler
func NewPlayFeedHandler(hub websocket.Hub) *PlayFeedHandler {
	return &PlayFeedHandler{hub: hub}
}

// HandleWebSocketConnection registers a listener for play events
func (h *PlayFeedHandler) HandleWebSocketConnection(c *gin.Context) {
	upgrader := websocket.GetUpgrader()
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", logger.ErrorField(err))
		return
	}

	client := websocket.NewClient(h.hub, conn)
	h.hub.RegisterClient(client)

	client.StartPumps()
}
