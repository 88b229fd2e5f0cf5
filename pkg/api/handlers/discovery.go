package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/growbox/pkg/api/types"
	"github.com/urmzd/growbox/pkg/device"
)

const (
	defaultPairingSeconds = 120
	maxPairingSeconds     = 600
)

// DiscoveryHandler handles zigbee pairing endpoints
type DiscoveryHandler struct {
	commander  device.Commander
	subscriber device.EventSubscriber
}

// NewDiscoveryHandler creates a new discovery handler
func NewDiscoveryHandler(commander device.Commander, subscriber device.EventSubscriber) *DiscoveryHandler {
	return &DiscoveryHandler{
		commander:  commander,
		subscriber: subscriber,
	}
}

// StartDiscovery handles POST /discovery/start
// @Summary      Permit joining
// @Description  Opens the zigbee network so new outlets and sensors can pair
// @Tags         discovery
// @Accept       json
// @Produce      json
// @Param        request  body      types.StartDiscoveryRequest  false  "Pairing duration (default 120 seconds, max 600)"
// @Success      200      {object}  types.StartDiscoveryResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid duration"
// @Failure      503      {object}  types.ErrorResponse  "Zigbee unavailable"
// @Failure      504      {object}  types.ErrorResponse  "Request timed out"
// @Router       /discovery/start [post]
func (h *DiscoveryHandler) StartDiscovery(c *gin.Context) {
	var req types.StartDiscoveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		req.DurationSeconds = defaultPairingSeconds
	}
	if req.DurationSeconds <= 0 {
		req.DurationSeconds = defaultPairingSeconds
	}
	if req.DurationSeconds > maxPairingSeconds {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_duration",
			Message: "Duration cannot exceed 600 seconds",
		})
		return
	}

	duration := time.Duration(req.DurationSeconds) * time.Second
	if err := h.commander.PermitJoin(c.Request.Context(), true, duration); err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.StartDiscoveryResponse{
		Status:          "pairing_enabled",
		ExpiresAt:       time.Now().Add(duration),
		DurationSeconds: req.DurationSeconds,
	})
}

// StopDiscovery handles POST /discovery/stop
// @Summary      Stop joining
// @Description  Closes the zigbee network for pairing
// @Tags         discovery
// @Produce      json
// @Success      200  {object}  types.StopDiscoveryResponse
// @Failure      503  {object}  types.ErrorResponse  "Zigbee unavailable"
// @Failure      504  {object}  types.ErrorResponse  "Request timed out"
// @Router       /discovery/stop [post]
func (h *DiscoveryHandler) StopDiscovery(c *gin.Context) {
	if err := h.commander.PermitJoin(c.Request.Context(), false, 0); err != nil {
		respondCommandError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.StopDiscoveryResponse{Status: "pairing_disabled"})
}

// Events handles GET /discovery/events (SSE stream)
// @Summary      Subscribe to pairing events
// @Description  Server-Sent Events stream of devices joining, being interviewed and leaving
// @Tags         discovery
// @Produce      text/event-stream
// @Success      200  {string}  string  "SSE event stream"
// @Router       /discovery/events [get]
func (h *DiscoveryHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	events := h.subscriber.Subscribe()
	defer h.subscriber.Unsubscribe(events)

	sendSSEEvent(c.Writer, "connected", map[string]any{
		"timestamp": time.Now(),
		"message":   "Connected to discovery event stream",
	})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case event, ok := <-events:
			if !ok {
				return
			}
			sendSSEEvent(c.Writer, event.Type, event)
			c.Writer.Flush()

		case <-ticker.C:
			sendSSEEvent(c.Writer, "heartbeat", map[string]any{
				"timestamp": time.Now(),
			})
			c.Writer.Flush()
		}
	}
}
