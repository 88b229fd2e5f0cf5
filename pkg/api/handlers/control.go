package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/growbox/pkg/api/types"
	"github.com/urmzd/growbox/pkg/climate"
	"github.com/urmzd/growbox/pkg/device"
)

// maxToggleSeconds bounds the delayed toggle-back of ToggleOutlet.
const maxToggleSeconds = 24 * 60 * 60

// OutletSwitcher switches outlets on behalf of a user. Outlets bound to a
// climate controller are held in the requested state for the override
// period.
type OutletSwitcher interface {
	Switch(ctx context.Context, role string, on bool) (time.Time, error)
	SwitchDevice(ctx context.Context, id string, on bool) (*time.Time, error)
	Status() []climate.OutletStatus
}

// ControlHandler handles outlet control endpoints
type ControlHandler struct {
	commander device.Commander
	switcher  OutletSwitcher
}

// NewControlHandler creates a new control handler
func NewControlHandler(commander device.Commander, switcher OutletSwitcher) *ControlHandler {
	return &ControlHandler{commander: commander, switcher: switcher}
}

// LightControl handles POST /light/control
// @Summary      Switch the grow light
// @Description  Switches the light outlet and suspends the light schedule for the override period
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        request  body      types.SwitchRequest  true  "Desired state"
// @Success      200      {object}  types.StatusResponse
// @Failure      400      {object}  types.ErrorResponse  "Missing state"
// @Failure      404      {object}  types.ErrorResponse  "Light outlet not configured"
// @Failure      503      {object}  types.ErrorResponse  "Zigbee unavailable"
// @Router       /light/control [post]
func (h *ControlHandler) LightControl(c *gin.Context) {
	var req types.SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.State == nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Missing 'state' in request",
		})
		return
	}

	if _, err := h.switcher.Switch(c.Request.Context(), climate.Light, *req.State); err != nil {
		respondCommandError(c, err)
		return
	}

	status := "light turned OFF"
	if *req.State {
		status = "light turned ON"
	}
	c.JSON(http.StatusOK, types.StatusResponse{Status: status})
}

// SetState handles POST /zigbee/devices/:id/state
// @Summary      Switch an outlet
// @Description  Switches a zigbee outlet on or off. Outlets driven by a climate controller are held for the override period.
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Device IEEE address or friendly name"
// @Param        request  body      types.SwitchRequest  true  "Desired state"
// @Success      200      {object}  types.SwitchResponse
// @Failure      400      {object}  types.ErrorResponse  "Missing state"
// @Failure      404      {object}  types.ErrorResponse  "Invalid device"
// @Failure      503      {object}  types.ErrorResponse  "Zigbee unavailable"
// @Failure      504      {object}  types.ErrorResponse  "Request timed out"
// @Router       /zigbee/devices/{id}/state [post]
func (h *ControlHandler) SetState(c *gin.Context) {
	id := c.Param("id")

	var req types.SwitchRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.State == nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Missing 'state' in request",
		})
		return
	}

	until, err := h.switcher.SwitchDevice(c.Request.Context(), id, *req.State)
	if err != nil {
		respondCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, types.SwitchResponse{
		Device:        id,
		State:         stateName(*req.State),
		OverrideUntil: until,
		Timestamp:     time.Now(),
	})
}

// Toggle handles POST /zigbee/devices/:id/toggle
// @Summary      Toggle an outlet
// @Description  Flips an outlet. With a positive seconds value the outlet is flipped back after that delay.
// @Tags         control
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true   "Device IEEE address or friendly name"
// @Param        request  body      types.ToggleOutletRequest  false  "Delay before toggling back"
// @Success      200      {object}  types.SwitchResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid delay"
// @Failure      404      {object}  types.ErrorResponse  "Invalid device"
// @Failure      503      {object}  types.ErrorResponse  "Zigbee unavailable"
// @Failure      504      {object}  types.ErrorResponse  "Request timed out"
// @Router       /zigbee/devices/{id}/toggle [post]
func (h *ControlHandler) Toggle(c *gin.Context) {
	id := c.Param("id")

	var req types.ToggleOutletRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_request",
				Message: "Invalid request body",
			})
			return
		}
	}
	if req.Seconds < 0 || req.Seconds > maxToggleSeconds {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_duration",
			Message: "seconds must be between 0 and 86400",
		})
		return
	}

	if err := h.commander.Toggle(c.Request.Context(), id); err != nil {
		respondCommandError(c, err)
		return
	}

	resp := types.SwitchResponse{Device: id, State: "TOGGLE", Timestamp: time.Now()}
	if req.Seconds > 0 {
		delay := time.Duration(req.Seconds) * time.Second
		revertAt := resp.Timestamp.Add(delay)
		resp.RevertAt = &revertAt
		time.AfterFunc(delay, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := h.commander.Toggle(ctx, id); err != nil {
				log.Error().Err(err).Str("device", id).Msg("Failed to toggle outlet back")
			}
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Outlets handles GET /api/v1/outlets
// @Summary      List controlled outlets
// @Description  Returns the outlets bound to climate controllers with their last commanded state
// @Tags         control
// @Produce      json
// @Success      200  {object}  types.OutletsResponse
// @Router       /api/v1/outlets [get]
func (h *ControlHandler) Outlets(c *gin.Context) {
	outlets := h.switcher.Status()
	c.JSON(http.StatusOK, types.OutletsResponse{Outlets: outlets, Count: len(outlets)})
}

func stateName(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func respondCommandError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, device.ErrNotConnected):
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "zigbee_unavailable",
			Message: err.Error(),
		})
	case errors.Is(err, device.ErrTimeout):
		c.JSON(http.StatusGatewayTimeout, types.ErrorResponse{
			Error:   "timeout",
			Message: "Request timed out waiting for the broker",
		})
	case errors.Is(err, device.ErrNotFound), errors.Is(err, climate.ErrUnknownOutlet):
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "zigbee_error",
			Message: err.Error(),
		})
	}
}
