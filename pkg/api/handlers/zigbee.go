package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/growbox/pkg/api/types"
	"github.com/urmzd/growbox/pkg/device"
)

// ZigbeeHandler serves the zigbee2mqtt data files
type ZigbeeHandler struct {
	controller   device.Controller
	fridgeDevice string
}

// NewZigbeeHandler creates a new zigbee handler. fridgeDevice is the
// state.json key of the fridge relay.
func NewZigbeeHandler(controller device.Controller, fridgeDevice string) *ZigbeeHandler {
	return &ZigbeeHandler{controller: controller, fridgeDevice: fridgeDevice}
}

// State handles GET /zigbee/state
// @Summary      Zigbee state
// @Description  Returns zigbee2mqtt state.json verbatim
// @Tags         zigbee
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      500  {object}  types.ErrorResponse  "State file unreadable"
// @Failure      503  {object}  types.ErrorResponse  "Zigbee data unavailable"
// @Router       /zigbee/state [get]
func (h *ZigbeeHandler) State(c *gin.Context) {
	raw, err := h.controller.RawState(c.Request.Context())
	if err != nil {
		respondControllerError(c, err, "Failed to read state.json")
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", raw)
}

// Devices handles GET /zigbee/devices
// @Summary      Zigbee devices
// @Description  Returns every record of the zigbee2mqtt device database. Any malformed line fails the request.
// @Tags         zigbee
// @Produce      json
// @Success      200  {array}   object
// @Failure      500  {object}  types.ErrorResponse  "Device database unreadable or malformed"
// @Failure      503  {object}  types.ErrorResponse  "Zigbee data unavailable"
// @Router       /zigbee/devices [get]
func (h *ZigbeeHandler) Devices(c *gin.Context) {
	records, err := h.controller.RawDevices(c.Request.Context())
	if err != nil {
		respondControllerError(c, err, "Failed to process database.db")
		return
	}
	c.JSON(http.StatusOK, records)
}

// FridgeState handles GET /fridge_state
// @Summary      Fridge state
// @Description  Reports whether the fridge relay is switched on
// @Tags         zigbee
// @Produce      json
// @Success      200  {boolean}  bool
// @Failure      404  {object}   types.ErrorResponse  "Fridge device not found"
// @Failure      503  {object}   types.ErrorResponse  "Zigbee data unavailable"
// @Router       /fridge_state [get]
func (h *ZigbeeHandler) FridgeState(c *gin.Context) {
	state, err := h.controller.GetDeviceState(c.Request.Context(), h.fridgeDevice)
	if err != nil {
		if errors.Is(err, device.ErrNotFound) {
			c.JSON(http.StatusNotFound, types.ErrorResponse{
				Error:   "not_found",
				Message: "Fridge device " + h.fridgeDevice + " not found",
			})
			return
		}
		respondControllerError(c, err, "Failed to read fridge state")
		return
	}
	c.JSON(http.StatusOK, state.On())
}

func respondControllerError(c *gin.Context, err error, message string) {
	if errors.Is(err, device.ErrNotConnected) {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "zigbee_unavailable",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, types.ErrorResponse{
		Error:   "zigbee_error",
		Message: message + ": " + err.Error(),
	})
}
