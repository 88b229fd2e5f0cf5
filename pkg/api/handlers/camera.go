package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/growbox/pkg/api/types"
	"github.com/urmzd/growbox/pkg/camera"
)

// FrameSource returns the latest captured frame.
type FrameSource interface {
	Latest() (camera.Frame, error)
}

// CameraHandler serves camera stills and the live frame stream
type CameraHandler struct {
	frames FrameSource
	hub    *camera.Hub
}

// NewCameraHandler creates a new camera handler
func NewCameraHandler(frames FrameSource, hub *camera.Hub) *CameraHandler {
	return &CameraHandler{frames: frames, hub: hub}
}

// Snapshot handles GET /snapshot.jpg
// @Summary      Camera still
// @Description  Returns the most recent JPEG frame
// @Tags         camera
// @Produce      jpeg
// @Success      200  {file}    binary
// @Failure      503  {object}  types.ErrorResponse  "No frame captured yet"
// @Router       /snapshot.jpg [get]
func (h *CameraHandler) Snapshot(c *gin.Context) {
	frame, err := h.frames.Latest()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, camera.ErrNoFrame) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, types.ErrorResponse{
			Error:   "no_frame",
			Message: err.Error(),
		})
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Header("X-Captured-At", strconv.FormatInt(frame.CapturedAt.UnixMilli(), 10))
	c.Data(http.StatusOK, "image/jpeg", frame.Data)
}

// Stream handles GET /ws
// @Summary      Live frames
// @Description  WebSocket stream; every captured frame is sent as one binary message
// @Tags         camera
// @Success      101  {string}  string  "Switching protocols"
// @Router       /ws [get]
func (h *CameraHandler) Stream(c *gin.Context) {
	h.hub.ServeWS(c.Writer, c.Request)
}
