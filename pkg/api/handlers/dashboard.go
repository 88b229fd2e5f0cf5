package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/growbox/pkg/api/types"
	"github.com/urmzd/growbox/pkg/dashboard"
)

// DashboardHandler exposes the dashboard session: tab and toggle control,
// the current view and a live update stream.
type DashboardHandler struct {
	session   *dashboard.Session
	heartbeat time.Duration
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(session *dashboard.Session) *DashboardHandler {
	return &DashboardHandler{session: session, heartbeat: 30 * time.Second}
}

// Get handles GET /api/v1/dashboard
// @Summary      Dashboard view
// @Description  Returns the selection state, every rendered panel and the task group status
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  types.DashboardResponse
// @Router       /api/v1/dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	state := h.session.State()
	c.JSON(http.StatusOK, types.DashboardResponse{
		Tab:     state.Tab,
		Span:    string(state.Span),
		Toggles: state.Toggles,
		Panels:  h.session.View().Snapshot(),
		Groups:  h.session.Groups(),
	})
}

// Groups handles GET /api/v1/dashboard/groups
// @Summary      Task groups
// @Description  Returns run state and per-task counters of every dashboard task group
// @Tags         dashboard
// @Produce      json
// @Success      200  {object}  types.GroupsResponse
// @Router       /api/v1/dashboard/groups [get]
func (h *DashboardHandler) Groups(c *gin.Context) {
	groups := h.session.Groups()
	c.JSON(http.StatusOK, types.GroupsResponse{Groups: groups, Count: len(groups)})
}

// SelectTab handles POST /api/v1/dashboard/tab
// @Summary      Select tab
// @Description  Stops the previous tab's task group and starts the selected one
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        request  body      types.SelectTabRequest  true  "Tab to show"
// @Success      200      {object}  types.StatusResponse
// @Failure      400      {object}  types.ErrorResponse  "Unknown tab"
// @Router       /api/v1/dashboard/tab [post]
func (h *DashboardHandler) SelectTab(c *gin.Context) {
	var req types.SelectTabRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}
	if err := h.session.SelectTab(req.Tab); err != nil {
		respondSessionError(c, err)
		return
	}
	c.JSON(http.StatusOK, types.StatusResponse{Status: "tab " + req.Tab})
}

// SetToggle handles POST /api/v1/dashboard/toggles/:name
// @Summary      Switch toggle
// @Description  Starts or stops a feature toggle's task group independently of the active tab
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        name     path      string               true  "Toggle name"
// @Param        request  body      types.ToggleRequest  true  "Desired state"
// @Success      200      {object}  types.StatusResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid request"
// @Failure      404      {object}  types.ErrorResponse  "Unknown toggle"
// @Router       /api/v1/dashboard/toggles/{name} [post]
func (h *DashboardHandler) SetToggle(c *gin.Context) {
	name := c.Param("name")

	var req types.ToggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}
	if err := h.session.SetToggle(name, req.On); err != nil {
		respondSessionError(c, err)
		return
	}

	status := "off"
	if req.On {
		status = "on"
	}
	c.JSON(http.StatusOK, types.StatusResponse{Status: name + " " + status})
}

// SetSpan handles POST /api/v1/dashboard/span
// @Summary      Set history span
// @Description  Changes the history chart span; the chart refreshes immediately when the environment tab is showing
// @Tags         dashboard
// @Accept       json
// @Produce      json
// @Param        request  body      types.SpanRequest  true  "Span (1h, 4h, 12h, 24h)"
// @Success      200      {object}  types.StatusResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid span"
// @Failure      502      {object}  types.ErrorResponse  "History refresh failed"
// @Router       /api/v1/dashboard/span [post]
func (h *DashboardHandler) SetSpan(c *gin.Context) {
	var req types.SpanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}
	span, err := dashboard.ParseSpan(req.Span)
	if err != nil {
		respondSessionError(c, err)
		return
	}
	if err := h.session.SetSpan(c.Request.Context(), span); err != nil {
		c.JSON(http.StatusBadGateway, types.ErrorResponse{
			Error:   "refresh_failed",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, types.StatusResponse{Status: "span " + string(span)})
}

// Events handles GET /api/v1/dashboard/events (SSE stream)
// @Summary      Subscribe to panel updates
// @Description  Server-Sent Events stream of panel updates
// @Tags         dashboard
// @Produce      text/event-stream
// @Success      200  {string}  string  "SSE event stream"
// @Router       /api/v1/dashboard/events [get]
func (h *DashboardHandler) Events(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	view := h.session.View()
	updates := view.Subscribe()
	defer view.Unsubscribe(updates)

	sendSSEEvent(c.Writer, "connected", map[string]any{
		"timestamp": time.Now(),
		"state":     h.session.State(),
	})
	c.Writer.Flush()

	clientGone := c.Request.Context().Done()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-clientGone:
			return

		case update, ok := <-updates:
			if !ok {
				return
			}
			sendSSEEvent(c.Writer, "panel", update)
			c.Writer.Flush()

		case <-ticker.C:
			sendSSEEvent(c.Writer, "heartbeat", map[string]any{
				"timestamp": time.Now(),
			})
			c.Writer.Flush()
		}
	}
}

func respondSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, dashboard.ErrUnknownTab), errors.Is(err, dashboard.ErrInvalidSpan):
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	case errors.Is(err, dashboard.ErrUnknownToggle):
		c.JSON(http.StatusNotFound, types.ErrorResponse{
			Error:   "not_found",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "session_error",
			Message: err.Error(),
		})
	}
}

// sendSSEEvent writes an SSE event to the response
func sendSSEEvent(w io.Writer, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: "+string(jsonData)+"\n\n")
}
