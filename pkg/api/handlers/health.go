package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/growbox/pkg/api/types"
	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/device"
	"github.com/urmzd/growbox/pkg/health"
)

// HealthReporter exposes the most recent health report.
type HealthReporter interface {
	Last() health.Report
}

// HealthHandler handles health check endpoints
type HealthHandler struct {
	controller device.Controller
	monitor    HealthReporter
	issues     db.HealthIssueStore
}

// NewHealthHandler creates a new health handler. monitor may be nil.
func NewHealthHandler(controller device.Controller, monitor HealthReporter, issues db.HealthIssueStore) *HealthHandler {
	return &HealthHandler{controller: controller, monitor: monitor, issues: issues}
}

// Health handles GET /health
// @Summary      Health check
// @Description  Returns the health of the service, the zigbee data source and the last monitor report
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthResponse  "Service is healthy"
// @Failure      503  {object}  types.HealthResponse  "Service is degraded"
// @Router       /health [get]
func (h *HealthHandler) Health(c *gin.Context) {
	controllerStatus := "disconnected"
	if h.controller.IsConnected() {
		controllerStatus = "connected"
	}

	resp := types.HealthResponse{
		Status:     "healthy",
		Controller: controllerStatus,
		Conditions: []health.Condition{},
		Timestamp:  time.Now(),
	}
	httpStatus := http.StatusOK

	if h.monitor != nil {
		report := h.monitor.Last()
		if !report.CheckedAt.IsZero() {
			checkedAt := report.CheckedAt
			resp.CheckedAt = &checkedAt
			resp.Conditions = append(resp.Conditions, report.Conditions...)
		}
		for _, cond := range report.Conditions {
			if cond.Severity == db.SeverityError {
				resp.Status = "degraded"
				httpStatus = http.StatusServiceUnavailable
			}
		}
	}

	c.JSON(httpStatus, resp)
}

// Errors handles GET /health/errors
// @Summary      Open health issues
// @Description  Returns the open health issues split into warnings and errors
// @Tags         health
// @Produce      json
// @Success      200  {object}  types.HealthErrorsResponse
// @Failure      500  {object}  types.ErrorResponse  "Database error"
// @Router       /health/errors [get]
func (h *HealthHandler) Errors(c *gin.Context) {
	issues, err := h.issues.Open(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "database_error",
			Message: err.Error(),
		})
		return
	}

	resp := types.HealthErrorsResponse{
		Warnings: []types.HealthIssue{},
		Errors:   []types.HealthIssue{},
	}
	for _, issue := range issues {
		item := types.HealthIssue{
			Code:     issue.Code,
			Name:     health.Code(issue.Code).String(),
			Severity: issue.Severity,
			Message:  issue.Message,
			RaisedAt: issue.RaisedAt,
		}
		if issue.Severity == db.SeverityWarning {
			resp.Warnings = append(resp.Warnings, item)
		} else {
			resp.Errors = append(resp.Errors, item)
		}
	}

	c.JSON(http.StatusOK, resp)
}
