package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urmzd/growbox/pkg/api/types"
	"github.com/urmzd/growbox/pkg/dashboard"
	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/sysinfo"
)

// ThermalReader reads board temperatures.
type ThermalReader interface {
	Temperatures() (map[string][]sysinfo.Temperature, error)
}

// DataHandler serves sensor samples and board temperatures
type DataHandler struct {
	measurements db.MeasurementStore
	thermal      ThermalReader
	now          func() time.Time
}

// NewDataHandler creates a new data handler
func NewDataHandler(measurements db.MeasurementStore, thermal ThermalReader) *DataHandler {
	return &DataHandler{measurements: measurements, thermal: thermal, now: time.Now}
}

// History handles GET /data
// @Summary      Sample history
// @Description  Returns [temperature, humidity, co2, tvoc] rows, one per 10 minutes, oldest first
// @Tags         data
// @Produce      json
// @Param        span      query     string  false  "History span (1h, 4h, 12h, 24h), default 24h"
// @Param        timespan  query     int     false  "History span in minutes (60, 240, 720, 1440)"
// @Success      200       {array}   []number
// @Failure      400       {object}  types.ErrorResponse  "Invalid span"
// @Failure      500       {object}  types.ErrorResponse  "Database error"
// @Router       /data [get]
func (h *DataHandler) History(c *gin.Context) {
	raw := c.Query("span")
	if raw == "" {
		raw = c.Query("timespan")
	}
	span := dashboard.Span24h
	if raw != "" {
		var err error
		if span, err = dashboard.ParseSpan(raw); err != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_span",
				Message: err.Error(),
			})
			return
		}
	}

	samples, err := h.measurements.History(c.Request.Context(), h.now().Add(-span.Duration()))
	if err != nil {
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "database_error",
			Message: err.Error(),
		})
		return
	}

	rows := make([][4]float64, 0, len(samples))
	for _, m := range samples {
		rows = append(rows, m.Row())
	}
	c.JSON(http.StatusOK, rows)
}

// Now handles GET /data/now
// @Summary      Latest sample
// @Description  Returns the newest sample as a single-row array, or an empty array before the first sample
// @Tags         data
// @Produce      json
// @Success      200  {array}   []number
// @Failure      500  {object}  types.ErrorResponse  "Database error"
// @Router       /data/now [get]
func (h *DataHandler) Now(c *gin.Context) {
	m, err := h.measurements.Latest(c.Request.Context())
	if err != nil {
		if errors.Is(err, db.ErrNoMeasurements) {
			c.JSON(http.StatusOK, [][4]float64{})
			return
		}
		c.JSON(http.StatusInternalServerError, types.ErrorResponse{
			Error:   "database_error",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, [][4]float64{m.Row()})
}

// CPUTemperature handles GET /data/rpi-temperature
// @Summary      Board temperatures
// @Description  Returns thermal zone readings grouped by zone type as [label, current, high, critical]
// @Tags         data
// @Produce      json
// @Success      200  {object}  map[string][]any
// @Failure      503  {object}  types.ErrorResponse  "No thermal sensors"
// @Router       /data/rpi-temperature [get]
func (h *DataHandler) CPUTemperature(c *gin.Context) {
	temps, err := h.thermal.Temperatures()
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, sysinfo.ErrNoSensors) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, types.ErrorResponse{
			Error:   "thermal_unavailable",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, temps)
}
