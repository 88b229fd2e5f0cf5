package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/urmzd/growbox/pkg/api/types"
	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/settings"
)

// SettingsHandler reads and writes the active profile's settings document
type SettingsHandler struct {
	profiles  db.ProfileStore
	store     db.SettingsStore
	validator *settings.Validator
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(profiles db.ProfileStore, store db.SettingsStore, validator *settings.Validator) *SettingsHandler {
	return &SettingsHandler{profiles: profiles, store: store, validator: validator}
}

// Get handles GET /config
// @Summary      Get settings
// @Description  Returns the settings document of the active profile
// @Tags         settings
// @Produce      json
// @Success      200  {object}  settings.Settings
// @Failure      500  {object}  types.ErrorResponse  "Database error"
// @Router       /config [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	doc, _, ok := h.load(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Put handles POST /config
// @Summary      Replace settings
// @Description  Replaces the settings document after validating it against the settings schema
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request  body      settings.Settings  true  "Settings document"
// @Success      200      {object}  settings.Settings
// @Failure      400      {object}  types.ErrorResponse  "Invalid settings"
// @Failure      500      {object}  types.ErrorResponse  "Database error"
// @Router       /config [post]
func (h *SettingsHandler) Put(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Invalid request body",
		})
		return
	}

	doc, err := settings.Decode(h.validator, raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	profile, err := h.profiles.GetActive(c.Request.Context())
	if err != nil {
		respondDatabaseError(c, err)
		return
	}
	if err := h.store.Put(c.Request.Context(), profile.ID, doc); err != nil {
		respondDatabaseError(c, err)
		return
	}

	log.Info().Str("profile", profile.Name).Msg("Settings updated")
	c.JSON(http.StatusOK, doc)
}

// SetLightTimes handles POST /set-light-times
// @Summary      Set light schedule
// @Description  Updates the daily light on and off times (HH:MM)
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        request  body      types.LightTimesRequest  true  "Light schedule"
// @Success      200      {object}  types.StatusResponse
// @Failure      400      {object}  types.ErrorResponse  "Invalid times"
// @Failure      500      {object}  types.ErrorResponse  "Database error"
// @Router       /set-light-times [post]
func (h *SettingsHandler) SetLightTimes(c *gin.Context) {
	var req types.LightTimesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, types.ErrorResponse{
			Error:   "invalid_request",
			Message: "Missing JSON in request",
		})
		return
	}
	for _, v := range []string{req.OnTime, req.OffTime} {
		if _, err := settings.ParseClock(v); err != nil {
			c.JSON(http.StatusBadRequest, types.ErrorResponse{
				Error:   "invalid_time",
				Message: err.Error(),
			})
			return
		}
	}

	doc, profileID, ok := h.load(c)
	if !ok {
		return
	}
	doc.Light = settings.LightSchedule{On: req.OnTime, Off: req.OffTime}
	if err := h.store.Put(c.Request.Context(), profileID, doc); err != nil {
		respondDatabaseError(c, err)
		return
	}

	log.Info().Str("on", req.OnTime).Str("off", req.OffTime).Msg("Light times updated")
	c.JSON(http.StatusOK, types.StatusResponse{Status: "Times updated"})
}

// load returns the active profile's settings, falling back to defaults when
// none were stored yet.
func (h *SettingsHandler) load(c *gin.Context) (settings.Settings, int64, bool) {
	ctx := c.Request.Context()
	profile, err := h.profiles.GetActive(ctx)
	if err != nil {
		respondDatabaseError(c, err)
		return settings.Settings{}, 0, false
	}
	doc, err := h.store.Get(ctx, profile.ID)
	if errors.Is(err, db.ErrSettingsNotFound) {
		return settings.Defaults(), profile.ID, true
	}
	if err != nil {
		respondDatabaseError(c, err)
		return settings.Settings{}, 0, false
	}
	return doc, profile.ID, true
}

func respondDatabaseError(c *gin.Context, err error) {
	if errors.Is(err, db.ErrProfileNotFound) {
		c.JSON(http.StatusServiceUnavailable, types.ErrorResponse{
			Error:   "no_active_profile",
			Message: err.Error(),
		})
		return
	}
	c.JSON(http.StatusInternalServerError, types.ErrorResponse{
		Error:   "database_error",
		Message: err.Error(),
	})
}
