package types

import (
	"time"

	"github.com/urmzd/growbox/pkg/climate"
	"github.com/urmzd/growbox/pkg/dashboard"
	"github.com/urmzd/growbox/pkg/health"
	"github.com/urmzd/growbox/pkg/taskgroup"
)

// --- Request DTOs ---

// LightTimesRequest is the request body for POST /set-light-times
type LightTimesRequest struct {
	OnTime  string `json:"onTime" binding:"required"`
	OffTime string `json:"offTime" binding:"required"`
}

// SelectTabRequest is the request body for POST /api/v1/dashboard/tab
type SelectTabRequest struct {
	Tab string `json:"tab" binding:"required"`
}

// ToggleRequest is the request body for POST /api/v1/dashboard/toggles/:name
type ToggleRequest struct {
	On bool `json:"on"`
}

// SpanRequest is the request body for POST /api/v1/dashboard/span
type SpanRequest struct {
	Span string `json:"span" binding:"required"`
}

// SwitchRequest is the request body for POST /light/control and
// POST /zigbee/devices/:id/state
type SwitchRequest struct {
	State *bool `json:"state"`
}

// ToggleOutletRequest is the request body for POST /zigbee/devices/:id/toggle.
// A positive Seconds toggles the outlet back after that delay.
type ToggleOutletRequest struct {
	Seconds int `json:"seconds"`
}

// StartDiscoveryRequest is the request body for POST /discovery/start
type StartDiscoveryRequest struct {
	DurationSeconds int `json:"duration_seconds,omitempty" example:"120"`
}

// --- Response DTOs ---

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// StatusResponse acknowledges a state change
type StatusResponse struct {
	Status string `json:"status"`
}

// HealthResponse is returned from GET /health
type HealthResponse struct {
	Status     string             `json:"status"`
	Controller string             `json:"controller"`
	Conditions []health.Condition `json:"conditions"`
	CheckedAt  *time.Time         `json:"checked_at,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// HealthErrorsResponse is returned from GET /health/errors
type HealthErrorsResponse struct {
	Warnings []HealthIssue `json:"warnings"`
	Errors   []HealthIssue `json:"errors"`
}

// HealthIssue is an open health issue
type HealthIssue struct {
	Code     int       `json:"code"`
	Name     string    `json:"name"`
	Severity string    `json:"severity"`
	Message  string    `json:"message"`
	RaisedAt time.Time `json:"raised_at"`
}

// DashboardResponse is returned from GET /api/v1/dashboard
type DashboardResponse struct {
	Tab     string                     `json:"tab"`
	Span    string                     `json:"span"`
	Toggles map[string]bool            `json:"toggles"`
	Panels  map[string]dashboard.Panel `json:"panels"`
	Groups  []taskgroup.GroupStatus    `json:"groups"`
}

// GroupsResponse is returned from GET /api/v1/dashboard/groups
type GroupsResponse struct {
	Groups []taskgroup.GroupStatus `json:"groups"`
	Count  int                     `json:"count"`
}

// SwitchResponse is returned after switching or toggling a device
type SwitchResponse struct {
	Device        string     `json:"device"`
	State         string     `json:"state"`
	OverrideUntil *time.Time `json:"override_until,omitempty"`
	RevertAt      *time.Time `json:"revert_at,omitempty"`
	Timestamp     time.Time  `json:"timestamp"`
}

// OutletsResponse is returned from GET /api/v1/outlets
type OutletsResponse struct {
	Outlets []climate.OutletStatus `json:"outlets"`
	Count   int                    `json:"count"`
}

// StartDiscoveryResponse is returned when pairing mode is enabled
type StartDiscoveryResponse struct {
	Status          string    `json:"status"`
	ExpiresAt       time.Time `json:"expires_at"`
	DurationSeconds int       `json:"duration_seconds"`
}

// StopDiscoveryResponse is returned when pairing mode is disabled
type StopDiscoveryResponse struct {
	Status string `json:"status"`
}
