package mcp

import (
	"time"

	"github.com/urmzd/growbox/pkg/db"
	"github.com/urmzd/growbox/pkg/device"
	"github.com/urmzd/growbox/pkg/health"
)

// --- Health Tool ---

// GetHealthOutput is the output for the get_health tool
type GetHealthOutput struct {
	Status       string      `json:"status" jsonschema:"description=Overall health status (healthy, degraded or unhealthy)"`
	Zigbee       string      `json:"zigbee" jsonschema:"description=Zigbee data availability (connected or disconnected)"`
	LastSampleAt *time.Time  `json:"last_sample_at,omitempty" jsonschema:"description=Time of the newest sensor sample"`
	OpenIssues   []IssueInfo `json:"open_issues" jsonschema:"description=Currently open health issues"`
	Timestamp    string      `json:"timestamp" jsonschema:"description=ISO8601 timestamp"`
}

// --- Sample Tools ---

// SampleInfo is one sensor sample in tool outputs
type SampleInfo struct {
	RecordedAt   time.Time `json:"recorded_at" jsonschema:"description=Sample time"`
	TemperatureC float64   `json:"temperature_c" jsonschema:"description=Temperature in Celsius"`
	TemperatureF float64   `json:"temperature_f" jsonschema:"description=Temperature in Fahrenheit"`
	Humidity     float64   `json:"humidity" jsonschema:"description=Relative humidity in percent"`
	CO2          float64   `json:"co2" jsonschema:"description=CO2 in ppm"`
	TVOC         float64   `json:"tvoc" jsonschema:"description=TVOC in ppb, -1 without a VOC sensor"`
}

// GetLatestSampleOutput is the output for the get_latest_sample tool
type GetLatestSampleOutput struct {
	Sample SampleInfo `json:"sample" jsonschema:"description=Newest sample"`
	Age    string     `json:"age" jsonschema:"description=Time since the sample was taken"`
}

// GetHistoryInput is the input for the get_history tool
type GetHistoryInput struct {
	Span string `json:"span,omitempty" jsonschema:"description=History span (1h 4h 12h 24h)"`
}

// GetHistoryOutput is the output for the get_history tool
type GetHistoryOutput struct {
	Span    string       `json:"span" jsonschema:"description=History span"`
	Samples []SampleInfo `json:"samples" jsonschema:"description=Samples oldest first"`
	Count   int          `json:"count" jsonschema:"description=Number of samples"`
}

// --- List Devices Tool ---

// ListDevicesOutput is the output for the list_devices tool
type ListDevicesOutput struct {
	Devices []DeviceInfo `json:"devices" jsonschema:"description=List of zigbee devices"`
	Count   int          `json:"count" jsonschema:"description=Total number of devices"`
}

// DeviceInfo represents a device in tool outputs
type DeviceInfo struct {
	ID           string         `json:"id" jsonschema:"description=IEEE address"`
	Type         string         `json:"type" jsonschema:"description=Coordinator, Router or EndDevice"`
	Manufacturer string         `json:"manufacturer,omitempty" jsonschema:"description=Device manufacturer"`
	Model        string         `json:"model,omitempty" jsonschema:"description=Device model"`
	PowerSource  string         `json:"power_source,omitempty" jsonschema:"description=Power source"`
	LastSeen     *time.Time     `json:"last_seen,omitempty" jsonschema:"description=Last time the device was heard from"`
	State        map[string]any `json:"state,omitempty" jsonschema:"description=Last reported device state"`
}

// --- Settings Tools ---

// SetLightTimesInput is the input for the set_light_times tool
type SetLightTimesInput struct {
	OnTime  string `json:"on_time" jsonschema:"required,description=Light on time (HH:MM)"`
	OffTime string `json:"off_time" jsonschema:"required,description=Light off time (HH:MM)"`
}

// SetLightTimesOutput is the output for the set_light_times tool
type SetLightTimesOutput struct {
	Success bool   `json:"success" jsonschema:"description=Whether the schedule was stored"`
	Message string `json:"message" jsonschema:"description=Result message"`
}

// --- Health Issues Tool ---

// ListHealthIssuesInput is the input for the list_health_issues tool
type ListHealthIssuesInput struct {
	OpenOnly *bool `json:"open_only,omitempty" jsonschema:"description=Only open issues"`
	Limit    int   `json:"limit,omitempty" jsonschema:"description=Maximum number of issues"`
}

// ListHealthIssuesOutput is the output for the list_health_issues tool
type ListHealthIssuesOutput struct {
	Issues []IssueInfo `json:"issues" jsonschema:"description=Health issues"`
	Count  int         `json:"count" jsonschema:"description=Number of issues"`
}

// IssueInfo is a health issue in tool outputs
type IssueInfo struct {
	Code       int        `json:"code" jsonschema:"description=Issue code (1001-1006)"`
	Name       string     `json:"name" jsonschema:"description=Issue name"`
	Severity   string     `json:"severity" jsonschema:"description=warning or error"`
	Message    string     `json:"message" jsonschema:"description=Detail"`
	RaisedAt   time.Time  `json:"raised_at" jsonschema:"description=When the issue was raised"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty" jsonschema:"description=When the issue was resolved"`
}

// --- Helper conversions ---

// DeviceToInfo converts a device.Device to DeviceInfo
func DeviceToInfo(d *device.Device) DeviceInfo {
	info := DeviceInfo{
		ID:           d.ID,
		Type:         d.Type,
		Manufacturer: d.Manufacturer,
		Model:        d.Model,
		PowerSource:  d.PowerSource,
	}
	if d.LastSeen > 0 {
		seen := time.UnixMilli(d.LastSeen).UTC()
		info.LastSeen = &seen
	}
	return info
}

// SampleToInfo converts a db.Measurement to SampleInfo
func SampleToInfo(m *db.Measurement) SampleInfo {
	return SampleInfo{
		RecordedAt:   m.RecordedAt,
		TemperatureC: m.TemperatureC,
		TemperatureF: m.TemperatureF,
		Humidity:     m.Humidity,
		CO2:          m.CO2,
		TVOC:         m.TVOC,
	}
}

// IssueToInfo converts a db.HealthIssue to IssueInfo
func IssueToInfo(i *db.HealthIssue) IssueInfo {
	return IssueInfo{
		Code:       i.Code,
		Name:       health.Code(i.Code).String(),
		Severity:   i.Severity,
		Message:    i.Message,
		RaisedAt:   i.RaisedAt,
		ResolvedAt: i.ResolvedAt,
	}
}
