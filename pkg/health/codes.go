// Package health watches the sensor feed, the zigbee roster and board
// temperatures, and keeps one open issue per failing condition.
package health

import "github.com/urmzd/growbox/pkg/db"

// Code identifies a health condition.
type Code int

const (
	CodeTemperatureInvalid Code = 1001
	CodeTimestampMissing   Code = 1002
	CodeZigbeeUnhealthy    Code = 1003
	CodeSensorStale        Code = 1004
	CodeTemperatureFrozen  Code = 1005
	CodeOverheated         Code = 1006
)

// Codes lists every condition in evaluation order.
var Codes = []Code{
	CodeTemperatureInvalid,
	CodeTimestampMissing,
	CodeZigbeeUnhealthy,
	CodeSensorStale,
	CodeTemperatureFrozen,
	CodeOverheated,
}

func (c Code) String() string {
	switch c {
	case CodeTemperatureInvalid:
		return "TEMPERATURE_SENSOR_INVALID"
	case CodeTimestampMissing:
		return "TIMESTAMP_MISSING"
	case CodeZigbeeUnhealthy:
		return "ZIGBEE_DEVICES_UNHEALTHY"
	case CodeSensorStale:
		return "SENSOR_DATA_NOT_UPDATED"
	case CodeTemperatureFrozen:
		return "TEMPERATURE_SENSOR_FROZEN"
	case CodeOverheated:
		return "SYSTEM_OVERHEATED"
	}
	return "UNKNOWN"
}

// Severity returns db.SeverityWarning for conditions the box can ride out
// and db.SeverityError for the rest.
func (c Code) Severity() string {
	switch c {
	case CodeZigbeeUnhealthy, CodeSensorStale:
		return db.SeverityWarning
	}
	return db.SeverityError
}
