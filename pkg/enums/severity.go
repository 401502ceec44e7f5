package enums

import "fmt"

// Severity grades sensor alerts and sensor health. Values are the small
// integers stored on the records.
type Severity int

const (
	SeverityUnknown  Severity = 0
	SeverityInfo     Severity = 1
	SeverityWarning  Severity = 2
	SeverityCritical Severity = 3
)

func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	}
	return "unknown"
}

// IsValidAlert reports whether s can be attached to an alert.
func (s Severity) IsValidAlert() bool {
	return s >= SeverityInfo && s <= SeverityCritical
}

func ParseAlertSeverity(value int) (Severity, error) {
	s := Severity(value)
	if !s.IsValidAlert() {
		return SeverityUnknown, fmt.Errorf("invalid alert severity %d (expected 1..3)", value)
	}
	return s, nil
}

// SensorStatus is the health code reported for a sensor.
type SensorStatus int

const (
	SensorStatusUnknown  SensorStatus = 0
	SensorStatusNormal   SensorStatus = 1
	SensorStatusWarning  SensorStatus = 2
	SensorStatusCritical SensorStatus = 3
)

func (s SensorStatus) String() string {
	switch s {
	case SensorStatusNormal:
		return "Normal"
	case SensorStatusWarning:
		return "Warning"
	case SensorStatusCritical:
		return "Critical"
	}
	return "Unknown"
}

func (s SensorStatus) IsValid() bool {
	return s >= SensorStatusUnknown && s <= SensorStatusCritical
}
