package weather

import "fmt"

// Alert classification values.
const (
	AlertTypeHeat = "heat"
	AlertTypeCold = "cold"
	AlertTypeWind = "wind"

	SeverityHigh   = "high"
	SeverityMedium = "medium"
)

// Fixed thresholds; metric units.
const (
	heatThresholdC  = 35.0
	coldThresholdC  = 0.0
	windThresholdMS = 20.0
)

// EvaluateAlerts derives alerts from a normalized current-weather record.
// Heat and cold are mutually exclusive; wind is evaluated independently.
// The temperature alert, when present, always precedes the wind alert.
func EvaluateAlerts(rec CurrentWeatherRecord) []Alert {
	var alerts []Alert

	if rec.Temperature > heatThresholdC {
		alerts = append(alerts, Alert{
			Type:     AlertTypeHeat,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("Extreme heat warning: %v°C", rec.Temperature),
		})
	} else if rec.Temperature < coldThresholdC {
		alerts = append(alerts, Alert{
			Type:     AlertTypeCold,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("Freezing temperature: %v°C", rec.Temperature),
		})
	}

	if rec.WindSpeed > windThresholdMS {
		alerts = append(alerts, Alert{
			Type:     AlertTypeWind,
			Severity: SeverityMedium,
			Message:  fmt.Sprintf("High wind speed: %v m/s", rec.WindSpeed),
		})
	}

	return alerts
}
