package weather

import (
	"time"

	"github.com/google/uuid"
)

// CurrentWeatherRecord is the normalized view of the upstream current-weather
// payload. Temperature, humidity, pressure and wind fields are always set in a
// successfully normalized record; optional upstream fields fall back to their
// documented defaults (wind direction 0, visibility 0).
type CurrentWeatherRecord struct {
	City          string  `json:"city" bson:"city"`
	Country       string  `json:"country" bson:"country"`
	Temperature   float64 `json:"temperature" bson:"temperature"`
	FeelsLike     float64 `json:"feels_like" bson:"feels_like"`
	Humidity      float64 `json:"humidity" bson:"humidity"`
	Pressure      float64 `json:"pressure" bson:"pressure"`
	WindSpeed     float64 `json:"wind_speed" bson:"wind_speed"`
	WindDirection float64 `json:"wind_direction" bson:"wind_direction"`
	Description   string  `json:"description" bson:"description"`
	Icon          string  `json:"icon" bson:"icon"`
	Clouds        float64 `json:"clouds" bson:"clouds"`
	Visibility    float64 `json:"visibility" bson:"visibility"`
	Timestamp     string  `json:"timestamp" bson:"timestamp"` // ISO-8601, set at retrieval time
	Sunrise       string  `json:"sunrise" bson:"sunrise"`     // ISO-8601
	Sunset        string  `json:"sunset" bson:"sunset"`       // ISO-8601
}

// Summary reduces the record to the projection used by the multi-city view.
func (r CurrentWeatherRecord) Summary() CitySummary {
	return CitySummary{
		City:        r.City,
		Country:     r.Country,
		Temperature: r.Temperature,
		Description: r.Description,
		Icon:        r.Icon,
		Humidity:    r.Humidity,
		WindSpeed:   r.WindSpeed,
	}
}

// ForecastRecord is the normalized 5-day/3-hour forecast. Entries keep the
// upstream order and are never re-sorted.
type ForecastRecord struct {
	City      string          `json:"city" bson:"city"`
	Country   string          `json:"country" bson:"country"`
	Forecast  []ForecastEntry `json:"forecast" bson:"forecast"`
	Timestamp string          `json:"timestamp" bson:"timestamp"`
}

// ForecastEntry is a single 3-hour forecast slot. Datetime is the upstream
// local-time text passed through unmodified; Pop is a 0-100 percentage.
type ForecastEntry struct {
	Datetime    string  `json:"datetime" bson:"datetime"`
	Temperature float64 `json:"temperature" bson:"temperature"`
	FeelsLike   float64 `json:"feels_like" bson:"feels_like"`
	TempMin     float64 `json:"temp_min" bson:"temp_min"`
	TempMax     float64 `json:"temp_max" bson:"temp_max"`
	Humidity    float64 `json:"humidity" bson:"humidity"`
	Pressure    float64 `json:"pressure" bson:"pressure"`
	WindSpeed   float64 `json:"wind_speed" bson:"wind_speed"`
	Description string  `json:"description" bson:"description"`
	Icon        string  `json:"icon" bson:"icon"`
	Clouds      float64 `json:"clouds" bson:"clouds"`
	Pop         float64 `json:"pop" bson:"pop"`
}

// CitySummary is the reduced projection returned by the popular-cities view.
type CitySummary struct {
	City        string  `json:"city"`
	Country     string  `json:"country"`
	Temperature float64 `json:"temperature"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
}

// Query type discriminators for stored documents.
const (
	QueryTypeCurrent  = "current"
	QueryTypeForecast = "forecast"
)

// StoredQuery is a persisted query result: a current or forecast record tagged
// with a type discriminator and the persistence timestamp. Documents are
// written best-effort, independently of the response path.
type StoredQuery struct {
	ID        string                `json:"query_id" bson:"query_id"`
	Type      string                `json:"type" bson:"type"`
	City      string                `json:"city" bson:"city"`
	QueryTime time.Time             `json:"query_time" bson:"query_time"`
	Current   *CurrentWeatherRecord `json:"current,omitempty" bson:"current,omitempty"`
	Forecast  *ForecastRecord       `json:"forecast,omitempty" bson:"forecast,omitempty"`
}

// NewStoredCurrent wraps a current-weather record for persistence.
func NewStoredCurrent(rec CurrentWeatherRecord) StoredQuery {
	return StoredQuery{
		ID:        uuid.NewString(),
		Type:      QueryTypeCurrent,
		City:      rec.City,
		QueryTime: time.Now().UTC(),
		Current:   &rec,
	}
}

// NewStoredForecast wraps a forecast record for persistence.
func NewStoredForecast(rec ForecastRecord) StoredQuery {
	return StoredQuery{
		ID:        uuid.NewString(),
		Type:      QueryTypeForecast,
		City:      rec.City,
		QueryTime: time.Now().UTC(),
		Forecast:  &rec,
	}
}

// Alert is a threshold violation derived from a current-weather record.
// Alerts are computed per request and never persisted.
type Alert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// AlertReport is the alerts endpoint response.
type AlertReport struct {
	City       string  `json:"city"`
	Alerts     []Alert `json:"alerts"`
	AlertCount int     `json:"alert_count"`
}

// HistoryResult is the history endpoint response. Message is set when the
// store is unavailable and the endpoint degrades to an empty result.
type HistoryResult struct {
	City    string        `json:"city"`
	Count   int           `json:"count"`
	History []StoredQuery `json:"history"`
	Message string        `json:"message,omitempty"`
}
