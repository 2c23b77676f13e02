package weather

import (
	"errors"
	"fmt"
	"time"
)

// ErrNoCondition is returned when a payload lacks the mandatory weather
// condition entry. Descriptions and icons are never silently substituted.
var ErrNoCondition = errors.New("payload has no weather condition entry")

// NormalizeCurrent maps a raw current-weather payload into a
// CurrentWeatherRecord. Pure over its arguments; retrievedAt becomes the
// record's query timestamp.
func NormalizeCurrent(p *CurrentPayload, retrievedAt time.Time) (CurrentWeatherRecord, error) {
	if p == nil {
		return CurrentWeatherRecord{}, errors.New("nil current payload")
	}
	if len(p.Weather) == 0 {
		return CurrentWeatherRecord{}, ErrNoCondition
	}

	return CurrentWeatherRecord{
		City:          p.Name,
		Country:       p.Sys.Country,
		Temperature:   p.Main.Temp,
		FeelsLike:     p.Main.FeelsLike,
		Humidity:      p.Main.Humidity,
		Pressure:      p.Main.Pressure,
		WindSpeed:     p.Wind.Speed,
		WindDirection: p.Wind.Deg, // absent upstream decodes to the documented default 0
		Description:   p.Weather[0].Description,
		Icon:          p.Weather[0].Icon,
		Clouds:        p.Clouds.All,
		Visibility:    p.Visibility, // documented default 0
		Timestamp:     retrievedAt.UTC().Format(time.RFC3339),
		Sunrise:       isoFromEpochSeconds(p.Sys.Sunrise),
		Sunset:        isoFromEpochSeconds(p.Sys.Sunset),
	}, nil
}

// NormalizeForecast maps a raw forecast payload into a ForecastRecord.
// Entries keep the upstream order; probability of precipitation is scaled
// from a 0-1 fraction to a 0-100 percentage.
func NormalizeForecast(p *ForecastPayload, retrievedAt time.Time) (ForecastRecord, error) {
	if p == nil {
		return ForecastRecord{}, errors.New("nil forecast payload")
	}

	entries := make([]ForecastEntry, 0, len(p.List))
	for i, item := range p.List {
		if len(item.Weather) == 0 {
			return ForecastRecord{}, fmt.Errorf("forecast entry %d: %w", i, ErrNoCondition)
		}
		entries = append(entries, ForecastEntry{
			Datetime:    item.DtTxt,
			Temperature: item.Main.Temp,
			FeelsLike:   item.Main.FeelsLike,
			TempMin:     item.Main.TempMin,
			TempMax:     item.Main.TempMax,
			Humidity:    item.Main.Humidity,
			Pressure:    item.Main.Pressure,
			WindSpeed:   item.Wind.Speed,
			Description: item.Weather[0].Description,
			Icon:        item.Weather[0].Icon,
			Clouds:      item.Clouds.All,
			Pop:         item.Pop * 100, // absent upstream decodes to 0 before scaling
		})
	}

	return ForecastRecord{
		City:      p.City.Name,
		Country:   p.City.Country,
		Forecast:  entries,
		Timestamp: retrievedAt.UTC().Format(time.RFC3339),
	}, nil
}

// isoFromEpochSeconds converts upstream epoch seconds to ISO-8601. The
// multiplication to milliseconds must be exact.
func isoFromEpochSeconds(sec int64) string {
	return time.UnixMilli(sec * 1000).UTC().Format(time.RFC3339)
}
