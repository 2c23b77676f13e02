package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/meteolab/weather-forecast-service/internal/metrics"
	"github.com/meteolab/weather-forecast-service/internal/weather"
)

// DefaultBaseURL is the production OpenWeatherMap API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherClient implements the weather.Client interface for OpenWeatherMap.
type OpenWeatherClient struct {
	apiKey  string
	baseURL string
	httpCfg HTTPClientConfig
	circuit *gobreaker.CircuitBreaker
}

// NewOpenWeatherClient creates a client. baseURL is overridable for tests;
// pass DefaultBaseURL in production.
func NewOpenWeatherClient(client *http.Client, apiKey, baseURL string) *OpenWeatherClient {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "openweather",
		MaxRequests: 5,
		Interval:    1 * time.Minute,
		Timeout:     2 * time.Minute,
	})

	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &OpenWeatherClient{
		apiKey:  apiKey,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpCfg: HTTPClientConfig{
			Client: client,
			Backoff: BackoffConfig{
				MaxRetries:      3,
				InitialInterval: 500 * time.Millisecond,
				MaxInterval:     5 * time.Second,
			},
		},
		circuit: cb,
	}
}

// FetchCurrent returns the raw /weather payload for a city.
func (c *OpenWeatherClient) FetchCurrent(ctx context.Context, city string) (*weather.CurrentPayload, error) {
	payload := &weather.CurrentPayload{}
	if err := c.getJSON(ctx, "/weather", city, "current", payload); err != nil {
		return nil, err
	}
	return payload, nil
}

// FetchForecast returns the raw /forecast (5-day/3-hour) payload for a city.
func (c *OpenWeatherClient) FetchForecast(ctx context.Context, city string) (*weather.ForecastPayload, error) {
	payload := &weather.ForecastPayload{}
	if err := c.getJSON(ctx, "/forecast", city, "forecast", payload); err != nil {
		return nil, err
	}
	return payload, nil
}

func (c *OpenWeatherClient) getJSON(ctx context.Context, path, city, operation string, out interface{}) error {
	// Precondition failures are reported before any network call.
	if c.apiKey == "" {
		return weather.ErrNoAPIKey
	}
	if strings.TrimSpace(city) == "" {
		return weather.ErrEmptyCity
	}

	buildRequest := func() (*http.Request, error) {
		values := url.Values{}
		values.Set("q", city)
		values.Set("appid", c.apiKey)
		values.Set("units", "metric")

		u := fmt.Sprintf("%s%s?%s", c.baseURL, path, values.Encode())
		return http.NewRequest(http.MethodGet, u, nil)
	}

	resp, err := doRequestWithResilience(ctx, c.httpCfg, c.circuit, buildRequest)
	if err != nil {
		metrics.UpstreamRequests.WithLabelValues(operation, "error").Inc()
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		metrics.UpstreamRequests.WithLabelValues(operation, "upstream_error").Inc()
		return decodeUpstreamError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.UpstreamRequests.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("decode %s response: %w", operation, err)
	}

	metrics.UpstreamRequests.WithLabelValues(operation, "ok").Inc()
	return nil
}

// decodeUpstreamError turns a provider error response into an UpstreamError,
// preserving the original status code and message.
func decodeUpstreamError(resp *http.Response) error {
	var body struct {
		Message string `json:"message"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)

	msg := body.Message
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	return &weather.UpstreamError{StatusCode: resp.StatusCode, Message: msg}
}
