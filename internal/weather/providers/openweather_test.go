package providers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/meteolab/weather-forecast-service/internal/weather"
)

func TestFetchCurrentSuccess(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		q := r.URL.Query()
		if q.Get("q") != "London" || q.Get("appid") != "test-key" || q.Get("units") != "metric" {
			t.Errorf("unexpected query: %v", q)
		}
		if r.URL.Path != "/weather" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"name": "London",
			"sys": {"country": "GB", "sunrise": 1700000000, "sunset": 1700040000},
			"main": {"temp": 10, "feels_like": 9, "humidity": 80, "pressure": 1012},
			"wind": {"speed": 3},
			"weather": [{"description": "clear sky", "icon": "01d"}],
			"clouds": {"all": 0}
		}`))
	}))
	defer srv.Close()

	client := NewOpenWeatherClient(srv.Client(), "test-key", srv.URL)

	payload, err := client.FetchCurrent(context.Background(), "London")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Name != "London" || payload.Sys.Country != "GB" {
		t.Errorf("unexpected payload: %+v", payload)
	}
	if payload.Main.Temp != 10 || payload.Wind.Speed != 3 {
		t.Errorf("unexpected readings: %+v", payload)
	}
	if payload.Wind.Deg != 0 || payload.Visibility != 0 {
		t.Errorf("absent fields should decode to zero: %+v", payload)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 request, got %d", calls.Load())
	}
}

// Provider-reported 4xx responses pass through without retries, keeping the
// original status code and message.
func TestFetchCurrentNotFoundPassthrough(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"cod":"404","message":"city not found"}`))
	}))
	defer srv.Close()

	client := NewOpenWeatherClient(srv.Client(), "test-key", srv.URL)

	_, err := client.FetchCurrent(context.Background(), "Atlantis")

	var upErr *weather.UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.StatusCode != http.StatusNotFound || upErr.Message != "city not found" {
		t.Errorf("unexpected upstream error: %+v", upErr)
	}
	if calls.Load() != 1 {
		t.Errorf("4xx must not be retried; got %d requests", calls.Load())
	}
}

func TestFetchCurrentPreconditions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("precondition failures must not reach the network")
	}))
	defer srv.Close()

	client := NewOpenWeatherClient(srv.Client(), "test-key", srv.URL)
	if _, err := client.FetchCurrent(context.Background(), "  "); !errors.Is(err, weather.ErrEmptyCity) {
		t.Errorf("expected ErrEmptyCity, got %v", err)
	}

	client = NewOpenWeatherClient(srv.Client(), "", srv.URL)
	if _, err := client.FetchCurrent(context.Background(), "London"); !errors.Is(err, weather.ErrNoAPIKey) {
		t.Errorf("expected ErrNoAPIKey, got %v", err)
	}
}

func TestFetchForecastServerErrorRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewOpenWeatherClient(srv.Client(), "test-key", srv.URL)

	_, err := client.FetchForecast(context.Background(), "London")
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	var upErr *weather.UpstreamError
	if errors.As(err, &upErr) {
		t.Errorf("5xx must not surface as a passthrough upstream error: %v", err)
	}
	if calls.Load() != 4 {
		t.Errorf("expected 1 attempt + 3 retries, got %d", calls.Load())
	}
}

type staticClient struct {
	payload *weather.CurrentPayload
}

func (s *staticClient) FetchCurrent(context.Context, string) (*weather.CurrentPayload, error) {
	return s.payload, nil
}

func (s *staticClient) FetchForecast(context.Context, string) (*weather.ForecastPayload, error) {
	return nil, errors.New("not implemented")
}

func TestRateLimitedClientDelegates(t *testing.T) {
	inner := &staticClient{payload: &weather.CurrentPayload{Name: "London"}}
	client := NewRateLimitedClient(inner, 100, 10)

	payload, err := client.FetchCurrent(context.Background(), "London")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if payload.Name != "London" {
		t.Errorf("unexpected payload: %+v", payload)
	}
}

func TestRateLimitedClientHonorsCancellation(t *testing.T) {
	inner := &staticClient{payload: &weather.CurrentPayload{}}
	// One token per hour: the second call must block until canceled.
	client := NewRateLimitedClient(inner, 1.0/3600, 1)

	if _, err := client.FetchCurrent(context.Background(), "London"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.FetchCurrent(ctx, "London"); err == nil {
		t.Fatal("expected error from canceled context")
	}
}
