package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/meteolab/weather-forecast-service/internal/weather"
)

// fakeClient serves canned payloads; unknown cities get a 404 upstream error.
type fakeClient struct {
	payloads map[string]*weather.CurrentPayload
}

func (f *fakeClient) FetchCurrent(_ context.Context, city string) (*weather.CurrentPayload, error) {
	if p, ok := f.payloads[city]; ok {
		return p, nil
	}
	return nil, &weather.UpstreamError{StatusCode: 404, Message: "city not found"}
}

func (f *fakeClient) FetchForecast(_ context.Context, city string) (*weather.ForecastPayload, error) {
	return nil, &weather.UpstreamError{StatusCode: 404, Message: "city not found"}
}

func londonPayload() *weather.CurrentPayload {
	p := &weather.CurrentPayload{}
	p.Name = "London"
	p.Sys.Country = "GB"
	p.Sys.Sunrise = 1700000000
	p.Sys.Sunset = 1700040000
	p.Main.Temp = 10
	p.Main.FeelsLike = 9
	p.Main.Humidity = 80
	p.Main.Pressure = 1012
	p.Wind.Speed = 3
	p.Weather = []weather.WeatherCondition{{Description: "clear sky", Icon: "01d"}}
	return p
}

func newTestApp(t *testing.T, fc weather.Client, opts weather.Options) *fiber.App {
	t.Helper()

	svc := weather.NewService(fc, nil, opts)
	t.Cleanup(svc.Close)

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterRoutes(app, svc)
	return app
}

func decodeBody(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		t.Fatalf("decode body %q: %v", body, err)
	}
}

func TestCurrentMissingCity(t *testing.T) {
	app := newTestApp(t, &fakeClient{}, weather.Options{})

	for _, path := range []string{"/api/weather/current", "/api/weather/forecast", "/api/weather/history"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp, err := app.Test(req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected status %d, got %d", path, http.StatusBadRequest, resp.StatusCode)
		}

		var body map[string]string
		decodeBody(t, resp, &body)
		if body["error"] != "City parameter is required" {
			t.Errorf("%s: unexpected error body: %v", path, body)
		}
	}
}

func TestCurrentSuccess(t *testing.T) {
	app := newTestApp(t, &fakeClient{payloads: map[string]*weather.CurrentPayload{"London": londonPayload()}}, weather.Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/weather/current?city=London", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var rec weather.CurrentWeatherRecord
	decodeBody(t, resp, &rec)
	if rec.City != "London" || rec.Country != "GB" || rec.Temperature != 10 {
		t.Errorf("unexpected record: %+v", rec)
	}
	if rec.WindDirection != 0 || rec.Visibility != 0 {
		t.Errorf("expected documented defaults, got %+v", rec)
	}
}

func TestCurrentUpstreamPassthrough(t *testing.T) {
	app := newTestApp(t, &fakeClient{}, weather.Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/weather/current?city=Atlantis", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected upstream 404 passthrough, got %d", resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["error"] != "city not found" {
		t.Errorf("unexpected error body: %v", body)
	}
}

func TestHistoryWithoutStore(t *testing.T) {
	app := newTestApp(t, &fakeClient{}, weather.Options{})

	req := httptest.NewRequest(http.MethodGet, "/api/weather/history?city=London", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("degraded history must not fail; got %d", resp.StatusCode)
	}

	var res weather.HistoryResult
	decodeBody(t, resp, &res)
	if res.Count != 0 || len(res.History) != 0 {
		t.Errorf("expected empty history, got %+v", res)
	}
	if res.Message != "Database not available" {
		t.Errorf("unexpected message: %q", res.Message)
	}
}

func TestCitiesPartialFailure(t *testing.T) {
	app := newTestApp(t,
		&fakeClient{payloads: map[string]*weather.CurrentPayload{"London": londonPayload()}},
		weather.Options{PopularCities: []string{"London", "Atlantis"}},
	)

	req := httptest.NewRequest(http.MethodGet, "/api/weather/cities", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var body struct {
		Cities []weather.CitySummary `json:"cities"`
	}
	decodeBody(t, resp, &body)
	if len(body.Cities) != 1 || body.Cities[0].City != "London" {
		t.Errorf("expected the failing city to be omitted: %+v", body.Cities)
	}
}

func postAlerts(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, "/api/weather/alerts", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return resp
}

func TestAlertsHeatAndWind(t *testing.T) {
	hot := londonPayload()
	hot.Name = "Phoenix"
	hot.Main.Temp = 40
	hot.Wind.Speed = 25

	app := newTestApp(t, &fakeClient{payloads: map[string]*weather.CurrentPayload{"Phoenix": hot}}, weather.Options{})

	resp := postAlerts(t, app, `{"city":"Phoenix"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, resp.StatusCode)
	}

	var report weather.AlertReport
	decodeBody(t, resp, &report)
	if report.AlertCount != 2 || len(report.Alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %+v", report)
	}
	if report.Alerts[0].Type != weather.AlertTypeHeat || report.Alerts[1].Type != weather.AlertTypeWind {
		t.Errorf("unexpected alert order: %+v", report.Alerts)
	}
}

func TestAlertsCityNotFound(t *testing.T) {
	app := newTestApp(t, &fakeClient{}, weather.Options{})

	resp := postAlerts(t, app, `{"city":"Atlantis"}`)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status %d, got %d", http.StatusNotFound, resp.StatusCode)
	}

	var body map[string]string
	decodeBody(t, resp, &body)
	if body["error"] != "City not found" {
		t.Errorf("unexpected error body: %v", body)
	}
}

func TestAlertsValidation(t *testing.T) {
	app := newTestApp(t, &fakeClient{}, weather.Options{})

	resp := postAlerts(t, app, `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
	var body map[string]string
	decodeBody(t, resp, &body)
	if body["error"] != "City is required" {
		t.Errorf("unexpected error body: %v", body)
	}

	// Email is unused but must be well-formed when present.
	resp = postAlerts(t, app, `{"city":"London","email":"not-an-email"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, resp.StatusCode)
	}
}
