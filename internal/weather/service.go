package weather

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/meteolab/weather-forecast-service/internal/metrics"
)

const (
	defaultCityTimeout  = 5 * time.Second
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100

	// writeQueueSize bounds the fire-and-forget persistence queue. Enqueueing
	// never blocks a request; overflow drops the document with a log line.
	writeQueueSize = 64

	persistTimeout = 5 * time.Second
)

// DefaultPopularCities is the fixed list served by the multi-city view.
var DefaultPopularCities = []string{
	"London", "New York", "Tokyo", "Paris", "Sydney", "Dubai", "Mumbai", "Singapore",
}

// Options tune the Service. Zero values fall back to defaults.
type Options struct {
	PopularCities       []string
	CityTimeout         time.Duration
	HistoryDefaultLimit int64
	HistoryMaxLimit     int64
}

// Service orchestrates the upstream client, the normalizer, the alert
// evaluator and best-effort persistence. It is stateless across requests;
// the only long-lived piece is the persistence queue worker.
type Service struct {
	client Client
	store  Store // nil when persistence is disabled

	popularCities []string
	cityTimeout   time.Duration
	defaultLimit  int64
	maxLimit      int64

	writes    chan StoredQuery
	workerWG  sync.WaitGroup
	closeOnce sync.Once
}

// NewService creates a Service. A nil store disables persistence: writes are
// skipped and the history path degrades to an explicit empty result.
func NewService(client Client, store Store, opts Options) *Service {
	if len(opts.PopularCities) == 0 {
		opts.PopularCities = DefaultPopularCities
	}
	if opts.CityTimeout <= 0 {
		opts.CityTimeout = defaultCityTimeout
	}
	if opts.HistoryDefaultLimit <= 0 {
		opts.HistoryDefaultLimit = defaultHistoryLimit
	}
	if opts.HistoryMaxLimit <= 0 {
		opts.HistoryMaxLimit = maxHistoryLimit
	}

	s := &Service{
		client:        client,
		store:         store,
		popularCities: opts.PopularCities,
		cityTimeout:   opts.CityTimeout,
		defaultLimit:  opts.HistoryDefaultLimit,
		maxLimit:      opts.HistoryMaxLimit,
		writes:        make(chan StoredQuery, writeQueueSize),
	}

	if s.store != nil {
		s.workerWG.Add(1)
		go s.persistLoop()
	}

	return s
}

// Close drains the persistence queue and stops the worker. Safe to call more
// than once.
func (s *Service) Close() {
	s.closeOnce.Do(func() { close(s.writes) })
	s.workerWG.Wait()
}

// Current fetches, normalizes and best-effort persists current weather for a
// city. Persistence never affects the returned record or error.
func (s *Service) Current(ctx context.Context, city string) (CurrentWeatherRecord, error) {
	payload, err := s.client.FetchCurrent(ctx, city)
	if err != nil {
		return CurrentWeatherRecord{}, err
	}

	rec, err := NormalizeCurrent(payload, time.Now().UTC())
	if err != nil {
		return CurrentWeatherRecord{}, fmt.Errorf("normalize current weather: %w", err)
	}

	s.recordAsync(NewStoredCurrent(rec))
	return rec, nil
}

// Forecast fetches, normalizes and best-effort persists the 5-day forecast.
func (s *Service) Forecast(ctx context.Context, city string) (ForecastRecord, error) {
	payload, err := s.client.FetchForecast(ctx, city)
	if err != nil {
		return ForecastRecord{}, err
	}

	rec, err := NormalizeForecast(payload, time.Now().UTC())
	if err != nil {
		return ForecastRecord{}, fmt.Errorf("normalize forecast: %w", err)
	}

	s.recordAsync(NewStoredForecast(rec))
	return rec, nil
}

// History returns persisted current-weather queries for a city, most recent
// first. When the store is absent or unreachable it returns an empty result
// with an explanatory message instead of an error.
func (s *Service) History(ctx context.Context, city string, limit int64) (HistoryResult, error) {
	if limit < 1 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}

	if s.store == nil {
		return s.unavailableHistory(city), nil
	}

	docs, err := s.store.History(ctx, city, limit)
	if errors.Is(err, ErrStoreUnavailable) {
		return s.unavailableHistory(city), nil
	}
	if err != nil {
		return HistoryResult{}, fmt.Errorf("query history: %w", err)
	}
	if docs == nil {
		docs = []StoredQuery{}
	}

	return HistoryResult{City: city, Count: len(docs), History: docs}, nil
}

func (s *Service) unavailableHistory(city string) HistoryResult {
	return HistoryResult{City: city, History: []StoredQuery{}, Message: "Database not available"}
}

// PopularCities fetches current weather for the configured city list
// concurrently. Each city gets its own timeout; a failing city is logged and
// omitted, and never fails or delays the rest of the batch. List order is
// preserved in the result.
func (s *Service) PopularCities(ctx context.Context) []CitySummary {
	results := make([]*CitySummary, len(s.popularCities))

	var wg sync.WaitGroup
	for i, city := range s.popularCities {
		wg.Add(1)
		go func(i int, city string) {
			defer wg.Done()

			cityCtx, cancel := context.WithTimeout(ctx, s.cityTimeout)
			defer cancel()

			payload, err := s.client.FetchCurrent(cityCtx, city)
			if err != nil {
				metrics.PopularCityFailures.Inc()
				log.Printf("popular cities: fetch failed for %s: %v", city, err)
				return
			}

			rec, err := NormalizeCurrent(payload, time.Now().UTC())
			if err != nil {
				metrics.PopularCityFailures.Inc()
				log.Printf("popular cities: normalize failed for %s: %v", city, err)
				return
			}

			summary := rec.Summary()
			results[i] = &summary
		}(i, city)
	}
	wg.Wait()

	summaries := make([]CitySummary, 0, len(results))
	for _, r := range results {
		if r != nil {
			summaries = append(summaries, *r)
		}
	}
	return summaries
}

// AlertReport fetches current weather for a city and evaluates the fixed
// thresholds. Alerts bypass persistence entirely.
func (s *Service) AlertReport(ctx context.Context, city string) (AlertReport, error) {
	payload, err := s.client.FetchCurrent(ctx, city)
	if err != nil {
		return AlertReport{}, err
	}

	rec, err := NormalizeCurrent(payload, time.Now().UTC())
	if err != nil {
		return AlertReport{}, fmt.Errorf("normalize current weather: %w", err)
	}

	alerts := EvaluateAlerts(rec)
	if alerts == nil {
		alerts = []Alert{}
	}

	return AlertReport{City: city, Alerts: alerts, AlertCount: len(alerts)}, nil
}

// recordAsync submits a document to the persistence queue without blocking.
func (s *Service) recordAsync(doc StoredQuery) {
	if s.store == nil {
		return
	}
	select {
	case s.writes <- doc:
	default:
		metrics.PersistenceWrites.WithLabelValues("dropped").Inc()
		log.Printf("persistence: queue full, dropping %s query for %q", doc.Type, doc.City)
	}
}

// persistLoop drains the write queue. Failures are logged and counted; they
// are never surfaced to the request that triggered the write.
func (s *Service) persistLoop() {
	defer s.workerWG.Done()

	for doc := range s.writes {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		err := s.store.Save(ctx, doc)
		cancel()

		if err != nil {
			metrics.PersistenceWrites.WithLabelValues("error").Inc()
			log.Printf("persistence: save %s query for %q failed: %v", doc.Type, doc.City, err)
			continue
		}
		metrics.PersistenceWrites.WithLabelValues("ok").Inc()
	}
}
