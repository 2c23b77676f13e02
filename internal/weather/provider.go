package weather

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrEmptyCity is returned before any network call when the city query is blank.
	ErrEmptyCity = errors.New("city must not be empty")

	// ErrNoAPIKey is returned before any network call when no upstream credential
	// is configured. Handlers must never echo the credential itself.
	ErrNoAPIKey = errors.New("upstream API key not configured")

	// ErrStoreUnavailable signals that the document store is not reachable.
	// The history path degrades to an empty result instead of failing.
	ErrStoreUnavailable = errors.New("database not available")
)

// UpstreamError carries a provider-reported HTTP failure through to the caller
// with the original status code preserved, so 404 city-not-found stays
// distinguishable from other upstream failures.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded %d: %s", e.StatusCode, e.Message)
}

// Client abstracts the upstream meteorological provider. Implementations
// return the provider's raw payloads unmodified; normalization happens in
// this package.
type Client interface {
	FetchCurrent(ctx context.Context, city string) (*CurrentPayload, error)
	FetchForecast(ctx context.Context, city string) (*ForecastPayload, error)
}

// Store is the contract the document store must satisfy. History matches the
// city case-insensitively as a substring, returns only current-weather
// documents, most recent first, capped at limit.
type Store interface {
	Save(ctx context.Context, doc StoredQuery) error
	History(ctx context.Context, city string, limit int64) ([]StoredQuery, error)
}
