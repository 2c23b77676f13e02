package providers

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/meteolab/weather-forecast-service/internal/weather"
)

// RateLimitedClient wraps a weather.Client with outbound rate limiting so the
// service stays within the provider's request quota.
type RateLimitedClient struct {
	inner   weather.Client
	limiter *rate.Limiter
}

// NewRateLimitedClient creates a rate-limited client. rps is the sustained
// requests per second (fractional values allowed), burst the maximum burst.
func NewRateLimitedClient(inner weather.Client, rps float64, burst int) *RateLimitedClient {
	return &RateLimitedClient{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// FetchCurrent waits for rate limiter permission, then delegates.
func (c *RateLimitedClient) FetchCurrent(ctx context.Context, city string) (*weather.CurrentPayload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return c.inner.FetchCurrent(ctx, city)
}

// FetchForecast waits for rate limiter permission, then delegates.
func (c *RateLimitedClient) FetchForecast(ctx context.Context, city string) (*weather.ForecastPayload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait canceled: %w", err)
	}
	return c.inner.FetchForecast(ctx, city)
}
