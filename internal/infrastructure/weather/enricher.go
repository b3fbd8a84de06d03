package weather

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultTimeout = 2 * time.Second

// FallbackObserver is notified whenever a lookup degrades to DefaultSample.
type FallbackObserver interface {
	IncWeatherFallback()
}

// Enricher wraps a Provider with a hard deadline. Lookup never fails:
// timeouts and provider errors yield DefaultSample.
type Enricher struct {
	provider Provider
	timeout  time.Duration
	observer FallbackObserver
}

func NewEnricher(provider Provider, timeout time.Duration, observer FallbackObserver) *Enricher {
	if provider == nil {
		provider = MockProvider{}
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Enricher{provider: provider, timeout: timeout, observer: observer}
}

// Lookup returns the current sample for (lat, lon).
func (e *Enricher) Lookup(ctx context.Context, lat, lon float64) Sample {
	loc := Location{Latitude: lat, Longitude: lon}

	// Caller đã hết thời gian: không gọi provider
	if err := ctx.Err(); err != nil {
		log.Debug().Err(err).Str("provider", e.provider.Name()).Str("location", loc.String()).
			Msg("weather budget exhausted, using default sample")
		return e.fallback()
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	type result struct {
		sample Sample
		err    error
	}
	done := make(chan result, 1)
	go func() {
		s, err := e.provider.Fetch(ctx, loc)
		done <- result{s, err}
	}()

	select {
	case r := <-done:
		if r.err == nil {
			return r.sample
		}
		log.Warn().Err(r.err).Str("provider", e.provider.Name()).Str("location", loc.String()).
			Msg("weather lookup failed, using default sample")
	case <-ctx.Done():
		log.Warn().Err(ctx.Err()).Str("provider", e.provider.Name()).Str("location", loc.String()).
			Msg("weather lookup timed out, using default sample")
	}

	return e.fallback()
}

func (e *Enricher) fallback() Sample {
	if e.observer != nil {
		e.observer.IncWeatherFallback()
	}
	return DefaultSample
}
