// Package geo resolves the user's position for nearby restaurant searches.
package geo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"booktable/internal/cache"
)

const (
	// CacheKey is where the last successful position is kept.
	CacheKey = "geo:last"
	// DefaultTTL is how long a position stays usable.
	DefaultTTL = 5 * time.Minute
)

var ErrLocationUnavailable = errors.New("location unavailable")

type Location struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Locator produces a fresh position.
type Locator interface {
	Locate(ctx context.Context) (Location, error)
}

// StaticLocator always reports the configured coordinates. A zero pair
// counts as not configured.
type StaticLocator struct {
	Latitude  float64
	Longitude float64
}

func (s StaticLocator) Locate(context.Context) (Location, error) {
	if s.Latitude == 0 && s.Longitude == 0 {
		return Location{}, fmt.Errorf("%w: no coordinates configured", ErrLocationUnavailable)
	}
	return Location{Latitude: s.Latitude, Longitude: s.Longitude, Timestamp: time.Now()}, nil
}

// LocationCache reads the last position through a cache. Every fresh
// lookup overwrites the cached one.
type LocationCache struct {
	locator Locator
	cache   cache.Cache
	ttl     time.Duration
	logger  *zerolog.Logger
}

func NewLocationCache(locator Locator, c cache.Cache, ttl time.Duration, logger *zerolog.Logger) *LocationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "geo").Logger()
	return &LocationCache{locator: locator, cache: c, ttl: ttl, logger: &l}
}

// Current returns the cached position if it is fresh, otherwise asks the
// locator. Cache failures only degrade to a fresh lookup.
func (lc *LocationCache) Current(ctx context.Context) (Location, error) {
	var loc Location
	ok, err := lc.cache.Get(ctx, CacheKey, &loc)
	if err != nil {
		lc.logger.Warn().Err(err).Msg("read cached location")
	}
	if ok {
		return loc, nil
	}
	return lc.Refresh(ctx)
}

// Refresh asks the locator and stores the result.
func (lc *LocationCache) Refresh(ctx context.Context) (Location, error) {
	loc, err := lc.locator.Locate(ctx)
	if err != nil {
		if errors.Is(err, ErrLocationUnavailable) {
			return Location{}, err
		}
		return Location{}, fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	if loc.Timestamp.IsZero() {
		loc.Timestamp = time.Now()
	}
	if err := lc.cache.Put(ctx, CacheKey, loc, lc.ttl); err != nil {
		lc.logger.Warn().Err(err).Msg("store location")
	}
	return loc, nil
}
