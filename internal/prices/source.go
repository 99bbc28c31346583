package prices

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

// Store is the persistence surface price lookups read from.
type Store interface {
	GetAsset(symbol string) (*models.Asset, error)
	GetPriceOnDate(symbol string, date time.Time) (*models.AssetPriceDaily, error)
}

// Source resolves asset prices: the latest known price from the registry
// (via a Redis read-through cache) and authoritative historical prices from
// the daily price table. Lookups are bounded by a timeout and degrade to
// models.ErrPriceUnavailable; callers fall back rather than block or fail.
type Source struct {
	store   Store
	cache   *Cache // nil when caching is disabled
	timeout time.Duration
}

// NewSource creates a price source. cache may be nil.
func NewSource(store Store, cache *Cache, timeout time.Duration) *Source {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Source{store: store, cache: cache, timeout: timeout}
}

// Latest returns the latest known market price for a symbol, or
// models.ErrPriceUnavailable when the asset is unknown.
func (s *Source) Latest(ctx context.Context, symbol string) (decimal.Decimal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if s.cache != nil {
		if price, ok := s.cache.GetLatest(ctx, symbol); ok {
			return price, nil
		}
	}

	asset, err := s.store.GetAsset(symbol)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return decimal.Zero, models.ErrPriceUnavailable
		}
		return decimal.Zero, err
	}

	if s.cache != nil {
		s.cache.SetLatest(ctx, symbol, asset.LatestPrice)
	}
	return asset.LatestPrice, nil
}

// On returns the authoritative historical price for a symbol on a calendar
// date, or models.ErrPriceUnavailable when none is stored.
func (s *Source) On(_ context.Context, symbol string, date time.Time) (decimal.Decimal, error) {
	p, err := s.store.GetPriceOnDate(symbol, date)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return decimal.Zero, models.ErrPriceUnavailable
		}
		return decimal.Zero, err
	}
	return p.Price, nil
}
