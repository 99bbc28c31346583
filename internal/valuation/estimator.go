package valuation

import (
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/shopspring/decimal"
)

// WalkEstimator produces a historical price estimate for dates with no
// authoritative source: a bounded pseudo-random deviation anchored to the
// current known price. It exists for backfill over gaps, not as a price feed;
// whenever a stored daily price is available it takes precedence.
//
// The deviation is seeded from (symbol, date) so repeated backfill runs agree
// on the estimate for a given cell.
type WalkEstimator struct {
	// MaxDriftPct bounds the deviation from the anchor price, in percent.
	MaxDriftPct float64
}

// NewWalkEstimator returns an estimator with the default 10% bound.
func NewWalkEstimator() *WalkEstimator {
	return &WalkEstimator{MaxDriftPct: 10}
}

// Estimate returns an approximated price for symbol on date, anchored to the
// current known price. A zero or negative anchor yields zero: with nothing to
// anchor on, the valuation degrades to zero rather than inventing a level.
func (e *WalkEstimator) Estimate(symbol string, date time.Time, anchor decimal.Decimal) decimal.Decimal {
	if !anchor.IsPositive() {
		return decimal.Zero
	}

	h := fnv.New64a()
	h.Write([]byte(symbol))
	h.Write([]byte(date.UTC().Format("2006-01-02")))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	// Uniform in [-MaxDriftPct, +MaxDriftPct].
	drift := (rng.Float64()*2 - 1) * e.MaxDriftPct / 100
	factor := decimal.NewFromFloat(1 + drift)

	return anchor.Mul(factor)
}
