package valuation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jpradley/asset-ledger-service/internal/models"
)

// AllAssets selects every symbol present in the ledger for a backfill run.
const AllAssets = "all"

// SnapshotStore is the persistence surface the backfiller depends on.
type SnapshotStore interface {
	GetTransactionsBySymbol(symbol string) ([]*models.Transaction, error)
	GetSymbolsWithTransactions() ([]string, error)
	SnapshotExists(symbol string, date time.Time) (bool, error)
	InsertSnapshot(s *models.DailySnapshot) (bool, error)
}

// HistoricalPriceSource resolves prices for backfill. On returns the
// authoritative price for a date or models.ErrPriceUnavailable; Latest
// returns the current known price used to anchor estimates.
type HistoricalPriceSource interface {
	On(ctx context.Context, symbol string, date time.Time) (decimal.Decimal, error)
	Latest(ctx context.Context, symbol string) (decimal.Decimal, error)
}

// Report aggregates the outcome of a backfill run. Failures are isolated per
// asset and surfaced here, never thrown: one broken asset does not abort the
// batch.
type Report struct {
	mu      sync.Mutex
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

func (r *Report) addCreated() {
	r.mu.Lock()
	r.Created++
	r.mu.Unlock()
}

func (r *Report) addSkipped() {
	r.mu.Lock()
	r.Skipped++
	r.mu.Unlock()
}

func (r *Report) addError(err error) {
	r.mu.Lock()
	r.Errors = append(r.Errors, err.Error())
	r.mu.Unlock()
}

// Backfiller generates missing daily snapshots across an asset/date matrix.
// Runs are idempotent and monotonic: existing rows are never rewritten, only
// missing ones are added, so an interrupted run is resumed by re-invoking it.
type Backfiller struct {
	store     SnapshotStore
	prices    HistoricalPriceSource
	estimator *WalkEstimator

	// workers bounds per-asset concurrency. The default of 1 keeps assets
	// sequential, which matters when the price source is rate-limited.
	workers int
	// pacing is the delay between assets within a worker, a resource-sharing
	// courtesy toward throttled price APIs.
	pacing time.Duration

	log zerolog.Logger
}

// NewBackfiller creates a backfill orchestrator. workers < 1 is treated as 1.
func NewBackfiller(store SnapshotStore, prices HistoricalPriceSource, workers int, pacing time.Duration, log zerolog.Logger) *Backfiller {
	if workers < 1 {
		workers = 1
	}
	return &Backfiller{
		store:     store,
		prices:    prices,
		estimator: NewWalkEstimator(),
		workers:   workers,
		pacing:    pacing,
		log:       log.With().Str("component", "backfill").Logger(),
	}
}

// Backfill fills missing snapshots for one asset (or AllAssets) from start to
// end inclusive, one calendar day at a time.
func (b *Backfiller) Backfill(ctx context.Context, symbol string, start, end time.Time) (*Report, error) {
	startDate := dateOnly(start)
	endDate := dateOnly(end)
	if endDate.Before(startDate) {
		return nil, &models.ValidationError{Field: "end_date", Reason: "must not precede start_date"}
	}

	symbols := []string{symbol}
	if symbol == AllAssets {
		var err error
		symbols, err = b.store.GetSymbolsWithTransactions()
		if err != nil {
			return nil, err
		}
	}

	report := &Report{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)

	for _, sym := range symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := b.backfillAsset(gctx, sym, startDate, endDate, report); err != nil {
				// Isolate the failure; the rest of the run continues.
				b.log.Error().Err(err).Str("symbol", sym).Msg("backfill failed for asset")
				report.addError(fmt.Errorf("%s: %w", sym, err))
			}
			if b.pacing > 0 {
				select {
				case <-time.After(b.pacing):
				case <-gctx.Done():
					return gctx.Err()
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}

	b.log.Info().
		Int("created", report.Created).
		Int("skipped", report.Skipped).
		Int("errors", len(report.Errors)).
		Time("start", startDate).
		Time("end", endDate).
		Msg("backfill run complete")

	return report, nil
}

// backfillAsset walks the date range for one asset. The ledger is loaded once
// and replayed per date; per-asset history is small enough that a full replay
// per day beats maintaining incremental state.
func (b *Backfiller) backfillAsset(ctx context.Context, symbol string, startDate, endDate time.Time, report *Report) error {
	txs, err := b.store.GetTransactionsBySymbol(symbol)
	if err != nil {
		return err
	}

	anchor, err := b.prices.Latest(ctx, symbol)
	if err != nil {
		if !errors.Is(err, models.ErrPriceUnavailable) {
			return err
		}
		anchor = decimal.Zero
	}

	for date := startDate; !date.After(endDate); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return err
		}

		exists, err := b.store.SnapshotExists(symbol, date)
		if err != nil {
			return err
		}
		if exists {
			report.addSkipped()
			continue
		}

		price := b.priceFor(ctx, symbol, date, anchor)
		v := ReplayAsOf(symbol, txs, date, price)

		created, err := b.store.InsertSnapshot(v.Snapshot())
		if err != nil {
			return err
		}
		if created {
			report.addCreated()
		} else {
			// Lost the insert race to a concurrent writer; equivalent to the
			// existence check having succeeded.
			report.addSkipped()
		}
	}

	return nil
}

// priceFor resolves the price for a backfill cell: an authoritative stored
// price wins, anything else falls back to the anchored estimate.
func (b *Backfiller) priceFor(ctx context.Context, symbol string, date time.Time, anchor decimal.Decimal) decimal.Decimal {
	price, err := b.prices.On(ctx, symbol, date)
	if err == nil {
		return price
	}
	if !errors.Is(err, models.ErrPriceUnavailable) {
		b.log.Warn().Err(err).Str("symbol", symbol).Time("date", date).Msg("price lookup failed, estimating")
	}
	return b.estimator.Estimate(symbol, date, anchor)
}
