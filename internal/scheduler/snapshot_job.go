package scheduler

import (
	"context"
	"time"

	"github.com/jpradley/asset-ledger-service/internal/valuation"
)

// SnapshotJob backfills yesterday's snapshot for every asset in the ledger.
// Running it daily keeps the valuation series current; because backfill is
// idempotent, an extra run (or a missed day caught up later over a wider
// range) is harmless.
type SnapshotJob struct {
	backfiller *valuation.Backfiller
}

// NewSnapshotJob creates the daily snapshot job.
func NewSnapshotJob(backfiller *valuation.Backfiller) *SnapshotJob {
	return &SnapshotJob{backfiller: backfiller}
}

func (j *SnapshotJob) Name() string { return "daily-snapshot" }

func (j *SnapshotJob) Run() error {
	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	_, err := j.backfiller.Backfill(context.Background(), valuation.AllAssets, yesterday, yesterday)
	return err
}
