package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/sahilmehra/campustrade-backend/internal/listings"
	"github.com/sahilmehra/campustrade-backend/pkg/logger"
)

const auctionSweepBatch = 100

type auctionLister interface {
	ListExpiredActiveAuctions(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

type auctionFinalizer interface {
	Finalize(ctx context.Context, listingID uuid.UUID) (*listings.FinalizeOutcome, error)
}

// AuctionSweepJobParams configure the expired-auction sweep.
type AuctionSweepJobParams struct {
	Logger    *logger.Logger
	Lister    auctionLister
	Finalizer auctionFinalizer
	Batch     int
}

// NewAuctionSweepJob builds the job that settles expired auctions nobody has
// read since their deadline. Reads finalize lazily; the sweep is the backstop
// so winners hear about idle auctions too.
func NewAuctionSweepJob(params AuctionSweepJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Lister == nil {
		return nil, fmt.Errorf("auction lister required")
	}
	if params.Finalizer == nil {
		return nil, fmt.Errorf("auction finalizer required")
	}
	batch := params.Batch
	if batch <= 0 {
		batch = auctionSweepBatch
	}
	return &auctionSweepJob{
		logg:      params.Logger,
		lister:    params.Lister,
		finalizer: params.Finalizer,
		batch:     batch,
		now:       time.Now,
	}, nil
}

type auctionSweepJob struct {
	logg      *logger.Logger
	lister    auctionLister
	finalizer auctionFinalizer
	batch     int
	now       func() time.Time
}

func (j *auctionSweepJob) Name() string { return "auction-sweep" }

func (j *auctionSweepJob) Run(ctx context.Context) error {
	ids, err := j.lister.ListExpiredActiveAuctions(ctx, j.now().UTC(), j.batch)
	if err != nil {
		return fmt.Errorf("list expired auctions: %w", err)
	}

	finalized := 0
	sold := 0
	var failed error
	for _, id := range ids {
		outcome, err := j.finalizer.Finalize(ctx, id)
		if err != nil {
			failed = multierr.Append(failed, fmt.Errorf("finalize %s: %w", id, err))
			errCtx := j.logg.WithField(ctx, "listing_id", id)
			j.logg.Error(errCtx, "auction finalization failed", err)
			continue
		}
		if outcome.Finalized {
			finalized++
		}
		if outcome.Sold {
			sold++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"expired":   len(ids),
		"finalized": finalized,
		"sold":      sold,
		"failures":  len(multierr.Errors(failed)),
	})
	j.logg.Info(logCtx, "auction sweep complete")
	if failed != nil {
		return fmt.Errorf("auction sweep: %w", failed)
	}
	return nil
}
