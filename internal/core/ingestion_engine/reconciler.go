package ingestion_engine

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/markdave123-py/Docshelf/internal/core"
)

const defaultSweepWorkers = 8

// Report summarizes one sweep.
type Report struct {
	Scanned  int
	Young    int
	Orphaned int
	Deleted  int
}

// Reconciler removes blobs that no document row references. A blob is only
// considered once it is older than Grace, so uploads still in flight between
// the write and the insert are left alone.
type Reconciler struct {
	db      core.DbClient
	obj     core.ObjectClient
	grace   time.Duration
	workers int
	dryRun  bool
	now     func() time.Time
	log     zerolog.Logger
}

func NewReconciler(db core.DbClient, obj core.ObjectClient, grace time.Duration, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		db: db, obj: obj, grace: grace,
		workers: defaultSweepWorkers,
		now:     time.Now,
		log:     log,
	}
}

// DryRun makes sweeps report orphans without deleting them.
func (r *Reconciler) DryRun(on bool) *Reconciler {
	r.dryRun = on
	return r
}

// Sweep walks the blob store once.
func (r *Reconciler) Sweep(ctx context.Context) (Report, error) {
	var (
		scanned, young, orphaned, deleted atomic.Int64
		cutoff                            = r.now().Add(-r.grace)
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	walkErr := r.obj.Walk(gctx, func(location string, modified time.Time) error {
		scanned.Add(1)
		if modified.After(cutoff) {
			young.Add(1)
			return nil
		}
		g.Go(func() error {
			referenced, err := r.db.DocumentPathExists(gctx, location)
			if err != nil {
				return err
			}
			if referenced {
				return nil
			}
			orphaned.Add(1)
			if r.dryRun {
				r.log.Info().Str("file_path", location).Msg("orphan found (dry run)")
				return nil
			}
			if err := r.obj.Delete(gctx, location); err != nil {
				return err
			}
			deleted.Add(1)
			r.log.Info().Str("file_path", location).Msg("orphan removed")
			return nil
		})
		return nil
	})
	err := g.Wait()
	if err == nil {
		err = walkErr
	}

	rep := Report{
		Scanned:  int(scanned.Load()),
		Young:    int(young.Load()),
		Orphaned: int(orphaned.Load()),
		Deleted:  int(deleted.Load()),
	}
	return rep, err
}

// Start runs a sweep every interval until ctx is done.
func (r *Reconciler) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				r.log.Info().Msg("reconciler shutting down")
				return
			case <-t.C:
				rep, err := r.Sweep(ctx)
				if err != nil {
					r.log.Error().Err(err).Msg("sweep failed")
					continue
				}
				r.log.Info().
					Int("scanned", rep.Scanned).
					Int("orphaned", rep.Orphaned).
					Int("deleted", rep.Deleted).
					Msg("sweep finished")
			}
		}
	}()
}
