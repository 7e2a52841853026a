package ratings

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainusers "pickup-games/internal/domain/users"
	"pickup-games/internal/logging"
	"pickup-games/internal/metrics"
)

const defaultInterval = 5 * time.Minute

// UserScanner is the user store as seen by the reconciler.
type UserScanner interface {
	UserStore
	ListUsers(ctx context.Context) ([]domainusers.User, error)
}

// Reconciler periodically removes rater-side marks whose ratee never received
// the rating, so an interrupted submission can be retried. A mark is repaired
// only after it was seen orphaned on two consecutive cycles, giving in-flight
// submissions time to finish.
type Reconciler struct {
	users       UserScanner
	logger      *slog.Logger
	metrics     *metrics.Recorder
	interval    time.Duration
	maxAttempts int

	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
	startMu  sync.Mutex
	started  bool

	// suspects holds orphans seen on the previous cycle. Only the loop goroutine touches it.
	suspects map[orphan]struct{}

	statusMu sync.RWMutex
	status   Status
}

// Status describes the recent health of the reconcile loop.
type Status struct {
	ConsecutiveFailures int
	LastError           string
	LastAttempt         time.Time
	LastSuccess         time.Time
	LastRepaired        int
}

type orphan struct {
	gameID  string
	raterID string
	rateeID string
}

// NewReconciler constructs a Reconciler with sane defaults.
func NewReconciler(users UserScanner, logger *slog.Logger, recorder *metrics.Recorder, interval time.Duration) *Reconciler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Reconciler{
		users:       users,
		logger:      logger,
		metrics:     recorder,
		interval:    interval,
		maxAttempts: defaultMaxAttempts,
		done:        make(chan struct{}),
		suspects:    map[orphan]struct{}{},
	}
}

// Start runs reconcile cycles until the context is cancelled or Stop is called.
func (r *Reconciler) Start(ctx context.Context) {
	r.startMu.Lock()
	if r.started {
		r.startMu.Unlock()
		return
	}
	r.started = true
	r.ticker = time.NewTicker(r.interval)
	r.startMu.Unlock()

	go func() {
		logging.Info(r.logger, "reconciler started", logging.FieldDurationMS, r.interval.Milliseconds())
		for {
			select {
			case <-ctx.Done():
				r.stopTicker()
				logging.Info(r.logger, "reconciler stopped")
				return
			case <-r.done:
				r.stopTicker()
				logging.Info(r.logger, "reconciler stopped")
				return
			case <-r.ticker.C:
				r.runOnce(ctx)
			}
		}
	}()
}

// Stop halts the loop.
func (r *Reconciler) Stop(ctx context.Context) error {
	_ = ctx
	r.stopOnce.Do(func() {
		close(r.done)
		r.stopTicker()
	})
	return nil
}

// Status returns a snapshot of the reconciler's recent health.
func (r *Reconciler) Status() Status {
	r.statusMu.RLock()
	defer r.statusMu.RUnlock()
	return r.status
}

func (r *Reconciler) runOnce(ctx context.Context) {
	start := time.Now()
	r.recordAttempt(start)
	repaired, err := r.reconcile(ctx)
	r.metrics.RecordReconcileCycle(time.Since(start), repaired, err)
	if err != nil {
		logging.Error(r.logger, "reconcile cycle failed", err,
			logging.FieldReconcile, true,
			logging.FieldDurationMS, time.Since(start).Milliseconds(),
		)
		r.recordFailure(err, start)
		return
	}
	r.recordSuccess(start, repaired)
	if repaired > 0 {
		logging.Info(r.logger, "reconciled orphan rating marks",
			logging.FieldCount, repaired,
			logging.FieldDurationMS, time.Since(start).Milliseconds(),
		)
	}
}

// reconcile performs one scan. It returns how many marks were removed.
func (r *Reconciler) reconcile(ctx context.Context) (int, error) {
	users, err := r.users.ListUsers(ctx)
	if err != nil {
		return 0, err
	}
	byID := make(map[string]domainusers.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	seen := map[orphan]struct{}{}
	repaired := 0
	var errs []error
	for _, rater := range users {
		for _, a := range rater.ActivityHistory {
			for _, rateeID := range a.PlayersRated {
				if ratee, ok := byID[rateeID]; ok && ratee.HasRatingFrom(a.GameID, rater.ID) {
					continue
				}
				o := orphan{gameID: a.GameID, raterID: rater.ID, rateeID: rateeID}
				if _, suspected := r.suspects[o]; !suspected {
					seen[o] = struct{}{}
					continue
				}
				removed, err := r.repair(ctx, o)
				if err != nil {
					errs = append(errs, err)
					seen[o] = struct{}{}
					continue
				}
				if removed {
					repaired++
					logging.Warn(r.logger, "removed orphan rating mark",
						logging.FieldGameID, o.gameID,
						logging.FieldUserID, o.raterID,
						logging.FieldRateeID, o.rateeID,
						logging.FieldReconcile, true,
					)
				}
			}
		}
	}
	r.suspects = seen
	return repaired, errors.Join(errs...)
}

// repair re-checks the ratee before removing the mark from the rater.
func (r *Reconciler) repair(ctx context.Context, o orphan) (bool, error) {
	ratee, err := loadUser(ctx, r.users, o.rateeID)
	if err != nil {
		return false, err
	}
	if ratee.HasRatingFrom(o.gameID, o.raterID) {
		return false, nil
	}

	removed := false
	err = updateUser(ctx, r.users, o.raterID, r.maxAttempts, func(u *domainusers.User) error {
		removed = u.UnmarkRated(o.gameID, o.rateeID)
		if !removed {
			return errUnchanged
		}
		return nil
	})
	return removed, err
}

func (r *Reconciler) stopTicker() {
	r.startMu.Lock()
	defer r.startMu.Unlock()
	if r.ticker != nil {
		r.ticker.Stop()
	}
}

func (r *Reconciler) recordAttempt(at time.Time) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.status.LastAttempt = at
}

func (r *Reconciler) recordSuccess(at time.Time, repaired int) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.status.ConsecutiveFailures = 0
	r.status.LastError = ""
	r.status.LastSuccess = at
	r.status.LastRepaired = repaired
}

func (r *Reconciler) recordFailure(err error, at time.Time) {
	r.statusMu.Lock()
	defer r.statusMu.Unlock()
	r.status.ConsecutiveFailures++
	if err != nil {
		r.status.LastError = err.Error()
	}
	r.status.LastAttempt = at
}
