package metrics

import (
	"sync"
	"time"

	"pickup-games/internal/apperrors"
)

type opStats struct {
	calls       int
	failures    int
	outcomes    map[string]int
	lastLatency time.Duration
}

// Recorder captures in-memory counters about game operations and background work,
// and forwards them to OpenTelemetry when configured.
type Recorder struct {
	mu            sync.Mutex
	ops           map[string]*opStats
	notifications map[string]int
	notifyFailed  map[string]int
	seatConflicts int
	cycles        int
	cycleErrors   int
	repairs       int
	otel          *otelInstruments
}

func NewRecorder() *Recorder {
	return newRecorder(nil)
}

func newRecorder(otel *otelInstruments) *Recorder {
	return &Recorder{
		ops:           make(map[string]*opStats),
		notifications: make(map[string]int),
		notifyFailed:  make(map[string]int),
		otel:          otel,
	}
}

// Outcome labels err by its error code, or OutcomeOK for nil.
func Outcome(err error) string {
	if err == nil {
		return OutcomeOK
	}
	return string(apperrors.CodeOf(err))
}

// RecordOperation counts one call to op and its outcome.
func (r *Recorder) RecordOperation(op string, duration time.Duration, err error) {
	if r == nil {
		return
	}
	outcome := Outcome(err)

	r.mu.Lock()
	stats, ok := r.ops[op]
	if !ok {
		stats = &opStats{outcomes: make(map[string]int)}
		r.ops[op] = stats
	}
	stats.calls++
	stats.outcomes[outcome]++
	stats.lastLatency = duration
	if err != nil {
		stats.failures++
	}
	r.mu.Unlock()

	if r.otel != nil {
		r.otel.recordOperation(op, outcome, duration)
	}
}

// RecordSeatConflict counts an accept that lost the race for the last seat.
func (r *Recorder) RecordSeatConflict() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.seatConflicts++
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordCounter(r.otel.seatConflicts, 1)
	}
}

// RecordNotification counts a dispatched event and whether delivery failed.
func (r *Recorder) RecordNotification(event string, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.notifications[event]++
	if err != nil {
		r.notifyFailed[event]++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordNotification(event, err)
	}
}

// RecordHTTPRequest tracks basic HTTP metrics.
func (r *Recorder) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if r == nil || r.otel == nil {
		return
	}
	r.otel.recordHTTPRequest(method, path, status, duration)
}

// RecordReconcileCycle tracks one reconciliation sweep and how many marks it repaired.
func (r *Recorder) RecordReconcileCycle(duration time.Duration, repaired int, err error) {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.cycles++
	r.repairs += repaired
	if err != nil {
		r.cycleErrors++
	}
	r.mu.Unlock()
	if r.otel != nil {
		r.otel.recordReconcile(duration, repaired, err)
	}
}

// Snapshot is a copy of the counters recorded for one operation.
type Snapshot struct {
	Calls       int
	Failures    int
	Outcomes    map[string]int
	LastLatency time.Duration
}

func (r *Recorder) Snapshot(op string) Snapshot {
	if r == nil {
		return Snapshot{}
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	stats, ok := r.ops[op]
	if !ok {
		return Snapshot{Outcomes: map[string]int{}}
	}
	outcomes := make(map[string]int, len(stats.outcomes))
	for k, v := range stats.outcomes {
		outcomes[k] = v
	}
	return Snapshot{
		Calls:       stats.calls,
		Failures:    stats.failures,
		Outcomes:    outcomes,
		LastLatency: stats.lastLatency,
	}
}

// SeatConflicts returns the number of lost last-seat races.
func (r *Recorder) SeatConflicts() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.seatConflicts
}

// Notifications returns how many events of type event were dispatched and how many failed.
func (r *Recorder) Notifications(event string) (sent, failed int) {
	if r == nil {
		return 0, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.notifications[event], r.notifyFailed[event]
}

// ReconcileStats returns total cycles, failed cycles and repaired marks.
func (r *Recorder) ReconcileStats() (cycles, failed, repaired int) {
	if r == nil {
		return 0, 0, 0
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.cycles, r.cycleErrors, r.repairs
}
