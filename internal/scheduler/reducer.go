package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/eventlog"
	"github.com/hamed0406/checkwatch/internal/probe"
)

// Reduce folds one probe outcome into the prior record. The check is up only
// when the outcome is a response with one of the check's success codes. An
// alert is warranted only when the prior record had been checked before and
// its state differs from the new one.
func Reduce(prior domain.CheckRecord, out probe.Outcome) (domain.CheckRecord, bool) {
	next := domain.StateDown
	if out.IsResponse() && prior.IsSuccess(out.ResponseCode) {
		next = domain.StateUp
	}

	updated := prior
	updated.State = next
	// stored at millisecond precision
	updated.LastChecked = out.CompletedAt.UTC().Truncate(time.Millisecond)

	return updated, prior.HasBeenChecked() && prior.State != next
}

type recordUpdater interface {
	Update(ctx context.Context, id string, rec domain.CheckRecord) error
}

// Reducer applies Reduce and persists the result. A transition counts as
// committed only once the record is saved.
type Reducer struct {
	Store  recordUpdater
	Events eventlog.Recorder
	Now    func() time.Time
}

func NewReducer(store recordUpdater, events eventlog.Recorder) *Reducer {
	if events == nil {
		events = eventlog.Discard
	}
	return &Reducer{Store: store, Events: events, Now: time.Now}
}

// Apply returns the persisted record and whether an alert should be sent. On
// a persistence error the alert flag is always false.
func (r *Reducer) Apply(ctx context.Context, prior domain.CheckRecord, out probe.Outcome) (domain.CheckRecord, bool, error) {
	if out.CompletedAt.IsZero() {
		out.CompletedAt = r.now()
	}
	updated, alert := Reduce(prior, out)

	if err := r.Store.Update(ctx, prior.ID, updated); err != nil {
		r.Events.Record(eventlog.ERR, prior.ID, "update_failed",
			zap.String("state", string(updated.State)),
			zap.Bool("transition", alert),
			zap.Error(err),
		)
		return prior, false, err
	}

	if alert {
		r.Events.Record(eventlog.CHCK, prior.ID, "state_changed",
			zap.String("from", string(prior.State)),
			zap.String("to", string(updated.State)),
		)
	} else {
		r.Events.Record(eventlog.CHCK, prior.ID, "outcome_unchanged",
			zap.String("state", string(updated.State)),
		)
	}
	return updated, alert, nil
}

func (r *Reducer) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}
