package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/eventlog"
	"github.com/hamed0406/checkwatch/internal/notify"
)

// Alerter tells a check's owner about a committed state change. Each
// transition gets one delivery attempt.
type Alerter struct {
	Notifier notify.Notifier
	Events   eventlog.Recorder
}

func NewAlerter(n notify.Notifier, events eventlog.Recorder) *Alerter {
	if events == nil {
		events = eventlog.Discard
	}
	return &Alerter{Notifier: n, Events: events}
}

// Message is the alert text for rec.
func Message(rec domain.CheckRecord) string {
	return fmt.Sprintf("Alert: your check for %s %s is currently %s (last checked %s)",
		rec.Method, rec.Target(), rec.State, rec.LastChecked.UTC().Format(time.RFC3339))
}

func (a *Alerter) Dispatch(ctx context.Context, rec domain.CheckRecord) error {
	msg := Message(rec)
	var err error
	if a.Notifier == nil {
		err = errors.New("no notifier configured")
	} else {
		err = a.Notifier.Deliver(ctx, rec.OwnerContact, msg)
	}
	if err != nil {
		a.Events.Record(eventlog.ERR, rec.ID, "alert_failed",
			zap.String("state", string(rec.State)),
			zap.Error(err),
		)
		return err
	}
	a.Events.Record(eventlog.CHCK, rec.ID, "alert_sent",
		zap.String("state", string(rec.State)),
		zap.String("message", msg),
	)
	return nil
}
