package notify

import (
	"context"
	"errors"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

var (
	ErrInvalidDestination = errors.New("invalid destination")
	ErrMessageTooLong     = errors.New("message too long")
)

// Notifier delivers one message to one destination. Implementations do not
// retry.
type Notifier interface {
	Deliver(ctx context.Context, destination, message string) error
}

// Multi delivers to every notifier and reports all failures.
type Multi []Notifier

func (m Multi) Deliver(ctx context.Context, destination, message string) error {
	var err error
	for _, n := range m {
		if n == nil {
			continue
		}
		err = multierr.Append(err, n.Deliver(ctx, destination, message))
	}
	return err
}

// Log writes deliveries to a logger instead of sending them.
type Log struct {
	Logger *zap.Logger
}

func (l Log) Deliver(_ context.Context, destination, message string) error {
	log := l.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log.Info("notification", zap.String("destination", destination), zap.String("message", message))
	return nil
}
