package probe

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hamed0406/checkwatch/internal/domain"
)

// ErrTimeout is the error carried by a Timeout outcome.
var ErrTimeout = errors.New("probe timed out")

type Kind int

const (
	KindResponse Kind = iota + 1
	KindTransportError
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindResponse:
		return "response"
	case KindTransportError:
		return "transport_error"
	case KindTimeout:
		return "timeout"
	}
	return "invalid"
}

// Outcome is the terminal result of one probe: a response code, a transport
// error or a timeout. Build it with Response, TransportError or Timeout.
type Outcome struct {
	Kind         Kind
	ResponseCode int   // KindResponse only
	Err          error // KindTransportError and KindTimeout only
	CompletedAt  time.Time
}

func Response(code int, at time.Time) Outcome {
	return Outcome{Kind: KindResponse, ResponseCode: code, CompletedAt: at}
}

func TransportError(err error, at time.Time) Outcome {
	if err == nil {
		err = errors.New("unknown transport error")
	}
	return Outcome{Kind: KindTransportError, Err: err, CompletedAt: at}
}

func Timeout(at time.Time) Outcome {
	return Outcome{Kind: KindTimeout, Err: ErrTimeout, CompletedAt: at}
}

func (o Outcome) IsResponse() bool { return o.Kind == KindResponse }

func (o Outcome) String() string {
	if o.IsResponse() {
		return fmt.Sprintf("response %d", o.ResponseCode)
	}
	return fmt.Sprintf("%s: %v", o.Kind, o.Err)
}

// Prober executes exactly one probe for a check and reports one outcome.
type Prober interface {
	Probe(ctx context.Context, d domain.CheckDescriptor) Outcome
}

// slot holds the first outcome settled into it; later settles are dropped.
type slot struct {
	once sync.Once
	done chan struct{}
	out  Outcome
}

func newSlot() *slot { return &slot{done: make(chan struct{})} }

// settle stores o if nothing was stored yet and reports whether it won.
func (s *slot) settle(o Outcome) bool {
	won := false
	s.once.Do(func() {
		s.out = o
		won = true
		close(s.done)
	})
	return won
}

// wait blocks until an outcome is settled.
func (s *slot) wait() Outcome {
	<-s.done
	return s.out
}
