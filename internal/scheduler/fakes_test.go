package scheduler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/eventlog"
	"github.com/hamed0406/checkwatch/internal/probe"
)

// --- fakes ---

type event struct {
	cat eventlog.Category
	key string
	msg string
}

type recordedEvents struct {
	mu     sync.Mutex
	events []event
}

func (r *recordedEvents) Record(cat eventlog.Category, key, msg string, _ ...zap.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{cat, key, msg})
}

func (r *recordedEvents) has(cat, key, msg string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if string(e.cat) == cat && e.key == key && e.msg == msg {
			return true
		}
	}
	return false
}

func (r *recordedEvents) count(msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.msg == msg {
			n++
		}
	}
	return n
}

type fakeProber struct {
	calls atomic.Int32
	fn    func(ctx context.Context, d domain.CheckDescriptor) probe.Outcome
}

func (f *fakeProber) Probe(ctx context.Context, d domain.CheckDescriptor) probe.Outcome {
	f.calls.Add(1)
	return f.fn(ctx, d)
}

func respondWith(code int) *fakeProber {
	return &fakeProber{fn: func(context.Context, domain.CheckDescriptor) probe.Outcome {
		return probe.Response(code, time.Now())
	}}
}

type delivery struct{ destination, message string }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []delivery
	err  error
}

func (n *recordingNotifier) Deliver(_ context.Context, destination, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, delivery{destination, message})
	return n.err
}

func (n *recordingNotifier) deliveries() []delivery {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]delivery(nil), n.sent...)
}

type fakeTicker struct {
	ch      chan time.Time
	stopped atomic.Bool
}

func newFakeTicker() *fakeTicker { return &fakeTicker{ch: make(chan time.Time)} }

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }
