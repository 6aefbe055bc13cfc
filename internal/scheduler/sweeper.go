package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/checkwatch/internal/domain"
	"github.com/hamed0406/checkwatch/internal/eventlog"
	"github.com/hamed0406/checkwatch/internal/lock"
	"github.com/hamed0406/checkwatch/internal/notify"
	"github.com/hamed0406/checkwatch/internal/probe"
	"github.com/hamed0406/checkwatch/internal/repo"
)

// CheckStore is the part of repo.CheckStore the sweeper needs.
type CheckStore interface {
	List(ctx context.Context) ([]string, error)
	Read(ctx context.Context, id string) ([]byte, error)
	Update(ctx context.Context, id string, rec domain.CheckRecord) error
}

type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

func NewTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

// Sweeper probes every stored check once per interval. Passes start on a
// fixed wall-clock schedule and may overlap; a check still being processed
// by an earlier pass is skipped.
type Sweeper struct {
	Logger        *zap.Logger
	Events        eventlog.Recorder
	Store         CheckStore
	Prober        probe.Prober
	Reducer       *Reducer
	Alerter       *Alerter
	Locker        lock.Locker
	Interval      time.Duration
	MaxConcurrent int // 0 means unbounded

	// Diagnose, when set, annotates transport errors with the host's DNS state.
	Diagnose  func(ctx context.Context, host string) probe.DNSStatus
	NewTicker func(time.Duration) Ticker

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewSweeper(
	logger *zap.Logger,
	events eventlog.Recorder,
	store CheckStore,
	prober probe.Prober,
	notifier notify.Notifier,
	locker lock.Locker,
	interval time.Duration,
	maxConcurrent int,
) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if events == nil {
		events = eventlog.Discard
	}
	if locker == nil {
		locker = lock.NewLocal()
	}
	if maxConcurrent < 0 {
		maxConcurrent = 0
	}
	return &Sweeper{
		Logger:        logger,
		Events:        events,
		Store:         store,
		Prober:        prober,
		Reducer:       NewReducer(store, events),
		Alerter:       NewAlerter(notifier, events),
		Locker:        locker,
		Interval:      interval,
		MaxConcurrent: maxConcurrent,
		Diagnose:      probe.CheckDNS,
		NewTicker:     NewTimeTicker,
	}
}

// Start runs the sweeper in the background until Stop is called or ctx ends.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	go func(done chan struct{}) {
		defer close(done)
		s.Run(ctx)
	}(s.done)
}

// Stop cancels the running sweeper and waits for its passes to return.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run does an immediate pass, then one pass per tick. It returns after ctx
// is cancelled and every started pass has finished.
func (s *Sweeper) Run(ctx context.Context) {
	if s.Interval <= 0 {
		s.Logger.Info("sweeper_disabled")
		return
	}
	newTicker := s.NewTicker
	if newTicker == nil {
		newTicker = NewTimeTicker
	}
	t := newTicker(s.Interval)
	defer t.Stop()

	var passes sync.WaitGroup
	start := func() {
		passes.Add(1)
		go func() {
			defer passes.Done()
			s.Sweep(ctx)
		}()
	}

	s.Logger.Info("sweeper_started", zap.Duration("interval", s.Interval))
	start()
	for {
		select {
		case <-ctx.Done():
			passes.Wait()
			s.Logger.Info("sweeper_stopped")
			return
		case <-t.C():
			start()
		}
	}
}

// Sweep runs one pass and returns when every listed check has been processed
// or skipped.
func (s *Sweeper) Sweep(ctx context.Context) {
	ids, err := s.Store.List(ctx)
	if err != nil {
		s.Events.Record(eventlog.ERR, eventlog.SysKey, "list_failed", zap.Error(err))
		return
	}
	if len(ids) == 0 {
		s.Events.Record(eventlog.INFO, eventlog.SysKey, "no_checks_found")
		return
	}
	s.Events.Record(eventlog.INFO, eventlog.SysKey, "sweep_started", zap.Int("checks", len(ids)))

	var sem chan struct{}
	if s.MaxConcurrent > 0 {
		sem = make(chan struct{}, s.MaxConcurrent)
	}
	var wg sync.WaitGroup
	for _, id := range ids {
		if sem != nil {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				wg.Wait()
				return
			}
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				defer func() { <-sem }()
			}
			s.processCheck(ctx, id)
		}()
	}
	wg.Wait()
}

// processCheck holds the check's lock from read to persist so that
// overlapping passes cannot both act on the same prior state.
func (s *Sweeper) processCheck(ctx context.Context, id string) {
	release, ok, err := s.Locker.TryLock(ctx, id)
	if err != nil {
		s.Events.Record(eventlog.ERR, id, "lock_failed", zap.Error(err))
		return
	}
	if !ok {
		s.Events.Record(eventlog.WARN, id, "check_in_flight")
		return
	}
	defer release()

	raw, err := s.Store.Read(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		s.Events.Record(eventlog.CHCK, id, "check_not_found")
		return
	}
	if err != nil {
		s.Events.Record(eventlog.ERR, id, "read_failed", zap.Error(err))
		return
	}

	prior, err := domain.ValidateRecord(raw)
	if err != nil {
		key := domain.InvalidKey
		fields := []zap.Field{zap.String("stored_id", id), zap.Error(err)}
		var ve *domain.ValidationError
		if errors.As(err, &ve) {
			key = ve.Key()
			fields = append(fields, zap.String("field", ve.Field))
		}
		s.Events.Record(eventlog.CHCK, key, "invalid_check", fields...)
		return
	}
	// The lock and every write are keyed by the storage id, never the
	// document's own id field.
	if prior.ID != id {
		s.Events.Record(eventlog.CHCK, id, "invalid_check",
			zap.String("stored_id", id),
			zap.String("document_id", prior.ID),
			zap.String("field", "id"),
			zap.String("reason", "does not match storage key"),
		)
		return
	}

	out := s.Prober.Probe(ctx, prior.CheckDescriptor)
	if ctx.Err() != nil {
		s.Events.Record(eventlog.CHCK, id, "outcome_discarded", zap.String("outcome", out.String()))
		return
	}
	s.Events.Record(eventlog.CHCK, id, "probe_outcome", s.outcomeFields(ctx, prior, out)...)

	updated, alert, err := s.Reducer.Apply(ctx, prior, out)
	if err != nil || !alert {
		return
	}
	_ = s.Alerter.Dispatch(ctx, updated)
}

func (s *Sweeper) outcomeFields(ctx context.Context, rec domain.CheckRecord, out probe.Outcome) []zap.Field {
	fields := []zap.Field{
		zap.String("kind", out.Kind.String()),
		zap.String("method", string(rec.Method)),
		zap.String("target", rec.Target()),
	}
	switch out.Kind {
	case probe.KindResponse:
		fields = append(fields, zap.Int("code", out.ResponseCode))
	case probe.KindTransportError:
		fields = append(fields, zap.Error(out.Err))
		if s.Diagnose != nil {
			st := s.Diagnose(ctx, probe.HostOf(rec.URL))
			fields = append(fields, zap.String("dns_class", st.Class))
			if st.ResolverError != "" {
				fields = append(fields, zap.String("dns_error", st.ResolverError))
			}
		}
	case probe.KindTimeout:
		fields = append(fields, zap.Duration("timeout", rec.Timeout()))
	}
	return fields
}
